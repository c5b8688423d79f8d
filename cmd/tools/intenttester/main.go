package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	analysis "github.com/TrueV1sion/ai-roadtrip-storyteller-sub004/internal/analysis/intent"
	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub004/internal/analysis/match"
	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub004/internal/config"
	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub004/internal/model/game"
	intentsvc "github.com/TrueV1sion/ai-roadtrip-storyteller-sub004/internal/service/intent"
)

// Manual probe for the voice pipeline: feed a transcript in and see what
// the analyzer and matcher make of it, without standing up the server.
func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if err := godotenv.Load(); err != nil {
		log.Printf("[WARN] no .env file, using system environment: %v", err)
	}

	mode := flag.String("mode", "intent", "test mode: intent or match")
	text := flag.String("text", "", "transcript to analyze")
	kind := flag.String("kind", "trivia", "game kind context (trivia, twenty_questions, bingo, free_form)")
	options := flag.String("options", "", "comma-separated answer options for -mode=match")
	useLLM := flag.Bool("llm", false, "escalate unmatched transcripts to the configured chat model")
	timeout := flag.Duration("timeout", 15*time.Second, "request timeout")

	flag.Parse()

	if strings.TrimSpace(*text) == "" {
		flag.Usage()
		log.Fatal("provide a transcript with -text")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	switch *mode {
	case "intent":
		runIntent(ctx, *text, *kind, *useLLM)
	case "match":
		runMatch(*text, *options)
	default:
		flag.Usage()
		log.Fatal("pick -mode=intent or -mode=match")
	}
}

func runIntent(ctx context.Context, text, kind string, useLLM bool) {
	parsedKind, ok := game.ParseKind(kind)
	if !ok {
		log.Fatalf("bad -kind %q", kind)
	}
	sctx := analysis.Context{Kind: parsedKind, Status: game.StatusActive}

	if !useLLM {
		result := analysis.Analyze(text, sctx)
		printIntent(text, string(result.Type), result.Confidence, result.Params)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	var chatModel model.ChatModel
	if cfg.AI.Enabled() {
		chatModel, err = cfg.AI.NewChatModel(ctx)
		if err != nil {
			log.Fatalf("chat model init failed: %v", err)
		}
	} else {
		log.Fatal("-llm requires ark credentials in the environment")
	}

	svc, err := intentsvc.NewService(ctx, chatModel, intentsvc.Config{Enabled: true}, zerolog.Nop())
	if err != nil {
		log.Fatalf("classifier init failed: %v", err)
	}

	result := svc.Analyze(ctx, text, sctx)
	printIntent(text, string(result.Type), result.Confidence, result.Params)
}

func runMatch(text, options string) {
	var opts []string
	for _, opt := range strings.Split(options, ",") {
		if trimmed := strings.TrimSpace(opt); trimmed != "" {
			opts = append(opts, trimmed)
		}
	}
	if len(opts) == 0 {
		log.Fatal("-mode=match needs -options=\"Paris,London,Rome,Berlin\"")
	}

	result := match.Match(text, opts)
	log.Printf("transcript=%q best=%q index=%d confidence=%.2f via=%s",
		text, result.BestMatch, result.Index, result.Confidence, result.MatchType)
	if result.Confidence < match.ClarifyBelow {
		log.Print("below clarify threshold: the orchestrator would ask again")
	}
}

func printIntent(text, intentType string, confidence float64, params map[string]string) {
	log.Printf("transcript=%q type=%s confidence=%.2f", text, intentType, confidence)
	for key, value := range params {
		fmt.Printf("  %s = %s\n", key, value)
	}
}
