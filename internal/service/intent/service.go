// Package intent turns a speech transcript into a typed intent. Fast
// pattern rules run first; only low-confidence transcripts escalate to
// the LLM classification collaborator, and collaborator failures degrade
// to type=other rather than raising.
package intent

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	analysis "github.com/TrueV1sion/ai-roadtrip-storyteller-sub004/internal/analysis/intent"
	intentmodel "github.com/TrueV1sion/ai-roadtrip-storyteller-sub004/internal/model/intent"
)

// minClassifierConfidence is the floor below which classifier output is
// treated as unusable and the intent degrades to type=other.
const minClassifierConfidence = 0.5

// defaultTimeout bounds a classifier call; a timed-out call is treated
// as type=other, never left pending.
const defaultTimeout = 3 * time.Second

// Config controls the analyzer service.
type Config struct {
	Enabled bool
	Timeout time.Duration
}

// Service classifies transcripts with rules first and an LLM fallback.
type Service struct {
	enabled    bool
	classifier compose.Runnable[map[string]any, *schema.Message]
	timeout    time.Duration
	log        zerolog.Logger
}

// NewService compiles the classifier chain when a chat model is
// available; otherwise the service runs rules-only.
func NewService(ctx context.Context, chatModel model.ChatModel, cfg Config, log zerolog.Logger) (*Service, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	svc := &Service{
		enabled: cfg.Enabled && chatModel != nil,
		timeout: timeout,
		log:     log.With().Str("component", "intent-service").Logger(),
	}
	if !svc.enabled {
		return svc, nil
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(classifierSystemPrompt),
		schema.UserMessage(classifierUserPrompt),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "compile intent classifier chain")
	}
	svc.classifier = runnable
	return svc, nil
}

// Enabled reports whether the LLM fallback is wired.
func (s *Service) Enabled() bool {
	return s != nil && s.enabled && s.classifier != nil
}

// Analyze evaluates the rule list and falls back to the classifier when
// no rule matches. The result is never an error: the orchestrator
// decides what to do with low-confidence intents.
func (s *Service) Analyze(ctx context.Context, transcript string, sctx analysis.Context) intentmodel.Intent {
	ruled := analysis.Analyze(transcript, sctx)
	if ruled.Type != intentmodel.TypeOther {
		return ruled
	}
	if !s.Enabled() {
		return ruled
	}

	classifyCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	msg, err := s.classifier.Invoke(classifyCtx, map[string]any{
		"transcript": strings.TrimSpace(transcript),
		"game":       string(sctx.Kind),
		"status":     string(sctx.Status),
	})
	if err != nil {
		s.log.Debug().Err(err).Msg("classifier invoke failed, degrading to other")
		return ruled
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return ruled
	}

	payload, err := parseClassifierOutput(msg.Content)
	if err != nil {
		s.log.Debug().Err(err).Msg("classifier output unparseable, degrading to other")
		return ruled
	}

	typ, ok := intentmodel.ParseType(payload.Intent)
	if !ok || payload.Confidence < minClassifierConfidence {
		return intentmodel.Intent{
			Type:       intentmodel.TypeOther,
			Confidence: payload.Confidence,
			Transcript: transcript,
		}
	}

	return intentmodel.Intent{
		Type:       typ,
		Confidence: payload.Confidence,
		Params:     payload.Parameters,
		Transcript: transcript,
	}
}

type classifierPayload struct {
	Intent     string            `json:"intent"`
	Confidence float64           `json:"confidence"`
	Parameters map[string]string `json:"parameters"`
}

// parseClassifierOutput extracts the first JSON object from the model
// reply, tolerating surrounding prose.
func parseClassifierOutput(content string) (*classifierPayload, error) {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end <= start {
		return nil, errors.New("missing json object")
	}

	payload := &classifierPayload{}
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), payload); err != nil {
		return nil, err
	}
	return payload, nil
}

const classifierSystemPrompt = "You classify a single voice transcript from a road-trip game session into exactly one intent. " +
	"Valid intents: start_game, join_game, answer, spot, question, hint, repeat, next, pause, resume, score, quit, other. " +
	"Respond with only a JSON object: intent (one of the valid labels), confidence (0..1), " +
	"parameters (string map; use keys game, answer, letter, item, guess when applicable). No extra text."

const classifierUserPrompt = "Game kind: {game}\nSession status: {status}\nTranscript: {transcript}\n\nReturn the JSON."
