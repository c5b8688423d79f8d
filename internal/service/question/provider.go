// Package question supplies round items: LLM-generated when the content
// collaborator is configured, otherwise drawn from a built-in road-trip
// bank so games always have material.
package question

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub004/internal/analysis/difficulty"
	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub004/internal/model/game"
)

const defaultTimeout = 5 * time.Second

// Config controls the provider.
type Config struct {
	Enabled bool
	Timeout time.Duration
}

// Provider issues questions for trivia and secret items for twenty
// questions. Generation failures degrade to the bank, never to errors.
type Provider struct {
	enabled bool
	chain   compose.Runnable[map[string]any, *schema.Message]
	timeout time.Duration
	log     zerolog.Logger

	mu     sync.Mutex
	cursor map[game.Kind]int
}

// NewProvider compiles the generation chain when a chat model is
// available.
func NewProvider(ctx context.Context, chatModel model.ChatModel, cfg Config, log zerolog.Logger) (*Provider, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	p := &Provider{
		enabled: cfg.Enabled && chatModel != nil,
		timeout: timeout,
		log:     log.With().Str("component", "question-provider").Logger(),
		cursor:  make(map[game.Kind]int),
	}
	if !p.enabled {
		return p, nil
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(generateSystemPrompt),
		schema.UserMessage(generateUserPrompt),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "compile question chain")
	}
	p.chain = runnable
	return p, nil
}

// Next returns a fresh question for the game at the requested
// difficulty.
func (p *Provider) Next(ctx context.Context, kind game.Kind, topic string, score float64) (*game.Question, error) {
	if p.enabled && p.chain != nil {
		if q, err := p.generate(ctx, kind, topic, score); err == nil {
			return q, nil
		} else {
			p.log.Debug().Err(err).Msg("question generation failed, using bank")
		}
	}
	return p.fromBank(kind, score), nil
}

func (p *Provider) generate(ctx context.Context, kind game.Kind, topic string, score float64) (*game.Question, error) {
	genCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	msg, err := p.chain.Invoke(genCtx, map[string]any{
		"kind":   string(kind),
		"topic":  topic,
		"level":  string(difficulty.LevelFor(score)),
		"target": score,
	})
	if err != nil {
		return nil, err
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return nil, errors.New("empty generation output")
	}

	trimmed := strings.TrimSpace(msg.Content)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end <= start {
		return nil, errors.New("missing json object")
	}

	var payload struct {
		Prompt  string   `json:"prompt"`
		Options []string `json:"options"`
		Answer  string   `json:"answer"`
		Hints   []string `json:"hints"`
	}
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), &payload); err != nil {
		return nil, err
	}
	if payload.Prompt == "" || payload.Answer == "" {
		return nil, errors.New("incomplete question payload")
	}
	if kind == game.KindTrivia && len(payload.Options) < 2 {
		return nil, errors.New("trivia question needs options")
	}

	return &game.Question{
		ID:         uuid.NewString(),
		Topic:      topic,
		Prompt:     payload.Prompt,
		Options:    payload.Options,
		Answer:     payload.Answer,
		Difficulty: score,
		Hints:      payload.Hints,
	}, nil
}

// fromBank rotates through bank entries of the kind, preferring the
// closest difficulty.
func (p *Provider) fromBank(kind game.Kind, score float64) *game.Question {
	entries := bank[kind]
	if len(entries) == 0 {
		entries = bank[game.KindTrivia]
	}

	p.mu.Lock()
	offset := p.cursor[kind]
	p.cursor[kind]++
	p.mu.Unlock()

	// Scan from the rotating offset for the first entry within 0.25 of
	// the target, falling back to plain rotation.
	for i := 0; i < len(entries); i++ {
		candidate := entries[(offset+i)%len(entries)]
		delta := candidate.Difficulty - score
		if delta < 0 {
			delta = -delta
		}
		if delta <= 0.25 {
			return issue(candidate)
		}
	}
	return issue(entries[offset%len(entries)])
}

// issue copies a bank entry with a fresh id so issued questions stay
// immutable and single-use.
func issue(template game.Question) *game.Question {
	q := template
	q.ID = uuid.NewString()
	q.Options = append([]string(nil), template.Options...)
	q.Hints = append([]string(nil), template.Hints...)
	return &q
}

// BoardLabels returns count spotting labels for a bingo board, rotating
// through the built-in road-trip list. Boards larger than the list get
// numbered variants so every label stays unique.
func (p *Provider) BoardLabels(count int) []string {
	p.mu.Lock()
	offset := p.cursor[game.KindBingo]
	p.cursor[game.KindBingo] += count
	p.mu.Unlock()

	labels := make([]string, count)
	for i := 0; i < count; i++ {
		idx := offset + i
		label := spottingItems[idx%len(spottingItems)]
		if pass := idx / len(spottingItems); pass > 0 {
			label = fmt.Sprintf("%s %d", label, pass+1)
		}
		labels[i] = label
	}
	return labels
}

const generateSystemPrompt = "You write one round item for an in-car voice game. " +
	"For trivia: a question with exactly four short options and the correct answer among them. " +
	"For twenty_questions: a common physical object as the answer, an empty options list, and three ordered hints from vague to specific. " +
	"Respond with only a JSON object: prompt, options (array), answer, hints (array). Keep everything speakable in one breath."

const generateUserPrompt = "Game: {kind}\nTopic: {topic}\nDifficulty level: {level} (target {target})\n\nReturn the JSON."
