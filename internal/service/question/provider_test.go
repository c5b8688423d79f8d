package question

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub004/internal/model/game"
)

func newBankProvider(t *testing.T) *Provider {
	t.Helper()
	p, err := NewProvider(context.Background(), nil, Config{}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewProvider err: %v", err)
	}
	return p
}

func TestNextTriviaFromBank(t *testing.T) {
	p := newBankProvider(t)

	q, err := p.Next(context.Background(), game.KindTrivia, "", 0.4)
	if err != nil {
		t.Fatalf("Next err: %v", err)
	}
	if q.ID == "" {
		t.Fatal("issued questions need a fresh id")
	}
	if len(q.Options) != 4 {
		t.Fatalf("trivia questions carry four options, got %d", len(q.Options))
	}
	found := false
	for _, option := range q.Options {
		if option == q.Answer {
			found = true
		}
	}
	if !found {
		t.Fatalf("answer %q missing from options %v", q.Answer, q.Options)
	}
}

func TestNextPrefersCloseDifficulty(t *testing.T) {
	p := newBankProvider(t)

	q, err := p.Next(context.Background(), game.KindTrivia, "", 0.1)
	if err != nil {
		t.Fatalf("Next err: %v", err)
	}
	delta := q.Difficulty - 0.1
	if delta < 0 {
		delta = -delta
	}
	if delta > 0.25 {
		t.Fatalf("expected a question within 0.25 of the target, got difficulty %f", q.Difficulty)
	}
}

func TestNextRotatesThroughBank(t *testing.T) {
	p := newBankProvider(t)
	ctx := context.Background()

	first, err := p.Next(ctx, game.KindTrivia, "", 0.4)
	if err != nil {
		t.Fatalf("Next err: %v", err)
	}
	second, err := p.Next(ctx, game.KindTrivia, "", 0.4)
	if err != nil {
		t.Fatalf("Next err: %v", err)
	}
	if first.Prompt == second.Prompt {
		t.Fatal("consecutive questions should rotate, not repeat")
	}
}

func TestNextTwentyQuestionsHasHints(t *testing.T) {
	p := newBankProvider(t)

	q, err := p.Next(context.Background(), game.KindTwentyQuestions, "", 0.4)
	if err != nil {
		t.Fatalf("Next err: %v", err)
	}
	if len(q.Options) != 0 {
		t.Fatalf("twenty questions items carry no options, got %v", q.Options)
	}
	if len(q.Hints) != 3 {
		t.Fatalf("expected three ordered hints, got %d", len(q.Hints))
	}
	if q.Answer == "" {
		t.Fatal("expected a secret answer")
	}
}

func TestIssueCopiesAreIndependent(t *testing.T) {
	p := newBankProvider(t)
	ctx := context.Background()

	first, err := p.Next(ctx, game.KindTrivia, "", 0.2)
	if err != nil {
		t.Fatalf("Next err: %v", err)
	}
	first.Options[0] = "mutated"

	p2 := newBankProvider(t)
	again, err := p2.Next(ctx, game.KindTrivia, "", 0.2)
	if err != nil {
		t.Fatalf("Next err: %v", err)
	}
	if again.Options[0] == "mutated" {
		t.Fatal("issued questions must not share backing arrays with the bank")
	}
}

func TestBoardLabelsUniquePerBoard(t *testing.T) {
	p := newBankProvider(t)

	labels := p.BoardLabels(24)
	if len(labels) != 24 {
		t.Fatalf("expected 24 labels, got %d", len(labels))
	}
	seen := make(map[string]struct{}, len(labels))
	for _, label := range labels {
		if _, dup := seen[label]; dup {
			t.Fatalf("duplicate label %q", label)
		}
		seen[label] = struct{}{}
	}
}

func TestBoardLabelsUniqueBeyondBankSize(t *testing.T) {
	p := newBankProvider(t)

	// A 6x6 board needs more labels than the bank holds.
	labels := p.BoardLabels(36)
	seen := make(map[string]struct{}, len(labels))
	for _, label := range labels {
		if _, dup := seen[label]; dup {
			t.Fatalf("duplicate label %q", label)
		}
		seen[label] = struct{}{}
	}
	if _, err := game.NewBoard(6, labels); err != nil {
		t.Fatalf("oversized board should lay out cleanly: %v", err)
	}
}

func TestBoardLabelsRotate(t *testing.T) {
	p := newBankProvider(t)

	first := p.BoardLabels(24)
	second := p.BoardLabels(24)
	if first[0] == second[0] {
		t.Fatal("consecutive boards should start from a rotated offset")
	}
}
