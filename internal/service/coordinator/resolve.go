package coordinator

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub004/internal/model/game"
	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub004/internal/service/broadcast"
)

// basePoints is awarded for any correct answer in a ranked round.
const basePoints = 10

// AnswerSubmission is one player's answer with its arrival time.
type AnswerSubmission struct {
	PlayerID   string    `json:"playerId"`
	Answer     string    `json:"answer"`
	ReceivedAt time.Time `json:"receivedAt"`
}

// AnswerOutcome is the ranked result for one submission.
type AnswerOutcome struct {
	PlayerID string `json:"playerId"`
	Answer   string `json:"answer"`
	Correct  bool   `json:"correct"`
	Rank     int    `json:"rank"`
	Points   int    `json:"points"`
}

// RankAnswers orders a simultaneous batch by arrival time (ties by
// player id) and awards a speed bonus of max(0, 10-2*rank) on top of the
// base points for each correct answer. Pure and deterministic.
func RankAnswers(batch []AnswerSubmission, correct string) []AnswerOutcome {
	sorted := append([]AnswerSubmission(nil), batch...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].ReceivedAt.Equal(sorted[j].ReceivedAt) {
			return sorted[i].PlayerID < sorted[j].PlayerID
		}
		return sorted[i].ReceivedAt.Before(sorted[j].ReceivedAt)
	})

	outcomes := make([]AnswerOutcome, len(sorted))
	for rank, sub := range sorted {
		outcome := AnswerOutcome{
			PlayerID: sub.PlayerID,
			Answer:   sub.Answer,
			Rank:     rank,
		}
		if strings.EqualFold(strings.TrimSpace(sub.Answer), strings.TrimSpace(correct)) {
			outcome.Correct = true
			bonus := basePoints - 2*rank
			if bonus < 0 {
				bonus = 0
			}
			outcome.Points = basePoints + bonus
		}
		outcomes[rank] = outcome
	}
	return outcomes
}

// ScoreRound applies a ranked batch against the session's current
// question atomically and broadcasts a single answer_results event,
// never partial or interleaved results.
func (c *Coordinator) ScoreRound(ctx context.Context, sessionID string, batch []AnswerSubmission) ([]AnswerOutcome, error) {
	var outcomes []AnswerOutcome
	sess, err := c.store.Update(ctx, sessionID, func(s *game.Session) error {
		if s.Status != game.StatusActive {
			return game.ErrSessionFinished
		}
		if s.Question == nil {
			return game.ErrAmbiguousInput
		}
		outcomes = RankAnswers(batch, s.Question.Answer)
		received := make(map[string]time.Time, len(batch))
		for _, sub := range batch {
			received[sub.PlayerID] = sub.ReceivedAt
		}
		now := time.Now().UTC()
		asked := s.LastUpdate
		for _, outcome := range outcomes {
			player, ok := s.Player(outcome.PlayerID)
			if !ok {
				continue
			}
			elapsed := received[outcome.PlayerID].Sub(asked).Milliseconds()
			if elapsed < 0 {
				elapsed = 0
			}
			// Rolling history feeds the difficulty engine for ranked
			// rounds just as it does for individual answers.
			player.RecordAnswer(outcome.Correct, elapsed, now)
			player.Score += outcome.Points
		}
		s.Question = nil
		s.AdvanceRound()
		return nil
	})
	if err != nil {
		return nil, err
	}

	ranked := make([]map[string]any, len(outcomes))
	for i, outcome := range outcomes {
		ranked[i] = map[string]any{
			"playerId": outcome.PlayerID,
			"correct":  outcome.Correct,
			"rank":     outcome.Rank,
			"points":   outcome.Points,
		}
	}
	c.publish(ctx, sessionID, broadcast.EventAnswerResults, map[string]any{
		"round":   sess.Round,
		"results": ranked,
	})
	return outcomes, nil
}

// VoiceInput is one of several simultaneous utterances competing to be
// the canonical input for a session.
type VoiceInput struct {
	PlayerID   string  `json:"playerId"`
	Transcript string  `json:"transcript"`
	Confidence float64 `json:"confidence"`
	Clarity    float64 `json:"clarity"`
}

// Priority is the conflict-resolution score for the input.
func (v VoiceInput) Priority() float64 {
	return v.Confidence * v.Clarity
}

// ResolveConflict picks the single highest-priority input, ties broken
// by lexically lower player id. Deterministic and reproducible for
// identical inputs; the rest are discarded, no retries.
func ResolveConflict(inputs []VoiceInput) (VoiceInput, bool) {
	if len(inputs) == 0 {
		return VoiceInput{}, false
	}
	best := inputs[0]
	for _, candidate := range inputs[1:] {
		switch {
		case candidate.Priority() > best.Priority():
			best = candidate
		case candidate.Priority() == best.Priority() && candidate.PlayerID < best.PlayerID:
			best = candidate
		}
	}
	return best, true
}

// SelectVoice resolves a conflict batch and broadcasts which player was
// selected and why.
func (c *Coordinator) SelectVoice(ctx context.Context, sessionID string, inputs []VoiceInput) (VoiceInput, bool) {
	selected, ok := ResolveConflict(inputs)
	if !ok {
		return VoiceInput{}, false
	}
	if len(inputs) > 1 {
		discarded := make([]string, 0, len(inputs)-1)
		for _, input := range inputs {
			if input.PlayerID != selected.PlayerID {
				discarded = append(discarded, input.PlayerID)
			}
		}
		c.publish(ctx, sessionID, broadcast.EventVoiceSelected, map[string]any{
			"playerId":  selected.PlayerID,
			"priority":  selected.Priority(),
			"discarded": discarded,
			"reason":    fmt.Sprintf("highest confidence*clarity %.2f", selected.Priority()),
		})
	}
	return selected, true
}
