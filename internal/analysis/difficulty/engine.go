// Package difficulty estimates how challenging the next prompt should be
// for a player, as a pure function over their rolling performance history.
package difficulty

import (
	"fmt"
	"sort"
	"strings"

	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub004/internal/model/game"
)

// Level is the discrete difficulty band presented to content providers.
type Level string

const (
	LevelEasy   Level = "easy"
	LevelMedium Level = "medium"
	LevelHard   Level = "hard"
	LevelExpert Level = "expert"
)

// Factor weights, fixed by design review.
const (
	weightAccuracy   = 0.4
	weightSpeed      = 0.2
	weightStreak     = 0.2
	weightEngagement = 0.2
)

// maxStep caps how far the score may move between consecutive estimates
// for the same player, to avoid abrupt jumps.
const maxStep = 0.15

// minHistory is the number of recorded answers below which a fixed
// default is returned.
const minHistory = 5

// Engagement feeds the engagement factor; all counters are per player.
type Engagement struct {
	VoiceInteractions int
	CompletionRatio   float64
	HintsUsed         int
	MultiplayerCount  int
	SessionMinutes    float64
}

// Context carries the non-history inputs to the estimate.
type Context struct {
	Age           int
	Kind          game.Kind
	Engagement    Engagement
	PreviousScore float64
	HasPrevious   bool
}

// Recommendation is the engine output. Reasoning is observability only,
// never control flow.
type Recommendation struct {
	Score      float64 `json:"score"`
	Level      Level   `json:"level"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// Optimal computes the next difficulty for a player. Histories shorter
// than five answers return the fixed default regardless of other inputs.
func Optimal(history []game.AnswerRecord, ctx Context) Recommendation {
	if len(history) < minHistory {
		return Recommendation{
			Score:      0.4,
			Level:      LevelMedium,
			Confidence: 0.3,
			Reasoning:  "not enough answer history yet, starting at a medium default",
		}
	}

	accuracy := accuracyFactor(history)
	speed := speedFactor(history)
	streak := streakFactor(history)
	engagement := engagementFactor(ctx.Engagement)

	score := weightAccuracy*accuracy +
		weightSpeed*speed +
		weightStreak*streak +
		weightEngagement*engagement

	score *= ageMultiplier(ctx.Age)
	score *= kindMultiplier(ctx.Kind)

	if ctx.HasPrevious {
		score = clampStep(score, ctx.PreviousScore)
	}
	score = clamp01(score)

	confidence := 0.5 + 0.02*float64(len(history))
	if confidence > 0.9 {
		confidence = 0.9
	}

	return Recommendation{
		Score:      score,
		Level:      LevelFor(score),
		Confidence: confidence,
		Reasoning: reasoning(map[string]float64{
			"accuracy":   accuracy,
			"speed":      speed,
			"streak":     streak,
			"engagement": engagement,
		}),
	}
}

// LevelFor maps a score to its discrete band:
// easy [0,0.3), medium [0.3,0.6), hard [0.6,0.85), expert [0.85,1].
func LevelFor(score float64) Level {
	switch {
	case score < 0.3:
		return LevelEasy
	case score < 0.6:
		return LevelMedium
	case score < 0.85:
		return LevelHard
	default:
		return LevelExpert
	}
}

func accuracyFactor(history []game.AnswerRecord) float64 {
	correct := 0
	for _, record := range history {
		if record.Correct {
			correct++
		}
	}
	return float64(correct) / float64(len(history))
}

// speedFactor rewards faster average response times via fixed
// breakpoints at 5/10/15/20 seconds.
func speedFactor(history []game.AnswerRecord) float64 {
	var total int64
	for _, record := range history {
		total += record.ResponseMillis
	}
	avgSeconds := float64(total) / float64(len(history)) / 1000
	switch {
	case avgSeconds < 5:
		return 1.0
	case avgSeconds < 10:
		return 0.75
	case avgSeconds < 15:
		return 0.5
	case avgSeconds < 20:
		return 0.25
	default:
		return 0.1
	}
}

// streakFactor is the recent streak average divided by 10, capped at 1.
func streakFactor(history []game.AnswerRecord) float64 {
	recent := history
	if len(recent) > minHistory {
		recent = recent[len(recent)-minHistory:]
	}
	total := 0
	for _, record := range recent {
		total += record.Streak
	}
	factor := float64(total) / float64(len(recent)) / 10
	if factor > 1 {
		return 1
	}
	return factor
}

// engagementFactor is a weighted sum of interaction signals, capped at 1.
func engagementFactor(e Engagement) float64 {
	factor := 0.25*capAt1(float64(e.VoiceInteractions)/30) +
		0.3*capAt1(e.CompletionRatio) +
		0.15*(1-capAt1(float64(e.HintsUsed)/10)) +
		0.15*capAt1(float64(e.MultiplayerCount)/5) +
		0.15*capAt1(e.SessionMinutes/30)
	return capAt1(factor)
}

func ageMultiplier(age int) float64 {
	switch {
	case age <= 0:
		return 1.0
	case age < 8:
		return 0.6
	case age <= 11:
		return 0.8
	case age <= 15:
		return 0.9
	case age > 65:
		return 0.9
	default:
		return 1.0
	}
}

func kindMultiplier(kind game.Kind) float64 {
	switch kind {
	case game.KindTrivia:
		return 1.1
	case game.KindTwentyQuestions:
		return 0.9
	default:
		return 1.0
	}
}

func clampStep(score, previous float64) float64 {
	if score > previous+maxStep {
		return previous + maxStep
	}
	if score < previous-maxStep {
		return previous - maxStep
	}
	return score
}

func clamp01(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

func capAt1(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < 0 {
		return 0
	}
	return v
}

// reasoning names the two dominant factors in a short sentence.
func reasoning(factors map[string]float64) string {
	type scored struct {
		name  string
		value float64
	}
	ranked := make([]scored, 0, len(factors))
	for name, value := range factors {
		ranked = append(ranked, scored{name, value})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].value == ranked[j].value {
			return ranked[i].name < ranked[j].name
		}
		return ranked[i].value > ranked[j].value
	})
	parts := make([]string, 0, 2)
	for _, s := range ranked[:2] {
		parts = append(parts, fmt.Sprintf("%s %.2f", s.name, s.value))
	}
	return "driven mostly by " + strings.Join(parts, " and ")
}
