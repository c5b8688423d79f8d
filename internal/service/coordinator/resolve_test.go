package coordinator

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub004/internal/model/game"
	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub004/internal/service/broadcast"
	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub004/internal/service/session"
)

func newTestCoordinator(t *testing.T) (*Coordinator, session.Store, *broadcast.Hub) {
	t.Helper()
	store := session.NewMemoryStore(zerolog.Nop())
	hub := broadcast.NewHub(zerolog.Nop())
	coord := New(store, hub, Config{TurnDuration: time.Minute}, zerolog.Nop())
	return coord, store, hub
}

func TestRankAnswersSpeedBonus(t *testing.T) {
	base := time.Now()
	batch := []AnswerSubmission{
		{PlayerID: "p1", Answer: "Paris", ReceivedAt: base.Add(200 * time.Millisecond)},
		{PlayerID: "p2", Answer: "London", ReceivedAt: base.Add(400 * time.Millisecond)},
		{PlayerID: "p3", Answer: "paris", ReceivedAt: base},
	}

	outcomes := RankAnswers(batch, "Paris")
	require.Len(t, outcomes, 3)

	assert.Equal(t, "p3", outcomes[0].PlayerID)
	assert.True(t, outcomes[0].Correct)
	assert.Equal(t, 20, outcomes[0].Points, "first correct answer gets base 10 plus full bonus 10")

	assert.Equal(t, "p1", outcomes[1].PlayerID)
	assert.True(t, outcomes[1].Correct)
	assert.Equal(t, 18, outcomes[1].Points, "second place bonus drops by 2")

	assert.Equal(t, "p2", outcomes[2].PlayerID)
	assert.False(t, outcomes[2].Correct)
	assert.Zero(t, outcomes[2].Points, "wrong answers score nothing regardless of speed")
}

func TestRankAnswersBonusNeverNegative(t *testing.T) {
	base := time.Now()
	var batch []AnswerSubmission
	for i := 0; i < 8; i++ {
		batch = append(batch, AnswerSubmission{
			PlayerID:   string(rune('a' + i)),
			Answer:     "yes",
			ReceivedAt: base.Add(time.Duration(i) * time.Second),
		})
	}

	outcomes := RankAnswers(batch, "yes")
	last := outcomes[len(outcomes)-1]
	assert.Equal(t, basePoints, last.Points, "ranks past the bonus window still earn base points")
}

func TestRankAnswersTimestampTieBreaksByPlayerID(t *testing.T) {
	at := time.Now()
	batch := []AnswerSubmission{
		{PlayerID: "zoe", Answer: "yes", ReceivedAt: at},
		{PlayerID: "amy", Answer: "yes", ReceivedAt: at},
	}

	outcomes := RankAnswers(batch, "yes")
	assert.Equal(t, "amy", outcomes[0].PlayerID)
	assert.Equal(t, "zoe", outcomes[1].PlayerID)
}

func TestScoreRoundAppliesAtomically(t *testing.T) {
	coord, store, _ := newTestCoordinator(t)
	ctx := context.Background()

	created, err := store.Create(ctx, "", game.KindTrivia, []string{"p1", "p2", "p3"})
	require.NoError(t, err)
	_, err = store.Update(ctx, created.ID, func(s *game.Session) error {
		s.Status = game.StatusActive
		s.Question = &game.Question{ID: "q", Prompt: "capital of France?", Answer: "Paris"}
		return nil
	})
	require.NoError(t, err)

	base := time.Now()
	outcomes, err := coord.ScoreRound(ctx, created.ID, []AnswerSubmission{
		{PlayerID: "p1", Answer: "Paris", ReceivedAt: base.Add(200 * time.Millisecond)},
		{PlayerID: "p2", Answer: "London", ReceivedAt: base.Add(400 * time.Millisecond)},
		{PlayerID: "p3", Answer: "Paris", ReceivedAt: base},
	})
	require.NoError(t, err)
	require.Len(t, outcomes, 3)

	got, err := store.Get(ctx, created.ID)
	require.NoError(t, err)

	p1, _ := got.Player("p1")
	p2, _ := got.Player("p2")
	p3, _ := got.Player("p3")
	assert.Equal(t, 18, p1.Score)
	assert.Zero(t, p2.Score)
	assert.Equal(t, 20, p3.Score)
	assert.Equal(t, 1, got.Round, "scoring a batch closes the round")
	assert.Nil(t, got.Question, "the scored question is consumed")
}

func TestScoreRoundFeedsAnswerHistory(t *testing.T) {
	coord, store, _ := newTestCoordinator(t)
	ctx := context.Background()

	created, err := store.Create(ctx, "", game.KindTrivia, []string{"p1", "p2"})
	require.NoError(t, err)
	_, err = store.Update(ctx, created.ID, func(s *game.Session) error {
		s.Status = game.StatusActive
		s.Question = &game.Question{ID: "q", Prompt: "capital of France?", Answer: "Paris"}
		return nil
	})
	require.NoError(t, err)

	_, err = coord.ScoreRound(ctx, created.ID, []AnswerSubmission{
		{PlayerID: "p1", Answer: "Paris", ReceivedAt: time.Now()},
		{PlayerID: "p2", Answer: "London", ReceivedAt: time.Now()},
	})
	require.NoError(t, err)

	got, err := store.Get(ctx, created.ID)
	require.NoError(t, err)

	p1, _ := got.Player("p1")
	require.Len(t, p1.Recent, 1, "ranked rounds feed the rolling history")
	assert.True(t, p1.Recent[0].Correct)
	assert.GreaterOrEqual(t, p1.Recent[0].ResponseMillis, int64(0))
	assert.Equal(t, 1, p1.Streak)

	p2, _ := got.Player("p2")
	require.Len(t, p2.Recent, 1)
	assert.False(t, p2.Recent[0].Correct)
	assert.Zero(t, p2.Streak)
}

func TestScoreRoundRequiresActiveSession(t *testing.T) {
	coord, store, _ := newTestCoordinator(t)
	ctx := context.Background()

	created, err := store.Create(ctx, "", game.KindTrivia, []string{"p1"})
	require.NoError(t, err)

	_, err = coord.ScoreRound(ctx, created.ID, []AnswerSubmission{
		{PlayerID: "p1", Answer: "yes", ReceivedAt: time.Now()},
	})
	assert.ErrorIs(t, err, game.ErrSessionFinished)
}

func TestResolveConflictPicksHighestPriority(t *testing.T) {
	selected, ok := ResolveConflict([]VoiceInput{
		{PlayerID: "p1", Transcript: "paris", Confidence: 0.9, Clarity: 0.8},
		{PlayerID: "p2", Transcript: "london", Confidence: 0.9, Clarity: 0.5},
	})
	require.True(t, ok)
	assert.Equal(t, "p1", selected.PlayerID, "0.72 beats 0.45")
}

func TestResolveConflictTieBreaksToLowerPlayerID(t *testing.T) {
	inputs := []VoiceInput{
		{PlayerID: "zed", Confidence: 0.8, Clarity: 0.8},
		{PlayerID: "ann", Confidence: 0.8, Clarity: 0.8},
	}
	selected, ok := ResolveConflict(inputs)
	require.True(t, ok)
	assert.Equal(t, "ann", selected.PlayerID)

	// Same winner regardless of input order.
	reversed := []VoiceInput{inputs[1], inputs[0]}
	again, ok := ResolveConflict(reversed)
	require.True(t, ok)
	assert.Equal(t, "ann", again.PlayerID)
}

func TestResolveConflictEmpty(t *testing.T) {
	_, ok := ResolveConflict(nil)
	assert.False(t, ok)
}

func TestSelectVoiceBroadcastsDiscarded(t *testing.T) {
	coord, _, hub := newTestCoordinator(t)
	ctx := context.Background()

	events, cancel := hub.Subscribe("s1", "observer")
	defer cancel()

	selected, ok := coord.SelectVoice(ctx, "s1", []VoiceInput{
		{PlayerID: "p1", Confidence: 0.9, Clarity: 0.8},
		{PlayerID: "p2", Confidence: 0.6, Clarity: 0.6},
	})
	require.True(t, ok)
	assert.Equal(t, "p1", selected.PlayerID)

	select {
	case ev := <-events:
		assert.Equal(t, broadcast.EventVoiceSelected, ev.Type)
		assert.Equal(t, "p1", ev.Data["playerId"])
		assert.Equal(t, []string{"p2"}, ev.Data["discarded"])
	case <-time.After(time.Second):
		t.Fatal("expected a voice_selected event")
	}
}
