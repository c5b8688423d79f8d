package game

import (
	"testing"
	"time"
)

func newTestSession(players ...string) *Session {
	now := time.Now()
	s := &Session{
		ID:        "test",
		Kind:      KindTrivia,
		Status:    StatusActive,
		CreatedAt: now,
	}
	for _, p := range players {
		s.Participants = append(s.Participants, PlayerState{PlayerID: p, LastActionAt: now})
	}
	if len(players) > 1 {
		s.TurnOrder = append([]string(nil), players...)
	}
	return s
}

func TestStatusTransitions(t *testing.T) {
	allowed := []struct{ from, to Status }{
		{StatusIdle, StatusActive},
		{StatusIdle, StatusAbandoned},
		{StatusActive, StatusPaused},
		{StatusActive, StatusWon},
		{StatusActive, StatusLost},
		{StatusActive, StatusAbandoned},
		{StatusPaused, StatusActive},
		{StatusPaused, StatusAbandoned},
	}
	for _, tc := range allowed {
		if !tc.from.CanTransition(tc.to) {
			t.Fatalf("%s -> %s should be allowed", tc.from, tc.to)
		}
	}

	denied := []struct{ from, to Status }{
		{StatusIdle, StatusPaused},
		{StatusIdle, StatusWon},
		{StatusPaused, StatusWon},
		{StatusWon, StatusActive},
		{StatusLost, StatusActive},
		{StatusAbandoned, StatusActive},
	}
	for _, tc := range denied {
		if tc.from.CanTransition(tc.to) {
			t.Fatalf("%s -> %s must be rejected", tc.from, tc.to)
		}
	}
}

func TestTerminalStatuses(t *testing.T) {
	for _, status := range []Status{StatusWon, StatusLost, StatusAbandoned} {
		if !status.Terminal() {
			t.Fatalf("%s should be terminal", status)
		}
	}
	for _, status := range []Status{StatusIdle, StatusActive, StatusPaused} {
		if status.Terminal() {
			t.Fatalf("%s should not be terminal", status)
		}
	}
}

func TestApplyScoreAndStreak(t *testing.T) {
	s := newTestSession("alice")
	now := time.Now()

	s.ApplyScore("alice", 10, true, now)
	s.ApplyScore("alice", 10, true, now)
	player, _ := s.Player("alice")
	if player.Score != 20 || player.Streak != 2 {
		t.Fatalf("expected 20 points streak 2, got %d/%d", player.Score, player.Streak)
	}

	s.ApplyScore("alice", -5, false, now)
	if player.Score != 15 {
		t.Fatalf("expected 15 after penalty, got %d", player.Score)
	}
	if player.Streak != 0 {
		t.Fatalf("penalty must reset the streak, got %d", player.Streak)
	}

	s.ApplyScore("alice", -100, false, now)
	if player.Score != 0 {
		t.Fatalf("scores never go negative, got %d", player.Score)
	}
}

func TestApplyScoreUnknownPlayer(t *testing.T) {
	s := newTestSession("alice")
	if s.ApplyScore("mallory", 10, true, time.Now()) {
		t.Fatal("scoring an unknown player must fail")
	}
}

func TestRankSharesTies(t *testing.T) {
	s := newTestSession("a", "b", "c")
	now := time.Now()
	s.ApplyScore("a", 10, true, now)
	s.ApplyScore("b", 10, true, now)
	s.ApplyScore("c", 5, true, now)

	if got := s.Rank("a"); got != 1 {
		t.Fatalf("expected rank 1 for a, got %d", got)
	}
	if got := s.Rank("b"); got != 1 {
		t.Fatalf("tied players share rank 1, got %d for b", got)
	}
	if got := s.Rank("c"); got != 3 {
		t.Fatalf("expected rank 3 for c, got %d", got)
	}
}

func TestAddPlayerExtendsTurnOrder(t *testing.T) {
	s := newTestSession("a", "b")
	if !s.AddPlayer("c", time.Now()) {
		t.Fatal("expected a fresh player to be added")
	}
	if len(s.TurnOrder) != 3 || s.TurnOrder[2] != "c" {
		t.Fatalf("turn order should grow to include c, got %v", s.TurnOrder)
	}
	if s.AddPlayer("c", time.Now()) {
		t.Fatal("re-adding a player must be a no-op")
	}
}

func TestCurrentTurnPlayerCyclesModulo(t *testing.T) {
	s := newTestSession("a", "b", "c")
	want := []string{"a", "b", "c", "a", "b"}
	for i, expected := range want {
		s.CurrentTurnIdx = i
		if got := s.CurrentTurnPlayer(); got != expected {
			t.Fatalf("idx %d: expected %s, got %s", i, expected, got)
		}
	}
}

func TestRecordAnswerCapsHistory(t *testing.T) {
	var p PlayerState
	now := time.Now()
	for i := 0; i < 30; i++ {
		p.RecordAnswer(true, 1000, now)
	}
	if len(p.Recent) != 20 {
		t.Fatalf("rolling history caps at 20, got %d", len(p.Recent))
	}
	if p.Streak != 30 {
		t.Fatalf("streak keeps counting past the cap, got %d", p.Streak)
	}
	p.RecordAnswer(false, 1000, now)
	if p.Streak != 0 {
		t.Fatalf("a miss resets the streak, got %d", p.Streak)
	}
}

func TestCloneIsDeep(t *testing.T) {
	s := newTestSession("a", "b")
	board, err := NewBoard(2, []string{"w", "x", "y", "z"})
	if err != nil {
		t.Fatalf("NewBoard err: %v", err)
	}
	s.Board = board
	s.Question = &Question{ID: "q1", Options: []string{"one", "two"}}

	clone := s.Clone()
	clone.Participants[0].Score = 99
	clone.TurnOrder[0] = "mutated"
	clone.Board.Squares[0][0].Found = true
	clone.Question.Options[0] = "mutated"

	if s.Participants[0].Score == 99 {
		t.Fatal("participant state leaked through clone")
	}
	if s.TurnOrder[0] == "mutated" {
		t.Fatal("turn order leaked through clone")
	}
	if s.Board.Squares[0][0].Found {
		t.Fatal("board leaked through clone")
	}
	if s.Question.Options[0] == "mutated" {
		t.Fatal("question leaked through clone")
	}
}
