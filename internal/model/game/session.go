package game

import "time"

// Kind identifies which game rules a session runs under.
type Kind string

const (
	KindTrivia          Kind = "trivia"
	KindTwentyQuestions Kind = "twenty_questions"
	KindBingo           Kind = "bingo"
	KindFreeForm        Kind = "free_form"
)

// ParseKind maps loose user/client input to a known Kind.
func ParseKind(raw string) (Kind, bool) {
	switch Kind(raw) {
	case KindTrivia, KindTwentyQuestions, KindBingo, KindFreeForm:
		return Kind(raw), true
	}
	return "", false
}

// Status tracks the session lifecycle:
// idle → active ⇄ paused → {won | lost | abandoned}.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusWon       Status = "won"
	StatusLost      Status = "lost"
	StatusAbandoned Status = "abandoned"
)

// Terminal reports whether no further transitions are allowed.
func (s Status) Terminal() bool {
	return s == StatusWon || s == StatusLost || s == StatusAbandoned
}

// CanTransition validates a lifecycle move.
func (s Status) CanTransition(to Status) bool {
	switch s {
	case StatusIdle:
		return to == StatusActive || to == StatusAbandoned
	case StatusActive:
		return to == StatusPaused || to == StatusWon || to == StatusLost || to == StatusAbandoned
	case StatusPaused:
		return to == StatusActive || to == StatusAbandoned
	default:
		return false
	}
}

// AnswerRecord is one rolling-history entry used for difficulty adaptation.
type AnswerRecord struct {
	Correct        bool  `json:"correct"`
	ResponseMillis int64 `json:"responseMillis"`
	Streak         int   `json:"streak"`
}

// PlayerState is per-participant score state, owned by its session.
type PlayerState struct {
	PlayerID      string         `json:"playerId"`
	Score         int            `json:"score"`
	Streak        int            `json:"streak"`
	LastActionAt  time.Time      `json:"lastActionAt"`
	Recent        []AnswerRecord `json:"recent,omitempty"`
	Difficulty    float64        `json:"difficulty"`
	HasDifficulty bool           `json:"hasDifficulty"`
}

// maxRecent caps the rolling answer history kept per player.
const maxRecent = 20

// RecordAnswer appends to the rolling history and maintains the streak.
func (p *PlayerState) RecordAnswer(correct bool, responseMillis int64, at time.Time) {
	if correct {
		p.Streak++
	} else {
		p.Streak = 0
	}
	p.Recent = append(p.Recent, AnswerRecord{
		Correct:        correct,
		ResponseMillis: responseMillis,
		Streak:         p.Streak,
	})
	if len(p.Recent) > maxRecent {
		p.Recent = p.Recent[len(p.Recent)-maxRecent:]
	}
	p.LastActionAt = at
}

// AuditEntry records one confirmed action for session history.
type AuditEntry struct {
	PlayerID   string    `json:"playerId"`
	IntentType string    `json:"intentType"`
	Transcript string    `json:"transcript"`
	At         time.Time `json:"at"`
}

// Session captures one active voice-driven interactive run.
type Session struct {
	ID             string        `json:"id"`
	Kind           Kind          `json:"kind"`
	Status         Status        `json:"status"`
	Participants   []PlayerState `json:"participants"`
	TurnOrder      []string      `json:"turnOrder,omitempty"`
	CurrentTurnIdx int           `json:"currentTurnIdx"`
	Round          int           `json:"round"`
	IsPaused       bool          `json:"isPaused"`
	Board          *Board        `json:"board,omitempty"`
	Question       *Question     `json:"question,omitempty"`
	HintsRevealed  int           `json:"hintsRevealed"`
	QuestionsAsked int           `json:"questionsAsked"`
	History        []AuditEntry  `json:"history,omitempty"`
	CreatedAt      time.Time     `json:"createdAt"`
	LastUpdate     time.Time     `json:"lastUpdate"`
	Version        int64         `json:"version"`
}

// Player returns the participant with the given id.
func (s *Session) Player(playerID string) (*PlayerState, bool) {
	for i := range s.Participants {
		if s.Participants[i].PlayerID == playerID {
			return &s.Participants[i], true
		}
	}
	return nil, false
}

// AddPlayer appends a participant if not already present and extends the
// turn order when one is configured.
func (s *Session) AddPlayer(playerID string, now time.Time) bool {
	if _, ok := s.Player(playerID); ok {
		return false
	}
	s.Participants = append(s.Participants, PlayerState{
		PlayerID:     playerID,
		LastActionAt: now,
	})
	if len(s.TurnOrder) > 0 {
		s.TurnOrder = append(s.TurnOrder, playerID)
	}
	return true
}

// ApplyScore adds delta to the player's score. A positive delta with
// updateStreak extends the streak; anything else resets it. Scores never
// drop below zero.
func (s *Session) ApplyScore(playerID string, delta int, updateStreak bool, now time.Time) bool {
	player, ok := s.Player(playerID)
	if !ok {
		return false
	}
	player.Score += delta
	if player.Score < 0 {
		player.Score = 0
	}
	if delta > 0 && updateStreak {
		player.Streak++
	} else {
		player.Streak = 0
	}
	player.LastActionAt = now
	return true
}

// Rank is 1 + the number of other players with a strictly greater score,
// so tied players share a rank.
func (s *Session) Rank(playerID string) int {
	player, ok := s.Player(playerID)
	if !ok {
		return 0
	}
	rank := 1
	for i := range s.Participants {
		if s.Participants[i].PlayerID == playerID {
			continue
		}
		if s.Participants[i].Score > player.Score {
			rank++
		}
	}
	return rank
}

// AdvanceRound bumps the monotonic round counter.
func (s *Session) AdvanceRound() {
	s.Round++
}

// Touch refreshes the activity timestamp used for TTL expiry.
func (s *Session) Touch(now time.Time) {
	s.LastUpdate = now
}

// Record appends a confirmed action to the audit history.
func (s *Session) Record(playerID, intentType, transcript string, at time.Time) {
	s.History = append(s.History, AuditEntry{
		PlayerID:   playerID,
		IntentType: intentType,
		Transcript: transcript,
		At:         at,
	})
}

// CurrentTurnPlayer resolves the player whose turn it is, cycling modulo
// the turn order length. Empty when no turn order is configured.
func (s *Session) CurrentTurnPlayer() string {
	if len(s.TurnOrder) == 0 {
		return ""
	}
	return s.TurnOrder[s.CurrentTurnIdx%len(s.TurnOrder)]
}

// Clone returns a deep copy so stores never leak internal state to
// concurrent readers.
func (s *Session) Clone() *Session {
	clone := *s
	clone.Participants = make([]PlayerState, len(s.Participants))
	for i, p := range s.Participants {
		clone.Participants[i] = p
		clone.Participants[i].Recent = append([]AnswerRecord(nil), p.Recent...)
	}
	clone.TurnOrder = append([]string(nil), s.TurnOrder...)
	clone.History = append([]AuditEntry(nil), s.History...)
	if s.Board != nil {
		clone.Board = s.Board.Clone()
	}
	if s.Question != nil {
		question := *s.Question
		question.Options = append([]string(nil), s.Question.Options...)
		question.Hints = append([]string(nil), s.Question.Hints...)
		clone.Question = &question
	}
	return &clone
}
