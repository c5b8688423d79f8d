package broadcast

import "time"

// Event types delivered to session participants.
const (
	EventGameStarted   = "game_started"
	EventPlayerJoined  = "player_joined"
	EventTurnAdvanced  = "turn_advanced"
	EventTurnTimeout   = "turn_timeout"
	EventAnswerResults = "answer_results"
	EventVoiceSelected = "voice_selected"
	EventSquareFound   = "square_found"
	EventBoardWon      = "board_won"
	EventGamePaused    = "game_paused"
	EventGameResumed   = "game_resumed"
	EventNextQuestion  = "next_question"
	EventGameOver      = "game_over"
	EventSessionEnded  = "session_ended"
)

// Event is one broadcast to the other participants of a session.
type Event struct {
	Type      string         `json:"type"`
	SessionID string         `json:"sessionId"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// New stamps an event with the current time.
func New(eventType, sessionID string, data map[string]any) Event {
	return Event{
		Type:      eventType,
		SessionID: sessionID,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}
