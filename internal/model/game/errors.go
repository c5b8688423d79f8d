package game

import "errors"

// Error taxonomy shared by the store, coordinator and orchestrator.
// Ambiguous input is recoverable and prompts clarification; the rest are
// surfaced to callers with game-relevant messages.
var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrNotPlayerTurn     = errors.New("not this player's turn")
	ErrConflictingUpdate = errors.New("conflicting session update")
	ErrStoreUnavailable  = errors.New("session store unavailable")
	ErrAmbiguousInput    = errors.New("ambiguous input")
	ErrSessionFinished   = errors.New("session already finished")
)
