package broadcast

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Publisher delivers an event to the participants of a session.
// Deliveries are fire-and-forget relative to the triggering request.
type Publisher interface {
	Publish(ctx context.Context, sessionID string, ev Event) error
}

// subscriberBuffer smooths short bursts without blocking publishers.
const subscriberBuffer = 16

// Hub is the in-process connection registry: which live subscriber
// channels belong to which session, and which player each one serves.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]map[chan Event]string
	log      zerolog.Logger
}

// NewHub returns an empty registry.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		sessions: make(map[string]map[chan Event]string),
		log:      log.With().Str("component", "broadcast-hub").Logger(),
	}
}

// Subscribe registers a live connection for the player and returns its
// event channel plus a cancel func that must be called on disconnect.
func (h *Hub) Subscribe(sessionID, playerID string) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	clients, ok := h.sessions[sessionID]
	if !ok {
		clients = make(map[chan Event]string)
		h.sessions[sessionID] = clients
	}
	dup := 0
	for _, pid := range clients {
		if pid == playerID {
			dup++
		}
	}
	clients[ch] = playerID
	h.mu.Unlock()

	if dup > 0 {
		h.log.Warn().Str("session", sessionID).Str("player", playerID).
			Int("connections", dup+1).Msg("player opened additional connection")
	}

	// Channels are never closed here: a publisher may hold a snapshot of
	// this channel while it is being cancelled. Subscribers stop reading
	// when their own connection goes away.
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			if clients, ok := h.sessions[sessionID]; ok {
				delete(clients, ch)
				if len(clients) == 0 {
					delete(h.sessions, sessionID)
				}
			}
			h.mu.Unlock()
		})
	}
	return ch, cancel
}

// Publish fans the event out to every subscriber of the session. Sends
// never block: a subscriber whose buffer is full loses the event rather
// than stalling the request that triggered it.
func (h *Hub) Publish(_ context.Context, sessionID string, ev Event) error {
	h.mu.RLock()
	clients := make([]chan Event, 0, len(h.sessions[sessionID]))
	for ch := range h.sessions[sessionID] {
		clients = append(clients, ch)
	}
	h.mu.RUnlock()

	for _, ch := range clients {
		select {
		case ch <- ev:
		default:
			h.log.Warn().Str("session", sessionID).Str("event", ev.Type).
				Msg("dropping event for slow subscriber")
		}
	}
	return nil
}

// Players reports the distinct player ids with a live connection.
func (h *Hub) Players(sessionID string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	seen := make(map[string]struct{})
	var players []string
	for _, pid := range h.sessions[sessionID] {
		if _, ok := seen[pid]; ok {
			continue
		}
		seen[pid] = struct{}{}
		players = append(players, pid)
	}
	return players
}

// DropSession forgets every subscriber of a session, used on expiry.
// A session_ended event should be published before calling this so the
// connections learn why they went quiet.
func (h *Hub) DropSession(sessionID string) {
	h.mu.Lock()
	delete(h.sessions, sessionID)
	h.mu.Unlock()
}
