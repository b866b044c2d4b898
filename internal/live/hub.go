// Package live streams committed negotiation turns to connected dashboard
// clients over WebSocket.
package live

import (
	"log/slog"
	"sync"

	"github.com/negotium-labs/negotium/internal/domain"
)

// TurnEvent is one committed turn snapshot pushed to subscribers.
type TurnEvent struct {
	SessionID  string       `json:"session_id"`
	TurnNumber int          `json:"turn_number"`
	Mood       domain.Mood  `json:"opponent_mood"`
	Patience   int          `json:"opponent_patience"`
	Leverage   int          `json:"current_leverage"`
	Stage      domain.Stage `json:"conversation_stage"`
}

// subscriberBuffer bounds each subscriber channel; slow clients drop events
// rather than blocking the orchestrator's commit path.
const subscriberBuffer = 16

// Hub fans committed turn events out to per-session subscribers.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[chan TurnEvent]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan TurnEvent]struct{})}
}

// Subscribe registers a new subscriber for a session and returns its channel.
func (h *Hub) Subscribe(sessionID string) chan TurnEvent {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan TurnEvent, subscriberBuffer)
	if _, ok := h.subs[sessionID]; !ok {
		h.subs[sessionID] = make(map[chan TurnEvent]struct{})
	}
	h.subs[sessionID][ch] = struct{}{}
	return ch
}

// Unsubscribe removes a subscriber channel for a session.
func (h *Hub) Unsubscribe(sessionID string, ch chan TurnEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if subs, ok := h.subs[sessionID]; ok {
		if _, exists := subs[ch]; exists {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(h.subs, sessionID)
			}
		}
	}
}

// Publish delivers a turn event to all subscribers of its session. Delivery
// is non-blocking: a full subscriber buffer drops the event for that client.
func (h *Hub) Publish(ev TurnEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subs[ev.SessionID] {
		select {
		case ch <- ev:
		default:
			slog.Debug("Dropped turn event for slow subscriber", "session_id", ev.SessionID)
		}
	}
}

// CloseSession closes and removes all subscribers for a session.
func (h *Hub) CloseSession(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.subs[sessionID]
	if !ok {
		return
	}
	for ch := range subs {
		close(ch)
	}
	delete(h.subs, sessionID)
}
