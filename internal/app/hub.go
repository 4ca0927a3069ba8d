package app

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// SessionID identifies one browser client (the ct cookie value).
type SessionID string

// SessionFactory builds a fully wired composer (room handle, game
// machine, battle control) for a new client.
type SessionFactory func(sid SessionID) (*SessionComposer, error)

// Hub keeps one SessionComposer per connected client. The composer owns
// its room handle; the hub only tracks lifetimes.
type Hub struct {
	factory SessionFactory

	mu       sync.RWMutex
	sessions map[SessionID]*SessionComposer
}

func NewHub(factory SessionFactory) *Hub {
	return &Hub{
		factory:  factory,
		sessions: make(map[SessionID]*SessionComposer),
	}
}

func (h *Hub) GetOrCreate(sid SessionID) (*SessionComposer, error) {
	h.mu.RLock()
	c, ok := h.sessions[sid]
	h.mu.RUnlock()
	if ok {
		return c, nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok = h.sessions[sid]; ok {
		return c, nil
	}
	c, err := h.factory(sid)
	if err != nil {
		return nil, err
	}
	h.sessions[sid] = c
	log.Info().Str("module", "app.hub").Str("sid", string(sid)).Msg("session composer created")
	return c, nil
}

func (h *Hub) Get(sid SessionID) (*SessionComposer, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.sessions[sid]
	return c, ok
}

// Remove stops the client's session and drops it from the hub.
func (h *Hub) Remove(sid SessionID) {
	h.mu.Lock()
	c, ok := h.sessions[sid]
	delete(h.sessions, sid)
	h.mu.Unlock()
	if ok {
		c.StopSession()
		log.Info().Str("module", "app.hub").Str("sid", string(sid)).Msg("session composer removed")
	}
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Shutdown stops every live session; used on server teardown.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	sessions := h.sessions
	h.sessions = make(map[SessionID]*SessionComposer)
	h.mu.Unlock()
	for sid, c := range sessions {
		c.StopSession()
		log.Info().Str("module", "app.hub").Str("sid", string(sid)).Msg("session stopped on shutdown")
	}
}
