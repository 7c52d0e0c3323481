package sessions

import (
	"sync"

	"github.com/bastionmc/kitsync/internal/logger"
)

// Hub is the online-connection registry. Every coordinator and cache method
// consults it to decide whether a PlayerKitState patch target exists.
type Hub struct {
	mu       sync.RWMutex
	log      *logger.Logger
	byPlayer map[uint64]*Session
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		log:      log.With("component", "SessionHub"),
		byPlayer: make(map[uint64]*Session),
	}
}

// Connect registers a fresh session for playerID, replacing any stale one
// left behind by a dropped connection.
func (h *Hub) Connect(playerID uint64) *Session {
	s := newSession(playerID)

	h.mu.Lock()
	defer h.mu.Unlock()
	if old, ok := h.byPlayer[playerID]; ok {
		h.log.Warn("Replacing stale session", "playerID", playerID, "oldSessionID", old.ID)
	}
	h.byPlayer[playerID] = s
	h.log.Debug("Session connected", "playerID", playerID, "sessionID", s.ID)
	return s
}

// Disconnect removes the session for playerID and returns it, if any.
func (h *Hub) Disconnect(playerID uint64) *Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.byPlayer[playerID]
	if !ok {
		return nil
	}
	delete(h.byPlayer, playerID)
	h.log.Debug("Session disconnected", "playerID", playerID, "sessionID", s.ID)
	return s
}

// Get returns the live session for playerID, if one exists.
func (h *Hub) Get(playerID uint64) (*Session, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s, ok := h.byPlayer[playerID]
	return s, ok
}

// IsLive reports whether session is still the registered connection for its
// player. Async work resuming after a suspension uses this to detect that the
// connection dropped (or reconnected) mid-flight.
func (h *Hub) IsLive(session *Session) bool {
	if session == nil {
		return false
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	current, ok := h.byPlayer[session.PlayerID]
	return ok && current.ID == session.ID
}

// OnlineIDs returns a snapshot of the connected player ids.
func (h *Hub) OnlineIDs() []uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]uint64, 0, len(h.byPlayer))
	for id := range h.byPlayer {
		out = append(out, id)
	}
	return out
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byPlayer)
}
