package sessions

import (
	"time"

	"github.com/google/uuid"
)

// Session is one live player connection. It exists from connect to
// disconnect and is never shared between connections of the same player: a
// reconnect produces a fresh Session with fresh state.
type Session struct {
	ID          uuid.UUID
	PlayerID    uint64
	ConnectedAt time.Time

	kits *PlayerKitState
}

func newSession(playerID uint64) *Session {
	return &Session{
		ID:          uuid.New(),
		PlayerID:    playerID,
		ConnectedAt: time.Now().UTC(),
		kits:        NewPlayerKitState(),
	}
}

func (s *Session) Kits() *PlayerKitState { return s.kits }
