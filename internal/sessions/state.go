package sessions

import "sync"

// EquippedKit is the denormalized identity of the kit a player currently has
// equipped. Readers always see a complete snapshot.
type EquippedKit struct {
	ID     int64
	Name   string
	Class  string
	Branch string
}

// PlayerKitState is the per-connection replica of a player's kit facts. It is
// owned by one Session for its lifetime and mutated only by the coordinators'
// write-through step and the facade. No operation blocks or performs I/O; the
// lock is never held across a suspension point.
type PlayerKitState struct {
	mu         sync.Mutex
	accessible map[int64]struct{}
	favorites  map[int64]struct{}
	equipped   *EquippedKit
}

func NewPlayerKitState() *PlayerKitState {
	return &PlayerKitState{
		accessible: make(map[int64]struct{}),
		favorites:  make(map[int64]struct{}),
	}
}

func (s *PlayerKitState) IsAccessible(kitID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.accessible[kitID]
	return ok
}

func (s *PlayerKitState) IsFavorited(kitID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.favorites[kitID]
	return ok
}

func (s *PlayerKitState) AddAccessible(kitID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessible[kitID] = struct{}{}
}

func (s *PlayerKitState) RemoveAccessible(kitID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.accessible, kitID)
}

func (s *PlayerKitState) AddFavorite(kitID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.favorites[kitID] = struct{}{}
}

func (s *PlayerKitState) RemoveFavorite(kitID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.favorites, kitID)
}

// SetEquipped replaces the equipped snapshot; nil clears it.
func (s *PlayerKitState) SetEquipped(kit *EquippedKit) {
	var copied *EquippedKit
	if kit != nil {
		c := *kit
		copied = &c
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.equipped = copied
}

// Equipped returns a copy of the current snapshot, or nil when nothing is
// equipped.
func (s *PlayerKitState) Equipped() *EquippedKit {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.equipped == nil {
		return nil
	}
	c := *s.equipped
	return &c
}

func (s *PlayerKitState) AccessibleIDs() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int64, 0, len(s.accessible))
	for id := range s.accessible {
		out = append(out, id)
	}
	return out
}

func (s *PlayerKitState) FavoriteIDs() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int64, 0, len(s.favorites))
	for id := range s.favorites {
		out = append(out, id)
	}
	return out
}
