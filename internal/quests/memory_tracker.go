package quests

import (
	"context"
	"sync"
)

// MemoryTracker is a process-local Tracker. It backs single-node deployments
// without an external quest service and the service tests.
type MemoryTracker struct {
	mu        sync.Mutex
	tracked   map[uint64]map[string]struct{}
	completed map[uint64]map[string]struct{}
}

func NewMemoryTracker() *MemoryTracker {
	return &MemoryTracker{
		tracked:   make(map[uint64]map[string]struct{}),
		completed: make(map[uint64]map[string]struct{}),
	}
}

func (m *MemoryTracker) Track(ctx context.Context, playerID uint64, preset string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tracked[playerID] == nil {
		m.tracked[playerID] = make(map[string]struct{})
	}
	m.tracked[playerID][preset] = struct{}{}
	return nil
}

func (m *MemoryTracker) Completed(ctx context.Context, playerID uint64, preset string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.completed[playerID][preset]
	return ok, nil
}

// MarkCompleted records a finished preset for the player.
func (m *MemoryTracker) MarkCompleted(playerID uint64, preset string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.completed[playerID] == nil {
		m.completed[playerID] = make(map[string]struct{})
	}
	m.completed[playerID][preset] = struct{}{}
}

// IsTracked reports whether Track has been called for the pair.
func (m *MemoryTracker) IsTracked(playerID uint64, preset string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.tracked[playerID][preset]
	return ok
}
