package bus

import (
	"context"
	"sync"

	"github.com/bastionmc/kitsync/internal/realtime"
)

// MemoryBus delivers refresh events to in-process subscribers. Default for
// single-node deployments without redis, and for tests.
type MemoryBus struct {
	mu     sync.Mutex
	subs   []func(ev realtime.RefreshEvent)
	events []realtime.RefreshEvent
	closed bool
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{}
}

func (b *MemoryBus) Publish(ctx context.Context, ev realtime.RefreshEvent) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.events = append(b.events, ev)
	subs := make([]func(ev realtime.RefreshEvent), len(b.subs))
	copy(subs, b.subs)
	b.mu.Unlock()

	for _, fn := range subs {
		fn(ev)
	}
	return nil
}

func (b *MemoryBus) Subscribe(fn func(ev realtime.RefreshEvent)) {
	if fn == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, fn)
}

// Events returns a snapshot of everything published so far.
func (b *MemoryBus) Events() []realtime.RefreshEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]realtime.RefreshEvent, len(b.events))
	copy(out, b.events)
	return out
}

func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.subs = nil
	return nil
}
