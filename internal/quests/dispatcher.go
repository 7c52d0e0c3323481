package quests

import (
	"context"
	"sync"

	"github.com/bastionmc/kitsync/internal/logger"
)

// Dispatcher delivers completion events to registered handlers in
// registration order, stopping at the first handler that returns
// StopPropagation.
type Dispatcher struct {
	mu       sync.RWMutex
	log      *logger.Logger
	handlers []Handler
}

func NewDispatcher(log *logger.Logger) *Dispatcher {
	return &Dispatcher{log: log.With("component", "QuestDispatcher")}
}

func (d *Dispatcher) Register(h Handler) {
	if h == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers = append(d.handlers, h)
}

// Publish fans ev out to the handlers and reports whether any handler
// consumed it.
func (d *Dispatcher) Publish(ctx context.Context, ev CompletionEvent) bool {
	d.mu.RLock()
	handlers := make([]Handler, len(d.handlers))
	copy(handlers, d.handlers)
	d.mu.RUnlock()

	for _, h := range handlers {
		if h.HandleQuestCompleted(ctx, ev) == StopPropagation {
			d.log.Debug("Quest event consumed", "playerID", ev.PlayerID, "preset", ev.Preset)
			return true
		}
	}
	return false
}
