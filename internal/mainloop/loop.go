// Package mainloop serializes gameplay-visible state mutation onto a single
// goroutine. Coordinators and cache paths may run their store I/O anywhere,
// but hand patches of session state and cache indexes to the loop so that one
// logical thread owns those mutations.
package mainloop

import (
	"context"
	"errors"
	"sync"

	"github.com/bastionmc/kitsync/internal/logger"
)

var ErrStopped = errors.New("mainloop stopped")

type task struct {
	fn   func()
	done chan struct{}
}

type Loop struct {
	log   *logger.Logger
	tasks chan task

	startOnce sync.Once
	stopOnce  sync.Once
	stopped   chan struct{}
}

func New(log *logger.Logger) *Loop {
	return &Loop{
		log:     log.With("component", "MainLoop"),
		tasks:   make(chan task, 64),
		stopped: make(chan struct{}),
	}
}

// Start launches the loop goroutine. Calling Start twice is a no-op.
func (l *Loop) Start(ctx context.Context) {
	l.startOnce.Do(func() {
		go func() {
			l.log.Debug("Main loop started")
			for {
				select {
				case <-ctx.Done():
					l.Stop()
					return
				case <-l.stopped:
					return
				case t := <-l.tasks:
					t.fn()
					close(t.done)
				}
			}
		}()
	})
}

// Stop shuts the loop down. Tasks submitted afterwards fail with ErrStopped.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() {
		close(l.stopped)
		l.log.Debug("Main loop stopped")
	})
}

// Do runs fn on the loop goroutine and waits for it to finish. While the task
// is still queued, ctx cancellation abandons the wait; once fn has started it
// always runs to completion.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	t := task{fn: fn, done: make(chan struct{})}
	select {
	case l.tasks <- t:
	case <-l.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-t.done:
		return nil
	case <-l.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}
