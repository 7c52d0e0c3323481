// Package quests is the boundary to the external quest/progress system. The
// core only registers interest in unlock-defining presets and reacts to
// completion events; quest bookkeeping itself lives outside this process.
package quests

import "context"

// Tracker is the external quest collaborator.
type Tracker interface {
	// Track registers quest-tracking state for a player against a preset.
	Track(ctx context.Context, playerID uint64, preset string) error
	// Completed reports whether the player has already finished the preset.
	Completed(ctx context.Context, playerID uint64, preset string) (bool, error)
}

// CompletionEvent is published when a tracked quest preset completes.
type CompletionEvent struct {
	PlayerID uint64
	Preset   string
}

// Disposition tells the dispatcher whether to keep delivering an event to the
// remaining handlers.
type Disposition int

const (
	Continue Disposition = iota
	StopPropagation
)

// Handler reacts to a completion event.
type Handler interface {
	HandleQuestCompleted(ctx context.Context, ev CompletionEvent) Disposition
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, ev CompletionEvent) Disposition

func (f HandlerFunc) HandleQuestCompleted(ctx context.Context, ev CompletionEvent) Disposition {
	return f(ctx, ev)
}
