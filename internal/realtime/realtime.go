// Package realtime carries refresh notifications out of the core. Sign and
// HUD renderers subscribe to the bus and redraw whatever the event names;
// the core only publishes, after the durable store has committed.
package realtime

import "context"

type RefreshKind string

const (
	// RefreshKit means a kit definition changed; redraw everything showing it.
	RefreshKit RefreshKind = "kit"
	// RefreshPlayer means a player's accessible/favorite set changed.
	RefreshPlayer RefreshKind = "player"
)

type RefreshEvent struct {
	Kind     RefreshKind `json:"kind"`
	KitName  string      `json:"kit_name,omitempty"`
	PlayerID uint64      `json:"player_id,omitempty"`
}

type Bus interface {
	Publish(ctx context.Context, ev RefreshEvent) error
	Close() error
}
