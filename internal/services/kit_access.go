package services

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/bastionmc/kitsync/internal/logger"
	"github.com/bastionmc/kitsync/internal/mainloop"
	"github.com/bastionmc/kitsync/internal/realtime"
	"github.com/bastionmc/kitsync/internal/repos"
	"github.com/bastionmc/kitsync/internal/sessions"
	"github.com/bastionmc/kitsync/internal/types"
)

// KitAccessService is the single choke point for "player may use kit" facts.
// A strict mutex serializes every read and write of the relation and is held
// across the store round trip on purpose: the store operation and the session
// patch must be atomic with respect to other access operations. Access
// changes are low-frequency purchase/admin events, so the serialization is
// affordable.
type KitAccessService interface {
	// GetAccess returns the stored record, or nil when none exists. The
	// online session's replica is patched to match either way.
	GetAccess(ctx context.Context, playerID uint64, kitID int64) (*types.KitAccess, error)
	// SetAccess grants (reason != nil) or revokes (reason == nil) access and
	// reports whether the store actually changed.
	SetAccess(ctx context.Context, playerID uint64, kitID int64, reason *types.AccessReason) (bool, error)
}

type kitAccessService struct {
	lock   *semaphore.Weighted
	access repos.KitAccessRepo
	hub    *sessions.Hub
	loop   *mainloop.Loop
	bus    realtime.Bus
	log    *logger.Logger
}

func NewKitAccessService(
	access repos.KitAccessRepo,
	hub *sessions.Hub,
	loop *mainloop.Loop,
	bus realtime.Bus,
	log *logger.Logger,
) KitAccessService {
	return &kitAccessService{
		lock:   semaphore.NewWeighted(1),
		access: access,
		hub:    hub,
		loop:   loop,
		bus:    bus,
		log:    log.With("service", "KitAccessService"),
	}
}

func (s *kitAccessService) GetAccess(ctx context.Context, playerID uint64, kitID int64) (*types.KitAccess, error) {
	ctx, span := tracer.Start(ctx, "KitAccessService.GetAccess", spanAttrs(playerID, kitID))
	defer span.End()

	if err := s.lock.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer s.lock.Release(1)

	row, err := s.access.Get(ctx, nil, playerID, kitID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if err := s.patch(ctx, playerID, kitID, row != nil); err != nil {
		return nil, err
	}
	return row, nil
}

func (s *kitAccessService) SetAccess(ctx context.Context, playerID uint64, kitID int64, reason *types.AccessReason) (bool, error) {
	ctx, span := tracer.Start(ctx, "KitAccessService.SetAccess", spanAttrs(playerID, kitID))
	defer span.End()

	if err := s.lock.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer s.lock.Release(1)

	var (
		changed bool
		err     error
	)
	if reason != nil {
		changed, err = s.access.Upsert(ctx, nil, &types.KitAccess{
			KitID:     kitID,
			PlayerID:  playerID,
			Reason:    *reason,
			GrantedAt: time.Now().UTC(),
		})
	} else {
		changed, err = s.access.Delete(ctx, nil, playerID, kitID)
	}
	if err != nil {
		span.RecordError(err)
		return false, err
	}

	if err := s.patch(ctx, playerID, kitID, reason != nil); err != nil {
		return changed, err
	}
	if changed {
		ev := realtime.RefreshEvent{Kind: realtime.RefreshPlayer, PlayerID: playerID}
		if err := s.bus.Publish(ctx, ev); err != nil {
			s.log.Warn("Refresh publish failed", "playerID", playerID, "error", err)
		}
	}
	return changed, nil
}

// patch brings the online session's replica in line with the store outcome.
// The mutation itself runs on the main loop; a session that disconnected (or
// reconnected) in the meantime is left alone.
func (s *kitAccessService) patch(ctx context.Context, playerID uint64, kitID int64, accessible bool) error {
	sess, ok := s.hub.Get(playerID)
	if !ok {
		return nil
	}
	return s.loop.Do(ctx, func() {
		if !s.hub.IsLive(sess) {
			return
		}
		if accessible {
			sess.Kits().AddAccessible(kitID)
		} else {
			sess.Kits().RemoveAccessible(kitID)
		}
	})
}
