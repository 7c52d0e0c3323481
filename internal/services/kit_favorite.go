package services

import (
	"context"

	"golang.org/x/sync/semaphore"

	"github.com/bastionmc/kitsync/internal/logger"
	"github.com/bastionmc/kitsync/internal/mainloop"
	"github.com/bastionmc/kitsync/internal/realtime"
	"github.com/bastionmc/kitsync/internal/repos"
	"github.com/bastionmc/kitsync/internal/sessions"
)

// KitFavoriteService mediates the existence-only favorite relation. Same
// serialization discipline as KitAccessService, with one structural
// difference: insertion is optimistic and the store's uniqueness constraint
// is the arbiter, so a duplicate-key rejection is converted to a no-op right
// here and nowhere else.
type KitFavoriteService interface {
	IsFavorited(ctx context.Context, playerID uint64, kitID int64) (bool, error)
	// AddFavorite reports false when the pair was already favorited.
	AddFavorite(ctx context.Context, playerID uint64, kitID int64) (bool, error)
	// RemoveFavorite reports whether a row was actually removed.
	RemoveFavorite(ctx context.Context, playerID uint64, kitID int64) (bool, error)
}

type kitFavoriteService struct {
	lock      *semaphore.Weighted
	favorites repos.KitFavoriteRepo
	hub       *sessions.Hub
	loop      *mainloop.Loop
	bus       realtime.Bus
	log       *logger.Logger
}

func NewKitFavoriteService(
	favorites repos.KitFavoriteRepo,
	hub *sessions.Hub,
	loop *mainloop.Loop,
	bus realtime.Bus,
	log *logger.Logger,
) KitFavoriteService {
	return &kitFavoriteService{
		lock:      semaphore.NewWeighted(1),
		favorites: favorites,
		hub:       hub,
		loop:      loop,
		bus:       bus,
		log:       log.With("service", "KitFavoriteService"),
	}
}

func (s *kitFavoriteService) IsFavorited(ctx context.Context, playerID uint64, kitID int64) (bool, error) {
	ctx, span := tracer.Start(ctx, "KitFavoriteService.IsFavorited", spanAttrs(playerID, kitID))
	defer span.End()

	if err := s.lock.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer s.lock.Release(1)

	exists, err := s.favorites.Exists(ctx, nil, playerID, kitID)
	if err != nil {
		span.RecordError(err)
		return false, err
	}
	if err := s.patch(ctx, playerID, kitID, exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (s *kitFavoriteService) AddFavorite(ctx context.Context, playerID uint64, kitID int64) (bool, error) {
	ctx, span := tracer.Start(ctx, "KitFavoriteService.AddFavorite", spanAttrs(playerID, kitID))
	defer span.End()

	if err := s.lock.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer s.lock.Release(1)

	changed := true
	if err := s.favorites.Insert(ctx, nil, playerID, kitID); err != nil {
		if !repos.IsDuplicateKey(err) {
			span.RecordError(err)
			return false, err
		}
		// Desired end state already held; not an error.
		changed = false
	}

	if err := s.patch(ctx, playerID, kitID, true); err != nil {
		return changed, err
	}
	if changed {
		s.publish(ctx, playerID)
	}
	return changed, nil
}

func (s *kitFavoriteService) RemoveFavorite(ctx context.Context, playerID uint64, kitID int64) (bool, error) {
	ctx, span := tracer.Start(ctx, "KitFavoriteService.RemoveFavorite", spanAttrs(playerID, kitID))
	defer span.End()

	if err := s.lock.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer s.lock.Release(1)

	removed, err := s.favorites.Delete(ctx, nil, playerID, kitID)
	if err != nil {
		span.RecordError(err)
		return false, err
	}

	// Not favorited holds whether or not a row was removed.
	if err := s.patch(ctx, playerID, kitID, false); err != nil {
		return removed, err
	}
	if removed {
		s.publish(ctx, playerID)
	}
	return removed, nil
}

func (s *kitFavoriteService) patch(ctx context.Context, playerID uint64, kitID int64, favorited bool) error {
	sess, ok := s.hub.Get(playerID)
	if !ok {
		return nil
	}
	return s.loop.Do(ctx, func() {
		if !s.hub.IsLive(sess) {
			return
		}
		if favorited {
			sess.Kits().AddFavorite(kitID)
		} else {
			sess.Kits().RemoveFavorite(kitID)
		}
	})
}

func (s *kitFavoriteService) publish(ctx context.Context, playerID uint64) {
	ev := realtime.RefreshEvent{Kind: realtime.RefreshPlayer, PlayerID: playerID}
	if err := s.bus.Publish(ctx, ev); err != nil {
		s.log.Warn("Refresh publish failed", "playerID", playerID, "error", err)
	}
}
