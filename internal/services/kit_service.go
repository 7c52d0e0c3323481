package services

import (
	"context"
	"sort"
	"strings"

	"github.com/bastionmc/kitsync/internal/clients/perks"
	"github.com/bastionmc/kitsync/internal/kitid"
	"github.com/bastionmc/kitsync/internal/logger"
	"github.com/bastionmc/kitsync/internal/mainloop"
	"github.com/bastionmc/kitsync/internal/realtime"
	"github.com/bastionmc/kitsync/internal/repos"
	"github.com/bastionmc/kitsync/internal/sessions"
	"github.com/bastionmc/kitsync/internal/types"
)

// KitService is the facade the rest of the server talks to: connection
// lifecycle, can-use decisions, equipping and the HUD listing. It composes
// the cache, the coordinators and the perk client.
type KitService interface {
	HandleConnect(ctx context.Context, playerID uint64) (*sessions.Session, error)
	HandleDisconnect(ctx context.Context, playerID uint64)
	CanUse(ctx context.Context, playerID uint64, name string) (bool, error)
	Equip(ctx context.Context, playerID uint64, name string) error
	Unequip(ctx context.Context, playerID uint64) error
	ListForPlayer(ctx context.Context, playerID uint64) ([]*types.Kit, error)
	// UpsertKit writes a kit definition through to the store, refreshes the
	// cache entry and notifies sign/UI consumers.
	UpsertKit(ctx context.Context, kit *types.Kit) error
}

type kitService struct {
	kits      repos.KitRepo
	accesses  repos.KitAccessRepo
	favs      repos.KitFavoriteRepo
	access    KitAccessService
	favorites KitFavoriteService
	cache     *OnlineKitCache
	hub       *sessions.Hub
	loop      *mainloop.Loop
	perks     perks.Client
	bus       realtime.Bus
	log       *logger.Logger
}

func NewKitService(
	kits repos.KitRepo,
	accesses repos.KitAccessRepo,
	favs repos.KitFavoriteRepo,
	access KitAccessService,
	favorites KitFavoriteService,
	cache *OnlineKitCache,
	hub *sessions.Hub,
	loop *mainloop.Loop,
	perkClient perks.Client,
	bus realtime.Bus,
	log *logger.Logger,
) KitService {
	return &kitService{
		kits:      kits,
		accesses:  accesses,
		favs:      favs,
		access:    access,
		favorites: favorites,
		cache:     cache,
		hub:       hub,
		loop:      loop,
		perks:     perkClient,
		bus:       bus,
		log:       log.With("service", "KitService"),
	}
}

// HandleConnect registers the session and primes its replica from the store.
// Priming failures are logged, not fatal: partial kit data beats blocking the
// join.
func (s *kitService) HandleConnect(ctx context.Context, playerID uint64) (*sessions.Session, error) {
	sess := s.hub.Connect(playerID)

	accessRows, err := s.accesses.ListByPlayer(ctx, nil, playerID)
	if err != nil {
		s.log.Warn("Access priming query failed", "playerID", playerID, "error", err)
	}
	favRows, err := s.favs.ListByPlayer(ctx, nil, playerID)
	if err != nil {
		s.log.Warn("Favorite priming query failed", "playerID", playerID, "error", err)
	}

	if err := s.loop.Do(ctx, func() {
		if !s.hub.IsLive(sess) {
			return
		}
		for _, row := range accessRows {
			sess.Kits().AddAccessible(row.KitID)
		}
		for _, row := range favRows {
			sess.Kits().AddFavorite(row.KitID)
		}
	}); err != nil {
		return nil, err
	}

	s.cache.OnConnect(ctx, sess)
	return sess, nil
}

func (s *kitService) HandleDisconnect(ctx context.Context, playerID uint64) {
	sess := s.hub.Disconnect(playerID)
	if sess == nil {
		return
	}
	s.cache.OnDisconnect(sess)
}

// resolve finds the kit by name, preferring the cache and falling back to the
// store. The fallback is also the re-validation path for security-sensitive
// checks when the cache is cold.
func (s *kitService) resolve(ctx context.Context, name string) (*types.Kit, error) {
	if kit, ok := s.cache.Get(name); ok {
		return kit, nil
	}
	return s.kits.GetByName(ctx, nil, name, types.IncludeCached)
}

func (s *kitService) CanUse(ctx context.Context, playerID uint64, name string) (bool, error) {
	kit, err := s.resolve(ctx, name)
	if err != nil {
		return false, err
	}
	if kit == nil {
		return false, nil
	}
	return s.canUseKit(ctx, playerID, kit)
}

func (s *kitService) canUseKit(ctx context.Context, playerID uint64, kit *types.Kit) (bool, error) {
	if kit.Disabled {
		return false, nil
	}
	if kit.RequiresPerk {
		active, err := s.perks.HasPerk(ctx, playerID)
		if err != nil {
			return false, err
		}
		if !active {
			return false, nil
		}
	}

	switch kit.Type {
	case types.KitTypeLoadout:
		decoded, ok := kitid.Decode(kit.Name)
		return ok && decoded.Owner == playerID, nil
	case types.KitTypeFaction, types.KitTypeEvent:
		// Branch eligibility for faction kits is the command layer's call.
		return true, nil
	default:
		if sess, ok := s.hub.Get(playerID); ok && sess.Kits().IsAccessible(kit.ID) {
			return true, nil
		}
		// Replica miss: re-validate against the store (and patch the replica).
		row, err := s.access.GetAccess(ctx, playerID, kit.ID)
		if err != nil {
			return false, err
		}
		return row != nil, nil
	}
}

func (s *kitService) Equip(ctx context.Context, playerID uint64, name string) error {
	sess, ok := s.hub.Get(playerID)
	if !ok {
		return ErrNotConnected
	}
	kit, err := s.resolve(ctx, name)
	if err != nil {
		return err
	}
	if kit == nil {
		return ErrKitNotFound
	}
	allowed, err := s.canUseKit(ctx, playerID, kit)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrKitNotAllowed
	}

	if err := s.loop.Do(ctx, func() {
		if !s.hub.IsLive(sess) {
			return
		}
		sess.Kits().SetEquipped(&sessions.EquippedKit{
			ID:     kit.ID,
			Name:   kit.Name,
			Class:  kit.Class,
			Branch: kit.Branch,
		})
	}); err != nil {
		return err
	}

	ev := realtime.RefreshEvent{Kind: realtime.RefreshPlayer, PlayerID: playerID}
	if err := s.bus.Publish(ctx, ev); err != nil {
		s.log.Warn("Refresh publish failed", "playerID", playerID, "error", err)
	}
	return nil
}

func (s *kitService) Unequip(ctx context.Context, playerID uint64) error {
	sess, ok := s.hub.Get(playerID)
	if !ok {
		return ErrNotConnected
	}
	return s.loop.Do(ctx, func() {
		if !s.hub.IsLive(sess) {
			return
		}
		sess.Kits().SetEquipped(nil)
	})
}

// ListForPlayer returns the kits the player's HUD should show, sorted by
// name: open kits, kits their replica marks accessible, and their own
// loadouts.
func (s *kitService) ListForPlayer(ctx context.Context, playerID uint64) ([]*types.Kit, error) {
	sess, ok := s.hub.Get(playerID)
	if !ok {
		return nil, ErrNotConnected
	}

	var out []*types.Kit
	for _, kit := range s.cache.Snapshot() {
		if kit.Disabled {
			continue
		}
		switch kit.Type {
		case types.KitTypeLoadout:
			decoded, ok := kitid.Decode(kit.Name)
			if ok && decoded.Owner == playerID {
				out = append(out, kit)
			}
		case types.KitTypeFaction, types.KitTypeEvent:
			out = append(out, kit)
		default:
			if sess.Kits().IsAccessible(kit.ID) {
				out = append(out, kit)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *kitService) UpsertKit(ctx context.Context, kit *types.Kit) error {
	if kit == nil || strings.TrimSpace(kit.Name) == "" {
		return ErrKitNotFound
	}
	if err := s.kits.Upsert(ctx, nil, kit); err != nil {
		return err
	}
	s.cache.Upsert(kit)

	ev := realtime.RefreshEvent{Kind: realtime.RefreshKit, KitName: strings.ToLower(kit.Name)}
	if err := s.bus.Publish(ctx, ev); err != nil {
		s.log.Warn("Refresh publish failed", "kit", kit.Name, "error", err)
	}
	return nil
}
