package services

import (
	"context"
	"strings"
	"sync"

	"github.com/bastionmc/kitsync/internal/kitid"
	"github.com/bastionmc/kitsync/internal/logger"
	"github.com/bastionmc/kitsync/internal/mainloop"
	"github.com/bastionmc/kitsync/internal/quests"
	"github.com/bastionmc/kitsync/internal/realtime"
	"github.com/bastionmc/kitsync/internal/repos"
	"github.com/bastionmc/kitsync/internal/sessions"
	"github.com/bastionmc/kitsync/internal/types"
)

// OnlineKitCache is the process-wide read path for kit definitions relevant
// to connected players. The id map holds the authoritative record; the name
// map only translates the case-insensitive string id to the numeric key, and
// both are mutated together under one lock. It is a read optimization over
// the store, never the only place a fact lives: security-sensitive decisions
// re-validate against the store.
//
// The mutex is the consistency boundary for single-entry mutations (Upsert,
// OnDisconnect, ApplyRefresh), which may run on any goroutine. Only the
// multi-step rebuilds, Reload and the OnConnect merge, hand their install
// step to the main loop: their queries run off-loop and the swap must not
// interleave with loop-owned reads of a half-installed generation.
type OnlineKitCache struct {
	mu     sync.RWMutex
	byID   map[int64]*types.Kit
	byName map[string]int64

	kits    repos.KitRepo
	hub     *sessions.Hub
	loop    *mainloop.Loop
	tracker quests.Tracker
	presets *quests.Catalog
	bus     realtime.Bus
	log     *logger.Logger
}

func NewOnlineKitCache(
	kits repos.KitRepo,
	hub *sessions.Hub,
	loop *mainloop.Loop,
	tracker quests.Tracker,
	presets *quests.Catalog,
	bus realtime.Bus,
	log *logger.Logger,
) *OnlineKitCache {
	return &OnlineKitCache{
		byID:    make(map[int64]*types.Kit),
		byName:  make(map[string]int64),
		kits:    kits,
		hub:     hub,
		loop:    loop,
		tracker: tracker,
		presets: presets,
		bus:     bus,
		log:     log.With("service", "OnlineKitCache"),
	}
}

// Get looks a kit up by its case-insensitive string id.
func (c *OnlineKitCache) Get(name string) (*types.Kit, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.byName[name]
	if !ok {
		return nil, false
	}
	kit, ok := c.byID[id]
	return kit, ok
}

// GetByID looks a kit up by its numeric key.
func (c *OnlineKitCache) GetByID(id int64) (*types.Kit, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	kit, ok := c.byID[id]
	return kit, ok
}

// Snapshot returns the current generation's kits.
func (c *OnlineKitCache) Snapshot() []*types.Kit {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*types.Kit, 0, len(c.byID))
	for _, k := range c.byID {
		out = append(out, k)
	}
	return out
}

func (c *OnlineKitCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byID)
}

// Upsert replaces both index entries for the kit's identity. Called whenever
// a kit's authoritative record changes, after the store committed.
func (c *OnlineKitCache) Upsert(kit *types.Kit) {
	if kit == nil || kit.ID == 0 {
		return
	}
	name := strings.ToLower(strings.TrimSpace(kit.Name))
	c.mu.Lock()
	defer c.mu.Unlock()
	c.upsertLocked(kit, name)
}

func (c *OnlineKitCache) upsertLocked(kit *types.Kit, name string) {
	if old, ok := c.byID[kit.ID]; ok {
		oldName := strings.ToLower(old.Name)
		if oldName != name {
			delete(c.byName, oldName)
		}
	}
	c.byID[kit.ID] = kit
	c.byName[name] = kit.ID
}

// Reload rebuilds the cache from the store for the currently online set and
// swaps the new generation in atomically: readers never observe a mix of old
// and new entries.
func (c *OnlineKitCache) Reload(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "OnlineKitCache.Reload")
	defer span.End()

	online := c.hub.OnlineIDs()

	shared, err := c.kits.ListSharedForOnline(ctx, nil, online)
	if err != nil {
		span.RecordError(err)
		return err
	}
	loadouts, err := c.kits.ListLoadoutsByOwners(ctx, nil, online)
	if err != nil {
		span.RecordError(err)
		return err
	}

	byID := make(map[int64]*types.Kit, len(shared)+len(loadouts))
	byName := make(map[string]int64, len(shared)+len(loadouts))
	for _, kit := range append(shared, loadouts...) {
		byID[kit.ID] = kit
		byName[strings.ToLower(kit.Name)] = kit.ID
	}

	return c.loop.Do(ctx, func() {
		c.mu.Lock()
		c.byID = byID
		c.byName = byName
		c.mu.Unlock()
		c.log.Info("Kit cache reloaded", "kits", len(byID), "online", len(online))
	})
}

// OnConnect primes quest tracking for the connecting player against cached
// shared kits, then asynchronously merges the player's own loadout kits. The
// merge re-checks that the session is still live after the store round trip
// and discards its result otherwise.
func (c *OnlineKitCache) OnConnect(ctx context.Context, session *sessions.Session) {
	if session == nil {
		return
	}
	c.primeQuestTracking(ctx, session.PlayerID)

	mergeCtx := context.WithoutCancel(ctx)
	go func() {
		loadouts, err := c.kits.ListLoadoutsByOwner(mergeCtx, nil, session.PlayerID)
		if err != nil {
			// Partial kit data beats blocking the join.
			c.log.Warn("Loadout merge query failed", "playerID", session.PlayerID, "error", err)
			return
		}
		err = c.loop.Do(mergeCtx, func() {
			if !c.hub.IsLive(session) {
				c.log.Debug("Discarding loadout merge for dead session", "playerID", session.PlayerID)
				return
			}
			c.mu.Lock()
			defer c.mu.Unlock()
			for _, kit := range loadouts {
				c.upsertLocked(kit, strings.ToLower(kit.Name))
			}
		})
		if err != nil {
			c.log.Warn("Loadout merge not applied", "playerID", session.PlayerID, "error", err)
		}
	}()
}

func (c *OnlineKitCache) primeQuestTracking(ctx context.Context, playerID uint64) {
	for _, kit := range c.Snapshot() {
		if kit.Type == types.KitTypeLoadout || kit.Disabled {
			continue
		}
		for _, req := range kit.Requirements {
			if req.Kind != types.RequirementQuest || req.QuestPreset == "" {
				continue
			}
			if !c.presets.Has(req.QuestPreset) {
				c.log.Warn("Kit references unknown quest preset", "kit", kit.Name, "preset", req.QuestPreset)
				continue
			}
			done, err := c.tracker.Completed(ctx, playerID, req.QuestPreset)
			if err != nil {
				c.log.Warn("Quest completion check failed", "playerID", playerID, "preset", req.QuestPreset, "error", err)
				continue
			}
			if done {
				continue
			}
			if err := c.tracker.Track(ctx, playerID, req.QuestPreset); err != nil {
				c.log.Warn("Quest tracking registration failed", "playerID", playerID, "preset", req.QuestPreset, "error", err)
			}
		}
	}
}

// ApplyRefresh folds a refresh event published by another node into the local
// cache. Kit events re-read the store; an entry whose kit is gone is dropped.
// Loadout names are skipped, private kits enter the cache only through their
// owner's connect path. Events this node published itself come back through
// the bus too; the extra re-read is idempotent.
func (c *OnlineKitCache) ApplyRefresh(ctx context.Context, ev realtime.RefreshEvent) {
	if ev.Kind != realtime.RefreshKit {
		return
	}
	name := strings.ToLower(strings.TrimSpace(ev.KitName))
	if name == "" || kitid.IsLoadoutName(name) {
		return
	}
	kit, err := c.kits.GetByName(ctx, nil, name, types.IncludeCached)
	if err != nil {
		c.log.Warn("Refresh re-read failed", "kit", name, "error", err)
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if kit == nil {
		if id, ok := c.byName[name]; ok {
			delete(c.byID, id)
			delete(c.byName, name)
		}
		return
	}
	c.upsertLocked(kit, name)
}

// OnDisconnect evicts the player's loadout entries. Loadouts are private and
// must not linger once their owner leaves; shared kits stay for everyone
// else.
func (c *OnlineKitCache) OnDisconnect(session *sessions.Session) {
	if session == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, kit := range c.byID {
		if kit.Type != types.KitTypeLoadout {
			continue
		}
		decoded, ok := kitid.Decode(kit.Name)
		if !ok || decoded.Owner != session.PlayerID {
			continue
		}
		delete(c.byID, id)
		delete(c.byName, strings.ToLower(kit.Name))
	}
}

// HandleQuestCompleted reacts to a quest completion: if any cached kit's
// unlock requirements are satisfied by it, the event is consumed and
// propagation to further handlers stops.
func (c *OnlineKitCache) HandleQuestCompleted(ctx context.Context, ev quests.CompletionEvent) quests.Disposition {
	for _, kit := range c.Snapshot() {
		if kit.Disabled {
			continue
		}
		for _, req := range kit.Requirements {
			if req.Kind != types.RequirementQuest || req.QuestPreset != ev.Preset {
				continue
			}
			done, err := c.tracker.Completed(ctx, ev.PlayerID, req.QuestPreset)
			if err != nil {
				c.log.Warn("Quest completion check failed", "playerID", ev.PlayerID, "preset", ev.Preset, "error", err)
				continue
			}
			if !done {
				continue
			}
			c.log.Info("Quest completion satisfies kit unlock", "kit", kit.Name, "playerID", ev.PlayerID, "preset", ev.Preset)
			if err := c.bus.Publish(ctx, realtime.RefreshEvent{Kind: realtime.RefreshPlayer, PlayerID: ev.PlayerID}); err != nil {
				c.log.Warn("Refresh publish failed", "playerID", ev.PlayerID, "error", err)
			}
			return quests.StopPropagation
		}
	}
	return quests.Continue
}
