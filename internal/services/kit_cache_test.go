package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bastionmc/kitsync/internal/kitid"
	"github.com/bastionmc/kitsync/internal/logger"
	"github.com/bastionmc/kitsync/internal/quests"
	"github.com/bastionmc/kitsync/internal/realtime"
	"github.com/bastionmc/kitsync/internal/types"
)

func newCache(env *testEnv, repo *fakeKitRepo, presets *quests.Catalog) *OnlineKitCache {
	return NewOnlineKitCache(repo, env.hub, env.loop, env.tracker, presets, env.bus, logger.NewNop())
}

func loadTestCatalog(t *testing.T, names ...string) *quests.Catalog {
	t.Helper()
	doc := "presets:\n"
	for _, n := range names {
		doc += "  - name: " + n + "\n"
	}
	path := filepath.Join(t.TempDir(), "presets.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	c, err := quests.LoadCatalog(path)
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	return c
}

func TestCacheUpsertAndLookup(t *testing.T) {
	env := newTestEnv(t)
	cache := newCache(env, newFakeKitRepo(), quests.EmptyCatalog())

	cache.Upsert(&types.Kit{ID: 1, Name: "medic", Type: types.KitTypeSingle})

	if kit, ok := cache.Get("MEDIC"); !ok || kit.ID != 1 {
		t.Fatalf("Get(MEDIC)=(%+v, %v), lookup must be case-insensitive", kit, ok)
	}
	if _, ok := cache.GetByID(1); !ok {
		t.Fatal("GetByID(1) missed")
	}

	// Renaming the same id must drop the old name key.
	cache.Upsert(&types.Kit{ID: 1, Name: "combat_medic", Type: types.KitTypeSingle})
	if _, ok := cache.Get("medic"); ok {
		t.Fatal("old name must not resolve after rename")
	}
	if kit, ok := cache.Get("combat_medic"); !ok || kit.ID != 1 {
		t.Fatalf("Get(combat_medic)=(%+v, %v)", kit, ok)
	}
	if cache.Len() != 1 {
		t.Fatalf("Len=%d, want 1", cache.Len())
	}
}

func TestReloadSwapsGeneration(t *testing.T) {
	env := newTestEnv(t)
	repo := newFakeKitRepo(
		&types.Kit{ID: 1, Name: "medic", Type: types.KitTypeSingle},
		&types.Kit{ID: 2, Name: "raider", Type: types.KitTypeFaction},
	)
	cache := newCache(env, repo, quests.EmptyCatalog())

	// Seed a stale entry that no longer exists in the store.
	cache.Upsert(&types.Kit{ID: 99, Name: "retired", Type: types.KitTypeSingle})

	if err := cache.Reload(context.Background()); err != nil {
		t.Fatalf("Reload: %v", err)
	}

	if _, ok := cache.Get("retired"); ok {
		t.Fatal("stale entry survived the generation swap")
	}
	if _, ok := cache.Get("medic"); !ok {
		t.Fatal("reloaded entry missing")
	}
	if _, ok := cache.GetByID(2); !ok {
		t.Fatal("reloaded entry missing by id")
	}
	if cache.Len() != 2 {
		t.Fatalf("Len=%d, want 2", cache.Len())
	}
}

func TestOnConnectMergesOwnLoadouts(t *testing.T) {
	env := newTestEnv(t)
	owner := uint64(76561198000000001)
	loadoutName := kitid.Encode(owner, 1)
	repo := newFakeKitRepo(
		&types.Kit{ID: 10, Name: loadoutName, Type: types.KitTypeLoadout},
		&types.Kit{ID: 11, Name: kitid.Encode(42, 1), Type: types.KitTypeLoadout},
	)
	cache := newCache(env, repo, quests.EmptyCatalog())

	sess := env.hub.Connect(owner)
	cache.OnConnect(context.Background(), sess)

	waitFor(t, func() bool {
		_, ok := cache.Get(loadoutName)
		return ok
	}, "loadout merge")

	// Someone else's loadout must not ride along.
	if _, ok := cache.Get(kitid.Encode(42, 1)); ok {
		t.Fatal("merged a loadout the player does not own")
	}
}

func TestOnConnectDiscardsMergeForDeadSession(t *testing.T) {
	env := newTestEnv(t)
	owner := uint64(76561198000000001)
	loadoutName := kitid.Encode(owner, 1)
	repo := newFakeKitRepo(&types.Kit{ID: 10, Name: loadoutName, Type: types.KitTypeLoadout})
	repo.loadoutGate = make(chan struct{})
	cache := newCache(env, repo, quests.EmptyCatalog())

	sess := env.hub.Connect(owner)
	cache.OnConnect(context.Background(), sess)

	// The player drops while the store query is still in flight.
	env.hub.Disconnect(owner)
	close(repo.loadoutGate)

	time.Sleep(50 * time.Millisecond)
	// Flush anything the merge goroutine queued on the loop.
	if err := env.loop.Do(context.Background(), func() {}); err != nil {
		t.Fatalf("loop barrier: %v", err)
	}
	if _, ok := cache.Get(loadoutName); ok {
		t.Fatal("merge for a dead session must be discarded")
	}
}

func TestOnDisconnectEvictsLoadouts(t *testing.T) {
	env := newTestEnv(t)
	owner := uint64(76561198000000001)
	loadoutName := kitid.Encode(owner, 2)
	cache := newCache(env, newFakeKitRepo(), quests.EmptyCatalog())

	cache.Upsert(&types.Kit{ID: 1, Name: "medic", Type: types.KitTypeSingle})
	cache.Upsert(&types.Kit{ID: 10, Name: loadoutName, Type: types.KitTypeLoadout})

	sess := env.hub.Connect(owner)
	cache.OnDisconnect(sess)

	if _, ok := cache.Get(loadoutName); ok {
		t.Fatal("owner's loadout must be evicted on disconnect")
	}
	if _, ok := cache.Get("medic"); !ok {
		t.Fatal("shared kit must survive another player's disconnect")
	}
}

func TestOnConnectPrimesQuestTracking(t *testing.T) {
	env := newTestEnv(t)
	repo := newFakeKitRepo()
	cache := newCache(env, repo, loadTestCatalog(t, "slay_dragon", "win_siege"))

	questReq := func(preset string) []*types.KitRequirement {
		return []*types.KitRequirement{{Kind: types.RequirementQuest, QuestPreset: preset}}
	}
	cache.Upsert(&types.Kit{ID: 1, Name: "dragonslayer", Type: types.KitTypeSingle, Requirements: questReq("slay_dragon")})
	cache.Upsert(&types.Kit{ID: 2, Name: "siegemaster", Type: types.KitTypeSingle, Requirements: questReq("win_siege")})
	cache.Upsert(&types.Kit{ID: 3, Name: "mystery", Type: types.KitTypeSingle, Requirements: questReq("not_in_catalog")})

	env.tracker.MarkCompleted(100, "win_siege")

	sess := env.hub.Connect(100)
	cache.OnConnect(context.Background(), sess)

	if !env.tracker.IsTracked(100, "slay_dragon") {
		t.Fatal("unfinished catalogued preset must be tracked")
	}
	if env.tracker.IsTracked(100, "win_siege") {
		t.Fatal("already-completed preset must not be re-tracked")
	}
	if env.tracker.IsTracked(100, "not_in_catalog") {
		t.Fatal("preset missing from the catalog must not be tracked")
	}
}

func TestApplyRefresh(t *testing.T) {
	env := newTestEnv(t)
	repo := newFakeKitRepo(&types.Kit{ID: 1, Name: "medic", Type: types.KitTypeSingle})
	cache := newCache(env, repo, quests.EmptyCatalog())
	ctx := context.Background()

	cache.Upsert(&types.Kit{ID: 1, Name: "medic", Type: types.KitTypeSingle})
	cache.Upsert(&types.Kit{ID: 2, Name: "retired", Type: types.KitTypeSingle})

	loadoutName := kitid.Encode(76561198000000001, 1)
	cache.Upsert(&types.Kit{ID: 10, Name: loadoutName, Type: types.KitTypeLoadout})

	// Another node disabled medic; the event triggers a store re-read.
	if err := repo.Upsert(ctx, nil, &types.Kit{ID: 1, Name: "medic", Type: types.KitTypeSingle, Disabled: true}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	cache.ApplyRefresh(ctx, realtime.RefreshEvent{Kind: realtime.RefreshKit, KitName: "MEDIC"})
	if kit, ok := cache.Get("medic"); !ok || !kit.Disabled {
		t.Fatalf("Get(medic)=(%+v, %v), want refreshed disabled entry", kit, ok)
	}

	// The kit is gone from the store; the entry goes with it.
	cache.ApplyRefresh(ctx, realtime.RefreshEvent{Kind: realtime.RefreshKit, KitName: "retired"})
	if _, ok := cache.Get("retired"); ok {
		t.Fatal("entry for a kit missing from the store must be dropped")
	}

	// Loadout names and player events leave the cache alone.
	cache.ApplyRefresh(ctx, realtime.RefreshEvent{Kind: realtime.RefreshKit, KitName: loadoutName})
	if _, ok := cache.Get(loadoutName); !ok {
		t.Fatal("loadout entries are not managed by remote refreshes")
	}
	cache.ApplyRefresh(ctx, realtime.RefreshEvent{Kind: realtime.RefreshPlayer, PlayerID: 100})
	if cache.Len() != 2 {
		t.Fatalf("Len=%d, want 2 (player events do not touch kit entries)", cache.Len())
	}
}

func TestHandleQuestCompleted(t *testing.T) {
	env := newTestEnv(t)
	cache := newCache(env, newFakeKitRepo(), loadTestCatalog(t, "slay_dragon"))
	ctx := context.Background()

	cache.Upsert(&types.Kit{
		ID:           1,
		Name:         "dragonslayer",
		Type:         types.KitTypeSingle,
		Requirements: []*types.KitRequirement{{Kind: types.RequirementQuest, QuestPreset: "slay_dragon"}},
	})

	// Completion event for a preset no kit requires passes through.
	if d := cache.HandleQuestCompleted(ctx, quests.CompletionEvent{PlayerID: 100, Preset: "unrelated"}); d != quests.Continue {
		t.Fatalf("unrelated preset disposition=%v, want Continue", d)
	}

	// Tracker does not yet confirm the completion: still not consumed.
	if d := cache.HandleQuestCompleted(ctx, quests.CompletionEvent{PlayerID: 100, Preset: "slay_dragon"}); d != quests.Continue {
		t.Fatalf("unconfirmed completion disposition=%v, want Continue", d)
	}
	if len(env.bus.Events()) != 0 {
		t.Fatal("no refresh should be published for an unconfirmed completion")
	}

	env.tracker.MarkCompleted(100, "slay_dragon")
	if d := cache.HandleQuestCompleted(ctx, quests.CompletionEvent{PlayerID: 100, Preset: "slay_dragon"}); d != quests.StopPropagation {
		t.Fatalf("satisfied unlock disposition=%v, want StopPropagation", d)
	}

	events := env.bus.Events()
	if len(events) != 1 || events[0].Kind != realtime.RefreshPlayer || events[0].PlayerID != 100 {
		t.Fatalf("events=%+v, want one player refresh for 100", events)
	}
}
