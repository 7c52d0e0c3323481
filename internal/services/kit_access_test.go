package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/bastionmc/kitsync/internal/logger"
	"github.com/bastionmc/kitsync/internal/realtime"
	"github.com/bastionmc/kitsync/internal/types"
)

func reasonPtr(r types.AccessReason) *types.AccessReason { return &r }

func TestSetAccessReadYourWrite(t *testing.T) {
	env := newTestEnv(t)
	repo := newFakeAccessRepo()
	svc := NewKitAccessService(repo, env.hub, env.loop, env.bus, logger.NewNop())
	ctx := context.Background()

	changed, err := svc.SetAccess(ctx, 100, 7, reasonPtr(types.AccessReasonPurchase))
	if err != nil || !changed {
		t.Fatalf("SetAccess=(%v, %v), want (true, nil)", changed, err)
	}

	row, err := svc.GetAccess(ctx, 100, 7)
	if err != nil {
		t.Fatalf("GetAccess: %v", err)
	}
	if row == nil || row.Reason != types.AccessReasonPurchase {
		t.Fatalf("GetAccess=%+v, want purchase reason", row)
	}
}

func TestSetAccessPatchesOnlineSession(t *testing.T) {
	env := newTestEnv(t)
	repo := newFakeAccessRepo()
	svc := NewKitAccessService(repo, env.hub, env.loop, env.bus, logger.NewNop())
	ctx := context.Background()

	sess := env.hub.Connect(100)

	if _, err := svc.SetAccess(ctx, 100, 7, reasonPtr(types.AccessReasonAdmin)); err != nil {
		t.Fatalf("SetAccess: %v", err)
	}
	if !sess.Kits().IsAccessible(7) {
		t.Fatal("grant must patch the online session immediately")
	}

	if _, err := svc.SetAccess(ctx, 100, 7, nil); err != nil {
		t.Fatalf("SetAccess revoke: %v", err)
	}
	if sess.Kits().IsAccessible(7) {
		t.Fatal("revoke must patch the online session immediately")
	}
}

func TestSetAccessRedundantWriteReportsUnchanged(t *testing.T) {
	env := newTestEnv(t)
	repo := newFakeAccessRepo()
	svc := NewKitAccessService(repo, env.hub, env.loop, env.bus, logger.NewNop())
	ctx := context.Background()

	if changed, _ := svc.SetAccess(ctx, 100, 7, reasonPtr(types.AccessReasonPurchase)); !changed {
		t.Fatal("first grant should report changed")
	}
	if changed, err := svc.SetAccess(ctx, 100, 7, reasonPtr(types.AccessReasonPurchase)); err != nil || changed {
		t.Fatalf("redundant grant=(%v, %v), want (false, nil)", changed, err)
	}
	// A different reason replaces in place and counts as a change.
	if changed, _ := svc.SetAccess(ctx, 100, 7, reasonPtr(types.AccessReasonAdmin)); !changed {
		t.Fatal("reason replacement should report changed")
	}
	if changed, err := svc.SetAccess(ctx, 100, 7, nil); err != nil || !changed {
		t.Fatalf("revoke=(%v, %v), want (true, nil)", changed, err)
	}
	if changed, err := svc.SetAccess(ctx, 100, 7, nil); err != nil || changed {
		t.Fatalf("redundant revoke=(%v, %v), want (false, nil)", changed, err)
	}
}

func TestGetAccessPatchesBothWays(t *testing.T) {
	env := newTestEnv(t)
	repo := newFakeAccessRepo()
	svc := NewKitAccessService(repo, env.hub, env.loop, env.bus, logger.NewNop())
	ctx := context.Background()

	sess := env.hub.Connect(100)
	// Replica is stale-positive: kit 9 was revoked elsewhere.
	sess.Kits().AddAccessible(9)

	row, err := svc.GetAccess(ctx, 100, 9)
	if err != nil || row != nil {
		t.Fatalf("GetAccess=(%v, %v), want (nil, nil)", row, err)
	}
	if sess.Kits().IsAccessible(9) {
		t.Fatal("miss must remove the stale replica entry")
	}

	if _, err := repo.Upsert(ctx, nil, &types.KitAccess{KitID: 9, PlayerID: 100, Reason: types.AccessReasonPurchase}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := svc.GetAccess(ctx, 100, 9); err != nil {
		t.Fatalf("GetAccess: %v", err)
	}
	if !sess.Kits().IsAccessible(9) {
		t.Fatal("hit must add the replica entry")
	}
}

func TestSetAccessStoreFailurePropagates(t *testing.T) {
	env := newTestEnv(t)
	repo := newFakeAccessRepo()
	repo.err = errors.New("store unavailable")
	svc := NewKitAccessService(repo, env.hub, env.loop, env.bus, logger.NewNop())

	if _, err := svc.SetAccess(context.Background(), 100, 7, reasonPtr(types.AccessReasonPurchase)); err == nil {
		t.Fatal("store failure must propagate")
	}
	// The lock must have been released on the failure path.
	repo.err = nil
	if _, err := svc.SetAccess(context.Background(), 100, 7, reasonPtr(types.AccessReasonPurchase)); err != nil {
		t.Fatalf("SetAccess after failure: %v", err)
	}
}

func TestSetAccessPublishesRefreshOnChange(t *testing.T) {
	env := newTestEnv(t)
	repo := newFakeAccessRepo()
	svc := NewKitAccessService(repo, env.hub, env.loop, env.bus, logger.NewNop())
	ctx := context.Background()

	if _, err := svc.SetAccess(ctx, 100, 7, reasonPtr(types.AccessReasonPurchase)); err != nil {
		t.Fatalf("SetAccess: %v", err)
	}
	if _, err := svc.SetAccess(ctx, 100, 7, reasonPtr(types.AccessReasonPurchase)); err != nil {
		t.Fatalf("SetAccess redundant: %v", err)
	}

	events := env.bus.Events()
	if len(events) != 1 {
		t.Fatalf("published %d events, want 1 (no publish on redundant writes)", len(events))
	}
	if events[0].Kind != realtime.RefreshPlayer || events[0].PlayerID != 100 {
		t.Fatalf("event=%+v, want player refresh for 100", events[0])
	}
}

func TestConcurrentSetAccessConverges(t *testing.T) {
	env := newTestEnv(t)
	repo := newFakeAccessRepo()
	svc := NewKitAccessService(repo, env.hub, env.loop, env.bus, logger.NewNop())
	ctx := context.Background()

	sess := env.hub.Connect(100)

	var wg sync.WaitGroup
	reasons := []types.AccessReason{types.AccessReasonPurchase, types.AccessReasonAdmin}
	for _, reason := range reasons {
		wg.Add(1)
		go func(r types.AccessReason) {
			defer wg.Done()
			if _, err := svc.SetAccess(ctx, 100, 7, reasonPtr(r)); err != nil {
				t.Errorf("SetAccess(%s): %v", r, err)
			}
		}(reason)
	}
	wg.Wait()

	stored, ok := repo.storedReason(100, 7)
	if !ok {
		t.Fatal("no stored record after concurrent grants")
	}
	if stored != types.AccessReasonPurchase && stored != types.AccessReasonAdmin {
		t.Fatalf("stored reason %q is neither writer's", stored)
	}
	if !sess.Kits().IsAccessible(7) {
		t.Fatal("session replica must reflect the final grant")
	}

	// A read through the coordinator agrees with the stored winner.
	row, err := svc.GetAccess(ctx, 100, 7)
	if err != nil || row == nil || row.Reason != stored {
		t.Fatalf("GetAccess=(%+v, %v), want stored reason %q", row, err, stored)
	}
}

func TestSetAccessCancelledContextReleasesLock(t *testing.T) {
	env := newTestEnv(t)
	repo := newFakeAccessRepo()
	svc := NewKitAccessService(repo, env.hub, env.loop, env.bus, logger.NewNop())

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := svc.SetAccess(cancelled, 100, 7, reasonPtr(types.AccessReasonPurchase)); !errors.Is(err, context.Canceled) {
		t.Fatalf("SetAccess with cancelled ctx = %v, want context.Canceled", err)
	}

	// Lock must be free for the next caller.
	if _, err := svc.SetAccess(context.Background(), 100, 7, reasonPtr(types.AccessReasonPurchase)); err != nil {
		t.Fatalf("SetAccess after cancellation: %v", err)
	}
}
