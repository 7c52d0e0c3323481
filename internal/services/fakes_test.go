package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/bastionmc/kitsync/internal/kitid"
	"github.com/bastionmc/kitsync/internal/logger"
	"github.com/bastionmc/kitsync/internal/mainloop"
	"github.com/bastionmc/kitsync/internal/quests"
	"github.com/bastionmc/kitsync/internal/realtime/bus"
	"github.com/bastionmc/kitsync/internal/sessions"
	"github.com/bastionmc/kitsync/internal/types"
)

type accessKey struct {
	playerID uint64
	kitID    int64
}

type fakeAccessRepo struct {
	mu   sync.Mutex
	rows map[accessKey]*types.KitAccess
	err  error
}

func newFakeAccessRepo() *fakeAccessRepo {
	return &fakeAccessRepo{rows: make(map[accessKey]*types.KitAccess)}
}

func (r *fakeAccessRepo) Get(ctx context.Context, tx *gorm.DB, playerID uint64, kitID int64) (*types.KitAccess, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	row, ok := r.rows[accessKey{playerID, kitID}]
	if !ok {
		return nil, nil
	}
	c := *row
	return &c, nil
}

func (r *fakeAccessRepo) Upsert(ctx context.Context, tx *gorm.DB, row *types.KitAccess) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return false, r.err
	}
	key := accessKey{row.PlayerID, row.KitID}
	if old, ok := r.rows[key]; ok && old.Reason == row.Reason {
		return false, nil
	}
	c := *row
	r.rows[key] = &c
	return true, nil
}

func (r *fakeAccessRepo) Delete(ctx context.Context, tx *gorm.DB, playerID uint64, kitID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return false, r.err
	}
	key := accessKey{playerID, kitID}
	if _, ok := r.rows[key]; !ok {
		return false, nil
	}
	delete(r.rows, key)
	return true, nil
}

func (r *fakeAccessRepo) ListByPlayer(ctx context.Context, tx *gorm.DB, playerID uint64) ([]*types.KitAccess, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	var out []*types.KitAccess
	for key, row := range r.rows {
		if key.playerID == playerID {
			c := *row
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *fakeAccessRepo) storedReason(playerID uint64, kitID int64) (types.AccessReason, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[accessKey{playerID, kitID}]
	if !ok {
		return "", false
	}
	return row.Reason, true
}

type fakeFavoriteRepo struct {
	mu   sync.Mutex
	rows map[accessKey]struct{}
	err  error
}

func newFakeFavoriteRepo() *fakeFavoriteRepo {
	return &fakeFavoriteRepo{rows: make(map[accessKey]struct{})}
}

func (r *fakeFavoriteRepo) Exists(ctx context.Context, tx *gorm.DB, playerID uint64, kitID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return false, r.err
	}
	_, ok := r.rows[accessKey{playerID, kitID}]
	return ok, nil
}

func (r *fakeFavoriteRepo) Insert(ctx context.Context, tx *gorm.DB, playerID uint64, kitID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	key := accessKey{playerID, kitID}
	if _, ok := r.rows[key]; ok {
		// Same shape the postgres driver produces for unique_violation.
		return &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"}
	}
	r.rows[key] = struct{}{}
	return nil
}

func (r *fakeFavoriteRepo) Delete(ctx context.Context, tx *gorm.DB, playerID uint64, kitID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return false, r.err
	}
	key := accessKey{playerID, kitID}
	if _, ok := r.rows[key]; !ok {
		return false, nil
	}
	delete(r.rows, key)
	return true, nil
}

func (r *fakeFavoriteRepo) ListByPlayer(ctx context.Context, tx *gorm.DB, playerID uint64) ([]*types.KitFavorite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	var out []*types.KitFavorite
	for key := range r.rows {
		if key.playerID == playerID {
			out = append(out, &types.KitFavorite{KitID: key.kitID, PlayerID: key.playerID})
		}
	}
	return out, nil
}

type fakeKitRepo struct {
	mu          sync.Mutex
	byID        map[int64]*types.Kit
	loadoutGate chan struct{} // when set, ListLoadoutsByOwner(s) blocks until it closes
	err         error
}

func newFakeKitRepo(kits ...*types.Kit) *fakeKitRepo {
	r := &fakeKitRepo{byID: make(map[int64]*types.Kit)}
	for _, k := range kits {
		r.byID[k.ID] = k
	}
	return r
}

func (r *fakeKitRepo) GetByName(ctx context.Context, tx *gorm.DB, name string, include types.KitInclude) (*types.Kit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	name = strings.ToLower(strings.TrimSpace(name))
	for _, k := range r.byID {
		if strings.ToLower(k.Name) == name {
			return k, nil
		}
	}
	return nil, nil
}

func (r *fakeKitRepo) GetByID(ctx context.Context, tx *gorm.DB, id int64, include types.KitInclude) (*types.Kit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	return r.byID[id], nil
}

func (r *fakeKitRepo) ListSharedForOnline(ctx context.Context, tx *gorm.DB, playerIDs []uint64) ([]*types.Kit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	var out []*types.Kit
	for _, k := range r.byID {
		if k.Type != types.KitTypeLoadout {
			out = append(out, k)
		}
	}
	return out, nil
}

func (r *fakeKitRepo) ListLoadoutsByOwner(ctx context.Context, tx *gorm.DB, ownerID uint64) ([]*types.Kit, error) {
	return r.ListLoadoutsByOwners(ctx, tx, []uint64{ownerID})
}

func (r *fakeKitRepo) ListLoadoutsByOwners(ctx context.Context, tx *gorm.DB, ownerIDs []uint64) ([]*types.Kit, error) {
	r.mu.Lock()
	gate := r.loadoutGate
	r.mu.Unlock()
	if gate != nil {
		<-gate
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	owners := make(map[uint64]struct{}, len(ownerIDs))
	for _, id := range ownerIDs {
		owners[id] = struct{}{}
	}
	var out []*types.Kit
	for _, k := range r.byID {
		if k.Type != types.KitTypeLoadout {
			continue
		}
		decoded, ok := kitid.Decode(k.Name)
		if !ok {
			continue
		}
		if _, ok := owners[decoded.Owner]; ok {
			out = append(out, k)
		}
	}
	return out, nil
}

func (r *fakeKitRepo) Upsert(ctx context.Context, tx *gorm.DB, kit *types.Kit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if kit.ID == 0 {
		kit.ID = int64(len(r.byID) + 1)
	}
	r.byID[kit.ID] = kit
	return nil
}

type fakePerks struct {
	mu     sync.Mutex
	active map[uint64]bool
	err    error
}

func newFakePerks() *fakePerks {
	return &fakePerks{active: make(map[uint64]bool)}
}

func (p *fakePerks) HasPerk(ctx context.Context, playerID uint64) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return false, p.err
	}
	return p.active[playerID], nil
}

// testEnv bundles the shared collaborators most service tests need.
type testEnv struct {
	hub     *sessions.Hub
	loop    *mainloop.Loop
	bus     *bus.MemoryBus
	tracker *quests.MemoryTracker
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	loop := mainloop.New(logger.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	loop.Start(ctx)
	t.Cleanup(func() {
		loop.Stop()
		cancel()
	})
	return &testEnv{
		hub:     sessions.NewHub(logger.NewNop()),
		loop:    loop,
		bus:     bus.NewMemoryBus(),
		tracker: quests.NewMemoryTracker(),
	}
}

// waitFor polls until cond holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", msg)
}
