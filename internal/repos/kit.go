package repos

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bastionmc/kitsync/internal/kitid"
	"github.com/bastionmc/kitsync/internal/logger"
	"github.com/bastionmc/kitsync/internal/types"
)

type KitRepo interface {
	GetByName(ctx context.Context, tx *gorm.DB, name string, include types.KitInclude) (*types.Kit, error)
	GetByID(ctx context.Context, tx *gorm.DB, id int64, include types.KitInclude) (*types.Kit, error)
	// ListSharedForOnline returns every non-loadout kit relevant to the online
	// set: kits of open types plus kits whose access cohort intersects it.
	ListSharedForOnline(ctx context.Context, tx *gorm.DB, playerIDs []uint64) ([]*types.Kit, error)
	ListLoadoutsByOwner(ctx context.Context, tx *gorm.DB, ownerID uint64) ([]*types.Kit, error)
	ListLoadoutsByOwners(ctx context.Context, tx *gorm.DB, ownerIDs []uint64) ([]*types.Kit, error)
	Upsert(ctx context.Context, tx *gorm.DB, kit *types.Kit) error
}

type kitRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewKitRepo(db *gorm.DB, baseLog *logger.Logger) KitRepo {
	return &kitRepo{db: db, log: baseLog.With("repo", "KitRepo")}
}

func (r *kitRepo) withInclude(tx *gorm.DB, include types.KitInclude) *gorm.DB {
	if include.Has(types.IncludeRequirements) {
		tx = tx.Preload("Requirements")
	}
	return tx
}

func (r *kitRepo) GetByName(ctx context.Context, tx *gorm.DB, name string, include types.KitInclude) (*types.Kit, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil, nil
	}
	var row types.Kit
	err := r.withInclude(transaction.WithContext(ctx), include).
		Where("name = ?", name).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == 0 {
		return nil, nil
	}
	return &row, nil
}

func (r *kitRepo) GetByID(ctx context.Context, tx *gorm.DB, id int64, include types.KitInclude) (*types.Kit, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == 0 {
		return nil, nil
	}
	var row types.Kit
	err := r.withInclude(transaction.WithContext(ctx), include).
		Where("id = ?", id).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == 0 {
		return nil, nil
	}
	return &row, nil
}

func (r *kitRepo) ListSharedForOnline(ctx context.Context, tx *gorm.DB, playerIDs []uint64) ([]*types.Kit, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Kit
	openTypes := []types.KitType{types.KitTypeFaction, types.KitTypeEvent}
	q := transaction.WithContext(ctx).
		Preload("Requirements").
		Where("type <> ?", types.KitTypeLoadout)
	if len(playerIDs) == 0 {
		q = q.Where("type IN ?", openTypes)
	} else {
		cohort := transaction.Session(&gorm.Session{NewDB: true}).
			Table("kit_access").
			Select("kit_id").
			Where("player_id IN ?", playerIDs)
		q = q.Where("type IN ? OR id IN (?)", openTypes, cohort)
	}
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *kitRepo) ListLoadoutsByOwner(ctx context.Context, tx *gorm.DB, ownerID uint64) ([]*types.Kit, error) {
	return r.ListLoadoutsByOwners(ctx, tx, []uint64{ownerID})
}

func (r *kitRepo) ListLoadoutsByOwners(ctx context.Context, tx *gorm.DB, ownerIDs []uint64) ([]*types.Kit, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Kit
	if len(ownerIDs) == 0 {
		return results, nil
	}

	q := transaction.WithContext(ctx).Where("type = ?", types.KitTypeLoadout)
	ors := make([]string, 0, len(ownerIDs))
	args := make([]interface{}, 0, len(ownerIDs))
	for _, owner := range ownerIDs {
		ors = append(ors, "name LIKE ?")
		args = append(args, kitid.OwnerPrefix(owner)+"%")
	}
	q = q.Where(strings.Join(ors, " OR "), args...)
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *kitRepo) Upsert(ctx context.Context, tx *gorm.DB, kit *types.Kit) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if kit == nil {
		return nil
	}
	kit.Name = strings.ToLower(strings.TrimSpace(kit.Name))
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"display_name", "type", "class", "branch", "disabled",
				"requires_perk", "cooldown_seconds", "updated_at",
			}),
		}).
		Omit("Requirements").
		Create(kit).Error
}
