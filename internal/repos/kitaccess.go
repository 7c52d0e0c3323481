package repos

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bastionmc/kitsync/internal/logger"
	"github.com/bastionmc/kitsync/internal/types"
)

type KitAccessRepo interface {
	Get(ctx context.Context, tx *gorm.DB, playerID uint64, kitID int64) (*types.KitAccess, error)
	// Upsert writes the access record, replacing the reason in place on
	// conflict. Reports false when the write was redundant (same reason
	// already stored).
	Upsert(ctx context.Context, tx *gorm.DB, row *types.KitAccess) (bool, error)
	// Delete removes the record and reports whether a row existed.
	Delete(ctx context.Context, tx *gorm.DB, playerID uint64, kitID int64) (bool, error)
	ListByPlayer(ctx context.Context, tx *gorm.DB, playerID uint64) ([]*types.KitAccess, error)
}

type kitAccessRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewKitAccessRepo(db *gorm.DB, baseLog *logger.Logger) KitAccessRepo {
	return &kitAccessRepo{db: db, log: baseLog.With("repo", "KitAccessRepo")}
}

func (r *kitAccessRepo) Get(ctx context.Context, tx *gorm.DB, playerID uint64, kitID int64) (*types.KitAccess, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if playerID == 0 || kitID == 0 {
		return nil, nil
	}
	var rows []*types.KitAccess
	err := transaction.WithContext(ctx).
		Where("player_id = ? AND kit_id = ?", playerID, kitID).
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *kitAccessRepo) Upsert(ctx context.Context, tx *gorm.DB, row *types.KitAccess) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if row == nil || row.PlayerID == 0 || row.KitID == 0 {
		return false, nil
	}
	if row.GrantedAt.IsZero() {
		row.GrantedAt = time.Now().UTC()
	}

	// The conflict update is guarded so a redundant grant reports zero rows
	// affected instead of rewriting the same reason with a new timestamp.
	result := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "kit_id"}, {Name: "player_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"reason":     row.Reason,
				"granted_at": row.GrantedAt,
			}),
			Where: clause.Where{Exprs: []clause.Expression{
				clause.Expr{SQL: "kit_access.reason IS DISTINCT FROM excluded.reason"},
			}},
		}).
		Create(row)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *kitAccessRepo) Delete(ctx context.Context, tx *gorm.DB, playerID uint64, kitID int64) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if playerID == 0 || kitID == 0 {
		return false, nil
	}
	result := transaction.WithContext(ctx).
		Where("player_id = ? AND kit_id = ?", playerID, kitID).
		Delete(&types.KitAccess{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *kitAccessRepo) ListByPlayer(ctx context.Context, tx *gorm.DB, playerID uint64) ([]*types.KitAccess, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.KitAccess
	if playerID == 0 {
		return results, nil
	}
	err := transaction.WithContext(ctx).
		Where("player_id = ?", playerID).
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
