package repos

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/bastionmc/kitsync/internal/logger"
	"github.com/bastionmc/kitsync/internal/types"
)

type KitFavoriteRepo interface {
	Exists(ctx context.Context, tx *gorm.DB, playerID uint64, kitID int64) (bool, error)
	// Insert creates the favorite row. The store's uniqueness constraint is
	// the arbiter of duplicates; a duplicate insert surfaces as an error the
	// caller classifies with IsDuplicateKey.
	Insert(ctx context.Context, tx *gorm.DB, playerID uint64, kitID int64) error
	// Delete removes the row and reports whether one existed.
	Delete(ctx context.Context, tx *gorm.DB, playerID uint64, kitID int64) (bool, error)
	ListByPlayer(ctx context.Context, tx *gorm.DB, playerID uint64) ([]*types.KitFavorite, error)
}

type kitFavoriteRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewKitFavoriteRepo(db *gorm.DB, baseLog *logger.Logger) KitFavoriteRepo {
	return &kitFavoriteRepo{db: db, log: baseLog.With("repo", "KitFavoriteRepo")}
}

func (r *kitFavoriteRepo) Exists(ctx context.Context, tx *gorm.DB, playerID uint64, kitID int64) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if playerID == 0 || kitID == 0 {
		return false, nil
	}
	var count int64
	err := transaction.WithContext(ctx).
		Model(&types.KitFavorite{}).
		Where("player_id = ? AND kit_id = ?", playerID, kitID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *kitFavoriteRepo) Insert(ctx context.Context, tx *gorm.DB, playerID uint64, kitID int64) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if playerID == 0 || kitID == 0 {
		return nil
	}
	row := &types.KitFavorite{
		KitID:     kitID,
		PlayerID:  playerID,
		CreatedAt: time.Now().UTC(),
	}
	return transaction.WithContext(ctx).Create(row).Error
}

func (r *kitFavoriteRepo) Delete(ctx context.Context, tx *gorm.DB, playerID uint64, kitID int64) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if playerID == 0 || kitID == 0 {
		return false, nil
	}
	result := transaction.WithContext(ctx).
		Where("player_id = ? AND kit_id = ?", playerID, kitID).
		Delete(&types.KitFavorite{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *kitFavoriteRepo) ListByPlayer(ctx context.Context, tx *gorm.DB, playerID uint64) ([]*types.KitFavorite, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.KitFavorite
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
