package types

import "time"

// KitFavorite is existence-only: the row being present is the whole fact.
type KitFavorite struct {
	KitID     int64     `gorm:"primaryKey;autoIncrement:false;column:kit_id" json:"kit_id"`
	PlayerID  uint64    `gorm:"primaryKey;autoIncrement:false;column:player_id" json:"player_id"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (KitFavorite) TableName() string { return "kit_favorite" }
