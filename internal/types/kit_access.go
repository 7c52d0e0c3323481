package types

import "time"

type AccessReason string

const (
	AccessReasonPurchase AccessReason = "purchase"
	AccessReasonAdmin    AccessReason = "admin"
	AccessReasonUnlock   AccessReason = "unlock"
)

// KitAccess is the durable fact that a player may use a kit. One row per
// (kit, player); writing a new reason replaces the old one in place.
type KitAccess struct {
	KitID     int64        `gorm:"primaryKey;autoIncrement:false;column:kit_id" json:"kit_id"`
	PlayerID  uint64       `gorm:"primaryKey;autoIncrement:false;column:player_id" json:"player_id"`
	Reason    AccessReason `gorm:"not null;column:reason" json:"reason"`
	GrantedAt time.Time    `gorm:"not null;column:granted_at" json:"granted_at"`
}

func (KitAccess) TableName() string { return "kit_access" }
