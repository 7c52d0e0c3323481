package types

import (
	"time"
)

type KitType string

const (
	// KitTypeSingle is a one-time purchase kit; use is gated by an access record.
	KitTypeSingle KitType = "single"
	// KitTypeFaction is restricted to a faction branch.
	KitTypeFaction KitType = "faction"
	// KitTypeEvent is handed out during events; open to everyone while enabled.
	KitTypeEvent KitType = "event"
	// KitTypeLoadout is a private per-player kit; its name encodes the owner id.
	KitTypeLoadout KitType = "loadout"
)

type Kit struct {
	ID              int64             `gorm:"primaryKey;autoIncrement" json:"id"`
	Name            string            `gorm:"uniqueIndex;not null;column:name" json:"name"`
	DisplayName     string            `gorm:"column:display_name" json:"display_name"`
	Type            KitType           `gorm:"not null;index;column:type" json:"type"`
	Class           string            `gorm:"column:class" json:"class"`
	Branch          string            `gorm:"column:branch" json:"branch"`
	Disabled        bool              `gorm:"not null;default:false;column:disabled" json:"disabled"`
	RequiresPerk    bool              `gorm:"not null;default:false;column:requires_perk" json:"requires_perk"`
	CooldownSeconds int               `gorm:"not null;default:0;column:cooldown_seconds" json:"cooldown_seconds"`
	Requirements    []*KitRequirement `gorm:"foreignKey:KitID;references:ID" json:"requirements,omitempty"`
	CreatedAt       time.Time         `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time         `gorm:"not null" json:"updated_at"`
}

func (Kit) TableName() string { return "kit" }

type RequirementKind string

const (
	RequirementQuest RequirementKind = "quest"
	RequirementLevel RequirementKind = "level"
	RequirementPerk  RequirementKind = "perk"
)

type KitRequirement struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	KitID       int64           `gorm:"not null;index;column:kit_id" json:"kit_id"`
	Kind        RequirementKind `gorm:"not null;column:kind" json:"kind"`
	QuestPreset string          `gorm:"column:quest_preset" json:"quest_preset,omitempty"`
	Threshold   int             `gorm:"not null;default:0;column:threshold" json:"threshold"`
}

func (KitRequirement) TableName() string { return "kit_requirement" }
