package model

import "time"

// UserItemRule records one user's rule for one item type.
// The composite primary key guarantees at most one row per pair.
type UserItemRule struct {
	UserID     string    `gorm:"primaryKey;size:36" json:"user_id" validate:"required"`
	ItemTypeID string    `gorm:"primaryKey;size:64" json:"item_type_id" validate:"required"`
	Rule       Rule      `gorm:"size:16;not null" json:"rule" validate:"oneof=accepted not_accepted not_sure"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
