package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LogEntry is one logged line of a batch. The *AtLog fields are a snapshot
// of the profile at submission time, not references to the current profile.
type LogEntry struct {
	ID                 string      `gorm:"primaryKey;size:36" json:"id"`
	UserID             string      `gorm:"index:idx_log_user_created,priority:1;size:36;not null" json:"user_id" validate:"required"`
	ItemTypeID         string      `gorm:"size:64;not null" json:"item_type_id" validate:"required"`
	Quantity           int         `gorm:"not null" json:"quantity" validate:"min=1"`
	CreatedAt          time.Time   `gorm:"index:idx_log_user_created,priority:2" json:"created_at"`
	StreamModeAtLog    *StreamMode `gorm:"size:16" json:"stream_mode_at_log"`
	LocationLabelAtLog *string     `gorm:"size:128" json:"location_label_at_log"`
}

func (e *LogEntry) BeforeCreate(*gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}
