package model

import "time"

// Profile is the per-user row created on first sign-in.
// FriendCode is generated once and never updated.
type Profile struct {
	UserID              string     `gorm:"primaryKey;size:36" json:"user_id"`
	DisplayName         string     `gorm:"size:64" json:"display_name"`
	ProfilePhotoURL     string     `gorm:"size:512" json:"profile_photo_url"`
	FriendCode          string     `gorm:"uniqueIndex;size:16;not null" json:"friend_code"`
	LocationLabel       string     `gorm:"size:128" json:"location_label"`
	StreamMode          StreamMode `gorm:"size:16;default:single" json:"stream_mode"`
	BanditHatID         string     `gorm:"size:32;default:none" json:"bandit_hat_id"`
	LocalSetupCompleted bool       `gorm:"default:false" json:"local_setup_completed"`
	CreatedAt           time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
