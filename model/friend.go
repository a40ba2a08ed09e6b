package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FriendRelationship is stored directionally (requester -> addressee) but is
// undirected for display. Only the addressee may answer a pending request.
type FriendRelationship struct {
	ID          string       `gorm:"primaryKey;size:36" json:"id"`
	RequesterID string       `gorm:"uniqueIndex:idx_friend_pair;size:36;not null" json:"requester_id"`
	AddresseeID string       `gorm:"uniqueIndex:idx_friend_pair;index:idx_friend_addressee;size:36;not null" json:"addressee_id"`
	Status      FriendStatus `gorm:"size:16;default:pending;not null" json:"status"`
	CreatedAt   time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

func (f *FriendRelationship) BeforeCreate(*gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}

// Counterpart returns the other party of the relationship from userID's side.
func (f *FriendRelationship) Counterpart(userID string) string {
	if f.RequesterID == userID {
		return f.AddresseeID
	}
	return f.RequesterID
}
