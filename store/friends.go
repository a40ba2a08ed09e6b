package store

import (
	"context"
	"errors"
	"strings"

	"github.com/banditrecycle/server/cache"
	"github.com/banditrecycle/server/identity"
	"github.com/banditrecycle/server/model"
	"gorm.io/gorm"
)

// Friends manages friend relationships. Rows are directional
// (requester → addressee) but a pair is related in at most one direction.
type Friends struct {
	base
	profiles *Profiles
}

// List returns every relationship the caller takes part in, either side.
func (f *Friends) List(ctx context.Context, id identity.Identity) ([]model.FriendRelationship, error) {
	uid, ok := id.UserID()
	if !ok {
		return nil, nil
	}
	return cache.Fetch(ctx, f.qc, key(ConcernFriends, uid), func(ctx context.Context) ([]model.FriendRelationship, error) {
		var rows []model.FriendRelationship
		err := f.db.WithContext(ctx).
			Where("requester_id = ? OR addressee_id = ?", uid, uid).
			Order("created_at DESC").
			Find(&rows).Error
		if err != nil {
			return nil, queryErr("list friend relationships", err)
		}
		return rows, nil
	})
}

// SendRequest creates a pending request from the caller to the owner of
// friendCode. No row is written when the code is unknown, belongs to the
// caller or the pair is already related. A pending request the other way
// is accepted instead and returned.
func (f *Friends) SendRequest(ctx context.Context, id identity.Identity, friendCode string) (*model.FriendRelationship, error) {
	uid, err := requireUser(id)
	if err != nil {
		return nil, err
	}
	code := strings.TrimSpace(friendCode)
	if code == "" {
		return nil, invalid(errors.New("friend code is required"))
	}
	target, err := f.profiles.ByFriendCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if target.UserID == uid {
		return nil, ErrSelfReference
	}

	var existing []model.FriendRelationship
	err = f.db.WithContext(ctx).
		Where("(requester_id = ? AND addressee_id = ?) OR (requester_id = ? AND addressee_id = ?)",
			uid, target.UserID, target.UserID, uid).
		Find(&existing).Error
	if err != nil {
		return nil, queryErr("check relationship", err)
	}
	if len(existing) == 1 && existing[0].RequesterID == target.UserID && existing[0].Status == model.FriendPending {
		rel := existing[0]
		if err := f.Respond(ctx, id, rel.ID, model.FriendAccepted); err != nil {
			return nil, err
		}
		rel.Status = model.FriendAccepted
		return &rel, nil
	}
	if len(existing) > 0 {
		return nil, ErrAlreadyRelated
	}

	rel := &model.FriendRelationship{
		RequesterID: uid,
		AddresseeID: target.UserID,
		Status:      model.FriendPending,
	}
	if err := f.db.WithContext(ctx).Create(rel).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAlreadyRelated
		}
		return nil, queryErr("create friend request", err)
	}
	f.invalidate(ctx, key(ConcernFriends, uid), key(ConcernFriends, target.UserID))
	return rel, nil
}

// Respond accepts or denies a pending request addressed to the caller.
// Anything else (unknown id, caller is the requester, already answered)
// is ErrNotFound.
func (f *Friends) Respond(ctx context.Context, id identity.Identity, relationshipID string, status model.FriendStatus) error {
	uid, err := requireUser(id)
	if err != nil {
		return err
	}
	if !status.Terminal() {
		return invalid(errors.New("status must be accepted or denied"))
	}

	var rel model.FriendRelationship
	err = f.db.WithContext(ctx).
		Where("id = ? AND addressee_id = ? AND status = ?", relationshipID, uid, model.FriendPending).
		First(&rel).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return queryErr("find friend request", err)
	}

	res := f.db.WithContext(ctx).Model(&model.FriendRelationship{}).
		Where("id = ? AND status = ?", rel.ID, model.FriendPending).
		Update("status", status)
	if res.Error != nil {
		return queryErr("respond to friend request", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	f.invalidate(ctx, key(ConcernFriends, rel.RequesterID), key(ConcernFriends, rel.AddresseeID))
	return nil
}

// Accepted filters relationships down to accepted ones.
func Accepted(rels []model.FriendRelationship) []model.FriendRelationship {
	var out []model.FriendRelationship
	for _, r := range rels {
		if r.Status == model.FriendAccepted {
			out = append(out, r)
		}
	}
	return out
}

// PendingIncoming returns pending requests addressed to userID.
func PendingIncoming(rels []model.FriendRelationship, userID string) []model.FriendRelationship {
	var out []model.FriendRelationship
	for _, r := range rels {
		if r.Status == model.FriendPending && r.AddresseeID == userID {
			out = append(out, r)
		}
	}
	return out
}

// Counterparts resolves the other party of each relationship.
func Counterparts(rels []model.FriendRelationship, userID string) []string {
	ids := make([]string, len(rels))
	for i := range rels {
		ids[i] = rels[i].Counterpart(userID)
	}
	return ids
}
