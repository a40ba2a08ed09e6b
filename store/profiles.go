package store

import (
	"context"
	"errors"
	"strings"

	"github.com/banditrecycle/server/cache"
	"github.com/banditrecycle/server/identity"
	"github.com/banditrecycle/server/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const friendCodeAttempts = 5

// ProfilePatch is a partial profile update. Nil fields are left unchanged.
type ProfilePatch struct {
	DisplayName         *string           `json:"display_name,omitempty" validate:"omitempty,max=64"`
	ProfilePhotoURL     *string           `json:"profile_photo_url,omitempty" validate:"omitempty,max=512"`
	LocationLabel       *string           `json:"location_label,omitempty" validate:"omitempty,max=128"`
	StreamMode          *model.StreamMode `json:"stream_mode,omitempty" validate:"omitempty,oneof=single double"`
	BanditHatID         *string           `json:"bandit_hat_id,omitempty" validate:"omitempty,max=32"`
	LocalSetupCompleted *bool             `json:"local_setup_completed,omitempty"`
}

func (p ProfilePatch) columns() map[string]interface{} {
	cols := make(map[string]interface{})
	if p.DisplayName != nil {
		cols["display_name"] = *p.DisplayName
	}
	if p.ProfilePhotoURL != nil {
		cols["profile_photo_url"] = *p.ProfilePhotoURL
	}
	if p.LocationLabel != nil {
		cols["location_label"] = *p.LocationLabel
	}
	if p.StreamMode != nil {
		cols["stream_mode"] = *p.StreamMode
	}
	if p.BanditHatID != nil {
		cols["bandit_hat_id"] = *p.BanditHatID
	}
	if p.LocalSetupCompleted != nil {
		cols["local_setup_completed"] = *p.LocalSetupCompleted
	}
	return cols
}

// Profiles reads and updates the caller's own profile row.
type Profiles struct {
	base
}

// Get returns the caller's profile. The anonymous identity and a user with
// no profile row both yield nil without error.
func (p *Profiles) Get(ctx context.Context, id identity.Identity) (*model.Profile, error) {
	uid, ok := id.UserID()
	if !ok {
		return nil, nil
	}
	return cache.Fetch(ctx, p.qc, key(ConcernProfile, uid), func(ctx context.Context) (*model.Profile, error) {
		var prof model.Profile
		err := p.db.WithContext(ctx).Where("user_id = ?", uid).First(&prof).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, queryErr("get profile", err)
		}
		return &prof, nil
	})
}

// Update applies patch to the caller's row. The target row is always the
// identity's own; no client-supplied id is accepted.
func (p *Profiles) Update(ctx context.Context, id identity.Identity, patch ProfilePatch) error {
	uid, err := requireUser(id)
	if err != nil {
		return err
	}
	if err := validate.Struct(patch); err != nil {
		return invalid(err)
	}
	cols := patch.columns()
	if len(cols) == 0 {
		return nil
	}
	res := p.db.WithContext(ctx).Model(&model.Profile{}).Where("user_id = ?", uid).Updates(cols)
	if res.Error != nil {
		return queryErr("update profile", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	p.invalidate(ctx, key(ConcernProfile, uid))
	return nil
}

// Ensure returns the caller's profile, creating it on first sign-in with a
// freshly generated friend code.
func (p *Profiles) Ensure(ctx context.Context, id identity.Identity, displayName, photoURL string) (*model.Profile, error) {
	uid, err := requireUser(id)
	if err != nil {
		return nil, err
	}
	var prof model.Profile
	err = p.db.WithContext(ctx).Where("user_id = ?", uid).First(&prof).Error
	if err == nil {
		return &prof, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, queryErr("ensure profile", err)
	}

	for attempt := 0; attempt < friendCodeAttempts; attempt++ {
		prof = model.Profile{
			UserID:          uid,
			DisplayName:     displayName,
			ProfilePhotoURL: photoURL,
			FriendCode:      NewFriendCode(),
		}
		err = p.db.WithContext(ctx).Create(&prof).Error
		if err == nil {
			p.invalidate(ctx, key(ConcernProfile, uid))
			return &prof, nil
		}
		if !isUniqueViolation(err) {
			return nil, queryErr("create profile", err)
		}
		// Either the friend code collided or a concurrent sign-in won the race.
		var existing model.Profile
		if p.db.WithContext(ctx).Where("user_id = ?", uid).First(&existing).Error == nil {
			return &existing, nil
		}
	}
	return nil, queryErr("create profile", err)
}

// ByFriendCode looks up a profile by exact friend code.
func (p *Profiles) ByFriendCode(ctx context.Context, code string) (*model.Profile, error) {
	var prof model.Profile
	err := p.db.WithContext(ctx).Where("friend_code = ?", code).First(&prof).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, queryErr("profile by friend code", err)
	}
	return &prof, nil
}

// ByUserIDs loads many profiles in one query, keyed by user id.
func (p *Profiles) ByUserIDs(ctx context.Context, ids []string) (map[string]model.Profile, error) {
	out := make(map[string]model.Profile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []model.Profile
	if err := p.db.WithContext(ctx).Where("user_id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, queryErr("profiles by user ids", err)
	}
	for _, r := range rows {
		out[r.UserID] = r
	}
	return out, nil
}

// NewFriendCode returns an 8 character upper-case hex code.
func NewFriendCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]
}
