// Package stats assembles the stats screen: weekly and lifetime totals,
// the friends leaderboard and incoming friend requests.
package stats

import (
	"context"
	"sort"
	"time"

	"github.com/banditrecycle/server/identity"
	"github.com/banditrecycle/server/model"
	"github.com/banditrecycle/server/store"
	"github.com/banditrecycle/server/tracker/bandit"
	"go.uber.org/zap"
)

// DeleteAccountNotice is shown instead of deleting anything.
const DeleteAccountNotice = "To delete your account data, please contact support."

// Entry is one row of the friends list or leaderboard.
type Entry struct {
	UserID          string     `json:"user_id"`
	DisplayName     string     `json:"display_name"`
	ProfilePhotoURL string     `json:"profile_photo_url"`
	Hat             bandit.Hat `json:"hat"`
	WeeklyTotal     int        `json:"weekly_total"`
	IsSelf          bool       `json:"is_self,omitempty"`
}

// PendingRequest is an incoming friend request awaiting an answer.
type PendingRequest struct {
	ID          string    `json:"id"`
	FromUserID  string    `json:"from_user_id"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// Summary is everything the stats screen shows.
type Summary struct {
	WeeklyTotal   int              `json:"weekly_total"`
	LifetimeTotal int              `json:"lifetime_total"`
	FriendCode    string           `json:"friend_code"`
	Hat           bandit.Hat       `json:"hat"`
	Friends       []Entry          `json:"friends"`
	Leaderboard   []Entry          `json:"leaderboard"`
	Pending       []PendingRequest `json:"pending"`
}

// Service reads stats through the data-access layer.
type Service struct {
	store  *store.Store
	logger *zap.Logger
}

func NewService(st *store.Store, logger *zap.Logger) *Service {
	return &Service{store: st, logger: logger}
}

func entryFor(p model.Profile, total int) Entry {
	return Entry{
		UserID:          p.UserID,
		DisplayName:     p.DisplayName,
		ProfilePhotoURL: p.ProfilePhotoURL,
		Hat:             bandit.Resolve(p.BanditHatID),
		WeeklyTotal:     total,
	}
}

// Sort orders entries by weekly total descending, then by name.
func Sort(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].WeeklyTotal != entries[j].WeeklyTotal {
			return entries[i].WeeklyTotal > entries[j].WeeklyTotal
		}
		return entries[i].DisplayName < entries[j].DisplayName
	})
}

// Friends resolves every accepted relationship to the counterpart's profile
// and weekly total, using one profile query and one grouped total query.
func (s *Service) Friends(ctx context.Context, id identity.Identity) ([]Entry, error) {
	uid, ok := id.UserID()
	if !ok {
		return nil, store.ErrAuthRequired
	}
	rels, err := s.store.Friends.List(ctx, id)
	if err != nil {
		return nil, err
	}
	ids := store.Counterparts(store.Accepted(rels), uid)
	if len(ids) == 0 {
		return []Entry{}, nil
	}
	profiles, err := s.store.Profiles.ByUserIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	totals, err := s.store.Logs.WeeklyTotals(ctx, ids)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, fid := range ids {
		if seen[fid] {
			continue
		}
		seen[fid] = true
		p, ok := profiles[fid]
		if !ok {
			s.logger.Debug("friend has no profile", zap.String("user_id", fid))
			p = model.Profile{UserID: fid}
		}
		entries = append(entries, entryFor(p, totals[fid]))
	}
	Sort(entries)
	return entries, nil
}

// Pending lists requests addressed to the caller that are still pending.
func (s *Service) Pending(ctx context.Context, id identity.Identity) ([]PendingRequest, error) {
	uid, ok := id.UserID()
	if !ok {
		return nil, store.ErrAuthRequired
	}
	rels, err := s.store.Friends.List(ctx, id)
	if err != nil {
		return nil, err
	}
	incoming := store.PendingIncoming(rels, uid)
	out := make([]PendingRequest, 0, len(incoming))
	if len(incoming) == 0 {
		return out, nil
	}
	ids := make([]string, len(incoming))
	for i, r := range incoming {
		ids[i] = r.RequesterID
	}
	profiles, err := s.store.Profiles.ByUserIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, r := range incoming {
		out = append(out, PendingRequest{
			ID:          r.ID,
			FromUserID:  r.RequesterID,
			DisplayName: profiles[r.RequesterID].DisplayName,
			CreatedAt:   r.CreatedAt,
		})
	}
	return out, nil
}

// Summary builds the full stats screen.
func (s *Service) Summary(ctx context.Context, id identity.Identity) (*Summary, error) {
	prof, err := s.store.Profiles.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if prof == nil {
		if id.IsAnonymous() {
			return nil, store.ErrAuthRequired
		}
		return nil, store.ErrNotFound
	}
	weekly, err := s.store.Logs.WeeklyTotal(ctx, id)
	if err != nil {
		return nil, err
	}
	lifetime, err := s.store.Logs.LifetimeTotal(ctx, id)
	if err != nil {
		return nil, err
	}
	friends, err := s.Friends(ctx, id)
	if err != nil {
		return nil, err
	}
	pending, err := s.Pending(ctx, id)
	if err != nil {
		return nil, err
	}

	self := entryFor(*prof, weekly)
	self.IsSelf = true
	board := append([]Entry{self}, friends...)
	Sort(board)

	return &Summary{
		WeeklyTotal:   weekly,
		LifetimeTotal: lifetime,
		FriendCode:    prof.FriendCode,
		Hat:           bandit.Resolve(prof.BanditHatID),
		Friends:       friends,
		Leaderboard:   board,
		Pending:       pending,
	}, nil
}

// SendRequest sends a friend request by code.
func (s *Service) SendRequest(ctx context.Context, id identity.Identity, friendCode string) (*model.FriendRelationship, error) {
	return s.store.Friends.SendRequest(ctx, id, friendCode)
}

// Respond accepts or denies an incoming request.
func (s *Service) Respond(ctx context.Context, id identity.Identity, relationshipID string, status model.FriendStatus) error {
	return s.store.Friends.Respond(ctx, id, relationshipID, status)
}

// SetHat stores the resolved hat, so unknown ids become the default hat.
func (s *Service) SetHat(ctx context.Context, id identity.Identity, hatID string) (bandit.Hat, error) {
	hat := bandit.Resolve(hatID)
	if err := s.store.Profiles.Update(ctx, id, store.ProfilePatch{BanditHatID: &hat.ID}); err != nil {
		return bandit.Hat{}, err
	}
	return hat, nil
}
