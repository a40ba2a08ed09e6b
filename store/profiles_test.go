package store_test

import (
	"context"
	"testing"

	"github.com/banditrecycle/server/identity"
	"github.com/banditrecycle/server/model"
	"github.com/banditrecycle/server/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestProfiles_GetAnonymous(t *testing.T) {
	s, _ := newStore(t)
	p, err := s.Profiles.Get(context.Background(), identity.Anonymous)
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestProfiles_GetMissingRow(t *testing.T) {
	s, _ := newStore(t)
	p, err := s.Profiles.Get(context.Background(), identity.User("ghost"))
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestProfiles_EnsureIsIdempotent(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	id := identity.User("u1")

	// cache a miss first; Ensure must invalidate it
	p, err := s.Profiles.Get(ctx, id)
	require.NoError(t, err)
	require.Nil(t, p)

	first, err := s.Profiles.Ensure(ctx, id, "Alice", "https://img/a.png")
	require.NoError(t, err)
	assert.Len(t, first.FriendCode, 8)
	assert.Equal(t, model.StreamSingle, first.StreamMode)

	second, err := s.Profiles.Ensure(ctx, id, "Other", "")
	require.NoError(t, err)
	assert.Equal(t, first.FriendCode, second.FriendCode)
	assert.Equal(t, "Alice", second.DisplayName)

	got, err := s.Profiles.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, first.FriendCode, got.FriendCode)
}

func TestProfiles_Update(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	id, _ := newUser(t, s, "u1")

	// prime the cache
	_, err := s.Profiles.Get(ctx, id)
	require.NoError(t, err)

	err = s.Profiles.Update(ctx, id, store.ProfilePatch{
		LocationLabel: ptr("Springfield"),
		StreamMode:    ptr(model.StreamDouble),
	})
	require.NoError(t, err)

	p, err := s.Profiles.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Springfield", p.LocationLabel)
	assert.Equal(t, model.StreamDouble, p.StreamMode)
	assert.False(t, p.LocalSetupCompleted, "untouched fields keep their value")

	require.NoError(t, s.Profiles.Update(ctx, id, store.ProfilePatch{LocalSetupCompleted: ptr(true)}))
	p, _ = s.Profiles.Get(ctx, id)
	assert.True(t, p.LocalSetupCompleted)
	assert.Equal(t, "Springfield", p.LocationLabel)
}

func TestProfiles_UpdateOnlyTouchesOwnRow(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	alice, _ := newUser(t, s, "alice")
	bob, _ := newUser(t, s, "bob")

	require.NoError(t, s.Profiles.Update(ctx, alice, store.ProfilePatch{DisplayName: ptr("Al")}))

	p, err := s.Profiles.Get(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, "bob", p.DisplayName)
}

func TestProfiles_UpdateErrors(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	id, _ := newUser(t, s, "u1")

	err := s.Profiles.Update(ctx, identity.Anonymous, store.ProfilePatch{DisplayName: ptr("x")})
	assert.ErrorIs(t, err, store.ErrAuthRequired)

	err = s.Profiles.Update(ctx, id, store.ProfilePatch{StreamMode: ptr(model.StreamMode("triple"))})
	assert.ErrorIs(t, err, store.ErrInvalidInput)

	err = s.Profiles.Update(ctx, identity.User("ghost"), store.ProfilePatch{DisplayName: ptr("x")})
	assert.ErrorIs(t, err, store.ErrNotFound)

	// empty patch is a no-op
	assert.NoError(t, s.Profiles.Update(ctx, id, store.ProfilePatch{}))
}

func TestProfiles_ByFriendCodeAndUserIDs(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	_, alice := newUser(t, s, "alice")
	newUser(t, s, "bob")

	got, err := s.Profiles.ByFriendCode(ctx, alice.FriendCode)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.UserID)

	_, err = s.Profiles.ByFriendCode(ctx, "NOPE0000")
	assert.ErrorIs(t, err, store.ErrNotFound)

	m, err := s.Profiles.ByUserIDs(ctx, []string{"alice", "bob", "ghost"})
	require.NoError(t, err)
	assert.Len(t, m, 2)
	assert.Contains(t, m, "bob")
}

func TestNewFriendCode(t *testing.T) {
	code := store.NewFriendCode()
	assert.Regexp(t, `^[0-9A-F]{8}$`, code)
}
