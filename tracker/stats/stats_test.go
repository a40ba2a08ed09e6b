package stats_test

import (
	"context"
	"testing"

	"github.com/banditrecycle/server/identity"
	"github.com/banditrecycle/server/model"
	"github.com/banditrecycle/server/store"
	"github.com/banditrecycle/server/testutil"
	"github.com/banditrecycle/server/tracker/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	svc *stats.Service
	st  *store.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.SetupSeededDB(t)
	qc, _ := testutil.SetupQueryCache(t)
	st := store.New(db, qc, store.Options{}, zap.NewNop())
	return &fixture{svc: stats.NewService(st, zap.NewNop()), st: st}
}

func (f *fixture) user(t *testing.T, uid, name string) (identity.Identity, *model.Profile) {
	t.Helper()
	id := identity.User(uid)
	p, err := f.st.Profiles.Ensure(context.Background(), id, name, "")
	require.NoError(t, err)
	return id, p
}

func (f *fixture) befriend(t *testing.T, from, to identity.Identity, toCode string) {
	t.Helper()
	ctx := context.Background()
	rel, err := f.svc.SendRequest(ctx, from, toCode)
	require.NoError(t, err)
	require.NoError(t, f.svc.Respond(ctx, to, rel.ID, model.FriendAccepted))
}

func (f *fixture) log(t *testing.T, id identity.Identity, item string, qty int) {
	t.Helper()
	_, err := f.st.Logs.LogBatch(context.Background(), id, []store.Line{{ItemTypeID: item, Quantity: qty}})
	require.NoError(t, err)
}

func TestSummary_Leaderboard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	me, _ := f.user(t, "me", "Me")
	bob, bobProf := f.user(t, "bob", "Bob")
	carol, _ := f.user(t, "carol", "Carol")
	dave, _ := f.user(t, "dave", "Dave")

	f.befriend(t, me, bob, bobProf.FriendCode)
	f.befriend(t, carol, me, mustCode(t, f, me)) // accepted in the other direction
	_, err := f.svc.SendRequest(ctx, dave, mustCode(t, f, me))
	require.NoError(t, err)

	f.log(t, me, "paper", 3)
	f.log(t, bob, "paper", 5)
	f.log(t, carol, "cardboard", 3)

	sum, err := f.svc.Summary(ctx, me)
	require.NoError(t, err)
	assert.Equal(t, 3, sum.WeeklyTotal)
	assert.Equal(t, 3, sum.LifetimeTotal)
	assert.Len(t, sum.FriendCode, 8)

	require.Len(t, sum.Friends, 2)
	assert.Equal(t, "bob", sum.Friends[0].UserID)
	assert.Equal(t, 5, sum.Friends[0].WeeklyTotal)
	assert.Equal(t, "carol", sum.Friends[1].UserID)

	names := make([]string, len(sum.Leaderboard))
	for i, e := range sum.Leaderboard {
		names[i] = e.DisplayName
	}
	assert.Equal(t, []string{"Bob", "Carol", "Me"}, names, "ties broken by name")
	assert.True(t, sum.Leaderboard[2].IsSelf)

	require.Len(t, sum.Pending, 1)
	assert.Equal(t, "dave", sum.Pending[0].FromUserID)
	assert.Equal(t, "Dave", sum.Pending[0].DisplayName)
}

func mustCode(t *testing.T, f *fixture, id identity.Identity) string {
	t.Helper()
	p, err := f.st.Profiles.Get(context.Background(), id)
	require.NoError(t, err)
	return p.FriendCode
}

func TestFriends_ExcludesPendingAndDenied(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	me, _ := f.user(t, "me", "Me")
	_, bobProf := f.user(t, "bob", "Bob")
	carol, _ := f.user(t, "carol", "Carol")

	_, err := f.svc.SendRequest(ctx, me, bobProf.FriendCode)
	require.NoError(t, err)
	rel, err := f.svc.SendRequest(ctx, carol, mustCode(t, f, me))
	require.NoError(t, err)
	require.NoError(t, f.svc.Respond(ctx, me, rel.ID, model.FriendDenied))

	friends, err := f.svc.Friends(ctx, me)
	require.NoError(t, err)
	assert.Empty(t, friends)
}

func TestSummary_Errors(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Summary(context.Background(), identity.Anonymous)
	assert.ErrorIs(t, err, store.ErrAuthRequired)

	_, err = f.svc.Summary(context.Background(), identity.User("ghost"))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSetHat(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	me, _ := f.user(t, "me", "Me")

	hat, err := f.svc.SetHat(ctx, me, "wizard")
	require.NoError(t, err)
	assert.Equal(t, "🧙", hat.Emoji)

	hat, err = f.svc.SetHat(ctx, me, "sombrero")
	require.NoError(t, err)
	assert.Equal(t, "none", hat.ID)

	p, err := f.st.Profiles.Get(ctx, me)
	require.NoError(t, err)
	assert.Equal(t, "none", p.BanditHatID)
}

func TestSort(t *testing.T) {
	entries := []stats.Entry{
		{DisplayName: "Zed", WeeklyTotal: 1},
		{DisplayName: "Amy", WeeklyTotal: 1},
		{DisplayName: "Bo", WeeklyTotal: 9},
	}
	stats.Sort(entries)
	assert.Equal(t, "Bo", entries[0].DisplayName)
	assert.Equal(t, "Amy", entries[1].DisplayName)
	assert.Equal(t, "Zed", entries[2].DisplayName)
}
