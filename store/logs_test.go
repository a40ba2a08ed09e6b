package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/banditrecycle/server/identity"
	"github.com/banditrecycle/server/model"
	"github.com/banditrecycle/server/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogs_LogBatchSnapshotsProfile(t *testing.T) {
	s, db := newStore(t)
	ctx := context.Background()
	id, _ := newUser(t, s, "u1")
	require.NoError(t, s.Profiles.Update(ctx, id, store.ProfilePatch{
		LocationLabel: ptr("Springfield"),
		StreamMode:    ptr(model.StreamDouble),
	}))

	lines := []store.Line{
		{ItemTypeID: "plastic_bottle", Quantity: 2},
		{ItemTypeID: "cardboard", Quantity: 1},
		{ItemTypeID: "paper", Quantity: 5},
	}
	entries, err := s.Logs.LogBatch(ctx, id, lines)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	var rows []model.LogEntry
	require.NoError(t, db.Where("user_id = ?", "u1").Order("item_type_id").Find(&rows).Error)
	require.Len(t, rows, 3)
	for _, r := range rows {
		require.NotNil(t, r.StreamModeAtLog)
		require.NotNil(t, r.LocationLabelAtLog)
		assert.Equal(t, model.StreamDouble, *r.StreamModeAtLog)
		assert.Equal(t, "Springfield", *r.LocationLabelAtLog)
	}
	assert.Equal(t, "cardboard", rows[0].ItemTypeID)
	assert.Equal(t, 1, rows[0].Quantity)

	// later profile changes do not rewrite history
	require.NoError(t, s.Profiles.Update(ctx, id, store.ProfilePatch{StreamMode: ptr(model.StreamSingle)}))
	var again model.LogEntry
	require.NoError(t, db.First(&again, "id = ?", entries[0].ID).Error)
	assert.Equal(t, model.StreamDouble, *again.StreamModeAtLog)
}

func TestLogs_LogBatchRejectsWithoutWriting(t *testing.T) {
	s, db := newStore(t)
	ctx := context.Background()
	id, _ := newUser(t, s, "u1")

	_, err := s.Logs.LogBatch(ctx, identity.Anonymous, []store.Line{{ItemTypeID: "paper", Quantity: 1}})
	assert.ErrorIs(t, err, store.ErrAuthRequired)

	_, err = s.Logs.LogBatch(ctx, id, nil)
	assert.ErrorIs(t, err, store.ErrInvalidInput)

	_, err = s.Logs.LogBatch(ctx, id, []store.Line{{ItemTypeID: "paper", Quantity: 0}})
	assert.ErrorIs(t, err, store.ErrInvalidInput)

	_, err = s.Logs.LogBatch(ctx, id, []store.Line{
		{ItemTypeID: "paper", Quantity: 1},
		{ItemTypeID: "unobtainium", Quantity: 1},
	})
	assert.ErrorIs(t, err, store.ErrUnknownItemType)

	var n int64
	db.Model(&model.LogEntry{}).Count(&n)
	assert.Zero(t, n)
}

func TestLogs_WeeklyWindow(t *testing.T) {
	s, db := newStore(t)
	ctx := context.Background()
	id, _ := newUser(t, s, "u1")

	old := model.LogEntry{UserID: "u1", ItemTypeID: "paper", Quantity: 10, CreatedAt: testNow.Add(-8 * 24 * time.Hour)}
	edge := model.LogEntry{UserID: "u1", ItemTypeID: "paper", Quantity: 3, CreatedAt: testNow.Add(-6 * 24 * time.Hour)}
	require.NoError(t, db.Create(&old).Error)
	require.NoError(t, db.Create(&edge).Error)

	_, err := s.Logs.LogBatch(ctx, id, []store.Line{{ItemTypeID: "aluminum_can", Quantity: 2}})
	require.NoError(t, err)

	recent, err := s.Logs.Recent(ctx, id)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "aluminum_can", recent[0].ItemTypeID, "newest first")
	for _, e := range recent {
		assert.NotEqual(t, old.ID, e.ID, "8-day-old entry excluded")
	}

	weekly, err := s.Logs.WeeklyTotal(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 5, weekly)

	lifetime, err := s.Logs.LifetimeTotal(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 15, lifetime)
}

func TestLogs_TotalsInvalidatedOnLog(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	id, _ := newUser(t, s, "u1")

	w, err := s.Logs.WeeklyTotal(ctx, id)
	require.NoError(t, err)
	assert.Zero(t, w)

	_, err = s.Logs.LogBatch(ctx, id, []store.Line{{ItemTypeID: "paper", Quantity: 4}})
	require.NoError(t, err)

	w, err = s.Logs.WeeklyTotal(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 4, w)
}

func TestLogs_WeeklyTotalsGrouped(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	a, _ := newUser(t, s, "a")
	b, _ := newUser(t, s, "b")
	newUser(t, s, "c")

	_, err := s.Logs.LogBatch(ctx, a, []store.Line{{ItemTypeID: "paper", Quantity: 2}, {ItemTypeID: "cardboard", Quantity: 3}})
	require.NoError(t, err)
	_, err = s.Logs.LogBatch(ctx, b, []store.Line{{ItemTypeID: "paper", Quantity: 7}})
	require.NoError(t, err)

	totals, err := s.Logs.WeeklyTotals(ctx, []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"a": 5, "b": 7, "c": 0}, totals)

	empty, err := s.Logs.WeeklyTotals(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestLogs_AnonymousReads(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	recent, err := s.Logs.Recent(ctx, identity.Anonymous)
	require.NoError(t, err)
	assert.Empty(t, recent)
	total, err := s.Logs.WeeklyTotal(ctx, identity.Anonymous)
	require.NoError(t, err)
	assert.Zero(t, total)
}
