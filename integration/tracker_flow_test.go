package integration

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/banditrecycle/server/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupThenLogThenStats(t *testing.T) {
	ts := NewTestServer(t)
	token, userID := ts.Login(t, UniqueID("flow"), "pass1234")

	// Logging is gated on setup.
	body := Expect(t, ts.Get(t, "/api/log", token), http.StatusPreconditionRequired)
	assert.Equal(t, "/setup", body["redirect"])

	ts.CompleteSetup(t, token, "Oakland, CA", "double", "accepted")
	Expect(t, ts.Get(t, "/api/log", token), http.StatusOK)

	// Drawer guidance follows the stream mode chosen in setup.
	g := Expect(t, ts.Get(t, "/api/log/items/newspaper", token), http.StatusOK)["guidance"].(map[string]interface{})
	assert.Equal(t, "not_sure", g["rule"])
	assert.Equal(t, true, g["can_quick_set_rule"])
	assert.Contains(t, g["bin_label"], "Paper")

	out := ts.LogItems(t, token, "plastic_bottle", "plastic_bottle", "cardboard")
	assert.Len(t, out["entries"], 2)

	sum := Expect(t, ts.Get(t, "/api/stats", token), http.StatusOK)
	assert.EqualValues(t, 3, sum["weekly_total"])
	assert.EqualValues(t, 3, sum["lifetime_total"])

	var entries []model.LogEntry
	require.NoError(t, ts.DB.Where("user_id = ?", userID).Find(&entries).Error)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, "Oakland, CA", *e.LocationLabelAtLog)
		assert.Equal(t, model.StreamDouble, *e.StreamModeAtLog)
	}

	// Changing stream mode later does not rewrite history.
	Expect(t, ts.Do(t, http.MethodPatch, "/api/profile", map[string]string{"stream_mode": "single"}, token), http.StatusOK)
	ts.LogItems(t, token, "paper")
	var latest model.LogEntry
	require.NoError(t, ts.DB.Where("user_id = ? AND item_type_id = ?", userID, "paper").First(&latest).Error)
	assert.Equal(t, model.StreamSingle, *latest.StreamModeAtLog)
	require.NoError(t, ts.DB.Where("user_id = ? AND item_type_id = ?", userID, "cardboard").First(&latest).Error)
	assert.Equal(t, model.StreamDouble, *latest.StreamModeAtLog)
}

func TestWeeklyWindowExcludesOldEntries(t *testing.T) {
	ts := NewTestServer(t)
	token, userID := ts.Login(t, UniqueID("window"), "pass1234")
	ts.CompleteSetup(t, token, "Reno, NV", "single", "accepted")

	old := time.Now().UTC().Add(-8 * 24 * time.Hour)
	require.NoError(t, ts.DB.Create(&model.LogEntry{
		UserID: userID, ItemTypeID: "paper", Quantity: 10, CreatedAt: old,
	}).Error)
	ts.LogItems(t, token, "paper")

	sum := Expect(t, ts.Get(t, "/api/stats", token), http.StatusOK)
	assert.EqualValues(t, 1, sum["weekly_total"])
	assert.EqualValues(t, 11, sum["lifetime_total"])

	body := Expect(t, ts.Get(t, "/api/log/entries", token), http.StatusOK)
	assert.Len(t, body["entries"], 1)
}

func TestSubmitPublishesInvalidations(t *testing.T) {
	ts := NewTestServer(t)
	token, userID := ts.Login(t, UniqueID("inval"), "pass1234")
	ts.CompleteSetup(t, token, "Boise, ID", "single", "accepted")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	keys, unsub, err := ts.Query.Subscribe(ctx)
	require.NoError(t, err)
	defer unsub()

	ts.LogItems(t, token, "aluminum_can")

	seen := map[string]bool{}
	for len(seen) < 3 {
		select {
		case k := <-keys:
			if k.Owner == userID {
				seen[k.Concern] = true
			}
		case <-ctx.Done():
			t.Fatalf("missing invalidations, saw %v", seen)
		}
	}
	assert.True(t, seen["log_entries"])
	assert.True(t, seen["weekly_total"])
	assert.True(t, seen["lifetime_total"])
}
