package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/banditrecycle/server/identity"
	"github.com/banditrecycle/server/model"
	"github.com/banditrecycle/server/store"
	"github.com/banditrecycle/server/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var testNow = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

func nop() *zap.Logger { l, _ := zap.NewDevelopment(); return l }

func newStore(t *testing.T) (*store.Store, *gorm.DB) {
	t.Helper()
	db := testutil.SetupSeededDB(t)
	qc, _ := testutil.SetupQueryCache(t)
	s := store.New(db, qc, store.Options{Now: func() time.Time { return testNow }}, nop())
	return s, db
}

// newUser creates a profile and returns its identity.
func newUser(t *testing.T, s *store.Store, uid string) (identity.Identity, *model.Profile) {
	t.Helper()
	id := identity.User(uid)
	p, err := s.Profiles.Ensure(context.Background(), id, uid, "")
	require.NoError(t, err)
	return id, p
}
