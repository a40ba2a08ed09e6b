package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/banditrecycle/server/cache"
	"github.com/banditrecycle/server/config"
	dbadapter "github.com/banditrecycle/server/db"
	"github.com/banditrecycle/server/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SetupTestDB creates a private in-memory SQLite database and runs AutoMigrate.
// It requires no external services and is safe to use in parallel tests.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := dbadapter.Open(config.DatabaseConfig{
		Mode:       dbadapter.ModeSQLite,
		SQLitePath: fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
	})
	require.NoError(t, err, "SetupTestDB: Open")
	require.NoError(t, model.AutoMigrate(db), "SetupTestDB: AutoMigrate")
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// SetupSeededDB is SetupTestDB plus the default item catalog.
func SetupSeededDB(t *testing.T) *gorm.DB {
	t.Helper()
	db := SetupTestDB(t)
	_, err := model.SeedCatalog(db)
	require.NoError(t, err, "SetupSeededDB: SeedCatalog")
	return db
}

// SetupTestCache creates LocalCache and LocalPubSub (no Redis required).
func SetupTestCache(t *testing.T) (cache.Cache, cache.PubSub) {
	t.Helper()
	cfg := cache.CacheConfig{} // empty RedisAddr → LocalCache
	c, err := cache.NewCache(cfg)
	require.NoError(t, err, "SetupTestCache: NewCache")
	t.Cleanup(func() { cache.Close(c) })
	ps, err := cache.NewPubSub(cfg)
	require.NoError(t, err, "SetupTestCache: NewPubSub")
	return c, ps
}

// SetupQueryCache returns a QueryCache over a fresh local cache, together
// with the underlying Cache for per-user screen state.
func SetupQueryCache(t *testing.T) (*cache.QueryCache, cache.Cache) {
	t.Helper()
	c, ps := SetupTestCache(t)
	return cache.NewQueryCache(c, ps, time.Minute, zap.NewNop()), c
}
