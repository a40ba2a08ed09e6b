package db

import (
	"path/filepath"
	"testing"

	"github.com/banditrecycle/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_SQLiteFile(t *testing.T) {
	db, err := Open(config.DatabaseConfig{
		Mode:       ModeSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "bandit.db"),
	})
	require.NoError(t, err)

	var one int
	require.NoError(t, db.Raw("SELECT 1").Scan(&one).Error)
	assert.Equal(t, 1, one)
}

func TestOpen_UnknownMode(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Mode: "embedded_xml"})
	assert.ErrorContains(t, err, "unknown mode")
}
