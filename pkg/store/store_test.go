package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestStore(t *testing.T) *Store {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	logger := zerolog.New(os.Stdout).Level(zerolog.Disabled)

	s, err := Open(Config{Path: dbPath, Logger: logger})
	require.NoError(t, err)

	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen(t *testing.T) {
	s := createTestStore(t)
	assert.NotNil(t, s.db)
}

func TestOpen_RequiresPath(t *testing.T) {
	s, err := Open(Config{})
	assert.Error(t, err)
	assert.Nil(t, s)
}

func TestOpen_Reopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	logger := zerolog.New(os.Stdout).Level(zerolog.Disabled)

	s, err := Open(Config{Path: dbPath, Logger: logger})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// Schema creation is idempotent across reopens.
	s, err = Open(Config{Path: dbPath, Logger: logger})
	require.NoError(t, err)
	require.NoError(t, s.Close())
}

func testTime(day int) time.Time {
	return time.Date(2026, 1, day, 12, 0, 0, 0, time.UTC)
}
