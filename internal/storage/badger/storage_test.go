package badger

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vigilo/internal/common"
)

// setupTestDB creates a throwaway Badger database for one test.
func setupTestDB(t *testing.T) (*BadgerDB, func()) {
	t.Helper()

	logger := arbor.NewLogger()
	db, err := NewBadgerDB(logger, &common.BadgerConfig{Path: t.TempDir()})
	require.NoError(t, err)

	return db, func() { db.Close() }
}
