// Package dbtest opens throwaway migrated databases for tests.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jordanlanch/freelancecrm/pkg/database"
	"github.com/jordanlanch/freelancecrm/pkg/logger"
	"github.com/stretchr/testify/require"
)

// Open creates a migrated SQLite database in a temporary directory. It is
// closed when the test finishes.
func Open(t testing.TB) *database.Client {
	t.Helper()

	client, err := database.Open(context.Background(), filepath.Join(t.TempDir(), "crm.db"),
		database.DefaultPoolConfig(), logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}
