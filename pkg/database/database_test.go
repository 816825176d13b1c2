package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/jordanlanch/freelancecrm/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestClient(t *testing.T) *Client {
	t.Helper()
	client, err := Open(context.Background(), filepath.Join(t.TempDir(), "crm.db"), DefaultPoolConfig(), logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestBuildDSN(t *testing.T) {
	dsn := BuildDSN("/tmp/crm.db", DefaultPoolConfig())

	assert.True(t, strings.HasPrefix(dsn, "file:/tmp/crm.db?"))
	assert.Contains(t, dsn, "_foreign_keys=on")
	assert.Contains(t, dsn, "_busy_timeout=5000")
}

func TestDefaultPoolConfig(t *testing.T) {
	cfg := DefaultPoolConfig()
	assert.Equal(t, 1, cfg.MaxOpenConns)
}

func TestMigrate_AddsFlagColumns(t *testing.T) {
	client := openTestClient(t)
	ctx := context.Background()

	for _, table := range []string{"companies", "contacts"} {
		for _, column := range []string{"is_lead", "is_prospect", "is_magazine", "is_newspaper"} {
			exists, err := ColumnExists(ctx, client.DB(), table, column)
			require.NoError(t, err)
			assert.True(t, exists, "%s.%s", table, column)
		}
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	client := openTestClient(t)
	ctx := context.Background()

	b := Builder()
	_, err := Insert(ctx, client.DB(), b.Insert("companies").
		Columns("name", "created_at", "updated_at").
		Values("Acme", Now(), Now()))
	require.NoError(t, err)

	require.NoError(t, client.Migrate(ctx))
	require.NoError(t, client.Migrate(ctx))

	n, err := Count(ctx, client.DB(), b.Select().Count().From(b.Table("companies")))
	require.NoError(t, err)
	assert.Equal(t, 1, n, "re-running migrations keeps existing rows")
}

func TestMigrate_UpgradesLegacyTable(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "legacy.db")

	// A database created before the flag columns existed.
	legacy, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = legacy.Exec(`CREATE TABLE companies (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL,
		website TEXT, notes TEXT, created_at DATETIME NOT NULL, updated_at DATETIME NOT NULL)`)
	require.NoError(t, err)
	_, err = legacy.Exec(`INSERT INTO companies (name, created_at, updated_at) VALUES ('Old Co', '2023-01-01', '2023-01-01')`)
	require.NoError(t, err)
	require.NoError(t, legacy.Close())

	client, err := Open(ctx, path, DefaultPoolConfig(), logger.Nop())
	require.NoError(t, err)
	defer client.Close()

	var name string
	var isLead bool
	require.NoError(t, client.DB().QueryRowContext(ctx, "SELECT name, is_lead FROM companies").Scan(&name, &isLead))
	assert.Equal(t, "Old Co", name)
	assert.False(t, isLead)
}

func TestWithTx(t *testing.T) {
	client := openTestClient(t)
	ctx := context.Background()
	b := Builder()

	t.Run("rolls back on error", func(t *testing.T) {
		boom := errors.New("boom")
		err := client.WithTx(ctx, func(tx *sql.Tx) error {
			_, err := Insert(ctx, tx, b.Insert("companies").
				Columns("name", "created_at", "updated_at").
				Values("Rolled Back", Now(), Now()))
			require.NoError(t, err)
			return boom
		})
		assert.ErrorIs(t, err, boom)

		n, err := Count(ctx, client.DB(), b.Select().Count().From(b.Table("companies")).
			Where(entsql.EQ("name", "Rolled Back")))
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("commits on success", func(t *testing.T) {
		var id int64
		err := client.WithTx(ctx, func(tx *sql.Tx) error {
			var err error
			id, err = Insert(ctx, tx, b.Insert("companies").
				Columns("name", "created_at", "updated_at").
				Values("Kept", Now(), Now()))
			return err
		})
		require.NoError(t, err)

		exists, err := Exists(ctx, client.DB(), "companies", id)
		require.NoError(t, err)
		assert.True(t, exists)
	})
}

func TestWithTx_AfterCommit(t *testing.T) {
	client := openTestClient(t)
	ctx := context.Background()

	t.Run("runs after commit", func(t *testing.T) {
		ran := 0
		err := client.WithTx(ctx, func(tx *sql.Tx) error {
			client.AfterCommit(tx, func() { ran++ })
			assert.Zero(t, ran, "deferred until commit")
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, ran)
	})

	t.Run("dropped on rollback", func(t *testing.T) {
		ran := 0
		err := client.WithTx(ctx, func(tx *sql.Tx) error {
			client.AfterCommit(tx, func() { ran++ })
			return errors.New("boom")
		})
		require.Error(t, err)
		assert.Zero(t, ran)

		require.NoError(t, client.WithTx(ctx, func(tx *sql.Tx) error { return nil }))
		assert.Zero(t, ran, "not carried into a later transaction")
	})

	t.Run("runs immediately outside a transaction", func(t *testing.T) {
		ran := 0
		client.AfterCommit(client.DB(), func() { ran++ })
		assert.Equal(t, 1, ran)
	})
}

func TestIsForeignKeyViolation(t *testing.T) {
	client := openTestClient(t)
	ctx := context.Background()
	b := Builder()

	_, err := Insert(ctx, client.DB(), b.Insert("tasks").
		Columns("project_id", "title", "status", "created_at", "updated_at").
		Values(999, "Orphan", "TODO", Now(), Now()))
	require.Error(t, err)
	assert.True(t, IsForeignKeyViolation(err))
	assert.False(t, IsForeignKeyViolation(errors.New("other")))
}
