package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/jordanlanch/freelancecrm/pkg/logger"
	"github.com/jordanlanch/freelancecrm/pkg/models"
	"github.com/mattn/go-sqlite3"
)

// Querier is satisfied by *sql.DB and *sql.Tx, so store code runs the same
// way inside and outside a transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Client holds the database client
type Client struct {
	drv *entsql.Driver
	db  *sql.DB
	log logger.Logger

	mu          sync.Mutex
	afterCommit map[*sql.Tx][]func()
}

// PoolConfig holds connection pool configuration
type PoolConfig struct {
	MaxOpenConns    int           // Maximum number of open connections
	ConnMaxIdleTime time.Duration // Maximum amount of time a connection may be idle
	BusyTimeout     time.Duration // How long SQLite waits on a locked database
}

// DefaultPoolConfig returns defaults for a single-user SQLite file.
// SQLite allows one writer, so a single connection serialises requests.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxOpenConns:    1,
		ConnMaxIdleTime: 10 * time.Minute,
		BusyTimeout:     5 * time.Second,
	}
}

// BuildDSN builds a go-sqlite3 data source name with foreign keys enforced.
func BuildDSN(path string, poolCfg PoolConfig) string {
	query := url.Values{}
	query.Set("_foreign_keys", "on")
	query.Set("_journal_mode", "WAL")
	query.Set("_busy_timeout", fmt.Sprintf("%d", poolCfg.BusyTimeout.Milliseconds()))
	return "file:" + path + "?" + query.Encode()
}

// Open opens the SQLite database at path and applies pending migrations.
func Open(ctx context.Context, path string, poolCfg PoolConfig, log logger.Logger) (*Client, error) {
	drv, err := entsql.Open(dialect.SQLite, BuildDSN(path, poolCfg))
	if err != nil {
		return nil, fmt.Errorf("failed opening connection to sqlite: %w", err)
	}

	db := drv.DB()
	db.SetMaxOpenConns(poolCfg.MaxOpenConns)
	db.SetMaxIdleConns(poolCfg.MaxOpenConns)
	db.SetConnMaxIdleTime(poolCfg.ConnMaxIdleTime)

	client := &Client{drv: drv, db: db, log: log}
	if err := client.Ping(ctx); err != nil {
		drv.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := client.Migrate(ctx); err != nil {
		drv.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	log.Info("database connected and migrations applied", "path", path, "max_open", poolCfg.MaxOpenConns)
	return client, nil
}

// DB returns the underlying handle for reads outside a transaction.
func (c *Client) DB() *sql.DB {
	return c.db
}

// Builder returns an SQL statement builder for the SQLite dialect.
func (c *Client) Builder() *entsql.DialectBuilder {
	return Builder()
}

// Builder returns an SQL statement builder for the SQLite dialect.
func Builder() *entsql.DialectBuilder {
	return entsql.Dialect(dialect.SQLite)
}

// WithTx runs fn inside a transaction. The transaction is rolled back when fn
// returns an error or panics, and committed otherwise. Callbacks registered
// with AfterCommit run only once the commit succeeds.
func (c *Client) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	c.trackTx(tx)
	defer func() {
		if v := recover(); v != nil {
			c.untrackTx(tx)
			tx.Rollback()
			panic(v)
		}
	}()

	if err := fn(tx); err != nil {
		c.untrackTx(tx)
		if rerr := tx.Rollback(); rerr != nil {
			err = fmt.Errorf("%w: rolling back transaction: %v", err, rerr)
		}
		return err
	}

	callbacks := c.untrackTx(tx)
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	for _, cb := range callbacks {
		cb()
	}
	return nil
}

// AfterCommit defers fn until the transaction q belongs to has committed.
// Outside a WithTx transaction fn runs immediately, since the write it
// follows is already durable.
func (c *Client) AfterCommit(q Querier, fn func()) {
	if tx, ok := q.(*sql.Tx); ok {
		c.mu.Lock()
		if pending, tracked := c.afterCommit[tx]; tracked {
			c.afterCommit[tx] = append(pending, fn)
			c.mu.Unlock()
			return
		}
		c.mu.Unlock()
	}
	fn()
}

func (c *Client) trackTx(tx *sql.Tx) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.afterCommit == nil {
		c.afterCommit = make(map[*sql.Tx][]func())
	}
	c.afterCommit[tx] = []func(){}
}

func (c *Client) untrackTx(tx *sql.Tx) []func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	callbacks := c.afterCommit[tx]
	delete(c.afterCommit, tx)
	return callbacks
}

// Close closes the database connection
func (c *Client) Close() error {
	return c.drv.Close()
}

// Ping checks if the database is reachable
func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Stats returns database connection pool statistics
func (c *Client) Stats() sql.DBStats {
	return c.db.Stats()
}

// IsForeignKeyViolation reports whether err is a SQLite foreign key failure.
func IsForeignKeyViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
	}
	return false
}

// WriteError maps a failed insert or update. A foreign key violation means a
// referenced id does not exist and becomes a ValidationError.
func WriteError(op string, err error) error {
	if IsForeignKeyViolation(err) {
		return models.NewValidationError("", "referenced record does not exist")
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

// Exec builds and executes a statement.
func Exec(ctx context.Context, q Querier, stmt entsql.Querier) (sql.Result, error) {
	query, args := stmt.Query()
	return q.ExecContext(ctx, query, args...)
}

// Insert executes an insert statement and returns the new row id.
func Insert(ctx context.Context, q Querier, stmt *entsql.InsertBuilder) (int64, error) {
	res, err := Exec(ctx, q, stmt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Count runs a SELECT COUNT(*) selector.
func Count(ctx context.Context, q Querier, sel *entsql.Selector) (int, error) {
	query, args := sel.Query()
	var n int
	if err := q.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Exists reports whether a table has a row with the given id.
func Exists(ctx context.Context, q Querier, table string, id int64) (bool, error) {
	b := Builder()
	n, err := Count(ctx, q, b.Select().Count().From(b.Table(table)).Where(entsql.EQ("id", id)))
	if err != nil {
		return false, fmt.Errorf("failed to check %s %d: %w", table, id, err)
	}
	return n > 0, nil
}
