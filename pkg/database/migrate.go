package database

import (
	"context"
	"fmt"
)

// Migration is one schema step. Apply must be safe to run against a schema
// where the step was already applied.
type Migration struct {
	Name  string
	Apply func(ctx context.Context, q Querier) error
}

// flagColumns are the boolean flags shared by companies and contacts.
var flagColumns = [][]string{
	{"is_lead", "is_prospect"},
	{"is_magazine", "is_newspaper"},
}

// Migrations returns the ordered schema history. Steps are additive only.
func Migrations() []Migration {
	return []Migration{
		{Name: "create_tables", Apply: execAll(createTables...)},
		{Name: "create_indexes", Apply: execAll(createIndexes...)},
		{Name: "add_lead_prospect_flags", Apply: addFlagColumns(flagColumns[0]...)},
		{Name: "add_publication_flags", Apply: addFlagColumns(flagColumns[1]...)},
	}
}

// Migrate applies every migration in order.
func (c *Client) Migrate(ctx context.Context) error {
	for _, m := range Migrations() {
		if err := m.Apply(ctx, c.db); err != nil {
			return fmt.Errorf("migration %s: %w", m.Name, err)
		}
		c.log.Debug("migration applied", "name", m.Name)
	}
	return nil
}

func execAll(stmts ...string) func(context.Context, Querier) error {
	return func(ctx context.Context, q Querier) error {
		for _, stmt := range stmts {
			if _, err := q.ExecContext(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	}
}

func addFlagColumns(columns ...string) func(context.Context, Querier) error {
	return func(ctx context.Context, q Querier) error {
		for _, table := range []string{"companies", "contacts"} {
			for _, column := range columns {
				if err := AddColumnIfMissing(ctx, q, table, column, "INTEGER NOT NULL DEFAULT 0"); err != nil {
					return err
				}
			}
		}
		return nil
	}
}

// AddColumnIfMissing adds column to table unless PRAGMA table_info already lists it.
func AddColumnIfMissing(ctx context.Context, q Querier, table, column, definition string) error {
	exists, err := ColumnExists(ctx, q, table, column)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	_, err = q.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition))
	if err != nil {
		return fmt.Errorf("failed to add %s.%s: %w", table, column, err)
	}
	return nil
}

// ColumnExists reports whether table has column.
func ColumnExists(ctx context.Context, q Querier, table, column string) (bool, error) {
	rows, err := q.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, fmt.Errorf("failed to read %s schema: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid       int
			name      string
			ctype     string
			notNull   int
			dfltValue any
			pk        int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dfltValue, &pk); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

var createTables = []string{
	`CREATE TABLE IF NOT EXISTS companies (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		website TEXT,
		notes TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS contacts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		email TEXT,
		phone TEXT,
		role TEXT,
		company_id INTEGER REFERENCES companies(id),
		notes TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS leads (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'NEW',
		source TEXT,
		value_estimate REAL,
		company_id INTEGER REFERENCES companies(id),
		contact_id INTEGER REFERENCES contacts(id),
		next_step TEXT,
		due_date DATETIME,
		notes TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS ideas (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'BACKLOG',
		tags TEXT,
		notes TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS projects (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'ACTIVE',
		company_id INTEGER REFERENCES companies(id),
		contact_id INTEGER REFERENCES contacts(id),
		start_date DATETIME,
		end_date DATETIME,
		budget REAL,
		notes TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS tasks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		project_id INTEGER NOT NULL REFERENCES projects(id),
		title TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'TODO',
		due_date DATETIME,
		notes TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		starts_at DATETIME NOT NULL,
		ends_at DATETIME,
		all_day INTEGER NOT NULL DEFAULT 0,
		project_id INTEGER REFERENCES projects(id),
		contact_id INTEGER REFERENCES contacts(id),
		location TEXT,
		notes TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS assets (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		filename TEXT NOT NULL,
		stored_path TEXT NOT NULL,
		mime_type TEXT,
		size_bytes INTEGER,
		tags TEXT,
		project_id INTEGER REFERENCES projects(id),
		contact_id INTEGER REFERENCES contacts(id),
		notes TEXT,
		created_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS activities (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ts DATETIME NOT NULL,
		action TEXT NOT NULL,
		entity_type TEXT NOT NULL,
		entity_id INTEGER,
		summary TEXT NOT NULL,
		changes TEXT
	)`,
}

var createIndexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_contacts_email ON contacts(email)`,
	`CREATE INDEX IF NOT EXISTS idx_activities_ts ON activities(ts)`,
	`CREATE INDEX IF NOT EXISTS idx_activities_entity ON activities(entity_type, entity_id)`,
	`CREATE INDEX IF NOT EXISTS idx_assets_fingerprint ON assets(filename, size_bytes, mime_type)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks(project_id)`,
}
