package database

import (
	"database/sql"
	"time"
)

// Value unwraps an optional field for use as a statement argument.
// A nil pointer becomes SQL NULL.
func Value[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

// StringPtr converts a scanned nullable string.
func StringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// Int64Ptr converts a scanned nullable integer.
func Int64Ptr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

// Float64Ptr converts a scanned nullable float.
func Float64Ptr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

// TimePtr converts a scanned nullable timestamp to UTC.
func TimePtr(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	v := n.Time.UTC()
	return &v
}

// Now is the timestamp written to created_at and updated_at columns.
func Now() time.Time {
	return time.Now().UTC()
}

// Scanner is satisfied by *sql.Row and *sql.Rows.
type Scanner interface {
	Scan(dest ...any) error
}
