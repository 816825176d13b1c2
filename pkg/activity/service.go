package activity

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/jordanlanch/freelancecrm/pkg/database"
	"github.com/jordanlanch/freelancecrm/pkg/models"
)

const table = "activities"

// DefaultLimit is used when a caller passes no positive limit.
const DefaultLimit = 50

var columns = []string{"id", "ts", "action", "entity_type", "entity_id", "summary", "changes"}

// Hook is called once the entry it describes has been committed. Used for metrics.
type Hook func(action models.ActivityAction)

// Service records and reads the activity log
type Service struct {
	db    *database.Client
	hooks []Hook
}

// NewService creates a new activity service
func NewService(db *database.Client, hooks ...Hook) *Service {
	return &Service{
		db:    db,
		hooks: hooks,
	}
}

// Entry represents an activity log entry
type Entry struct {
	Action     models.ActivityAction `json:"action" validate:"required"`
	EntityType string                `json:"entity_type" validate:"required,max=50"`
	EntityID   *int64                `json:"entity_id"`
	Summary    string                `json:"summary" validate:"required,max=500"`
	Changes    models.Changes        `json:"changes"`
}

func (e Entry) validate() error {
	if err := models.Validate(e); err != nil {
		return err
	}
	if !e.Action.Valid() {
		return models.NewValidationError("action", "invalid action "+string(e.Action))
	}
	if strings.TrimSpace(e.Summary) == "" {
		return models.NewValidationError("summary", "is required")
	}
	return nil
}

// Record appends entry using q. Callers pass the transaction holding the
// mutation the entry describes, so both commit or neither does.
func (s *Service) Record(ctx context.Context, q database.Querier, entry Entry) (*models.Activity, error) {
	if err := entry.validate(); err != nil {
		return nil, err
	}

	var changes any
	if len(entry.Changes) > 0 {
		raw, err := json.Marshal(entry.Changes)
		if err != nil {
			return nil, fmt.Errorf("failed to encode activity changes: %w", err)
		}
		changes = string(raw)
	}

	ts := database.Now()
	id, err := database.Insert(ctx, q, database.Builder().Insert(table).
		Columns("ts", "action", "entity_type", "entity_id", "summary", "changes").
		Values(ts, string(entry.Action), entry.EntityType, database.Value(entry.EntityID), entry.Summary, changes))
	if err != nil {
		return nil, fmt.Errorf("failed to record activity: %w", err)
	}

	if len(s.hooks) > 0 {
		action := entry.Action
		s.db.AfterCommit(q, func() {
			for _, hook := range s.hooks {
				hook(action)
			}
		})
	}

	return &models.Activity{
		ID:         id,
		Timestamp:  ts,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Summary:    entry.Summary,
		Changes:    entry.Changes,
	}, nil
}

// Log records a standalone entry in its own transaction.
func (s *Service) Log(ctx context.Context, entry Entry) (*models.Activity, error) {
	var a *models.Activity
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		a, err = s.Record(ctx, tx, entry)
		return err
	})
	return a, err
}

// Recent returns the latest entries, newest first.
func (s *Service) Recent(ctx context.Context, limit int) ([]*models.Activity, error) {
	return s.list(ctx, nil, limit)
}

// ForEntity returns the latest entries for one entity, newest first.
func (s *Service) ForEntity(ctx context.Context, entityType string, entityID int64, limit int) ([]*models.Activity, error) {
	return s.list(ctx, entsql.And(
		entsql.EQ("entity_type", entityType),
		entsql.EQ("entity_id", entityID),
	), limit)
}

func (s *Service) list(ctx context.Context, where *entsql.Predicate, limit int) ([]*models.Activity, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	b := database.Builder()
	sel := b.Select(columns...).From(b.Table(table)).
		OrderBy(entsql.Desc("ts"), entsql.Desc("id")).
		Limit(limit)
	if where != nil {
		sel.Where(where)
	}

	query, args := sel.Query()
	rows, err := s.db.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity: %w", err)
	}
	defer rows.Close()

	items := []*models.Activity{}
	for rows.Next() {
		var (
			a        models.Activity
			action   string
			entityID sql.NullInt64
			changes  sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.Timestamp, &action, &a.EntityType, &entityID, &a.Summary, &changes); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		a.Action = models.ActivityAction(action)
		a.Timestamp = a.Timestamp.UTC()
		a.EntityID = database.Int64Ptr(entityID)
		if changes.Valid && changes.String != "" {
			if err := json.Unmarshal([]byte(changes.String), &a.Changes); err != nil {
				return nil, fmt.Errorf("failed to decode activity %d changes: %w", a.ID, err)
			}
		}
		items = append(items, &a)
	}
	return items, rows.Err()
}

// Snapshot is the field state of an entity at one point in time.
type Snapshot map[string]any

// Diff returns the fields whose value differs between before and after. Keys
// present on only one side are compared against nil. An empty result means
// nothing changed and no entry should be recorded.
func Diff(before, after Snapshot) models.Changes {
	changes := models.Changes{}
	for k, from := range before {
		to := after[k]
		if !reflect.DeepEqual(from, to) {
			changes[k] = models.Change{From: from, To: to}
		}
	}
	for k, to := range after {
		if _, seen := before[k]; seen {
			continue
		}
		if to != nil {
			changes[k] = models.Change{From: nil, To: to}
		}
	}
	return changes
}

// Opt converts an optional field to a snapshot value: nil or the pointee.
func Opt[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

// StatusChange is the changes payload for a status transition.
func StatusChange[S ~string](from, to S) models.Changes {
	return models.Changes{"status": models.Change{From: string(from), To: string(to)}}
}
