package events

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/jordanlanch/freelancecrm/pkg/activity"
	"github.com/jordanlanch/freelancecrm/pkg/database"
	"github.com/jordanlanch/freelancecrm/pkg/models"
	"github.com/jordanlanch/freelancecrm/pkg/parse"
	"github.com/jordanlanch/freelancecrm/pkg/tasks"
)

const table = "events"

var columns = []string{
	"id", "title", "starts_at", "ends_at", "all_day", "project_id", "contact_id",
	"location", "notes", "created_at", "updated_at",
}

// Service handles calendar events
type Service struct {
	db       *database.Client
	activity *activity.Service
	tasks    *tasks.Service
}

// NewService creates a new event service
func NewService(db *database.Client, activity *activity.Service, tasks *tasks.Service) *Service {
	return &Service{
		db:       db,
		activity: activity,
		tasks:    tasks,
	}
}

// CreateRequest represents a request to create an event. Start is required
// and must parse; an unparseable end is dropped.
type CreateRequest struct {
	Title     string             `json:"title" form:"title" validate:"required,max=200"`
	Start     string             `json:"start" form:"start" validate:"required"`
	End       parse.OptionalTime `json:"end" form:"end"`
	AllDay    bool               `json:"all_day" form:"all_day"`
	ProjectID parse.OptionalInt  `json:"project_id" form:"project_id"`
	ContactID parse.OptionalInt  `json:"contact_id" form:"contact_id"`
	Location  string             `json:"location" form:"location" validate:"max=200"`
	Notes     string             `json:"notes" form:"notes"`
}

// CalendarItem is one entry of the calendar feed, shaped for FullCalendar.
type CalendarItem struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	Start         time.Time      `json:"start"`
	End           *time.Time     `json:"end"`
	AllDay        bool           `json:"allDay"`
	ExtendedProps map[string]any `json:"extendedProps"`
}

// Create creates an event.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.Event, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Start = strings.TrimSpace(req.Start)
	if err := models.Validate(req); err != nil {
		return nil, err
	}
	start, ok := parse.Time(req.Start)
	if !ok {
		return nil, models.NewValidationError("start", "invalid start datetime")
	}

	now := database.Now()
	event := &models.Event{
		Title:     req.Title,
		Start:     start,
		End:       req.End.Ptr(),
		AllDay:    req.AllDay,
		ProjectID: req.ProjectID.Ptr(),
		ContactID: req.ContactID.Ptr(),
		Location:  models.StrPtr(strings.TrimSpace(req.Location)),
		Notes:     models.StrPtr(strings.TrimSpace(req.Notes)),
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		id, err := database.Insert(ctx, tx, database.Builder().Insert(table).
			Columns(columns[1:]...).
			Values(event.Title, event.Start, database.Value(event.End), event.AllDay,
				database.Value(event.ProjectID), database.Value(event.ContactID),
				database.Value(event.Location), database.Value(event.Notes), event.CreatedAt, event.UpdatedAt))
		if err != nil {
			return database.WriteError("create event", err)
		}
		event.ID = id

		_, err = s.activity.Record(ctx, tx, activity.Entry{
			Action:     models.ActionCreate,
			EntityType: models.EntityEvent,
			EntityID:   &event.ID,
			Summary:    "Created event: " + event.Title,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return event, nil
}

// Filter narrows List.
type Filter struct {
	ProjectID *int64
	ContactID *int64
}

// List returns events ordered by start.
func (s *Service) List(ctx context.Context, f Filter) ([]*models.Event, error) {
	b := database.Builder()
	sel := b.Select(columns...).From(b.Table(table)).OrderBy("starts_at", "id")
	var preds []*entsql.Predicate
	if f.ProjectID != nil {
		preds = append(preds, entsql.EQ("project_id", *f.ProjectID))
	}
	if f.ContactID != nil {
		preds = append(preds, entsql.EQ("contact_id", *f.ContactID))
	}
	if len(preds) > 0 {
		sel.Where(entsql.And(preds...))
	}

	query, args := sel.Query()
	rows, err := s.db.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	events := []*models.Event{}
	for rows.Next() {
		var (
			e         models.Event
			end       sql.NullTime
			projectID sql.NullInt64
			contactID sql.NullInt64
			location  sql.NullString
			notes     sql.NullString
		)
		err := rows.Scan(&e.ID, &e.Title, &e.Start, &end, &e.AllDay, &projectID, &contactID,
			&location, &notes, &e.CreatedAt, &e.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		e.Start = e.Start.UTC()
		e.End = database.TimePtr(end)
		e.ProjectID = database.Int64Ptr(projectID)
		e.ContactID = database.Int64Ptr(contactID)
		e.Location = database.StringPtr(location)
		e.Notes = database.StringPtr(notes)
		e.CreatedAt = e.CreatedAt.UTC()
		e.UpdatedAt = e.UpdatedAt.UTC()
		events = append(events, &e)
	}
	return events, rows.Err()
}

// CalendarFeed returns every event plus each open task with a due date.
// Tasks appear as all-day entries on their due date.
func (s *Service) CalendarFeed(ctx context.Context) ([]CalendarItem, error) {
	events, err := s.List(ctx, Filter{})
	if err != nil {
		return nil, err
	}
	due, err := s.tasks.OpenWithDueDate(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]CalendarItem, 0, len(events)+len(due))
	for _, e := range events {
		items = append(items, CalendarItem{
			ID:            fmt.Sprintf("event-%d", e.ID),
			Title:         e.Title,
			Start:         e.Start,
			End:           e.End,
			AllDay:        e.AllDay,
			ExtendedProps: map[string]any{"type": "event", "entityId": e.ID},
		})
	}
	for _, t := range due {
		items = append(items, CalendarItem{
			ID:            fmt.Sprintf("task-%d", t.ID),
			Title:         "📝 " + t.Title,
			Start:         *t.DueDate,
			AllDay:        true,
			ExtendedProps: map[string]any{"type": "task", "entityId": t.ID, "projectId": t.ProjectID},
		})
	}
	return items, nil
}
