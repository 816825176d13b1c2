package leads

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/jordanlanch/freelancecrm/pkg/activity"
	"github.com/jordanlanch/freelancecrm/pkg/database"
	"github.com/jordanlanch/freelancecrm/pkg/models"
	"github.com/jordanlanch/freelancecrm/pkg/parse"
)

const table = "leads"

var columns = []string{
	"id", "title", "status", "source", "value_estimate", "company_id", "contact_id",
	"next_step", "due_date", "notes", "created_at", "updated_at",
}

// Service handles lead business logic
type Service struct {
	db       *database.Client
	activity *activity.Service
}

// NewService creates a new lead service
func NewService(db *database.Client, activity *activity.Service) *Service {
	return &Service{
		db:       db,
		activity: activity,
	}
}

// CreateRequest represents a request to create a lead. Optional numeric and
// date fields that fail to parse are stored as absent.
type CreateRequest struct {
	Title         string              `json:"title" form:"title" validate:"required,max=200"`
	Status        string              `json:"status" form:"status"`
	Source        string              `json:"source" form:"source" validate:"max=200"`
	ValueEstimate parse.OptionalFloat `json:"value_estimate" form:"value_estimate"`
	CompanyID     parse.OptionalInt   `json:"company_id" form:"company_id"`
	ContactID     parse.OptionalInt   `json:"contact_id" form:"contact_id"`
	NextStep      string              `json:"next_step" form:"next_step" validate:"max=500"`
	DueDate       parse.OptionalTime  `json:"due_date" form:"due_date"`
	Notes         string              `json:"notes" form:"notes"`
}

// Board groups leads by status, in pipeline order.
type Board struct {
	Statuses []models.LeadStatus                  `json:"statuses"`
	Columns  map[models.LeadStatus][]*models.Lead `json:"columns"`
}

// Create creates a lead. An unknown status falls back to NEW.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.Lead, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := models.Validate(req); err != nil {
		return nil, err
	}

	now := database.Now()
	lead := &models.Lead{
		Title:         req.Title,
		Status:        models.NormalizeStatus(req.Status, models.LeadStatuses, models.LeadStatusNew),
		Source:        models.StrPtr(strings.TrimSpace(req.Source)),
		ValueEstimate: req.ValueEstimate.Ptr(),
		CompanyID:     req.CompanyID.Ptr(),
		ContactID:     req.ContactID.Ptr(),
		NextStep:      models.StrPtr(strings.TrimSpace(req.NextStep)),
		DueDate:       req.DueDate.Ptr(),
		Notes:         models.StrPtr(strings.TrimSpace(req.Notes)),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		id, err := database.Insert(ctx, tx, database.Builder().Insert(table).
			Columns(columns[1:]...).
			Values(lead.Title, string(lead.Status), database.Value(lead.Source), database.Value(lead.ValueEstimate),
				database.Value(lead.CompanyID), database.Value(lead.ContactID), database.Value(lead.NextStep),
				database.Value(lead.DueDate), database.Value(lead.Notes), lead.CreatedAt, lead.UpdatedAt))
		if err != nil {
			return database.WriteError("create lead", err)
		}
		lead.ID = id

		_, err = s.activity.Record(ctx, tx, activity.Entry{
			Action:     models.ActionCreate,
			EntityType: models.EntityLead,
			EntityID:   &lead.ID,
			Summary:    fmt.Sprintf("Created lead: %s (%s)", lead.Title, lead.Status),
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return lead, nil
}

// Get returns a lead by id.
func (s *Service) Get(ctx context.Context, id int64) (*models.Lead, error) {
	return get(ctx, s.db.DB(), id)
}

// SetStatus moves a lead to status. An unknown lead is a NotFoundError and an
// unknown status a ValidationError. Setting the current status is a no-op and
// records nothing.
func (s *Service) SetStatus(ctx context.Context, id int64, status string) (*models.Lead, error) {
	var lead *models.Lead
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		lead, err = get(ctx, tx, id)
		if err != nil {
			return err
		}

		next, err := models.ParseStatus(status, models.LeadStatuses)
		if err != nil {
			return err
		}
		before := lead.Status
		if before == next {
			return nil
		}

		lead.Status = next
		lead.UpdatedAt = database.Now()
		_, err = database.Exec(ctx, tx, database.Builder().Update(table).
			Set("status", string(next)).
			Set("updated_at", lead.UpdatedAt).
			Where(entsql.EQ("id", id)))
		if err != nil {
			return fmt.Errorf("failed to update lead status: %w", err)
		}

		_, err = s.activity.Record(ctx, tx, activity.Entry{
			Action:     models.ActionStatus,
			EntityType: models.EntityLead,
			EntityID:   &lead.ID,
			Summary:    "Lead moved: " + lead.Title,
			Changes:    activity.StatusChange(before, next),
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return lead, nil
}

// Board returns every lead grouped by status, most recently updated first.
func (s *Service) Board(ctx context.Context) (*Board, error) {
	leads, err := s.List(ctx, Filter{})
	if err != nil {
		return nil, err
	}

	board := &Board{
		Statuses: models.LeadStatuses,
		Columns:  make(map[models.LeadStatus][]*models.Lead, len(models.LeadStatuses)),
	}
	for _, status := range models.LeadStatuses {
		board.Columns[status] = []*models.Lead{}
	}
	for _, lead := range leads {
		board.Columns[lead.Status] = append(board.Columns[lead.Status], lead)
	}
	return board, nil
}

// Filter narrows List.
type Filter struct {
	ContactID *int64
	CompanyID *int64
}

// List returns leads, most recently updated first.
func (s *Service) List(ctx context.Context, f Filter) ([]*models.Lead, error) {
	b := database.Builder()
	sel := b.Select(columns...).From(b.Table(table)).OrderBy(entsql.Desc("updated_at"), entsql.Desc("id"))
	var preds []*entsql.Predicate
	if f.ContactID != nil {
		preds = append(preds, entsql.EQ("contact_id", *f.ContactID))
	}
	if f.CompanyID != nil {
		preds = append(preds, entsql.EQ("company_id", *f.CompanyID))
	}
	if len(preds) > 0 {
		sel.Where(entsql.And(preds...))
	}

	query, args := sel.Query()
	rows, err := s.db.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	defer rows.Close()

	leads := []*models.Lead{}
	for rows.Next() {
		lead, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lead: %w", err)
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

func get(ctx context.Context, q database.Querier, id int64) (*models.Lead, error) {
	b := database.Builder()
	query, args := b.Select(columns...).From(b.Table(table)).Where(entsql.EQ("id", id)).Query()

	lead, err := scan(q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NewNotFoundError(models.EntityLead, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}
	return lead, nil
}

func scan(row database.Scanner) (*models.Lead, error) {
	var (
		l         models.Lead
		status    string
		source    sql.NullString
		value     sql.NullFloat64
		companyID sql.NullInt64
		contactID sql.NullInt64
		nextStep  sql.NullString
		dueDate   sql.NullTime
		notes     sql.NullString
	)
	err := row.Scan(&l.ID, &l.Title, &status, &source, &value, &companyID, &contactID,
		&nextStep, &dueDate, &notes, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	l.Status = models.LeadStatus(status)
	l.Source = database.StringPtr(source)
	l.ValueEstimate = database.Float64Ptr(value)
	l.CompanyID = database.Int64Ptr(companyID)
	l.ContactID = database.Int64Ptr(contactID)
	l.NextStep = database.StringPtr(nextStep)
	l.DueDate = database.TimePtr(dueDate)
	l.Notes = database.StringPtr(notes)
	l.CreatedAt = l.CreatedAt.UTC()
	l.UpdatedAt = l.UpdatedAt.UTC()
	return &l, nil
}
