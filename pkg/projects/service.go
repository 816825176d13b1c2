package projects

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

const table = "projects"

var columns = []string{
	"id", "name", "status", "company_id", "contact_id", "start_date", "end_date",
	"budget", "notes", "created_at", "updated_at",
}

// Service handles project business logic
type Service struct {
	db       *database.Client
	activity *activity.Service
}

// NewService creates a new project service
func NewService(db *database.Client, activity *activity.Service) *Service {
	return &Service{
		db:       db,
		activity: activity,
	}
}

// CreateRequest represents a request to create a project
type CreateRequest struct {
	Name      string              `json:"name" form:"name" validate:"required,max=200"`
	Status    string              `json:"status" form:"status"`
	CompanyID parse.OptionalInt   `json:"company_id" form:"company_id"`
	ContactID parse.OptionalInt   `json:"contact_id" form:"contact_id"`
	StartDate parse.OptionalTime  `json:"start_date" form:"start_date"`
	EndDate   parse.OptionalTime  `json:"end_date" form:"end_date"`
	Budget    parse.OptionalFloat `json:"budget" form:"budget"`
	Notes     string              `json:"notes" form:"notes"`
}

// Filter narrows List.
type Filter struct {
	Status    *models.ProjectStatus
	ContactID *int64
	CompanyID *int64
}

// Create creates a project. An unknown status falls back to ACTIVE.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.Project, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := models.Validate(req); err != nil {
		return nil, err
	}

	now := database.Now()
	project := &models.Project{
		Name:      req.Name,
		Status:    models.NormalizeStatus(req.Status, models.ProjectStatuses, models.ProjectStatusActive),
		CompanyID: req.CompanyID.Ptr(),
		ContactID: req.ContactID.Ptr(),
		StartDate: req.StartDate.Ptr(),
		EndDate:   req.EndDate.Ptr(),
		Budget:    req.Budget.Ptr(),
		Notes:     models.StrPtr(strings.TrimSpace(req.Notes)),
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		id, err := database.Insert(ctx, tx, database.Builder().Insert(table).
			Columns(columns[1:]...).
			Values(project.Name, string(project.Status), database.Value(project.CompanyID),
				database.Value(project.ContactID), database.Value(project.StartDate), database.Value(project.EndDate),
				database.Value(project.Budget), database.Value(project.Notes), project.CreatedAt, project.UpdatedAt))
		if err != nil {
			return database.WriteError("create project", err)
		}
		project.ID = id

		_, err = s.activity.Record(ctx, tx, activity.Entry{
			Action:     models.ActionCreate,
			EntityType: models.EntityProject,
			EntityID:   &project.ID,
			Summary:    "Created project: " + project.Name,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return project, nil
}

// Get returns a project by id.
func (s *Service) Get(ctx context.Context, id int64) (*models.Project, error) {
	return Get(ctx, s.db.DB(), id)
}

// Get loads a project using q.
func Get(ctx context.Context, q database.Querier, id int64) (*models.Project, error) {
	b := database.Builder()
	query, args := b.Select(columns...).From(b.Table(table)).Where(entsql.EQ("id", id)).Query()

	project, err := scan(q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NewNotFoundError(models.EntityProject, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return project, nil
}

// List returns projects, most recently updated first.
func (s *Service) List(ctx context.Context, f Filter) ([]*models.Project, error) {
	b := database.Builder()
	sel := b.Select(columns...).From(b.Table(table)).OrderBy(entsql.Desc("updated_at"), entsql.Desc("id"))
	var preds []*entsql.Predicate
	if f.Status != nil {
		preds = append(preds, entsql.EQ("status", string(*f.Status)))
	}
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
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	projects := []*models.Project{}
	for rows.Next() {
		project, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, project)
	}
	return projects, rows.Err()
}

// SetStatus moves a project to status. Setting the current status records
// nothing.
func (s *Service) SetStatus(ctx context.Context, id int64, status string) (*models.Project, error) {
	var project *models.Project
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		project, err = Get(ctx, tx, id)
		if err != nil {
			return err
		}

		next, err := models.ParseStatus(status, models.ProjectStatuses)
		if err != nil {
			return err
		}
		before := project.Status
		if before == next {
			return nil
		}

		project.Status = next
		project.UpdatedAt = database.Now()
		_, err = database.Exec(ctx, tx, database.Builder().Update(table).
			Set("status", string(next)).
			Set("updated_at", project.UpdatedAt).
			Where(entsql.EQ("id", id)))
		if err != nil {
			return fmt.Errorf("failed to update project status: %w", err)
		}

		_, err = s.activity.Record(ctx, tx, activity.Entry{
			Action:     models.ActionStatus,
			EntityType: models.EntityProject,
			EntityID:   &project.ID,
			Summary:    "Project status changed: " + project.Name,
			Changes:    activity.StatusChange(before, next),
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return project, nil
}

func scan(row database.Scanner) (*models.Project, error) {
	var (
		p         models.Project
		status    string
		companyID sql.NullInt64
		contactID sql.NullInt64
		startDate sql.NullTime
		endDate   sql.NullTime
		budget    sql.NullFloat64
		notes     sql.NullString
	)
	err := row.Scan(&p.ID, &p.Name, &status, &companyID, &contactID, &startDate, &endDate,
		&budget, &notes, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Status = models.ProjectStatus(status)
	p.CompanyID = database.Int64Ptr(companyID)
	p.ContactID = database.Int64Ptr(contactID)
	p.StartDate = database.TimePtr(startDate)
	p.EndDate = database.TimePtr(endDate)
	p.Budget = database.Float64Ptr(budget)
	p.Notes = database.StringPtr(notes)
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return &p, nil
}
