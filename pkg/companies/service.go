package companies

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
	"github.com/jordanlanch/freelancecrm/pkg/search"
)

const table = "companies"

var columns = []string{
	"id", "name", "website", "notes",
	"is_lead", "is_prospect", "is_magazine", "is_newspaper",
	"created_at", "updated_at",
}

// Service handles company business logic
type Service struct {
	db       *database.Client
	activity *activity.Service
}

// NewService creates a new company service
func NewService(db *database.Client, activity *activity.Service) *Service {
	return &Service{
		db:       db,
		activity: activity,
	}
}

// CreateRequest represents a request to create a company
type CreateRequest struct {
	Name        string `json:"name" form:"name" validate:"required,max=200"`
	Website     string `json:"website" form:"website" validate:"max=500"`
	Notes       string `json:"notes" form:"notes"`
	IsLead      bool   `json:"is_lead" form:"is_lead"`
	IsProspect  bool   `json:"is_prospect" form:"is_prospect"`
	IsMagazine  bool   `json:"is_magazine" form:"is_magazine"`
	IsNewspaper bool   `json:"is_newspaper" form:"is_newspaper"`
}

// Create creates a company and records a CREATE activity.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.Company, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Website = strings.TrimSpace(req.Website)
	req.Notes = strings.TrimSpace(req.Notes)
	if err := models.Validate(req); err != nil {
		return nil, err
	}

	now := database.Now()
	company := &models.Company{
		Name:        req.Name,
		Website:     models.StrPtr(req.Website),
		Notes:       models.StrPtr(req.Notes),
		IsLead:      req.IsLead,
		IsProspect:  req.IsProspect,
		IsMagazine:  req.IsMagazine,
		IsNewspaper: req.IsNewspaper,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		id, err := insert(ctx, tx, company)
		if err != nil {
			return err
		}
		company.ID = id

		_, err = s.activity.Record(ctx, tx, activity.Entry{
			Action:     models.ActionCreate,
			EntityType: models.EntityCompany,
			EntityID:   &company.ID,
			Summary:    "Created company: " + company.Name,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return company, nil
}

// Get returns a company by id.
func (s *Service) Get(ctx context.Context, id int64) (*models.Company, error) {
	return Get(ctx, s.db.DB(), id)
}

// Get loads a company using q.
func Get(ctx context.Context, q database.Querier, id int64) (*models.Company, error) {
	b := database.Builder()
	query, args := b.Select(columns...).From(b.Table(table)).Where(entsql.EQ("id", id)).Query()

	company, err := scan(q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NewNotFoundError(models.EntityCompany, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	return company, nil
}

// List returns companies ordered by name. A non-blank q keeps companies whose
// name, website or notes contain it, ignoring case.
func (s *Service) List(ctx context.Context, q string) ([]*models.Company, error) {
	b := database.Builder()
	sel := b.Select(columns...).From(b.Table(table)).OrderBy("name", "id")
	if p := search.Match(q, "name", "website", "notes"); p != nil {
		sel.Where(p)
	}

	query, args := sel.Query()
	rows, err := s.db.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	defer rows.Close()

	companies := []*models.Company{}
	for rows.Next() {
		company, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan company: %w", err)
		}
		companies = append(companies, company)
	}
	return companies, rows.Err()
}

// FindOrCreateByName returns the id of the company whose name equals name
// ignoring case, creating one when none exists. Auto-created companies get
// no activity entry. created reports whether a row was inserted.
func FindOrCreateByName(ctx context.Context, q database.Querier, name string) (id int64, created bool, err error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, false, models.NewValidationError("company", "name is required")
	}

	b := database.Builder()
	query, args := b.Select("id").From(b.Table(table)).
		Where(entsql.EqualFold("name", name)).
		OrderBy("id").
		Limit(1).
		Query()
	err = q.QueryRowContext(ctx, query, args...).Scan(&id)
	if err == nil {
		return id, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, false, fmt.Errorf("failed to look up company %q: %w", name, err)
	}

	now := database.Now()
	id, err = insert(ctx, q, &models.Company{Name: name, CreatedAt: now, UpdatedAt: now})
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

func insert(ctx context.Context, q database.Querier, c *models.Company) (int64, error) {
	id, err := database.Insert(ctx, q, database.Builder().Insert(table).
		Columns(columns[1:]...).
		Values(c.Name, database.Value(c.Website), database.Value(c.Notes),
			c.IsLead, c.IsProspect, c.IsMagazine, c.IsNewspaper,
			c.CreatedAt, c.UpdatedAt))
	if err != nil {
		return 0, fmt.Errorf("failed to create company: %w", err)
	}
	return id, nil
}

func scan(row database.Scanner) (*models.Company, error) {
	var (
		c       models.Company
		website sql.NullString
		notes   sql.NullString
	)
	err := row.Scan(&c.ID, &c.Name, &website, &notes,
		&c.IsLead, &c.IsProspect, &c.IsMagazine, &c.IsNewspaper,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.Website = database.StringPtr(website)
	c.Notes = database.StringPtr(notes)
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	return &c, nil
}
