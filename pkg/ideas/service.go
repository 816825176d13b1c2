package ideas

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/jordanlanch/freelancecrm/pkg/activity"
	"github.com/jordanlanch/freelancecrm/pkg/database"
	"github.com/jordanlanch/freelancecrm/pkg/models"
	"github.com/jordanlanch/freelancecrm/pkg/search"
)

const table = "ideas"

var columns = []string{"id", "title", "status", "tags", "notes", "created_at", "updated_at"}

// Service handles idea business logic
type Service struct {
	db       *database.Client
	activity *activity.Service
}

// NewService creates a new idea service
func NewService(db *database.Client, activity *activity.Service) *Service {
	return &Service{
		db:       db,
		activity: activity,
	}
}

// CreateRequest represents a request to create an idea
type CreateRequest struct {
	Title  string `json:"title" form:"title" validate:"required,max=200"`
	Status string `json:"status" form:"status"`
	Tags   string `json:"tags" form:"tags" validate:"max=500"`
	Notes  string `json:"notes" form:"notes"`
}

// Create creates an idea. An unknown status falls back to BACKLOG.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.Idea, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := models.Validate(req); err != nil {
		return nil, err
	}

	now := database.Now()
	idea := &models.Idea{
		Title:     req.Title,
		Status:    models.NormalizeStatus(req.Status, models.IdeaStatuses, models.IdeaStatusBacklog),
		Tags:      models.StrPtr(strings.TrimSpace(req.Tags)),
		Notes:     models.StrPtr(strings.TrimSpace(req.Notes)),
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		id, err := database.Insert(ctx, tx, database.Builder().Insert(table).
			Columns(columns[1:]...).
			Values(idea.Title, string(idea.Status), database.Value(idea.Tags), database.Value(idea.Notes),
				idea.CreatedAt, idea.UpdatedAt))
		if err != nil {
			return fmt.Errorf("failed to create idea: %w", err)
		}
		idea.ID = id

		_, err = s.activity.Record(ctx, tx, activity.Entry{
			Action:     models.ActionCreate,
			EntityType: models.EntityIdea,
			EntityID:   &idea.ID,
			Summary:    "Created idea: " + idea.Title,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return idea, nil
}

// List returns ideas, most recently updated first. A non-blank q keeps ideas
// whose title, tags or notes contain it.
func (s *Service) List(ctx context.Context, q string) ([]*models.Idea, error) {
	b := database.Builder()
	sel := b.Select(columns...).From(b.Table(table)).OrderBy(entsql.Desc("updated_at"), entsql.Desc("id"))
	if p := search.Match(q, "title", "tags", "notes"); p != nil {
		sel.Where(p)
	}

	query, args := sel.Query()
	rows, err := s.db.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list ideas: %w", err)
	}
	defer rows.Close()

	ideas := []*models.Idea{}
	for rows.Next() {
		var (
			i      models.Idea
			status string
			tags   sql.NullString
			notes  sql.NullString
		)
		if err := rows.Scan(&i.ID, &i.Title, &status, &tags, &notes, &i.CreatedAt, &i.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan idea: %w", err)
		}
		i.Status = models.IdeaStatus(status)
		i.Tags = database.StringPtr(tags)
		i.Notes = database.StringPtr(notes)
		i.CreatedAt = i.CreatedAt.UTC()
		i.UpdatedAt = i.UpdatedAt.UTC()
		ideas = append(ideas, &i)
	}
	return ideas, rows.Err()
}
