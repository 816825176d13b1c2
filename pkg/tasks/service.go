package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/jordanlanch/freelancecrm/pkg/activity"
	"github.com/jordanlanch/freelancecrm/pkg/database"
	"github.com/jordanlanch/freelancecrm/pkg/models"
	"github.com/jordanlanch/freelancecrm/pkg/parse"
)

const table = "tasks"

var columns = []string{"id", "project_id", "title", "status", "due_date", "notes", "created_at", "updated_at"}

// Service handles task business logic
type Service struct {
	db       *database.Client
	activity *activity.Service
}

// NewService creates a new task service
func NewService(db *database.Client, activity *activity.Service) *Service {
	return &Service{
		db:       db,
		activity: activity,
	}
}

// CreateRequest represents a request to create a task in a project
type CreateRequest struct {
	Title   string             `json:"title" form:"title" validate:"required,max=200"`
	Status  string             `json:"status" form:"status"`
	DueDate parse.OptionalTime `json:"due_date" form:"due_date"`
	Notes   string             `json:"notes" form:"notes"`
}

// Create adds a task to a project. The project must exist. An unknown status
// falls back to TODO.
func (s *Service) Create(ctx context.Context, projectID int64, req CreateRequest) (*models.Task, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := models.Validate(req); err != nil {
		return nil, err
	}

	now := database.Now()
	task := &models.Task{
		ProjectID: projectID,
		Title:     req.Title,
		Status:    models.NormalizeStatus(req.Status, models.TaskStatuses, models.TaskStatusTodo),
		DueDate:   req.DueDate.Ptr(),
		Notes:     models.StrPtr(strings.TrimSpace(req.Notes)),
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		ok, err := database.Exists(ctx, tx, "projects", projectID)
		if err != nil {
			return err
		}
		if !ok {
			return models.NewNotFoundError(models.EntityProject, projectID)
		}

		id, err := database.Insert(ctx, tx, database.Builder().Insert(table).
			Columns(columns[1:]...).
			Values(task.ProjectID, task.Title, string(task.Status), database.Value(task.DueDate),
				database.Value(task.Notes), task.CreatedAt, task.UpdatedAt))
		if err != nil {
			return database.WriteError("create task", err)
		}
		task.ID = id

		_, err = s.activity.Record(ctx, tx, activity.Entry{
			Action:     models.ActionCreate,
			EntityType: models.EntityTask,
			EntityID:   &task.ID,
			Summary:    "Created task: " + task.Title,
			Changes:    models.Changes{"project_id": projectID},
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// SetStatus moves a task to status. Setting the current status records
// nothing.
func (s *Service) SetStatus(ctx context.Context, id int64, status string) (*models.Task, error) {
	var task *models.Task
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		task, err = get(ctx, tx, id)
		if err != nil {
			return err
		}

		next, err := models.ParseStatus(status, models.TaskStatuses)
		if err != nil {
			return err
		}
		before := task.Status
		if before == next {
			return nil
		}

		task.Status = next
		task.UpdatedAt = database.Now()
		_, err = database.Exec(ctx, tx, database.Builder().Update(table).
			Set("status", string(next)).
			Set("updated_at", task.UpdatedAt).
			Where(entsql.EQ("id", id)))
		if err != nil {
			return fmt.Errorf("failed to update task status: %w", err)
		}

		_, err = s.activity.Record(ctx, tx, activity.Entry{
			Action:     models.ActionStatus,
			EntityType: models.EntityTask,
			EntityID:   &task.ID,
			Summary:    "Task status changed: " + task.Title,
			Changes:    activity.StatusChange(before, next),
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// Get returns a task by id.
func (s *Service) Get(ctx context.Context, id int64) (*models.Task, error) {
	return get(ctx, s.db.DB(), id)
}

// ListByProject returns a project's tasks by due date, undated tasks last.
func (s *Service) ListByProject(ctx context.Context, projectID int64) ([]*models.Task, error) {
	b := database.Builder()
	tasks, err := s.query(ctx, b.Select(columns...).From(b.Table(table)).
		Where(entsql.EQ("project_id", projectID)).
		OrderBy("id"))
	if err != nil {
		return nil, err
	}
	SortByDueDate(tasks)
	return tasks, nil
}

// OpenWithDueDate returns tasks that are not DONE and have a due date.
func (s *Service) OpenWithDueDate(ctx context.Context) ([]*models.Task, error) {
	b := database.Builder()
	return s.query(ctx, b.Select(columns...).From(b.Table(table)).
		Where(entsql.And(
			entsql.NEQ("status", string(models.TaskStatusDone)),
			entsql.NotNull("due_date"),
		)).
		OrderBy("due_date", "id"))
}

// CountOpen returns the number of tasks that are not DONE.
func CountOpen(ctx context.Context, q database.Querier) (int, error) {
	b := database.Builder()
	return database.Count(ctx, q, b.Select().Count().From(b.Table(table)).
		Where(entsql.NEQ("status", string(models.TaskStatusDone))))
}

// SortByDueDate orders tasks by due date ascending with undated tasks last.
// Ties keep their existing order.
func SortByDueDate(tasks []*models.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i].DueDate, tasks[j].DueDate
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		}
		return a.Before(*b)
	})
}

func (s *Service) query(ctx context.Context, sel *entsql.Selector) ([]*models.Task, error) {
	query, args := sel.Query()
	rows, err := s.db.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []*models.Task{}
	for rows.Next() {
		task, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func get(ctx context.Context, q database.Querier, id int64) (*models.Task, error) {
	b := database.Builder()
	query, args := b.Select(columns...).From(b.Table(table)).Where(entsql.EQ("id", id)).Query()

	task, err := scan(q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NewNotFoundError(models.EntityTask, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

func scan(row database.Scanner) (*models.Task, error) {
	var (
		t       models.Task
		status  string
		dueDate sql.NullTime
		notes   sql.NullString
	)
	if err := row.Scan(&t.ID, &t.ProjectID, &t.Title, &status, &dueDate, &notes, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.Status = models.TaskStatus(status)
	t.DueDate = database.TimePtr(dueDate)
	t.Notes = database.StringPtr(notes)
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return &t, nil
}
