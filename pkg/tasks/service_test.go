package tasks

import (
	"context"
	"testing"
	"time"

	"github.com/jordanlanch/freelancecrm/pkg/activity"
	"github.com/jordanlanch/freelancecrm/pkg/database/dbtest"
	"github.com/jordanlanch/freelancecrm/pkg/models"
	"github.com/jordanlanch/freelancecrm/pkg/parse"
	"github.com/jordanlanch/freelancecrm/pkg/projects"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*Service, *activity.Service, int64) {
	db := dbtest.Open(t)
	act := activity.NewService(db)
	project, err := projects.NewService(db, act).Create(context.Background(), projects.CreateRequest{Name: "Launch"})
	require.NoError(t, err)
	return NewService(db, act), act, project.ID
}

func day(s string) parse.OptionalTime {
	v, ok := parse.Time(s)
	return parse.OptionalTime{Value: v, Valid: ok}
}

func TestService_Create(t *testing.T) {
	svc, act, projectID := setup(t)
	ctx := context.Background()

	task, err := svc.Create(ctx, projectID, CreateRequest{Title: "Draft copy", Status: "WAITING", DueDate: day("2025-05-02")})
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusTodo, task.Status)
	assert.Equal(t, projectID, task.ProjectID)

	entries, err := act.ForEntity(ctx, models.EntityTask, task.ID, 5)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Created task: Draft copy", entries[0].Summary)
	assert.EqualValues(t, projectID, entries[0].Changes["project_id"])

	t.Run("unknown project", func(t *testing.T) {
		_, err := svc.Create(ctx, 9999, CreateRequest{Title: "Lost"})
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("missing title", func(t *testing.T) {
		_, err := svc.Create(ctx, projectID, CreateRequest{})
		assert.ErrorIs(t, err, models.ErrValidation)
	})
}

func TestService_SetStatus(t *testing.T) {
	svc, act, projectID := setup(t)
	ctx := context.Background()

	task, err := svc.Create(ctx, projectID, CreateRequest{Title: "Review"})
	require.NoError(t, err)

	updated, err := svc.SetStatus(ctx, task.ID, "DOING")
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusDoing, updated.Status)

	_, err = svc.SetStatus(ctx, task.ID, "DOING")
	require.NoError(t, err)

	_, err = svc.SetStatus(ctx, task.ID, "FINISHED")
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = svc.SetStatus(ctx, 5000, "DONE")
	assert.ErrorIs(t, err, models.ErrNotFound)

	entries, err := act.ForEntity(ctx, models.EntityTask, task.ID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Task status changed: Review", entries[0].Summary)
}

func TestService_ListByProject(t *testing.T) {
	svc, _, projectID := setup(t)
	ctx := context.Background()

	for _, req := range []CreateRequest{
		{Title: "No date"},
		{Title: "Later", DueDate: day("2025-06-10")},
		{Title: "Sooner", DueDate: day("2025-06-01")},
	} {
		_, err := svc.Create(ctx, projectID, req)
		require.NoError(t, err)
	}

	list, err := svc.ListByProject(ctx, projectID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "Sooner", list[0].Title)
	assert.Equal(t, "Later", list[1].Title)
	assert.Equal(t, "No date", list[2].Title)
}

func TestService_OpenWithDueDate(t *testing.T) {
	svc, _, projectID := setup(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, projectID, CreateRequest{Title: "Undated"})
	require.NoError(t, err)
	open, err := svc.Create(ctx, projectID, CreateRequest{Title: "Open", DueDate: day("2025-01-10")})
	require.NoError(t, err)
	_, err = svc.Create(ctx, projectID, CreateRequest{Title: "Done", Status: "DONE", DueDate: day("2025-01-11")})
	require.NoError(t, err)

	list, err := svc.OpenWithDueDate(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, open.ID, list[0].ID)
	assert.True(t, list[0].DueDate.Equal(time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)))
}

func TestSortByDueDate(t *testing.T) {
	at := func(d int) *time.Time {
		v := time.Date(2025, 1, d, 0, 0, 0, 0, time.UTC)
		return &v
	}
	list := []*models.Task{
		{ID: 1},
		{ID: 2, DueDate: at(3)},
		{ID: 3},
		{ID: 4, DueDate: at(1)},
	}
	SortByDueDate(list)

	var ids []int64
	for _, task := range list {
		ids = append(ids, task.ID)
	}
	assert.Equal(t, []int64{4, 2, 1, 3}, ids)
}
