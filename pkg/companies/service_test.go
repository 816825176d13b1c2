package companies

import (
	"context"
	"testing"

	"github.com/jordanlanch/freelancecrm/pkg/activity"
	"github.com/jordanlanch/freelancecrm/pkg/database/dbtest"
	"github.com/jordanlanch/freelancecrm/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupService(t *testing.T) (*Service, *activity.Service) {
	db := dbtest.Open(t)
	act := activity.NewService(db)
	return NewService(db, act), act
}

func TestService_Create(t *testing.T) {
	svc, act := setupService(t)
	ctx := context.Background()

	company, err := svc.Create(ctx, CreateRequest{Name: "  Acme Studio ", Website: "https://acme.test", IsProspect: true})
	require.NoError(t, err)
	assert.Equal(t, "Acme Studio", company.Name)
	require.NotNil(t, company.Website)
	assert.Nil(t, company.Notes)

	loaded, err := svc.Get(ctx, company.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://acme.test", *loaded.Website)
	assert.True(t, loaded.IsProspect)
	assert.False(t, loaded.IsMagazine)

	entries, err := act.ForEntity(ctx, models.EntityCompany, company.ID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Created company: Acme Studio", entries[0].Summary)
}

func TestService_CreateRequiresName(t *testing.T) {
	svc, act := setupService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateRequest{Name: "   "})
	assert.ErrorIs(t, err, models.ErrValidation)

	recent, err := act.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, recent)
}

func TestService_GetNotFound(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.Get(context.Background(), 404)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestService_List(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateRequest{Name: "Zeta Print", Notes: "Offset printing partner"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateRequest{Name: "Alpha Media", Website: "https://alpha.example"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateRequest{Name: "Beta Labs"})
	require.NoError(t, err)

	tests := []struct {
		name string
		q    string
		want []string
	}{
		{"all ordered by name", "", []string{"Alpha Media", "Beta Labs", "Zeta Print"}},
		{"name match ignores case", "beta", []string{"Beta Labs"}},
		{"website match", "ALPHA.EXAMPLE", []string{"Alpha Media"}},
		{"notes match", "printing", []string{"Zeta Print"}},
		{"no match", "gamma", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.List(ctx, tt.q)
			require.NoError(t, err)
			names := []string{}
			for _, c := range got {
				names = append(names, c.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestFindOrCreateByName(t *testing.T) {
	db := dbtest.Open(t)
	act := activity.NewService(db)
	svc := NewService(db, act)
	ctx := context.Background()

	existing, err := svc.Create(ctx, CreateRequest{Name: "Acme"})
	require.NoError(t, err)

	id, created, err := FindOrCreateByName(ctx, db.DB(), "ACME")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, existing.ID, id)

	id, created, err = FindOrCreateByName(ctx, db.DB(), " Globex ")
	require.NoError(t, err)
	assert.True(t, created)

	globex, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Globex", globex.Name)

	entries, err := act.ForEntity(ctx, models.EntityCompany, id, 10)
	require.NoError(t, err)
	assert.Empty(t, entries, "auto-created companies are not logged")

	_, _, err = FindOrCreateByName(ctx, db.DB(), "  ")
	assert.ErrorIs(t, err, models.ErrValidation)
}
