package contacts

import (
	"context"
	"database/sql"
	"testing"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/jordanlanch/freelancecrm/pkg/activity"
	"github.com/jordanlanch/freelancecrm/pkg/database"
	"github.com/jordanlanch/freelancecrm/pkg/database/dbtest"
	"github.com/jordanlanch/freelancecrm/pkg/models"
	"github.com/jordanlanch/freelancecrm/pkg/parse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupService(t *testing.T) (*database.Client, *Service, *activity.Service) {
	db := dbtest.Open(t)
	act := activity.NewService(db)
	return db, NewService(db, act), act
}

func createCompany(t *testing.T, db *database.Client, name string) int64 {
	id, err := database.Insert(context.Background(), db.DB(), database.Builder().Insert("companies").
		Columns("name", "created_at", "updated_at").
		Values(name, database.Now(), database.Now()))
	require.NoError(t, err)
	return id
}

func TestService_Create(t *testing.T) {
	db, svc, act := setupService(t)
	ctx := context.Background()
	companyID := createCompany(t, db, "Acme")

	contact, err := svc.Create(ctx, Request{
		FirstName: " Ada ",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		CompanyID: parse.OptionalInt{Value: companyID, Valid: true},
	})
	require.NoError(t, err)
	assert.Equal(t, "Ada", contact.FirstName)
	require.NotNil(t, contact.CompanyID)
	assert.Equal(t, companyID, *contact.CompanyID)
	assert.Nil(t, contact.Phone)

	entries, err := act.ForEntity(ctx, models.EntityContact, contact.ID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Created contact: Ada Lovelace", entries[0].Summary)
	assert.Equal(t, models.ActionCreate, entries[0].Action)
}

func TestService_CreateValidation(t *testing.T) {
	_, svc, act := setupService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  Request
	}{
		{"no name", Request{Email: "x@example.com"}},
		{"blank names", Request{FirstName: "  ", LastName: " "}},
		{"unknown company", Request{FirstName: "Ada", CompanyID: parse.OptionalInt{Value: 77, Valid: true}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.req)
			assert.ErrorIs(t, err, models.ErrValidation)
		})
	}

	recent, err := act.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, recent)
}

func TestService_CreateAllowsDuplicateEmail(t *testing.T) {
	_, svc, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, Request{FirstName: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, Request{FirstName: "Augusta", Email: "ada@example.com"})
	require.NoError(t, err)

	all, err := svc.List(ctx, "ada@")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestService_Update(t *testing.T) {
	_, svc, act := setupService(t)
	ctx := context.Background()

	contact, err := svc.Create(ctx, Request{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Role: "Analyst"})
	require.NoError(t, err)

	t.Run("no-op update records nothing", func(t *testing.T) {
		updated, err := svc.Update(ctx, contact.ID, Request{
			FirstName: "Ada", LastName: "Lovelace ", Email: "ada@example.com", Role: "Analyst",
		})
		require.NoError(t, err)
		assert.True(t, contact.UpdatedAt.Equal(updated.UpdatedAt), "updated_at is untouched")

		entries, err := act.ForEntity(ctx, models.EntityContact, contact.ID, 10)
		require.NoError(t, err)
		assert.Len(t, entries, 1, "only the CREATE entry")
	})

	t.Run("changed fields are diffed", func(t *testing.T) {
		updated, err := svc.Update(ctx, contact.ID, Request{
			FirstName: "Augusta", LastName: "Lovelace", Phone: "+44 20 7946 0018", Role: "Analyst",
		})
		require.NoError(t, err)
		assert.Equal(t, "Augusta", updated.FirstName)
		assert.Nil(t, updated.Email)

		entries, err := act.ForEntity(ctx, models.EntityContact, contact.ID, 10)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		latest := entries[0]
		assert.Equal(t, models.ActionUpdate, latest.Action)
		assert.Equal(t, "Updated contact: Augusta Lovelace", latest.Summary)
		assert.Equal(t, map[string]any{"from": "Ada", "to": "Augusta"}, latest.Changes["first_name"])
		assert.Equal(t, map[string]any{"from": "ada@example.com", "to": nil}, latest.Changes["email"])
		assert.Equal(t, map[string]any{"from": nil, "to": "+44 20 7946 0018"}, latest.Changes["phone"])
		assert.NotContains(t, latest.Changes, "role")
		assert.NotContains(t, latest.Changes, "last_name")
	})

	t.Run("flags are saved and diffed", func(t *testing.T) {
		_, err := svc.Update(ctx, contact.ID, Request{
			FirstName: "Augusta", LastName: "Lovelace", Phone: "+44 20 7946 0018", Role: "Analyst",
			IsLead: true, IsMagazine: true,
		})
		require.NoError(t, err)

		loaded, err := svc.Get(ctx, contact.ID)
		require.NoError(t, err)
		assert.True(t, loaded.IsLead)
		assert.True(t, loaded.IsMagazine)
		assert.False(t, loaded.IsProspect)
		assert.False(t, loaded.IsNewspaper)

		entries, err := act.ForEntity(ctx, models.EntityContact, contact.ID, 10)
		require.NoError(t, err)
		require.Len(t, entries, 3)
		latest := entries[0]
		assert.Len(t, latest.Changes, 2)
		assert.Equal(t, map[string]any{"from": false, "to": true}, latest.Changes["is_lead"])
		assert.Equal(t, map[string]any{"from": false, "to": true}, latest.Changes["is_magazine"])
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := svc.Update(ctx, 9999, Request{FirstName: "Nobody"})
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestService_DeleteNullifiesReferences(t *testing.T) {
	db, svc, act := setupService(t)
	ctx := context.Background()
	b := database.Builder()

	contact, err := svc.Create(ctx, Request{FirstName: "Grace", LastName: "Hopper"})
	require.NoError(t, err)

	now := database.Now()
	projectID, err := database.Insert(ctx, db.DB(), b.Insert("projects").
		Columns("name", "status", "contact_id", "created_at", "updated_at").
		Values("Compiler", "ACTIVE", contact.ID, now, now))
	require.NoError(t, err)
	leadID, err := database.Insert(ctx, db.DB(), b.Insert("leads").
		Columns("title", "status", "contact_id", "created_at", "updated_at").
		Values("Navy contract", "NEW", contact.ID, now, now))
	require.NoError(t, err)
	assetID, err := database.Insert(ctx, db.DB(), b.Insert("assets").
		Columns("filename", "stored_path", "contact_id", "created_at").
		Values("bug.png", "abc_bug.png", contact.ID, now))
	require.NoError(t, err)
	eventID, err := database.Insert(ctx, db.DB(), b.Insert("events").
		Columns("title", "starts_at", "contact_id", "created_at", "updated_at").
		Values("Keynote", now, contact.ID, now, now))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, contact.ID))

	_, err = svc.Get(ctx, contact.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	for table, id := range map[string]int64{"projects": projectID, "leads": leadID, "assets": assetID, "events": eventID} {
		query, args := b.Select("contact_id").From(b.Table(table)).Where(entsql.EQ("id", id)).Query()
		var contactID sql.NullInt64
		require.NoError(t, db.DB().QueryRowContext(ctx, query, args...).Scan(&contactID), table)
		assert.False(t, contactID.Valid, "%s keeps existing with contact_id cleared", table)
	}

	entries, err := act.ForEntity(ctx, models.EntityContact, contact.ID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, models.ActionDelete, entries[0].Action)
	assert.Equal(t, "Deleted contact: Grace Hopper", entries[0].Summary)

	assert.ErrorIs(t, svc.Delete(ctx, contact.ID), models.ErrNotFound)
}

func TestService_List(t *testing.T) {
	db, svc, _ := setupService(t)
	ctx := context.Background()
	companyID := createCompany(t, db, "Acme")

	for _, req := range []Request{
		{FirstName: "Ada", LastName: "Lovelace", Email: "ada@analytical.example"},
		{FirstName: "Charles", LastName: "Babbage", CompanyID: parse.OptionalInt{Value: companyID, Valid: true}},
		{FirstName: "Grace", LastName: "Hopper", Email: "grace@navy.example"},
	} {
		_, err := svc.Create(ctx, req)
		require.NoError(t, err)
	}

	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Babbage", all[0].LastName)
	assert.Equal(t, "Lovelace", all[2].LastName)

	byEmail, err := svc.List(ctx, "NAVY")
	require.NoError(t, err)
	require.Len(t, byEmail, 1)
	assert.Equal(t, "Grace", byEmail[0].FirstName)

	byCompany, err := svc.ListByCompany(ctx, companyID)
	require.NoError(t, err)
	require.Len(t, byCompany, 1)
	assert.Equal(t, "Charles", byCompany[0].FirstName)

	exists, err := ExistsByEmail(ctx, db.DB(), "ada@analytical.example")
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = ExistsByEmail(ctx, db.DB(), "ADA@analytical.example")
	require.NoError(t, err)
	assert.False(t, exists, "email dedup is exact")
}
