package dashboard

import (
	"context"
	"testing"

	"github.com/jordanlanch/freelancecrm/pkg/activity"
	"github.com/jordanlanch/freelancecrm/pkg/assets"
	"github.com/jordanlanch/freelancecrm/pkg/companies"
	"github.com/jordanlanch/freelancecrm/pkg/contacts"
	"github.com/jordanlanch/freelancecrm/pkg/database/dbtest"
	"github.com/jordanlanch/freelancecrm/pkg/events"
	"github.com/jordanlanch/freelancecrm/pkg/ideas"
	"github.com/jordanlanch/freelancecrm/pkg/leads"
	"github.com/jordanlanch/freelancecrm/pkg/logger"
	"github.com/jordanlanch/freelancecrm/pkg/models"
	"github.com/jordanlanch/freelancecrm/pkg/parse"
	"github.com/jordanlanch/freelancecrm/pkg/projects"
	"github.com/jordanlanch/freelancecrm/pkg/tasks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc   Services
	ideas *ideas.Service
	dash  *Service
}

func setup(t *testing.T) fixture {
	db := dbtest.Open(t)
	act := activity.NewService(db)
	storage, err := assets.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	taskSvc := tasks.NewService(db, act)
	svc := Services{
		Activity:  act,
		Companies: companies.NewService(db, act),
		Contacts:  contacts.NewService(db, act),
		Leads:     leads.NewService(db, act),
		Projects:  projects.NewService(db, act),
		Tasks:     taskSvc,
		Events:    events.NewService(db, act, taskSvc),
		Assets:    assets.NewPipeline(db, act, storage, nil, logger.Nop(), 0),
	}
	return fixture{
		svc:   svc,
		ideas: ideas.NewService(db, act),
		dash:  NewService(db, svc, "US"),
	}
}

func id(v int64) parse.OptionalInt { return parse.OptionalInt{Value: v, Valid: true} }

func TestService_SummaryEmpty(t *testing.T) {
	f := setup(t)
	summary, err := f.dash.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Counts{}, summary.Counts)
	assert.Empty(t, summary.Recent)
}

func TestService_Summary(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.Companies.Create(ctx, companies.CreateRequest{Name: "Acme"})
	require.NoError(t, err)
	_, err = f.svc.Contacts.Create(ctx, contacts.Request{FirstName: "Ada"})
	require.NoError(t, err)
	_, err = f.svc.Leads.Create(ctx, leads.CreateRequest{Title: "Website"})
	require.NoError(t, err)
	_, err = f.ideas.Create(ctx, ideas.CreateRequest{Title: "Newsletter"})
	require.NoError(t, err)
	project, err := f.svc.Projects.Create(ctx, projects.CreateRequest{Name: "Rebrand"})
	require.NoError(t, err)
	_, err = f.svc.Tasks.Create(ctx, project.ID, tasks.CreateRequest{Title: "Sketch"})
	require.NoError(t, err)
	done, err := f.svc.Tasks.Create(ctx, project.ID, tasks.CreateRequest{Title: "Kickoff"})
	require.NoError(t, err)
	_, err = f.svc.Tasks.SetStatus(ctx, done.ID, string(models.TaskStatusDone))
	require.NoError(t, err)
	_, err = f.svc.Assets.Upload(ctx, assets.Upload{Filename: "brief.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.4")}, assets.Metadata{})
	require.NoError(t, err)

	summary, err := f.dash.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, Counts{
		Contacts:  1,
		Companies: 1,
		Leads:     1,
		Ideas:     1,
		Projects:  1,
		Assets:    1,
		OpenTasks: 1,
	}, summary.Counts)

	require.Len(t, summary.Recent, 9)
	assert.Equal(t, models.ActionUpload, summary.Recent[0].Action)
	assert.Equal(t, "Uploaded asset: brief.pdf", summary.Recent[0].Summary)
}

func TestService_SummaryRecentIsCapped(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	for i := 0; i < RecentLimit+5; i++ {
		_, err := f.ideas.Create(ctx, ideas.CreateRequest{Title: "Idea"})
		require.NoError(t, err)
	}

	summary, err := f.dash.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, RecentLimit+5, summary.Counts.Ideas)
	assert.Len(t, summary.Recent, RecentLimit)
}

func TestService_ContactDetail(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	acme, err := f.svc.Companies.Create(ctx, companies.CreateRequest{Name: "Acme"})
	require.NoError(t, err)
	ada, err := f.svc.Contacts.Create(ctx, contacts.Request{
		FirstName: "Ada",
		Phone:     "+44 7911 123456",
		CompanyID: id(acme.ID),
	})
	require.NoError(t, err)
	other, err := f.svc.Contacts.Create(ctx, contacts.Request{FirstName: "Grace"})
	require.NoError(t, err)

	_, err = f.svc.Leads.Create(ctx, leads.CreateRequest{Title: "Retainer", ContactID: id(ada.ID)})
	require.NoError(t, err)
	_, err = f.svc.Leads.Create(ctx, leads.CreateRequest{Title: "Other", ContactID: id(other.ID)})
	require.NoError(t, err)
	_, err = f.svc.Projects.Create(ctx, projects.CreateRequest{Name: "Site", ContactID: id(ada.ID)})
	require.NoError(t, err)
	_, err = f.svc.Events.Create(ctx, events.CreateRequest{Title: "Call", Start: "2025-03-01T10:00", ContactID: id(ada.ID)})
	require.NoError(t, err)
	_, err = f.svc.Assets.Upload(ctx, assets.Upload{Filename: "ada.png", ContentType: "image/png", Data: []byte("\x89PNG")}, assets.Metadata{ContactID: id(ada.ID)})
	require.NoError(t, err)

	d, err := f.dash.ContactDetail(ctx, ada.ID)
	require.NoError(t, err)
	assert.Equal(t, ada.ID, d.Contact.ID)
	require.NotNil(t, d.Company)
	assert.Equal(t, "Acme", d.Company.Name)
	require.NotNil(t, d.Phone)
	assert.Equal(t, "+447911123456", d.Phone.E164Format)

	require.Len(t, d.Leads, 1)
	assert.Equal(t, "Retainer", d.Leads[0].Title)
	assert.Len(t, d.Projects, 1)
	assert.Len(t, d.Events, 1)
	assert.Len(t, d.Assets, 1)

	require.Len(t, d.Activities, 1)
	assert.Equal(t, models.ActionCreate, d.Activities[0].Action)

	_, err = f.dash.ContactDetail(ctx, 999)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestService_ContactDetailWithoutPhone(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	c, err := f.svc.Contacts.Create(ctx, contacts.Request{LastName: "Hopper", Phone: "ask at desk"})
	require.NoError(t, err)

	d, err := f.dash.ContactDetail(ctx, c.ID)
	require.NoError(t, err)
	assert.Nil(t, d.Company)
	assert.Nil(t, d.Phone)
	assert.Empty(t, d.Leads)
	assert.Empty(t, d.Assets)
}

func TestService_ProjectDetail(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	ada, err := f.svc.Contacts.Create(ctx, contacts.Request{FirstName: "Ada"})
	require.NoError(t, err)
	project, err := f.svc.Projects.Create(ctx, projects.CreateRequest{Name: "Rebrand", ContactID: id(ada.ID)})
	require.NoError(t, err)

	due := func(s string) parse.OptionalTime {
		v, ok := parse.Time(s)
		require.True(t, ok)
		return parse.OptionalTime{Value: v, Valid: true}
	}
	for _, req := range []tasks.CreateRequest{
		{Title: "Undated"},
		{Title: "Later", DueDate: due("2025-06-01")},
		{Title: "Sooner", DueDate: due("2025-05-01")},
	} {
		_, err := f.svc.Tasks.Create(ctx, project.ID, req)
		require.NoError(t, err)
	}
	_, err = f.svc.Projects.SetStatus(ctx, project.ID, string(models.ProjectStatusOnHold))
	require.NoError(t, err)

	d, err := f.dash.ProjectDetail(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rebrand", d.Project.Name)
	assert.Nil(t, d.Company)
	require.NotNil(t, d.Contact)
	assert.Equal(t, "Ada", d.Contact.FirstName)

	titles := []string{}
	for _, task := range d.Tasks {
		titles = append(titles, task.Title)
	}
	assert.Equal(t, []string{"Sooner", "Later", "Undated"}, titles)

	require.Len(t, d.Activities, 2)
	assert.Equal(t, models.ActionStatus, d.Activities[0].Action)
	assert.Empty(t, d.Assets)
	assert.Empty(t, d.Events)

	_, err = f.dash.ProjectDetail(ctx, 404)
	assert.ErrorIs(t, err, models.ErrNotFound)
}
