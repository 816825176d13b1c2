// Package dashboard assembles read-only views that span several entities:
// the home summary and the contact and project detail pages.
package dashboard

import (
	"context"
	"errors"
	"fmt"

	"github.com/jordanlanch/freelancecrm/pkg/activity"
	"github.com/jordanlanch/freelancecrm/pkg/assets"
	"github.com/jordanlanch/freelancecrm/pkg/companies"
	"github.com/jordanlanch/freelancecrm/pkg/contacts"
	"github.com/jordanlanch/freelancecrm/pkg/database"
	"github.com/jordanlanch/freelancecrm/pkg/events"
	"github.com/jordanlanch/freelancecrm/pkg/leads"
	"github.com/jordanlanch/freelancecrm/pkg/models"
	"github.com/jordanlanch/freelancecrm/pkg/phone"
	"github.com/jordanlanch/freelancecrm/pkg/projects"
	"github.com/jordanlanch/freelancecrm/pkg/tasks"
)

const (
	RecentLimit          = 20
	ContactActivityLimit = 50
	ProjectActivityLimit = 100
)

// Counts holds the number of rows per entity.
type Counts struct {
	Contacts  int `json:"contacts"`
	Companies int `json:"companies"`
	Leads     int `json:"leads"`
	Ideas     int `json:"ideas"`
	Projects  int `json:"projects"`
	Assets    int `json:"assets"`
	OpenTasks int `json:"open_tasks"`
}

// Summary is the home page.
type Summary struct {
	Counts Counts             `json:"counts"`
	Recent []*models.Activity `json:"recent_activity"`
}

// ContactDetail is a contact with everything that references it.
type ContactDetail struct {
	Contact    *models.Contact    `json:"contact"`
	Company    *models.Company    `json:"company"`
	Phone      *phone.Info        `json:"phone,omitempty"`
	Leads      []*models.Lead     `json:"leads"`
	Projects   []*models.Project  `json:"projects"`
	Assets     []*models.Asset    `json:"assets"`
	Events     []*models.Event    `json:"events"`
	Activities []*models.Activity `json:"activities"`
}

// ProjectDetail is a project with its tasks and attachments.
type ProjectDetail struct {
	Project    *models.Project    `json:"project"`
	Company    *models.Company    `json:"company"`
	Contact    *models.Contact    `json:"contact"`
	Tasks      []*models.Task     `json:"tasks"`
	Assets     []*models.Asset    `json:"assets"`
	Events     []*models.Event    `json:"events"`
	Activities []*models.Activity `json:"activities"`
}

// Services groups the readers the dashboard draws from.
type Services struct {
	Activity  *activity.Service
	Companies *companies.Service
	Contacts  *contacts.Service
	Leads     *leads.Service
	Projects  *projects.Service
	Tasks     *tasks.Service
	Events    *events.Service
	Assets    *assets.Pipeline
}

// Service builds dashboard views
type Service struct {
	db     *database.Client
	svc    Services
	region string
}

// NewService creates a new dashboard service. region is the phone region
// hint used to describe contact numbers.
func NewService(db *database.Client, svc Services, region string) *Service {
	return &Service{db: db, svc: svc, region: region}
}

// Summary returns entity counts and the most recent activity.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	q := s.db.DB()
	var counts Counts
	for _, c := range []struct {
		table string
		dst   *int
	}{
		{"contacts", &counts.Contacts},
		{"companies", &counts.Companies},
		{"leads", &counts.Leads},
		{"ideas", &counts.Ideas},
		{"projects", &counts.Projects},
		{"assets", &counts.Assets},
	} {
		n, err := count(ctx, q, c.table)
		if err != nil {
			return nil, err
		}
		*c.dst = n
	}

	open, err := tasks.CountOpen(ctx, q)
	if err != nil {
		return nil, err
	}
	counts.OpenTasks = open

	recent, err := s.svc.Activity.Recent(ctx, RecentLimit)
	if err != nil {
		return nil, err
	}
	return &Summary{Counts: counts, Recent: recent}, nil
}

// ContactDetail returns a contact with its company, leads, projects, assets,
// events and last activity entries.
func (s *Service) ContactDetail(ctx context.Context, id int64) (*ContactDetail, error) {
	contact, err := s.svc.Contacts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	d := &ContactDetail{Contact: contact}

	if contact.CompanyID != nil {
		if d.Company, err = optional(s.svc.Companies.Get(ctx, *contact.CompanyID)); err != nil {
			return nil, err
		}
	}
	if contact.Phone != nil {
		// Free-text numbers that do not parse are left undescribed.
		if info, err := phone.Describe(*contact.Phone, s.region); err == nil {
			d.Phone = info
		}
	}

	if d.Leads, err = s.svc.Leads.List(ctx, leads.Filter{ContactID: &id}); err != nil {
		return nil, err
	}
	if d.Projects, err = s.svc.Projects.List(ctx, projects.Filter{ContactID: &id}); err != nil {
		return nil, err
	}
	if d.Assets, err = s.svc.Assets.List(ctx, assets.Filter{ContactID: &id}); err != nil {
		return nil, err
	}
	if d.Events, err = s.svc.Events.List(ctx, events.Filter{ContactID: &id}); err != nil {
		return nil, err
	}
	if d.Activities, err = s.svc.Activity.ForEntity(ctx, models.EntityContact, id, ContactActivityLimit); err != nil {
		return nil, err
	}
	return d, nil
}

// ProjectDetail returns a project with its company, contact, tasks ordered by
// due date, assets, events and last activity entries.
func (s *Service) ProjectDetail(ctx context.Context, id int64) (*ProjectDetail, error) {
	project, err := s.svc.Projects.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	d := &ProjectDetail{Project: project}

	if project.CompanyID != nil {
		if d.Company, err = optional(s.svc.Companies.Get(ctx, *project.CompanyID)); err != nil {
			return nil, err
		}
	}
	if project.ContactID != nil {
		if d.Contact, err = optional(s.svc.Contacts.Get(ctx, *project.ContactID)); err != nil {
			return nil, err
		}
	}

	if d.Tasks, err = s.svc.Tasks.ListByProject(ctx, id); err != nil {
		return nil, err
	}

	if d.Assets, err = s.svc.Assets.List(ctx, assets.Filter{ProjectID: &id}); err != nil {
		return nil, err
	}
	if d.Events, err = s.svc.Events.List(ctx, events.Filter{ProjectID: &id}); err != nil {
		return nil, err
	}
	if d.Activities, err = s.svc.Activity.ForEntity(ctx, models.EntityProject, id, ProjectActivityLimit); err != nil {
		return nil, err
	}
	return d, nil
}

func count(ctx context.Context, q database.Querier, table string) (int, error) {
	b := database.Builder()
	n, err := database.Count(ctx, q, b.Select().Count().From(b.Table(table)))
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}

// optional turns a missing related row into nil.
func optional[T any](v *T, err error) (*T, error) {
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil
	}
	return v, err
}
