package contacts

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
	"github.com/jordanlanch/freelancecrm/pkg/search"
)

const table = "contacts"

var columns = []string{
	"id", "first_name", "last_name", "email", "phone", "role", "company_id", "notes",
	"is_lead", "is_prospect", "is_magazine", "is_newspaper",
	"created_at", "updated_at",
}

// referencing lists the tables whose contact_id is cleared when a contact is
// deleted, and whether they carry updated_at.
var referencing = []struct {
	table      string
	hasUpdated bool
}{
	{"leads", true},
	{"projects", true},
	{"assets", false},
	{"events", true},
}

// Service handles contact business logic
type Service struct {
	db       *database.Client
	activity *activity.Service
}

// NewService creates a new contact service
func NewService(db *database.Client, activity *activity.Service) *Service {
	return &Service{
		db:       db,
		activity: activity,
	}
}

// Request holds the editable fields of a contact. At least one of first and
// last name is required.
type Request struct {
	FirstName   string            `json:"first_name" form:"first_name" validate:"required_without=LastName,max=100"`
	LastName    string            `json:"last_name" form:"last_name" validate:"required_without=FirstName,max=100"`
	Email       string            `json:"email" form:"email" validate:"max=254"`
	Phone       string            `json:"phone" form:"phone" validate:"max=50"`
	Role        string            `json:"role" form:"role" validate:"max=100"`
	CompanyID   parse.OptionalInt `json:"company_id" form:"company_id"`
	Notes       string            `json:"notes" form:"notes"`
	IsLead      bool              `json:"is_lead" form:"is_lead"`
	IsProspect  bool              `json:"is_prospect" form:"is_prospect"`
	IsMagazine  bool              `json:"is_magazine" form:"is_magazine"`
	IsNewspaper bool              `json:"is_newspaper" form:"is_newspaper"`
}

func (r *Request) normalize() error {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Email = strings.TrimSpace(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Role = strings.TrimSpace(r.Role)
	r.Notes = strings.TrimSpace(r.Notes)
	return models.Validate(r)
}

// Create creates a contact and records a CREATE activity. Duplicate emails are
// not checked on this path.
func (s *Service) Create(ctx context.Context, req Request) (*models.Contact, error) {
	if err := req.normalize(); err != nil {
		return nil, err
	}

	now := database.Now()
	contact := &models.Contact{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       models.StrPtr(req.Email),
		Phone:       models.StrPtr(req.Phone),
		Role:        models.StrPtr(req.Role),
		CompanyID:   req.CompanyID.Ptr(),
		Notes:       models.StrPtr(req.Notes),
		IsLead:      req.IsLead,
		IsProspect:  req.IsProspect,
		IsMagazine:  req.IsMagazine,
		IsNewspaper: req.IsNewspaper,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		return s.CreateTx(ctx, tx, contact, "Created contact: ")
	})
	if err != nil {
		return nil, err
	}
	return contact, nil
}

// CreateTx inserts contact and records its CREATE activity using q. The
// summary is summaryPrefix followed by the contact's full name.
func (s *Service) CreateTx(ctx context.Context, q database.Querier, contact *models.Contact, summaryPrefix string) error {
	id, err := insert(ctx, q, contact)
	if err != nil {
		return err
	}
	contact.ID = id

	_, err = s.activity.Record(ctx, q, activity.Entry{
		Action:     models.ActionCreate,
		EntityType: models.EntityContact,
		EntityID:   &contact.ID,
		Summary:    summaryPrefix + contact.FullName(),
	})
	return err
}

// Get returns a contact by id.
func (s *Service) Get(ctx context.Context, id int64) (*models.Contact, error) {
	return get(ctx, s.db.DB(), id)
}

// List returns contacts ordered by last then first name. A non-blank q keeps
// contacts whose first name, last name or email contain it.
func (s *Service) List(ctx context.Context, q string) ([]*models.Contact, error) {
	b := database.Builder()
	sel := b.Select(columns...).From(b.Table(table)).OrderBy("last_name", "first_name", "id")
	if p := search.Match(q, "first_name", "last_name", "email"); p != nil {
		sel.Where(p)
	}
	return s.query(ctx, sel)
}

// ListByCompany returns the contacts of one company.
func (s *Service) ListByCompany(ctx context.Context, companyID int64) ([]*models.Contact, error) {
	b := database.Builder()
	return s.query(ctx, b.Select(columns...).From(b.Table(table)).
		Where(entsql.EQ("company_id", companyID)).
		OrderBy("last_name", "first_name", "id"))
}

func (s *Service) query(ctx context.Context, sel *entsql.Selector) ([]*models.Contact, error) {
	query, args := sel.Query()
	rows, err := s.db.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	defer rows.Close()

	contacts := []*models.Contact{}
	for rows.Next() {
		c, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

// Update replaces the editable fields of a contact. When no field differs
// from the stored value nothing is written and no activity is recorded.
func (s *Service) Update(ctx context.Context, id int64, req Request) (*models.Contact, error) {
	if err := req.normalize(); err != nil {
		return nil, err
	}

	var contact *models.Contact
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		contact, err = get(ctx, tx, id)
		if err != nil {
			return err
		}

		before := snapshot(contact)
		contact.FirstName = req.FirstName
		contact.LastName = req.LastName
		contact.Email = models.StrPtr(req.Email)
		contact.Phone = models.StrPtr(req.Phone)
		contact.Role = models.StrPtr(req.Role)
		contact.CompanyID = req.CompanyID.Ptr()
		contact.Notes = models.StrPtr(req.Notes)
		contact.IsLead = req.IsLead
		contact.IsProspect = req.IsProspect
		contact.IsMagazine = req.IsMagazine
		contact.IsNewspaper = req.IsNewspaper

		changes := activity.Diff(before, snapshot(contact))
		if len(changes) == 0 {
			return nil
		}

		contact.UpdatedAt = database.Now()
		_, err = database.Exec(ctx, tx, database.Builder().Update(table).
			Set("first_name", contact.FirstName).
			Set("last_name", contact.LastName).
			Set("email", database.Value(contact.Email)).
			Set("phone", database.Value(contact.Phone)).
			Set("role", database.Value(contact.Role)).
			Set("company_id", database.Value(contact.CompanyID)).
			Set("notes", database.Value(contact.Notes)).
			Set("is_lead", contact.IsLead).
			Set("is_prospect", contact.IsProspect).
			Set("is_magazine", contact.IsMagazine).
			Set("is_newspaper", contact.IsNewspaper).
			Set("updated_at", contact.UpdatedAt).
			Where(entsql.EQ("id", id)))
		if err != nil {
			return wrapWriteError("update", err)
		}

		_, err = s.activity.Record(ctx, tx, activity.Entry{
			Action:     models.ActionUpdate,
			EntityType: models.EntityContact,
			EntityID:   &contact.ID,
			Summary:    "Updated contact: " + contact.FullName(),
			Changes:    changes,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return contact, nil
}

// Delete removes a contact. Leads, projects, assets and events that point at
// it keep existing with contact_id cleared.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.db.WithTx(ctx, func(tx *sql.Tx) error {
		contact, err := get(ctx, tx, id)
		if err != nil {
			return err
		}

		b := database.Builder()
		now := database.Now()
		for _, ref := range referencing {
			upd := b.Update(ref.table).SetNull("contact_id").Where(entsql.EQ("contact_id", id))
			if ref.hasUpdated {
				upd.Set("updated_at", now)
			}
			if _, err := database.Exec(ctx, tx, upd); err != nil {
				return fmt.Errorf("failed to detach %s from contact: %w", ref.table, err)
			}
		}

		if _, err := database.Exec(ctx, tx, b.Delete(table).Where(entsql.EQ("id", id))); err != nil {
			return fmt.Errorf("failed to delete contact: %w", err)
		}

		_, err = s.activity.Record(ctx, tx, activity.Entry{
			Action:     models.ActionDelete,
			EntityType: models.EntityContact,
			EntityID:   &id,
			Summary:    "Deleted contact: " + contact.FullName(),
		})
		return err
	})
}

// ExistsByEmail reports whether a contact already has exactly this email.
func ExistsByEmail(ctx context.Context, q database.Querier, email string) (bool, error) {
	b := database.Builder()
	n, err := database.Count(ctx, q, b.Select().Count().From(b.Table(table)).Where(entsql.EQ("email", email)))
	if err != nil {
		return false, fmt.Errorf("failed to check contact email: %w", err)
	}
	return n > 0, nil
}

func snapshot(c *models.Contact) activity.Snapshot {
	return activity.Snapshot{
		"first_name":   c.FirstName,
		"last_name":    c.LastName,
		"email":        activity.Opt(c.Email),
		"phone":        activity.Opt(c.Phone),
		"role":         activity.Opt(c.Role),
		"company_id":   activity.Opt(c.CompanyID),
		"notes":        activity.Opt(c.Notes),
		"is_lead":      c.IsLead,
		"is_prospect":  c.IsProspect,
		"is_magazine":  c.IsMagazine,
		"is_newspaper": c.IsNewspaper,
	}
}

func get(ctx context.Context, q database.Querier, id int64) (*models.Contact, error) {
	b := database.Builder()
	query, args := b.Select(columns...).From(b.Table(table)).Where(entsql.EQ("id", id)).Query()

	contact, err := scan(q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NewNotFoundError(models.EntityContact, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}
	return contact, nil
}

func insert(ctx context.Context, q database.Querier, c *models.Contact) (int64, error) {
	id, err := database.Insert(ctx, q, database.Builder().Insert(table).
		Columns(columns[1:]...).
		Values(c.FirstName, c.LastName, database.Value(c.Email), database.Value(c.Phone),
			database.Value(c.Role), database.Value(c.CompanyID), database.Value(c.Notes),
			c.IsLead, c.IsProspect, c.IsMagazine, c.IsNewspaper,
			c.CreatedAt, c.UpdatedAt))
	if err != nil {
		return 0, wrapWriteError("create", err)
	}
	return id, nil
}

func wrapWriteError(op string, err error) error {
	if database.IsForeignKeyViolation(err) {
		return models.NewValidationError("company_id", "unknown company")
	}
	return fmt.Errorf("failed to %s contact: %w", op, err)
}

func scan(row database.Scanner) (*models.Contact, error) {
	var (
		c         models.Contact
		email     sql.NullString
		phone     sql.NullString
		role      sql.NullString
		companyID sql.NullInt64
		notes     sql.NullString
	)
	err := row.Scan(&c.ID, &c.FirstName, &c.LastName, &email, &phone, &role, &companyID, &notes,
		&c.IsLead, &c.IsProspect, &c.IsMagazine, &c.IsNewspaper,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.Email = database.StringPtr(email)
	c.Phone = database.StringPtr(phone)
	c.Role = database.StringPtr(role)
	c.CompanyID = database.Int64Ptr(companyID)
	c.Notes = database.StringPtr(notes)
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	return &c, nil
}
