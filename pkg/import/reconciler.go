package importpkg

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jordanlanch/freelancecrm/pkg/companies"
	"github.com/jordanlanch/freelancecrm/pkg/contacts"
	"github.com/jordanlanch/freelancecrm/pkg/database"
	"github.com/jordanlanch/freelancecrm/pkg/logger"
	"github.com/jordanlanch/freelancecrm/pkg/metrics"
	"github.com/jordanlanch/freelancecrm/pkg/models"
)

// DefaultMaxBytes is the import size ceiling (25 MiB).
const DefaultMaxBytes int64 = 25 * 1024 * 1024

// Reconciler imports contacts from CSV or XLSX files, skipping duplicates
// and creating companies on demand.
type Reconciler struct {
	db       *database.Client
	contacts *contacts.Service
	metrics  *metrics.Metrics
	log      logger.Logger
	maxBytes int64
}

// NewReconciler creates a new import reconciler. A maxBytes of zero or less
// uses DefaultMaxBytes.
func NewReconciler(db *database.Client, contacts *contacts.Service, m *metrics.Metrics, log logger.Logger, maxBytes int64) *Reconciler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Reconciler{
		db:       db,
		contacts: contacts,
		metrics:  m,
		log:      log,
		maxBytes: maxBytes,
	}
}

// ImportResult holds the outcome of one import
type ImportResult struct {
	Imported         int    `json:"imported"`
	Skipped          int    `json:"skipped"`
	Rows             int    `json:"rows"`
	CompaniesCreated int    `json:"companies_created"`
	Duration         string `json:"duration"`
}

// candidate is one contact a row may produce.
type candidate struct {
	firstName, lastName string
	email               string
}

// ImportContacts reconciles the rows of data into contacts. Only an oversize
// payload or a missing header fail the import; bad rows, rows without a
// usable name or email and duplicate emails are counted as skipped.
func (r *Reconciler) ImportContacts(ctx context.Context, data []byte) (*ImportResult, error) {
	start := time.Now()
	if int64(len(data)) > r.maxBytes {
		return nil, &models.SizeLimitError{Size: int64(len(data)), Limit: r.maxBytes}
	}

	s, err := readSheet(data)
	if err != nil {
		return nil, err
	}
	cols := mapColumns(s.header)

	result := &ImportResult{Rows: len(s.rows) + s.malformed, Skipped: s.malformed}
	for _, row := range s.rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := r.importRow(ctx, cols, row, result); err != nil {
			return nil, err
		}
	}

	result.Duration = time.Since(start).String()
	r.metrics.RecordImport(result.Imported, result.Skipped)
	r.log.Info("contacts imported",
		"rows", result.Rows,
		"imported", result.Imported,
		"skipped", result.Skipped,
		"companies_created", result.CompaniesCreated,
		"duration", result.Duration,
	)
	return result, nil
}

func (r *Reconciler) importRow(ctx context.Context, cols columnMap, row []string, result *ImportResult) error {
	first := cols.value(row, fieldFirstName)
	last := cols.value(row, fieldLastName)
	if full := cols.value(row, fieldFullName); full != "" && first == "" && last == "" {
		first, last = splitFullName(full)
	}

	var emails []string
	if email := cols.value(row, fieldEmail); email != "" {
		emails = []string{email}
	} else {
		emails = extractEmails(cols.value(row, fieldEmails))
	}

	if len(emails) == 0 && first == "" && last == "" {
		result.Skipped++
		return nil
	}

	companyName := cols.value(row, fieldCompany)
	if companyName == "" {
		companyName = cols.value(row, fieldSite)
	}
	var companyID *int64
	if companyName != "" {
		id, err := r.resolveCompany(ctx, companyName, result)
		if err != nil {
			return err
		}
		companyID = &id
	}

	if len(emails) == 0 {
		emails = []string{""}
	}

	phone := cols.value(row, fieldPhone)
	role := cols.value(row, fieldRole)
	notes := cols.value(row, fieldNotes)

	for _, email := range emails {
		c := candidate{firstName: first, lastName: last, email: email}
		if c.firstName == "" && c.lastName == "" && c.email != "" {
			c.firstName, c.lastName = nameFromEmail(c.email)
		}
		if c.firstName == "" && c.lastName == "" {
			result.Skipped++
			continue
		}

		now := database.Now()
		contact := &models.Contact{
			FirstName: c.firstName,
			LastName:  c.lastName,
			Email:     models.StrPtr(c.email),
			Phone:     models.StrPtr(phone),
			Role:      models.StrPtr(role),
			CompanyID: companyID,
			Notes:     models.StrPtr(notes),
			CreatedAt: now,
			UpdatedAt: now,
		}
		created, err := r.createContact(ctx, contact)
		if err != nil {
			return err
		}
		if created {
			result.Imported++
		} else {
			result.Skipped++
		}
	}
	return nil
}

// createContact stores contact with its activity entry unless another
// contact already has its email. It reports whether a contact was created.
func (r *Reconciler) createContact(ctx context.Context, contact *models.Contact) (bool, error) {
	created := false
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if contact.Email != nil {
			exists, err := contacts.ExistsByEmail(ctx, tx, *contact.Email)
			if err != nil {
				return err
			}
			if exists {
				r.log.Debug("import skipped duplicate email", "email", *contact.Email)
				return nil
			}
		}
		if err := r.contacts.CreateTx(ctx, tx, contact, "Imported contact: "); err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to import contact: %w", err)
	}
	return created, nil
}

// resolveCompany finds or creates the row's company. A created company is
// counted in result but not logged: the import records one activity entry per
// imported contact and the company shows up through it.
func (r *Reconciler) resolveCompany(ctx context.Context, name string, result *ImportResult) (int64, error) {
	var id int64
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		var created bool
		var err error
		id, created, err = companies.FindOrCreateByName(ctx, tx, name)
		if created {
			result.CompaniesCreated++
		}
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to resolve company %q: %w", name, err)
	}
	return id, nil
}
