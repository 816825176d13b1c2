// Package testdata generates realistic CRM records and import files for
// seeding a development database and for tests.
package testdata

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/jordanlanch/freelancecrm/pkg/companies"
	"github.com/jordanlanch/freelancecrm/pkg/contacts"
	"github.com/jordanlanch/freelancecrm/pkg/events"
	"github.com/jordanlanch/freelancecrm/pkg/ideas"
	"github.com/jordanlanch/freelancecrm/pkg/leads"
	"github.com/jordanlanch/freelancecrm/pkg/models"
	"github.com/jordanlanch/freelancecrm/pkg/parse"
	"github.com/jordanlanch/freelancecrm/pkg/projects"
	"github.com/jordanlanch/freelancecrm/pkg/tasks"
)

// Business name parts for the kinds of clients a freelancer works with
var businessNameParts = struct {
	Prefixes []string
	Suffixes []string
}{
	Prefixes: []string{"Bright", "North", "Blue", "Golden", "Urban", "Little", "Iron", "Open", "Silver", "Harbor"},
	Suffixes: []string{"Studio", "Media", "Press", "Gazette", "Digital", "Agency", "Collective", "Magazine", "Labs", "Works"},
}

var (
	roles       = []string{"Editor", "Art Director", "Marketing Manager", "Founder", "Producer", "Photo Editor", "Copy Chief"}
	leadSources = []string{"Referral", "Website", "Instagram", "Conference", "Cold email", "LinkedIn"}
	ideaTags    = []string{"portfolio", "pitch", "series", "workshop", "print", "video"}
	taskVerbs   = []string{"Draft", "Review", "Send", "Shoot", "Edit", "Invoice", "Schedule"}
)

// HeaderStyle selects the column naming of a generated import file.
type HeaderStyle int

const (
	// HeaderSplitNames uses first_name, last_name, email, phone, company, role.
	HeaderSplitNames HeaderStyle = iota
	// HeaderFullName uses Full Name, Emails, Phone, Website, in the shape of
	// publication directories.
	HeaderFullName
)

// Generator produces records from a seeded faker so runs are repeatable.
type Generator struct {
	faker *gofakeit.Faker
}

// NewGenerator creates a generator. A zero seed picks a random one.
func NewGenerator(seed int64) *Generator {
	return &Generator{faker: gofakeit.New(seed)}
}

// BusinessName returns a plausible client name.
func (g *Generator) BusinessName() string {
	prefix := g.faker.RandomString(businessNameParts.Prefixes)
	suffix := g.faker.RandomString(businessNameParts.Suffixes)
	return fmt.Sprintf("%s %s", prefix, suffix)
}

func (g *Generator) domain(name string) string {
	d := strings.ToLower(strings.ReplaceAll(name, " ", ""))
	if len(d) > 20 {
		d = d[:20]
	}
	return d + ".com"
}

// Phone returns a formatted North American number.
func (g *Generator) Phone() string {
	digits := g.faker.Phone()
	if len(digits) != 10 {
		return digits
	}
	return fmt.Sprintf("(%s) %s-%s", digits[:3], digits[3:6], digits[6:])
}

// Company returns a create request for a company.
func (g *Generator) Company() companies.CreateRequest {
	name := g.BusinessName()
	return companies.CreateRequest{
		Name:        name,
		Website:     "https://www." + g.domain(name),
		Notes:       g.faker.Sentence(8),
		IsProspect:  g.faker.Bool(),
		IsMagazine:  strings.HasSuffix(name, "Magazine"),
		IsNewspaper: strings.HasSuffix(name, "Gazette"),
	}
}

// Contact returns a create request for a contact, optionally at a company.
func (g *Generator) Contact(companyID *int64) contacts.Request {
	first, last := g.faker.FirstName(), g.faker.LastName()
	req := contacts.Request{
		FirstName: first,
		LastName:  last,
		Email:     fmt.Sprintf("%s.%s@%s", emailPart(first), emailPart(last), g.faker.DomainName()),
		Phone:     g.Phone(),
		Role:      g.faker.RandomString(roles),
		IsLead:    g.faker.Number(0, 3) == 0,
	}
	if companyID != nil {
		req.CompanyID = parse.OptionalInt{Value: *companyID, Valid: true}
	}
	return req
}

// Lead returns a create request for a lead in a random pipeline status.
func (g *Generator) Lead(contactID, companyID *int64) leads.CreateRequest {
	req := leads.CreateRequest{
		Title:         fmt.Sprintf("%s %s", g.faker.BuzzWord(), g.faker.RandomString([]string{"shoot", "feature", "campaign", "retainer", "redesign"})),
		Status:        string(models.LeadStatuses[g.faker.Number(0, len(models.LeadStatuses)-1)]),
		Source:        g.faker.RandomString(leadSources),
		ValueEstimate: parse.OptionalFloat{Value: float64(g.faker.Number(5, 150)) * 100, Valid: true},
		NextStep:      g.faker.Sentence(5),
		DueDate:       g.futureDate(60),
	}
	if contactID != nil {
		req.ContactID = parse.OptionalInt{Value: *contactID, Valid: true}
	}
	if companyID != nil {
		req.CompanyID = parse.OptionalInt{Value: *companyID, Valid: true}
	}
	return req
}

// Idea returns a create request for an idea.
func (g *Generator) Idea() ideas.CreateRequest {
	return ideas.CreateRequest{
		Title: g.faker.HackerPhrase(),
		Tags:  strings.Join([]string{g.faker.RandomString(ideaTags), g.faker.RandomString(ideaTags)}, ","),
		Notes: g.faker.Sentence(12),
	}
}

// Project returns a create request for an active project.
func (g *Generator) Project(contactID, companyID *int64) projects.CreateRequest {
	start := time.Now().UTC().AddDate(0, 0, -g.faker.Number(0, 30)).Truncate(24 * time.Hour)
	req := projects.CreateRequest{
		Name:      fmt.Sprintf("%s %s", g.faker.Company(), g.faker.RandomString([]string{"Lookbook", "Launch", "Annual Report", "Portraits", "Website"})),
		StartDate: parse.OptionalTime{Value: start, Valid: true},
		EndDate:   parse.OptionalTime{Value: start.AddDate(0, 0, g.faker.Number(14, 90)), Valid: true},
		Budget:    parse.OptionalFloat{Value: float64(g.faker.Number(10, 200)) * 100, Valid: true},
	}
	if contactID != nil {
		req.ContactID = parse.OptionalInt{Value: *contactID, Valid: true}
	}
	if companyID != nil {
		req.CompanyID = parse.OptionalInt{Value: *companyID, Valid: true}
	}
	return req
}

// Task returns a create request for a task, due within the next month more
// often than not.
func (g *Generator) Task() tasks.CreateRequest {
	req := tasks.CreateRequest{
		Title: fmt.Sprintf("%s %s", g.faker.RandomString(taskVerbs), g.faker.Noun()),
	}
	if g.faker.Number(0, 3) > 0 {
		req.DueDate = g.futureDate(30)
	}
	return req
}

// Event returns a create request for a one hour meeting.
func (g *Generator) Event(projectID, contactID *int64) events.CreateRequest {
	start := time.Now().UTC().AddDate(0, 0, g.faker.Number(1, 30)).Truncate(time.Hour).Add(time.Duration(g.faker.Number(9, 17)) * time.Hour)
	req := events.CreateRequest{
		Title:    g.faker.RandomString([]string{"Kickoff call", "Review", "Shoot day", "Check-in", "Delivery"}),
		Start:    start.Format(time.RFC3339),
		End:      parse.OptionalTime{Value: start.Add(time.Hour), Valid: true},
		Location: g.faker.City(),
	}
	if projectID != nil {
		req.ProjectID = parse.OptionalInt{Value: *projectID, Valid: true}
	}
	if contactID != nil {
		req.ContactID = parse.OptionalInt{Value: *contactID, Valid: true}
	}
	return req
}

func emailPart(s string) string {
	return strings.ToLower(strings.NewReplacer(" ", "", "'", "").Replace(s))
}

func (g *Generator) futureDate(days int) parse.OptionalTime {
	d := time.Now().UTC().AddDate(0, 0, g.faker.Number(1, days)).Truncate(24 * time.Hour)
	return parse.OptionalTime{Value: d, Valid: true}
}

// ContactsCSV returns an import file with rows contacts in the given header
// style. Every row carries a distinct email.
func (g *Generator) ContactsCSV(rows int, style HeaderStyle) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	switch style {
	case HeaderFullName:
		_ = w.Write([]string{"Full Name", "Emails", "Phone", "Website"})
	default:
		_ = w.Write([]string{"first_name", "last_name", "email", "phone", "company", "role"})
	}

	for i := 0; i < rows; i++ {
		c := g.Contact(nil)
		email := fmt.Sprintf("%d.%s", i, c.Email)
		company := g.BusinessName()
		switch style {
		case HeaderFullName:
			_ = w.Write([]string{c.FirstName + " " + c.LastName, email, c.Phone, g.domain(company)})
		default:
			_ = w.Write([]string{c.FirstName, c.LastName, email, c.Phone, company, c.Role})
		}
	}
	w.Flush()
	return buf.Bytes()
}
