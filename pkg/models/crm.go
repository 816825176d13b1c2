package models

import "time"

// Company is an organisation contacts, leads and projects can reference.
type Company struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Website     *string   `json:"website"`
	Notes       *string   `json:"notes"`
	IsLead      bool      `json:"is_lead"`
	IsProspect  bool      `json:"is_prospect"`
	IsMagazine  bool      `json:"is_magazine"`
	IsNewspaper bool      `json:"is_newspaper"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Contact is a person.
type Contact struct {
	ID          int64     `json:"id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Email       *string   `json:"email"`
	Phone       *string   `json:"phone"`
	Role        *string   `json:"role"`
	CompanyID   *int64    `json:"company_id"`
	Notes       *string   `json:"notes"`
	IsLead      bool      `json:"is_lead"`
	IsProspect  bool      `json:"is_prospect"`
	IsMagazine  bool      `json:"is_magazine"`
	IsNewspaper bool      `json:"is_newspaper"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// FullName joins first and last name with a single space.
func (c *Contact) FullName() string {
	switch {
	case c.FirstName == "":
		return c.LastName
	case c.LastName == "":
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}

// Lead is a sales opportunity.
type Lead struct {
	ID            int64      `json:"id"`
	Title         string     `json:"title"`
	Status        LeadStatus `json:"status"`
	Source        *string    `json:"source"`
	ValueEstimate *float64   `json:"value_estimate"`
	CompanyID     *int64     `json:"company_id"`
	ContactID     *int64     `json:"contact_id"`
	NextStep      *string    `json:"next_step"`
	DueDate       *time.Time `json:"due_date"`
	Notes         *string    `json:"notes"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Idea is a free-form note with a status.
type Idea struct {
	ID        int64      `json:"id"`
	Title     string     `json:"title"`
	Status    IdeaStatus `json:"status"`
	Tags      *string    `json:"tags"`
	Notes     *string    `json:"notes"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Project owns tasks.
type Project struct {
	ID        int64         `json:"id"`
	Name      string        `json:"name"`
	Status    ProjectStatus `json:"status"`
	CompanyID *int64        `json:"company_id"`
	ContactID *int64        `json:"contact_id"`
	StartDate *time.Time    `json:"start_date"`
	EndDate   *time.Time    `json:"end_date"`
	Budget    *float64      `json:"budget"`
	Notes     *string       `json:"notes"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Task belongs to exactly one project.
type Task struct {
	ID        int64      `json:"id"`
	ProjectID int64      `json:"project_id"`
	Title     string     `json:"title"`
	Status    TaskStatus `json:"status"`
	DueDate   *time.Time `json:"due_date"`
	Notes     *string    `json:"notes"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Event is a calendar entry.
type Event struct {
	ID        int64      `json:"id"`
	Title     string     `json:"title"`
	Start     time.Time  `json:"start"`
	End       *time.Time `json:"end"`
	AllDay    bool       `json:"all_day"`
	ProjectID *int64     `json:"project_id"`
	ContactID *int64     `json:"contact_id"`
	Location  *string    `json:"location"`
	Notes     *string    `json:"notes"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Asset is an uploaded file. Assets are immutable once stored.
type Asset struct {
	ID         int64     `json:"id"`
	Filename   string    `json:"filename"`
	StoredPath string    `json:"stored_path"`
	MimeType   *string   `json:"mime_type"`
	SizeBytes  *int64    `json:"size_bytes"`
	Tags       *string   `json:"tags"`
	ProjectID  *int64    `json:"project_id"`
	ContactID  *int64    `json:"contact_id"`
	Notes      *string   `json:"notes"`
	CreatedAt  time.Time `json:"created_at"`
}

// Change is a single field transition.
type Change struct {
	From any `json:"from"`
	To   any `json:"to"`
}

// Changes maps a field name to a Change, or to a plain value for
// entries that describe a payload (upload size, parent id).
type Changes map[string]any

// Activity is an append-only audit entry.
type Activity struct {
	ID         int64          `json:"id"`
	Timestamp  time.Time      `json:"ts"`
	Action     ActivityAction `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   *int64         `json:"entity_id"`
	Summary    string         `json:"summary"`
	Changes    Changes        `json:"changes"`
}

// StrPtr returns nil for a blank string, otherwise a pointer to s.
func StrPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Int64Ptr returns a pointer to v.
func Int64Ptr(v int64) *int64 { return &v }

// Deref returns the pointed-to string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
