package importpkg

import "strings"

type field int

const (
	fieldFirstName field = iota
	fieldLastName
	fieldFullName
	fieldEmail
	fieldEmails
	fieldPhone
	fieldRole
	fieldNotes
	fieldSite
	fieldCompany
	fieldCount
)

// aliases lists the accepted header names per field, in priority order.
// Headers are compared lower-cased and trimmed.
var aliases = [fieldCount][]string{
	fieldFirstName: {"first_name", "first name", "first"},
	fieldLastName:  {"last_name", "last name", "last"},
	fieldFullName:  {"full_name", "full name", "name", "magazine", "publication"},
	fieldEmail:     {"email", "email_address", "email address"},
	fieldEmails:    {"emails", "email_list", "email list"},
	fieldPhone:     {"phone", "phone_number", "phone number"},
	fieldRole:      {"role", "title"},
	fieldNotes:     {"notes", "note"},
	fieldSite:      {"site", "website", "url"},
	fieldCompany:   {"company", "company_name", "company name"},
}

// columnMap holds, per field, the column indexes to try in priority order.
type columnMap [fieldCount][]int

// mapColumns resolves the alias table against a header row once per file.
// When a header name repeats, the rightmost column wins.
func mapColumns(header []string) columnMap {
	index := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		if name != "" {
			index[name] = i
		}
	}

	var m columnMap
	for f, names := range aliases {
		for _, name := range names {
			if i, ok := index[name]; ok {
				m[f] = append(m[f], i)
			}
		}
	}
	return m
}

// value returns the first non-blank cell among the field's columns, trimmed.
func (m columnMap) value(row []string, f field) string {
	for _, i := range m[f] {
		if i >= len(row) {
			continue
		}
		if v := strings.TrimSpace(row[i]); v != "" {
			return v
		}
	}
	return ""
}
