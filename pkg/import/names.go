package importpkg

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	emailPattern   = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	emailSeparator = regexp.MustCompile(`[;\s,]+`)
	localSeparator = regexp.MustCompile(`[._\-]+`)
)

// extractEmails splits a list of addresses on semicolons, commas and
// whitespace, strips mailto: prefixes and keeps tokens that look like an
// address.
func extractEmails(raw string) []string {
	var emails []string
	for _, token := range emailSeparator.Split(raw, -1) {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		if len(token) >= 7 && strings.EqualFold(token[:7], "mailto:") {
			token = token[7:]
		}
		if emailPattern.MatchString(token) {
			emails = append(emails, token)
		}
	}
	return emails
}

// nameFromEmail derives a name from the local part of an address:
// "ada.king-lovelace@x" gives ("Ada", "King Lovelace"). A plus sign reads
// as a space.
func nameFromEmail(email string) (first, last string) {
	local, _, _ := strings.Cut(email, "@")
	var parts []string
	for _, p := range localSeparator.Split(local, -1) {
		if p != "" {
			parts = append(parts, titleCase(strings.ReplaceAll(p, "+", " ")))
		}
	}
	if len(parts) == 0 {
		return "", ""
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(strings.Join(parts[1:], " "))
}

// splitFullName puts the first word in first and the rest in last.
func splitFullName(full string) (first, last string) {
	words := strings.Fields(full)
	if len(words) == 0 {
		return "", ""
	}
	return words[0], strings.Join(words[1:], " ")
}

// titleCase upper-cases the first letter of every run of letters and
// lower-cases the rest, so "o'neil" becomes "O'Neil".
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inWord := false
	for _, r := range s {
		if !unicode.IsLetter(r) {
			b.WriteRune(r)
			inWord = false
			continue
		}
		if inWord {
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(unicode.ToTitle(r))
		}
		inWord = true
	}
	return b.String()
}
