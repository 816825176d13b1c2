// Package search builds the substring filters used by list endpoints.
package search

import (
	"strings"

	entsql "entgo.io/ent/dialect/sql"
	"golang.org/x/text/unicode/norm"
)

// Term trims q and composes it to NFC so decomposed input ("e" + combining
// acute) matches text stored in composed form.
func Term(q string) string {
	return norm.NFC.String(strings.TrimSpace(q))
}

// Match returns a predicate matching rows where any of columns contains q,
// ignoring case. It returns nil for a blank q.
func Match(q string, columns ...string) *entsql.Predicate {
	q = Term(q)
	if q == "" || len(columns) == 0 {
		return nil
	}
	preds := make([]*entsql.Predicate, 0, len(columns))
	for _, column := range columns {
		preds = append(preds, entsql.ContainsFold(column, q))
	}
	return entsql.Or(preds...)
}
