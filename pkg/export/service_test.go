package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/jordanlanch/freelancecrm/pkg/activity"
	"github.com/jordanlanch/freelancecrm/pkg/companies"
	"github.com/jordanlanch/freelancecrm/pkg/contacts"
	"github.com/jordanlanch/freelancecrm/pkg/database/dbtest"
	"github.com/jordanlanch/freelancecrm/pkg/models"
	"github.com/jordanlanch/freelancecrm/pkg/parse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func setup(t *testing.T) *Service {
	db := dbtest.Open(t)
	act := activity.NewService(db)
	cs := contacts.NewService(db, act)
	co := companies.NewService(db, act)
	ctx := context.Background()

	acme, err := co.Create(ctx, companies.CreateRequest{Name: "Acme"})
	require.NoError(t, err)
	_, err = cs.Create(ctx, contacts.Request{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Phone:     "(202) 456-1111",
		CompanyID: parse.OptionalInt{Value: acme.ID, Valid: true},
	})
	require.NoError(t, err)
	_, err = cs.Create(ctx, contacts.Request{FirstName: "Grace", LastName: "Hopper", Phone: "ask reception"})
	require.NoError(t, err)

	return NewService(cs, co, nil, "US")
}

func TestService_ContactsCSV(t *testing.T) {
	svc := setup(t)
	var buf bytes.Buffer
	require.NoError(t, svc.Contacts(context.Background(), &buf, FormatCSV, ""))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, headers, records[0])

	hopper, lovelace := records[1], records[2]
	assert.Equal(t, "Hopper", hopper[2])
	assert.Equal(t, "ask reception", hopper[4])
	assert.Equal(t, "", hopper[5], "unparseable phone has no E.164 form")
	assert.Equal(t, "", hopper[7])

	assert.Equal(t, "Lovelace", lovelace[2])
	assert.Equal(t, "+12024561111", lovelace[5])
	assert.Equal(t, "Acme", lovelace[7])
}

func TestService_ContactsExcel(t *testing.T) {
	svc := setup(t)
	var buf bytes.Buffer
	require.NoError(t, svc.Contacts(context.Background(), &buf, FormatExcel, "ada"))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, headers, rows[0])
	assert.Equal(t, "Ada", rows[1][1])
	assert.Equal(t, "+12024561111", rows[1][5])
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatCSV, false},
		{"csv", FormatCSV, false},
		{"excel", FormatExcel, false},
		{"xlsx", FormatExcel, false},
		{"pdf", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, models.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	now := time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)
	assert.Equal(t, "contacts_20250203_040506.xlsx", FormatExcel.Filename(now))
	assert.Equal(t, "contacts_20250203_040506.csv", FormatCSV.Filename(now))
}
