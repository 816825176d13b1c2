package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jordanlanch/freelancecrm/pkg/companies"
	"github.com/jordanlanch/freelancecrm/pkg/contacts"
	"github.com/jordanlanch/freelancecrm/pkg/metrics"
	"github.com/jordanlanch/freelancecrm/pkg/models"
	"github.com/jordanlanch/freelancecrm/pkg/phone"
	"github.com/xuri/excelize/v2"
)

// Format is an export file format.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatExcel Format = "excel"
)

// ParseFormat accepts "csv", "excel" and "xlsx". Blank means CSV.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "", "csv":
		return FormatCSV, nil
	case "excel", "xlsx":
		return FormatExcel, nil
	}
	return "", models.NewValidationError("format", "must be csv or excel")
}

// ContentType returns the HTTP content type of the format.
func (f Format) ContentType() string {
	if f == FormatExcel {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Filename returns a download name stamped with now.
func (f Format) Filename(now time.Time) string {
	ext := "csv"
	if f == FormatExcel {
		ext = "xlsx"
	}
	return fmt.Sprintf("contacts_%s.%s", now.UTC().Format("20060102_150405"), ext)
}

var headers = []string{
	"ID", "First Name", "Last Name", "Email", "Phone", "Phone E164", "Role",
	"Company", "Notes", "Created At",
}

const sheetName = "Contacts"

// Service exports contacts
type Service struct {
	contacts  *contacts.Service
	companies *companies.Service
	metrics   *metrics.Metrics
	region    string
}

// NewService creates a new export service. region is the phone region hint
// used for the E.164 column.
func NewService(contacts *contacts.Service, companies *companies.Service, m *metrics.Metrics, region string) *Service {
	return &Service{
		contacts:  contacts,
		companies: companies,
		metrics:   m,
		region:    region,
	}
}

// Contacts writes the contacts matching q to w in format.
func (s *Service) Contacts(ctx context.Context, w io.Writer, format Format, q string) error {
	list, err := s.contacts.List(ctx, q)
	if err != nil {
		return err
	}
	all, err := s.companies.List(ctx, "")
	if err != nil {
		return err
	}
	names := make(map[int64]string, len(all))
	for _, c := range all {
		names[c.ID] = c.Name
	}

	rows := make([][]string, 0, len(list))
	for _, c := range list {
		company := ""
		if c.CompanyID != nil {
			company = names[*c.CompanyID]
		}
		rows = append(rows, []string{
			strconv.FormatInt(c.ID, 10),
			c.FirstName,
			c.LastName,
			models.Deref(c.Email),
			models.Deref(c.Phone),
			phone.Normalize(models.Deref(c.Phone), s.region),
			models.Deref(c.Role),
			company,
			models.Deref(c.Notes),
			c.CreatedAt.Format(time.RFC3339),
		})
	}

	switch format {
	case FormatExcel:
		err = writeExcel(w, rows)
	default:
		err = writeCSV(w, rows)
	}
	if err != nil {
		return err
	}
	s.metrics.RecordExportCreated(string(format))
	return nil
}

func writeCSV(w io.Writer, rows [][]string) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(headers); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := writer.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write rows: %w", err)
	}
	return nil
}

func writeExcel(w io.Writer, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}

	if err := f.SetSheetRow(sheetName, "A1", &headers); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := f.SetCellStyle(sheetName, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	if err := f.SetColWidth(sheetName, "A", lastCol, 18); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
