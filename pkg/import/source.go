package importpkg

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jordanlanch/freelancecrm/pkg/models"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

var (
	utf8BOM    = []byte{0xEF, 0xBB, 0xBF}
	zipMagic   = []byte("PK\x03\x04")
	errNoSheet = models.NewValidationError("file", "spreadsheet has no sheets")
)

// sheet is the header row and data rows of an import file.
type sheet struct {
	header    []string
	rows      [][]string
	malformed int // records the CSV reader could not parse
}

// readSheet parses data as an XLSX workbook when it carries the ZIP
// signature, and as CSV text otherwise.
func readSheet(data []byte) (*sheet, error) {
	if bytes.HasPrefix(data, zipMagic) {
		return readXLSX(data)
	}
	return readCSV(decodeText(data))
}

// decodeText strips a UTF-8 byte-order mark and falls back to Latin-1 when
// the content is not valid UTF-8.
func decodeText(data []byte) string {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data)
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		// Latin-1 maps every byte, so this is unreachable in practice.
		return string(data)
	}
	return string(decoded)
}

func readCSV(text string) (*sheet, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.LazyQuotes = true
	r.FieldsPerRecord = -1 // rows may be ragged

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, models.ErrMissingHeader
	}
	if err != nil {
		return nil, models.NewValidationError("file", fmt.Sprintf("unreadable header row: %v", err))
	}
	if !hasColumn(header) {
		return nil, models.ErrMissingHeader
	}

	s := &sheet{header: header}
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			s.malformed++
			continue
		}
		s.rows = append(s.rows, record)
	}
	return s, nil
}

func readXLSX(data []byte) (*sheet, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, models.NewValidationError("file", fmt.Sprintf("unreadable spreadsheet: %v", err))
	}
	defer f.Close()

	names := f.GetSheetList()
	if len(names) == 0 {
		return nil, errNoSheet
	}
	rows, err := f.GetRows(names[0])
	if err != nil {
		return nil, models.NewValidationError("file", fmt.Sprintf("unreadable sheet %q: %v", names[0], err))
	}

	// Leading blank rows are skipped the way the CSV reader skips blank lines.
	for len(rows) > 0 && !hasColumn(rows[0]) {
		rows = rows[1:]
	}
	if len(rows) == 0 {
		return nil, models.ErrMissingHeader
	}

	s := &sheet{header: rows[0]}
	for _, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		s.rows = append(s.rows, row)
	}
	return s, nil
}

func hasColumn(header []string) bool {
	for _, h := range header {
		if strings.TrimSpace(h) != "" {
			return true
		}
	}
	return false
}
