// Package tabular decodes raw spreadsheet bytes into ordered row
// mappings keyed by header column name. It is a pure transform: no
// side effects, no interpretation of cell values beyond trimming.
package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

// Sentinel errors for ingestion.
var (
	ErrEmptyInput = errors.New("no data rows found")
	ErrNoSheets   = errors.New("workbook contains no sheets")
)

// Row maps header column name to the trimmed cell value.
type Row map[string]string

// Table is the result of ingesting one upload: the header columns in
// file order and one Row per data row.
type Table struct {
	Columns []string
	Rows    []Row
}

// Ingest decodes CSV bytes into a Table. It strips a leading UTF-8
// byte-order mark, falls back to Latin-1 when the bytes are not valid
// UTF-8, tolerates ragged rows (missing trailing fields become empty,
// excess fields are dropped), and skips fully empty lines.
// Returns ErrEmptyInput when no data rows result.
//
// Column identity comes from the header row. Behavior with duplicate
// header names is undefined: the last duplicate wins.
func Ingest(data []byte) (*Table, error) {
	text := decodeText(data)

	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, ErrEmptyInput
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	columns := normalizeHeader(header)

	var rows []Row
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row %d: %w", len(rows)+2, err)
		}
		if isEmptyRecord(record) {
			continue
		}
		rows = append(rows, recordToRow(columns, record))
	}

	if len(rows) == 0 {
		return nil, ErrEmptyInput
	}

	return &Table{Columns: columns, Rows: rows}, nil
}

// IngestXLSX decodes the first sheet of an XLSX workbook into a
// Table with the same ragged-row and empty-line semantics as Ingest.
func IngestXLSX(data []byte) (*Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheets
	}

	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}
	if len(records) == 0 {
		return nil, ErrEmptyInput
	}

	columns := normalizeHeader(records[0])

	var rows []Row
	for _, record := range records[1:] {
		if isEmptyRecord(record) {
			continue
		}
		rows = append(rows, recordToRow(columns, record))
	}

	if len(rows) == 0 {
		return nil, ErrEmptyInput
	}

	return &Table{Columns: columns, Rows: rows}, nil
}

// decodeText strips a UTF-8 BOM and re-decodes Latin-1 uploads.
// Spreadsheet exports from older Windows tooling are the usual source
// of both quirks.
func decodeText(data []byte) string {
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})

	if !utf8.Valid(data) {
		if decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data); err == nil {
			return string(decoded)
		}
	}
	return string(data)
}

// normalizeHeader trims whitespace and any stray BOM remnants from
// header cells.
func normalizeHeader(header []string) []string {
	columns := make([]string, len(header))
	for i, col := range header {
		columns[i] = strings.TrimSpace(strings.ReplaceAll(col, "\ufeff", ""))
	}
	return columns
}

// recordToRow pairs a record with the header columns. Short records
// leave the remaining columns empty; long records drop the excess.
func recordToRow(columns []string, record []string) Row {
	row := make(Row, len(columns))
	for i, col := range columns {
		if col == "" {
			continue
		}
		if i < len(record) {
			row[col] = strings.TrimSpace(record[i])
		} else {
			row[col] = ""
		}
	}
	return row
}

func isEmptyRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
