// Package loaders reads trial balance extracts and reference tables from the
// shared filesystem.
//
// Two tabular formats are supported, selected by file extension: delimited
// text (.csv) and spreadsheet workbooks (.xlsx/.xls, first sheet). Non-fatal
// findings are surfaced as Warning values next to the result instead of
// errors, so the pipeline driver can aggregate them.
package loaders

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"trial-balance-reporter/pkg/errors"
)

// Supported tabular file extensions, in the order formats are probed when a
// directory holds multiple candidates.
var supportedExtensions = []string{".csv", ".xlsx", ".xls"}

// Warning records a non-fatal finding during loading
type Warning struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// String returns a human-readable representation of the warning
func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Path, w.Reason)
}

// Table is a raw tabular file loaded into memory: a header row plus data
// rows aligned to it. Short rows are padded so every row has one cell per
// column.
type Table struct {
	Source  string     `json:"source"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// RowCount returns the number of data rows
func (t *Table) RowCount() int {
	return len(t.Rows)
}

// ColumnIndex returns the index of a column by name (case-insensitive,
// trimmed), or -1 if not found.
func (t *Table) ColumnIndex(name string) int {
	lower := strings.ToLower(strings.TrimSpace(name))
	for i, col := range t.Columns {
		if strings.ToLower(strings.TrimSpace(col)) == lower {
			return i
		}
	}
	return -1
}

// Cell returns the value at (row, column index), empty for out-of-range
func (t *Table) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return ""
	}
	return t.Rows[row][col]
}

// IsSupportedFile reports whether the path has a loadable tabular extension
func IsSupportedFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, supported := range supportedExtensions {
		if ext == supported {
			return true
		}
	}
	return false
}

// ReadTable loads a tabular file fully into memory, dispatching on the file
// extension. The first row is taken as the header.
func ReadTable(path string) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return readCSVTable(path)
	case ".xlsx", ".xls":
		return readExcelTable(path)
	default:
		return nil, errors.ParseError(errors.CodeInvalidFormat, path, 0, "", filepath.Ext(path),
			fmt.Errorf("unsupported file extension"))
	}
}

func readCSVTable(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.FileError(errors.CodeFileNotFound, path, err)
		}
		if os.IsPermission(err) {
			return nil, errors.FileError(errors.CodeFilePermission, path, err)
		}
		return nil, errors.FileError(errors.CodeDirectoryError, path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1 // daily extracts sometimes carry ragged rows

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.ParseError(errors.CodeInvalidFormat, path, 0, "", "", err)
	}

	return tableFromRecords(path, records), nil
}

func readExcelTable(path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.FileError(errors.CodeFileNotFound, path, err)
		}
		return nil, errors.ParseError(errors.CodeInvalidFormat, path, 0, "", "", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.ParseError(errors.CodeInvalidFormat, path, 0, "", "",
			fmt.Errorf("workbook has no sheets"))
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.ParseError(errors.CodeInvalidFormat, path, 0, "", "", err)
	}

	return tableFromRecords(path, rows), nil
}

func tableFromRecords(path string, records [][]string) *Table {
	table := &Table{Source: path}
	if len(records) == 0 {
		return table
	}

	table.Columns = records[0]
	width := len(table.Columns)

	for _, record := range records[1:] {
		if isEmptyRow(record) {
			continue
		}
		row := make([]string, width)
		copy(row, record)
		table.Rows = append(table.Rows, row)
	}
	return table
}

func isEmptyRow(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
