package loaders

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"trial-balance-reporter/pkg/errors"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func writeWorkbook(t *testing.T, dir, name string, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		for j, val := range row {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+1)
			if err := f.SetCellValue("Sheet1", cell, val); err != nil {
				t.Fatalf("failed to set cell: %v", err)
			}
		}
	}
	path := filepath.Join(dir, name)
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("failed to save workbook: %v", err)
	}
	return path
}

const extractHeader = "accountname,acctcode,level1accountname,netamt,memo\n"

func TestReadTable_CSV(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "data.csv", "a,b,c\n1,2,3\n4,5\n")

	table, err := ReadTable(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(table.Columns) != 3 {
		t.Errorf("expected 3 columns, got %d", len(table.Columns))
	}
	if table.RowCount() != 2 {
		t.Errorf("expected 2 rows, got %d", table.RowCount())
	}
	// Short rows are padded to the header width.
	if got := table.Cell(1, 2); got != "" {
		t.Errorf("expected padded empty cell, got %q", got)
	}
}

func TestReadTable_XLSX(t *testing.T) {
	dir := t.TempDir()
	path := writeWorkbook(t, dir, "data.xlsx", [][]interface{}{
		{"accountname", "netamt"},
		{"Cash", 100.5},
	})

	table, err := ReadTable(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if table.RowCount() != 1 {
		t.Fatalf("expected 1 row, got %d", table.RowCount())
	}
	if got := table.Cell(0, 0); got != "Cash" {
		t.Errorf("Cell(0,0) = %q, want Cash", got)
	}
}

func TestReadTable_UnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "data.txt", "whatever")

	if _, err := ReadTable(path); err == nil {
		t.Fatal("expected error for unsupported extension")
	}
}

func TestLedgerLoader_LoadDailyExtracts(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "09-15-2025.csv", extractHeader+
		"Cash,1000,Fund A,100.50,opening\n"+
		"Revenue,4000,Fund A,-100.50,opening\n")
	writeFile(t, dir, "09-16-2025.csv", extractHeader+
		"Cash,1000,Fund B,25.00,\n")
	writeFile(t, dir, "notes.csv", "this,is,not\na,daily,extract\n")
	writeFile(t, dir, "readme.txt", "ignore me")

	loader, err := NewLedgerLoader(nil)
	if err != nil {
		t.Fatalf("failed to create loader: %v", err)
	}

	set, warnings, err := loader.LoadDailyExtracts(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	dates := set.Dates()
	if len(dates) != 2 || dates[0] != "2025-09-15" || dates[1] != "2025-09-16" {
		t.Errorf("unexpected dates: %v", dates)
	}
	if set.TotalRows() != 3 {
		t.Errorf("TotalRows() = %d, want 3", set.TotalRows())
	}
	// notes.csv and readme.txt are skipped with warnings, never errors.
	if len(warnings) != 2 {
		t.Errorf("expected 2 warnings, got %d: %v", len(warnings), warnings)
	}

	extract := set.ByDate["2025-09-15"]
	if extract.Entries[0].AccountName != "Cash" {
		t.Errorf("unexpected first entry: %+v", extract.Entries[0])
	}
	if !extract.Entries[0].Amount.Equal(decimal.NewFromFloat(100.50)) {
		t.Errorf("Amount = %s, want 100.5", extract.Entries[0].Amount)
	}
	// Unrecognized columns survive in the Extra bag.
	if extract.Entries[0].Extra["memo"] != "opening" {
		t.Errorf("expected memo pass-through, got %v", extract.Entries[0].Extra)
	}
}

func TestLedgerLoader_ColumnAliases(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "09-15-2025.csv",
		"Account Name,Fund,Net Amount\nCash,Fund A,10.00\n")

	loader, err := NewLedgerLoader(nil)
	if err != nil {
		t.Fatalf("failed to create loader: %v", err)
	}

	set, _, err := loader.LoadDailyExtracts(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entry := set.ByDate["2025-09-15"].Entries[0]
	if entry.AccountName != "Cash" || entry.Fund != "Fund A" {
		t.Errorf("aliases not applied: %+v", entry)
	}
}

func TestLedgerLoader_EmptyPeriodIsFatal(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "notes.csv", "not,a,daily\nfile,at,all\n")

	loader, err := NewLedgerLoader(nil)
	if err != nil {
		t.Fatalf("failed to create loader: %v", err)
	}

	_, _, err = loader.LoadDailyExtracts(dir)
	if err == nil {
		t.Fatal("expected empty period error")
	}
	if !errors.HasCode(err, errors.CodeEmptyPeriod) {
		t.Errorf("expected code %s, got %v", errors.CodeEmptyPeriod, err)
	}
}

func TestLedgerLoader_MissingRequiredColumn(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "09-15-2025.csv", "accountname,netamt\nCash,10\n")

	loader, err := NewLedgerLoader(nil)
	if err != nil {
		t.Fatalf("failed to create loader: %v", err)
	}

	_, _, err = loader.LoadDailyExtracts(dir)
	if err == nil {
		t.Fatal("expected error for missing fund column")
	}
	if !errors.HasCode(err, errors.CodeMissingColumn) {
		t.Errorf("expected code %s, got %v", errors.CodeMissingColumn, err)
	}
}

func TestLedgerLoader_LoadChartOfAccounts(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "coa_v2.csv", "accountname,accounttype\nCash,Asset\n")
	writeFile(t, dir, "coa_v1.csv", "accountname,accounttype\nCash,Asset\nRevenue,Income\n")

	loader, err := NewLedgerLoader(nil)
	if err != nil {
		t.Fatalf("failed to create loader: %v", err)
	}

	table, warnings, err := loader.LoadChartOfAccounts(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// First by name wins; the other file is warned about.
	if table.RowCount() != 2 {
		t.Errorf("expected coa_v1.csv (2 rows), got %d rows from %s", table.RowCount(), table.Source)
	}
	if len(warnings) != 1 {
		t.Errorf("expected 1 warning, got %v", warnings)
	}
}

func TestLedgerLoader_ChartOfAccountsMissingIsWarning(t *testing.T) {
	loader, err := NewLedgerLoader(nil)
	if err != nil {
		t.Fatalf("failed to create loader: %v", err)
	}

	table, warnings, err := loader.LoadChartOfAccounts(filepath.Join(t.TempDir(), "absent"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if table != nil {
		t.Error("expected nil table for missing directory")
	}
	if len(warnings) != 1 {
		t.Errorf("expected 1 warning, got %v", warnings)
	}
}

func TestReferenceLoader_LatestByModTime(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, COAMappingTable)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}

	older := writeFile(t, dir, "COA Mapping 2025-08.csv",
		"Account Name,Account Type,FS Classification,Is New Account\nCash,Asset,Balance Sheet,false\n")
	writeFile(t, dir, "COA Mapping 2025-09.csv",
		"Account Name,Account Type,FS Classification,Is New Account\nCash,Asset,Balance Sheet,false\nRevenue,Income,Income Statement,false\n")

	past := time.Now().Add(-72 * time.Hour)
	if err := os.Chtimes(older, past, past); err != nil {
		t.Fatalf("failed to set mtime: %v", err)
	}

	loader := NewReferenceLoader(root)
	mapping, err := loader.LoadCOAMapping()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(mapping.Records) != 2 {
		t.Errorf("expected the newer 2-row mapping, got %d records", len(mapping.Records))
	}
	if mapping.Records[1].AccountName != "Revenue" {
		t.Errorf("unexpected record order: %+v", mapping.Records)
	}
}

func TestReferenceLoader_MissingDirectory(t *testing.T) {
	loader := NewReferenceLoader(t.TempDir())

	_, err := loader.LoadCOAMapping()
	if err == nil {
		t.Fatal("expected error for missing reference directory")
	}
	if !errors.HasCode(err, errors.CodeReferenceMissing) {
		t.Errorf("expected code %s, got %v", errors.CodeReferenceMissing, err)
	}
}

func TestReferenceLoader_EmptyDirectory(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, PortfolioMappingTable), 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}

	loader := NewReferenceLoader(root)
	_, err := loader.LoadPortfolioMapping()
	if err == nil {
		t.Fatal("expected error for empty reference directory")
	}
	if !errors.HasCode(err, errors.CodeReferenceEmpty) {
		t.Errorf("expected code %s, got %v", errors.CodeReferenceEmpty, err)
	}
}

func TestReferenceLoader_XLSXMapping(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, COAMappingTable)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	writeWorkbook(t, dir, "COA Mapping.xlsx", [][]interface{}{
		{"Account Name", "Account Type", "FS Classification", "Is New Account"},
		{"Cash", "Asset", "Balance Sheet", "false"},
	})

	loader := NewReferenceLoader(root)
	mapping, err := loader.LoadCOAMapping()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mapping.Records) != 1 || mapping.Records[0].AccountType != "Asset" {
		t.Errorf("unexpected mapping: %+v", mapping.Records)
	}
}
