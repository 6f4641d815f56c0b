// Package exporter writes the report artifacts as XLSX workbooks: the full
// workbook with raw and intermediate sheets plus formatted per-fund sheets,
// the reduced fund-only workbook and the dated chart-of-accounts mapping
// artifact produced when new accounts are found.
//
// Workbooks are written to a temporary file in the target directory and
// renamed into place, so a failed export never leaves a partial file at the
// final path.
package exporter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"trial-balance-reporter/internal/loaders"
	"trial-balance-reporter/internal/models"
	"trial-balance-reporter/pkg/errors"
	"trial-balance-reporter/pkg/logger"
)

// Debug sheet names in the full workbook
const (
	SheetConsolidated    = "Consolidated TB"
	SheetChartOfAccounts = "Chart of Accounts"
	SheetMatrix          = "Account Fund Matrix"
	SheetMerged          = "Merged"
	SheetMapping         = "COA Mapping"
)

// moneyFormat is the accounting-style number format applied to amount cells
const moneyFormat = "#,##0.00;(#,##0.00)"

// grandTotalGap is the number of blank rows between the last data row and
// the grand total row on a fund sheet.
const grandTotalGap = 1

// ReportData bundles everything the exporter needs to build the workbooks
type ReportData struct {
	Period     models.Period
	Title      string
	Ledger     *models.ConsolidatedLedger
	Chart      *loaders.Table
	Matrix     *models.AccountFundMatrix
	Merged     *models.MergedTable
	Segments   []models.FundSegment
	AsOfByFund map[string]string
}

// Exporter writes XLSX report artifacts
type Exporter struct {
	logger logger.Logger
}

// NewExporter creates an Exporter
func NewExporter() *Exporter {
	return &Exporter{
		logger: logger.GetGlobalLogger().WithComponent("exporter"),
	}
}

// WriteFull writes the full workbook: debug sheets followed by one formatted
// sheet per fund.
func (e *Exporter) WriteFull(data *ReportData, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := e.buildDebugSheets(f, data); err != nil {
		return errors.ExportError(errors.CodeSheetBuild, path, err)
	}
	if err := e.buildFundSheets(f, data); err != nil {
		return errors.ExportError(errors.CodeSheetBuild, path, err)
	}

	if err := e.saveAtomic(f, path); err != nil {
		return err
	}

	e.logger.WithFields(logger.Fields{
		"path":   path,
		"sheets": len(f.GetSheetList()),
	}).Info("Wrote full report workbook")
	return nil
}

// WriteFundOnly writes the reduced workbook containing only the per-fund
// sheets.
func (e *Exporter) WriteFundOnly(data *ReportData, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := e.buildFundSheets(f, data); err != nil {
		return errors.ExportError(errors.CodeSheetBuild, path, err)
	}
	// Drop the default sheet left over from workbook creation.
	if len(f.GetSheetList()) > 1 {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return errors.ExportError(errors.CodeSheetBuild, path, err)
		}
	}

	if err := e.saveAtomic(f, path); err != nil {
		return err
	}

	e.logger.WithFields(logger.Fields{
		"path":   path,
		"sheets": len(f.GetSheetList()),
	}).Info("Wrote fund-only report workbook")
	return nil
}

// WriteMapping writes the updated chart-of-accounts mapping as a one-sheet
// workbook.
func (e *Exporter) WriteMapping(mapping *models.ReferenceMapping, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", SheetMapping)

	headers := []string{
		loaders.RefColumnAccountName,
		loaders.RefColumnAccountType,
		loaders.RefColumnClassification,
		loaders.RefColumnIsNew,
	}
	if err := e.writeHeaderRow(f, SheetMapping, 1, headers); err != nil {
		return errors.ExportError(errors.CodeSheetBuild, path, err)
	}

	for i, record := range mapping.Records {
		row := i + 2
		f.SetCellValue(SheetMapping, fmt.Sprintf("A%d", row), record.AccountName)
		f.SetCellValue(SheetMapping, fmt.Sprintf("B%d", row), record.AccountType)
		f.SetCellValue(SheetMapping, fmt.Sprintf("C%d", row), record.Classification)
		f.SetCellValue(SheetMapping, fmt.Sprintf("D%d", row), record.IsNewAccount)
	}

	f.SetColWidth(SheetMapping, "A", "A", 40)
	f.SetColWidth(SheetMapping, "B", "D", 20)

	if err := e.saveAtomic(f, path); err != nil {
		return err
	}

	e.logger.WithFields(logger.Fields{
		"path":    path,
		"records": len(mapping.Records),
	}).Info("Wrote updated COA mapping workbook")
	return nil
}

// MappingArtifactPath returns an unused path for the dated mapping artifact.
// Prior versions are never overwritten: a same-day rerun gets a numbered
// suffix instead.
func MappingArtifactPath(dir, runDate string) string {
	base := fmt.Sprintf("COA Mapping Updated %s", runDate)
	path := filepath.Join(dir, base+".xlsx")
	for n := 2; ; n++ {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path
		}
		path = filepath.Join(dir, fmt.Sprintf("%s (%d).xlsx", base, n))
	}
}

func (e *Exporter) buildDebugSheets(f *excelize.File, data *ReportData) error {
	f.SetSheetName("Sheet1", SheetConsolidated)
	if err := e.buildConsolidatedSheet(f, data.Ledger); err != nil {
		return err
	}

	if data.Chart != nil {
		if _, err := f.NewSheet(SheetChartOfAccounts); err != nil {
			return err
		}
		if err := e.buildTableSheet(f, SheetChartOfAccounts, data.Chart); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(SheetMatrix); err != nil {
		return err
	}
	if err := e.buildMatrixSheet(f, data.Matrix); err != nil {
		return err
	}

	if _, err := f.NewSheet(SheetMerged); err != nil {
		return err
	}
	return e.buildMergedSheet(f, data.Merged)
}

func (e *Exporter) buildConsolidatedSheet(f *excelize.File, ledger *models.ConsolidatedLedger) error {
	if err := e.writeHeaderRow(f, SheetConsolidated, 1, ledger.Columns); err != nil {
		return err
	}

	for i, entry := range ledger.Entries {
		row := i + 2
		for j, column := range ledger.Columns {
			cell, err := excelize.CoordinatesToCellName(j+1, row)
			if err != nil {
				return err
			}
			switch column {
			case models.ColumnAccountName:
				f.SetCellValue(SheetConsolidated, cell, entry.AccountName)
			case models.ColumnAccountCode:
				f.SetCellValue(SheetConsolidated, cell, entry.AccountCode)
			case models.ColumnFund:
				f.SetCellValue(SheetConsolidated, cell, entry.Fund)
			case models.ColumnAmount:
				f.SetCellValue(SheetConsolidated, cell, entry.Amount.InexactFloat64())
			case models.ColumnDate:
				f.SetCellValue(SheetConsolidated, cell, entry.Date)
			default:
				f.SetCellValue(SheetConsolidated, cell, entry.Extra[column])
			}
		}
	}
	return nil
}

func (e *Exporter) buildTableSheet(f *excelize.File, sheet string, table *loaders.Table) error {
	if err := e.writeHeaderRow(f, sheet, 1, table.Columns); err != nil {
		return err
	}
	for i, row := range table.Rows {
		for j, value := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				return err
			}
			f.SetCellValue(sheet, cell, value)
		}
	}
	return nil
}

func (e *Exporter) buildMatrixSheet(f *excelize.File, matrix *models.AccountFundMatrix) error {
	funds := matrix.Funds()
	headers := append([]string{"Account"}, funds...)
	if err := e.writeHeaderRow(f, SheetMatrix, 1, headers); err != nil {
		return err
	}

	for i, account := range matrix.Accounts() {
		row := i + 2
		f.SetCellValue(SheetMatrix, fmt.Sprintf("A%d", row), account)
		for j, fund := range funds {
			cell, err := excelize.CoordinatesToCellName(j+2, row)
			if err != nil {
				return err
			}
			f.SetCellValue(SheetMatrix, cell, matrix.Cell(account, fund).InexactFloat64())
		}
	}

	f.SetColWidth(SheetMatrix, "A", "A", 40)
	return nil
}

func (e *Exporter) buildMergedSheet(f *excelize.File, merged *models.MergedTable) error {
	headers := append([]string{
		loaders.RefColumnAccountName,
		loaders.RefColumnAccountType,
		loaders.RefColumnClassification,
	}, merged.Funds...)
	if err := e.writeHeaderRow(f, SheetMerged, 1, headers); err != nil {
		return err
	}

	for i, row := range merged.Rows {
		r := i + 2
		f.SetCellValue(SheetMerged, fmt.Sprintf("A%d", r), row.AccountName)
		f.SetCellValue(SheetMerged, fmt.Sprintf("B%d", r), row.AccountType)
		f.SetCellValue(SheetMerged, fmt.Sprintf("C%d", r), row.Classification)
		for j, amount := range row.Amounts {
			cell, err := excelize.CoordinatesToCellName(j+4, r)
			if err != nil {
				return err
			}
			f.SetCellValue(SheetMerged, cell, amount.InexactFloat64())
		}
	}

	f.SetColWidth(SheetMerged, "A", "A", 40)
	f.SetColWidth(SheetMerged, "B", "C", 20)
	return nil
}

// buildFundSheets writes one formatted sheet per fund segment: a three-row
// header block (fund name, report title, as-of date), the column headers,
// money-formatted data rows and a grand total row after a blank-row gap.
func (e *Exporter) buildFundSheets(f *excelize.File, data *ReportData) error {
	titleStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 12},
	})
	if err != nil {
		return err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return err
	}
	moneyFmt := moneyFormat
	moneyStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &moneyFmt})
	if err != nil {
		return err
	}
	totalStyle, err := f.NewStyle(&excelize.Style{
		Font:         &excelize.Font{Bold: true},
		CustomNumFmt: &moneyFmt,
	})
	if err != nil {
		return err
	}

	for _, segment := range data.Segments {
		sheet := SanitizeSheetName(segment.Fund)
		if _, err := f.NewSheet(sheet); err != nil {
			return err
		}

		asOf := data.AsOfByFund[segment.Fund]

		// Header block: fund name, report title, as-of date.
		f.SetCellValue(sheet, "A1", segment.Fund)
		f.SetCellValue(sheet, "A2", data.Title)
		f.SetCellValue(sheet, "A3", fmt.Sprintf("As of %s", asOf))
		f.SetCellStyle(sheet, "A1", "A2", titleStyle)

		headers := []string{
			loaders.RefColumnAccountName,
			loaders.RefColumnAccountType,
			loaders.RefColumnClassification,
			"Amount",
		}
		for j, header := range headers {
			cell, err := excelize.CoordinatesToCellName(j+1, 4)
			if err != nil {
				return err
			}
			f.SetCellValue(sheet, cell, header)
		}
		f.SetCellStyle(sheet, "A4", "D4", headerStyle)

		for i, row := range segment.Rows {
			r := i + 5
			f.SetCellValue(sheet, fmt.Sprintf("A%d", r), row.AccountName)
			f.SetCellValue(sheet, fmt.Sprintf("B%d", r), row.AccountType)
			f.SetCellValue(sheet, fmt.Sprintf("C%d", r), row.Classification)
			f.SetCellValue(sheet, fmt.Sprintf("D%d", r), row.Amount.InexactFloat64())
			f.SetCellStyle(sheet, fmt.Sprintf("D%d", r), fmt.Sprintf("D%d", r), moneyStyle)
		}

		totalRow := 5 + len(segment.Rows) + grandTotalGap
		f.SetCellValue(sheet, fmt.Sprintf("A%d", totalRow), "Grand Total")
		f.SetCellValue(sheet, fmt.Sprintf("D%d", totalRow), segment.Total().InexactFloat64())
		f.SetCellStyle(sheet, fmt.Sprintf("A%d", totalRow), fmt.Sprintf("A%d", totalRow), totalStyle)
		f.SetCellStyle(sheet, fmt.Sprintf("D%d", totalRow), fmt.Sprintf("D%d", totalRow), totalStyle)

		f.SetColWidth(sheet, "A", "A", 40)
		f.SetColWidth(sheet, "B", "C", 20)
		f.SetColWidth(sheet, "D", "D", 16)
	}

	return nil
}

func (e *Exporter) writeHeaderRow(f *excelize.File, sheet string, row int, headers []string) error {
	for j, header := range headers {
		cell, err := excelize.CoordinatesToCellName(j+1, row)
		if err != nil {
			return err
		}
		f.SetCellValue(sheet, cell, header)
	}

	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return err
	}
	return f.SetRowStyle(sheet, row, row, style)
}

// saveAtomic writes the workbook to a temporary file next to the target and
// renames it into place.
func (e *Exporter) saveAtomic(f *excelize.File, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.ExportError(errors.CodeWorkbookWrite, path, err)
	}

	tmp := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+".tmp")
	w, err := os.Create(tmp)
	if err != nil {
		return errors.ExportError(errors.CodeWorkbookWrite, path, err)
	}
	if err := f.Write(w); err != nil {
		w.Close()
		os.Remove(tmp)
		return errors.ExportError(errors.CodeWorkbookWrite, path, err)
	}
	if err := w.Close(); err != nil {
		os.Remove(tmp)
		return errors.ExportError(errors.CodeWorkbookWrite, path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errors.ExportError(errors.CodeWorkbookWrite, path, err)
	}
	return nil
}

// invalid sheet name characters per the XLSX format
var sheetNameReplacer = strings.NewReplacer(
	":", " ", "\\", " ", "/", " ", "?", " ", "*", " ", "[", " ", "]", " ",
)

// SanitizeSheetName converts a fund name into a valid sheet name: invalid
// characters replaced and length capped at the 31-character sheet limit.
func SanitizeSheetName(name string) string {
	clean := strings.TrimSpace(sheetNameReplacer.Replace(name))
	if clean == "" {
		clean = "Sheet"
	}
	if len(clean) > 31 {
		clean = strings.TrimSpace(clean[:31])
	}
	return clean
}
