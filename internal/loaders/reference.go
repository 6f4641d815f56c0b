package loaders

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"trial-balance-reporter/internal/models"
	"trial-balance-reporter/pkg/errors"
	"trial-balance-reporter/pkg/logger"
)

// Reference table directory names under the references root.
const (
	COAMappingTable       = "COA Mapping"
	PortfolioMappingTable = "Portfolio Mapping"
)

// Header names for COA mapping files. Written artifacts use these exact
// headers; loading accepts them case-insensitively.
const (
	RefColumnAccountName    = "Account Name"
	RefColumnAccountType    = "Account Type"
	RefColumnClassification = "FS Classification"
	RefColumnIsNew          = "Is New Account"
)

// ReferenceLoader reads reference tables from the reference store. Each
// table lives in its own subdirectory; the most recently modified file in it
// is authoritative.
type ReferenceLoader struct {
	root   string
	logger logger.Logger
}

// NewReferenceLoader creates a ReferenceLoader over the references root
func NewReferenceLoader(root string) *ReferenceLoader {
	return &ReferenceLoader{
		root:   root,
		logger: logger.GetGlobalLogger().WithComponent("reference_loader"),
	}
}

// TableDir returns the directory that holds versions of the named table
func (r *ReferenceLoader) TableDir(table string) string {
	return filepath.Join(r.root, table)
}

// LoadLatest loads the most recently modified supported file in the named
// table's directory. Absence is reported with distinguishable codes: the
// caller decides whether a missing table is fatal (COA mapping) or merely a
// warning (portfolio mapping).
func (r *ReferenceLoader) LoadLatest(table string) (*Table, error) {
	dir := r.TableDir(table)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.ReferenceError(errors.CodeReferenceMissing, table, dir, err)
	}

	type candidate struct {
		name string
		mod  int64
	}
	var candidates []candidate
	for _, entry := range entries {
		if entry.IsDir() || !IsSupportedFile(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		candidates = append(candidates, candidate{name: entry.Name(), mod: info.ModTime().UnixNano()})
	}

	if len(candidates) == 0 {
		return nil, errors.ReferenceError(errors.CodeReferenceEmpty, table, dir, nil)
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].mod != candidates[j].mod {
			return candidates[i].mod > candidates[j].mod
		}
		// Ties (same mtime after a bulk copy) fall back to name, newest
		// version tokens sorting last.
		return candidates[i].name > candidates[j].name
	})

	latest := filepath.Join(dir, candidates[0].name)
	loaded, err := ReadTable(latest)
	if err != nil {
		return nil, err
	}

	r.logger.WithFields(logger.Fields{
		"table": table,
		"file":  candidates[0].name,
		"rows":  loaded.RowCount(),
	}).Info("Loaded reference table")

	return loaded, nil
}

// LoadCOAMapping loads and parses the chart-of-accounts classification
// mapping. The table being entirely absent is an error the reconciler treats
// as fatal; a present-but-empty table parses to zero records, which the
// reconciler treats as "all accounts are new".
func (r *ReferenceLoader) LoadCOAMapping() (*models.ReferenceMapping, error) {
	table, err := r.LoadLatest(COAMappingTable)
	if err != nil {
		return nil, err
	}
	return ParseReferenceMapping(table)
}

// LoadPortfolioMapping loads the fund/portfolio mapping as a raw table. It
// is an optional input; callers downgrade its absence to a warning.
func (r *ReferenceLoader) LoadPortfolioMapping() (*Table, error) {
	return r.LoadLatest(PortfolioMappingTable)
}

// ParseReferenceMapping converts a loaded COA mapping table into the ordered
// record list, preserving file order.
func ParseReferenceMapping(table *Table) (*models.ReferenceMapping, error) {
	nameIdx := table.ColumnIndex(RefColumnAccountName)
	if nameIdx < 0 {
		nameIdx = table.ColumnIndex(models.ColumnAccountName)
	}
	if nameIdx < 0 {
		return nil, errors.ParseError(errors.CodeMissingColumn, table.Source, 1, RefColumnAccountName, "", nil)
	}

	typeIdx := table.ColumnIndex(RefColumnAccountType)
	classIdx := table.ColumnIndex(RefColumnClassification)
	newIdx := table.ColumnIndex(RefColumnIsNew)

	mapping := &models.ReferenceMapping{}
	for row := range table.Rows {
		name := strings.TrimSpace(table.Cell(row, nameIdx))
		if name == "" {
			continue
		}
		record := models.ReferenceRecord{
			AccountName:    name,
			AccountType:    strings.TrimSpace(table.Cell(row, typeIdx)),
			Classification: strings.TrimSpace(table.Cell(row, classIdx)),
		}
		if newIdx >= 0 {
			record.IsNewAccount = parseFlag(table.Cell(row, newIdx))
		}
		mapping.Records = append(mapping.Records, record)
	}

	return mapping, nil
}

func parseFlag(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "y", "1":
		return true
	default:
		return false
	}
}
