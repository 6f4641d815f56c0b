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

// LedgerConfig holds configuration for loading daily trial balance extracts
type LedgerConfig struct {
	AccountNameColumn string
	AccountCodeColumn string
	FundColumn        string
	AmountColumn      string

	// ColumnAliases maps alternative source headers onto canonical columns,
	// so heterogeneous extracts land on the same base schema.
	ColumnAliases map[string]string
}

// DefaultLedgerConfig returns a configuration matching the standard trial
// balance extract layout.
func DefaultLedgerConfig() *LedgerConfig {
	return &LedgerConfig{
		AccountNameColumn: models.ColumnAccountName,
		AccountCodeColumn: models.ColumnAccountCode,
		FundColumn:        models.ColumnFund,
		AmountColumn:      models.ColumnAmount,
		ColumnAliases: map[string]string{
			"account":        models.ColumnAccountName,
			"account name":   models.ColumnAccountName,
			"account_name":   models.ColumnAccountName,
			"glaccountname":  models.ColumnAccountName,
			"account code":   models.ColumnAccountCode,
			"account_code":   models.ColumnAccountCode,
			"accountcode":    models.ColumnAccountCode,
			"fund":           models.ColumnFund,
			"portfolio":      models.ColumnFund,
			"fund name":      models.ColumnFund,
			"amount":         models.ColumnAmount,
			"net amount":     models.ColumnAmount,
			"net_amount":     models.ColumnAmount,
			"netamount":      models.ColumnAmount,
		},
	}
}

// Validate checks the configuration for completeness
func (c *LedgerConfig) Validate() error {
	if c.AccountNameColumn == "" {
		return errors.ConfigurationError(errors.CodeMissingConfig, "account name column", nil, nil)
	}
	if c.FundColumn == "" {
		return errors.ConfigurationError(errors.CodeMissingConfig, "fund column", nil, nil)
	}
	if c.AmountColumn == "" {
		return errors.ConfigurationError(errors.CodeMissingConfig, "amount column", nil, nil)
	}
	return nil
}

// LedgerSet is the result of loading a period directory: one extract per
// calendar date, keyed by ISO date.
type LedgerSet struct {
	ByDate map[string]*models.DailyExtract
}

// Dates returns the loaded dates in ascending order
func (ls *LedgerSet) Dates() []string {
	dates := make([]string, 0, len(ls.ByDate))
	for date := range ls.ByDate {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates
}

// TotalRows returns the sum of all extracts' row counts
func (ls *LedgerSet) TotalRows() int {
	total := 0
	for _, extract := range ls.ByDate {
		total += extract.RowCount()
	}
	return total
}

// LedgerLoader reads all per-day extract files in a resolved period
// directory.
type LedgerLoader struct {
	config *LedgerConfig
	logger logger.Logger
}

// NewLedgerLoader creates a LedgerLoader with the given configuration
func NewLedgerLoader(config *LedgerConfig) (*LedgerLoader, error) {
	if config == nil {
		config = DefaultLedgerConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &LedgerLoader{
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("ledger_loader"),
	}, nil
}

// LoadDailyExtracts loads every daily extract file in dir into a LedgerSet.
// Files whose names do not encode a MM-DD-YYYY date are skipped and recorded
// as warnings. Zero valid files is the fatal empty-period condition.
func (l *LedgerLoader) LoadDailyExtracts(dir string) (*LedgerSet, []Warning, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, errors.FileError(errors.CodeDirectoryError, dir, err)
	}

	set := &LedgerSet{ByDate: make(map[string]*models.DailyExtract)}
	var warnings []Warning

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		path := filepath.Join(dir, name)
		if !IsSupportedFile(path) {
			warnings = append(warnings, Warning{Path: path, Reason: "unsupported file type, skipped"})
			continue
		}

		stem := strings.TrimSuffix(name, filepath.Ext(name))
		date, err := models.ParseExtractDate(stem)
		if err != nil {
			l.logger.WithField("file", name).Warn("Skipping file without a valid date token")
			warnings = append(warnings, Warning{Path: path, Reason: "file name does not encode a MM-DD-YYYY date, skipped"})
			continue
		}

		extract, err := l.loadExtract(path, date)
		if err != nil {
			return nil, warnings, err
		}

		set.ByDate[date] = extract
		l.logger.WithFields(logger.Fields{
			"file": name,
			"date": date,
			"rows": extract.RowCount(),
		}).Debug("Loaded daily extract")
	}

	if len(set.ByDate) == 0 {
		return nil, warnings, errors.FileError(errors.CodeEmptyPeriod, dir, nil)
	}

	l.logger.WithFields(logger.Fields{
		"directory": dir,
		"files":     len(set.ByDate),
		"rows":      set.TotalRows(),
	}).Info("Loaded daily trial balance extracts")

	return set, warnings, nil
}

// loadExtract reads one daily file and maps its rows onto the base schema,
// preserving unrecognized columns in the Extra bag.
func (l *LedgerLoader) loadExtract(path, date string) (*models.DailyExtract, error) {
	table, err := ReadTable(path)
	if err != nil {
		return nil, err
	}

	canonical := l.canonicalColumns(table.Columns)

	required := map[string]string{
		l.config.AccountNameColumn: "account name",
		l.config.FundColumn:        "fund",
		l.config.AmountColumn:      "amount",
	}
	indexes := make(map[string]int)
	for column := range required {
		idx := -1
		for i, c := range canonical {
			if c == column {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, errors.ParseError(errors.CodeMissingColumn, path, 1, column, "", nil)
		}
		indexes[column] = idx
	}

	codeIdx := -1
	for i, c := range canonical {
		if c == l.config.AccountCodeColumn {
			codeIdx = i
			break
		}
	}

	// Extracts carry canonicalized column names so downstream stages and the
	// exporter agree on headers without re-running alias resolution.
	extract := &models.DailyExtract{
		Date:    date,
		Source:  path,
		Columns: canonical,
	}

	for rowIdx, row := range table.Rows {
		amount, err := models.ParseAmount(row[indexes[l.config.AmountColumn]])
		if err != nil {
			return nil, errors.ParseError(errors.CodeInvalidAmount, path, rowIdx+2,
				l.config.AmountColumn, row[indexes[l.config.AmountColumn]], err)
		}

		entry := models.Entry{
			AccountName: strings.TrimSpace(row[indexes[l.config.AccountNameColumn]]),
			Fund:        strings.TrimSpace(row[indexes[l.config.FundColumn]]),
			Amount:      amount,
		}
		if codeIdx >= 0 {
			entry.AccountCode = strings.TrimSpace(row[codeIdx])
		}

		for i, cell := range row {
			switch canonical[i] {
			case l.config.AccountNameColumn, l.config.AccountCodeColumn,
				l.config.FundColumn, l.config.AmountColumn:
				continue
			}
			if entry.Extra == nil {
				entry.Extra = make(map[string]string)
			}
			entry.Extra[canonical[i]] = cell
		}

		extract.Entries = append(extract.Entries, entry)
	}

	return extract, nil
}

// canonicalColumns maps source headers onto canonical column names using the
// alias table; unknown headers pass through unchanged.
func (l *LedgerLoader) canonicalColumns(headers []string) []string {
	out := make([]string, len(headers))
	for i, header := range headers {
		key := strings.ToLower(strings.TrimSpace(header))
		if alias, ok := l.config.ColumnAliases[key]; ok {
			out[i] = alias
			continue
		}
		out[i] = key
	}
	return out
}

// LoadChartOfAccounts loads the single classification file from the adjacent
// subdirectory. When the directory holds more than one candidate, the first
// by name wins and the rest are warned. A missing directory or an empty one
// is a warning, not an error; the chart is a debug artifact, not an input to
// reconciliation.
func (l *LedgerLoader) LoadChartOfAccounts(dir string) (*Table, []Warning, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, []Warning{{Path: dir, Reason: "chart of accounts directory not found"}}, nil
	}

	var candidates []string
	for _, entry := range entries {
		if !entry.IsDir() && IsSupportedFile(entry.Name()) {
			candidates = append(candidates, entry.Name())
		}
	}
	sort.Strings(candidates)

	if len(candidates) == 0 {
		return nil, []Warning{{Path: dir, Reason: "no chart of accounts file found"}}, nil
	}

	var warnings []Warning
	for _, extra := range candidates[1:] {
		warnings = append(warnings, Warning{
			Path:   filepath.Join(dir, extra),
			Reason: "multiple chart of accounts files, ignored in favor of " + candidates[0],
		})
	}

	path := filepath.Join(dir, candidates[0])
	table, err := ReadTable(path)
	if err != nil {
		return nil, warnings, err
	}

	l.logger.WithFields(logger.Fields{
		"file": candidates[0],
		"rows": table.RowCount(),
	}).Info("Loaded chart of accounts")

	return table, warnings, nil
}
