package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"trial-balance-reporter/internal/exporter"
	"trial-balance-reporter/internal/loaders"
	"trial-balance-reporter/internal/locator"
	"trial-balance-reporter/internal/models"
	"trial-balance-reporter/pkg/errors"
	"trial-balance-reporter/pkg/logger"
)

// Default subdirectory names under a resolved period directory
const (
	DefaultLedgerSubdir = "Trial Balance"
	DefaultChartSubdir  = "Chart of Accounts"
)

// Default artifact file names
const (
	FullReportName     = "Trial_Balance.xlsx"
	FundReportName     = "Trial Balance Monthly.xlsx"
	DefaultReportTitle = "Trial Balance"
)

// Config holds everything a run needs. Output paths are a concern of the
// caller; the pipeline only needs a target directory per artifact type.
type Config struct {
	// DataRoot is the directory containing year/month period folders
	DataRoot string

	// ReferencesRoot is the reference store containing one subdirectory per
	// reference table
	ReferencesRoot string

	// OutputDir receives the full and fund-only workbooks
	OutputDir string

	// MappingOutputDir receives the dated mapping artifact when new accounts
	// are found. Defaults to the COA Mapping reference directory so the next
	// run picks the updated table up as latest.
	MappingOutputDir string

	// Hint is the optional externally-supplied period location
	Hint *locator.Hint

	// LedgerSubdir and ChartSubdir name the folders inside a period
	// directory
	LedgerSubdir string
	ChartSubdir  string

	// ReportTitle is the second header line of every fund sheet
	ReportTitle string

	// RunDate stamps the mapping artifact name; zero means now
	RunDate time.Time

	// Ledger configures extract column mapping; nil means defaults
	Ledger *loaders.LedgerConfig
}

// DefaultConfig returns a Config with the standard directory layout
func DefaultConfig() *Config {
	return &Config{
		LedgerSubdir: DefaultLedgerSubdir,
		ChartSubdir:  DefaultChartSubdir,
		ReportTitle:  DefaultReportTitle,
	}
}

// Validate checks the configuration for required settings
func (c *Config) Validate() error {
	if c.DataRoot == "" {
		return errors.ConfigurationError(errors.CodeMissingConfig, "data root", nil, nil)
	}
	if c.ReferencesRoot == "" {
		return errors.ConfigurationError(errors.CodeMissingConfig, "references root", nil, nil)
	}
	if c.OutputDir == "" {
		return errors.ConfigurationError(errors.CodeMissingConfig, "output directory", nil, nil)
	}
	return nil
}

// RunResult summarizes one completed pipeline run
type RunResult struct {
	Period         models.Period     `json:"period"`
	ResolvedPath   string            `json:"resolved_path"`
	ResolutionTier locator.Tier      `json:"resolution_tier"`
	FilesLoaded    int               `json:"files_loaded"`
	RowsProcessed  int               `json:"rows_processed"`
	Accounts       int               `json:"accounts"`
	Funds          int               `json:"funds"`
	NewAccounts    []string          `json:"new_accounts,omitempty"`
	Warnings       []loaders.Warning `json:"warnings,omitempty"`
	FullReport     string            `json:"full_report"`
	FundReport     string            `json:"fund_report"`
	MappingReport  string            `json:"mapping_report,omitempty"`
	Duration       time.Duration     `json:"duration"`
}

// Runner sequences the pipeline stages. Stages run synchronously; each one
// fully materializes its output before the next begins.
type Runner struct {
	config   *Config
	exporter *exporter.Exporter
	logger   logger.Logger
}

// NewRunner creates a Runner for the given configuration
func NewRunner(config *Config) (*Runner, error) {
	if config == nil {
		return nil, errors.ConfigurationError(errors.CodeMissingConfig, "pipeline config", nil, nil)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if config.LedgerSubdir == "" {
		config.LedgerSubdir = DefaultLedgerSubdir
	}
	if config.ChartSubdir == "" {
		config.ChartSubdir = DefaultChartSubdir
	}
	if config.ReportTitle == "" {
		config.ReportTitle = DefaultReportTitle
	}
	if config.MappingOutputDir == "" {
		config.MappingOutputDir = filepath.Join(config.ReferencesRoot, loaders.COAMappingTable)
	}

	return &Runner{
		config:   config,
		exporter: exporter.NewExporter(),
		logger:   logger.GetGlobalLogger().WithComponent("pipeline"),
	}, nil
}

// Run executes one full pipeline pass for a single reporting period. Fatal
// conditions abort the run before any output is written; non-fatal findings
// are aggregated into the result's warning list.
func (r *Runner) Run(ctx context.Context) (*RunResult, error) {
	start := time.Now()
	result := &RunResult{}

	// Stage 1: resolve the period directory.
	resolution, err := locator.NewResolver(r.config.DataRoot).Resolve(r.config.Hint)
	if err != nil {
		return nil, err
	}
	result.Period = resolution.Period
	result.ResolvedPath = resolution.Path
	result.ResolutionTier = resolution.Tier

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stage 2: load daily extracts and the chart of accounts.
	ledgerLoader, err := loaders.NewLedgerLoader(r.config.Ledger)
	if err != nil {
		return nil, err
	}

	set, warnings, err := ledgerLoader.LoadDailyExtracts(filepath.Join(resolution.Path, r.config.LedgerSubdir))
	result.Warnings = append(result.Warnings, warnings...)
	if err != nil {
		return nil, err
	}
	result.FilesLoaded = len(set.ByDate)

	chart, chartWarnings, err := ledgerLoader.LoadChartOfAccounts(filepath.Join(resolution.Path, r.config.ChartSubdir))
	result.Warnings = append(result.Warnings, chartWarnings...)
	if err != nil {
		return nil, err
	}

	// Stage 3: load reference tables. The COA mapping is required; the
	// portfolio mapping is optional and degrades to a warning.
	refLoader := loaders.NewReferenceLoader(r.config.ReferencesRoot)

	mapping, err := refLoader.LoadCOAMapping()
	if err != nil {
		return nil, err
	}

	if _, err := refLoader.LoadPortfolioMapping(); err != nil {
		r.logger.WithError(err).Warn("Portfolio mapping unavailable, continuing without it")
		result.Warnings = append(result.Warnings, loaders.Warning{
			Path:   refLoader.TableDir(loaders.PortfolioMappingTable),
			Reason: "portfolio mapping unavailable",
		})
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stage 4: consolidate.
	ledger := Consolidate(set)
	if ledger.RowCount() != set.TotalRows() {
		return nil, errors.InternalError(errors.CodeUnexpectedError, "consolidation",
			fmt.Errorf("row count mismatch: consolidated %d, loaded %d", ledger.RowCount(), set.TotalRows()))
	}
	result.RowsProcessed = ledger.RowCount()

	// Stage 5: aggregate into the account-by-fund matrix.
	matrix := Aggregate(ledger)
	result.Accounts = len(matrix.Accounts())
	result.Funds = len(matrix.Funds())

	// Stage 6: reconcile against the COA mapping. New accounts drive a side
	// export; they are a data-quality signal, not an error.
	reconciled := Reconcile(matrix, mapping)
	result.NewAccounts = reconciled.NewAccounts

	runDate := r.config.RunDate
	if runDate.IsZero() {
		runDate = time.Now()
	}

	if reconciled.Dirty {
		mappingPath := exporter.MappingArtifactPath(r.config.MappingOutputDir, runDate.Format(models.ISODateLayout))
		if err := r.exporter.WriteMapping(reconciled.Mapping, mappingPath); err != nil {
			return nil, err
		}
		result.MappingReport = mappingPath

		r.logger.WithFields(logger.Fields{
			"new_accounts": len(reconciled.NewAccounts),
			"artifact":     mappingPath,
		}).Warn("New accounts detected, updated COA mapping exported")
	}

	// Stage 7: merge and segment.
	merged := Merge(matrix, reconciled.Mapping)
	segments := Segment(merged)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stage 8: export the workbooks.
	data := &exporter.ReportData{
		Period:     resolution.Period,
		Title:      r.reportTitle(resolution.Period),
		Ledger:     ledger,
		Chart:      chart,
		Matrix:     matrix,
		Merged:     merged,
		Segments:   segments,
		AsOfByFund: ledger.LatestDateByFund(),
	}

	fullPath := filepath.Join(r.config.OutputDir, FullReportName)
	if err := r.exporter.WriteFull(data, fullPath); err != nil {
		return nil, err
	}
	result.FullReport = fullPath

	fundPath := filepath.Join(r.config.OutputDir, FundReportName)
	if err := r.exporter.WriteFundOnly(data, fundPath); err != nil {
		return nil, err
	}
	result.FundReport = fundPath

	result.Duration = time.Since(start)

	r.logger.WithFields(logger.Fields{
		"period":       result.Period.String(),
		"files":        result.FilesLoaded,
		"rows":         result.RowsProcessed,
		"accounts":     result.Accounts,
		"funds":        result.Funds,
		"new_accounts": len(result.NewAccounts),
		"warnings":     len(result.Warnings),
		"duration":     result.Duration.String(),
	}).Info("Pipeline run complete")

	return result, nil
}

func (r *Runner) reportTitle(period models.Period) string {
	if period.IsZero() {
		return r.config.ReportTitle
	}
	return fmt.Sprintf("%s %s", r.config.ReportTitle, period.String())
}
