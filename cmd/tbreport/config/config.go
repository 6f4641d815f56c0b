// Package config translates CLI flag and config-file values into the
// pipeline's configuration types.
package config

import (
	"path/filepath"

	"trial-balance-reporter/internal/loaders"
	"trial-balance-reporter/internal/locator"
	"trial-balance-reporter/internal/models"
	"trial-balance-reporter/internal/pipeline"
)

// Options carries the resolved settings for one report run
type Options struct {
	DataRoot       string
	ReferencesRoot string
	OutputDir      string
	MappingDir     string
	Year           string
	Month          string
	DataPath       string
	Title          string
}

// CreateLedgerConfig creates the extract parsing configuration with the
// standard column aliases.
func CreateLedgerConfig() *loaders.LedgerConfig {
	return loaders.DefaultLedgerConfig()
}

// CreateHint builds the period location hint from CLI values. An empty
// result means auto-detection.
func CreateHint(opts Options) *locator.Hint {
	if opts.DataPath == "" && opts.Year == "" && opts.Month == "" {
		return nil
	}

	path := opts.DataPath
	if path == "" {
		// The year and month name the period folder under the data root.
		path = filepath.Join(opts.Year, opts.Month)
	}

	year, month := opts.Year, opts.Month
	if year == "" && month == "" {
		// Label the period from the trailing path components.
		month = filepath.Base(path)
		year = filepath.Base(filepath.Dir(path))
	}

	return &locator.Hint{
		Period:   models.Period{Year: year, Month: month},
		DataPath: path,
	}
}

// CreatePipelineConfig builds the pipeline configuration for the run
func CreatePipelineConfig(opts Options) *pipeline.Config {
	cfg := pipeline.DefaultConfig()
	cfg.DataRoot = opts.DataRoot
	cfg.ReferencesRoot = opts.ReferencesRoot
	cfg.OutputDir = opts.OutputDir
	cfg.MappingOutputDir = opts.MappingDir
	cfg.Hint = CreateHint(opts)
	cfg.Ledger = CreateLedgerConfig()
	if opts.Title != "" {
		cfg.ReportTitle = opts.Title
	}
	return cfg
}
