package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"trial-balance-reporter/cmd/tbreport/config"
	"trial-balance-reporter/internal/locator"
	"trial-balance-reporter/internal/pipeline"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the report command
var (
	dataRoot       string
	referencesRoot string
	outputDir      string
	mappingDir     string
	periodYear     string
	periodMonth    string
	dataPath       string
	reportTitle    string
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Build the trial balance reports for one period",
	Long: `Report runs the full pipeline for a single reporting period: it locates
the period folder, loads the daily trial balance extracts and the chart of
accounts, consolidates and aggregates them, reconciles account names against
the COA mapping and writes the report workbooks.

The period folder is auto-detected (newest year, most recently modified
month) unless --year/--month or --data-path pin it explicitly.

Examples:
  # Auto-detect the current period
  tbreport report --data-root /srv/ledger --references-root /srv/references --output-dir ./out

  # Pin the period by name
  tbreport report --data-root /srv/ledger --references-root /srv/references \
    --output-dir ./out --year 2025 --month September

  # Pin the period by path (absolute or relative to the data root)
  tbreport report --data-root /srv/ledger --references-root /srv/references \
    --output-dir ./out --data-path 2025/September

  # Settings from a run_config.json file
  tbreport report --config run_config.json --references-root /srv/references --output-dir ./out`,

	PreRunE: validateReportFlags,
	RunE:    runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	// Required flags
	reportCmd.Flags().StringVarP(&dataRoot, "data-root", "r", "", "root directory of the ledger extract tree (required)")
	reportCmd.Flags().StringVar(&referencesRoot, "references-root", "", "root directory of the reference tables (required)")

	// Output flags
	reportCmd.Flags().StringVarP(&outputDir, "output-dir", "o", ".", "directory for the report workbooks")
	reportCmd.Flags().StringVar(&mappingDir, "mapping-dir", "", "directory for the updated COA mapping artifact (default: the COA Mapping reference directory)")
	reportCmd.Flags().StringVar(&reportTitle, "title", "", "report title line on the fund sheets (default derived from the period)")

	// Period selection flags
	reportCmd.Flags().StringVar(&periodYear, "year", "", "reporting year, e.g. 2025 (with --month, overrides auto-detection)")
	reportCmd.Flags().StringVar(&periodMonth, "month", "", "reporting month folder name, e.g. September")
	reportCmd.Flags().StringVar(&dataPath, "data-path", "", "period directory, absolute or relative to the data root (overrides auto-detection)")

	// Bind flags to viper
	viper.BindPFlag("data-root", reportCmd.Flags().Lookup("data-root"))
	viper.BindPFlag("references-root", reportCmd.Flags().Lookup("references-root"))
	viper.BindPFlag("output-dir", reportCmd.Flags().Lookup("output-dir"))
	viper.BindPFlag("mapping-dir", reportCmd.Flags().Lookup("mapping-dir"))
	viper.BindPFlag("title", reportCmd.Flags().Lookup("title"))
	viper.BindPFlag("year", reportCmd.Flags().Lookup("year"))
	viper.BindPFlag("month", reportCmd.Flags().Lookup("month"))
	viper.BindPFlag("data-path", reportCmd.Flags().Lookup("data-path"))
}

// setting returns the first non-empty viper value among the given keys.
// Config files use underscore keys (run_config.json), flags use dashes.
func setting(keys ...string) string {
	for _, key := range keys {
		if value := viper.GetString(key); value != "" {
			return value
		}
	}
	return ""
}

func validateReportFlags(cmd *cobra.Command, args []string) error {
	// Get values from viper (allows override from config file)
	dataRoot = setting("data-root", "data_root")
	referencesRoot = setting("references-root", "references_root")
	outputDir = setting("output-dir", "output_dir")
	mappingDir = setting("mapping-dir", "mapping_dir")
	reportTitle = setting("title")
	periodYear = setting("year")
	periodMonth = setting("month")
	dataPath = setting("data-path", "data_path")

	// Validate required flags
	if dataRoot == "" {
		return fmt.Errorf("data-root is required")
	}
	if referencesRoot == "" {
		return fmt.Errorf("references-root is required")
	}
	if outputDir == "" {
		return fmt.Errorf("output-dir is required")
	}

	// Year and month only make sense as a pair
	if (periodYear == "") != (periodMonth == "") && dataPath == "" {
		return fmt.Errorf("year and month must be used together")
	}

	// Validate directory existence
	if err := validateDirExists(dataRoot, "data root"); err != nil {
		return err
	}
	if err := validateDirExists(referencesRoot, "references root"); err != nil {
		return err
	}

	return nil
}

func validateDirExists(path, description string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("%s does not exist: %s", description, path)
	}
	if err != nil {
		return fmt.Errorf("error accessing %s: %w", description, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory: %s", description, path)
	}
	return nil
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Starting report run...\n")
		fmt.Fprintf(os.Stderr, "Data root: %s\n", dataRoot)
		fmt.Fprintf(os.Stderr, "References root: %s\n", referencesRoot)
		fmt.Fprintf(os.Stderr, "Output directory: %s\n", outputDir)
		if dataPath != "" {
			fmt.Fprintf(os.Stderr, "Period path: %s\n", dataPath)
		} else if periodYear != "" {
			fmt.Fprintf(os.Stderr, "Period: %s %s\n", periodMonth, periodYear)
		}
	}

	cfg := config.CreatePipelineConfig(config.Options{
		DataRoot:       dataRoot,
		ReferencesRoot: referencesRoot,
		OutputDir:      outputDir,
		MappingDir:     mappingDir,
		Year:           periodYear,
		Month:          periodMonth,
		DataPath:       dataPath,
		Title:          reportTitle,
	})

	runner, err := pipeline.NewRunner(cfg)
	if err != nil {
		return err
	}

	result, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	printRunSummary(result)
	return nil
}

// printRunSummary writes the human-readable completion summary
func printRunSummary(result *pipeline.RunResult) {
	for _, warning := range result.Warnings {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", warning)
	}

	fmt.Printf("Period: %s %s", result.Period.Month, result.Period.Year)
	if result.ResolutionTier == locator.TierAutoDetect {
		fmt.Printf(" (auto-detected)")
	}
	fmt.Println()

	fmt.Printf("Loaded %d extract files, %d rows, %d accounts across %d funds.\n",
		result.FilesLoaded, result.RowsProcessed, result.Accounts, result.Funds)

	if len(result.NewAccounts) > 0 {
		fmt.Printf("Found %d new accounts needing classification:\n", len(result.NewAccounts))
		for _, account := range result.NewAccounts {
			fmt.Printf("  - %s\n", account)
		}
		fmt.Printf("Updated mapping written to: %s\n", result.MappingReport)
	}

	fmt.Printf("Full report: %s\n", result.FullReport)
	fmt.Printf("Fund report: %s\n", result.FundReport)
	fmt.Printf("Completed in %v.\n", result.Duration.Round(time.Millisecond))
}
