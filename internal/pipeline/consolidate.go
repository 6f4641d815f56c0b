// Package pipeline implements the consolidation and reconciliation engine:
// union of daily extracts, the account-by-fund aggregation, the set-difference
// reconciliation against the chart-of-accounts mapping, per-fund segmentation
// and the driver that sequences the stages.
package pipeline

import (
	"trial-balance-reporter/internal/loaders"
	"trial-balance-reporter/internal/models"
)

// Consolidate unions all daily extracts into one ledger. Files are taken in
// ascending date order, in-file row order is preserved and every row is
// annotated with its extract date. No deduplication happens here; duplicate
// rows are summed later by the aggregator.
//
// The output row count always equals the sum of the inputs' row counts.
func Consolidate(set *loaders.LedgerSet) *models.ConsolidatedLedger {
	ledger := &models.ConsolidatedLedger{}

	// Column order: first extract's columns, then columns first seen in
	// later extracts, then the date annotation.
	seen := make(map[string]bool)
	for _, date := range set.Dates() {
		for _, column := range set.ByDate[date].Columns {
			if !seen[column] {
				seen[column] = true
				ledger.Columns = append(ledger.Columns, column)
			}
		}
	}
	ledger.Columns = append(ledger.Columns, models.ColumnDate)

	for _, date := range set.Dates() {
		extract := set.ByDate[date]
		for _, entry := range extract.Entries {
			ledger.Entries = append(ledger.Entries, models.ConsolidatedEntry{
				Entry: entry,
				Date:  date,
			})
		}
	}

	return ledger
}
