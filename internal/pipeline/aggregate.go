package pipeline

import (
	"trial-balance-reporter/internal/models"
)

// Aggregate pivots the consolidated ledger into a dense account-by-fund
// matrix. Amounts accumulate as exact decimals; no rounding is applied.
// Combinations absent from the ledger read as zero through the matrix.
func Aggregate(ledger *models.ConsolidatedLedger) *models.AccountFundMatrix {
	matrix := models.NewAccountFundMatrix()
	for _, entry := range ledger.Entries {
		matrix.Add(entry.AccountName, entry.Fund, entry.Amount)
	}
	return matrix
}
