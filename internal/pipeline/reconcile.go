package pipeline

import (
	"trial-balance-reporter/internal/models"
)

// ReconcileResult is the outcome of diffing the matrix's account universe
// against the chart-of-accounts mapping.
type ReconcileResult struct {
	// NewAccounts lists accounts present in the data but absent from the
	// mapping, in the matrix's account order.
	NewAccounts []string

	// Mapping is the table to use downstream: the original when clean, the
	// extended and re-flagged table when dirty.
	Mapping *models.ReferenceMapping

	// Dirty reports whether new accounts were found and an updated mapping
	// artifact should be persisted.
	Dirty bool
}

// Reconcile computes the set difference of matrix accounts minus mapped
// accounts. When the difference is empty the mapping passes through
// untouched and nothing is exported. Otherwise a new mapping is built:
// existing records first with IsNewAccount forced false, then one appended
// record per missing account with blank classification fields and
// IsNewAccount true. Original record order is preserved; the operation is
// append-only.
//
// An empty-but-present mapping is handled naturally: every account in the
// matrix is new.
//
// Reconcile is idempotent: running it again against its own output mapping
// yields an empty new-account set.
func Reconcile(matrix *models.AccountFundMatrix, mapping *models.ReferenceMapping) *ReconcileResult {
	known := mapping.AccountSet()

	var newAccounts []string
	for _, account := range matrix.Accounts() {
		if _, ok := known[account]; !ok {
			newAccounts = append(newAccounts, account)
		}
	}

	if len(newAccounts) == 0 {
		return &ReconcileResult{Mapping: mapping}
	}

	updated := &models.ReferenceMapping{
		Records: make([]models.ReferenceRecord, 0, len(mapping.Records)+len(newAccounts)),
	}
	for _, record := range mapping.Records {
		record.IsNewAccount = false
		updated.Records = append(updated.Records, record)
	}
	for _, account := range newAccounts {
		updated.Records = append(updated.Records, models.ReferenceRecord{
			AccountName:  account,
			IsNewAccount: true,
		})
	}

	return &ReconcileResult{
		NewAccounts: newAccounts,
		Mapping:     updated,
		Dirty:       true,
	}
}
