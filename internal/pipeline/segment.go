package pipeline

import (
	"trial-balance-reporter/internal/models"
)

// Merge joins the account-by-fund matrix with classification fields from the
// mapping, keeping the matrix's account row order and fund column order.
// Accounts missing from the mapping get blank classification fields; after a
// dirty reconcile the updated mapping covers every account.
func Merge(matrix *models.AccountFundMatrix, mapping *models.ReferenceMapping) *models.MergedTable {
	funds := matrix.Funds()
	merged := &models.MergedTable{Funds: funds}

	for _, account := range matrix.Accounts() {
		row := models.MergedRow{AccountName: account}
		if record, ok := mapping.Lookup(account); ok {
			row.AccountType = record.AccountType
			row.Classification = record.Classification
		}
		for _, fund := range funds {
			row.Amounts = append(row.Amounts, matrix.Cell(account, fund))
		}
		merged.Rows = append(merged.Rows, row)
	}

	return merged
}

// Segment slices the merged table into one segment per fund, limited to rows
// with a nonzero amount for that fund, in the original account order. A fund
// whose balances are all zero yields a valid segment with no rows.
func Segment(merged *models.MergedTable) []models.FundSegment {
	segments := make([]models.FundSegment, 0, len(merged.Funds))

	for fundIdx, fund := range merged.Funds {
		segment := models.FundSegment{Fund: fund}
		for _, row := range merged.Rows {
			amount := row.Amounts[fundIdx]
			if amount.IsZero() {
				continue
			}
			segment.Rows = append(segment.Rows, models.SegmentRow{
				AccountName:    row.AccountName,
				AccountType:    row.AccountType,
				Classification: row.Classification,
				Amount:         amount,
			})
		}
		segments = append(segments, segment)
	}

	return segments
}
