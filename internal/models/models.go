// Package models defines the value objects passed between pipeline stages:
// the reporting period, daily trial balance extracts, the consolidated
// ledger, the account-by-fund matrix, the chart-of-accounts reference
// mapping and per-fund report segments.
//
// Tables are treated as immutable once produced; each stage returns a new
// value rather than mutating its input.
package models

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Canonical column names for trial balance extracts. Source files may use
// aliases; loaders normalize headers onto these before building entries.
const (
	ColumnAccountName = "accountname"
	ColumnAccountCode = "acctcode"
	ColumnFund        = "level1accountname"
	ColumnAmount      = "netamt"
	ColumnDate        = "Date"
)

// ExtractDateLayout is the date token embedded in daily extract file names,
// e.g. "09-15-2025.csv".
const ExtractDateLayout = "01-02-2006"

// ISODateLayout is the key format for consolidated dates.
const ISODateLayout = "2006-01-02"

// Period identifies the reporting window processed by one run. Month is held
// as the folder name used by the input layout (e.g. "September").
type Period struct {
	Year  string `json:"year"`
	Month string `json:"month"`
}

// String returns a human-readable representation of the Period
func (p Period) String() string {
	return fmt.Sprintf("%s %s", p.Month, p.Year)
}

// IsZero reports whether the period has not been set
func (p Period) IsZero() bool {
	return p.Year == "" && p.Month == ""
}

// Entry represents one trial balance row from a daily extract. Columns the
// base schema does not know about are preserved in Extra so they survive
// consolidation untouched.
type Entry struct {
	AccountName string            `json:"accountname"`
	AccountCode string            `json:"acctcode"`
	Fund        string            `json:"level1accountname"`
	Amount      decimal.Decimal   `json:"netamt"`
	Extra       map[string]string `json:"extra,omitempty"`
}

// Validate performs basic validation on the Entry
func (e *Entry) Validate() error {
	if strings.TrimSpace(e.AccountName) == "" {
		return fmt.Errorf("account name cannot be empty")
	}
	if strings.TrimSpace(e.Fund) == "" {
		return fmt.Errorf("fund cannot be empty")
	}
	return nil
}

// DailyExtract holds all rows of one per-day extract file. Columns keeps the
// source header order so pass-through columns can be re-emitted faithfully.
type DailyExtract struct {
	Date    string   `json:"date"` // ISO form, parsed from the file name
	Source  string   `json:"source"`
	Columns []string `json:"columns"`
	Entries []Entry  `json:"entries"`
}

// RowCount returns the number of entries in the extract
func (d *DailyExtract) RowCount() int {
	return len(d.Entries)
}

// ConsolidatedEntry is an Entry annotated with the date of the extract it
// came from.
type ConsolidatedEntry struct {
	Entry
	Date string `json:"date"`
}

// ConsolidatedLedger is the union of all daily extracts for a period, in
// ascending date order with original in-file row order preserved.
type ConsolidatedLedger struct {
	Columns []string            `json:"columns"`
	Entries []ConsolidatedEntry `json:"entries"`
}

// RowCount returns the number of consolidated entries
func (c *ConsolidatedLedger) RowCount() int {
	return len(c.Entries)
}

// DateRange returns the earliest and latest dates present in the ledger
func (c *ConsolidatedLedger) DateRange() (string, string) {
	if len(c.Entries) == 0 {
		return "", ""
	}
	min, max := c.Entries[0].Date, c.Entries[0].Date
	for _, e := range c.Entries[1:] {
		if e.Date < min {
			min = e.Date
		}
		if e.Date > max {
			max = e.Date
		}
	}
	return min, max
}

// LatestDateByFund returns, per fund, the most recent date with at least one
// row for that fund. Used for the as-of date in fund sheet headers.
func (c *ConsolidatedLedger) LatestDateByFund() map[string]string {
	latest := make(map[string]string)
	for _, e := range c.Entries {
		if e.Date > latest[e.Fund] {
			latest[e.Fund] = e.Date
		}
	}
	return latest
}

// AccountFundMatrix is a dense pivot of the consolidated ledger: one row per
// distinct account, one column per distinct fund, cells holding the exact
// decimal sum of matching rows. Absent combinations hold zero.
type AccountFundMatrix struct {
	accounts []string
	funds    []string
	cells    map[string]map[string]decimal.Decimal
}

// NewAccountFundMatrix creates an empty matrix
func NewAccountFundMatrix() *AccountFundMatrix {
	return &AccountFundMatrix{
		cells: make(map[string]map[string]decimal.Decimal),
	}
}

// Add accumulates amount into the (account, fund) cell, registering the
// account and fund in first-seen order.
func (m *AccountFundMatrix) Add(account, fund string, amount decimal.Decimal) {
	row, ok := m.cells[account]
	if !ok {
		row = make(map[string]decimal.Decimal)
		m.cells[account] = row
		m.accounts = append(m.accounts, account)
	}
	if _, seen := row[fund]; !seen {
		if !m.hasFund(fund) {
			m.funds = append(m.funds, fund)
		}
	}
	row[fund] = row[fund].Add(amount)
}

func (m *AccountFundMatrix) hasFund(fund string) bool {
	for _, f := range m.funds {
		if f == fund {
			return true
		}
	}
	return false
}

// Accounts returns the account names in first-seen order
func (m *AccountFundMatrix) Accounts() []string {
	out := make([]string, len(m.accounts))
	copy(out, m.accounts)
	return out
}

// Funds returns the fund names in sorted order for stable column layout
func (m *AccountFundMatrix) Funds() []string {
	out := make([]string, len(m.funds))
	copy(out, m.funds)
	sort.Strings(out)
	return out
}

// Cell returns the summed amount for (account, fund), zero when the
// combination never appeared in the ledger.
func (m *AccountFundMatrix) Cell(account, fund string) decimal.Decimal {
	if row, ok := m.cells[account]; ok {
		return row[fund]
	}
	return decimal.Zero
}

// AccountSet returns the matrix accounts as a set keyed by name
func (m *AccountFundMatrix) AccountSet() map[string]struct{} {
	set := make(map[string]struct{}, len(m.accounts))
	for _, a := range m.accounts {
		set[a] = struct{}{}
	}
	return set
}

// NonzeroTotal returns the exact sum of all nonzero cells
func (m *AccountFundMatrix) NonzeroTotal() decimal.Decimal {
	total := decimal.Zero
	for _, row := range m.cells {
		for _, amount := range row {
			total = total.Add(amount)
		}
	}
	return total
}

// ReferenceRecord is one row of the chart-of-accounts classification
// mapping.
type ReferenceRecord struct {
	AccountName    string `json:"account_name"`
	AccountType    string `json:"account_type"`
	Classification string `json:"classification"`
	IsNewAccount   bool   `json:"is_new_account"`
}

// ReferenceMapping is the ordered chart-of-accounts classification table.
// Order is load order; the reconciler appends new records after existing
// ones and never reorders.
type ReferenceMapping struct {
	Records []ReferenceRecord `json:"records"`
}

// AccountSet returns the mapped account names as a set
func (rm *ReferenceMapping) AccountSet() map[string]struct{} {
	set := make(map[string]struct{}, len(rm.Records))
	for _, r := range rm.Records {
		set[r.AccountName] = struct{}{}
	}
	return set
}

// Lookup returns the record for an account name, if present
func (rm *ReferenceMapping) Lookup(account string) (ReferenceRecord, bool) {
	for _, r := range rm.Records {
		if r.AccountName == account {
			return r, true
		}
	}
	return ReferenceRecord{}, false
}

// MergedRow is one account row of the merged matrix+classification table
type MergedRow struct {
	AccountName    string            `json:"account_name"`
	AccountType    string            `json:"account_type"`
	Classification string            `json:"classification"`
	Amounts        []decimal.Decimal `json:"amounts"` // parallel to MergedTable.Funds
}

// MergedTable joins the account-fund matrix with classification fields,
// keeping the matrix's account order and fund column order.
type MergedTable struct {
	Funds []string    `json:"funds"`
	Rows  []MergedRow `json:"rows"`
}

// SegmentRow is one line of a per-fund report sheet
type SegmentRow struct {
	AccountName    string          `json:"account_name"`
	AccountType    string          `json:"account_type"`
	Classification string          `json:"classification"`
	Amount         decimal.Decimal `json:"amount"`
}

// FundSegment is the per-fund slice of the merged table restricted to
// accounts with a nonzero balance for that fund. A fund with no nonzero
// balances yields a valid segment with zero rows.
type FundSegment struct {
	Fund string       `json:"fund"`
	Rows []SegmentRow `json:"rows"`
}

// Total returns the exact sum of the segment's amount column; this is the
// grand total written at the bottom of the fund sheet.
func (s *FundSegment) Total() decimal.Decimal {
	total := decimal.Zero
	for _, r := range s.Rows {
		total = total.Add(r.Amount)
	}
	return total
}

// ParseAmount parses a decimal amount from source text, tolerating currency
// symbols, thousand separators and accounting-style parentheses for
// negatives. An empty string parses as zero, matching how sparse trial
// balance extracts represent no activity.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal format '%s': %w", s, err)
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

// ParseExtractDate parses the MM-DD-YYYY token of a daily extract file name
// and returns the ISO date key used throughout the pipeline.
func ParseExtractDate(stem string) (string, error) {
	t, err := time.Parse(ExtractDateLayout, stem)
	if err != nil {
		return "", fmt.Errorf("file name '%s' does not encode a MM-DD-YYYY date: %w", stem, err)
	}
	return t.Format(ISODateLayout), nil
}
