package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"plain", "100.50", "100.5", false},
		{"negative", "-42.10", "-42.1", false},
		{"currency symbol", "$1,234.56", "1234.56", false},
		{"accounting negative", "(250.00)", "-250", false},
		{"empty is zero", "", "0", false},
		{"whitespace is zero", "   ", "0", false},
		{"garbage", "abc", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.String() != tt.want {
				t.Errorf("ParseAmount(%q) = %s, want %s", tt.input, got.String(), tt.want)
			}
		})
	}
}

func TestParseExtractDate(t *testing.T) {
	tests := []struct {
		name    string
		stem    string
		want    string
		wantErr bool
	}{
		{"valid", "09-15-2025", "2025-09-15", false},
		{"first of month", "09-01-2025", "2025-09-01", false},
		{"not a date", "notes", "", true},
		{"wrong order", "2025-09-15", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseExtractDate(tt.stem)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.stem)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseExtractDate(%q) = %s, want %s", tt.stem, got, tt.want)
			}
		})
	}
}

func TestAccountFundMatrix_AddAndCell(t *testing.T) {
	m := NewAccountFundMatrix()
	m.Add("AcctX", "FundA", decimal.NewFromInt(100))
	m.Add("AcctX", "FundA", decimal.NewFromInt(50))
	m.Add("AcctY", "FundB", decimal.NewFromInt(20))

	if got := m.Cell("AcctX", "FundA"); !got.Equal(decimal.NewFromInt(150)) {
		t.Errorf("Cell(AcctX, FundA) = %s, want 150", got)
	}
	// Absent combinations are dense zeros.
	if got := m.Cell("AcctX", "FundB"); !got.IsZero() {
		t.Errorf("Cell(AcctX, FundB) = %s, want 0", got)
	}
	if got := m.Cell("AcctY", "FundA"); !got.IsZero() {
		t.Errorf("Cell(AcctY, FundA) = %s, want 0", got)
	}
	if got := m.Cell("Unknown", "FundA"); !got.IsZero() {
		t.Errorf("Cell(Unknown, FundA) = %s, want 0", got)
	}
}

func TestAccountFundMatrix_AccountOrderFirstSeen(t *testing.T) {
	m := NewAccountFundMatrix()
	m.Add("Cash", "FundA", decimal.NewFromInt(1))
	m.Add("Accounts Payable", "FundA", decimal.NewFromInt(1))
	m.Add("Cash", "FundB", decimal.NewFromInt(1))

	accounts := m.Accounts()
	if len(accounts) != 2 || accounts[0] != "Cash" || accounts[1] != "Accounts Payable" {
		t.Errorf("unexpected account order: %v", accounts)
	}
}

func TestAccountFundMatrix_NonzeroTotal(t *testing.T) {
	m := NewAccountFundMatrix()
	m.Add("AcctX", "FundA", decimal.NewFromInt(150))
	m.Add("AcctY", "FundB", decimal.NewFromInt(20))
	// Offsetting rows net to a zero cell and must not disturb the total.
	m.Add("AcctZ", "FundA", decimal.NewFromInt(30))
	m.Add("AcctZ", "FundA", decimal.NewFromInt(-30))

	if got := m.NonzeroTotal(); !got.Equal(decimal.NewFromInt(170)) {
		t.Errorf("NonzeroTotal() = %s, want 170", got)
	}
}

func TestConsolidatedLedger_LatestDateByFund(t *testing.T) {
	ledger := &ConsolidatedLedger{
		Entries: []ConsolidatedEntry{
			{Entry: Entry{AccountName: "A", Fund: "FundA"}, Date: "2025-09-01"},
			{Entry: Entry{AccountName: "A", Fund: "FundA"}, Date: "2025-09-15"},
			{Entry: Entry{AccountName: "B", Fund: "FundB"}, Date: "2025-09-10"},
		},
	}

	latest := ledger.LatestDateByFund()
	if latest["FundA"] != "2025-09-15" {
		t.Errorf("latest for FundA = %s, want 2025-09-15", latest["FundA"])
	}
	if latest["FundB"] != "2025-09-10" {
		t.Errorf("latest for FundB = %s, want 2025-09-10", latest["FundB"])
	}
}

func TestFundSegment_Total(t *testing.T) {
	seg := &FundSegment{
		Fund: "FundA",
		Rows: []SegmentRow{
			{AccountName: "Cash", Amount: decimal.NewFromFloat(100.25)},
			{AccountName: "Receivables", Amount: decimal.NewFromFloat(-0.25)},
		},
	}

	if got := seg.Total(); !got.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Total() = %s, want 100", got)
	}
}

func TestReferenceMapping_AccountSet(t *testing.T) {
	rm := &ReferenceMapping{Records: []ReferenceRecord{
		{AccountName: "Cash", AccountType: "Asset"},
		{AccountName: "Revenue", AccountType: "Income"},
	}}

	set := rm.AccountSet()
	if len(set) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(set))
	}
	if _, ok := set["Cash"]; !ok {
		t.Error("expected Cash in account set")
	}
}

func TestEntry_Validate(t *testing.T) {
	valid := Entry{AccountName: "Cash", Fund: "FundA"}
	if err := valid.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	missing := Entry{Fund: "FundA"}
	if err := missing.Validate(); err == nil {
		t.Error("expected error for empty account name")
	}
}
