package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestClassifyTransactionType(t *testing.T) {
	tests := []struct {
		name        string
		description string
		expected    TransactionType
	}{
		{"ach payment", "ACH PAYMENT VENDOR 123", TypeACH},
		{"ach file lowercase", "ach_file batch upload", TypeACH},
		{"check", "CHECK #4521", TypeCheck},
		{"chk abbreviation", "CHK 1002 PAYROLL", TypeCheck},
		{"draft", "BANK DRAFT SETTLEMENT", TypeCheck},
		{"wire", "WIRE TRANSFER IN", TypeWire},
		{"wir abbreviation", "WIR OUT 98821", TypeWire},
		{"deposit", "BRANCH DEPOSIT", TypeDeposit},
		{"dep abbreviation", "DEP REMOTE CAPTURE", TypeDeposit},
		{"fee", "MONTHLY SERVICE FEE", TypeFee},
		{"charge", "MONTHLY CHARGE ASSESSED", TypeFee},
		{"overdraft hits draft keyword", "OVERDRAFT CHARGE", TypeCheck},
		{"unknown", "MISC JOURNAL ENTRY", TypeOther},
		{"empty", "", TypeOther},
		{"ach beats fee when first", "ACH SERVICE PAYMENT", TypeACH},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyTransactionType(tt.description)
			if got != tt.expected {
				t.Errorf("ClassifyTransactionType(%q) = %v, want %v", tt.description, got, tt.expected)
			}
		})
	}
}

func TestNormalizeDescription(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"uppercases", "ach payment", "ACH PAYMENT"},
		{"collapses whitespace", "  WIRE   TRANSFER \t IN ", "WIRE TRANSFER IN"},
		{"empty", "", ""},
		{"only whitespace", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeDescription(tt.input)
			if got != tt.expected {
				t.Errorf("NormalizeDescription(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParseDecimalFromString(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		expected  string
		expectErr bool
	}{
		{"plain", "123.45", "123.45", false},
		{"negative", "-50.00", "-50", false},
		{"currency symbol", "$1,234.56", "1234.56", false},
		{"accounting parens", "(987.65)", "-987.65", false},
		{"whitespace", "  42.00  ", "42", false},
		{"empty", "", "", true},
		{"garbage", "abc", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDecimalFromString(tt.input)
			if tt.expectErr {
				if err == nil {
					t.Errorf("ParseDecimalFromString(%q) expected error, got %s", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDecimalFromString(%q) unexpected error: %v", tt.input, err)
			}
			expected, _ := decimal.NewFromString(tt.expected)
			if !got.Equal(expected) {
				t.Errorf("ParseDecimalFromString(%q) = %s, want %s", tt.input, got, expected)
			}
		})
	}
}

func TestParseDateWithFormats(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		expectErr bool
		year      int
		month     time.Month
		day       int
	}{
		{"iso date", "2024-03-15", false, 2024, time.March, 15},
		{"us date", "03/15/2024", false, 2024, time.March, 15},
		{"rfc3339", "2024-03-15T10:30:00Z", false, 2024, time.March, 15},
		{"month name", "Mar 15, 2024", false, 2024, time.March, 15},
		{"empty", "", true, 0, 0, 0},
		{"garbage", "not-a-date", true, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDateWithFormats(tt.input)
			if tt.expectErr {
				if err == nil {
					t.Errorf("ParseDateWithFormats(%q) expected error, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDateWithFormats(%q) unexpected error: %v", tt.input, err)
			}
			if got.Year() != tt.year || got.Month() != tt.month || got.Day() != tt.day {
				t.Errorf("ParseDateWithFormats(%q) = %v, want %d-%d-%d", tt.input, got, tt.year, tt.month, tt.day)
			}
		})
	}
}

func TestNetAmount(t *testing.T) {
	tests := []struct {
		name     string
		debit    string
		credit   string
		expected string
	}{
		{"debit only", "100.00", "0", "100"},
		{"credit only", "0", "-250.50", "-250.5"},
		{"both signed", "100.00", "-40.00", "60"},
		{"both zero", "0", "0", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			debit, _ := decimal.NewFromString(tt.debit)
			credit, _ := decimal.NewFromString(tt.credit)
			expected, _ := decimal.NewFromString(tt.expected)

			if got := NetAmount(debit, credit); !got.Equal(expected) {
				t.Errorf("NetAmount(%s, %s) = %s, want %s", tt.debit, tt.credit, got, expected)
			}
		})
	}
}

func TestDateDifferenceDays(t *testing.T) {
	tests := []struct {
		name     string
		a        time.Time
		b        time.Time
		expected int
	}{
		{
			"same day",
			time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC),
			time.Date(2024, 3, 15, 23, 59, 0, 0, time.UTC),
			0,
		},
		{
			"three days apart",
			time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
			time.Date(2024, 3, 18, 0, 0, 0, 0, time.UTC),
			3,
		},
		{
			"order independent",
			time.Date(2024, 3, 18, 0, 0, 0, 0, time.UTC),
			time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
			3,
		},
		{
			"across month boundary",
			time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC),
			time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DateDifferenceDays(tt.a, tt.b); got != tt.expected {
				t.Errorf("DateDifferenceDays() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestNewRecord(t *testing.T) {
	amount := decimal.NewFromFloat(1500.00)
	date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	record := NewRecord("GL-1", SideGL, amount, date, "  ach payment  vendor ")

	if record.NormalizedDescription != "ACH PAYMENT VENDOR" {
		t.Errorf("NormalizedDescription = %q, want %q", record.NormalizedDescription, "ACH PAYMENT VENDOR")
	}
	if record.Type != TypeACH {
		t.Errorf("Type = %v, want %v", record.Type, TypeACH)
	}
	if !record.HasDate() {
		t.Error("expected HasDate to be true")
	}
	if !record.HasDescription() {
		t.Error("expected HasDescription to be true")
	}
	if err := record.Validate(); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}
}

func TestRecordValidate(t *testing.T) {
	tests := []struct {
		name      string
		record    *TransactionRecord
		expectErr bool
	}{
		{
			"valid",
			NewRecord("GL-1", SideGL, decimal.NewFromInt(10), time.Time{}, "CHECK 100"),
			false,
		},
		{
			"empty id",
			NewRecord("  ", SideGL, decimal.NewFromInt(10), time.Time{}, ""),
			true,
		},
		{
			"invalid side",
			NewRecord("B-1", Side("OTHER"), decimal.NewFromInt(10), time.Time{}, ""),
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.record.Validate()
			if tt.expectErr && err == nil {
				t.Error("expected validation error, got nil")
			}
			if !tt.expectErr && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestCompareAmountsWithTolerance(t *testing.T) {
	tolerance := decimal.NewFromFloat(0.01)

	tests := []struct {
		name     string
		a        string
		b        string
		expected bool
	}{
		{"equal", "100.00", "100.00", true},
		{"within tolerance", "100.00", "100.01", true},
		{"outside tolerance", "100.00", "100.02", false},
		{"negative amounts", "-100.00", "-100.01", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _ := decimal.NewFromString(tt.a)
			b, _ := decimal.NewFromString(tt.b)
			if got := CompareAmountsWithTolerance(a, b, tolerance); got != tt.expected {
				t.Errorf("CompareAmountsWithTolerance(%s, %s) = %v, want %v", tt.a, tt.b, got, tt.expected)
			}
		})
	}
}
