package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Side identifies which ledger a transaction record belongs to.
type Side string

const (
	// SideGL marks records from the internal general ledger.
	SideGL Side = "GL"
	// SideBank marks records from the external bank statement.
	SideBank Side = "BANK"
)

// String returns the string representation of Side
func (s Side) String() string {
	return string(s)
}

// IsValid checks if the side is valid
func (s Side) IsValid() bool {
	return s == SideGL || s == SideBank
}

// TransactionType is a classified tag derived from the record description.
// Classification happens exactly once, at ingestion.
type TransactionType string

const (
	TypeACH     TransactionType = "ACH"
	TypeCheck   TransactionType = "CHECK"
	TypeWire    TransactionType = "WIRE"
	TypeDeposit TransactionType = "DEPOSIT"
	TypeFee     TransactionType = "FEE"
	TypeOther   TransactionType = "OTHER"
)

// String returns the string representation of TransactionType
func (t TransactionType) String() string {
	return string(t)
}

// typeKeywords maps each transaction type to the description keywords that
// identify it. Evaluation order matters: the first type with a hit wins.
var typeKeywords = []struct {
	transactionType TransactionType
	keywords        []string
}{
	{TypeACH, []string{"ACH", "ACH_ADV", "ACH_FILE"}},
	{TypeCheck, []string{"CHECK", "CHK", "DRAFT"}},
	{TypeWire, []string{"WIRE", "WIR"}},
	{TypeDeposit, []string{"DEP", "DEPOSIT"}},
	{TypeFee, []string{"FEE", "CHARGE", "SERVICE"}},
}

// ClassifyTransactionType derives a transaction type from a free-form
// description by keyword matching against the uppercased text. Descriptions
// that match no keyword classify as OTHER.
func ClassifyTransactionType(description string) TransactionType {
	upper := strings.ToUpper(description)
	for _, entry := range typeKeywords {
		for _, keyword := range entry.keywords {
			if strings.Contains(upper, keyword) {
				return entry.transactionType
			}
		}
	}
	return TypeOther
}

// TransactionRecord is one normalized ledger entry on either side of the
// reconciliation. Records are created from normalized input at the start of a
// run and mutated only by the iteration controller (via the pool's consumed
// flag) while the run is in flight.
type TransactionRecord struct {
	// ID is unique within a side (row index plus side tag); never reused.
	ID string `json:"id"`

	// Side identifies the owning ledger.
	Side Side `json:"side"`

	// SourceAccount is an optional grouping key, present for GL records
	// (the ledger account the entry was consolidated from).
	SourceAccount string `json:"source_account,omitempty"`

	// Amount is the signed net amount (debits plus credits).
	Amount decimal.Decimal `json:"amount"`

	// Date is the calendar date of the entry; the zero value means unknown.
	Date time.Time `json:"date,omitempty"`

	// RawDescription is the description as ingested.
	RawDescription string `json:"raw_description"`

	// NormalizedDescription is uppercased with whitespace collapsed,
	// used by the description-similarity strategy.
	NormalizedDescription string `json:"normalized_description"`

	// Type is the classified transaction type, set once at ingestion.
	Type TransactionType `json:"transaction_type"`
}

// NewRecord builds a TransactionRecord from normalized input, deriving the
// normalized description and transaction type.
func NewRecord(id string, side Side, amount decimal.Decimal, date time.Time, description string) *TransactionRecord {
	return &TransactionRecord{
		ID:                    id,
		Side:                  side,
		Amount:                amount,
		Date:                  date,
		RawDescription:        description,
		NormalizedDescription: NormalizeDescription(description),
		Type:                  ClassifyTransactionType(description),
	}
}

// Validate enforces the input contract: a record must carry an ID and side.
// Amount presence is checked at parse time, before the record exists.
func (r *TransactionRecord) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("transaction record ID cannot be empty")
	}

	if !r.Side.IsValid() {
		return fmt.Errorf("invalid record side: %s", r.Side)
	}

	return nil
}

// HasDate reports whether the record carries a usable date
func (r *TransactionRecord) HasDate() bool {
	return !r.Date.IsZero()
}

// HasDescription reports whether the record carries a non-blank description
func (r *TransactionRecord) HasDescription() bool {
	return strings.TrimSpace(r.RawDescription) != ""
}

// AbsAmount returns the absolute value of the record amount
func (r *TransactionRecord) AbsAmount() decimal.Decimal {
	return r.Amount.Abs()
}

// String returns a string representation of the TransactionRecord
func (r *TransactionRecord) String() string {
	date := "-"
	if r.HasDate() {
		date = r.Date.Format("2006-01-02")
	}
	return fmt.Sprintf("TransactionRecord{ID: %s, Side: %s, Amount: %s, Date: %s, Type: %s}",
		r.ID, r.Side, r.Amount.String(), date, r.Type)
}

// NormalizeDescription uppercases a description and collapses all runs of
// whitespace to single spaces.
func NormalizeDescription(description string) string {
	return strings.Join(strings.Fields(strings.ToUpper(description)), " ")
}

// NetAmount computes the signed net amount of a ledger line from its debit
// and credit columns. Both columns carry their sign as exported, so the net
// is a plain sum; a line with neither column populated nets to zero.
func NetAmount(debit, credit decimal.Decimal) decimal.Decimal {
	return debit.Add(credit)
}

// ParseDecimalFromString parses a decimal value from string with validation
func ParseDecimalFromString(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("amount string cannot be empty")
	}

	// Strip common currency symbols and thousand separators
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	// Accounting notation: (123.45) means -123.45
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = "-" + s[1:len(s)-1]
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal format '%s': %w", s, err)
	}

	return d, nil
}

// ParseDateWithFormats attempts to parse a date from string using multiple
// common formats
func ParseDateWithFormats(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("date string cannot be empty")
	}

	formats := []string{
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02",
		"01/02/2006 15:04:05",
		"01/02/2006",
		"02-01-2006",
		"2006/01/02",
		"Jan 2, 2006",
		"January 2, 2006",
	}

	var lastErr error
	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		} else {
			lastErr = err
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date '%s': %w", s, lastErr)
}

// CompareAmountsWithTolerance compares two decimal amounts with a tolerance
func CompareAmountsWithTolerance(a, b, tolerance decimal.Decimal) bool {
	diff := a.Sub(b).Abs()
	return diff.LessThanOrEqual(tolerance)
}

// DateDifferenceDays returns the absolute whole-day difference between two
// dates, comparing calendar days rather than 24-hour windows.
func DateDifferenceDays(a, b time.Time) int {
	aDay := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bDay := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)

	diff := aDay.Sub(bDay)
	if diff < 0 {
		diff = -diff
	}
	return int(diff.Hours() / 24)
}
