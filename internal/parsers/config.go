package parsers

import (
	"fmt"
	"strings"

	"gl-bank-reconciler/internal/models"
)

// LedgerParserConfig describes how one ledger export maps onto transaction
// records. Amounts come either from a single signed amount column or from
// separate debit and credit columns that are netted; the date column may
// name a fallback for exports that split posting and effective dates.
type LedgerParserConfig struct {
	Side               models.Side       `json:"side"`
	IDColumn           string            `json:"id_column"`
	AccountColumn      string            `json:"account_column,omitempty"`
	DescriptionColumn  string            `json:"description_column"`
	AmountColumn       string            `json:"amount_column,omitempty"`
	DebitColumn        string            `json:"debit_column,omitempty"`
	CreditColumn       string            `json:"credit_column,omitempty"`
	DateColumn         string            `json:"date_column"`
	FallbackDateColumn string            `json:"fallback_date_column,omitempty"`
	HasHeader          bool              `json:"has_header"`
	Delimiter          rune              `json:"delimiter"`
	ColumnAliases      map[string]string `json:"column_aliases,omitempty"`
}

// DefaultGLParserConfig returns the layout of a standard GL activity export:
// debit/credit columns netted into a signed amount, effective date with
// actual date as fallback.
func DefaultGLParserConfig() *LedgerParserConfig {
	return &LedgerParserConfig{
		Side:               models.SideGL,
		IDColumn:           "Transaction_ID",
		AccountColumn:      "GL_Account",
		DescriptionColumn:  "Description",
		DebitColumn:        "Debit",
		CreditColumn:       "Credit",
		DateColumn:         "Effective Date",
		FallbackDateColumn: "Actual Date",
		HasHeader:          true,
		Delimiter:          ',',
		ColumnAliases:      make(map[string]string),
	}
}

// DefaultBankParserConfig returns the layout of a standard bank statement
// export: debit/credit columns netted, posting date.
func DefaultBankParserConfig() *LedgerParserConfig {
	return &LedgerParserConfig{
		Side:              models.SideBank,
		IDColumn:          "Transaction_ID",
		DescriptionColumn: "Description",
		DebitColumn:       "Debit",
		CreditColumn:      "Credit",
		DateColumn:        "Post Date",
		HasHeader:         true,
		Delimiter:         ',',
		ColumnAliases:     make(map[string]string),
	}
}

// Validate checks that the configuration describes a parseable layout
func (lc *LedgerParserConfig) Validate() error {
	if !lc.Side.IsValid() {
		return fmt.Errorf("side must be %s or %s, got %q", models.SideGL, models.SideBank, lc.Side)
	}

	if strings.TrimSpace(lc.DescriptionColumn) == "" {
		return fmt.Errorf("description column cannot be empty")
	}

	hasAmount := strings.TrimSpace(lc.AmountColumn) != ""
	hasDebitCredit := strings.TrimSpace(lc.DebitColumn) != "" && strings.TrimSpace(lc.CreditColumn) != ""
	if !hasAmount && !hasDebitCredit {
		return fmt.Errorf("either an amount column or both debit and credit columns must be configured")
	}

	if strings.TrimSpace(lc.DateColumn) == "" {
		return fmt.Errorf("date column cannot be empty")
	}

	return nil
}

// GetColumnName returns the actual column name, checking aliases first
func (lc *LedgerParserConfig) GetColumnName(standardName string) string {
	if alias, exists := lc.ColumnAliases[standardName]; exists {
		return alias
	}

	switch standardName {
	case "id":
		return lc.IDColumn
	case "account":
		return lc.AccountColumn
	case "description":
		return lc.DescriptionColumn
	case "amount":
		return lc.AmountColumn
	case "debit":
		return lc.DebitColumn
	case "credit":
		return lc.CreditColumn
	case "date":
		return lc.DateColumn
	case "fallback_date":
		return lc.FallbackDateColumn
	default:
		return standardName
	}
}

// usesNetting reports whether amounts come from separate debit/credit columns
func (lc *LedgerParserConfig) usesNetting() bool {
	return strings.TrimSpace(lc.AmountColumn) == ""
}
