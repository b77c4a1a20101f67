// Package config builds the parser, matcher, and reporting configurations
// used by the CLI, layering command-line overrides on top of the documented
// defaults.
package config

import (
	"github.com/shopspring/decimal"

	"gl-bank-reconciler/internal/matcher"
	"gl-bank-reconciler/internal/parsers"
	"gl-bank-reconciler/internal/reporter"
)

// CreateGLParserConfig returns the GL export layout with aliases for the
// header spellings common across GL systems
func CreateGLParserConfig() *parsers.LedgerParserConfig {
	cfg := parsers.DefaultGLParserConfig()
	cfg.ColumnAliases = map[string]string{
		"id":          "Transaction_ID",
		"gl_id":       "Transaction_ID",
		"account":     "GL_Account",
		"gl_account":  "GL_Account",
		"desc":        "Description",
		"memo":        "Description",
		"dr":          "Debit",
		"cr":          "Credit",
		"date":        "Effective Date",
		"trans_date":  "Effective Date",
		"actual_date": "Actual Date",
	}
	return cfg
}

// CreateBankParserConfig returns the bank statement layout with aliases for
// the header spellings common across bank exports
func CreateBankParserConfig() *parsers.LedgerParserConfig {
	cfg := parsers.DefaultBankParserConfig()
	cfg.ColumnAliases = map[string]string{
		"id":           "Transaction_ID",
		"ref":          "Transaction_ID",
		"reference":    "Transaction_ID",
		"desc":         "Description",
		"details":      "Description",
		"dr":           "Debit",
		"cr":           "Credit",
		"date":         "Post Date",
		"posting_date": "Post Date",
		"value_date":   "Post Date",
	}
	return cfg
}

// MatchOverrides carries the CLI flag values that tune the matching engine.
// Negative numeric values mean "not set, keep the default".
type MatchOverrides struct {
	TargetMatchRate     float64
	MaxRounds           int
	ExactTolerance      float64
	DateToleranceDays   int
	SimilarityThreshold float64
	PartialMin          float64
	PartialTolerancePct float64
}

// CreateMatchConfig layers CLI overrides on the default engine configuration
func CreateMatchConfig(overrides MatchOverrides) *matcher.Config {
	cfg := matcher.DefaultConfig()

	if overrides.TargetMatchRate >= 0 {
		cfg.TargetMatchRate = overrides.TargetMatchRate
	}
	if overrides.MaxRounds > 0 {
		cfg.MaxRounds = overrides.MaxRounds
	}
	if overrides.ExactTolerance >= 0 {
		cfg.ExactAmountTolerance = decimal.NewFromFloat(overrides.ExactTolerance)
	}
	if overrides.DateToleranceDays >= 0 {
		cfg.DateToleranceDays = overrides.DateToleranceDays
	}
	if overrides.SimilarityThreshold >= 0 {
		cfg.DescriptionSimilarityThreshold = overrides.SimilarityThreshold
	}
	if overrides.PartialMin >= 0 {
		cfg.PartialAmountMin = decimal.NewFromFloat(overrides.PartialMin)
	}
	if overrides.PartialTolerancePct >= 0 {
		cfg.PartialAmountTolerancePct = overrides.PartialTolerancePct
	}

	return cfg
}

// CreateReportConfig builds the rendering configuration for the chosen format
func CreateReportConfig(format string, maxItems int) *reporter.ReportConfig {
	cfg := reporter.DefaultReportConfig()
	cfg.Format = reporter.OutputFormat(format)
	if maxItems > 0 {
		cfg.MaxItems = maxItems
	}
	return cfg
}
