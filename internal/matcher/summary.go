package matcher

import (
	"github.com/shopspring/decimal"
)

// balancedVarianceLimit is the absolute GL/bank variance under which the two
// ledgers are considered balanced for reporting purposes.
var balancedVarianceLimit = decimal.NewFromInt(1000)

// Summary is the financial roll-up of a completed run. Totals and variance
// are computed over every record in each ledger, matched or not; the match
// rate covers GL records only, since the GL is the ledger being explained.
type Summary struct {
	GLTotal            decimal.Decimal `json:"gl_total"`
	BankTotal          decimal.Decimal `json:"bank_total"`
	Variance           decimal.Decimal `json:"variance"`
	VariancePct        *float64        `json:"variance_pct"`
	MatchRate          float64         `json:"match_rate"`
	MatchedCount       int             `json:"matched_count"`
	TotalGLCount       int             `json:"total_gl_count"`
	TotalBankCount     int             `json:"total_bank_count"`
	UnmatchedGLIDs     []string        `json:"unmatched_gl_ids"`
	UnmatchedBankIDs   []string        `json:"unmatched_bank_ids"`
	UnparseableRecords int             `json:"unparseable_records"`
	IsBalanced         bool            `json:"is_balanced"`
}

// Summarize computes the financial summary from the terminal pool state.
// Variance is GL total minus bank total, signed; the percentage is relative
// to the GL total and nil when the GL total is zero, since no meaningful
// percentage exists against a zero base.
func Summarize(glPool, bankPool *Pool, unparseable int) *Summary {
	glTotal := glPool.Total()
	bankTotal := bankPool.Total()
	variance := glTotal.Sub(bankTotal)

	summary := &Summary{
		GLTotal:            glTotal,
		BankTotal:          bankTotal,
		Variance:           variance,
		MatchedCount:       glPool.ConsumedCount(),
		TotalGLCount:       glPool.Size(),
		TotalBankCount:     bankPool.Size(),
		UnmatchedGLIDs:     glPool.UnconsumedIDs(),
		UnmatchedBankIDs:   bankPool.UnconsumedIDs(),
		UnparseableRecords: unparseable,
		IsBalanced:         variance.Abs().LessThan(balancedVarianceLimit),
	}

	if !glTotal.IsZero() {
		pct, _ := variance.Div(glTotal).Mul(decimal.NewFromInt(100)).Float64()
		summary.VariancePct = &pct
	}

	if summary.TotalGLCount > 0 {
		summary.MatchRate = float64(summary.MatchedCount) / float64(summary.TotalGLCount) * 100.0
	}

	return summary
}
