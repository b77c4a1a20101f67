// Package reporter renders a finished audit report for people and machines.
//
// Supported output formats:
//   - Console: sectioned human-readable output for terminal review
//   - JSON: the complete audit document for programmatic consumption
//   - CSV: the flat match listing for spreadsheet review
package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"gl-bank-reconciler/internal/audit"
	"gl-bank-reconciler/internal/matcher"
)

// OutputFormat represents the supported report output formats.
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatCSV     OutputFormat = "csv"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON, FormatCSV:
		return true
	default:
		return false
	}
}

// ReportConfig holds rendering options
type ReportConfig struct {
	Format OutputFormat `json:"format"`

	// Console detail options
	IncludeMatchDetails bool `json:"include_match_details"`
	IncludeUnmatched    bool `json:"include_unmatched"`
	MaxItems            int  `json:"max_items"`
}

// DefaultReportConfig returns the default rendering configuration
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:              FormatConsole,
		IncludeMatchDetails: true,
		IncludeUnmatched:    true,
		MaxItems:            50,
	}
}

// Validate validates the rendering configuration
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}
	if c.MaxItems < 0 {
		return fmt.Errorf("max items cannot be negative, got %d", c.MaxItems)
	}
	return nil
}

// Reporter renders audit reports to a writer.
type Reporter struct {
	config *ReportConfig
}

// NewReporter creates a reporter with the given configuration
func NewReporter(config *ReportConfig) (*Reporter, error) {
	if config == nil {
		config = DefaultReportConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Reporter{config: config}, nil
}

// Write renders the report in the configured format
func (r *Reporter) Write(w io.Writer, report *audit.Report) error {
	switch r.config.Format {
	case FormatJSON:
		return r.writeJSON(w, report)
	case FormatCSV:
		return report.WriteCSV(w)
	default:
		return r.writeConsole(w, report)
	}
}

func (r *Reporter) writeJSON(w io.Writer, report *audit.Report) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

func (r *Reporter) writeConsole(w io.Writer, report *audit.Report) error {
	fmt.Fprintf(w, "GL / BANK RECONCILIATION AUDIT REPORT\n")
	fmt.Fprintf(w, "Generated: %s\n", report.Metadata.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "GL Source:   %s\n", report.Metadata.GLSource)
	fmt.Fprintf(w, "Bank Source: %s\n", report.Metadata.BankSource)
	fmt.Fprintf(w, "Outcome:     %s after %d round(s)\n\n", report.Metadata.FinalState, report.Metadata.Rounds)

	r.writeSummarySection(w, report.Summary)
	r.writeStrategySection(w, report)
	r.writeIterationSection(w, report.AuditTrail)

	if r.config.IncludeMatchDetails {
		r.writeMatchSection(w, report.DetailedMatches)
	}
	if r.config.IncludeUnmatched {
		r.writeUnmatchedSection(w, "UNMATCHED GL TRANSACTIONS", report.UnmatchedGLAnalysis)
		r.writeUnmatchedSection(w, "UNMATCHED BANK TRANSACTIONS", report.UnmatchedBankAnalysis)
	}

	fmt.Fprintf(w, "=== RECOMMENDATIONS ===\n")
	for i, recommendation := range report.Recommendations {
		fmt.Fprintf(w, "%d. %s\n", i+1, recommendation)
	}

	return nil
}

func (r *Reporter) writeSummarySection(w io.Writer, summary *matcher.Summary) {
	fmt.Fprintf(w, "=== SUMMARY ===\n")
	fmt.Fprintf(w, "GL Transactions:   %d\n", summary.TotalGLCount)
	fmt.Fprintf(w, "Bank Transactions: %d\n", summary.TotalBankCount)
	fmt.Fprintf(w, "Matched:           %d (%.1f%%)\n", summary.MatchedCount, summary.MatchRate)
	fmt.Fprintf(w, "Unmatched GL:      %d\n", len(summary.UnmatchedGLIDs))
	fmt.Fprintf(w, "Unmatched Bank:    %d\n", len(summary.UnmatchedBankIDs))
	if summary.UnparseableRecords > 0 {
		fmt.Fprintf(w, "Unparseable Rows:  %d\n", summary.UnparseableRecords)
	}
	fmt.Fprintf(w, "\n")

	fmt.Fprintf(w, "=== FINANCIAL SUMMARY ===\n")
	fmt.Fprintf(w, "GL Total:   %s\n", summary.GLTotal.StringFixed(2))
	fmt.Fprintf(w, "Bank Total: %s\n", summary.BankTotal.StringFixed(2))
	fmt.Fprintf(w, "Variance:   %s\n", summary.Variance.StringFixed(2))
	if summary.VariancePct != nil {
		fmt.Fprintf(w, "Variance %%: %.2f%%\n", *summary.VariancePct)
	} else {
		fmt.Fprintf(w, "Variance %%: n/a (GL total is zero)\n")
	}
	if summary.IsBalanced {
		fmt.Fprintf(w, "Status:     BALANCED\n")
	} else {
		fmt.Fprintf(w, "Status:     OUT OF BALANCE\n")
	}
	fmt.Fprintf(w, "\n")
}

func (r *Reporter) writeStrategySection(w io.Writer, report *audit.Report) {
	fmt.Fprintf(w, "=== STRATEGY PERFORMANCE ===\n")
	if len(report.StrategyAnalysis) == 0 {
		fmt.Fprintf(w, "No matches found by any strategy\n\n")
		return
	}

	names := make([]string, 0, len(report.StrategyAnalysis))
	for name := range report.StrategyAnalysis {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		analysis := report.StrategyAnalysis[name]
		fmt.Fprintf(w, "%-24s %4d matches, avg confidence %.2f, total %s\n",
			name, analysis.Count, analysis.AvgConfidence, analysis.TotalAmount.StringFixed(2))
	}
	fmt.Fprintf(w, "\n")
}

func (r *Reporter) writeIterationSection(w io.Writer, iterations []*matcher.IterationRecord) {
	fmt.Fprintf(w, "=== ITERATION HISTORY ===\n")
	for _, iteration := range iterations {
		fmt.Fprintf(w, "Round %d: %d matches, cumulative rate %.1f%%, %d GL / %d bank remaining\n",
			iteration.Round, iteration.MatchesFound, iteration.CumulativeMatchRate,
			iteration.UnmatchedGL, iteration.UnmatchedBank)
	}
	fmt.Fprintf(w, "\n")
}

func (r *Reporter) writeMatchSection(w io.Writer, matches []*audit.DetailedMatch) {
	fmt.Fprintf(w, "=== MATCH DETAILS ===\n")
	if len(matches) == 0 {
		fmt.Fprintf(w, "No matches\n\n")
		return
	}

	limit := len(matches)
	if r.config.MaxItems > 0 && r.config.MaxItems < limit {
		limit = r.config.MaxItems
	}

	for _, match := range matches[:limit] {
		fmt.Fprintf(w, "#%d [%s] confidence %.2f\n", match.MatchNumber, match.MatchType, match.MatchConfidence)
		fmt.Fprintf(w, "  GL:   %s %s %s\n", match.GLTransaction.ID,
			match.GLTransaction.Amount.StringFixed(2), match.GLTransaction.Description)
		fmt.Fprintf(w, "  Bank: %s %s %s\n", match.BankTransaction.ID,
			match.BankTransaction.Amount.StringFixed(2), match.BankTransaction.Description)
		fmt.Fprintf(w, "  Reason: %s\n", match.AuditTrail.MatchReason)
	}
	if limit < len(matches) {
		fmt.Fprintf(w, "... and %d more matches (see JSON or CSV output)\n", len(matches)-limit)
	}
	fmt.Fprintf(w, "\n")
}

func (r *Reporter) writeUnmatchedSection(w io.Writer, title string, analysis *audit.UnmatchedAnalysis) {
	fmt.Fprintf(w, "=== %s ===\n", title)
	if analysis == nil || analysis.Count == 0 {
		fmt.Fprintf(w, "None\n\n")
		return
	}

	fmt.Fprintf(w, "Count: %d (total %s, %d large, %d with description)\n",
		analysis.Count, analysis.TotalAmount.StringFixed(2),
		analysis.LargeAmountCount, analysis.WithDescription)

	limit := len(analysis.Records)
	if r.config.MaxItems > 0 && r.config.MaxItems < limit {
		limit = r.config.MaxItems
	}
	for _, record := range analysis.Records[:limit] {
		fmt.Fprintf(w, "  %s %s [%s] %s\n", record.ID, record.Amount.StringFixed(2),
			record.AmountRange, record.Description)
	}
	if limit < len(analysis.Records) {
		fmt.Fprintf(w, "  ... and %d more\n", len(analysis.Records)-limit)
	}
	fmt.Fprintf(w, "\n")
}
