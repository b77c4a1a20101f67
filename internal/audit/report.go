package audit

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"gl-bank-reconciler/internal/matcher"
	"gl-bank-reconciler/internal/models"
	"gl-bank-reconciler/pkg/errors"
)

// largeAmountThreshold splits unmatched records into the Large and Small
// amount ranges used by the unmatched analysis.
var largeAmountThreshold = decimal.NewFromInt(1000)

// Metadata identifies the run that produced a report. AchievedMatchRate and
// TotalMatches are filled in by BuildReport from the run itself.
type Metadata struct {
	GeneratedAt       time.Time `json:"generated_at"`
	EngineVersion     string    `json:"engine_version"`
	GLSource          string    `json:"gl_source"`
	BankSource        string    `json:"bank_source"`
	FinalState        string    `json:"final_state"`
	Rounds            int       `json:"rounds"`
	AchievedMatchRate float64   `json:"achieved_match_rate"`
	TotalMatches      int       `json:"total_matches"`
}

// TransactionDetail is the flattened view of one transaction inside a
// detailed match entry. Date is empty for records without a usable date.
type TransactionDetail struct {
	ID          string          `json:"id"`
	Account     string          `json:"account"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Date        string          `json:"date"`
	Type        string          `json:"type"`
}

// MatchAudit names the strategy and rationale behind one match.
type MatchAudit struct {
	Strategy    string `json:"strategy"`
	MatchReason string `json:"match_reason"`
}

// DetailedMatch is one match with full context on both sides.
type DetailedMatch struct {
	MatchNumber     int               `json:"match_number"`
	MatchType       string            `json:"match_type"`
	MatchConfidence float64           `json:"match_confidence"`
	Round           int               `json:"round"`
	GLTransaction   TransactionDetail `json:"gl_transaction"`
	BankTransaction TransactionDetail `json:"bank_transaction"`
	AuditTrail      MatchAudit        `json:"audit_trail"`
}

// StrategyAnalysis summarizes one strategy's contribution.
type StrategyAnalysis struct {
	Count         int             `json:"count"`
	AvgConfidence float64         `json:"avg_confidence"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
}

// UnmatchedRecord is one leftover transaction with classification hints for
// the reviewer.
type UnmatchedRecord struct {
	ID             string          `json:"id"`
	Description    string          `json:"description"`
	Amount         decimal.Decimal `json:"amount"`
	AmountRange    string          `json:"amount_range"`
	HasDescription bool            `json:"has_description"`
}

// UnmatchedAnalysis summarizes one side's leftovers.
type UnmatchedAnalysis struct {
	Count            int                `json:"count"`
	TotalAmount      decimal.Decimal    `json:"total_amount"`
	LargeAmountCount int                `json:"large_amount_count"`
	SmallAmountCount int                `json:"small_amount_count"`
	WithDescription  int                `json:"with_description"`
	Records          []*UnmatchedRecord `json:"records"`
}

// Report is the complete audit document for one reconciliation run.
type Report struct {
	Metadata              Metadata                     `json:"report_metadata"`
	Summary               *matcher.Summary             `json:"reconciliation_summary"`
	StrategyPerformance   map[string]int               `json:"strategy_performance"`
	StrategyAnalysis      map[string]*StrategyAnalysis `json:"strategy_analysis"`
	AuditTrail            []*matcher.IterationRecord   `json:"audit_trail"`
	DetailedMatches       []*DetailedMatch             `json:"detailed_matches"`
	UnmatchedGLAnalysis   *UnmatchedAnalysis           `json:"unmatched_gl_analysis"`
	UnmatchedBankAnalysis *UnmatchedAnalysis           `json:"unmatched_bank_analysis"`
	Recommendations       []string                     `json:"recommendations"`
}

// BuildReport assembles the audit document from a recorder that has ingested
// the run, the financial summary, and the terminal pool state.
func BuildReport(meta Metadata, recorder *Recorder, summary *matcher.Summary) (*Report, error) {
	if recorder == nil || summary == nil {
		return nil, errors.New(errors.CategoryInternal, errors.CodeUnexpectedError,
			"report requires a recorder and a summary")
	}

	meta.AchievedMatchRate = summary.MatchRate
	meta.TotalMatches = len(recorder.Entries())

	report := &Report{
		Metadata:            meta,
		Summary:             summary,
		StrategyPerformance: make(map[string]int),
		StrategyAnalysis:    make(map[string]*StrategyAnalysis),
		AuditTrail:          recorder.Iterations(),
	}

	for name, stats := range recorder.ByStrategy() {
		report.StrategyPerformance[name] = stats.Count
		report.StrategyAnalysis[name] = &StrategyAnalysis{
			Count:         stats.Count,
			AvgConfidence: stats.AvgConfidence(),
			TotalAmount:   stats.TotalAmount,
		}
	}

	for _, entry := range recorder.Entries() {
		report.DetailedMatches = append(report.DetailedMatches, &DetailedMatch{
			MatchNumber:     entry.MatchNumber,
			MatchType:       entry.Strategy,
			MatchConfidence: entry.Confidence,
			Round:           entry.Round,
			GLTransaction:   transactionDetail(entry.GL),
			BankTransaction: transactionDetail(entry.Bank),
			AuditTrail: MatchAudit{
				Strategy:    entry.Strategy,
				MatchReason: entry.Rationale,
			},
		})
	}

	report.UnmatchedGLAnalysis = analyzeUnmatched(recorder.glPool)
	report.UnmatchedBankAnalysis = analyzeUnmatched(recorder.bankPool)
	report.Recommendations = buildRecommendations(report)

	return report, nil
}

func transactionDetail(record *models.TransactionRecord) TransactionDetail {
	detail := TransactionDetail{
		ID:          record.ID,
		Account:     record.SourceAccount,
		Description: record.RawDescription,
		Amount:      record.Amount,
		Type:        string(record.Type),
	}
	if record.HasDate() {
		detail.Date = record.Date.Format("2006-01-02")
	}
	return detail
}

func analyzeUnmatched(pool *matcher.Pool) *UnmatchedAnalysis {
	analysis := &UnmatchedAnalysis{TotalAmount: decimal.Zero}

	for _, id := range pool.UnconsumedIDs() {
		record, ok := pool.Lookup(id)
		if !ok {
			continue
		}

		amountRange := "Small"
		if record.AbsAmount().GreaterThanOrEqual(largeAmountThreshold) {
			amountRange = "Large"
			analysis.LargeAmountCount++
		} else {
			analysis.SmallAmountCount++
		}
		if record.HasDescription() {
			analysis.WithDescription++
		}

		analysis.Count++
		analysis.TotalAmount = analysis.TotalAmount.Add(record.Amount)
		analysis.Records = append(analysis.Records, &UnmatchedRecord{
			ID:             record.ID,
			Description:    record.RawDescription,
			Amount:         record.Amount,
			AmountRange:    amountRange,
			HasDescription: record.HasDescription(),
		})
	}

	return analysis
}

// csvHeader is the column layout of the flat match listing
var csvHeader = []string{
	"Match_Number",
	"Match_Type",
	"GL_Description",
	"Bank_Description",
	"GL_Amount",
	"Bank_Amount",
	"Match_Reason",
}

// WriteCSV writes the flat match listing, one row per detailed match.
func (r *Report) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, match := range r.DetailedMatches {
		row := []string{
			fmt.Sprintf("%d", match.MatchNumber),
			match.MatchType,
			match.GLTransaction.Description,
			match.BankTransaction.Description,
			match.GLTransaction.Amount.StringFixed(2),
			match.BankTransaction.Amount.StringFixed(2),
			match.AuditTrail.MatchReason,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write match %d: %w", match.MatchNumber, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
