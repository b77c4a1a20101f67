// Package audit turns the raw output of the matching engine into a
// defensible audit trail: numbered match entries with full transaction
// context, per-strategy aggregates, per-round iteration history, and
// analysis of what stayed unmatched.
package audit

import (
	"fmt"

	"github.com/shopspring/decimal"

	"gl-bank-reconciler/internal/matcher"
	"gl-bank-reconciler/internal/models"
	"gl-bank-reconciler/pkg/errors"
)

// MatchEntry is one accepted match enriched with both transaction records.
// MatchNumber is a 1-based sequence stamped in acceptance order.
type MatchEntry struct {
	MatchNumber      int                       `json:"match_number"`
	Round            int                       `json:"round"`
	Strategy         string                    `json:"strategy"`
	Confidence       float64                   `json:"confidence"`
	Weight           float64                   `json:"weight"`
	AmountDifference decimal.Decimal           `json:"amount_difference"`
	Rationale        string                    `json:"rationale"`
	GL               *models.TransactionRecord `json:"gl"`
	Bank             *models.TransactionRecord `json:"bank"`
}

// StrategyStats aggregates outcomes per strategy across the whole run.
type StrategyStats struct {
	Count           int             `json:"count"`
	TotalConfidence float64         `json:"-"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
}

// AvgConfidence returns the mean confidence over this strategy's matches
func (s *StrategyStats) AvgConfidence() float64 {
	if s.Count == 0 {
		return 0.0
	}
	return s.TotalConfidence / float64(s.Count)
}

// Recorder replays a completed run against the pools, resolving each match
// candidate to its full transaction records and attributing it to the round
// that produced it. A candidate referencing a record missing from its pool is
// an engine consistency failure and aborts recording.
type Recorder struct {
	glPool     *matcher.Pool
	bankPool   *matcher.Pool
	entries    []*MatchEntry
	iterations []*matcher.IterationRecord
	byStrategy map[string]*StrategyStats
}

// NewRecorder creates a recorder bound to the run's pools
func NewRecorder(glPool, bankPool *matcher.Pool) *Recorder {
	return &Recorder{
		glPool:     glPool,
		bankPool:   bankPool,
		byStrategy: make(map[string]*StrategyStats),
	}
}

// RecordRun ingests a full run result. Matches are numbered in acceptance
// order; rounds are attributed by walking the per-iteration match counts,
// which mirrors the order the controller appended them.
func (r *Recorder) RecordRun(result *matcher.RunResult) error {
	if result == nil {
		return errors.New(errors.CategoryInternal, errors.CodeUnexpectedError, "nil run result")
	}

	next := 0
	for _, iteration := range result.Iterations {
		r.iterations = append(r.iterations, iteration)

		for i := 0; i < iteration.MatchesFound; i++ {
			if next >= len(result.Matches) {
				return errors.New(errors.CategoryInternal, errors.CodeUnexpectedError,
					fmt.Sprintf("iteration records claim more matches than the run holds (%d)", len(result.Matches)))
			}
			if err := r.recordMatch(iteration.Round, result.Matches[next]); err != nil {
				return err
			}
			next++
		}
	}

	if next != len(result.Matches) {
		return errors.New(errors.CategoryInternal, errors.CodeUnexpectedError,
			fmt.Sprintf("%d matches not attributed to any round", len(result.Matches)-next))
	}

	return nil
}

func (r *Recorder) recordMatch(round int, candidate *matcher.MatchCandidate) error {
	gl, ok := r.glPool.Lookup(candidate.GLID)
	if !ok {
		return errors.ConsistencyError(errors.CodeOrphanedCandidate, candidate.GLID,
			"matched GL record missing from pool")
	}
	bank, ok := r.bankPool.Lookup(candidate.BankID)
	if !ok {
		return errors.ConsistencyError(errors.CodeOrphanedCandidate, candidate.BankID,
			"matched bank record missing from pool")
	}

	entry := &MatchEntry{
		MatchNumber:      len(r.entries) + 1,
		Round:            round,
		Strategy:         candidate.Strategy,
		Confidence:       candidate.Confidence,
		Weight:           candidate.Weight,
		AmountDifference: candidate.AmountDifference,
		Rationale:        candidate.Rationale,
		GL:               gl,
		Bank:             bank,
	}
	r.entries = append(r.entries, entry)

	stats, ok := r.byStrategy[candidate.Strategy]
	if !ok {
		stats = &StrategyStats{TotalAmount: decimal.Zero}
		r.byStrategy[candidate.Strategy] = stats
	}
	stats.Count++
	stats.TotalConfidence += candidate.Confidence
	stats.TotalAmount = stats.TotalAmount.Add(gl.AbsAmount())

	return nil
}

// Entries returns the recorded matches in acceptance order
func (r *Recorder) Entries() []*MatchEntry {
	return r.entries
}

// Iterations returns the per-round iteration records in order
func (r *Recorder) Iterations() []*matcher.IterationRecord {
	return r.iterations
}

// ByStrategy returns the per-strategy aggregates
func (r *Recorder) ByStrategy() map[string]*StrategyStats {
	return r.byStrategy
}
