package matcher

import (
	"time"

	"gl-bank-reconciler/pkg/errors"
	"gl-bank-reconciler/pkg/logger"
)

// State describes why the iteration controller stopped.
type State string

const (
	// StateRunning means iteration has not finished
	StateRunning State = "running"

	// StateTargetReached means the cumulative match rate met the target
	StateTargetReached State = "target_reached"

	// StateExhausted means the round budget ran out before the target
	StateExhausted State = "exhausted"

	// StateConverged means a full round produced zero matches, so further
	// rounds cannot make progress
	StateConverged State = "converged"
)

// IterationRecord captures what one full strategy pass accomplished.
type IterationRecord struct {
	Round               int            `json:"round"`
	Timestamp           time.Time      `json:"timestamp"`
	Duration            time.Duration  `json:"duration"`
	MatchesFound        int            `json:"matches_found"`
	MatchesByStrategy   map[string]int `json:"matches_by_strategy"`
	CumulativeMatchRate float64        `json:"cumulative_match_rate"`
	UnmatchedGL         int            `json:"unmatched_gl"`
	UnmatchedBank       int            `json:"unmatched_bank"`
}

// RunResult is the outcome of a complete controller run.
type RunResult struct {
	Matches    []*MatchCandidate  `json:"matches"`
	Iterations []*IterationRecord `json:"iterations"`
	FinalState State              `json:"final_state"`
	MatchRate  float64            `json:"match_rate"`
	Rounds     int                `json:"rounds"`
}

// Controller drives the strategies across bounded rounds until the target
// match rate is reached, the round budget is exhausted, or a round converges
// with zero matches. A controller runs exactly once; pools are mutated in
// place as candidates are accepted.
type Controller struct {
	config     *Config
	strategies []Strategy
	glPool     *Pool
	bankPool   *Pool
	log        logger.Logger
	ran        bool
}

// NewController validates the configuration and wires the default strategy
// set against the two pools.
func NewController(cfg *Config, glPool, bankPool *Pool) (*Controller, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if glPool == nil || bankPool == nil {
		return nil, errors.ValidationError(errors.CodeMissingField, "pools", nil, nil)
	}

	return &Controller{
		config:     cfg,
		strategies: DefaultStrategies(cfg),
		glPool:     glPool,
		bankPool:   bankPool,
		log:        logger.WithComponent("matcher"),
	}, nil
}

// SetStrategies replaces the strategy set, preserving the given order.
// Useful in tests and for single-strategy analysis runs.
func (c *Controller) SetStrategies(strategies []Strategy) {
	c.strategies = strategies
}

// Run executes iterative matching to completion. The returned result holds
// every accepted match, one iteration record per round, and the terminal
// state. Consistency failures abort the run with a fatal error.
func (c *Controller) Run() (*RunResult, error) {
	if c.ran {
		return nil, errors.New(errors.CategoryReconciliation, errors.CodeMatchingFailed,
			"matching controller already ran")
	}
	c.ran = true

	result := &RunResult{FinalState: StateRunning}

	// An empty GL ledger has nothing to reconcile; the rate is 0 by
	// definition and no strategy can change it.
	if c.glPool.Size() == 0 {
		c.log.Warn("GL pool is empty, nothing to match")
		result.FinalState = StateConverged
		return result, nil
	}

	c.log.WithFields(logger.Fields{
		"gl_records":   c.glPool.Size(),
		"bank_records": c.bankPool.Size(),
		"target_rate":  c.config.TargetMatchRate,
		"max_rounds":   c.config.MaxRounds,
	}).Info("Starting iterative matching")

	for round := 1; ; round++ {
		record, err := c.runRound(round, result)
		if err != nil {
			return nil, err
		}

		result.Iterations = append(result.Iterations, record)
		result.Rounds = round
		result.MatchRate = record.CumulativeMatchRate

		switch {
		case record.CumulativeMatchRate >= c.config.TargetMatchRate:
			result.FinalState = StateTargetReached
		case round >= c.config.MaxRounds:
			result.FinalState = StateExhausted
		case record.MatchesFound == 0:
			result.FinalState = StateConverged
		}

		if result.FinalState != StateRunning {
			break
		}
	}

	c.log.WithFields(logger.Fields{
		"final_state": string(result.FinalState),
		"rounds":      result.Rounds,
		"matches":     len(result.Matches),
		"match_rate":  result.MatchRate,
	}).Info("Iterative matching finished")

	return result, nil
}

// runRound executes every strategy once in priority order, consuming matched
// records as it goes so later strategies only see the remainder.
func (c *Controller) runRound(round int, result *RunResult) (*IterationRecord, error) {
	started := time.Now()
	byStrategy := make(map[string]int, len(c.strategies))
	found := 0

	for _, strategy := range c.strategies {
		glAvailable := c.glPool.Unconsumed()
		bankAvailable := c.bankPool.Unconsumed()
		if len(glAvailable) == 0 || len(bankAvailable) == 0 {
			byStrategy[strategy.Name()] = 0
			continue
		}

		candidates := strategy.Match(glAvailable, bankAvailable)
		for _, candidate := range candidates {
			if err := c.glPool.Consume(candidate.GLID); err != nil {
				return nil, err
			}
			if err := c.bankPool.Consume(candidate.BankID); err != nil {
				return nil, err
			}
			result.Matches = append(result.Matches, candidate)
		}

		byStrategy[strategy.Name()] = len(candidates)
		found += len(candidates)

		if len(candidates) > 0 {
			c.log.WithFields(logger.Fields{
				"round":    round,
				"strategy": strategy.Name(),
				"matches":  len(candidates),
			}).Debug("Strategy pass complete")
		}
	}

	return &IterationRecord{
		Round:               round,
		Timestamp:           started,
		Duration:            time.Since(started),
		MatchesFound:        found,
		MatchesByStrategy:   byStrategy,
		CumulativeMatchRate: c.currentMatchRate(),
		UnmatchedGL:         c.glPool.UnconsumedCount(),
		UnmatchedBank:       c.bankPool.UnconsumedCount(),
	}, nil
}

// currentMatchRate returns matched GL records as a percentage of all GL
// records, 0 when the ledger is empty.
func (c *Controller) currentMatchRate() float64 {
	total := c.glPool.Size()
	if total == 0 {
		return 0.0
	}
	return float64(c.glPool.ConsumedCount()) / float64(total) * 100.0
}
