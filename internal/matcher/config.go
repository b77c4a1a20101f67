// Package matcher implements the multi-strategy iterative matching engine at
// the heart of GL/bank reconciliation.
//
// The engine pairs entries from two independently produced ledgers - the
// internal general ledger (GL) and the external bank statement - under
// uncertainty, using five competing heuristics evaluated in a fixed priority
// order:
//  1. exact amount
//  2. amount + date proximity
//  3. description similarity
//  4. partial amount (large transactions)
//  5. transaction-type pattern
//
// Every strategy is a deterministic, greedy, first-fit matcher: it walks the
// unmatched GL pool in order and accepts the first admissible bank record for
// each entry. The iteration controller drives strategies across bounded
// rounds, removing consumed records between strategies and between rounds,
// and terminates on target match rate, round exhaustion, or convergence.
//
// Example usage:
//
//	cfg := matcher.DefaultConfig()
//	cfg.TargetMatchRate = 90.0
//
//	controller, err := matcher.NewController(cfg, glPool, bankPool)
//	result, err := controller.Run()
package matcher

import (
	"fmt"

	"github.com/shopspring/decimal"

	"gl-bank-reconciler/pkg/errors"
)

// Strategy names, in priority order.
const (
	StrategyExactAmount           = "exact_amount"
	StrategyAmountDate            = "amount_date"
	StrategyDescriptionSimilarity = "description_similarity"
	StrategyPartialAmount         = "partial_amount"
	StrategyPatternMatching       = "pattern_matching"
)

// Config holds the full tuning surface of the matching engine. All knobs are
// fixed for the duration of a run; the controller validates the configuration
// before any pool mutation.
type Config struct {
	// TargetMatchRate is the percentage of GL records that, once matched,
	// terminates iteration early (0-100).
	TargetMatchRate float64 `json:"target_match_rate"`

	// MaxRounds bounds the number of full strategy passes.
	MaxRounds int `json:"max_rounds"`

	// ExactAmountTolerance is the absolute amount tolerance used by the
	// exact-amount, amount+date, and description-similarity strategies.
	ExactAmountTolerance decimal.Decimal `json:"exact_amount_tolerance"`

	// PartialAmountTolerancePct is the relative tolerance for the
	// partial-amount strategy (0.05 = 5%).
	PartialAmountTolerancePct float64 `json:"partial_amount_tolerance_pct"`

	// PartialAmountMin is the minimum absolute GL amount for the
	// partial-amount strategy to apply.
	PartialAmountMin decimal.Decimal `json:"partial_amount_min"`

	// DateToleranceDays is the day tolerance for the amount+date strategy.
	DateToleranceDays int `json:"date_tolerance_days"`

	// DescriptionSimilarityThreshold is the minimum similarity ratio for the
	// description-similarity strategy (0-1).
	DescriptionSimilarityThreshold float64 `json:"description_similarity_threshold"`

	// PatternAmountTolerancePct is the relative tolerance for the
	// pattern-matching strategy (0.2 = 20%).
	PatternAmountTolerancePct float64 `json:"pattern_amount_tolerance_pct"`

	// StrategyWeights maps strategy names to their priority weights.
	StrategyWeights map[string]float64 `json:"strategy_weights"`
}

// DefaultConfig returns the engine configuration with the documented defaults
func DefaultConfig() *Config {
	return &Config{
		TargetMatchRate:                80.0,
		MaxRounds:                      5,
		ExactAmountTolerance:           decimal.NewFromFloat(0.01),
		PartialAmountTolerancePct:      0.05,
		PartialAmountMin:               decimal.NewFromInt(1000),
		DateToleranceDays:              3,
		DescriptionSimilarityThreshold: 0.6,
		PatternAmountTolerancePct:      0.2,
		StrategyWeights:                defaultStrategyWeights(),
	}
}

// StrictConfig returns a configuration for tight reconciliation: exact
// amounts only, no partial or pattern leniency.
func StrictConfig() *Config {
	return &Config{
		TargetMatchRate:                95.0,
		MaxRounds:                      3,
		ExactAmountTolerance:           decimal.NewFromFloat(0.01),
		PartialAmountTolerancePct:      0.01,
		PartialAmountMin:               decimal.NewFromInt(10000),
		DateToleranceDays:              1,
		DescriptionSimilarityThreshold: 0.8,
		PatternAmountTolerancePct:      0.05,
		StrategyWeights:                defaultStrategyWeights(),
	}
}

// RelaxedConfig returns a configuration for exploratory matching with loose
// tolerances.
func RelaxedConfig() *Config {
	return &Config{
		TargetMatchRate:                70.0,
		MaxRounds:                      10,
		ExactAmountTolerance:           decimal.NewFromFloat(0.05),
		PartialAmountTolerancePct:      0.1,
		PartialAmountMin:               decimal.NewFromInt(500),
		DateToleranceDays:              7,
		DescriptionSimilarityThreshold: 0.4,
		PatternAmountTolerancePct:      0.3,
		StrategyWeights:                defaultStrategyWeights(),
	}
}

func defaultStrategyWeights() map[string]float64 {
	return map[string]float64{
		StrategyExactAmount:           1.0,
		StrategyAmountDate:            0.9,
		StrategyDescriptionSimilarity: 0.8,
		StrategyPartialAmount:         0.7,
		StrategyPatternMatching:       0.6,
	}
}

// Validate checks the configuration for values that would corrupt a run.
// Called before any pool mutation; a failure here is a configuration error,
// never a partial result.
func (c *Config) Validate() error {
	if c.TargetMatchRate < 0.0 || c.TargetMatchRate > 100.0 {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "target_match_rate", c.TargetMatchRate, nil)
	}

	if c.MaxRounds < 1 {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "max_rounds", c.MaxRounds, nil)
	}

	if c.ExactAmountTolerance.IsNegative() {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "exact_amount_tolerance", c.ExactAmountTolerance.String(), nil)
	}

	if c.PartialAmountTolerancePct < 0.0 || c.PartialAmountTolerancePct > 1.0 {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "partial_amount_tolerance_pct", c.PartialAmountTolerancePct, nil)
	}

	if c.PartialAmountMin.IsNegative() {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "partial_amount_min", c.PartialAmountMin.String(), nil)
	}

	if c.DateToleranceDays < 0 {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "date_tolerance_days", c.DateToleranceDays, nil)
	}

	if c.DescriptionSimilarityThreshold < 0.0 || c.DescriptionSimilarityThreshold > 1.0 {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "description_similarity_threshold", c.DescriptionSimilarityThreshold, nil)
	}

	if c.PatternAmountTolerancePct < 0.0 || c.PatternAmountTolerancePct > 1.0 {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "pattern_amount_tolerance_pct", c.PatternAmountTolerancePct, nil)
	}

	for name, weight := range c.StrategyWeights {
		if weight < 0.0 || weight > 1.0 {
			return errors.ConfigurationError(errors.CodeInvalidConfig,
				fmt.Sprintf("strategy_weights[%s]", name), weight, nil)
		}
	}

	return nil
}

// Clone creates a deep copy of the configuration
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}

	weights := make(map[string]float64, len(c.StrategyWeights))
	for name, weight := range c.StrategyWeights {
		weights[name] = weight
	}

	clone := *c
	clone.StrategyWeights = weights
	return &clone
}

// WeightFor returns the configured weight for a strategy, falling back to the
// documented defaults for strategies absent from the map.
func (c *Config) WeightFor(strategy string) float64 {
	if weight, ok := c.StrategyWeights[strategy]; ok {
		return weight
	}
	return defaultStrategyWeights()[strategy]
}

// String returns a human-readable description of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Target: %.1f%%, MaxRounds: %d, ExactTolerance: %s, DateTolerance: %d days, SimilarityThreshold: %.2f}",
		c.TargetMatchRate, c.MaxRounds, c.ExactAmountTolerance.String(), c.DateToleranceDays, c.DescriptionSimilarityThreshold)
}
