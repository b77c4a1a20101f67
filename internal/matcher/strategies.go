package matcher

import (
	"fmt"

	"github.com/shopspring/decimal"

	"gl-bank-reconciler/internal/models"
)

// MatchCandidate is one proposed GL/bank pairing produced by a strategy. The
// controller consumes both records from their pools when it accepts the
// candidate; a candidate referencing a consumed or unknown record is an
// engine bug.
type MatchCandidate struct {
	GLID             string          `json:"gl_id"`
	BankID           string          `json:"bank_id"`
	Strategy         string          `json:"strategy"`
	Weight           float64         `json:"weight"`
	Confidence       float64         `json:"confidence"`
	AmountDifference decimal.Decimal `json:"amount_difference"`
	Rationale        string          `json:"rationale"`
}

// Strategy is one matching heuristic. Match receives the unconsumed records
// of both pools in insertion order and returns the pairings it claims; it
// must never pair the same record twice within a single pass. Strategies are
// stateless between passes.
type Strategy interface {
	// Name returns the stable identifier used in reports and weight maps
	Name() string

	// Weight returns the priority weight of this strategy
	Weight() float64

	// Match proposes pairings from the given unmatched records
	Match(gl, bank []*models.TransactionRecord) []*MatchCandidate
}

// DefaultStrategies returns all five strategies in priority order.
func DefaultStrategies(cfg *Config) []Strategy {
	return []Strategy{
		NewExactAmountStrategy(cfg),
		NewAmountDateStrategy(cfg),
		NewDescriptionSimilarityStrategy(cfg),
		NewPartialAmountStrategy(cfg),
		NewPatternMatchingStrategy(cfg),
	}
}

// clampScore keeps derived confidence scores inside [0, 1]
func clampScore(score float64) float64 {
	if score < 0.0 {
		return 0.0
	}
	if score > 1.0 {
		return 1.0
	}
	return score
}

// amountDifference returns |gl.Amount - bank.Amount|
func amountDifference(gl, bank *models.TransactionRecord) decimal.Decimal {
	return gl.Amount.Sub(bank.Amount).Abs()
}

// firstFit walks the GL records in order and pairs each with the first bank
// record the admit function accepts, excluding bank records already taken
// earlier in the same pass. This is the matching discipline shared by every
// strategy: deterministic, greedy, order-dependent.
func firstFit(gl, bank []*models.TransactionRecord, admit func(g, b *models.TransactionRecord) (*MatchCandidate, bool)) []*MatchCandidate {
	var candidates []*MatchCandidate
	used := make(map[string]bool, len(bank))

	for _, g := range gl {
		for _, b := range bank {
			if used[b.ID] {
				continue
			}
			candidate, ok := admit(g, b)
			if !ok {
				continue
			}
			used[b.ID] = true
			candidates = append(candidates, candidate)
			break
		}
	}

	return candidates
}

// ExactAmountStrategy pairs records whose signed amounts agree within the
// absolute tolerance. The highest-priority and highest-confidence strategy.
type ExactAmountStrategy struct {
	tolerance decimal.Decimal
	weight    float64
}

func NewExactAmountStrategy(cfg *Config) *ExactAmountStrategy {
	return &ExactAmountStrategy{
		tolerance: cfg.ExactAmountTolerance,
		weight:    cfg.WeightFor(StrategyExactAmount),
	}
}

func (s *ExactAmountStrategy) Name() string    { return StrategyExactAmount }
func (s *ExactAmountStrategy) Weight() float64 { return s.weight }

func (s *ExactAmountStrategy) Match(gl, bank []*models.TransactionRecord) []*MatchCandidate {
	return firstFit(gl, bank, func(g, b *models.TransactionRecord) (*MatchCandidate, bool) {
		diff := amountDifference(g, b)
		if diff.GreaterThan(s.tolerance) {
			return nil, false
		}
		return &MatchCandidate{
			GLID:             g.ID,
			BankID:           b.ID,
			Strategy:         s.Name(),
			Weight:           s.weight,
			Confidence:       1.0,
			AmountDifference: diff,
			Rationale:        fmt.Sprintf("Amounts match within $%s tolerance", s.tolerance.String()),
		}, true
	})
}

// AmountDateStrategy pairs records whose amounts agree within the absolute
// tolerance and whose dates fall within the configured day window. Records
// missing a date on either side never match here.
type AmountDateStrategy struct {
	amountTolerance decimal.Decimal
	dateTolerance   int
	weight          float64
}

func NewAmountDateStrategy(cfg *Config) *AmountDateStrategy {
	return &AmountDateStrategy{
		amountTolerance: cfg.ExactAmountTolerance,
		dateTolerance:   cfg.DateToleranceDays,
		weight:          cfg.WeightFor(StrategyAmountDate),
	}
}

func (s *AmountDateStrategy) Name() string    { return StrategyAmountDate }
func (s *AmountDateStrategy) Weight() float64 { return s.weight }

func (s *AmountDateStrategy) Match(gl, bank []*models.TransactionRecord) []*MatchCandidate {
	return firstFit(gl, bank, func(g, b *models.TransactionRecord) (*MatchCandidate, bool) {
		if !g.HasDate() || !b.HasDate() {
			return nil, false
		}

		diff := amountDifference(g, b)
		if diff.GreaterThan(s.amountTolerance) {
			return nil, false
		}

		days := models.DateDifferenceDays(g.Date, b.Date)
		if days > s.dateTolerance {
			return nil, false
		}

		confidence := (s.amountScore(g, b, diff) + s.dateScore(days)) / 2.0

		return &MatchCandidate{
			GLID:             g.ID,
			BankID:           b.ID,
			Strategy:         s.Name(),
			Weight:           s.weight,
			Confidence:       clampScore(confidence),
			AmountDifference: diff,
			Rationale: fmt.Sprintf("Amounts match within $%s and dates within %d days",
				s.amountTolerance.String(), s.dateTolerance),
		}, true
	})
}

// amountScore normalizes the amount gap against the larger of the two
// magnitudes, with a floor of 1 to avoid division blowup on tiny amounts.
func (s *AmountDateStrategy) amountScore(g, b *models.TransactionRecord, diff decimal.Decimal) float64 {
	scale := decimal.Max(g.AbsAmount(), b.AbsAmount(), decimal.NewFromInt(1))
	ratio, _ := diff.Div(scale).Float64()
	return clampScore(1.0 - ratio)
}

func (s *AmountDateStrategy) dateScore(days int) float64 {
	if s.dateTolerance == 0 {
		return 1.0
	}
	return clampScore(1.0 - float64(days)/float64(s.dateTolerance))
}

// DescriptionSimilarityStrategy pairs records whose normalized descriptions
// are similar above the configured threshold while amounts agree within the
// absolute tolerance. Records lacking a description on either side never
// match here. Confidence is the similarity ratio itself.
type DescriptionSimilarityStrategy struct {
	threshold       float64
	amountTolerance decimal.Decimal
	weight          float64
}

func NewDescriptionSimilarityStrategy(cfg *Config) *DescriptionSimilarityStrategy {
	return &DescriptionSimilarityStrategy{
		threshold:       cfg.DescriptionSimilarityThreshold,
		amountTolerance: cfg.ExactAmountTolerance,
		weight:          cfg.WeightFor(StrategyDescriptionSimilarity),
	}
}

func (s *DescriptionSimilarityStrategy) Name() string    { return StrategyDescriptionSimilarity }
func (s *DescriptionSimilarityStrategy) Weight() float64 { return s.weight }

func (s *DescriptionSimilarityStrategy) Match(gl, bank []*models.TransactionRecord) []*MatchCandidate {
	return firstFit(gl, bank, func(g, b *models.TransactionRecord) (*MatchCandidate, bool) {
		if !g.HasDescription() || !b.HasDescription() {
			return nil, false
		}

		diff := amountDifference(g, b)
		if diff.GreaterThan(s.amountTolerance) {
			return nil, false
		}

		ratio := Similarity(g.NormalizedDescription, b.NormalizedDescription)
		if ratio < s.threshold {
			return nil, false
		}

		return &MatchCandidate{
			GLID:             g.ID,
			BankID:           b.ID,
			Strategy:         s.Name(),
			Weight:           s.weight,
			Confidence:       clampScore(ratio),
			AmountDifference: diff,
			Rationale: fmt.Sprintf("Description similarity %.2f meets %.2f threshold",
				ratio, s.threshold),
		}, true
	})
}

// PartialAmountStrategy pairs large GL transactions with bank records whose
// amounts fall within a relative tolerance of the GL amount. Confidence
// decays linearly from 1.0 at a perfect match to 0.0 at the tolerance edge.
type PartialAmountStrategy struct {
	minAmount    decimal.Decimal
	tolerancePct float64
	weight       float64
}

func NewPartialAmountStrategy(cfg *Config) *PartialAmountStrategy {
	return &PartialAmountStrategy{
		minAmount:    cfg.PartialAmountMin,
		tolerancePct: cfg.PartialAmountTolerancePct,
		weight:       cfg.WeightFor(StrategyPartialAmount),
	}
}

func (s *PartialAmountStrategy) Name() string    { return StrategyPartialAmount }
func (s *PartialAmountStrategy) Weight() float64 { return s.weight }

func (s *PartialAmountStrategy) Match(gl, bank []*models.TransactionRecord) []*MatchCandidate {
	pct := decimal.NewFromFloat(s.tolerancePct)

	return firstFit(gl, bank, func(g, b *models.TransactionRecord) (*MatchCandidate, bool) {
		glMagnitude := g.AbsAmount()
		if glMagnitude.LessThan(s.minAmount) {
			return nil, false
		}

		tolerance := glMagnitude.Mul(pct)
		diff := amountDifference(g, b)
		if diff.GreaterThan(tolerance) {
			return nil, false
		}

		confidence := 1.0
		if tolerance.IsPositive() {
			ratio, _ := diff.Div(tolerance).Float64()
			confidence = clampScore(1.0 - ratio)
		}

		return &MatchCandidate{
			GLID:             g.ID,
			BankID:           b.ID,
			Strategy:         s.Name(),
			Weight:           s.weight,
			Confidence:       confidence,
			AmountDifference: diff,
			Rationale: fmt.Sprintf("Large transaction amounts within %g%% tolerance",
				s.tolerancePct*100),
		}, true
	})
}

// PatternMatchingStrategy pairs records sharing a classified transaction type
// when their amounts fall within a broad relative tolerance of the larger
// magnitude. The OTHER type never matches: it marks classification failure,
// not a shared pattern.
type PatternMatchingStrategy struct {
	tolerancePct float64
	weight       float64
}

func NewPatternMatchingStrategy(cfg *Config) *PatternMatchingStrategy {
	return &PatternMatchingStrategy{
		tolerancePct: cfg.PatternAmountTolerancePct,
		weight:       cfg.WeightFor(StrategyPatternMatching),
	}
}

func (s *PatternMatchingStrategy) Name() string    { return StrategyPatternMatching }
func (s *PatternMatchingStrategy) Weight() float64 { return s.weight }

func (s *PatternMatchingStrategy) Match(gl, bank []*models.TransactionRecord) []*MatchCandidate {
	pct := decimal.NewFromFloat(s.tolerancePct)

	return firstFit(gl, bank, func(g, b *models.TransactionRecord) (*MatchCandidate, bool) {
		if g.Type == models.TypeOther || g.Type != b.Type {
			return nil, false
		}

		scale := decimal.Max(g.AbsAmount(), b.AbsAmount())
		tolerance := scale.Mul(pct)
		diff := amountDifference(g, b)
		if diff.GreaterThan(tolerance) {
			return nil, false
		}

		amountScore := 1.0
		if tolerance.IsPositive() {
			ratio, _ := diff.Div(tolerance).Float64()
			amountScore = clampScore(1.0 - ratio)
		}
		confidence := (0.8 + amountScore) / 2.0

		return &MatchCandidate{
			GLID:             g.ID,
			BankID:           b.ID,
			Strategy:         s.Name(),
			Weight:           s.weight,
			Confidence:       clampScore(confidence),
			AmountDifference: diff,
			Rationale: fmt.Sprintf("Transaction type %s matches and amounts within %g%% tolerance",
				g.Type, s.tolerancePct*100),
		}, true
	})
}
