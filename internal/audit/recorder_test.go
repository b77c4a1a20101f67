package audit

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"gl-bank-reconciler/internal/matcher"
	"gl-bank-reconciler/internal/models"
	"gl-bank-reconciler/pkg/errors"
)

func fixtureRecord(id string, side models.Side, amount float64, day int, description string) *models.TransactionRecord {
	var date time.Time
	if day > 0 {
		date = time.Date(2024, 3, day, 0, 0, 0, 0, time.UTC)
	}
	return models.NewRecord(id, side, decimal.NewFromFloat(amount), date, description)
}

// fixtureRun builds pools with two matchable pairs and leftovers on both
// sides, then drives a real controller over them.
func fixtureRun(t *testing.T) (*matcher.Pool, *matcher.Pool, *matcher.RunResult) {
	t.Helper()

	glPool, err := matcher.NewPool(models.SideGL, []*models.TransactionRecord{
		fixtureRecord("GL-1", models.SideGL, 100, 1, "ACH VENDOR PAYMENT"),
		fixtureRecord("GL-2", models.SideGL, 2000, 2, "WIRE SETTLEMENT"),
		fixtureRecord("GL-3", models.SideGL, 10, 3, "MISC JOURNAL"),
		fixtureRecord("GL-4", models.SideGL, 5000, 4, "WIRE OUT 881"),
	})
	if err != nil {
		t.Fatalf("gl pool: %v", err)
	}

	bankPool, err := matcher.NewPool(models.SideBank, []*models.TransactionRecord{
		fixtureRecord("B-1", models.SideBank, 100, 1, "ACH VENDOR PAYMENT"),
		fixtureRecord("B-2", models.SideBank, 1980, 2, "INCOMING FUNDS"),
		fixtureRecord("B-3", models.SideBank, 75, 3, "MISC ADJUSTMENT"),
	})
	if err != nil {
		t.Fatalf("bank pool: %v", err)
	}

	controller, err := matcher.NewController(matcher.DefaultConfig(), glPool, bankPool)
	if err != nil {
		t.Fatalf("controller: %v", err)
	}

	result, err := controller.Run()
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	return glPool, bankPool, result
}

func TestRecorderNumbersMatchesInAcceptanceOrder(t *testing.T) {
	glPool, bankPool, result := fixtureRun(t)

	recorder := NewRecorder(glPool, bankPool)
	if err := recorder.RecordRun(result); err != nil {
		t.Fatalf("RecordRun() unexpected error: %v", err)
	}

	entries := recorder.Entries()
	if len(entries) != len(result.Matches) {
		t.Fatalf("entries = %d, matches = %d", len(entries), len(result.Matches))
	}

	for i, entry := range entries {
		if entry.MatchNumber != i+1 {
			t.Errorf("entry %d has MatchNumber %d", i, entry.MatchNumber)
		}
		if entry.GL == nil || entry.Bank == nil {
			t.Errorf("entry %d missing resolved records", i)
		}
		if entry.Round < 1 {
			t.Errorf("entry %d has round %d", i, entry.Round)
		}
	}
}

func TestRecorderStrategyAggregates(t *testing.T) {
	glPool, bankPool, result := fixtureRun(t)

	recorder := NewRecorder(glPool, bankPool)
	if err := recorder.RecordRun(result); err != nil {
		t.Fatalf("RecordRun() unexpected error: %v", err)
	}

	stats := recorder.ByStrategy()

	exact, ok := stats[matcher.StrategyExactAmount]
	if !ok || exact.Count != 1 {
		t.Fatalf("exact_amount stats = %+v", exact)
	}
	if exact.AvgConfidence() != 1.0 {
		t.Errorf("exact avg confidence = %f, want 1.0", exact.AvgConfidence())
	}
	if !exact.TotalAmount.Equal(decimal.NewFromInt(100)) {
		t.Errorf("exact total amount = %s, want 100", exact.TotalAmount)
	}

	partial, ok := stats[matcher.StrategyPartialAmount]
	if !ok || partial.Count != 1 {
		t.Fatalf("partial_amount stats = %+v", partial)
	}
	if !partial.TotalAmount.Equal(decimal.NewFromInt(2000)) {
		t.Errorf("partial total amount = %s, want 2000", partial.TotalAmount)
	}
}

func TestRecorderRejectsOrphanedCandidate(t *testing.T) {
	glPool, bankPool, _ := fixtureRun(t)

	recorder := NewRecorder(glPool, bankPool)
	err := recorder.RecordRun(&matcher.RunResult{
		Matches: []*matcher.MatchCandidate{
			{GLID: "GL-MISSING", BankID: "B-1", Strategy: matcher.StrategyExactAmount},
		},
		Iterations: []*matcher.IterationRecord{
			{Round: 1, MatchesFound: 1},
		},
	})

	if err == nil {
		t.Fatal("expected error for orphaned candidate, got nil")
	}
	if !errors.IsConsistencyError(err) {
		t.Errorf("expected consistency error, got %v", err)
	}
}

func TestRecorderRejectsNilResult(t *testing.T) {
	glPool, bankPool, _ := fixtureRun(t)

	recorder := NewRecorder(glPool, bankPool)
	if err := recorder.RecordRun(nil); err == nil {
		t.Fatal("expected error for nil result, got nil")
	}
}

func TestRecorderRejectsInconsistentIterationCounts(t *testing.T) {
	glPool, bankPool, _ := fixtureRun(t)

	recorder := NewRecorder(glPool, bankPool)
	err := recorder.RecordRun(&matcher.RunResult{
		Matches: nil,
		Iterations: []*matcher.IterationRecord{
			{Round: 1, MatchesFound: 2},
		},
	})
	if err == nil {
		t.Fatal("expected error when iterations claim more matches than exist")
	}
}
