package matcher

import (
	"fmt"

	"github.com/shopspring/decimal"

	"gl-bank-reconciler/internal/models"
	"gl-bank-reconciler/pkg/errors"
)

// Pool holds one side's transaction records along with their consumption
// state. Records never leave the pool; matching marks them consumed so that
// at every point each record is either consumed by exactly one match or
// still available. Insertion order is preserved and drives first-fit
// matching.
type Pool struct {
	side     models.Side
	records  []*models.TransactionRecord
	index    map[string]*models.TransactionRecord
	consumed map[string]bool
}

// NewPool builds a pool from records of a single side. Records whose side
// disagrees with the pool or whose ID duplicates an earlier record are
// rejected; pool construction is all-or-nothing.
func NewPool(side models.Side, records []*models.TransactionRecord) (*Pool, error) {
	if !side.IsValid() {
		return nil, errors.ValidationError(errors.CodeInvalidFormat, "side", string(side), nil)
	}

	p := &Pool{
		side:     side,
		records:  make([]*models.TransactionRecord, 0, len(records)),
		index:    make(map[string]*models.TransactionRecord, len(records)),
		consumed: make(map[string]bool, len(records)),
	}

	for _, record := range records {
		if record == nil {
			continue
		}
		if record.Side != side {
			return nil, errors.ValidationError(errors.CodeInvalidFormat, "side",
				fmt.Sprintf("record %s has side %s, pool expects %s", record.ID, record.Side, side), nil)
		}
		if _, exists := p.index[record.ID]; exists {
			return nil, errors.ValidationError(errors.CodeDuplicateRecord, "id", record.ID, nil)
		}
		p.records = append(p.records, record)
		p.index[record.ID] = record
	}

	return p, nil
}

// Side returns the ledger side this pool holds
func (p *Pool) Side() models.Side {
	return p.side
}

// Size returns the total number of records in the pool, consumed or not
func (p *Pool) Size() int {
	return len(p.records)
}

// ConsumedCount returns the number of records consumed so far
func (p *Pool) ConsumedCount() int {
	return len(p.consumed)
}

// UnconsumedCount returns the number of records still available for matching
func (p *Pool) UnconsumedCount() int {
	return len(p.records) - len(p.consumed)
}

// Unconsumed returns the records still available for matching, in insertion
// order. The returned slice is a snapshot; consuming a record afterwards does
// not mutate it.
func (p *Pool) Unconsumed() []*models.TransactionRecord {
	available := make([]*models.TransactionRecord, 0, p.UnconsumedCount())
	for _, record := range p.records {
		if !p.consumed[record.ID] {
			available = append(available, record)
		}
	}
	return available
}

// UnconsumedIDs returns the IDs of records still available, in insertion order
func (p *Pool) UnconsumedIDs() []string {
	ids := make([]string, 0, p.UnconsumedCount())
	for _, record := range p.records {
		if !p.consumed[record.ID] {
			ids = append(ids, record.ID)
		}
	}
	return ids
}

// Lookup returns the record with the given ID regardless of consumption state
func (p *Pool) Lookup(id string) (*models.TransactionRecord, bool) {
	record, ok := p.index[id]
	return record, ok
}

// IsConsumed reports whether the record with the given ID has been consumed
func (p *Pool) IsConsumed(id string) bool {
	return p.consumed[id]
}

// Consume marks a record as matched. Consuming an unknown ID or a record
// already consumed is an engine consistency failure and returns a fatal
// error: the run must abort rather than emit a report that double-counts.
func (p *Pool) Consume(id string) error {
	if _, ok := p.index[id]; !ok {
		return errors.ConsistencyError(errors.CodeOrphanedCandidate, id,
			fmt.Sprintf("record not present in %s pool", p.side))
	}
	if p.consumed[id] {
		return errors.ConsistencyError(errors.CodeDoubleConsumption, id,
			fmt.Sprintf("record already consumed from %s pool", p.side))
	}
	p.consumed[id] = true
	return nil
}

// Total sums the signed amounts of every record in the pool, consumed or not.
// Reconciliation balances are computed over the full ledger, not the
// remainder.
func (p *Pool) Total() decimal.Decimal {
	total := decimal.Zero
	for _, record := range p.records {
		total = total.Add(record.Amount)
	}
	return total
}
