// Package dedupe detects records that describe the same reporting period or
// resolve to the same canonical name as a record admitted before them.
package dedupe

import (
	"fmt"

	"github.com/funstockmarket/periodgate/internal/period"
)

// Key returns the semantic period key of r. It is coarser than the file
// name: two records with different serials can share a key.
func Key(r *period.Record) string {
	month := r.Month
	if m, ok := r.MonthNumber(); ok {
		month = fmt.Sprint(int(m))
	}
	switch r.Cadence {
	case period.Daily:
		return fmt.Sprintf("%d-%s-%d", r.Year, month, r.Period)
	case period.Weekly:
		return fmt.Sprintf("%d-%s-W%d", r.Year, month, r.Period)
	case period.Monthly:
		return fmt.Sprintf("%d-%s", r.Year, month)
	case period.Yearly:
		return fmt.Sprint(r.Year)
	default:
		return ""
	}
}

// Pool is an ordered, append-only collection of records already accepted
// for a folder. With returns a new Pool; the receiver is never modified.
type Pool struct {
	records []*period.Record
}

// NewPool seeds a pool, typically with the committed archive.
func NewPool(records ...*period.Record) Pool {
	return Pool{records: append([]*period.Record(nil), records...)}
}

// With returns a pool that also contains r.
func (p Pool) With(r *period.Record) Pool {
	next := make([]*period.Record, len(p.records), len(p.records)+1)
	copy(next, p.records)
	return Pool{records: append(next, r)}
}

// Len returns the number of records in the pool.
func (p Pool) Len() int {
	return len(p.records)
}

// Records returns a copy of the pool contents in insertion order.
func (p Pool) Records() []*period.Record {
	return append([]*period.Record(nil), p.records...)
}

// PeriodConflict returns the first record in the pool sharing r's period
// key, or nil.
func (p Pool) PeriodConflict(r *period.Record) *period.Record {
	if !hasPeriod(r) {
		return nil
	}
	key := Key(r)
	for _, e := range p.records {
		if e == r || !hasPeriod(e) {
			continue
		}
		if e.Cadence == r.Cadence && Key(e) == key {
			return e
		}
	}
	return nil
}

// NameConflict returns the first record in the pool, other than self, whose
// canonical name equals name. Records without a serial have no canonical name.
func (p Pool) NameConflict(name string, self *period.Record) *period.Record {
	for _, e := range p.records {
		if e == self || !e.HasSerial || !hasPeriod(e) {
			continue
		}
		if period.BuildName(e) == name {
			return e
		}
	}
	return nil
}

// hasPeriod is false for a holdings record whose period was never stamped,
// e.g. a holdings file listed in the committed archive.
func hasPeriod(r *period.Record) bool {
	return !(r.Holdings && r.Year == 0)
}
