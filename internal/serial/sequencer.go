// Package serial allocates and verifies the ascending serial numbers of a
// cadence folder and persists the last assigned serial in tracker files.
package serial

import (
	"fmt"
	"sort"

	"github.com/funstockmarket/periodgate/internal/period"
)

// IssueKind classifies a verification failure.
type IssueKind string

const (
	KindOutOfSequence IssueKind = "out-of-sequence"
	KindDuplicate     IssueKind = "duplicate-serial"
	KindNotAbove      IssueKind = "not-above-baseline"
)

// Issue is one serial verification failure.
type Issue struct {
	File     string
	Kind     IssueKind
	Serial   int
	Expected int
	Baseline int
}

func (i *Issue) Error() string {
	switch i.Kind {
	case KindNotAbove:
		return fmt.Sprintf("Serial '%d' in file '%s' is not greater than last tracked serial '%d'", i.Serial, i.File, i.Baseline)
	case KindDuplicate:
		return fmt.Sprintf("Duplicate serial '%d' detected for file '%s'", i.Serial, i.File)
	default:
		return fmt.Sprintf("Serial '%d' in file '%s' is not in correct sequence. Expected '%d'", i.Serial, i.File, i.Expected)
	}
}

// Highest returns the largest explicit serial among records, or 0.
func Highest(records ...[]*period.Record) int {
	highest := 0
	for _, group := range records {
		for _, r := range group {
			if r.HasSerial && r.Serial > highest {
				highest = r.Serial
			}
		}
	}
	return highest
}

// SortByPeriod returns a copy of records ordered by (year, month, period),
// ties broken by original name so the order is deterministic.
func SortByPeriod(records []*period.Record) []*period.Record {
	out := append([]*period.Record(nil), records...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		am, _ := a.MonthNumber()
		bm, _ := b.MonthNumber()
		if am != bm {
			return am < bm
		}
		if a.Period != b.Period {
			return a.Period < b.Period
		}
		return a.OriginalName < b.OriginalName
	})
	return out
}

// Allocator hands out consecutive serials after a baseline. A serial is
// only consumed by Take, so a rejected candidate does not leave a gap.
type Allocator struct {
	last int
}

// NewAllocator starts allocating at baseline+1.
func NewAllocator(baseline int) *Allocator {
	return &Allocator{last: baseline}
}

// Peek returns the next serial without consuming it.
func (a *Allocator) Peek() int {
	return a.last + 1
}

// Take consumes and returns the next serial.
func (a *Allocator) Take() int {
	a.last++
	return a.last
}

// Last returns the most recently consumed serial (the baseline if none).
func (a *Allocator) Last() int {
	return a.last
}

// Assign numbers records in period order starting at baseline+1 and returns
// them in the order they were numbered.
func Assign(records []*period.Record, baseline int) []*period.Record {
	ordered := SortByPeriod(records)
	alloc := NewAllocator(baseline)
	for _, r := range ordered {
		r.SetSerial(alloc.Take())
	}
	return ordered
}

// Verify checks that the explicit serials of records continue baseline
// without gaps or repeats. A mismatch resynchronizes the expected value so
// one bad serial is reported once.
func Verify(records []*period.Record, baseline int) []*Issue {
	ordered := make([]*period.Record, 0, len(records))
	for _, r := range records {
		if r.HasSerial {
			ordered = append(ordered, r)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Serial != ordered[j].Serial {
			return ordered[i].Serial < ordered[j].Serial
		}
		return ordered[i].OriginalName < ordered[j].OriginalName
	})

	var issues []*Issue
	expected := baseline + 1
	prev, havePrev := 0, false
	for _, r := range ordered {
		if r.Serial <= baseline {
			issues = append(issues, &Issue{File: r.OriginalName, Kind: KindNotAbove, Serial: r.Serial, Baseline: baseline})
		}
		if r.Serial != expected {
			issues = append(issues, &Issue{File: r.OriginalName, Kind: KindOutOfSequence, Serial: r.Serial, Expected: expected})
			expected = r.Serial + 1
		} else {
			expected++
		}
		if havePrev && prev == r.Serial {
			issues = append(issues, &Issue{File: r.OriginalName, Kind: KindDuplicate, Serial: r.Serial})
		}
		prev, havePrev = r.Serial, true
	}
	return issues
}
