package serial

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funstockmarket/periodgate/internal/period"
)

func withSerial(name string, n int) *period.Record {
	r := &period.Record{OriginalName: name, Cadence: period.Daily}
	r.SetSerial(n)
	return r
}

func kinds(issues []*Issue) []IssueKind {
	out := make([]IssueKind, 0, len(issues))
	for _, i := range issues {
		out = append(out, i.Kind)
	}
	return out
}

func TestAssign(t *testing.T) {
	a := &period.Record{OriginalName: "a", Year: 2025, Month: "mar", Period: 14, Missing: true}
	b := &period.Record{OriginalName: "b", Year: 2024, Month: "dec", Period: 31, Missing: true}
	c := &period.Record{OriginalName: "c", Year: 2025, Month: "feb", Period: 3, Missing: true}
	d := &period.Record{OriginalName: "d", Year: 2025, Month: "mar", Period: 3, Missing: true}

	ordered := Assign([]*period.Record{a, b, c, d}, 14)

	names := []string{}
	for _, r := range ordered {
		names = append(names, r.OriginalName)
	}
	assert.Equal(t, []string{"b", "c", "d", "a"}, names)
	assert.Equal(t, 15, b.Serial)
	assert.Equal(t, 16, c.Serial)
	assert.Equal(t, 17, d.Serial)
	assert.Equal(t, 18, a.Serial)
	assert.True(t, a.HasSerial)
}

func TestAssign_Deterministic(t *testing.T) {
	build := func() []*period.Record {
		return []*period.Record{
			{OriginalName: "x", Year: 2025, Month: "jan", Period: 2},
			{OriginalName: "w", Year: 2025, Month: "jan", Period: 2},
		}
	}
	first := Assign(build(), 0)
	second := Assign(build(), 0)
	for i := range first {
		assert.Equal(t, first[i].OriginalName, second[i].OriginalName)
		assert.Equal(t, first[i].Serial, second[i].Serial)
	}
	assert.Equal(t, "w", first[0].OriginalName)
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name     string
		serials  []int
		baseline int
		want     []IssueKind
	}{
		{"contiguous", []int{11, 12, 13}, 10, nil},
		{"unordered input", []int{13, 11, 12}, 10, nil},
		{"gap reported once", []int{11, 13, 14}, 10, []IssueKind{KindOutOfSequence}},
		{"duplicate", []int{11, 11, 12}, 10, []IssueKind{KindOutOfSequence, KindDuplicate}},
		{"below baseline", []int{9}, 10, []IssueKind{KindNotAbove, KindOutOfSequence}},
		{"first not next", []int{12}, 10, []IssueKind{KindOutOfSequence}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var recs []*period.Record
			for i, n := range tt.serials {
				recs = append(recs, withSerial(string(rune('a'+i)), n))
			}
			got := Verify(recs, tt.baseline)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, kinds(got))
		})
	}
}

func TestVerify_Messages(t *testing.T) {
	issues := Verify([]*period.Record{withSerial("5 2025 1_day Jan.csv", 5)}, 7)
	require.Len(t, issues, 2)
	assert.Contains(t, issues[0].Error(), "not greater than last tracked serial '7'")
	assert.Contains(t, issues[1].Error(), "Expected '8'")
}

func TestHighest(t *testing.T) {
	missing := &period.Record{OriginalName: "m", Missing: true}
	assert.Equal(t, 0, Highest())
	assert.Equal(t, 9, Highest([]*period.Record{withSerial("a", 3), missing}, []*period.Record{withSerial("b", 9)}))
}

func TestTrackerStore(t *testing.T) {
	dir := t.TempDir()
	store := NewTrackerStore(dir)

	n, err := store.Read(period.Daily)
	assert.ErrorIs(t, err, ErrTrackerMissing)
	assert.Equal(t, 0, n)

	require.NoError(t, store.Write(period.Daily, 14))
	n, err = store.Read(period.Daily)
	require.NoError(t, err)
	assert.Equal(t, 14, n)
	assert.Equal(t, filepath.Join(dir, "serial_daily.txt"), store.Path(period.Daily))

	require.NoError(t, os.WriteFile(store.Path(period.Weekly), []byte("  \n"), 0o644))
	n, err = store.Read(period.Weekly)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	require.NoError(t, os.WriteFile(store.Path(period.Monthly), []byte("abc"), 0o644))
	n, err = store.Read(period.Monthly)
	assert.Error(t, err)
	assert.Equal(t, 0, n)
}

func TestAllocator(t *testing.T) {
	a := NewAllocator(14)
	assert.Equal(t, 15, a.Peek())
	assert.Equal(t, 15, a.Peek())
	assert.Equal(t, 15, a.Take())
	assert.Equal(t, 16, a.Peek())
	assert.Equal(t, 15, a.Last())
}
