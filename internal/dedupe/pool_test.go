package dedupe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funstockmarket/periodgate/internal/period"
)

func parse(t *testing.T, name string, c period.Cadence) *period.Record {
	t.Helper()
	r, err := period.Parse(name, c)
	require.NoError(t, err)
	return r
}

func TestKey(t *testing.T) {
	tests := []struct {
		name    string
		cadence period.Cadence
		want    string
	}{
		{"3 2025 14_day Mar.csv", period.Daily, "2025-3-14"},
		{"3 2025 2_week March.csv", period.Weekly, "2025-3-W2"},
		{"3 2025 3_month Mar.csv", period.Monthly, "2025-3"},
		{"3 2024 1_year Dec.csv", period.Yearly, "2024"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Key(parse(t, tt.name, tt.cadence)))
		})
	}
}

func TestPool_PeriodConflict(t *testing.T) {
	first := parse(t, "4 2025 3_month Mar.csv", period.Monthly)
	second := parse(t, "5 2025 3_month March.csv", period.Monthly)
	other := parse(t, "6 2025 2_month Feb.csv", period.Monthly)

	pool := NewPool().With(first)
	assert.Same(t, first, pool.PeriodConflict(second))
	assert.Nil(t, pool.PeriodConflict(other))
	assert.Nil(t, pool.PeriodConflict(first), "a record never conflicts with itself")
}

func TestPool_NameConflict(t *testing.T) {
	committed := parse(t, "15 2025 14_day Mar.csv", period.Daily)
	candidate := parse(t, "2025 14_day Mar.csv", period.Daily)
	candidate.SetSerial(15)

	pool := NewPool(committed)
	assert.Same(t, committed, pool.NameConflict(period.BuildName(candidate), candidate))

	candidate.SetSerial(16)
	assert.Nil(t, pool.NameConflict(period.BuildName(candidate), candidate))
}

func TestPool_WithDoesNotAlias(t *testing.T) {
	a := parse(t, "1 2025 1_month Jan.csv", period.Monthly)
	b := parse(t, "2 2025 2_month Feb.csv", period.Monthly)
	c := parse(t, "3 2025 3_month Mar.csv", period.Monthly)

	base := NewPool(a)
	left := base.With(b)
	right := base.With(c)

	assert.Equal(t, 1, base.Len())
	assert.Equal(t, []*period.Record{a, b}, left.Records())
	assert.Equal(t, []*period.Record{a, c}, right.Records())
}

func TestPool_IgnoresUnstampedHoldings(t *testing.T) {
	holdings := parse(t, "holdings.csv", period.Daily)
	pool := NewPool(holdings)

	r := parse(t, "1 2025 3_day Mar.csv", period.Daily)
	assert.Nil(t, pool.PeriodConflict(r))
	assert.Nil(t, pool.NameConflict(period.BuildName(r), r))
}
