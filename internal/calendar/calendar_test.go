package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funstockmarket/periodgate/internal/period"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func rec(c period.Cadence, year, p int, month string) *period.Record {
	return &period.Record{OriginalName: "f.csv", Cadence: c, Year: year, Period: p, Month: month}
}

func rules(vs []*Violation) []Rule {
	out := make([]Rule, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.Rule)
	}
	return out
}

func TestValidate(t *testing.T) {
	thursday := day(2025, time.March, 20)

	tests := []struct {
		name  string
		rec   *period.Record
		today time.Time
		want  []Rule
	}{
		{"daily weekday", rec(period.Daily, 2025, 14, "mar"), thursday, nil},
		{"daily saturday", rec(period.Daily, 2025, 15, "mar"), thursday, []Rule{RuleWeekend}},
		{"daily future", rec(period.Daily, 2025, 21, "mar"), thursday, []Rule{RuleFutureDate}},
		{"daily today", rec(period.Daily, 2025, 20, "march"), thursday, nil},
		{"daily invalid date only", rec(period.Daily, 2025, 31, "feb"), thursday, []Rule{RuleInvalidDate}},
		{"daily invalid month", rec(period.Daily, 2025, 3, "foo"), thursday, []Rule{RuleInvalidMonth}},
		{"year before 2000", rec(period.Daily, 1999, 1, "feb"), thursday, []Rule{RuleYearTooEarly}},
		{"future year", rec(period.Monthly, 2026, 1, "jan"), thursday, []Rule{RuleFutureYear}},
		{"future month", rec(period.Monthly, 2025, 4, "apr"), thursday, []Rule{RuleFutureMonth}},

		{"weekly current week", rec(period.Weekly, 2025, 3, "mar"), thursday, nil},
		{"weekly future week", rec(period.Weekly, 2025, 4, "mar"), thursday, []Rule{RuleFutureWeek}},
		{"weekly fifth week exists", rec(period.Weekly, 2025, 5, "mar"), day(2025, time.April, 1), nil},
		{"weekly fifth week missing", rec(period.Weekly, 2025, 5, "feb"), thursday, []Rule{RuleWeekNotInMonth}},
		{"weekly zero", rec(period.Weekly, 2025, 0, "jan"), thursday, []Rule{RuleWeekRange}},
		{"weekly six", rec(period.Weekly, 2025, 6, "jan"), thursday, []Rule{RuleWeekRange}},
		{"weekly before first monday", rec(period.Weekly, 2025, 1, "mar"), day(2025, time.March, 2), []Rule{RuleFutureWeek}},

		{"monthly ok", rec(period.Monthly, 2025, 3, "mar"), thursday, nil},
		{"monthly out of range", rec(period.Monthly, 2024, 13, "dec"), thursday, []Rule{RuleMonthRange}},
		{"monthly zero", rec(period.Monthly, 2024, 0, "dec"), thursday, []Rule{RuleMonthRange}},
		{"monthly mismatch", rec(period.Monthly, 2024, 3, "apr"), thursday, []Rule{RuleMonthMismatch}},

		{"yearly past", rec(period.Yearly, 2024, 1, "december"), thursday, nil},
		{"yearly current outside december", rec(period.Yearly, 2025, 1, "dec"), thursday, []Rule{RuleFutureMonth, RuleYearlyTooEarly}},
		{"yearly current in december", rec(period.Yearly, 2025, 1, "december"), day(2025, time.December, 5), nil},
		{"yearly not december", rec(period.Yearly, 2024, 1, "jan"), thursday, []Rule{RuleYearlyMonth}},
		{"yearly count", rec(period.Yearly, 2024, 2, "dec"), thursday, []Rule{RuleYearlyPeriod}},
	}

	v := New(0)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.Validate(tt.rec, tt.today)
			require.NoError(t, err)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, rules(got))
		})
	}
}

func TestFirst(t *testing.T) {
	v := New(DefaultMinYear)

	err := v.First(rec(period.Daily, 2025, 15, "mar"), day(2025, time.March, 20))
	var viol *Violation
	require.ErrorAs(t, err, &viol)
	assert.Equal(t, RuleWeekend, viol.Rule)
	assert.Contains(t, err.Error(), "weekend")
	assert.Contains(t, err.Error(), "f.csv")

	assert.NoError(t, v.First(rec(period.Daily, 2025, 14, "mar"), day(2025, time.March, 20)))
}

func TestValidate_UnknownCadence(t *testing.T) {
	_, err := New(0).Validate(rec(period.Cadence(9), 2024, 1, "jan"), day(2025, time.March, 20))
	assert.ErrorIs(t, err, ErrUnknownCadence)
}

func TestWeekOfMonth(t *testing.T) {
	assert.Equal(t, 0, WeekOfMonth(day(2025, time.March, 2)))
	assert.Equal(t, 1, WeekOfMonth(day(2025, time.March, 3)))
	assert.Equal(t, 3, WeekOfMonth(day(2025, time.March, 20)))
	assert.Equal(t, 5, WeekOfMonth(day(2025, time.March, 31)))
}

func TestIsWeekend(t *testing.T) {
	assert.True(t, IsWeekend(day(2025, time.March, 15)))
	assert.True(t, IsWeekend(day(2025, time.March, 16)))
	assert.False(t, IsWeekend(day(2025, time.March, 17)))
}
