// Package calendar checks that a parsed period is a legal, non-future
// reporting period for its cadence. Every check takes the reference date
// explicitly so results never depend on the wall clock.
package calendar

import (
	"errors"
	"fmt"
	"time"

	"github.com/funstockmarket/periodgate/internal/period"
)

// DefaultMinYear is the earliest year accepted in the archive.
const DefaultMinYear = 2000

// ErrUnknownCadence is returned for a record whose cadence has no rule set.
var ErrUnknownCadence = errors.New("unknown cadence")

// Rule names a single calendar rule.
type Rule string

const (
	RuleYearTooEarly   Rule = "year-too-early"
	RuleFutureYear     Rule = "future-year"
	RuleInvalidMonth   Rule = "invalid-month"
	RuleFutureMonth    Rule = "future-month"
	RuleInvalidDate    Rule = "invalid-date"
	RuleFutureDate     Rule = "future-date"
	RuleWeekend        Rule = "weekend"
	RuleWeekRange      Rule = "week-range"
	RuleWeekNotInMonth Rule = "week-not-in-month"
	RuleFutureWeek     Rule = "future-week"
	RuleMonthRange     Rule = "month-range"
	RuleMonthMismatch  Rule = "month-mismatch"
	RuleYearlyPeriod   Rule = "yearly-period"
	RuleYearlyMonth    Rule = "yearly-month"
	RuleYearlyTooEarly Rule = "yearly-too-early"
)

// Violation is one broken calendar rule for one file.
type Violation struct {
	File    string
	Rule    Rule
	Message string
}

func (v *Violation) Error() string {
	return fmt.Sprintf("%s in '%s'", v.Message, v.File)
}

// Validator applies the global and cadence-specific calendar rules.
type Validator struct {
	MinYear int
}

// New returns a Validator accepting years from minYear onwards.
// A non-positive minYear selects DefaultMinYear.
func New(minYear int) *Validator {
	if minYear <= 0 {
		minYear = DefaultMinYear
	}
	return &Validator{MinYear: minYear}
}

// Validate returns every rule r violates relative to today, in rule order.
func (v *Validator) Validate(r *period.Record, today time.Time) ([]*Violation, error) {
	rs, err := rulesFor(r.Cadence)
	if err != nil {
		return nil, err
	}

	today = dateOf(today)
	c := &checker{rec: r, today: today}

	c.checkYear(v.MinYear)
	month, ok := r.MonthNumber()
	if !ok {
		c.add(RuleInvalidMonth, "Invalid month name '%s'", r.Month)
	} else if r.Year == today.Year() && month > today.Month() {
		c.add(RuleFutureMonth, "'%s %d' is a future month", r.Month, r.Year)
	}

	rs.check(c, month, ok)
	return c.violations, nil
}

// First returns the first violated rule, or nil when r is legal.
func (v *Validator) First(r *period.Record, today time.Time) error {
	violations, err := v.Validate(r, today)
	if err != nil {
		return err
	}
	if len(violations) == 0 {
		return nil
	}
	return violations[0]
}

// IsWeekend reports whether t falls on a Saturday or Sunday.
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// FirstMonday returns the first Monday on or after the 1st of the month.
func FirstMonday(year int, month time.Month) time.Time {
	d := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	for d.Weekday() != time.Monday {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// WeekOfMonth returns the Monday-based week number containing day, capped at 5.
// Days before the month's first Monday belong to week 0.
func WeekOfMonth(day time.Time) int {
	day = dateOf(day)
	first := FirstMonday(day.Year(), day.Month())
	if day.Before(first) {
		return 0
	}
	week := int(day.Sub(first).Hours()/24)/7 + 1
	if week > 5 {
		week = 5
	}
	return week
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

type checker struct {
	rec        *period.Record
	today      time.Time
	violations []*Violation
}

func (c *checker) add(rule Rule, format string, args ...any) {
	c.violations = append(c.violations, &Violation{
		File:    c.rec.OriginalName,
		Rule:    rule,
		Message: fmt.Sprintf(format, args...),
	})
}

func (c *checker) checkYear(minYear int) {
	switch {
	case c.rec.Year < minYear:
		c.add(RuleYearTooEarly, "Year '%d' is less than %d", c.rec.Year, minYear)
	case c.rec.Year > c.today.Year():
		c.add(RuleFutureYear, "Year '%d' is in the future", c.rec.Year)
	}
}
