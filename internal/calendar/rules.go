package calendar

import (
	"fmt"
	"time"

	"github.com/funstockmarket/periodgate/internal/period"
)

// cadenceRules is implemented once per cadence. The set is closed: rulesFor
// is the only constructor and rejects anything it does not know.
type cadenceRules interface {
	check(c *checker, month time.Month, monthOK bool)
}

func rulesFor(cad period.Cadence) (cadenceRules, error) {
	switch cad {
	case period.Daily:
		return dailyRules{}, nil
	case period.Weekly:
		return weeklyRules{}, nil
	case period.Monthly:
		return monthlyRules{}, nil
	case period.Yearly:
		return yearlyRules{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownCadence, cad)
	}
}

type dailyRules struct{}

func (dailyRules) check(c *checker, month time.Month, monthOK bool) {
	if !monthOK {
		return
	}
	r := c.rec
	if r.Period < 1 || r.Period > daysIn(r.Year, month) {
		c.add(RuleInvalidDate, "'%d-%d-%d' is not a valid calendar date", r.Year, int(month), r.Period)
		return
	}
	date := time.Date(r.Year, month, r.Period, 0, 0, 0, 0, time.UTC)
	if date.After(c.today) {
		c.add(RuleFutureDate, "'%s' is in the future", date.Format(time.DateOnly))
	}
	if IsWeekend(date) {
		c.add(RuleWeekend, "'%s' falls on a weekend", date.Format(time.DateOnly))
	}
}

type weeklyRules struct{}

func (weeklyRules) check(c *checker, month time.Month, monthOK bool) {
	r := c.rec
	if r.Period < 1 || r.Period > 5 {
		c.add(RuleWeekRange, "Week number '%d' is invalid. Only 1-5 are allowed", r.Period)
		return
	}
	if !monthOK {
		return
	}
	first := FirstMonday(r.Year, month)
	if first.AddDate(0, 0, 7*(r.Period-1)).Month() != month {
		c.add(RuleWeekNotInMonth, "Week %d does not exist in %s %d", r.Period, r.Month, r.Year)
	}
	if r.Year == c.today.Year() && month == c.today.Month() {
		current := WeekOfMonth(c.today)
		if current == 0 || r.Period > current {
			c.add(RuleFutureWeek, "Week '%d' of '%s %d' is a future week", r.Period, r.Month, r.Year)
		}
	}
}

type monthlyRules struct{}

func (monthlyRules) check(c *checker, month time.Month, monthOK bool) {
	r := c.rec
	if r.Period < 1 || r.Period > 12 {
		c.add(RuleMonthRange, "Invalid month number '%d'. Only 1-12 allowed", r.Period)
		return
	}
	if monthOK && r.Period != int(month) {
		c.add(RuleMonthMismatch, "Month number '%d' does not match month '%s'", r.Period, r.Month)
	}
}

type yearlyRules struct{}

func (yearlyRules) check(c *checker, month time.Month, monthOK bool) {
	r := c.rec
	if r.Period != 1 {
		c.add(RuleYearlyPeriod, "Invalid yearly count '%d'. Only '1_year' is allowed", r.Period)
	}
	if monthOK && month != time.December {
		c.add(RuleYearlyMonth, "Yearly file must use December as month")
	}
	if r.Year == c.today.Year() && c.today.Month() != time.December {
		c.add(RuleYearlyTooEarly, "Yearly data for '%d' can only be uploaded during December", r.Year)
	}
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
