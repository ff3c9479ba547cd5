package period

import (
	"strings"
	"time"
)

var monthTokens = map[string]time.Month{
	"jan": time.January, "january": time.January,
	"feb": time.February, "february": time.February,
	"mar": time.March, "march": time.March,
	"apr": time.April, "april": time.April,
	"may": time.May,
	"jun": time.June, "june": time.June,
	"jul": time.July, "july": time.July,
	"aug": time.August, "august": time.August,
	"sep": time.September, "sept": time.September, "september": time.September,
	"oct": time.October, "october": time.October,
	"nov": time.November, "november": time.November,
	"dec": time.December, "december": time.December,
}

// LookupMonth resolves an English month name or abbreviation, case-insensitively.
func LookupMonth(token string) (time.Month, bool) {
	m, ok := monthTokens[strings.ToLower(strings.TrimSpace(token))]
	return m, ok
}

// MonthToken returns the lower-case full month name used when a record's
// month is derived from a date rather than parsed.
func MonthToken(m time.Month) string {
	return strings.ToLower(m.String())
}
