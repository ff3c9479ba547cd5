package period

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ParseError reports a name that does not match its cadence's file shape.
type ParseError struct {
	Name    string
	Cadence Cadence
	Reason  string
}

func (e *ParseError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("invalid file format: %s", e.Name)
	}
	return fmt.Sprintf("invalid file format: %s (%s)", e.Name, e.Reason)
}

var (
	dailyPattern   = regexp.MustCompile(`^(?:(\d+)\s+)?(\d{4})\s+(\d+)_day\s+([A-Za-z]+)\.csv$`)
	weeklyPattern  = regexp.MustCompile(`^(?:(\d+)\s+)?(\d{4})\s+(\d+)_week\s+([A-Za-z]+)\.csv$`)
	monthlyPattern = regexp.MustCompile(`^(?:(\d+)\s+)?(\d{4})\s+(\d+)_month\s+([A-Za-z]+)\.csv$`)
	yearlyPattern  = regexp.MustCompile(`^(?:(\d+)\s+)?(\d{4})\s+1_year\s+([A-Za-z]+)\.csv$`)
)

// Parse turns a raw file name into a Record. Field extraction is lexical only;
// calendar legality is checked by the calendar package.
func Parse(name string, c Cadence) (*Record, error) {
	if strings.EqualFold(name, HoldingsName) {
		return &Record{OriginalName: name, Cadence: c, Holdings: true}, nil
	}

	var (
		pattern *regexp.Regexp
		yearly  bool
	)
	switch c {
	case Daily:
		pattern = dailyPattern
	case Weekly:
		pattern = weeklyPattern
	case Monthly:
		pattern = monthlyPattern
	case Yearly:
		pattern, yearly = yearlyPattern, true
	default:
		return nil, &ParseError{Name: name, Cadence: c, Reason: "unknown cadence"}
	}

	m := pattern.FindStringSubmatch(name)
	if m == nil {
		return nil, &ParseError{Name: name, Cadence: c}
	}

	rec := &Record{OriginalName: name, Cadence: c}
	if m[1] == "" {
		rec.Missing = true
	} else {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, &ParseError{Name: name, Cadence: c, Reason: "serial out of range"}
		}
		rec.SetSerial(n)
	}

	year, err := strconv.Atoi(m[2])
	if err != nil {
		return nil, &ParseError{Name: name, Cadence: c, Reason: "invalid year"}
	}
	rec.Year = year

	if yearly {
		rec.Period = 1
		rec.Month = strings.ToLower(m[3])
		return rec, nil
	}

	p, err := strconv.Atoi(m[3])
	if err != nil {
		return nil, &ParseError{Name: name, Cadence: c, Reason: "period out of range"}
	}
	rec.Period = p
	rec.Month = strings.ToLower(m[4])
	return rec, nil
}
