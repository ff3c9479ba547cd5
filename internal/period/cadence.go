// Package period models the files admitted into the archive: their cadence,
// the fields parsed from a file name, and the canonical name they are stored under.
package period

import (
	"fmt"
	"strings"
)

// Cadence is the reporting frequency of an archive folder.
type Cadence int

const (
	Daily Cadence = iota + 1
	Weekly
	Monthly
	Yearly
)

// Cadences lists every cadence in processing order.
func Cadences() []Cadence {
	return []Cadence{Daily, Weekly, Monthly, Yearly}
}

// String returns the lower-case cadence name (e.g. "daily").
func (c Cadence) String() string {
	switch c {
	case Daily:
		return "daily"
	case Weekly:
		return "weekly"
	case Monthly:
		return "monthly"
	case Yearly:
		return "yearly"
	default:
		return fmt.Sprintf("cadence(%d)", int(c))
	}
}

// Label is the event token used in file names ("day", "week", "month", "year").
func (c Cadence) Label() string {
	switch c {
	case Daily:
		return "day"
	case Weekly:
		return "week"
	case Monthly:
		return "month"
	case Yearly:
		return "year"
	default:
		return ""
	}
}

// Valid reports whether c is one of the four known cadences.
func (c Cadence) Valid() bool {
	return c >= Daily && c <= Yearly
}

// ParseCadence resolves a cadence from its name, case-insensitively.
func ParseCadence(name string) (Cadence, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "daily":
		return Daily, nil
	case "weekly":
		return Weekly, nil
	case "monthly":
		return Monthly, nil
	case "yearly":
		return Yearly, nil
	default:
		return 0, fmt.Errorf("unknown cadence %q", name)
	}
}

// MarshalText implements encoding.TextMarshaler so cadences serialize by name.
func (c Cadence) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("unknown cadence %d", int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Cadence) UnmarshalText(text []byte) error {
	parsed, err := ParseCadence(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
