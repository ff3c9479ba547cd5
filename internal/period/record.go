package period

import "time"

// HoldingsName is the file name of the per-folder holdings snapshot.
const HoldingsName = "holdings.csv"

// Record is one candidate file moving through admission.
type Record struct {
	OriginalName string
	Cadence      Cadence

	Serial    int
	HasSerial bool

	Year   int
	Period int
	// Month is the lower-cased month token as written in the name ("mar", "sept", "december").
	Month string

	// Missing marks a backfill uploaded without a serial.
	Missing bool
	// Holdings marks the snapshot file whose period comes from the processing date.
	Holdings bool

	FinalName string
}

// MonthNumber resolves the record's month token.
func (r *Record) MonthNumber() (time.Month, bool) {
	return LookupMonth(r.Month)
}

// SetSerial assigns the serial number.
func (r *Record) SetSerial(n int) {
	r.Serial = n
	r.HasSerial = true
}

// Admitted reports whether a final name has been assigned.
func (r *Record) Admitted() bool {
	return r.FinalName != ""
}

// Clone returns a copy of r.
func (r *Record) Clone() *Record {
	cp := *r
	return &cp
}

// StampHoldings writes the period fields of a holdings record from the
// processing date. Weekly holdings use the calendar week count of the day.
func (r *Record) StampHoldings(today time.Time) {
	r.Year = today.Year()
	r.Month = MonthToken(today.Month())
	switch r.Cadence {
	case Daily:
		r.Period = today.Day()
	case Weekly:
		r.Period = (today.Day()-1)/7 + 1
	case Monthly:
		r.Period = int(today.Month())
	case Yearly:
		r.Period = 1
	}
}
