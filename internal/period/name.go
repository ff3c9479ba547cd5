package period

import (
	"strconv"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// BuildName returns the canonical archive name of r:
//
//	"<serial> <year> <period>_<label> <Month>.csv"
//	"<serial> <year> 1_year <Month>.csv"
//
// The record must already carry a serial and a validated, lower-cased month.
func BuildName(r *Record) string {
	month := capitalize(r.Month)
	serial := strconv.Itoa(r.Serial)
	year := strconv.Itoa(r.Year)
	if r.Cadence == Yearly {
		return serial + " " + year + " 1_year " + month + ".csv"
	}
	return serial + " " + year + " " + strconv.Itoa(r.Period) + "_" + r.Cadence.Label() + " " + month + ".csv"
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	// Casers are stateful; build one per call.
	return cases.Title(language.English).String(s)
}
