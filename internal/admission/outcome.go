package admission

import (
	"github.com/funstockmarket/periodgate/internal/period"
)

// Status is the terminal state of a folder.
type Status string

const (
	StatusPassed Status = "passed"
	StatusFailed Status = "failed"
)

// Rename is one planned move from an uploaded name to its canonical name.
type Rename struct {
	Cadence period.Cadence `json:"cadence"`
	Folder  string         `json:"folder"`
	From    string         `json:"from"`
	To      string         `json:"to"`
	Serial  int            `json:"serial"`
}

// Outcome is the result of evaluating one folder.
type Outcome struct {
	Cadence period.Cadence
	Folder  string
	Dir     string
	Status  Status
	Issues  []*Issue

	// Admitted holds every record that passed, in processing order.
	Admitted []*period.Record
	// Renames is the plan; Applied is the prefix of it that was performed.
	Renames []Rename
	Applied []Rename

	// Baseline is the serial the batch's explicit serials had to continue.
	Baseline      int
	HighestSerial int
	// Skipped counts candidates already present in the committed archive.
	Skipped int
}

// Passed reports whether the folder was admitted.
func (o *Outcome) Passed() bool {
	return o.Status == StatusPassed
}

// Err returns every issue combined, or nil.
func (o *Outcome) Err() error {
	return Combine(o.Issues)
}

// Messages returns the issue messages in report order.
func (o *Outcome) Messages() []string {
	out := make([]string, 0, len(o.Issues))
	for _, i := range o.Issues {
		out = append(out, i.Message)
	}
	return out
}

// FinalNames returns the final names of the admitted records.
func (o *Outcome) FinalNames() []string {
	out := make([]string, 0, len(o.Admitted))
	for _, r := range o.Admitted {
		out = append(out, r.FinalName)
	}
	return out
}
