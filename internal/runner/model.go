package runner

import "time"

// CheckStatus represents the outcome of a check execution.
type CheckStatus string

const (
	StatusPass CheckStatus = "pass"
	StatusFail CheckStatus = "fail"
	StatusSkip CheckStatus = "skip"
)

// CheckResult represents the result of a single check execution.
// Matches <state_dir>/checks/<check>.json.
type CheckResult struct {
	Check    string      `json:"check"`
	Status   CheckStatus `json:"status"`
	ExitCode int         `json:"exit_code"`
	Errors   []string    `json:"errors,omitempty"`
	Admitted []string    `json:"admitted,omitempty"`
	Renamed  []string    `json:"renamed,omitempty"`
	Note     string      `json:"note,omitempty"`
}

// LastRun represents the summary of the last execution.
// Matches <state_dir>/last-run.json.
type LastRun struct {
	RunID     string    `json:"run_id"`
	StartedAt time.Time `json:"started_at"`
	Mode      string    `json:"mode,omitempty"`
	Status    string    `json:"status"` // "pass" or "fail"
	Policy    string    `json:"policy,omitempty"`
	Checks    []string  `json:"checks"`  // Ordered list of checks run
	Failed    []string  `json:"failed"`  // Checks that failed
	Pending   []string  `json:"pending"` // Checks never reached after a fail-fast stop
}
