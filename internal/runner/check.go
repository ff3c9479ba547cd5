package runner

import "context"

// Check is one independently evaluated unit of a run, typically one
// cadence folder.
type Check interface {
	// ID returns the unique identifier (e.g. "daily").
	ID() string

	// Run executes the check.
	Run(ctx context.Context) CheckResult
}
