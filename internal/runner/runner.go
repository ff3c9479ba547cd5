package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrRunFailed is returned when at least one check failed.
var ErrRunFailed = errors.New("run failed")

// Options configure a Runner.
type Options struct {
	// StopOnFailure ends the run at the first failing check.
	StopOnFailure bool
	// Mode and Policy are recorded in the run state for reporting.
	Mode   string
	Policy string
	Out    io.Writer
	Logger *zap.Logger
	// Now stamps the run; defaults to time.Now.
	Now func() time.Time
}

// Runner manages the execution of checks.
type Runner struct {
	checks []Check
	store  *StateStore
	opts   Options
	last   *LastRun
}

// NewRunner creates a new runner with the given checks and state store.
func NewRunner(checks []Check, store *StateStore, opts Options) *Runner {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Runner{
		checks: checks,
		store:  store,
		opts:   opts,
	}
}

// LastRun returns the summary written by the most recent execution, or nil.
func (r *Runner) LastRun() *LastRun {
	return r.last
}

// RunAll executes all checks in order.
// Unless StopOnFailure is set it continues after a failing check,
// accumulating failures. Returns ErrRunFailed if ANY check failed.
func (r *Runner) RunAll(ctx context.Context) error {
	return r.executeSequence(ctx, r.checks)
}

// Resume re-runs the checks that failed or were never reached in the last run.
func (r *Runner) Resume(ctx context.Context) error {
	last, err := r.store.ReadLastRun()
	if err != nil {
		return fmt.Errorf("loading last run: %w", err)
	}
	if last == nil || (len(last.Failed) == 0 && len(last.Pending) == 0) {
		_, _ = fmt.Fprintln(r.opts.Out, "No failed checks to resume")
		return nil
	}

	want := append(append([]string(nil), last.Failed...), last.Pending...)
	var toRun []Check
	for _, id := range want {
		if c := r.findCheck(id); c != nil {
			toRun = append(toRun, c)
		}
	}
	return r.executeSequence(ctx, toRun)
}

// RunList executes a specific list of check IDs.
func (r *Runner) RunList(ctx context.Context, ids []string) error {
	var toRun []Check
	for _, id := range ids {
		c := r.findCheck(id)
		if c == nil {
			return fmt.Errorf("check not found: %s", id)
		}
		toRun = append(toRun, c)
	}
	return r.executeSequence(ctx, toRun)
}

func (r *Runner) findCheck(id string) Check {
	for _, c := range r.checks {
		if c.ID() == id {
			return c
		}
	}
	return nil
}

// executeSequence runs a sequence of checks, updating state.
// It returns ErrRunFailed if ANY check failed.
func (r *Runner) executeSequence(ctx context.Context, checks []Check) error {
	out := r.opts.Out
	run := LastRun{
		RunID:     uuid.NewString(),
		StartedAt: r.opts.Now().UTC(),
		Mode:      r.opts.Mode,
		Status:    "pass",
		Policy:    r.opts.Policy,
		Checks:    []string{},
		Failed:    []string{},
		Pending:   []string{},
	}
	log := r.opts.Logger.With(zap.String("run_id", run.RunID))

	for i, check := range checks {
		if err := ctx.Err(); err != nil {
			return err
		}
		id := check.ID()
		run.Checks = append(run.Checks, id)

		_, _ = fmt.Fprintln(out, "")
		_, _ = fmt.Fprintln(out, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		_, _ = fmt.Fprintf(out, "CHECK: %s\n", id)
		_, _ = fmt.Fprintln(out, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

		start := r.opts.Now()
		res := check.Run(ctx)
		log.Debug("check finished", zap.String("check", id), zap.String("status", string(res.Status)), zap.Duration("elapsed", r.opts.Now().Sub(start)))

		if err := r.store.WriteCheckResult(res); err != nil {
			return fmt.Errorf("writing result for %s: %w", id, err)
		}

		for _, msg := range res.Errors {
			_, _ = fmt.Fprintf(out, "ERROR: %s\n", msg)
		}

		switch res.Status {
		case StatusSkip:
			_, _ = fmt.Fprintf(out, "SKIP: %s\n", id)
		case StatusPass:
			_, _ = fmt.Fprintf(out, "PASS: %s\n", id)
		default:
			run.Failed = append(run.Failed, id)
			run.Status = "fail"
			_, _ = fmt.Fprintf(out, "FAIL: %s (exit %d)\n", id, res.ExitCode)
		}
		if res.Note != "" {
			_, _ = fmt.Fprintln(out, res.Note)
		}

		if res.Status == StatusFail && r.opts.StopOnFailure {
			for _, rest := range checks[i+1:] {
				run.Pending = append(run.Pending, rest.ID())
			}
			log.Info("stopping at first failing check", zap.String("check", id), zap.Strings("pending", run.Pending))
			break
		}
	}

	r.last = &run
	if err := r.store.WriteLastRun(run); err != nil {
		return fmt.Errorf("writing last run: %w", err)
	}

	if run.Status != "pass" {
		return fmt.Errorf("%w: %v", ErrRunFailed, run.Failed)
	}
	return nil
}
