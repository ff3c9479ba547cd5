package admission

import (
	"context"
	"fmt"

	"github.com/funstockmarket/periodgate/internal/runner"
)

// FolderCheck evaluates one batch as a runner check and keeps the outcome
// for reporting after the run.
type FolderCheck struct {
	engine  *Engine
	batch   Batch
	outcome *Outcome
}

// NewFolderCheck binds a batch to an engine.
func NewFolderCheck(e *Engine, b Batch) *FolderCheck {
	return &FolderCheck{engine: e, batch: b}
}

func (c *FolderCheck) ID() string {
	return c.batch.Folder
}

// Outcome returns the result of the last Run, nil before the first one.
func (c *FolderCheck) Outcome() *Outcome {
	return c.outcome
}

func (c *FolderCheck) Run(ctx context.Context) runner.CheckResult {
	res := runner.CheckResult{Check: c.ID()}
	if len(c.batch.Names) == 0 {
		res.Status = runner.StatusSkip
		res.Note = "no relevant files"
		return res
	}

	out := c.engine.Evaluate(ctx, c.batch)
	c.outcome = out
	res.Admitted = out.FinalNames()
	for _, rn := range out.Applied {
		res.Renamed = append(res.Renamed, rn.From+" -> "+rn.To)
	}

	if !out.Passed() {
		res.Status = runner.StatusFail
		res.ExitCode = 1
		res.Errors = out.Messages()
		return res
	}
	res.Status = runner.StatusPass
	res.Note = fmt.Sprintf("%d admitted, %d renamed, %d already committed", len(out.Admitted), len(out.Applied), out.Skipped)
	return res
}
