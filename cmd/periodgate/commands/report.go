package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/funstockmarket/periodgate/cmd/periodgate/internal/clierr"
	"github.com/funstockmarket/periodgate/internal/admission"
	"github.com/funstockmarket/periodgate/internal/runner"
)

// runReport is the JSON shape of `report --json`.
type runReport struct {
	Run    *runner.LastRun      `json:"run"`
	Checks []runner.CheckResult `json:"checks"`
}

func newReportCmd(opts *rootOptions) *cobra.Command {
	var asJSON, asMarkdown bool
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show the state of the last run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, opts, admission.PolicyFailFast)
			if err != nil {
				return err
			}
			defer s.close()

			rep, err := loadReport(runner.NewStateStore(s.cfg.StateDir))
			if err != nil {
				return clierr.Wrap(clierr.CodeFailed, "reading run state", err)
			}
			if asJSON && asMarkdown {
				return clierr.Newf(clierr.CodeUsage, "--json and --markdown are mutually exclusive")
			}
			if asJSON {
				enc := json.NewEncoder(s.out)
				enc.SetIndent("", "  ")
				enc.SetEscapeHTML(false)
				return enc.Encode(rep)
			}
			if asMarkdown {
				writeMarkdownReport(s.out, rep)
				return nil
			}
			writeReport(s.out, rep)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output the run state as JSON")
	cmd.Flags().BoolVar(&asMarkdown, "markdown", false, "output the run state as Markdown, e.g. for a CI job summary")
	return cmd
}

func newResetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Clear the run state used by report and resume",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, opts, admission.PolicyFailFast)
			if err != nil {
				return err
			}
			defer s.close()

			store := runner.NewStateStore(s.cfg.StateDir)
			if err := store.Reset(); err != nil {
				return clierr.Wrap(clierr.CodeFailed, "clearing run state", err)
			}
			_, _ = fmt.Fprintln(s.out, "Run state cleared.")
			return nil
		},
	}
}

func loadReport(store *runner.StateStore) (*runReport, error) {
	last, err := store.ReadLastRun()
	if err != nil || last == nil {
		return &runReport{Run: last, Checks: []runner.CheckResult{}}, err
	}
	rep := &runReport{Run: last, Checks: make([]runner.CheckResult, 0, len(last.Checks))}
	for _, id := range last.Checks {
		res, err := store.ReadCheck(id)
		if err != nil {
			return nil, err
		}
		if res == nil {
			continue
		}
		rep.Checks = append(rep.Checks, *res)
	}
	return rep, nil
}

func reportRows(rep *runReport) [][]string {
	rows := make([][]string, 0, len(rep.Checks)+len(rep.Run.Pending))
	for _, res := range rep.Checks {
		rows = append(rows, []string{
			res.Check,
			string(res.Status),
			strconv.Itoa(len(res.Admitted)),
			strconv.Itoa(len(res.Errors)),
		})
	}
	for _, id := range rep.Run.Pending {
		rows = append(rows, []string{id, "pending", "-", "-"})
	}
	return rows
}

func writeReport(w io.Writer, rep *runReport) {
	last := rep.Run
	if last == nil {
		_, _ = fmt.Fprintln(w, "No run state found.")
		return
	}

	_, _ = fmt.Fprintf(w, "Run:     %s\n", last.RunID)
	_, _ = fmt.Fprintf(w, "Mode:    %s\n", last.Mode)
	_, _ = fmt.Fprintf(w, "Policy:  %s\n", last.Policy)
	_, _ = fmt.Fprintf(w, "Started: %s\n", last.StartedAt.UTC().Format(time.RFC3339))
	_, _ = fmt.Fprintf(w, "Status:  %s\n", last.Status)

	rows := reportRows(rep)
	if len(rows) > 0 {
		_, _ = fmt.Fprintln(w, renderTable(
			[]string{"Check", "Status", "Admitted", "Errors"},
			rows,
			2, 3,
		))
	}

	for _, res := range rep.Checks {
		if len(res.Errors) == 0 {
			continue
		}
		_, _ = fmt.Fprintf(w, "%s:\n", res.Check)
		for _, msg := range res.Errors {
			_, _ = fmt.Fprintf(w, "  - %s\n", msg)
		}
	}
	if len(last.Failed) == 0 && len(last.Pending) == 0 {
		_, _ = fmt.Fprintln(w, "All passed.")
		return
	}
	if len(last.Pending) > 0 {
		_, _ = fmt.Fprintf(w, "Not reached: %s\n", strings.Join(last.Pending, ", "))
	}
}

func writeMarkdownReport(w io.Writer, rep *runReport) {
	last := rep.Run
	if last == nil {
		_, _ = fmt.Fprintln(w, "_No run state found._")
		return
	}

	verdict := "✅ passed"
	if last.Status != "pass" {
		verdict = "❌ failed"
	}
	_, _ = fmt.Fprintf(w, "## periodgate %s run %s\n\n", last.Mode, verdict)
	_, _ = fmt.Fprintf(w, "Run `%s`, policy `%s`, started %s.\n\n", last.RunID, last.Policy, last.StartedAt.UTC().Format(time.RFC3339))
	_, _ = fmt.Fprint(w, renderMarkdownTable([]string{"Check", "Status", "Admitted", "Errors"}, reportRows(rep)))

	for _, res := range rep.Checks {
		if len(res.Errors) == 0 {
			continue
		}
		_, _ = fmt.Fprintf(w, "\n### %s\n\n", res.Check)
		for _, msg := range res.Errors {
			_, _ = fmt.Fprintf(w, "- %s\n", msg)
		}
	}
}
