// SPDX-License-Identifier: AGPL-3.0-or-later

/*

periodgate - admission gate for periodically named, serially numbered data archives.

Copyright (C) 2025  FunStockMarket contributors

This program is free software licensed under the terms of the GNU AGPL v3 or later.

See https://www.gnu.org/licenses/ for license details.

*/

package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/funstockmarket/periodgate/cmd/periodgate/internal/clierr"
	"github.com/funstockmarket/periodgate/internal/admission"
	"github.com/funstockmarket/periodgate/internal/archive"
	"github.com/funstockmarket/periodgate/internal/changeset"
	"github.com/funstockmarket/periodgate/internal/runner"
)

const fileTypesCheckID = "file-types"

func newCheckCmd(opts *rootOptions) *cobra.Command {
	var (
		changed    string
		useArchive bool
	)

	cmd := &cobra.Command{
		Use:   "check [changed-files]",
		Short: "Validate the files listed in a changed-files list (CI mode)",
		Long: `check validates the files a change adds to the cadence folders. The list holds one
path per line, relative to the archive root; git rename notation is accepted. Nothing is
renamed in this mode.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				changed = args[0]
			}
			if changed == "" {
				return clierr.Usage(errors.New("no changed-files list"), "pass the list as an argument or with --changed")
			}
			return runCheck(cmd, opts, changed, useArchive)
		},
	}

	cmd.Flags().StringVar(&changed, "changed", "", "file listing the changed paths, one per line")
	cmd.Flags().BoolVar(&useArchive, "archive", false, "also treat files committed on the main ref as already admitted")
	return cmd
}

func runCheck(cmd *cobra.Command, opts *rootOptions, changed string, useArchive bool) error {
	s, err := openSession(cmd, opts, admission.PolicyAccumulate)
	if err != nil {
		return err
	}
	defer s.close()

	paths, err := changeset.ReadListFile(changed)
	if err != nil {
		_, _ = fmt.Fprintf(s.out, "ERROR: %v\n", err)
		return clierr.Wrap(clierr.CodeFailed, "reading changed files", err)
	}

	set := changeset.Group(paths, s.cfg.CadenceFolders())
	s.logger.Debug("changed files grouped",
		zap.Int("paths", len(paths)),
		zap.Int("ignored", set.Ignored),
		zap.Int("rejected", len(set.Rejected)))
	if set.Empty() {
		_, _ = fmt.Fprintln(s.out, "No files in cadence folders changed. Skipping validation.")
		_, _ = fmt.Fprintln(s.out, renderBanner(true, "✅ NO RELEVANT FILES CHANGED", s.colorize))
		return nil
	}

	var deps admission.Deps
	if useArchive {
		deps.Archive = archive.NewGitArchive(s.cfg.Root, s.cfg.MainRef)
	}
	e := s.engine(modeCheck, false, deps)

	plan := runPlan{
		mode:       modeCheck,
		rejected:   set.Rejected,
		passBanner: "✅ ALL VALIDATIONS PASSED",
	}
	if len(set.Rejected) > 0 {
		plan.extra = append(plan.extra, rejectedCheck{rejected: set.Rejected})
	}
	for _, f := range s.folders() {
		names := set.Names[f.cadence]
		if len(names) == 0 {
			continue
		}
		plan.folders = append(plan.folders, admission.NewFolderCheck(e, admission.Batch{
			Cadence: f.cadence,
			Folder:  f.folder,
			Dir:     s.cfg.FolderDir(f.folder),
			Names:   names,
		}))
	}
	return s.execute(cmd.Context(), plan)
}

// rejectedCheck fails the run for paths refused before parsing.
type rejectedCheck struct {
	rejected []changeset.Rejection
}

func (rejectedCheck) ID() string { return fileTypesCheckID }

func (c rejectedCheck) Run(context.Context) runner.CheckResult {
	res := runner.CheckResult{Check: fileTypesCheckID, Status: runner.StatusFail, ExitCode: 1}
	for _, r := range c.rejected {
		res.Errors = append(res.Errors, r.Message)
	}
	return res
}
