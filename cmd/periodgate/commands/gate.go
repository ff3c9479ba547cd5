// SPDX-License-Identifier: AGPL-3.0-or-later

/*

periodgate - admission gate for periodically named, serially numbered data archives.

Copyright (C) 2025  FunStockMarket contributors

This program is free software licensed under the terms of the GNU AGPL v3 or later.

See https://www.gnu.org/licenses/ for license details.

*/

package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/funstockmarket/periodgate/cmd/periodgate/internal/clierr"
	"github.com/funstockmarket/periodgate/internal/admission"
	"github.com/funstockmarket/periodgate/internal/runner"
)

type gateOptions struct {
	dryRun         bool
	updateTrackers bool
	folders        []string
}

func newGateCmd(opts *rootOptions) *cobra.Command {
	gopts := &gateOptions{}
	cmd := &cobra.Command{
		Use:   "gate",
		Short: "Validate and rename the files in the cadence folders (local mode)",
		Long: `gate evaluates every CSV file in the configured cadence folders. Files already committed
on the main ref count as admitted. When a folder passes, its backfills and holdings
snapshots are renamed to their canonical names.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGate(cmd, opts, gopts, false)
		},
	}

	cmd.Flags().BoolVar(&gopts.dryRun, "dry-run", false, "report planned renames without performing them")
	cmd.Flags().BoolVar(&gopts.updateTrackers, "update-trackers", false, "raise each tracker to the highest serial its folder holds")
	cmd.Flags().StringSliceVar(&gopts.folders, "folder", nil, "limit the run to these folders (repeatable)")
	return cmd
}

func runGate(cmd *cobra.Command, opts *rootOptions, gopts *gateOptions, resume bool) error {
	s, err := openSession(cmd, opts, admission.PolicyFailFast)
	if err != nil {
		return err
	}
	defer s.close()

	release, err := s.lock()
	if err != nil {
		return err
	}
	defer release()

	if resume {
		last, err := runner.NewStateStore(s.cfg.StateDir).ReadLastRun()
		if err != nil {
			return clierr.Wrap(clierr.CodeFailed, "reading run state", err)
		}
		if last != nil && last.Mode != modeGate {
			return clierr.Newf(clierr.CodeUsage, "last run was a %s run; only gate runs can be resumed", last.Mode)
		}
	}

	checks, err := s.gateChecks(gopts.dryRun)
	if err != nil {
		return err
	}
	if err := knownFolders(checks, gopts.folders); err != nil {
		return err
	}

	return s.execute(cmd.Context(), runPlan{
		mode:           modeGate,
		folders:        checks,
		only:           gopts.folders,
		resume:         resume,
		dryRun:         gopts.dryRun,
		updateTrackers: gopts.updateTrackers,
		passBanner:     "✅ ALL FOLDERS ADMITTED",
	})
}

func knownFolders(checks []*admission.FolderCheck, want []string) error {
	known := make(map[string]bool, len(checks))
	ids := make([]string, 0, len(checks))
	for _, c := range checks {
		known[c.ID()] = true
		ids = append(ids, c.ID())
	}
	for _, f := range want {
		if !known[f] {
			return clierr.Newf(clierr.CodeUsage, "unknown folder %q (configured: %s)", f, strings.Join(ids, ", "))
		}
	}
	return nil
}

// lock takes the run lock and returns its release.
func (s *session) lock() (func(), error) {
	l := runner.NewRunLock(s.cfg.LockFile)
	if err := l.Acquire(); err != nil {
		if errors.Is(err, runner.ErrLocked) {
			return nil, clierr.Wrap(clierr.CodeLocked, "archive busy", err)
		}
		return nil, clierr.Wrap(clierr.CodeFailed, "taking run lock", err)
	}
	s.logger.Debug("run lock acquired", zap.String("path", l.Path()))
	return func() {
		if err := l.Release(); err != nil {
			s.logger.Warn("run lock not released", zap.String("path", l.Path()), zap.Error(err))
		}
	}, nil
}

func newResumeCmd(opts *rootOptions) *cobra.Command {
	gopts := &gateOptions{}
	cmd := &cobra.Command{
		Use:   "resume",
		Short: fmt.Sprintf("Re-run the folders that failed or were not reached in the last %s run", modeGate),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGate(cmd, opts, gopts, true)
		},
	}
	cmd.Flags().BoolVar(&gopts.dryRun, "dry-run", false, "report planned renames without performing them")
	cmd.Flags().BoolVar(&gopts.updateTrackers, "update-trackers", false, "raise each tracker to the highest serial its folder holds")
	return cmd
}
