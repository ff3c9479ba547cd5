// SPDX-License-Identifier: AGPL-3.0-or-later

/*

periodgate - admission gate for periodically named, serially numbered data archives.

Copyright (C) 2025  FunStockMarket contributors

This program is free software licensed under the terms of the GNU AGPL v3 or later.

See https://www.gnu.org/licenses/ for license details.

*/

package commands

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/funstockmarket/periodgate/cmd/periodgate/internal/clierr"
	"github.com/funstockmarket/periodgate/internal/admission"
	"github.com/funstockmarket/periodgate/internal/ledger"
)

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var (
		limit int
		runID string
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List admissions recorded in the ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return clierr.Newf(clierr.CodeUsage, "--limit must not be negative")
			}
			s, err := openSession(cmd, opts, admission.PolicyFailFast)
			if err != nil {
				return err
			}
			defer s.close()

			if _, err := os.Stat(s.cfg.LedgerPath); os.IsNotExist(err) {
				_, _ = fmt.Fprintln(s.out, "No admissions recorded.")
				return nil
			}

			ctx := cmd.Context()
			store, err := ledger.Open(ctx, s.cfg.LedgerPath)
			if err != nil {
				return clierr.Wrap(clierr.CodeFailed, "opening ledger", err)
			}
			defer func() { _ = store.Close() }()

			if runID != "" {
				issues, err := store.Issues(ctx, runID)
				if err != nil {
					return clierr.Wrap(clierr.CodeFailed, "reading issues", err)
				}
				if len(issues) == 0 {
					_, _ = fmt.Fprintf(s.out, "No issues recorded for run %s.\n", runID)
					return nil
				}
				rows := make([][]string, 0, len(issues))
				for _, i := range issues {
					rows = append(rows, []string{i.Folder, i.File, i.Kind, i.Message})
				}
				_, _ = fmt.Fprintln(s.out, renderTable([]string{"Folder", "File", "Kind", "Message"}, rows))
				return nil
			}

			entries, err := store.History(ctx, limit)
			if err != nil {
				return clierr.Wrap(clierr.CodeFailed, "reading history", err)
			}
			if len(entries) == 0 {
				_, _ = fmt.Fprintln(s.out, "No admissions recorded.")
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				renamed := ""
				if e.Renamed {
					renamed = e.OriginalName
				}
				rows = append(rows, []string{
					e.StartedAt.UTC().Format(time.RFC3339),
					e.Mode,
					e.Cadence,
					strconv.Itoa(e.Serial),
					e.FinalName,
					renamed,
				})
			}
			_, _ = fmt.Fprintln(s.out, renderTable(
				[]string{"Started", "Mode", "Cadence", "Serial", "File", "Renamed From"},
				rows,
				3,
			))

			for _, f := range s.folders() {
				n, err := store.HighestSerial(ctx, f.cadence.String())
				if err != nil {
					return clierr.Wrap(clierr.CodeFailed, "reading highest serial", err)
				}
				if n > 0 {
					_, _ = fmt.Fprintf(s.out, "Highest %s serial: %d\n", f.cadence, n)
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of admissions to show (0 for all)")
	cmd.Flags().StringVar(&runID, "run", "", "show the issues recorded for one run instead")
	return cmd
}
