// SPDX-License-Identifier: AGPL-3.0-or-later

/*
periodgate - admission gate for periodically named, serially numbered data archives.
It validates new daily, weekly, monthly and yearly files against calendar and sequencing
rules, assigns serials to backfills and holdings snapshots, and renames admitted files.

Copyright (C) 2025  FunStockMarket contributors

This program is free software licensed under the terms of the GNU AGPL v3 or later.

See https://www.gnu.org/licenses/ for license details.

*/

package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	configPath string
	root       string
	policy     string
	today      string
	verbose    bool
}

// NewRootCmd constructs the periodgate root Cobra command.
func NewRootCmd() *cobra.Command {
	version := os.Getenv("PERIODGATE_VERSION")
	if version == "" {
		version = "0.0.0-dev"
	}

	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "periodgate",
		Short: "periodgate - admission gate for period-named data files",
		Long: `periodgate checks new files in the daily, weekly, monthly and yearly folders of an
archive, assigns serials to backfills and holdings snapshots, and renames admitted files
to their canonical "<serial> <year> <n>_<event> <Month>.csv" names.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "configuration file (default: periodgate.yaml|yml|toml in the root)")
	pf.StringVar(&opts.root, "root", "", "archive checkout root (default: config root or current directory)")
	pf.StringVar(&opts.policy, "policy", "", "failure policy: fail-fast or accumulate (overrides config)")
	pf.StringVar(&opts.today, "today", "", "processing date as YYYY-MM-DD (default: today)")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose output")

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number of periodgate",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "periodgate version %s\n", version)
		},
	})

	cmd.AddCommand(newCheckCmd(opts))
	cmd.AddCommand(newGateCmd(opts))
	cmd.AddCommand(newResumeCmd(opts))
	cmd.AddCommand(newReportCmd(opts))
	cmd.AddCommand(newResetCmd(opts))
	cmd.AddCommand(newHistoryCmd(opts))
	cmd.AddCommand(newConfigCmd(opts))

	return cmd
}
