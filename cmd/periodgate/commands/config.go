package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/funstockmarket/periodgate/cmd/periodgate/internal/clierr"
	"github.com/funstockmarket/periodgate/internal/config"
	"github.com/funstockmarket/periodgate/internal/fsutil"
)

func newConfigCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the periodgate configuration",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a sample configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := config.CandidateNames[0]
			if opts.root != "" {
				target = filepath.Join(opts.root, target)
			}
			if len(args) == 1 {
				target = args[0]
			}
			target, err := config.ExpandPath(target)
			if err != nil {
				return clierr.Usage(err, "invalid path")
			}

			if _, err := os.Stat(target); err == nil && !force {
				return clierr.Usage(errors.New("file exists"), "%s already exists (use --force to overwrite)", target)
			}
			if err := fsutil.WriteAtomic(target, []byte(config.SampleConfig()), 0o644); err != nil {
				return clierr.Wrap(clierr.CodeFailed, "writing config", err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample configuration to %s\n", target)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, found, err := loadConfig(opts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if found {
				_, _ = fmt.Fprintf(out, "# loaded from %s\n", path)
			} else {
				_, _ = fmt.Fprintln(out, "# no configuration file found, using defaults")
			}
			text, err := cfg.Marshal()
			if err != nil {
				return clierr.Wrap(clierr.CodeFailed, "encoding configuration", err)
			}
			_, _ = fmt.Fprint(out, text)
			return nil
		},
	}

	cmd.AddCommand(initCmd, showCmd)
	return cmd
}
