package main

import (
	"time"

	"github.com/spf13/cobra"
)

type options struct {
	configDir string
	assetsDir string
	jsonLogs  bool
	logFile   bool
	timeout   time.Duration
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:          "markerdump [flags] FILE",
		Short:        "Render a YAML marker file and print the map layer as JSON",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, args[0], cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVar(&opts.configDir, "config", "", "Directory containing mapshim.cfg.json (optional; defaults are used if omitted)")
	cmd.Flags().StringVar(&opts.assetsDir, "assets", "", "Asset directory, overrides icons.assetsDir")
	cmd.Flags().BoolVar(&opts.jsonLogs, "json-logs", false, "Write logs as JSON lines")
	cmd.Flags().BoolVar(&opts.logFile, "log-file", false, "Also write logs to a file under logsDir")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 5*time.Second, "How long to wait for icons to decode")
	return cmd
}
