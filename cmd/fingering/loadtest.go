package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/okian/fingering/internal/loadtest"
)

func newLoadTestCmd(root *rootOptions) *cobra.Command {
	cfg := loadtest.DefaultConfig()
	cmd := &cobra.Command{
		Use:   "loadtest",
		Short: "Submit generated performances to a running service and check the results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			_, log, err := root.setup(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			stats, err := loadtest.Run(ctx, cfg, log.Named("loadtest"))
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if eerr := enc.Encode(stats); eerr != nil && err == nil {
				err = eerr
			}
			return err
		},
	}
	f := cmd.Flags()
	f.StringVar(&cfg.BaseURL, "url", cfg.BaseURL, "base URL of the service")
	f.IntVar(&cfg.Jobs, "jobs", cfg.Jobs, "number of performances to submit")
	f.IntVar(&cfg.MinEvents, "min-events", cfg.MinEvents, "fewest notes per performance")
	f.IntVar(&cfg.MaxEvents, "max-events", cfg.MaxEvents, "most notes per performance")
	f.StringSliceVar(&cfg.Strategies, "strategies", nil, "strategies to rotate through (default: the service default)")
	f.IntVar(&cfg.Workers, "workers", cfg.Workers, "concurrent HTTP clients")
	f.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "HTTP request timeout")
	f.DurationVar(&cfg.PollTimeout, "wait", cfg.PollTimeout, "how long to wait for jobs to finish")
	f.Uint64Var(&cfg.Seed, "seed", cfg.Seed, "generator seed")
	f.StringVar(&cfg.OutputFile, "output", "", "write the generated requests to this file")
	return cmd
}
