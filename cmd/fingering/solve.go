package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/fingering/internal/adapters/loader"
	"github.com/okian/fingering/internal/domain/solver"
	"github.com/okian/fingering/internal/engine"
)

func newSolveCmd(root *rootOptions) *cobra.Command {
	var (
		strategy string
		gridPath string
		compact  bool
	)
	cmd := &cobra.Command{
		Use:   "solve PERFORMANCE.json",
		Short: "Solve one performance file and print the result as JSON",
		Long: `Solve one performance file and print the result as JSON.

The file holds {"events": [{"noteNumber": 36, "startTime": 0}, ...]} and may
add "manual" assignments and a "strategy". --strategy wins over the file,
which wins over the configured default. Every strategy is available here.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, log, err := root.setup(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			kind, err := cfg.Strategy()
			if err != nil {
				return err
			}
			ecfg, err := cfg.EngineConfig()
			if err != nil {
				return err
			}
			mapping, err := cfg.GridMapping()
			if err != nil {
				return err
			}
			if gridPath != "" {
				if mapping, err = loader.LoadMappingFile(gridPath); err != nil {
					return err
				}
			}
			req, err := loader.LoadRequestFile(args[0])
			if err != nil {
				return err
			}
			name := strategy
			if name == "" {
				name = req.Strategy
			}
			if name != "" {
				if kind, err = solver.ParseKind(name); err != nil {
					return err
				}
			}

			eng, err := engine.New(
				engine.WithStrategy(kind),
				engine.WithConfig(ecfg),
				engine.WithMapping(mapping),
				engine.WithLogger(log.Named("engine")),
			)
			if err != nil {
				return err
			}
			res, err := eng.SolveContext(ctx, req.Performance, req.Manual)
			if err != nil {
				return fmt.Errorf("solve %s: %w", args[0], err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			if !compact {
				enc.SetIndent("", "  ")
			}
			return enc.Encode(res)
		},
	}
	cmd.Flags().StringVar(&strategy, "strategy", "", "greedy, beam, genetic or annealing")
	cmd.Flags().StringVar(&gridPath, "grid", "", "grid mapping JSON file")
	cmd.Flags().BoolVar(&compact, "compact", false, "print the result on one line")
	return cmd
}

func newStrategiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "strategies",
		Short: "List the available strategies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, k := range solver.Kinds() {
				s, err := solver.New(k, solver.DefaultConfig(), nil)
				if err != nil {
					return err
				}
				mode := "async"
				if _, ok := s.(solver.SyncSolver); ok {
					mode = "sync, async"
				}
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%-10s %s\n", k, mode); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
