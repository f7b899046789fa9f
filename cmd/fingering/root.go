package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/okian/fingering/internal/config"
	"github.com/okian/fingering/pkg/logger"
	"github.com/okian/fingering/pkg/metrics"
)

// rootOptions are the flags shared by every subcommand.
type rootOptions struct {
	configPath string
	logLevel   string
	logFormat  string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "fingering",
		Short: "Assign hands and fingers to pad-grid performances",
		Long: `fingering assigns a hand and finger to every note of a pad performance,
minimising movement, stretch, fatigue and hand crossings.

Configuration is layered: defaults, then the YAML file named by --config or
FINGERING_CONFIG, then FINGERING_* environment variables.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML configuration file (overrides FINGERING_CONFIG)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "log format: text or json")

	cmd.AddCommand(
		newServeCmd(opts),
		newSolveCmd(opts),
		newStrategiesCmd(),
		newLoadTestCmd(opts),
	)
	return cmd
}

// setup loads the configuration and initialises logging and metrics. Logs go
// to w so that solve can keep stdout for the result.
func (o *rootOptions) setup(ctx context.Context, w io.Writer) (*config.Config, logger.Logger, error) {
	path := o.configPath
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFrom(ctx, path)
	} else {
		cfg, err = config.Load(ctx)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if o.logFormat != "" {
		cfg.LogFormat = o.logFormat
	}

	if err := logger.Init(logger.WithFormat(logger.Format(cfg.LogFormat)), logger.WithWriter(w)); err != nil {
		return nil, nil, fmt.Errorf("initialize logging: %w", err)
	}
	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	metrics.Configure(
		metrics.WithMetricsEnabled(cfg.MetricsEnabled),
		metrics.WithNamespace(cfg.Metrics.Namespace),
		metrics.WithSubsystem(cfg.Metrics.Subsystem),
		metrics.WithHistogramBuckets(cfg.Metrics.Buckets),
		metrics.WithCustomLabels(cfg.Metrics.Labels),
	)
	return cfg, log, nil
}
