package simulate

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/turforacle/pkg/logger"
)

// Default flag values.
const (
	defaultHorses     = 64
	defaultEvents     = 2_000
	defaultReplays    = 100
	defaultTopN       = 20
	defaultTimeout    = 30 * time.Second
	defaultSettle     = 2 * time.Minute
	defaultRunTimeout = 10 * time.Minute
	defaultFirstToken = 1_000
)

// NewCommand returns the simulate command.
func NewCommand() *cobra.Command {
	config := &Config{}
	var (
		logFormat  string
		runTimeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Drive a running oracle with a simulated herd and event stream",
		Long: `Registers a generated herd of stallions, mares and foals, submits
SIMULATION-sourced race results, injuries and news concurrently, replays a
prefix of them to exercise deduplication, waits for the queue to drain and
verifies the value leaderboard.`,
		Example: `  # Default run against a local oracle
  simulate

  # Larger, reproducible run
  simulate --horses 500 --events 50000 --workers 32 --seed 7 --output out/events.json`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.InitWith(logger.Options{Format: logFormat, Output: cmd.OutOrStdout()}); err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			if config.Verbose {
				_ = logger.SetLevelString("debug")
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), runTimeout)
			defer cancel()

			_, err := Run(ctx, config)
			return err
		},
	}

	f := cmd.Flags()
	f.StringVar(&config.BaseURL, "url", "http://localhost:9080", "Base URL of the oracle")
	f.IntVar(&config.Horses, "horses", defaultHorses, "Number of horses to register")
	f.IntVar(&config.Events, "events", defaultEvents, "Number of events to generate and submit")
	f.IntVar(&config.Replays, "replays", defaultReplays, "Number of events to submit a second time")
	f.IntVar(&config.TopN, "top", defaultTopN, "Number of leaderboard entries to verify")
	f.IntVar(&config.Workers, "workers", runtime.NumCPU()*2, "Number of concurrent submitters")
	f.DurationVar(&config.Timeout, "timeout", defaultTimeout, "HTTP request timeout")
	f.DurationVar(&config.Settle, "settle", defaultSettle, "Max wait for the queue to drain")
	f.Uint64Var(&config.Seed, "seed", uint64(time.Now().UnixNano()), "Generator seed")
	f.Uint64Var(&config.FirstToken, "first-token", defaultFirstToken, "Token id of the first generated horse")
	f.StringVar(&config.OutputFile, "output", "", "Write the generated events to this JSON file")
	f.BoolVar(&config.Verbose, "verbose", false, "Enable debug logging")
	f.StringVar(&logFormat, "log-format", "text", "Log format: text or json")
	f.DurationVar(&runTimeout, "run-timeout", defaultRunTimeout, "Overall time limit")
	return cmd
}
