package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	regenBatchSize int
	regenPacingMS  int
)

func init() {
	regenerateCmd.Flags().IntVar(&regenBatchSize, "batch-size", 0, "items embedded concurrently per batch (default from config)")
	regenerateCmd.Flags().IntVar(&regenPacingMS, "pacing-delay-ms", 0, "pause between batches in milliseconds (default from config)")
}

var regenerateCmd = &cobra.Command{
	Use:   "regenerate",
	Short: "Re-embed every item with a title",
	Long: `Re-embed every item with a non-empty title in paced batches.

Per-item failures are reported and never abort the run; re-running is safe.

Examples:
  # Use batch settings from config
  itemsearch regenerate --env prod

  # Gentler pacing against a rate-limited provider
  itemsearch regenerate --batch-size 2 --pacing-delay-ms 3000`,
	RunE: runRegenerate,
}

func runRegenerate(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if regenBatchSize > 0 {
		cfg.Regen.BatchSize = regenBatchSize
	}
	if regenPacingMS > 0 {
		cfg.Regen.PacingDelayMS = regenPacingMS
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, &cfg, logger)
	if err != nil {
		logger.Error("Startup failed", zap.Error(err))
		return err
	}
	defer a.Close()

	report, err := a.regen.Run(ctx)
	if err != nil {
		return fmt.Errorf("regenerate: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (run %s)\n", report.Message(), report.RunID)
	fmt.Fprintf(out, "  total:     %d\n", report.Total)
	fmt.Fprintf(out, "  processed: %d\n", report.Processed())
	fmt.Fprintf(out, "  failed:    %d\n", report.Failed())
	for _, e := range report.Errors {
		fmt.Fprintf(out, "  - %s\n", e)
	}

	if report.Failed() > 0 {
		return fmt.Errorf("%d of %d items failed", report.Failed(), report.Total)
	}
	return nil
}
