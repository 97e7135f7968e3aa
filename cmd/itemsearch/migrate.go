package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the schema the configured store needs",
	Long: `Create the schema the configured store needs.

For postgres this installs the vector extension, the items and group_members
tables and the match_items_by_embedding function. For redis it creates the
search index over item hashes. Both are idempotent.`,
	RunE: runMigrate,
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx := cmd.Context()
	store, err := openStore(ctx, &cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	logger.Info("Schema migrated",
		zap.String("driver", cfg.Database.Driver),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)
	fmt.Fprintln(cmd.OutOrStdout(), "migration complete")
	return nil
}
