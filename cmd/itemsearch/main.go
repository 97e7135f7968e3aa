// Package main is the itemsearch server and operator CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/itemsearch/internal/config"
	logpkg "github.com/kailas-cloud/itemsearch/internal/logger"
	"github.com/kailas-cloud/itemsearch/internal/version"
)

var (
	// envName selects config/<env>.yaml and the logger flavour.
	envName string
	// configPath overrides the config file location.
	configPath string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "itemsearch",
	Short: "Semantic item search service",
	Long: `itemsearch embeds catalog items with an OpenAI-compatible provider, stores the
vectors in Postgres (pgvector) or Redis/Valkey search, and serves nearest-neighbor
search scoped to the caller's groups.`,
	Version:       fmt.Sprintf("%s (commit %s, built %s)", version.Version, version.Commit, version.Date),
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envName, "env", config.GetEnv(), "environment name (selects config/<env>.yaml)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a config file (overrides --env lookup)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(regenerateCmd)
	rootCmd.AddCommand(migrateCmd)
}

// bootstrap loads the configuration and builds the logger shared by all subcommands.
func bootstrap() (config.Config, *zap.Logger, error) {
	var (
		cfg config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load(envName)
	}
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(envName, cfg.Logging.Level)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("create logger: %w", err)
	}
	return cfg, logger, nil
}
