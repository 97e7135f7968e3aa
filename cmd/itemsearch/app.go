package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/itemsearch/internal/config"
	"github.com/kailas-cloud/itemsearch/internal/db"
	dbPostgres "github.com/kailas-cloud/itemsearch/internal/db/postgres"
	dbRedis "github.com/kailas-cloud/itemsearch/internal/db/redis"
	"github.com/kailas-cloud/itemsearch/internal/domain"
	"github.com/kailas-cloud/itemsearch/internal/metrics"
	grouprepo "github.com/kailas-cloud/itemsearch/internal/repository/group"
	itemrepo "github.com/kailas-cloud/itemsearch/internal/repository/item"
	searchrepo "github.com/kailas-cloud/itemsearch/internal/repository/search"
	openaiEmb "github.com/kailas-cloud/itemsearch/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/itemsearch/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/itemsearch/internal/usecase/health"
	regenuc "github.com/kailas-cloud/itemsearch/internal/usecase/regen"
	searchuc "github.com/kailas-cloud/itemsearch/internal/usecase/search"
)

// app is the wired object graph shared by the subcommands.
type app struct {
	store    db.Store
	provider *openaiEmb.Embedder
	items    *embeddinguc.ItemEmbedder
	search   *searchuc.Service
	regen    *regenuc.Service
	health   *healthuc.Service
}

// openStore creates the configured vector store and waits until it answers.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (db.Store, error) {
	var (
		store db.Store
		err   error
	)
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		store, err = dbPostgres.NewStore(dbPostgres.Config{
			DSN:             cfg.Database.DSN,
			Dimensions:      cfg.Embedding.Dimensions,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			ConnMaxLifetime: 30 * time.Minute,
		})
	case config.DriverRedis:
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:      cfg.Database.Addrs,
			Username:   cfg.Database.Username,
			Password:   cfg.Database.Password,
			DB:         cfg.Database.DB,
			KeyPrefix:  cfg.Database.KeyPrefix,
			Dimensions: cfg.Embedding.Dimensions,
		})
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s store: %w", cfg.Database.Driver, err)
	}

	timeout := time.Duration(cfg.Database.ReadinessTimeout) * time.Second
	if err := store.WaitForReady(ctx, timeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("database not ready: %w", err)
	}
	logger.Info("Connected to database", zap.String("driver", cfg.Database.Driver))
	return store, nil
}

// buildApp is the composition root: store -> repositories -> embedder chain -> use cases.
func buildApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterUseCaseMetrics()

	provider := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Timeout:    time.Duration(cfg.Embedding.TimeoutSec) * time.Second,
		Logger:     logger,
	})
	var embedder domain.Embedder = embeddinguc.NewInstrumentedEmbedder(
		provider, cfg.Embedding.Provider, cfg.Embedding.Model, logger,
	)
	logger.Info("Embedder created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	items := itemrepo.New(store)
	groups := grouprepo.New(store)
	matches := searchrepo.New(store)

	itemEmbedder := embeddinguc.NewItemEmbedder(embedder, items)

	return &app{
		store:    store,
		provider: provider,
		items:    itemEmbedder,
		search:   searchuc.New(matches, groups, embedder),
		regen: regenuc.New(items, itemEmbedder).
			WithBatchSize(cfg.Regen.BatchSize).
			WithPacingDelay(cfg.Regen.PacingDelay()),
		health: healthuc.New(store, provider),
	}, nil
}

func (a *app) Close() {
	a.store.Close()
}
