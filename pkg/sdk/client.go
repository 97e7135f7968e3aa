package itemsearch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kailas-cloud/itemsearch/internal/db"
	dbPostgres "github.com/kailas-cloud/itemsearch/internal/db/postgres"
	dbRedis "github.com/kailas-cloud/itemsearch/internal/db/redis"
	"github.com/kailas-cloud/itemsearch/internal/domain"
	"github.com/kailas-cloud/itemsearch/internal/domain/batch"
	domitem "github.com/kailas-cloud/itemsearch/internal/domain/item"
	"github.com/kailas-cloud/itemsearch/internal/domain/search/query"
	"github.com/kailas-cloud/itemsearch/internal/domain/search/result"
	grouprepo "github.com/kailas-cloud/itemsearch/internal/repository/group"
	itemrepo "github.com/kailas-cloud/itemsearch/internal/repository/item"
	searchrepo "github.com/kailas-cloud/itemsearch/internal/repository/search"
	openaiEmb "github.com/kailas-cloud/itemsearch/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/itemsearch/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/itemsearch/internal/usecase/health"
	regenuc "github.com/kailas-cloud/itemsearch/internal/usecase/regen"
	searchuc "github.com/kailas-cloud/itemsearch/internal/usecase/search"
)

const defaultReadinessTimeout = 10 * time.Second

// Internal interfaces, swapped for mocks in tests.
type searchUseCase interface {
	Search(ctx context.Context, userID string, q *query.Query) ([]result.Result, error)
}

type itemUseCase interface {
	EmbedItem(ctx context.Context, it *domitem.Item) error
}

type regenUseCase interface {
	Run(ctx context.Context) (batch.Report, error)
}

// Client is the itemsearch SDK entry point.
type Client struct {
	store     db.Store
	searchSvc searchUseCase
	itemSvc   itemUseCase
	regenSvc  regenUseCase
	healthSvc healthUseCase
	obs       *observer
}

// New creates a Client and connects to the store.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		vectorDimensions: domain.DefaultDimensions,
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.driver == "" {
		return nil, errors.New("itemsearch: store required (use WithPostgres or WithRedis)")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	store, err := createStore(cfg)
	if err != nil {
		return nil, err
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("itemsearch: database not ready: %w", err)
	}

	return wireClient(store, cfg, obs), nil
}

func createStore(cfg *clientConfig) (db.Store, error) {
	switch cfg.driver {
	case "postgres":
		s, err := dbPostgres.NewStore(dbPostgres.Config{
			DSN:        cfg.dsn,
			Dimensions: cfg.vectorDimensions,
		})
		if err != nil {
			return nil, fmt.Errorf("itemsearch: create postgres store: %w", err)
		}
		return s, nil
	case "redis":
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:      cfg.addrs,
			Password:   cfg.password,
			KeyPrefix:  cfg.keyPrefix,
			Dimensions: cfg.vectorDimensions,
		})
		if err != nil {
			return nil, fmt.Errorf("itemsearch: create redis store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("itemsearch: unknown driver %q", cfg.driver)
	}
}

// buildEmbedder picks the configured provider. The second return value is
// non-nil when the provider can be health-checked.
func buildEmbedder(cfg *clientConfig) (domain.Embedder, healthuc.EmbeddingChecker) {
	switch {
	case cfg.embedder != nil:
		var checker healthuc.EmbeddingChecker
		if hc, ok := cfg.embedder.(healthuc.EmbeddingChecker); ok {
			checker = hc
		}
		return &embedderAdapter{inner: cfg.embedder}, checker
	case cfg.openai != nil:
		e := openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     cfg.openai.apiKey,
			BaseURL:    cfg.openai.baseURL,
			Model:      cfg.openai.model,
			Dimensions: cfg.vectorDimensions,
			Provider:   "openai",
		})
		return e, e
	default:
		return noopEmbedder{}, nil
	}
}

func wireClient(store db.Store, cfg *clientConfig, obs *observer) *Client {
	embedder, checker := buildEmbedder(cfg)

	items := itemrepo.New(store)
	itemSvc := embeddinguc.NewItemEmbedder(embedder, items)

	regenSvc := regenuc.New(items, itemSvc).WithBatchSize(cfg.regenBatchSize)
	if cfg.regenDelaySet {
		regenSvc = regenSvc.WithPacingDelay(cfg.regenDelay)
	}

	return &Client{
		store:     store,
		searchSvc: searchuc.New(searchrepo.New(store), grouprepo.New(store), embedder),
		itemSvc:   itemSvc,
		regenSvc:  regenSvc,
		healthSvc: healthuc.New(store, checker),
		obs:       obs,
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Migrate creates the tables, functions or search index the store needs. Idempotent.
func (c *Client) Migrate(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("migrate", start, err) }()

	if err = c.store.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Search returns the items of the user's groups most similar to text.
// A user without groups gets an empty result.
func (c *Client) Search(ctx context.Context, userID, text string, opts ...SearchOption) (_ []SearchResult, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search", start, err, slog.String("user_id", userID)) }()

	p := searchParams{topK: query.DefaultTopK, threshold: query.DefaultSimilarityThreshold}
	for _, o := range opts {
		o(&p)
	}

	q, err := query.New(text, p.topK, p.category, p.threshold)
	if err != nil {
		return nil, err
	}

	res, err := c.searchSvc.Search(ctx, userID, &q)
	if err != nil {
		return nil, err
	}

	out := make([]SearchResult, len(res))
	for i := range res {
		r := &res[i]
		out[i] = SearchResult{
			ID:         r.ID(),
			Title:      r.Title(),
			Details:    r.Details(),
			Category:   r.Category(),
			Location:   r.Location(),
			GroupID:    r.GroupID(),
			Similarity: r.Similarity(),
		}
	}
	return out, nil
}

// EmbedItem computes and stores the embedding of one item.
func (c *Client) EmbedItem(ctx context.Context, it Item) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("item.embed", start, err, slog.String("item_id", it.ID)) }()

	d, err := domitem.New(it.ID, it.Title, it.Details, it.Category, it.Location)
	if err != nil {
		return err
	}
	return c.itemSvc.EmbedItem(ctx, &d)
}

// Regenerate re-embeds every item with a title. Per-item failures are listed
// in the report; only a failure to read the catalog is returned as an error.
func (c *Client) Regenerate(ctx context.Context) (_ RegenReport, err error) {
	start := time.Now()
	defer func() { c.obs.observe("regenerate", start, err) }()

	r, err := c.regenSvc.Run(ctx)
	if err != nil {
		return RegenReport{RunID: r.RunID}, err
	}
	return RegenReport{
		RunID:     r.RunID,
		Message:   r.Message(),
		Total:     r.Total,
		Processed: r.Processed(),
		Succeeded: r.Succeeded,
		Errors:    r.Errors,
	}, nil
}
