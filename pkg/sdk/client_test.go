package itemsearch

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/itemsearch/internal/domain"
	"github.com/kailas-cloud/itemsearch/internal/domain/batch"
	domitem "github.com/kailas-cloud/itemsearch/internal/domain/item"
	"github.com/kailas-cloud/itemsearch/internal/domain/search/query"
	"github.com/kailas-cloud/itemsearch/internal/domain/search/result"
	healthuc "github.com/kailas-cloud/itemsearch/internal/usecase/health"
)

func TestNew_NoStore(t *testing.T) {
	_, err := New(context.Background())
	if err == nil {
		t.Fatal("expected error when no store configured")
	}
}

func TestCreateStore_UnknownDriver(t *testing.T) {
	cfg := &clientConfig{driver: "unknown"}
	if _, err := createStore(cfg); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestCreateStore_MissingParams(t *testing.T) {
	if _, err := createStore(&clientConfig{driver: "postgres"}); err == nil {
		t.Error("postgres without dsn must fail")
	}
	if _, err := createStore(&clientConfig{driver: "redis"}); err == nil {
		t.Error("redis without addrs must fail")
	}
}

func TestNoopEmbedder(t *testing.T) {
	_, err := noopEmbedder{}.Embed(context.Background(), "test")
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestEmbedderAdapter(t *testing.T) {
	called := false
	mock := &mockEmbedder{
		fn: func(_ context.Context, text string) (EmbeddingResult, error) {
			called = true
			if text != "hello" {
				t.Errorf("text = %q", text)
			}
			return EmbeddingResult{Embedding: []float32{1, 2, 3}, PromptTokens: 5, TotalTokens: 10}, nil
		},
	}

	adapter := &embedderAdapter{inner: mock}
	res, err := adapter.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("inner embedder was not called")
	}
	if len(res.Embedding) != 3 || res.TotalTokens != 10 {
		t.Errorf("result = %+v", res)
	}
}

func TestEmbedderAdapter_ErrorIsProviderError(t *testing.T) {
	mock := &mockEmbedder{
		fn: func(context.Context, string) (EmbeddingResult, error) {
			return EmbeddingResult{}, errors.New("provider down")
		},
	}

	_, err := (&embedderAdapter{inner: mock}).Embed(context.Background(), "hello")
	if !errors.Is(err, ErrEmbeddingProviderError) {
		t.Fatalf("expected ErrEmbeddingProviderError, got %v", err)
	}
}

func TestBuildEmbedder(t *testing.T) {
	if e, hc := buildEmbedder(&clientConfig{}); hc != nil {
		t.Error("noop embedder must not be health-checked")
	} else if _, ok := e.(noopEmbedder); !ok {
		t.Errorf("expected noopEmbedder, got %T", e)
	}

	custom := &mockEmbedder{}
	if e, hc := buildEmbedder(&clientConfig{embedder: custom}); hc != nil {
		t.Error("mock embedder has no HealthCheck")
	} else if _, ok := e.(*embedderAdapter); !ok {
		t.Errorf("expected adapter, got %T", e)
	}

	e, hc := buildEmbedder(&clientConfig{openai: &openAIConfig{apiKey: "sk"}, vectorDimensions: 1536})
	if e == nil || hc == nil {
		t.Error("openai embedder must be usable and health-checkable")
	}
}

func TestClientOptions(t *testing.T) {
	cfg := &clientConfig{}

	WithPostgres("postgres://localhost/db").apply(cfg)
	if cfg.driver != "postgres" || cfg.dsn != "postgres://localhost/db" {
		t.Errorf("postgres cfg = %+v", cfg)
	}

	cfg2 := &clientConfig{}
	WithRedis("localhost:6380", "pass").apply(cfg2)
	WithKeyPrefix("app:").apply(cfg2)
	if cfg2.driver != "redis" || cfg2.addrs[0] != "localhost:6380" || cfg2.password != "pass" {
		t.Errorf("redis cfg = %+v", cfg2)
	}
	if cfg2.keyPrefix != "app:" {
		t.Errorf("keyPrefix = %q", cfg2.keyPrefix)
	}

	cfg3 := &clientConfig{}
	WithVectorDimensions(768).apply(cfg3)
	WithRegenPacing(3, 2*time.Second).apply(cfg3)
	WithOpenAI("sk", "http://localhost:8000/v1", "nomic").apply(cfg3)
	if cfg3.vectorDimensions != 768 {
		t.Errorf("vectorDimensions = %d, want 768", cfg3.vectorDimensions)
	}
	if cfg3.regenBatchSize != 3 || cfg3.regenDelay != 2*time.Second || !cfg3.regenDelaySet {
		t.Errorf("regen = %d/%v", cfg3.regenBatchSize, cfg3.regenDelay)
	}
	if cfg3.openai == nil || cfg3.openai.model != "nomic" {
		t.Errorf("openai = %+v", cfg3.openai)
	}

	cfg4 := &clientConfig{}
	logger := slog.Default()
	reg := prometheus.NewRegistry()
	WithLogger(logger).apply(cfg4)
	WithPrometheus(reg).apply(cfg4)
	WithEmbedder(&mockEmbedder{}).apply(cfg4)
	if cfg4.logger != logger || cfg4.metricsReg != reg || cfg4.embedder == nil {
		t.Error("expected logger, registry and embedder to be set")
	}
}

func TestClient_Close_NilStore(t *testing.T) {
	c := &Client{store: nil}
	c.Close()
}

// --- Search ---

func TestClient_Search(t *testing.T) {
	mock := &mockSearchUC{
		searchFn: func(_ context.Context, userID string, q *query.Query) ([]result.Result, error) {
			if userID != "u1" {
				t.Errorf("userID = %q", userID)
			}
			if q.TopK() != 3 || q.Threshold() != 0.5 || q.Category() == nil || *q.Category() != "dairy" {
				t.Errorf("query = %d/%v/%v", q.TopK(), q.Threshold(), q.Category())
			}
			return []result.Result{result.New("i1", "Milk", "", "dairy", "", "g1", 0.9)}, nil
		},
	}

	c := testClient(mock, nil, nil)
	hits, err := c.Search(context.Background(), "u1", "milk",
		WithTopK(3), WithThreshold(0.5), WithCategory("dairy"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 1 || hits[0].ID != "i1" || hits[0].GroupID != "g1" || hits[0].Similarity != 0.9 {
		t.Errorf("hits = %+v", hits)
	}
}

func TestClient_Search_Defaults(t *testing.T) {
	mock := &mockSearchUC{
		searchFn: func(_ context.Context, _ string, q *query.Query) ([]result.Result, error) {
			if q.TopK() != query.DefaultTopK || q.Threshold() != query.DefaultSimilarityThreshold || q.Category() != nil {
				t.Errorf("defaults not applied: %d/%v/%v", q.TopK(), q.Threshold(), q.Category())
			}
			return nil, nil
		},
	}

	hits, err := testClient(mock, nil, nil).Search(context.Background(), "u1", "milk")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hits == nil || len(hits) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", hits)
	}
}

func TestClient_Search_EmptyCategory(t *testing.T) {
	mock := &mockSearchUC{
		searchFn: func(_ context.Context, _ string, q *query.Query) ([]result.Result, error) {
			if q.Category() != nil {
				t.Errorf("category = %q, want nil", *q.Category())
			}
			return nil, nil
		},
	}

	if _, err := testClient(mock, nil, nil).Search(context.Background(), "u1", "bike", WithCategory("")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClient_Search_Validation(t *testing.T) {
	mock := &mockSearchUC{
		searchFn: func(context.Context, string, *query.Query) ([]result.Result, error) {
			t.Fatal("search must not run on invalid input")
			return nil, nil
		},
	}

	c := testClient(mock, nil, nil)
	if _, err := c.Search(context.Background(), "u1", "  "); !errors.Is(err, ErrValidation) {
		t.Errorf("blank query: got %v", err)
	}
	if _, err := c.Search(context.Background(), "u1", "milk", WithTopK(0)); !errors.Is(err, ErrValidation) {
		t.Errorf("zero topK: got %v", err)
	}
}

func TestClient_Search_Error(t *testing.T) {
	mock := &mockSearchUC{
		searchFn: func(context.Context, string, *query.Query) ([]result.Result, error) {
			return nil, domain.ErrSearch
		},
	}

	_, err := testClient(mock, nil, nil).Search(context.Background(), "u1", "milk")
	if !errors.Is(err, ErrSearch) {
		t.Errorf("expected ErrSearch, got %v", err)
	}
}

// --- EmbedItem ---

func TestClient_EmbedItem(t *testing.T) {
	mock := &mockItemUC{
		embedFn: func(_ context.Context, it *domitem.Item) error {
			if it.ID() != "i1" || it.Category() != domitem.DefaultCategory {
				t.Errorf("item = %s/%s", it.ID(), it.Category())
			}
			return nil
		},
	}

	err := testClient(nil, mock, nil).EmbedItem(context.Background(), Item{ID: "i1", Title: "Milk"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClient_EmbedItem_Validation(t *testing.T) {
	mock := &mockItemUC{
		embedFn: func(context.Context, *domitem.Item) error {
			t.Fatal("embedder must not run on invalid input")
			return nil
		},
	}

	err := testClient(nil, mock, nil).EmbedItem(context.Background(), Item{ID: "i1"})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestClient_EmbedItem_NotFound(t *testing.T) {
	mock := &mockItemUC{
		embedFn: func(context.Context, *domitem.Item) error {
			return errors.Join(domain.ErrDatabase, domain.ErrItemNotFound)
		},
	}

	err := testClient(nil, mock, nil).EmbedItem(context.Background(), Item{ID: "i1", Title: "Milk"})
	if !errors.Is(err, ErrItemNotFound) || !errors.Is(err, ErrDatabase) {
		t.Errorf("expected not-found database error, got %v", err)
	}
}

// --- Regenerate ---

func TestClient_Regenerate(t *testing.T) {
	mock := &mockRegenUC{
		runFn: func(context.Context) (batch.Report, error) {
			return batch.NewReport("run-1", []batch.Result{
				batch.NewOK("a"),
				batch.NewError("b", errors.New("boom")),
			}), nil
		},
	}

	rep, err := testClient(nil, nil, mock).Regenerate(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rep.RunID != "run-1" || rep.Total != 2 || rep.Processed != 1 || rep.Message != batch.MessageCompleted {
		t.Errorf("report = %+v", rep)
	}
	if len(rep.Errors) != 1 || rep.Errors[0] != "Item b: boom" {
		t.Errorf("errors = %v", rep.Errors)
	}
}

func TestClient_Regenerate_FetchFailure(t *testing.T) {
	mock := &mockRegenUC{
		runFn: func(context.Context) (batch.Report, error) {
			return batch.Report{RunID: "run-2"}, domain.ErrDatabase
		},
	}

	rep, err := testClient(nil, nil, mock).Regenerate(context.Background())
	if !errors.Is(err, ErrDatabase) {
		t.Fatalf("expected ErrDatabase, got %v", err)
	}
	if rep.RunID != "run-2" {
		t.Errorf("run id = %q", rep.RunID)
	}
}

// --- Health ---

func TestClient_Health(t *testing.T) {
	c := &Client{healthSvc: &mockHealthUC{report: healthuc.Report{
		Status: healthuc.Degraded,
		Checks: map[string]healthuc.CheckResult{
			healthuc.ComponentDatabase:  healthuc.CheckOK,
			healthuc.ComponentEmbedding: healthuc.CheckError,
		},
	}}}

	h := c.Health(context.Background())
	if h.Healthy() {
		t.Error("degraded must not be healthy")
	}
	if h.Status != "degraded" || h.Checks["embedding"] != "error" || h.Checks["database"] != "ok" {
		t.Errorf("health = %+v", h)
	}
}

// --- Observer ---

func TestObserver_NilSafe(t *testing.T) {
	var obs *observer
	obs.observe("test", time.Now(), nil)
	obs.observe("test", time.Now(), errors.New("err"))
}

func TestObserver_WithPrometheus(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs, err := newObserver(nil, reg)
	if err != nil {
		t.Fatalf("newObserver: %v", err)
	}

	obs.observe("search", time.Now().Add(-10*time.Millisecond), nil)
	obs.observe("search", time.Now(), errors.New("fail"))

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	found := false
	for _, f := range families {
		if f.GetName() == "itemsearch_sdk_operations_total" {
			found = true
			if len(f.GetMetric()) != 2 {
				t.Errorf("expected 2 metric samples, got %d", len(f.GetMetric()))
			}
		}
	}
	if !found {
		t.Error("itemsearch_sdk_operations_total not found")
	}
}

func TestObserver_ReusesRegisteredMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := newObserver(nil, reg); err != nil {
		t.Fatalf("first: %v", err)
	}
	if _, err := newObserver(nil, reg); err != nil {
		t.Fatalf("second registration must reuse collectors: %v", err)
	}
}

func TestObserver_WithLogger(t *testing.T) {
	obs, err := newObserver(slog.Default(), nil)
	if err != nil {
		t.Fatalf("newObserver: %v", err)
	}
	obs.observe("item.embed", time.Now(), nil, slog.String("item_id", "i1"))
	obs.observe("item.embed", time.Now(), errors.New("test error"))
}
