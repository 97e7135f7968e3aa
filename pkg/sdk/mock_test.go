package itemsearch

import (
	"context"

	"github.com/kailas-cloud/itemsearch/internal/domain/batch"
	domitem "github.com/kailas-cloud/itemsearch/internal/domain/item"
	"github.com/kailas-cloud/itemsearch/internal/domain/search/query"
	"github.com/kailas-cloud/itemsearch/internal/domain/search/result"
	healthuc "github.com/kailas-cloud/itemsearch/internal/usecase/health"
)

// --- searchUseCase mock ---

type mockSearchUC struct {
	searchFn func(ctx context.Context, userID string, q *query.Query) ([]result.Result, error)
}

func (m *mockSearchUC) Search(ctx context.Context, userID string, q *query.Query) ([]result.Result, error) {
	return m.searchFn(ctx, userID, q)
}

// --- itemUseCase mock ---

type mockItemUC struct {
	embedFn func(ctx context.Context, it *domitem.Item) error
}

func (m *mockItemUC) EmbedItem(ctx context.Context, it *domitem.Item) error {
	return m.embedFn(ctx, it)
}

// --- regenUseCase mock ---

type mockRegenUC struct {
	runFn func(ctx context.Context) (batch.Report, error)
}

func (m *mockRegenUC) Run(ctx context.Context) (batch.Report, error) {
	return m.runFn(ctx)
}

// --- healthUseCase mock ---

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(context.Context) healthuc.Report { return m.report }

// --- Embedder mock ---

type mockEmbedder struct {
	fn func(ctx context.Context, text string) (EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	return m.fn(ctx, text)
}

// --- helpers ---

func testClient(searchSvc searchUseCase, itemSvc itemUseCase, regenSvc regenUseCase) *Client {
	return &Client{
		searchSvc: searchSvc,
		itemSvc:   itemSvc,
		regenSvc:  regenSvc,
	}
}
