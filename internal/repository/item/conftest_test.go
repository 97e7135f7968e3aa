package item

import (
	"context"
	"testing"

	"github.com/kailas-cloud/itemsearch/internal/db"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	listFn   func(ctx context.Context) ([]db.ItemRow, error)
	updateFn func(ctx context.Context, id string, embedding []float32) error
}

func (m *mockStore) ListEmbeddableItems(ctx context.Context) ([]db.ItemRow, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockStore) UpdateItemEmbedding(ctx context.Context, id string, embedding []float32) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, embedding)
	}
	return nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms), ms
}
