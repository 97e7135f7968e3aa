package item

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/itemsearch/internal/db"
	"github.com/kailas-cloud/itemsearch/internal/domain"
	domitem "github.com/kailas-cloud/itemsearch/internal/domain/item"
)

// store is the consumer interface for the item catalog (ISP).
type store interface {
	ListEmbeddableItems(ctx context.Context) ([]db.ItemRow, error)
	UpdateItemEmbedding(ctx context.Context, id string, embedding []float32) error
}

// Repo implements usecase/regen.Catalog and usecase/embedding.Writer.
type Repo struct {
	store store
}

// New creates an item repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// ListEligible returns every item whose title is non-empty after trimming.
func (r *Repo) ListEligible(ctx context.Context) ([]domitem.Item, error) {
	rows, err := r.store.ListEmbeddableItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("list items: %w: %w", domain.ErrDatabase, err)
	}

	items := make([]domitem.Item, 0, len(rows))
	for _, row := range rows {
		it := domitem.Reconstruct(row.ID, row.Title, row.Details, row.Category, row.Location, row.GroupID, nil)
		if !it.Eligible() {
			continue
		}
		items = append(items, it)
	}
	return items, nil
}

// WriteEmbedding overwrites the stored vector of an item (last write wins).
func (r *Repo) WriteEmbedding(ctx context.Context, itemID string, vector []float32) error {
	err := r.store.UpdateItemEmbedding(ctx, itemID, vector)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, db.ErrNotFound):
		return fmt.Errorf("%w: %w: %s", domain.ErrDatabase, domain.ErrItemNotFound, itemID)
	case errors.Is(err, db.ErrDimMismatch):
		return fmt.Errorf("%w: %w: %w", domain.ErrDatabase, domain.ErrVectorDimMismatch, err)
	default:
		return fmt.Errorf("%w: %w", domain.ErrDatabase, err)
	}
}
