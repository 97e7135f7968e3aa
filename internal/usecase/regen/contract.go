package regen

import (
	"context"

	"github.com/kailas-cloud/itemsearch/internal/domain/item"
)

// Catalog lists the items eligible for embedding.
type Catalog interface {
	ListEligible(ctx context.Context) ([]item.Item, error)
}

// ItemEmbedder embeds and stores a single item.
type ItemEmbedder interface {
	EmbedItem(ctx context.Context, it *item.Item) error
}
