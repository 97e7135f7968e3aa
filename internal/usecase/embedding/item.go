package embedding

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/itemsearch/internal/domain"
	"github.com/kailas-cloud/itemsearch/internal/domain/item"
)

// ItemEmbedder renders an item's text, embeds it and stores the vector.
type ItemEmbedder struct {
	embed  Embedder
	writer Writer
}

// NewItemEmbedder creates an ItemEmbedder.
func NewItemEmbedder(embed Embedder, writer Writer) *ItemEmbedder {
	return &ItemEmbedder{embed: embed, writer: writer}
}

// EmbedItem computes and persists the embedding of a single item.
// The first failing step is returned; nothing is written when embedding fails.
func (s *ItemEmbedder) EmbedItem(ctx context.Context, it *item.Item) error {
	if it.ID() == "" {
		return domain.NewValidationError("item_id", "is required")
	}
	if !it.Eligible() {
		return domain.NewValidationError("title", "is required")
	}

	res, err := s.embed.Embed(ctx, it.EmbeddingText())
	if err != nil {
		return fmt.Errorf("generate embedding: %w", err)
	}
	domain.UsageFromContext(ctx).AddTokens(res.TotalTokens)

	if err := s.writer.WriteEmbedding(ctx, it.ID(), res.Embedding); err != nil {
		return fmt.Errorf("store embedding: %w", err)
	}
	return nil
}
