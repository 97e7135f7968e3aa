package embedding

import (
	"context"

	"github.com/kailas-cloud/itemsearch/internal/domain"
)

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Writer persists an item's embedding.
type Writer interface {
	WriteEmbedding(ctx context.Context, itemID string, vector []float32) error
}
