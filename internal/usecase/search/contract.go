package search

import (
	"context"

	"github.com/kailas-cloud/itemsearch/internal/domain"
	"github.com/kailas-cloud/itemsearch/internal/domain/search/result"
)

// Repository runs scoped nearest-neighbor lookups.
type Repository interface {
	Match(ctx context.Context, vector []float32, matchCount int, groupIDs []string) ([]result.Result, error)
}

// ScopeResolver resolves the groups a user may search.
type ScopeResolver interface {
	ResolveGroupIDs(ctx context.Context, userID string) ([]string, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
