package itemsearch

import "github.com/kailas-cloud/itemsearch/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrValidation             = domain.ErrValidation
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
	ErrDatabase               = domain.ErrDatabase
	ErrItemNotFound           = domain.ErrItemNotFound
	ErrVectorDimMismatch      = domain.ErrVectorDimMismatch
	ErrSearch                 = domain.ErrSearch
)
