package search

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/itemsearch/internal/db"
	"github.com/kailas-cloud/itemsearch/internal/domain"
	"github.com/kailas-cloud/itemsearch/internal/domain/search/result"
)

// store is the consumer interface for vector lookups (ISP).
type store interface {
	MatchItems(ctx context.Context, q *db.MatchQuery) ([]db.MatchRow, error)
}

// Repo implements usecase/search.Repository.
type Repo struct {
	store store
}

// New creates a search repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Match returns up to matchCount nearest items within the given groups, most similar first.
func (r *Repo) Match(
	ctx context.Context, vector []float32, matchCount int, groupIDs []string,
) ([]result.Result, error) {
	rows, err := r.store.MatchItems(ctx, &db.MatchQuery{
		Embedding:  vector,
		MatchCount: matchCount,
		GroupIDs:   groupIDs,
	})
	if err != nil {
		return nil, fmt.Errorf("match items: %w: %w", domain.ErrDatabase, err)
	}

	results := make([]result.Result, 0, len(rows))
	for _, row := range rows {
		results = append(results, result.New(
			row.ID, row.Title, row.Details, row.Category, row.Location, row.GroupID, row.Similarity,
		))
	}
	return results, nil
}
