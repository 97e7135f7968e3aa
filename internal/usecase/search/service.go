package search

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/kailas-cloud/itemsearch/internal/domain"
	"github.com/kailas-cloud/itemsearch/internal/domain/search/query"
	"github.com/kailas-cloud/itemsearch/internal/domain/search/result"
	"github.com/kailas-cloud/itemsearch/internal/logger"
	"github.com/kailas-cloud/itemsearch/internal/metrics"
)

// Service answers semantic item searches scoped to the caller's groups.
type Service struct {
	repo   Repository
	scopes ScopeResolver
	embed  Embedder
}

// New creates a search service.
func New(repo Repository, scopes ScopeResolver, embed Embedder) *Service {
	return &Service{repo: repo, scopes: scopes, embed: embed}
}

// Search returns at most q.TopK() items visible to userID, most similar first.
//
// A user without group memberships gets an empty result and no embedding call
// is made. The store is asked for 2*topK candidates; category (exact, case
// sensitive) and similarity threshold (inclusive) are applied afterwards, so
// fewer than topK results may come back even when more items would qualify.
func (s *Service) Search(ctx context.Context, userID string, q *query.Query) ([]result.Result, error) {
	log := logger.FromContext(ctx)

	groupIDs, err := s.scopes.ResolveGroupIDs(ctx, userID)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: resolve scope: %w", domain.ErrSearch, err)
	}
	if len(groupIDs) == 0 {
		metrics.SearchRequestsTotal.WithLabelValues("no_scope").Inc()
		log.Debug("Search skipped: user has no groups", zap.String("user_id", userID))
		return []result.Result{}, nil
	}

	emb, err := s.embed.Embed(ctx, q.Text())
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: vectorize query: %w", domain.ErrSearch, err)
	}
	domain.UsageFromContext(ctx).AddTokens(emb.TotalTokens)

	candidates, err := s.repo.Match(ctx, emb.Embedding, q.MatchCount(), groupIDs)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: match items: %w", domain.ErrSearch, err)
	}

	results := filterCandidates(candidates, q.Category(), q.Threshold())
	sortResults(results)
	if len(results) > q.TopK() {
		results = results[:q.TopK()]
	}

	metrics.SearchRequestsTotal.WithLabelValues("ok").Inc()
	metrics.SearchResultsReturned.Observe(float64(len(results)))
	log.Debug("Search completed",
		zap.Int("groups", len(groupIDs)),
		zap.Int("candidates", len(candidates)),
		zap.Int("returned", len(results)),
	)

	return results, nil
}

// filterCandidates keeps candidates matching category (when set) with similarity >= threshold.
func filterCandidates(candidates []result.Result, category *string, threshold float64) []result.Result {
	out := make([]result.Result, 0, len(candidates))
	for _, r := range candidates {
		if category != nil && r.Category() != *category {
			continue
		}
		if r.Similarity() < threshold {
			continue
		}
		out = append(out, r)
	}
	return out
}

// sortResults orders by similarity descending, then id ascending. The stores
// already return candidates by distance, so this only settles the order of ties.
func sortResults(results []result.Result) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Similarity() != results[j].Similarity() {
			return results[i].Similarity() > results[j].Similarity()
		}
		return results[i].ID() < results[j].ID()
	})
}
