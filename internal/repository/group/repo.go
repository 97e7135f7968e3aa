package group

import (
	"context"
	"fmt"
	"sort"

	"github.com/kailas-cloud/itemsearch/internal/domain"
)

// store is the consumer interface for membership lookups (ISP).
type store interface {
	ListGroupIDs(ctx context.Context, userID string) ([]string, error)
}

// Repo resolves the set of groups a user may search.
type Repo struct {
	store store
}

// New creates a group repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// ResolveGroupIDs returns the distinct group ids of the user, sorted. No memberships yields an empty slice.
func (r *Repo) ResolveGroupIDs(ctx context.Context, userID string) ([]string, error) {
	ids, err := r.store.ListGroupIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("resolve groups for %s: %w: %w", userID, domain.ErrDatabase, err)
	}

	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}
