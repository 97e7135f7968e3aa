package query

import (
	"strings"

	"github.com/kailas-cloud/itemsearch/internal/domain"
)

// Search parameter defaults.
const (
	DefaultTopK                = 10
	DefaultSimilarityThreshold = 0.3
)

// Query is a validated search request. It is built per request and discarded after use.
type Query struct {
	text      string
	topK      int
	category  *string
	threshold float64
}

// New validates the search parameters.
// text must be non-empty after trimming and is kept verbatim; topK must be positive.
// An empty category means no filter. threshold is passed through without clamping.
func New(text string, topK int, category *string, threshold float64) (Query, error) {
	if strings.TrimSpace(text) == "" {
		return Query{}, domain.NewValidationError("query", "is required")
	}
	if topK <= 0 {
		return Query{}, domain.NewValidationError("topK", "must be a positive integer")
	}

	var cat *string
	if category != nil && *category != "" {
		c := *category
		cat = &c
	}
	return Query{text: text, topK: topK, category: cat, threshold: threshold}, nil
}

// Text returns the raw query text, unmodified.
func (q *Query) Text() string { return q.text }

// TopK returns the number of results requested.
func (q *Query) TopK() int { return q.topK }

// MatchCount returns how many candidates to request from the store (2 * topK).
func (q *Query) MatchCount() int { return q.topK * 2 }

// Category returns the category filter, nil when unset.
func (q *Query) Category() *string { return q.category }

// Threshold returns the inclusive minimum similarity.
func (q *Query) Threshold() float64 { return q.threshold }
