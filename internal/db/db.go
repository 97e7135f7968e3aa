package db

import (
	"context"
	"time"
)

// Store is the backend facade implemented by the postgres and redis drivers.
//
//nolint:interfacebloat // facade by design -- consumers use narrow sub-interfaces (ISP)
type Store interface {
	Pinger
	ItemCatalog
	EmbeddingWriter
	MembershipReader
	Matcher
	Migrator
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ItemRow is an item as stored, without its vector.
type ItemRow struct {
	ID       string
	Title    string
	Details  string
	Category string
	Location string
	GroupID  string
}

// ItemCatalog reads the embeddable part of the item catalog.
type ItemCatalog interface {
	// ListEmbeddableItems returns every item whose title is non-null and non-empty.
	ListEmbeddableItems(ctx context.Context) ([]ItemRow, error)
}

// EmbeddingWriter overwrites the embedding column of a single item.
type EmbeddingWriter interface {
	// UpdateItemEmbedding returns ErrNotFound for unknown ids and ErrDimMismatch
	// when the vector length differs from the configured dimension.
	UpdateItemEmbedding(ctx context.Context, id string, embedding []float32) error
}

// MembershipReader reads group memberships (one row per membership).
type MembershipReader interface {
	ListGroupIDs(ctx context.Context, userID string) ([]string, error)
}

// MatchQuery is the input of a scoped nearest-neighbor lookup.
type MatchQuery struct {
	Embedding  []float32
	MatchCount int
	GroupIDs   []string
}

// MatchRow is a candidate returned by the vector store, most similar first.
type MatchRow struct {
	ItemRow
	Similarity float64
}

// Matcher runs nearest-neighbor lookups restricted to a set of groups.
type Matcher interface {
	MatchItems(ctx context.Context, q *MatchQuery) ([]MatchRow, error)
}

// Migrator creates the schema (tables, functions or search indexes) the driver relies on.
type Migrator interface {
	Migrate(ctx context.Context) error
}
