package db

import "errors"

// Sentinel errors for database operations.
var (
	ErrNotFound      = errors.New("db: not found")
	ErrDimMismatch   = errors.New("db: vector dimension mismatch")
	ErrIndexExists   = errors.New("db: index already exists")
	ErrIndexNotFound = errors.New("db: index not found")
)

// Op constants name the failing statement or command for error context.
const (
	OpSelectItems     = "SELECT items"
	OpUpdateEmbedding = "UPDATE items.embedding"
	OpSelectMembers   = "SELECT group_members"
	OpMatchItems      = "match_items_by_embedding"
	OpMigrate         = "MIGRATE"
	OpCreateIndex     = "FT.CREATE"
	OpIndexInfo       = "FT.INFO"
	OpSearch          = "FT.SEARCH"
	OpHGetAll         = "HGETALL"
	OpHSet            = "HSET"
	OpExists          = "EXISTS"
	OpScan            = "SCAN"
	OpSMembers        = "SMEMBERS"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
