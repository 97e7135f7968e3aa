package postgres

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"text/template"

	"github.com/kailas-cloud/itemsearch/internal/db"
)

//go:embed schema.sql
var schemaSQL string

var schemaTmpl = template.Must(template.New("schema").Parse(schemaSQL))

// renderSchema renders the schema for the configured vector dimension.
func renderSchema(dims int) (string, error) {
	if dims <= 0 {
		return "", fmt.Errorf("vector dimensions must be positive, got %d", dims)
	}
	var buf bytes.Buffer
	if err := schemaTmpl.Execute(&buf, struct{ Dimensions int }{dims}); err != nil {
		return "", fmt.Errorf("render schema: %w", err)
	}
	return buf.String(), nil
}

// Migrate creates the pgvector extension, tables, indexes and the match function.
// Statements are idempotent so the command can be re-run.
func (s *Store) Migrate(ctx context.Context) error {
	script, err := renderSchema(s.dims)
	if err != nil {
		return &db.Error{Op: db.OpMigrate, Err: err}
	}
	if _, err := s.db.ExecContext(ctx, script); err != nil {
		return wrapErr(db.OpMigrate, err)
	}
	return nil
}
