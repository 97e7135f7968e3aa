package postgres

import (
	"context"
	"fmt"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/kailas-cloud/itemsearch/internal/db"
)

const selectEmbeddableItems = `
	SELECT id::text, title, COALESCE(details, ''), COALESCE(category, ''),
		COALESCE(location, ''), COALESCE(group_id::text, '')
	FROM items
	WHERE title IS NOT NULL AND title <> ''
	ORDER BY id`

// ListEmbeddableItems returns every item with a non-null, non-empty title.
func (s *Store) ListEmbeddableItems(ctx context.Context) ([]db.ItemRow, error) {
	rows, err := s.db.QueryContext(ctx, selectEmbeddableItems)
	if err != nil {
		return nil, wrapErr(db.OpSelectItems, err)
	}
	defer rows.Close()

	list := []db.ItemRow{}
	for rows.Next() {
		var r db.ItemRow
		if err := rows.Scan(&r.ID, &r.Title, &r.Details, &r.Category, &r.Location, &r.GroupID); err != nil {
			return nil, wrapErr(db.OpSelectItems, fmt.Errorf("scan: %w", err))
		}
		list = append(list, r)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(db.OpSelectItems, err)
	}
	return list, nil
}

// UpdateItemEmbedding overwrites the embedding column of one item.
func (s *Store) UpdateItemEmbedding(ctx context.Context, id string, embedding []float32) error {
	if s.dims > 0 && len(embedding) != s.dims {
		return &db.Error{
			Op:  db.OpUpdateEmbedding,
			Err: fmt.Errorf("expected %d dimensions, got %d: %w", s.dims, len(embedding), db.ErrDimMismatch),
		}
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE items SET embedding = $1 WHERE id::text = $2`,
		pgvector.NewVector(embedding), id,
	)
	if err != nil {
		return wrapErr(db.OpUpdateEmbedding, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrapErr(db.OpUpdateEmbedding, err)
	}
	if n == 0 {
		return &db.Error{Op: db.OpUpdateEmbedding, Err: fmt.Errorf("item %s: %w", id, db.ErrNotFound)}
	}
	return nil
}

// ListGroupIDs returns the group ids of every membership row of the user.
func (s *Store) ListGroupIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT group_id::text FROM group_members WHERE user_id::text = $1`, userID,
	)
	if err != nil {
		return nil, wrapErr(db.OpSelectMembers, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, wrapErr(db.OpSelectMembers, fmt.Errorf("scan: %w", err))
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(db.OpSelectMembers, err)
	}
	return ids, nil
}

const matchItems = `
	SELECT id::text, title, COALESCE(details, ''), COALESCE(category, ''),
		COALESCE(location, ''), COALESCE(group_id::text, ''), similarity
	FROM match_items_by_embedding($1, $2, $3::text[])`

// MatchItems calls the match_items_by_embedding function, which orders by cosine
// distance then id and only considers items of the given groups.
func (s *Store) MatchItems(ctx context.Context, q *db.MatchQuery) ([]db.MatchRow, error) {
	if len(q.Embedding) == 0 {
		return nil, &db.Error{Op: db.OpMatchItems, Err: fmt.Errorf("query embedding is required")}
	}
	if q.MatchCount <= 0 {
		return nil, &db.Error{Op: db.OpMatchItems, Err: fmt.Errorf("match count must be positive")}
	}
	if len(q.GroupIDs) == 0 {
		return []db.MatchRow{}, nil
	}

	rows, err := s.db.QueryContext(ctx, matchItems,
		pgvector.NewVector(q.Embedding), q.MatchCount, pq.Array(q.GroupIDs),
	)
	if err != nil {
		return nil, wrapErr(db.OpMatchItems, err)
	}
	defer rows.Close()

	list := []db.MatchRow{}
	for rows.Next() {
		var r db.MatchRow
		err := rows.Scan(&r.ID, &r.Title, &r.Details, &r.Category, &r.Location, &r.GroupID, &r.Similarity)
		if err != nil {
			return nil, wrapErr(db.OpMatchItems, fmt.Errorf("scan: %w", err))
		}
		list = append(list, r)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(db.OpMatchItems, err)
	}
	return list, nil
}
