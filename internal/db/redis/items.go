package redis

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/itemsearch/internal/db"
)

// Hash field names of an item record.
const (
	fieldTitle     = "title"
	fieldDetails   = "details"
	fieldCategory  = "category"
	fieldLocation  = "location"
	fieldGroupID   = "group_id"
	fieldEmbedding = "embedding"
)

// ListEmbeddableItems scans every item hash and keeps those with a non-empty title, ordered by id.
func (s *Store) ListEmbeddableItems(ctx context.Context) ([]db.ItemRow, error) {
	keys, err := s.Scan(ctx, s.itemKeyPrefix()+"*")
	if err != nil {
		return nil, err
	}
	// SCAN may return a key more than once.
	keys = uniqueKeys(keys)
	hashes, err := s.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, err
	}

	rows := make([]db.ItemRow, 0, len(hashes))
	for i, h := range hashes {
		if h[fieldTitle] == "" {
			continue
		}
		rows = append(rows, rowFromHash(strings.TrimPrefix(keys[i], s.itemKeyPrefix()), h))
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	return rows, nil
}

// UpdateItemEmbedding overwrites the binary FLOAT32 embedding field of an existing item hash.
func (s *Store) UpdateItemEmbedding(ctx context.Context, id string, embedding []float32) error {
	if s.dims > 0 && len(embedding) != s.dims {
		return &db.Error{
			Op:  db.OpHSet,
			Err: fmt.Errorf("expected %d dimensions, got %d: %w", s.dims, len(embedding), db.ErrDimMismatch),
		}
	}

	key := s.itemKey(id)
	ok, err := s.Exists(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		return &db.Error{Op: db.OpExists, Err: fmt.Errorf("item %s: %w", id, db.ErrNotFound)}
	}

	return s.HSet(ctx, key, map[string]string{fieldEmbedding: vectorToBytes(embedding)})
}

// ListGroupIDs reads the membership set of the user.
func (s *Store) ListGroupIDs(ctx context.Context, userID string) ([]string, error) {
	return s.SMembers(ctx, s.groupsKey(userID))
}

func uniqueKeys(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := keys[:0]
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

func rowFromHash(id string, h map[string]string) db.ItemRow {
	return db.ItemRow{
		ID:       id,
		Title:    h[fieldTitle],
		Details:  h[fieldDetails],
		Category: h[fieldCategory],
		Location: h[fieldLocation],
		GroupID:  h[fieldGroupID],
	}
}
