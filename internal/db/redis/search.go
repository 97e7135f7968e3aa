package redis

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/itemsearch/internal/db"
)

const distanceField = "__distance"

var returnFields = []string{
	fieldTitle, fieldDetails, fieldCategory, fieldLocation, fieldGroupID, distanceField,
}

// MatchItems runs a KNN search pre-filtered to the given groups via FT.SEARCH.
// Candidates come back most similar first, ties broken by item id.
func (s *Store) MatchItems(ctx context.Context, q *db.MatchQuery) ([]db.MatchRow, error) {
	if len(q.Embedding) == 0 {
		return nil, &db.Error{Op: db.OpSearch, Err: errors.New("query embedding is required")}
	}
	if q.MatchCount <= 0 {
		return nil, &db.Error{Op: db.OpSearch, Err: errors.New("match count must be positive")}
	}
	if len(q.GroupIDs) == 0 {
		return []db.MatchRow{}, nil
	}

	queryStr := fmt.Sprintf("(%s)=>[KNN %d @%s $BLOB AS %s]",
		buildGroupFilter(q.GroupIDs), q.MatchCount, fieldEmbedding, distanceField)

	args := []string{s.indexName(), queryStr, "RETURN", strconv.Itoa(len(returnFields))}
	args = append(args, returnFields...)
	args = append(args,
		"SORTBY", distanceField, "ASC",
		"LIMIT", "0", strconv.Itoa(q.MatchCount),
		"PARAMS", "2", "BLOB", vectorToBytes(q.Embedding),
		"DIALECT", "2",
	)

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		if isRedisErr(err, "unknown index name") || isRedisErr(err, "no such index") {
			return nil, &db.Error{Op: db.OpSearch, Err: db.ErrIndexNotFound}
		}
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	rows, err := parseKNNResult(raw, s.itemKeyPrefix())
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}
	return rows, nil
}

// --- Result parsing ---

func parseKNNResult(raw []rueidis.RedisMessage, keyPrefix string) ([]db.MatchRow, error) {
	if len(raw) == 0 {
		return []db.MatchRow{}, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}

	rows := make([]db.MatchRow, 0, total)
	// 2-stride: [total, key1, fields1, key2, fields2, ...]
	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}

		fields, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}

		h := parseFieldPairs(fields)
		distance, err := strconv.ParseFloat(h[distanceField], 64)
		if err != nil {
			continue
		}

		rows = append(rows, db.MatchRow{
			ItemRow:    rowFromHash(strings.TrimPrefix(key, keyPrefix), h),
			Similarity: 1 - distance, // cosine distance to similarity
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Similarity != rows[j].Similarity {
			return rows[i].Similarity > rows[j].Similarity
		}
		return rows[i].ID < rows[j].ID
	})

	return rows, nil
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}

// --- Query helpers ---

// buildGroupFilter renders a TAG union such as @group_id:{g1|g2}.
func buildGroupFilter(groupIDs []string) string {
	escaped := make([]string, len(groupIDs))
	for i, g := range groupIDs {
		escaped[i] = tagEscaper.Replace(g)
	}
	return fmt.Sprintf("@%s:{%s}", fieldGroupID, strings.Join(escaped, " | "))
}

// NewReplacer substitutes in a single pass, so the backslash entry never re-escapes the others.
var tagEscaper = strings.NewReplacer(
	"\\", "\\\\",
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	"|", "\\|",
	"[", "\\[",
	"]", "\\]",
	"/", "\\/",
	"?", "\\?",
	" ", "\\ ",
)

func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
