// Package postgres stores query telemetry in the search_queries log and the
// popular_searches aggregate. Every aggregate write is one INSERT .. ON
// CONFLICT statement, so concurrent increments of a key never race.
package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Saugat913/femite-sub000/internal/domain"
	"github.com/Saugat913/femite-sub000/internal/telemetry"
	"github.com/Saugat913/femite-sub000/internal/textrank"
	"github.com/Saugat913/femite-sub000/pkg/database"
)

// Store implements telemetry.Store using PostgreSQL.
type Store struct {
	db database.DBTX
}

var _ telemetry.Store = (*Store)(nil)

// New creates a PostgreSQL-backed telemetry store.
func New(db database.DBTX) *Store {
	return &Store{db: db}
}

const appendQuerySQL = `
		INSERT INTO search_queries (id, query, user_id, ip_address, user_agent, session_id, filters, created_at)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), $6, $7, $8)`

// AppendQuery inserts a query log row.
func (s *Store) AppendQuery(ctx context.Context, e domain.QueryLogEntry) (err error) {
	ctx, end := database.TraceQuery(ctx, "AppendQuery", appendQuerySQL)
	defer func() { end(err) }()

	var filters []byte
	if len(e.Filters) > 0 {
		filters = e.Filters
	}
	_, err = s.db.Exec(ctx, appendQuerySQL,
		e.ID, e.Query, e.UserID, e.IPAddress, e.UserAgent, e.SessionID, filters, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert search query: %w", err)
	}
	return nil
}

const recordSearchSQL = `
		INSERT INTO popular_searches (query, search_count, is_trending, last_searched_at)
		VALUES ($1, 1, false, $2)
		ON CONFLICT (query) DO UPDATE SET
			search_count = popular_searches.search_count + 1,
			last_searched_at = EXCLUDED.last_searched_at`

// RecordSearch upserts the aggregate row for key.
func (s *Store) RecordSearch(ctx context.Context, key string, at time.Time) (err error) {
	ctx, end := database.TraceQuery(ctx, "RecordSearch", recordSearchSQL)
	defer func() { end(err) }()

	if _, err = s.db.Exec(ctx, recordSearchSQL, key, at); err != nil {
		return fmt.Errorf("upsert popular search: %w", err)
	}
	return nil
}

// The trending expression sees the pre-update row, so the new count is
// search_count + 1. A fresh row starts at 1 and is trending only for a
// negative threshold.
const recordSelectionSQL = `
		INSERT INTO popular_searches (query, search_count, is_trending, last_searched_at)
		VALUES ($1, 1, 1 > $3, $2)
		ON CONFLICT (query) DO UPDATE SET
			search_count = popular_searches.search_count + 1,
			last_searched_at = EXCLUDED.last_searched_at,
			is_trending = popular_searches.is_trending OR popular_searches.search_count + 1 > $3
		RETURNING query, search_count, is_trending, last_searched_at`

// RecordSelection upserts key and promotes it once its count exceeds
// threshold. Trending is never cleared.
func (s *Store) RecordSelection(ctx context.Context, key string, at time.Time, threshold int) (pq domain.PopularQuery, err error) {
	ctx, end := database.TraceQuery(ctx, "RecordSelection", recordSelectionSQL)
	defer func() { end(err) }()

	err = s.db.QueryRow(ctx, recordSelectionSQL, key, at, threshold).
		Scan(&pq.Query, &pq.SearchCount, &pq.IsTrending, &pq.LastSearchedAt)
	if err != nil {
		return domain.PopularQuery{}, fmt.Errorf("upsert selected search: %w", err)
	}
	return pq, nil
}

const historySQL = `
		SELECT query, search_count, is_trending, last_searched_at, similarity(query, $1) AS sim
		FROM popular_searches
		WHERE query ILIKE $2 ESCAPE '\' OR similarity(query, $1) >= $3
		ORDER BY (query ILIKE $4 ESCAPE '\') DESC, is_trending DESC, search_count DESC, sim DESC, query ASC
		LIMIT $5`

// History returns keys containing term or similar to it under pg_trgm.
func (s *Store) History(ctx context.Context, term string, limit int) (rows []domain.PopularQuery, err error) {
	ctx, end := database.TraceQuery(ctx, "History", historySQL)
	defer func() { end(err) }()

	term = strings.ToLower(term)
	r, err := s.db.Query(ctx, historySQL,
		term, database.ContainsPattern(term), textrank.SimilarityThreshold, database.PrefixPattern(term), limit)
	if err != nil {
		return nil, fmt.Errorf("query search history: %w", err)
	}
	defer r.Close()

	rows = make([]domain.PopularQuery, 0)
	for r.Next() {
		var pq domain.PopularQuery
		if err := r.Scan(&pq.Query, &pq.SearchCount, &pq.IsTrending, &pq.LastSearchedAt, &pq.Similarity); err != nil {
			return nil, fmt.Errorf("scan search history row: %w", err)
		}
		rows = append(rows, pq)
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("iterate search history rows: %w", err)
	}
	return rows, nil
}

const trendingSQL = `
		SELECT query, search_count, is_trending, last_searched_at
		FROM popular_searches
		WHERE search_count > 1
		ORDER BY is_trending DESC, search_count DESC, last_searched_at DESC, query ASC
		LIMIT $1`

// Trending returns keys searched more than once.
func (s *Store) Trending(ctx context.Context, limit int) (rows []domain.PopularQuery, err error) {
	ctx, end := database.TraceQuery(ctx, "Trending", trendingSQL)
	defer func() { end(err) }()

	r, err := s.db.Query(ctx, trendingSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("query trending searches: %w", err)
	}
	defer r.Close()

	rows = make([]domain.PopularQuery, 0)
	for r.Next() {
		var pq domain.PopularQuery
		if err := r.Scan(&pq.Query, &pq.SearchCount, &pq.IsTrending, &pq.LastSearchedAt); err != nil {
			return nil, fmt.Errorf("scan trending row: %w", err)
		}
		rows = append(rows, pq)
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("iterate trending rows: %w", err)
	}
	return rows, nil
}
