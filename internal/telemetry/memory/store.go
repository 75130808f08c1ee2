// Package memory is an in-process telemetry store for development and tests.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Saugat913/femite-sub000/internal/domain"
	"github.com/Saugat913/femite-sub000/internal/telemetry"
	"github.com/Saugat913/femite-sub000/internal/textrank"
)

// Store keeps the query log and aggregate behind one mutex, which makes
// every upsert atomic.
type Store struct {
	mu      sync.Mutex
	entries []domain.QueryLogEntry
	popular map[string]*domain.PopularQuery
}

// New creates an empty store.
func New() *Store {
	return &Store{popular: make(map[string]*domain.PopularQuery)}
}

var _ telemetry.Store = (*Store)(nil)

// AppendQuery appends entry to the log.
func (s *Store) AppendQuery(_ context.Context, entry domain.QueryLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

// Entries returns a copy of the log.
func (s *Store) Entries() []domain.QueryLogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.QueryLogEntry(nil), s.entries...)
}

// RecordSearch increments key.
func (s *Store) RecordSearch(_ context.Context, key string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bump(key, at)
	return nil
}

// RecordSelection increments key and promotes it past threshold.
func (s *Store) RecordSelection(_ context.Context, key string, at time.Time, threshold int) (domain.PopularQuery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pq := s.bump(key, at)
	if pq.SearchCount > threshold {
		pq.IsTrending = true
	}
	return *pq, nil
}

// Get returns the aggregate row for key.
func (s *Store) Get(key string) (domain.PopularQuery, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pq, ok := s.popular[key]
	if !ok {
		return domain.PopularQuery{}, false
	}
	return *pq, true
}

func (s *Store) bump(key string, at time.Time) *domain.PopularQuery {
	pq, ok := s.popular[key]
	if !ok {
		pq = &domain.PopularQuery{Query: key}
		s.popular[key] = pq
	}
	pq.SearchCount++
	pq.LastSearchedAt = at
	return pq
}

// History returns keys containing term or trigram-similar to it.
func (s *Store) History(_ context.Context, term string, limit int) ([]domain.PopularQuery, error) {
	term = strings.ToLower(term)

	s.mu.Lock()
	rows := make([]domain.PopularQuery, 0)
	for key, pq := range s.popular {
		sim := textrank.Similarity(key, term)
		if !strings.Contains(key, term) && sim < textrank.SimilarityThreshold {
			continue
		}
		row := *pq
		row.Similarity = sim
		rows = append(rows, row)
	}
	s.mu.Unlock()

	telemetry.SortHistory(rows, term)
	return telemetry.Truncate(rows, limit), nil
}

// Trending returns keys searched more than once.
func (s *Store) Trending(_ context.Context, limit int) ([]domain.PopularQuery, error) {
	s.mu.Lock()
	rows := make([]domain.PopularQuery, 0)
	for _, pq := range s.popular {
		if pq.SearchCount > 1 {
			rows = append(rows, *pq)
		}
	}
	s.mu.Unlock()

	telemetry.SortTrending(rows)
	return telemetry.Truncate(rows, limit), nil
}
