package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Saugat913/femite-sub000/internal/domain"
	"github.com/Saugat913/femite-sub000/internal/textrank"
	"github.com/Saugat913/femite-sub000/pkg/database"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	return mock
}

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

var popularColumns = []string{"query", "search_count", "is_trending", "last_searched_at"}

func TestStore_AppendQuery(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	s := New(mock)

	e := domain.QueryLogEntry{
		ID:        "q-1",
		Query:     "hemp shirt",
		IPAddress: "10.0.0.1",
		UserAgent: "curl",
		SessionID: "anon-abc",
		Filters:   []byte(`{"query":"hemp shirt"}`),
		CreatedAt: now,
	}
	mock.ExpectExec("INSERT INTO search_queries").
		WithArgs(e.ID, e.Query, "", e.IPAddress, e.UserAgent, e.SessionID, []byte(e.Filters), e.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.AppendQuery(context.Background(), e))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_AppendQuery_NoFilters(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	s := New(mock)

	mock.ExpectExec("INSERT INTO search_queries").
		WithArgs("q-2", "hemp", "u1", "", "", "user-u1", []byte(nil), now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.AppendQuery(context.Background(), domain.QueryLogEntry{
		ID: "q-2", Query: "hemp", UserID: "u1", SessionID: "user-u1", CreatedAt: now,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_RecordSearch_IsSingleUpsert(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	s := New(mock)

	mock.ExpectExec(`INSERT INTO popular_searches .+ ON CONFLICT \(query\) DO UPDATE SET\s+search_count = popular_searches.search_count \+ 1`).
		WithArgs("hemp shirt", now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.RecordSearch(context.Background(), "hemp shirt", now))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_RecordSearch_Error(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	s := New(mock)

	mock.ExpectExec("INSERT INTO popular_searches").
		WithArgs("hemp", now).
		WillReturnError(errors.New("connection reset"))

	err := s.RecordSearch(context.Background(), "hemp", now)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upsert popular search")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_RecordSelection(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	s := New(mock)

	mock.ExpectQuery(`INSERT INTO popular_searches .+ is_trending = popular_searches.is_trending OR popular_searches.search_count \+ 1 > \$3\s+RETURNING`).
		WithArgs("hemp", now, 10).
		WillReturnRows(pgxmock.NewRows(popularColumns).AddRow("hemp", 11, true, now))

	pq, err := s.RecordSelection(context.Background(), "hemp", now, 10)
	require.NoError(t, err)
	assert.Equal(t, domain.PopularQuery{Query: "hemp", SearchCount: 11, IsTrending: true, LastSearchedAt: now}, pq)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_History(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	s := New(mock)

	mock.ExpectQuery(`SELECT .+ similarity\(query, \$1\) .+ FROM popular_searches`).
		WithArgs("50%_off", `%50\%\_off%`, textrank.SimilarityThreshold, `50\%\_off%`, 4).
		WillReturnRows(pgxmock.NewRows(append(popularColumns, "sim")).
			AddRow("50%_off shirts", 4, false, now, float64(0.6)))

	rows, err := s.History(context.Background(), "50%_OFF", 4)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "50%_off shirts", rows[0].Query)
	assert.Equal(t, 0.6, rows[0].Similarity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Trending(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	s := New(mock)

	mock.ExpectQuery(`FROM popular_searches\s+WHERE search_count > 1\s+ORDER BY is_trending DESC, search_count DESC, last_searched_at DESC`).
		WithArgs(5).
		WillReturnRows(pgxmock.NewRows(popularColumns).
			AddRow("hemp", 12, true, now).
			AddRow("linen", 4, false, now))

	rows, err := s.Trending(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.True(t, rows[0].IsTrending)
	assert.Equal(t, "linen", rows[1].Query)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Trending_Empty(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	s := New(mock)

	mock.ExpectQuery("FROM popular_searches").
		WithArgs(5).
		WillReturnRows(pgxmock.NewRows(popularColumns))

	rows, err := s.Trending(context.Background(), 5)
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
