package telemetry

import (
	"sort"
	"strings"

	"github.com/Saugat913/femite-sub000/internal/domain"
)

// SortHistory orders history candidates for term: keys starting with term
// first, then trending, then count, then similarity, then the key itself.
// Adapters that cannot express this order in their query language sort
// with it in process.
func SortHistory(rows []domain.PopularQuery, term string) {
	term = strings.ToLower(term)
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if ap, bp := strings.HasPrefix(a.Query, term), strings.HasPrefix(b.Query, term); ap != bp {
			return ap
		}
		if a.IsTrending != b.IsTrending {
			return a.IsTrending
		}
		if a.SearchCount != b.SearchCount {
			return a.SearchCount > b.SearchCount
		}
		if a.Similarity != b.Similarity {
			return a.Similarity > b.Similarity
		}
		return a.Query < b.Query
	})
}

// SortTrending orders trending candidates: trending flag, count, then most
// recently searched.
func SortTrending(rows []domain.PopularQuery) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.IsTrending != b.IsTrending {
			return a.IsTrending
		}
		if a.SearchCount != b.SearchCount {
			return a.SearchCount > b.SearchCount
		}
		if !a.LastSearchedAt.Equal(b.LastSearchedAt) {
			return a.LastSearchedAt.After(b.LastSearchedAt)
		}
		return a.Query < b.Query
	})
}

// Truncate caps rows at limit when limit is positive.
func Truncate(rows []domain.PopularQuery, limit int) []domain.PopularQuery {
	if limit > 0 && len(rows) > limit {
		return rows[:limit]
	}
	return rows
}
