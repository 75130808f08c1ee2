package elasticsearch

import (
	"strings"

	"github.com/Saugat913/femite-sub000/internal/plan"
)

// Name is boosted over description, mirroring the rank vector weights.
var textFields = []string{"name^2.5", "description"}

var wildcardEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`)

func containsWildcard(s string) string {
	return "*" + wildcardEscaper.Replace(strings.ToLower(s)) + "*"
}

// translate renders the plan's predicates as a bool query. It is the only
// place that knows how plan predicates map to the index mapping.
func translate(p *plan.Plan) map[string]any {
	var must, filter []any

	for _, pred := range p.Predicates {
		switch pr := pred.(type) {
		case plan.TextMatch:
			must = append(must, map[string]any{
				"multi_match": map[string]any{
					"query":    pr.Query,
					"fields":   textFields,
					"type":     "cross_fields",
					"operator": "and",
				},
			})
		case plan.Contains:
			filter = append(filter, map[string]any{
				"wildcard": map[string]any{
					"categories": map[string]any{
						"value":            containsWildcard(pr.Term),
						"case_insensitive": true,
					},
				},
			})
		case plan.Range:
			bounds := map[string]any{}
			if pr.Min != nil {
				op := "gte"
				if pr.MinExclusive {
					op = "gt"
				}
				bounds[op] = *pr.Min
			}
			if pr.Max != nil {
				bounds["lte"] = *pr.Max
			}
			filter = append(filter, map[string]any{
				"range": map[string]any{string(pr.Field): bounds},
			})
		case plan.Exists:
			filter = append(filter, map[string]any{
				"terms": map[string]any{"attributes." + pr.Type: pr.Values},
			})
		}
	}

	if len(must) == 0 {
		must = append(must, map[string]any{"match_all": map[string]any{}})
	}
	boolQuery := map[string]any{"must": must}
	if len(filter) > 0 {
		boolQuery["filter"] = filter
	}
	return map[string]any{"bool": boolQuery}
}

// buildSort renders the plan order with id as the final tie-break.
func buildSort(o plan.Order) []any {
	byID := map[string]any{"id": "asc"}
	switch o {
	case plan.OrderRelevance:
		return []any{map[string]any{"_score": "desc"}, map[string]any{"created_at": "desc"}, byID}
	case plan.OrderPriceAsc:
		return []any{map[string]any{"price": "asc"}, byID}
	case plan.OrderPriceDesc:
		return []any{map[string]any{"price": "desc"}, byID}
	case plan.OrderOldest:
		return []any{map[string]any{"created_at": "asc"}, byID}
	case plan.OrderNameAsc:
		return []any{map[string]any{"name.sort": "asc"}, byID}
	case plan.OrderNameDesc:
		return []any{map[string]any{"name.sort": "desc"}, byID}
	}
	return []any{map[string]any{"created_at": "desc"}, byID}
}

// termQuery matches products by rank text or by name substring, the way
// autocomplete sources do.
func termQuery(term string) map[string]any {
	return map[string]any{
		"bool": map[string]any{
			"should": []any{
				map[string]any{
					"multi_match": map[string]any{
						"query":    term,
						"fields":   textFields,
						"type":     "cross_fields",
						"operator": "and",
					},
				},
				map[string]any{
					"wildcard": map[string]any{
						"name.sort": map[string]any{"value": containsWildcard(term)},
					},
				},
			},
			"minimum_should_match": 1,
		},
	}
}

// normalizeScore maps an unbounded BM25 score into [0, 1).
func normalizeScore(s float64) float64 {
	if s <= 0 {
		return 0
	}
	return s / (s + 1)
}
