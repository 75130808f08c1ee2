package postgres

import (
	"fmt"
	"strings"

	"github.com/Saugat913/femite-sub000/internal/plan"
	"github.com/Saugat913/femite-sub000/pkg/database"
)

// query accumulates positional arguments while a plan is rendered to SQL.
type query struct {
	args []any
}

func (q *query) arg(v any) string {
	q.args = append(q.args, v)
	return fmt.Sprintf("$%d", len(q.args))
}

// translation is the SQL form of a plan's predicates and ordering.
type translation struct {
	where   string
	score   string
	orderBy string
	args    []any
}

// translate renders p. It is the only place that knows how plan predicates
// map to the products schema.
func translate(p *plan.Plan) translation {
	q := &query{}
	var conds []string
	score := "0::float8"

	for _, pred := range p.Predicates {
		switch pr := pred.(type) {
		case plan.TextMatch:
			ts := fmt.Sprintf("plainto_tsquery('english', %s)", q.arg(pr.Query))
			conds = append(conds, "p.search_vector @@ "+ts)
			score = fmt.Sprintf("ts_rank(p.search_vector, %s, 32)::float8", ts)
		case plan.Contains:
			conds = append(conds, fmt.Sprintf(`EXISTS (
				SELECT 1 FROM product_categories pc
				JOIN categories c ON c.id = pc.category_id
				WHERE pc.product_id = p.id AND c.name ILIKE %s ESCAPE '\')`,
				q.arg(database.ContainsPattern(pr.Term))))
		case plan.Range:
			conds = append(conds, rangeConds(q, pr)...)
		case plan.Exists:
			conds = append(conds, fmt.Sprintf(`EXISTS (
				SELECT 1 FROM product_attributes pa
				WHERE pa.product_id = p.id AND pa.attribute_type = %s AND pa.attribute_value = ANY(%s))`,
				q.arg(pr.Type), q.arg(pr.Values)))
		}
	}

	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}
	return translation{
		where:   where,
		score:   score,
		orderBy: orderBy(p.Order),
		args:    q.args,
	}
}

func rangeConds(q *query, r plan.Range) []string {
	column := "p.price"
	value := func(v float64) any { return v }
	if r.Field == plan.FieldStock {
		column = "p.stock"
		value = func(v float64) any { return int64(v) }
	}

	var conds []string
	if r.Min != nil {
		op := ">="
		if r.MinExclusive {
			op = ">"
		}
		conds = append(conds, fmt.Sprintf("%s %s %s", column, op, q.arg(value(*r.Min))))
	}
	if r.Max != nil {
		conds = append(conds, fmt.Sprintf("%s <= %s", column, q.arg(value(*r.Max))))
	}
	return conds
}

func orderBy(o plan.Order) string {
	switch o {
	case plan.OrderRelevance:
		return "score DESC, p.created_at DESC, p.id ASC"
	case plan.OrderPriceAsc:
		return "p.price ASC, p.id ASC"
	case plan.OrderPriceDesc:
		return "p.price DESC, p.id ASC"
	case plan.OrderOldest:
		return "p.created_at ASC, p.id ASC"
	case plan.OrderNameAsc:
		return "lower(p.name) ASC, p.id ASC"
	case plan.OrderNameDesc:
		return "lower(p.name) DESC, p.id ASC"
	}
	return "p.created_at DESC, p.id ASC"
}
