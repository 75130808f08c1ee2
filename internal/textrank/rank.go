package textrank

import "math"

// Field weights. Name terms count more than description terms.
const (
	WeightName        = 1.0
	WeightDescription = 0.4
)

// Vector is a weighted term index over a product's name and description.
type Vector map[string]float64

// BuildVector derives the rank vector for a name/description pair. Each
// occurrence contributes its field weight.
func BuildVector(name, description string) Vector {
	v := make(Vector)
	for _, t := range Terms(name) {
		v[t] += WeightName
	}
	for _, t := range Terms(description) {
		v[t] += WeightDescription
	}
	return v
}

// Matches reports whether every query term is present in the vector.
// A query without terms matches nothing.
func (v Vector) Matches(terms []string) bool {
	if len(terms) == 0 {
		return false
	}
	for _, t := range terms {
		if _, ok := v[t]; !ok {
			return false
		}
	}
	return true
}

// Score returns a relevance in (0, 1) for matching vectors and 0 otherwise.
// Repeated occurrences are dampened logarithmically and the sum is squashed
// so that longer documents do not grow without bound.
func (v Vector) Score(terms []string) float64 {
	if !v.Matches(terms) {
		return 0
	}
	var raw float64
	for _, t := range terms {
		w := v[t]
		raw += 1 + math.Log1p(w)
	}
	return raw / (raw + 1)
}
