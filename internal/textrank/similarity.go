package textrank

import "strings"

// SimilarityThreshold is the minimum Similarity at which two strings are
// considered near-spellings of each other.
const SimilarityThreshold = 0.3

// Similarity is the Jaccard overlap of the padded trigram sets of a and b,
// compared case-insensitively. Identical strings score 1.
func Similarity(a, b string) float64 {
	ta, tb := trigrams(a), trigrams(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	shared := 0
	for g := range ta {
		if _, ok := tb[g]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(ta)+len(tb)-shared)
}

// trigrams pads each word with two leading spaces and one trailing space,
// the way pg_trgm does, and collects its three-rune windows.
func trigrams(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(s)) {
		r := []rune("  " + w + " ")
		for i := 0; i+3 <= len(r); i++ {
			set[string(r[i:i+3])] = struct{}{}
		}
	}
	return set
}
