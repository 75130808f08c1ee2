// Package textrank derives weighted term vectors from product text and scores
// free-text queries against them. It backs the in-process product store and
// the fuzzy lookup of the in-process query aggregates.
package textrank

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// NormalizeQuery folds compatibility forms, trims and collapses internal
// whitespace to single spaces. Case is preserved.
func NormalizeQuery(q string) string {
	return strings.Join(strings.Fields(norm.NFKC.String(q)), " ")
}

// NormalizeKey is the form used to key query aggregates: NormalizeQuery
// lowercased.
func NormalizeKey(q string) string {
	return strings.ToLower(NormalizeQuery(q))
}

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "by": {},
	"for": {}, "from": {}, "in": {}, "is": {}, "it": {}, "of": {}, "on": {}, "or": {},
	"the": {}, "to": {}, "with": {},
}

// Terms splits text into lowercase stemmed tokens, dropping stopwords.
func Terms(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(norm.NFKC.String(text)), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, stop := stopwords[f]; stop {
			continue
		}
		terms = append(terms, stem(f))
	}
	return terms
}

// stem strips common English plural endings. Words ending in "ss" are kept.
func stem(t string) string {
	switch {
	case len(t) > 4 && strings.HasSuffix(t, "ies"):
		return t[:len(t)-3] + "y"
	case len(t) > 4 && strings.HasSuffix(t, "es") && esPlural(t[:len(t)-2]):
		return t[:len(t)-2]
	case len(t) > 3 && strings.HasSuffix(t, "s") && !strings.HasSuffix(t, "ss"):
		return t[:len(t)-1]
	}
	return t
}

func esPlural(base string) bool {
	for _, suffix := range []string{"s", "x", "z", "ch", "sh"} {
		if strings.HasSuffix(base, suffix) {
			return true
		}
	}
	return false
}
