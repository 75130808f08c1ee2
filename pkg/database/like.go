package database

import "strings"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike escapes LIKE wildcards so s matches literally. Pair it with
// ESCAPE '\' in the statement.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// ContainsPattern is the ILIKE pattern for "s appears anywhere".
func ContainsPattern(s string) string {
	return "%" + EscapeLike(s) + "%"
}

// PrefixPattern is the ILIKE pattern for "starts with s".
func PrefixPattern(s string) string {
	return EscapeLike(s) + "%"
}
