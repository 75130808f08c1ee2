package httputil

import (
	"net/http"
	"strconv"
	"strings"

	apperrors "github.com/Saugat913/femite-sub000/pkg/errors"
)

// QueryInt parses an optional integer query parameter. A missing or blank
// parameter yields (0, false, nil).
func QueryInt(r *http.Request, name string) (int, bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, apperrors.InvalidFilter("%s must be an integer, got %q", name, raw)
	}
	return v, true, nil
}

// QueryFloat parses an optional decimal query parameter.
func QueryFloat(r *http.Request, name string) (*float64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, apperrors.InvalidFilter("%s must be a number, got %q", name, raw)
	}
	return &v, nil
}

// QueryBool parses an optional boolean query parameter.
func QueryBool(r *http.Request, name string) (*bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperrors.InvalidFilter("%s must be a boolean, got %q", name, raw)
	}
	return &v, nil
}

// QueryList collects a multi-valued parameter given either as repeats
// (?size=S&size=M) or as a comma list (?size=S,M). Blank items and
// duplicates are dropped; first-seen order is kept.
func QueryList(r *http.Request, name string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, raw := range r.URL.Query()[name] {
		for _, item := range strings.Split(raw, ",") {
			item = strings.TrimSpace(item)
			if item == "" {
				continue
			}
			if _, ok := seen[item]; ok {
				continue
			}
			seen[item] = struct{}{}
			out = append(out, item)
		}
	}
	return out
}
