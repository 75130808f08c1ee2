package pagination

import (
	"errors"
	"fmt"
)

const (
	DefaultPage  = 1
	DefaultLimit = 12
	MaxLimit     = 100
)

var (
	ErrInvalidPage  = errors.New("page must be >= 1")
	ErrInvalidLimit = fmt.Errorf("limit must be between 1 and %d", MaxLimit)
)

// Window is a 1-indexed page of fixed size.
type Window struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// New builds a window, substituting defaults for zero values. Negative page
// and out-of-range limit are rejected rather than clamped.
func New(page, limit int) (Window, error) {
	if page == 0 {
		page = DefaultPage
	}
	if limit == 0 {
		limit = DefaultLimit
	}
	if page < 1 {
		return Window{}, ErrInvalidPage
	}
	if limit < 1 || limit > MaxLimit {
		return Window{}, ErrInvalidLimit
	}
	return Window{Page: page, Limit: limit}, nil
}

// Offset is the number of rows skipped before this window.
func (w Window) Offset() int {
	return (w.Page - 1) * w.Limit
}

// HasMore reports whether rows remain past this window.
func (w Window) HasMore(total int) bool {
	return total > w.Page*w.Limit
}

// TotalPages returns the page count for total rows.
func (w Window) TotalPages(total int) int {
	if w.Limit <= 0 {
		return 0
	}
	pages := total / w.Limit
	if total%w.Limit > 0 {
		pages++
	}
	return pages
}
