package domain

import (
	"encoding/json"
	"time"
)

// Requester identifies who issued a request, as far as the edge knows.
type Requester struct {
	UserID    string
	SessionID string
	IPAddress string
	UserAgent string
}

// QueryLogEntry is one append-only record of an executed free-text search.
type QueryLogEntry struct {
	ID        string          `json:"id"`
	Query     string          `json:"query"`
	UserID    string          `json:"userId,omitempty"`
	IPAddress string          `json:"ipAddress,omitempty"`
	UserAgent string          `json:"userAgent,omitempty"`
	SessionID string          `json:"sessionId"`
	Filters   json.RawMessage `json:"filters,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}
