// Package api holds the JSON bodies shared by the HTTP handlers and the
// API client.
package api

import "github.com/MrSnakeDoc/smartmark/internal/domain"

type CreateBookmarkRequest struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
}

// CreateBookmarkResponse is the 201 body. Warning is null when enrichment
// succeeded.
type CreateBookmarkResponse struct {
	Bookmark *domain.Bookmark `json:"bookmark"`
	Warning  *string          `json:"warning"`
}

type ListBookmarksResponse struct {
	Bookmarks []*domain.Bookmark `json:"bookmarks"`
	Stats     domain.Stats       `json:"stats"`
}

// ErrorResponse is every non-2xx body. The duplicate fields are set on 409.
type ErrorResponse struct {
	Error              string `json:"error"`
	Duplicate          bool   `json:"duplicate,omitempty"`
	Confidence         int    `json:"confidence,omitempty"`
	ExistingBookmarkID string `json:"existingBookmarkId,omitempty"`
}

// Server-sent event names on /api/events.
const (
	EventChange = "change"
	EventReady  = "ready"
)
