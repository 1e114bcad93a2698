package domain

import "time"

// Bookmark is a saved URL owned by exactly one user.
//
// Bookmarks are created by the ingestion pipeline and never edited in place.
// They disappear only through an explicit delete by their owner.
type Bookmark struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// ID is an opaque unique identifier assigned at creation.
	ID string `json:"id"`

	// OwnerID is the user the bookmark belongs to.
	// A bookmark is never shared between owners.
	OwnerID string `json:"user_id"`

	// URL is the saved http or https address, as submitted.
	URL string `json:"url"`

	// ─────────────────────────────
	// Enriched metadata
	// ─────────────────────────────

	// Title is at most MaxTitleLength characters.
	Title string `json:"title"`

	// Summary is a short description, possibly empty.
	Summary string `json:"summary"`

	// Category is always one of Categories.
	Category Category `json:"category"`

	// Tags holds 0 to MaxTags lowercase entries.
	Tags []string `json:"tags"`

	// FaviconURL is derived from the URL hostname, see FaviconURL.
	FaviconURL string `json:"favicon_url"`

	// ─────────────────────────────
	// Metadata
	// ─────────────────────────────

	// CreatedAt is assigned by the server when the bookmark is persisted.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt equals CreatedAt since bookmarks are never mutated.
	UpdatedAt time.Time `json:"updated_at"`
}

// Summary is the read-only projection of an existing bookmark handed to
// duplicate detection.
type Summary struct {
	ID    string `json:"id"`
	URL   string `json:"url"`
	Title string `json:"title"`
}

// Summarize projects a bookmark into a Summary.
func (b *Bookmark) Summarize() Summary {
	return Summary{ID: b.ID, URL: b.URL, Title: b.Title}
}

// DuplicateVerdict tells whether a candidate URL matches an existing bookmark.
type DuplicateVerdict struct {
	IsDuplicate bool   `json:"isDuplicate"`
	MatchID     string `json:"matchId,omitempty"`
	Confidence  int    `json:"confidence,omitempty"`
}

// RawEnrichment is what the language model answered, before validation.
//
// Tags is left untyped on purpose: the model may return anything there and
// the normalizer decides what survives.
type RawEnrichment struct {
	Title     string
	Summary   string
	Category  string
	Tags      any
	Duplicate RawDuplicate
}

// RawDuplicate is the model's duplicate verdict. MatchNumber is a 1-based
// index into the existing bookmarks listed in the prompt.
type RawDuplicate struct {
	IsDuplicate bool
	Confidence  int
	MatchNumber int
}

// EnrichmentResult is a validated RawEnrichment, ready to be folded into a
// Bookmark or rejected as a duplicate. It is never persisted.
type EnrichmentResult struct {
	Title     string
	Summary   string
	Category  Category
	Tags      []string
	Duplicate DuplicateVerdict
}
