package domain

import (
	"sort"
	"strings"
	"time"
)

// SortOrder selects how a bookmark list is ordered.
type SortOrder string

const (
	SortNewest       SortOrder = "newest"
	SortOldest       SortOrder = "oldest"
	SortAlphabetical SortOrder = "alphabetical"
	SortCategory     SortOrder = "category"
)

// ParseSortOrder returns the matching order, SortNewest for anything unknown.
func ParseSortOrder(s string) SortOrder {
	switch SortOrder(strings.ToLower(strings.TrimSpace(s))) {
	case SortOldest:
		return SortOldest
	case SortAlphabetical:
		return SortAlphabetical
	case SortCategory:
		return SortCategory
	default:
		return SortNewest
	}
}

// ListQuery filters and orders a bookmark collection.
// Empty fields do not filter.
type ListQuery struct {
	Search   string    // case-insensitive, matched against title, url and summary
	Category Category  // exact
	Tag      string    // exact, one of the bookmark's tags
	Sort     SortOrder // defaults to newest first
}

// Matches reports whether b passes every filter of q.
func (q ListQuery) Matches(b *Bookmark) bool {
	if q.Search != "" {
		needle := strings.ToLower(q.Search)
		if !strings.Contains(strings.ToLower(b.Title), needle) &&
			!strings.Contains(strings.ToLower(b.URL), needle) &&
			!strings.Contains(strings.ToLower(b.Summary), needle) {
			return false
		}
	}
	if q.Category != "" && b.Category != q.Category {
		return false
	}
	if q.Tag != "" && !containsString(b.Tags, q.Tag) {
		return false
	}
	return true
}

// Apply returns the bookmarks matching q in q's order. The input slice is
// left untouched.
func (q ListQuery) Apply(bookmarks []*Bookmark) []*Bookmark {
	out := make([]*Bookmark, 0, len(bookmarks))
	for _, b := range bookmarks {
		if q.Matches(b) {
			out = append(out, b)
		}
	}

	var less func(a, b *Bookmark) bool
	switch q.Sort {
	case SortOldest:
		less = func(a, b *Bookmark) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case SortAlphabetical:
		less = func(a, b *Bookmark) bool { return strings.ToLower(a.Title) < strings.ToLower(b.Title) }
	case SortCategory:
		less = func(a, b *Bookmark) bool { return a.Category < b.Category }
	default:
		less = func(a, b *Bookmark) bool { return a.CreatedAt.After(b.CreatedAt) }
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })

	return out
}

// Stats summarizes a collection.
type Stats struct {
	Total      int `json:"total"`
	Categories int `json:"categories"`
	Tags       int `json:"tags"`
	ThisWeek   int `json:"this_week"`
}

// ComputeStats counts distinct categories and tags, and bookmarks created in
// the seven days before now.
func ComputeStats(bookmarks []*Bookmark, now time.Time) Stats {
	categories := make(map[Category]struct{})
	tags := make(map[string]struct{})
	weekAgo := now.Add(-7 * 24 * time.Hour)

	stats := Stats{Total: len(bookmarks)}
	for _, b := range bookmarks {
		if b.Category != "" {
			categories[b.Category] = struct{}{}
		}
		for _, t := range b.Tags {
			tags[t] = struct{}{}
		}
		if b.CreatedAt.After(weekAgo) {
			stats.ThisWeek++
		}
	}
	stats.Categories = len(categories)
	stats.Tags = len(tags)
	return stats
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
