package domain

import (
	"testing"
	"time"
)

func sampleBookmarks(now time.Time) []*Bookmark {
	return []*Bookmark{
		{ID: "1", Title: "Go Blog", URL: "https://go.dev/blog", Summary: "Official blog", Category: CategoryEducation, Tags: []string{"go", "blog"}, CreatedAt: now.Add(-1 * time.Hour)},
		{ID: "2", Title: "arXiv", URL: "https://arxiv.org", Summary: "Preprints", Category: CategoryResearch, Tags: []string{"papers"}, CreatedAt: now.Add(-10 * 24 * time.Hour)},
		{ID: "3", Title: "Hacker News", URL: "https://news.ycombinator.com", Summary: "Tech news about Go and more", Category: CategoryNews, Tags: []string{"news", "go"}, CreatedAt: now.Add(-2 * time.Hour)},
	}
}

func ids(bs []*Bookmark) []string {
	out := make([]string, len(bs))
	for i, b := range bs {
		out[i] = b.ID
	}
	return out
}

func TestListQueryApply(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	bookmarks := sampleBookmarks(now)

	tests := []struct {
		name  string
		query ListQuery
		want  []string
	}{
		{name: "default newest first", query: ListQuery{}, want: []string{"1", "3", "2"}},
		{name: "oldest first", query: ListQuery{Sort: SortOldest}, want: []string{"2", "3", "1"}},
		{name: "alphabetical ignores case", query: ListQuery{Sort: SortAlphabetical}, want: []string{"2", "1", "3"}},
		{name: "by category", query: ListQuery{Sort: SortCategory}, want: []string{"1", "3", "2"}},
		{name: "search title url summary", query: ListQuery{Search: "GO"}, want: []string{"1", "3"}},
		{name: "search url only", query: ListQuery{Search: "arxiv.org"}, want: []string{"2"}},
		{name: "category filter", query: ListQuery{Category: CategoryResearch}, want: []string{"2"}},
		{name: "tag filter", query: ListQuery{Tag: "go", Sort: SortOldest}, want: []string{"3", "1"}},
		{name: "no match", query: ListQuery{Search: "rust"}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(tt.query.Apply(bookmarks))
			if len(got) != len(tt.want) {
				t.Fatalf("Apply() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("Apply() = %v, want %v", got, tt.want)
				}
			}
		})
	}

	if bookmarks[0].ID != "1" || bookmarks[1].ID != "2" {
		t.Error("Apply() must not reorder its input")
	}
}

func TestParseSortOrder(t *testing.T) {
	cases := map[string]SortOrder{
		"":             SortNewest,
		"newest":       SortNewest,
		"Oldest":       SortOldest,
		"alphabetical": SortAlphabetical,
		"category":     SortCategory,
		"random":       SortNewest,
	}
	for in, want := range cases {
		if got := ParseSortOrder(in); got != want {
			t.Errorf("ParseSortOrder(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestComputeStats(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	stats := ComputeStats(sampleBookmarks(now), now)

	want := Stats{Total: 3, Categories: 3, Tags: 4, ThisWeek: 2}
	if stats != want {
		t.Errorf("ComputeStats() = %+v, want %+v", stats, want)
	}
}
