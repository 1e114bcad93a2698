package domain

import (
	"net/url"
	"reflect"
	"strings"
	"testing"
)

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("url.Parse(%q): %v", raw, err)
	}
	return u
}

func TestFindExactDuplicate(t *testing.T) {
	existing := []Summary{
		{ID: "a", URL: "https://example.com/other", Title: "Other"},
		{ID: "b", URL: "https://Example.com:443", Title: "Home"},
		{ID: "c", URL: "https://example.com/", Title: "Home again"},
		{ID: "d", URL: "::not-a-url", Title: "Broken"},
	}

	tests := []struct {
		name      string
		candidate string
		wantDup   bool
		wantID    string
	}{
		{name: "trailing slash and default port", candidate: "https://example.com", wantDup: true, wantID: "b"},
		{name: "first match wins", candidate: "https://EXAMPLE.com/", wantDup: true, wantID: "b"},
		{name: "different path", candidate: "https://example.com/article", wantDup: false},
		{name: "different scheme", candidate: "http://example.com/", wantDup: false},
		{name: "raw fallback for broken entry", candidate: "::not-a-url", wantDup: true, wantID: "d"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FindExactDuplicate(tt.candidate, existing)
			if got.IsDuplicate != tt.wantDup {
				t.Fatalf("FindExactDuplicate(%q).IsDuplicate = %v, want %v", tt.candidate, got.IsDuplicate, tt.wantDup)
			}
			if !tt.wantDup {
				return
			}
			if got.MatchID != tt.wantID {
				t.Errorf("MatchID = %q, want %q", got.MatchID, tt.wantID)
			}
			if got.Confidence != ExactMatchConfidence {
				t.Errorf("Confidence = %d, want %d", got.Confidence, ExactMatchConfidence)
			}
		})
	}

	if got := FindExactDuplicate("https://example.com", nil); got.IsDuplicate {
		t.Error("FindExactDuplicate() with no bookmarks should not report a duplicate")
	}
}

func TestParseCategory(t *testing.T) {
	for _, c := range Categories {
		if got := ParseCategory(string(c)); got != c {
			t.Errorf("ParseCategory(%q) = %q, want passthrough", c, got)
		}
	}
	for _, s := range []string{"Finance", "research", "NEWS", "", " Work", "Tools & Utilities"} {
		if got := ParseCategory(s); got != CategoryOther {
			t.Errorf("ParseCategory(%q) = %q, want Other", s, got)
		}
	}
	if len(Categories) != 10 {
		t.Errorf("len(Categories) = %d, want 10", len(Categories))
	}
}

func TestNormalizeTags(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want []string
	}{
		{
			name: "case whitespace empty and long",
			raw:  []any{"  JavaScript ", "AI", "", "a-very-long-tag-that-exceeds-twenty-chars"},
			want: []string{"javascript", "ai"},
		},
		{
			name: "capped at five",
			raw:  []any{"a", "b", "c", "d", "e", "f", "g"},
			want: []string{"a", "b", "c", "d", "e"},
		},
		{
			name: "non string entries dropped",
			raw:  []any{"go", 42.0, nil, map[string]any{"x": 1}, "web"},
			want: []string{"go", "web"},
		},
		{
			name: "nineteen characters kept, twenty dropped",
			raw:  []string{strings.Repeat("x", 19), strings.Repeat("y", 20)},
			want: []string{strings.Repeat("x", 19)},
		},
		{name: "string is not a sequence", raw: "go, web", want: []string{}},
		{name: "object is not a sequence", raw: map[string]any{"0": "go"}, want: []string{}},
		{name: "nil", raw: nil, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeTags(tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NormalizeTags(%v) = %#v, want %#v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestResolveDuplicate(t *testing.T) {
	existing := []Summary{
		{ID: "first", URL: "https://a.example.com"},
		{ID: "second", URL: "https://b.example.com"},
	}
	n := Normalizer{}

	tests := []struct {
		name   string
		raw    RawDuplicate
		wantOK bool
		wantID string
	}{
		{name: "confidence 74 rejected", raw: RawDuplicate{IsDuplicate: true, Confidence: 74, MatchNumber: 1}},
		{name: "confidence 75 accepted", raw: RawDuplicate{IsDuplicate: true, Confidence: 75, MatchNumber: 1}, wantOK: true, wantID: "first"},
		{name: "high confidence second", raw: RawDuplicate{IsDuplicate: true, Confidence: 98, MatchNumber: 2}, wantOK: true, wantID: "second"},
		{name: "not duplicate", raw: RawDuplicate{IsDuplicate: false, Confidence: 99, MatchNumber: 1}},
		{name: "match number zero", raw: RawDuplicate{IsDuplicate: true, Confidence: 99, MatchNumber: 0}},
		{name: "match number out of range", raw: RawDuplicate{IsDuplicate: true, Confidence: 99, MatchNumber: 3}},
		{name: "negative match number", raw: RawDuplicate{IsDuplicate: true, Confidence: 99, MatchNumber: -1}},
		{name: "confidence above 100", raw: RawDuplicate{IsDuplicate: true, Confidence: 150, MatchNumber: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := n.ResolveDuplicate(tt.raw, existing)
			if got.IsDuplicate != tt.wantOK {
				t.Fatalf("ResolveDuplicate(%+v).IsDuplicate = %v, want %v", tt.raw, got.IsDuplicate, tt.wantOK)
			}
			if tt.wantOK && got.MatchID != tt.wantID {
				t.Errorf("MatchID = %q, want %q", got.MatchID, tt.wantID)
			}
			if tt.wantOK && got.Confidence != tt.raw.Confidence {
				t.Errorf("Confidence = %d, want %d", got.Confidence, tt.raw.Confidence)
			}
		})
	}

	strict := Normalizer{MinConfidence: 90}
	if got := strict.ResolveDuplicate(RawDuplicate{IsDuplicate: true, Confidence: 89, MatchNumber: 1}, existing); got.IsDuplicate {
		t.Error("MinConfidence=90 should reject confidence 89")
	}
}

func TestResolveTitle(t *testing.T) {
	u := mustParse(t, "https://example.com/article")

	if got := ResolveTitle("Mine", "Model", u); got != "Mine" {
		t.Errorf("provided title should win, got %q", got)
	}
	if got := ResolveTitle("", "  Model Title ", u); got != "Model Title" {
		t.Errorf("model title should be used, got %q", got)
	}
	if got := ResolveTitle("", "", u); got != "example.com" {
		t.Errorf("hostname fallback expected, got %q", got)
	}
	long := strings.Repeat("t", MaxTitleLength+50)
	if got := ResolveTitle("", long, u); len([]rune(got)) != MaxTitleLength {
		t.Errorf("title length = %d, want %d", len([]rune(got)), MaxTitleLength)
	}
}

func TestNormalize(t *testing.T) {
	u := mustParse(t, "https://example.com/article")
	raw := RawEnrichment{
		Title:    "Example Article",
		Summary:  " An article. ",
		Category: "Research",
		Tags:     []any{"Example", "Article"},
	}

	got := Normalizer{}.Normalize(raw, u, "", nil)
	want := EnrichmentResult{
		Title:    "Example Article",
		Summary:  "An article.",
		Category: CategoryResearch,
		Tags:     []string{"example", "article"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Normalize() = %+v, want %+v", got, want)
	}

	raw.Category = "Finance"
	if got := (Normalizer{}).Normalize(raw, u, "", nil); got.Category != CategoryOther {
		t.Errorf("unknown category should map to Other, got %q", got.Category)
	}

	for _, c := range []string{" Work", "Research ", "research"} {
		raw.Category = c
		if got := (Normalizer{}).Normalize(raw, u, "", nil); got.Category != CategoryOther {
			t.Errorf("category %q should map to Other, got %q", c, got.Category)
		}
	}
}

func TestFallback(t *testing.T) {
	u := mustParse(t, "https://www.example.com/article")

	raw := Fallback(u, "")
	if raw.Title != "Example" {
		t.Errorf("Fallback title = %q, want Example", raw.Title)
	}
	if raw.Summary != "Saved from example.com" {
		t.Errorf("Fallback summary = %q", raw.Summary)
	}
	if raw.Category != string(CategoryOther) {
		t.Errorf("Fallback category = %q", raw.Category)
	}
	if tags := NormalizeTags(raw.Tags); !reflect.DeepEqual(tags, []string{"example"}) {
		t.Errorf("Fallback tags = %v", tags)
	}
	if raw.Duplicate.IsDuplicate {
		t.Error("Fallback must never report a duplicate")
	}

	if got := Fallback(u, "My Title"); got.Title != "My Title" {
		t.Errorf("Fallback with provided title = %q", got.Title)
	}
}
