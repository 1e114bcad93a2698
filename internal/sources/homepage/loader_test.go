package homepage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "homepage.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to create test YAML file: %v", err)
	}
	return path
}

func TestLoaderLoadBookmarks(t *testing.T) {
	path := writeFile(t, `---
- Developer:
    - Github:
        - abbr: GH
          href: https://github.com/
    - Go docs:
        - abbr: GO
          href: https://go.dev/doc
- Social:
    - Reddit:
        - icon: reddit.png
          href: https://reddit.com/
          description: The front page of the internet
`)

	entries, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := []Entry{
		{Group: "Developer", Title: "Github", URL: "https://github.com/"},
		{Group: "Developer", Title: "Go docs", URL: "https://go.dev/doc"},
		{Group: "Social", Title: "Reddit", URL: "https://reddit.com/"},
	}
	if len(entries) != len(want) {
		t.Fatalf("Load() returned %d entries, want %d: %+v", len(entries), len(want), entries)
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, entries[i], want[i])
		}
	}
}

func TestLoaderLoadServices(t *testing.T) {
	path := writeFile(t, `---
- Infrastructure:
    - AdGuard Home:
        icon: adguard-home.svg
        href: https://adguard.domain.ext
        description: Network-wide ads & trackers blocking DNS server
    - Secret:
        href: {{HOMEPAGE_VAR_SECRET_URL}}
`)

	entries, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(entries) != 1 || entries[0].Title != "AdGuard Home" || entries[0].URL != "https://adguard.domain.ext" {
		t.Errorf("Load() = %+v", entries)
	}
}

func TestLoaderLoadErrors(t *testing.T) {
	if _, err := NewLoader("/nonexistent/path/bookmarks.yaml").Load(); err == nil {
		t.Error("Load() with non-existent file should return error")
	}

	if _, err := NewLoader(writeFile(t, "key: [unclosed")).Load(); err == nil {
		t.Error("Load() with invalid yaml should return error")
	}

	_, err := NewLoader(writeFile(t, "- Empty:\n    - Nothing:\n        - abbr: N\n")).Load()
	if !errors.Is(err, ErrNoEntries) {
		t.Errorf("Load() error = %v, want ErrNoEntries", err)
	}
}

func TestStripTemplateVariablesFunc(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{
			name:     "single template variable",
			input:    []byte("url: {{HOMEPAGE_VAR_URL}}"),
			expected: "url: \"\"",
		},
		{
			name:     "no template variables",
			input:    []byte("plain text"),
			expected: "plain text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := stripTemplateVariables(tt.input)
			if string(result) != tt.expected {
				t.Errorf("stripTemplateVariables() = %q, want %q", string(result), tt.expected)
			}
		})
	}
}
