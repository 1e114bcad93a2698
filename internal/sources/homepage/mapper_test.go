package homepage

import (
	"errors"
	"testing"
)

func TestMapperMapBookmarks(t *testing.T) {
	config := BookmarksConfig{
		{
			"Developer": []map[string][]BookmarkEntry{
				{"Github": {{Abbr: "GH", Href: "https://github.com/"}}},
				{" ": {{Abbr: "SO", Href: "https://stackoverflow.com/"}}},
				{"Empty": {}},
				{"No href": {{Abbr: "NH"}}},
			},
		},
	}

	entries, err := NewMapper().MapBookmarks(config)
	if err != nil {
		t.Fatalf("MapBookmarks() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("MapBookmarks() returned %v entries, want 2", len(entries))
	}
	if entries[1].Title != "SO" {
		t.Errorf("blank name should fall back to abbr, got %q", entries[1].Title)
	}
}

func TestMapperMapServicesMultipleGroups(t *testing.T) {
	config := ServicesConfig{
		{"Group1": []map[string]ServiceProps{{"Service1": {Href: "https://service1.example.com"}}}},
		{"Group2": []map[string]ServiceProps{{"Service2": {Href: "https://service2.example.com"}}}},
	}

	entries, err := NewMapper().MapServices(config)
	if err != nil {
		t.Fatalf("MapServices() error = %v", err)
	}
	if len(entries) != 2 || entries[0].Group != "Group1" || entries[1].Title != "Service2" {
		t.Errorf("MapServices() = %+v", entries)
	}
}

func TestMapperEmptyConfig(t *testing.T) {
	entries, err := NewMapper().MapServices(ServicesConfig{})
	if !errors.Is(err, ErrNoEntries) {
		t.Errorf("MapServices() with empty config error = %v", err)
	}
	if entries != nil {
		t.Errorf("MapServices() with empty config should return nil entries, got %v", len(entries))
	}
}
