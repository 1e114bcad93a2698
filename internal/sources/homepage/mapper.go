package homepage

import (
	"errors"
	"sort"
	"strings"
)

// ErrNoEntries is returned when a file holds no entry with an href.
var ErrNoEntries = errors.New("no valid entries found in homepage config")

// Entry is one link to import. Group is kept as a hint for logs only; the
// category is always decided by enrichment.
type Entry struct {
	Group string
	Title string
	URL   string
}

// Mapper converts Homepage configs to import entries
type Mapper struct{}

// NewMapper creates a new mapper instance
func NewMapper() *Mapper {
	return &Mapper{}
}

// MapBookmarks flattens BookmarksConfig. The bookmark name becomes the
// title, or the abbreviation when the name is blank.
func (m *Mapper) MapBookmarks(config BookmarksConfig) ([]Entry, error) {
	var entries []Entry

	for _, group := range config {
		for _, groupName := range sortedKeys(group) {
			for _, bookmarkMap := range group[groupName] {
				for _, name := range sortedKeys(bookmarkMap) {
					list := bookmarkMap[name]
					// Each bookmark has a list with a single entry
					if len(list) == 0 {
						continue
					}
					entry := list[0]

					href := strings.TrimSpace(entry.Href)
					if href == "" {
						continue
					}
					title := strings.TrimSpace(name)
					if title == "" {
						title = strings.TrimSpace(entry.Abbr)
					}

					entries = append(entries, Entry{Group: groupName, Title: title, URL: href})
				}
			}
		}
	}

	if len(entries) == 0 {
		return nil, ErrNoEntries
	}
	return entries, nil
}

// MapServices flattens ServicesConfig, service name as title.
func (m *Mapper) MapServices(config ServicesConfig) ([]Entry, error) {
	var entries []Entry

	for _, group := range config {
		for _, groupName := range sortedKeys(group) {
			for _, serviceMap := range group[groupName] {
				for _, name := range sortedKeys(serviceMap) {
					href := strings.TrimSpace(serviceMap[name].Href)
					if href == "" {
						continue
					}
					entries = append(entries, Entry{Group: groupName, Title: strings.TrimSpace(name), URL: href})
				}
			}
		}
	}

	if len(entries) == 0 {
		return nil, ErrNoEntries
	}
	return entries, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
