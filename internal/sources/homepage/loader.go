package homepage

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

var templateVar = regexp.MustCompile(`\{\{[^}]+\}\}`)

// Loader reads a Homepage bookmarks.yaml, or a services.yaml, into import
// entries.
type Loader struct {
	filePath string
	mapper   *Mapper
}

// NewLoader creates a new Homepage loader
func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath: filePath,
		mapper:   NewMapper(),
	}
}

// Path returns the file the loader reads.
func (l *Loader) Path() string { return l.filePath }

// Load reads and parses the file. The bookmarks layout is tried first, then
// the services layout.
func (l *Loader) Load() ([]Entry, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read homepage file: %w", err)
	}
	return l.Parse(data)
}

// Parse decodes raw YAML in either layout.
func (l *Loader) Parse(data []byte) ([]Entry, error) {
	// Strip Homepage template variables ({{HOMEPAGE_VAR_...}})
	data = stripTemplateVariables(data)

	var bookmarks BookmarksConfig
	if err := yaml.Unmarshal(data, &bookmarks); err == nil {
		return l.mapper.MapBookmarks(bookmarks)
	}

	// A services.yaml entry is a mapping where bookmarks have a list
	var services ServicesConfig
	if err := yaml.Unmarshal(data, &services); err != nil {
		return nil, fmt.Errorf("failed to parse homepage yaml: %w", err)
	}
	return l.mapper.MapServices(services)
}

// stripTemplateVariables removes Homepage template variables from YAML
// Example: {{HOMEPAGE_VAR_ADGUARD_USER}} -> ""
func stripTemplateVariables(data []byte) []byte {
	return templateVar.ReplaceAll(data, []byte(`""`))
}
