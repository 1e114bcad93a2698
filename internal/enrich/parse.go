package enrich

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/MrSnakeDoc/smartmark/internal/domain"
)

// wireResponse decodes every field untyped so one badly typed value is
// dropped on its own instead of failing the whole answer.
type wireResponse struct {
	Title     any `json:"title"`
	Summary   any `json:"summary"`
	Category  any `json:"category"`
	Tags      any `json:"tags"`
	Duplicate any `json:"duplicate"`
}

// ParseResponse decodes the model answer. Markdown code fences are stripped
// first; anything that is still not a JSON object is ErrInvalidResponse.
// Fields of the wrong type are left at their zero value for the normalizer.
func ParseResponse(text string) (domain.RawEnrichment, error) {
	cleaned := stripFences(text)
	if cleaned == "" {
		return domain.RawEnrichment{}, fmt.Errorf("%w: empty answer", ErrInvalidResponse)
	}
	if !strings.HasPrefix(cleaned, "{") {
		return domain.RawEnrichment{}, fmt.Errorf("%w: not a JSON object", ErrInvalidResponse)
	}

	var w wireResponse
	if err := json.Unmarshal([]byte(cleaned), &w); err != nil {
		return domain.RawEnrichment{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	raw := domain.RawEnrichment{
		Title:    toString(w.Title),
		Summary:  toString(w.Summary),
		Category: toString(w.Category),
		Tags:     w.Tags,
	}
	if dup, ok := w.Duplicate.(map[string]any); ok {
		raw.Duplicate = domain.RawDuplicate{
			IsDuplicate: toBool(dup["isDuplicate"]),
			Confidence:  toInt(dup["confidence"], true),
			MatchNumber: toInt(dup["matchNumber"], false),
		}
	}
	return raw, nil
}

func toString(v any) string {
	s, _ := v.(string)
	return s
}

// toBool accepts JSON booleans and "true"/"false" strings; anything else is
// false, the safe verdict.
func toBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		ok, err := strconv.ParseBool(strings.TrimSpace(b))
		return err == nil && ok
	default:
		return false
	}
}

func stripFences(text string) string {
	s := strings.TrimSpace(text)
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// toInt accepts JSON numbers and numeric strings; anything else is 0, which
// the normalizer rejects. Fractions are truncated only when allowFraction is set.
func toInt(v any, allowFraction bool) int {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0
		}
		if n != math.Trunc(n) && !allowFraction {
			return 0
		}
		return int(n)
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(strings.TrimSuffix(n, "%")))
		if err != nil {
			return 0
		}
		return i
	default:
		return 0
	}
}
