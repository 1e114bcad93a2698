package domain

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"
)

// Normalizer turns a RawEnrichment into an EnrichmentResult.
//
// Rules are applied in order: title, summary, category, tags, duplicate.
// Nothing the model says can produce a value outside the fixed domains.
type Normalizer struct {
	// MinConfidence is the inclusive threshold for accepting a model
	// reported duplicate. Zero means DefaultMinDuplicateConfidence.
	MinConfidence int
}

// Normalize validates raw for the bookmark at u.
// providedTitle is what the user typed (possibly empty) and existing is the
// exact list that was numbered in the prompt.
func (n Normalizer) Normalize(raw RawEnrichment, u *url.URL, providedTitle string, existing []Summary) EnrichmentResult {
	return EnrichmentResult{
		Title:     ResolveTitle(providedTitle, raw.Title, u),
		Summary:   strings.TrimSpace(raw.Summary),
		Category:  ParseCategory(raw.Category),
		Tags:      NormalizeTags(raw.Tags),
		Duplicate: n.ResolveDuplicate(raw.Duplicate, existing),
	}
}

// ResolveTitle prefers the user's title verbatim, then the model's, then
// the hostname. The result is cut to MaxTitleLength characters.
func ResolveTitle(provided, model string, u *url.URL) string {
	title := provided
	if title == "" {
		title = strings.TrimSpace(model)
	}
	if title == "" && u != nil {
		title = u.Hostname()
	}
	return truncateRunes(title, MaxTitleLength)
}

// NormalizeTags accepts only a sequence. Each entry is lowercased and
// trimmed; empty, non-string and over-long entries are dropped and at most
// MaxTags survive.
func NormalizeTags(raw any) []string {
	tags := make([]string, 0, MaxTags)

	var items []any
	switch v := raw.(type) {
	case []any:
		items = v
	case []string:
		items = make([]any, len(v))
		for i, s := range v {
			items[i] = s
		}
	default:
		return tags
	}

	for _, item := range items {
		if len(tags) == MaxTags {
			break
		}
		s, ok := item.(string)
		if !ok {
			continue
		}
		tag := strings.ToLower(strings.TrimSpace(s))
		if tag == "" || utf8.RuneCountInString(tag) >= MaxTagLength {
			continue
		}
		tags = append(tags, tag)
	}
	return tags
}

// ResolveDuplicate accepts the model's verdict only when it says duplicate,
// points at a real entry of existing and is at least MinConfidence sure.
// Everything else is treated as not a duplicate.
func (n Normalizer) ResolveDuplicate(raw RawDuplicate, existing []Summary) DuplicateVerdict {
	threshold := n.MinConfidence
	if threshold <= 0 {
		threshold = DefaultMinDuplicateConfidence
	}

	if !raw.IsDuplicate {
		return DuplicateVerdict{}
	}
	idx := raw.MatchNumber - 1
	if idx < 0 || idx >= len(existing) {
		return DuplicateVerdict{}
	}
	if raw.Confidence < threshold || raw.Confidence > ExactMatchConfidence {
		return DuplicateVerdict{}
	}

	return DuplicateVerdict{
		IsDuplicate: true,
		MatchID:     existing[idx].ID,
		Confidence:  raw.Confidence,
	}
}

// Fallback builds the deterministic stand-in used whenever the model call
// fails: hostname based title, summary and tag, category Other and no
// duplicate.
func Fallback(u *url.URL, providedTitle string) RawEnrichment {
	title := providedTitle
	if title == "" {
		title = HostLabel(u)
	}

	var tags []any
	if label := firstLabel(u); label != "" {
		tags = []any{label}
	}

	return RawEnrichment{
		Title:    title,
		Summary:  fmt.Sprintf("Saved from %s", BareHost(u)),
		Category: string(CategoryOther),
		Tags:     tags,
	}
}
