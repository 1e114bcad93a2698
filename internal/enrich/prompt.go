package enrich

import (
	"fmt"
	"strings"

	"github.com/MrSnakeDoc/smartmark/internal/domain"
)

const promptPageLimit = 1500

type PromptInput struct {
	URL      string
	Title    string           // user-provided, optional
	Existing []domain.Summary // already capped, newest first
	Page     string           // page text preview, optional
}

// BuildPrompt asks for title, summary, category, tags and the duplicate
// verdict in one JSON object. Existing bookmarks are numbered from 1 and the
// model answers with that number.
func BuildPrompt(in PromptInput) string {
	var b strings.Builder

	b.WriteString("Analyze this bookmark and provide complete metadata in JSON format:\n\n")
	fmt.Fprintf(&b, "URL: %s\n", in.URL)
	if in.Title != "" {
		fmt.Fprintf(&b, "Provided Title: %s\n", in.Title)
	}
	if in.Page != "" {
		fmt.Fprintf(&b, "Content Preview: %s\n", truncate(in.Page, promptPageLimit))
	}

	b.WriteString("\nExisting Bookmarks (for duplicate check):\n")
	if len(in.Existing) == 0 {
		b.WriteString("None\n")
	}
	for i, s := range in.Existing {
		fmt.Fprintf(&b, "%d. %q - %s\n", i+1, s.Title, s.URL)
	}

	titleHint := "Clear, descriptive title (max 60 chars)"
	if in.Title != "" {
		titleHint += " - use provided title if good"
	}

	categories := make([]string, len(domain.Categories))
	for i, c := range domain.Categories {
		categories[i] = string(c)
	}

	b.WriteString("\nProvide a JSON response with these fields:\n")
	b.WriteString("{\n")
	fmt.Fprintf(&b, "  \"title\": %q,\n", titleHint)
	b.WriteString("  \"summary\": \"Brief 2-3 sentence summary describing what this bookmark is about\",\n")
	fmt.Fprintf(&b, "  \"category\": \"ONE of: %s\",\n", strings.Join(categories, ", "))
	b.WriteString("  \"tags\": [\"tag1\", \"tag2\", \"tag3\"],\n")
	b.WriteString("  \"duplicate\": {\n")
	b.WriteString("    \"isDuplicate\": false,\n")
	b.WriteString("    \"confidence\": 0,\n")
	b.WriteString("    \"matchNumber\": 0\n")
	b.WriteString("  }\n")
	b.WriteString("}\n\n")

	b.WriteString("Rules:\n")
	b.WriteString("- Title: Professional and readable\n")
	b.WriteString("- Summary: Informative and concise\n")
	fmt.Fprintf(&b, "- Category: Choose the BEST fit from the %d options\n", len(domain.Categories))
	fmt.Fprintf(&b, "- Tags: 3-%d relevant lowercase tags (1-2 words each)\n", domain.MaxTags)
	b.WriteString("- Duplicate: Set isDuplicate=true ONLY if this URL/page already exists in the list above (95%+ similar). ")
	b.WriteString("Include matchNumber (1-based) and confidence (0-100).\n\n")
	b.WriteString("Return ONLY the JSON object, no markdown, no code blocks, just pure JSON:")

	return b.String()
}
