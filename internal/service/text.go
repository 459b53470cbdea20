package service

import "strings"

func normalizeWhitespace(text string) string {
	if text == "" {
		return ""
	}
	return strings.Join(strings.Fields(text), " ")
}

// BuildSearchableText concatenates the embeddable fields of an artwork:
// title, description, generation prompt, and space-joined tags.
func BuildSearchableText(title, description, prompt string, tags []string) string {
	parts := []string{title, description, prompt}
	if len(tags) > 0 {
		parts = append(parts, strings.Join(tags, " "))
	}
	return normalizeWhitespace(strings.TrimSpace(strings.Join(parts, " ")))
}
