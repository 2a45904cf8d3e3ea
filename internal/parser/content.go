// Package parser turns raw content into text and attributes for encoding.
package parser

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

// Document is raw content split into YAML frontmatter and body.
type Document struct {
	// Attributes from frontmatter (nil if none)
	Attributes map[string]any

	// Title from frontmatter title/name or first h1
	Title string

	// Body text after frontmatter
	Body string
}

var h1Regex = regexp.MustCompile(`(?m)^#\s+(.+)$`)

// ParseContent splits raw content into frontmatter attributes and body.
// Malformed frontmatter is returned as an error rather than silently dropped,
// since it would change the encoded seed.
func ParseContent(raw string) (*Document, error) {
	doc := &Document{}

	remaining := raw
	if strings.HasPrefix(raw, "---\n") {
		endIdx := strings.Index(raw[4:], "\n---")
		if endIdx >= 0 {
			fm := raw[4 : 4+endIdx]
			remaining = strings.TrimPrefix(raw[4+endIdx+4:], "\n")

			attrs := make(map[string]any)
			if err := yaml.Unmarshal([]byte(fm), &attrs); err != nil {
				return nil, fmt.Errorf("parse frontmatter: %w", err)
			}
			if len(attrs) > 0 {
				doc.Attributes = attrs
			}
		}
	}

	doc.Body = strings.TrimSpace(remaining)
	doc.Title = extractTitle(doc.Attributes, doc.Body)
	return doc, nil
}

// extractTitle gets title from attributes or first h1.
func extractTitle(attrs map[string]any, body string) string {
	if title := AttributeString(attrs, "title"); title != "" {
		return title
	}
	if name := AttributeString(attrs, "name"); name != "" {
		return name
	}
	if match := h1Regex.FindStringSubmatch(body); len(match) > 1 {
		return strings.TrimSpace(match[1])
	}
	return ""
}

// AttributeString extracts a string attribute, or "" if absent or not a string.
func AttributeString(attrs map[string]any, key string) string {
	if v, ok := attrs[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// ParseAttributePairs parses "key=value" pairs as given on a command line.
func ParseAttributePairs(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	attrs := make(map[string]any, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid attribute %q (want key=value)", p)
		}
		attrs[k] = strings.TrimSpace(v)
	}
	return attrs, nil
}

// Tokenize lowercases text and splits it into letter/digit runs.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// KeyPhrase returns the leading phrase of text: the first sentence, capped
// at maxWords words.
func KeyPhrase(text string, maxWords int) string {
	text = strings.TrimSpace(h1Regex.ReplaceAllString(text, "$1"))
	if idx := strings.IndexAny(text, ".!?\n"); idx > 0 {
		text = text[:idx]
	}
	words := strings.Fields(text)
	if maxWords > 0 && len(words) > maxWords {
		words = words[:maxWords]
	}
	return strings.Join(words, " ")
}
