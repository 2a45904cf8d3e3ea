package codec

import (
	"fmt"
	"sort"
	"strings"
)

// Content is the input to Encode: free text, an attribute map, or both.
type Content struct {
	Text       string
	Attributes map[string]any
}

// Text wraps plain text as Content.
func Text(s string) Content {
	return Content{Text: s}
}

// Attributes wraps an attribute map as Content.
func Attributes(attrs map[string]any) Content {
	return Content{Attributes: attrs}
}

// Canonical renders content deterministically: attributes sorted by key,
// one "key=value" per line, then the text. Used as the cache key and as the
// basis for size accounting.
func (c Content) Canonical() string {
	var b strings.Builder
	for _, k := range sortedKeys(c.Attributes) {
		fmt.Fprintf(&b, "%s=%v\n", k, c.Attributes[k])
	}
	b.WriteString(c.Text)
	return b.String()
}

// Size is the byte length of the canonical form.
func (c Content) Size() int {
	return len(c.Canonical())
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
