// Package models defines data structures for the seed-bloom memory.
package models

import (
	"math"
	"strings"
	"unicode/utf8"
)

// MaxNorm bounds the magnitude of every stored vector.
const MaxNorm = 1.0

// Normalize scales v in place so its norm does not exceed MaxNorm.
func Normalize(v []float64) []float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	norm := math.Sqrt(sum)
	if norm <= MaxNorm || norm == 0 {
		return v
	}
	scale := MaxNorm / norm
	for i := range v {
		v[i] *= scale
	}
	return v
}

// CloneVector copies a vector. Returns nil for nil input.
func CloneVector(v []float64) []float64 {
	if v == nil {
		return nil
	}
	out := make([]float64, len(v))
	copy(out, v)
	return out
}

// Finite reports whether every component is a real number.
func Finite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// ShortID returns the first 8 characters of an id for display.
func ShortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

// Truncate shortens s to at most maxRunes runes, appending "..." when cut.
func Truncate(s string, maxRunes int) string {
	s = strings.TrimSpace(s)
	if maxRunes <= 0 || utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:maxRunes])) + "..."
}
