// Package codec compresses content into fixed-length seed vectors.
//
// Vector layout (N >= 4, every component in [-1, 1]):
//
//	0  energy     log-scaled content length
//	1  frequency  hash of the sorted token set
//	2  polarity   lexicon sentiment, (pos-neg)/(pos+neg+1)
//	3  diversity  unique/total token ratio
//	4+ buckets    signed hashed bag-of-tokens, tanh-squashed
//
// Every channel is a function of the token multiset, so word order and
// attribute order do not affect the result. Empty or token-free content
// encodes to the neutral vector (all zeros, the midpoint of the range).
package codec

import (
	"fmt"
	"math"
	"sort"

	"github.com/cespare/xxhash/v2"

	"github.com/raphaelgruber/seedbloom/internal/models"
	"github.com/raphaelgruber/seedbloom/internal/parser"
)

// MinDimensions is the smallest supported vector length.
const MinDimensions = 4

// Channel indexes.
const (
	ChannelEnergy = iota
	ChannelFrequency
	ChannelPolarity
	ChannelDiversity
)

const (
	// MaxNorm bounds the vector magnitude after encoding.
	MaxNorm = models.MaxNorm

	// DefaultMaxCompressionRatio is the encoded-size / content-size ratio
	// large contents are expected to stay under.
	DefaultMaxCompressionRatio = 0.01

	bytesPerComponent = 8
	tagMaxWords       = 6
	tagMaxRunes       = 48
	emptyTag          = "(empty)"
)

// Codec encodes content into vectors of a fixed dimension.
type Codec struct {
	dim int
}

// New creates a codec producing dim-component vectors.
func New(dim int) (*Codec, error) {
	if dim < MinDimensions {
		return nil, fmt.Errorf("dimensions must be >= %d, got %d", MinDimensions, dim)
	}
	return &Codec{dim: dim}, nil
}

// Dim returns the vector length.
func (c *Codec) Dim() int {
	return c.dim
}

// Neutral returns the vector used for degenerate input.
func (c *Codec) Neutral() []float64 {
	return make([]float64, c.dim)
}

// Encode compresses content into a vector and a short tag. Deterministic.
func (c *Codec) Encode(content Content) ([]float64, string) {
	tokens := contentTokens(content)
	tag := deriveTag(content)
	if len(tokens) == 0 {
		return c.Neutral(), tag
	}

	vec := make([]float64, c.dim)
	vec[ChannelEnergy] = energy(len([]rune(content.Canonical())))
	vec[ChannelFrequency] = frequency(tokens)
	vec[ChannelPolarity] = polarity(tokens)
	vec[ChannelDiversity] = diversity(tokens)
	c.fillBuckets(vec, tokens)

	return models.Normalize(vec), tag
}

// fillBuckets projects tokens into the trailing channels.
func (c *Codec) fillBuckets(vec []float64, tokens []string) {
	n := c.dim - MinDimensions
	if n == 0 {
		return
	}
	acc := make([]float64, n)
	for _, tok := range tokens {
		h := xxhash.Sum64String(tok)
		sign := 1.0
		if h&(1<<32) != 0 {
			sign = -1.0
		}
		acc[h%uint64(n)] += sign
	}
	for i, a := range acc {
		vec[MinDimensions+i] = math.Tanh(a / 2)
	}
}

// EncodedSize is the serialized size of one vector in bytes.
func EncodedSize(dim int) int {
	return dim * bytesPerComponent
}

// MinCompressibleSize is the smallest content size in bytes whose
// compression ratio at dim is at most ratio.
func MinCompressibleSize(dim int, ratio float64) int {
	return int(math.Ceil(float64(EncodedSize(dim)) / ratio))
}

// CompressionRatio is encoded vector size over content size.
// Returns +Inf for empty content.
func CompressionRatio(content Content, dim int) float64 {
	size := content.Size()
	if size == 0 {
		return math.Inf(1)
	}
	return float64(EncodedSize(dim)) / float64(size)
}

func contentTokens(content Content) []string {
	tokens := parser.Tokenize(content.Text)
	for _, k := range sortedKeys(content.Attributes) {
		tokens = append(tokens, parser.Tokenize(k)...)
		tokens = append(tokens, parser.Tokenize(fmt.Sprint(content.Attributes[k]))...)
	}
	return tokens
}

func deriveTag(content Content) string {
	if t := parser.AttributeString(content.Attributes, "title"); t != "" {
		return models.Truncate(t, tagMaxRunes)
	}
	if t := parser.AttributeString(content.Attributes, "name"); t != "" {
		return models.Truncate(t, tagMaxRunes)
	}
	if phrase := parser.KeyPhrase(content.Text, tagMaxWords); phrase != "" {
		return models.Truncate(phrase, tagMaxRunes)
	}
	if len(content.Attributes) > 0 {
		return models.Truncate(content.Canonical(), tagMaxRunes)
	}
	return emptyTag
}

// energy maps length 0..inf onto -1..1 logarithmically.
func energy(length int) float64 {
	return 2*math.Tanh(math.Log1p(float64(length))/6) - 1
}

// frequency hashes the sorted unique token set onto -1..1.
func frequency(tokens []string) float64 {
	uniq := uniqueSorted(tokens)
	h := xxhash.New()
	for _, tok := range uniq {
		_, _ = h.WriteString(tok)
		_, _ = h.WriteString("\x00")
	}
	return float64(h.Sum64())/math.MaxUint64*2 - 1
}

func polarity(tokens []string) float64 {
	var pos, neg float64
	for _, tok := range tokens {
		switch {
		case positiveWords[tok]:
			pos++
		case negativeWords[tok]:
			neg++
		}
	}
	return (pos - neg) / (pos + neg + 1)
}

func diversity(tokens []string) float64 {
	ratio := float64(len(uniqueSorted(tokens))) / float64(len(tokens))
	return 2*ratio - 1
}

func uniqueSorted(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	sort.Strings(out)
	return out
}
