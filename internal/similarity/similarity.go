// Package similarity scores resonance between seed vectors.
//
// score = Direction*dir + Magnitude*mag, where
//
//	dir = g*max(0, cosine(a, b)) + (1-g)*near
//	mag = 1 - |‖a‖-‖b‖| / max(‖a‖, ‖b‖, OriginRadius)
//
// g = min(1, ‖a‖/OriginRadius) * min(1, ‖b‖/OriginRadius) and
// near = 1 - min(1, ‖a-b‖/OriginRadius). Outside OriginRadius this is plain
// cosine plus relative norm difference. Inside it the undefined direction of
// a near-zero vector fades into distance, so the score has no jump at the
// zero vector (the codec's neutral seed).
//
// Identical vectors score exactly 1.0 and nothing else does. The result is
// symmetric and clamped to [0, 1].
package similarity

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/raphaelgruber/seedbloom/internal/models"
)

// ErrInvalidVector reports an empty, non-finite or mismatched vector.
var ErrInvalidVector = errors.New("invalid vector")

// Weights splits the score between direction and magnitude terms.
type Weights struct {
	Direction float64 `yaml:"direction"`
	Magnitude float64 `yaml:"magnitude"`
}

// DefaultWeights is the 70% direction / 30% magnitude split.
var DefaultWeights = Weights{Direction: 0.7, Magnitude: 0.3}

// WeightsFromDirection builds weights from the direction share alone.
func WeightsFromDirection(direction float64) Weights {
	return Weights{Direction: direction, Magnitude: 1 - direction}
}

// Validate checks that both terms are in [0,1] and sum to 1.
func (w Weights) Validate() error {
	if w.Direction < 0 || w.Magnitude < 0 || w.Direction > 1 || w.Magnitude > 1 {
		return fmt.Errorf("weights must be in [0,1]: direction=%v magnitude=%v", w.Direction, w.Magnitude)
	}
	if math.Abs(w.Direction+w.Magnitude-1) > 1e-9 {
		return fmt.Errorf("weights must sum to 1: direction=%v magnitude=%v", w.Direction, w.Magnitude)
	}
	return nil
}

// Engine computes scores with a fixed weighting.
type Engine struct {
	weights Weights
}

// NewEngine creates an engine. Invalid weights are rejected.
func NewEngine(w Weights) (*Engine, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &Engine{weights: w}, nil
}

// Weights returns the engine's weighting.
func (e *Engine) Weights() Weights {
	return e.weights
}

// OriginRadius is the norm below which a vector's direction is not trusted.
const OriginRadius = 1e-3

// belowOne is the highest score a pair of distinct vectors can get.
var belowOne = math.Nextafter(1, 0)

// Score returns the resonance of a and b in [0, 1].
func (e *Engine) Score(a, b []float64) (float64, error) {
	if err := check(a, b); err != nil {
		return 0, err
	}
	if equal(a, b) {
		return 1, nil
	}

	var dot, sa, sb, sd float64
	for i := range a {
		dot += a[i] * b[i]
		sa += a[i] * a[i]
		sb += b[i] * b[i]
		d := a[i] - b[i]
		sd += d * d
	}
	na, nb := math.Sqrt(sa), math.Sqrt(sb)

	g := math.Min(1, na/OriginRadius) * math.Min(1, nb/OriginRadius)
	var cos float64
	if denom := na * nb; denom > 0 {
		cos = math.Max(0, math.Min(1, dot/denom))
	}
	near := 1 - math.Min(1, math.Sqrt(sd)/OriginRadius)
	dir := g*cos + (1-g)*near

	mag := 1 - math.Abs(na-nb)/math.Max(math.Max(na, nb), OriginRadius)

	score := clamp(e.weights.Direction*dir + e.weights.Magnitude*mag)
	return math.Min(score, belowOne), nil
}

// Candidate is one vector to rank.
type Candidate struct {
	ID     string
	Vector []float64
}

// Rank scores candidates against query and sorts them descending. Ties keep
// the candidates' input order.
func (e *Engine) Rank(query []float64, candidates []Candidate) ([]models.Related, error) {
	ranked := make([]models.Related, 0, len(candidates))
	for _, c := range candidates {
		s, err := e.Score(query, c.Vector)
		if err != nil {
			return nil, fmt.Errorf("score %s: %w", c.ID, err)
		}
		ranked = append(ranked, models.Related{ID: c.ID, Score: s})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked, nil
}

func check(a, b []float64) error {
	if len(a) == 0 || len(b) == 0 {
		return fmt.Errorf("%w: empty", ErrInvalidVector)
	}
	if len(a) != len(b) {
		return fmt.Errorf("%w: length %d != %d", ErrInvalidVector, len(a), len(b))
	}
	if !models.Finite(a) || !models.Finite(b) {
		return fmt.Errorf("%w: non-finite component", ErrInvalidVector)
	}
	return nil
}

func equal(a, b []float64) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func clamp(x float64) float64 {
	switch {
	case x < 0:
		return 0
	case x > 1:
		return 1
	}
	return x
}
