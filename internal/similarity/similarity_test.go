package similarity

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(DefaultWeights)
	require.NoError(t, err)
	return e
}

func randomVector(r *rand.Rand, n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = r.Float64()*2 - 1
	}
	return v
}

func TestDefaultWeights(t *testing.T) {
	assert.Equal(t, 0.7, DefaultWeights.Direction)
	assert.Equal(t, 0.3, DefaultWeights.Magnitude)
	assert.NoError(t, DefaultWeights.Validate())
}

func TestWeightsValidate(t *testing.T) {
	tests := []struct {
		name    string
		w       Weights
		wantErr bool
	}{
		{"default", DefaultWeights, false},
		{"all direction", Weights{Direction: 1}, false},
		{"from direction", WeightsFromDirection(0.4), false},
		{"negative", Weights{Direction: -0.1, Magnitude: 1.1}, true},
		{"not summing to one", Weights{Direction: 0.5, Magnitude: 0.2}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.w.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	_, err := NewEngine(Weights{Direction: 2})
	assert.Error(t, err)
}

func TestScore_Identical(t *testing.T) {
	e := newTestEngine(t)
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		v := randomVector(r, 8)
		s, err := e.Score(v, append([]float64(nil), v...))
		require.NoError(t, err)
		assert.Equal(t, 1.0, s)
	}
}

func TestScore_SymmetricAndBounded(t *testing.T) {
	e := newTestEngine(t)
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		a, b := randomVector(r, 8), randomVector(r, 8)
		ab, err := e.Score(a, b)
		require.NoError(t, err)
		ba, err := e.Score(b, a)
		require.NoError(t, err)

		assert.Equal(t, ab, ba)
		assert.GreaterOrEqual(t, ab, 0.0)
		assert.LessOrEqual(t, ab, 1.0)
		assert.Less(t, ab, 1.0, "distinct vectors must not score 1")
	}
}

func TestScore_Degenerate(t *testing.T) {
	e := newTestEngine(t)
	zero := make([]float64, 4)

	s, err := e.Score(zero, zero)
	require.NoError(t, err)
	assert.Equal(t, 1.0, s)

	s, err = e.Score(zero, []float64{0.5, 0, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, 0.0, s)

	// Opposite directions, same magnitude: direction clamps to 0.
	s, err = e.Score([]float64{1, 0, 0, 0}, []float64{-1, 0, 0, 0})
	require.NoError(t, err)
	assert.InDelta(t, 0.3, s, 1e-12)
}

func TestScore_Continuous(t *testing.T) {
	e := newTestEngine(t)
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 100; i++ {
		a, b := randomVector(r, 8), randomVector(r, 8)
		base, err := e.Score(a, b)
		require.NoError(t, err)

		nudged := append([]float64(nil), b...)
		nudged[i%8] += 1e-7
		s, err := e.Score(a, nudged)
		require.NoError(t, err)
		assert.InDelta(t, base, s, 1e-5)
	}
}

func TestScore_ContinuousAtOrigin(t *testing.T) {
	e := newTestEngine(t)
	zero := make([]float64, 4)
	r := rand.New(rand.NewSource(11))

	for _, eps := range []float64{1e-9, 1e-12, 1e-15} {
		tiny := randomVector(r, 4)
		for i := range tiny {
			tiny[i] *= eps
		}
		s, err := e.Score(zero, tiny)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, s, 1e-5, "eps=%g", eps)

		opposite := make([]float64, 4)
		for i := range tiny {
			opposite[i] = -tiny[i]
		}
		s, err = e.Score(tiny, opposite)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, s, 1e-5, "eps=%g", eps)
	}

	// Walking a vector out from the origin never jumps.
	dir := []float64{0.6, -0.8, 0, 0}
	prev := 1.0
	for step := 1; step <= 4000; step++ {
		scale := float64(step) * 1e-6
		v := []float64{dir[0] * scale, dir[1] * scale, 0, 0}
		s, err := e.Score(zero, v)
		require.NoError(t, err)
		assert.InDelta(t, prev, s, 5e-3, "scale=%g", scale)
		prev = s
	}
	assert.Equal(t, 0.0, prev)
}

func TestScore_DistinctNeverOne(t *testing.T) {
	e := newTestEngine(t)
	tests := []struct {
		name string
		a, b []float64
	}{
		{"tiny rotation", []float64{1, 0, 0, 0}, []float64{1, 1e-9, 0, 0}},
		{"tiny scale", []float64{0.5, 0.5, 0, 0}, []float64{0.5, 0.5 + 1e-15, 0, 0}},
		{"near origin", []float64{0, 0, 0, 0}, []float64{1e-300, 0, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := e.Score(tt.a, tt.b)
			require.NoError(t, err)
			assert.Less(t, s, 1.0)
			assert.InDelta(t, 1.0, s, 1e-6)
		})
	}
}

func TestScore_ScaledVector(t *testing.T) {
	e := newTestEngine(t)
	a := []float64{0.4, 0.2, 0, 0}
	b := []float64{0.2, 0.1, 0, 0}
	s, err := e.Score(a, b)
	require.NoError(t, err)
	// Same direction, half magnitude.
	assert.InDelta(t, 0.7+0.3*0.5, s, 1e-12)
}

func TestScore_InvalidVectors(t *testing.T) {
	e := newTestEngine(t)
	tests := []struct {
		name string
		a, b []float64
	}{
		{"empty", nil, []float64{1}},
		{"both empty", []float64{}, []float64{}},
		{"length mismatch", []float64{1, 0}, []float64{1, 0, 0}},
		{"NaN", []float64{math.NaN(), 0}, []float64{1, 0}},
		{"Inf", []float64{1, 0}, []float64{math.Inf(-1), 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Score(tt.a, tt.b)
			assert.ErrorIs(t, err, ErrInvalidVector)
		})
	}
}

func TestRank_StableDescending(t *testing.T) {
	e := newTestEngine(t)
	q := []float64{1, 0, 0, 0}
	candidates := []Candidate{
		{ID: "far", Vector: []float64{0, 1, 0, 0}},
		{ID: "tie-first", Vector: []float64{0.5, 0, 0, 0}},
		{ID: "exact", Vector: []float64{1, 0, 0, 0}},
		{ID: "tie-second", Vector: []float64{0.5, 0, 0, 0}},
	}

	ranked, err := e.Rank(q, candidates)
	require.NoError(t, err)
	require.Len(t, ranked, 4)

	ids := make([]string, len(ranked))
	for i, r := range ranked {
		ids[i] = r.ID
	}
	assert.Equal(t, []string{"exact", "tie-first", "tie-second", "far"}, ids)
	assert.Equal(t, 1.0, ranked[0].Score)

	again, err := e.Rank(q, candidates)
	require.NoError(t, err)
	assert.Equal(t, ranked, again)
}

func TestRank_PropagatesInvalid(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Rank([]float64{1, 0}, []Candidate{{ID: "bad", Vector: []float64{math.NaN(), 0}}})
	assert.ErrorIs(t, err, ErrInvalidVector)
}
