package resonance

import (
	"fmt"

	"github.com/raphaelgruber/seedbloom/internal/bloom"
	"github.com/raphaelgruber/seedbloom/internal/codec"
	"github.com/raphaelgruber/seedbloom/internal/similarity"
	"github.com/raphaelgruber/seedbloom/internal/store"
)

// Config holds ResonanceMemory configuration.
type Config struct {
	// Dimensions is the seed vector length N. Minimum 4.
	Dimensions int `yaml:"dimensions"`

	// Capacity is the maximum number of seeds before eviction.
	// Default: 10000
	Capacity int `yaml:"capacity"`

	// DecayRate is the weight fraction removed by each Tick [0.0-1.0].
	// Default: 0.01
	DecayRate float64 `yaml:"decay_rate"`

	// MaxBloomDepth caps bloom depth; never above 5.
	MaxBloomDepth int `yaml:"max_bloom_depth"`

	// MinSimilarity is the bloom inclusion threshold [0.0-1.0].
	// Default: 0.3
	MinSimilarity float64 `yaml:"min_similarity"`

	// DirectionWeight is the share of the score given to direction; the
	// remainder goes to magnitude.
	// Default: 0.7
	DirectionWeight float64 `yaml:"direction_weight"`

	// ReinforceDelta is added to a seed's weight whenever it is recalled
	// or bloomed.
	ReinforceDelta float64 `yaml:"reinforce_delta"`

	// MaxWeight clamps reinforcement.
	MaxWeight float64 `yaml:"max_weight"`

	// InitialWeight is given to newly stored seeds.
	InitialWeight float64 `yaml:"initial_weight"`

	// WeightFloor stops decay below this weight.
	WeightFloor float64 `yaml:"weight_floor"`

	// MaxCompressionRatio is the largest encoded-size / content-size ratio
	// a stored content is expected to reach (0.0-1.0]. Contents above it
	// are still stored but counted as under_ratio_contents.
	// Default: 0.01
	MaxCompressionRatio float64 `yaml:"max_compression_ratio"`

	// EncodeCacheSize is the number of encoded contents kept in memory.
	// 0 disables the cache.
	EncodeCacheSize int64 `yaml:"encode_cache_size"`
}

// DefaultConfig returns library defaults.
func DefaultConfig() Config {
	sc := store.DefaultConfig()
	return Config{
		Dimensions:      sc.Dim,
		Capacity:        sc.Capacity,
		DecayRate:       0.01,
		MaxBloomDepth:   bloom.MaxDepth,
		MinSimilarity:   bloom.DefaultMinSimilarity,
		DirectionWeight: similarity.DefaultWeights.Direction,
		ReinforceDelta:  sc.ReinforceDelta,
		MaxWeight:       sc.MaxWeight,
		InitialWeight:   sc.InitialWeight,
		WeightFloor:     sc.WeightFloor,
		EncodeCacheSize: 1024,

		MaxCompressionRatio: codec.DefaultMaxCompressionRatio,
	}
}

// Validate rejects configurations the components would refuse.
func (c Config) Validate() error {
	if c.Dimensions < codec.MinDimensions {
		return fmt.Errorf("%w: dimensions must be >= %d, got %d", ErrInvalidArgument, codec.MinDimensions, c.Dimensions)
	}
	if c.Capacity < 1 {
		return fmt.Errorf("%w: capacity must be positive, got %d", ErrInvalidArgument, c.Capacity)
	}
	if c.DecayRate < 0 || c.DecayRate > 1 {
		return fmt.Errorf("%w: decay rate must be in [0,1], got %v", ErrInvalidArgument, c.DecayRate)
	}
	if c.MaxBloomDepth < 1 {
		return fmt.Errorf("%w: max bloom depth must be positive, got %d", ErrInvalidArgument, c.MaxBloomDepth)
	}
	if c.MaxCompressionRatio <= 0 || c.MaxCompressionRatio > 1 {
		return fmt.Errorf("%w: max compression ratio must be in (0,1], got %v", ErrInvalidArgument, c.MaxCompressionRatio)
	}
	if c.EncodeCacheSize < 0 {
		return fmt.Errorf("%w: encode cache size must be >= 0, got %d", ErrInvalidArgument, c.EncodeCacheSize)
	}
	if err := c.weights().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	return nil
}

func (c Config) weights() similarity.Weights {
	return similarity.WeightsFromDirection(c.DirectionWeight)
}

func (c Config) storeConfig() store.Config {
	return store.Config{
		Dim:            c.Dimensions,
		Capacity:       c.Capacity,
		InitialWeight:  c.InitialWeight,
		ReinforceDelta: c.ReinforceDelta,
		MaxWeight:      c.MaxWeight,
		WeightFloor:    c.WeightFloor,
	}
}

func (c Config) bloomConfig() bloom.Config {
	return bloom.Config{MaxDepth: c.MaxBloomDepth, MinSimilarity: c.MinSimilarity}
}
