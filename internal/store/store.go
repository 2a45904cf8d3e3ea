// Package store owns the collection of seeds and enforces capacity.
//
// A Store is not safe for concurrent use. The resonance facade serializes
// every call behind one mutex.
package store

import (
	"fmt"
	"io"
	"iter"
	"log/slog"
	"math"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/raphaelgruber/seedbloom/internal/models"
)

// Config holds store limits and weight dynamics.
type Config struct {
	// Dim is the vector length every seed must have.
	Dim int

	// Capacity is the maximum number of seeds held at once.
	Capacity int

	// InitialWeight is assigned to new seeds that arrive with zero weight.
	InitialWeight float64

	// ReinforceDelta is added to a seed's weight on each Touch.
	ReinforceDelta float64

	// MaxWeight clamps reinforcement.
	MaxWeight float64

	// WeightFloor stops decay from pushing weights below it.
	// Seeds already below the floor are left as they are.
	WeightFloor float64
}

// DefaultConfig returns defaults for an 8-dimensional store.
func DefaultConfig() Config {
	return Config{
		Dim:            8,
		Capacity:       10000,
		InitialWeight:  0.5,
		ReinforceDelta: 0.05,
		MaxWeight:      1.0,
		WeightFloor:    0,
	}
}

// Validate rejects unusable limits.
func (c Config) Validate() error {
	if c.Dim < 1 {
		return fmt.Errorf("dim must be positive, got %d", c.Dim)
	}
	if c.Capacity < 1 {
		return fmt.Errorf("capacity must be positive, got %d", c.Capacity)
	}
	if c.ReinforceDelta <= 0 {
		return fmt.Errorf("reinforce delta must be positive, got %v", c.ReinforceDelta)
	}
	if c.MaxWeight <= 0 || c.InitialWeight < 0 || c.InitialWeight > c.MaxWeight {
		return fmt.Errorf("weights out of range: initial=%v max=%v", c.InitialWeight, c.MaxWeight)
	}
	if c.WeightFloor < 0 || c.WeightFloor > c.MaxWeight {
		return fmt.Errorf("weight floor out of range: %v", c.WeightFloor)
	}
	return nil
}

// Store is an insertion-ordered keyed collection of seeds.
type Store struct {
	cfg    Config
	seeds  map[string]*models.Seed
	order  []string // insertion order, oldest first
	seq    uint64
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates an empty store.
func New(cfg Config, opts ...Option) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Store{
		cfg:    cfg,
		seeds:  make(map[string]*models.Seed),
		now:    time.Now,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Dim returns the configured vector length.
func (s *Store) Dim() int { return s.cfg.Dim }

// Capacity returns the configured maximum seed count.
func (s *Store) Capacity() int { return s.cfg.Capacity }

// Len returns the number of seeds held.
func (s *Store) Len() int { return len(s.order) }

// Put inserts seed, or updates vector and tag if its ID already exists.
// New seeds get an ID, timestamps and InitialWeight where unset. If the
// insert pushes the store over capacity, the lowest-weight seed is evicted
// before Put returns; its ID is reported as evicted. evicted equals id when
// the new seed was itself the weakest. Vectors are scaled to
// models.MaxNorm on both paths.
func (s *Store) Put(seed models.Seed) (id string, evicted string, err error) {
	if len(seed.Vector) != s.cfg.Dim {
		return "", "", shapeMismatch(s.cfg.Dim, len(seed.Vector))
	}
	if !models.Finite(seed.Vector) || math.IsNaN(seed.Weight) || seed.Weight < 0 {
		return "", "", fmt.Errorf("%w: %s", ErrInvalidSeed, seed.Tag)
	}

	if existing, ok := s.seeds[seed.ID]; ok && seed.ID != "" {
		existing.Vector = models.Normalize(models.CloneVector(seed.Vector))
		existing.Tag = seed.Tag
		existing.LastAccessedAt = s.now()
		return existing.ID, "", nil
	}

	now := s.now()
	stored := seed.Clone()
	models.Normalize(stored.Vector)
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	if stored.Weight == 0 {
		stored.Weight = s.cfg.InitialWeight
	}
	stored.Weight = math.Min(stored.Weight, s.cfg.MaxWeight)
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	if stored.LastAccessedAt.IsZero() {
		stored.LastAccessedAt = stored.CreatedAt
	}
	s.seq++
	stored.Seq = s.seq

	s.seeds[stored.ID] = &stored
	s.order = append(s.order, stored.ID)

	if len(s.order) > s.cfg.Capacity {
		evicted = s.evictOne()
	}
	if len(s.order) > s.cfg.Capacity {
		panic(fmt.Sprintf("store: capacity invariant violated: %d > %d", len(s.order), s.cfg.Capacity))
	}
	return stored.ID, evicted, nil
}

// evictOne removes the lowest-weight seed. Ties go to the oldest
// LastAccessedAt, then to the earliest insertion.
func (s *Store) evictOne() string {
	var victim *models.Seed
	for _, id := range s.order {
		c := s.seeds[id]
		if victim == nil || evictsBefore(c, victim) {
			victim = c
		}
	}
	s.remove(victim.ID)
	s.logger.Debug("seed evicted",
		"id", victim.ID,
		"tag", victim.Tag,
		"weight", victim.Weight,
	)
	return victim.ID
}

func evictsBefore(a, b *models.Seed) bool {
	if a.Weight != b.Weight {
		return a.Weight < b.Weight
	}
	if !a.LastAccessedAt.Equal(b.LastAccessedAt) {
		return a.LastAccessedAt.Before(b.LastAccessedAt)
	}
	return a.Seq < b.Seq
}

// Get returns a copy of the seed with the given ID.
func (s *Store) Get(id string) (models.Seed, error) {
	seed, ok := s.seeds[id]
	if !ok {
		return models.Seed{}, notFound(id)
	}
	return seed.Clone(), nil
}

// Touch records an access: bumps the access count, reinforces weight up to
// MaxWeight and refreshes LastAccessedAt.
func (s *Store) Touch(id string) error {
	seed, ok := s.seeds[id]
	if !ok {
		return notFound(id)
	}
	seed.AccessCount++
	seed.Weight = math.Min(seed.Weight+s.cfg.ReinforceDelta, s.cfg.MaxWeight)
	seed.LastAccessedAt = s.now()
	return nil
}

// DecayAll multiplies every weight by (1 - rate), never going below
// WeightFloor for seeds that started above it.
func (s *Store) DecayAll(rate float64) error {
	if math.IsNaN(rate) || rate < 0 || rate > 1 {
		return fmt.Errorf("decay rate must be in [0,1], got %v", rate)
	}
	factor := 1 - rate
	for _, id := range s.order {
		seed := s.seeds[id]
		if seed.Weight <= s.cfg.WeightFloor {
			continue
		}
		seed.Weight = math.Max(seed.Weight*factor, s.cfg.WeightFloor)
	}
	return nil
}

// Remove deletes a seed explicitly.
func (s *Store) Remove(id string) error {
	if _, ok := s.seeds[id]; !ok {
		return notFound(id)
	}
	s.remove(id)
	return nil
}

func (s *Store) remove(id string) {
	delete(s.seeds, id)
	if i := slices.Index(s.order, id); i >= 0 {
		s.order = slices.Delete(s.order, i, i+1)
	}
}

// All yields copies of every seed in insertion order. The sequence can be
// ranged over repeatedly; each pass reflects the store at that moment.
// The store must not be mutated during iteration.
func (s *Store) All() iter.Seq[models.Seed] {
	return func(yield func(models.Seed) bool) {
		for _, id := range s.order {
			if !yield(s.seeds[id].Clone()) {
				return
			}
		}
	}
}

// Replace swaps the whole content for seeds, in the given order. Nothing
// changes if any seed is invalid or the set exceeds capacity.
func (s *Store) Replace(seeds []models.Seed) error {
	if len(seeds) > s.cfg.Capacity {
		return fmt.Errorf("snapshot holds %d seeds, capacity is %d", len(seeds), s.cfg.Capacity)
	}
	next := make(map[string]*models.Seed, len(seeds))
	order := make([]string, 0, len(seeds))
	for i, seed := range seeds {
		if len(seed.Vector) != s.cfg.Dim {
			return fmt.Errorf("seed %d: %w", i, shapeMismatch(s.cfg.Dim, len(seed.Vector)))
		}
		if seed.ID == "" || !models.Finite(seed.Vector) {
			return fmt.Errorf("%w: record %d", ErrInvalidSeed, i)
		}
		if _, dup := next[seed.ID]; dup {
			return fmt.Errorf("%w: duplicate id %s", ErrInvalidSeed, seed.ID)
		}
		c := seed.Clone()
		models.Normalize(c.Vector)
		c.Seq = uint64(i + 1)
		next[c.ID] = &c
		order = append(order, c.ID)
	}
	s.seeds = next
	s.order = order
	s.seq = uint64(len(order))
	return nil
}
