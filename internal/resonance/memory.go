// Package resonance is the public entry point of the seed-bloom memory.
//
// A Memory encodes content into seeds, recalls seeds by similarity, blooms a
// seed into its neighbourhood and decays weights on Tick. Every public
// operation holds one mutex for its whole duration, so callers never see a
// half-applied eviction or weight update. Save and Load additionally hold a
// persistence lock, taken before the main lock.
package resonance

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/raphaelgruber/seedbloom/internal/bloom"
	"github.com/raphaelgruber/seedbloom/internal/codec"
	"github.com/raphaelgruber/seedbloom/internal/metrics"
	"github.com/raphaelgruber/seedbloom/internal/models"
	"github.com/raphaelgruber/seedbloom/internal/similarity"
	"github.com/raphaelgruber/seedbloom/internal/store"
)

// Errors returned by Memory. Store-level errors are re-exported so callers
// need only this package.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = store.ErrNotFound
	ErrShapeMismatch   = store.ErrShapeMismatch

	// ErrEvictedOnInsert means the new seed was the weakest in a full
	// memory and was evicted by its own insert. The returned id is no
	// longer stored.
	ErrEvictedOnInsert = errors.New("evicted on insert")
)

// Memory orchestrates store, recall, bloom and decay.
type Memory struct {
	mu        sync.Mutex
	persistMu sync.Mutex

	cfg      Config
	codec    *codec.Codec
	engine   *similarity.Engine
	store    *store.Store
	expander *bloom.Expander
	cache    *encodeCache
	metrics  *metrics.Collector
	logger   *slog.Logger
}

type options struct {
	logger  *slog.Logger
	now     func() time.Time
	metrics *metrics.Collector
}

// Option configures a Memory.
type Option func(*options)

// WithLogger sets the logger. Default discards.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithClock overrides the time source for seed timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithMetrics shares a collector. Default creates a private one.
func WithMetrics(c *metrics.Collector) Option {
	return func(o *options) { o.metrics = c }
}

// New creates an empty Memory.
func New(cfg Config, opts ...Option) (*Memory, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if o.metrics == nil {
		o.metrics = metrics.NewCollector()
	}

	cd, err := codec.New(cfg.Dimensions)
	if err != nil {
		return nil, fmt.Errorf("create codec: %w", err)
	}
	engine, err := similarity.NewEngine(cfg.weights())
	if err != nil {
		return nil, fmt.Errorf("create similarity engine: %w", err)
	}
	st, err := store.New(cfg.storeConfig(),
		store.WithClock(o.now),
		store.WithLogger(o.logger.With("component", "store")),
	)
	if err != nil {
		return nil, fmt.Errorf("create store: %w", err)
	}
	exp, err := bloom.New(st, engine, cfg.bloomConfig(), o.logger.With("component", "bloom"))
	if err != nil {
		return nil, fmt.Errorf("create bloom expander: %w", err)
	}
	cache, err := newEncodeCache(cfg.EncodeCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create encode cache: %w", err)
	}

	return &Memory{
		cfg:      cfg,
		codec:    cd,
		engine:   engine,
		store:    st,
		expander: exp,
		cache:    cache,
		metrics:  o.metrics,
		logger:   o.logger,
	}, nil
}

// Close releases the encode cache. The Memory must not be used afterwards.
func (m *Memory) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache.close()
	m.cache = nil
}

// Config returns the active configuration.
func (m *Memory) Config() Config {
	return m.cfg
}

func (m *Memory) observe(op string, start time.Time, err error) {
	m.metrics.RecordTiming(op, time.Since(start), err)
}

// encode runs the codec through the cache. Caller must hold mu.
func (m *Memory) encode(content codec.Content) ([]float64, string) {
	key := content.Canonical()
	if enc, ok := m.cache.get(key); ok {
		m.metrics.Add(metrics.CounterCacheHits, 1)
		return enc.vector, enc.tag
	}
	if m.cache != nil {
		m.metrics.Add(metrics.CounterCacheMisses, 1)
	}
	vec, tag := m.codec.Encode(content)
	m.cache.set(key, encoded{vector: vec, tag: tag})
	return vec, tag
}

// Store encodes content and adds it as a new seed.
func (m *Memory) Store(content codec.Content) (id string, err error) {
	defer func(start time.Time) { m.observe(metrics.OpStore, start, err) }(time.Now())

	m.mu.Lock()
	defer m.mu.Unlock()

	vec, tag := m.encode(content)
	id, evicted, err := m.store.Put(models.Seed{Vector: vec, Tag: tag})
	if err != nil {
		return "", fmt.Errorf("store seed: %w", err)
	}

	if ratio := codec.CompressionRatio(content, m.cfg.Dimensions); ratio > m.cfg.MaxCompressionRatio {
		m.metrics.Add(metrics.CounterUnderRatio, 1)
		m.logger.Debug("content below compression ratio", "id", id, "ratio", ratio, "max", m.cfg.MaxCompressionRatio)
	}

	if evicted != "" {
		m.metrics.Add(metrics.CounterEvictions, 1)
		m.logger.Info("seed evicted", "id", evicted, "capacity", m.store.Capacity())
	}
	if evicted == id {
		return id, fmt.Errorf("%w: %s", ErrEvictedOnInsert, id)
	}
	m.logger.Info("seed stored", "id", id, "tag", tag, "size", m.store.Len())
	return id, nil
}

// StoreText is Store for plain text.
func (m *Memory) StoreText(text string) (string, error) {
	return m.Store(codec.Text(text))
}

// Recall ranks every seed against the encoded query, reinforces the top
// topK and returns them in descending score order.
func (m *Memory) Recall(query codec.Content, topK int) (hits []models.Hit, err error) {
	defer func(start time.Time) { m.observe(metrics.OpRecall, start, err) }(time.Now())

	if topK < 1 {
		return nil, fmt.Errorf("%w: top_k must be positive, got %d", ErrInvalidArgument, topK)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	qvec, qtag := m.encode(query)

	candidates := make([]similarity.Candidate, 0, m.store.Len())
	tags := make(map[string]string, m.store.Len())
	for s := range m.store.All() {
		candidates = append(candidates, similarity.Candidate{ID: s.ID, Vector: s.Vector})
		tags[s.ID] = s.Tag
	}
	m.metrics.Add(metrics.CounterScans, int64(len(candidates)))

	ranked, err := m.engine.Rank(qvec, candidates)
	if err != nil {
		return nil, fmt.Errorf("rank: %w", err)
	}
	if len(ranked) > topK {
		ranked = ranked[:topK]
	}

	hits = make([]models.Hit, 0, len(ranked))
	for _, r := range ranked {
		if err := m.store.Touch(r.ID); err != nil {
			return nil, fmt.Errorf("reinforce %s: %w", r.ID, err)
		}
		hits = append(hits, models.Hit{ID: r.ID, Score: r.Score, Tag: tags[r.ID]})
	}

	m.logger.Debug("recall", "query", qtag, "candidates", len(candidates), "hits", len(hits))
	return hits, nil
}

// RecallText is Recall for plain text.
func (m *Memory) RecallText(query string, topK int) ([]models.Hit, error) {
	return m.Recall(codec.Text(query), topK)
}

// Bloom expands seedID into related seeds and reinforces the root. An
// unknown id yields an empty result, not an error.
func (m *Memory) Bloom(seedID string, depth int) (result models.BloomResult, err error) {
	defer func(start time.Time) { m.observe(metrics.OpBloom, start, err) }(time.Now())

	m.mu.Lock()
	defer m.mu.Unlock()

	result, err = m.expander.Bloom(seedID, depth)
	if err != nil {
		return models.BloomResult{}, err
	}
	m.metrics.Add(metrics.CounterScans, int64(result.Scans))
	if result.Empty() {
		return result, nil
	}
	if err := m.store.Touch(result.RootID); err != nil {
		return models.BloomResult{}, fmt.Errorf("reinforce %s: %w", result.RootID, err)
	}
	m.logger.Debug("bloom", "root", result.RootID, "depth", result.Depth, "nodes", len(result.Nodes))
	return result, nil
}

// Tick decays every weight by the configured rate.
func (m *Memory) Tick() error {
	return m.TickWithRate(m.cfg.DecayRate)
}

// TickWithRate decays every weight by rate, which must be in [0, 1].
func (m *Memory) TickWithRate(rate float64) (err error) {
	defer func(start time.Time) { m.observe(metrics.OpTick, start, err) }(time.Now())

	if !(rate >= 0 && rate <= 1) {
		return fmt.Errorf("%w: decay rate must be in [0,1], got %v", ErrInvalidArgument, rate)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.DecayAll(rate); err != nil {
		return fmt.Errorf("decay: %w", err)
	}
	m.logger.Debug("tick", "rate", rate, "seeds", m.store.Len())
	return nil
}

// Get returns a copy of one seed, or ErrNotFound. Does not reinforce.
func (m *Memory) Get(id string) (models.Seed, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.Get(id)
}

// Forget removes one seed.
func (m *Memory) Forget(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.Remove(id); err != nil {
		return err
	}
	m.logger.Info("seed forgotten", "id", id)
	return nil
}

// Seeds returns copies of all seeds in insertion order.
func (m *Memory) Seeds() []models.Seed {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Seed, 0, m.store.Len())
	for s := range m.store.All() {
		out = append(out, s)
	}
	return out
}

// Len returns the number of seeds held.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.Len()
}

// Hint describes a seed's vector in words.
func (m *Memory) Hint(id string) (string, error) {
	seed, err := m.Get(id)
	if err != nil {
		return "", err
	}
	return codec.DecodeHint(seed.Vector), nil
}

// Stats returns collected runtime metrics.
func (m *Memory) Stats() metrics.Snapshot {
	return m.metrics.Snapshot()
}

// Save writes every seed to path.
func (m *Memory) Save(path string) (err error) {
	defer func(start time.Time) { m.observe(metrics.OpSave, start, err) }(time.Now())

	m.persistMu.Lock()
	defer m.persistMu.Unlock()
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.SaveFile(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	m.logger.Info("snapshot saved", "path", path, "seeds", m.store.Len())
	return nil
}

// Load replaces the current seeds with those saved at path. A snapshot of a
// different dimension fails with ErrShapeMismatch and changes nothing.
func (m *Memory) Load(path string) (err error) {
	defer func(start time.Time) { m.observe(metrics.OpLoad, start, err) }(time.Now())

	m.persistMu.Lock()
	defer m.persistMu.Unlock()
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.LoadFile(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	m.logger.Info("snapshot loaded", "path", path, "seeds", m.store.Len())
	return nil
}
