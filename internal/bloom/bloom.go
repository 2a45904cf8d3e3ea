// Package bloom expands a seed into a view of its related seeds.
//
// Expansion is breadth-first with a global budget of depth expansions; each
// expansion scans every unvisited seed once, so one bloom costs at most
// depth × store size similarity computations. A node at level L may pull in
// at most depth-L children, and a seed is visited at most once per call, so
// cycles in the similarity graph cannot cause repeated work.
//
// Because the budget is shared by the whole tree, the root's children use
// most of it and a bloom rarely gets past level 2. Depth therefore acts
// mostly as a breadth limit.
package bloom

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/raphaelgruber/seedbloom/internal/codec"
	"github.com/raphaelgruber/seedbloom/internal/models"
	"github.com/raphaelgruber/seedbloom/internal/similarity"
	"github.com/raphaelgruber/seedbloom/internal/store"
)

const (
	// MaxDepth is the hard cap on depth regardless of configuration.
	MaxDepth = 5

	// DefaultMinSimilarity is the score a neighbour must reach to be included.
	DefaultMinSimilarity = 0.3
)

// Config controls expansion limits.
type Config struct {
	// MaxDepth caps caller-supplied depth; clamped to the package MaxDepth.
	MaxDepth int

	// MinSimilarity is the inclusion threshold.
	MinSimilarity float64
}

// DefaultConfig returns the standard limits.
func DefaultConfig() Config {
	return Config{MaxDepth: MaxDepth, MinSimilarity: DefaultMinSimilarity}
}

// Expander blooms seeds held by a store.
type Expander struct {
	store  *store.Store
	engine *similarity.Engine
	cfg    Config
	logger *slog.Logger
}

// New creates an expander reading from st and scoring with engine.
func New(st *store.Store, engine *similarity.Engine, cfg Config, logger *slog.Logger) (*Expander, error) {
	if cfg.MaxDepth < 1 {
		return nil, fmt.Errorf("max depth must be positive, got %d", cfg.MaxDepth)
	}
	if cfg.MaxDepth > MaxDepth {
		cfg.MaxDepth = MaxDepth
	}
	if cfg.MinSimilarity < 0 || cfg.MinSimilarity > 1 {
		return nil, fmt.Errorf("min similarity must be in [0,1], got %v", cfg.MinSimilarity)
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Expander{store: st, engine: engine, cfg: cfg, logger: logger}, nil
}

// ClampDepth bounds depth to [1, MaxDepth].
func (e *Expander) ClampDepth(depth int) int {
	if depth < 1 {
		return 1
	}
	if depth > e.cfg.MaxDepth {
		return e.cfg.MaxDepth
	}
	return depth
}

type frontierItem struct {
	seed  models.Seed
	level int
}

// Bloom expands rootID. An unknown root yields an empty result and no error.
// Errors come only from invalid stored vectors.
func (e *Expander) Bloom(rootID string, depth int) (models.BloomResult, error) {
	root, err := e.store.Get(rootID)
	if err != nil {
		e.logger.Debug("bloom root not found", "id", rootID)
		return models.BloomResult{}, nil
	}

	depth = e.ClampDepth(depth)
	result := models.BloomResult{
		RootID:  root.ID,
		RootTag: root.Tag,
		Depth:   depth,
		Related: []models.Related{},
		Nodes:   []models.BloomNode{},
	}

	visited := map[string]bool{root.ID: true}
	queue := []frontierItem{{seed: root, level: 0}}
	expansions := 0

	for len(queue) > 0 && expansions < depth {
		item := queue[0]
		queue = queue[1:]

		breadth := depth - item.level
		if breadth < 1 {
			continue
		}
		expansions++

		candidates := make([]similarity.Candidate, 0, e.store.Len())
		for s := range e.store.All() {
			if !visited[s.ID] {
				candidates = append(candidates, similarity.Candidate{ID: s.ID, Vector: s.Vector})
			}
		}
		result.Scans += len(candidates)

		ranked, err := e.engine.Rank(item.seed.Vector, candidates)
		if err != nil {
			return models.BloomResult{}, fmt.Errorf("bloom %s: %w", rootID, err)
		}

		taken := 0
		for _, r := range ranked {
			if taken == breadth || r.Score < e.cfg.MinSimilarity {
				break
			}
			child, err := e.store.Get(r.ID)
			if err != nil {
				return models.BloomResult{}, fmt.Errorf("bloom %s: %w", rootID, err)
			}
			visited[r.ID] = true
			taken++

			result.Nodes = append(result.Nodes, models.BloomNode{
				ID:     r.ID,
				Parent: item.seed.ID,
				Level:  item.level + 1,
				Score:  r.Score,
				Tag:    child.Tag,
			})
			queue = append(queue, frontierItem{seed: child, level: item.level + 1})
		}
	}

	result.Related = topRelated(result.Nodes, depth)
	result.Summary = e.summarize(root, result.Nodes)

	e.logger.Debug("bloom complete",
		"root", root.ID,
		"depth", depth,
		"nodes", len(result.Nodes),
		"scans", result.Scans,
	)
	return result, nil
}

// topRelated merges nodes by score, descending, discovery order on ties.
func topRelated(nodes []models.BloomNode, limit int) []models.Related {
	related := make([]models.Related, len(nodes))
	for i, n := range nodes {
		related[i] = models.Related{ID: n.ID, Score: n.Score}
	}
	sort.SliceStable(related, func(i, j int) bool {
		return related[i].Score > related[j].Score
	})
	if len(related) > limit {
		related = related[:limit]
	}
	return related
}

// summarize joins the root tag with the related tags and describes the
// mean vector of everything reached.
func (e *Expander) summarize(root models.Seed, nodes []models.BloomNode) string {
	tags := []string{root.Tag}
	mean := models.CloneVector(root.Vector)
	for _, n := range nodes {
		tags = append(tags, n.Tag)
		seed, err := e.store.Get(n.ID)
		if err != nil {
			continue
		}
		for i, x := range seed.Vector {
			mean[i] += x
		}
	}
	for i := range mean {
		mean[i] /= float64(len(nodes) + 1)
	}
	return fmt.Sprintf("%s [%s]", strings.Join(tags, " + "), codec.DecodeHint(mean))
}
