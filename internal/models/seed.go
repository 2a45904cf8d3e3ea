package models

import "time"

// Seed is the compressed unit of memory: a fixed-length vector plus the
// bookkeeping used for ranking and eviction.
type Seed struct {
	ID             string    `json:"id"`
	Vector         []float64 `json:"vector"`
	Tag            string    `json:"tag"`
	Weight         float64   `json:"weight"`
	CreatedAt      time.Time `json:"created_at"`
	LastAccessedAt time.Time `json:"last_accessed_at"`
	AccessCount    int       `json:"access_count"`

	// Seq is the insertion order within one store. Not persisted; a store
	// reassigns it from file order on load.
	Seq uint64 `json:"-"`
}

// Clone returns a deep copy so callers never alias store-owned vectors.
func (s Seed) Clone() Seed {
	s.Vector = CloneVector(s.Vector)
	return s
}

// Hit is one recall result.
type Hit struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
	Tag   string  `json:"tag"`
}
