package models

// Related pairs a seed id with its similarity score.
type Related struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// BloomNode is one seed reached while expanding a root.
// Parent is the seed whose neighbourhood scan found it; Level is the hop
// count from the root (root itself is never a node).
type BloomNode struct {
	ID     string  `json:"id"`
	Parent string  `json:"parent"`
	Level  int     `json:"level"`
	Score  float64 `json:"score"`
	Tag    string  `json:"tag"`
}

// BloomResult is the derived, never-persisted view produced by a bloom.
// An empty RootID means the requested seed did not exist.
type BloomResult struct {
	RootID  string      `json:"root_id,omitempty"`
	RootTag string      `json:"root_tag,omitempty"`
	Depth   int         `json:"depth"`
	Related []Related   `json:"related"`
	Nodes   []BloomNode `json:"nodes"`
	Summary string      `json:"summary,omitempty"`

	// Scans counts similarity computations performed.
	Scans int `json:"scans"`
}

// Empty reports whether the bloom found no root.
func (r BloomResult) Empty() bool {
	return r.RootID == ""
}
