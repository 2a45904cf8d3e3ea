package store

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"

	"github.com/raphaelgruber/seedbloom/internal/models"
)

// SnapshotVersion is the current snapshot format version.
const SnapshotVersion = 1

// snapshotHeader is the first line of a snapshot file.
type snapshotHeader struct {
	Version int `json:"version"`
	Dim     int `json:"dim"`
	Count   int `json:"count"`
}

// WriteSnapshot writes seeds as line-delimited JSON: one header line, then
// one record per seed (id, vector, tag, weight, created_at,
// last_accessed_at, access_count).
func WriteSnapshot(w io.Writer, dim int, count int, seeds iter.Seq[models.Seed]) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)

	if err := enc.Encode(snapshotHeader{Version: SnapshotVersion, Dim: dim, Count: count}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	written := 0
	for seed := range seeds {
		if err := enc.Encode(seed); err != nil {
			return fmt.Errorf("write seed %s: %w", seed.ID, err)
		}
		written++
	}
	if written != count {
		return fmt.Errorf("snapshot count mismatch: header %d, wrote %d", count, written)
	}
	return bw.Flush()
}

// ReadSnapshot reads a snapshot written by WriteSnapshot. A dimension other
// than dim, in the header or in any record, fails with ErrShapeMismatch.
func ReadSnapshot(r io.Reader, dim int) ([]models.Seed, error) {
	dec := json.NewDecoder(bufio.NewReader(r))

	var hdr snapshotHeader
	if err := dec.Decode(&hdr); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if hdr.Version != SnapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", hdr.Version)
	}
	if hdr.Dim != dim {
		return nil, fmt.Errorf("snapshot header: %w", shapeMismatch(dim, hdr.Dim))
	}

	seeds := make([]models.Seed, 0, hdr.Count)
	for {
		var seed models.Seed
		err := dec.Decode(&seed)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read seed %d: %w", len(seeds), err)
		}
		if len(seed.Vector) != dim {
			return nil, fmt.Errorf("seed %s: %w", seed.ID, shapeMismatch(dim, len(seed.Vector)))
		}
		seeds = append(seeds, seed)
	}
	if len(seeds) != hdr.Count {
		return nil, fmt.Errorf("snapshot truncated: header %d, read %d", hdr.Count, len(seeds))
	}
	return seeds, nil
}

// SaveFile writes the store to path via a temporary file and rename, so a
// failed save never leaves a partial snapshot behind.
func (s *Store) SaveFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".seedbloom-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := WriteSnapshot(tmp, s.cfg.Dim, s.Len(), s.All()); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename snapshot: %w", err)
	}
	return nil
}

// LoadFile replaces the store's content with the snapshot at path. On any
// error the current content is left untouched.
func (s *Store) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	seeds, err := ReadSnapshot(f, s.cfg.Dim)
	if err != nil {
		return err
	}
	return s.Replace(seeds)
}
