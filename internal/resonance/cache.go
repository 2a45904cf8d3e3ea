package resonance

import (
	"github.com/dgraph-io/ristretto"

	"github.com/raphaelgruber/seedbloom/internal/models"
)

// encoded is a cached codec result.
type encoded struct {
	vector []float64
	tag    string
}

// encodeCache memoizes content encoding keyed by canonical content.
// Encoding is deterministic, so a miss only costs a recomputation.
type encodeCache struct {
	c *ristretto.Cache
}

func newEncodeCache(size int64) (*encodeCache, error) {
	if size <= 0 {
		return nil, nil
	}
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters:        size * 10,
		MaxCost:            size,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, err
	}
	return &encodeCache{c: c}, nil
}

func (e *encodeCache) get(key string) (encoded, bool) {
	if e == nil {
		return encoded{}, false
	}
	v, ok := e.c.Get(key)
	if !ok {
		return encoded{}, false
	}
	enc := v.(encoded)
	return encoded{vector: models.CloneVector(enc.vector), tag: enc.tag}, true
}

func (e *encodeCache) set(key string, enc encoded) {
	if e == nil {
		return
	}
	if e.c.Set(key, encoded{vector: models.CloneVector(enc.vector), tag: enc.tag}, 1) {
		e.c.Wait()
	}
}

func (e *encodeCache) close() {
	if e == nil {
		return
	}
	e.c.Close()
}
