package store

import (
	"errors"
	"fmt"
)

// Sentinel errors for store operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNotFound indicates the requested seed does not exist.
	ErrNotFound = errors.New("seed not found")

	// ErrShapeMismatch indicates a vector whose length differs from the
	// store's configured dimension. The store refuses such seeds outright.
	ErrShapeMismatch = errors.New("vector shape mismatch")

	// ErrInvalidSeed indicates a seed with non-finite components or an
	// out-of-range weight.
	ErrInvalidSeed = errors.New("invalid seed")
)

func notFound(id string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

func shapeMismatch(want, got int) error {
	return fmt.Errorf("%w: want %d components, got %d", ErrShapeMismatch, want, got)
}
