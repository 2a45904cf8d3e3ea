package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/raphaelgruber/seedbloom/internal/codec"
	"github.com/raphaelgruber/seedbloom/internal/metrics"
	"github.com/raphaelgruber/seedbloom/internal/models"
	"github.com/raphaelgruber/seedbloom/internal/resonance"
)

// Handler serves one operation. The returned value is encoded as the
// response result.
type Handler func(ctx context.Context, payload json.RawMessage) (any, error)

// handlerFor decodes the payload into In before calling fn. An absent
// payload leaves In at its zero value.
func handlerFor[In any](fn func(ctx context.Context, in In) (any, error)) Handler {
	return func(ctx context.Context, payload json.RawMessage) (any, error) {
		var in In
		if len(payload) > 0 && string(payload) != "null" {
			if err := json.Unmarshal(payload, &in); err != nil {
				return nil, fmt.Errorf("%w: decode payload: %v", resonance.ErrInvalidArgument, err)
			}
		}
		return fn(ctx, in)
	}
}

// StoreInput is the payload of a store request.
type StoreInput struct {
	Text       string         `json:"text,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// StoreResult is the response to a store request.
type StoreResult struct {
	ID  string `json:"id"`
	Tag string `json:"tag"`
}

func newStoreHandler(mem *resonance.Memory) Handler {
	return handlerFor(func(ctx context.Context, in StoreInput) (any, error) {
		id, err := mem.Store(codec.Content{Text: in.Text, Attributes: in.Attributes})
		if err != nil {
			return nil, err
		}
		seed, err := mem.Get(id)
		if err != nil {
			return nil, err
		}
		return StoreResult{ID: id, Tag: seed.Tag}, nil
	})
}

// RecallInput is the payload of a recall request.
type RecallInput struct {
	Query      string         `json:"query,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
	TopK       int            `json:"top_k"`
}

// RecallResult is the response to a recall request.
type RecallResult struct {
	Hits []models.Hit `json:"hits"`
}

func newRecallHandler(mem *resonance.Memory) Handler {
	return handlerFor(func(ctx context.Context, in RecallInput) (any, error) {
		hits, err := mem.Recall(codec.Content{Text: in.Query, Attributes: in.Attributes}, in.TopK)
		if err != nil {
			return nil, err
		}
		return RecallResult{Hits: hits}, nil
	})
}

// BloomInput is the payload of a bloom request.
type BloomInput struct {
	ID    string `json:"id"`
	Depth int    `json:"depth"`
}

func newBloomHandler(mem *resonance.Memory) Handler {
	return handlerFor(func(ctx context.Context, in BloomInput) (any, error) {
		return mem.Bloom(in.ID, in.Depth)
	})
}

// TickInput is the payload of a tick request. A nil Rate uses the
// configured decay rate.
type TickInput struct {
	Rate *float64 `json:"rate,omitempty"`
}

// TickResult is the response to a tick request.
type TickResult struct {
	Seeds int     `json:"seeds"`
	Rate  float64 `json:"rate"`
}

func newTickHandler(mem *resonance.Memory) Handler {
	return handlerFor(func(ctx context.Context, in TickInput) (any, error) {
		rate := mem.Config().DecayRate
		if in.Rate != nil {
			rate = *in.Rate
		}
		if err := mem.TickWithRate(rate); err != nil {
			return nil, err
		}
		return TickResult{Seeds: mem.Len(), Rate: rate}, nil
	})
}

// IDInput is the payload of requests addressing one seed.
type IDInput struct {
	ID string `json:"id"`
}

// SeedResult is the response to a get request.
type SeedResult struct {
	Seed models.Seed `json:"seed"`
	Hint string      `json:"hint"`
}

func newGetHandler(mem *resonance.Memory) Handler {
	return handlerFor(func(ctx context.Context, in IDInput) (any, error) {
		seed, err := mem.Get(in.ID)
		if err != nil {
			return nil, err
		}
		hint, err := mem.Hint(in.ID)
		if err != nil {
			return nil, err
		}
		return SeedResult{Seed: seed, Hint: hint}, nil
	})
}

// ForgetResult is the response to a forget request.
type ForgetResult struct {
	Forgotten string `json:"forgotten"`
}

func newForgetHandler(mem *resonance.Memory) Handler {
	return handlerFor(func(ctx context.Context, in IDInput) (any, error) {
		if err := mem.Forget(in.ID); err != nil {
			return nil, err
		}
		return ForgetResult{Forgotten: in.ID}, nil
	})
}

// ListInput is the payload of a list request. Limit <= 0 returns every seed.
type ListInput struct {
	Limit int `json:"limit,omitempty"`
}

// ListResult is the response to a list request.
type ListResult struct {
	Seeds []models.Seed `json:"seeds"`
	Total int           `json:"total"`
}

func newListHandler(mem *resonance.Memory) Handler {
	return handlerFor(func(ctx context.Context, in ListInput) (any, error) {
		seeds := mem.Seeds()
		total := len(seeds)
		if in.Limit > 0 && len(seeds) > in.Limit {
			seeds = seeds[:in.Limit]
		}
		return ListResult{Seeds: seeds, Total: total}, nil
	})
}

// StatsResult is the response to a stats request.
type StatsResult struct {
	Seeds      int              `json:"seeds"`
	Capacity   int              `json:"capacity"`
	Dimensions int              `json:"dimensions"`
	Metrics    metrics.Snapshot `json:"metrics"`
}

func newStatsHandler(mem *resonance.Memory) Handler {
	return handlerFor(func(ctx context.Context, _ struct{}) (any, error) {
		cfg := mem.Config()
		return StatsResult{
			Seeds:      mem.Len(),
			Capacity:   cfg.Capacity,
			Dimensions: cfg.Dimensions,
			Metrics:    mem.Stats(),
		}, nil
	})
}

// SaveResult is the response to a save request.
type SaveResult struct {
	Path  string `json:"path"`
	Seeds int    `json:"seeds"`
}

func newSaveHandler(mem *resonance.Memory, path string) Handler {
	return handlerFor(func(ctx context.Context, _ struct{}) (any, error) {
		if path == "" {
			return nil, errors.New("server has no snapshot path")
		}
		if err := mem.Save(path); err != nil {
			return nil, err
		}
		return SaveResult{Path: path, Seeds: mem.Len()}, nil
	})
}
