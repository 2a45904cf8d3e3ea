package client_test

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/seedbloom/internal/client"
	"github.com/raphaelgruber/seedbloom/internal/resonance"
	"github.com/raphaelgruber/seedbloom/internal/server"
)

func setup(t *testing.T) (*client.Client, *resonance.Memory) {
	t.Helper()
	cfg := resonance.DefaultConfig()
	cfg.Capacity = 10
	mem, err := resonance.New(cfg)
	require.NoError(t, err)
	t.Cleanup(mem.Close)

	srv := server.New(mem, server.Config{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, err := client.Dial(ctx, ts.URL+"/ws")
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, mem
}

func TestClient_RoundTrip(t *testing.T) {
	c, mem := setup(t)
	ctx := context.Background()

	apple, err := c.Store(ctx, "apple orchard", nil)
	require.NoError(t, err)
	assert.Equal(t, "apple orchard", apple.Tag)

	_, err = c.Store(ctx, "", map[string]any{"name": "pear", "color": "green"})
	require.NoError(t, err)
	assert.Equal(t, 2, mem.Len())

	hits, err := c.Recall(ctx, "apple orchard", 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, apple.ID, hits[0].ID)
	assert.Equal(t, 1.0, hits[0].Score)

	got, err := c.Get(ctx, apple.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Seed.AccessCount)

	res, err := c.Bloom(ctx, apple.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, apple.ID, res.RootID)
	assert.NotEmpty(t, res.Summary)

	rate := 0.5
	tick, err := c.Tick(ctx, &rate)
	require.NoError(t, err)
	assert.Equal(t, 2, tick.Seeds)

	list, err := c.List(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, list.Total)

	require.NoError(t, c.Forget(ctx, apple.ID))
	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Seeds)
	assert.Equal(t, 10, stats.Capacity)
}

func TestClient_RemoteErrors(t *testing.T) {
	c, _ := setup(t)
	ctx := context.Background()

	_, err := c.Get(ctx, "missing")
	assert.ErrorIs(t, err, resonance.ErrNotFound)

	_, err = c.Recall(ctx, "anything", 0)
	assert.ErrorIs(t, err, resonance.ErrInvalidArgument)

	bad := 3.0
	_, err = c.Tick(ctx, &bad)
	assert.ErrorIs(t, err, resonance.ErrInvalidArgument)

	_, err = c.Save(ctx)
	var remote *server.Error
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, server.CodeInternal, remote.Code)

	// The connection stays usable after remote errors
	_, err = c.Store(ctx, "still here", nil)
	assert.NoError(t, err)
}

func TestClient_Closed(t *testing.T) {
	c, _ := setup(t)
	require.NoError(t, c.Close())

	_, err := c.Stats(context.Background())
	assert.ErrorIs(t, err, client.ErrClosed)
}

func TestClient_CancelledContext(t *testing.T) {
	c, _ := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Stats(ctx)
	assert.Error(t, err)
}
