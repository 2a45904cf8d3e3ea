// Package client provides a WebSocket client for the seedbloom server.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/raphaelgruber/seedbloom/internal/models"
	"github.com/raphaelgruber/seedbloom/internal/server"
)

// DefaultURL is used when neither an argument nor SEEDBLOOM_SERVER_URL is set.
const DefaultURL = "ws://localhost:8585/ws"

// ErrClosed is returned by calls on a closed or broken client.
var ErrClosed = errors.New("client closed")

// Client sends requests over one WebSocket connection. Calls are serialized;
// it is safe for concurrent use.
type Client struct {
	mu     sync.Mutex
	conn   *websocket.Conn
	broken bool
}

// Dial connects to the server at endpoint.
// If endpoint is empty, uses SEEDBLOOM_SERVER_URL or DefaultURL.
func Dial(ctx context.Context, endpoint string) (*Client, error) {
	if endpoint == "" {
		endpoint = os.Getenv("SEEDBLOOM_SERVER_URL")
	}
	if endpoint == "" {
		endpoint = DefaultURL
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("websocket connect: %w", err)
	}
	return &Client{conn: conn}, nil
}

// Close sends a close frame and closes the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.broken {
		return nil
	}
	c.broken = true
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return c.conn.Close()
}

// call sends one request and decodes the result into out. Cancelling ctx
// closes the connection, leaving the client unusable.
func (c *Client) call(ctx context.Context, op string, in, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.broken {
		return ErrClosed
	}

	stop := context.AfterFunc(ctx, func() { c.conn.Close() })
	defer stop()

	req := server.Request{ID: uuid.New().String(), Op: op, Payload: payload}
	if err := c.conn.WriteJSON(req); err != nil {
		return c.fail(ctx, fmt.Errorf("send %s: %w", op, err))
	}

	var resp server.Response
	if err := c.conn.ReadJSON(&resp); err != nil {
		return c.fail(ctx, fmt.Errorf("read %s response: %w", op, err))
	}
	if resp.ID != req.ID {
		return c.fail(ctx, fmt.Errorf("response id %q does not match request %q", resp.ID, req.ID))
	}
	if resp.Error != nil {
		return resp.Error
	}

	if out != nil && len(resp.Result) > 0 {
		if err := json.Unmarshal(resp.Result, out); err != nil {
			return fmt.Errorf("unmarshal %s result: %w", op, err)
		}
	}
	return nil
}

// fail marks the connection unusable. Caller must hold mu.
func (c *Client) fail(ctx context.Context, err error) error {
	c.broken = true
	c.conn.Close()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// Store compresses text and attributes into a new seed.
func (c *Client) Store(ctx context.Context, text string, attrs map[string]any) (server.StoreResult, error) {
	var res server.StoreResult
	err := c.call(ctx, server.OpStore, server.StoreInput{Text: text, Attributes: attrs}, &res)
	return res, err
}

// Recall returns the topK seeds resonating most with query.
func (c *Client) Recall(ctx context.Context, query string, topK int) ([]models.Hit, error) {
	var res server.RecallResult
	if err := c.call(ctx, server.OpRecall, server.RecallInput{Query: query, TopK: topK}, &res); err != nil {
		return nil, err
	}
	return res.Hits, nil
}

// Bloom expands a seed into its related seeds.
func (c *Client) Bloom(ctx context.Context, id string, depth int) (models.BloomResult, error) {
	var res models.BloomResult
	err := c.call(ctx, server.OpBloom, server.BloomInput{ID: id, Depth: depth}, &res)
	return res, err
}

// Tick decays every weight. A nil rate uses the server's configured rate.
func (c *Client) Tick(ctx context.Context, rate *float64) (server.TickResult, error) {
	var res server.TickResult
	err := c.call(ctx, server.OpTick, server.TickInput{Rate: rate}, &res)
	return res, err
}

// Get returns one seed and its hint.
func (c *Client) Get(ctx context.Context, id string) (server.SeedResult, error) {
	var res server.SeedResult
	err := c.call(ctx, server.OpGet, server.IDInput{ID: id}, &res)
	return res, err
}

// Forget removes one seed.
func (c *Client) Forget(ctx context.Context, id string) error {
	return c.call(ctx, server.OpForget, server.IDInput{ID: id}, nil)
}

// List returns up to limit seeds in insertion order; limit <= 0 returns all.
func (c *Client) List(ctx context.Context, limit int) (server.ListResult, error) {
	var res server.ListResult
	err := c.call(ctx, server.OpList, server.ListInput{Limit: limit}, &res)
	return res, err
}

// Stats returns memory size and server runtime metrics.
func (c *Client) Stats(ctx context.Context) (server.StatsResult, error) {
	var res server.StatsResult
	err := c.call(ctx, server.OpStats, struct{}{}, &res)
	return res, err
}

// Save asks the server to write its snapshot.
func (c *Client) Save(ctx context.Context) (server.SaveResult, error) {
	var res server.SaveResult
	err := c.call(ctx, server.OpSave, struct{}{}, &res)
	return res, err
}
