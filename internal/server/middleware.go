package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// maxArgLogLen is the maximum length for logged payloads before truncation.
const maxArgLogLen = 200

// slowRequestThreshold is the duration above which requests are logged at WARN level.
const slowRequestThreshold = 100 * time.Millisecond

// logRequests wraps next with timing logs. Slow requests (>100ms) are
// logged at WARN level; payloads are truncated to 200 characters.
func logRequests(logger *slog.Logger, op string, next Handler) Handler {
	return func(ctx context.Context, payload json.RawMessage) (any, error) {
		start := time.Now()

		result, err := next(ctx, payload)

		duration := time.Since(start)
		attrs := []any{
			"op", op,
			"duration_ms", duration.Milliseconds(),
		}
		if len(payload) > 0 {
			attrs = append(attrs, "payload", truncate(string(payload), maxArgLogLen))
		}

		if err != nil {
			attrs = append(attrs, "error", err.Error())
			logger.Warn("request failed", attrs...)
		} else if duration > slowRequestThreshold {
			logger.Warn("slow request", attrs...)
		} else {
			logger.Debug("request completed", attrs...)
		}

		return result, err
	}
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen < 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
