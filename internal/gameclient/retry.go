package gameclient

import (
	"context"
	"time"

	"github.com/valyala/fasthttp"
)

const (
	retryBase    = 100 * time.Millisecond
	retryCeiling = 3200 * time.Millisecond
	snippetLimit = 512
)

// backoff doubles the pause after every failed attempt up to ceiling.
type backoff struct {
	attempts int
	base     time.Duration
	ceiling  time.Duration
}

// delay is the pause after the n-th failed attempt, counting from 1.
func (b backoff) delay(n int) time.Duration {
	d := b.base
	for i := 1; i < n && d < b.ceiling; i++ {
		d *= 2
	}
	return min(d, b.ceiling)
}

func (b backoff) pause(ctx context.Context, n int) error {
	t := time.NewTimer(b.delay(n))
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// requestDeadline is the earlier of the context deadline and now+timeout.
func requestDeadline(ctx context.Context, timeout time.Duration) time.Time {
	own := time.Now().Add(timeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(own) {
		return dl
	}
	return own
}

// retryableStatus lists the gateway-side failures the game server recovers from.
func retryableStatus(code int) bool {
	switch code {
	case fasthttp.StatusInternalServerError,
		fasthttp.StatusBadGateway,
		fasthttp.StatusServiceUnavailable,
		fasthttp.StatusGatewayTimeout:
		return true
	}
	return false
}

func bodySnippet(body []byte) string {
	if len(body) > snippetLimit {
		body = body[:snippetLimit]
	}
	return string(body)
}
