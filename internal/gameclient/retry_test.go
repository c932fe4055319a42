package gameclient

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoffDelay(t *testing.T) {
	b := backoff{attempts: 8, base: retryBase, ceiling: retryCeiling}
	want := []time.Duration{100, 200, 400, 800, 1600, 3200, 3200}
	for i, w := range want {
		assert.Equal(t, w*time.Millisecond, b.delay(i+1), "attempt %d", i+1)
	}
	assert.Equal(t, retryBase, b.delay(0))
}

func TestBackoffPauseHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b := backoff{base: time.Hour, ceiling: time.Hour}
	require.ErrorIs(t, b.pause(ctx, 1), context.Canceled)
}

func TestRequestDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	dl, _ := ctx.Deadline()
	assert.Equal(t, dl, requestDeadline(ctx, time.Minute))

	got := requestDeadline(context.Background(), time.Minute)
	assert.WithinDuration(t, time.Now().Add(time.Minute), got, time.Second)
}

func TestRetryableStatus(t *testing.T) {
	for _, code := range []int{500, 502, 503, 504} {
		assert.True(t, retryableStatus(code), code)
	}
	for _, code := range []int{400, 404, 409, 501} {
		assert.False(t, retryableStatus(code), code)
	}
}

func TestBodySnippet(t *testing.T) {
	assert.Equal(t, "short", bodySnippet([]byte("short")))
	assert.Len(t, bodySnippet([]byte(strings.Repeat("x", 2000))), snippetLimit)
}
