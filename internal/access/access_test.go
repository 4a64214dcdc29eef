package access

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingChecker struct {
	calls atomic.Int64
	allow map[string]bool
}

func (c *countingChecker) CanView(_ context.Context, userID, _ string) (bool, error) {
	c.calls.Add(1)
	return c.allow[userID], nil
}

func TestRateLimitedPassesThrough(t *testing.T) {
	inner := &countingChecker{allow: map[string]bool{"a": true}}
	c := NewRateLimited(inner, 1000, 10)

	ok, err := c.CanView(context.Background(), "a", "r1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.CanView(context.Background(), "b", "r1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.EqualValues(t, 2, inner.calls.Load())
}

func TestRateLimitedDisabled(t *testing.T) {
	inner := &countingChecker{}
	assert.Same(t, Checker(inner), NewRateLimited(inner, 0, 0))
}

func TestRateLimitedHonoursContext(t *testing.T) {
	inner := &countingChecker{allow: map[string]bool{"a": true}}
	c := NewRateLimited(inner, 0.001, 1)

	// 第一次消耗掉桶内令牌
	_, err := c.CanView(context.Background(), "a", "r1")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ok, err := c.CanView(ctx, "a", "r1")
	assert.Error(t, err)
	assert.False(t, ok)
	assert.EqualValues(t, 1, inner.calls.Load())
}
