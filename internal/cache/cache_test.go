package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	now := time.Now()
	c.now = func() time.Time { return now }

	require.NoError(t, c.SetJSON(ctx, InterviewKey("a"), map[string]int{"n": 1}, time.Minute))

	var got map[string]int
	hit, err := c.GetJSON(ctx, "interview:a", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, got["n"])

	now = now.Add(2 * time.Minute)
	hit, _ = c.GetJSON(ctx, "interview:a", &got)
	assert.False(t, hit)
}

func TestMemoryCacheDel(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	require.NoError(t, c.SetJSON(ctx, "k", "v", 0))
	require.NoError(t, c.Del(ctx, "k", "missing"))

	var s string
	hit, _ := c.GetJSON(ctx, "k", &s)
	assert.False(t, hit)
}
