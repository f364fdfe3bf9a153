package cache

import (
	"testing"
	"time"

	"github.com/smallbiznis/roi/internal/clock"
	"github.com/stretchr/testify/assert"
)

func TestTTLCacheExpiry(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	c := NewTTLCacheWithClock[string, int](clk.Now)

	c.Set("a", 1, time.Minute)
	c.Set("b", 2, 0)

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	clk.Advance(2 * time.Minute)
	_, ok = c.Get("a")
	assert.False(t, ok)

	v, ok = c.Get("b")
	assert.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestTTLCacheUpdateAndSweep(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	c := NewTTLCacheWithClock[string, int](clk.Now)

	c.Set("keep", 1, time.Hour)
	c.Set("drop", 5, time.Hour)
	c.Set("old", 1, time.Second)

	assert.True(t, c.Update("keep", func(v int) int { return v + 1 }))
	assert.False(t, c.Update("missing", func(v int) int { return v }))

	clk.Advance(time.Minute)
	removed := c.Sweep(func(v int) bool { return v >= 5 })

	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, c.Len())
	v, ok := c.Get("keep")
	assert.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestNilCacheIsSafe(t *testing.T) {
	var c *TTLCache[string, int]
	_, ok := c.Get("x")
	assert.False(t, ok)
	c.Set("x", 1, time.Second)
	c.Delete("x")
	assert.Equal(t, 0, c.Sweep(nil))
}

func TestTTLCacheGetOrSet(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	c := NewTTLCacheWithClock[string, int](clk.Now)

	calls := 0
	create := func() int {
		calls++
		return calls
	}

	assert.Equal(t, 1, c.GetOrSet("k", create, time.Minute))
	assert.Equal(t, 1, c.GetOrSet("k", create, time.Minute))

	clk.Advance(2 * time.Minute)
	assert.Equal(t, 2, c.GetOrSet("k", create, time.Minute))
	assert.Equal(t, 2, calls)
}
