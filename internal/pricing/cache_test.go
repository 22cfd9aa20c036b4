package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTTLCache_RejectsNonPositiveTTL(t *testing.T) {
	for _, ttl := range []time.Duration{0, -time.Second} {
		_, err := NewTTLCache[string, int](ttl, nil)
		assert.ErrorIs(t, err, ErrInvalidTTL)
	}
}

func TestTTLCache_Freshness(t *testing.T) {
	clock := newFakeClock()
	c, err := NewTTLCache[string, int](15*time.Minute, clock.Now)
	require.NoError(t, err)

	_, ok := c.Fresh("a")
	assert.False(t, ok)

	c.Put("a", 7, clock.Now())

	v, ok := c.Fresh("a")
	assert.True(t, ok)
	assert.Equal(t, 7, v)

	clock.Advance(15*time.Minute - time.Nanosecond)
	_, ok = c.Fresh("a")
	assert.True(t, ok)

	clock.Advance(time.Nanosecond)
	_, ok = c.Fresh("a")
	assert.False(t, ok, "entry is stale once now - fetchedAt reaches the ttl")

	e, ok := c.Get("a")
	assert.True(t, ok, "stale entries remain readable")
	assert.Equal(t, 7, e.Value)
	assert.False(t, c.IsFresh(e, clock.Now()))
	assert.Equal(t, 1, c.Len())
}

func TestTTLCache_DefaultsToWallClock(t *testing.T) {
	c, err := NewTTLCache[string, string](time.Hour, nil)
	require.NoError(t, err)

	c.Put("k", "v", time.Now())
	v, ok := c.Fresh("k")

	assert.True(t, ok)
	assert.Equal(t, "v", v)
	assert.Equal(t, time.Hour, c.TTL())
}
