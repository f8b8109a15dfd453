package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCache_SetGetExpire(t *testing.T) {
	c := New()
	defer c.Close()

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("a", 1, time.Minute)
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestCache_ZeroTTLSkipsStorage(t *testing.T) {
	c := New()
	defer c.Close()
	c.Set("a", 1, 0)
	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestCache_Cleanup(t *testing.T) {
	c := New()
	defer c.Close()
	now := time.Now()
	c.now = func() time.Time { return now }
	c.Set("old", 1, time.Second)
	c.Set("new", 2, time.Hour)
	now = now.Add(time.Minute)
	c.cleanup()
	assert.Equal(t, 1, c.Len())
}

func TestCache_CloseTwice(t *testing.T) {
	c := NewWithInterval(time.Millisecond)
	c.Close()
	assert.NotPanics(t, c.Close)
}

func TestGenerateKey(t *testing.T) {
	assert.Equal(t, GenerateKey("a", "b"), GenerateKey("a", "b"))
	assert.NotEqual(t, GenerateKey("ab", ""), GenerateKey("a", "b"))
	assert.Len(t, GenerateKey("x"), 64)
}
