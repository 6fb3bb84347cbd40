package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRU_BasicOperations(t *testing.T) {
	c := NewLRU[string](10, time.Minute)

	t.Run("SetAndGet", func(t *testing.T) {
		c.Set("k1", "v1", 0)
		v, ok := c.Get("k1")
		assert.True(t, ok)
		assert.Equal(t, "v1", v)
	})

	t.Run("GetMissing", func(t *testing.T) {
		v, ok := c.Get("missing")
		assert.False(t, ok)
		assert.Empty(t, v)
	})

	t.Run("Overwrite", func(t *testing.T) {
		c.Set("k2", "a", 0)
		c.Set("k2", "b", 0)
		v, _ := c.Get("k2")
		assert.Equal(t, "b", v)
	})

	t.Run("Delete", func(t *testing.T) {
		c.Set("k3", "x", 0)
		assert.True(t, c.Delete("k3"))
		assert.False(t, c.Delete("k3"))
	})
}

func TestLRU_ExpirationUsesClock(t *testing.T) {
	c := NewLRU[int](10, time.Minute)
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	var reasons []EvictReason
	c.OnEvict(func(_ string, _ int, r EvictReason) { reasons = append(reasons, r) })

	c.Set("a", 1, time.Second)
	c.Set("b", 2, time.Hour)

	now = now.Add(2 * time.Second)
	_, ok := c.Get("a")
	assert.False(t, ok)
	_, ok = c.Get("b")
	assert.True(t, ok)
	assert.Equal(t, []EvictReason{EvictExpired}, reasons)

	now = now.Add(2 * time.Hour)
	assert.Equal(t, 1, c.CleanupExpired())
	assert.Equal(t, 0, c.Len())
}

func TestLRU_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRU[int](3, time.Minute)
	var evictedKeys []string
	c.OnEvict(func(k string, _ int, r EvictReason) {
		if r == EvictCapacity {
			evictedKeys = append(evictedKeys, k)
		}
	})

	c.Set("a", 1, 0)
	c.Set("b", 2, 0)
	c.Set("c", 3, 0)
	_, _ = c.Get("a") // a becomes most recent
	c.Set("d", 4, 0)

	assert.Equal(t, []string{"b"}, evictedKeys)
	assert.Equal(t, []string{"d", "a", "c"}, c.Keys())
}

func TestLRU_InvalidatePrefix(t *testing.T) {
	c := NewLRU[int](10, time.Minute)
	c.Set("session:ci-1", 1, 0)
	c.Set("session:ci-2", 2, 0)
	c.Set("session:as-1", 3, 0)

	assert.Equal(t, 2, c.Invalidate("session:ci-*"))
	assert.Equal(t, 1, c.Invalidate("session:as-1"))
	assert.Equal(t, 0, c.Len())
}

func TestLRU_ConcurrentAccess(t *testing.T) {
	c := NewLRU[int](50, time.Minute)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := string(rune('a' + (n+j)%26))
				c.Set(key, j, 0)
				_, _ = c.Get(key)
			}
		}(i)
	}
	wg.Wait()
	require.LessOrEqual(t, c.Len(), 50)
}
