package cache

import (
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewLRUCacheUsesConfiguredShardCount(t *testing.T) {
	config := DefaultCacheConfig()
	c := NewLRUCache(config)

	assert.NotNil(t, c)
	assert.Equal(t, config.ShardCount, len(c.shards))
	assert.False(t, c.IsRunning())
}

func TestLRUCacheBasicOperations(t *testing.T) {
	c := NewLRUCache(DefaultCacheConfig())

	require := assert.New(t)
	require.NoError(c.Set("key1", "value1", time.Hour))

	value, ok := c.Get("key1")
	require.True(ok)
	require.Equal("value1", value)

	value, ok = c.Get("nonexistent")
	require.False(ok)
	require.Nil(value)

	require.True(c.Delete("key1"))
	_, ok = c.Get("key1")
	require.False(ok)

	require.False(c.Delete("nonexistent"))
}

func TestLRUCacheEntryExpiresAfterTTL(t *testing.T) {
	c := NewLRUCache(DefaultCacheConfig())
	assert.NoError(t, c.Set("key1", "value1", 50*time.Millisecond))

	value, ok := c.Get("key1")
	assert.True(t, ok)
	assert.Equal(t, "value1", value)

	time.Sleep(100 * time.Millisecond)
	_, ok = c.Get("key1")
	assert.False(t, ok)
}

func TestLRUCacheEvictsLeastRecentlyUsedOnOverflow(t *testing.T) {
	config := &Config{ShardCount: 1, MaxEntries: 3, EvictionBatch: 1, CleanupInterval: time.Minute}
	c := NewLRUCache(config)

	for i := 0; i < 3; i++ {
		assert.NoError(t, c.Set(fmt.Sprintf("key%d", i), i, 0))
	}
	// Touch key0 so it is no longer the least-recently-used entry.
	_, _ = c.Get("key0")

	assert.NoError(t, c.Set("key3", 3, 0))

	assert.LessOrEqual(t, c.Size(), 3)
	_, ok := c.Get("key0")
	assert.True(t, ok, "recently touched entry should survive eviction")
}

func TestLRUCacheConcurrentAccess(t *testing.T) {
	c := NewLRUCache(DefaultCacheConfig())
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := "key" + strconv.Itoa(i%10)
			assert.NoError(t, c.Set(key, i, time.Minute))
			c.Get(key)
		}(i)
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Size(), 10)
}

func TestLRUCacheStartStopLifecycle(t *testing.T) {
	c := NewLRUCache(DefaultCacheConfig())
	assert.NoError(t, c.Start())
	assert.True(t, c.IsRunning())
	assert.Error(t, c.Start(), "starting twice without a Stop should error")

	assert.NoError(t, c.Stop())
	assert.False(t, c.IsRunning())
	assert.Error(t, c.Stop(), "stopping twice should error")
}

func TestLRUCacheEvictExpiredRemovesStaleEntries(t *testing.T) {
	c := NewLRUCache(DefaultCacheConfig())
	assert.NoError(t, c.Set("stale", 1, time.Millisecond))
	assert.NoError(t, c.Set("fresh", 2, time.Hour))
	time.Sleep(10 * time.Millisecond)

	removed := c.evictExpired()
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, c.Size())
}
