package utils

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// cacheItem 包装缓存数据和过期时间
type cacheItem[V any] struct {
	data      V
	expiresAt time.Time
}

// TTLCache is a bounded LRU whose entries also expire after a TTL.
// It is advisory: callers invalidate on every write they make.
type TTLCache[V any] struct {
	lruCache *lru.Cache[string, cacheItem[V]]
	now      func() time.Time
}

// NewTTLCache creates a cache holding at most size entries.
func NewTTLCache[V any](size int) (*TTLCache[V], error) {
	l, err := lru.New[string, cacheItem[V]](size)
	if err != nil {
		return nil, err
	}
	return &TTLCache[V]{lruCache: l, now: time.Now}, nil
}

// Set 设置缓存，ttl 为有效期
func (c *TTLCache[V]) Set(key string, data V, ttl time.Duration) {
	c.lruCache.Add(key, cacheItem[V]{
		data:      data,
		expiresAt: c.now().Add(ttl),
	})
}

// Get 获取缓存，不存在或已过期返回 false
func (c *TTLCache[V]) Get(key string) (V, bool) {
	var zero V
	val, ok := c.lruCache.Get(key)
	if !ok {
		return zero, false
	}

	if c.now().After(val.expiresAt) {
		c.lruCache.Remove(key)
		return zero, false
	}

	return val.data, true
}

// Delete 删除指定缓存
func (c *TTLCache[V]) Delete(key string) {
	c.lruCache.Remove(key)
}

// Purge drops every entry.
func (c *TTLCache[V]) Purge() {
	c.lruCache.Purge()
}
