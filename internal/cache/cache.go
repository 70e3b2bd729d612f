package cache

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"
)

// CachedResponse represents a cached backend reply
type CachedResponse struct {
	Response  string
	Timestamp time.Time
}

// GenerateCacheKey generates a cache key from the request parameters
func GenerateCacheKey(provider, model, systemMessage, text string) string {
	h := sha256.New()
	for _, part := range []string{provider, model, systemMessage, text} {
		// length prefix keeps ("ab","c") and ("a","bc") apart
		fmt.Fprintf(h, "%d:%s", len(part), part)
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

// Cache is a concurrency-safe in-memory reply cache
type Cache struct {
	entries sync.Map
}

func (c *Cache) Load(key string) (CachedResponse, bool) {
	val, ok := c.entries.Load(key)
	if !ok {
		return CachedResponse{}, false
	}
	return val.(CachedResponse), true
}

func (c *Cache) Store(key, response string) {
	c.entries.Store(key, CachedResponse{
		Response:  response,
		Timestamp: time.Now(),
	})
}

func (c *Cache) Len() int {
	n := 0
	c.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
