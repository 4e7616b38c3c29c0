package generator

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/maypok86/otter"

	"github.com/testloom/testloom/internal/prompt"
)

// Cache holds finished generation results keyed by source, target name, and
// strategy. Entries are never invalidated except by Clear or eviction.
type Cache struct {
	inner otter.Cache[string, Response]
}

// NewCache creates a bounded result cache.
func NewCache(capacity int) (*Cache, error) {
	inner, err := otter.MustBuilder[string, Response](capacity).Build()
	if err != nil {
		return nil, err
	}
	return &Cache{inner: inner}, nil
}

func cacheKey(source, targetName string, strategy prompt.Strategy) string {
	h := sha256.New()
	h.Write([]byte(source))
	h.Write([]byte{0})
	h.Write([]byte(targetName))
	h.Write([]byte{0})
	h.Write([]byte(strategy))
	return hex.EncodeToString(h.Sum(nil))
}

func (c *Cache) Get(key string) (Response, bool) {
	return c.inner.Get(key)
}

func (c *Cache) Set(key string, resp Response) {
	c.inner.Set(key, resp)
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.inner.Clear()
}

// Size returns the current entry count.
func (c *Cache) Size() int {
	return c.inner.Size()
}

func (c *Cache) Close() {
	c.inner.Close()
}
