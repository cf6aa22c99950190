// Package filecache memoizes raw file contents by absolute path for the
// duration of one processor lifetime.
package filecache

import (
	"os"
	"path/filepath"
	"sync"

	ferrors "git.home.luguber.info/inful/docweave/internal/foundation/errors"
)

// Cache lazily loads and memoizes file contents. Entries are write-once:
// content per path is treated as immutable while the owning processor runs,
// so concurrent duplicate reads converging on the same bytes are benign.
type Cache struct {
	mu     sync.Mutex
	files  map[string]string
	hits   int64
	misses int64
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{files: make(map[string]string)}
}

// Get returns the memoized content for path, loading it on first access.
// The path is cleaned before use as the cache key.
func (c *Cache) Get(path string) (string, error) {
	key := filepath.Clean(path)

	c.mu.Lock()
	if content, ok := c.files[key]; ok {
		c.hits++
		c.mu.Unlock()
		return content, nil
	}
	c.misses++
	c.mu.Unlock()

	raw, err := os.ReadFile(key)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ferrors.WrapError(ferrors.ErrIncludeNotFound, ferrors.CategoryNotFound, "include target missing").
				WithContext("path", key).Build()
		}
		return "", ferrors.WrapError(err, ferrors.CategoryFileSystem, "read include target").
			WithContext("path", key).Build()
	}

	content := string(raw)
	c.mu.Lock()
	// A concurrent loader may have won the race; keep the existing entry.
	if existing, ok := c.files[key]; ok {
		content = existing
	} else {
		c.files[key] = content
	}
	c.mu.Unlock()
	return content, nil
}

// Stats returns cache hit and miss counts.
func (c *Cache) Stats() (hits, misses int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.files)
}
