package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Cache keeps rendered tenant pages as HTML files under
// <dir>/<tenant>/<name>_<hash>.html.
type Cache struct {
	dir    string
	maxAge time.Duration
	mu     sync.RWMutex
}

func New(dir string, maxAge time.Duration) *Cache {
	return &Cache{dir: dir, maxAge: maxAge}
}

func (c *Cache) MaxAge() time.Duration {
	return c.maxAge
}

// generateHash returns the xxHash of s as 16 hex digits
func generateHash(s string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(s))
}

// fileName turns a page path ("/", "/about", "/blog/first") into a flat,
// readable file name. The hash keeps distinct paths apart.
func fileName(tenant, page string) string {
	name := strings.Trim(page, "/")
	if name == "" {
		name = "index"
	}
	name = strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(name)
	return fmt.Sprintf("%s_%s.html", name, generateHash(tenant+page)[:16])
}

// Path returns the cache file of a tenant page.
func (c *Cache) Path(tenant, page string) string {
	return filepath.Join(c.dir, tenant, fileName(tenant, page))
}

// Read returns the cached page if it exists and is not older than maxAge.
func (c *Cache) Read(tenant, page string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	path := c.Path(tenant, page)
	info, err := os.Stat(path)
	if err != nil {
		return "", false
	}
	if time.Since(info.ModTime()) > c.maxAge {
		return "", false
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	return string(content), true
}

func (c *Cache) Write(tenant, page, html string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.MkdirAll(filepath.Join(c.dir, tenant), 0755); err != nil {
		return err
	}
	return os.WriteFile(c.Path(tenant, page), []byte(html), 0644)
}

// Invalidate removes one cached page.
func (c *Cache) Invalidate(tenant, page string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := os.Remove(c.Path(tenant, page))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// InvalidateTenant removes every cached page of a tenant.
func (c *Cache) InvalidateTenant(tenant string) error {
	if tenant == "" {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return os.RemoveAll(filepath.Join(c.dir, tenant))
}

// Prune removes cache files older than maxAge and reports how many went.
func (c *Cache) Prune() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	err := filepath.WalkDir(c.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".html") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if time.Since(info.ModTime()) > c.maxAge {
			if os.Remove(path) == nil {
				removed++
			}
		}
		return nil
	})
	return removed, err
}
