package engine

import (
	"crypto/md5"
	"encoding/hex"
	"os"
	"sync"
	"time"

	"github.com/codingersid/slim-template/render"
)

// CachedTemplate represents a parsed and cached template
type CachedTemplate struct {
	Template *render.Template
	ModTime  time.Time
	Checksum string
}

// TemplateCache manages template caching
type TemplateCache struct {
	templates map[string]*CachedTemplate
	mu        sync.RWMutex
	disabled  bool
}

// NewTemplateCache creates a new template cache
func NewTemplateCache() *TemplateCache {
	return &TemplateCache{
		templates: make(map[string]*CachedTemplate),
	}
}

// Get retrieves a cached template if it exists
func (c *TemplateCache) Get(name string) (*CachedTemplate, bool) {
	if c.disabled {
		return nil, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	cached, ok := c.templates[name]
	return cached, ok
}

// Set stores a template in the cache
func (c *TemplateCache) Set(name string, tmpl *render.Template, modTime time.Time, checksum string) {
	if c.disabled {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.templates[name] = &CachedTemplate{
		Template: tmpl,
		ModTime:  modTime,
		Checksum: checksum,
	}
}

// IsValid checks whether the cached entry still matches the file on disk
func (c *TemplateCache) IsValid(name, filePath string) bool {
	c.mu.RLock()
	cached, ok := c.templates[name]
	c.mu.RUnlock()
	if !ok {
		return false
	}

	info, err := os.Stat(filePath)
	if err != nil {
		return false
	}
	if info.ModTime().Equal(cached.ModTime) {
		return true
	}

	// modtime changed; fall back to a content check so touch-without-edit
	// does not invalidate
	content, err := os.ReadFile(filePath)
	if err != nil {
		return false
	}
	return Checksum(content) == cached.Checksum
}

// Remove drops one entry
func (c *TemplateCache) Remove(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.templates, name)
}

// Clear removes all cached templates
func (c *TemplateCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.templates = make(map[string]*CachedTemplate)
}

// Disable turns the cache off (development mode)
func (c *TemplateCache) Disable() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disabled = true
}

// Enable turns the cache back on
func (c *TemplateCache) Enable() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disabled = false
}

// Checksum computes the content fingerprint used for cache validation
func Checksum(content []byte) string {
	sum := md5.Sum(content)
	return hex.EncodeToString(sum[:])
}
