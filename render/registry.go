// Package render turns a document's stored blocks into HTML sections. Every
// block goes through kind resolution, tenant isolation and a per-block
// recovery boundary, so one bad block never blanks a page.
package render

import (
	"fmt"
	"html/template"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"tessera/blocks"
)

// PageContext is what a renderer gets to know about the page besides the
// block itself.
type PageContext struct {
	Tenant     string
	Slug       string
	IsHomepage bool
}

// Renderer renders one decoded block. An empty result means the block had
// nothing to show.
type Renderer func(b blocks.Block, pc PageContext) (template.HTML, error)

// Registry maps qualified kinds to renderers. It is filled once at startup
// and only read afterwards.
type Registry struct {
	mu        sync.RWMutex
	catalog   *blocks.Catalog
	renderers map[string]Renderer
	log       *zap.Logger
}

func NewRegistry(catalog *blocks.Catalog, log *zap.Logger) *Registry {
	return &Registry{
		catalog:   catalog,
		renderers: map[string]Renderer{},
		log:       log,
	}
}

// Register adds a renderer for kind, which must carry the tenant's prefix.
func (r *Registry) Register(tenant, kind string, fn Renderer) error {
	if !strings.HasPrefix(kind, tenant+".") || len(kind) == len(tenant)+1 {
		r.log.Warn("block type does not match tenant prefix",
			zap.String("blockType", kind), zap.String("tenant", tenant))
		return fmt.Errorf("%w: %q for tenant %q", blocks.ErrKindPrefix, kind, tenant)
	}
	r.mu.Lock()
	r.renderers[kind] = fn
	r.mu.Unlock()
	return nil
}

// RegisterTenant registers a tenant's renderer map. Kinds with a wrong
// prefix are skipped; the number registered is returned.
func (r *Registry) RegisterTenant(tenant string, renderers map[string]Renderer) int {
	kinds := make([]string, 0, len(renderers))
	for kind := range renderers {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)

	n := 0
	for _, kind := range kinds {
		if r.Register(tenant, kind, renderers[kind]) == nil {
			n++
		}
	}
	return n
}

func (r *Registry) Resolve(kind string) (Renderer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.renderers[kind]
	return fn, ok
}

// IsKnown reports whether kind is in a tenant catalog or has a renderer.
func (r *Registry) IsKnown(kind string) bool {
	if _, ok := r.catalog.Lookup(kind); ok {
		return true
	}
	_, ok := r.Resolve(kind)
	return ok
}

// ListKnown returns every known kind, sorted.
func (r *Registry) ListKnown() []string {
	seen := map[string]bool{}
	if r.catalog != nil {
		for _, name := range r.catalog.Names() {
			seen[name] = true
		}
	}
	r.mu.RLock()
	for kind := range r.renderers {
		seen[kind] = true
	}
	r.mu.RUnlock()

	out := make([]string, 0, len(seen))
	for kind := range seen {
		out = append(out, kind)
	}
	sort.Strings(out)
	return out
}
