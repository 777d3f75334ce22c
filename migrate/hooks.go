package migrate

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"tessera/cache"
	"tessera/store"
)

// InvalidateCache drops the cached pages of the tenant a rewritten
// document belongs to. Documents store the tenant's id while the cache is
// keyed by tenant code, so codes are looked up once and remembered.
func InvalidateCache(st *store.Store, c *cache.Cache, log *zap.Logger) ChangeFunc {
	var (
		mu    sync.Mutex
		codes = map[string]string{}
		done  = map[string]bool{}
	)
	return func(ctx context.Context, _ string, doc store.Doc) {
		tenantID := doc.String("tenant")
		if tenantID == "" {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		if done[tenantID] {
			return
		}

		code, ok := codes[tenantID]
		if !ok {
			tenant, err := st.FindByID(ctx, store.Tenants, tenantID, store.FindOptions{OverrideAccess: true})
			if err != nil {
				log.Warn("cannot resolve tenant for cache invalidation", zap.String("tenant", tenantID), zap.Error(err))
				return
			}
			code = tenant.String("code")
			codes[tenantID] = code
		}
		if err := c.InvalidateTenant(code); err != nil {
			log.Warn("cache invalidation failed", zap.String("tenant", code), zap.Error(err))
			return
		}
		done[tenantID] = true
	}
}
