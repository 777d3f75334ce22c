package frontend

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"tessera/store"
)

// DomainIndex maps custom domains to tenant codes. It reloads the tenants
// collection at most once per ttl.
type DomainIndex struct {
	store  *store.Store
	ttl    time.Duration
	log    *zap.Logger
	mu     sync.Mutex
	byHost map[string]string
	loaded time.Time
}

func NewDomainIndex(st *store.Store, ttl time.Duration, log *zap.Logger) *DomainIndex {
	return &DomainIndex{store: st, ttl: ttl, log: log}
}

// Lookup returns the code of the tenant with an active domain equal to
// host. It has the signature of common.DomainLookup.
func (d *DomainIndex) Lookup(ctx context.Context, host string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.byHost == nil || time.Since(d.loaded) > d.ttl {
		byHost, err := d.load(ctx)
		if err != nil {
			d.log.Warn("failed to load tenant domains", zap.Error(err))
		} else {
			d.byHost, d.loaded = byHost, time.Now()
		}
	}
	code, ok := d.byHost[strings.ToLower(host)]
	return code, ok
}

func (d *DomainIndex) load(ctx context.Context) (map[string]string, error) {
	byHost := map[string]string{}
	for page := 1; ; page++ {
		res, err := d.store.Find(ctx, store.Tenants, nil, store.FindOptions{Limit: 100, Page: page, OverrideAccess: true})
		if err != nil {
			return nil, err
		}
		for _, tenant := range res.Docs {
			domains, _ := tenant["domains"].([]any)
			for _, raw := range domains {
				entry, ok := raw.(map[string]any)
				if !ok || entry["status"] != "active" {
					continue
				}
				if host, _ := entry["domain"].(string); host != "" {
					byHost[strings.ToLower(host)] = tenant.String("code")
				}
			}
		}
		if !res.HasNextPage {
			return byHost, nil
		}
	}
}
