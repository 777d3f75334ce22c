package media

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"tessera/store"
)

const (
	AssetExternal = "external"
	AssetLocal    = "local"
)

// Asset is one entry of a sync pack's assets list.
type Asset struct {
	Path string `json:"path"`
	Type string `json:"type"`
}

// Mapping maps an asset's URL or path to the id of its media document.
type Mapping map[string]string

type HydrationStats struct {
	Uploaded int
	Reused   int
	Failed   int
	Skipped  int
}

// Hydrator imports a sync pack's assets into a tenant's media library, one
// at a time. Assets already imported (same source) are reused.
type Hydrator struct {
	library *Library
	client  *http.Client
	log     *zap.Logger
	tenant  string
	baseDir string
}

// NewHydrator imports for tenant (a tenant document id). Relative local
// paths resolve against baseDir.
func NewHydrator(library *Library, tenant, baseDir string, log *zap.Logger) *Hydrator {
	return &Hydrator{
		library: library,
		client:  &http.Client{Timeout: 30 * time.Second},
		log:     log,
		tenant:  tenant,
		baseDir: baseDir,
	}
}

func (h *Hydrator) WithClient(c *http.Client) *Hydrator {
	h.client = c
	return h
}

// Hydrate processes every asset and returns the mapping of those that
// made it. A failing asset is logged and skipped.
func (h *Hydrator) Hydrate(ctx context.Context, assets []Asset) (Mapping, HydrationStats) {
	mapping := Mapping{}
	var stats HydrationStats

	h.log.Info("starting media hydration", zap.Int("assets", len(assets)))
	for _, asset := range assets {
		if _, done := mapping[asset.Path]; done {
			stats.Reused++
			continue
		}
		if asset.Type != AssetExternal && asset.Type != AssetLocal {
			h.log.Warn("skipping asset of unknown type", zap.String("path", asset.Path), zap.String("type", asset.Type))
			stats.Skipped++
			continue
		}

		existing, err := h.library.FindBySource(ctx, h.tenant, asset.Path)
		if err == nil {
			mapping[asset.Path] = existing.ID()
			stats.Reused++
			continue
		}
		if !errors.Is(err, store.ErrNotFound) {
			h.log.Error("media lookup failed", zap.String("path", asset.Path), zap.Error(err))
			stats.Failed++
			continue
		}

		var doc store.Doc
		if asset.Type == AssetExternal {
			doc, err = h.download(ctx, asset.Path)
		} else {
			doc, err = h.upload(ctx, asset.Path)
		}
		if err != nil {
			h.log.Error("failed to import asset", zap.String("path", asset.Path), zap.Error(err))
			stats.Failed++
			continue
		}
		mapping[asset.Path] = doc.ID()
		stats.Uploaded++
		h.log.Debug("asset imported", zap.String("path", asset.Path), zap.String("id", doc.ID()))
	}

	h.log.Info("media hydration complete",
		zap.Int("uploaded", stats.Uploaded),
		zap.Int("reused", stats.Reused),
		zap.Int("failed", stats.Failed),
		zap.Int("skipped", stats.Skipped))
	return mapping, stats
}

func (h *Hydrator) download(ctx context.Context, rawURL string) (store.Doc, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", rawURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download %s: HTTP %d", rawURL, resp.StatusCode)
	}

	name := FilenameFromURL(rawURL)
	return h.library.Create(ctx, Upload{
		Tenant: h.tenant,
		Name:   name,
		Alt:    AltFromFilename(name),
		Source: rawURL,
		Body:   resp.Body,
	}, store.WriteOptions{OverrideAccess: true})
}

func (h *Hydrator) upload(ctx context.Context, p string) (store.Doc, error) {
	resolved := p
	if !filepath.IsAbs(p) {
		resolved = filepath.Join(h.baseDir, p)
	}
	f, err := os.Open(resolved)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	name := filepath.Base(p)
	return h.library.Create(ctx, Upload{
		Tenant: h.tenant,
		Name:   name,
		Alt:    AltFromFilename(name),
		Source: p,
		Body:   f,
	}, store.WriteOptions{OverrideAccess: true})
}

// FilenameFromURL returns the unescaped last path segment of a URL.
func FilenameFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "image.jpg"
	}
	name := path.Base(u.Path)
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	if name == "" || name == "/" || name == "." {
		return "image.jpg"
	}
	return name
}
