package syncpack

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"tessera/blocks"
	"tessera/media"
	"tessera/richtext"
	"tessera/store"
)

var ErrTenantMismatch = errors.New("sync pack belongs to another tenant")

// Result summarizes an import.
type Result struct {
	TenantID   string
	MenuID     string
	Pages      int
	PageErrors int
	Posts      int
	Homepage   bool
	Media      media.HydrationStats
}

// Importer writes a pack into the store. Everything is written with access
// checks bypassed; an import is an operator action.
type Importer struct {
	store      *store.Store
	normalizer *blocks.Normalizer
	library    *media.Library
	log        *zap.Logger
}

func NewImporter(st *store.Store, normalizer *blocks.Normalizer, library *media.Library, log *zap.Logger) *Importer {
	return &Importer{store: st, normalizer: normalizer, library: library, log: log}
}

var write = store.WriteOptions{OverrideAccess: true}

func (im *Importer) findOne(ctx context.Context, collection string, filter store.Filter) (store.Doc, error) {
	doc, err := im.store.FindOne(ctx, collection, filter, store.FindOptions{OverrideAccess: true})
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return doc, err
}

// upsert updates the document matching filter with data, or creates it.
func (im *Importer) upsert(ctx context.Context, collection string, filter store.Filter, data store.Doc) (store.Doc, error) {
	existing, err := im.findOne(ctx, collection, filter)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		im.log.Info("updating", zap.String("collection", collection), zap.String("id", existing.ID()))
		return im.store.Update(ctx, collection, existing.ID(), data, write)
	}
	im.log.Info("creating", zap.String("collection", collection))
	return im.store.Create(ctx, collection, data, write)
}

// Import writes the pack for tenant code. Order matters: the tenant first,
// then its menu, then media so the header logo and page images can point
// at it, then header, footer, pages, the homepage and posts.
func (im *Importer) Import(ctx context.Context, code string, pack *Pack) (*Result, error) {
	if pack.Site.Tenant != "" && pack.Site.Tenant != code {
		return nil, fmt.Errorf("%w: %q is for %q", ErrTenantMismatch, pack.Dir, pack.Site.Tenant)
	}
	for _, w := range pack.Warnings {
		im.log.Warn("sync pack", zap.String("warning", w))
	}
	if pack.Manifest != nil {
		for _, w := range pack.Manifest.Warnings {
			im.log.Warn("sync pack manifest", zap.String("warning", w))
		}
	}

	im.log.Info("syncing site", zap.String("tenant", code), zap.String("path", pack.Dir))
	result := &Result{}

	tenant, err := im.syncTenant(ctx, code, pack.Site)
	if err != nil {
		return nil, fmt.Errorf("tenant: %w", err)
	}
	tenantID := tenant.ID()
	result.TenantID = tenantID

	menu, err := im.syncMenu(ctx, tenantID, pack.Menu)
	if err != nil {
		return nil, fmt.Errorf("navigation menu: %w", err)
	}
	result.MenuID = menu.ID()

	var mapping media.Mapping
	if im.library != nil {
		hydrator := media.NewHydrator(im.library, tenantID, filepath.Dir(filepath.Clean(pack.Dir)), im.log)
		mapping, result.Media = hydrator.Hydrate(ctx, pack.Assets)
	}

	if _, err := im.syncHeader(ctx, tenantID, menu.ID(), pack.Header, mapping); err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	if _, err := im.syncFooter(ctx, tenantID, pack.Footer); err != nil {
		return nil, fmt.Errorf("footer: %w", err)
	}

	for _, slug := range pack.PageSlugs() {
		if slug == HomeSlug {
			continue
		}
		if err := im.syncPage(ctx, tenantID, pack.Pages[slug], mapping); err != nil {
			result.PageErrors++
			im.log.Error("failed to sync page", zap.String("slug", slug), zap.Error(err))
			continue
		}
		result.Pages++
	}

	if home, ok := pack.Pages[HomeSlug]; ok {
		if err := im.syncHomepage(ctx, tenantID, home, mapping); err != nil {
			return result, fmt.Errorf("homepage: %w", err)
		}
		result.Homepage = true
	}

	for _, post := range pack.Posts {
		if err := im.syncPost(ctx, tenantID, post); err != nil {
			im.log.Error("failed to sync post", zap.String("slug", post.Slug), zap.Error(err))
			continue
		}
		result.Posts++
	}

	im.log.Info("sync complete",
		zap.String("tenant", tenantID),
		zap.String("menu", result.MenuID),
		zap.Int("pages", result.Pages),
		zap.Int("posts", result.Posts))
	return result, nil
}

func (im *Importer) syncTenant(ctx context.Context, code string, site Site) (store.Doc, error) {
	domains := make([]any, 0, len(site.Domains))
	for _, d := range site.Domains {
		if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
			domains = append(domains, map[string]any{"domain": d, "status": "active"})
		}
	}
	name := site.ProjectName
	if name == "" {
		name = code
	}
	return im.upsert(ctx, store.Tenants, store.Filter{"code": code}, store.Doc{
		"code":    code,
		"name":    name,
		"domains": domains,
	})
}

// syncMenu links internal hrefs to the tenant's pages. Pages that do not
// exist yet (and "/") stay plain URLs.
func (im *Importer) syncMenu(ctx context.Context, tenantID string, menu Menu) (store.Doc, error) {
	items := make([]any, 0, len(menu.Items))
	for _, link := range menu.Items {
		item := map[string]any{"label": link.Label, "openInNewTab": false}
		if !strings.HasPrefix(link.Href, "/") {
			item["type"], item["url"] = "external", link.Href
			items = append(items, item)
			continue
		}
		slug := strings.Trim(link.Href, "/")
		if slug == "" {
			slug = HomeSlug
		}
		page, err := im.findOne(ctx, store.Pages, store.Filter{"tenant": tenantID, "slug": slug})
		if err != nil {
			return nil, err
		}
		if page != nil {
			item["type"], item["page"] = "internal", page.ID()
		} else {
			if slug != HomeSlug {
				im.log.Warn("page not found for menu item, using URL", zap.String("slug", slug))
			}
			item["type"], item["url"] = "external", link.Href
		}
		items = append(items, item)
	}
	return im.upsert(ctx, store.NavigationMenus, store.Filter{"tenant": tenantID, "title": menu.MenuTitle}, store.Doc{
		"tenant": tenantID,
		"title":  menu.MenuTitle,
		"items":  items,
	})
}

func (im *Importer) syncHeader(ctx context.Context, tenantID, menuID string, header Header, mapping media.Mapping) (store.Doc, error) {
	data := store.Doc{
		"tenant":         tenantID,
		"navigationMenu": menuID,
		"enableTopBar":   false,
	}
	if header.Logo != "" {
		if id, ok := mapping[header.Logo]; ok {
			data["logo"] = id
		} else {
			im.log.Info("header logo not in media, keeping URL", zap.String("logo", header.Logo))
			data["logo"] = header.Logo
		}
		if header.LogoAlt != "" {
			data["logoAlt"] = header.LogoAlt
		}
	}
	return im.upsert(ctx, store.Headers, store.Filter{"tenant": tenantID}, data)
}

func (im *Importer) syncFooter(ctx context.Context, tenantID string, footer Footer) (store.Doc, error) {
	links := make([]any, 0, len(footer.SocialLinks))
	for _, l := range footer.SocialLinks {
		links = append(links, map[string]any{"platform": l.Platform, "url": l.URL})
	}
	return im.upsert(ctx, store.Footers, store.Filter{"tenant": tenantID}, store.Doc{
		"tenant":        tenantID,
		"copyrightText": footer.CopyrightText,
		"socialLinks":   links,
	})
}

// sections normalizes a page's blocks and swaps image URLs for media ids.
func (im *Importer) sections(raw []any, mapping media.Mapping) []any {
	classify := im.normalizer.Classifier()
	out := make([]any, 0, len(raw))
	for _, block := range im.normalizer.NormalizeMany(raw) {
		hydrated, missing := blocks.HydrateMedia(block, mapping, classify)
		for _, m := range missing {
			im.log.Debug("image not hydrated", zap.String("blockType", block["blockType"].(string)), zap.String("url", m))
		}
		out = append(out, hydrated)
	}
	return out
}

func pageData(tenantID string, page *Page, sections []any) store.Doc {
	data := store.Doc{
		"tenant":        tenantID,
		"sections":      sections,
		"status":        "published",
		"schemaVersion": blocks.CurrentSchemaVersion,
	}
	if page.SEO != nil {
		data["seo"] = map[string]any{"title": page.SEO.Title, "description": page.SEO.Description}
	}
	return data
}

func (im *Importer) syncPage(ctx context.Context, tenantID string, page *Page, mapping media.Mapping) error {
	sections := im.sections(page.Blocks, mapping)
	for _, w := range blocks.PageWarnings(sections) {
		im.log.Warn(w, zap.String("slug", page.Slug))
	}
	data := pageData(tenantID, page, sections)
	data["title"] = page.Title
	data["slug"] = page.Slug
	_, err := im.upsert(ctx, store.Pages, store.Filter{"tenant": tenantID, "slug": page.Slug}, data)
	return err
}

func (im *Importer) syncHomepage(ctx context.Context, tenantID string, page *Page, mapping media.Mapping) error {
	sections := im.sections(page.Blocks, mapping)
	for _, w := range blocks.HomepageWarnings(sections) {
		im.log.Warn(w)
	}
	_, err := im.upsert(ctx, store.Homepages, store.Filter{"tenant": tenantID}, pageData(tenantID, page, sections))
	return err
}

func (im *Importer) syncPost(ctx context.Context, tenantID string, post *Post) error {
	status := post.Status
	if status == "" {
		status = "published"
	}
	data := store.Doc{
		"tenant":  tenantID,
		"title":   post.Title,
		"slug":    post.Slug,
		"status":  status,
		"content": richtext.FromMarkdown(post.Body),
	}
	if post.Excerpt != "" {
		data["excerpt"] = post.Excerpt
	}
	_, err := im.upsert(ctx, store.Posts, store.Filter{"tenant": tenantID, "slug": post.Slug}, data)
	return err
}
