package site

import (
	"context"
	"encoding/xml"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tessera/store"
)

const sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

// SiteModule serves per-tenant sitemaps and the health check.
type SiteModule struct {
	store      *store.Store
	baseDomain string
	log        *zap.Logger
}

// NewSiteModule expects a guarded store; the sitemap lists what anonymous
// visitors can see.
func NewSiteModule(st *store.Store, baseDomain string, log *zap.Logger) *SiteModule {
	return &SiteModule{store: st, baseDomain: baseDomain, log: log}
}

func (s *SiteModule) RegisterRoutes(router *gin.Engine) {
	router.GET("/@/:tenant/sitemap.xml", s.sitemap)
	router.GET("/healthz", s.health)
}

func (s *SiteModule) health(c *gin.Context) {
	sqlDB, err := s.store.DB().DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		s.log.Error("health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type urlEntry struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

type urlSet struct {
	XMLName xml.Name   `xml:"urlset"`
	NS      string     `xml:"xmlns,attr"`
	URLs    []urlEntry `xml:"url"`
}

// origin is the public address of a tenant: its first active custom
// domain, else its subdomain of the base domain.
func (s *SiteModule) origin(tenant store.Doc) string {
	domains, _ := tenant["domains"].([]any)
	for _, raw := range domains {
		if d, ok := raw.(map[string]any); ok && d["status"] == "active" {
			if host, _ := d["domain"].(string); host != "" {
				return "https://" + host
			}
		}
	}
	return "https://" + tenant.String("code") + "." + s.baseDomain
}

func lastMod(doc store.Doc) string {
	t, err := time.Parse(time.RFC3339, doc.String("updatedAt"))
	if err != nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

// each calls fn for every document of collection the caller may read.
func (s *SiteModule) each(ctx context.Context, collection string, filter store.Filter, fn func(store.Doc)) error {
	for page := 1; ; page++ {
		res, err := s.store.Find(ctx, collection, filter, store.FindOptions{Limit: 100, Page: page, Sort: "slug"})
		if err != nil {
			return err
		}
		for _, doc := range res.Docs {
			fn(doc)
		}
		if !res.HasNextPage {
			return nil
		}
	}
}

func (s *SiteModule) sitemap(c *gin.Context) {
	ctx := c.Request.Context()
	tenant, err := s.store.FindOne(ctx, store.Tenants, store.Filter{"code": c.Param("tenant")}, store.FindOptions{OverrideAccess: true})
	if errors.Is(err, store.ErrNotFound) {
		c.Status(http.StatusNotFound)
		return
	} else if err != nil {
		s.log.Error("failed to load tenant", zap.Error(err))
		c.Status(http.StatusInternalServerError)
		return
	}

	origin := s.origin(tenant)
	set := urlSet{NS: sitemapNS}
	set.URLs = append(set.URLs, urlEntry{Loc: origin + "/", ChangeFreq: "weekly", Priority: "1.0"})

	filter := store.Filter{"tenant": tenant.ID()}
	err = s.each(ctx, store.Pages, filter, func(doc store.Doc) {
		set.URLs = append(set.URLs, urlEntry{Loc: origin + "/" + doc.String("slug"), LastMod: lastMod(doc), ChangeFreq: "monthly", Priority: "0.7"})
	})
	if err == nil {
		err = s.each(ctx, store.Posts, filter, func(doc store.Doc) {
			set.URLs = append(set.URLs, urlEntry{Loc: origin + "/blog/" + doc.String("slug"), LastMod: lastMod(doc), ChangeFreq: "monthly", Priority: "0.6"})
		})
	}
	if err != nil {
		s.log.Error("failed to build sitemap", zap.String("tenant", tenant.String("code")), zap.Error(err))
		c.Status(http.StatusInternalServerError)
		return
	}

	out, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Data(http.StatusOK, "application/xml; charset=utf-8", append([]byte(xml.Header), append(out, '\n')...))
}
