package frontend

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tessera/access"
	"tessera/blocks"
	"tessera/cache"
	"tessera/models"
	"tessera/render"
	"tessera/richtext"
	"tessera/store"
)

// FrontendModule serves tenant sites: homepage, pages, blog posts and
// draft previews.
type FrontendModule struct {
	store    *store.Store
	pipeline *render.Pipeline
	cache    *cache.Cache
	log      *zap.Logger
}

// NewFrontendModule expects a guarded store so anonymous visitors only see
// published content. c may be nil to disable page caching.
func NewFrontendModule(st *store.Store, pipeline *render.Pipeline, c *cache.Cache, log *zap.Logger) *FrontendModule {
	return &FrontendModule{store: st, pipeline: pipeline, cache: c, log: log}
}

func (f *FrontendModule) RegisterRoutes(router *gin.Engine) {
	siteGroup := router.Group("/@/:tenant")
	if f.cache != nil {
		siteGroup.Use(f.cache.Middleware())
	}
	{
		siteGroup.GET("/", f.index)
		siteGroup.GET("/blog/:slug", f.post)
		siteGroup.GET("/:slug", f.page)
	}

	router.GET("/preview", f.requireSession, f.preview)
}

// requireSession loads the logged-in user into the request context.
func (f *FrontendModule) requireSession(c *gin.Context) {
	session := sessions.Default(c)
	userID := session.Get("user_id")
	if userID == nil {
		c.Redirect(http.StatusFound, "/login")
		c.Abort()
		return
	}

	var user models.User
	if err := f.store.DB().First(&user, userID).Error; err != nil {
		session.Clear()
		_ = session.Save()
		c.Redirect(http.StatusFound, "/login")
		c.Abort()
		return
	}
	c.Set("user_email", user.Email)
	c.Request = c.Request.WithContext(access.WithUser(c.Request.Context(), access.FromModel(&user)))
	c.Next()
}

// Tenant is the part of a tenant document the templates use.
type Tenant struct {
	ID   string
	Code string
	Name string
}

func (f *FrontendModule) loadTenant(ctx context.Context, code string) (*Tenant, error) {
	doc, err := f.store.FindOne(ctx, store.Tenants, store.Filter{"code": code}, store.FindOptions{OverrideAccess: true})
	if err != nil {
		return nil, err
	}
	return &Tenant{ID: doc.ID(), Code: code, Name: blocks.SafeText(doc["name"])}, nil
}

func (f *FrontendModule) notFound(c *gin.Context, msg string) {
	c.HTML(http.StatusNotFound, "frontend_error.html", gin.H{"error": msg})
}

func (f *FrontendModule) failed(c *gin.Context, what string, err error) {
	f.log.Error("failed to load "+what, zap.String("path", c.Request.URL.Path), zap.Error(err))
	c.HTML(http.StatusInternalServerError, "frontend_error.html", gin.H{"error": "Something went wrong"})
}

// view is everything the page templates get.
func (f *FrontendModule) view(ctx context.Context, tenant *Tenant, title string, seo any) gin.H {
	chrome := f.loadChrome(ctx, tenant)
	h := gin.H{
		"tenant": tenant,
		"base":   "/@/" + tenant.Code,
		"title":  title,
		"header": chrome.Header,
		"nav":    chrome.Nav,
		"footer": chrome.Footer,
	}
	if m, ok := seo.(map[string]any); ok {
		if t := blocks.SafeText(m["title"]); t != "" {
			h["title"] = t
		}
		h["description"] = blocks.SafeText(m["description"])
	}
	return h
}

func (f *FrontendModule) renderDocument(c *gin.Context, tenant *Tenant, doc store.Doc, pc render.PageContext) {
	nodes := f.pipeline.RenderSections(doc["sections"], tenant.Code, pc)

	title := blocks.SafeText(doc["title"])
	if title == "" {
		title = tenant.Name
	}
	h := f.view(c.Request.Context(), tenant, title, doc["seo"])
	h["sections"] = render.Join(nodes)
	h["draft"] = doc.String("status") != "published"
	c.HTML(http.StatusOK, "frontend_page.html", h)
}

func (f *FrontendModule) index(c *gin.Context) {
	ctx := c.Request.Context()
	tenant, err := f.loadTenant(ctx, c.Param("tenant"))
	if errors.Is(err, store.ErrNotFound) {
		f.notFound(c, "Site not found")
		return
	} else if err != nil {
		f.failed(c, "tenant", err)
		return
	}

	home, err := f.store.FindOne(ctx, store.Homepages, store.Filter{"tenant": tenant.ID}, store.FindOptions{Depth: 1})
	if errors.Is(err, store.ErrNotFound) {
		f.notFound(c, "Homepage not found")
		return
	} else if err != nil {
		f.failed(c, "homepage", err)
		return
	}

	f.renderDocument(c, tenant, home, render.PageContext{Slug: "/", IsHomepage: true})
}

func (f *FrontendModule) page(c *gin.Context) {
	ctx := c.Request.Context()
	tenant, err := f.loadTenant(ctx, c.Param("tenant"))
	if errors.Is(err, store.ErrNotFound) {
		f.notFound(c, "Site not found")
		return
	} else if err != nil {
		f.failed(c, "tenant", err)
		return
	}

	slug := c.Param("slug")
	page, err := f.store.FindOne(ctx, store.Pages, store.Filter{"tenant": tenant.ID, "slug": slug}, store.FindOptions{Depth: 1})
	if errors.Is(err, store.ErrNotFound) {
		f.notFound(c, "Page not found")
		return
	} else if err != nil {
		f.failed(c, "page", err)
		return
	}

	f.renderDocument(c, tenant, page, render.PageContext{Slug: slug})
}

func (f *FrontendModule) post(c *gin.Context) {
	ctx := c.Request.Context()
	tenant, err := f.loadTenant(ctx, c.Param("tenant"))
	if errors.Is(err, store.ErrNotFound) {
		f.notFound(c, "Site not found")
		return
	} else if err != nil {
		f.failed(c, "tenant", err)
		return
	}

	post, err := f.store.FindOne(ctx, store.Posts, store.Filter{"tenant": tenant.ID, "slug": c.Param("slug")}, store.FindOptions{})
	if errors.Is(err, store.ErrNotFound) {
		f.notFound(c, "Post not found")
		return
	} else if err != nil {
		f.failed(c, "post", err)
		return
	}

	h := f.view(ctx, tenant, blocks.SafeText(post["title"]), nil)
	h["post"] = gin.H{
		"Title":     blocks.SafeText(post["title"]),
		"Excerpt":   blocks.SafeText(post["excerpt"]),
		"Content":   richtext.HTML(post["content"]),
		"CreatedAt": post.String("createdAt"),
	}
	c.HTML(http.StatusOK, "frontend_post.html", h)
}

// preview renders a page or homepage in any status for a logged-in user
// of its tenant.
func (f *FrontendModule) preview(c *gin.Context) {
	ctx := c.Request.Context()
	tenant, err := f.loadTenant(ctx, c.Query("tenant"))
	if errors.Is(err, store.ErrNotFound) {
		f.notFound(c, "Site not found")
		return
	} else if err != nil {
		f.failed(c, "tenant", err)
		return
	}

	slug := c.Query("slug")
	var doc store.Doc
	if slug == "" || slug == "/" || slug == "home" {
		doc, err = f.store.FindOne(ctx, store.Homepages, store.Filter{"tenant": tenant.ID}, store.FindOptions{Depth: 1})
	} else {
		doc, err = f.store.FindOne(ctx, store.Pages, store.Filter{"tenant": tenant.ID, "slug": slug}, store.FindOptions{Depth: 1})
	}
	switch {
	case errors.Is(err, store.ErrNotFound):
		f.notFound(c, "Page not found")
		return
	case errors.Is(err, store.ErrForbidden):
		c.HTML(http.StatusForbidden, "frontend_error.html", gin.H{"error": "Access denied"})
		return
	case err != nil:
		f.failed(c, "preview", err)
		return
	}

	c.Header("Cache-Control", "no-store")
	f.renderDocument(c, tenant, doc, render.PageContext{Slug: slug, IsHomepage: doc["slug"] == nil})
}

