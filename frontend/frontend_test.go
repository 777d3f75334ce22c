package frontend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tessera/access"
	"tessera/blocks"
	"tessera/cache"
	"tessera/database"
	"tessera/models"
	"tessera/render"
	"tessera/richtext"
	"tessera/store"
)

type fixture struct {
	store    *store.Store
	router   *gin.Engine
	tenantID string
	cache    *cache.Cache
}

func setupFixture(t *testing.T, withCache bool) *fixture {
	t.Helper()
	db, err := database.OpenInMemory()
	require.NoError(t, err)
	st := store.New(db)

	catalog := blocks.NewDefaultCatalog()
	pipeline := render.NewPipeline(render.NewDefaultRegistry(catalog, zap.NewNop()), false, zap.NewNop())

	var c *cache.Cache
	if withCache {
		c = cache.New(t.TempDir(), time.Minute)
	}

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(sessions.Sessions("tessera-session", cookie.NewStore([]byte("test-secret"))))
	router.LoadHTMLGlob("views/*.html")
	router.GET("/test-login/:id", func(c *gin.Context) {
		id, _ := strconv.Atoi(c.Param("id"))
		session := sessions.Default(c)
		session.Set("user_id", id)
		_ = session.Save()
		c.Status(http.StatusOK)
	})
	NewFrontendModule(st.WithGuard(access.DefaultPolicy()), pipeline, c, zap.NewNop()).RegisterRoutes(router)

	ctx := context.Background()
	write := store.WriteOptions{}
	tenant, err := st.Create(ctx, store.Tenants, store.Doc{"code": "kallitechnia", "name": "Kallitechnia"}, write)
	require.NoError(t, err)
	tid := tenant.ID()

	_, err = st.Create(ctx, store.Homepages, store.Doc{
		"tenant": tid,
		"status": "published",
		"sections": []any{
			map[string]any{"blockType": "kallitechnia.hero", "title": "Welcome to the club"},
			map[string]any{"blockType": "other.hero", "title": "Foreign block"},
		},
	}, write)
	require.NoError(t, err)

	about, err := st.Create(ctx, store.Pages, store.Doc{
		"tenant": tid, "slug": "about", "title": "About", "status": "published",
		"seo":      map[string]any{"title": "About the club", "description": "Who we are"},
		"sections": []any{map[string]any{"blockType": "kallitechnia.quote", "text": "Move every day"}},
	}, write)
	require.NoError(t, err)

	_, err = st.Create(ctx, store.Pages, store.Doc{
		"tenant": tid, "slug": "secret", "title": "Secret", "status": "draft",
		"sections": []any{map[string]any{"blockType": "kallitechnia.quote", "text": "Not yet"}},
	}, write)
	require.NoError(t, err)

	menu, err := st.Create(ctx, store.NavigationMenus, store.Doc{
		"tenant": tid, "title": "Main Navigation",
		"items": []any{
			map[string]any{"label": "About", "type": "internal", "page": about.ID()},
			map[string]any{"label": "Home", "type": "external", "url": "/"},
			map[string]any{"label": "Bad", "type": "external", "url": "javascript:alert(1)"},
		},
	}, write)
	require.NoError(t, err)

	_, err = st.Create(ctx, store.Headers, store.Doc{"tenant": tid, "navigationMenu": menu.ID(), "logo": "https://cdn.example.com/logo.png"}, write)
	require.NoError(t, err)
	_, err = st.Create(ctx, store.Footers, store.Doc{"tenant": tid, "copyrightText": "© Kallitechnia",
		"socialLinks": []any{map[string]any{"platform": "facebook", "url": "https://facebook.com/k"}}}, write)
	require.NoError(t, err)

	_, err = st.Create(ctx, store.Posts, store.Doc{
		"tenant": tid, "slug": "first", "title": "First post", "status": "published",
		"content": richtext.FromMarkdown([]byte("Hello **world**")),
	}, write)
	require.NoError(t, err)

	return &fixture{store: st, router: router, tenantID: tid, cache: c}
}

func (f *fixture) get(path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestIndex(t *testing.T) {
	f := setupFixture(t, false)

	w := f.get("/@/kallitechnia/")

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Welcome to the club")
	assert.NotContains(t, body, "Foreign block")
	assert.Contains(t, body, `href="/@/kallitechnia/about"`)
	assert.Contains(t, body, `href="/@/kallitechnia/"`)
	assert.NotContains(t, body, "javascript:")
	assert.Contains(t, body, `src="https://cdn.example.com/logo.png"`)
	assert.Contains(t, body, "© Kallitechnia")
	assert.Contains(t, body, "https://facebook.com/k")
}

func TestPage(t *testing.T) {
	f := setupFixture(t, false)

	w := f.get("/@/kallitechnia/about")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Move every day")
	assert.Contains(t, w.Body.String(), "<title>About the club | Kallitechnia</title>")
	assert.Contains(t, w.Body.String(), `content="Who we are"`)

	tests := []struct {
		name string
		path string
	}{
		{"draft page", "/@/kallitechnia/secret"},
		{"missing page", "/@/kallitechnia/nope"},
		{"missing tenant", "/@/nobody/"},
		{"missing post", "/@/kallitechnia/blog/nope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, http.StatusNotFound, f.get(tt.path).Code)
		})
	}
}

func TestPost(t *testing.T) {
	f := setupFixture(t, false)

	w := f.get("/@/kallitechnia/blog/first")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<h1>First post</h1>")
	assert.Contains(t, w.Body.String(), "<strong>world</strong>")
}

func login(t *testing.T, f *fixture, user *models.User) *http.Cookie {
	t.Helper()
	require.NoError(t, f.store.DB().Create(user).Error)
	w := f.get("/test-login/" + strconv.Itoa(user.ID))
	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies[0]
}

func TestPreview(t *testing.T) {
	f := setupFixture(t, false)

	w := f.get("/preview?tenant=kallitechnia&slug=secret")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))

	editor := login(t, f, &models.User{Email: "editor@example.gr", PasswordHash: "x", TenantID: f.tenantID, Roles: "user"})
	w = f.get("/preview?tenant=kallitechnia&slug=secret", editor)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Not yet")
	assert.Contains(t, w.Body.String(), "preview-banner")
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))

	w = f.get("/preview?tenant=kallitechnia", editor)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Welcome to the club")

	outsider := login(t, f, &models.User{Email: "other@example.com", PasswordHash: "x", TenantID: "someone-else", Roles: "user"})
	assert.Equal(t, http.StatusNotFound, f.get("/preview?tenant=kallitechnia&slug=secret", outsider).Code)
}

func TestCachedPages(t *testing.T) {
	f := setupFixture(t, true)

	w := f.get("/@/kallitechnia/about")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))

	again := f.get("/@/kallitechnia/about")
	assert.Equal(t, "HIT", again.Header().Get("X-Cache"))
	assert.Equal(t, w.Body.String(), again.Body.String())

	require.NoError(t, f.cache.InvalidateTenant("kallitechnia"))
	assert.Equal(t, "MISS", f.get("/@/kallitechnia/about").Header().Get("X-Cache"))
}

func TestDomainIndex(t *testing.T) {
	db, err := database.OpenInMemory()
	require.NoError(t, err)
	st := store.New(db)
	ctx := context.Background()

	_, err = st.Create(ctx, store.Tenants, store.Doc{"code": "acme", "domains": []any{
		map[string]any{"domain": "acme.gr", "status": "active"},
		map[string]any{"domain": "old-acme.gr", "status": "pending"},
	}}, store.WriteOptions{})
	require.NoError(t, err)

	index := NewDomainIndex(st, time.Hour, zap.NewNop())
	code, ok := index.Lookup(ctx, "ACME.gr")
	assert.True(t, ok)
	assert.Equal(t, "acme", code)

	_, ok = index.Lookup(ctx, "old-acme.gr")
	assert.False(t, ok)

	_, err = st.Create(ctx, store.Tenants, store.Doc{"code": "beta", "domains": []any{
		map[string]any{"domain": "beta.gr", "status": "active"},
	}}, store.WriteOptions{})
	require.NoError(t, err)
	_, ok = index.Lookup(ctx, "beta.gr")
	assert.False(t, ok, "served from the loaded index until the ttl passes")

	fresh := NewDomainIndex(st, 0, zap.NewNop())
	code, ok = fresh.Lookup(ctx, "beta.gr")
	assert.True(t, ok)
	assert.Equal(t, "beta", code)
}
