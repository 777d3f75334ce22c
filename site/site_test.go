package site

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tessera/access"
	"tessera/database"
	"tessera/store"
)

func setupTestRouter(t *testing.T) (*store.Store, *gin.Engine) {
	t.Helper()
	db, err := database.OpenInMemory()
	require.NoError(t, err)
	st := store.New(db)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewSiteModule(st.WithGuard(access.DefaultPolicy()), "tessera.test", zap.NewNop()).RegisterRoutes(router)
	return st, router
}

func get(router *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestSitemap(t *testing.T) {
	st, router := setupTestRouter(t)
	ctx := context.Background()
	write := store.WriteOptions{}

	tenant, err := st.Create(ctx, store.Tenants, store.Doc{"code": "acme"}, write)
	require.NoError(t, err)
	for _, p := range []store.Doc{
		{"tenant": tenant.ID(), "slug": "about", "status": "published"},
		{"tenant": tenant.ID(), "slug": "draft-page", "status": "draft"},
	} {
		_, err := st.Create(ctx, store.Pages, p, write)
		require.NoError(t, err)
	}
	_, err = st.Create(ctx, store.Posts, store.Doc{"tenant": tenant.ID(), "slug": "news", "status": "published"}, write)
	require.NoError(t, err)

	w := get(router, "/@/acme/sitemap.xml")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/xml; charset=utf-8", w.Header().Get("Content-Type"))
	body := w.Body.String()
	assert.True(t, strings.HasPrefix(body, "<?xml"))
	assert.Contains(t, body, `<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)
	assert.Contains(t, body, "<loc>https://acme.tessera.test/</loc>")
	assert.Contains(t, body, "<loc>https://acme.tessera.test/about</loc>")
	assert.Contains(t, body, "<loc>https://acme.tessera.test/blog/news</loc>")
	assert.NotContains(t, body, "draft-page")
	assert.Contains(t, body, "<lastmod>")
}

func TestSitemap_CustomDomain(t *testing.T) {
	st, router := setupTestRouter(t)
	_, err := st.Create(context.Background(), store.Tenants, store.Doc{"code": "acme", "domains": []any{
		map[string]any{"domain": "pending.gr", "status": "pending"},
		map[string]any{"domain": "acme.gr", "status": "active"},
	}}, store.WriteOptions{})
	require.NoError(t, err)

	w := get(router, "/@/acme/sitemap.xml")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<loc>https://acme.gr/</loc>")
}

func TestSitemap_UnknownTenant(t *testing.T) {
	_, router := setupTestRouter(t)
	assert.Equal(t, http.StatusNotFound, get(router, "/@/nobody/sitemap.xml").Code)
}

func TestHealth(t *testing.T) {
	_, router := setupTestRouter(t)
	w := get(router, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}
