package common

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, key := range []string{"APP_ENV", "DATABASE_URL", "SQLITE_DB", "SESSION_SECRET", "PORT", "CACHE_MAX_AGE", "CORS_ORIGINS"} {
		t.Setenv(key, "")
	}

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 10*time.Minute, cfg.CacheMaxAge)
	assert.Empty(t, cfg.CORSOrigins)
	assert.ErrorIs(t, cfg.RequireDatabase(), ErrMissingConfig)
	assert.ErrorIs(t, cfg.RequireServer(), ErrMissingConfig)
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("APP_ENV", "production")
	t.Setenv("SQLITE_DB", "test.db")
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("CACHE_MAX_AGE", "1h")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, time.Hour, cfg.CacheMaxAge)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.NoError(t, cfg.RequireDatabase())
	assert.ErrorIs(t, cfg.RequireServer(), ErrMissingConfig)

	t.Setenv("CACHE_MAX_AGE", "soon")
	_, err = LoadConfig()
	assert.Error(t, err)
}

func TestTenantFromHost(t *testing.T) {
	tests := []struct {
		host string
		want string
	}{
		{"acme.example.com", "acme"},
		{"ACME.example.com:8080", "acme"},
		{"www.example.com", ""},
		{"admin.example.com", ""},
		{"example.com", ""},
		{"a.b.example.com", ""},
		{"acme.other.com", ""},
	}
	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			assert.Equal(t, tt.want, TenantFromHost(tt.host, "example.com"))
		})
	}
}

func setupHostRouter(lookup DomainLookup) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(TenantHostMiddleware(router, "example.com", lookup))
	router.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "platform") })
	router.GET("/@/:tenant/", func(c *gin.Context) { c.String(http.StatusOK, "home:"+c.Param("tenant")) })
	router.GET("/@/:tenant/:slug", func(c *gin.Context) { c.String(http.StatusOK, c.Param("tenant")+":"+c.Param("slug")) })
	router.GET("/login", func(c *gin.Context) { c.String(http.StatusOK, "login") })
	return router
}

func TestTenantHostMiddleware(t *testing.T) {
	lookup := func(_ context.Context, host string) (string, bool) {
		if host == "club.gr" {
			return "kallitechnia", true
		}
		return "", false
	}
	router := setupHostRouter(lookup)

	tests := []struct {
		host string
		path string
		want string
	}{
		{"example.com", "/", "platform"},
		{"acme.example.com", "/", "home:acme"},
		{"acme.example.com", "/about", "acme:about"},
		{"acme.example.com", "/login", "login"},
		{"club.gr", "/programs", "kallitechnia:programs"},
		{"example.com", "/@/acme/about", "acme:about"},
	}
	for _, tt := range tests {
		t.Run(tt.host+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req.Host = tt.host
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.want, w.Body.String())
		})
	}
}

func TestRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.InfoLevel)
	router := gin.New()
	router.Use(RequestLogger(zap.New(core)))
	router.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "HTTP Request", entry.Message)
	assert.Equal(t, int64(http.StatusOK), entry.ContextMap()["status"])
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(CORS([]string{"https://a.example"}))
	router.GET("/api/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/api/x", nil)
	req.Header.Set("Origin", "https://a.example")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "https://a.example", w.Header().Get("Access-Control-Allow-Origin"))
}
