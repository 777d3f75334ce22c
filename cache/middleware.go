package cache

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *responseWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Middleware serves public tenant pages (/@/<tenant>/...) from the cache and
// stores successful HTML responses on a miss.
func (c *Cache) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.Request.Method != http.MethodGet || ctx.Request.URL.RawQuery != "" {
			ctx.Next()
			return
		}

		tenant, page := splitTenantPath(ctx.Request.URL.Path)
		if tenant == "" {
			ctx.Next()
			return
		}

		if cached, found := c.Read(tenant, page); found {
			ctx.Header("X-Cache", "HIT")
			ctx.Data(http.StatusOK, "text/html; charset=utf-8", []byte(cached))
			ctx.Abort()
			return
		}

		ctx.Header("X-Cache", "MISS")
		writer := &responseWriter{
			ResponseWriter: ctx.Writer,
			body:           bytes.NewBuffer(nil),
		}
		ctx.Writer = writer

		ctx.Next()

		if writer.Status() == http.StatusOK &&
			strings.HasPrefix(writer.Header().Get("Content-Type"), "text/html") {
			_ = c.Write(tenant, page, writer.body.String())
		}
	}
}

// splitTenantPath splits /@/<tenant>/<page...> into the tenant code and the
// page path ("/" for the homepage).
func splitTenantPath(path string) (tenant, page string) {
	rest, ok := strings.CutPrefix(path, "/@/")
	if !ok {
		return "", ""
	}
	tenant, page, _ = strings.Cut(rest, "/")
	if tenant == "" {
		return "", ""
	}
	return tenant, "/" + page
}
