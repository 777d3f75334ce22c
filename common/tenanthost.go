package common

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
)

// DomainLookup maps a custom domain to the code of the tenant that owns it.
type DomainLookup func(ctx context.Context, host string) (string, bool)

var reservedSubdomains = map[string]bool{
	"www": true, "admin": true, "api": true, "mail": true, "ftp": true, "smtp": true,
}

// Paths served the same on every host.
var sharedPrefixes = []string{"/@/", "/admin", "/api/", "/login", "/logout", "/preview", "/media/", "/public/", "/healthz"}

// TenantFromHost returns the tenant code of <code>.<baseDomain>, or "".
func TenantFromHost(host, baseDomain string) string {
	host = strings.ToLower(host)
	if i := strings.LastIndex(host, ":"); i >= 0 && !strings.Contains(host[i:], "]") {
		host = host[:i]
	}
	suffix := "." + strings.ToLower(baseDomain)
	if !strings.HasSuffix(host, suffix) {
		return ""
	}
	sub := strings.TrimSuffix(host, suffix)
	if sub == "" || strings.Contains(sub, ".") || reservedSubdomains[sub] {
		return ""
	}
	return sub
}

// TenantHostMiddleware serves tenant hosts from the /@/<code> routes:
// requests to <code>.<baseDomain>, or to a domain lookup knows, are
// rewritten to /@/<code><path> and dispatched again.
func TenantHostMiddleware(engine *gin.Engine, baseDomain string, lookup DomainLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, prefix := range sharedPrefixes {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		code := TenantFromHost(c.Request.Host, baseDomain)
		if code == "" && lookup != nil {
			host := strings.ToLower(c.Request.Host)
			if i := strings.LastIndex(host, ":"); i >= 0 {
				host = host[:i]
			}
			code, _ = lookup(c.Request.Context(), host)
		}
		if code == "" {
			c.Next()
			return
		}

		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		c.Request.URL.Path = "/@/" + code + path
		engine.HandleContext(c)
		c.Abort()
	}
}
