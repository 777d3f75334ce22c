package media

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
)

type MediaModule struct {
	storage *Storage
}

func NewMediaModule(storage *Storage) *MediaModule {
	return &MediaModule{storage: storage}
}

func (m *MediaModule) RegisterRoutes(router *gin.Engine) {
	router.GET("/media/:tenant/:file", m.serve)
}

func (m *MediaModule) serve(c *gin.Context) {
	tenant, file := c.Param("tenant"), c.Param("file")
	if cleanName(tenant) != tenant || cleanName(file) != file {
		c.Status(http.StatusNotFound)
		return
	}
	path := filepath.Join(m.storage.Dir(), tenant, file)
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		c.Status(http.StatusNotFound)
		return
	}
	c.Header("Cache-Control", "public, max-age=31536000, immutable")
	c.File(path)
}
