package http

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/yanqian/urban-heat-advisor/pkg/errors"
)

// registerStatic serves the dashboard when a static directory is configured.
func registerStatic(router *gin.Engine, dir string) {
	router.NoRoute(func(c *gin.Context) {
		path := c.Request.URL.Path
		if dir != "" && c.Request.Method == http.MethodGet && !strings.HasPrefix(path, "/api/") {
			if file, ok := staticFile(dir, path); ok {
				c.File(file)
				return
			}
		}
		c.JSON(http.StatusNotFound, gin.H{
			"error": gin.H{"code": apperrors.CodeNotFound, "message": "route not found"},
		})
	})
	if dir == "" {
		return
	}
	router.GET("/", func(c *gin.Context) {
		c.File(filepath.Join(dir, "index.html"))
	})
	router.Static("/static", filepath.Join(dir, "static"))
}

// staticFile resolves a request path to a regular file inside dir.
func staticFile(dir, requestPath string) (string, bool) {
	clean := filepath.Clean("/" + requestPath)
	candidate := filepath.Join(dir, filepath.FromSlash(clean))
	info, err := os.Stat(candidate)
	if err != nil || info.IsDir() {
		return "", false
	}
	return candidate, true
}
