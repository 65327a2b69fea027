package handlers

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
)

// SPAFallback serves the bundled single-page app for any unmatched route.
// Paths that name an existing file under the dist directory get that asset;
// everything else gets the SPA entry file so client-side routing works.
func SPAFallback(distDir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if distDir == "" {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Not found"})
			return
		}

		index := filepath.Join(distDir, "index.html")
		if _, err := os.Stat(index); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Not found"})
			return
		}

		requested := filepath.Join(distDir, filepath.Clean("/"+c.Request.URL.Path))
		if info, err := os.Stat(requested); err == nil && !info.IsDir() {
			c.File(requested)
			return
		}

		c.File(index)
	}
}
