package server

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

const indexFile = "index.html"

// handleStatic serves the dashboard client for every unmatched route. Paths
// that name no file get index.html so client-side routing works.
func (s *Server) handleStatic(c *gin.Context) {
	urlPath := path.Clean("/" + c.Request.URL.Path)

	if s.staticDir == "" || strings.HasPrefix(urlPath, "/api/") || urlPath == "/api" ||
		(c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})

		return
	}

	file := filepath.Join(s.staticDir, filepath.FromSlash(urlPath))

	info, err := os.Stat(file)
	if err == nil && !info.IsDir() {
		c.File(file)

		return
	}

	index := filepath.Join(s.staticDir, indexFile)
	if _, err := os.Stat(index); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})

		return
	}

	c.File(index)
}
