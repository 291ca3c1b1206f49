package http

import (
	stdhttp "net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/netziya/shell-server/internal/config"
	"github.com/netziya/shell-server/internal/core"
	"github.com/netziya/shell-server/internal/store"
)

// NewServer builds the HTTP server with all routes wired.
func NewServer(hub *core.Hub, blobs store.BlobStore, index store.FileIndex, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	router.GET("/health", healthHandler)

	ws := NewWSHandler(hub, logger)
	router.GET("/ws/:room", ws.Handle)

	files := NewFileHandlers(blobs, index, logger)
	router.POST("/upload/:room", files.Upload)
	router.GET("/download/:room/:filename", files.Download)
	router.DELETE("/delete/:room/:filename", files.Delete)
	router.GET("/files/:room", files.List)

	if cfg.StaticDir != "" {
		registerUI(router, cfg.StaticDir)
	}

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}

// registerUI serves the static frontend. Room URLs are client-side
// routes, so any unmatched GET without a file extension falls back to
// the UI shell.
func registerUI(router *gin.Engine, dir string) {
	router.Static("/static", dir)

	index := filepath.Join(dir, "index.html")
	router.NoRoute(func(c *gin.Context) {
		if c.Request.Method == stdhttp.MethodGet && !strings.Contains(c.Request.URL.Path, ".") {
			if _, err := os.Stat(index); err == nil {
				c.File(index)
				return
			}
		}
		c.JSON(stdhttp.StatusNotFound, ErrorResponse{Error: "not found"})
	})
}
