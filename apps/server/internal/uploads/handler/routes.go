// Package handler exposes the uploads.Service over HTTP.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tilsley/repopush/apps/server/internal/uploads"
)

// Handler translates HTTP requests into calls on the uploads.Service.
type Handler struct {
	svc *uploads.Service
	log *slog.Logger
}

// RegisterRoutes mounts the upload API onto the given Gin engine.
func RegisterRoutes(r *gin.Engine, svc *uploads.Service, log *slog.Logger) {
	registerJSONTagNames()
	h := &Handler{svc: svc, log: log}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	gh := r.Group("/api/github")
	gh.POST("/upload", h.Upload)
	gh.GET("/uploads", h.ListUploads)
}
