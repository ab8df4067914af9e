package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tilsley/repopush/pkg/api"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// ListUploads handles GET /api/github/uploads, newest first.
func (h *Handler) ListUploads(c *gin.Context) {
	limit := defaultHistoryLimit
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= maxHistoryLimit {
			limit = parsed
		}
	}

	records, err := h.svc.History(c.Request.Context(), limit)
	if err != nil {
		h.log.Error("list uploads failed", "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to fetch upload history"})
		return
	}

	out := make([]api.UploadRecord, 0, len(records))
	for _, r := range records {
		out = append(out, api.UploadRecord{
			Id:             r.ID,
			Owner:          r.Owner,
			RepoName:       r.RepoName,
			Url:            r.URL,
			Private:        r.Private,
			FilesCollected: r.FilesCollected,
			FilesPublished: r.FilesPublished,
			CreatedAt:      r.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, api.ListUploadsResponse{Uploads: out})
}
