package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pigjjun/board/backend/internal/media"
)

const maxUploadSize = 10 << 20

type MediaHandler struct {
	store media.Store
}

func NewMediaHandler(store media.Store) *MediaHandler {
	return &MediaHandler{store: store}
}

// Upload stores the multipart "file" field and returns its ref
func (h *MediaHandler) Upload(c *gin.Context) {
	if h.store == nil {
		respondError(c, media.ErrUnavailable, "")
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A file field is required"})
		return
	}
	contentType := fh.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") && !strings.HasPrefix(contentType, "video/") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only images and videos can be uploaded"})
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unreadable upload"})
		return
	}
	defer f.Close()

	ref, err := h.store.Upload(c.Request.Context(), fh.Filename, contentType, f)
	if err != nil {
		respondError(c, err, "Failed to store file")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ref": ref})
}
