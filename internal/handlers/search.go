package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pigjjun/board/backend/internal/content"
)

type SearchHandler struct {
	content *content.Service
}

func NewSearchHandler(svc *content.Service) *SearchHandler {
	return &SearchHandler{content: svc}
}

// Search matches posts and users by prefix of ?query=
func (h *SearchHandler) Search(c *gin.Context) {
	res, err := h.content.Search(c.Request.Context(), c.Query("query"))
	if err != nil {
		respondError(c, err, "Search failed")
		return
	}
	c.JSON(http.StatusOK, res)
}
