package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pigjjun/board/backend/internal/models"
	"github.com/pigjjun/board/backend/internal/prefs"
)

type PreferencesHandler struct {
	prefs *prefs.Service
}

func NewPreferencesHandler(p *prefs.Service) *PreferencesHandler {
	return &PreferencesHandler{prefs: p}
}

func (h *PreferencesHandler) Get(c *gin.Context) {
	p, err := h.prefs.Get(c.Request.Context(), deviceID(c))
	if err != nil {
		respondError(c, err, "Failed to load preferences")
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *PreferencesHandler) Update(c *gin.Context) {
	var input models.Preferences
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, err := h.prefs.Set(c.Request.Context(), deviceID(c), input)
	if err != nil {
		respondError(c, err, "Failed to save preferences")
		return
	}
	c.JSON(http.StatusOK, p)
}
