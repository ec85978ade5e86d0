package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/pigjjun/board/backend/internal/content"
	"github.com/pigjjun/board/backend/internal/devicestore"
	"github.com/pigjjun/board/backend/internal/identity"
	"github.com/pigjjun/board/backend/internal/live"
	"github.com/pigjjun/board/backend/internal/media"
	"github.com/pigjjun/board/backend/internal/models"
	"github.com/pigjjun/board/backend/internal/prefs"
	"github.com/pigjjun/board/backend/internal/voting"
)

// Deps are the services the HTTP layer drives.
type Deps struct {
	DB        *gorm.DB
	Content   *content.Service
	Votes     *voting.Aggregator
	Profiles  *identity.Profiles
	Prefs     *prefs.Service
	Devices   devicestore.Store
	Media     media.Store // nil when no bucket is configured
	Hub       *live.Hub
	JWTSecret []byte
	Origins   []string
}

// Handler combines all handler types
type Handler struct {
	Auth        *AuthHandler
	Post        *PostHandler
	Vote        *VoteHandler
	Comment     *CommentHandler
	User        *UserHandler
	Search      *SearchHandler
	Preferences *PreferencesHandler
	Media       *MediaHandler
	Live        *LiveHandler
}

func NewHandler(d Deps) *Handler {
	return &Handler{
		Auth:        NewAuthHandler(d.DB, d.Profiles, d.JWTSecret),
		Post:        NewPostHandler(d.Content),
		Vote:        NewVoteHandler(d.Votes, d.DB, d.Devices, d.Prefs),
		Comment:     NewCommentHandler(d.Content),
		User:        NewUserHandler(d.DB, d.Content, d.Profiles, d.Media, d.Prefs),
		Search:      NewSearchHandler(d.Content),
		Preferences: NewPreferencesHandler(d.Prefs),
		Media:       NewMediaHandler(d.Media),
		Live:        NewLiveHandler(d.Content, d.Hub, d.Origins),
	}
}

func extractUserID(c *gin.Context) (int, bool) {
	raw, exists := c.Get("user_id")
	if !exists {
		return 0, false
	}
	switch v := raw.(type) {
	case int:
		return v, true
	case uint:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

// requireUser writes 401 and returns false when nobody is signed in.
func requireUser(c *gin.Context) (int, bool) {
	id, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
	}
	return id, ok
}

// paramID parses a numeric path parameter, answering 400 when it is not one.
func paramID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return id, true
}

func deviceID(c *gin.Context) string {
	return c.GetString("device_id")
}

func language(c *gin.Context, p *prefs.Service) models.Language {
	if p == nil || deviceID(c) == "" {
		return models.English
	}
	pref, err := p.Get(c.Request.Context(), deviceID(c))
	if err != nil {
		return models.English
	}
	return pref.Language
}

// respondError maps service errors to status codes. Anything unrecognized
// is logged and answered with fallback as a 500.
func respondError(c *gin.Context, err error, fallback string) {
	var unknownRef *media.UnknownRefError

	switch {
	case errors.Is(err, content.ErrNotFound),
		errors.Is(err, voting.ErrPostNotFound),
		errors.Is(err, identity.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, content.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only change your own content"})
	case errors.Is(err, content.ErrInvalidCategory),
		errors.Is(err, content.ErrInvalidParent),
		errors.Is(err, voting.ErrInvalidChoice),
		errors.Is(err, identity.ErrInvalidHandle),
		errors.As(err, &unknownRef):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, identity.ErrHandleCooldown):
		respondCooldown(c, err, err.Error())
	case errors.Is(err, identity.ErrHandleTaken),
		errors.Is(err, voting.ErrVoteConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, media.ErrUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		log.Printf("handlers: %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

func respondCooldown(c *gin.Context, err error, msg string) {
	body := gin.H{"error": msg}
	var cooldown *identity.CooldownError
	if errors.As(err, &cooldown) {
		body["retry_after"] = cooldown.Until
	}
	c.JSON(http.StatusTooManyRequests, body)
}
