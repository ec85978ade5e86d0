package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/pigjjun/board/backend/internal/content"
	"github.com/pigjjun/board/backend/internal/identity"
	"github.com/pigjjun/board/backend/internal/media"
	"github.com/pigjjun/board/backend/internal/models"
	"github.com/pigjjun/board/backend/internal/prefs"
)

type UserHandler struct {
	db       *gorm.DB
	content  *content.Service
	profiles *identity.Profiles
	media    media.Store
	prefs    *prefs.Service
}

func NewUserHandler(db *gorm.DB, svc *content.Service, profiles *identity.Profiles, store media.Store, p *prefs.Service) *UserHandler {
	return &UserHandler{db: db, content: svc, profiles: profiles, media: store, prefs: p}
}

// GetUserProfile returns a user's public profile and posts
func (h *UserHandler) GetUserProfile(c *gin.Context) {
	userID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var user models.User
	if err := h.db.WithContext(c.Request.Context()).First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	posts, err := h.content.PostsByAuthor(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "Failed to fetch user posts")
		return
	}

	profile := gin.H{
		"id":           user.ID,
		"handle":       user.Handle,
		"display_name": user.DisplayName,
		"photo_ref":    user.PhotoRef,
		"bio":          user.Bio,
		"created_at":   user.CreatedAt,
	}
	if me, ok := extractUserID(c); ok && me == user.ID {
		profile["email"] = user.Email
		profile["birthday"] = user.Birthday
		profile["age"] = user.Age
		profile["handle_changed_at"] = user.HandleChangedAt
	}

	c.JSON(http.StatusOK, gin.H{"user": profile, "posts": posts})
}

func (h *UserHandler) ownProfile(c *gin.Context) (int, bool) {
	authID, ok := requireUser(c)
	if !ok {
		return 0, false
	}
	userID, ok := paramID(c, "id")
	if !ok {
		return 0, false
	}
	if authID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only change your own profile"})
		return 0, false
	}
	return userID, true
}

// UpdateUserProfile edits the caller's profile. A new handle or photo is
// rewritten onto everything the user has written.
func (h *UserHandler) UpdateUserProfile(c *gin.Context) {
	userID, ok := h.ownProfile(c)
	if !ok {
		return
	}
	var input models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.PhotoRef != nil {
		if err := media.CheckRefs(c.Request.Context(), h.media, *input.PhotoRef); err != nil {
			respondError(c, err, "Failed to update profile")
			return
		}
	}

	user, report, err := h.profiles.UpdateProfile(c.Request.Context(), userID, input)
	if err != nil {
		lang := language(c, h.prefs)
		switch {
		case errors.Is(err, identity.ErrHandleTaken):
			c.JSON(http.StatusConflict, gin.H{"error": prefs.Message(lang, prefs.MsgHandleTaken)})
		case errors.Is(err, identity.ErrHandleCooldown):
			respondCooldown(c, err, prefs.Message(lang, prefs.MsgHandleTooSoon))
		default:
			respondError(c, err, "Failed to update profile")
		}
		return
	}
	if report.Err != nil {
		log.Printf("handlers: profile %d saved, propagation partial: %v", userID, report.Err)
	}

	c.JSON(http.StatusOK, gin.H{"user": user, "propagation": report})
}

// DeleteAccount removes the caller's account and everything they wrote
func (h *UserHandler) DeleteAccount(c *gin.Context) {
	userID, ok := h.ownProfile(c)
	if !ok {
		return
	}
	if err := h.content.DeleteAccount(c.Request.Context(), userID); err != nil {
		respondError(c, err, "Failed to delete account")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Account deleted successfully"})
}
