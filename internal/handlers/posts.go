package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pigjjun/board/backend/internal/content"
	"github.com/pigjjun/board/backend/internal/models"
)

type PostHandler struct {
	content *content.Service
}

func NewPostHandler(svc *content.Service) *PostHandler {
	return &PostHandler{content: svc}
}

// GetPosts lists one page of posts, optionally filtered by category.
func (h *PostHandler) GetPosts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	q := content.ListQuery{
		Category: c.Query("category"),
		Sort:     content.Sort(c.DefaultQuery("sort", string(content.SortRecent))),
		Page:     page,
	}

	res, err := h.content.ListPosts(c.Request.Context(), q)
	if err != nil {
		respondError(c, err, "Failed to fetch posts")
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *PostHandler) TopPosts(c *gin.Context) {
	n, _ := strconv.Atoi(c.DefaultQuery("limit", "3"))
	posts, err := h.content.TopPosts(c.Request.Context(), n)
	if err != nil {
		respondError(c, err, "Failed to fetch posts")
		return
	}
	c.JSON(http.StatusOK, posts)
}

// GetPost returns a single post by ID
func (h *PostHandler) GetPost(c *gin.Context) {
	postID, ok := paramID(c, "id")
	if !ok {
		return
	}
	post, err := h.content.GetPost(c.Request.Context(), postID)
	if err != nil {
		respondError(c, err, "Failed to fetch post")
		return
	}
	c.JSON(http.StatusOK, post)
}

// CreatePost creates a new post (PROTECTED - requires authentication)
func (h *PostHandler) CreatePost(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var input models.CreatePostRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, err := h.content.CreatePost(c.Request.Context(), userID, input)
	if err != nil {
		respondError(c, err, "Failed to create post")
		return
	}
	c.JSON(http.StatusCreated, post)
}

// UpdatePost updates an existing post (PROTECTED - requires ownership)
func (h *PostHandler) UpdatePost(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	postID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input models.UpdatePostRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, err := h.content.UpdatePost(c.Request.Context(), postID, userID, input)
	if err != nil {
		respondError(c, err, "Failed to update post")
		return
	}
	c.JSON(http.StatusOK, post)
}

// DeletePost deletes a post with all of its comments (PROTECTED - requires ownership)
func (h *PostHandler) DeletePost(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	postID, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.content.CanModifyPost(c.Request.Context(), postID, userID); err != nil {
		respondError(c, err, "Failed to delete post")
		return
	}
	if err := h.content.DeletePost(c.Request.Context(), postID); err != nil {
		respondError(c, err, "Failed to delete post")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Post deleted successfully"})
}
