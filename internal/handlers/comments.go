package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pigjjun/board/backend/internal/content"
	"github.com/pigjjun/board/backend/internal/models"
)

type CommentHandler struct {
	content *content.Service
}

func NewCommentHandler(svc *content.Service) *CommentHandler {
	return &CommentHandler{content: svc}
}

// GetComments returns the comments of a post with replies nested
func (h *CommentHandler) GetComments(c *gin.Context) {
	postID, ok := paramID(c, "id")
	if !ok {
		return
	}
	comments, err := h.content.ListComments(c.Request.Context(), postID)
	if err != nil {
		respondError(c, err, "Failed to fetch comments")
		return
	}
	c.JSON(http.StatusOK, comments)
}

// CreateComment creates a new comment on a post
func (h *CommentHandler) CreateComment(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	postID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input models.CreateCommentRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	comment, err := h.content.CreateComment(c.Request.Context(), postID, userID, input.Body)
	if err != nil {
		respondError(c, err, "Failed to create comment")
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// CreateReply answers a top-level comment
func (h *CommentHandler) CreateReply(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	postID, ok := paramID(c, "id")
	if !ok {
		return
	}
	commentID, ok := paramID(c, "commentId")
	if !ok {
		return
	}
	var input models.CreateCommentRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reply, err := h.content.CreateReply(c.Request.Context(), postID, commentID, userID, input.Body)
	if err != nil {
		respondError(c, err, "Failed to create reply")
		return
	}
	c.JSON(http.StatusCreated, reply)
}

func (h *CommentHandler) update(c *gin.Context, idParam string, parentParam string) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	postID, ok := paramID(c, "id")
	if !ok {
		return
	}
	id, ok := paramID(c, idParam)
	if !ok {
		return
	}
	var parent *int
	if parentParam != "" {
		p, ok := paramID(c, parentParam)
		if !ok {
			return
		}
		parent = &p
	}
	var input models.CreateCommentRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	comment, err := h.content.UpdateComment(c.Request.Context(), postID, id, parent, userID, input.Body)
	if err != nil {
		respondError(c, err, "Failed to update comment")
		return
	}
	c.JSON(http.StatusOK, comment)
}

// UpdateComment updates a comment (owner only)
func (h *CommentHandler) UpdateComment(c *gin.Context) {
	h.update(c, "commentId", "")
}

// UpdateReply updates a reply (owner only)
func (h *CommentHandler) UpdateReply(c *gin.Context) {
	h.update(c, "replyId", "commentId")
}

// DeleteComment deletes a comment and its replies (owner only)
func (h *CommentHandler) DeleteComment(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	postID, ok := paramID(c, "id")
	if !ok {
		return
	}
	commentID, ok := paramID(c, "commentId")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if err := h.content.CanModifyComment(ctx, postID, commentID, nil, userID); err != nil {
		respondError(c, err, "Failed to delete comment")
		return
	}
	if err := h.content.DeleteComment(ctx, postID, commentID); err != nil {
		respondError(c, err, "Failed to delete comment")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted successfully"})
}

// DeleteReply deletes a reply (owner only)
func (h *CommentHandler) DeleteReply(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	postID, ok := paramID(c, "id")
	if !ok {
		return
	}
	commentID, ok := paramID(c, "commentId")
	if !ok {
		return
	}
	replyID, ok := paramID(c, "replyId")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if err := h.content.CanModifyComment(ctx, postID, replyID, &commentID, userID); err != nil {
		respondError(c, err, "Failed to delete reply")
		return
	}
	if err := h.content.DeleteReply(ctx, postID, commentID, replyID); err != nil {
		respondError(c, err, "Failed to delete reply")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Reply deleted successfully"})
}

// LikeComment toggles the caller's like on a comment or reply
func (h *CommentHandler) LikeComment(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	postID, ok := paramID(c, "id")
	if !ok {
		return
	}
	commentID, ok := paramID(c, "commentId")
	if !ok {
		return
	}

	res, err := h.content.ToggleLike(c.Request.Context(), postID, commentID, userID)
	if err != nil {
		respondError(c, err, "Failed to like comment")
		return
	}
	c.JSON(http.StatusOK, res)
}
