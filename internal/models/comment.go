package models

import "time"

// Comment is either a top-level comment on a post or, when ParentCommentID
// is set, a reply to one.
type Comment struct {
	ID              int       `gorm:"primaryKey" json:"id"`
	PostID          int       `gorm:"index;not null" json:"post_id"`
	ParentCommentID *int      `gorm:"index" json:"parent_comment_id,omitempty"`
	AuthorID        int       `gorm:"index" json:"author_id"`
	AuthorHandle    string    `gorm:"index;size:30" json:"author_handle"`
	AuthorPhoto     string    `json:"author_photo"`
	Body            string    `gorm:"type:text;not null" json:"body"`
	LikerIDs        []int     `gorm:"-" json:"liker_ids"`
	Replies         []Comment `gorm:"-" json:"replies,omitempty"`
	CreatedAt       time.Time `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (c *Comment) IsReply() bool {
	return c.ParentCommentID != nil
}

// CommentLike records one user's like on a comment or reply.
type CommentLike struct {
	ID        int       `gorm:"primaryKey" json:"id"`
	CommentID int       `gorm:"not null;uniqueIndex:idx_comment_user" json:"comment_id"`
	UserID    int       `gorm:"not null;uniqueIndex:idx_comment_user" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateCommentRequest struct {
	Body string `json:"body" binding:"required,max=5000"`
}
