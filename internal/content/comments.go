package content

import (
	"context"

	"gorm.io/gorm"

	"github.com/pigjjun/board/backend/internal/database"
	"github.com/pigjjun/board/backend/internal/live"
	"github.com/pigjjun/board/backend/internal/models"
)

// findComment loads commentID and checks it belongs to postID. With
// parentID non-nil the comment must be a reply to it, otherwise it must be
// top-level.
func (s *Service) findComment(ctx context.Context, postID, commentID int, parentID *int) (*models.Comment, error) {
	var c models.Comment
	if err := s.db.WithContext(ctx).First(&c, commentID).Error; err != nil {
		return nil, notFound(err, "comment")
	}
	if c.PostID != postID {
		return nil, notFound(gorm.ErrRecordNotFound, "comment")
	}
	switch {
	case parentID == nil && c.ParentCommentID != nil,
		parentID != nil && (c.ParentCommentID == nil || *c.ParentCommentID != *parentID):
		return nil, notFound(gorm.ErrRecordNotFound, "comment")
	}
	return &c, nil
}

func (s *Service) newComment(ctx context.Context, postID int, parentID *int, authorID int, body string) (*models.Comment, error) {
	author, err := s.loadUser(ctx, authorID)
	if err != nil {
		return nil, err
	}
	c := models.Comment{
		PostID:          postID,
		ParentCommentID: parentID,
		AuthorID:        author.ID,
		AuthorHandle:    author.Handle,
		AuthorPhoto:     author.PhotoRef,
		Body:            sanitizeBody(body),
		LikerIDs:        []int{},
	}
	if err := s.db.WithContext(ctx).Create(&c).Error; err != nil {
		return nil, err
	}
	s.publish(ctx, postID, live.CommentCreated, c)
	return &c, nil
}

func (s *Service) CreateComment(ctx context.Context, postID, authorID int, body string) (*models.Comment, error) {
	if _, err := s.GetPost(ctx, postID); err != nil {
		return nil, err
	}
	return s.newComment(ctx, postID, nil, authorID, body)
}

// CreateReply attaches a reply to a top-level comment of the post. Replies
// cannot be nested further.
func (s *Service) CreateReply(ctx context.Context, postID, commentID, authorID int, body string) (*models.Comment, error) {
	var parent models.Comment
	if err := s.db.WithContext(ctx).First(&parent, commentID).Error; err != nil {
		return nil, notFound(err, "comment")
	}
	if parent.PostID != postID {
		return nil, notFound(gorm.ErrRecordNotFound, "comment")
	}
	if parent.IsReply() {
		return nil, ErrInvalidParent
	}
	return s.newComment(ctx, postID, &parent.ID, authorID, body)
}

// CanModifyComment checks that userID wrote the comment (parentID nil) or
// the reply to parentID.
func (s *Service) CanModifyComment(ctx context.Context, postID, commentID int, parentID *int, userID int) error {
	c, err := s.findComment(ctx, postID, commentID, parentID)
	if err != nil {
		return err
	}
	if c.AuthorID != userID {
		return ErrForbidden
	}
	return nil
}

// UpdateComment edits a comment, or a reply when parentID is set.
func (s *Service) UpdateComment(ctx context.Context, postID, commentID int, parentID *int, userID int, body string) (*models.Comment, error) {
	c, err := s.findComment(ctx, postID, commentID, parentID)
	if err != nil {
		return nil, err
	}
	if c.AuthorID != userID {
		return nil, ErrForbidden
	}
	c.Body = sanitizeBody(body)
	if err := s.db.WithContext(ctx).Model(c).Update("body", c.Body).Error; err != nil {
		return nil, err
	}
	if c.LikerIDs, err = s.likers(ctx, c.ID); err != nil {
		return nil, err
	}
	s.publish(ctx, postID, live.CommentUpdated, c)
	return c, nil
}

func (s *Service) likers(ctx context.Context, commentID int) ([]int, error) {
	ids := []int{}
	err := s.db.WithContext(ctx).Model(&models.CommentLike{}).
		Where("comment_id = ?", commentID).
		Order("id").Pluck("user_id", &ids).Error
	return ids, err
}

// ListComments returns the post's top-level comments oldest first, each
// with its replies nested in the same order.
func (s *Service) ListComments(ctx context.Context, postID int) ([]models.Comment, error) {
	if _, err := s.GetPost(ctx, postID); err != nil {
		return nil, err
	}

	var all []models.Comment
	err := s.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at").Order("id").
		Find(&all).Error
	if err != nil {
		return nil, err
	}

	ids := make([]int, 0, len(all))
	for _, c := range all {
		ids = append(ids, c.ID)
	}
	var likes []models.CommentLike
	if len(ids) > 0 {
		if err := s.db.WithContext(ctx).Where("comment_id IN ?", ids).Order("id").Find(&likes).Error; err != nil {
			return nil, err
		}
	}
	likers := make(map[int][]int)
	for _, l := range likes {
		likers[l.CommentID] = append(likers[l.CommentID], l.UserID)
	}

	replies := make(map[int][]models.Comment)
	top := make([]models.Comment, 0, len(all))
	for _, c := range all {
		c.LikerIDs = likers[c.ID]
		if c.LikerIDs == nil {
			c.LikerIDs = []int{}
		}
		if c.IsReply() {
			replies[*c.ParentCommentID] = append(replies[*c.ParentCommentID], c)
			continue
		}
		top = append(top, c)
	}
	for i := range top {
		top[i].Replies = replies[top[i].ID]
		if top[i].Replies == nil {
			top[i].Replies = []models.Comment{}
		}
	}
	return top, nil
}

type LikeResult struct {
	Liked bool `json:"liked"`
	Count int  `json:"count"`
}

// ToggleLike likes the comment or reply for userID, or removes an existing
// like.
func (s *Service) ToggleLike(ctx context.Context, postID, commentID, userID int) (*LikeResult, error) {
	var c models.Comment
	if err := s.db.WithContext(ctx).First(&c, commentID).Error; err != nil {
		return nil, notFound(err, "comment")
	}
	if c.PostID != postID {
		return nil, notFound(gorm.ErrRecordNotFound, "comment")
	}

	res := &LikeResult{}
	del := s.db.WithContext(ctx).
		Where("comment_id = ? AND user_id = ?", commentID, userID).
		Delete(&models.CommentLike{})
	if del.Error != nil {
		return nil, del.Error
	}
	if del.RowsAffected == 0 {
		like := models.CommentLike{CommentID: commentID, UserID: userID}
		err := s.db.WithContext(ctx).Create(&like).Error
		if err != nil && !database.IsUniqueViolation(err) {
			return nil, err
		}
		res.Liked = true
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.CommentLike{}).Where("comment_id = ?", commentID).Count(&count).Error; err != nil {
		return nil, err
	}
	res.Count = int(count)

	s.publish(ctx, postID, live.CommentLiked, map[string]any{"comment_id": commentID, "count": res.Count})
	return res, nil
}
