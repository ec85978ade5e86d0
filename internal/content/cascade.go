package content

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/pigjjun/board/backend/internal/live"
	"github.com/pigjjun/board/backend/internal/metrics"
	"github.com/pigjjun/board/backend/internal/models"
)

// fanOut runs fn for every id concurrently, bounded by the service limit,
// and returns all failures joined. A failure does not stop the others.
func (s *Service) fanOut(ids []int, fn func(id int) error) error {
	var (
		mu   sync.Mutex
		errs []error
	)
	g := new(errgroup.Group)
	g.SetLimit(s.limit)
	for _, id := range ids {
		g.Go(func() error {
			if err := fn(id); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// removeComment deletes one comment or reply row and its likes.
func (s *Service) removeComment(ctx context.Context, kind string, id int) error {
	db := s.db.WithContext(ctx)
	err := db.Where("comment_id = ?", id).Delete(&models.CommentLike{}).Error
	if err == nil {
		err = db.Delete(&models.Comment{}, id).Error
	}
	metrics.CascadeDeletes.WithLabelValues(kind, metrics.Result(err)).Inc()
	if err != nil {
		return fmt.Errorf("delete %s %d: %w", kind, id, err)
	}
	return nil
}

// deleteThread removes every reply of a comment, waits for them, then
// removes the comment. The comment stays if any reply could not be deleted.
func (s *Service) deleteThread(ctx context.Context, commentID int) error {
	var replyIDs []int
	err := s.db.WithContext(ctx).Model(&models.Comment{}).
		Where("parent_comment_id = ?", commentID).
		Pluck("id", &replyIDs).Error
	if err != nil {
		return fmt.Errorf("scan replies of comment %d: %w", commentID, err)
	}

	err = s.fanOut(replyIDs, func(id int) error {
		return s.removeComment(ctx, "reply", id)
	})
	if err != nil {
		return err
	}
	return s.removeComment(ctx, "comment", commentID)
}

// DeletePost removes all comments of the post, each after its replies,
// then the post's vote records and the post itself. On partial failure the
// post is kept with whatever children survived; nothing is retried.
func (s *Service) DeletePost(ctx context.Context, postID int) error {
	ctx = context.WithoutCancel(ctx)

	if _, err := s.GetPost(ctx, postID); err != nil {
		return err
	}

	var commentIDs []int
	err := s.db.WithContext(ctx).Model(&models.Comment{}).
		Where("post_id = ? AND parent_comment_id IS NULL", postID).
		Pluck("id", &commentIDs).Error
	if err != nil {
		return fmt.Errorf("scan comments of post %d: %w", postID, err)
	}

	err = s.fanOut(commentIDs, func(id int) error {
		return s.deleteThread(ctx, id)
	})
	if err != nil {
		log.Printf("content: cascade delete of post %d incomplete: %v", postID, err)
		return err
	}

	// replies whose parent vanished out from under them
	var stray []int
	if err := s.db.WithContext(ctx).Model(&models.Comment{}).Where("post_id = ?", postID).Pluck("id", &stray).Error; err != nil {
		return err
	}
	if err := s.fanOut(stray, func(id int) error { return s.removeComment(ctx, "reply", id) }); err != nil {
		log.Printf("content: cascade delete of post %d incomplete: %v", postID, err)
		return err
	}

	db := s.db.WithContext(ctx)
	err = db.Where("post_id = ?", postID).Delete(&models.Vote{}).Error
	if err == nil {
		err = db.Delete(&models.Post{}, postID).Error
	}
	metrics.CascadeDeletes.WithLabelValues("post", metrics.Result(err)).Inc()
	if err != nil {
		log.Printf("content: delete post %d: %v", postID, err)
		return fmt.Errorf("delete post %d: %w", postID, err)
	}

	s.publish(ctx, postID, live.PostDeleted, nil)
	return nil
}

// DeleteComment removes a top-level comment after all of its replies.
func (s *Service) DeleteComment(ctx context.Context, postID, commentID int) error {
	ctx = context.WithoutCancel(ctx)
	if _, err := s.findComment(ctx, postID, commentID, nil); err != nil {
		return err
	}
	if err := s.deleteThread(ctx, commentID); err != nil {
		log.Printf("content: delete comment %d incomplete: %v", commentID, err)
		return err
	}
	s.publish(ctx, postID, live.CommentDeleted, map[string]int{"comment_id": commentID})
	return nil
}

func (s *Service) DeleteReply(ctx context.Context, postID, commentID, replyID int) error {
	if _, err := s.findComment(ctx, postID, replyID, &commentID); err != nil {
		return err
	}
	if err := s.removeComment(ctx, "reply", replyID); err != nil {
		return err
	}
	s.publish(ctx, postID, live.CommentDeleted, map[string]int{"comment_id": replyID, "parent_comment_id": commentID})
	return nil
}

// DeleteAccount removes everything the user wrote and then the user:
// replies and comments (with the replies under them), then posts with
// their whole cascade, then likes and votes, then the account row.
func (s *Service) DeleteAccount(ctx context.Context, userID int) error {
	ctx = context.WithoutCancel(ctx)
	if _, err := s.loadUser(ctx, userID); err != nil {
		return err
	}
	db := s.db.WithContext(ctx)

	var replyIDs []int
	if err := db.Model(&models.Comment{}).Where("author_id = ? AND parent_comment_id IS NOT NULL", userID).Pluck("id", &replyIDs).Error; err != nil {
		return err
	}
	if err := s.fanOut(replyIDs, func(id int) error { return s.removeComment(ctx, "reply", id) }); err != nil {
		return fmt.Errorf("delete replies of user %d: %w", userID, err)
	}

	var commentIDs []int
	if err := db.Model(&models.Comment{}).Where("author_id = ? AND parent_comment_id IS NULL", userID).Pluck("id", &commentIDs).Error; err != nil {
		return err
	}
	if err := s.fanOut(commentIDs, func(id int) error { return s.deleteThread(ctx, id) }); err != nil {
		return fmt.Errorf("delete comments of user %d: %w", userID, err)
	}

	var postIDs []int
	if err := db.Model(&models.Post{}).Where("author_id = ?", userID).Pluck("id", &postIDs).Error; err != nil {
		return err
	}
	if err := s.fanOut(postIDs, func(id int) error { return s.DeletePost(ctx, id) }); err != nil {
		return fmt.Errorf("delete posts of user %d: %w", userID, err)
	}

	if err := db.Where("user_id = ?", userID).Delete(&models.CommentLike{}).Error; err != nil {
		return err
	}
	// votes stay counted in the tallies; only the records go
	if err := db.Where("user_id = ?", userID).Delete(&models.Vote{}).Error; err != nil {
		return err
	}
	if err := db.Delete(&models.User{}, userID).Error; err != nil {
		return fmt.Errorf("delete user %d: %w", userID, err)
	}
	log.Printf("content: account %d deleted", userID)
	return nil
}
