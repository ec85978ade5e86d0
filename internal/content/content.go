// Package content owns posts, comments, replies and likes: creation, edits,
// listing, search and cascading deletes.
package content

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"

	"github.com/pigjjun/board/backend/internal/live"
	"github.com/pigjjun/board/backend/internal/media"
	"github.com/pigjjun/board/backend/internal/models"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("not the author")
	ErrInvalidCategory = errors.New("unknown category")
	ErrInvalidParent   = errors.New("replies can only be added to top-level comments")
)

var (
	bodyPolicy  = bluemonday.UGCPolicy()
	titlePolicy = bluemonday.StrictPolicy()
)

// Sanitized text is stored entity-escaped. Unescaping after the policy would
// turn encoded markup back into live tags.
func sanitizeBody(s string) string {
	return bodyPolicy.Sanitize(s)
}

func sanitizeTitle(s string) string {
	return titlePolicy.Sanitize(s)
}

type Service struct {
	db    *gorm.DB
	pub   live.Publisher
	media media.Store
	limit int
}

// NewService wires the content store. A nil media store skips media checks;
// a nil publisher skips live events.
func NewService(db *gorm.DB, pub live.Publisher, store media.Store, concurrency int) *Service {
	if concurrency <= 0 {
		concurrency = 16
	}
	return &Service{db: db, pub: pub, media: store, limit: concurrency}
}

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("load %s: %w", what, err)
}

func (s *Service) publish(ctx context.Context, postID int, typ string, data any) {
	if s.pub == nil {
		return
	}
	ev := live.Event{Type: typ, PostID: postID, Data: data}
	if err := s.pub.Publish(ctx, live.PostTopic(postID), ev); err != nil {
		log.Printf("content: publish %s for post %d: %v", typ, postID, err)
	}
}

func (s *Service) loadUser(ctx context.Context, userID int) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, notFound(err, "user")
	}
	return &user, nil
}
