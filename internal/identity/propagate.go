// Package identity keeps the author handle and photo copied onto posts and
// comments in step with the author's profile.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/pigjjun/board/backend/internal/live"
	"github.com/pigjjun/board/backend/internal/metrics"
	"github.com/pigjjun/board/backend/internal/models"
)

// Report counts the documents a propagation touched.
type Report struct {
	Posts    int   `json:"posts"`
	Comments int   `json:"comments"`
	Failed   int   `json:"failed"`
	Partial  bool  `json:"partial"`
	Err      error `json:"-"`
}

func failed(err error) (Report, error) {
	return Report{Partial: true, Err: err}, err
}

// Propagator rewrites denormalized author fields one document at a time.
// There is no transaction: a failure leaves the rewrite partial.
type Propagator struct {
	db    *gorm.DB
	pub   live.Publisher
	limit int
}

func NewPropagator(db *gorm.DB, pub live.Publisher, concurrency int) *Propagator {
	if concurrency <= 0 {
		concurrency = 16
	}
	return &Propagator{db: db, pub: pub, limit: concurrency}
}

type target struct {
	kind   string // post or comment
	id     int
	postID int
}

// burst runs update for every target concurrently and waits for all of
// them. Individual failures do not stop the others.
func (p *Propagator) burst(ctx context.Context, targets []target, update func(context.Context, target) error) Report {
	var (
		mu     sync.Mutex
		report Report
		errs   []error
	)

	g := new(errgroup.Group)
	g.SetLimit(p.limit)
	for _, t := range targets {
		g.Go(func() error {
			err := update(ctx, t)
			metrics.PropagatedDocuments.WithLabelValues(t.kind, metrics.Result(err)).Inc()

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failed++
				errs = append(errs, fmt.Errorf("%s %d: %w", t.kind, t.id, err))
				return nil
			}
			if t.kind == "post" {
				report.Posts++
			} else {
				report.Comments++
			}
			return nil
		})
	}
	_ = g.Wait()

	report.Err = errors.Join(errs...)
	report.Partial = report.Err != nil
	return report
}

// RenameHandle rewrites authorHandle from oldHandle to newHandle on every
// post, comment and reply carrying it.
func (p *Propagator) RenameHandle(ctx context.Context, oldHandle, newHandle string, authorID int) (Report, error) {
	if oldHandle == newHandle {
		return Report{}, nil
	}
	// in-flight rewrites outlive the request that started them
	ctx = context.WithoutCancel(ctx)

	var targets []target

	var posts []models.Post
	err := p.db.WithContext(ctx).Select("id").
		Where("author_handle = ? AND author_id = ?", oldHandle, authorID).
		Find(&posts).Error
	if err != nil {
		log.Printf("identity: rename %q -> %q for user %d: post scan failed: %v", oldHandle, newHandle, authorID, err)
		return failed(fmt.Errorf("scan posts for %q: %w", oldHandle, err))
	}
	for _, post := range posts {
		targets = append(targets, target{kind: "post", id: post.ID, postID: post.ID})
	}

	var comments []models.Comment
	err = p.db.WithContext(ctx).Select("id", "post_id").
		Where("author_handle = ? AND author_id = ?", oldHandle, authorID).
		Find(&comments).Error
	if err != nil {
		log.Printf("identity: rename %q -> %q for user %d: comment scan failed: %v", oldHandle, newHandle, authorID, err)
		return failed(fmt.Errorf("scan comments for %q: %w", oldHandle, err))
	}
	for _, c := range comments {
		targets = append(targets, target{kind: "comment", id: c.ID, postID: c.PostID})
	}

	report := p.burst(ctx, targets, func(ctx context.Context, t target) error {
		var model any = &models.Post{}
		if t.kind == "comment" {
			model = &models.Comment{}
		}
		return p.db.WithContext(ctx).Model(model).
			Where("id = ?", t.id).
			UpdateColumn("author_handle", newHandle).Error
	})

	if report.Err != nil {
		log.Printf("identity: rename %q -> %q for user %d left %d documents stale: %v",
			oldHandle, newHandle, authorID, report.Failed, report.Err)
	}
	p.announce(ctx, targets, map[string]any{"author_id": authorID, "handle": newHandle})
	return report, report.Err
}

// PropagatePhoto rewrites authorPhoto on every comment and reply by userID.
func (p *Propagator) PropagatePhoto(ctx context.Context, userID int, photoRef string) (Report, error) {
	ctx = context.WithoutCancel(ctx)

	var comments []models.Comment
	if err := p.db.WithContext(ctx).Select("id", "post_id").Where("author_id = ?", userID).Find(&comments).Error; err != nil {
		log.Printf("identity: photo update for user %d: comment scan failed: %v", userID, err)
		return failed(fmt.Errorf("scan comments of user %d: %w", userID, err))
	}
	targets := make([]target, 0, len(comments))
	for _, c := range comments {
		targets = append(targets, target{kind: "comment", id: c.ID, postID: c.PostID})
	}

	report := p.burst(ctx, targets, func(ctx context.Context, t target) error {
		return p.db.WithContext(ctx).Model(&models.Comment{}).
			Where("id = ?", t.id).
			UpdateColumn("author_photo", photoRef).Error
	})

	if report.Err != nil {
		log.Printf("identity: photo update for user %d left %d comments stale: %v", userID, report.Failed, report.Err)
	}
	p.announce(ctx, targets, map[string]any{"author_id": userID, "photo_ref": photoRef})
	return report, report.Err
}

func (p *Propagator) announce(ctx context.Context, targets []target, data map[string]any) {
	if p.pub == nil {
		return
	}
	seen := make(map[int]bool)
	for _, t := range targets {
		if seen[t.postID] {
			continue
		}
		seen[t.postID] = true
		ev := live.Event{Type: live.AuthorRewritten, PostID: t.postID, Data: data}
		if err := p.pub.Publish(ctx, live.PostTopic(t.postID), ev); err != nil {
			log.Printf("identity: publish rewrite for post %d: %v", t.postID, err)
		}
	}
}
