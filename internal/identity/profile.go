package identity

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"gorm.io/gorm"

	"github.com/pigjjun/board/backend/internal/database"
	"github.com/pigjjun/board/backend/internal/models"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrInvalidHandle  = errors.New("handle must be 3-30 letters, digits or underscores")
	ErrHandleTaken    = errors.New("handle already taken")
	ErrHandleCooldown = errors.New("handle changed too recently")
)

var handlePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,30}$`)

func ValidHandle(h string) bool {
	return handlePattern.MatchString(h)
}

// CooldownError carries the earliest time the handle may change again.
type CooldownError struct {
	Until time.Time
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("%s: next change allowed after %s", ErrHandleCooldown, e.Until.Format(time.RFC3339))
}

func (e *CooldownError) Unwrap() error { return ErrHandleCooldown }

type Profiles struct {
	db       *gorm.DB
	prop     *Propagator
	cooldown time.Duration
	now      func() time.Time
}

func NewProfiles(db *gorm.DB, prop *Propagator, cooldown time.Duration) *Profiles {
	return &Profiles{db: db, prop: prop, cooldown: cooldown, now: time.Now}
}

// HandleAvailable reports whether no account uses handle. excludeID skips
// the caller's own account.
func (s *Profiles) HandleAvailable(ctx context.Context, handle string, excludeID int) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("handle = ? AND id <> ?", handle, excludeID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check handle: %w", err)
	}
	return count == 0, nil
}

// UpdateProfile applies req to the user and then propagates a changed
// handle or photo. The saved profile stands even when propagation fails;
// the failure is returned in the report.
func (s *Profiles) UpdateProfile(ctx context.Context, userID int, req models.UpdateProfileRequest) (*models.User, Report, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, Report{}, ErrUserNotFound
		}
		return nil, Report{}, fmt.Errorf("load user: %w", err)
	}

	oldHandle, oldPhoto := user.Handle, user.PhotoRef

	if req.Handle != nil && *req.Handle != user.Handle {
		if !ValidHandle(*req.Handle) {
			return nil, Report{}, ErrInvalidHandle
		}
		now := s.now().UTC()
		if user.HandleChangedAt != nil {
			until := user.HandleChangedAt.Add(s.cooldown)
			if now.Before(until) {
				return nil, Report{}, &CooldownError{Until: until}
			}
		}
		ok, err := s.HandleAvailable(ctx, *req.Handle, userID)
		if err != nil {
			return nil, Report{}, err
		}
		if !ok {
			return nil, Report{}, ErrHandleTaken
		}
		user.Handle = *req.Handle
		user.HandleChangedAt = &now
	}
	if req.DisplayName != nil {
		user.DisplayName = *req.DisplayName
	}
	if req.PhotoRef != nil {
		user.PhotoRef = *req.PhotoRef
	}
	if req.Bio != nil {
		user.Bio = *req.Bio
	}
	if req.Birthday != nil {
		user.Birthday = *req.Birthday
	}
	if req.Age != nil {
		user.Age = *req.Age
	}

	if err := s.db.WithContext(ctx).Save(&user).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, Report{}, ErrHandleTaken
		}
		return nil, Report{}, fmt.Errorf("save user: %w", err)
	}

	var report Report
	if user.Handle != oldHandle {
		r, err := s.prop.RenameHandle(ctx, oldHandle, user.Handle, user.ID)
		r.Err = err
		report = r
	}
	if user.PhotoRef != oldPhoto {
		r, err := s.prop.PropagatePhoto(ctx, user.ID, user.PhotoRef)
		report.Comments += r.Comments
		report.Failed += r.Failed
		report.Err = errors.Join(report.Err, err)
	}
	report.Partial = report.Err != nil
	return &user, report, nil
}
