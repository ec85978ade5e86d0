package voting

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pigjjun/board/backend/internal/devicestore"
	"github.com/pigjjun/board/backend/internal/models"
)

// VoterIdentity remembers which bucket a voter picked on each post.
type VoterIdentity interface {
	PriorChoice(ctx context.Context, postID int) (models.Choice, bool, error)
	// SwapChoice records next only if the stored choice is still prior
	// (or still absent when hasPrior is false). It returns false when a
	// concurrent vote by the same voter got there first.
	SwapChoice(ctx context.Context, postID int, prior models.Choice, hasPrior bool, next models.Choice) (bool, error)
}

// AccountVoter is a signed-in user; choices live in the votes table.
type AccountVoter struct {
	db     *gorm.DB
	UserID int
}

func NewAccountVoter(db *gorm.DB, userID int) *AccountVoter {
	return &AccountVoter{db: db, UserID: userID}
}

func (v *AccountVoter) PriorChoice(ctx context.Context, postID int) (models.Choice, bool, error) {
	var vote models.Vote
	err := v.db.WithContext(ctx).
		Where("post_id = ? AND user_id = ?", postID, v.UserID).
		First(&vote).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("load vote record: %w", err)
	}
	return vote.Choice, true, nil
}

func (v *AccountVoter) SwapChoice(ctx context.Context, postID int, prior models.Choice, hasPrior bool, next models.Choice) (bool, error) {
	if !hasPrior {
		vote := models.Vote{PostID: postID, UserID: v.UserID, Choice: next}
		res := v.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "post_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).Create(&vote)
		if res.Error != nil {
			return false, fmt.Errorf("save vote record: %w", res.Error)
		}
		return res.RowsAffected == 1, nil
	}

	res := v.db.WithContext(ctx).Model(&models.Vote{}).
		Where("post_id = ? AND user_id = ? AND choice = ?", postID, v.UserID, prior).
		Update("choice", next)
	if res.Error != nil {
		return false, fmt.Errorf("save vote record: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// DeviceVoter is an anonymous browser. Its choices are kept per device and
// are not verified: clearing the device id allows voting again.
type DeviceVoter struct {
	store    devicestore.Store
	DeviceID string
}

func NewDeviceVoter(store devicestore.Store, deviceID string) *DeviceVoter {
	return &DeviceVoter{store: store, DeviceID: deviceID}
}

func voteKey(postID int) string {
	return "vote-" + strconv.Itoa(postID)
}

func (v *DeviceVoter) PriorChoice(ctx context.Context, postID int) (models.Choice, bool, error) {
	raw, ok, err := v.store.Get(ctx, v.DeviceID, voteKey(postID))
	if err != nil || !ok {
		return "", false, err
	}
	choice, err := models.ParseChoice(raw)
	if err != nil {
		// unreadable leftovers count as no vote
		return "", false, nil
	}
	return choice, true, nil
}

func (v *DeviceVoter) SwapChoice(ctx context.Context, postID int, prior models.Choice, hasPrior bool, next models.Choice) (bool, error) {
	old, hadOld := string(prior), hasPrior
	if !hasPrior {
		// an unreadable leftover is replaced, not treated as a race
		raw, ok, err := v.store.Get(ctx, v.DeviceID, voteKey(postID))
		if err != nil {
			return false, err
		}
		if ok {
			if _, perr := models.ParseChoice(raw); perr == nil {
				return false, nil
			}
			old, hadOld = raw, true
		}
	}
	return v.store.Swap(ctx, v.DeviceID, voteKey(postID), old, hadOld, string(next))
}
