// Package voting keeps per-post three-way vote tallies and each voter's
// current choice.
package voting

import (
	"context"
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/pigjjun/board/backend/internal/live"
	"github.com/pigjjun/board/backend/internal/metrics"
	"github.com/pigjjun/board/backend/internal/models"
)

var (
	ErrPostNotFound  = errors.New("post not found")
	ErrInvalidChoice = errors.New("invalid vote choice")
	ErrVoteConflict  = errors.New("vote changed concurrently, try again")
)

type Outcome string

const (
	Recorded     Outcome = "recorded"
	Changed      Outcome = "changed"
	AlreadyVoted Outcome = "already_voted"
)

type Result struct {
	Outcome Outcome       `json:"outcome"`
	Choice  models.Choice `json:"choice"`
	Tally   models.Tally  `json:"tally"`
	Shares  models.Shares `json:"shares"`
}

type Aggregator struct {
	db  *gorm.DB
	pub live.Publisher
}

func NewAggregator(db *gorm.DB, pub live.Publisher) *Aggregator {
	return &Aggregator{db: db, pub: pub}
}

func increment(col string) any {
	return gorm.Expr(col + " + 1")
}

func decrement(col string) any {
	return gorm.Expr("CASE WHEN " + col + " > 0 THEN " + col + " - 1 ELSE 0 END")
}

// maxSwapAttempts bounds how often CastVote re-reads the voter's choice
// after losing a race with another vote by the same voter.
const maxSwapAttempts = 5

// CastVote moves voter to choice on the post. Voting the same bucket twice
// is not an error; it reports AlreadyVoted and changes nothing.
//
// The voter record is claimed first with a conditional write, so concurrent
// votes by one voter move the tally once. The tally update is a separate
// statement: if it fails the record already shows the new choice.
func (a *Aggregator) CastVote(ctx context.Context, postID int, voter VoterIdentity, choice models.Choice) (*Result, error) {
	if choice.Column() == "" {
		return nil, ErrInvalidChoice
	}
	if _, err := a.Tally(ctx, postID); err != nil {
		return nil, err
	}

	var (
		prior    models.Choice
		hasPrior bool
	)
	for attempt := 1; ; attempt++ {
		var err error
		prior, hasPrior, err = voter.PriorChoice(ctx, postID)
		if err != nil {
			return nil, err
		}

		if hasPrior && prior == choice {
			tally, err := a.Tally(ctx, postID)
			if err != nil {
				return nil, err
			}
			metrics.VotesCast.WithLabelValues(string(AlreadyVoted)).Inc()
			return &Result{Outcome: AlreadyVoted, Choice: choice, Tally: tally, Shares: tally.Shares()}, nil
		}

		swapped, err := voter.SwapChoice(ctx, postID, prior, hasPrior, choice)
		if err != nil {
			return nil, err
		}
		if swapped {
			break
		}
		if attempt == maxSwapAttempts {
			return nil, ErrVoteConflict
		}
	}

	outcome := Recorded
	updates := map[string]any{choice.Column(): increment(choice.Column())}
	if hasPrior {
		outcome = Changed
		updates[prior.Column()] = decrement(prior.Column())
	} else {
		updates["vote_total"] = increment("vote_total")
	}

	err := a.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ?", postID).
		UpdateColumns(updates).Error
	if err != nil {
		return nil, fmt.Errorf("update tally: %w", err)
	}

	tally, err := a.Tally(ctx, postID)
	if err != nil {
		return nil, err
	}
	metrics.VotesCast.WithLabelValues(string(outcome)).Inc()

	if a.pub != nil {
		ev := live.Event{Type: live.TallyChanged, PostID: postID, Data: tally}
		if err := a.pub.Publish(ctx, live.PostTopic(postID), ev); err != nil {
			log.Printf("voting: publish tally for post %d: %v", postID, err)
		}
	}

	return &Result{Outcome: outcome, Choice: choice, Tally: tally, Shares: tally.Shares()}, nil
}

func (a *Aggregator) Tally(ctx context.Context, postID int) (models.Tally, error) {
	var post models.Post
	err := a.db.WithContext(ctx).
		Select("id", "vote_left", "vote_neutral", "vote_right", "vote_total").
		First(&post, postID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Tally{}, ErrPostNotFound
	}
	if err != nil {
		return models.Tally{}, fmt.Errorf("load tally: %w", err)
	}
	return post.Tally(), nil
}

// GetChoice returns the voter's current bucket on the post, or "" if none.
func (a *Aggregator) GetChoice(ctx context.Context, postID int, voter VoterIdentity) (models.Choice, error) {
	choice, _, err := voter.PriorChoice(ctx, postID)
	return choice, err
}
