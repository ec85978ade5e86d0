package voting

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pigjjun/board/backend/internal/database/dbtest"
	"github.com/pigjjun/board/backend/internal/devicestore"
	"github.com/pigjjun/board/backend/internal/live"
	"github.com/pigjjun/board/backend/internal/models"
)

type recorder struct {
	mu     sync.Mutex
	events []live.Event
}

func (r *recorder) Publish(_ context.Context, topic string, ev live.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func newPost(t *testing.T, db *gorm.DB, tally models.Tally) int {
	t.Helper()
	post := models.Post{
		Title:       "Which way?",
		Body:        "body",
		Category:    "news",
		LeftLabel:   "yes",
		RightLabel:  "no",
		VoteLeft:    tally.Left,
		VoteNeutral: tally.Neutral,
		VoteRight:   tally.Right,
		VoteTotal:   tally.Total,
	}
	require.NoError(t, db.Create(&post).Error)
	return post.ID
}

func TestCastVoteChangeThenRepeat(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	pub := &recorder{}
	agg := NewAggregator(db, pub)

	postID := newPost(t, db, models.Tally{Left: 1, Total: 1})
	store := devicestore.NewMemory()
	require.NoError(t, store.Set(ctx, "device-a", voteKey(postID), "left"))
	voter := NewDeviceVoter(store, "device-a")

	res, err := agg.CastVote(ctx, postID, voter, models.ChoiceRight)
	require.NoError(t, err)
	assert.Equal(t, Changed, res.Outcome)
	assert.Equal(t, models.Tally{Left: 0, Neutral: 0, Right: 1, Total: 1}, res.Tally)

	res, err = agg.CastVote(ctx, postID, voter, models.ChoiceRight)
	require.NoError(t, err)
	assert.Equal(t, AlreadyVoted, res.Outcome)
	assert.Equal(t, models.Tally{Right: 1, Total: 1}, res.Tally)

	choice, err := agg.GetChoice(ctx, postID, voter)
	require.NoError(t, err)
	assert.Equal(t, models.ChoiceRight, choice)

	require.Len(t, pub.events, 1, "a repeated vote publishes nothing")
	assert.Equal(t, live.TallyChanged, pub.events[0].Type)
}

func TestCastVoteFirstVote(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	agg := NewAggregator(db, nil)
	postID := newPost(t, db, models.Tally{})

	res, err := agg.CastVote(ctx, postID, NewAccountVoter(db, 7), models.ChoiceNeutral)
	require.NoError(t, err)
	assert.Equal(t, Recorded, res.Outcome)
	assert.Equal(t, models.Tally{Neutral: 1, Total: 1}, res.Tally)
	assert.InDelta(t, 1.0, res.Shares.Neutral, 1e-9)
	assert.InDelta(t, 0.5, res.Shares.Left, 1e-9)

	var count int64
	require.NoError(t, db.Model(&models.Vote{}).Where("post_id = ? AND user_id = ?", postID, 7).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestAccountVoterChangeKeepsOneRecord(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	agg := NewAggregator(db, nil)
	postID := newPost(t, db, models.Tally{})
	voter := NewAccountVoter(db, 3)

	_, err := agg.CastVote(ctx, postID, voter, models.ChoiceLeft)
	require.NoError(t, err)
	res, err := agg.CastVote(ctx, postID, voter, models.ChoiceRight)
	require.NoError(t, err)
	assert.Equal(t, Changed, res.Outcome)
	assert.Equal(t, models.Tally{Right: 1, Total: 1}, res.Tally)

	var votes []models.Vote
	require.NoError(t, db.Where("post_id = ?", postID).Find(&votes).Error)
	require.Len(t, votes, 1)
	assert.Equal(t, models.ChoiceRight, votes[0].Choice)
}

func TestCastVoteNeverGoesNegative(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	agg := NewAggregator(db, nil)

	// a stale device record pointing at an empty bucket
	postID := newPost(t, db, models.Tally{Right: 1, Total: 1})
	store := devicestore.NewMemory()
	require.NoError(t, store.Set(ctx, "d", voteKey(postID), "left"))

	res, err := agg.CastVote(ctx, postID, NewDeviceVoter(store, "d"), models.ChoiceNeutral)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Tally.Left)
	assert.Equal(t, 1, res.Tally.Neutral)
}

func TestCastVoteErrors(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	agg := NewAggregator(db, nil)
	voter := NewDeviceVoter(devicestore.NewMemory(), "d")

	_, err := agg.CastVote(ctx, 999, voter, models.ChoiceLeft)
	assert.ErrorIs(t, err, ErrPostNotFound)

	postID := newPost(t, db, models.Tally{})
	_, err = agg.CastVote(ctx, postID, voter, models.Choice("up"))
	assert.ErrorIs(t, err, ErrInvalidChoice)
}

func TestTallyMatchesDistinctVoters(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	agg := NewAggregator(db, nil)
	postID := newPost(t, db, models.Tally{})
	store := devicestore.NewMemory()

	choices := []models.Choice{models.ChoiceLeft, models.ChoiceNeutral, models.ChoiceRight}
	rng := rand.New(rand.NewPCG(42, 7))
	final := map[string]models.Choice{}

	for i := 0; i < 300; i++ {
		device := fmt.Sprintf("device-%d", rng.IntN(25))
		choice := choices[rng.IntN(len(choices))]
		_, err := agg.CastVote(ctx, postID, NewDeviceVoter(store, device), choice)
		require.NoError(t, err)
		final[device] = choice
	}

	tally, err := agg.Tally(ctx, postID)
	require.NoError(t, err)
	assert.Equal(t, len(final), tally.Total)
	assert.Equal(t, tally.Total, tally.Left+tally.Neutral+tally.Right)

	want := models.Tally{Total: len(final)}
	for _, c := range final {
		switch c {
		case models.ChoiceLeft:
			want.Left++
		case models.ChoiceNeutral:
			want.Neutral++
		case models.ChoiceRight:
			want.Right++
		}
	}
	assert.Equal(t, want, tally)
}

// staleVoter reports no prior choice on its first read, as a request that
// raced a concurrent vote by the same account would.
type staleVoter struct {
	*AccountVoter
	reads int
}

func (v *staleVoter) PriorChoice(ctx context.Context, postID int) (models.Choice, bool, error) {
	v.reads++
	if v.reads == 1 {
		return "", false, nil
	}
	return v.AccountVoter.PriorChoice(ctx, postID)
}

func TestCastVoteLosingRaceCountsOnce(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	agg := NewAggregator(db, nil)
	postID := newPost(t, db, models.Tally{Left: 1, Total: 1})
	require.NoError(t, db.Create(&models.Vote{PostID: postID, UserID: 9, Choice: models.ChoiceLeft}).Error)

	voter := &staleVoter{AccountVoter: NewAccountVoter(db, 9)}
	res, err := agg.CastVote(ctx, postID, voter, models.ChoiceLeft)
	require.NoError(t, err)
	assert.Equal(t, AlreadyVoted, res.Outcome)
	assert.Equal(t, models.Tally{Left: 1, Total: 1}, res.Tally)
	assert.Equal(t, 2, voter.reads)
}

func TestConcurrentFirstVotesByOneAccount(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	agg := NewAggregator(db, nil)
	postID := newPost(t, db, models.Tally{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := agg.CastVote(ctx, postID, NewAccountVoter(db, 5), models.ChoiceRight)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	tally, err := agg.Tally(ctx, postID)
	require.NoError(t, err)
	assert.Equal(t, models.Tally{Right: 1, Total: 1}, tally)

	var records int64
	require.NoError(t, db.Model(&models.Vote{}).Where("post_id = ?", postID).Count(&records).Error)
	assert.EqualValues(t, 1, records)
}

func TestShare(t *testing.T) {
	assert.InDelta(t, 1.0, models.Share(0, 0), 1e-9)
	assert.InDelta(t, 0.5, models.Share(1, 3), 1e-9)
}
