package models

import (
	"fmt"
	"time"
)

// Choice is one of the three tally buckets of a post.
type Choice string

const (
	ChoiceLeft    Choice = "left"
	ChoiceNeutral Choice = "neutral"
	ChoiceRight   Choice = "right"
)

func ParseChoice(s string) (Choice, error) {
	switch c := Choice(s); c {
	case ChoiceLeft, ChoiceNeutral, ChoiceRight:
		return c, nil
	}
	return "", fmt.Errorf("unknown vote choice %q", s)
}

// Column is the posts column holding the bucket count.
func (c Choice) Column() string {
	switch c {
	case ChoiceLeft:
		return "vote_left"
	case ChoiceNeutral:
		return "vote_neutral"
	case ChoiceRight:
		return "vote_right"
	}
	return ""
}

// Vote tracks an authenticated user's choice on a post.
type Vote struct {
	ID        int       `gorm:"primaryKey" json:"id"`
	PostID    int       `gorm:"not null;uniqueIndex:idx_post_voter" json:"post_id"`
	UserID    int       `gorm:"not null;uniqueIndex:idx_post_voter" json:"user_id"`
	Choice    Choice    `gorm:"size:10;not null" json:"choice"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Tally struct {
	Left    int `json:"left"`
	Neutral int `json:"neutral"`
	Right   int `json:"right"`
	Total   int `json:"total"`
}

// Share is the display width of a bucket. The +1 keeps every bucket visible
// and avoids dividing by zero on an unvoted post.
func Share(bucket, total int) float64 {
	return float64(bucket+1) / float64(total+1)
}

type Shares struct {
	Left    float64 `json:"left"`
	Neutral float64 `json:"neutral"`
	Right   float64 `json:"right"`
}

func (t Tally) Shares() Shares {
	return Shares{
		Left:    Share(t.Left, t.Total),
		Neutral: Share(t.Neutral, t.Total),
		Right:   Share(t.Right, t.Total),
	}
}

type VoteRequest struct {
	Choice string `json:"choice" binding:"required,oneof=left neutral right"`
}
