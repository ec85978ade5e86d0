package models

import (
	"strings"
	"time"
)

// Categories a post can be filed under.
var Categories = []string{"news", "tech", "sports"}

func ValidCategory(c string) bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

type Post struct {
	ID           int    `gorm:"primaryKey" json:"id"`
	Title        string `gorm:"not null;index" json:"title"`
	Body         string `gorm:"type:text" json:"body"`
	Category     string `gorm:"index;size:20" json:"category"`
	AuthorID     int    `gorm:"index" json:"author_id"`
	AuthorHandle string `gorm:"index;size:30" json:"author_handle"`
	LeftLabel    string `json:"left_label"`
	RightLabel   string `json:"right_label"`

	// MediaRefs holds storage object names joined by commas; use Media().
	MediaRefs string `json:"-"`

	VoteLeft    int `gorm:"default:0;not null" json:"-"`
	VoteNeutral int `gorm:"default:0;not null" json:"-"`
	VoteRight   int `gorm:"default:0;not null" json:"-"`
	VoteTotal   int `gorm:"default:0;not null;index" json:"-"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Post) Media() []string {
	if p.MediaRefs == "" {
		return []string{}
	}
	return strings.Split(p.MediaRefs, ",")
}

func (p *Post) SetMedia(refs []string) {
	p.MediaRefs = strings.Join(refs, ",")
}

func (p *Post) Tally() Tally {
	return Tally{Left: p.VoteLeft, Neutral: p.VoteNeutral, Right: p.VoteRight, Total: p.VoteTotal}
}

type CreatePostRequest struct {
	Title      string   `json:"title" binding:"required,max=300"`
	Body       string   `json:"body" binding:"required"`
	Category   string   `json:"category" binding:"required,oneof=news tech sports"`
	LeftLabel  string   `json:"left_label" binding:"required,max=60"`
	RightLabel string   `json:"right_label" binding:"required,max=60"`
	MediaRefs  []string `json:"media_refs"`
}

type UpdatePostRequest struct {
	Title    string `json:"title" binding:"max=300"`
	Body     string `json:"body"`
	Category string `json:"category" binding:"omitempty,oneof=news tech sports"`
}
