package content

import (
	"context"
	"strings"

	"github.com/pigjjun/board/backend/internal/live"
	"github.com/pigjjun/board/backend/internal/media"
	"github.com/pigjjun/board/backend/internal/models"
)

const PageSize = 10

// PostView is a post as rendered to clients.
type PostView struct {
	models.Post
	Media  []string      `json:"media_refs"`
	Tally  models.Tally  `json:"tally"`
	Shares models.Shares `json:"shares"`
}

func viewOf(p models.Post) PostView {
	t := p.Tally()
	return PostView{Post: p, Media: p.Media(), Tally: t, Shares: t.Shares()}
}

func viewsOf(posts []models.Post) []PostView {
	out := make([]PostView, 0, len(posts))
	for _, p := range posts {
		out = append(out, viewOf(p))
	}
	return out
}

type Sort string

const (
	SortRecent  Sort = "recent"
	SortPopular Sort = "popular"
)

type ListQuery struct {
	Category string
	Sort     Sort
	Page     int // 1-based
}

type Page struct {
	Posts      []PostView `json:"posts"`
	Page       int        `json:"page"`
	TotalPages int        `json:"total_pages"`
	Total      int64      `json:"total"`
}

func (s *Service) CreatePost(ctx context.Context, authorID int, req models.CreatePostRequest) (*PostView, error) {
	if !models.ValidCategory(req.Category) {
		return nil, ErrInvalidCategory
	}
	author, err := s.loadUser(ctx, authorID)
	if err != nil {
		return nil, err
	}
	if err := media.CheckRefs(ctx, s.media, req.MediaRefs...); err != nil {
		return nil, err
	}

	post := models.Post{
		Title:        sanitizeTitle(req.Title),
		Body:         sanitizeBody(req.Body),
		Category:     req.Category,
		AuthorID:     author.ID,
		AuthorHandle: author.Handle,
		LeftLabel:    sanitizeTitle(req.LeftLabel),
		RightLabel:   sanitizeTitle(req.RightLabel),
	}
	post.SetMedia(req.MediaRefs)

	if err := s.db.WithContext(ctx).Create(&post).Error; err != nil {
		return nil, err
	}
	v := viewOf(post)
	return &v, nil
}

func (s *Service) GetPost(ctx context.Context, id int) (*PostView, error) {
	var post models.Post
	if err := s.db.WithContext(ctx).First(&post, id).Error; err != nil {
		return nil, notFound(err, "post")
	}
	v := viewOf(post)
	return &v, nil
}

// CanModifyPost returns ErrNotFound or ErrForbidden unless userID wrote the post.
func (s *Service) CanModifyPost(ctx context.Context, postID, userID int) error {
	var post models.Post
	if err := s.db.WithContext(ctx).Select("id", "author_id").First(&post, postID).Error; err != nil {
		return notFound(err, "post")
	}
	if post.AuthorID != userID {
		return ErrForbidden
	}
	return nil
}

// UpdatePost changes the non-empty fields of req on a post owned by userID.
func (s *Service) UpdatePost(ctx context.Context, postID, userID int, req models.UpdatePostRequest) (*PostView, error) {
	if err := s.CanModifyPost(ctx, postID, userID); err != nil {
		return nil, err
	}
	if req.Category != "" && !models.ValidCategory(req.Category) {
		return nil, ErrInvalidCategory
	}

	updates := map[string]any{}
	if req.Title != "" {
		updates["title"] = sanitizeTitle(req.Title)
	}
	if req.Body != "" {
		updates["body"] = sanitizeBody(req.Body)
	}
	if req.Category != "" {
		updates["category"] = req.Category
	}
	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&models.Post{ID: postID}).Updates(updates).Error; err != nil {
			return nil, err
		}
	}

	post, err := s.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, postID, live.PostUpdated, post)
	return post, nil
}

func (s *Service) ListPosts(ctx context.Context, q ListQuery) (*Page, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	tx := s.db.WithContext(ctx).Model(&models.Post{})
	if q.Category != "" {
		if !models.ValidCategory(q.Category) {
			return nil, ErrInvalidCategory
		}
		tx = tx.Where("category = ?", q.Category)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, err
	}

	switch q.Sort {
	case SortPopular:
		tx = tx.Order("vote_total desc").Order("created_at desc")
	default:
		tx = tx.Order("created_at desc").Order("id desc")
	}

	var posts []models.Post
	if err := tx.Offset((q.Page - 1) * PageSize).Limit(PageSize).Find(&posts).Error; err != nil {
		return nil, err
	}

	return &Page{
		Posts:      viewsOf(posts),
		Page:       q.Page,
		TotalPages: int((total + PageSize - 1) / PageSize),
		Total:      total,
	}, nil
}

// TopPosts returns the n posts with the most voters.
func (s *Service) TopPosts(ctx context.Context, n int) ([]PostView, error) {
	if n <= 0 || n > 50 {
		n = 3
	}
	var posts []models.Post
	err := s.db.WithContext(ctx).
		Order("vote_total desc").Order("created_at desc").
		Limit(n).Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return viewsOf(posts), nil
}

func (s *Service) PostsByAuthor(ctx context.Context, userID int) ([]PostView, error) {
	var posts []models.Post
	err := s.db.WithContext(ctx).
		Where("author_id = ?", userID).
		Order("created_at desc").Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return viewsOf(posts), nil
}

type UserSummary struct {
	ID          int    `json:"id"`
	Handle      string `json:"handle"`
	DisplayName string `json:"display_name"`
	PhotoRef    string `json:"photo_ref"`
}

type SearchResult struct {
	Posts []PostView    `json:"posts"`
	Users []UserSummary `json:"users"`
}

// likeEscaper escapes LIKE wildcards for use with ESCAPE '!'.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func prefixPattern(term string) string {
	return likeEscaper.Replace(strings.ToLower(term)) + "%"
}

// Search prefix-matches term against post titles, post author handles and
// user handles, ignoring case. A post matching on both fields is returned once.
func (s *Service) Search(ctx context.Context, term string) (*SearchResult, error) {
	res := &SearchResult{Posts: []PostView{}, Users: []UserSummary{}}
	term = strings.TrimSpace(term)
	if term == "" {
		return res, nil
	}
	// titles are stored escaped
	titlePrefix := prefixPattern(sanitizeTitle(term))
	prefix := prefixPattern(term)

	var posts []models.Post
	err := s.db.WithContext(ctx).
		Where("LOWER(title) LIKE ? ESCAPE '!' OR LOWER(author_handle) LIKE ? ESCAPE '!'", titlePrefix, prefix).
		Order("created_at desc").Limit(50).Find(&posts).Error
	if err != nil {
		return nil, err
	}
	res.Posts = viewsOf(posts)

	err = s.db.WithContext(ctx).Model(&models.User{}).
		Select("id", "handle", "display_name", "photo_ref").
		Where("LOWER(handle) LIKE ? ESCAPE '!'", prefix).
		Order("handle").Limit(20).Scan(&res.Users).Error
	if err != nil {
		return nil, err
	}
	return res, nil
}
