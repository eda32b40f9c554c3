package service

import (
	"context"
	"strings"

	"github.com/gbi46/photo-share/internal/authz"
	"github.com/gbi46/photo-share/internal/domain"
	"github.com/gbi46/photo-share/internal/repo"
	"github.com/gbi46/photo-share/pkg/qr"
)

type PostOptions struct {
	MaxTags int
	BaseURL string // 分享链接前缀
}

type PostService struct {
	posts *repo.PostRepo
	opts  PostOptions
}

func NewPostService(posts *repo.PostRepo, opts PostOptions) *PostService {
	if opts.MaxTags <= 0 {
		opts.MaxTags = 5
	}
	return &PostService{posts: posts, opts: opts}
}

type PostCreateInput struct {
	Title       string
	Description string
	ImageURL    string
	Tags        []string
}

type PostView struct {
	*domain.Post
	AvgRating   float64 `json:"avgRating"`
	RatingCount int     `json:"ratingCount"`
}

func (s *PostService) Create(ctx context.Context, author *domain.User, in PostCreateInput) (*PostView, error) {
	tags := dedupeTags(in.Tags)
	if len(tags) > s.opts.MaxTags {
		return nil, ErrTooManyTags
	}
	post := &domain.Post{
		UserID:      author.ID,
		Title:       in.Title,
		Description: in.Description,
		ImageURL:    in.ImageURL,
	}
	if err := s.posts.Create(ctx, post, tags); err != nil {
		return nil, err
	}
	return s.Get(ctx, post.ID)
}

func (s *PostService) Get(ctx context.Context, id string) (*PostView, error) {
	p, err := s.posts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &authz.NotFoundError{Kind: "post"}
	}
	return toView(p), nil
}

func (s *PostService) List(ctx context.Context, offset, limit int) ([]PostView, int64, error) {
	posts, total, err := s.posts.List(ctx, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	views := make([]PostView, 0, len(posts))
	for i := range posts {
		views = append(views, *toView(&posts[i]))
	}
	return views, total, nil
}

// UpdateDescription 调用方需先过访问决策
func (s *PostService) UpdateDescription(ctx context.Context, id, description string) (*PostView, error) {
	if _, err := s.posts.UpdateDescription(ctx, id, description); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *PostService) Delete(ctx context.Context, id string) error {
	ok, err := s.posts.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return &authz.NotFoundError{Kind: "post"}
	}
	return nil
}

func (s *PostService) Rate(ctx context.Context, postID, userID string, rating int) (*PostView, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}
	p, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &authz.NotFoundError{Kind: "post"}
	}
	if err := s.posts.Rate(ctx, postID, userID, rating); err != nil {
		return nil, err
	}
	return s.Get(ctx, postID)
}

type ShareQR struct {
	QRCode    string `json:"qr_code"`
	QRCodeURL string `json:"qr_code_url"`
}

// ShareLink 帖子分享链接的二维码（data URI）
func (s *PostService) ShareLink(ctx context.Context, postID string) (*ShareQR, error) {
	p, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &authz.NotFoundError{Kind: "post"}
	}
	url := strings.TrimRight(s.opts.BaseURL, "/") + "/posts/" + p.ID
	code, err := qr.DataURI(url)
	if err != nil {
		return nil, err
	}
	return &ShareQR{QRCode: code, QRCodeURL: url}, nil
}

func toView(p *domain.Post) *PostView {
	avg, count := repo.AvgRating(p.Ratings)
	return &PostView{Post: p, AvgRating: avg, RatingCount: count}
}

func dedupeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
