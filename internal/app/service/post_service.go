package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"blog_api/internal/common"
	"blog_api/internal/common/validation"
	"blog_api/internal/domain/model"
	"blog_api/internal/domain/policy"
	"blog_api/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

const coverImageURL = "https://source.unsplash.com/random/800x600?technology&sig=%d"

type PostService struct {
	posts  repository.PostRepository
	users  repository.UserRepository
	logger *slog.Logger
	now    func() time.Time
}

func NewPostService(posts repository.PostRepository, users repository.UserRepository, logger *slog.Logger) *PostService {
	return &PostService{posts: posts, users: users, logger: logger, now: time.Now}
}

type CreatePostRequest struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	Slug        string `json:"slug,omitempty"`
	IsPublished bool   `json:"isPublished"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

func (r CreatePostRequest) Validate() validation.Result {
	var res validation.Result
	res.Required("title", r.Title)
	res.Required("content", r.Content)
	return res
}

type UpdatePostRequest struct {
	Title       *string `json:"title,omitempty"`
	Content     *string `json:"content,omitempty"`
	Slug        *string `json:"slug,omitempty"`
	IsPublished *bool   `json:"isPublished,omitempty"`
	ImageURL    *string `json:"imageUrl,omitempty"`
}

func (r UpdatePostRequest) Validate() validation.Result {
	var res validation.Result
	if r.Title != nil {
		res.Required("title", *r.Title)
	}
	if r.Content != nil {
		res.Required("content", *r.Content)
	}
	if r.Slug != nil {
		res.Required("slug", *r.Slug)
	}
	return res
}

type PostPage struct {
	Items []model.Post
	Total int
	Page  int
	Limit int
}

// NormalizePaging fills defaults, clamps limit to MaxPageLimit and caps page
// so that the resulting offset fits in an int.
func NormalizePaging(page, limit int) (int, int) {
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	if page < 1 {
		page = 1
	}
	if maxPage := math.MaxInt / limit; page > maxPage {
		page = maxPage
	}
	return page, limit
}

func (s *PostService) Create(ctx context.Context, req CreatePostRequest, actor model.Actor) (*model.Post, error) {
	if !policy.CanCreatePost(actor) {
		return nil, common.NewError(common.ErrForbidden, "Only admins can create posts")
	}
	author, err := s.users.FindByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.NewError(common.ErrUnauthorized, "Unknown author")
		}
		return nil, internalError(ctx, s.logger, "PostService.Create author", err)
	}

	id := uuid.NewString()
	post := &model.Post{
		ID:          id,
		Title:       req.Title,
		Slug:        generateSlug(req.Slug, req.Title, id),
		Content:     req.Content,
		IsPublished: req.IsPublished,
		ImageURL:    req.ImageURL,
		Author:      *author,
	}
	if post.ImageURL == "" {
		post.ImageURL = fmt.Sprintf(coverImageURL, rand.IntN(1000))
	}
	if post.IsPublished {
		now := s.now().UTC()
		post.PublishedAt = &now
	}

	if err := s.posts.Create(ctx, post); err != nil {
		return nil, internalError(ctx, s.logger, "PostService.Create", err)
	}
	post.Author = *author
	s.logger.InfoContext(ctx, "post created", "post_id", post.ID, "author_id", actor.ID)
	return post, nil
}

// generateSlug keeps an explicit slug (normalized) and otherwise derives one
// from the title with a short id suffix so equal titles do not collide.
func generateSlug(explicit, title, id string) string {
	if explicit != "" {
		if s := slug.Make(explicit); s != "" {
			return s
		}
	}
	suffix := id[:8]
	if base := slug.Make(title); base != "" {
		return base + "-" + suffix
	}
	return suffix
}

func (s *PostService) FindAll(ctx context.Context, page, limit int) (*PostPage, error) {
	page, limit = NormalizePaging(page, limit)
	posts, total, err := s.posts.List(ctx, limit, (page-1)*limit)
	if err != nil {
		return nil, internalError(ctx, s.logger, "PostService.FindAll", err)
	}
	return &PostPage{Items: posts, Total: total, Page: page, Limit: limit}, nil
}

func (s *PostService) FindOne(ctx context.Context, id string) (*model.Post, error) {
	if err := parseID(id, "post"); err != nil {
		return nil, err
	}
	post, err := s.posts.FindByID(ctx, id)
	if err != nil {
		return nil, internalError(ctx, s.logger, "PostService.FindOne", err)
	}
	return post, nil
}

// loadOwned fetches the post and checks actor may mutate it.
func (s *PostService) loadOwned(ctx context.Context, id string, actor model.Actor) (*model.Post, error) {
	post, err := s.FindOne(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanMutate(actor, post.Author.ID) {
		return nil, common.NewError(common.ErrForbidden, "You can only modify your own posts")
	}
	return post, nil
}

func (s *PostService) Update(ctx context.Context, id string, req UpdatePostRequest, actor model.Actor) (*model.Post, error) {
	post, err := s.loadOwned(ctx, id, actor)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		post.Title = *req.Title
	}
	if req.Content != nil {
		post.Content = *req.Content
	}
	if req.Slug != nil {
		post.Slug = generateSlug(*req.Slug, post.Title, post.ID)
	}
	if req.ImageURL != nil {
		post.ImageURL = *req.ImageURL
	}
	if req.IsPublished != nil && *req.IsPublished != post.IsPublished {
		post.IsPublished = *req.IsPublished
		if post.IsPublished {
			now := s.now().UTC()
			post.PublishedAt = &now
		} else {
			post.PublishedAt = nil
		}
	}

	author := post.Author
	if err := s.posts.Update(ctx, post); err != nil {
		return nil, internalError(ctx, s.logger, "PostService.Update", err)
	}
	post.Author = author
	return post, nil
}

// Remove deletes the post together with its comments.
func (s *PostService) Remove(ctx context.Context, id string, actor model.Actor) error {
	if _, err := s.loadOwned(ctx, id, actor); err != nil {
		return err
	}
	if err := s.posts.Delete(ctx, id); err != nil {
		return internalError(ctx, s.logger, "PostService.Remove", err)
	}
	s.logger.InfoContext(ctx, "post removed", "post_id", id, "actor_id", actor.ID)
	return nil
}
