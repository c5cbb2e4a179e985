package service

import (
	"context"
	"errors"
	"log/slog"

	"blog_api/internal/common"
	"blog_api/internal/common/validation"
	"blog_api/internal/domain/model"
	"blog_api/internal/domain/policy"
	"blog_api/internal/domain/repository"

	"github.com/google/uuid"
)

type CommentService struct {
	comments repository.CommentRepository
	posts    repository.PostRepository
	users    repository.UserRepository
	logger   *slog.Logger
}

func NewCommentService(
	comments repository.CommentRepository,
	posts repository.PostRepository,
	users repository.UserRepository,
	logger *slog.Logger,
) *CommentService {
	return &CommentService{comments: comments, posts: posts, users: users, logger: logger}
}

type CreateCommentRequest struct {
	Content string `json:"content"`
	PostID  string `json:"postId"`
}

func (r CreateCommentRequest) Validate() validation.Result {
	var res validation.Result
	res.Required("content", r.Content)
	res.Required("postId", r.PostID)
	return res
}

type UpdateCommentRequest struct {
	Content string `json:"content"`
}

func (r UpdateCommentRequest) Validate() validation.Result {
	var res validation.Result
	res.Required("content", r.Content)
	return res
}

func (s *CommentService) Create(ctx context.Context, req CreateCommentRequest, actor model.Actor) (*model.Comment, error) {
	if !policy.CanComment(actor) {
		return nil, common.NewError(common.ErrUnauthorized, "Authorization token required")
	}
	if err := parseID(req.PostID, "post"); err != nil {
		return nil, err
	}
	if _, err := s.posts.FindByID(ctx, req.PostID); err != nil {
		return nil, internalError(ctx, s.logger, "CommentService.Create post", err)
	}
	author, err := s.users.FindByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.NewError(common.ErrUnauthorized, "Unknown author")
		}
		return nil, internalError(ctx, s.logger, "CommentService.Create author", err)
	}

	comment := &model.Comment{
		ID:      uuid.NewString(),
		Content: req.Content,
		PostID:  req.PostID,
		Author:  *author,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, internalError(ctx, s.logger, "CommentService.Create", err)
	}
	comment.Author = *author
	return comment, nil
}

func (s *CommentService) FindAllByPost(ctx context.Context, postID string) ([]model.Comment, error) {
	if err := parseID(postID, "post"); err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByPost(ctx, postID)
	if err != nil {
		return nil, internalError(ctx, s.logger, "CommentService.FindAllByPost", err)
	}
	return comments, nil
}

func (s *CommentService) loadOwned(ctx context.Context, id string, actor model.Actor) (*model.Comment, error) {
	if err := parseID(id, "comment"); err != nil {
		return nil, err
	}
	comment, err := s.comments.FindByID(ctx, id)
	if err != nil {
		return nil, internalError(ctx, s.logger, "CommentService.FindByID", err)
	}
	if !policy.CanMutate(actor, comment.Author.ID) {
		return nil, common.NewError(common.ErrForbidden, "You can only modify your own comments")
	}
	return comment, nil
}

func (s *CommentService) Update(ctx context.Context, id string, req UpdateCommentRequest, actor model.Actor) (*model.Comment, error) {
	comment, err := s.loadOwned(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	comment.Content = req.Content
	if err := s.comments.Update(ctx, comment); err != nil {
		return nil, internalError(ctx, s.logger, "CommentService.Update", err)
	}
	return comment, nil
}

func (s *CommentService) Remove(ctx context.Context, id string, actor model.Actor) error {
	if _, err := s.loadOwned(ctx, id, actor); err != nil {
		return err
	}
	if err := s.comments.Delete(ctx, id); err != nil {
		return internalError(ctx, s.logger, "CommentService.Remove", err)
	}
	return nil
}
