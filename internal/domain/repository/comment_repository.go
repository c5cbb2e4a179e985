package repository

import (
	"context"
	"errors"
	"fmt"

	"blog_api/internal/common"
	"blog_api/internal/domain/model"

	"github.com/jackc/pgx/v5"
)

type CommentRepository interface {
	Create(ctx context.Context, comment *model.Comment) error
	FindByID(ctx context.Context, id string) (*model.Comment, error)
	// ListByPost returns a post's comments, newest first.
	ListByPost(ctx context.Context, postID string) ([]model.Comment, error)
	Update(ctx context.Context, comment *model.Comment) error
	Delete(ctx context.Context, id string) error
}

type pgCommentRepository struct {
	db DBTX
}

func NewPgCommentRepository(db DBTX) CommentRepository {
	return &pgCommentRepository{db: db}
}

const commentSelect = `
        SELECT c.id, c.content, c.post_id, c.created_at, ` + userColumns + `
        FROM comments c
        JOIN users u ON u.id = c.author_id`

func (r *pgCommentRepository) Create(ctx context.Context, c *model.Comment) error {
	query := `INSERT INTO comments (id, content, post_id, author_id)
	          VALUES ($1, $2, $3, $4)
	          RETURNING created_at`
	err := r.db.QueryRow(ctx, query, c.ID, c.Content, c.PostID, c.Author.ID).Scan(&c.CreatedAt)
	if err != nil {
		if common.IsForeignKeyViolation(err) { // post removed after the service looked it up
			return common.NewError(common.ErrNotFound, "Post not found")
		}
		return fmt.Errorf("pgCommentRepository.Create: %w", err)
	}
	return nil
}

func (r *pgCommentRepository) FindByID(ctx context.Context, id string) (*model.Comment, error) {
	c, err := scanComment(r.db.QueryRow(ctx, commentSelect+` WHERE c.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NewError(common.ErrNotFound, "Comment not found")
		}
		return nil, fmt.Errorf("pgCommentRepository.FindByID: %w", err)
	}
	return c, nil
}

func (r *pgCommentRepository) ListByPost(ctx context.Context, postID string) ([]model.Comment, error) {
	rows, err := r.db.Query(ctx, commentSelect+` WHERE c.post_id = $1 ORDER BY c.created_at DESC`, postID)
	if err != nil {
		return nil, fmt.Errorf("pgCommentRepository.ListByPost query: %w", err)
	}
	defer rows.Close()

	comments := []model.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("pgCommentRepository.ListByPost scan: %w", err)
		}
		comments = append(comments, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgCommentRepository.ListByPost rows.Err: %w", err)
	}
	return comments, nil
}

func (r *pgCommentRepository) Update(ctx context.Context, c *model.Comment) error {
	tag, err := r.db.Exec(ctx, `UPDATE comments SET content = $1 WHERE id = $2`, c.Content, c.ID)
	if err != nil {
		return fmt.Errorf("pgCommentRepository.Update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.NewError(common.ErrNotFound, "Comment not found")
	}
	return nil
}

func (r *pgCommentRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgCommentRepository.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.NewError(common.ErrNotFound, "Comment not found")
	}
	return nil
}

func scanComment(row pgx.Row) (*model.Comment, error) {
	c := &model.Comment{}
	a := &c.Author
	err := row.Scan(
		&c.ID, &c.Content, &c.PostID, &c.CreatedAt,
		&a.ID, &a.Email, &a.HashedPassword, &a.FirstName, &a.LastName, &a.Role, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}
