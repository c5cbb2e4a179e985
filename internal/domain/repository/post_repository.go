package repository

import (
	"context"
	"errors"
	"fmt"

	"blog_api/internal/common"
	"blog_api/internal/domain/model"

	"github.com/jackc/pgx/v5"
)

type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	FindByID(ctx context.Context, id string) (*model.Post, error)
	// List returns one page ordered by creation time, newest first, and the total count.
	List(ctx context.Context, limit, offset int) ([]model.Post, int, error)
	Update(ctx context.Context, post *model.Post) error
	// Delete removes the post; its comments go with it.
	Delete(ctx context.Context, id string) error
}

type pgPostRepository struct {
	db DBTX
}

func NewPgPostRepository(db DBTX) PostRepository {
	return &pgPostRepository{db: db}
}

const postSelect = `
        SELECT p.id, p.title, p.slug, p.content, p.is_published, p.published_at, p.image_url,
               p.created_at, p.updated_at, ` + userColumns + `
        FROM posts p
        JOIN users u ON u.id = p.author_id`

func (r *pgPostRepository) Create(ctx context.Context, p *model.Post) error {
	query := `INSERT INTO posts (id, title, slug, content, is_published, published_at, image_url, author_id)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING created_at, updated_at`
	err := r.db.QueryRow(ctx, query, p.ID, p.Title, p.Slug, p.Content, p.IsPublished, p.PublishedAt, p.ImageURL, p.Author.ID).
		Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if common.IsUniqueViolation(err) { // Unique constraint for slug
			return common.NewError(common.ErrConflict, "Post with this slug already exists")
		}
		return fmt.Errorf("pgPostRepository.Create: %w", err)
	}
	return nil
}

func (r *pgPostRepository) FindByID(ctx context.Context, id string) (*model.Post, error) {
	post, err := scanPost(r.db.QueryRow(ctx, postSelect+` WHERE p.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NewError(common.ErrNotFound, "Post not found")
		}
		return nil, fmt.Errorf("pgPostRepository.FindByID: %w", err)
	}
	return post, nil
}

func (r *pgPostRepository) List(ctx context.Context, limit, offset int) ([]model.Post, int, error) {
	offset = max(offset, 0)
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM posts`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgPostRepository.List count: %w", err)
	}

	rows, err := r.db.Query(ctx, postSelect+` ORDER BY p.created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("pgPostRepository.List query: %w", err)
	}
	defer rows.Close()

	posts := []model.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("pgPostRepository.List scan: %w", err)
		}
		posts = append(posts, *p)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("pgPostRepository.List rows.Err: %w", err)
	}
	return posts, total, nil
}

func (r *pgPostRepository) Update(ctx context.Context, p *model.Post) error {
	query := `UPDATE posts SET
                title = $1, slug = $2, content = $3, is_published = $4, published_at = $5,
                image_url = $6, updated_at = CURRENT_TIMESTAMP
              WHERE id = $7
              RETURNING updated_at`
	err := r.db.QueryRow(ctx, query, p.Title, p.Slug, p.Content, p.IsPublished, p.PublishedAt, p.ImageURL, p.ID).
		Scan(&p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return common.NewError(common.ErrNotFound, "Post not found")
		}
		if common.IsUniqueViolation(err) {
			return common.NewError(common.ErrConflict, "Post with this slug already exists")
		}
		return fmt.Errorf("pgPostRepository.Update: %w", err)
	}
	return nil
}

func (r *pgPostRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgPostRepository.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.NewError(common.ErrNotFound, "Post not found")
	}
	return nil
}

func scanPost(row pgx.Row) (*model.Post, error) {
	p := &model.Post{}
	a := &p.Author
	err := row.Scan(
		&p.ID, &p.Title, &p.Slug, &p.Content, &p.IsPublished, &p.PublishedAt, &p.ImageURL,
		&p.CreatedAt, &p.UpdatedAt,
		&a.ID, &a.Email, &a.HashedPassword, &a.FirstName, &a.LastName, &a.Role, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}
