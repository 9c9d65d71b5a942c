package communityrepo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/weiluo/roamstory/internal/domain/community"
)

// PostgresRepository persists community posts in Postgres.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs the adapter.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Create inserts the post.
func (r *PostgresRepository) Create(ctx context.Context, post community.Post) (community.Post, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO community_posts (id, user_id, nickname, title, body, city, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, user_id, nickname, title, body, city, created_at
	`, post.ID, post.UserID, post.Nickname, post.Title, post.Body, post.City, post.CreatedAt)
	return scanPost(row)
}

// Get fetches a post by ID.
func (r *PostgresRepository) Get(ctx context.Context, id uuid.UUID) (community.Post, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, user_id, nickname, title, body, city, created_at
		FROM community_posts
		WHERE id = $1
	`, id)
	post, err := scanPost(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return community.Post{}, community.ErrNotFound
	}
	return post, err
}

// List returns the newest posts first, optionally filtered by city.
func (r *PostgresRepository) List(ctx context.Context, city string, limit, offset int) ([]community.Post, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, nickname, title, body, city, created_at
		FROM community_posts
		WHERE ($1 = '' OR city = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, city, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := make([]community.Post, 0)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

// Delete removes the post when owned by userID.
func (r *PostgresRepository) Delete(ctx context.Context, userID int64, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM community_posts WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return community.ErrNotFound
	}
	return nil
}

var _ community.Repository = (*PostgresRepository)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (community.Post, error) {
	var post community.Post
	err := row.Scan(&post.ID, &post.UserID, &post.Nickname, &post.Title, &post.Body, &post.City, &post.CreatedAt)
	if err != nil {
		return community.Post{}, err
	}
	post.CreatedAt = post.CreatedAt.UTC()
	return post, nil
}
