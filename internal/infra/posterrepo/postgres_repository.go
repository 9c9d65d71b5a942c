package posterrepo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/weiluo/roamstory/internal/domain/poster"
)

// PostgresRepository persists poster metadata in Postgres.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs the adapter.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Create inserts the poster row.
func (r *PostgresRepository) Create(ctx context.Context, p poster.Poster) (poster.Poster, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO posters (id, user_id, city, theme, caption, image_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, user_id, city, theme, caption, image_url, created_at
	`, p.ID, p.UserID, p.City, p.Theme, p.Caption, p.ImageURL, p.CreatedAt)
	return scanPoster(row)
}

// Get fetches a poster scoped to its owner.
func (r *PostgresRepository) Get(ctx context.Context, userID int64, id uuid.UUID) (poster.Poster, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, user_id, city, theme, caption, image_url, created_at
		FROM posters
		WHERE id = $1 AND user_id = $2
	`, id, userID)
	p, err := scanPoster(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return poster.Poster{}, poster.ErrNotFound
	}
	return p, err
}

// List returns the newest posters first.
func (r *PostgresRepository) List(ctx context.Context, userID int64, limit, offset int) ([]poster.Poster, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, city, theme, caption, image_url, created_at
		FROM posters
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posters := make([]poster.Poster, 0)
	for rows.Next() {
		p, err := scanPoster(rows)
		if err != nil {
			return nil, err
		}
		posters = append(posters, p)
	}
	return posters, rows.Err()
}

// Delete removes the row and returns it so callers can clean up storage.
func (r *PostgresRepository) Delete(ctx context.Context, userID int64, id uuid.UUID) (poster.Poster, error) {
	row := r.pool.QueryRow(ctx, `
		DELETE FROM posters
		WHERE id = $1 AND user_id = $2
		RETURNING id, user_id, city, theme, caption, image_url, created_at
	`, id, userID)
	p, err := scanPoster(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return poster.Poster{}, poster.ErrNotFound
	}
	return p, err
}

var _ poster.Repository = (*PostgresRepository)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPoster(row rowScanner) (poster.Poster, error) {
	var p poster.Poster
	err := row.Scan(&p.ID, &p.UserID, &p.City, &p.Theme, &p.Caption, &p.ImageURL, &p.CreatedAt)
	if err != nil {
		return poster.Poster{}, err
	}
	p.CreatedAt = p.CreatedAt.UTC()
	return p, nil
}
