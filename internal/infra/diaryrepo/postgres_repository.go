package diaryrepo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/weiluo/roamstory/internal/domain/diary"
)

// PostgresRepository persists diary entries with a pgvector embedding column.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs the adapter.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Create inserts the entry with its optional embedding.
func (r *PostgresRepository) Create(ctx context.Context, entry diary.Entry, embedding []float32) (diary.Entry, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO diary_entries (id, user_id, title, body, city, photo_url, embedding, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, user_id, title, body, city, photo_url, created_at, updated_at
	`, entry.ID, entry.UserID, entry.Title, entry.Body, entry.City, entry.PhotoURL,
		vectorOrNil(embedding), entry.CreatedAt, entry.UpdatedAt)
	return scanEntry(row)
}

// Get fetches a single entry scoped to its owner.
func (r *PostgresRepository) Get(ctx context.Context, userID int64, id uuid.UUID) (diary.Entry, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, user_id, title, body, city, photo_url, created_at, updated_at
		FROM diary_entries
		WHERE id = $1 AND user_id = $2
	`, id, userID)
	entry, err := scanEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return diary.Entry{}, diary.ErrNotFound
	}
	return entry, err
}

// List returns the newest entries first.
func (r *PostgresRepository) List(ctx context.Context, userID int64, limit, offset int) ([]diary.Entry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, title, body, city, photo_url, created_at, updated_at
		FROM diary_entries
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]diary.Entry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Update rewrites the mutable fields and the embedding.
func (r *PostgresRepository) Update(ctx context.Context, entry diary.Entry, embedding []float32) (diary.Entry, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE diary_entries
		SET title = $3, body = $4, city = $5, embedding = $6, updated_at = $7
		WHERE id = $1 AND user_id = $2
		RETURNING id, user_id, title, body, city, photo_url, created_at, updated_at
	`, entry.ID, entry.UserID, entry.Title, entry.Body, entry.City,
		vectorOrNil(embedding), entry.UpdatedAt)
	updated, err := scanEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return diary.Entry{}, diary.ErrNotFound
	}
	return updated, err
}

// SetPhotoURL records the uploaded photo location.
func (r *PostgresRepository) SetPhotoURL(ctx context.Context, userID int64, id uuid.UUID, photoURL string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE diary_entries SET photo_url = $3, updated_at = now()
		WHERE id = $1 AND user_id = $2
	`, id, userID, photoURL)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return diary.ErrNotFound
	}
	return nil
}

// Delete removes the entry.
func (r *PostgresRepository) Delete(ctx context.Context, userID int64, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM diary_entries WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return diary.ErrNotFound
	}
	return nil
}

// SearchByEmbedding returns the k nearest entries by L2 distance.
func (r *PostgresRepository) SearchByEmbedding(ctx context.Context, userID int64, embedding []float32, k int) ([]diary.SearchResult, error) {
	if len(embedding) == 0 {
		return nil, nil
	}
	if k <= 0 {
		k = 10
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, title, body, city, photo_url, created_at, updated_at,
		       (1.0 / (1.0 + (embedding <-> $2))) AS score
		FROM diary_entries
		WHERE user_id = $1 AND embedding IS NOT NULL
		ORDER BY (embedding <-> $2) ASC
		LIMIT $3
	`, userID, pgvector.NewVector(embedding), k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]diary.SearchResult, 0)
	for rows.Next() {
		var (
			entry diary.Entry
			photo *string
			score float64
		)
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.Title, &entry.Body, &entry.City,
			&photo, &entry.CreatedAt, &entry.UpdatedAt, &score); err != nil {
			return nil, err
		}
		if photo != nil {
			entry.PhotoURL = *photo
		}
		results = append(results, diary.SearchResult{Entry: entry, Score: score})
	}
	return results, rows.Err()
}

var _ diary.Repository = (*PostgresRepository)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (diary.Entry, error) {
	var entry diary.Entry
	var photo *string
	err := row.Scan(&entry.ID, &entry.UserID, &entry.Title, &entry.Body, &entry.City,
		&photo, &entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		return diary.Entry{}, err
	}
	if photo != nil {
		entry.PhotoURL = *photo
	}
	entry.CreatedAt = entry.CreatedAt.UTC()
	entry.UpdatedAt = entry.UpdatedAt.UTC()
	return entry, nil
}

func vectorOrNil(embedding []float32) any {
	if len(embedding) == 0 {
		return nil
	}
	return pgvector.NewVector(embedding)
}
