package community

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a post does not exist.
var ErrNotFound = errors.New("post not found")

// Repository persists community posts.
type Repository interface {
	Create(ctx context.Context, post Post) (Post, error)
	Get(ctx context.Context, id uuid.UUID) (Post, error)
	List(ctx context.Context, city string, limit, offset int) ([]Post, error)
	Delete(ctx context.Context, userID int64, id uuid.UUID) error
}

// LikeStore tracks per-user likes and the trending ranking. Like and
// Unlike report whether the operation changed state, so double likes
// stay idempotent.
type LikeStore interface {
	Like(ctx context.Context, postID uuid.UUID, userID int64) (bool, error)
	Unlike(ctx context.Context, postID uuid.UUID, userID int64) (bool, error)
	Count(ctx context.Context, postID uuid.UUID) (int64, error)
	Top(ctx context.Context, limit int) ([]PostLikes, error)
	Remove(ctx context.Context, postID uuid.UUID) error
}
