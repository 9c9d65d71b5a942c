package diary

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when an entry does not exist or belongs to
// another user.
var ErrNotFound = errors.New("diary entry not found")

// Repository persists diary entries and their embeddings.
type Repository interface {
	Create(ctx context.Context, entry Entry, embedding []float32) (Entry, error)
	Get(ctx context.Context, userID int64, id uuid.UUID) (Entry, error)
	List(ctx context.Context, userID int64, limit, offset int) ([]Entry, error)
	Update(ctx context.Context, entry Entry, embedding []float32) (Entry, error)
	SetPhotoURL(ctx context.Context, userID int64, id uuid.UUID, photoURL string) error
	Delete(ctx context.Context, userID int64, id uuid.UUID) error
	SearchByEmbedding(ctx context.Context, userID int64, embedding []float32, k int) ([]SearchResult, error)
}

// Embedder turns texts into vectors for similarity search.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
