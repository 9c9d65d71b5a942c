package poster

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Poster is a generated travel poster with its stored image.
type Poster struct {
	ID        uuid.UUID `json:"id"`
	UserID    int64     `json:"-"`
	City      string    `json:"city"`
	Theme     string    `json:"theme"`
	Caption   string    `json:"caption"`
	ImageURL  string    `json:"imageUrl"`
	CreatedAt time.Time `json:"createdAt"`
}

// GenerateRequest carries the poster generation payload.
type GenerateRequest struct {
	City    string `json:"city"`
	Theme   string `json:"theme"`
	Caption string `json:"caption"`
}

// Config bounds poster behavior.
type Config struct {
	Model string
	Size  string
	Style string
}

// Repository persists poster metadata.
type Repository interface {
	Create(ctx context.Context, poster Poster) (Poster, error)
	Get(ctx context.Context, userID int64, id uuid.UUID) (Poster, error)
	List(ctx context.Context, userID int64, limit, offset int) ([]Poster, error)
	Delete(ctx context.Context, userID int64, id uuid.UUID) (Poster, error)
}

// ImageClient generates a single image and returns its base64 payload.
type ImageClient interface {
	GenerateImage(ctx context.Context, model, prompt, size string) (string, error)
}
