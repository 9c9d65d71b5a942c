package diary

import (
	"time"

	"github.com/google/uuid"
)

// Entry is a single travel diary record.
type Entry struct {
	ID        uuid.UUID `json:"id"`
	UserID    int64     `json:"-"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	City      string    `json:"city"`
	PhotoURL  string    `json:"photoUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CreateRequest carries a new entry payload.
type CreateRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	City  string `json:"city"`
}

// UpdateRequest carries mutable entry fields. Nil means keep the stored value.
type UpdateRequest struct {
	Title *string `json:"title"`
	Body  *string `json:"body"`
	City  *string `json:"city"`
}

// SearchResult pairs an entry with its similarity score. Score is zero when
// the search fell back to recency ordering.
type SearchResult struct {
	Entry Entry   `json:"entry"`
	Score float64 `json:"score,omitempty"`
}

// Config bounds diary behavior.
type Config struct {
	MaxPhotoBytes int64
	SearchLimit   int
}
