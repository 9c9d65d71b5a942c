package community

import (
	"time"

	"github.com/google/uuid"
)

// Post is a shared travel note on the community feed.
type Post struct {
	ID        uuid.UUID `json:"id"`
	UserID    int64     `json:"userId"`
	Nickname  string    `json:"nickname"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	City      string    `json:"city"`
	LikeCount int64     `json:"likeCount"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreateRequest carries a new post payload.
type CreateRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	City  string `json:"city"`
}

// PostLikes pairs a post ID with its like total, used for trending.
type PostLikes struct {
	PostID uuid.UUID
	Likes  int64
}

// Config bounds community behavior.
type Config struct {
	FeedPageSize int
	TrendingSize int
}
