package communityrepo

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/weiluo/roamstory/internal/domain/community"
)

// MemoryRepository keeps posts in memory for dev runs without Postgres.
type MemoryRepository struct {
	mu    sync.RWMutex
	posts map[uuid.UUID]community.Post
	order []uuid.UUID
}

// NewMemoryRepository constructs an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{posts: make(map[uuid.UUID]community.Post)}
}

// Create stores the post.
func (r *MemoryRepository) Create(_ context.Context, post community.Post) (community.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.posts[post.ID] = post
	r.order = append(r.order, post.ID)
	return post, nil
}

// Get fetches a post by ID.
func (r *MemoryRepository) Get(_ context.Context, id uuid.UUID) (community.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	post, ok := r.posts[id]
	if !ok {
		return community.Post{}, community.ErrNotFound
	}
	return post, nil
}

// List returns the newest posts first, optionally filtered by city.
func (r *MemoryRepository) List(_ context.Context, city string, limit, offset int) ([]community.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]community.Post, 0)
	for i := len(r.order) - 1; i >= 0; i-- {
		post, ok := r.posts[r.order[i]]
		if !ok {
			continue
		}
		if city != "" && post.City != city {
			continue
		}
		out = append(out, post)
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Delete removes the post when owned by userID.
func (r *MemoryRepository) Delete(_ context.Context, userID int64, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[id]
	if !ok || post.UserID != userID {
		return community.ErrNotFound
	}
	delete(r.posts, id)
	return nil
}

var _ community.Repository = (*MemoryRepository)(nil)
