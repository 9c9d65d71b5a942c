package posterrepo

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/weiluo/roamstory/internal/domain/poster"
)

// MemoryRepository keeps poster metadata in memory.
type MemoryRepository struct {
	mu      sync.RWMutex
	posters map[uuid.UUID]poster.Poster
	order   []uuid.UUID
}

// NewMemoryRepository constructs an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{posters: make(map[uuid.UUID]poster.Poster)}
}

// Create stores the poster.
func (r *MemoryRepository) Create(_ context.Context, p poster.Poster) (poster.Poster, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.posters[p.ID] = p
	r.order = append(r.order, p.ID)
	return p, nil
}

// Get fetches the poster for its owner.
func (r *MemoryRepository) Get(_ context.Context, userID int64, id uuid.UUID) (poster.Poster, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.posters[id]
	if !ok || p.UserID != userID {
		return poster.Poster{}, poster.ErrNotFound
	}
	return p, nil
}

// List returns the newest posters first.
func (r *MemoryRepository) List(_ context.Context, userID int64, limit, offset int) ([]poster.Poster, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]poster.Poster, 0)
	for i := len(r.order) - 1; i >= 0; i-- {
		p, ok := r.posters[r.order[i]]
		if !ok || p.UserID != userID {
			continue
		}
		out = append(out, p)
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

// Delete removes and returns the poster.
func (r *MemoryRepository) Delete(_ context.Context, userID int64, id uuid.UUID) (poster.Poster, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posters[id]
	if !ok || p.UserID != userID {
		return poster.Poster{}, poster.ErrNotFound
	}
	delete(r.posters, id)
	return p, nil
}

var _ poster.Repository = (*MemoryRepository)(nil)
