package diaryrepo

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/weiluo/roamstory/internal/domain/diary"
)

// MemoryRepository keeps diary entries in memory with brute-force cosine
// search. Used when Postgres is not configured.
type MemoryRepository struct {
	mu         sync.RWMutex
	entries    map[uuid.UUID]diary.Entry
	embeddings map[uuid.UUID][]float32
	order      []uuid.UUID
}

// NewMemoryRepository constructs an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		entries:    make(map[uuid.UUID]diary.Entry),
		embeddings: make(map[uuid.UUID][]float32),
	}
}

// Create stores the entry.
func (r *MemoryRepository) Create(_ context.Context, entry diary.Entry, embedding []float32) (diary.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[entry.ID] = entry
	if len(embedding) > 0 {
		r.embeddings[entry.ID] = append([]float32(nil), embedding...)
	}
	r.order = append(r.order, entry.ID)
	return entry, nil
}

// Get returns the entry for its owner.
func (r *MemoryRepository) Get(_ context.Context, userID int64, id uuid.UUID) (diary.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[id]
	if !ok || entry.UserID != userID {
		return diary.Entry{}, diary.ErrNotFound
	}
	return entry, nil
}

// List returns the newest entries first.
func (r *MemoryRepository) List(_ context.Context, userID int64, limit, offset int) ([]diary.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]diary.Entry, 0)
	for i := len(r.order) - 1; i >= 0; i-- {
		entry, ok := r.entries[r.order[i]]
		if !ok || entry.UserID != userID {
			continue
		}
		out = append(out, entry)
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

// Update rewrites mutable fields, keeping the stored photo URL.
func (r *MemoryRepository) Update(_ context.Context, entry diary.Entry, embedding []float32) (diary.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.entries[entry.ID]
	if !ok || stored.UserID != entry.UserID {
		return diary.Entry{}, diary.ErrNotFound
	}
	entry.PhotoURL = stored.PhotoURL
	entry.CreatedAt = stored.CreatedAt
	r.entries[entry.ID] = entry
	if len(embedding) > 0 {
		r.embeddings[entry.ID] = append([]float32(nil), embedding...)
	} else {
		delete(r.embeddings, entry.ID)
	}
	return entry, nil
}

// SetPhotoURL records the photo location.
func (r *MemoryRepository) SetPhotoURL(_ context.Context, userID int64, id uuid.UUID, photoURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[id]
	if !ok || entry.UserID != userID {
		return diary.ErrNotFound
	}
	entry.PhotoURL = photoURL
	r.entries[id] = entry
	return nil
}

// Delete removes the entry.
func (r *MemoryRepository) Delete(_ context.Context, userID int64, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[id]
	if !ok || entry.UserID != userID {
		return diary.ErrNotFound
	}
	delete(r.entries, id)
	delete(r.embeddings, id)
	return nil
}

// SearchByEmbedding ranks the user's entries by cosine similarity.
func (r *MemoryRepository) SearchByEmbedding(_ context.Context, userID int64, embedding []float32, k int) ([]diary.SearchResult, error) {
	if len(embedding) == 0 {
		return nil, nil
	}
	if k <= 0 {
		k = 10
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	results := make([]diary.SearchResult, 0)
	for id, entry := range r.entries {
		if entry.UserID != userID {
			continue
		}
		vec, ok := r.embeddings[id]
		if !ok {
			continue
		}
		results = append(results, diary.SearchResult{Entry: entry, Score: cosineSimilarity(embedding, vec)})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

var _ diary.Repository = (*MemoryRepository)(nil)

func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
