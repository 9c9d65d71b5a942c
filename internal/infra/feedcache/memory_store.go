package feedcache

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/weiluo/roamstory/internal/domain/community"
)

// MemoryStore is the in-process like store used when Valkey is unavailable.
type MemoryStore struct {
	mu     sync.RWMutex
	voters map[uuid.UUID]map[int64]struct{}
}

// NewMemoryStore constructs an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{voters: make(map[uuid.UUID]map[int64]struct{})}
}

// Like records the vote, reporting whether it was new.
func (s *MemoryStore) Like(_ context.Context, postID uuid.UUID, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.voters[postID]
	if !ok {
		set = make(map[int64]struct{})
		s.voters[postID] = set
	}
	if _, exists := set[userID]; exists {
		return false, nil
	}
	set[userID] = struct{}{}
	return true, nil
}

// Unlike removes the vote, reporting whether it existed.
func (s *MemoryStore) Unlike(_ context.Context, postID uuid.UUID, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.voters[postID]
	if !ok {
		return false, nil
	}
	if _, exists := set[userID]; !exists {
		return false, nil
	}
	delete(set, userID)
	return true, nil
}

// Count returns the post's like total.
func (s *MemoryStore) Count(_ context.Context, postID uuid.UUID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.voters[postID])), nil
}

// Top ranks posts by likes.
func (s *MemoryStore) Top(_ context.Context, limit int) ([]community.PostLikes, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = 10
	}
	out := make([]community.PostLikes, 0, len(s.voters))
	for id, set := range s.voters {
		if len(set) == 0 {
			continue
		}
		out = append(out, community.PostLikes{PostID: id, Likes: int64(len(set))})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Likes == out[j].Likes {
			return out[i].PostID.String() < out[j].PostID.String()
		}
		return out[i].Likes > out[j].Likes
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Remove drops the post's voters.
func (s *MemoryStore) Remove(_ context.Context, postID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.voters, postID)
	return nil
}

var _ community.LikeStore = (*MemoryStore)(nil)
