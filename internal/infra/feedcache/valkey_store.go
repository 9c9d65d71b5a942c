package feedcache

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/valkey-io/valkey-go"

	"github.com/weiluo/roamstory/internal/domain/community"
)

// ValkeyStore tracks likes and the trending ranking in Valkey. Per-post
// voter sets keep likes idempotent; a ZSET holds the global ranking.
type ValkeyStore struct {
	client valkey.Client
	prefix string
}

// NewValkeyStore constructs a store backed by Valkey.
func NewValkeyStore(client valkey.Client, prefix string) *ValkeyStore {
	if prefix == "" {
		prefix = "feed"
	}
	return &ValkeyStore{client: client, prefix: prefix}
}

// Like adds userID to the post's voter set and bumps the ranking when the
// vote is new.
func (s *ValkeyStore) Like(ctx context.Context, postID uuid.UUID, userID int64) (bool, error) {
	added, err := s.client.Do(ctx, s.client.B().Sadd().
		Key(s.votersKey(postID)).
		Member(fmt.Sprintf("%d", userID)).
		Build()).AsInt64()
	if err != nil {
		return false, err
	}
	if added == 0 {
		return false, nil
	}
	err = s.client.Do(ctx, s.client.B().Zincrby().
		Key(s.trendingKey()).
		Increment(1).
		Member(postID.String()).
		Build()).Error()
	return true, err
}

// Unlike removes the vote and decrements the ranking when it existed.
func (s *ValkeyStore) Unlike(ctx context.Context, postID uuid.UUID, userID int64) (bool, error) {
	removed, err := s.client.Do(ctx, s.client.B().Srem().
		Key(s.votersKey(postID)).
		Member(fmt.Sprintf("%d", userID)).
		Build()).AsInt64()
	if err != nil {
		return false, err
	}
	if removed == 0 {
		return false, nil
	}
	err = s.client.Do(ctx, s.client.B().Zincrby().
		Key(s.trendingKey()).
		Increment(-1).
		Member(postID.String()).
		Build()).Error()
	return true, err
}

// Count returns the post's like total.
func (s *ValkeyStore) Count(ctx context.Context, postID uuid.UUID) (int64, error) {
	count, err := s.client.Do(ctx, s.client.B().Scard().
		Key(s.votersKey(postID)).
		Build()).AsInt64()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return 0, nil
		}
		return 0, err
	}
	return count, nil
}

// Top returns the highest ranked posts.
func (s *ValkeyStore) Top(ctx context.Context, limit int) ([]community.PostLikes, error) {
	if limit <= 0 {
		limit = 10
	}
	resp := s.client.Do(ctx, s.client.B().Zrevrange().
		Key(s.trendingKey()).
		Start(0).
		Stop(int64(limit - 1)).
		Withscores().
		Build())
	arr, err := resp.ToArray()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, nil
		}
		return nil, err
	}
	out := make([]community.PostLikes, 0, len(arr))
	for i := 0; i < len(arr); {
		var (
			member string
			score  float64
		)
		if tuple, tupleErr := arr[i].ToArray(); tupleErr == nil && len(tuple) == 2 {
			// RESP3 returns [member, score] per element
			if member, err = tuple[0].ToString(); err != nil {
				return nil, err
			}
			if score, err = tuple[1].ToFloat64(); err != nil {
				return nil, err
			}
			i++
		} else {
			// RESP2 returns a flat alternating array.
			if i+1 >= len(arr) {
				break
			}
			if member, err = arr[i].ToString(); err != nil {
				return nil, err
			}
			if score, err = arr[i+1].ToFloat64(); err != nil {
				return nil, err
			}
			i += 2
		}
		id, parseErr := uuid.Parse(member)
		if parseErr != nil || score <= 0 {
			continue
		}
		out = append(out, community.PostLikes{PostID: id, Likes: int64(score)})
	}
	return out, nil
}

// Remove drops the post's voters and ranking entry.
func (s *ValkeyStore) Remove(ctx context.Context, postID uuid.UUID) error {
	if err := s.client.Do(ctx, s.client.B().Del().
		Key(s.votersKey(postID)).
		Build()).Error(); err != nil {
		return err
	}
	return s.client.Do(ctx, s.client.B().Zrem().
		Key(s.trendingKey()).
		Member(postID.String()).
		Build()).Error()
}

func (s *ValkeyStore) votersKey(postID uuid.UUID) string {
	return fmt.Sprintf("%s:likes:%s", s.prefix, postID)
}

func (s *ValkeyStore) trendingKey() string {
	return fmt.Sprintf("%s:trending", s.prefix)
}

var _ community.LikeStore = (*ValkeyStore)(nil)
