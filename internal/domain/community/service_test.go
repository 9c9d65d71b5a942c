package community

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	apperrors "github.com/weiluo/roamstory/pkg/errors"
)

func TestService_CreateAndList(t *testing.T) {
	svc := newTestService()

	post, err := svc.CreatePost(context.Background(), 1, "旅人甲", CreateRequest{
		Title: "角楼日落",
		Body:  "角楼咖啡的落地窗正对护城河。",
		City:  "北京",
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, post.ID)
	require.Equal(t, "旅人甲", post.Nickname)

	_, err = svc.CreatePost(context.Background(), 2, "旅人乙", CreateRequest{
		Title: "外滩夜景",
		Body:  "江对岸的灯光九点准时熄灭一半。",
		City:  "上海",
	})
	require.NoError(t, err)

	all, err := svc.ListPosts(context.Background(), "", 20, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)

	beijing, err := svc.ListPosts(context.Background(), "北京", 20, 0)
	require.NoError(t, err)
	require.Len(t, beijing, 1)
	require.Equal(t, "角楼日落", beijing[0].Title)
}

func TestService_CreateValidation(t *testing.T) {
	svc := newTestService()

	_, err := svc.CreatePost(context.Background(), 1, "n", CreateRequest{Title: " ", Body: "b"})
	require.True(t, apperrors.IsCode(err, "invalid_input"))

	_, err = svc.CreatePost(context.Background(), 1, "n", CreateRequest{Title: "t", Body: ""})
	require.True(t, apperrors.IsCode(err, "invalid_input"))
}

func TestService_LikeIsIdempotent(t *testing.T) {
	svc := newTestService()

	post, err := svc.CreatePost(context.Background(), 1, "n", CreateRequest{Title: "t", Body: "b"})
	require.NoError(t, err)

	count, err := svc.Like(context.Background(), 2, post.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)

	count, err = svc.Like(context.Background(), 2, post.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)

	count, err = svc.Like(context.Background(), 3, post.ID)
	require.NoError(t, err)
	require.EqualValues(t, 2, count)

	count, err = svc.Unlike(context.Background(), 2, post.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)

	got, err := svc.GetPost(context.Background(), post.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, got.LikeCount)
}

func TestService_LikeMissingPost(t *testing.T) {
	svc := newTestService()

	_, err := svc.Like(context.Background(), 2, uuid.New())
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, "not_found"))
}

func TestService_DeleteOwnerOnly(t *testing.T) {
	svc := newTestService()

	post, err := svc.CreatePost(context.Background(), 1, "n", CreateRequest{Title: "t", Body: "b"})
	require.NoError(t, err)

	err = svc.DeletePost(context.Background(), 2, post.ID)
	require.True(t, apperrors.IsCode(err, "not_found"))

	require.NoError(t, svc.DeletePost(context.Background(), 1, post.ID))

	_, err = svc.GetPost(context.Background(), post.ID)
	require.True(t, apperrors.IsCode(err, "not_found"))
}

func TestService_TrendingSkipsDeleted(t *testing.T) {
	svc := newTestService()

	hot, err := svc.CreatePost(context.Background(), 1, "n", CreateRequest{Title: "hot", Body: "b"})
	require.NoError(t, err)
	warm, err := svc.CreatePost(context.Background(), 1, "n", CreateRequest{Title: "warm", Body: "b"})
	require.NoError(t, err)
	gone, err := svc.CreatePost(context.Background(), 1, "n", CreateRequest{Title: "gone", Body: "b"})
	require.NoError(t, err)

	for userID := int64(10); userID < 13; userID++ {
		_, err := svc.Like(context.Background(), userID, hot.ID)
		require.NoError(t, err)
	}
	_, err = svc.Like(context.Background(), 10, warm.ID)
	require.NoError(t, err)
	_, err = svc.Like(context.Background(), 10, gone.ID)
	require.NoError(t, err)
	_, err = svc.Like(context.Background(), 11, gone.ID)
	require.NoError(t, err)

	require.NoError(t, svc.DeletePost(context.Background(), 1, gone.ID))

	trending, err := svc.Trending(context.Background())
	require.NoError(t, err)
	require.Len(t, trending, 2)
	require.Equal(t, "hot", trending[0].Title)
	require.EqualValues(t, 3, trending[0].LikeCount)
	require.Equal(t, "warm", trending[1].Title)
}

func newTestService() Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(Config{}, newStubRepo(), newStubLikes(), logger)
}

type stubRepo struct {
	posts map[uuid.UUID]Post
	order []uuid.UUID
}

func newStubRepo() *stubRepo {
	return &stubRepo{posts: make(map[uuid.UUID]Post)}
}

func (r *stubRepo) Create(_ context.Context, post Post) (Post, error) {
	r.posts[post.ID] = post
	r.order = append(r.order, post.ID)
	return post, nil
}

func (r *stubRepo) Get(_ context.Context, id uuid.UUID) (Post, error) {
	post, ok := r.posts[id]
	if !ok {
		return Post{}, ErrNotFound
	}
	return post, nil
}

func (r *stubRepo) List(_ context.Context, city string, limit, offset int) ([]Post, error) {
	out := make([]Post, 0)
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
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *stubRepo) Delete(_ context.Context, userID int64, id uuid.UUID) error {
	post, ok := r.posts[id]
	if !ok || post.UserID != userID {
		return ErrNotFound
	}
	delete(r.posts, id)
	return nil
}

type stubLikes struct {
	likes map[uuid.UUID]map[int64]struct{}
}

func newStubLikes() *stubLikes {
	return &stubLikes{likes: make(map[uuid.UUID]map[int64]struct{})}
}

func (s *stubLikes) Like(_ context.Context, postID uuid.UUID, userID int64) (bool, error) {
	set, ok := s.likes[postID]
	if !ok {
		set = make(map[int64]struct{})
		s.likes[postID] = set
	}
	if _, exists := set[userID]; exists {
		return false, nil
	}
	set[userID] = struct{}{}
	return true, nil
}

func (s *stubLikes) Unlike(_ context.Context, postID uuid.UUID, userID int64) (bool, error) {
	set, ok := s.likes[postID]
	if !ok {
		return false, nil
	}
	if _, exists := set[userID]; !exists {
		return false, nil
	}
	delete(set, userID)
	return true, nil
}

func (s *stubLikes) Count(_ context.Context, postID uuid.UUID) (int64, error) {
	return int64(len(s.likes[postID])), nil
}

func (s *stubLikes) Top(_ context.Context, limit int) ([]PostLikes, error) {
	out := make([]PostLikes, 0, len(s.likes))
	for id, set := range s.likes {
		if len(set) == 0 {
			continue
		}
		out = append(out, PostLikes{PostID: id, Likes: int64(len(set))})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Likes > out[j].Likes })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *stubLikes) Remove(_ context.Context, postID uuid.UUID) error {
	delete(s.likes, postID)
	return nil
}
