package poster

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/weiluo/roamstory/internal/domain/media"
	apperrors "github.com/weiluo/roamstory/pkg/errors"
)

func TestService_Generate(t *testing.T) {
	images := &stubImages{payload: base64.StdEncoding.EncodeToString([]byte("png-bytes"))}
	store := newStubStorage()
	svc := newTestService(images, store)

	poster, err := svc.Generate(context.Background(), 7, GenerateRequest{
		City:    "北京",
		Theme:   "夜景",
		Caption: "城墙下的晚风",
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, poster.ID)
	require.Equal(t, "北京", poster.City)
	require.Contains(t, poster.ImageURL, "/media/posters/7/")
	require.Len(t, store.objects, 1)
	require.Contains(t, images.prompt, "北京")
	require.Contains(t, images.prompt, "夜景")
	require.Contains(t, images.prompt, "城墙下的晚风")

	got, err := svc.Get(context.Background(), 7, poster.ID)
	require.NoError(t, err)
	require.Equal(t, poster.ImageURL, got.ImageURL)
}

func TestService_GenerateDefaultsTheme(t *testing.T) {
	images := &stubImages{payload: base64.StdEncoding.EncodeToString([]byte("png"))}
	svc := newTestService(images, newStubStorage())

	poster, err := svc.Generate(context.Background(), 7, GenerateRequest{City: "上海"})
	require.NoError(t, err)
	require.Equal(t, "citywalk", poster.Theme)
}

func TestService_GenerateFailures(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		svc := newTestService(nil, nil)
		_, err := svc.Generate(context.Background(), 7, GenerateRequest{City: "北京"})
		require.True(t, apperrors.IsCode(err, "poster_unavailable"))
	})

	t.Run("missing city", func(t *testing.T) {
		svc := newTestService(&stubImages{}, newStubStorage())
		_, err := svc.Generate(context.Background(), 7, GenerateRequest{})
		require.True(t, apperrors.IsCode(err, "invalid_input"))
	})

	t.Run("provider error", func(t *testing.T) {
		svc := newTestService(&stubImages{err: errors.New("quota exceeded")}, newStubStorage())
		_, err := svc.Generate(context.Background(), 7, GenerateRequest{City: "北京"})
		require.True(t, apperrors.IsCode(err, "poster_generation_failed"))
	})

	t.Run("malformed payload", func(t *testing.T) {
		svc := newTestService(&stubImages{payload: "not-base64!!"}, newStubStorage())
		_, err := svc.Generate(context.Background(), 7, GenerateRequest{City: "北京"})
		require.True(t, apperrors.IsCode(err, "poster_generation_failed"))
	})
}

func TestService_ListAndDelete(t *testing.T) {
	images := &stubImages{payload: base64.StdEncoding.EncodeToString([]byte("png"))}
	store := newStubStorage()
	svc := newTestService(images, store)

	first, err := svc.Generate(context.Background(), 7, GenerateRequest{City: "北京"})
	require.NoError(t, err)
	_, err = svc.Generate(context.Background(), 7, GenerateRequest{City: "上海"})
	require.NoError(t, err)
	_, err = svc.Generate(context.Background(), 8, GenerateRequest{City: "广州"})
	require.NoError(t, err)

	mine, err := svc.List(context.Background(), 7, 20, 0)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	require.Equal(t, "上海", mine[0].City)

	err = svc.Delete(context.Background(), 8, first.ID)
	require.True(t, apperrors.IsCode(err, "not_found"))

	require.NoError(t, svc.Delete(context.Background(), 7, first.ID))
	require.Len(t, store.objects, 2)

	_, err = svc.Get(context.Background(), 7, first.ID)
	require.True(t, apperrors.IsCode(err, "not_found"))
}

func newTestService(images ImageClient, store media.ObjectStorage) Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(Config{}, newStubRepo(), images, store, logger)
}

type stubImages struct {
	payload string
	prompt  string
	err     error
}

func (s *stubImages) GenerateImage(_ context.Context, _, prompt, _ string) (string, error) {
	s.prompt = prompt
	if s.err != nil {
		return "", s.err
	}
	return s.payload, nil
}

type stubRepo struct {
	posters map[uuid.UUID]Poster
	order   []uuid.UUID
}

func newStubRepo() *stubRepo {
	return &stubRepo{posters: make(map[uuid.UUID]Poster)}
}

func (r *stubRepo) Create(_ context.Context, poster Poster) (Poster, error) {
	r.posters[poster.ID] = poster
	r.order = append(r.order, poster.ID)
	return poster, nil
}

func (r *stubRepo) Get(_ context.Context, userID int64, id uuid.UUID) (Poster, error) {
	poster, ok := r.posters[id]
	if !ok || poster.UserID != userID {
		return Poster{}, ErrNotFound
	}
	return poster, nil
}

func (r *stubRepo) List(_ context.Context, userID int64, limit, offset int) ([]Poster, error) {
	out := make([]Poster, 0)
	for i := len(r.order) - 1; i >= 0; i-- {
		poster, ok := r.posters[r.order[i]]
		if !ok || poster.UserID != userID {
			continue
		}
		out = append(out, poster)
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

func (r *stubRepo) Delete(_ context.Context, userID int64, id uuid.UUID) (Poster, error) {
	poster, ok := r.posters[id]
	if !ok || poster.UserID != userID {
		return Poster{}, ErrNotFound
	}
	delete(r.posters, id)
	return poster, nil
}

type stubStorage struct {
	objects map[string][]byte
}

func newStubStorage() *stubStorage {
	return &stubStorage{objects: make(map[string][]byte)}
}

func (s *stubStorage) Put(_ context.Context, key string, data []byte, _ string) (media.StoredObject, error) {
	s.objects[key] = data
	return media.StoredObject{Key: key, Size: int64(len(data))}, nil
}

func (s *stubStorage) Get(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := s.objects[key]
	if !ok {
		return nil, errors.New("not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *stubStorage) Delete(_ context.Context, key string) error {
	delete(s.objects, key)
	return nil
}

func (s *stubStorage) PublicURL(key string) string {
	return "/media/" + key
}
