package community

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	apperrors "github.com/weiluo/roamstory/pkg/errors"
	"github.com/weiluo/roamstory/pkg/util"
)

const (
	defaultFeedPageSize = 20
	defaultTrendingSize = 10
	maxPostTitleRunes   = 120
	maxPostBodyRunes    = 10_000
)

// Service exposes the community feed.
type Service interface {
	CreatePost(ctx context.Context, userID int64, nickname string, req CreateRequest) (Post, error)
	GetPost(ctx context.Context, id uuid.UUID) (Post, error)
	ListPosts(ctx context.Context, city string, limit, offset int) ([]Post, error)
	DeletePost(ctx context.Context, userID int64, id uuid.UUID) error
	Like(ctx context.Context, userID int64, postID uuid.UUID) (int64, error)
	Unlike(ctx context.Context, userID int64, postID uuid.UUID) (int64, error)
	Trending(ctx context.Context) ([]Post, error)
}

type service struct {
	cfg    Config
	repo   Repository
	likes  LikeStore
	logger *slog.Logger
}

// NewService constructs the community domain.
func NewService(cfg Config, repo Repository, likes LikeStore, logger *slog.Logger) Service {
	if cfg.FeedPageSize <= 0 {
		cfg.FeedPageSize = defaultFeedPageSize
	}
	if cfg.TrendingSize <= 0 {
		cfg.TrendingSize = defaultTrendingSize
	}
	return &service{
		cfg:    cfg,
		repo:   repo,
		likes:  likes,
		logger: logger.With("component", "community.service"),
	}
}

func (s *service) CreatePost(ctx context.Context, userID int64, nickname string, req CreateRequest) (Post, error) {
	post := Post{
		ID:        uuid.New(),
		UserID:    userID,
		Nickname:  nickname,
		Title:     strings.TrimSpace(req.Title),
		Body:      strings.TrimSpace(req.Body),
		City:      strings.TrimSpace(req.City),
		CreatedAt: util.NowUTC(),
	}
	if err := validatePost(post); err != nil {
		return Post{}, apperrors.Wrap("invalid_input", err.Error(), nil)
	}
	created, err := s.repo.Create(ctx, post)
	if err != nil {
		return Post{}, apperrors.Wrap("community_error", "failed to create post", err)
	}
	return created, nil
}

func (s *service) GetPost(ctx context.Context, id uuid.UUID) (Post, error) {
	post, err := s.repo.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return Post{}, apperrors.Wrap("not_found", "post not found", err)
	}
	if err != nil {
		return Post{}, apperrors.Wrap("community_error", "failed to load post", err)
	}
	return s.withLikeCount(ctx, post), nil
}

func (s *service) ListPosts(ctx context.Context, city string, limit, offset int) ([]Post, error) {
	if limit <= 0 || limit > 100 {
		limit = s.cfg.FeedPageSize
	}
	if offset < 0 {
		offset = 0
	}
	posts, err := s.repo.List(ctx, strings.TrimSpace(city), limit, offset)
	if err != nil {
		return nil, apperrors.Wrap("community_error", "failed to list posts", err)
	}
	for i := range posts {
		posts[i] = s.withLikeCount(ctx, posts[i])
	}
	return posts, nil
}

func (s *service) DeletePost(ctx context.Context, userID int64, id uuid.UUID) error {
	err := s.repo.Delete(ctx, userID, id)
	if errors.Is(err, ErrNotFound) {
		return apperrors.Wrap("not_found", "post not found", err)
	}
	if err != nil {
		return apperrors.Wrap("community_error", "failed to delete post", err)
	}
	if err := s.likes.Remove(ctx, id); err != nil {
		s.logger.Warn("failed to drop like counters", "postId", id, "error", err)
	}
	return nil
}

// Like records the like and returns the updated total. Liking twice is a
// no-op.
func (s *service) Like(ctx context.Context, userID int64, postID uuid.UUID) (int64, error) {
	if _, err := s.GetPost(ctx, postID); err != nil {
		return 0, err
	}
	if _, err := s.likes.Like(ctx, postID, userID); err != nil {
		return 0, apperrors.Wrap("community_error", "failed to record like", err)
	}
	count, err := s.likes.Count(ctx, postID)
	if err != nil {
		return 0, apperrors.Wrap("community_error", "failed to count likes", err)
	}
	return count, nil
}

// Unlike removes the like and returns the updated total.
func (s *service) Unlike(ctx context.Context, userID int64, postID uuid.UUID) (int64, error) {
	if _, err := s.GetPost(ctx, postID); err != nil {
		return 0, err
	}
	if _, err := s.likes.Unlike(ctx, postID, userID); err != nil {
		return 0, apperrors.Wrap("community_error", "failed to remove like", err)
	}
	count, err := s.likes.Count(ctx, postID)
	if err != nil {
		return 0, apperrors.Wrap("community_error", "failed to count likes", err)
	}
	return count, nil
}

// Trending returns the most liked posts. Posts deleted since they were
// ranked are skipped.
func (s *service) Trending(ctx context.Context) ([]Post, error) {
	ranked, err := s.likes.Top(ctx, s.cfg.TrendingSize)
	if err != nil {
		return nil, apperrors.Wrap("community_error", "failed to rank posts", err)
	}
	posts := make([]Post, 0, len(ranked))
	for _, item := range ranked {
		post, err := s.repo.Get(ctx, item.PostID)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, apperrors.Wrap("community_error", "failed to load ranked post", err)
		}
		post.LikeCount = item.Likes
		posts = append(posts, post)
	}
	return posts, nil
}

func (s *service) withLikeCount(ctx context.Context, post Post) Post {
	count, err := s.likes.Count(ctx, post.ID)
	if err != nil {
		s.logger.Warn("failed to count likes", "postId", post.ID, "error", err)
		return post
	}
	post.LikeCount = count
	return post
}

func validatePost(post Post) error {
	if post.Title == "" {
		return errors.New("title cannot be empty")
	}
	if len([]rune(post.Title)) > maxPostTitleRunes {
		return fmt.Errorf("title cannot exceed %d characters", maxPostTitleRunes)
	}
	if post.Body == "" {
		return errors.New("body cannot be empty")
	}
	if len([]rune(post.Body)) > maxPostBodyRunes {
		return fmt.Errorf("body cannot exceed %d characters", maxPostBodyRunes)
	}
	return nil
}
