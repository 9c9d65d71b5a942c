package poster

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/weiluo/roamstory/internal/domain/media"
	apperrors "github.com/weiluo/roamstory/pkg/errors"
	"github.com/weiluo/roamstory/pkg/util"
)

var ErrNotFound = errors.New("poster not found")

const (
	defaultModel = "dall-e-3"
	defaultSize  = "1024x1792"
	defaultStyle = "扁平插画风格，暖色调"
)

// Service exposes poster generation and browsing.
type Service interface {
	Generate(ctx context.Context, userID int64, req GenerateRequest) (Poster, error)
	Get(ctx context.Context, userID int64, id uuid.UUID) (Poster, error)
	List(ctx context.Context, userID int64, limit, offset int) ([]Poster, error)
	Delete(ctx context.Context, userID int64, id uuid.UUID) error
}

type service struct {
	cfg     Config
	repo    Repository
	images  ImageClient
	storage media.ObjectStorage
	logger  *slog.Logger
}

// NewService constructs the poster domain. images and storage may be nil;
// generation then reports the feature as unavailable.
func NewService(cfg Config, repo Repository, images ImageClient, storage media.ObjectStorage, logger *slog.Logger) Service {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Size == "" {
		cfg.Size = defaultSize
	}
	return &service{
		cfg:     cfg,
		repo:    repo,
		images:  images,
		storage: storage,
		logger:  logger.With("component", "poster.service"),
	}
}

// Generate renders a poster image, stores it, and records the metadata.
func (s *service) Generate(ctx context.Context, userID int64, req GenerateRequest) (Poster, error) {
	if s.images == nil || s.storage == nil {
		return Poster{}, apperrors.Wrap("poster_unavailable", "poster generation is not configured", nil)
	}
	city := strings.TrimSpace(req.City)
	if city == "" {
		return Poster{}, apperrors.Wrap("invalid_input", "city cannot be empty", nil)
	}
	theme := strings.TrimSpace(req.Theme)
	if theme == "" {
		theme = "citywalk"
	}
	caption := strings.TrimSpace(req.Caption)

	payload, err := s.images.GenerateImage(ctx, s.cfg.Model, buildPosterPrompt(city, theme, caption, s.cfg.Style), s.cfg.Size)
	if err != nil {
		return Poster{}, apperrors.Wrap("poster_generation_failed", "image generation failed", err)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Poster{}, apperrors.Wrap("poster_generation_failed", "provider returned malformed image data", err)
	}
	if len(data) == 0 {
		return Poster{}, apperrors.Wrap("poster_generation_failed", "provider returned empty image", nil)
	}

	id := uuid.New()
	key := fmt.Sprintf("posters/%d/%s.png", userID, id)
	if _, err := s.storage.Put(ctx, key, data, "image/png"); err != nil {
		return Poster{}, apperrors.Wrap("storage_error", "failed to store poster image", err)
	}

	created, err := s.repo.Create(ctx, Poster{
		ID:        id,
		UserID:    userID,
		City:      city,
		Theme:     theme,
		Caption:   caption,
		ImageURL:  s.storage.PublicURL(key),
		CreatedAt: util.NowUTC(),
	})
	if err != nil {
		return Poster{}, apperrors.Wrap("poster_error", "failed to record poster", err)
	}
	return created, nil
}

func (s *service) Get(ctx context.Context, userID int64, id uuid.UUID) (Poster, error) {
	poster, err := s.repo.Get(ctx, userID, id)
	if errors.Is(err, ErrNotFound) {
		return Poster{}, apperrors.Wrap("not_found", "poster not found", err)
	}
	if err != nil {
		return Poster{}, apperrors.Wrap("poster_error", "failed to load poster", err)
	}
	return poster, nil
}

func (s *service) List(ctx context.Context, userID int64, limit, offset int) ([]Poster, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	posters, err := s.repo.List(ctx, userID, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap("poster_error", "failed to list posters", err)
	}
	return posters, nil
}

// Delete removes the metadata row and best-effort deletes the stored image.
func (s *service) Delete(ctx context.Context, userID int64, id uuid.UUID) error {
	poster, err := s.repo.Delete(ctx, userID, id)
	if errors.Is(err, ErrNotFound) {
		return apperrors.Wrap("not_found", "poster not found", err)
	}
	if err != nil {
		return apperrors.Wrap("poster_error", "failed to delete poster", err)
	}
	if s.storage != nil {
		key := fmt.Sprintf("posters/%d/%s.png", userID, poster.ID)
		if err := s.storage.Delete(ctx, key); err != nil {
			s.logger.Warn("failed to delete poster image", "key", key, "error", err)
		}
	}
	return nil
}

func buildPosterPrompt(city, theme, caption, style string) string {
	if style == "" {
		style = defaultStyle
	}
	var b strings.Builder
	fmt.Fprintf(&b, "一张%s主题的%s旅行海报，%s，画面干净。", theme, city, style)
	if caption != "" {
		fmt.Fprintf(&b, "海报下方留出文字区域，标语：%s。", caption)
	}
	b.WriteString("不要出现真实品牌标识。")
	return b.String()
}
