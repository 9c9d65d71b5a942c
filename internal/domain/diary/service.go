package diary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/weiluo/roamstory/internal/domain/media"
	apperrors "github.com/weiluo/roamstory/pkg/errors"
	"github.com/weiluo/roamstory/pkg/util"
)

const (
	defaultMaxPhotoBytes = 8 * 1024 * 1024
	defaultSearchLimit   = 10
	maxTitleRunes        = 120
	maxBodyRunes         = 20_000
)

// Service exposes diary workflows.
type Service interface {
	Create(ctx context.Context, userID int64, req CreateRequest) (Entry, error)
	Get(ctx context.Context, userID int64, id uuid.UUID) (Entry, error)
	List(ctx context.Context, userID int64, limit, offset int) ([]Entry, error)
	Update(ctx context.Context, userID int64, id uuid.UUID, req UpdateRequest) (Entry, error)
	Delete(ctx context.Context, userID int64, id uuid.UUID) error
	AttachPhoto(ctx context.Context, userID int64, id uuid.UUID, data []byte, mimeType string) (Entry, error)
	Search(ctx context.Context, userID int64, query string) ([]SearchResult, error)
}

type service struct {
	cfg      Config
	repo     Repository
	embedder Embedder
	storage  media.ObjectStorage
	logger   *slog.Logger
}

// NewService constructs the diary domain. embedder and storage may be nil;
// search then falls back to recency and photo uploads are rejected.
func NewService(cfg Config, repo Repository, embedder Embedder, storage media.ObjectStorage, logger *slog.Logger) Service {
	if cfg.MaxPhotoBytes <= 0 {
		cfg.MaxPhotoBytes = defaultMaxPhotoBytes
	}
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = defaultSearchLimit
	}
	return &service{
		cfg:      cfg,
		repo:     repo,
		embedder: embedder,
		storage:  storage,
		logger:   logger.With("component", "diary.service"),
	}
}

func (s *service) Create(ctx context.Context, userID int64, req CreateRequest) (Entry, error) {
	entry := Entry{
		ID:     uuid.New(),
		UserID: userID,
		Title:  strings.TrimSpace(req.Title),
		Body:   strings.TrimSpace(req.Body),
		City:   strings.TrimSpace(req.City),
	}
	if err := validateEntry(entry); err != nil {
		return Entry{}, apperrors.Wrap("invalid_input", err.Error(), nil)
	}
	now := util.NowUTC()
	entry.CreatedAt = now
	entry.UpdatedAt = now
	created, err := s.repo.Create(ctx, entry, s.embedEntry(ctx, entry))
	if err != nil {
		return Entry{}, apperrors.Wrap("diary_error", "failed to create entry", err)
	}
	return created, nil
}

func (s *service) Get(ctx context.Context, userID int64, id uuid.UUID) (Entry, error) {
	entry, err := s.repo.Get(ctx, userID, id)
	if errors.Is(err, ErrNotFound) {
		return Entry{}, apperrors.Wrap("not_found", "diary entry not found", err)
	}
	if err != nil {
		return Entry{}, apperrors.Wrap("diary_error", "failed to load entry", err)
	}
	return entry, nil
}

func (s *service) List(ctx context.Context, userID int64, limit, offset int) ([]Entry, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	entries, err := s.repo.List(ctx, userID, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap("diary_error", "failed to list entries", err)
	}
	return entries, nil
}

func (s *service) Update(ctx context.Context, userID int64, id uuid.UUID, req UpdateRequest) (Entry, error) {
	entry, err := s.Get(ctx, userID, id)
	if err != nil {
		return Entry{}, err
	}
	if req.Title != nil {
		entry.Title = strings.TrimSpace(*req.Title)
	}
	if req.Body != nil {
		entry.Body = strings.TrimSpace(*req.Body)
	}
	if req.City != nil {
		entry.City = strings.TrimSpace(*req.City)
	}
	if err := validateEntry(entry); err != nil {
		return Entry{}, apperrors.Wrap("invalid_input", err.Error(), nil)
	}
	entry.UpdatedAt = util.NowUTC()
	updated, err := s.repo.Update(ctx, entry, s.embedEntry(ctx, entry))
	if errors.Is(err, ErrNotFound) {
		return Entry{}, apperrors.Wrap("not_found", "diary entry not found", err)
	}
	if err != nil {
		return Entry{}, apperrors.Wrap("diary_error", "failed to update entry", err)
	}
	return updated, nil
}

func (s *service) Delete(ctx context.Context, userID int64, id uuid.UUID) error {
	err := s.repo.Delete(ctx, userID, id)
	if errors.Is(err, ErrNotFound) {
		return apperrors.Wrap("not_found", "diary entry not found", err)
	}
	if err != nil {
		return apperrors.Wrap("diary_error", "failed to delete entry", err)
	}
	return nil
}

// AttachPhoto stores the photo blob and records its public URL on the entry.
func (s *service) AttachPhoto(ctx context.Context, userID int64, id uuid.UUID, data []byte, mimeType string) (Entry, error) {
	if s.storage == nil {
		return Entry{}, apperrors.Wrap("storage_unavailable", "photo storage is not configured", nil)
	}
	if len(data) == 0 {
		return Entry{}, apperrors.Wrap("invalid_input", "photo data is empty", nil)
	}
	if int64(len(data)) > s.cfg.MaxPhotoBytes {
		return Entry{}, apperrors.Wrap("invalid_input", fmt.Sprintf("photo exceeds %d bytes", s.cfg.MaxPhotoBytes), nil)
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return Entry{}, apperrors.Wrap("invalid_input", "photo must be an image", nil)
	}
	entry, err := s.Get(ctx, userID, id)
	if err != nil {
		return Entry{}, err
	}
	key := fmt.Sprintf("diary/%d/%s%s", userID, entry.ID, extensionFor(mimeType))
	if _, err := s.storage.Put(ctx, key, data, mimeType); err != nil {
		return Entry{}, apperrors.Wrap("storage_error", "failed to store photo", err)
	}
	photoURL := s.storage.PublicURL(key)
	if err := s.repo.SetPhotoURL(ctx, userID, id, photoURL); err != nil {
		return Entry{}, apperrors.Wrap("diary_error", "failed to record photo", err)
	}
	entry.PhotoURL = photoURL
	return entry, nil
}

// Search ranks the user's entries against the query. When no embedder is
// configured or embedding fails, it degrades to the most recent entries.
func (s *service) Search(ctx context.Context, userID int64, query string) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.Wrap("invalid_input", "search query cannot be empty", nil)
	}
	if embedding := s.embedText(ctx, query); len(embedding) > 0 {
		results, err := s.repo.SearchByEmbedding(ctx, userID, embedding, s.cfg.SearchLimit)
		if err == nil {
			return results, nil
		}
		s.logger.Warn("embedding search failed, falling back to recency", "error", err)
	}
	entries, err := s.repo.List(ctx, userID, s.cfg.SearchLimit, 0)
	if err != nil {
		return nil, apperrors.Wrap("diary_error", "failed to list entries", err)
	}
	results := make([]SearchResult, 0, len(entries))
	for _, entry := range entries {
		results = append(results, SearchResult{Entry: entry})
	}
	return results, nil
}

func (s *service) embedEntry(ctx context.Context, entry Entry) []float32 {
	return s.embedText(ctx, entry.Title+"\n"+entry.Body)
}

func (s *service) embedText(ctx context.Context, text string) []float32 {
	if s.embedder == nil {
		return nil
	}
	vectors, err := s.embedder.Embed(ctx, []string{text})
	if err != nil || len(vectors) == 0 {
		if err != nil {
			s.logger.Warn("embedding failed", "error", err)
		}
		return nil
	}
	return vectors[0]
}

func validateEntry(entry Entry) error {
	if entry.Title == "" {
		return errors.New("title cannot be empty")
	}
	if len([]rune(entry.Title)) > maxTitleRunes {
		return fmt.Errorf("title cannot exceed %d characters", maxTitleRunes)
	}
	if len([]rune(entry.Body)) > maxBodyRunes {
		return fmt.Errorf("body cannot exceed %d characters", maxBodyRunes)
	}
	return nil
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ""
	}
}
