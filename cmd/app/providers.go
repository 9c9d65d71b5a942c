package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/weiluo/roamstory/internal/domain/atlas"
	"github.com/weiluo/roamstory/internal/domain/auth"
	"github.com/weiluo/roamstory/internal/domain/community"
	"github.com/weiluo/roamstory/internal/domain/diary"
	"github.com/weiluo/roamstory/internal/domain/media"
	"github.com/weiluo/roamstory/internal/domain/poster"
	"github.com/weiluo/roamstory/internal/domain/story"
	"github.com/weiluo/roamstory/internal/infra/communityrepo"
	"github.com/weiluo/roamstory/internal/infra/config"
	"github.com/weiluo/roamstory/internal/infra/diaryrepo"
	"github.com/weiluo/roamstory/internal/infra/embedder"
	"github.com/weiluo/roamstory/internal/infra/feedcache"
	"github.com/weiluo/roamstory/internal/infra/llm/chatgpt"
	"github.com/weiluo/roamstory/internal/infra/places/amap"
	"github.com/weiluo/roamstory/internal/infra/posterimage"
	"github.com/weiluo/roamstory/internal/infra/posterrepo"
	"github.com/weiluo/roamstory/internal/infra/storage"
	"github.com/weiluo/roamstory/internal/infra/userrepo"
)

func provideStoryConfig(cfg *config.Config) story.Config {
	return story.Config{
		Model:           cfg.LLM.Model,
		Temperature:     cfg.LLM.Temperature,
		MaxPromptTokens: cfg.Story.MaxPromptTokens,
		DefaultCity:     cfg.Story.DefaultCity,
		DefaultTheme:    cfg.Story.DefaultTheme,
		DefaultRadius:   cfg.Story.DefaultRadius,
	}
}

func provideAuthConfig(cfg *config.Config) auth.Config {
	return auth.Config{
		Secret:          cfg.Auth.Secret,
		TokenTTL:        cfg.Auth.TokenTTL,
		RefreshTokenTTL: cfg.Auth.RefreshTokenTTL,
		Google: auth.GoogleConfig{
			ClientID:             cfg.Auth.Google.ClientID,
			ClientSecret:         cfg.Auth.Google.ClientSecret,
			RedirectURL:          cfg.Auth.Google.RedirectURL,
			TokenEncryptionKey:   cfg.Auth.Google.TokenEncryptionKey,
			PostLoginRedirectURL: cfg.Auth.Google.PostLoginRedirectURL,
		},
	}
}

func provideDiaryConfig(cfg *config.Config) diary.Config {
	return diary.Config{
		MaxPhotoBytes: cfg.Diary.MaxPhotoBytes,
		SearchLimit:   cfg.Diary.SearchLimit,
	}
}

func provideCommunityConfig(cfg *config.Config) community.Config {
	return community.Config{
		FeedPageSize: cfg.Community.FeedPageLimit,
		TrendingSize: cfg.Community.TrendingLimit,
	}
}

func providePosterConfig(cfg *config.Config) poster.Config {
	return poster.Config{
		Model: cfg.LLM.ImageModel,
		Size:  cfg.Poster.Size,
		Style: cfg.Poster.StylePreset,
	}
}

// provideChatGPTClient returns nil when no API key is configured. Every AI
// feature then runs its deterministic fallback.
func provideChatGPTClient(cfg *config.Config, logger *slog.Logger) *chatgpt.Client {
	if strings.TrimSpace(cfg.LLM.APIKey) == "" {
		logger.Info("llm api key not set, ai features use fallbacks")
		return nil
	}
	client, err := chatgpt.NewClient(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Timeout)
	if err != nil {
		logger.Error("failed to create llm client, ai features use fallbacks", "error", err)
		return nil
	}
	return client
}

func provideStoryChatClient(client *chatgpt.Client) story.ChatClient {
	if client == nil {
		return nil
	}
	return client
}

// provideAmapClient returns nil when no key is configured. POI lookups then
// fall back to the built-in table.
func provideAmapClient(cfg *config.Config, logger *slog.Logger) *amap.Client {
	if strings.TrimSpace(cfg.Places.APIKey) == "" {
		logger.Info("places api key not set, poi lookups use the built-in table")
		return nil
	}
	client, err := amap.NewClient(cfg.Places.APIKey, cfg.Places.BaseURL, cfg.Places.Timeout)
	if err != nil {
		logger.Error("failed to create places client, poi lookups use the built-in table", "error", err)
		return nil
	}
	return client
}

func provideStoryPlacesClient(client *amap.Client) story.PlacesClient {
	if client == nil {
		return nil
	}
	return client
}

func provideAtlasPlacesClient(client *amap.Client) atlas.PlacesClient {
	if client == nil {
		return nil
	}
	return client
}

// providePgPool returns nil when Postgres is not configured or not
// reachable. Repositories then fall back to their in-memory variants.
func providePgPool(cfg *config.Config, logger *slog.Logger) *pgxpool.Pool {
	dsn := strings.TrimSpace(cfg.Postgres.DSN)
	if dsn == "" {
		logger.Info("postgres dsn not set, using memory repositories")
		return nil
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error("invalid postgres dsn, using memory repositories", "error", err)
		return nil
	}
	if cfg.Postgres.MaxConns > 0 {
		poolConfig.MaxConns = cfg.Postgres.MaxConns
	}
	if cfg.Postgres.MinConns > 0 {
		poolConfig.MinConns = cfg.Postgres.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Error("failed to initialize postgres pool, using memory repositories", "error", err)
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres ping failed, using memory repositories", "error", err)
		pool.Close()
		return nil
	}
	logger.Info("postgres repositories enabled")
	return pool
}

func provideUserRepository(pool *pgxpool.Pool) auth.Repository {
	if pool == nil {
		return userrepo.NewMemoryRepository()
	}
	return userrepo.NewPostgresRepository(pool)
}

func provideDiaryRepository(pool *pgxpool.Pool) diary.Repository {
	if pool == nil {
		return diaryrepo.NewMemoryRepository()
	}
	return diaryrepo.NewPostgresRepository(pool)
}

func provideCommunityRepository(pool *pgxpool.Pool) community.Repository {
	if pool == nil {
		return communityrepo.NewMemoryRepository()
	}
	return communityrepo.NewPostgresRepository(pool)
}

func providePosterRepository(pool *pgxpool.Pool) poster.Repository {
	if pool == nil {
		return posterrepo.NewMemoryRepository()
	}
	return posterrepo.NewPostgresRepository(pool)
}

func provideLikeStore(cfg *config.Config, logger *slog.Logger) community.LikeStore {
	if cfg.Cache.Enabled {
		opt, err := buildValkeyOptions(cfg)
		if err != nil {
			logger.Error("invalid valkey configuration, falling back to memory like store", "error", err)
			return feedcache.NewMemoryStore()
		}
		client, err := valkey.NewClient(opt)
		if err != nil {
			logger.Error("failed to create valkey client, falling back to memory like store", "error", err)
			return feedcache.NewMemoryStore()
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
			logger.Error("valkey ping failed, falling back to memory like store", "error", err)
		} else {
			logger.Info("valkey like store enabled", "addr", cfg.Cache.Addr)
			return feedcache.NewValkeyStore(client, "community")
		}
	}
	return feedcache.NewMemoryStore()
}

func buildValkeyOptions(cfg *config.Config) (valkey.ClientOption, error) {
	var (
		opt valkey.ClientOption
		err error
	)
	if strings.Contains(cfg.Cache.Addr, "://") {
		opt, err = valkey.ParseURL(cfg.Cache.Addr)
	} else {
		opt = valkey.ClientOption{InitAddress: []string{cfg.Cache.Addr}}
	}
	if err != nil {
		return valkey.ClientOption{}, err
	}
	return opt, nil
}

func provideStorage(cfg *config.Config, logger *slog.Logger) media.ObjectStorage {
	s := cfg.Storage
	if strings.TrimSpace(s.Endpoint) == "" || strings.TrimSpace(s.AccessKey) == "" {
		logger.Info("object storage not configured, using memory storage")
		return storage.NewMemoryStorage()
	}
	store, err := storage.NewS3Storage(s.Endpoint, s.AccessKey, s.SecretKey, s.Bucket, s.Region, s.PublicURL, logger)
	if err != nil {
		logger.Error("failed to initialize object storage, using memory storage", "error", err)
		return storage.NewMemoryStorage()
	}
	logger.Info("object storage enabled", "bucket", s.Bucket)
	return store
}

func provideEmbedder(client *chatgpt.Client, cfg *config.Config, logger *slog.Logger) diary.Embedder {
	if client != nil {
		return embedder.NewChatGPTEmbedder(client, cfg.LLM.EmbeddingModel, logger)
	}
	return embedder.NewDeterministicEmbedder(cfg.Diary.EmbeddingDim)
}

func provideImageClient(client *chatgpt.Client) poster.ImageClient {
	if client == nil {
		return nil
	}
	return posterimage.NewChatGPTImages(client)
}
