package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	LLM       LLMConfig       `yaml:"llm"`
	Places    PlacesConfig    `yaml:"places"`
	Story     StoryConfig     `yaml:"story"`
	Auth      AuthConfig      `yaml:"auth"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Cache     CacheConfig     `yaml:"cache"`
	Storage   StorageConfig   `yaml:"storage"`
	Diary     DiaryConfig     `yaml:"diary"`
	Community CommunityConfig `yaml:"community"`
	Poster    PosterConfig    `yaml:"poster"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address        string          `yaml:"address"`
	ReadTimeout    time.Duration   `yaml:"readTimeout"`
	WriteTimeout   time.Duration   `yaml:"writeTimeout"`
	AllowedOrigins []string        `yaml:"allowedOrigins"`
	RateLimit      RateLimitConfig `yaml:"rateLimit"`
	Retry          RetryConfig     `yaml:"retry"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// RetryConfig configures best-effort retries for idempotent POST requests.
type RetryConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxAttempts int           `yaml:"maxAttempts"`
	BaseBackoff time.Duration `yaml:"baseBackoff"`
	Exclude     []string      `yaml:"exclude"`
}

// LLMConfig contains the OpenAI-compatible provider settings. An empty API
// key switches every AI feature to its deterministic fallback.
type LLMConfig struct {
	APIKey         string        `yaml:"apiKey"`
	BaseURL        string        `yaml:"baseUrl"`
	Model          string        `yaml:"model"`
	ImageModel     string        `yaml:"imageModel"`
	EmbeddingModel string        `yaml:"embeddingModel"`
	Temperature    float32       `yaml:"temperature"`
	Timeout        time.Duration `yaml:"timeout"`
}

// PlacesConfig contains the map/geocoding provider settings. An empty key
// switches POI lookups to the built-in table.
type PlacesConfig struct {
	APIKey  string        `yaml:"apiKey"`
	BaseURL string        `yaml:"baseUrl"`
	Timeout time.Duration `yaml:"timeout"`
}

// StoryConfig tunes the itinerary generation pipeline.
type StoryConfig struct {
	MaxPromptTokens int    `yaml:"maxPromptTokens"`
	DefaultCity     string `yaml:"defaultCity"`
	DefaultTheme    string `yaml:"defaultTheme"`
	DefaultRadius   int    `yaml:"defaultRadius"`
}

// AuthConfig drives token issuing and the Google sign-in flow.
type AuthConfig struct {
	Secret          string        `yaml:"secret"`
	TokenTTL        time.Duration `yaml:"tokenTtl"`
	RefreshTokenTTL time.Duration `yaml:"refreshTokenTtl"`
	Google          GoogleConfig  `yaml:"google"`
}

// GoogleConfig holds OAuth settings for Google sign-in.
type GoogleConfig struct {
	ClientID             string `yaml:"clientId"`
	ClientSecret         string `yaml:"clientSecret"`
	RedirectURL          string `yaml:"redirectUrl"`
	TokenEncryptionKey   string `yaml:"tokenEncryptionKey"`
	PostLoginRedirectURL string `yaml:"postLoginRedirectUrl"`
}

// PostgresConfig contains DSN and pooling settings shared by all
// repositories. An empty DSN selects the in-memory repositories.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
}

// CacheConfig contains the Valkey connection used by the community feed.
type CacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// StorageConfig contains the S3-compatible bucket used for posters and
// diary photos.
type StorageConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	PublicURL string `yaml:"publicUrl"`
}

// DiaryConfig tunes the diary domain.
type DiaryConfig struct {
	MaxPhotoBytes int64 `yaml:"maxPhotoBytes"`
	SearchLimit   int   `yaml:"searchLimit"`
	EmbeddingDim  int   `yaml:"embeddingDim"`
}

// CommunityConfig tunes the feed domain.
type CommunityConfig struct {
	FeedPageLimit int `yaml:"feedPageLimit"`
	TrendingLimit int `yaml:"trendingLimit"`
}

// PosterConfig tunes travel poster generation.
type PosterConfig struct {
	Size        string `yaml:"size"`
	StylePreset string `yaml:"stylePreset"`
}

// Load reads configuration from a YAML file and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if parsed, err := strconv.Atoi(v); err == nil {
				*dst = parsed
			}
		}
	}
	setBool := func(key string, dst *bool) {
		if v := os.Getenv(key); v != "" {
			*dst = v == "1" || strings.EqualFold(v, "true")
		}
	}
	setDuration := func(key string, dst *time.Duration) {
		if v := os.Getenv(key); v != "" {
			if parsed, err := time.ParseDuration(v); err == nil {
				*dst = parsed
			}
		}
	}

	setString("HTTP_ADDRESS", &cfg.HTTP.Address)
	setBool("HTTP_RATE_LIMIT_ENABLED", &cfg.HTTP.RateLimit.Enabled)
	setInt("HTTP_RATE_LIMIT_RPM", &cfg.HTTP.RateLimit.RequestsPerMinute)
	setInt("HTTP_RATE_LIMIT_BURST", &cfg.HTTP.RateLimit.Burst)
	setBool("HTTP_RETRY_ENABLED", &cfg.HTTP.Retry.Enabled)
	setInt("HTTP_RETRY_MAX_ATTEMPTS", &cfg.HTTP.Retry.MaxAttempts)
	setDuration("HTTP_RETRY_BASE_BACKOFF", &cfg.HTTP.Retry.BaseBackoff)

	setString("LLM_API_KEY", &cfg.LLM.APIKey)
	setString("LLM_BASE_URL", &cfg.LLM.BaseURL)
	setString("LLM_MODEL", &cfg.LLM.Model)
	setString("LLM_IMAGE_MODEL", &cfg.LLM.ImageModel)
	setString("LLM_EMBEDDING_MODEL", &cfg.LLM.EmbeddingModel)
	if v := os.Getenv("LLM_TEMPERATURE"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 32); err == nil {
			cfg.LLM.Temperature = float32(parsed)
		}
	}

	setString("PLACES_API_KEY", &cfg.Places.APIKey)
	setString("PLACES_BASE_URL", &cfg.Places.BaseURL)

	setInt("STORY_MAX_PROMPT_TOKENS", &cfg.Story.MaxPromptTokens)
	setString("STORY_DEFAULT_CITY", &cfg.Story.DefaultCity)
	setString("STORY_DEFAULT_THEME", &cfg.Story.DefaultTheme)
	setInt("STORY_DEFAULT_RADIUS", &cfg.Story.DefaultRadius)

	setString("AUTH_SECRET", &cfg.Auth.Secret)
	setDuration("AUTH_TOKEN_TTL", &cfg.Auth.TokenTTL)
	setDuration("AUTH_REFRESH_TOKEN_TTL", &cfg.Auth.RefreshTokenTTL)
	setString("GOOGLE_CLIENT_ID", &cfg.Auth.Google.ClientID)
	setString("GOOGLE_CLIENT_SECRET", &cfg.Auth.Google.ClientSecret)
	setString("GOOGLE_REDIRECT_URL", &cfg.Auth.Google.RedirectURL)
	setString("GOOGLE_TOKEN_ENCRYPTION_KEY", &cfg.Auth.Google.TokenEncryptionKey)
	setString("GOOGLE_POST_LOGIN_REDIRECT_URL", &cfg.Auth.Google.PostLoginRedirectURL)

	setString("POSTGRES_DSN", &cfg.Postgres.DSN)
	if v := os.Getenv("POSTGRES_MAX_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.MaxConns = int32(parsed)
		}
	}

	setBool("CACHE_ENABLED", &cfg.Cache.Enabled)
	setString("CACHE_ADDR", &cfg.Cache.Addr)

	setString("STORAGE_ENDPOINT", &cfg.Storage.Endpoint)
	setString("STORAGE_ACCESS_KEY", &cfg.Storage.AccessKey)
	setString("STORAGE_SECRET_KEY", &cfg.Storage.SecretKey)
	setString("STORAGE_BUCKET", &cfg.Storage.Bucket)
	setString("STORAGE_REGION", &cfg.Storage.Region)
	setString("STORAGE_PUBLIC_URL", &cfg.Storage.PublicURL)
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 120,
				Burst:             30,
			},
			Retry: RetryConfig{
				Enabled:     true,
				MaxAttempts: 3,
				BaseBackoff: 150 * time.Millisecond,
				Exclude: []string{
					"/api/v1/story/arc",
					"/api/v1/posters",
				},
			},
		},
		LLM: LLMConfig{
			Model:          "gpt-4o-mini",
			ImageModel:     "dall-e-3",
			EmbeddingModel: "text-embedding-3-small",
			Temperature:    0.7,
			Timeout:        60 * time.Second,
		},
		Places: PlacesConfig{
			BaseURL: "https://restapi.amap.com/v3",
			Timeout: 8 * time.Second,
		},
		Story: StoryConfig{
			MaxPromptTokens: 3000,
			DefaultCity:     "北京",
			DefaultTheme:    "citywalk",
			DefaultRadius:   3000,
		},
		Auth: AuthConfig{
			TokenTTL:        2 * time.Hour,
			RefreshTokenTTL: 14 * 24 * time.Hour,
		},
		Postgres: PostgresConfig{
			MaxConns: 8,
			MinConns: 0,
		},
		Cache: CacheConfig{
			Enabled: false,
		},
		Storage: StorageConfig{
			Bucket: "roamstory",
			Region: "auto",
		},
		Diary: DiaryConfig{
			MaxPhotoBytes: 8 << 20,
			SearchLimit:   10,
			EmbeddingDim:  32,
		},
		Community: CommunityConfig{
			FeedPageLimit: 20,
			TrendingLimit: 10,
		},
		Poster: PosterConfig{
			Size:        "1024x1792",
			StylePreset: "国潮插画风，留白构图，柔和暖色",
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	if c.HTTP.Retry.Enabled {
		if c.HTTP.Retry.MaxAttempts <= 0 {
			return errors.New("http.retry.maxAttempts must be positive")
		}
		if c.HTTP.Retry.BaseBackoff <= 0 {
			return errors.New("http.retry.baseBackoff must be positive")
		}
	}
	if strings.TrimSpace(c.LLM.Model) == "" {
		return errors.New("llm.model cannot be empty")
	}
	if c.Story.DefaultRadius <= 0 {
		return errors.New("story.defaultRadius must be positive")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("auth.tokenTtl must be positive")
	}
	if c.Auth.RefreshTokenTTL <= c.Auth.TokenTTL {
		return errors.New("auth.refreshTokenTtl must exceed auth.tokenTtl")
	}
	if c.Cache.Enabled && strings.TrimSpace(c.Cache.Addr) == "" {
		return errors.New("cache.addr cannot be empty when cache is enabled")
	}
	if c.Diary.SearchLimit <= 0 {
		return errors.New("diary.searchLimit must be positive")
	}
	if c.Community.FeedPageLimit <= 0 {
		return errors.New("community.feedPageLimit must be positive")
	}
	return nil
}
