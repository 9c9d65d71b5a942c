package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/weiluo/roamstory/internal/domain/atlas"
	"github.com/weiluo/roamstory/internal/domain/auth"
	"github.com/weiluo/roamstory/internal/domain/community"
	"github.com/weiluo/roamstory/internal/domain/diary"
	"github.com/weiluo/roamstory/internal/domain/poster"
	"github.com/weiluo/roamstory/internal/domain/story"
	"github.com/weiluo/roamstory/internal/infra/communityrepo"
	"github.com/weiluo/roamstory/internal/infra/config"
	"github.com/weiluo/roamstory/internal/infra/diaryrepo"
	"github.com/weiluo/roamstory/internal/infra/embedder"
	"github.com/weiluo/roamstory/internal/infra/feedcache"
	"github.com/weiluo/roamstory/internal/infra/posterrepo"
	"github.com/weiluo/roamstory/internal/infra/storage"
	"github.com/weiluo/roamstory/internal/infra/userrepo"
)

func TestRouter_Healthz(t *testing.T) {
	server := newRouterUnderTest(t)

	rec := performRequest(server, http.MethodGet, "/healthz", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestRouter_GenerateArcFallback(t *testing.T) {
	server := newRouterUnderTest(t)

	rec := performRequest(server, http.MethodPost, "/api/v1/story/arc",
		`{"city":"北京","theme":"夜景","sceneCount":3}`, "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec.Body.Bytes())
	require.Equal(t, true, body["ok"])
	data := body["data"].(map[string]any)
	require.Equal(t, "北京", data["city"])
	require.Equal(t, "夜景", data["theme"])
	require.Len(t, data["scenes"], 3)
}

func TestRouter_GenerateArcInvalidJSON(t *testing.T) {
	server := newRouterUnderTest(t)

	rec := performRequest(server, http.MethodPost, "/api/v1/story/arc", `{"city":123}`, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeBody(t, rec.Body.Bytes())
	require.Equal(t, false, body["ok"])
	errBody := body["error"].(map[string]any)
	require.Equal(t, "invalid_request", errBody["code"])
	require.NotEmpty(t, errBody["message"])
}

func TestRouter_AtlasUnavailable(t *testing.T) {
	server := newRouterUnderTest(t)

	rec := performRequest(server, http.MethodGet, "/api/v1/atlas/pois?city=北京&keyword=公园", "", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	body := decodeBody(t, rec.Body.Bytes())
	errBody := body["error"].(map[string]any)
	require.Equal(t, "places_unavailable", errBody["code"])
}

func TestRouter_AuthFlow(t *testing.T) {
	server := newRouterUnderTest(t)

	rec := performRequest(server, http.MethodPost, "/api/v1/auth/register",
		`{"email":"traveler@example.com","password":"pass1234","nickname":"漫游者"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = performRequest(server, http.MethodPost, "/api/v1/auth/login",
		`{"email":"traveler@example.com","password":"pass1234"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	token := loginToken(t, rec.Body.Bytes())

	rec = performRequest(server, http.MethodGet, "/api/v1/auth/profile", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec.Body.Bytes())
	data := body["data"].(map[string]any)
	require.Equal(t, "traveler@example.com", data["email"])

	rec = performRequest(server, http.MethodGet, "/api/v1/auth/profile", "", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = performRequest(server, http.MethodPost, "/api/v1/auth/login",
		`{"email":"traveler@example.com","password":"wrong-pass"}`, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_DiaryFlow(t *testing.T) {
	server := newRouterUnderTest(t)
	token := registerAndLogin(t, server, "diarist@example.com")

	rec := performRequest(server, http.MethodPost, "/api/v1/diary/entries",
		`{"title":"胡同漫步","body":"从南锣鼓巷走到什刹海。","city":"北京"}`, token)
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec.Body.Bytes())
	entry := body["data"].(map[string]any)
	entryID := entry["id"].(string)
	require.NotEmpty(t, entryID)

	rec = performRequest(server, http.MethodGet, "/api/v1/diary/entries", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec.Body.Bytes())
	entries := body["data"].(map[string]any)["entries"].([]any)
	require.Len(t, entries, 1)

	rec = performRequest(server, http.MethodGet, "/api/v1/diary/search?q=胡同", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec.Body.Bytes())
	results := body["data"].(map[string]any)["results"].([]any)
	require.Len(t, results, 1)

	rec = performRequest(server, http.MethodDelete, "/api/v1/diary/entries/"+entryID, "", token)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = performRequest(server, http.MethodGet, "/api/v1/diary/entries/"+entryID, "", token)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_CommunityFlow(t *testing.T) {
	server := newRouterUnderTest(t)
	token := registerAndLogin(t, server, "poster@example.com")
	otherToken := registerAndLogin(t, server, "reader@example.com")

	rec := performRequest(server, http.MethodPost, "/api/v1/community/posts",
		`{"title":"角楼日落","body":"值得一去。","city":"北京"}`, token)
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec.Body.Bytes())
	postID := body["data"].(map[string]any)["id"].(string)

	rec = performRequest(server, http.MethodPost, "/api/v1/community/posts", `{"title":"x","body":"y"}`, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = performRequest(server, http.MethodPost, fmt.Sprintf("/api/v1/community/posts/%s/like", postID), "", otherToken)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec.Body.Bytes())
	require.EqualValues(t, 1, body["data"].(map[string]any)["likeCount"])

	rec = performRequest(server, http.MethodGet, "/api/v1/community/posts?city=北京", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec.Body.Bytes())
	posts := body["data"].(map[string]any)["posts"].([]any)
	require.Len(t, posts, 1)

	rec = performRequest(server, http.MethodGet, "/api/v1/community/trending", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_PosterUnavailable(t *testing.T) {
	server := newRouterUnderTest(t)
	token := registerAndLogin(t, server, "artist@example.com")

	rec := performRequest(server, http.MethodPost, "/api/v1/posters", `{"city":"北京"}`, token)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	body := decodeBody(t, rec.Body.Bytes())
	errBody := body["error"].(map[string]any)
	require.Equal(t, "poster_unavailable", errBody["code"])
}

func performRequest(server *http.Server, method, path, body, token string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)
	return rec
}

func registerAndLogin(t *testing.T, server *http.Server, email string) string {
	t.Helper()
	rec := performRequest(server, http.MethodPost, "/api/v1/auth/register",
		fmt.Sprintf(`{"email":"%s","password":"pass1234","nickname":"tester"}`, email), "")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = performRequest(server, http.MethodPost, "/api/v1/auth/login",
		fmt.Sprintf(`{"email":"%s","password":"pass1234"}`, email), "")
	require.Equal(t, http.StatusOK, rec.Code)
	return loginToken(t, rec.Body.Bytes())
}

func loginToken(t *testing.T, raw []byte) string {
	t.Helper()
	body := decodeBody(t, raw)
	data := body["data"].(map[string]any)
	token, ok := data["token"].(string)
	require.True(t, ok)
	require.NotEmpty(t, token)
	return token
}

func decodeBody(t *testing.T, raw []byte) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

func newRouterUnderTest(t *testing.T) *http.Server {
	t.Helper()
	logger := newTestLogger()

	authSvc := auth.NewService(auth.Config{
		Secret:          "router-test-secret",
		TokenTTL:        time.Hour,
		RefreshTokenTTL: 24 * time.Hour,
	}, userrepo.NewMemoryRepository(), logger)

	storySvc := story.NewService(story.Config{}, nil, nil, logger)
	atlasSvc := atlas.NewService(nil, logger)
	diarySvc := diary.NewService(diary.Config{}, diaryrepo.NewMemoryRepository(),
		embedder.NewDeterministicEmbedder(32), storage.NewMemoryStorage(), logger)
	communitySvc := community.NewService(community.Config{}, communityrepo.NewMemoryRepository(),
		feedcache.NewMemoryStore(), logger)
	posterSvc := poster.NewService(poster.Config{}, posterrepo.NewMemoryRepository(), nil, nil, logger)

	cfg := &config.Config{
		HTTP: config.HTTPConfig{
			Address:      ":0",
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
		},
	}

	return NewRouter(
		cfg,
		NewHandler(storySvc, atlasSvc, logger),
		NewAuthHandler(authSvc, auth.Config{}),
		NewDiaryHandler(diarySvc),
		NewCommunityHandler(communitySvc, authSvc),
		NewPosterHandler(posterSvc),
		authSvc,
		logger,
	)
}

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(io.Discard, nil)
	return slog.New(handler)
}
