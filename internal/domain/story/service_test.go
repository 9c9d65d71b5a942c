package story

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/weiluo/roamstory/internal/infra/llm/chatgpt"
	"github.com/weiluo/roamstory/internal/infra/places/amap"
)

type stubPlaces struct {
	places     []amap.Place
	err        error
	lastCity   string
	lastKw     string
	aroundCall bool
}

func (s *stubPlaces) SearchText(_ context.Context, city, keyword string) ([]amap.Place, error) {
	s.lastCity, s.lastKw = city, keyword
	return s.places, s.err
}

func (s *stubPlaces) SearchAround(_ context.Context, _, _ float64, keyword string, _ int) ([]amap.Place, error) {
	s.aroundCall = true
	s.lastKw = keyword
	return s.places, s.err
}

type stubChat struct {
	payload json.RawMessage
	err     error
	calls   int
	lastReq chatgpt.ChatCompletionRequest
}

func (s *stubChat) Complete(_ context.Context, req chatgpt.ChatCompletionRequest) (json.RawMessage, error) {
	s.calls++
	s.lastReq = req
	return s.payload, s.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(places PlacesClient, chat ChatClient) *service {
	return NewService(Config{Model: "gpt-test"}, places, chat, testLogger()).(*service)
}

func TestGenerateArcTotalFallback(t *testing.T) {
	// both providers down: the pipeline must still produce a complete arc
	svc := newTestService(
		&stubPlaces{err: errors.New("dns failure")},
		&stubChat{err: errors.New("connection refused")},
	)

	for _, requested := range []int{0, 1, 3, 99} {
		arc, err := svc.GenerateArc(context.Background(), Request{City: "北京", Theme: "夜景", SceneCount: requested})
		require.NoError(t, err)
		require.Len(t, arc.Scenes, ClampSceneCount(requested))
		for _, scene := range arc.Scenes {
			require.NotEmpty(t, scene.POI.Name)
			require.NotEmpty(t, scene.Shot)
			require.NotEmpty(t, scene.Narration)
			require.NotEmpty(t, scene.Task)
		}
	}
}

func TestGenerateArcNoClientsConfigured(t *testing.T) {
	svc := newTestService(nil, nil)

	arc, err := svc.GenerateArc(context.Background(), Request{SceneCount: 4})
	require.NoError(t, err)
	require.Len(t, arc.Scenes, 4)
	require.Equal(t, "北京", arc.City)
	// built-in table backs the scenes
	require.Equal(t, fallbackPois[0].Name, arc.Scenes[0].POI.Name)
}

func TestGenerateArcProseWrappedModelOutput(t *testing.T) {
	// the model wraps its JSON in prose: the composer must salvage it
	body := `好的，这是你的行程：
{"title":"故宫晨光","logline":"两幕的紫禁城","scenes":[{"title":"推开宫门","narration":"晨雾未散","shot":"广角","task":"数屋脊上的神兽"},{"title":"护城河边","narration":"水波不兴","shot":"低角度","task":"等一只白鹭"}]}
祝你玩得开心！`
	payload, err := json.Marshal(map[string]any{
		"choices": []map[string]any{{"message": map[string]any{"role": "assistant", "content": body}}},
	})
	require.NoError(t, err)

	chat := &stubChat{payload: payload}
	svc := newTestService(&stubPlaces{err: errors.New("offline")}, chat)

	arc, err := svc.GenerateArc(context.Background(), Request{City: "北京", Theme: "历史", SceneCount: 2})
	require.NoError(t, err)
	require.Equal(t, 1, chat.calls)
	require.Equal(t, "故宫晨光", arc.Title)
	require.Equal(t, "两幕的紫禁城", arc.Logline)
	require.Len(t, arc.Scenes, 2)
	require.Equal(t, "晨雾未散", arc.Scenes[0].Narration)
	// model omitted POIs entirely: template POIs fill in
	require.NotEmpty(t, arc.Scenes[0].POI.Name)
}

func TestGenerateArcGarbageModelOutput(t *testing.T) {
	chat := &stubChat{payload: json.RawMessage(`{"content":"抱歉，我无法生成 JSON。"}`)}
	svc := newTestService(nil, chat)

	arc, err := svc.GenerateArc(context.Background(), Request{City: "上海", Theme: "美食", SceneCount: 3})
	require.NoError(t, err)
	require.Len(t, arc.Scenes, 3)
	require.Equal(t, "上海", arc.City)
}

func TestGenerateArcUsesResolvedPois(t *testing.T) {
	places := &stubPlaces{places: []amap.Place{
		{ID: "p1", Name: "豫园", Lng: 121.492, Lat: 31.227, Address: "黄浦区"},
		{ID: "p2", Name: "田子坊", Lng: 121.466, Lat: 31.21},
	}}
	svc := newTestService(places, nil)

	arc, err := svc.GenerateArc(context.Background(), Request{City: "上海", Theme: "美食", SceneCount: 2})
	require.NoError(t, err)
	require.Equal(t, "上海", places.lastCity)
	require.Equal(t, "美食", places.lastKw)
	require.Equal(t, "豫园", arc.Scenes[0].POI.Name)
	require.Equal(t, "田子坊", arc.Scenes[1].POI.Name)
}

func TestGenerateArcAnchorTriggersAroundSearch(t *testing.T) {
	places := &stubPlaces{}
	svc := newTestService(places, nil)

	_, err := svc.GenerateArc(context.Background(), Request{
		City:     "北京",
		Location: &Location{Lng: 116.39, Lat: 39.9},
		Radius:   800,
	})
	require.NoError(t, err)
	require.True(t, places.aroundCall)
}

func TestGenerateArcPromptMentionsPoisAndFields(t *testing.T) {
	chat := &stubChat{payload: json.RawMessage(`{}`)}
	places := &stubPlaces{places: []amap.Place{
		{ID: "p1", Name: "鼓浪屿", Lng: 118.064, Lat: 24.445},
	}}
	svc := newTestService(places, chat)

	_, err := svc.GenerateArc(context.Background(), Request{City: "厦门", Theme: "自然", SceneCount: 2})
	require.NoError(t, err)
	require.Equal(t, 1, chat.calls)
	require.Len(t, chat.lastReq.Messages, 2)
	user := chat.lastReq.Messages[1].Content
	require.Contains(t, user, "鼓浪屿")
	require.Contains(t, user, `"durationMinutes"`)
	require.Contains(t, user, "只输出JSON")
}

func TestResolveKeyword(t *testing.T) {
	require.Equal(t, "自定义", resolveKeyword("夜景", " 自定义 "))
	require.Equal(t, "夜景", resolveKeyword("夜景", ""))
	require.Equal(t, "美食", resolveKeyword("美食", "  "))
	require.Equal(t, genericKeyword, resolveKeyword("没有的主题", ""))
}

func TestResolvePoisFiltersUnusable(t *testing.T) {
	places := &stubPlaces{places: []amap.Place{
		{ID: "ok", Name: "好地方", Lng: 120.1, Lat: 30.2},
		{ID: "zero", Name: "原点", Lng: 0, Lat: 0},
		{ID: "anon", Name: "", Lng: 120.2, Lat: 30.3},
	}}
	svc := newTestService(places, nil)

	pois := svc.resolvePois(context.Background(), "杭州", "自然", "", nil, 0)
	require.Len(t, pois, 1)
	require.Equal(t, "好地方", pois[0].Name)
}

func TestLocationUnmarshalBothShapes(t *testing.T) {
	var req Request
	require.NoError(t, json.Unmarshal([]byte(`{"location":"116.39,39.90"}`), &req))
	require.True(t, req.Location.Valid())
	require.Equal(t, 116.39, req.Location.Lng)

	req = Request{}
	require.NoError(t, json.Unmarshal([]byte(`{"location":{"lng":121.47,"lat":31.23}}`), &req))
	require.True(t, req.Location.Valid())
	require.Equal(t, 31.23, req.Location.Lat)

	req = Request{}
	require.NoError(t, json.Unmarshal([]byte(`{"location":"garbage"}`), &req))
	require.False(t, req.Location.Valid())
}

func TestParseArcCandidateRecovery(t *testing.T) {
	require.Nil(t, parseArcCandidate("no braces here"))
	require.Nil(t, parseArcCandidate("{broken json"))

	direct := parseArcCandidate(`{"title":"直接"}`)
	require.NotNil(t, direct)

	wrapped := parseArcCandidate("Here is the plan:\n{\"title\":\"X\",\"scenes\":[{\"title\":\"一\"}]}\nThanks!")
	require.NotNil(t, wrapped)
	require.Equal(t, "X", coerceString(wrapped.Title, ""))
	require.Len(t, wrapped.Scenes, 1)
}
