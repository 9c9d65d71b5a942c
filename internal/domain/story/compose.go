package story

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"

	"github.com/weiluo/roamstory/internal/infra/llm/chatgpt"
	"github.com/weiluo/roamstory/pkg/metrics"
)

const systemPrompt = "你是一位旅行叙事导演，擅长把城市里的真实地点编排成一条有起伏的拍摄路线。"

// composeWithModel runs the LLM branch of the composer. It returns the parsed
// candidate, the provider's token usage when reported, and true on success;
// any network, extraction, or parse failure returns (nil, nil, false) so the
// caller falls back to the template arc. This branch never surfaces an error.
func (s *service) composeWithModel(ctx context.Context, city, theme string, pois []PointOfInterest, sceneCount int) (*arcCandidate, *metrics.TokenUsage, bool) {
	if s.chat == nil {
		return nil, nil, false
	}

	prompt := s.buildArcPrompt(city, theme, pois, sceneCount)
	raw, err := s.chat.Complete(ctx, chatgpt.ChatCompletionRequest{
		Model: s.cfg.Model,
		Messages: []chatgpt.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		s.logger.Warn("arc generation call failed, using template arc", "city", city, "error", err)
		return nil, nil, false
	}

	text := chatgpt.ExtractText(raw)
	if strings.TrimSpace(text) == "" {
		s.logger.Warn("arc generation returned no text, using template arc", "city", city)
		return nil, nil, false
	}
	candidate := parseArcCandidate(text)
	if candidate == nil {
		s.logger.Warn("arc generation returned unparseable JSON, using template arc", "city", city)
		return nil, nil, false
	}
	return candidate, usageFrom(raw), true
}

// usageFrom converts the provider usage block, returning nil when the
// provider reported nothing.
func usageFrom(raw []byte) *metrics.TokenUsage {
	u := chatgpt.ExtractUsage(raw)
	usage := metrics.TokenUsage{
		PromptTokens:     u.PromptTokens,
		CompletionTokens: u.CompletionTokens,
		TotalTokens:      u.TotalTokens,
	}
	if usage.IsZero() {
		return nil
	}
	return &usage
}

// poiDigest is the compact POI summary embedded in the prompt.
type poiDigest struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Lng     float64 `json:"lng"`
	Lat     float64 `json:"lat"`
	Address string  `json:"address,omitempty"`
}

// buildArcPrompt assembles the generation instruction. The candidate POI list
// is capped at max(sceneCount, 3) entries and shrunk further if the prompt
// exceeds the token budget.
func (s *service) buildArcPrompt(city, theme string, pois []PointOfInterest, sceneCount int) string {
	limit := sceneCount
	if limit < 3 {
		limit = 3
	}
	if limit > len(pois) {
		limit = len(pois)
	}

	prompt := renderArcPrompt(city, theme, pois[:limit], sceneCount)
	if s.cfg.MaxPromptTokens <= 0 {
		return prompt
	}
	for limit > 1 && countTokens(prompt) > s.cfg.MaxPromptTokens {
		limit--
		prompt = renderArcPrompt(city, theme, pois[:limit], sceneCount)
	}
	return prompt
}

func renderArcPrompt(city, theme string, pois []PointOfInterest, sceneCount int) string {
	digests := make([]poiDigest, 0, len(pois))
	for _, poi := range pois {
		digests = append(digests, poiDigest{ID: poi.ID, Name: poi.Name, Lng: poi.Lng, Lat: poi.Lat, Address: poi.Address})
	}
	payload, err := json.Marshal(digests)
	if err != nil {
		payload = []byte("[]")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "请为一次“%s”主题的%s之行设计一条%d幕的故事线。\n", theme, city, sceneCount)
	fmt.Fprintf(&b, "候选地点（JSON）：%s\n", payload)
	b.WriteString("每一幕围绕一个候选地点展开，给出画面建议、旁白和一个可执行的小任务。\n")
	b.WriteString("只输出JSON，不要输出任何其他文字。字段必须是：")
	b.WriteString(`{"title":string,"logline":string,"summary":string,"scenes":[{"id":string,"title":string,"timeOfDay":string,"poi":{"id":string,"name":string,"lng":number,"lat":number,"address":string},"shot":string,"narration":string,"task":string,"tip":string,"durationMinutes":number}]}`)
	return b.String()
}

// countTokens estimates the prompt token count. Encoding lookup failure (for
// example, offline environments) disables the budget rather than the call.
func countTokens(text string) int {
	enc, err := tiktoken.EncodingForModel("gpt-4o-mini")
	if err != nil {
		return 0
	}
	return len(enc.Encode(text, nil, nil))
}

// parseArcCandidate parses model output as JSON. When the model wraps the
// object in prose or code fences, the substring between the first '{' and the
// last '}' is retried before giving up.
func parseArcCandidate(text string) *arcCandidate {
	trimmed := strings.TrimSpace(text)

	var candidate arcCandidate
	if err := json.Unmarshal([]byte(trimmed), &candidate); err == nil {
		return &candidate
	}

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start < 0 || end <= start {
		return nil
	}
	candidate = arcCandidate{}
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), &candidate); err != nil {
		return nil
	}
	return &candidate
}
