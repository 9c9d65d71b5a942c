package posterimage

import (
	"context"
	"errors"

	"github.com/weiluo/roamstory/internal/domain/poster"
	"github.com/weiluo/roamstory/internal/infra/llm/chatgpt"
)

// ChatGPTImages adapts the LLM client's image endpoint to the poster domain.
type ChatGPTImages struct {
	client *chatgpt.Client
}

// NewChatGPTImages constructs the adapter.
func NewChatGPTImages(client *chatgpt.Client) *ChatGPTImages {
	return &ChatGPTImages{client: client}
}

// GenerateImage requests one image and returns its base64 payload.
func (a *ChatGPTImages) GenerateImage(ctx context.Context, model, prompt, size string) (string, error) {
	resp, err := a.client.CreateImage(ctx, chatgpt.ImageRequest{
		Model:  model,
		Prompt: prompt,
		Size:   size,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return "", errors.New("image provider returned no data")
	}
	return resp.Data[0].B64JSON, nil
}

var _ poster.ImageClient = (*ChatGPTImages)(nil)
