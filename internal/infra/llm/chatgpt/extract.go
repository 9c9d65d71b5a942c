package chatgpt

import (
	"encoding/json"
	"strings"
)

// Usage is the token accounting block of an OpenAI-style payload.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ExtractUsage pulls the usage block out of a raw payload. A missing or
// malformed block yields the zero value.
func ExtractUsage(payload []byte) Usage {
	var envelope struct {
		Usage Usage `json:"usage"`
	}
	_ = json.Unmarshal(payload, &envelope)
	return envelope.Usage
}

// textKeys is the priority order in which known relay envelopes nest the
// generated text. "message" is special-cased: the text sits one level deeper
// under its "content" field.
var textKeys = []string{"content", "message", "output_text", "output", "choices", "result"}

// ExtractText pulls the generated text out of an OpenAI-compatible response
// payload. Relays disagree about where the text lives, so the known key paths
// are tried in a fixed priority order; list payloads are concatenated.
// Returns "" when no rule yields text.
func ExtractText(payload []byte) string {
	var node any
	if err := json.Unmarshal(payload, &node); err != nil {
		return ""
	}
	return extractNode(node)
}

func extractNode(node any) string {
	switch v := node.(type) {
	case string:
		return v
	case []any:
		var b strings.Builder
		for _, item := range v {
			b.WriteString(extractNode(item))
		}
		return b.String()
	case map[string]any:
		for _, key := range textKeys {
			inner, ok := v[key]
			if !ok || inner == nil {
				continue
			}
			if key == "message" {
				m, ok := inner.(map[string]any)
				if !ok {
					continue
				}
				if text := extractNode(m["content"]); text != "" {
					return text
				}
				continue
			}
			if text := extractNode(inner); text != "" {
				return text
			}
		}
	}
	return ""
}
