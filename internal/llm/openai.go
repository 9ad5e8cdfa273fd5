package llm

import (
	"context"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// DefaultOpenAIBaseURL points at a local Ollama server's OpenAI-compatible API.
const DefaultOpenAIBaseURL = "http://localhost:11434/v1"

// OpenAIProvider talks to any OpenAI-compatible chat completions endpoint.
type OpenAIProvider struct {
	client *openai.Client
}

// NewOpenAIProvider creates a provider for baseURL. The key may be empty for
// local servers that do not check it.
func NewOpenAIProvider(baseURL, apiKey string) (*OpenAIProvider, error) {
	cfg := openai.DefaultConfig(apiKey)
	if u := strings.TrimSpace(baseURL); u != "" {
		cfg.BaseURL = strings.TrimRight(u, "/")
	} else {
		cfg.BaseURL = DefaultOpenAIBaseURL
	}
	return &OpenAIProvider{client: openai.NewClientWithConfig(cfg)}, nil
}

// Name returns the provider name.
func (p *OpenAIProvider) Name() string { return ProviderOpenAI }

// Complete sends a completion request.
func (p *OpenAIProvider) Complete(ctx context.Context, req *Request) (*Reply, error) {
	start := time.Now()

	model := req.Model
	if model == "" {
		model = "qwen"
	}

	messages := make([]openai.ChatCompletionMessage, len(req.Messages))
	for i, msg := range req.Messages {
		messages[i] = openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: float32(req.Temperature),
		TopP:        float32(req.TopP),
	})
	if err != nil {
		return nil, err
	}

	var content string
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
	}

	return &Reply{
		Content:   content,
		Model:     resp.Model,
		TokensIn:  resp.Usage.PromptTokens,
		TokensOut: resp.Usage.CompletionTokens,
		LatencyMs: time.Since(start).Milliseconds(),
	}, nil
}
