package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultAnthropicModel = "claude-3-5-haiku-20241022"

// AnthropicProvider is the Anthropic Messages API provider.
type AnthropicProvider struct {
	client *anthropic.Client
}

// NewAnthropicProvider creates a provider; baseURL is optional.
func NewAnthropicProvider(baseURL, apiKey string) (*AnthropicProvider, error) {
	if apiKey == "" {
		return nil, errors.Join(ErrGatewayUnavailable, errors.New("anthropic API key is required"))
	}
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if u := strings.TrimSpace(baseURL); u != "" {
		opts = append(opts, option.WithBaseURL(u))
	}
	return &AnthropicProvider{client: anthropic.NewClient(opts...)}, nil
}

// Name returns the provider name.
func (p *AnthropicProvider) Name() string { return ProviderAnthropic }

// Complete sends a completion request. System entries become system blocks;
// the remaining turns keep their order. Leading assistant turns are dropped
// because the Messages API expects the conversation to open with the user.
func (p *AnthropicProvider) Complete(ctx context.Context, req *Request) (*Reply, error) {
	start := time.Now()

	model := req.Model
	if model == "" {
		model = defaultAnthropicModel
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 1024
	}

	var (
		system   []anthropic.TextBlockParam
		messages []anthropic.MessageParam
	)
	for _, msg := range req.Messages {
		if msg.Role == RoleSystem {
			system = append(system, anthropic.TextBlockParam{
				Type: anthropic.F(anthropic.TextBlockParamTypeText),
				Text: anthropic.F(msg.Content),
			})
			continue
		}
		if len(messages) == 0 && msg.Role == RoleAssistant {
			continue
		}
		messages = append(messages, anthropic.MessageParam{
			Role: anthropic.F(anthropic.MessageParamRole(msg.Role)),
			Content: anthropic.F([]anthropic.ContentBlockParamUnion{
				anthropic.TextBlockParam{
					Type: anthropic.F(anthropic.TextBlockParamTypeText),
					Text: anthropic.F(msg.Content),
				},
			}),
		})
	}
	if len(messages) == 0 {
		return nil, errors.New("anthropic: no user turn to answer")
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.F(model),
		MaxTokens: anthropic.F(int64(maxTokens)),
		Messages:  anthropic.F(messages),
	}
	if len(system) > 0 {
		params.System = anthropic.F(system)
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.F(req.Temperature)
	}
	if req.TopP > 0 {
		params.TopP = anthropic.F(req.TopP)
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, err
	}

	var content string
	for _, block := range resp.Content {
		if block.Type == anthropic.ContentBlockTypeText {
			content += block.Text
		}
	}

	return &Reply{
		Content:   content,
		Model:     resp.Model,
		TokensIn:  int(resp.Usage.InputTokens),
		TokensOut: int(resp.Usage.OutputTokens),
		LatencyMs: time.Since(start).Milliseconds(),
	}, nil
}
