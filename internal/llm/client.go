// Package llm provides the completion gateway used by the chat relay and its
// provider implementations (OpenAI-compatible endpoints such as Ollama, and
// Anthropic).
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Chat roles understood by every provider.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry of a completion prompt.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is what a Provider receives.
type Request struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float64
	TopP        float64
}

// Reply is a complete (non-streamed) model answer.
type Reply struct {
	Content   string
	Model     string
	TokensIn  int
	TokensOut int
	LatencyMs int64
}

// Provider is a single completion backend.
type Provider interface {
	// Name returns the provider label used in logs and metrics.
	Name() string

	// Complete sends one chat completion request.
	Complete(ctx context.Context, req *Request) (*Reply, error)
}

// Gateway turns an assembled prompt into a reply.
type Gateway interface {
	Complete(ctx context.Context, msgs []Message) (*Reply, error)
}

// Provider names accepted by New.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Config selects and tunes the completion backend.
type Config struct {
	Provider    string
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	TopP        float64
	MaxTokens   int
	Timeout     time.Duration
}

// Client is the Gateway implementation: it bounds every call with a timeout,
// classifies failures and records metrics and a trace span.
type Client struct {
	provider    Provider
	model       string
	temperature float64
	topP        float64
	maxTokens   int
	timeout     time.Duration
}

// New builds a Client for cfg.Provider.
func New(cfg Config) (*Client, error) {
	var (
		p   Provider
		err error
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderOpenAI:
		p, err = NewOpenAIProvider(cfg.BaseURL, cfg.APIKey)
	case ProviderAnthropic:
		p, err = NewAnthropicProvider(cfg.BaseURL, cfg.APIKey)
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrGatewayUnavailable, cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return NewWithProvider(p, cfg), nil
}

// NewWithProvider wraps an already constructed Provider.
func NewWithProvider(p Provider, cfg Config) *Client {
	return &Client{
		provider:    p,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		topP:        cfg.TopP,
		maxTokens:   cfg.MaxTokens,
		timeout:     cfg.Timeout,
	}
}

// Name returns the underlying provider name.
func (c *Client) Name() string { return c.provider.Name() }

// Complete sends msgs to the provider. A deadline yields ErrGatewayTimeout,
// any other failure (including an empty answer) yields ErrGateway. There are
// no retries.
func (c *Client) Complete(ctx context.Context, msgs []Message) (*Reply, error) {
	name := c.provider.Name()
	tr := otel.Tracer("llm/Client")
	ctx, span := tr.Start(ctx, "Complete",
		trace.WithAttributes(
			attribute.String("llm.provider", name),
			attribute.String("llm.model", c.model),
			attribute.Int("llm.messages", len(msgs)),
		),
	)
	defer span.End()

	callCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	reply, err := c.provider.Complete(callCtx, &Request{
		Model:       c.model,
		Messages:    msgs,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		TopP:        c.topP,
	})
	llmLat.WithLabelValues(name).Observe(time.Since(start).Seconds())

	if err == nil && (reply == nil || strings.TrimSpace(reply.Content) == "") {
		err = errEmptyReply
	}
	if err != nil {
		status := "error"
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			status = "timeout"
			err = fmt.Errorf("%w: %s: %w", ErrGatewayTimeout, name, err)
		} else {
			err = fmt.Errorf("%w: %s: %w", ErrGateway, name, err)
		}
		llmReqs.WithLabelValues(name, status).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, status)
		return nil, err
	}

	llmReqs.WithLabelValues(name, "ok").Inc()
	llmTokens.WithLabelValues(name, "in").Add(float64(reply.TokensIn))
	llmTokens.WithLabelValues(name, "out").Add(float64(reply.TokensOut))
	span.SetAttributes(
		attribute.Int("llm.tokens_in", reply.TokensIn),
		attribute.Int("llm.tokens_out", reply.TokensOut),
	)
	return reply, nil
}
