// Package ai wraps the LLM backend used by the pipeline's SE, AR, TD and LD
// stages behind a single capability interface, so those stages can be tested
// against a mock without a real model running.
package ai

import (
	"context"
	"math"
	"time"

	"github.com/pkg/errors"
	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

// Message is a single turn in a chat completion request.
type Message struct {
	Role    string
	Content string
}

// Roles accepted by Message.Role, mirroring the OpenAI chat schema.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// LLMService is the capability every prompting stage depends on. Isolating
// it behind an interface keeps the OpenAI-compatible client swappable and
// keeps the pipeline stages unit-testable without a live model.
type LLMService interface {
	// Chat sends messages and returns the model's full text response.
	Chat(ctx context.Context, messages []Message) (string, error)
}

// Config configures a Provider. BaseURL points at any OpenAI-compatible
// endpoint, including a local Ollama server in OpenAI-compat mode.
type Config struct {
	BaseURL    string
	APIKey     string
	Model      string
	MaxRetries int
	Timeout    time.Duration
}

// DefaultConfig returns sane defaults for talking to a local Ollama server.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:    "http://127.0.0.1:11434/v1",
		APIKey:     "ollama",
		Model:      "llama3.1",
		MaxRetries: 3,
		Timeout:    60 * time.Second,
	}
}

// Provider is the default LLMService, backed by an OpenAI-compatible chat
// completions endpoint.
type Provider struct {
	client  *openai.Client
	config  *Config
	limiter *rate.Limiter
}

// NewProvider builds a Provider from cfg, filling in DefaultConfig values
// for anything left zero.
func NewProvider(cfg *Config) *Provider {
	defaults := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaults.BaseURL
	}
	if cfg.APIKey == "" {
		cfg.APIKey = defaults.APIKey
	}
	if cfg.Model == "" {
		cfg.Model = defaults.Model
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaults.MaxRetries
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = cfg.BaseURL

	return &Provider{
		client:  openai.NewClientWithConfig(clientCfg),
		config:  cfg,
		limiter: rate.NewLimiter(rate.Limit(2), 2),
	}
}

// Chat implements LLMService.
func (p *Provider) Chat(ctx context.Context, messages []Message) (string, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return "", errors.Wrap(err, "rate limit wait")
	}

	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model:    p.config.Model,
		Messages: toOpenAIMessages(messages),
	}

	var resp openai.ChatCompletionResponse
	err := p.doWithRetry(ctx, func() error {
		var callErr error
		resp, callErr = p.client.CreateChatCompletion(ctx, req)
		return callErr
	})
	if err != nil {
		return "", errors.Wrap(err, "chat completion")
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// doWithRetry retries fn with exponential backoff, bailing out early if ctx
// is cancelled between attempts.
func (p *Provider) doWithRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < p.config.MaxRetries; attempt++ {
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
		}

		if attempt == p.config.MaxRetries-1 {
			break
		}

		backoff := time.Duration(math.Pow(2, float64(attempt))) * time.Second
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return lastErr
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}
	return out
}
