// Package llm provides the answer generator backed by any
// OpenAI-compatible chat completion endpoint.
package llm

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

const systemPrompt = "You are a contract analysis assistant. Answer using only the supplied " +
	"document context when it is relevant; say explicitly when the document does not cover " +
	"the question. Be concise and use plain language."

// TokenObserver receives token usage after each completed request.
// Implementations must be safe for concurrent use.
type TokenObserver interface {
	ObserveTokens(promptTokens, completionTokens int)
}

// Config represents the generator configuration. The provider base URL
// and model are expected to be resolved already (see internal/profile).
type Config struct {
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string
	MaxTokens   int     // default: 1024
	Temperature float32 // default: 0.3
	Timeout     int     // request timeout in seconds (default: 60)

	// RequestsPerSecond throttles upstream calls. Zero means 2 rps.
	RequestsPerSecond float64
}

// Generator produces free-form answer text for the composer. It
// satisfies the pipeline's Generator interface.
type Generator struct {
	client      *openai.Client
	model       string
	provider    string
	maxTokens   int
	temperature float32
	timeout     time.Duration
	limiter     *rate.Limiter
	observer    TokenObserver
}

// NewGenerator creates a generator. observer may be nil.
func NewGenerator(cfg *Config, observer TokenObserver) (*Generator, error) {
	if cfg.Model == "" {
		return nil, errors.New("llm model is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	clientConfig.HTTPClient = newHTTPClient()

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	temperature := cfg.Temperature
	if temperature <= 0 {
		temperature = 0.3
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}

	return &Generator{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       cfg.Model,
		provider:    cfg.Provider,
		maxTokens:   maxTokens,
		temperature: temperature,
		timeout:     time.Duration(timeout) * time.Second,
		limiter:     rate.NewLimiter(rate.Limit(rps), 1),
		observer:    observer,
	}, nil
}

// Generate answers a question against the supplied document context.
func (g *Generator) Generate(ctx context.Context, question, documentContext string) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", errors.Wrap(err, "llm rate limit wait")
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
	}
	if documentContext != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: "Document context:\n" + documentContext,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: question,
	})

	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
		Messages:    messages,
	})
	if err != nil {
		return "", errors.Wrap(err, "llm chat completion")
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty response from llm")
	}

	if g.observer != nil {
		g.observer.ObserveTokens(resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	}
	slog.Debug("llm generation finished",
		"provider", g.provider,
		"model", g.model,
		"total_tokens", resp.Usage.TotalTokens,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return resp.Choices[0].Message.Content, nil
}

// newHTTPClient builds an HTTP client with connection pooling tuned for
// a small number of long requests.
func newHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 5,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
	}
}
