package yandexgpt

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/KiritoZik/psb-AI-backend/internal/core/ports"
	"github.com/KiritoZik/psb-AI-backend/internal/infrastructure/resilience"
)

const (
	defaultBaseURL     = "https://llm.api.cloud.yandex.net"
	completionPath     = "/foundationModels/v1/completion"
	defaultModel       = "yandexgpt/latest"
	defaultTemperature = 0.6
	defaultMaxTokens   = 2000
	defaultTimeout     = 120 * time.Second
)

type Config struct {
	BaseURL     string
	APIKey      string
	FolderID    string
	Model       string
	Temperature float64
	MaxTokens   int

	// RequestsPerSecond throttles outbound completion calls. Zero disables
	// throttling.
	RequestsPerSecond float64
	Burst             int

	Timeout time.Duration
}

func (c Config) normalize() Config {
	out := c
	if out.BaseURL == "" {
		out.BaseURL = defaultBaseURL
	}
	out.BaseURL = strings.TrimRight(out.BaseURL, "/")
	if out.Model == "" {
		out.Model = defaultModel
	}
	if out.Temperature <= 0 {
		out.Temperature = defaultTemperature
	}
	if out.MaxTokens <= 0 {
		out.MaxTokens = defaultMaxTokens
	}
	if out.Timeout <= 0 {
		out.Timeout = defaultTimeout
	}
	if out.Burst <= 0 {
		out.Burst = 1
	}
	return out
}

type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
	executor   *resilience.Executor
}

var _ ports.ReplyGenerator = (*Client)(nil)

func New(cfg Config, executor *resilience.Executor) *Client {
	cfg = cfg.normalize()
	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    limiter,
		executor:   executor,
	}
}

func (c *Client) modelURI() string {
	return fmt.Sprintf("gpt://%s/%s", c.cfg.FolderID, c.cfg.Model)
}

type message struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type completionOptions struct {
	Stream      bool    `json:"stream"`
	Temperature float64 `json:"temperature"`
	MaxTokens   string  `json:"maxTokens"`
}

type completionRequest struct {
	ModelURI          string            `json:"modelUri"`
	CompletionOptions completionOptions `json:"completionOptions"`
	Messages          []message         `json:"messages"`
}

type completionResult struct {
	Result struct {
		Alternatives []struct {
			Message message `json:"message"`
			Status  string  `json:"status"`
		} `json:"alternatives"`
	} `json:"result"`
}

func (c *Client) buildRequest(system, user string, stream bool) completionRequest {
	return completionRequest{
		ModelURI: c.modelURI(),
		CompletionOptions: completionOptions{
			Stream:      stream,
			Temperature: c.cfg.Temperature,
			MaxTokens:   strconv.Itoa(c.cfg.MaxTokens),
		},
		Messages: []message{
			{Role: "system", Text: system},
			{Role: "user", Text: user},
		},
	}
}

// Complete requests one full completion. Completions are never retried: a
// failed generation is surfaced to the caller, only the circuit breaker
// observes the failure.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	if err := c.waitLimiter(ctx); err != nil {
		return "", err
	}

	var response completionResult
	call := func(ctx context.Context) error {
		return c.postJSON(ctx, c.buildRequest(system, user, false), &response)
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "yandexgpt.completion", call, classifyCompletionError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", wrapTemporaryIfNeeded("yandexgpt completion", err)
	}

	if len(response.Result.Alternatives) == 0 {
		return "", fmt.Errorf("yandexgpt completion: empty alternatives")
	}
	return strings.TrimSpace(response.Result.Alternatives[0].Message.Text), nil
}

// CompleteStream requests a streamed completion and emits text deltas as
// they arrive. The stream is not routed through the breaker: a consumer may
// already have received partial output.
func (c *Client) CompleteStream(ctx context.Context, system, user string, emit func(string) error) error {
	if err := c.waitLimiter(ctx); err != nil {
		return err
	}
	err := c.streamCompletion(ctx, c.buildRequest(system, user, true), emit)
	if err != nil {
		return wrapTemporaryIfNeeded("yandexgpt stream", err)
	}
	return nil
}

func (c *Client) waitLimiter(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("yandexgpt rate limit: %w", err)
	}
	return nil
}
