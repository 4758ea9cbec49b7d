package client

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	ai "github.com/good-jinu/finance-operating-automation-sub000"
	"github.com/good-jinu/finance-operating-automation-sub000/internal/provider/anthropic"
	"github.com/good-jinu/finance-operating-automation-sub000/internal/provider/google"
	"github.com/good-jinu/finance-operating-automation-sub000/internal/provider/openai"
	"github.com/good-jinu/finance-operating-automation-sub000/internal/retry"
	"github.com/good-jinu/finance-operating-automation-sub000/model"
)

// RetryConfig holds retry configuration parameters.
type RetryConfig = retry.Config

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig { return retry.DefaultConfig() }

// DisabledRetryConfig returns a configuration that performs a single attempt.
func DisabledRetryConfig() RetryConfig { return retry.Disabled() }

// Config holds configuration for creating a client.
type Config struct {
	Provider ai.Provider
	APIKey   string
	// Model is the default model; the provider default is used when empty.
	Model string

	// MaxTokens and Temperature become default request options.
	MaxTokens   int
	Temperature *float64

	// Retry configures retries for transient errors. Nil means DefaultRetryConfig.
	Retry *RetryConfig

	Logger *slog.Logger

	// Recorder receives one report per Chat call, after retries.
	Recorder UsageRecorder
}

// UsageRecorder is notified of every model call with the resolved model
// name and token usage.
type UsageRecorder interface {
	ModelCalled(provider ai.Provider, model string, usage ai.Usage, elapsed time.Duration, err error)
}

// ErrMissingAPIKey is returned when the configured provider has no API key.
type ErrMissingAPIKey struct {
	Provider ai.Provider
}

func (e *ErrMissingAPIKey) Error() string {
	return fmt.Sprintf("no API key configured for %s", e.Provider)
}

// Client is a retrying ai.ChatProvider.
type Client struct {
	provider    ai.Provider
	model       string
	inner       ai.ChatProvider
	retryConfig retry.Config
	defaults    []ai.Option
	logger      *slog.Logger
	recorder    UsageRecorder
}

var _ ai.ChatProvider = (*Client)(nil)

// New creates a client for the configured provider.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, &ErrMissingAPIKey{Provider: cfg.Provider}
	}
	if cfg.Model == "" {
		cfg.Model = model.Default(cfg.Provider).String()
	}

	var inner ai.ChatProvider
	switch cfg.Provider {
	case ai.ProviderAnthropic:
		inner = anthropic.New(cfg.APIKey, anthropic.WithModel(cfg.Model))
	case ai.ProviderOpenAI:
		inner = openai.New(cfg.APIKey, openai.WithModel(cfg.Model))
	case ai.ProviderGoogle:
		g, err := google.New(ctx, cfg.APIKey, google.WithModel(cfg.Model))
		if err != nil {
			return nil, fmt.Errorf("client: init google: %w", err)
		}
		inner = g
	default:
		return nil, fmt.Errorf("client: unknown provider %q", cfg.Provider)
	}

	return Wrap(cfg.Provider, inner, cfg), nil
}

// Wrap adds default options and retries to an existing provider.
func Wrap(name ai.Provider, inner ai.ChatProvider, cfg Config) *Client {
	rc := retry.DefaultConfig()
	if cfg.Retry != nil {
		rc = *cfg.Retry
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	var defaults []ai.Option
	if cfg.MaxTokens > 0 {
		defaults = append(defaults, ai.WithMaxTokens(cfg.MaxTokens))
	}
	if cfg.Temperature != nil {
		defaults = append(defaults, ai.WithTemperature(*cfg.Temperature))
	}

	return &Client{
		provider:    name,
		model:       cfg.Model,
		inner:       inner,
		retryConfig: rc,
		defaults:    defaults,
		logger:      logger.With("provider", string(name)),
		recorder:    cfg.Recorder,
	}
}

// Provider returns the backing provider identifier.
func (c *Client) Provider() ai.Provider { return c.provider }

// Chat sends a conversation, retrying transient failures.
// Per-request options override the client defaults.
func (c *Client) Chat(ctx context.Context, messages []ai.Message, opts ...ai.Option) (*ai.Response, error) {
	merged := make([]ai.Option, 0, len(c.defaults)+len(opts))
	merged = append(merged, c.defaults...)
	merged = append(merged, opts...)

	notify := func(attempt int, err error, delay time.Duration) {
		c.logger.Warn("model call failed, retrying",
			"attempt", attempt,
			"delay", delay,
			"error", err,
		)
	}
	start := time.Now()
	resp, err := retry.DoNotify(ctx, c.retryConfig, notify, func() (*ai.Response, error) {
		return c.inner.Chat(ctx, messages, merged...)
	})
	if c.recorder != nil {
		name := ai.ApplyOptions(merged...).Model
		if name == "" {
			name = c.model
		}
		var usage ai.Usage
		if resp != nil {
			usage = resp.Usage
		}
		c.recorder.ModelCalled(c.provider, name, usage, time.Since(start), err)
	}
	return resp, err
}
