package agent

import (
	"io"
	"log/slog"
	"time"

	ai "github.com/good-jinu/finance-operating-automation-sub000"
)

// StopFunc is a custom predicate to determine if the agent should stop.
// It receives the current step number and the latest response.
type StopFunc func(step int, response *ai.Response) bool

// Options contains configuration for agent execution.
type Options struct {
	// MaxSteps limits the number of model calls. Default is 10. The last
	// allowed call is sent with tool choice "none".
	// Set to 0 for unlimited (not recommended).
	MaxSteps int

	// Timeout sets a deadline for the entire run. Zero means none.
	Timeout time.Duration

	// HandlerTimeout bounds each tool handler. Default is 30 seconds.
	HandlerTimeout time.Duration

	// ParallelToolCalls executes the calls of one step concurrently.
	// Default is false: the chat tools mutate records and run in order.
	ParallelToolCalls bool

	// StopPredicate is called after each step; return true to stop.
	StopPredicate StopFunc

	// ChatOptions are passed through to the ChatProvider.
	ChatOptions []ai.Option

	Logger *slog.Logger
}

// Option is a functional option for configuring agent execution.
type Option func(*Options)

// WithMaxSteps sets the maximum number of model calls.
func WithMaxSteps(n int) Option {
	return func(o *Options) {
		o.MaxSteps = n
	}
}

// WithTimeout sets a deadline for the entire run.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.Timeout = d
	}
}

// WithHandlerTimeout sets the timeout for each tool handler.
func WithHandlerTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.HandlerTimeout = d
	}
}

// WithParallelToolCalls enables or disables concurrent tool execution.
func WithParallelToolCalls(enabled bool) Option {
	return func(o *Options) {
		o.ParallelToolCalls = enabled
	}
}

// WithStopPredicate sets a custom termination condition.
func WithStopPredicate(fn StopFunc) Option {
	return func(o *Options) {
		o.StopPredicate = fn
	}
}

// WithChatOptions passes options through to the ChatProvider.
func WithChatOptions(opts ...ai.Option) Option {
	return func(o *Options) {
		o.ChatOptions = append(o.ChatOptions, opts...)
	}
}

// WithModel is a convenience option to set the model for chat calls.
func WithModel(model string) Option {
	return func(o *Options) {
		o.ChatOptions = append(o.ChatOptions, ai.WithModel(model))
	}
}

// WithLogger sets the logger used for step and tool diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// ApplyOptions applies functional options to an Options struct with defaults.
func ApplyOptions(opts ...Option) *Options {
	o := &Options{
		MaxSteps:       10,
		HandlerTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o
}
