package nodes

import (
	"io"
	"log/slog"

	ai "github.com/good-jinu/finance-operating-automation-sub000"
)

// Recorder counts fallbacks taken by nodes.
type Recorder interface {
	Fallback(node, kind string)
}

// Env carries the collaborators every node needs.
type Env struct {
	Model       ai.ChatProvider
	Logger      *slog.Logger
	Recorder    Recorder
	ChatOptions []ai.Option
}

// Log returns the logger, discarding output when none is set.
func (e Env) Log() *slog.Logger {
	if e.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return e.Logger
}

// Fallback logs a swallowed node failure and counts it.
func (e Env) Fallback(node, kind string, err error) {
	e.Log().Warn("node fell back", "node", node, "kind", kind, "error", err)
	if e.Recorder != nil {
		e.Recorder.Fallback(node, kind)
	}
}
