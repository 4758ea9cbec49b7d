// Package mcp exposes a tool registry to MCP (Model Context Protocol)
// clients, so desktop assistants can search companies, read mail and
// change back-office records with the same tools the chat assistant uses.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	ai "github.com/good-jinu/finance-operating-automation-sub000"
	"github.com/good-jinu/finance-operating-automation-sub000/tool"
)

const (
	defaultName    = "finops-tools"
	defaultVersion = "1.0.0"
)

// ServerOption configures a Server.
type ServerOption func(*serverConfig)

type serverConfig struct {
	name         string
	version      string
	instructions string
	logger       *slog.Logger
}

// WithName sets the server name reported to MCP clients.
func WithName(name string) ServerOption {
	return func(c *serverConfig) {
		c.name = name
	}
}

// WithVersion sets the server version reported to MCP clients.
func WithVersion(version string) ServerOption {
	return func(c *serverConfig) {
		c.version = version
	}
}

// WithInstructions sets the usage hints sent during initialization.
func WithInstructions(text string) ServerOption {
	return func(c *serverConfig) {
		c.instructions = text
	}
}

// WithLogger logs every tool call.
func WithLogger(l *slog.Logger) ServerOption {
	return func(c *serverConfig) {
		c.logger = l
	}
}

// NewServer creates an MCP server that exposes every tool in registry.
// Calls go through registry.Execute, so a recorder set on the registry
// sees MCP traffic too.
func NewServer(registry *tool.Registry, opts ...ServerOption) *server.MCPServer {
	cfg := &serverConfig{
		name:    defaultName,
		version: defaultVersion,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	serverOpts := []server.ServerOption{server.WithToolCapabilities(false)}
	if cfg.instructions != "" {
		serverOpts = append(serverOpts, server.WithInstructions(cfg.instructions))
	}
	s := server.NewMCPServer(cfg.name, cfg.version, serverOpts...)

	for _, t := range registry.Tools() {
		s.AddTool(ToMCPTool(t), handlerFor(registry, t.Name, cfg.logger))
	}
	return s
}

func handlerFor(registry *tool.Registry, name string, logger *slog.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := "{}"
		if req.Params.Arguments != nil {
			data, err := json.Marshal(req.Params.Arguments)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("failed to marshal arguments: %v", err)), nil
			}
			args = string(data)
		}

		result, err := registry.Execute(ctx, ai.ToolCall{Name: name, Arguments: args})
		if err != nil {
			logger.Warn("mcp tool call failed", "tool", name, "error", err)
			return mcp.NewToolResultError(err.Error()), nil
		}
		logger.Debug("mcp tool call", "tool", name, "is_error", result.IsError)
		return ToMCPCallToolResult(result), nil
	}
}

// ServeStdio serves registry over stdin/stdout until ctx is cancelled or
// the client disconnects.
func ServeStdio(ctx context.Context, registry *tool.Registry, opts ...ServerOption) error {
	return Serve(ctx, registry, os.Stdin, os.Stdout, opts...)
}

// Serve serves registry over the given streams.
func Serve(ctx context.Context, registry *tool.Registry, in io.Reader, out io.Writer, opts ...ServerOption) error {
	return server.NewStdioServer(NewServer(registry, opts...)).Listen(ctx, in, out)
}

// ToMCPTool converts a Tool to an MCP tool, using its parameter schema as
// the raw input schema.
func ToMCPTool(t ai.Tool) mcp.Tool {
	return mcp.NewToolWithRawSchema(t.Name, t.Description, t.Parameters)
}

// ToMCPCallToolResult converts a ToolResult to an MCP call result.
func ToMCPCallToolResult(result ai.ToolResult) *mcp.CallToolResult {
	if result.IsError {
		return mcp.NewToolResultError(result.Content)
	}
	return mcp.NewToolResultText(result.Content)
}
