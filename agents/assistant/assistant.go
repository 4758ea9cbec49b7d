// Package assistant is the chat-style back-office assistant. It answers
// operator messages through a tool-calling loop over the record repository
// and the mailbox, keeping per-session history in a memory store.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	ai "github.com/good-jinu/finance-operating-automation-sub000"
	"github.com/good-jinu/finance-operating-automation-sub000/agent"
	"github.com/good-jinu/finance-operating-automation-sub000/memory"
	"github.com/good-jinu/finance-operating-automation-sub000/tool"
)

// ErrEmptyMessage is returned for a blank chat message.
var ErrEmptyMessage = errors.New("assistant: empty message")

const systemPrompt = `당신은 금융 백오피스 운영 담당자를 돕는 어시스턴트입니다.
회사 검색, 메일 조회, 수권자와 결제 계좌와 인감 정보의 조회 및 변경을 도구로 수행할 수 있습니다.
정보를 변경하기 전에는 반드시 목록 조회 도구로 대상 ID를 확인하세요.
도구 결과의 success가 false이면 error 내용을 사용자에게 그대로 알려주세요.
항상 한국어로 간결하게 답하세요.`

// Answer is the outcome of one chat turn.
type Answer struct {
	Session string   `json:"session_id"`
	Content string   `json:"content"`
	Tools   []string `json:"tools_used,omitempty"`
	Steps   int      `json:"steps"`
}

// Option configures the assistant.
type Option func(*Assistant)

// WithAgentOptions passes options to every loop run.
func WithAgentOptions(opts ...agent.Option) Option {
	return func(a *Assistant) { a.agentOpts = append(a.agentOpts, opts...) }
}

// WithSystemPrompt replaces the built-in instructions.
func WithSystemPrompt(p string) Option {
	return func(a *Assistant) { a.system = p }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Assistant) { a.logger = l }
}

// Assistant runs chat turns against a tool registry.
type Assistant struct {
	agent     *agent.Agent
	registry  *tool.Registry
	memory    memory.Store
	system    string
	agentOpts []agent.Option
	logger    *slog.Logger
}

// New creates an assistant over the given provider, tools and memory.
func New(provider ai.ChatProvider, registry *tool.Registry, mem memory.Store, opts ...Option) *Assistant {
	a := &Assistant{
		agent:    agent.New(provider, registry),
		registry: registry,
		memory:   mem,
		system:   systemPrompt,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Registry returns the tools the assistant may call.
func (a *Assistant) Registry() *tool.Registry { return a.registry }

// Chat runs one turn: it loads the session history, runs the tool loop and
// appends the user message plus every produced message to the session. An
// empty session starts a new one.
func (a *Assistant) Chat(ctx context.Context, session, text string) (*Answer, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	if session == "" {
		session = memory.NewSessionID()
	}

	history, err := a.memory.History(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("assistant: load history: %w", err)
	}

	user := ai.UserMessage(text)
	msgs := make([]ai.Message, 0, len(history)+2)
	msgs = append(msgs, ai.SystemMessage(a.system))
	msgs = append(msgs, history...)
	msgs = append(msgs, user)

	opts := append([]agent.Option{agent.WithLogger(a.logger)}, a.agentOpts...)
	res, err := a.agent.Run(ctx, msgs, opts...)
	if err != nil {
		a.logger.Warn("chat turn failed", "session", session, "termination", res.Termination, "error", err)
		return nil, fmt.Errorf("assistant: %w", err)
	}

	produced := res.NewMessages()
	if err := a.memory.Append(ctx, session, append([]ai.Message{user}, produced...)...); err != nil {
		return nil, fmt.Errorf("assistant: save history: %w", err)
	}

	answer := &Answer{Session: session, Steps: res.Steps}
	if res.Response != nil {
		answer.Content = res.Response.Content
	}
	seen := make(map[string]bool)
	for _, m := range produced {
		for _, tc := range m.ToolCalls {
			if !seen[tc.Name] {
				seen[tc.Name] = true
				answer.Tools = append(answer.Tools, tc.Name)
			}
		}
	}
	return answer, nil
}
