// Package memory keeps chat conversation history per session.
//
// Sessions are append-only logs keyed by an opaque identifier. Memory is the
// in-process implementation; records/sqlstore provides a durable one.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	ai "github.com/good-jinu/finance-operating-automation-sub000"
)

// ErrEmptySession is returned for a blank session identifier.
var ErrEmptySession = errors.New("memory: empty session id")

// Store is the conversation memory collaborator.
type Store interface {
	// Append adds messages to the end of the session log.
	Append(ctx context.Context, session string, msgs ...ai.Message) error
	// History returns the session log in append order.
	History(ctx context.Context, session string) ([]ai.Message, error)
}

// NewSessionID returns a fresh session identifier.
func NewSessionID() string {
	return "session-" + uuid.New().String()
}

// Conversation is a thread-safe message log.
type Conversation struct {
	mu       sync.RWMutex
	messages []ai.Message
}

// Messages returns a copy of all messages.
func (c *Conversation) Messages() []ai.Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]ai.Message, len(c.messages))
	copy(result, c.messages)
	return result
}

// Append adds messages to the log.
func (c *Conversation) Append(msgs ...ai.Message) {
	if len(msgs) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, msgs...)
}

// Len returns the number of messages.
func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.messages)
}

// Last returns the last n messages. If n > Len(), returns all messages.
func (c *Conversation) Last(n int) []ai.Message {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if n <= 0 {
		return nil
	}
	start := max(len(c.messages)-n, 0)
	result := make([]ai.Message, len(c.messages)-start)
	copy(result, c.messages[start:])
	return result
}

// Option configures Memory.
type Option func(*Memory)

// WithWindow limits History to the most recent n messages.
func WithWindow(n int) Option {
	return func(m *Memory) { m.window = n }
}

// Memory implements Store in process memory.
type Memory struct {
	mu       sync.Mutex
	sessions map[string]*Conversation
	window   int
}

var _ Store = (*Memory)(nil)

// New creates an empty Memory.
func New(opts ...Option) *Memory {
	m := &Memory{sessions: make(map[string]*Conversation)}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Conversation returns the log for session, creating it if needed.
func (m *Memory) Conversation(session string) *Conversation {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.sessions[session]
	if !ok {
		c = &Conversation{}
		m.sessions[session] = c
	}
	return c
}

// Append adds messages to session.
func (m *Memory) Append(ctx context.Context, session string, msgs ...ai.Message) error {
	if session == "" {
		return ErrEmptySession
	}
	m.Conversation(session).Append(msgs...)
	return nil
}

// History returns the messages of session, honoring the window.
func (m *Memory) History(ctx context.Context, session string) ([]ai.Message, error) {
	if session == "" {
		return nil, ErrEmptySession
	}
	c := m.Conversation(session)
	if m.window > 0 {
		return c.Last(m.window), nil
	}
	return c.Messages(), nil
}
