// Package llmtest provides a scripted ai.ChatProvider for tests.
//
// Replies are queued per response schema name; free-form requests (no
// schema) use the empty name. The last reply of a queue repeats. Requests
// for a name with no script fail with ErrUnscripted, so an empty Provider
// models a model that always fails.
package llmtest

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	ai "github.com/good-jinu/finance-operating-automation-sub000"
)

// ErrUnscripted is returned for requests without a scripted reply.
var ErrUnscripted = errors.New("llmtest: no scripted reply")

// Reply is one scripted model answer.
type Reply struct {
	Content   string
	ToolCalls []ai.ToolCall
	Err       error
}

// Call records one request.
type Call struct {
	Schema   string
	Messages []ai.Message
	Options  *ai.Options
}

// Provider is a scripted ai.ChatProvider. It is safe for concurrent use.
type Provider struct {
	mu      sync.Mutex
	scripts map[string][]Reply
	calls   []Call
}

// New creates a Provider with no scripts.
func New() *Provider {
	return &Provider{scripts: make(map[string][]Reply)}
}

// On queues replies for requests using the named response schema.
func (p *Provider) On(schemaName string, replies ...Reply) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scripts[schemaName] = append(p.scripts[schemaName], replies...)
	return p
}

// JSON queues a structured reply encoding v.
func (p *Provider) JSON(schemaName string, v any) *Provider {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return p.On(schemaName, Reply{Content: string(data)})
}

// Text queues a free-form reply.
func (p *Provider) Text(content string) *Provider {
	return p.On("", Reply{Content: content})
}

// Fail queues a failure for the named schema.
func (p *Provider) Fail(schemaName string, err error) *Provider {
	return p.On(schemaName, Reply{Err: err})
}

// Chat answers from the script for the request's schema name.
func (p *Provider) Chat(ctx context.Context, messages []ai.Message, opts ...ai.Option) (*ai.Response, error) {
	options := ai.ApplyOptions(opts...)
	name := ""
	if options.ResponseSchema != nil {
		name = options.ResponseSchema.Name
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls = append(p.calls, Call{Schema: name, Messages: append([]ai.Message(nil), messages...), Options: options})

	queue := p.scripts[name]
	if len(queue) == 0 {
		return nil, ErrUnscripted
	}
	reply := queue[0]
	if len(queue) > 1 {
		p.scripts[name] = queue[1:]
	}
	if reply.Err != nil {
		return nil, reply.Err
	}
	return &ai.Response{
		Content:   reply.Content,
		ToolCalls: reply.ToolCalls,
		Usage:     ai.Usage{InputTokens: 10, OutputTokens: 5},
	}, nil
}

// Calls returns all recorded requests.
func (p *Provider) Calls() []Call {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Call(nil), p.calls...)
}

// CallCount returns how many requests used the named schema.
func (p *Provider) CallCount(schemaName string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, c := range p.calls {
		if c.Schema == schemaName {
			n++
		}
	}
	return n
}
