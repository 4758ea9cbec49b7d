package agent

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ai "github.com/good-jinu/finance-operating-automation-sub000"
	"github.com/good-jinu/finance-operating-automation-sub000/internal/llmtest"
	"github.com/good-jinu/finance-operating-automation-sub000/tool"
)

type lookupArgs struct {
	Name string `json:"name" required:"true"`
}

func newRegistry(calls *atomic.Int32) *tool.Registry {
	return tool.NewRegistry().Add(
		tool.Func("lookup", "Look up a company", func(ctx context.Context, args lookupArgs) (string, error) {
			calls.Add(1)
			if args.Name == "" {
				return "", errors.New("name required")
			}
			return `{"company":"` + args.Name + `"}`, nil
		}),
	)
}

func toolCall(id, name, args string) ai.ToolCall {
	return ai.ToolCall{ID: id, Name: name, Arguments: args}
}

func TestAgentRun(t *testing.T) {
	t.Run("completes without tool calls", func(t *testing.T) {
		p := llmtest.New().Text("안녕하세요")
		var calls atomic.Int32
		a := New(p, newRegistry(&calls))

		res, err := a.Run(context.Background(), []ai.Message{ai.UserMessage("hi")})
		require.NoError(t, err)
		assert.Equal(t, TerminationComplete, res.Termination)
		assert.Equal(t, 1, res.Steps)
		assert.Equal(t, "안녕하세요", res.Response.Content)
		assert.Len(t, res.Messages(), 2)
		require.Len(t, res.NewMessages(), 1)
		assert.Equal(t, ai.RoleAssistant, res.NewMessages()[0].Role)
		assert.Zero(t, calls.Load())
	})

	t.Run("feeds tool results back", func(t *testing.T) {
		p := llmtest.New().On("",
			llmtest.Reply{ToolCalls: []ai.ToolCall{toolCall("c1", "lookup", `{"name":"한국상사"}`)}},
			llmtest.Reply{Content: "찾았습니다"},
		)
		var calls atomic.Int32
		a := New(p, newRegistry(&calls))

		res, err := a.Run(context.Background(), []ai.Message{ai.UserMessage("find")})
		require.NoError(t, err)
		assert.Equal(t, TerminationComplete, res.Termination)
		assert.Equal(t, 2, res.Steps)
		assert.Equal(t, int32(1), calls.Load())
		assert.Equal(t, 20, res.TotalUsage.InputTokens)

		msgs := res.NewMessages()
		require.Len(t, msgs, 3)
		assert.Len(t, msgs[0].ToolCalls, 1)
		assert.Equal(t, ai.RoleTool, msgs[1].Role)
		require.Len(t, msgs[1].ToolResults, 1)
		assert.Equal(t, "c1", msgs[1].ToolResults[0].ToolCallID)
		assert.Contains(t, msgs[1].ToolResults[0].Content, "한국상사")
		assert.Equal(t, "찾았습니다", msgs[2].Content)

		second := p.Calls()[1]
		assert.Len(t, second.Messages, 3)
		assert.Len(t, second.Options.Tools, 1)
	})

	t.Run("unknown tool becomes an error result", func(t *testing.T) {
		p := llmtest.New().On("",
			llmtest.Reply{ToolCalls: []ai.ToolCall{toolCall("c1", "missing", `{}`)}},
			llmtest.Reply{Content: "done"},
		)
		var calls atomic.Int32
		a := New(p, newRegistry(&calls))

		res, err := a.Run(context.Background(), []ai.Message{ai.UserMessage("x")})
		require.NoError(t, err)
		tr := res.NewMessages()[1].ToolResults[0]
		assert.True(t, tr.IsError)
		var envelope tool.Result
		require.NoError(t, json.Unmarshal([]byte(tr.Content), &envelope))
		assert.False(t, envelope.Success)
		assert.Contains(t, envelope.Error, "missing")
	})

	t.Run("stops at max steps", func(t *testing.T) {
		p := llmtest.New().On("",
			llmtest.Reply{ToolCalls: []ai.ToolCall{toolCall("c1", "lookup", `{"name":"a"}`)}},
		)
		var calls atomic.Int32
		a := New(p, newRegistry(&calls))

		res, err := a.Run(context.Background(), []ai.Message{ai.UserMessage("loop")}, WithMaxSteps(3))
		require.ErrorIs(t, err, ErrMaxStepsReached)
		assert.Equal(t, TerminationMaxSteps, res.Termination)
		assert.Equal(t, 3, res.Steps)
		assert.Equal(t, int32(3), calls.Load())

		sent := p.Calls()
		require.Len(t, sent, 3)
		assert.Empty(t, sent[0].Options.ToolChoice)
		assert.Empty(t, sent[1].Options.ToolChoice)
		assert.Equal(t, ai.ToolChoiceNone, sent[2].Options.ToolChoice)
	})

	t.Run("provider error", func(t *testing.T) {
		boom := errors.New("boom")
		p := llmtest.New().Fail("", boom)
		var calls atomic.Int32
		a := New(p, newRegistry(&calls))

		res, err := a.Run(context.Background(), []ai.Message{ai.UserMessage("x")})
		require.ErrorIs(t, err, boom)
		assert.Equal(t, TerminationError, res.Termination)
		assert.Nil(t, res.Response)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		p := llmtest.New().Text("never")
		var calls atomic.Int32
		a := New(p, newRegistry(&calls))

		res, err := a.Run(ctx, []ai.Message{ai.UserMessage("x")})
		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, TerminationCancelled, res.Termination)
		assert.Empty(t, p.Calls())
	})

	t.Run("stop predicate", func(t *testing.T) {
		p := llmtest.New().On("",
			llmtest.Reply{ToolCalls: []ai.ToolCall{toolCall("c1", "lookup", `{"name":"a"}`)}},
		)
		var calls atomic.Int32
		a := New(p, newRegistry(&calls))

		res, err := a.Run(context.Background(), []ai.Message{ai.UserMessage("x")},
			WithStopPredicate(func(step int, _ *ai.Response) bool { return step == 1 }),
		)
		require.NoError(t, err)
		assert.Equal(t, TerminationCustom, res.Termination)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("parallel tool calls keep order", func(t *testing.T) {
		p := llmtest.New().On("",
			llmtest.Reply{ToolCalls: []ai.ToolCall{
				toolCall("c1", "lookup", `{"name":"first"}`),
				toolCall("c2", "lookup", `{"name":"second"}`),
			}},
			llmtest.Reply{Content: "ok"},
		)
		var calls atomic.Int32
		a := New(p, newRegistry(&calls))

		res, err := a.Run(context.Background(), []ai.Message{ai.UserMessage("x")},
			WithParallelToolCalls(true), WithHandlerTimeout(time.Second))
		require.NoError(t, err)
		results := res.NewMessages()[1].ToolResults
		require.Len(t, results, 2)
		assert.Equal(t, "c1", results[0].ToolCallID)
		assert.True(t, strings.Contains(results[1].Content, "second"))
	})
}

func TestApplyOptions(t *testing.T) {
	o := ApplyOptions()
	assert.Equal(t, 10, o.MaxSteps)
	assert.Equal(t, 30*time.Second, o.HandlerTimeout)
	assert.False(t, o.ParallelToolCalls)
	assert.NotNil(t, o.Logger)

	o = ApplyOptions(WithMaxSteps(2), WithModel("m"), WithTimeout(time.Minute))
	assert.Equal(t, 2, o.MaxSteps)
	assert.Equal(t, time.Minute, o.Timeout)
	assert.Equal(t, "m", ai.ApplyOptions(o.ChatOptions...).Model)
}
