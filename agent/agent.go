package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"

	ai "github.com/good-jinu/finance-operating-automation-sub000"
	"github.com/good-jinu/finance-operating-automation-sub000/memory"
	"github.com/good-jinu/finance-operating-automation-sub000/tool"
)

var (
	// ErrMaxStepsReached ends a run whose tool calls did not settle within
	// MaxSteps model calls.
	ErrMaxStepsReached = errors.New("agent: maximum steps reached")
	// ErrAgentTimeout ends a run that outlived Options.Timeout.
	ErrAgentTimeout = errors.New("agent: timeout exceeded")
)

// TerminationReason says why a run stopped.
type TerminationReason string

const (
	TerminationComplete  TerminationReason = "complete"
	TerminationMaxSteps  TerminationReason = "max_steps"
	TerminationTimeout   TerminationReason = "timeout"
	TerminationCancelled TerminationReason = "cancelled"
	TerminationCustom    TerminationReason = "custom"
	TerminationError     TerminationReason = "error"
)

// Result is the outcome of a run.
type Result struct {
	// Response is the last model response, nil if the first call failed.
	Response *ai.Response
	// Termination says why the loop stopped.
	Termination TerminationReason
	// Steps is the number of model calls made.
	Steps int
	// TotalUsage sums token usage across steps.
	TotalUsage ai.Usage

	history *memory.Conversation
	input   int
}

// Messages returns the full conversation including the input messages.
func (r *Result) Messages() []ai.Message {
	return r.history.Messages()
}

// NewMessages returns the messages produced by the run: assistant turns,
// tool results and the final answer.
func (r *Result) NewMessages() []ai.Message {
	all := r.history.Messages()
	return all[r.input:]
}

// Agent orchestrates tool-calling conversations.
type Agent struct {
	provider ai.ChatProvider
	registry *tool.Registry
}

// New creates an Agent with the given provider and tool registry.
func New(provider ai.ChatProvider, registry *tool.Registry) *Agent {
	return &Agent{
		provider: provider,
		registry: registry,
	}
}

// Run executes the loop until the model answers without tool calls or a
// limit is hit. A non-nil Result is always returned; the error is set for
// every termination except TerminationComplete and TerminationCustom.
func (a *Agent) Run(ctx context.Context, messages []ai.Message, opts ...Option) (*Result, error) {
	options := ApplyOptions(opts...)

	if options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, options.Timeout)
		defer cancel()
	}

	history := &memory.Conversation{}
	history.Append(messages...)
	result := &Result{history: history, input: len(messages)}

	chatOpts := append([]ai.Option{ai.WithTools(a.registry.Tools())}, options.ChatOptions...)
	finalOpts := append(chatOpts[:len(chatOpts):len(chatOpts)], ai.WithToolChoice(ai.ToolChoiceNone))

	for step := 1; ; step++ {
		if reason, err := checkTermination(ctx, step, options); reason != "" {
			result.Termination = reason
			return result, err
		}

		stepOpts := chatOpts
		if step == options.MaxSteps {
			// The last allowed call must answer in text.
			stepOpts = finalOpts
		}
		resp, err := a.provider.Chat(ctx, history.Messages(), stepOpts...)
		if err != nil {
			result.Termination = TerminationError
			if reason, cerr := checkTermination(ctx, step, options); reason != "" {
				result.Termination = reason
				err = errors.Join(cerr, err)
			}
			return result, fmt.Errorf("agent: step %d: %w", step, err)
		}

		result.Steps = step
		result.Response = resp
		result.TotalUsage = result.TotalUsage.Add(resp.Usage)

		assistant := ai.Message{
			ID:        ai.GenerateMessageID(),
			Role:      ai.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		}
		history.Append(assistant)

		if len(resp.ToolCalls) == 0 {
			result.Termination = TerminationComplete
			return result, nil
		}

		options.Logger.Debug("executing tool calls", "step", step, "count", len(resp.ToolCalls))

		var results []ai.ToolResult
		if options.ParallelToolCalls && len(resp.ToolCalls) > 1 {
			results = a.executeToolCallsParallel(ctx, resp.ToolCalls, options)
		} else {
			results = a.executeToolCallsSequential(ctx, resp.ToolCalls, options)
		}
		history.Append(ai.NewToolResultMessage(results...))

		if options.StopPredicate != nil && options.StopPredicate(step, resp) {
			result.Termination = TerminationCustom
			return result, nil
		}
	}
}

func (a *Agent) executeToolCallsSequential(ctx context.Context, toolCalls []ai.ToolCall, options *Options) []ai.ToolResult {
	results := make([]ai.ToolResult, len(toolCalls))

	for i, tc := range toolCalls {
		results[i] = a.executeToolCall(ctx, tc, options)
	}

	return results
}

func (a *Agent) executeToolCallsParallel(ctx context.Context, toolCalls []ai.ToolCall, options *Options) []ai.ToolResult {
	results := make([]ai.ToolResult, len(toolCalls))
	var wg sync.WaitGroup

	for i, tc := range toolCalls {
		wg.Add(1)
		go func(idx int, call ai.ToolCall) {
			defer wg.Done()
			results[idx] = a.executeToolCall(ctx, call, options)
		}(i, tc)
	}

	wg.Wait()
	return results
}

func (a *Agent) executeToolCall(ctx context.Context, tc ai.ToolCall, options *Options) ai.ToolResult {
	execCtx := ctx
	if options.HandlerTimeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, options.HandlerTimeout)
		defer cancel()
	}

	result, err := a.registry.Execute(execCtx, tc)
	if err != nil {
		// Unknown tool: report it to the model instead of failing the run.
		options.Logger.Warn("tool call failed", "tool", tc.Name, "error", err)
		return ai.ToolResult{
			ToolCallID: tc.ID,
			Content:    tool.Failure(err),
			IsError:    true,
		}
	}
	if result.IsError {
		options.Logger.Warn("tool returned error", "tool", tc.Name, "error", result.Content)
	}
	return result
}

func checkTermination(ctx context.Context, step int, options *Options) (TerminationReason, error) {
	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return TerminationTimeout, ErrAgentTimeout
		}
		return TerminationCancelled, err
	}

	// step is 1-indexed and checked before the model call.
	if options.MaxSteps > 0 && step > options.MaxSteps {
		return TerminationMaxSteps, ErrMaxStepsReached
	}

	return "", nil
}
