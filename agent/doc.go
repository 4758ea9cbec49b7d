// Package agent runs a tool-calling conversation loop.
//
// An Agent sends the conversation to an ai.ChatProvider together with the
// tools of a tool.Registry. Whenever the model answers with tool calls the
// calls are executed, their results are appended to the conversation and the
// model is asked again, until it answers without tool calls or a limit is
// reached.
//
//	reg := tool.NewRegistry().Add(
//	    tool.Envelope("search_companies", "Search companies by name", search),
//	)
//	a := agent.New(client, reg)
//	res, err := a.Run(ctx, history, agent.WithMaxSteps(5))
//
// # Termination
//
// The loop stops when:
//
//   - the model responds without tool calls (TerminationComplete)
//   - MaxSteps is reached (TerminationMaxSteps)
//   - the timeout is exceeded (TerminationTimeout)
//   - the context is cancelled (TerminationCancelled)
//   - a StopPredicate returns true (TerminationCustom)
//   - the model call fails (TerminationError)
package agent
