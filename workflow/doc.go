// Package workflow runs small, statically wired graphs of model-backed nodes
// over a shared, schema-checked state.
//
// # State Model
//
// A Schema declares every state field with a default and a merge rule:
//
//	var (
//	    KeyPlan     = workflow.ReplaceKey("plan", "")
//	    KeyMessages = workflow.AppendKey[ai.Message]("messages")
//	    KeyDesc     = workflow.ReplaceIfPresentKey("description", "")
//	)
//	schema := workflow.MustSchema(KeyPlan, KeyMessages, KeyDesc)
//
// Nodes never mutate state directly. A node returns an Update (a partial
// state) which the runner merges field by field: Replace is last write
// wins, Append concatenates in order, ReplaceIfPresent ignores zero values.
// Fields a node does not mention keep their value.
//
// # Topologies
//
// Three compositions cover every graph in this module:
//   - Chain: run steps in order
//   - Branch: a decider picks a label from a closed Go type; each declared
//     label must have a target when the branch is assembled
//   - SubGraph: run another Graph on a projection of the outer state and
//     merge a projection of its result back
//
// Branch-then-join is a Chain whose first step is a Branch.
//
// # Execution
//
// Graph.Run seeds a fresh State and walks the root step. Every node execution
// counts as a hop; exceeding the hop limit fails with ErrHopLimit. Each hop
// is logged with slog, traced with an OpenTelemetry span and reported to an
// optional Observer.
package workflow
