package workflow

import "context"

// Step is a unit of work over a State. Composite steps (Chain, Branch,
// SubGraph) and nodes share this interface so they nest freely.
type Step interface {
	// Name returns a unique identifier for the step.
	Name() string

	// Run executes the step, merging its output into state.
	Run(ctx context.Context, state *State) error
}

// NodeFunc reads state and returns the partial update to merge.
// A nil update leaves the state unchanged.
type NodeFunc func(ctx context.Context, state *State) (Update, error)

// Node is a single counted unit of work.
type Node struct {
	name string
	fn   NodeFunc
}

// NewNode creates a step from a function.
func NewNode(name string, fn NodeFunc) *Node {
	return &Node{name: name, fn: fn}
}

// Name returns the node name.
func (n *Node) Name() string { return n.name }

// Run executes the node and merges its update.
func (n *Node) Run(ctx context.Context, state *State) error {
	return state.run.hop(ctx, n.name, func(ctx context.Context) error {
		update, err := n.fn(ctx, state)
		if err != nil {
			return err
		}
		return state.Apply(update)
	})
}

type endStep struct{}

func (endStep) Name() string { return "end" }

func (endStep) Run(context.Context, *State) error { return nil }

// End is the terminal target for branch labels that stop the graph.
var End Step = endStep{}
