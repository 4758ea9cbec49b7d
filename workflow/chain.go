package workflow

import "context"

// Chain executes steps sequentially over the same state.
type Chain struct {
	name  string
	steps []Step
}

// NewChain creates a sequential step.
func NewChain(name string, steps ...Step) *Chain {
	return &Chain{name: name, steps: steps}
}

// Name returns the chain name.
func (c *Chain) Name() string { return c.name }

// Run executes steps in order and stops at the first error.
func (c *Chain) Run(ctx context.Context, state *State) error {
	for _, step := range c.steps {
		if err := ctx.Err(); err != nil {
			return wrapStep(step.Name(), err)
		}
		if err := step.Run(ctx, state); err != nil {
			return wrapStep(step.Name(), err)
		}
	}
	return nil
}
