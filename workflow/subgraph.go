package workflow

import "context"

// SubAgent describes a graph invoked as a single step of an outer graph.
type SubAgent interface {
	// Graph returns the inner graph. It is built once and reused.
	Graph() *Graph

	// ProjectInput maps the outer state to the inner graph's seed.
	ProjectInput(outer *State) Update

	// ProjectOutput maps the inner graph's final state to an outer update.
	ProjectOutput(inner *State) Update
}

// SubGraph runs a SubAgent within the caller's hop budget.
type SubGraph struct {
	name  string
	agent SubAgent
}

// NewSubGraph wraps agent as a step.
func NewSubGraph(name string, agent SubAgent) *SubGraph {
	return &SubGraph{name: name, agent: agent}
}

// Name returns the step name.
func (s *SubGraph) Name() string { return s.name }

// Run executes the inner graph and merges its projected output.
func (s *SubGraph) Run(ctx context.Context, state *State) error {
	g := s.agent.Graph()
	inner, err := g.run(ctx, s.agent.ProjectInput(state), state.run.nested(g.Name()))
	if err != nil {
		return wrapStep(s.name, err)
	}
	if err := state.Apply(s.agent.ProjectOutput(inner)); err != nil {
		return wrapStep(s.name, err)
	}
	return nil
}
