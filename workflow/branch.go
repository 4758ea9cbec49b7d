package workflow

import (
	"context"
	"fmt"
)

// Decider picks the next label. Deciders that must not fail (fail-open
// routers) handle their own errors and return a default label.
type Decider[L comparable] func(ctx context.Context, state *State) (L, error)

// Branch runs a decider as one node, then the target registered for the
// chosen label.
type Branch[L comparable] struct {
	name    string
	decide  Decider[L]
	targets map[L]Step
}

// NewBranch assembles a branch. Every label in labels must have a target
// (use End for terminal labels) and every target must belong to labels.
func NewBranch[L comparable](name string, decide Decider[L], labels []L, targets map[L]Step) (*Branch[L], error) {
	declared := make(map[L]bool, len(labels))
	for _, l := range labels {
		declared[l] = true
		if targets[l] == nil {
			return nil, fmt.Errorf("%w: %s: label %v has no target", ErrIncompleteBranch, name, l)
		}
	}
	for l := range targets {
		if !declared[l] {
			return nil, fmt.Errorf("%w: %s: target for undeclared label %v", ErrIncompleteBranch, name, l)
		}
	}
	copied := make(map[L]Step, len(targets))
	for l, s := range targets {
		copied[l] = s
	}
	return &Branch[L]{name: name, decide: decide, targets: copied}, nil
}

// MustBranch is like NewBranch but panics on error.
func MustBranch[L comparable](name string, decide Decider[L], labels []L, targets map[L]Step) *Branch[L] {
	b, err := NewBranch(name, decide, labels, targets)
	if err != nil {
		panic(err)
	}
	return b
}

// Name returns the branch name.
func (b *Branch[L]) Name() string { return b.name }

// Run decides and executes the selected target.
func (b *Branch[L]) Run(ctx context.Context, state *State) error {
	var label L
	err := state.run.hop(ctx, b.name, func(ctx context.Context) error {
		var err error
		label, err = b.decide(ctx, state)
		return err
	})
	if err != nil {
		return err
	}

	target, ok := b.targets[label]
	if !ok {
		return wrapStep(b.name, fmt.Errorf("%w: %v", ErrUnroutedLabel, label))
	}
	state.run.routed(b.name, fmt.Sprint(label))
	return target.Run(ctx, state)
}
