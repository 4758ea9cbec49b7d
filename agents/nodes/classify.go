package nodes

import (
	"context"
	"fmt"
	"slices"

	ai "github.com/good-jinu/finance-operating-automation-sub000"
	"github.com/good-jinu/finance-operating-automation-sub000/schema"
	"github.com/good-jinu/finance-operating-automation-sub000/structured"
	"github.com/good-jinu/finance-operating-automation-sub000/workflow"
)

// Classifier describes a closed-set routing decision.
type Classifier[L ~string] struct {
	// Node names the classifier in logs and metrics.
	Node string
	// Schema is the response schema name sent to the model.
	Schema string
	// Labels is the closed set the model chooses from.
	Labels []L
	// Default is returned whenever the model call fails.
	Default L
	// Prompt builds the conversation from the current state.
	Prompt func(s *workflow.State) []ai.Message
}

type labelChoice struct {
	Label string `json:"label"`
}

// ResponseSchema returns the enum schema the model must satisfy.
func (c Classifier[L]) ResponseSchema() ai.ResponseSchema {
	values := make([]string, len(c.Labels))
	for i, l := range c.Labels {
		values[i] = string(l)
	}
	return ai.ResponseSchema{
		Name:        c.Schema,
		Description: "Pick exactly one label.",
		Schema: schema.Object().
			Field("label", schema.String().Enum(values...).Desc("선택한 분류").Required()).
			MustBuild(),
	}
}

// Classify returns a decider that fails open to c.Default.
func Classify[L ~string](env Env, c Classifier[L]) workflow.Decider[L] {
	rs := c.ResponseSchema()
	return func(ctx context.Context, s *workflow.State) (L, error) {
		out, err := structured.Complete[labelChoice](ctx, env.Model, c.Prompt(s), rs, env.ChatOptions...)
		if err != nil {
			env.Fallback(c.Node, "classifier", err)
			return c.Default, nil
		}
		label := L(out.Label)
		if !slices.Contains(c.Labels, label) {
			env.Fallback(c.Node, "classifier", fmt.Errorf("label %q not declared", out.Label))
			return c.Default, nil
		}
		return label, nil
	}
}
