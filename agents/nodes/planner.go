package nodes

import (
	"context"

	ai "github.com/good-jinu/finance-operating-automation-sub000"
	"github.com/good-jinu/finance-operating-automation-sub000/structured"
	"github.com/good-jinu/finance-operating-automation-sub000/workflow"
)

// Planner writes a one-sentence plan for the latest message. Model
// failures propagate.
func Planner(env Env) workflow.NodeFunc {
	return func(ctx context.Context, s *workflow.State) (workflow.Update, error) {
		msgs := []ai.Message{
			ai.SystemMessage(plannerPrompt),
			ai.UserMessage(Latest(s)),
		}
		plan, err := structured.Text(ctx, env.Model, msgs, env.ChatOptions...)
		if err != nil {
			return nil, err
		}
		return workflow.With(nil, Plan, plan), nil
	}
}
