// Package guide is the guide provider sub-agent: it classifies the request
// into a change-guide topic and returns the canned guidance and attachment
// for that topic. A topic with no catalogue entry fails the invocation.
package guide

import (
	"context"
	"fmt"
	"strings"

	ai "github.com/good-jinu/finance-operating-automation-sub000"
	"github.com/good-jinu/finance-operating-automation-sub000/agents/nodes"
	"github.com/good-jinu/finance-operating-automation-sub000/workflow"
)

// TopicKey holds the classified topic.
var TopicKey = workflow.ReplaceKey[Topic]("topic", "")

// Schema is the guide graph state.
var Schema = workflow.MustSchema(append(nodes.Fields(), TopicKey)...)

const topicPrompt = `고객 요청이 어떤 변경 안내에 해당하는지 분류하세요.
다음 중 정확히 하나를 선택하고, 해당하는 안내가 없으면 "unknown"을 선택하세요.
%s`

// Agent is the guide provider sub-agent.
type Agent struct {
	catalogue *Catalogue
	graph     *workflow.Graph
}

var _ workflow.SubAgent = (*Agent)(nil)

// New builds the guide graph. A nil catalogue uses DefaultCatalogue.
func New(env nodes.Env, catalogue *Catalogue, opts ...workflow.Option) *Agent {
	if catalogue == nil {
		catalogue = DefaultCatalogue()
	}
	a := &Agent{catalogue: catalogue}

	classify := nodes.Classify(env, nodes.Classifier[Topic]{
		Node:    "guide.topic",
		Schema:  "guide_topic",
		Labels:  append(catalogue.Topics(), TopicUnknown),
		Default: TopicUnknown,
		Prompt:  a.topicPrompt,
	})

	root := workflow.NewChain("guide",
		workflow.NewNode("topic", func(ctx context.Context, s *workflow.State) (workflow.Update, error) {
			topic, err := classify(ctx, s)
			if err != nil {
				return nil, err
			}
			return workflow.With(nil, TopicKey, topic), nil
		}),
		workflow.NewNode("lookup", a.lookup),
	)
	a.graph = workflow.NewGraph("guide", Schema, root, opts...)
	return a
}

// Catalogue returns the guides the agent chooses from.
func (a *Agent) Catalogue() *Catalogue { return a.catalogue }

// Graph implements workflow.SubAgent.
func (a *Agent) Graph() *workflow.Graph { return a.graph }

// ProjectInput carries the conversation and plan into the guide graph.
func (a *Agent) ProjectInput(outer *workflow.State) workflow.Update {
	u := workflow.With(nil, nodes.Messages, workflow.Get(outer, nodes.Messages))
	return workflow.With(u, nodes.Plan, workflow.Get(outer, nodes.Plan))
}

// ProjectOutput returns the guidance as description plus the attachment.
func (a *Agent) ProjectOutput(inner *workflow.State) workflow.Update {
	u := workflow.With(nil, nodes.Description, workflow.Get(inner, nodes.Description))
	return workflow.With(u, nodes.Attachments, workflow.Get(inner, nodes.Attachments))
}

// Provide runs the guide graph on a single message.
func (a *Agent) Provide(ctx context.Context, inbound string) (Entry, error) {
	s, err := a.graph.Run(ctx, nodes.Seed(inbound))
	if err != nil {
		return Entry{}, err
	}
	return a.catalogue.Lookup(workflow.Get(s, TopicKey))
}

func (a *Agent) lookup(ctx context.Context, s *workflow.State) (workflow.Update, error) {
	e, err := a.catalogue.Lookup(workflow.Get(s, TopicKey))
	if err != nil {
		return nil, err
	}
	u := workflow.With(nil, nodes.Description, e.Guidance)
	if e.Attachment != "" {
		workflow.With(u, nodes.Attachments, []string{e.Attachment})
	}
	return u, nil
}

func (a *Agent) topicPrompt(s *workflow.State) []ai.Message {
	var b strings.Builder
	for _, e := range a.catalogue.entries {
		fmt.Fprintf(&b, "- %s: %s\n", e.Topic, e.Summary)
	}
	fmt.Fprintf(&b, "- %s: 위 항목에 해당하지 않음\n", TopicUnknown)

	input := nodes.Latest(s)
	if plan := workflow.Get(s, nodes.Plan); plan != "" {
		input = "[처리 계획]\n" + plan + "\n\n[고객 메시지]\n" + input
	}
	return []ai.Message{
		ai.SystemMessage(fmt.Sprintf(topicPrompt, b.String())),
		ai.UserMessage(input),
	}
}
