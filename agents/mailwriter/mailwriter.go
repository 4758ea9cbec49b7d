// Package mailwriter is the reply drafting sub-agent: it plans a response,
// decides between a change guide and a polite decline, and composes the
// reply email.
package mailwriter

import (
	"context"

	ai "github.com/good-jinu/finance-operating-automation-sub000"
	"github.com/good-jinu/finance-operating-automation-sub000/agents/guide"
	"github.com/good-jinu/finance-operating-automation-sub000/agents/nodes"
	"github.com/good-jinu/finance-operating-automation-sub000/workflow"
)

// Route is the branch label chosen after planning.
type Route string

const (
	RouteChangeGuide Route = "change_guide"
	RouteEnd         Route = "end"
)

// Routes returns every label, terminal last.
func Routes() []Route {
	return []Route{RouteChangeGuide, RouteEnd}
}

// DeclineGuidance is the guidance composed into a decline reply.
const DeclineGuidance = "요청하신 내용은 이메일을 통해 처리해 드리기 어려운 업무입니다. 자세한 사항은 담당 부서로 문의해 주시기 바랍니다."

const routerPrompt = `처리 계획을 읽고 다음 단계를 선택하세요.
- change_guide: 수권자, 결제 계좌, 인감 등의 변경 안내를 제공해야 하는 경우
- end: 도움을 드릴 수 없어 정중히 거절해야 하는 경우`

// Schema is the mail writer graph state.
var Schema = workflow.MustSchema(nodes.Fields()...)

// Agent is the mail writer sub-agent.
type Agent struct {
	graph *workflow.Graph
}

var _ workflow.SubAgent = (*Agent)(nil)

// New builds the mail writer graph. Change guides come from guides.
func New(env nodes.Env, guides *guide.Agent, opts ...workflow.Option) *Agent {
	decide := nodes.Classify(env, nodes.Classifier[Route]{
		Node:    "mailwriter.router",
		Schema:  "mail_route",
		Labels:  Routes(),
		Default: RouteEnd,
		Prompt: func(s *workflow.State) []ai.Message {
			return []ai.Message{
				ai.SystemMessage(routerPrompt),
				ai.UserMessage("[처리 계획]\n" + workflow.Get(s, nodes.Plan) + "\n\n[고객 메시지]\n" + nodes.Latest(s)),
			}
		},
	})

	compose := workflow.NewNode("composer", nodes.Composer(env, nil))
	branch := workflow.MustBranch("router", decide, Routes(), map[Route]workflow.Step{
		RouteChangeGuide: workflow.NewChain("change_guide",
			workflow.NewSubGraph("guide", guides),
			compose,
		),
		RouteEnd: workflow.NewChain("decline",
			workflow.NewNode("decline", func(context.Context, *workflow.State) (workflow.Update, error) {
				return workflow.With(nil, nodes.Description, DeclineGuidance), nil
			}),
			compose,
		),
	})

	root := workflow.NewChain("mailwriter",
		workflow.NewNode("planner", nodes.Planner(env)),
		branch,
	)
	return &Agent{graph: workflow.NewGraph("mailwriter", Schema, root, opts...)}
}

// Graph implements workflow.SubAgent.
func (a *Agent) Graph() *workflow.Graph { return a.graph }

// ProjectInput carries the conversation.
func (a *Agent) ProjectInput(outer *workflow.State) workflow.Update {
	return workflow.With(nil, nodes.Messages, workflow.Get(outer, nodes.Messages))
}

// ProjectOutput returns the plan and the composed reply.
func (a *Agent) ProjectOutput(inner *workflow.State) workflow.Update {
	u := workflow.With(nil, nodes.Plan, workflow.Get(inner, nodes.Plan))
	workflow.With(u, nodes.MailTitle, workflow.Get(inner, nodes.MailTitle))
	workflow.With(u, nodes.MailBody, workflow.Get(inner, nodes.MailBody))
	return workflow.With(u, nodes.Attachments, workflow.Get(inner, nodes.Attachments))
}
