// Package updater is the data update sub-agent. It classifies the kind of
// record a request targets, extracts the lookup and change fields, and
// applies the change to a single record.
package updater

import (
	"context"
	"fmt"
	"strings"

	ai "github.com/good-jinu/finance-operating-automation-sub000"
	"github.com/good-jinu/finance-operating-automation-sub000/agents/nodes"
	"github.com/good-jinu/finance-operating-automation-sub000/records"
	"github.com/good-jinu/finance-operating-automation-sub000/workflow"
)

// Route is the branch label of the update classifier.
type Route string

const (
	RouteAuthorizedPerson       = Route(records.KindAuthorizedPerson)
	RoutePaymentAccount         = Route(records.KindPaymentAccount)
	RouteOfficialSeal           = Route(records.KindOfficialSeal)
	RouteEnd              Route = "end"
)

// Routes returns every label, terminal last.
func Routes() []Route {
	return []Route{RouteAuthorizedPerson, RoutePaymentAccount, RouteOfficialSeal, RouteEnd}
}

// UnsupportedMessage is reported when no record kind matches the request.
const UnsupportedMessage = "요청하신 내용에서 변경 대상(수권자, 결제 계좌, 인감)을 확인하지 못했습니다. 변경하실 항목을 구체적으로 알려주시기 바랍니다."

const classifyPrompt = `고객 요청이 어떤 데이터 변경에 해당하는지 분류하세요.
- authorized_person: 수권자(서명, 결제 승인 권한자)의 정보 변경
- payment_account: 결제 계좌(은행, 계좌번호, 예금주, 용도) 변경
- official_seal: 인감 변경
- end: 위 항목에 해당하지 않음`

// Schema is the updater graph state.
var Schema = workflow.MustSchema(nodes.Fields()...)

// Agent is the data update sub-agent.
type Agent struct {
	graph *workflow.Graph
}

var _ workflow.SubAgent = (*Agent)(nil)

// New builds the updater graph over repo.
func New(env nodes.Env, repo records.Repository, opts ...workflow.Option) *Agent {
	decide := nodes.Classify(env, nodes.Classifier[Route]{
		Node:    "updater.classify",
		Schema:  "update_type",
		Labels:  Routes(),
		Default: RouteEnd,
		Prompt:  prompt,
	})

	execute := workflow.NewNode("executor", nodes.Executor(env, repo))
	targets := map[Route]workflow.Step{
		RouteEnd: workflow.NewNode("unsupported", func(context.Context, *workflow.State) (workflow.Update, error) {
			return workflow.With(nil, nodes.ResultMessage, UnsupportedMessage), nil
		}),
	}
	for _, kind := range records.Kinds() {
		targets[Route(kind)] = workflow.NewChain(string(kind),
			workflow.NewNode("analyzer", nodes.Analyzer(env, kind)),
			execute,
		)
	}

	root := workflow.MustBranch("classify", decide, Routes(), targets)
	return &Agent{graph: workflow.NewGraph("updater", Schema, root, opts...)}
}

// Graph implements workflow.SubAgent.
func (a *Agent) Graph() *workflow.Graph { return a.graph }

// ProjectInput carries the conversation and plan.
func (a *Agent) ProjectInput(outer *workflow.State) workflow.Update {
	u := workflow.With(nil, nodes.Messages, workflow.Get(outer, nodes.Messages))
	return workflow.With(u, nodes.Plan, workflow.Get(outer, nodes.Plan))
}

// ProjectOutput returns the executor message.
func (a *Agent) ProjectOutput(inner *workflow.State) workflow.Update {
	return workflow.With(nil, nodes.ResultMessage, workflow.Get(inner, nodes.ResultMessage))
}

// Update runs the graph on a single message and returns the result message.
func (a *Agent) Update(ctx context.Context, inbound string) (string, error) {
	s, err := a.graph.Run(ctx, nodes.Seed(inbound))
	if err != nil {
		return "", fmt.Errorf("updater: %w", err)
	}
	return workflow.Get(s, nodes.ResultMessage), nil
}

func prompt(s *workflow.State) []ai.Message {
	var b strings.Builder
	if plan := workflow.Get(s, nodes.Plan); plan != "" {
		b.WriteString("[처리 계획]\n" + plan + "\n\n")
	}
	b.WriteString("[고객 메시지]\n" + nodes.Latest(s))
	return []ai.Message{
		ai.SystemMessage(classifyPrompt),
		ai.UserMessage(b.String()),
	}
}
