// Package router is the top-level mail agent. It dispatches an inbound
// message to one of the sub-agents (file reader, guide provider, data
// updater, mail writer), composes the reply and guarantees a reply artifact
// on every call.
package router

import (
	"context"
	"errors"
	"fmt"
	"strings"

	ai "github.com/good-jinu/finance-operating-automation-sub000"
	"github.com/good-jinu/finance-operating-automation-sub000/agents/filereader"
	"github.com/good-jinu/finance-operating-automation-sub000/agents/guide"
	"github.com/good-jinu/finance-operating-automation-sub000/agents/mailwriter"
	"github.com/good-jinu/finance-operating-automation-sub000/agents/nodes"
	"github.com/good-jinu/finance-operating-automation-sub000/agents/updater"
	"github.com/good-jinu/finance-operating-automation-sub000/mailbox"
	"github.com/good-jinu/finance-operating-automation-sub000/records"
	"github.com/good-jinu/finance-operating-automation-sub000/schema"
	"github.com/good-jinu/finance-operating-automation-sub000/structured"
	"github.com/good-jinu/finance-operating-automation-sub000/workflow"
)

// ApologyBody is returned whenever a request cannot be processed.
const ApologyBody = `안녕하세요, 고객님.

죄송합니다. 요청하신 내용을 처리하는 중 문제가 발생했습니다.
잠시 후 다시 시도해 주시거나 담당자에게 직접 문의해 주시기 바랍니다.

감사합니다.`

// ErrPanic is returned by the batch drafter when the graph panics.
var ErrPanic = errors.New("router: agent panicked")

// Reply is the artifact handed to the mail-sending side.
type Reply struct {
	MailTitle   string   `json:"mail_title,omitempty"`
	MailBody    string   `json:"mail_body"`
	Attachments []string `json:"attachments"`
}

func apology() Reply {
	return Reply{MailBody: ApologyBody, Attachments: []string{}}
}

// Schema is the router graph state.
var Schema = workflow.MustSchema(nodes.Fields()...)

var dispatchSchema = ai.ResponseSchema{
	Name:        "dispatch",
	Description: "Name the worker that should handle the request.",
	Schema: schema.Object().
		Field("next", schema.String().Desc("작업자 이름").Required()).
		MustBuild(),
}

type dispatchChoice struct {
	Next string `json:"next"`
}

// Option configures the router agent.
type Option func(*options)

type options struct {
	catalogue *guide.Catalogue
	fileOpts  []filereader.Option
	graphOpts []workflow.Option
}

// WithCatalogue replaces the built-in guide catalogue.
func WithCatalogue(c *guide.Catalogue) Option {
	return func(o *options) { o.catalogue = c }
}

// WithFileOptions configures the file reader sub-agent.
func WithFileOptions(opts ...filereader.Option) Option {
	return func(o *options) { o.fileOpts = append(o.fileOpts, opts...) }
}

// WithGraphOptions applies to the router graph. Sub-graphs share its hop
// budget, logger and observer.
func WithGraphOptions(opts ...workflow.Option) Option {
	return func(o *options) { o.graphOpts = append(o.graphOpts, opts...) }
}

// Agent is the top-level mail agent.
type Agent struct {
	env   nodes.Env
	graph *workflow.Graph
}

// New assembles the router graph and its sub-agents.
func New(env nodes.Env, repo records.Repository, opts ...Option) *Agent {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	guides := guide.New(env, o.catalogue)
	files := filereader.New(env, o.fileOpts...)
	updates := updater.New(env, repo)
	writer := mailwriter.New(env, guides)

	compose := workflow.NewNode("composer", nodes.Composer(env, nil))
	targets := map[Route]workflow.Step{
		RouteFileReader:    workflow.NewChain("file_reader", workflow.NewSubGraph("filereader", files), compose),
		RouteGuideProvider: workflow.NewChain("guide_provider", workflow.NewSubGraph("guide", guides), compose),
		RouteDataUpdater:   workflow.NewChain("data_updater", workflow.NewSubGraph("updater", updates), compose),
		RouteCreateMail:    workflow.NewSubGraph("mailwriter", writer),
	}

	a := &Agent{env: env}
	root := workflow.MustBranch("dispatch", a.dispatch, Routes(), targets)
	a.graph = workflow.NewGraph("router", Schema, root, o.graphOpts...)
	return a
}

// Graph returns the assembled router graph.
func (a *Agent) Graph() *workflow.Graph { return a.graph }

// Run processes one inbound message. Errors are returned unchanged; use
// Reply for the guaranteed artifact.
func (a *Agent) Run(ctx context.Context, inbound string, filepaths ...string) (Reply, error) {
	s, err := a.graph.Run(ctx, nodes.Seed(inbound, filepaths...))
	if err != nil {
		return Reply{}, err
	}
	body := workflow.Get(s, nodes.MailBody)
	if strings.TrimSpace(body) == "" {
		return Reply{}, fmt.Errorf("router: %w", ai.ErrEmptyResponse)
	}
	return Reply{
		MailTitle:   workflow.Get(s, nodes.MailTitle),
		MailBody:    body,
		Attachments: workflow.Get(s, nodes.Attachments),
	}, nil
}

// Reply processes one inbound message and never fails: any error or panic
// yields the apology body with no attachments.
func (a *Agent) Reply(ctx context.Context, inbound string, filepaths ...string) (reply Reply) {
	defer func() {
		if r := recover(); r != nil {
			a.env.Log().Error("reply agent panicked", "panic", r)
			a.env.Fallback("router", "panic", fmt.Errorf("panic: %v", r))
			reply = apology()
		}
	}()

	reply, err := a.Run(ctx, inbound, filepaths...)
	if err != nil {
		a.env.Log().Error("reply agent failed", "error", err)
		if a.env.Recorder != nil {
			a.env.Recorder.Fallback("router", "apology")
		}
		return apology()
	}
	return reply
}

// Drafter adapts the agent to the batch processor. Failures propagate so
// the batch can count them; panics become ErrPanic.
func (a *Agent) Drafter() mailbox.Drafter {
	return mailbox.DrafterFunc(func(ctx context.Context, m mailbox.Mail) (draft *mailbox.ReplyMail, err error) {
		defer func() {
			if r := recover(); r != nil {
				a.env.Log().Error("draft panicked", "mail_id", m.ID, "panic", r)
				a.env.Fallback("router", "panic", fmt.Errorf("panic: %v", r))
				draft, err = nil, fmt.Errorf("%w: %v", ErrPanic, r)
			}
		}()

		reply, err := a.Run(ctx, mailbox.ComposeInbound(m.Subject, m.Body, m.Sender), m.Attachments...)
		if err != nil {
			return nil, err
		}
		subject := mailbox.ReplySubject(m.Subject)
		return &mailbox.ReplyMail{
			Subject:     subject,
			Body:        reply.MailBody,
			Attachments: reply.Attachments,
		}, nil
	})
}

// dispatch sends file-bearing requests to the file reader and asks the
// model for every other request. Unmatched answers and model failures
// select RouteCreateMail.
func (a *Agent) dispatch(ctx context.Context, s *workflow.State) (Route, error) {
	if len(workflow.Get(s, nodes.InputFilepaths)) > 0 {
		return RouteFileReader, nil
	}

	out, err := structured.Complete[dispatchChoice](ctx, a.env.Model, dispatchPrompt(s), dispatchSchema, a.env.ChatOptions...)
	if err != nil {
		a.env.Fallback("dispatch", "classifier", err)
		return RouteCreateMail, nil
	}
	route := resolve(out.Next)
	if string(route) != strings.ToLower(strings.TrimSpace(out.Next)) {
		a.env.Log().Info("dispatch answer did not match a worker", "answer", out.Next, "route", route)
	}
	return route, nil
}

func dispatchPrompt(s *workflow.State) []ai.Message {
	var b strings.Builder
	b.WriteString("당신은 고객 이메일을 처리할 작업자를 고르는 관리자입니다.\n")
	b.WriteString("다음 작업자 중 하나의 이름만 next 필드에 답하세요. 처리할 작업이 없으면 " + terminal + "라고 답하세요.\n")
	for _, r := range Routes() {
		if r == RouteFileReader {
			continue
		}
		fmt.Fprintf(&b, "- %s: %s\n", r, descriptions[r])
	}
	return []ai.Message{
		ai.SystemMessage(b.String()),
		ai.UserMessage(nodes.Latest(s)),
	}
}
