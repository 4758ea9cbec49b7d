package workflow

import (
	"context"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultMaxHops bounds node executions per invocation.
const DefaultMaxHops = 32

const tracerName = "github.com/good-jinu/finance-operating-automation-sub000/workflow"

// Observer receives execution reports. Implementations must be safe for
// concurrent use since independent invocations share them.
type Observer interface {
	StepFinished(graph, step string, elapsed time.Duration, err error)
	RouteSelected(graph, step, label string)
}

// Option configures a Graph.
type Option func(*graphOptions)

type graphOptions struct {
	maxHops  int
	logger   *slog.Logger
	observer Observer
	tracer   trace.Tracer
}

func defaultGraphOptions() graphOptions {
	return graphOptions{
		maxHops: DefaultMaxHops,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		tracer:  otel.Tracer(tracerName),
	}
}

// WithMaxHops sets the node execution limit. Values below 1 are ignored.
func WithMaxHops(n int) Option {
	return func(o *graphOptions) {
		if n > 0 {
			o.maxHops = n
		}
	}
}

// WithLogger sets the logger for step traces and fallbacks.
func WithLogger(l *slog.Logger) Option {
	return func(o *graphOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithObserver reports step timings and route decisions.
func WithObserver(obs Observer) Option {
	return func(o *graphOptions) { o.observer = obs }
}

// WithTracer overrides the global OpenTelemetry tracer.
func WithTracer(t trace.Tracer) Option {
	return func(o *graphOptions) {
		if t != nil {
			o.tracer = t
		}
	}
}

// Graph is a named root step bound to a state schema.
// A Graph is immutable after construction and safe for concurrent Run calls.
type Graph struct {
	name   string
	schema *Schema
	root   Step
	opts   graphOptions
}

// NewGraph creates a graph that runs root over states of schema.
func NewGraph(name string, schema *Schema, root Step, opts ...Option) *Graph {
	o := defaultGraphOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Graph{name: name, schema: schema, root: root, opts: o}
}

// Name returns the graph name.
func (g *Graph) Name() string { return g.name }

// Schema returns the state schema.
func (g *Graph) Schema() *Schema { return g.schema }

// Run executes the graph on a fresh state seeded with seed. The returned
// state is non-nil whenever seeding succeeded, including on step failure.
func (g *Graph) Run(ctx context.Context, seed Update) (*State, error) {
	return g.run(ctx, seed, newExecution(g.name, g.opts))
}

func (g *Graph) run(ctx context.Context, seed Update, exec *execution) (*State, error) {
	state, err := g.schema.NewState(seed)
	if err != nil {
		return nil, err
	}
	state.run = exec

	ctx, span := exec.tracer.Start(ctx, "workflow.graph", trace.WithAttributes(
		attribute.String("workflow.graph", g.name),
	))
	defer span.End()

	exec.logger.Debug("graph started", "graph", g.name)
	if err := g.root.Run(ctx, state); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return state, err
	}
	exec.logger.Debug("graph finished", "graph", g.name, "hops", exec.hops.used)
	return state, nil
}

type hopBudget struct {
	used int
	max  int
}

// execution is the per-invocation runtime shared by a graph and the
// sub-graphs it calls.
type execution struct {
	graph    string
	logger   *slog.Logger
	observer Observer
	tracer   trace.Tracer
	hops     *hopBudget
}

func newExecution(graph string, o graphOptions) *execution {
	return &execution{
		graph:    graph,
		logger:   o.logger,
		observer: o.observer,
		tracer:   o.tracer,
		hops:     &hopBudget{max: o.maxHops},
	}
}

// nested keeps the hop budget and reporting of the caller.
func (e *execution) nested(graph string) *execution {
	c := *e
	c.graph = graph
	return &c
}

// hop runs fn as one counted node execution.
func (e *execution) hop(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return wrapStep(name, err)
	}
	e.hops.used++
	if e.hops.used > e.hops.max {
		return wrapStep(name, ErrHopLimit)
	}

	ctx, span := e.tracer.Start(ctx, "workflow.step", trace.WithAttributes(
		attribute.String("workflow.graph", e.graph),
		attribute.String("workflow.step", name),
	))
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)

	if e.observer != nil {
		e.observer.StepFinished(e.graph, name, elapsed, err)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.logger.Debug("step failed", "graph", e.graph, "step", name, "error", err)
		return wrapStep(name, err)
	}
	e.logger.Debug("step finished", "graph", e.graph, "step", name, "elapsed", elapsed)
	return nil
}

func (e *execution) routed(step, label string) {
	e.logger.Info("route selected", "graph", e.graph, "step", step, "label", label)
	if e.observer != nil {
		e.observer.RouteSelected(e.graph, step, label)
	}
}
