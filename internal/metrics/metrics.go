// Package metrics provides Prometheus-based recording for model calls,
// graph steps, route decisions, node fallbacks, batch outcomes and tool
// calls.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	ai "github.com/good-jinu/finance-operating-automation-sub000"
	"github.com/good-jinu/finance-operating-automation-sub000/agents/nodes"
	"github.com/good-jinu/finance-operating-automation-sub000/client"
	"github.com/good-jinu/finance-operating-automation-sub000/mailbox"
	"github.com/good-jinu/finance-operating-automation-sub000/model"
	"github.com/good-jinu/finance-operating-automation-sub000/tool"
	"github.com/good-jinu/finance-operating-automation-sub000/workflow"
)

var (
	_ workflow.Observer    = (*Recorder)(nil)
	_ mailbox.Recorder     = (*Recorder)(nil)
	_ tool.Recorder        = (*Recorder)(nil)
	_ nodes.Recorder       = (*Recorder)(nil)
	_ client.UsageRecorder = (*Recorder)(nil)
)

// Recorder implements every recording hook of the module on a private
// Prometheus registry.
type Recorder struct {
	registry *prometheus.Registry

	nodeRuns     *prometheus.CounterVec
	nodeDuration *prometheus.HistogramVec
	routes       *prometheus.CounterVec
	fallbacks    *prometheus.CounterVec
	batchEmails  *prometheus.CounterVec
	toolCalls    *prometheus.CounterVec

	llmRequests *prometheus.CounterVec
	llmTokens   *prometheus.CounterVec
	llmCosts    *prometheus.CounterVec
	llmDuration *prometheus.HistogramVec
}

// New creates a Recorder with its own registry. Go runtime and process
// collectors are registered alongside.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		nodeRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finops_node_runs_total",
				Help: "Graph step executions by graph, step and status",
			},
			[]string{"graph", "node", "status"},
		),
		nodeDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "finops_node_duration_seconds",
				Help:    "Duration of graph step executions in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"graph", "node"},
		),
		routes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finops_routes_total",
				Help: "Route labels chosen by branch steps",
			},
			[]string{"graph", "node", "label"},
		),
		fallbacks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finops_fallbacks_total",
				Help: "Fallbacks taken by agent nodes after model failures",
			},
			[]string{"node", "kind"},
		),
		batchEmails: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finops_batch_emails_total",
				Help: "Mails processed by the reply batch by outcome",
			},
			[]string{"outcome"},
		),
		toolCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finops_tool_calls_total",
				Help: "Tool executions by tool and status",
			},
			[]string{"tool", "status"},
		),
		llmRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finops_llm_requests_total",
				Help: "Model calls by provider, model and status",
			},
			[]string{"provider", "model", "status"},
		),
		llmTokens: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finops_llm_tokens_total",
				Help: "Tokens used by model calls",
			},
			[]string{"provider", "model", "type"},
		),
		llmCosts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finops_llm_costs_total",
				Help: "Cost in USD of model calls on catalogued models",
			},
			[]string{"provider", "model"},
		),
		llmDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "finops_llm_request_duration_seconds",
				Help:    "Duration of model calls in seconds, retries included",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider", "model"},
		),
	}
}

// StepFinished records one graph step execution.
func (r *Recorder) StepFinished(graph, step string, elapsed time.Duration, err error) {
	r.nodeRuns.WithLabelValues(graph, step, status(err == nil)).Inc()
	r.nodeDuration.WithLabelValues(graph, step).Observe(elapsed.Seconds())
}

// RouteSelected records a branch decision.
func (r *Recorder) RouteSelected(graph, step, label string) {
	r.routes.WithLabelValues(graph, step, label).Inc()
}

// Fallback records a node falling back to its default behavior.
func (r *Recorder) Fallback(node, kind string) {
	r.fallbacks.WithLabelValues(node, kind).Inc()
}

// MailProcessed records one batch item.
func (r *Recorder) MailProcessed(ok bool) {
	outcome := "processed"
	if !ok {
		outcome = "failed"
	}
	r.batchEmails.WithLabelValues(outcome).Inc()
}

// ToolCalled records one tool execution.
func (r *Recorder) ToolCalled(name string, failed bool) {
	r.toolCalls.WithLabelValues(name, status(!failed)).Inc()
}

// ModelCalled records one model call. Cost is only counted for models in
// the pricing catalogue.
func (r *Recorder) ModelCalled(provider ai.Provider, name string, usage ai.Usage, elapsed time.Duration, err error) {
	p := string(provider)
	r.llmRequests.WithLabelValues(p, name, status(err == nil)).Inc()
	r.llmDuration.WithLabelValues(p, name).Observe(elapsed.Seconds())
	if err != nil {
		return
	}
	r.llmTokens.WithLabelValues(p, name, "prompt").Add(float64(usage.InputTokens))
	r.llmTokens.WithLabelValues(p, name, "completion").Add(float64(usage.OutputTokens))
	if m, ok := model.Lookup(name); ok {
		r.llmCosts.WithLabelValues(p, name).Add(m.Cost(usage))
	}
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

func status(ok bool) string {
	if ok {
		return "success"
	}
	return "error"
}
