// Package nodes holds the state fields and node library shared by the mail
// agents: planner, classifier, content analyzer, executor and composer.
//
// Every node is a single model call with a constrained output, except the
// executor, which applies one record mutation. Classifiers, analyzers and the
// composer never fail: they log a warning and fall back to a default label,
// a diagnostic message or a templated reply. The planner propagates its
// errors to the caller.
package nodes
