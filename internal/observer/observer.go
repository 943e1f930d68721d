// Package observer defines the façade's instrumentation seam: every
// place the python source called apm.span_label(...) or bumped its
// global mrpc_cntr function-call counter is, in this port, a call into
// an explicit Observer interface instead — callers decide what (if
// anything) to do with it.
package observer

// Observer receives instrumentation events from every façade
// component. All methods must return promptly; a slow Observer
// implementation directly slows down the dispatch path that calls it.
type Observer interface {
	// OnDispatch fires once per public façade operation invocation
	// (the direct replacement for mrpc_cntr.incr_cur_func()).
	OnDispatch(component, operation string)
	// OnReconcile fires once per reconciliation fan-out (viewcall or
	// txpipeline), reporting which policy ran, how long it took, and
	// whether it produced a winner.
	OnReconcile(component, policy string, durationSeconds float64, success bool)
	// OnTransactionStage fires at each named stage of the transaction
	// pipeline ("build_draft", "sign", "broadcast", "confirm"),
	// reporting whether that stage succeeded.
	OnTransactionStage(stage string, success bool)
}

// Noop is the zero-cost default Observer; every façade component is
// constructed with it unless the caller supplies another.
type Noop struct{}

func (Noop) OnDispatch(component, operation string)                             {}
func (Noop) OnReconcile(component, policy string, durationSeconds float64, success bool) {}
func (Noop) OnTransactionStage(stage string, success bool)                      {}

var _ Observer = Noop{}

// Multi fans every event out to a fixed list of Observers, letting a
// caller wire, for example, both a PrometheusObserver and a
// healthcheck.DispatchChecker to the same façade without either
// needing to know about the other.
type Multi []Observer

func (m Multi) OnDispatch(component, operation string) {
	for _, o := range m {
		o.OnDispatch(component, operation)
	}
}

func (m Multi) OnReconcile(component, policy string, durationSeconds float64, success bool) {
	for _, o := range m {
		o.OnReconcile(component, policy, durationSeconds, success)
	}
}

func (m Multi) OnTransactionStage(stage string, success bool) {
	for _, o := range m {
		o.OnTransactionStage(stage, success)
	}
}

var _ Observer = Multi(nil)
