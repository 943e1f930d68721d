package observer

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusObserver is the default production Observer, exporting
// counters and a histogram in the same CounterVec/HistogramVec-with-
// labels shape the corpus's HTTP middleware metrics use.
type PrometheusObserver struct {
	dispatchTotal    *prometheus.CounterVec
	reconcileTotal   *prometheus.CounterVec
	reconcileSeconds *prometheus.HistogramVec
	txStageTotal     *prometheus.CounterVec
}

// NewPrometheusObserver builds a PrometheusObserver and registers its
// collectors against reg. Passing prometheus.DefaultRegisterer matches
// the promhttp.Handler() default-registry convention.
func NewPrometheusObserver(reg prometheus.Registerer) *PrometheusObserver {
	o := &PrometheusObserver{
		dispatchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "multirpc",
			Name:      "dispatch_total",
			Help:      "Total façade operation invocations, by component and operation.",
		}, []string{"component", "operation"}),
		reconcileTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "multirpc",
			Name:      "reconcile_total",
			Help:      "Total reconciliation fan-outs, by component, policy, and outcome.",
		}, []string{"component", "policy", "outcome"}),
		reconcileSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "multirpc",
			Name:      "reconcile_duration_seconds",
			Help:      "Reconciliation fan-out duration, by component and policy.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"component", "policy"}),
		txStageTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "multirpc",
			Name:      "tx_stage_total",
			Help:      "Total transaction pipeline stage completions, by stage and outcome.",
		}, []string{"stage", "outcome"}),
	}
	reg.MustRegister(o.dispatchTotal, o.reconcileTotal, o.reconcileSeconds, o.txStageTotal)
	return o
}

func (o *PrometheusObserver) OnDispatch(component, operation string) {
	o.dispatchTotal.WithLabelValues(component, operation).Inc()
}

func (o *PrometheusObserver) OnReconcile(component, policy string, durationSeconds float64, success bool) {
	o.reconcileTotal.WithLabelValues(component, policy, outcomeLabel(success)).Inc()
	o.reconcileSeconds.WithLabelValues(component, policy).Observe(durationSeconds)
}

func (o *PrometheusObserver) OnTransactionStage(stage string, success bool) {
	o.txStageTotal.WithLabelValues(stage, outcomeLabel(success)).Inc()
}

func outcomeLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

var _ Observer = (*PrometheusObserver)(nil)
