package observer

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestPrometheusObserver_OnDispatchIncrements(t *testing.T) {
	reg := prometheus.NewRegistry()
	o := NewPrometheusObserver(reg)

	o.OnDispatch("facade", "GetBlockNumber")
	o.OnDispatch("facade", "GetBlockNumber")

	metricFamilies, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	found := false
	for _, mf := range metricFamilies {
		if mf.GetName() != "multirpc_dispatch_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			if m.GetCounter().GetValue() == 2 {
				found = true
			}
		}
	}
	if !found {
		t.Fatalf("expected multirpc_dispatch_total=2, families: %+v", dump(metricFamilies))
	}
}

func dump(mfs []*dto.MetricFamily) []string {
	var names []string
	for _, mf := range mfs {
		names = append(names, mf.GetName())
	}
	return names
}

func TestNoopObserver_SatisfiesInterface(t *testing.T) {
	var o Observer = Noop{}
	o.OnDispatch("x", "y")
	o.OnReconcile("x", "y", 0.1, true)
	o.OnTransactionStage("sign", false)
}
