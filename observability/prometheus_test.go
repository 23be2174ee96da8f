package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func TestPrometheusObserverRecordsOperations(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs := NewPrometheusObserver(reg)

	obs.ObserveRead(4096, 2_000, true)
	obs.ObserveWrite(1024, 3_000, false)
	obs.ObserveWorkerCount(4)

	families, err := reg.Gather()
	require.NoError(t, err)

	metric := findMetric(t, families, "sud_operations_total", "read")
	require.Equal(t, 1.0, metric.GetCounter().GetValue())

	errMetric := findMetric(t, families, "sud_operation_errors_total", "write")
	require.Equal(t, 1.0, errMetric.GetCounter().GetValue())

	workers := findGauge(t, families, "sud_dispatcher_workers")
	require.Equal(t, 4.0, workers.GetGauge().GetValue())
}

func findMetric(t *testing.T, families []*dto.MetricFamily, name, kind string) *dto.Metric {
	t.Helper()
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, m := range fam.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "kind" && l.GetValue() == kind {
					return m
				}
			}
		}
	}
	t.Fatalf("metric %s{kind=%s} not found", name, kind)
	return nil
}

func findGauge(t *testing.T, families []*dto.MetricFamily, name string) *dto.Metric {
	t.Helper()
	for _, fam := range families {
		if fam.GetName() == name {
			return fam.GetMetric()[0]
		}
	}
	t.Fatalf("metric %s not found", name)
	return nil
}
