// Package observability wires the storage-unit runtime's Observer
// contract to Prometheus client_golang metrics, an out-of-core
// collaborator per spec.md §1's scope boundary around the launcher
// service and its debug-log sinks.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ehrlich-b/go-sud"
)

// PrometheusObserver implements sud.Observer by recording op counts,
// byte counts, latencies and the current worker count into Prometheus
// collectors registered against a caller-supplied Registerer.
type PrometheusObserver struct {
	ops     *prometheus.CounterVec
	errors  *prometheus.CounterVec
	bytes   *prometheus.CounterVec
	latency *prometheus.HistogramVec
	workers prometheus.Gauge
}

// NewPrometheusObserver creates and registers the collectors on reg.
func NewPrometheusObserver(reg prometheus.Registerer) *PrometheusObserver {
	o := &PrometheusObserver{
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sud",
			Name:      "operations_total",
			Help:      "Total storage-unit operations by kind.",
		}, []string{"kind"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sud",
			Name:      "operation_errors_total",
			Help:      "Total storage-unit operation failures by kind.",
		}, []string{"kind"}),
		bytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sud",
			Name:      "bytes_total",
			Help:      "Total bytes transferred by kind.",
		}, []string{"kind"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sud",
			Name:      "operation_latency_seconds",
			Help:      "Operation latency in seconds by kind.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 10, 8),
		}, []string{"kind"}),
		workers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sud",
			Name:      "dispatcher_workers",
			Help:      "Number of dispatcher workers requested at last StartDispatcher call.",
		}),
	}

	reg.MustRegister(o.ops, o.errors, o.bytes, o.latency, o.workers)
	return o
}

func (o *PrometheusObserver) observe(kind string, bytes uint64, latencyNs uint64, success bool) {
	o.ops.WithLabelValues(kind).Inc()
	o.bytes.WithLabelValues(kind).Add(float64(bytes))
	o.latency.WithLabelValues(kind).Observe(float64(latencyNs) / 1e9)
	if !success {
		o.errors.WithLabelValues(kind).Inc()
	}
}

func (o *PrometheusObserver) ObserveRead(bytes uint64, latencyNs uint64, success bool) {
	o.observe("read", bytes, latencyNs, success)
}

func (o *PrometheusObserver) ObserveWrite(bytes uint64, latencyNs uint64, success bool) {
	o.observe("write", bytes, latencyNs, success)
}

func (o *PrometheusObserver) ObserveFlush(latencyNs uint64, success bool) {
	o.observe("flush", 0, latencyNs, success)
}

func (o *PrometheusObserver) ObserveUnmap(bytes uint64, latencyNs uint64, success bool) {
	o.observe("unmap", bytes, latencyNs, success)
}

func (o *PrometheusObserver) ObserveWorkerCount(n int) {
	o.workers.Set(float64(n))
}

var _ sud.Observer = (*PrometheusObserver)(nil)
