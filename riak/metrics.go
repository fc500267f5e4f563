package riak

import (
	"time"

	"github.com/VictoriaMetrics/metrics"
)

// Per-operation instrumentation. The metrics surface through the default
// VictoriaMetrics set, so host applications expose them with
// metrics.WritePrometheus alongside their own.
type opMetrics struct {
	total    *metrics.Counter
	errors   *metrics.Counter
	duration *metrics.Histogram
}

func newOpMetrics(op string) opMetrics {
	return opMetrics{
		total:    metrics.GetOrCreateCounter(`riakgo_requests_total{op="` + op + `"}`),
		errors:   metrics.GetOrCreateCounter(`riakgo_request_errors_total{op="` + op + `"}`),
		duration: metrics.GetOrCreateHistogram(`riakgo_request_duration_seconds{op="` + op + `"}`),
	}
}

// observe records one completed operation.
func (m *opMetrics) observe(started time.Time, err error) {
	m.total.Inc()
	if err != nil {
		m.errors.Inc()
	}
	m.duration.UpdateDuration(started)
}

var (
	fetchMetrics   = newOpMetrics("fetch")
	storeMetrics   = newOpMetrics("store")
	removeMetrics  = newOpMetrics("remove")
	resolveMetrics = newOpMetrics("resolve_put")
)
