package transport

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cocoonstack/orka/types"
)

// Metrics records per-request counters and latencies. A nil *Metrics is a
// valid no-op.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "orka",
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "Orka API requests by method and outcome.",
		}, []string{"method", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "orka",
			Subsystem: "client",
			Name:      "request_duration_seconds",
			Help:      "Orka API request latency, including retries.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}
	for _, c := range []prometheus.Collector{m.requests, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register orka client metrics: %w", err)
		}
	}
	return m, nil
}

func (m *Metrics) observe(method string, resp *Response, err error, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, outcome(resp, err)).Inc()
	m.duration.WithLabelValues(method).Observe(d.Seconds())
}

// outcome is the HTTP status code, or "error" when no response arrived.
func outcome(resp *Response, err error) string {
	if err == nil && resp != nil {
		return strconv.Itoa(resp.StatusCode)
	}
	var ae *types.APIError
	if errors.As(err, &ae) {
		return strconv.Itoa(ae.Code)
	}
	return "error"
}
