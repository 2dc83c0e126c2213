package secretmanager

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "secretmanager"

// metrics records request outcomes. A nil *metrics records nothing.
type metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inflight *prometheus.GaugeVec
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	if reg == nil {
		return nil, nil
	}

	requests, err := registerOrReuse(reg, prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "requests_total",
			Help:      "Secrets Manager requests by operation and outcome",
		},
		[]string{"operation", "outcome"},
	))
	if err != nil {
		return nil, err
	}

	duration, err := registerOrReuse(reg, prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "request_duration_seconds",
			Help:      "Time from submission to completion of Secrets Manager requests",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	))
	if err != nil {
		return nil, err
	}

	inflight, err := registerOrReuse(reg, prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "inflight_requests",
			Help:      "Secrets Manager requests submitted but not yet completed",
		},
		[]string{"operation"},
	))
	if err != nil {
		return nil, err
	}

	return &metrics{
		requests: requests,
		duration: duration,
		inflight: inflight,
	}, nil
}

// registerOrReuse registers c, or returns the collector already registered
// under the same descriptor.
func registerOrReuse[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// start marks op as in flight and returns a function that records its outcome.
func (m *metrics) start(op operation) func(err error) {
	if m == nil {
		return func(error) {}
	}

	begin := time.Now()
	m.inflight.WithLabelValues(op.String()).Inc()

	return func(err error) {
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		m.inflight.WithLabelValues(op.String()).Dec()
		m.requests.WithLabelValues(op.String(), outcome).Inc()
		m.duration.WithLabelValues(op.String()).Observe(time.Since(begin).Seconds())
	}
}
