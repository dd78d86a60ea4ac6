// Package metrics exposes Prometheus collectors for connection sources.
package metrics

import (
	"context"
	"time"

	"github.com/leapstack-labs/leapdb/pkg/support"
	"github.com/prometheus/client_golang/prometheus"
)

// Default histogram buckets for acquire latency (in seconds)
var defaultBuckets = []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5}

// SourceMetrics counts connections handed out and reclaimed by sources.
type SourceMetrics struct {
	acquireTotal    *prometheus.CounterVec
	releaseTotal    *prometheus.CounterVec
	inUse           *prometheus.GaugeVec
	acquireDuration *prometheus.HistogramVec
}

// NewSourceMetrics creates the collectors under namespace. They are not
// registered; call Register.
func NewSourceMetrics(namespace string) *SourceMetrics {
	return &SourceMetrics{
		acquireTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "connection_acquire_total",
				Help:      "Connections requested from a source, by outcome",
			},
			[]string{"source", "status"},
		),
		releaseTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "connection_release_total",
				Help:      "Connections returned to a source, by outcome",
			},
			[]string{"source", "status"},
		),
		inUse: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "connections_in_use",
				Help:      "Connections acquired and not yet released",
			},
			[]string{"source"},
		),
		acquireDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "connection_acquire_seconds",
				Help:      "Time spent acquiring a connection",
				Buckets:   defaultBuckets,
			},
			[]string{"source"},
		),
	}
}

// Register adds every collector to reg.
func (m *SourceMetrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.acquireTotal, m.releaseTotal, m.inUse, m.acquireDuration} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Instrument wraps src so that its Acquire and Release calls are recorded
// under the source label name.
func (m *SourceMetrics) Instrument(name string, src support.ConnectionSource) support.ConnectionSource {
	return &instrumentedSource{name: name, src: src, m: m}
}

type instrumentedSource struct {
	name string
	src  support.ConnectionSource
	m    *SourceMetrics
}

func (s *instrumentedSource) Acquire(ctx context.Context) (support.DatabaseConnection, error) {
	start := time.Now()
	conn, err := s.src.Acquire(ctx)
	s.m.acquireDuration.WithLabelValues(s.name).Observe(time.Since(start).Seconds())
	if err != nil {
		s.m.acquireTotal.WithLabelValues(s.name, "error").Inc()
		return nil, err
	}
	s.m.acquireTotal.WithLabelValues(s.name, "ok").Inc()
	s.m.inUse.WithLabelValues(s.name).Inc()
	return conn, nil
}

func (s *instrumentedSource) Release(conn support.DatabaseConnection) error {
	if err := s.src.Release(conn); err != nil {
		s.m.releaseTotal.WithLabelValues(s.name, "error").Inc()
		return err
	}
	s.m.releaseTotal.WithLabelValues(s.name, "ok").Inc()
	s.m.inUse.WithLabelValues(s.name).Dec()
	return nil
}
