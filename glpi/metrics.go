// Copyright 2026 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package glpi

import (
	"github.com/prometheus/client_golang/prometheus"
	"strconv"
	"time"
)

// Metrics holds the Prometheus collectors a Client updates.  One
// Metrics may be shared by any number of clients.
type Metrics struct {
	// Requests counts requests by endpoint, method and status
	// code.  Requests that got no response have code "0".
	Requests *prometheus.CounterVec

	// Duration records request latency by endpoint and method.
	Duration *prometheus.HistogramVec
}

// NewMetrics creates the client collectors and registers them with
// reg.  If reg is nil, the collectors are created but not registered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "diffeo",
				Subsystem: "glpi",
				Name:      "requests_total",
				Help:      "GLPI REST API requests",
			},
			[]string{"endpoint", "method", "code"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "diffeo",
				Subsystem: "glpi",
				Name:      "request_duration_seconds",
				Help:      "GLPI REST API request latency",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"endpoint", "method"},
		),
	}
	if reg != nil {
		for _, c := range []prometheus.Collector{m.Requests, m.Duration} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

// observe records one request.  It is safe to call on a nil Metrics.
func (m *Metrics) observe(endpoint, method string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Requests.With(prometheus.Labels{
		"endpoint": endpoint,
		"method":   method,
		"code":     strconv.Itoa(code),
	}).Inc()
	m.Duration.With(prometheus.Labels{
		"endpoint": endpoint,
		"method":   method,
	}).Observe(elapsed.Seconds())
}
