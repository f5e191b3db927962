// Copyright 2026 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package main

import (
	"github.com/diffeo/go-glpi/glpitest"
	"github.com/prometheus/client_golang/prometheus"
)

// registerMetrics exports the state of the fake server.
func registerMetrics(reg prometheus.Registerer, server *glpitest.Server) error {
	collectors := []prometheus.Collector{
		prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Namespace: "diffeo",
				Subsystem: "glpimock",
				Name:      "sessions",
				Help:      "Open API sessions",
			},
			func() float64 { return float64(server.SessionCount()) },
		),
		prometheus.NewCounterFunc(
			prometheus.CounterOpts{
				Namespace: "diffeo",
				Subsystem: "glpimock",
				Name:      "requests_total",
				Help:      "API requests received",
			},
			func() float64 { return float64(server.RequestCount()) },
		),
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
