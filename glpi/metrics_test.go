// Copyright 2026 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package glpi

import (
	"context"
	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net/http"
	"testing"
	"time"
)

// slowTransport advances a mock clock on every request.
type slowTransport struct {
	Clock *clock.Mock
	Delay time.Duration
}

func (t slowTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.Clock.Add(t.Delay)
	return http.DefaultTransport.RoundTrip(req)
}

func TestMetrics(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	reg := prometheus.NewRegistry()
	metrics, err := NewMetrics(reg)
	require.NoError(t, err)

	mock := clock.NewMock()
	opts := f.Options()
	opts.Metrics = metrics
	opts.Clock = mock
	opts.HTTPClient = &http.Client{
		Transport: slowTransport{Clock: mock, Delay: 2 * time.Second},
	}
	c, err := New(ctx, f.URL, opts)
	require.NoError(t, err)
	_, err = c.GetItem(ctx, "Computer", 1, nil)
	require.NoError(t, err)
	require.NoError(t, c.KillSession(ctx))

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Requests.WithLabelValues("initSession", "GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Requests.WithLabelValues("{itemtype}/{id}", "GET", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Requests.WithLabelValues("killSession", "GET", "200")))
	assert.Equal(t, 3, testutil.CollectAndCount(metrics.Duration))

	var elapsed []time.Duration
	for _, entry := range f.Log.AllEntries() {
		if d, ok := entry.Data["elapsed"].(time.Duration); ok {
			elapsed = append(elapsed, d)
		}
	}
	if assert.Len(t, elapsed, 3) {
		for _, d := range elapsed {
			assert.Equal(t, 2*time.Second, d)
		}
	}

	// Registering a second set on the same registry fails
	_, err = NewMetrics(reg)
	assert.Error(t, err)
}

func TestNilMetrics(t *testing.T) {
	var metrics *Metrics
	assert.NotPanics(t, func() {
		metrics.observe("initSession", "GET", 200, time.Second)
	})
}
