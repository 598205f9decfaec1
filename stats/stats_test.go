package stats

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lukacu/routio/metric"
)

func TestScrapeExtractsRouterCounters(t *testing.T) {
	registry := metric.NewMetricsRegistry()
	core := registry.CoreMetrics()
	core.RecordConnectionsActive("router", 3)
	core.RecordChannelsActive("router", 2)
	core.RecordFrameReceived("router")
	core.RecordFrameReceived("router")
	core.RecordFramePublished("router", "frames")
	core.RecordBackpressureDisconnect()

	srv := httptest.NewServer(promhttp.HandlerFor(registry.PrometheusRegistry(), promhttp.HandlerOpts{}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	summary, err := Scrape(ctx, srv.Client(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.ConnectionsActive)
	assert.Equal(t, 2, summary.ChannelsActive)
	assert.Equal(t, float64(2), summary.FramesReceived)
	assert.Equal(t, float64(1), summary.FramesPublished)
	assert.Equal(t, float64(1), summary.BackpressureDrops)
}

func TestScrapeRejectsUnreachableTarget(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, err := Scrape(ctx, nil, "http://127.0.0.1:1/metrics")
	assert.Error(t, err)
}
