package metric

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lukacu/routio/health"
)

func TestHealthEndpointWithoutMonitorReportsOK(t *testing.T) {
	server := NewServer(0, "/metrics", NewMetricsRegistry())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	server.handleHealth(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestHealthEndpointWithHealthyMonitorReportsJSON(t *testing.T) {
	server := NewServer(0, "/metrics", NewMetricsRegistry())
	monitor := health.NewMonitor()
	monitor.UpdateHealthy("router", "accepting connections")
	server.SetMonitor(monitor)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	server.handleHealth(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"healthy":true`)
}

func TestHealthEndpointWithUnhealthyMonitorReports503(t *testing.T) {
	server := NewServer(0, "/metrics", NewMetricsRegistry())
	monitor := health.NewMonitor()
	monitor.UpdateUnhealthy("router", "lost connection")
	server.SetMonitor(monitor)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	server.handleHealth(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"healthy":false`)
}
