package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lukacu/routio/health"
	"github.com/lukacu/routio/metric"
)

func TestStartMetricsServerRejectsMalformedAddress(t *testing.T) {
	err := startMetricsServer("not-a-host-port", metric.NewMetricsRegistry(), health.NewMonitor())
	assert.Error(t, err)
}

func TestStartMetricsServerRejectsNonNumericPort(t *testing.T) {
	err := startMetricsServer("localhost:http", metric.NewMetricsRegistry(), health.NewMonitor())
	assert.Error(t, err)
}

func TestStartMetricsServerAcceptsWellFormedAddress(t *testing.T) {
	err := startMetricsServer("127.0.0.1:0", metric.NewMetricsRegistry(), health.NewMonitor())
	require.NoError(t, err)
}
