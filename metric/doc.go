// Package metric provides Prometheus-based metrics collection and an HTTP
// exposition server for Routio's router and client runtime (§9).
//
// The package centers on a MetricsRegistry that owns both the core
// router/client metrics (Metrics type, registered automatically) and any
// additional counters, gauges, or histograms a caller registers through the
// MetricsRegistrar interface. A Server exposes the registry's collectors in
// Prometheus text format alongside a health endpoint.
//
// # Basic usage
//
//	registry := metric.NewMetricsRegistry()
//	server := metric.NewServer(9090, "/metrics", registry)
//	go server.Start()
//	defer server.Stop()
//
//	core := registry.CoreMetrics()
//	core.RecordServiceStatus("router", 2)
//	core.RecordConnectionsActive("router", 3)
//
// All core metrics live under the "routio" namespace, e.g.
// routio_router_connections_active, routio_frames_published_total,
// routio_backpressure_disconnects_total. Caller-registered metrics keep
// whatever name they were created with.
//
// Registration guards against duplicate names with a classified error
// (errors.ErrorInvalid) distinct from a genuine Prometheus-level conflict.
package metric
