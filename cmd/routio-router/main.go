// Command routio-router runs the Routio message router: it accepts
// connections on a UNIX-domain socket or a TCP port and mediates the
// publish/subscribe channels and request/response exchanges its clients
// declare (§6).
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/lukacu/routio/health"
	"github.com/lukacu/routio/metric"
	"github.com/lukacu/routio/router"
	"github.com/lukacu/routio/stats"
)

// statsInterval mirrors the router's own 5000ms statistics tick (§9).
const statsInterval = 5 * time.Second

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("routio-router failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		tcpPort    int
		metricAddr string
	)
	flag.IntVar(&tcpPort, "i", 0, "listen on this TCP port instead of a UNIX-domain socket")
	flag.StringVar(&metricAddr, "metrics", "", "optional host:port to expose Prometheus metrics on")
	flag.Parse()

	args := flag.Args()
	var network, address string
	switch {
	case tcpPort != 0:
		network, address = "tcp", fmt.Sprintf(":%d", tcpPort)
	case len(args) == 1:
		network, address = "unix", args[0]
		_ = os.Remove(address) // stale socket from a previous run
	default:
		return fmt.Errorf("usage: routio-router <socket-path> | routio-router -i <port>")
	}

	listener, err := net.Listen(network, address)
	if err != nil {
		return fmt.Errorf("bind %s %s: %w", network, address, err)
	}
	slog.Info("routio-router listening", "network", network, "address", address)

	registry := metric.NewMetricsRegistry()
	r := router.New(slog.Default(), registry)

	monitor := health.NewMonitor()
	if metricAddr != "" {
		if err := startMetricsServer(metricAddr, registry, monitor); err != nil {
			slog.Warn("metrics server did not start", "error", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go watchHealth(ctx, r, monitor)
	if metricAddr != "" {
		go statsLoop(ctx, metricAddr)
	}

	if err := r.Serve(ctx, listener); err != nil {
		return err
	}
	slog.Info("routio-router shut down cleanly")
	return nil
}

// watchHealth periodically copies the router's connection/channel counters
// into the monitor the /health endpoint reads, the same cadence as the
// router's own statistics tick (§9).
func watchHealth(ctx context.Context, r *router.Router, monitor *health.Monitor) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		monitor.Update("router", health.FromRouterSnapshot("router", r.Snapshot()))
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// statsLoop self-scrapes the router's own metrics endpoint on the
// statistics tick and logs the resulting counters, the ambient
// replacement for the original print_statistics() call (§9) for
// deployments that run the router with -metrics rather than reading its
// stderr log directly.
func statsLoop(ctx context.Context, metricAddr string) {
	url := fmt.Sprintf("http://%s/metrics", metricAddr)
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		summary, err := stats.Scrape(ctx, nil, url)
		if err != nil {
			slog.Debug("self-scrape failed", "error", err)
			continue
		}
		slog.Info("router statistics",
			"connections", summary.ConnectionsActive,
			"channels", summary.ChannelsActive,
			"frames_received", summary.FramesReceived,
			"frames_published", summary.FramesPublished,
			"backpressure_drops", summary.BackpressureDrops,
		)
	}
}

func startMetricsServer(addr string, registry *metric.MetricsRegistry, monitor *health.Monitor) error {
	host, portStr, err := net.SplitHostPort(addr)
	_ = host
	if err != nil {
		return err
	}
	var port int
	if _, err := fmt.Sscanf(portStr, "%d", &port); err != nil {
		return fmt.Errorf("invalid metrics port %q: %w", portStr, err)
	}
	server := metric.NewServer(port, "/metrics", registry)
	server.SetMonitor(monitor)
	go func() {
		if err := server.Start(); err != nil {
			slog.Error("metrics server stopped", "error", err)
		}
	}()
	return nil
}
