// Package stats turns a Prometheus text exposition into the periodic
// counters a router's statistics line reports, the ambient replacement for
// the original print_statistics() call in src/apps/router.cpp (§9). It
// follows the tiered scrape in service/flow_runtime_metrics.go: a raw
// /metrics fetch parsed with expfmt.TextParser, the fallback tier that
// file falls back to when the Prometheus HTTP API itself isn't reachable.
package stats

import (
	"context"
	"fmt"
	"net/http"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

// Summary is the subset of a router's counters worth a periodic log line.
type Summary struct {
	ConnectionsActive int
	ChannelsActive    int
	FramesReceived    float64
	FramesPublished   float64
	BackpressureDrops float64
}

// Scrape fetches url (a router's own "/metrics" endpoint) and extracts the
// counters behind Summary. client may be nil, in which case
// http.DefaultClient is used.
func Scrape(ctx context.Context, client *http.Client, url string) (Summary, error) {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Summary{}, fmt.Errorf("stats: build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return Summary{}, fmt.Errorf("stats: scrape: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Summary{}, fmt.Errorf("stats: unexpected status %d", resp.StatusCode)
	}

	parser := expfmt.TextParser{}
	families, err := parser.TextToMetricFamilies(resp.Body)
	if err != nil {
		return Summary{}, fmt.Errorf("stats: parse: %w", err)
	}
	return extractSummary(families), nil
}

// extractSummary reads the named counters/gauges routio's metric registry
// exposes (metric/core.go's routio_router_* names) out of a parsed scrape,
// the same label/name-matching idiom as flow_runtime_metrics.go's
// extractComponentCounters.
func extractSummary(families map[string]*dto.MetricFamily) Summary {
	var s Summary
	for name, family := range families {
		switch name {
		case "routio_router_connections_active":
			s.ConnectionsActive = int(gaugeValue(family))
		case "routio_router_channels_active":
			s.ChannelsActive = int(gaugeValue(family))
		case "routio_frames_received_total":
			s.FramesReceived = counterValue(family)
		case "routio_frames_published_total":
			s.FramesPublished = counterValue(family)
		case "routio_backpressure_disconnects_total":
			s.BackpressureDrops = counterValue(family)
		}
	}
	return s
}

func gaugeValue(family *dto.MetricFamily) float64 {
	var total float64
	for _, m := range family.GetMetric() {
		if g := m.GetGauge(); g != nil {
			total += g.GetValue()
		}
	}
	return total
}

func counterValue(family *dto.MetricFamily) float64 {
	var total float64
	for _, m := range family.GetMetric() {
		if c := m.GetCounter(); c != nil {
			total += c.GetValue()
		}
	}
	return total
}
