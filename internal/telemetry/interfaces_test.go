package telemetry

import (
	"bytes"
	"log"
	"strings"
	"testing"

	"starfall/server/logging"
)

func TestWrapLoggerWritesThrough(t *testing.T) {
	var buf bytes.Buffer
	wrapped := WrapLogger(log.New(&buf, "", 0))
	wrapped.Printf("tick %d complete", 7)
	if !strings.Contains(buf.String(), "tick 7 complete") {
		t.Fatalf("expected formatted output, got %q", buf.String())
	}
}

func TestWrapMetricsForwardsToCountersAndGauges(t *testing.T) {
	store := &logging.Metrics{}
	metrics := WrapMetrics(store)

	metrics.Add("orders", 2)
	metrics.Add("orders", 3)
	metrics.Store("occupancy", 9)

	counters, gauges := store.TelemetrySnapshot()
	if counters["orders"] != 5 {
		t.Fatalf("expected counter 5, got %d", counters["orders"])
	}
	if gauges["occupancy"] != 9 {
		t.Fatalf("expected gauge 9, got %d", gauges["occupancy"])
	}
}

func TestNilAdaptersAreSafe(t *testing.T) {
	metrics := WrapMetrics(nil)
	metrics.Add("x", 1)
	metrics.Store("y", 1)
}
