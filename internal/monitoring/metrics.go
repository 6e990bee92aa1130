// Package monitoring - metrics.go provides simple counters.
//
// DESIGN: Lightweight in-memory counters for operational metrics:
//   - tool_calls/tool_errors:       MCP tool invocations and failures
//   - fetches:                      Observability source fetch operations
//   - events_normalized/skipped:    Records accepted into vs dropped from batches
//   - benchmark_hits/misses:        Benchmark lookups that found or missed an entry
//
// For production, export these to Prometheus or similar.
package monitoring

import "sync/atomic"

// MetricsCollector collects operational metrics.
type MetricsCollector struct {
	toolCalls        atomic.Int64
	toolErrors       atomic.Int64
	fetches          atomic.Int64
	eventsNormalized atomic.Int64
	eventsSkipped    atomic.Int64
	benchmarkHits    atomic.Int64
	benchmarkMisses  atomic.Int64
}

// NewMetricsCollector creates a new metrics collector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{}
}

// RecordToolCall records an MCP tool invocation.
func (mc *MetricsCollector) RecordToolCall(success bool) {
	mc.toolCalls.Add(1)
	if !success {
		mc.toolErrors.Add(1)
	}
}

// RecordFetch records a source fetch operation.
func (mc *MetricsCollector) RecordFetch(normalized, skipped int) {
	mc.fetches.Add(1)
	mc.eventsNormalized.Add(int64(normalized))
	mc.eventsSkipped.Add(int64(skipped))
}

// RecordBenchmarkLookup records a benchmark table lookup.
func (mc *MetricsCollector) RecordBenchmarkLookup(found bool) {
	if found {
		mc.benchmarkHits.Add(1)
	} else {
		mc.benchmarkMisses.Add(1)
	}
}

// Stats returns current metrics.
func (mc *MetricsCollector) Stats() map[string]int64 {
	return map[string]int64{
		"tool_calls":        mc.toolCalls.Load(),
		"tool_errors":       mc.toolErrors.Load(),
		"fetches":           mc.fetches.Load(),
		"events_normalized": mc.eventsNormalized.Load(),
		"events_skipped":    mc.eventsSkipped.Load(),
		"benchmark_hits":    mc.benchmarkHits.Load(),
		"benchmark_misses":  mc.benchmarkMisses.Load(),
	}
}
