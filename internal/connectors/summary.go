package connectors

import (
	"math"
	"sort"
	"time"
)

// ModelStats is the per-model breakdown inside a Summary.
type ModelStats struct {
	Count        int     `json:"count"`
	Cost         float64 `json:"cost"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
	P95LatencyMs float64 `json:"p95_latency_ms"`
	ErrorRate    float64 `json:"error_rate"`
}

// ProviderStats is the per-provider breakdown inside a Summary.
type ProviderStats struct {
	Count int     `json:"count"`
	Cost  float64 `json:"cost"`
}

// TimeRange bounds the parseable timestamps of a batch. Both fields are
// empty strings when no timestamp parsed.
type TimeRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Summary is the fixed-shape statistical aggregate of an event batch.
// It is recomputed in full from the batch each time, never updated
// incrementally.
type Summary struct {
	TotalRequests int     `json:"total_requests"`
	TotalCostUSD  float64 `json:"total_cost_usd"`
	AvgLatencyMs  float64 `json:"avg_latency_ms"`
	P50LatencyMs  float64 `json:"p50_latency_ms"`
	P95LatencyMs  float64 `json:"p95_latency_ms"`
	P99LatencyMs  float64 `json:"p99_latency_ms"`
	ErrorRate     float64 `json:"error_rate"`
	StreamingRate float64 `json:"streaming_rate"`

	ByModel    map[string]ModelStats    `json:"by_model"`
	ByProvider map[string]ProviderStats `json:"by_provider"`

	TimeRange TimeRange `json:"time_range"`
}

// Percentile returns the P-th percentile of values using the
// ceil(P/100*n)-1 index rule on the sorted list (no interpolation).
// Returns 0 for an empty list.
func Percentile(values []float64, pct float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	idx := int(math.Ceil(pct/100*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	return sorted[idx]
}

// Summarize computes a Summary over events. It is a pure function of the
// event multiset: the result does not depend on input order, and an empty
// batch yields an all-zero summary with empty maps, not an error.
//
// Latencies <= 0 are treated as unset and excluded from averages and
// percentiles, though the events still count toward totals and rates.
func Summarize(events []Event) Summary {
	s := Summary{
		ByModel:    map[string]ModelStats{},
		ByProvider: map[string]ProviderStats{},
	}
	if len(events) == 0 {
		return s
	}

	var latencies []float64
	errors := 0
	streaming := 0
	for _, e := range events {
		if e.LatencyMs > 0 {
			latencies = append(latencies, e.LatencyMs)
		}
		if e.CostUSD != nil {
			s.TotalCostUSD += *e.CostUSD
		}
		if !e.Success {
			errors++
		}
		if e.Streaming {
			streaming++
		}
	}

	s.TotalRequests = len(events)
	s.AvgLatencyMs = roundedMean(latencies)
	s.P50LatencyMs = Percentile(latencies, 50)
	s.P95LatencyMs = Percentile(latencies, 95)
	s.P99LatencyMs = Percentile(latencies, 99)
	s.ErrorRate = float64(errors) / float64(len(events))
	s.StreamingRate = float64(streaming) / float64(len(events))

	byModel := map[string][]Event{}
	for _, e := range events {
		model := e.Model
		if model == "" {
			model = "unknown"
		}
		byModel[model] = append(byModel[model], e)
	}
	for model, group := range byModel {
		var groupLatencies []float64
		cost := 0.0
		groupErrors := 0
		for _, e := range group {
			if e.LatencyMs > 0 {
				groupLatencies = append(groupLatencies, e.LatencyMs)
			}
			if e.CostUSD != nil {
				cost += *e.CostUSD
			}
			if !e.Success {
				groupErrors++
			}
		}
		s.ByModel[model] = ModelStats{
			Count:        len(group),
			Cost:         cost,
			AvgLatencyMs: roundedMean(groupLatencies),
			P95LatencyMs: Percentile(groupLatencies, 95),
			ErrorRate:    float64(groupErrors) / float64(len(group)),
		}
	}

	for _, e := range events {
		provider := e.Provider
		if provider == "" {
			provider = "unknown"
		}
		stats := s.ByProvider[provider]
		stats.Count++
		if e.CostUSD != nil {
			stats.Cost += *e.CostUSD
		}
		s.ByProvider[provider] = stats
	}

	s.TimeRange = timeRange(events)
	return s
}

// roundedMean averages values and rounds to the nearest whole millisecond.
// Returns 0 for an empty list.
func roundedMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return math.Round(sum / float64(len(values)))
}

// timeRange derives min/max bounds from parseable timestamps only.
// Unparseable timestamps are silently excluded.
func timeRange(events []Event) TimeRange {
	var start, end time.Time
	found := false
	for _, e := range events {
		t, ok := parseTime(e.Timestamp)
		if !ok {
			continue
		}
		if !found {
			start, end = t, t
			found = true
			continue
		}
		if t.Before(start) {
			start = t
		}
		if t.After(end) {
			end = t
		}
	}
	if !found {
		return TimeRange{}
	}
	return TimeRange{
		Start: start.UTC().Format(time.RFC3339Nano),
		End:   end.UTC().Format(time.RFC3339Nano),
	}
}
