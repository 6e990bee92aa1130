package benchmarks

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// UserMetrics is the caller-supplied observation set. Any subset may be
// present; zero means "not provided" (a benchmark value of exactly 0 is
// likewise treated as not comparable).
type UserMetrics struct {
	P95LatencyMs  float64 `json:"p95_latency_ms,omitempty"`
	TTFTMs        float64 `json:"ttft_ms,omitempty"`
	ThroughputTPS float64 `json:"throughput_tps,omitempty"`
}

// Gap is one metric's signed difference against the benchmark. For
// latency-like metrics a positive Value means the user is slower; for
// throughput the sign is flipped on the way out so that positive still
// reads "user is worse".
type Gap struct {
	Value       float64 `json:"value"`
	Percent     int     `json:"percent"`
	Description string  `json:"description"`
}

// Comparison is the full gap report for one model.
type Comparison struct {
	Model            string         `json:"model"`
	Framework        string         `json:"framework"`
	Hardware         string         `json:"hardware"`
	YourMetrics      UserMetrics    `json:"your_metrics"`
	BenchmarkMetrics Metrics        `json:"benchmark_metrics"`
	Gaps             Gaps           `json:"gaps"`
	OverallGap       string         `json:"overall_gap"`
	OptimalConfig    map[string]any `json:"optimal_config,omitempty"`
}

// Gaps holds the per-metric gaps that could be computed.
type Gaps struct {
	P95Latency *Gap `json:"p95_latency,omitempty"`
	TTFT       *Gap `json:"ttft,omitempty"`
	Throughput *Gap `json:"throughput,omitempty"`
}

func (g Gaps) empty() bool {
	return g.P95Latency == nil && g.TTFT == nil && g.Throughput == nil
}

// Compare resolves model to a benchmark entry and derives per-metric gaps
// plus an overall verdict. Returns nil (and no error) when no benchmark
// entry resolves.
func (s *Store) Compare(model string, user UserMetrics, framework, hardware string) (*Comparison, error) {
	entry, err := s.Get(model, framework, hardware)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, nil
	}

	var gaps Gaps

	// Lower is better: positive diff means the user is slower.
	if user.P95LatencyMs != 0 && entry.Metrics.P95LatencyMs != 0 {
		gaps.P95Latency = latencyGap(user.P95LatencyMs, entry.Metrics.P95LatencyMs)
	}
	if user.TTFTMs != 0 && entry.Metrics.TTFTMs != 0 {
		gaps.TTFT = latencyGap(user.TTFTMs, entry.Metrics.TTFTMs)
	}

	// Higher is better: compute against the inverted diff, then negate the
	// reported value/percent so a positive gap still means "user is worse".
	if user.ThroughputTPS != 0 && entry.Metrics.ThroughputTPS != 0 {
		diff := entry.Metrics.ThroughputTPS - user.ThroughputTPS
		percent := roundPercent(diff, entry.Metrics.ThroughputTPS)
		gaps.Throughput = &Gap{
			Value:       -diff,
			Percent:     -percent,
			Description: describeGap(diff, percent, "tps", "below", "above"),
		}
	}

	return &Comparison{
		Model:            entry.Model,
		Framework:        entry.Framework,
		Hardware:         entry.Hardware,
		YourMetrics:      user,
		BenchmarkMetrics: entry.Metrics,
		Gaps:             gaps,
		OverallGap:       overallGap(gaps),
		OptimalConfig:    entry.OptimalConfig,
	}, nil
}

func latencyGap(user, bench float64) *Gap {
	diff := user - bench
	percent := roundPercent(diff, bench)
	return &Gap{
		Value:       diff,
		Percent:     percent,
		Description: describeGap(diff, percent, "ms", "slower", "faster"),
	}
}

func roundPercent(diff, base float64) int {
	return int(math.Round(diff / base * 100))
}

// describeGap renders one gap as prose. Gaps beyond 100% switch to a
// multiplier form ("2.5x slower"); exact parity reads as on-par.
func describeGap(diff float64, percent int, unit, worseWord, betterWord string) string {
	if diff == 0 || percent == 0 {
		return "On par with benchmark"
	}

	absPercent := percent
	if absPercent < 0 {
		absPercent = -absPercent
	}
	word := betterWord
	if diff > 0 {
		word = worseWord
	}

	if absPercent > 100 {
		return fmt.Sprintf("%.1fx %s", float64(absPercent)/100+1, word)
	}

	sign := ""
	if diff > 0 {
		sign = "+"
	} else {
		sign = "-"
	}
	return fmt.Sprintf("%d%% %s (%s%s%s)", absPercent, word, sign, formatNumber(math.Abs(diff)), unit)
}

// overallGap evaluates each available gap against its issue threshold and
// joins the triggered phrases. Thresholds are strict inequalities.
func overallGap(gaps Gaps) string {
	var issues []string

	if gaps.P95Latency != nil && gaps.P95Latency.Percent > 50 {
		issues = append(issues, "latency "+gaps.P95Latency.Description)
	}
	if gaps.TTFT != nil && gaps.TTFT.Percent > 50 {
		issues = append(issues, "TTFT "+gaps.TTFT.Description)
	}
	if gaps.Throughput != nil && gaps.Throughput.Percent < -30 {
		issues = append(issues, "throughput "+gaps.Throughput.Description)
	}

	if len(issues) == 0 {
		if gaps.empty() {
			return "No metrics to compare"
		}
		return "Performing within benchmark range"
	}
	return strings.Join(issues, ", ")
}

// formatNumber renders a metric value without trailing zeros.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Format renders a comparison for display: one line per computed gap,
// the overall verdict, and any optimal configuration. Purely
// presentational; nothing parses this output.
func (c *Comparison) Format() string {
	var lines []string

	lines = append(lines, "Model: "+c.Model)
	lines = append(lines, fmt.Sprintf("Framework: %s | Hardware: %s", c.Framework, c.Hardware))
	lines = append(lines, "")

	if c.Gaps.P95Latency != nil {
		lines = append(lines, fmt.Sprintf("P95 Latency: Your %sms | Benchmark %sms | %s",
			formatNumber(c.YourMetrics.P95LatencyMs), formatNumber(c.BenchmarkMetrics.P95LatencyMs), c.Gaps.P95Latency.Description))
	}
	if c.Gaps.TTFT != nil {
		lines = append(lines, fmt.Sprintf("TTFT: Your %sms | Benchmark %sms | %s",
			formatNumber(c.YourMetrics.TTFTMs), formatNumber(c.BenchmarkMetrics.TTFTMs), c.Gaps.TTFT.Description))
	}
	if c.Gaps.Throughput != nil {
		lines = append(lines, fmt.Sprintf("Throughput: Your %s tps | Benchmark %s tps | %s",
			formatNumber(c.YourMetrics.ThroughputTPS), formatNumber(c.BenchmarkMetrics.ThroughputTPS), c.Gaps.Throughput.Description))
	}

	lines = append(lines, "", "Overall: "+c.OverallGap)

	if len(c.OptimalConfig) > 0 {
		lines = append(lines, "", "Optimal Config:")
		keys := make([]string, 0, len(c.OptimalConfig))
		for k := range c.OptimalConfig {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			lines = append(lines, fmt.Sprintf("  %s: %v", k, c.OptimalConfig[k]))
		}
	}

	return strings.Join(lines, "\n")
}
