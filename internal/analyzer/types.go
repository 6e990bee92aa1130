// Package analyzer invokes the PeakInfer analysis engine on collected
// source files, preferring the local CLI binary and falling back to the
// hosted API. The engine itself is a black box; this package only
// collects input files and decodes the structured result.
package analyzer

// File is one source file submitted for analysis.
type File struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// Options toggle optional result sections.
type Options struct {
	Fixes     bool `json:"fixes"`
	Benchmark bool `json:"benchmark"`
}

// Issue is one finding attached to an inference point.
type Issue struct {
	Severity string `json:"severity"` // critical, warning, info
	Type     string `json:"type"`
	Message  string `json:"message"`
	Impact   string `json:"impact,omitempty"`
	Fix      string `json:"fix,omitempty"`
}

// Patterns flags which inference patterns were detected at a callsite.
type Patterns struct {
	Streaming bool `json:"streaming,omitempty"`
	Batching  bool `json:"batching,omitempty"`
	Retry     bool `json:"retry,omitempty"`
	Fallback  bool `json:"fallback,omitempty"`
	Timeout   bool `json:"timeout,omitempty"`
	Caching   bool `json:"caching,omitempty"`
	Async     bool `json:"async,omitempty"`
	MaxTokens bool `json:"max_tokens,omitempty"`
}

// InferencePoint is one detected LLM callsite.
type InferencePoint struct {
	ID         string   `json:"id"`
	File       string   `json:"file"`
	Line       int      `json:"line"`
	Provider   string   `json:"provider"`
	Model      string   `json:"model"`
	Patterns   Patterns `json:"patterns"`
	Issues     []Issue  `json:"issues"`
	Confidence float64  `json:"confidence"`
}

// Insight is a cross-file finding.
type Insight struct {
	Type          string   `json:"type"`
	Severity      string   `json:"severity"`
	Message       string   `json:"message"`
	AffectedFiles []string `json:"affected_files"`
}

// Optimization is one prioritized fix suggestion.
type Optimization struct {
	Priority   int      `json:"priority"`
	Issue      string   `json:"issue"`
	Fix        string   `json:"fix"`
	Impact     string   `json:"impact"`
	Effort     string   `json:"effort"`
	Files      []string `json:"files"`
	CodeBefore string   `json:"code_before,omitempty"`
	CodeAfter  string   `json:"code_after,omitempty"`
}

// BenchmarkEstimate compares one detected model against its benchmark.
type BenchmarkEstimate struct {
	Model          string   `json:"model"`
	Metric         string   `json:"metric"`
	BenchmarkValue float64  `json:"benchmark_value"`
	EstimatedValue *float64 `json:"estimated_value,omitempty"`
	GapPercent     *float64 `json:"gap_percent,omitempty"`
}

// ResultSummary aggregates the analysis findings.
type ResultSummary struct {
	FilesScanned   int            `json:"files_scanned"`
	TotalCallsites int            `json:"total_callsites"`
	Providers      map[string]int `json:"providers"`
	Models         map[string]int `json:"models"`
	CriticalIssues int            `json:"critical_issues"`
	Warnings       int            `json:"warnings"`
	Opportunities  int            `json:"opportunities"`
}

// Result is the engine's structured analysis output.
type Result struct {
	Success         bool                `json:"success"`
	Version         string              `json:"version"`
	InferencePoints []InferencePoint    `json:"inference_points"`
	Summary         ResultSummary       `json:"summary"`
	Insights        []Insight           `json:"insights"`
	Optimizations   []Optimization      `json:"optimizations"`
	Benchmarks      []BenchmarkEstimate `json:"benchmarks,omitempty"`
	CreditsUsed     *float64            `json:"credits_used,omitempty"`
	Error           string              `json:"error,omitempty"`
	ErrorCode       string              `json:"error_code,omitempty"`
}
