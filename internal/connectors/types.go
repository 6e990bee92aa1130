// Package connectors normalizes LLM request logs from observability
// platforms into one canonical event schema.
//
// DESIGN: Each platform (Helicone, LangSmith, Langfuse) returns records in
// its own shape. A connector fetches raw records and maps each one onto
// Event via a source-specific normalizer. Normalizers are lenient: a single
// malformed record produces a best-effort Event (or is skipped when the
// record does not represent an LLM call) and never fails the batch.
//
// FLOW:
//  1. Connector.Fetch() queries the platform API
//  2. Each raw record is passed to the source normalizer
//  3. Summarize() derives percentile/rate aggregates from the batch
package connectors

import (
	"encoding/json"
	"fmt"
	"time"
)

// Source identifies an observability platform.
type Source string

const (
	SourceHelicone  Source = "helicone"
	SourceLangSmith Source = "langsmith"
	SourceLangfuse  Source = "langfuse"
)

// Event is the canonical, source-agnostic representation of one LLM
// inference call.
type Event struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Model     string `json:"model"`
	Provider  string `json:"provider"`

	// LatencyMs is end-time minus start-time, clamped to >= 0.
	LatencyMs float64 `json:"latency_ms"`

	PromptTokens     *int     `json:"prompt_tokens,omitempty"`
	CompletionTokens *int     `json:"completion_tokens,omitempty"`
	TotalTokens      *int     `json:"total_tokens,omitempty"`
	CostUSD          *float64 `json:"cost_usd,omitempty"`

	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	Streaming bool   `json:"streaming,omitempty"`

	TraceID      string `json:"trace_id,omitempty"`
	SpanID       string `json:"span_id,omitempty"`
	ParentSpanID string `json:"parent_span_id,omitempty"`
	SessionID    string `json:"session_id,omitempty"`
	UserID       string `json:"user_id,omitempty"`
	RequestPath  string `json:"request_path,omitempty"`

	// Raw is the original source record, kept for debugging only.
	// Aggregation never consults it.
	Raw json.RawMessage `json:"raw,omitempty"`
}

// Query narrows a fetch to a time window and optional filters.
// Credentials live on the connector, not the query.
type Query struct {
	Limit     int
	StartDate string // ISO-8601
	EndDate   string // ISO-8601

	Model    string
	Provider string
	Success  *bool
}

// Metadata describes one fetch.
type Metadata struct {
	Source       Source `json:"source"`
	FetchedAt    string `json:"fetched_at"`
	TotalFetched int    `json:"total_fetched"`
	Truncated    bool   `json:"truncated"`
	APIVersion   string `json:"api_version,omitempty"`

	// Skipped counts raw records the normalizer dropped. Feeds the
	// metrics layer only; not part of the tool output.
	Skipped int `json:"-"`
}

// Result is the outcome of one fetch: normalized events plus their summary.
type Result struct {
	Events   []Event  `json:"events"`
	Summary  Summary  `json:"summary"`
	Metadata Metadata `json:"metadata"`
}

// ConnectorError reports a failed interaction with a platform API.
type ConnectorError struct {
	Source     Source
	StatusCode int
	Message    string
}

func (e *ConnectorError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: %s (status %d)", e.Source, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s", e.Source, e.Message)
}

const defaultLimit = 1000

// timeLayouts are tried in order when parsing source timestamps.
// Platforms are inconsistent about fractional seconds and zone suffixes.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
}

// parseTime parses a source timestamp, reporting whether it was parseable.
func parseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
