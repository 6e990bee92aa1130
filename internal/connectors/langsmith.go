package connectors

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

const defaultLangSmithURL = "https://api.smith.langchain.com"

// LangSmith fetches LLM runs from LangSmith's runs API.
type LangSmith struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// LangSmithOption customizes a LangSmith connector.
type LangSmithOption func(*LangSmith)

// WithLangSmithBaseURL overrides the API base URL.
func WithLangSmithBaseURL(url string) LangSmithOption {
	return func(l *LangSmith) { l.baseURL = strings.TrimSuffix(url, "/") }
}

// WithLangSmithClient overrides the HTTP client.
func WithLangSmithClient(c *http.Client) LangSmithOption {
	return func(l *LangSmith) { l.client = c }
}

// NewLangSmith creates a LangSmith connector.
func NewLangSmith(apiKey string, opts ...LangSmithOption) *LangSmith {
	l := &LangSmith{
		apiKey:  apiKey,
		baseURL: defaultLangSmithURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Name returns the connector identifier.
func (l *LangSmith) Name() string { return string(SourceLangSmith) }

// Source returns the platform identifier.
func (l *LangSmith) Source() Source { return SourceLangSmith }

// Fetch queries GET /runs restricted to run_type=llm and normalizes the
// result set.
func (l *LangSmith) Fetch(ctx context.Context, q Query) (*Result, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("run_type", "llm")
	params.Set("is_root", "false") // include nested runs
	if q.StartDate != "" {
		params.Set("start_time", q.StartDate)
	}
	if q.EndDate != "" {
		params.Set("end_time", q.EndDate)
	}
	if q.Success != nil {
		params.Set("error", strconv.FormatBool(!*q.Success))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+"/runs?"+params.Encode(), nil)
	if err != nil {
		return nil, &ConnectorError{Source: SourceLangSmith, Message: err.Error()}
	}
	req.Header.Set("X-API-Key", l.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, &ConnectorError{Source: SourceLangSmith, Message: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ConnectorError{Source: SourceLangSmith, StatusCode: resp.StatusCode, Message: fmt.Sprintf("read response: %v", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ConnectorError{Source: SourceLangSmith, StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(payload))}
	}

	var events []Event
	raw := 0
	gjson.GetBytes(payload, "runs").ForEach(func(_, rec gjson.Result) bool {
		raw++
		if e := normalizeLangSmithRun(rec); e != nil {
			events = append(events, *e)
		}
		return true
	})

	return &Result{
		Events:  events,
		Summary: Summarize(events),
		Metadata: Metadata{
			Source:       SourceLangSmith,
			FetchedAt:    time.Now().UTC().Format(time.RFC3339Nano),
			TotalFetched: len(events),
			Truncated:    gjson.GetBytes(payload, "cursors.next").Exists(),
			APIVersion:   "v1",
			Skipped:      raw - len(events),
		},
	}, nil
}

// normalizeLangSmithRun maps one LangSmith run onto the canonical schema.
// Runs whose run_type is not "llm" are not inference calls and are skipped.
func normalizeLangSmithRun(rec gjson.Result) *Event {
	if rec.Get("run_type").String() != "llm" {
		return nil
	}

	startRaw := rec.Get("start_time").String()
	latency := spanLatencyMs(startRaw, rec.Get("end_time").String())

	params := rec.Get("extra.invocation_params")
	model := params.Get("model").String()
	if model == "" {
		model = params.Get("model_name").String()
	}
	if model == "" {
		model = "unknown"
	}

	id := rec.Get("id").String()
	if id == "" {
		id = uuid.NewString()
	}

	status := rec.Get("status").String()

	e := &Event{
		ID:           id,
		Timestamp:    startRaw,
		Model:        model,
		Provider:     inferLangSmithProvider(rec.Get("name").String(), params),
		LatencyMs:    latency,
		Success:      status == "success" || status == "completed",
		Error:        rec.Get("error").String(),
		Streaming:    params.Get("stream").Bool(),
		TraceID:      rec.Get("trace_id").String(),
		ParentSpanID: rec.Get("parent_run_id").String(),
		SessionID:    rec.Get("session_id").String(),
		Raw:          json.RawMessage(rec.Raw),
	}
	setIntField(&e.PromptTokens, rec.Get("prompt_tokens"))
	setIntField(&e.CompletionTokens, rec.Get("completion_tokens"))
	setIntField(&e.TotalTokens, rec.Get("total_tokens"))
	setFloatField(&e.CostUSD, rec.Get("total_cost"))
	return e
}

// inferLangSmithProvider derives the provider from the run name first,
// then from invocation params. First matching rule wins.
func inferLangSmithProvider(runName string, params gjson.Result) string {
	name := strings.ToLower(runName)
	switch {
	case strings.Contains(name, "openai") || strings.Contains(name, "gpt"):
		return "openai"
	case strings.Contains(name, "anthropic") || strings.Contains(name, "claude"):
		return "anthropic"
	case strings.Contains(name, "azure"):
		return "azure-openai"
	case strings.Contains(name, "bedrock"):
		return "aws-bedrock"
	case strings.Contains(name, "vertex") || strings.Contains(name, "palm") || strings.Contains(name, "gemini"):
		return "google"
	case strings.Contains(name, "together"):
		return "together"
	case strings.Contains(name, "fireworks"):
		return "fireworks"
	case strings.Contains(name, "groq"):
		return "groq"
	}

	model := params.Get("model_name").String()
	if model == "" {
		model = params.Get("model").String()
	}
	switch {
	case strings.Contains(model, "gpt"):
		return "openai"
	case strings.Contains(model, "claude"):
		return "anthropic"
	case strings.Contains(model, "gemini"):
		return "google"
	}
	return "unknown"
}

// spanLatencyMs computes end minus start in milliseconds. A missing end
// time means the span never closed, so latency collapses to 0. Negative
// results (clock skew) clamp to 0.
func spanLatencyMs(startRaw, endRaw string) float64 {
	start, ok := parseTime(startRaw)
	if !ok {
		return 0
	}
	end := start
	if t, ok := parseTime(endRaw); ok {
		end = t
	}
	latency := float64(end.Sub(start)) / float64(time.Millisecond)
	if latency < 0 {
		return 0
	}
	return latency
}
