package connectors

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

// =============================================================================
// NORMALIZATION TESTS
// =============================================================================

func TestNormalizeLangSmithRun_SkipsNonLLM(t *testing.T) {
	assert.Nil(t, normalizeLangSmithRun(gjson.Parse(`{"run_type": "chain", "id": "r1"}`)))
	assert.Nil(t, normalizeLangSmithRun(gjson.Parse(`{"run_type": "tool", "id": "r2"}`)))
	assert.Nil(t, normalizeLangSmithRun(gjson.Parse(`{"id": "r3"}`)))
}

func TestNormalizeLangSmithRun_Basic(t *testing.T) {
	rec := gjson.Parse(`{
		"id": "run-1",
		"run_type": "llm",
		"name": "ChatOpenAI",
		"status": "success",
		"start_time": "2025-08-20T12:00:00Z",
		"end_time": "2025-08-20T12:00:02.5Z",
		"trace_id": "trace-1",
		"parent_run_id": "parent-1",
		"session_id": "sess-1",
		"extra": {"invocation_params": {"model": "gpt-4o", "stream": true}}
	}`)

	e := normalizeLangSmithRun(rec)
	require.NotNil(t, e)

	assert.Equal(t, "run-1", e.ID)
	assert.Equal(t, "gpt-4o", e.Model)
	assert.Equal(t, "openai", e.Provider)
	assert.Equal(t, 2500.0, e.LatencyMs)
	assert.True(t, e.Success)
	assert.True(t, e.Streaming)
	assert.Equal(t, "trace-1", e.TraceID)
	assert.Equal(t, "parent-1", e.ParentSpanID)
	assert.Equal(t, "sess-1", e.SessionID)
}

func TestNormalizeLangSmithRun_StatusCompleted(t *testing.T) {
	e := normalizeLangSmithRun(gjson.Parse(`{"run_type": "llm", "status": "completed"}`))
	require.NotNil(t, e)
	assert.True(t, e.Success)

	e = normalizeLangSmithRun(gjson.Parse(`{"run_type": "llm", "status": "error", "error": "boom"}`))
	require.NotNil(t, e)
	assert.False(t, e.Success)
	assert.Equal(t, "boom", e.Error)
}

func TestNormalizeLangSmithRun_UsageAndCost(t *testing.T) {
	rec := gjson.Parse(`{
		"id": "run-1",
		"run_type": "llm",
		"name": "ChatOpenAI",
		"status": "success",
		"start_time": "2025-08-20T12:00:00Z",
		"end_time": "2025-08-20T12:00:01Z",
		"prompt_tokens": 100,
		"completion_tokens": 40,
		"total_tokens": 140,
		"total_cost": 0.0123,
		"extra": {"invocation_params": {"model": "gpt-4o"}}
	}`)

	e := normalizeLangSmithRun(rec)
	require.NotNil(t, e)

	require.NotNil(t, e.PromptTokens)
	assert.Equal(t, 100, *e.PromptTokens)
	require.NotNil(t, e.CompletionTokens)
	assert.Equal(t, 40, *e.CompletionTokens)
	require.NotNil(t, e.TotalTokens)
	assert.Equal(t, 140, *e.TotalTokens)
	require.NotNil(t, e.CostUSD)
	assert.Equal(t, 0.0123, *e.CostUSD)

	// Cost flows through to the batch summary and its groupings.
	summary := Summarize([]Event{*e})
	assert.Equal(t, 0.0123, summary.TotalCostUSD)
	assert.Equal(t, 0.0123, summary.ByModel["gpt-4o"].Cost)
	assert.Equal(t, 0.0123, summary.ByProvider["openai"].Cost)
}

func TestNormalizeLangSmithRun_UsageAbsent(t *testing.T) {
	e := normalizeLangSmithRun(gjson.Parse(`{"run_type": "llm", "status": "success"}`))
	require.NotNil(t, e)
	assert.Nil(t, e.PromptTokens)
	assert.Nil(t, e.CompletionTokens)
	assert.Nil(t, e.TotalTokens)
	assert.Nil(t, e.CostUSD)
}

func TestNormalizeLangSmithRun_ModelNameFallback(t *testing.T) {
	rec := gjson.Parse(`{
		"run_type": "llm",
		"extra": {"invocation_params": {"model_name": "claude-3-5-sonnet"}}
	}`)

	e := normalizeLangSmithRun(rec)
	require.NotNil(t, e)
	assert.Equal(t, "claude-3-5-sonnet", e.Model)
}

func TestInferLangSmithProvider(t *testing.T) {
	cases := []struct {
		name   string
		params string
		want   string
	}{
		{"ChatOpenAI", `{}`, "openai"},
		{"AzureChatOpenAI", `{}`, "azure-openai"},
		{"ChatAnthropic", `{}`, "anthropic"},
		{"BedrockChat", `{}`, "aws-bedrock"},
		{"ChatVertexAI", `{}`, "google"},
		{"GroqChat", `{}`, "groq"},
		{"LLMRun", `{"model": "gpt-4o"}`, "openai"},
		{"LLMRun", `{"model_name": "claude-3"}`, "anthropic"},
		{"LLMRun", `{"model": "gemini-pro"}`, "google"},
		{"LLMRun", `{"model": "custom"}`, "unknown"},
	}
	for _, tc := range cases {
		got := inferLangSmithProvider(tc.name, gjson.Parse(tc.params))
		assert.Equal(t, tc.want, got, "name=%s params=%s", tc.name, tc.params)
	}
}

func TestSpanLatencyMs(t *testing.T) {
	// Missing end time means the span never closed.
	assert.Equal(t, 0.0, spanLatencyMs("2025-08-20T12:00:00Z", ""))

	// Negative spans clamp to zero.
	assert.Equal(t, 0.0, spanLatencyMs("2025-08-20T12:00:05Z", "2025-08-20T12:00:00Z"))

	// Unparseable start yields zero.
	assert.Equal(t, 0.0, spanLatencyMs("garbage", "2025-08-20T12:00:00Z"))

	assert.Equal(t, 1500.0, spanLatencyMs("2025-08-20T12:00:00Z", "2025-08-20T12:00:01.5Z"))
}

// =============================================================================
// FETCH TESTS
// =============================================================================

func TestLangSmithFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/runs", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-API-Key"))
		assert.Equal(t, "llm", r.URL.Query().Get("run_type"))
		assert.Equal(t, "25", r.URL.Query().Get("limit"))

		_, _ = w.Write([]byte(`{
			"runs": [
				{"id": "r1", "run_type": "llm", "name": "ChatOpenAI", "status": "success",
				 "start_time": "2025-08-20T12:00:00Z", "end_time": "2025-08-20T12:00:01Z",
				 "extra": {"invocation_params": {"model": "gpt-4o"}}},
				{"id": "r2", "run_type": "chain", "name": "AgentExecutor"}
			],
			"cursors": {"next": "abc"}
		}`))
	}))
	defer srv.Close()

	l := NewLangSmith("test-key", WithLangSmithBaseURL(srv.URL))
	result, err := l.Fetch(context.Background(), Query{Limit: 25})
	require.NoError(t, err)

	// The chain run is filtered out during normalization.
	require.Len(t, result.Events, 1)
	assert.Equal(t, "r1", result.Events[0].ID)
	assert.Equal(t, SourceLangSmith, result.Metadata.Source)
	assert.Equal(t, 1, result.Metadata.Skipped)
	assert.True(t, result.Metadata.Truncated)
}

func TestLangSmithFetch_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"detail": "invalid key"}`))
	}))
	defer srv.Close()

	l := NewLangSmith("bad", WithLangSmithBaseURL(srv.URL))
	_, err := l.Fetch(context.Background(), Query{})

	var cerr *ConnectorError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, http.StatusForbidden, cerr.StatusCode)
}
