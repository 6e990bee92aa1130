package connectors

import (
	"context"
	"fmt"
	"io"
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

func TestNormalizeHeliconeRequest_Success(t *testing.T) {
	rec := gjson.Parse(`{
		"request_id": "req-1",
		"created_at": "2025-08-20T12:00:00Z",
		"model": "gpt-4o",
		"provider": "OPENAI",
		"response_status": 200,
		"latency_ms": 1234.5,
		"prompt_tokens": 120,
		"completion_tokens": 80,
		"total_tokens": 200,
		"cost_usd": 0.0042,
		"request_body": {"stream": true},
		"request_path": "/v1/chat/completions",
		"user_id": "user-9"
	}`)

	e := normalizeHeliconeRequest(rec)
	require.NotNil(t, e)

	assert.Equal(t, "req-1", e.ID)
	assert.Equal(t, "gpt-4o", e.Model)
	assert.Equal(t, "openai", e.Provider)
	assert.Equal(t, 1234.5, e.LatencyMs)
	assert.True(t, e.Success)
	assert.True(t, e.Streaming)
	assert.Equal(t, "/v1/chat/completions", e.RequestPath)
	assert.Equal(t, "user-9", e.UserID)
	require.NotNil(t, e.PromptTokens)
	assert.Equal(t, 120, *e.PromptTokens)
	require.NotNil(t, e.CostUSD)
	assert.InDelta(t, 0.0042, *e.CostUSD, 1e-9)
	assert.Empty(t, e.Error)
}

func TestNormalizeHeliconeRequest_Failure(t *testing.T) {
	rec := gjson.Parse(`{
		"request_id": "req-2",
		"model": "gpt-4o",
		"response_status": 429,
		"response_body": {"error": {"message": "rate limited"}}
	}`)

	e := normalizeHeliconeRequest(rec)
	require.NotNil(t, e)

	assert.False(t, e.Success)
	assert.Equal(t, "rate limited", e.Error)
}

func TestNormalizeHeliconeRequest_StatusBoundaries(t *testing.T) {
	for status, success := range map[int]bool{
		200: true,
		399: true,
		400: false,
		199: false,
	} {
		rec := gjson.Parse(fmt.Sprintf(`{"response_status": %d}`, status))
		e := normalizeHeliconeRequest(rec)
		require.NotNil(t, e)
		assert.Equal(t, success, e.Success, "status %d", status)
	}
}

func TestNormalizeHeliconeRequest_Fallbacks(t *testing.T) {
	rec := gjson.Parse(`{
		"response_status": 200,
		"request_body": {"model": "gpt-4o-mini"},
		"latency_ms": -50
	}`)

	e := normalizeHeliconeRequest(rec)
	require.NotNil(t, e)

	// Missing id gets a generated one; model falls back to the request body.
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "gpt-4o-mini", e.Model)
	assert.Equal(t, 0.0, e.LatencyMs)

	// Missing usage fields stay nil instead of zero.
	assert.Nil(t, e.PromptTokens)
	assert.Nil(t, e.CostUSD)
}

func TestNormalizeHeliconeRequest_UnknownModel(t *testing.T) {
	e := normalizeHeliconeRequest(gjson.Parse(`{"response_status": 200}`))
	require.NotNil(t, e)
	assert.Equal(t, "unknown", e.Model)
}

func TestNormalizeHeliconeProvider(t *testing.T) {
	cases := map[string]string{
		"openai":       "openai",
		"OPENAI":       "openai",
		"azure":        "azure-openai",
		"openai-azure": "azure-openai",
		"vertex":       "google-vertex",
		"aws":          "aws-bedrock",
		"bedrock":      "aws-bedrock",
		"deepseek":     "deepseek",
		"CustomHost":   "customhost",
		"":             "unknown",
	}
	for in, want := range cases {
		assert.Equal(t, want, normalizeHeliconeProvider(in), "provider %q", in)
	}
}

// =============================================================================
// FETCH TESTS
// =============================================================================

func TestHeliconeFetch(t *testing.T) {
	var gotBody []byte
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/request/query", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		gotBody, _ = io.ReadAll(r.Body)

		_, _ = w.Write([]byte(`{"data": [
			{"request_id": "a", "model": "gpt-4o", "provider": "openai", "response_status": 200, "latency_ms": 100},
			{"request_id": "b", "model": "gpt-4o", "provider": "openai", "response_status": 500, "latency_ms": 200}
		]}`))
	}))
	defer srv.Close()

	h := NewHelicone("test-key", WithHeliconeBaseURL(srv.URL))
	result, err := h.Fetch(context.Background(), Query{Limit: 50, StartDate: "2025-08-13T00:00:00Z"})
	require.NoError(t, err)

	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, int64(50), gjson.GetBytes(gotBody, "limit").Int())
	assert.Equal(t, "desc", gjson.GetBytes(gotBody, "sort.created_at").String())
	assert.Equal(t, "2025-08-13T00:00:00Z", gjson.GetBytes(gotBody, "filter.created_at.gte").String())

	require.Len(t, result.Events, 2)
	assert.Equal(t, SourceHelicone, result.Metadata.Source)
	assert.False(t, result.Metadata.Truncated)
	assert.Equal(t, 2, result.Summary.TotalRequests)
	assert.Equal(t, 0.5, result.Summary.ErrorRate)
}

func TestHeliconeFetch_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": "invalid api key"}`))
	}))
	defer srv.Close()

	h := NewHelicone("bad-key", WithHeliconeBaseURL(srv.URL))
	_, err := h.Fetch(context.Background(), Query{})
	require.Error(t, err)

	var cerr *ConnectorError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, SourceHelicone, cerr.Source)
	assert.Equal(t, http.StatusUnauthorized, cerr.StatusCode)
}

func TestHeliconeFetch_BadRecordDoesNotAbortBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data": [
			{"request_id": "good", "model": "gpt-4o", "response_status": 200, "latency_ms": 10},
			{"unexpected": "shape"},
			42
		]}`))
	}))
	defer srv.Close()

	h := NewHelicone("key", WithHeliconeBaseURL(srv.URL))
	result, err := h.Fetch(context.Background(), Query{})
	require.NoError(t, err)

	// Malformed records degrade to best-effort events, never abort.
	assert.Len(t, result.Events, 3)
	assert.Equal(t, "good", result.Events[0].ID)
	assert.Equal(t, 0, result.Metadata.Skipped)
}
