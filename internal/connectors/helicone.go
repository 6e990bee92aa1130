package connectors

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const defaultHeliconeURL = "https://api.helicone.ai"

// heliconeProviders maps Helicone's provider field onto the canonical
// provider vocabulary. Unmapped providers pass through lowercased.
var heliconeProviders = map[string]string{
	"openai":       "openai",
	"openai-azure": "azure-openai",
	"azure":        "azure-openai",
	"anthropic":    "anthropic",
	"google":       "google",
	"vertex":       "google-vertex",
	"aws":          "aws-bedrock",
	"bedrock":      "aws-bedrock",
	"together":     "together",
	"fireworks":    "fireworks",
	"groq":         "groq",
	"deepseek":     "deepseek",
}

// Helicone fetches request logs from Helicone's request query API.
type Helicone struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// HeliconeOption customizes a Helicone connector.
type HeliconeOption func(*Helicone)

// WithHeliconeBaseURL overrides the API base URL (for self-hosted
// deployments and tests).
func WithHeliconeBaseURL(url string) HeliconeOption {
	return func(h *Helicone) { h.baseURL = strings.TrimSuffix(url, "/") }
}

// WithHeliconeClient overrides the HTTP client.
func WithHeliconeClient(c *http.Client) HeliconeOption {
	return func(h *Helicone) { h.client = c }
}

// NewHelicone creates a Helicone connector.
func NewHelicone(apiKey string, opts ...HeliconeOption) *Helicone {
	h := &Helicone{
		apiKey:  apiKey,
		baseURL: defaultHeliconeURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Name returns the connector identifier.
func (h *Helicone) Name() string { return string(SourceHelicone) }

// Source returns the platform identifier.
func (h *Helicone) Source() Source { return SourceHelicone }

// Fetch queries POST /v1/request/query and normalizes the result set.
func (h *Helicone) Fetch(ctx context.Context, q Query) (*Result, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	body, err := h.queryBody(q, limit)
	if err != nil {
		return nil, &ConnectorError{Source: SourceHelicone, Message: fmt.Sprintf("build query: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/v1/request/query", bytes.NewReader(body))
	if err != nil {
		return nil, &ConnectorError{Source: SourceHelicone, Message: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+h.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, &ConnectorError{Source: SourceHelicone, Message: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ConnectorError{Source: SourceHelicone, StatusCode: resp.StatusCode, Message: fmt.Sprintf("read response: %v", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ConnectorError{Source: SourceHelicone, StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(payload))}
	}
	if apiErr := gjson.GetBytes(payload, "error"); apiErr.Type == gjson.String && apiErr.Str != "" {
		return nil, &ConnectorError{Source: SourceHelicone, Message: apiErr.Str}
	}

	var events []Event
	raw := 0
	gjson.GetBytes(payload, "data").ForEach(func(_, rec gjson.Result) bool {
		raw++
		if e := normalizeHeliconeRequest(rec); e != nil {
			events = append(events, *e)
		}
		return true
	})

	return &Result{
		Events:  events,
		Summary: Summarize(events),
		Metadata: Metadata{
			Source:       SourceHelicone,
			FetchedAt:    time.Now().UTC().Format(time.RFC3339Nano),
			TotalFetched: len(events),
			Truncated:    len(events) >= limit,
			APIVersion:   "v1",
			Skipped:      raw - len(events),
		},
	}, nil
}

// queryBody builds the request query payload. Helicone's filter grammar is
// nested objects, assembled field by field.
func (h *Helicone) queryBody(q Query, limit int) ([]byte, error) {
	body := []byte(`{}`)
	var err error

	if body, err = sjson.SetBytes(body, "limit", limit); err != nil {
		return nil, err
	}
	if body, err = sjson.SetBytes(body, "sort.created_at", "desc"); err != nil {
		return nil, err
	}
	if q.StartDate != "" {
		if body, err = sjson.SetBytes(body, "filter.created_at.gte", q.StartDate); err != nil {
			return nil, err
		}
	}
	if q.Model != "" {
		if body, err = sjson.SetBytes(body, "filter.model.equals", q.Model); err != nil {
			return nil, err
		}
	}
	if q.Success != nil {
		if *q.Success {
			if body, err = sjson.SetBytes(body, "filter.response_status.gte", 200); err != nil {
				return nil, err
			}
			if body, err = sjson.SetBytes(body, "filter.response_status.lt", 400); err != nil {
				return nil, err
			}
		} else {
			if body, err = sjson.SetBytes(body, "filter.response_status.gte", 400); err != nil {
				return nil, err
			}
		}
	}
	return body, nil
}

// normalizeHeliconeRequest maps one Helicone request record onto the
// canonical schema. Helicone reports latency directly and marks outcome
// via HTTP status.
func normalizeHeliconeRequest(rec gjson.Result) *Event {
	status := rec.Get("response_status").Int()
	success := status >= 200 && status < 400

	id := rec.Get("request_id").String()
	if id == "" {
		id = uuid.NewString()
	}

	model := rec.Get("model").String()
	if model == "" {
		model = rec.Get("request_body.model").String()
	}
	if model == "" {
		model = "unknown"
	}

	latency := rec.Get("latency_ms").Float()
	if latency < 0 {
		latency = 0
	}

	e := &Event{
		ID:          id,
		Timestamp:   rec.Get("created_at").String(),
		Model:       model,
		Provider:    normalizeHeliconeProvider(rec.Get("provider").String()),
		LatencyMs:   latency,
		Success:     success,
		Streaming:   rec.Get("request_body.stream").Bool(),
		RequestPath: rec.Get("request_path").String(),
		UserID:      rec.Get("user_id").String(),
		Raw:         json.RawMessage(rec.Raw),
	}
	if !success {
		e.Error = rec.Get("response_body.error.message").String()
	}
	setIntField(&e.PromptTokens, rec.Get("prompt_tokens"))
	setIntField(&e.CompletionTokens, rec.Get("completion_tokens"))
	setIntField(&e.TotalTokens, rec.Get("total_tokens"))
	setFloatField(&e.CostUSD, rec.Get("cost_usd"))
	return e
}

func normalizeHeliconeProvider(provider string) string {
	lower := strings.ToLower(provider)
	if canonical, ok := heliconeProviders[lower]; ok {
		return canonical
	}
	if lower == "" {
		return "unknown"
	}
	return lower
}

func setIntField(dst **int, v gjson.Result) {
	if !v.Exists() {
		return
	}
	n := int(v.Int())
	*dst = &n
}

func setFloatField(dst **float64, v gjson.Result) {
	if !v.Exists() {
		return
	}
	f := v.Float()
	*dst = &f
}
