package connectors

import (
	"context"
	"encoding/base64"
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

const (
	defaultLangfuseURL = "https://cloud.langfuse.com"

	// Langfuse caps observation pages at 100 items.
	langfusePageSize = 100
)

// Langfuse fetches generation observations from Langfuse's public API.
// Auth is HTTP Basic with publicKey:secretKey.
type Langfuse struct {
	publicKey string
	secretKey string
	baseURL   string
	client    *http.Client
}

// LangfuseOption customizes a Langfuse connector.
type LangfuseOption func(*Langfuse)

// WithLangfuseBaseURL overrides the API base URL (self-hosted instances).
func WithLangfuseBaseURL(url string) LangfuseOption {
	return func(l *Langfuse) { l.baseURL = strings.TrimSuffix(url, "/") }
}

// WithLangfuseClient overrides the HTTP client.
func WithLangfuseClient(c *http.Client) LangfuseOption {
	return func(l *Langfuse) { l.client = c }
}

// NewLangfuse creates a Langfuse connector from a public/secret key pair.
func NewLangfuse(publicKey, secretKey string, opts ...LangfuseOption) *Langfuse {
	l := &Langfuse{
		publicKey: publicKey,
		secretKey: secretKey,
		baseURL:   defaultLangfuseURL,
		client:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Name returns the connector identifier.
func (l *Langfuse) Name() string { return string(SourceLangfuse) }

// Source returns the platform identifier.
func (l *Langfuse) Source() Source { return SourceLangfuse }

// Fetch pages through GET /api/public/observations (type=GENERATION) until
// the limit or the last page is reached.
func (l *Langfuse) Fetch(ctx context.Context, q Query) (*Result, error) {
	if l.secretKey == "" {
		return nil, &ConnectorError{
			Source:  SourceLangfuse,
			Message: "langfuse requires both a public key and a secret key",
		}
	}

	limit := q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	auth := "Basic " + base64.StdEncoding.EncodeToString([]byte(l.publicKey+":"+l.secretKey))

	var events []Event
	skipped := 0
	page := 1
	for len(events) < limit {
		params := url.Values{}
		params.Set("limit", strconv.Itoa(min(limit, langfusePageSize)))
		params.Set("type", "GENERATION")
		params.Set("page", strconv.Itoa(page))
		if q.StartDate != "" {
			params.Set("fromTimestamp", q.StartDate)
		}
		if q.EndDate != "" {
			params.Set("toTimestamp", q.EndDate)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+"/api/public/observations?"+params.Encode(), nil)
		if err != nil {
			return nil, &ConnectorError{Source: SourceLangfuse, Message: err.Error()}
		}
		req.Header.Set("Authorization", auth)
		req.Header.Set("Content-Type", "application/json")

		resp, err := l.client.Do(req)
		if err != nil {
			return nil, &ConnectorError{Source: SourceLangfuse, Message: fmt.Sprintf("request failed: %v", err)}
		}
		payload, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, &ConnectorError{Source: SourceLangfuse, StatusCode: resp.StatusCode, Message: fmt.Sprintf("read response: %v", err)}
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, &ConnectorError{Source: SourceLangfuse, StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(payload))}
		}

		gjson.GetBytes(payload, "data").ForEach(func(_, rec gjson.Result) bool {
			if e := normalizeLangfuseObservation(rec); e != nil {
				events = append(events, *e)
			} else {
				skipped++
			}
			return true
		})

		totalPages := int(gjson.GetBytes(payload, "meta.totalPages").Int())
		if totalPages == 0 || page >= totalPages {
			break
		}
		page++
	}

	truncated := len(events) > limit
	if truncated {
		events = events[:limit]
	}

	return &Result{
		Events:  events,
		Summary: Summarize(events),
		Metadata: Metadata{
			Source:       SourceLangfuse,
			FetchedAt:    time.Now().UTC().Format(time.RFC3339Nano),
			TotalFetched: len(events),
			Truncated:    truncated,
			APIVersion:   "v1",
			Skipped:      skipped,
		},
	}, nil
}

// normalizeLangfuseObservation maps one observation onto the canonical
// schema. Only GENERATION observations represent LLM calls; spans and
// events are skipped.
func normalizeLangfuseObservation(rec gjson.Result) *Event {
	if rec.Get("type").String() != "GENERATION" {
		return nil
	}

	startRaw := rec.Get("startTime").String()
	latency := spanLatencyMs(startRaw, rec.Get("endTime").String())

	model := rec.Get("model").String()
	if model == "" {
		model = "unknown"
	}

	id := rec.Get("id").String()
	if id == "" {
		id = uuid.NewString()
	}

	level := rec.Get("level").String()
	success := level != "ERROR"

	e := &Event{
		ID:        id,
		Timestamp: startRaw,
		Model:     model,
		Provider:  inferLangfuseProvider(model, rec.Get("name").String()),
		LatencyMs: latency,
		Success:   success,
		// A completion start before completion end marks incremental delivery.
		Streaming:    rec.Get("completionStartTime").Exists(),
		TraceID:      rec.Get("traceId").String(),
		ParentSpanID: rec.Get("parentObservationId").String(),
		Raw:          json.RawMessage(rec.Raw),
	}
	if !success {
		e.Error = rec.Get("statusMessage").String()
	}
	setIntField(&e.PromptTokens, rec.Get("usage.input"))
	setIntField(&e.CompletionTokens, rec.Get("usage.output"))
	setIntField(&e.TotalTokens, rec.Get("usage.total"))
	setFloatField(&e.CostUSD, rec.Get("usage.totalCost"))
	return e
}

// inferLangfuseProvider derives the provider from model and observation
// name substrings. First matching rule wins.
func inferLangfuseProvider(model, name string) string {
	m := strings.ToLower(model)
	n := strings.ToLower(name)
	switch {
	case strings.Contains(m, "gpt") || strings.Contains(n, "openai"):
		return "openai"
	case strings.Contains(m, "claude") || strings.Contains(n, "anthropic"):
		return "anthropic"
	case strings.Contains(m, "gemini") || strings.Contains(n, "google") || strings.Contains(m, "palm"):
		return "google"
	case strings.Contains(m, "azure"):
		return "azure-openai"
	case strings.Contains(m, "bedrock"):
		return "aws-bedrock"
	case strings.Contains(m, "together"):
		return "together"
	case strings.Contains(m, "fireworks"):
		return "fireworks"
	case strings.Contains(m, "groq"):
		return "groq"
	case strings.Contains(m, "mistral"):
		return "mistral"
	case strings.Contains(m, "llama"):
		return "meta"
	case strings.Contains(m, "cohere") || strings.Contains(n, "cohere"):
		return "cohere"
	}
	return "unknown"
}
