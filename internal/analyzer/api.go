package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const defaultAPIURL = "https://peakinfer.com/api/analyze"

// APIError reports a failed analysis API call.
type APIError struct {
	Code       string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("peakinfer api [%s]: %s (status %d)", e.Code, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("peakinfer api [%s]: %s", e.Code, e.Message)
}

// Client calls the hosted analysis API. Two auth modes: a PeakInfer token
// (Bearer, costs credits) or a bring-your-own Anthropic key (free).
type Client struct {
	baseURL      string
	token        string
	anthropicKey string
	httpClient   *http.Client
}

// ClientOption customizes an API client.
type ClientOption func(*Client)

// WithBaseURL overrides the analysis endpoint.
func WithBaseURL(url string) ClientOption {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(url, "/") }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = h }
}

// NewClient creates an analysis API client. Either token or anthropicKey
// may be empty, but not both.
func NewClient(token, anthropicKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:      defaultAPIURL,
		token:        token,
		anthropicKey: anthropicKey,
		httpClient:   &http.Client{Timeout: 180 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether any auth credential is present.
func (c *Client) Configured() bool {
	return c.token != "" || c.anthropicKey != ""
}

type analyzeRequest struct {
	Files           []File  `json:"files"`
	Options         Options `json:"options"`
	EstimatedTokens int     `json:"estimated_tokens,omitempty"`
}

// Analyze submits files for analysis and decodes the structured result.
func (c *Client) Analyze(ctx context.Context, files []File, opts Options) (*Result, error) {
	if !c.Configured() {
		return nil, &APIError{Code: "ERR_MISSING_API_KEY", Message: "no PeakInfer token or Anthropic key configured"}
	}

	body, err := json.Marshal(analyzeRequest{
		Files:           files,
		Options:         opts,
		EstimatedTokens: EstimateTokens(files),
	})
	if err != nil {
		return nil, fmt.Errorf("encode analyze request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build analyze request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	} else {
		req.Header.Set("X-Anthropic-Api-Key", c.anthropicKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &APIError{Code: "ERR_NETWORK", Message: err.Error()}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{Code: "ERR_NETWORK", StatusCode: resp.StatusCode, Message: fmt.Sprintf("read response: %v", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		apiErr.Code = gjson.GetBytes(payload, "error_code").String()
		if apiErr.Code == "" {
			if resp.StatusCode == http.StatusTooManyRequests {
				apiErr.Code = "ERR_RATE_LIMITED"
			} else {
				apiErr.Code = "ERR_INTERNAL"
			}
		}
		apiErr.Message = gjson.GetBytes(payload, "error").String()
		if apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(payload))
		}
		return nil, apiErr
	}

	var result Result
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("decode analyze response: %w", err)
	}
	return &result, nil
}
