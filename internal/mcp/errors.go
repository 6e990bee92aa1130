package mcp

import (
	"fmt"
	"strings"
)

// Tool error codes returned inside tool results. Unlike JSON-RPC errors,
// these reach the model as text it can act on.
const (
	errUnknownTool   = "ERR_UNKNOWN_TOOL"
	errMissingAPIKey = "ERR_MISSING_API_KEY"
	errNetwork       = "ERR_NETWORK"
	errRateLimited   = "ERR_RATE_LIMITED"
	errNotFound      = "ERR_NOT_FOUND"
	errInvalidInput  = "ERR_INVALID_INPUT"
	errFileError     = "ERR_FILE_ERROR"
	errInternal      = "ERR_INTERNAL"
)

// toolError carries a code, message and an actionable suggestion.
type toolError struct {
	Code       string
	Message    string
	Suggestion string
}

// formatToolError renders a toolError as an error-flagged tool result.
func formatToolError(e toolError) *ToolResult {
	lines := []string{fmt.Sprintf("Error [%s]: %s", e.Code, e.Message)}
	if e.Suggestion != "" {
		lines = append(lines, "Suggestion: "+e.Suggestion)
	}
	return &ToolResult{
		Content: []Content{{Type: "text", Text: strings.Join(lines, "\n")}},
		IsError: true,
	}
}

// classifyError maps an arbitrary error onto the tool error taxonomy
// by inspecting the message text.
func classifyError(err error) toolError {
	if err == nil {
		return toolError{Code: errInternal, Message: "An unexpected error occurred"}
	}
	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "network"),
		strings.Contains(msg, "no such host"),
		strings.Contains(msg, "timeout"):
		return toolError{
			Code:       errNetwork,
			Message:    err.Error(),
			Suggestion: "Check your network connection and try again.",
		}
	case strings.Contains(msg, "rate limit"),
		strings.Contains(msg, "429"),
		strings.Contains(msg, "too many requests"):
		return toolError{
			Code:       errRateLimited,
			Message:    err.Error(),
			Suggestion: "Wait a moment and try again, or reduce request frequency.",
		}
	case strings.Contains(msg, "no such file"),
		strings.Contains(msg, "not found"),
		strings.Contains(msg, "does not exist"):
		return toolError{
			Code:       errFileError,
			Message:    err.Error(),
			Suggestion: "Check that the file path is correct and the file exists.",
		}
	case strings.Contains(msg, "invalid"),
		strings.Contains(msg, "required"):
		return toolError{
			Code:       errInvalidInput,
			Message:    err.Error(),
			Suggestion: "Check the input parameters and try again.",
		}
	}

	return toolError{Code: errInternal, Message: err.Error()}
}
