// Package mcp implements the Model Context Protocol serving surface.
//
// The server speaks JSON-RPC 2.0 and exposes the analysis tooling to MCP
// clients (Claude Desktop, Claude Code, editors). It supports:
//   - Tool discovery and invocation (tools/list, tools/call)
//   - Resource reads (schemas, benchmark summaries, template index)
//   - Prompt retrieval (guided analysis workflows)
//   - stdio, HTTP and WebSocket transports
package mcp

import "encoding/json"

const (
	protocolVersion = "2024-11-05"
	serverName      = "peakinfer"
	serverVersion   = "1.0.0"
)

// Request is a JSON-RPC 2.0 request envelope.
type Request struct {
	Jsonrpc string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`
}

// Response is a JSON-RPC 2.0 response envelope.
type Response struct {
	Jsonrpc string          `json:"jsonrpc"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`
}

// RPCError is a JSON-RPC 2.0 error object.
type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// JSON-RPC 2.0 error codes.
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32603
)

// Content is one block of tool or prompt output.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ToolResult is the result payload of a tools/call.
type ToolResult struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError,omitempty"`
}

// textResult wraps plain text as a single-block tool result.
func textResult(text string) *ToolResult {
	return &ToolResult{Content: []Content{{Type: "text", Text: text}}}
}

// jsonResult marshals v with indentation as a single-block tool result.
func jsonResult(v interface{}) *ToolResult {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return &ToolResult{
			Content: []Content{{Type: "text", Text: "failed to encode result: " + err.Error()}},
			IsError: true,
		}
	}
	return textResult(string(b))
}

func errorResponse(id json.RawMessage, code int, message string, data interface{}) *Response {
	return &Response{
		Jsonrpc: "2.0",
		Error:   &RPCError{Code: code, Message: message, Data: data},
		ID:      id,
	}
}

func resultResponse(id json.RawMessage, result interface{}) *Response {
	return &Response{Jsonrpc: "2.0", Result: result, ID: id}
}
