package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	"github.com/peakinfer/peakinfer-mcp/internal/analyzer"
	"github.com/peakinfer/peakinfer-mcp/internal/connectors"
	"github.com/peakinfer/peakinfer-mcp/internal/history"
)

const (
	defaultDays  = 7
	defaultLimit = 1000
	eventPreview = 10
)

// toolDefinition describes one tool for tools/list.
type toolDefinition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func prop(typ, desc string) map[string]interface{} {
	return map[string]interface{}{"type": typ, "description": desc}
}

var toolDefinitions = []toolDefinition{
	{
		Name:        "analyze",
		Description: "Analyze code for LLM inference issues using PeakInfer engine. Returns detailed report on latency, cost, throughput, and reliability with actionable fixes.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"path": prop("string", "Path to the code directory or file to analyze"),
				"files": map[string]interface{}{
					"type":        "array",
					"description": "Pre-read files array [{path, content}]. If provided, skips reading from disk.",
					"items": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"path":    prop("string", ""),
							"content": prop("string", ""),
						},
						"required": []string{"path", "content"},
					},
				},
				"fixes":     prop("boolean", "Include code fix suggestions (default: true)"),
				"benchmark": prop("boolean", "Include benchmark comparisons (default: true)"),
			},
			"required": []string{},
		},
	},
	{
		Name:        "get_helicone_events",
		Description: "Fetch LLM runtime events from Helicone for drift detection analysis",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"api_key": prop("string", "Helicone API key (or set HELICONE_API_KEY env var)"),
				"days":    prop("number", "Number of days of data to fetch (default: 7)"),
				"limit":   prop("number", "Maximum number of events to fetch (default: 1000)"),
			},
			"required": []string{},
		},
	},
	{
		Name:        "get_langsmith_traces",
		Description: "Fetch LLM traces from LangSmith for runtime analysis",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"api_key": prop("string", "LangSmith API key (or set LANGSMITH_API_KEY env var)"),
				"days":    prop("number", "Number of days of data to fetch (default: 7)"),
				"limit":   prop("number", "Maximum number of traces to fetch (default: 1000)"),
			},
			"required": []string{},
		},
	},
	{
		Name:        "get_langfuse_generations",
		Description: "Fetch LLM generation observations from Langfuse for runtime analysis",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"public_key": prop("string", "Langfuse public key (or set LANGFUSE_PUBLIC_KEY env var)"),
				"secret_key": prop("string", "Langfuse secret key (or set LANGFUSE_SECRET_KEY env var)"),
				"days":       prop("number", "Number of days of data to fetch (default: 7)"),
				"limit":      prop("number", "Maximum number of generations to fetch (default: 1000)"),
			},
			"required": []string{},
		},
	},
	{
		Name:        "get_inferencemax_benchmark",
		Description: "Get InferenceMAX benchmark data for a specific model to compare performance",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"model":     prop("string", "Model name (e.g., gpt-4o, claude-3-5-sonnet, llama-3.1-70b)"),
				"framework": prop("string", "Framework: api, vllm, tgi, sglang (default: api)"),
				"hardware":  prop("string", "Hardware: api, h100, a100 (default: api)"),
			},
			"required": []string{"model"},
		},
	},
	{
		Name:        "compare_to_baseline",
		Description: "Compare current analysis results to a historical baseline",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"current_analysis": prop("object", "Current analysis results (InferenceMap format)"),
				"baseline_path":    prop("string", "Path to baseline JSON file"),
			},
			"required": []string{"current_analysis"},
		},
	},
	{
		Name:        "list_templates",
		Description: "List available PeakInfer optimization templates",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"category": prop("string", "Filter by category: insights, optimizations, all (default: all)"),
			},
			"required": []string{},
		},
	},
	{
		Name:        "get_template",
		Description: "Get details of a specific optimization template",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"name": prop("string", "Template name (e.g., overpowered-model, streaming-drift)"),
			},
			"required": []string{"name"},
		},
	},
	{
		Name:        "save_analysis",
		Description: "Save analysis results to PeakInfer history",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"analysis": prop("object", "Analysis results to save (InferenceMap format)"),
				"path":     prop("string", "Path to save results (default: .peakinfer/runs/)"),
			},
			"required": []string{"analysis"},
		},
	},
}

type toolCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall parses tool parameters and dispatches to the handler.
func (s *Server) handleToolsCall(ctx context.Context, req *Request) *Response {
	var params toolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
	}

	args := gjson.ParseBytes(params.Arguments)
	result := s.callTool(ctx, params.Name, args)
	s.metrics.RecordToolCall(!result.IsError)

	log.Debug().
		Str("tool", params.Name).
		Bool("error", result.IsError).
		Msg("tool call")

	return resultResponse(req.ID, result)
}

func (s *Server) callTool(ctx context.Context, name string, args gjson.Result) *ToolResult {
	switch name {
	case "analyze":
		return s.toolAnalyze(ctx, args)
	case "get_helicone_events":
		return s.toolFetchEvents(ctx, connectors.SourceHelicone, args)
	case "get_langsmith_traces":
		return s.toolFetchEvents(ctx, connectors.SourceLangSmith, args)
	case "get_langfuse_generations":
		return s.toolFetchEvents(ctx, connectors.SourceLangfuse, args)
	case "get_inferencemax_benchmark":
		return s.toolGetBenchmark(args)
	case "compare_to_baseline":
		return s.toolCompareToBaseline(ctx, args)
	case "list_templates":
		return s.toolListTemplates(args)
	case "get_template":
		return s.toolGetTemplate(args)
	case "save_analysis":
		return s.toolSaveAnalysis(ctx, args)
	default:
		return formatToolError(toolError{
			Code:    errUnknownTool,
			Message: fmt.Sprintf("Unknown tool: %s", name),
			Suggestion: "Available tools: analyze, get_helicone_events, get_langsmith_traces, " +
				"get_langfuse_generations, get_inferencemax_benchmark, compare_to_baseline, " +
				"list_templates, get_template, save_analysis",
		})
	}
}

// toolAnalyze runs the analysis pipeline: local CLI first, hosted API as
// fallback, setup instructions when neither is available.
func (s *Server) toolAnalyze(ctx context.Context, args gjson.Result) *ToolResult {
	path := args.Get("path").String()
	opts := analyzer.Options{Fixes: true, Benchmark: true}
	if v := args.Get("fixes"); v.Exists() {
		opts.Fixes = v.Bool()
	}
	if v := args.Get("benchmark"); v.Exists() {
		opts.Benchmark = v.Bool()
	}

	var files []analyzer.File
	if preRead := args.Get("files"); preRead.IsArray() && len(preRead.Array()) > 0 {
		for _, f := range preRead.Array() {
			files = append(files, analyzer.File{
				Path:    f.Get("path").String(),
				Content: f.Get("content").String(),
			})
		}
	} else if path != "" {
		collected, err := analyzer.CollectFiles(path)
		if err != nil {
			return formatToolError(toolError{
				Code:       errFileError,
				Message:    err.Error(),
				Suggestion: "Check that the path exists and contains code files (.py, .ts, .js, etc.)",
			})
		}
		files = collected
	} else {
		return formatToolError(toolError{
			Code:       errInvalidInput,
			Message:    "Either path or files must be provided",
			Suggestion: "Provide a path to a code directory or file, or pass pre-read files.",
		})
	}

	if path != "" {
		result, err := s.cli.Analyze(ctx, path, opts)
		if err != nil {
			log.Warn().Err(err).Msg("analyzer CLI failed, falling back to API")
		} else if result != nil {
			return jsonResult(result)
		}
	}

	if s.api.Configured() {
		result, err := s.api.Analyze(ctx, files, opts)
		if err == nil {
			return jsonResult(result)
		}
		log.Warn().Err(err).Msg("analyzer API failed")
	}

	setup := []string{
		"PeakInfer CLI not found and no API token configured.",
		"",
		"Option 1: Install the PeakInfer CLI (recommended, free)",
		"",
		"Option 2: Set PEAKINFER_TOKEN for cloud analysis",
		"",
		"Option 3: Use BYOK mode by setting ANTHROPIC_API_KEY.",
		"",
		fmt.Sprintf("Files found: %d code files ready for analysis.", len(files)),
	}
	return textResult(strings.Join(setup, "\n"))
}

// toolFetchEvents fetches and normalizes runtime data from one source.
// Credential arguments override the configured connector.
func (s *Server) toolFetchEvents(ctx context.Context, source connectors.Source, args gjson.Result) *ToolResult {
	conn, terr := s.sourceConnector(source, args)
	if terr != nil {
		return formatToolError(*terr)
	}

	days := defaultDays
	if v := args.Get("days"); v.Exists() && v.Int() > 0 {
		days = int(v.Int())
	}
	limit := defaultLimit
	if v := args.Get("limit"); v.Exists() && v.Int() > 0 {
		limit = int(v.Int())
	}

	q := connectors.Query{
		Limit:     limit,
		StartDate: time.Now().UTC().AddDate(0, 0, -days).Format(time.RFC3339),
	}

	result, err := conn.Fetch(ctx, q)
	if err != nil {
		return formatToolError(classifyError(err))
	}
	s.metrics.RecordFetch(len(result.Events), result.Metadata.Skipped)

	preview := result.Events
	if len(preview) > eventPreview {
		preview = preview[:eventPreview]
	}
	return jsonResult(map[string]interface{}{
		"events_count": len(result.Events),
		"summary":      result.Summary,
		"metadata":     result.Metadata,
		"events":       preview,
	})
}

// sourceConnector returns the connector to use for a fetch tool, building
// a one-off instance when the call supplies its own credentials.
func (s *Server) sourceConnector(source connectors.Source, args gjson.Result) (connectors.Connector, *toolError) {
	switch source {
	case connectors.SourceHelicone:
		if key := args.Get("api_key").String(); key != "" {
			return connectors.NewHelicone(key), nil
		}
		if s.cfg.Sources.Helicone.APIKey == "" {
			return nil, &toolError{
				Code:       errMissingAPIKey,
				Message:    "Helicone API key required",
				Suggestion: "Provide via api_key argument or HELICONE_API_KEY env var.",
			}
		}
	case connectors.SourceLangSmith:
		if key := args.Get("api_key").String(); key != "" {
			return connectors.NewLangSmith(key), nil
		}
		if s.cfg.Sources.LangSmith.APIKey == "" {
			return nil, &toolError{
				Code:       errMissingAPIKey,
				Message:    "LangSmith API key required",
				Suggestion: "Provide via api_key argument or LANGSMITH_API_KEY env var.",
			}
		}
	case connectors.SourceLangfuse:
		pub, sec := args.Get("public_key").String(), args.Get("secret_key").String()
		if pub != "" && sec != "" {
			return connectors.NewLangfuse(pub, sec), nil
		}
		if s.cfg.Sources.Langfuse.SecretKey == "" {
			return nil, &toolError{
				Code:       errMissingAPIKey,
				Message:    "Langfuse keys required",
				Suggestion: "Provide public_key and secret_key arguments or set LANGFUSE_PUBLIC_KEY and LANGFUSE_SECRET_KEY.",
			}
		}
	}
	return s.registry.Get(string(source)), nil
}

func (s *Server) toolGetBenchmark(args gjson.Result) *ToolResult {
	model := args.Get("model").String()
	if model == "" {
		return formatToolError(toolError{
			Code:       errInvalidInput,
			Message:    "model is required",
			Suggestion: "Provide a model name such as gpt-4o or claude-3-5-sonnet.",
		})
	}
	framework := args.Get("framework").String()
	hardware := args.Get("hardware").String()

	entry, err := s.benchmarks.Get(model, framework, hardware)
	if err != nil {
		return formatToolError(classifyError(err))
	}
	s.metrics.RecordBenchmarkLookup(entry != nil)
	if entry == nil {
		return textResult(fmt.Sprintf(
			"No benchmark data found for model: %s. Available models include: "+
				"gpt-4o, gpt-4o-mini, claude-3-5-sonnet, claude-3-5-haiku, "+
				"gemini-2.0-flash, llama-3.1-70b, mistral-large", model))
	}
	return jsonResult(entry)
}

func (s *Server) toolCompareToBaseline(ctx context.Context, args gjson.Result) *ToolResult {
	current := args.Get("current_analysis")
	if !current.Exists() {
		return formatToolError(toolError{
			Code:       errInvalidInput,
			Message:    "current_analysis is required",
			Suggestion: "Pass the current analysis in InferenceMap format.",
		})
	}

	var baseline []byte
	if baselinePath := args.Get("baseline_path").String(); baselinePath != "" {
		data, err := os.ReadFile(baselinePath)
		if err != nil {
			return formatToolError(toolError{
				Code:       errFileError,
				Message:    fmt.Sprintf("Baseline file not found: %s", baselinePath),
				Suggestion: "Check that the baseline path is correct.",
			})
		}
		baseline = data
	} else if s.history != nil {
		run, err := s.history.LatestRun(ctx)
		if err == nil && run != nil {
			baseline = []byte(run.Payload)
		}
	}

	delta := history.CompareToBaseline([]byte(current.Raw), baseline)
	return jsonResult(delta)
}

func (s *Server) toolListTemplates(args gjson.Result) *ToolResult {
	category := args.Get("category").String()
	list := s.catalog.List(category)
	return jsonResult(map[string]interface{}{
		"templates": list,
		"count":     len(list),
	})
}

func (s *Server) toolGetTemplate(args gjson.Result) *ToolResult {
	name := args.Get("name").String()
	if name == "" {
		return formatToolError(toolError{
			Code:       errInvalidInput,
			Message:    "name is required",
			Suggestion: "Provide a template name from list_templates.",
		})
	}
	content, err := s.catalog.Get(name)
	if err != nil {
		return formatToolError(toolError{
			Code:       errNotFound,
			Message:    fmt.Sprintf("Template not found: %s", name),
			Suggestion: "Use list_templates to see available templates.",
		})
	}
	return textResult(content)
}

func (s *Server) toolSaveAnalysis(ctx context.Context, args gjson.Result) *ToolResult {
	analysis := args.Get("analysis")
	if !analysis.Exists() {
		return formatToolError(toolError{
			Code:       errInvalidInput,
			Message:    "analysis is required",
			Suggestion: "Pass the analysis results in InferenceMap format.",
		})
	}
	payload := []byte(analysis.Raw)

	dir := args.Get("path").String()
	if dir == "" {
		dir = s.cfg.History.Dir + "/runs"
	}
	path, err := history.WriteRunFile(dir, payload)
	if err != nil {
		return formatToolError(classifyError(err))
	}

	if s.history != nil {
		root := gjson.GetBytes(payload, "root").String()
		if _, err := s.history.SaveRun(ctx, root, payload); err != nil {
			log.Warn().Err(err).Msg("failed to record run in history store")
		}
	}

	return textResult("Analysis saved to: " + path)
}
