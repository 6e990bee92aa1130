package mcp

import (
	"encoding/json"
	"fmt"
)

// promptArgument describes one prompt parameter for prompts/list.
type promptArgument struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

// promptDefinition describes one prompt for prompts/list.
type promptDefinition struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Arguments   []promptArgument `json:"arguments"`
}

var promptDefinitions = []promptDefinition{
	{
		Name:        "analyze-inference",
		Description: "Analyze LLM inference patterns in a codebase",
		Arguments: []promptArgument{
			{Name: "target", Description: "Directory or file to analyze", Required: true},
			{Name: "focus", Description: "Focus area: cost, latency, reliability, or all (default: all)"},
		},
	},
	{
		Name:        "optimize-costs",
		Description: "Get recommendations for reducing LLM inference costs",
		Arguments: []promptArgument{
			{Name: "current_spend", Description: `Current monthly LLM spend (e.g., "$5000")`},
			{Name: "providers", Description: `LLM providers in use (e.g., "openai, anthropic")`},
		},
	},
	{
		Name:        "detect-drift",
		Description: "Detect drift between code patterns and runtime behavior",
		Arguments: []promptArgument{
			{Name: "runtime_source", Description: "Runtime data source: helicone, langsmith, langfuse", Required: true},
			{Name: "baseline_date", Description: "Compare to baseline from date (ISO format)"},
		},
	},
	{
		Name:        "benchmark-comparison",
		Description: "Compare your inference performance to InferenceMAX benchmarks",
		Arguments: []promptArgument{
			{Name: "model", Description: "Model to benchmark (e.g., gpt-4o, claude-3-5-sonnet)", Required: true},
			{Name: "your_p95_latency", Description: "Your P95 latency in ms"},
			{Name: "your_throughput", Description: "Your throughput in tokens/second"},
		},
	},
}

// promptMessage is one message in a prompts/get result.
type promptMessage struct {
	Role    string  `json:"role"`
	Content Content `json:"content"`
}

func userPrompt(text string) map[string]interface{} {
	return map[string]interface{}{
		"messages": []promptMessage{
			{Role: "user", Content: Content{Type: "text", Text: text}},
		},
	}
}

// handlePromptGet serves prompts/get.
func (s *Server) handlePromptGet(req *Request) *Response {
	var params struct {
		Name      string            `json:"name"`
		Arguments map[string]string `json:"arguments"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
	}
	args := params.Arguments
	if args == nil {
		args = map[string]string{}
	}

	var result map[string]interface{}
	switch params.Name {
	case "analyze-inference":
		result = analyzeInferencePrompt(args)
	case "optimize-costs":
		result = optimizeCostsPrompt(args)
	case "detect-drift":
		result = detectDriftPrompt(args)
	case "benchmark-comparison":
		result = benchmarkComparisonPrompt(args)
	default:
		result = userPrompt("Unknown prompt: " + params.Name)
	}
	return resultResponse(req.ID, result)
}

var focusInstructions = map[string]string{
	"cost": `Focus on cost optimization opportunities:
- Identify overpowered models (GPT-4 for simple tasks)
- Find missing caching opportunities
- Detect redundant API calls
- Suggest model downgrades where appropriate`,
	"latency": `Focus on latency optimization:
- Identify sequential calls that could be parallel
- Find missing streaming implementations
- Detect unnecessary round-trips
- Suggest batching opportunities`,
	"reliability": `Focus on reliability patterns:
- Identify missing retry logic
- Find missing fallback models
- Detect timeout configurations
- Suggest circuit breaker patterns`,
	"all": `Analyze all dimensions:
1. Cost: Model selection, caching, redundancy
2. Latency: Parallelization, streaming, batching
3. Reliability: Retries, fallbacks, timeouts
4. Throughput: Rate limits, queuing, scaling`,
}

func analyzeInferencePrompt(args map[string]string) map[string]interface{} {
	target := args["target"]
	if target == "" {
		target = "."
	}
	instructions, ok := focusInstructions[args["focus"]]
	if !ok {
		instructions = focusInstructions["all"]
	}

	return userPrompt(fmt.Sprintf(`Analyze the LLM inference patterns in: %s

%s

Use the PeakInfer MCP tools to:
1. Read the InferenceMap schema from peakinfer://schema/inference-map
2. Scan the codebase for inference callsites
3. Compare to InferenceMAX benchmarks using get_inferencemax_benchmark
4. Save your analysis using save_analysis

For each issue found, provide:
- File and line number
- Current pattern
- Recommended fix
- Estimated impact (cost/latency/reliability)

Output format: Generate an InferenceMap JSON following the schema.`, target, instructions))
}

func optimizeCostsPrompt(args map[string]string) map[string]interface{} {
	currentSpend := args["current_spend"]
	if currentSpend == "" {
		currentSpend = "unknown"
	}
	providers := args["providers"]
	if providers == "" {
		providers = "unknown"
	}

	return userPrompt(fmt.Sprintf(`Help me reduce my LLM inference costs.

Current situation:
- Monthly spend: %s
- Providers: %s

Please analyze my codebase and provide specific recommendations:

1. **Model Right-Sizing**
   - Find GPT-4/Claude calls that could use cheaper models
   - Use get_inferencemax_benchmark to compare model capabilities
   - Suggest specific model swaps with expected savings

2. **Caching Opportunities**
   - Identify repeated prompts with same/similar inputs
   - Suggest semantic caching implementations
   - Estimate cache hit rate potential

3. **Batching & Parallelization**
   - Find sequential calls that could be batched
   - Identify independent calls that could use batch APIs
   - Calculate potential throughput gains

4. **Provider Optimization**
   - Compare pricing across providers for each use case
   - Suggest provider switches where cost-effective
   - Consider self-hosted options for high-volume cases

For each recommendation, provide:
- Current cost estimate
- Proposed change
- New cost estimate
- Implementation effort (low/medium/high)
- Risk level

Use the list_templates tool to find optimization templates.`, currentSpend, providers))
}

func detectDriftPrompt(args map[string]string) map[string]interface{} {
	runtimeSource := args["runtime_source"]

	baselineInstructions := "Compare to latest baseline in .peakinfer/runs/ if available"
	if d := args["baseline_date"]; d != "" {
		baselineInstructions = "Compare to baseline from: " + d
	}

	return userPrompt(fmt.Sprintf(`Detect drift between code patterns and runtime behavior.

Runtime source: %s
%s

Use the PeakInfer MCP tools:
1. Fetch runtime data using get_%s_events or get_%s_traces
2. Analyze code patterns in the codebase
3. Compare using compare_to_baseline
4. Get benchmark data using get_inferencemax_benchmark

Look for these drift patterns:

**Model Drift**
- Code specifies model X, runtime shows model Y
- Version mismatches (gpt-4-0125 vs gpt-4-1106)
- Provider switches not reflected in code

**Performance Drift**
- P95 latency increased vs baseline
- Throughput decreased
- Error rate changes

**Usage Drift**
- Token consumption changes
- Request volume anomalies
- Cost per request increases

**Pattern Drift**
- Streaming enabled in code but not used
- Retry logic present but never triggered
- Caching configured but low hit rate

For each drift detected, provide:
- Drift type and severity
- Evidence from code vs runtime
- Recommended action
- Impact if unaddressed`, runtimeSource, baselineInstructions, runtimeSource, runtimeSource))
}

func benchmarkComparisonPrompt(args map[string]string) map[string]interface{} {
	model := args["model"]
	yourP95 := args["your_p95_latency"]
	yourThroughput := args["your_throughput"]

	metricsSection := "No metrics provided - will fetch from runtime source if available."
	if yourP95 != "" || yourThroughput != "" {
		if yourP95 == "" {
			yourP95 = "not provided"
		}
		if yourThroughput == "" {
			yourThroughput = "not provided"
		}
		metricsSection = fmt.Sprintf(`Your reported metrics:
- P95 Latency: %s
- Throughput: %s`, yourP95, yourThroughput)
	}

	return userPrompt(fmt.Sprintf(`Compare inference performance to InferenceMAX benchmarks.

Model: %s
%s

Use the PeakInfer MCP tools:
1. Get benchmark data: get_inferencemax_benchmark for %s
2. Read benchmark summary: peakinfer://benchmarks/summary
3. If runtime source configured, fetch actual metrics

Analysis to perform:

**Latency Analysis**
- Compare your P50/P95/P99 to benchmark
- Identify if you're above/below optimal
- Calculate gap percentage

**Throughput Analysis**
- Compare tokens/second to benchmark
- Identify bottlenecks if below benchmark
- Suggest optimizations

**Cost Efficiency**
- Calculate cost per 1K tokens
- Compare to benchmark pricing
- Identify savings opportunities

**Recommendations**
Based on the gap analysis:
- If latency > benchmark: Check network, streaming, batching
- If throughput < benchmark: Check parallelization, rate limits
- If cost > benchmark: Check model selection, caching

Output a comparison table:
| Metric | Your Value | Benchmark | Gap | Status |
|--------|-----------|-----------|-----|--------|
| P95 Latency | ... | ... | ... | OK/WARN |
| Throughput | ... | ... | ... | OK/WARN |
| Cost/1K | ... | ... | ... | OK/WARN |`, model, metricsSection, model))
}
