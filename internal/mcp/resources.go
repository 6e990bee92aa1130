package mcp

import (
	"encoding/json"
)

// resourceDefinition describes one resource for resources/list.
type resourceDefinition struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description"`
	MimeType    string `json:"mimeType"`
}

const (
	resourceSchemaURI     = "peakinfer://schema/inference-map"
	resourceBenchmarksURI = "peakinfer://benchmarks/summary"
	resourceTemplatesURI  = "peakinfer://templates/index"
)

var resourceDefinitions = []resourceDefinition{
	{
		URI:         resourceSchemaURI,
		Name:        "InferenceMap Schema",
		Description: "JSON Schema for PeakInfer InferenceMap v0.1 format",
		MimeType:    "application/json",
	},
	{
		URI:         resourceBenchmarksURI,
		Name:        "InferenceMAX Benchmarks",
		Description: "Summary of available benchmark data for LLM models",
		MimeType:    "application/json",
	},
	{
		URI:         resourceTemplatesURI,
		Name:        "Template Catalog",
		Description: "Index of available PeakInfer optimization templates",
		MimeType:    "application/json",
	},
}

// resourceContent is one entry in a resources/read result.
type resourceContent struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType"`
	Text     string `json:"text"`
}

// inferenceMapSchema is the published InferenceMap v0.1 JSON Schema.
const inferenceMapSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "InferenceMap",
  "version": "0.1",
  "type": "object",
  "required": ["version", "root", "generatedAt", "summary", "callsites"],
  "properties": {
    "version": {"type": "string", "const": "0.1"},
    "root": {"type": "string", "description": "Root directory analyzed"},
    "generatedAt": {"type": "string", "format": "date-time"},
    "metadata": {
      "type": "object",
      "properties": {
        "absolutePath": {"type": "string"},
        "promptId": {"type": "string"},
        "promptVersion": {"type": "string"},
        "llmProvider": {"type": "string"},
        "llmModel": {"type": "string"}
      }
    },
    "summary": {
      "type": "object",
      "properties": {
        "totalCallsites": {"type": "number"},
        "providers": {"type": "array", "items": {"type": "string"}},
        "models": {"type": "array", "items": {"type": "string"}},
        "patterns": {"type": "object"}
      }
    },
    "callsites": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "file", "line"],
        "properties": {
          "id": {"type": "string"},
          "file": {"type": "string"},
          "line": {"type": "number"},
          "provider": {"type": "string"},
          "model": {"type": "string"},
          "framework": {"type": "string"},
          "patterns": {
            "type": "object",
            "properties": {
              "streaming": {"type": "boolean"},
              "batching": {"type": "boolean"},
              "retries": {"type": "boolean"},
              "caching": {"type": "boolean"},
              "fallback": {"type": "boolean"}
            }
          },
          "confidence": {"type": "number", "minimum": 0, "maximum": 1}
        }
      }
    }
  }
}`

// handleResourceRead serves resources/read for the known URIs.
func (s *Server) handleResourceRead(req *Request) *Response {
	var params struct {
		URI string `json:"uri"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
	}

	var content resourceContent
	switch params.URI {
	case resourceSchemaURI:
		content = resourceContent{
			URI:      params.URI,
			MimeType: "application/json",
			Text:     inferenceMapSchema,
		}
	case resourceBenchmarksURI:
		content = resourceContent{
			URI:      params.URI,
			MimeType: "application/json",
			Text:     s.benchmarksSummary(),
		}
	case resourceTemplatesURI:
		content = resourceContent{
			URI:      params.URI,
			MimeType: "application/json",
			Text:     s.templatesIndex(),
		}
	default:
		content = resourceContent{
			URI:      params.URI,
			MimeType: "text/plain",
			Text:     "Unknown resource: " + params.URI,
		}
	}

	return resultResponse(req.ID, map[string]interface{}{
		"contents": []resourceContent{content},
	})
}

// benchmarksSummary renders a compact view of the loaded benchmark table.
func (s *Server) benchmarksSummary() string {
	entries, err := s.benchmarks.List()
	if err != nil {
		return `{"error": "Failed to load benchmarks"}`
	}
	version, lastUpdated, _ := s.benchmarks.Version()

	type modelSummary struct {
		Model         string  `json:"model"`
		Provider      string  `json:"provider"`
		Framework     string  `json:"framework"`
		Hardware      string  `json:"hardware"`
		P95LatencyMs  float64 `json:"p95_latency_ms"`
		ThroughputTPS float64 `json:"throughput_tps"`
	}

	models := make([]modelSummary, 0, len(entries))
	for _, e := range entries {
		models = append(models, modelSummary{
			Model:         e.Model,
			Provider:      e.Provider,
			Framework:     e.Framework,
			Hardware:      e.Hardware,
			P95LatencyMs:  e.Metrics.P95LatencyMs,
			ThroughputTPS: e.Metrics.ThroughputTPS,
		})
	}

	summary := map[string]interface{}{
		"version":     version,
		"lastUpdated": lastUpdated,
		"totalModels": len(models),
		"models":      models,
	}
	b, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return `{"error": "Failed to load benchmarks"}`
	}
	return string(b)
}

// templatesIndex renders the template catalog with per-category counts.
func (s *Server) templatesIndex() string {
	list := s.catalog.List("all")

	counts := map[string]int{"insights": 0, "optimizations": 0}
	for _, t := range list {
		counts[t.Category]++
	}

	index := map[string]interface{}{
		"totalTemplates": len(list),
		"categories":     counts,
		"templates":      list,
	}
	b, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return `{"error": "Failed to load templates"}`
	}
	return string(b)
}
