package mcp

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/peakinfer/peakinfer-mcp/internal/analyzer"
	"github.com/peakinfer/peakinfer-mcp/internal/benchmarks"
	"github.com/peakinfer/peakinfer-mcp/internal/config"
	"github.com/peakinfer/peakinfer-mcp/internal/connectors"
	"github.com/peakinfer/peakinfer-mcp/internal/history"
	"github.com/peakinfer/peakinfer-mcp/internal/monitoring"
	"github.com/peakinfer/peakinfer-mcp/internal/templates"
)

// Server dispatches MCP JSON-RPC requests to the analysis components.
type Server struct {
	cfg        *config.Config
	registry   *connectors.Registry
	benchmarks *benchmarks.Store
	cli        *analyzer.CLI
	api        *analyzer.Client
	history    *history.Store
	catalog    *templates.Catalog
	metrics    *monitoring.MetricsCollector
}

// NewServer wires a Server from configuration. Sources without credentials
// are still registered so their tools can accept a key argument at call time.
func NewServer(cfg *config.Config) (*Server, error) {
	registry := connectors.NewRegistry()

	var heliconeOpts []connectors.HeliconeOption
	if cfg.Sources.Helicone.BaseURL != "" {
		heliconeOpts = append(heliconeOpts, connectors.WithHeliconeBaseURL(cfg.Sources.Helicone.BaseURL))
	}
	registry.Register(connectors.NewHelicone(cfg.Sources.Helicone.APIKey, heliconeOpts...))

	var langsmithOpts []connectors.LangSmithOption
	if cfg.Sources.LangSmith.BaseURL != "" {
		langsmithOpts = append(langsmithOpts, connectors.WithLangSmithBaseURL(cfg.Sources.LangSmith.BaseURL))
	}
	registry.Register(connectors.NewLangSmith(cfg.Sources.LangSmith.APIKey, langsmithOpts...))

	var langfuseOpts []connectors.LangfuseOption
	if cfg.Sources.Langfuse.BaseURL != "" {
		langfuseOpts = append(langfuseOpts, connectors.WithLangfuseBaseURL(cfg.Sources.Langfuse.BaseURL))
	}
	registry.Register(connectors.NewLangfuse(cfg.Sources.Langfuse.PublicKey, cfg.Sources.Langfuse.SecretKey, langfuseOpts...))

	store := benchmarks.NewStore()
	if cfg.Benchmarks.Path != "" {
		store = benchmarks.NewStoreFromFile(cfg.Benchmarks.Path)
	}

	var apiOpts []analyzer.ClientOption
	if cfg.Analyzer.APIBaseURL != "" {
		apiOpts = append(apiOpts, analyzer.WithBaseURL(cfg.Analyzer.APIBaseURL))
	}

	var hist *history.Store
	if cfg.History.DBPath != "" {
		h, err := history.Open(cfg.History.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open history store: %w", err)
		}
		hist = h
	}

	return &Server{
		cfg:        cfg,
		registry:   registry,
		benchmarks: store,
		cli:        &analyzer.CLI{Binary: cfg.Analyzer.CLIBinary},
		api:        analyzer.NewClient(cfg.Analyzer.APIToken, cfg.Analyzer.AnthropicAPIKey, apiOpts...),
		history:    hist,
		catalog:    templates.NewCatalog(cfg.Templates.Dir),
		metrics:    monitoring.NewMetricsCollector(),
	}, nil
}

// Close releases server resources.
func (s *Server) Close() error {
	if s.history != nil {
		return s.history.Close()
	}
	return nil
}

// Stats returns the server's operational counters.
func (s *Server) Stats() map[string]int64 {
	return s.metrics.Stats()
}

// Handle processes one JSON-RPC request. A nil response means the request
// was a notification and no reply should be sent.
func (s *Server) Handle(ctx context.Context, req *Request) *Response {
	switch req.Method {

	case "initialize":
		return s.handleInitialize(req)

	case "ping":
		return resultResponse(req.ID, map[string]string{"status": "pong"})

	case "tools/list":
		return resultResponse(req.ID, map[string]interface{}{"tools": toolDefinitions})

	case "tools/call":
		return s.handleToolsCall(ctx, req)

	case "resources/list":
		return resultResponse(req.ID, map[string]interface{}{"resources": resourceDefinitions})

	case "resources/read":
		return s.handleResourceRead(req)

	case "prompts/list":
		return resultResponse(req.ID, map[string]interface{}{"prompts": promptDefinitions})

	case "prompts/get":
		return s.handlePromptGet(req)

	case "notifications/initialized":
		log.Debug().Msg("MCP client initialized")
		return nil

	case "notifications/cancelled":
		return nil

	default:
		return errorResponse(req.ID, codeMethodNotFound, "Method not found",
			fmt.Sprintf("Method '%s' is not supported", req.Method))
	}
}

// handleInitialize responds to the MCP initialize handshake.
func (s *Server) handleInitialize(req *Request) *Response {
	return resultResponse(req.ID, map[string]interface{}{
		"protocolVersion": protocolVersion,
		"capabilities": map[string]interface{}{
			"tools":     map[string]interface{}{},
			"resources": map[string]interface{}{},
			"prompts":   map[string]interface{}{},
		},
		"serverInfo": map[string]string{
			"name":    serverName,
			"version": serverVersion,
		},
	})
}
