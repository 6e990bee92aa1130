// Package main is the entry point for the PeakInfer MCP server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/peakinfer/peakinfer-mcp/internal/config"
	"github.com/peakinfer/peakinfer-mcp/internal/mcp"
	"github.com/peakinfer/peakinfer-mcp/internal/monitoring"
)

// loadEnvFiles loads .env from standard locations.
func loadEnvFiles() {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		_ = godotenv.Load()
		return
	}

	configEnv := filepath.Join(homeDir, ".config", "peakinfer", ".env")
	if _, err := os.Stat(configEnv); err == nil {
		_ = godotenv.Load(configEnv)
	}

	// Local .env can override
	_ = godotenv.Load()
}

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "serve", "stdio":
			runServe(os.Args[2:])
			return
		case "http":
			runHTTP(os.Args[2:])
			return
		case "version", "-v", "--version":
			printVersion()
			return
		case "help", "-h", "--help":
			printHelp()
			return
		}
	}

	// Default: stdio transport, the mode MCP clients spawn.
	runServe(os.Args[1:])
}

// runServe starts the stdio transport.
func runServe(args []string) {
	loadEnvFiles()

	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(args)

	cfg := mustLoadConfig(*configPath, *debug)
	// stdout carries protocol frames, so logs must stay on stderr.
	cfg.Monitoring.Output = "stderr"
	monitoring.Global(cfg.Monitoring)

	server, err := mcp.NewServer(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start server")
	}
	defer server.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().Str("version", version).Msg("PeakInfer MCP server started")

	if err := server.ServeStdio(ctx); err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("stdio transport error")
	}

	log.Info().Msg("PeakInfer MCP server stopped")
}

// runHTTP starts the HTTP and WebSocket transports.
func runHTTP(args []string) {
	loadEnvFiles()

	fs := flag.NewFlagSet("http", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	port := fs.Int("port", 0, "override listen port")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(args)

	cfg := mustLoadConfig(*configPath, *debug)
	if *port > 0 {
		cfg.Server.Port = *port
	}
	monitoring.Global(cfg.Monitoring)

	server, err := mcp.NewServer(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start server")
	}
	defer server.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().
		Str("version", version).
		Int("port", cfg.Server.Port).
		Msg("PeakInfer MCP server starting")

	if err := server.ListenAndServe(ctx); err != nil {
		log.Fatal().Err(err).Msg("HTTP transport error")
	}

	log.Info().Msg("PeakInfer MCP server stopped")
}

func mustLoadConfig(path string, debug bool) *config.Config {
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if debug {
		cfg.Monitoring.Level = "debug"
	}
	return cfg
}

func printHelp() {
	fmt.Println("PeakInfer MCP server - LLM inference analysis over the Model Context Protocol")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  peakinfer-mcp [command] [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  (none), serve   Serve MCP over stdio (default, for MCP clients)")
	fmt.Println("  http            Serve MCP over HTTP and WebSocket")
	fmt.Println("  version         Print version information")
	fmt.Println("  help            Show this help message")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --config FILE   Path to YAML config (optional, env vars work without it)")
	fmt.Println("  --debug         Enable debug logging")
	fmt.Println("  --port PORT     Listen port for the http command")
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Println("  HELICONE_API_KEY, LANGSMITH_API_KEY,")
	fmt.Println("  LANGFUSE_PUBLIC_KEY, LANGFUSE_SECRET_KEY,")
	fmt.Println("  PEAKINFER_TOKEN, ANTHROPIC_API_KEY")
}
