// Package config loads and validates the server configuration.
//
// DESIGN: Configuration comes from a YAML file with ${VAR:-default} env
// expansion, so API keys stay out of config files. Unlike a long-running
// gateway deployment, the server must also run with zero configuration
// (stdio under an MCP client), so Default() provides a working baseline
// and Load() falls back to it when no path is given.
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/peakinfer/peakinfer-mcp/internal/monitoring"
)

// Config is the root configuration for the PeakInfer MCP server.
type Config struct {
	Server     ServerConfig            `yaml:"server"`     // HTTP/WS transport settings
	Sources    SourcesConfig           `yaml:"sources"`    // Observability source credentials
	Analyzer   AnalyzerConfig          `yaml:"analyzer"`   // CLI and hosted API analysis
	Benchmarks BenchmarksConfig        `yaml:"benchmarks"` // Benchmark table override
	Templates  TemplatesConfig         `yaml:"templates"`  // Template catalog location
	History    HistoryConfig           `yaml:"history"`    // Analysis run persistence
	Monitoring monitoring.LoggerConfig `yaml:"monitoring"` // Logging settings
}

// ServerConfig contains HTTP server settings for the http transport.
type ServerConfig struct {
	Port         int           `yaml:"port"`          // Port to listen on
	ReadTimeout  time.Duration `yaml:"read_timeout"`  // Max time to read request
	WriteTimeout time.Duration `yaml:"write_timeout"` // Max time to write response
}

// SourcesConfig contains per-source credentials and endpoints.
type SourcesConfig struct {
	Helicone  HeliconeConfig  `yaml:"helicone"`
	LangSmith LangSmithConfig `yaml:"langsmith"`
	Langfuse  LangfuseConfig  `yaml:"langfuse"`
}

// HeliconeConfig configures the Helicone source.
type HeliconeConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// LangSmithConfig configures the LangSmith source.
type LangSmithConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// LangfuseConfig configures the Langfuse source.
type LangfuseConfig struct {
	PublicKey string `yaml:"public_key"`
	SecretKey string `yaml:"secret_key"`
	BaseURL   string `yaml:"base_url"`
}

// AnalyzerConfig configures local CLI and hosted API analysis.
type AnalyzerConfig struct {
	CLIBinary       string `yaml:"cli_binary"`        // Local analyzer binary name
	APIBaseURL      string `yaml:"api_base_url"`      // Hosted analysis endpoint
	APIToken        string `yaml:"api_token"`         // Platform token
	AnthropicAPIKey string `yaml:"anthropic_api_key"` // BYOK fallback credential
}

// BenchmarksConfig points at an alternative benchmark table.
type BenchmarksConfig struct {
	Path string `yaml:"path"` // Empty means the embedded table
}

// TemplatesConfig points at the analysis template catalog.
type TemplatesConfig struct {
	Dir string `yaml:"dir"`
}

// HistoryConfig configures analysis run persistence.
type HistoryConfig struct {
	DBPath string `yaml:"db_path"` // SQLite file, empty disables history
	Dir    string `yaml:"dir"`     // Directory for analysis JSON files
}

// expandEnvWithDefaults expands environment variables with support for default values.
// Supports both ${VAR} and ${VAR:-default} syntax.
func expandEnvWithDefaults(s string) string {
	re := regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		parts := re.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		varName := parts[1]
		defaultValue := ""
		if len(parts) > 2 {
			defaultValue = parts[2]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}

		return defaultValue
	})
}

// Default returns the configuration used when no config file is given.
// Credentials come straight from the environment.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8486,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 120 * time.Second,
		},
		Sources: SourcesConfig{
			Helicone:  HeliconeConfig{APIKey: os.Getenv("HELICONE_API_KEY")},
			LangSmith: LangSmithConfig{APIKey: os.Getenv("LANGSMITH_API_KEY")},
			Langfuse: LangfuseConfig{
				PublicKey: os.Getenv("LANGFUSE_PUBLIC_KEY"),
				SecretKey: os.Getenv("LANGFUSE_SECRET_KEY"),
			},
		},
		Analyzer: AnalyzerConfig{
			CLIBinary:       "peakinfer",
			APIToken:        os.Getenv("PEAKINFER_TOKEN"),
			AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		},
		Templates: TemplatesConfig{
			Dir: "templates",
		},
		History: HistoryConfig{
			Dir: ".peakinfer",
		},
		Monitoring: monitoring.LoggerConfig{
			Level:  "info",
			Format: "auto",
			Output: "stderr",
		},
	}
}

// Load reads configuration from a YAML file.
// An empty path returns Default().
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	return LoadFromBytes(data)
}

// LoadFromBytes parses configuration from raw YAML bytes.
// Supports ${VAR:-default} env var expansion and validation.
func LoadFromBytes(data []byte) (*Config, error) {
	expanded := expandEnvWithDefaults(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be positive")
	}

	if c.Sources.Langfuse.PublicKey != "" && c.Sources.Langfuse.SecretKey == "" {
		return fmt.Errorf("sources.langfuse.secret_key is required when public_key is set")
	}

	return nil
}
