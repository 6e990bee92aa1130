package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandEnvWithDefaults(t *testing.T) {
	t.Setenv("PEAKINFER_TEST_SET", "from-env")
	os.Unsetenv("PEAKINFER_TEST_UNSET")

	tests := []struct {
		in   string
		want string
	}{
		{"${PEAKINFER_TEST_SET}", "from-env"},
		{"${PEAKINFER_TEST_SET:-fallback}", "from-env"},
		{"${PEAKINFER_TEST_UNSET:-fallback}", "fallback"},
		{"${PEAKINFER_TEST_UNSET}", ""},
		{"port: ${PEAKINFER_TEST_UNSET:-8486}", "port: 8486"},
		{"no vars here", "no vars here"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, expandEnvWithDefaults(tc.in), tc.in)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 8486, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 120*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, "peakinfer", cfg.Analyzer.CLIBinary)
	assert.Equal(t, "templates", cfg.Templates.Dir)
	assert.Equal(t, ".peakinfer", cfg.History.Dir)
	assert.Equal(t, "info", cfg.Monitoring.Level)
	assert.Equal(t, "stderr", cfg.Monitoring.Output)
	assert.NoError(t, cfg.Validate())
}

func TestDefault_ReadsCredentialsFromEnv(t *testing.T) {
	t.Setenv("HELICONE_API_KEY", "sk-helicone")
	t.Setenv("LANGFUSE_PUBLIC_KEY", "pk-lf")
	t.Setenv("LANGFUSE_SECRET_KEY", "sk-lf")

	cfg := Default()
	assert.Equal(t, "sk-helicone", cfg.Sources.Helicone.APIKey)
	assert.Equal(t, "pk-lf", cfg.Sources.Langfuse.PublicKey)
	assert.Equal(t, "sk-lf", cfg.Sources.Langfuse.SecretKey)
}

func TestLoad_EmptyPathReturnsDefault(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8486, cfg.Server.Port)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/no/such/config.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadFromBytes_OverlaysDefaults(t *testing.T) {
	t.Setenv("PEAKINFER_TEST_KEY", "sk-live")

	cfg, err := LoadFromBytes([]byte(`
server:
  port: 9090
sources:
  helicone:
    api_key: ${PEAKINFER_TEST_KEY}
benchmarks:
  path: /data/benchmarks.json
`))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "sk-live", cfg.Sources.Helicone.APIKey)
	assert.Equal(t, "/data/benchmarks.json", cfg.Benchmarks.Path)
	// Untouched sections keep their defaults.
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "peakinfer", cfg.Analyzer.CLIBinary)
}

func TestLoadFromBytes_InvalidYAML(t *testing.T) {
	_, err := LoadFromBytes([]byte("server: [not a map"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 7000\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "invalid server.port"},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }, "invalid server.port"},
		{"zero read timeout", func(c *Config) { c.Server.ReadTimeout = 0 }, "read_timeout must be positive"},
		{"zero write timeout", func(c *Config) { c.Server.WriteTimeout = 0 }, "write_timeout must be positive"},
		{
			"langfuse public without secret",
			func(c *Config) {
				c.Sources.Langfuse.PublicKey = "pk-lf"
				c.Sources.Langfuse.SecretKey = ""
			},
			"secret_key is required",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
