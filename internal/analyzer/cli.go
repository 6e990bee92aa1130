package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"time"
)

const cliTimeout = 120 * time.Second

// CLI runs analyses through a locally installed peakinfer binary.
type CLI struct {
	// Binary is the executable name or path. Defaults to "peakinfer".
	Binary string
}

// Installed reports whether the binary is on PATH (or at the configured
// path). Detection only; nothing is executed.
func (c *CLI) Installed() bool {
	_, err := exec.LookPath(c.binary())
	return err == nil
}

// Analyze runs `peakinfer analyze <path> --output json` and decodes the
// result. Returns (nil, nil) when the binary is not installed so callers
// can fall back to the API.
func (c *CLI) Analyze(ctx context.Context, path string, opts Options) (*Result, error) {
	if !c.Installed() {
		return nil, nil
	}

	args := []string{"analyze", path, "--output", "json"}
	if opts.Fixes {
		args = append(args, "--fixes")
	}
	if opts.Benchmark {
		args = append(args, "--benchmark")
	}

	ctx, cancel := context.WithTimeout(ctx, cliTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, c.binary(), args...).Output()
	if err != nil {
		return nil, fmt.Errorf("peakinfer cli: %w", err)
	}

	var result Result
	if err := json.Unmarshal(out, &result); err != nil {
		return nil, fmt.Errorf("peakinfer cli: decode output: %w", err)
	}
	return &result, nil
}

func (c *CLI) binary() string {
	if c.Binary != "" {
		return c.Binary
	}
	return "peakinfer"
}
