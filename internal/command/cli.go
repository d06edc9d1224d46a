// ABOUTME: JSON-emitting CLI wrapper that applies the exit-code and stderr policy.
// ABOUTME: Adapters describe per-tool argv; CLI adds fixed flags, credentials and decoding.

package command

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
	"slices"
	"strings"
	"time"

	"github.com/2389/cloud-mcp/internal/adapter"
)

// WarningMarker is the stderr substring that marks output as non-fatal.
// Some CLIs print deprecation notices to stderr on success; anything else
// on stderr is treated as failure.
const WarningMarker = "WARNING"

// CLI runs one executable with a fixed suffix of arguments and extra environment.
type CLI struct {
	Runner Runner
	Path   string
	// ExtraArgs are appended after the per-tool arguments.
	ExtraArgs []string
	// Env entries are added to the child environment only.
	Env    []string
	Logger *slog.Logger
}

// Command builds the full invocation for the given per-tool arguments.
func (c *CLI) Command(args ...string) Command {
	full := make([]string, 0, len(args)+len(c.ExtraArgs))
	full = append(full, args...)
	full = append(full, c.ExtraArgs...)
	return Command{Path: c.Path, Args: full, Env: slices.Clone(c.Env)}
}

// Run executes the command and returns stdout when the process succeeded.
func (c *CLI) Run(ctx context.Context, args ...string) ([]byte, error) {
	cmd := c.Command(args...)
	logger := c.logger()

	start := time.Now()
	logger.Debug("running command", "command", cmd.String())

	res, err := c.Runner.Run(ctx, cmd)
	if err != nil {
		logger.Warn("command did not complete",
			"command", cmd.String(),
			"error", err,
			"duration", time.Since(start),
		)
		return nil, err
	}

	if err := CheckResult(res); err != nil {
		logger.Warn("command failed",
			"command", cmd.String(),
			"exit_code", res.ExitCode,
			"error", err,
			"duration", time.Since(start),
		)
		return nil, err
	}

	if len(res.Stderr) > 0 {
		logger.Debug("command wrote warnings", "command", cmd.String(), "stderr", strings.TrimSpace(string(res.Stderr)))
	}
	logger.Debug("command completed", "command", cmd.String(), "bytes", len(res.Stdout), "duration", time.Since(start))
	return res.Stdout, nil
}

// RunJSON executes the command and decodes stdout into out.
func (c *CLI) RunJSON(ctx context.Context, out any, args ...string) error {
	stdout, err := c.Run(ctx, args...)
	if err != nil {
		return err
	}
	return DecodeJSON(stdout, out)
}

// CheckResult applies the success policy: exit code zero and stderr that is
// either empty or contains WarningMarker.
func CheckResult(res Result) error {
	stderr := strings.TrimSpace(string(res.Stderr))
	if res.ExitCode != 0 {
		if stderr == "" {
			return adapter.Errorf(adapter.KindCommandFailed, "exit status %d", res.ExitCode)
		}
		return adapter.Errorf(adapter.KindCommandFailed, "%s", stderr)
	}
	if stderr != "" && !strings.Contains(stderr, WarningMarker) {
		return adapter.Errorf(adapter.KindCommandFailed, "%s", stderr)
	}
	return nil
}

// DecodeJSON parses CLI output, classifying failures as MalformedResponse.
func DecodeJSON(data []byte, out any) error {
	if len(strings.TrimSpace(string(data))) == 0 {
		return adapter.Errorf(adapter.KindMalformedResponse, "empty output, expected JSON")
	}
	if err := json.Unmarshal(data, out); err != nil {
		return adapter.Wrap(adapter.KindMalformedResponse, err, "parse output")
	}
	return nil
}

func (c *CLI) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// Available reports whether the executable can be found. Servers still start
// without it; calls then fail with BackendUnavailable.
func (c *CLI) Available() error {
	if _, err := exec.LookPath(c.Path); err != nil {
		return fmt.Errorf("%s not found: %w", c.Path, err)
	}
	return nil
}
