// ABOUTME: Subprocess execution for CLI-backed tools with captured stdout and stderr.
// ABOUTME: Processes are killed on context cancellation and always reaped.

package command

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/2389/cloud-mcp/internal/adapter"
)

// DefaultWaitDelay bounds how long Wait keeps draining pipes after the
// process has been killed.
const DefaultWaitDelay = 5 * time.Second

// Command is one fully-resolved invocation. Args never pass through a shell.
type Command struct {
	Path string
	Args []string
	// Env entries ("KEY=value") are appended to the parent environment.
	Env []string
}

// String renders the command shell-quoted for logs.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, quoteArg(c.Path))
	for _, a := range c.Args {
		parts = append(parts, quoteArg(a))
	}
	return strings.Join(parts, " ")
}

func quoteArg(s string) string {
	if s == "" || strings.ContainsAny(s, " \t\n'\"\\$`|&;<>()*?[]#~") {
		return strconv.Quote(s)
	}
	return s
}

// Result is the outcome of a process that ran to completion.
type Result struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// Runner executes commands. A non-zero exit is reported through Result,
// not as an error; errors mean the process could not run at all.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// ExecRunner runs commands as local subprocesses.
type ExecRunner struct {
	WaitDelay time.Duration
}

// Run starts cmd and waits for it to exit.
func (r ExecRunner) Run(ctx context.Context, cmd Command) (Result, error) {
	c := exec.CommandContext(ctx, cmd.Path, cmd.Args...)
	c.Env = append(os.Environ(), cmd.Env...)
	c.WaitDelay = r.WaitDelay
	if c.WaitDelay == 0 {
		c.WaitDelay = DefaultWaitDelay
	}

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	err := c.Run()
	res := Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}

	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return res, adapter.Wrap(adapter.KindCommandFailed, ctxErr, "command timed out")
		}
		return res, adapter.Wrap(adapter.KindCommandFailed, ctxErr, "command cancelled")
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return res, adapter.Wrap(adapter.KindBackendUnavailable, err, "start %s", cmd.Path)
	}
	return res, nil
}
