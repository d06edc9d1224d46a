// ABOUTME: Scriptable Runner for tests of CLI-backed adapters.
// ABOUTME: Records every invocation and replies with canned results keyed by subcommand.

package commandtest

import (
	"context"
	"strings"
	"sync"

	"github.com/2389/cloud-mcp/internal/command"
)

// Response is the canned outcome of one invocation.
type Response struct {
	Result command.Result
	Err    error
}

// OK returns a successful response with the given stdout.
func OK(stdout string) Response {
	return Response{Result: command.Result{Stdout: []byte(stdout)}}
}

// Fail returns a response for a process that exited with code and stderr.
func Fail(code int, stderr string) Response {
	return Response{Result: command.Result{ExitCode: code, Stderr: []byte(stderr)}}
}

// Runner replays responses. Responses are matched by the longest registered
// prefix of the space-joined argument list; Default is used otherwise.
type Runner struct {
	mu        sync.Mutex
	responses map[string]Response
	Default   Response
	Calls     []command.Command
}

// NewRunner creates a Runner whose default response is an empty JSON array.
func NewRunner() *Runner {
	return &Runner{
		responses: make(map[string]Response),
		Default:   OK("[]"),
	}
}

// On registers a response for invocations whose arguments start with prefix.
func (r *Runner) On(prefix string, resp Response) *Runner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.responses[prefix] = resp
	return r
}

// Run implements command.Runner.
func (r *Runner) Run(ctx context.Context, cmd command.Command) (command.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Calls = append(r.Calls, cmd)
	if err := ctx.Err(); err != nil {
		return command.Result{}, err
	}

	joined := strings.Join(cmd.Args, " ")
	best, bestLen := r.Default, -1
	for prefix, resp := range r.responses {
		if strings.HasPrefix(joined, prefix) && len(prefix) > bestLen {
			best, bestLen = resp, len(prefix)
		}
	}
	return best.Result, best.Err
}

// Last returns the most recent invocation.
func (r *Runner) Last() command.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Calls) == 0 {
		return command.Command{}
	}
	return r.Calls[len(r.Calls)-1]
}
