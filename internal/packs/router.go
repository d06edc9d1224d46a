// ABOUTME: Routes tool calls to pack handlers and wraps the outcome in a result envelope.
// ABOUTME: Handles unknown tools, missing arguments, timeouts, panics and error formatting.

package packs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/2389/cloud-mcp/internal/adapter"
)

// ErrToolNotFound indicates the requested tool is not registered.
var ErrToolNotFound = errors.New("tool not found")

// ErrMissingArguments indicates required arguments were absent.
var ErrMissingArguments = errors.New("missing required arguments")

// DefaultTimeout bounds one tool call when no timeout is configured.
const DefaultTimeout = 2 * time.Minute

// Request is one tools/call invocation.
type Request struct {
	ToolName  string
	Arguments map[string]any
}

// Content is one block of tool output. Only text blocks are produced.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Result is the envelope returned for every call.
type Result struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError"`
}

// Text returns the concatenated text of all content blocks.
func (r Result) Text() string {
	var b strings.Builder
	for _, c := range r.Content {
		b.WriteString(c.Text)
	}
	return b.String()
}

func textResult(text string, isError bool) Result {
	return Result{Content: []Content{{Type: "text", Text: text}}, IsError: isError}
}

// UnknownToolError is returned when no tool matches the requested name.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return "Unknown tool: " + e.Name
}

func (e *UnknownToolError) Unwrap() error {
	return ErrToolNotFound
}

// MissingArgumentsError lists required fields absent from a call.
type MissingArgumentsError struct {
	Tool   string
	Fields []string
}

func (e *MissingArgumentsError) Error() string {
	if len(e.Fields) == 1 {
		return "Missing required argument: " + e.Fields[0]
	}
	return "Missing required arguments: " + strings.Join(e.Fields, ", ")
}

func (e *MissingArgumentsError) Unwrap() error {
	return ErrMissingArguments
}

// CallRecord summarizes one finished call for observers.
type CallRecord struct {
	RequestID string
	ToolName  string
	PackID    string
	Arguments map[string]any
	StartedAt time.Time
	Duration  time.Duration
	IsError   bool
	ErrorKind string
	Message   string
}

// Observer is notified after every dispatched call.
type Observer interface {
	ObserveCall(ctx context.Context, rec CallRecord)
}

// Router dispatches tool calls to registered handlers.
type Router struct {
	registry *Registry
	logger   *slog.Logger
	timeout  time.Duration
	observer Observer
}

// RouterConfig contains configuration options for the Router.
type RouterConfig struct {
	Registry *Registry
	Logger   *slog.Logger
	Timeout  time.Duration
	Observer Observer
}

// NewRouter creates a new Router with the given configuration.
func NewRouter(cfg RouterConfig) *Router {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Router{
		registry: cfg.Registry,
		logger:   logger,
		timeout:  timeout,
		observer: cfg.Observer,
	}
}

// Registry returns the registry the router dispatches to.
func (r *Router) Registry() *Registry {
	return r.registry
}

// RouteToolCall validates the request and invokes the tool's handler.
// Errors are *UnknownToolError, *MissingArgumentsError or *adapter.Error.
func (r *Router) RouteToolCall(ctx context.Context, req Request) (any, error) {
	value, _, err := r.route(ctx, uuid.NewString(), req)
	return value, err
}

// Dispatch runs a call and always returns an envelope; failures are reported
// in band with IsError set.
func (r *Router) Dispatch(ctx context.Context, req Request) Result {
	requestID := uuid.NewString()
	start := time.Now()

	value, packID, err := r.route(ctx, requestID, req)

	var result Result
	if err == nil {
		text, encErr := encodeValue(value)
		if encErr != nil {
			err = adapter.Wrap(adapter.KindMalformedResponse, encErr, "encode result")
		} else {
			result = textResult(text, false)
		}
	}
	if err != nil {
		result = textResult(errorText(req.ToolName, err), true)
	}

	if r.observer != nil {
		r.observer.ObserveCall(ctx, CallRecord{
			RequestID: requestID,
			ToolName:  req.ToolName,
			PackID:    packID,
			Arguments: req.Arguments,
			StartedAt: start,
			Duration:  time.Since(start),
			IsError:   result.IsError,
			ErrorKind: errorKind(err),
			Message:   errorMessage(err),
		})
	}
	return result
}

func (r *Router) route(ctx context.Context, requestID string, req Request) (value any, packID string, err error) {
	tool, packID := r.registry.GetToolByName(req.ToolName)
	if tool == nil {
		r.logger.Warn("unknown tool requested",
			"tool_name", req.ToolName,
			"request_id", requestID,
		)
		return nil, "", &UnknownToolError{Name: req.ToolName}
	}

	if missing := tool.Definition.MissingArguments(req.Arguments); len(missing) > 0 {
		r.logger.Warn("tool call missing arguments",
			"tool_name", req.ToolName,
			"request_id", requestID,
			"missing", missing,
		)
		return nil, packID, &MissingArgumentsError{Tool: req.ToolName, Fields: missing}
	}

	r.logger.Info("→ dispatching tool call",
		"tool_name", req.ToolName,
		"pack_id", packID,
		"request_id", requestID,
	)

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	value, err = r.invoke(ctx, tool, req.Arguments)
	if err != nil {
		err = classify(err)
		r.logger.Warn("tool call failed",
			"tool_name", req.ToolName,
			"pack_id", packID,
			"request_id", requestID,
			"kind", adapter.KindOf(err),
			"error", err,
			"duration", time.Since(start),
		)
		return nil, packID, err
	}

	r.logger.Info("← tool call succeeded",
		"tool_name", req.ToolName,
		"pack_id", packID,
		"request_id", requestID,
		"duration", time.Since(start),
	)
	return value, packID, nil
}

// invoke calls the handler, converting a panic into an error.
func (r *Router) invoke(ctx context.Context, tool *Tool, args map[string]any) (value any, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = adapter.Errorf(adapter.KindCommandFailed, "internal error: %v", p)
		}
	}()
	if args == nil {
		args = map[string]any{}
	}
	return tool.Handler(ctx, adapter.Arguments(args))
}

// classify makes sure every handler failure carries an adapter Kind.
func classify(err error) error {
	if adapter.KindOf(err) != "" {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return adapter.Wrap(adapter.KindCommandFailed, err, "timed out")
	}
	return adapter.Wrap(adapter.KindCommandFailed, err, "")
}

func errorText(toolName string, err error) string {
	var unknown *UnknownToolError
	var missing *MissingArgumentsError
	switch {
	case errors.As(err, &unknown), errors.As(err, &missing):
		return err.Error()
	default:
		return fmt.Sprintf("Error executing %s: %s", toolName, err.Error())
	}
}

func errorKind(err error) string {
	var unknown *UnknownToolError
	var missing *MissingArgumentsError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &unknown):
		return "UnknownTool"
	case errors.As(err, &missing):
		return "MissingRequiredArgument"
	default:
		return string(adapter.KindOf(err))
	}
}

func errorMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// encodeValue renders a handler result as two-space indented JSON.
// Raw JSON values are re-indented as-is, keeping key order and number precision.
func encodeValue(v any) (string, error) {
	var buf bytes.Buffer
	if raw, ok := v.(json.RawMessage); ok {
		if err := json.Indent(&buf, bytes.TrimSpace(raw), "", "  "); err != nil {
			return "", err
		}
		return buf.String(), nil
	}
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
