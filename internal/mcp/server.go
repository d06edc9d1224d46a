// ABOUTME: Transport-independent MCP server core shared by the stdio and HTTP transports.
// ABOUTME: Lists the catalog in declaration order and turns raw tools/call arguments into dispatches.

package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/2389/cloud-mcp/internal/auth"
	"github.com/2389/cloud-mcp/internal/packs"
)

// DefaultName is advertised when Config.Name is empty.
const DefaultName = "cloud-mcp"

// Config holds configuration for the MCP server.
type Config struct {
	Name        string // serverInfo.name
	Version     string // serverInfo.version
	Router      *packs.Router
	Logger      *slog.Logger
	Verifier    auth.TokenVerifier // HTTP transport only
	RequireAuth bool               // If true, HTTP requests without a valid bearer token are rejected
}

// Server exposes a router's tools over MCP.
type Server struct {
	name        string
	version     string
	router      *packs.Router
	logger      *slog.Logger
	verifier    auth.TokenVerifier
	requireAuth bool
	sessions    *sessionStore
}

// NewServer creates a new MCP server with the given configuration.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Router == nil {
		return nil, errors.New("router is required")
	}
	if cfg.RequireAuth && cfg.Verifier == nil {
		return nil, errors.New("token verifier required when auth is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	name := cfg.Name
	if name == "" {
		name = DefaultName
	}
	version := cfg.Version
	if version == "" {
		version = "dev"
	}

	return &Server{
		name:        name,
		version:     version,
		router:      cfg.Router,
		logger:      logger,
		verifier:    cfg.Verifier,
		requireAuth: cfg.RequireAuth,
		sessions:    newSessionStore(),
	}, nil
}

// Name returns the advertised server name.
func (s *Server) Name() string { return s.name }

// ToolInfo is the wire shape of one tools/list entry.
type ToolInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// Tools returns the catalog in declaration order with rendered schemas.
func (s *Server) Tools() ([]ToolInfo, error) {
	defs := s.router.Registry().Catalog().List()
	tools := make([]ToolInfo, len(defs))
	for i, def := range defs {
		schema, err := json.Marshal(def.InputSchema)
		if err != nil {
			return nil, fmt.Errorf("rendering schema for %s: %w", def.Name, err)
		}
		tools[i] = ToolInfo{Name: def.Name, Description: def.Description, InputSchema: schema}
	}
	return tools, nil
}

// knowsTool reports whether name is in the catalog.
func (s *Server) knowsTool(name string) bool {
	_, ok := s.router.Registry().Catalog().Lookup(name)
	return ok
}

// CallTool decodes raw arguments and dispatches the call. Every outcome,
// including unknown tools and malformed arguments, is an in-band result.
func (s *Server) CallTool(ctx context.Context, name string, rawArgs json.RawMessage) packs.Result {
	args, err := decodeArguments(rawArgs)
	if err != nil && s.knowsTool(name) {
		s.logger.Warn("tools/call with malformed arguments", "tool_name", name, "error", err)
		return packs.Result{
			Content: []packs.Content{{Type: "text", Text: fmt.Sprintf("Error executing %s: %v", name, err)}},
			IsError: true,
		}
	}
	return s.router.Dispatch(ctx, packs.Request{ToolName: name, Arguments: args})
}

// decodeArguments parses a tools/call arguments object. Absent or null means none.
func decodeArguments(raw json.RawMessage) (map[string]any, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var args map[string]any
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("invalid arguments: expected a JSON object")
	}
	return args, nil
}
