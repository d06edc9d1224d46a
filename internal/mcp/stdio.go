// ABOUTME: Stdio transport built on the official MCP Go SDK.
// ABOUTME: Middleware keeps tools/list in catalog order and answers unknown tools in band.

package mcp

import (
	"context"
	"fmt"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/2389/cloud-mcp/internal/packs"
)

// SDKServer builds an SDK server with every catalog tool registered.
func (s *Server) SDKServer() (*sdk.Server, error) {
	server := sdk.NewServer(&sdk.Implementation{Name: s.name, Version: s.version}, nil)

	tools, err := s.Tools()
	if err != nil {
		return nil, err
	}
	for _, t := range tools {
		name := t.Name
		server.AddTool(&sdk.Tool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.InputSchema,
		}, func(ctx context.Context, req *sdk.CallToolRequest) (*sdk.CallToolResult, error) {
			return toSDKResult(s.CallTool(ctx, name, req.Params.Arguments)), nil
		})
	}

	server.AddReceivingMiddleware(s.catalogMiddleware)
	return server, nil
}

// catalogMiddleware answers tools/list in declaration order and keeps
// unknown tool names from becoming protocol errors.
func (s *Server) catalogMiddleware(next sdk.MethodHandler) sdk.MethodHandler {
	return func(ctx context.Context, method string, req sdk.Request) (sdk.Result, error) {
		switch method {
		case "tools/list":
			return s.listToolsResult()
		case "tools/call":
			if params, ok := req.GetParams().(*sdk.CallToolParamsRaw); ok && !s.knowsTool(params.Name) {
				return toSDKResult(s.CallTool(ctx, params.Name, params.Arguments)), nil
			}
		}
		return next(ctx, method, req)
	}
}

func (s *Server) listToolsResult() (*sdk.ListToolsResult, error) {
	tools, err := s.Tools()
	if err != nil {
		return nil, err
	}
	result := &sdk.ListToolsResult{Tools: make([]*sdk.Tool, len(tools))}
	for i, t := range tools {
		result.Tools[i] = &sdk.Tool{Name: t.Name, Description: t.Description, InputSchema: t.InputSchema}
	}
	return result, nil
}

func toSDKResult(r packs.Result) *sdk.CallToolResult {
	content := make([]sdk.Content, len(r.Content))
	for i, c := range r.Content {
		content[i] = &sdk.TextContent{Text: c.Text}
	}
	return &sdk.CallToolResult{Content: content, IsError: r.IsError}
}

// RunStdio serves MCP over stdin/stdout until ctx is cancelled or the client disconnects.
func (s *Server) RunStdio(ctx context.Context) error {
	return s.Run(ctx, &sdk.StdioTransport{})
}

// Run serves MCP over the given SDK transport.
func (s *Server) Run(ctx context.Context, transport sdk.Transport) error {
	server, err := s.SDKServer()
	if err != nil {
		return err
	}
	s.logger.Info("serving MCP", "name", s.name, "tools", s.router.Registry().Catalog().Len())
	if err := server.Run(ctx, transport); err != nil && ctx.Err() == nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}
