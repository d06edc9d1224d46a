// ABOUTME: End-to-end tests for the MCP server over in-memory SDK transports.
// ABOUTME: Drives a real SDK client against the demo pack for listing and calling tools.

package mcp

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/cloud-mcp/internal/command"
	"github.com/2389/cloud-mcp/internal/command/commandtest"
	"github.com/2389/cloud-mcp/internal/demoapi"
	"github.com/2389/cloud-mcp/internal/packs"
)

func newDemoServer(t *testing.T, backend demoapi.Backend) *Server {
	t.Helper()
	registry := packs.NewRegistry(slog.Default())
	require.NoError(t, registry.RegisterPack(demoapi.NewPack(backend)))
	router := packs.NewRouter(packs.RouterConfig{Registry: registry, Timeout: 5 * time.Second})

	srv, err := NewServer(Config{Name: demoapi.ServerName, Version: demoapi.Version, Router: router})
	require.NoError(t, err)
	return srv
}

// connect runs srv on an in-memory transport and returns a connected client session.
func connect(t *testing.T, srv *Server) *sdk.ClientSession {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	clientTransport, serverTransport := sdk.NewInMemoryTransports()

	sdkServer, err := srv.SDKServer()
	require.NoError(t, err)
	serverSession, err := sdkServer.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = serverSession.Close() })

	client := sdk.NewClient(&sdk.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func callText(t *testing.T, res *sdk.CallToolResult) string {
	t.Helper()
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(*sdk.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return text.Text
}

func TestNewServerValidation(t *testing.T) {
	_, err := NewServer(Config{})
	assert.Error(t, err)

	registry := packs.NewRegistry(slog.Default())
	router := packs.NewRouter(packs.RouterConfig{Registry: registry})
	_, err = NewServer(Config{Router: router, RequireAuth: true})
	assert.Error(t, err)

	srv, err := NewServer(Config{Router: router})
	require.NoError(t, err)
	assert.Equal(t, DefaultName, srv.Name())
}

func TestSDKListTools(t *testing.T) {
	session := connect(t, newDemoServer(t, demoapi.NewSimulated(demoapi.Latency{})))

	res, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	names := make([]string, len(res.Tools))
	for i, tool := range res.Tools {
		names[i] = tool.Name
	}
	assert.Equal(t, []string{"get_user", "search", "list_items"}, names)

	schema, err := json.Marshal(res.Tools[1].InputSchema)
	require.NoError(t, err)
	assert.Contains(t, string(schema), `"required":["query"]`)
}

func TestSDKCallTool(t *testing.T) {
	ctx := context.Background()

	t.Run("get_user returns the user", func(t *testing.T) {
		session := connect(t, newDemoServer(t, demoapi.NewSimulated(demoapi.Latency{})))

		res, err := session.CallTool(ctx, &sdk.CallToolParams{
			Name:      "get_user",
			Arguments: map[string]any{"userId": "42"},
		})
		require.NoError(t, err)
		assert.False(t, res.IsError)
		assert.JSONEq(t, `{"id":"42","name":"John Doe","email":"john@example.com"}`, callText(t, res))
	})

	t.Run("missing required argument", func(t *testing.T) {
		session := connect(t, newDemoServer(t, demoapi.NewSimulated(demoapi.Latency{})))

		res, err := session.CallTool(ctx, &sdk.CallToolParams{
			Name:      "search",
			Arguments: map[string]any{"category": "tools"},
		})
		require.NoError(t, err)
		assert.True(t, res.IsError)
		assert.Equal(t, "Missing required argument: query", callText(t, res))
	})

	t.Run("failing backend process", func(t *testing.T) {
		runner := commandtest.NewRunner()
		runner.Default = commandtest.Fail(1, "backend exploded")
		backend := demoapi.NewCommandBackend(&command.CLI{Runner: runner, Path: "demo-backend"})
		session := connect(t, newDemoServer(t, backend))

		res, err := session.CallTool(ctx, &sdk.CallToolParams{
			Name:      "search",
			Arguments: map[string]any{"query": "x"},
		})
		require.NoError(t, err)
		assert.True(t, res.IsError)
		assert.Equal(t, "Error executing search: backend exploded", callText(t, res))
	})

	t.Run("unknown tool is reported in band", func(t *testing.T) {
		session := connect(t, newDemoServer(t, demoapi.NewSimulated(demoapi.Latency{})))

		res, err := session.CallTool(ctx, &sdk.CallToolParams{
			Name:      "bogus_tool",
			Arguments: map[string]any{},
		})
		require.NoError(t, err)
		assert.True(t, res.IsError)
		assert.Equal(t, "Unknown tool: bogus_tool", callText(t, res))
	})
}

func TestCallToolArguments(t *testing.T) {
	srv := newDemoServer(t, demoapi.NewSimulated(demoapi.Latency{}))
	ctx := context.Background()

	t.Run("absent arguments", func(t *testing.T) {
		res := srv.CallTool(ctx, "list_items", nil)
		require.False(t, res.IsError, res.Text())
		assert.Contains(t, res.Text(), `"pageSize": 20`)
	})

	t.Run("non-object arguments for known tool", func(t *testing.T) {
		res := srv.CallTool(ctx, "get_user", json.RawMessage(`[1,2]`))
		assert.True(t, res.IsError)
		assert.Equal(t, "Error executing get_user: invalid arguments: expected a JSON object", res.Text())
	})

	t.Run("non-object arguments for unknown tool", func(t *testing.T) {
		res := srv.CallTool(ctx, "nope", json.RawMessage(`"x"`))
		assert.True(t, res.IsError)
		assert.Equal(t, "Unknown tool: nope", res.Text())
	})
}

func TestTools(t *testing.T) {
	srv := newDemoServer(t, demoapi.NewSimulated(demoapi.Latency{}))

	tools, err := srv.Tools()
	require.NoError(t, err)
	require.Len(t, tools, 3)
	assert.Equal(t, "get_user", tools[0].Name)
	assert.Equal(t, "Fetch user information from the API", tools[0].Description)

	var schema map[string]any
	require.NoError(t, json.Unmarshal(tools[0].InputSchema, &schema))
	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, []any{"userId"}, schema["required"])
}
