// ABOUTME: Tests for flag parsing, pack wiring and CLI output of cloud-mcp
// ABOUTME: Builds real routers over the simulated demo backend and a temp SQLite file

package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/cloud-mcp/internal/catalog"
	"github.com/2389/cloud-mcp/internal/command/commandtest"
	"github.com/2389/cloud-mcp/internal/config"
	"github.com/2389/cloud-mcp/internal/demoapi"
	"github.com/2389/cloud-mcp/internal/mcp"
	"github.com/2389/cloud-mcp/internal/packs"
	"github.com/2389/cloud-mcp/internal/store"
)

func init() {
	color.NoColor = true
}

func TestParseServeFlags(t *testing.T) {
	opts, err := parseServeFlags([]string{"--pack", "demo,Database", "-p", "demo", "--http", "--addr", ":9000"})
	require.NoError(t, err)
	assert.Equal(t, []string{"demo", "database"}, opts.packs)
	assert.True(t, opts.http)
	assert.Equal(t, ":9000", opts.addr)

	_, err = parseServeFlags([]string{"--pack", "demo", "extra"})
	assert.Error(t, err)

	_, err = parseServeFlags([]string{"--bogus"})
	assert.Error(t, err)
}

func TestBuildAppValidation(t *testing.T) {
	cfg := config.Default()

	_, err := buildApp(context.Background(), cfg, []string{"devops", "database"}, commandtest.NewRunner(), slog.Default())
	require.Error(t, err)
	assert.True(t, errors.Is(err, config.ErrStartup))

	var serr *config.StartupError
	require.ErrorAs(t, err, &serr)
	assert.ElementsMatch(t, []string{"AZURE_DEVOPS_ORG", "AZURE_DEVOPS_PAT", "DATABASE_URL"}, serr.Missing)

	_, err = buildApp(context.Background(), cfg, nil, commandtest.NewRunner(), slog.Default())
	assert.Error(t, err)
}

func TestBuildAppSinglePack(t *testing.T) {
	a, err := buildApp(context.Background(), config.Default(), []string{"demo"}, commandtest.NewRunner(), slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	assert.Equal(t, demoapi.ServerName, a.name)
	assert.Equal(t, demoapi.Version, a.version)
	assert.Equal(t, []string{"get_user", "search", "list_items"}, a.router.Registry().Catalog().Names())

	result := a.router.Dispatch(context.Background(), packs.Request{ToolName: "get_user", Arguments: map[string]any{"userId": "42"}})
	require.False(t, result.IsError, result.Text())
	assert.Contains(t, result.Text(), `"id": "42"`)
}

func TestBuildAppMultiplePacks(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "app.db")
	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	cfg := config.Default()
	cfg.Database.URL = "sqlite://" + dbPath
	cfg.Audit.Path = filepath.Join(dir, "audit.db")
	cfg.DevOps.Organization = "contoso"
	cfg.DevOps.PAT = "pat"

	runner := commandtest.NewRunner().On("pipelines build list", commandtest.OK(`[]`))
	a, err := buildApp(context.Background(), cfg, []string{"devops", "demo", "database"}, runner, slog.Default())
	require.NoError(t, err)

	assert.Equal(t, mcp.DefaultName, a.name)
	names := a.router.Registry().Catalog().Names()
	assert.Equal(t, "list_builds", names[0])
	assert.Contains(t, names, "get_user")
	assert.Equal(t, "get_table_stats", names[len(names)-1])

	ctx := context.Background()
	res := a.router.Dispatch(ctx, packs.Request{ToolName: "query", Arguments: map[string]any{"sql": "SELECT * FROM users"}})
	require.False(t, res.IsError, res.Text())
	res = a.router.Dispatch(ctx, packs.Request{ToolName: "bogus_tool"})
	require.True(t, res.IsError)

	require.NoError(t, a.Close())

	s, err := store.NewSQLiteStore(cfg.Audit.Path, slog.Default())
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	calls, err := s.ListToolCalls(ctx, store.ToolCallFilter{})
	require.NoError(t, err)
	require.Len(t, calls, 2)
	assert.Equal(t, "bogus_tool", calls[0].ToolName)
	assert.Equal(t, "UnknownTool", calls[0].ErrorKind)
	assert.Equal(t, "query", calls[1].ToolName)
	assert.Equal(t, "database", calls[1].PackID)
}

// sampleArgument returns a well-typed value for a schema property.
func sampleArgument(p catalog.Property) any {
	switch {
	case len(p.Enum) > 0:
		return p.Enum[0]
	case p.Type == catalog.TypeString:
		return "x"
	default:
		return float64(1)
	}
}

func TestRequiredArgumentsEveryTool(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "app.db")
	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE users (id INTEGER PRIMARY KEY)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	cfg := config.Default()
	cfg.Database.URL = "sqlite://" + dbPath
	cfg.DevOps.Organization = "contoso"
	cfg.DevOps.PAT = "pat"
	cfg.Portal.SubscriptionID = "sub"

	a, err := buildApp(context.Background(), cfg, config.KnownPacks, commandtest.NewRunner(), slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	for _, id := range config.KnownPacks {
		for _, tool := range packCatalogs[id] {
			full := make(map[string]any, len(tool.InputSchema.Fields))
			for _, f := range tool.InputSchema.Fields {
				full[f.Name] = sampleArgument(f.Property)
			}

			for _, f := range tool.InputSchema.Fields {
				args := make(map[string]any, len(full))
				for k, v := range full {
					if k != f.Name {
						args[k] = v
					}
				}

				t.Run(tool.Name+"/without_"+f.Name, func(t *testing.T) {
					_, err := a.router.RouteToolCall(context.Background(), packs.Request{ToolName: tool.Name, Arguments: args})

					var missing *packs.MissingArgumentsError
					if tool.InputSchema.IsRequired(f.Name) {
						require.ErrorAs(t, err, &missing)
						assert.Equal(t, []string{f.Name}, missing.Fields)
						assert.Equal(t, []string{f.Name}, tool.MissingArguments(args))

						res := a.router.Dispatch(context.Background(), packs.Request{ToolName: tool.Name, Arguments: args})
						assert.True(t, res.IsError)
						assert.Equal(t, "Missing required argument: "+f.Name, res.Text())
						return
					}
					assert.False(t, errors.As(err, &missing), "optional %s reported missing: %v", f.Name, err)
					assert.Empty(t, tool.MissingArguments(args))
				})
			}
		}
	}
}

func TestDemoBackendSelection(t *testing.T) {
	runner := commandtest.NewRunner()

	_, ok := demoBackend(config.DemoConfig{BaseURL: "https://api.example.com", Command: "x"}, runner, slog.Default()).(*demoapi.Client)
	assert.True(t, ok)

	_, ok = demoBackend(config.DemoConfig{Command: "demo-backend"}, runner, slog.Default()).(*demoapi.CommandBackend)
	assert.True(t, ok)

	sim, ok := demoBackend(config.DemoConfig{SimulateLatency: true}, runner, slog.Default()).(*demoapi.Simulated)
	require.True(t, ok)
	assert.Equal(t, demoapi.DefaultLatency, sim.Latency)

	sim, ok = demoBackend(config.DemoConfig{}, runner, slog.Default()).(*demoapi.Simulated)
	require.True(t, ok)
	assert.Zero(t, sim.Latency.GetUser)
}

func TestPrintTools(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printTools(&buf, []string{"demo"}, false))
	out := buf.String()
	assert.Contains(t, out, "get_user  Fetch user information from the API")
	assert.Contains(t, out, "required")

	buf.Reset()
	require.NoError(t, printTools(&buf, []string{"demo"}, true))
	var payload struct {
		Tools []struct {
			Name string `json:"name"`
		} `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &payload))
	require.Len(t, payload.Tools, 3)
	assert.Equal(t, "list_items", payload.Tools[2].Name)

	assert.Error(t, printTools(&buf, []string{"nope"}, false))
}

func TestPrintAudit(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printCalls(&buf, nil, false))
	assert.Contains(t, buf.String(), "No tool calls recorded.")

	buf.Reset()
	calls := []store.ToolCall{
		{ToolName: "search", PackID: "demo", StartedAt: time.Now().Add(-time.Minute), Duration: 1500 * time.Microsecond, IsError: true, ErrorKind: "CommandExecutionFailed"},
		{ToolName: "get_user", PackID: "demo", StartedAt: time.Now().Add(-2 * time.Minute), Duration: time.Millisecond},
	}
	require.NoError(t, printCalls(&buf, calls, false))
	assert.Contains(t, buf.String(), "CommandExecutionFailed")
	assert.Contains(t, buf.String(), "1 minute ago")

	buf.Reset()
	sums := []store.ToolSummary{{ToolName: "search", Calls: 1200, Errors: 3, AverageDuration: 2 * time.Millisecond, LastCalledAt: time.Now()}}
	require.NoError(t, printSummaries(&buf, sums, false))
	assert.Contains(t, buf.String(), "1,200")
}
