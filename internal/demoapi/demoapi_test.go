// ABOUTME: Tests for the demo pack across simulated, HTTP and command backends.
// ABOUTME: Covers the get_user, missing query and failing-process scenarios end to end.

package demoapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/cloud-mcp/internal/adapter"
	"github.com/2389/cloud-mcp/internal/command"
	"github.com/2389/cloud-mcp/internal/command/commandtest"
	"github.com/2389/cloud-mcp/internal/packs"
)

func newTestRouter(t *testing.T, backend Backend) *packs.Router {
	t.Helper()
	registry := packs.NewRegistry(slog.Default())
	require.NoError(t, registry.RegisterPack(NewPack(backend)))
	return packs.NewRouter(packs.RouterConfig{Registry: registry})
}

func dispatch(router *packs.Router, name string, args map[string]any) packs.Result {
	return router.Dispatch(context.Background(), packs.Request{ToolName: name, Arguments: args})
}

func TestSimulatedGetUser(t *testing.T) {
	router := newTestRouter(t, NewSimulated(Latency{}))

	result := dispatch(router, "get_user", map[string]any{"userId": "42"})
	require.False(t, result.IsError, result.Text())

	var user map[string]any
	require.NoError(t, json.Unmarshal([]byte(result.Text()), &user))
	assert.Equal(t, "42", user["id"])
	assert.Equal(t, "John Doe", user["name"])
	assert.Equal(t, "john@example.com", user["email"])
}

func TestSimulatedSearch(t *testing.T) {
	router := newTestRouter(t, NewSimulated(Latency{}))

	t.Run("category is null when absent", func(t *testing.T) {
		result := dispatch(router, "search", map[string]any{"query": "widgets"})
		require.False(t, result.IsError)
		assert.JSONEq(t, `{"query":"widgets","category":null,"results":["Result 1","Result 2","Result 3"],"total":3}`, result.Text())
	})

	t.Run("category echoed", func(t *testing.T) {
		result := dispatch(router, "search", map[string]any{"query": "widgets", "category": "tools", "limit": float64(5)})
		require.False(t, result.IsError)
		assert.Contains(t, result.Text(), `"category": "tools"`)
	})

	t.Run("missing query", func(t *testing.T) {
		result := dispatch(router, "search", map[string]any{})
		assert.True(t, result.IsError)
		assert.Contains(t, result.Text(), "query")
	})

	t.Run("fractional limit is rejected", func(t *testing.T) {
		result := dispatch(router, "search", map[string]any{"query": "x", "limit": 2.5})
		assert.True(t, result.IsError)
		assert.Contains(t, result.Text(), "Error executing search: argument limit")
	})
}

func TestSimulatedListItems(t *testing.T) {
	router := newTestRouter(t, NewSimulated(Latency{}))

	result := dispatch(router, "list_items", nil)
	require.False(t, result.IsError)
	assert.JSONEq(t, `{"items":["Item 1","Item 2","Item 3"],"page":1,"pageSize":20,"total":100}`, result.Text())

	result = dispatch(router, "list_items", map[string]any{"page": float64(3), "pageSize": float64(50)})
	require.False(t, result.IsError)
	assert.JSONEq(t, `{"items":["Item 1","Item 2","Item 3"],"page":3,"pageSize":50,"total":100}`, result.Text())
}

func TestSimulatedLatencyHonoursCancellation(t *testing.T) {
	backend := NewSimulated(Latency{Search: time.Minute})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := backend.Search(ctx, SearchParams{Query: "slow"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestHTTPClient(t *testing.T) {
	var gotAuth, gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		switch r.URL.Path {
		case "/users/42":
			_, _ = w.Write([]byte(`{"id":"42","name":"Grace","email":"grace@example.com"}`))
		case "/search":
			_, _ = w.Write([]byte(`{"query":"q","category":null,"results":["a"],"total":1}`))
		case "/items":
			_, _ = w.Write([]byte(`{"items":[],"page":2,"pageSize":5,"total":0}`))
		case "/users/broken":
			_, _ = w.Write([]byte(`not json`))
		case "/users/down":
			http.Error(w, "maintenance", http.StatusServiceUnavailable)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/", "key-123", srv.Client())
	ctx := context.Background()

	user, err := client.GetUser(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, "Grace", user.Name)
	assert.Equal(t, "Bearer key-123", gotAuth)
	assert.Equal(t, "/users/42", gotPath)

	res, err := client.Search(ctx, SearchParams{Query: "q", Category: "c", Limit: 7})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)
	assert.Equal(t, "category=c&limit=7&query=q", gotQuery)

	page, err := client.ListItems(ctx, ListParams{Page: 2, PageSize: 5})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, "page=2&pageSize=5", gotQuery)

	_, err = client.GetUser(ctx, "broken")
	assert.Equal(t, adapter.KindMalformedResponse, adapter.KindOf(err))

	_, err = client.GetUser(ctx, "down")
	assert.Equal(t, adapter.KindBackendUnavailable, adapter.KindOf(err))
	assert.Contains(t, err.Error(), "api status 503: maintenance")

	_, err = client.GetUser(ctx, "missing")
	assert.Equal(t, adapter.KindCommandFailed, adapter.KindOf(err))
	assert.Contains(t, err.Error(), "api status 404")
}

func TestHTTPClientUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, "", nil).GetUser(context.Background(), "1")
	require.Error(t, err)
	assert.Equal(t, adapter.KindBackendUnavailable, adapter.KindOf(err))
}

func TestCommandBackend(t *testing.T) {
	t.Run("search backed by a failing process", func(t *testing.T) {
		runner := commandtest.NewRunner()
		runner.Default = commandtest.Fail(1, "backend exploded")
		cli := &command.CLI{Runner: runner, Path: "demo-backend"}
		router := newTestRouter(t, NewCommandBackend(cli))

		result := dispatch(router, "search", map[string]any{"query": "x"})
		assert.True(t, result.IsError)
		assert.Contains(t, result.Text(), "Error executing search:")
		assert.Equal(t, "Error executing search: backend exploded", result.Text())
	})

	t.Run("argv per operation", func(t *testing.T) {
		runner := commandtest.NewRunner().
			On("get-user", commandtest.OK(`{"id":"7","name":"n","email":"e"}`)).
			On("search", commandtest.OK(`{"query":"q","category":"c","results":[],"total":0}`)).
			On("list-items", commandtest.OK(`{"items":[],"page":1,"pageSize":20,"total":0}`))
		backend := NewCommandBackend(&command.CLI{Runner: runner, Path: "demo-backend"})
		ctx := context.Background()

		_, err := backend.GetUser(ctx, "7")
		require.NoError(t, err)
		assert.Equal(t, []string{"get-user", "--id", "7"}, runner.Last().Args)

		_, err = backend.Search(ctx, SearchParams{Query: "q", Category: "c", Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, []string{"search", "--query", "q", "--category", "c", "--limit", "10"}, runner.Last().Args)

		_, err = backend.ListItems(ctx, ListParams{Page: 1, PageSize: 20})
		require.NoError(t, err)
		assert.Equal(t, []string{"list-items", "--page", "1", "--page-size", "20"}, runner.Last().Args)
	})
}
