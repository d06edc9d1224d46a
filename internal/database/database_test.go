// ABOUTME: Tests for the read-only database pack against a temporary SQLite file.
// ABOUTME: Covers the SQL guard, automatic limits, schema inspection and table stats.

package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/cloud-mcp/internal/adapter"
	"github.com/2389/cloud-mcp/internal/packs"
)

// seedDatabase creates a writable database with sample data and returns its URL.
func seedDatabase(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`
		CREATE TABLE users (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT,
			status TEXT DEFAULT 'active'
		);
		CREATE INDEX idx_users_email ON users(email);
		CREATE TABLE orders (id INTEGER PRIMARY KEY, user_id INTEGER, total REAL);
		CREATE VIEW active_users AS SELECT * FROM users WHERE status = 'active';
	`)
	require.NoError(t, err)

	for i := 1; i <= 150; i++ {
		_, err = db.Exec(`INSERT INTO users (id, name, email) VALUES (?, ?, ?)`, i, "user", nil)
		require.NoError(t, err)
	}
	return "sqlite://" + path
}

func newTestAdapter(t *testing.T) *Adapter {
	t.Helper()
	db, err := Open(context.Background(), seedDatabase(t))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db, 0, slog.Default())
}

func newTestRouter(t *testing.T) *packs.Router {
	t.Helper()
	registry := packs.NewRegistry(slog.Default())
	require.NoError(t, registry.RegisterPack(NewPack(newTestAdapter(t))))
	return packs.NewRouter(packs.RouterConfig{Registry: registry})
}

func TestDSN(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"sqlite:///var/data/app.db", "file:/var/data/app.db?_pragma=query_only(1)&_pragma=busy_timeout(5000)", false},
		{"sqlite:app.db", "file:app.db?_pragma=query_only(1)&_pragma=busy_timeout(5000)", false},
		{"file:app.db?cache=shared", "file:app.db?cache=shared&_pragma=query_only(1)&_pragma=busy_timeout(5000)", false},
		{"/tmp/app.db", "file:/tmp/app.db?_pragma=query_only(1)&_pragma=busy_timeout(5000)", false},
		{"", "", true},
		{"postgres://user:pw@localhost/db", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := DSN(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.NotContains(t, err.Error(), "pw")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := DSN("  ")
	assert.ErrorIs(t, err, ErrNoDatabaseURL)
}

func TestGuard(t *testing.T) {
	safe := []string{
		"SELECT * FROM users",
		"select count(*) from orders -- DELETE everything",
		"/* DROP TABLE users */ SELECT 1",
		"WITH t AS (SELECT 1) SELECT * FROM t",
		"SELECT updated_at, created FROM users",
		"SELECT name FROM users WHERE name = 'a--b'",
		"SELECT 'it''s /* fine' AS x",
	}
	for _, q := range safe {
		assert.True(t, IsReadOnly(q), q)
	}

	unsafe := []string{
		"DELETE FROM users",
		"select 1; drop table users",
		"INSERT INTO users VALUES (1)",
		"UPDATE users SET name = 'x'",
		"PRAGMA writable_schema = 1",
		"ATTACH DATABASE 'x.db' AS x",
		"SELECT 1 /* ok */; Create table t(x)",
		"SELECT 1 LIMIT 1; SELECT '--'; DELETE FROM users",
		`SELECT "/*" FROM t; DROP TABLE t -- */`,
	}
	for _, q := range unsafe {
		assert.False(t, IsReadOnly(q), q)
	}
}

func TestStripComments(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"SELECT 1 -- note", "SELECT 1 "},
		{"SELECT /* a */ 1", "SELECT   1"},
		{"SELECT 'a--b' -- c", "SELECT 'a--b' "},
		{`SELECT "x/*y" FROM t`, `SELECT "x/*y" FROM t`},
		{"SELECT 'it''s -- ok'", "SELECT 'it''s -- ok'"},
		{"SELECT 1 -- a\nFROM t", "SELECT 1 \nFROM t"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StripComments(tt.in), tt.in)
	}
}

func TestApplyLimit(t *testing.T) {
	assert.Equal(t, "SELECT * FROM users\nLIMIT 100", ApplyLimit("SELECT * FROM users", 100))
	assert.Equal(t, "SELECT * FROM users\nLIMIT 5", ApplyLimit("SELECT * FROM users;  ", 5))
	assert.Equal(t, "SELECT * FROM users limit 3", ApplyLimit("SELECT * FROM users limit 3", 100))
	assert.Equal(t, "SELECT * FROM users -- trailing\nLIMIT 10", ApplyLimit("SELECT * FROM users -- trailing", 10))
	assert.Equal(t, "SELECT * FROM t WHERE s = 'a--b'\nLIMIT 7", ApplyLimit("SELECT * FROM t WHERE s = 'a--b'", 7))
	assert.Equal(t, "SELECT * FROM t WHERE s = 'no limit'\nLIMIT 7", ApplyLimit("SELECT * FROM t WHERE s = 'no limit'", 7))
	assert.Equal(t, "SELECT * FROM t /* LIMIT */\nLIMIT 7", ApplyLimit("SELECT * FROM t /* LIMIT */", 7))

	assert.Equal(t, 100, ClampLimit(0))
	assert.Equal(t, 1000, ClampLimit(5000))
	assert.Equal(t, 42, ClampLimit(42))
}

func TestQuery(t *testing.T) {
	router := newTestRouter(t)
	ctx := context.Background()

	t.Run("default limit applied", func(t *testing.T) {
		result := router.Dispatch(ctx, packs.Request{ToolName: "query", Arguments: map[string]any{"sql": "SELECT id FROM users ORDER BY id"}})
		require.False(t, result.IsError, result.Text())

		var out QueryResult
		require.NoError(t, json.Unmarshal([]byte(result.Text()), &out))
		assert.Equal(t, []string{"id"}, out.Columns)
		assert.Equal(t, 100, out.RowCount)
	})

	t.Run("limit capped at maximum", func(t *testing.T) {
		a := newTestAdapter(t)
		v, err := a.Query(ctx, adapter.Arguments{"sql": "SELECT id FROM users", "limit": float64(5000)})
		require.NoError(t, err)
		assert.Equal(t, 150, v.(QueryResult).RowCount)
	})

	t.Run("values are JSON friendly", func(t *testing.T) {
		result := router.Dispatch(ctx, packs.Request{ToolName: "query", Arguments: map[string]any{
			"sql": "SELECT id, name, email, status FROM users WHERE id = 1", "limit": float64(1),
		}})
		require.False(t, result.IsError, result.Text())
		assert.JSONEq(t, `{"columns":["id","name","email","status"],"rows":[[1,"user",null,"active"]],"rowCount":1}`, result.Text())
	})

	t.Run("empty result", func(t *testing.T) {
		result := router.Dispatch(ctx, packs.Request{ToolName: "query", Arguments: map[string]any{"sql": "SELECT * FROM orders"}})
		require.False(t, result.IsError, result.Text())
		assert.JSONEq(t, `{"columns":["id","user_id","total"],"rows":[],"rowCount":0}`, result.Text())
	})

	t.Run("comment markers inside literals", func(t *testing.T) {
		result := router.Dispatch(ctx, packs.Request{ToolName: "query", Arguments: map[string]any{
			"sql": "SELECT name FROM users WHERE email IS NULL OR name = 'a--b'",
		}})
		require.False(t, result.IsError, result.Text())

		var out QueryResult
		require.NoError(t, json.Unmarshal([]byte(result.Text()), &out))
		assert.Equal(t, 100, out.RowCount)
	})

	t.Run("trailing line comment keeps limit", func(t *testing.T) {
		result := router.Dispatch(ctx, packs.Request{ToolName: "query", Arguments: map[string]any{
			"sql": "SELECT id FROM users -- all of them", "limit": float64(3),
		}})
		require.False(t, result.IsError, result.Text())

		var out QueryResult
		require.NoError(t, json.Unmarshal([]byte(result.Text()), &out))
		assert.Equal(t, 3, out.RowCount)
	})

	t.Run("write hidden behind a literal rejected", func(t *testing.T) {
		result := router.Dispatch(ctx, packs.Request{ToolName: "query", Arguments: map[string]any{
			"sql": "SELECT 1 LIMIT 1; SELECT '--'; DELETE FROM users",
		}})
		assert.True(t, result.IsError)
		assert.Equal(t, "Error executing query: Only SELECT queries are allowed", result.Text())
	})

	t.Run("write rejected", func(t *testing.T) {
		result := router.Dispatch(ctx, packs.Request{ToolName: "query", Arguments: map[string]any{"sql": "DELETE FROM users"}})
		assert.True(t, result.IsError)
		assert.Equal(t, "Error executing query: Only SELECT queries are allowed", result.Text())
	})

	t.Run("sql error reported", func(t *testing.T) {
		result := router.Dispatch(ctx, packs.Request{ToolName: "query", Arguments: map[string]any{"sql": "SELECT * FROM nope"}})
		assert.True(t, result.IsError)
		assert.Contains(t, result.Text(), "Error executing query: Query error:")
		assert.Contains(t, result.Text(), "no such table")
	})

	t.Run("missing sql", func(t *testing.T) {
		result := router.Dispatch(ctx, packs.Request{ToolName: "query", Arguments: map[string]any{}})
		assert.True(t, result.IsError)
		assert.Equal(t, "Missing required argument: sql", result.Text())
	})
}

func TestOpenMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "typo.db")

	_, err := Open(context.Background(), "sqlite://"+path)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), path)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "Open must not create the database file")
}

func TestFilePath(t *testing.T) {
	assert.Equal(t, "/var/data/app.db", filePath("file:/var/data/app.db?_pragma=query_only(1)"))
	assert.Equal(t, "/var/data/app.db", filePath("file:///var/data/app.db"))
	assert.Equal(t, "my db.db", filePath("file:my%20db.db?cache=shared"))
	assert.Empty(t, filePath("file::memory:?_pragma=query_only(1)"))
	assert.Empty(t, filePath("file:shared?mode=memory&cache=shared"))
}

func TestConnectionIsReadOnly(t *testing.T) {
	a := newTestAdapter(t)
	_, err := a.db.Exec(`INSERT INTO users (id, name) VALUES (999, 'x')`)
	require.Error(t, err, "query_only pragma must block writes that bypass the guard")
}

func TestListTables(t *testing.T) {
	router := newTestRouter(t)

	result := router.Dispatch(context.Background(), packs.Request{ToolName: "list_tables"})
	require.False(t, result.IsError, result.Text())
	assert.JSONEq(t, `{
		"schema": "main",
		"tables": [
			{"name": "active_users", "type": "view"},
			{"name": "orders", "type": "table"},
			{"name": "users", "type": "table"}
		],
		"total": 3
	}`, result.Text())

	result = router.Dispatch(context.Background(), packs.Request{ToolName: "list_tables", Arguments: map[string]any{"schema": "other"}})
	assert.True(t, result.IsError)
	assert.Equal(t, "Error executing list_tables: Schema 'other' not found", result.Text())

	result = router.Dispatch(context.Background(), packs.Request{ToolName: "list_tables", Arguments: map[string]any{"schema": "main; DROP"}})
	assert.True(t, result.IsError)
	assert.Contains(t, result.Text(), "invalid schema name")
}

func TestDescribeTable(t *testing.T) {
	router := newTestRouter(t)

	result := router.Dispatch(context.Background(), packs.Request{ToolName: "describe_table", Arguments: map[string]any{"table": "users"}})
	require.False(t, result.IsError, result.Text())
	assert.JSONEq(t, `{
		"schema": "main",
		"table": "users",
		"columns": [
			{"name": "id", "type": "INTEGER", "nullable": true, "default": null, "primaryKey": true},
			{"name": "name", "type": "TEXT", "nullable": false, "default": null, "primaryKey": false},
			{"name": "email", "type": "TEXT", "nullable": true, "default": null, "primaryKey": false},
			{"name": "status", "type": "TEXT", "nullable": true, "default": "'active'", "primaryKey": false}
		]
	}`, result.Text())

	result = router.Dispatch(context.Background(), packs.Request{ToolName: "describe_table", Arguments: map[string]any{"table": "ghosts"}})
	assert.True(t, result.IsError)
	assert.Equal(t, "Error executing describe_table: Table 'main.ghosts' not found", result.Text())
}

func TestTableStats(t *testing.T) {
	a := newTestAdapter(t)

	v, err := a.TableStats(context.Background(), adapter.Arguments{"table": "users"})
	require.NoError(t, err)
	stats := v.(TableStats)

	assert.Equal(t, "main", stats.Schema)
	assert.Equal(t, int64(150), stats.RowCount)
	assert.Equal(t, "150", stats.RowCountText)
	assert.Equal(t, 4, stats.ColumnCount)
	assert.Equal(t, 1, stats.IndexCount)
	assert.Greater(t, stats.DatabaseSize, uint64(0))
	assert.NotEmpty(t, stats.DatabaseSizeText)

	_, err = a.TableStats(context.Background(), adapter.Arguments{"table": "missing"})
	assert.Equal(t, adapter.KindInvalidArgument, adapter.KindOf(err))
}
