// ABOUTME: Read-only SQLite tool pack: ad-hoc SELECT queries and schema inspection.
// ABOUTME: Connections are opened with query_only so the guard is not the only line of defense.

package database

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	_ "modernc.org/sqlite"

	"github.com/2389/cloud-mcp/internal/adapter"
	"github.com/2389/cloud-mcp/internal/catalog"
	"github.com/2389/cloud-mcp/internal/packs"
)

// PackID keys the database pack in the registry; ServerName and Version are
// reported in initialize when the pack is served alone.
const (
	PackID     = "database"
	Version    = "1.0.0"
	ServerName = "database"

	// DefaultSchema is the schema name of the primary SQLite database.
	DefaultSchema = "main"

	// DefaultQueryTimeout bounds one statement.
	DefaultQueryTimeout = 30 * time.Second
)

// ErrNoDatabaseURL indicates DATABASE_URL was empty.
var ErrNoDatabaseURL = errors.New("DATABASE_URL environment variable is required")

// DSN converts a database URL into a modernc DSN with read-only pragmas.
// Accepted forms: sqlite://path, sqlite:path, file:path?..., or a bare path.
func DSN(databaseURL string) (string, error) {
	u := strings.TrimSpace(databaseURL)
	if u == "" {
		return "", ErrNoDatabaseURL
	}
	switch {
	case strings.HasPrefix(u, "sqlite://"):
		u = "file:" + strings.TrimPrefix(u, "sqlite://")
	case strings.HasPrefix(u, "sqlite:"):
		u = "file:" + strings.TrimPrefix(u, "sqlite:")
	case strings.HasPrefix(u, "file:"):
	case strings.Contains(u, "://"):
		return "", fmt.Errorf("unsupported database url scheme in %q (want sqlite:// or a file path)", redact(u))
	default:
		u = "file:" + u
	}

	sep := "?"
	if strings.Contains(u, "?") {
		sep = "&"
	}
	return u + sep + "_pragma=query_only(1)&_pragma=busy_timeout(5000)", nil
}

// filePath extracts the on-disk path from a file: DSN. It returns "" for
// in-memory databases.
func filePath(dsn string) string {
	p, query, _ := strings.Cut(strings.TrimPrefix(dsn, "file:"), "?")
	if strings.HasPrefix(p, "///") {
		p = p[2:]
	}
	if p == "" || strings.HasPrefix(p, ":memory:") || strings.Contains(query, "mode=memory") {
		return ""
	}
	if unescaped, err := url.PathUnescape(p); err == nil {
		p = unescaped
	}
	return p
}

// redact hides anything that looks like credentials in a URL.
func redact(u string) string {
	if at := strings.LastIndex(u, "@"); at >= 0 {
		if scheme := strings.Index(u, "://"); scheme >= 0 && scheme < at {
			return u[:scheme+3] + "***" + u[at:]
		}
	}
	return u
}

// Open connects to the database and verifies it is reachable. The file must
// already exist; a mistyped path fails here instead of creating an empty database.
func Open(ctx context.Context, databaseURL string) (*sql.DB, error) {
	dsn, err := DSN(databaseURL)
	if err != nil {
		return nil, err
	}
	if path := filePath(dsn); path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("database file %s: %w", path, err)
		}
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(10)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	return db, nil
}

const schemaDesc = "Schema name (default: main)"

// Tools is the ordered catalog of database tools.
var Tools = []catalog.Tool{
	{
		Name:        "query",
		Description: "Execute a read-only SQL query on the database",
		InputSchema: catalog.Object(
			catalog.F("sql", catalog.String("The SQL query to execute (must be a SELECT statement)")),
			catalog.F("limit", catalog.Integer("Maximum number of rows to return (default: 100, max: 1000)").WithDefault(DefaultLimit)),
		).Require("sql"),
	},
	{
		Name:        "list_tables",
		Description: "List all tables in the database",
		InputSchema: catalog.Object(
			catalog.F("schema", catalog.String("Filter by schema name (default: main)").WithDefault(DefaultSchema)),
		),
	},
	{
		Name:        "describe_table",
		Description: "Show the schema/structure of a specific table",
		InputSchema: catalog.Object(
			catalog.F("table", catalog.String("Name of the table to describe")),
			catalog.F("schema", catalog.String(schemaDesc).WithDefault(DefaultSchema)),
		).Require("table"),
	},
	{
		Name:        "get_table_stats",
		Description: "Get statistics about a table (row count, size, etc.)",
		InputSchema: catalog.Object(
			catalog.F("table", catalog.String("Name of the table")),
			catalog.F("schema", catalog.String(schemaDesc).WithDefault(DefaultSchema)),
		).Require("table"),
	},
}

// Adapter serves database tools from one connection pool.
type Adapter struct {
	db           *sql.DB
	queryTimeout time.Duration
	logger       *slog.Logger
}

// New creates an Adapter. A zero timeout uses DefaultQueryTimeout.
func New(db *sql.DB, queryTimeout time.Duration, logger *slog.Logger) *Adapter {
	if queryTimeout <= 0 {
		queryTimeout = DefaultQueryTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{db: db, queryTimeout: queryTimeout, logger: logger.With("component", "database")}
}

// NewPack binds the database catalog to an Adapter.
func NewPack(a *Adapter) *packs.Pack {
	handlers := map[string]adapter.Handler{
		"query":           a.Query,
		"list_tables":     a.ListTables,
		"describe_table":  a.DescribeTable,
		"get_table_stats": a.TableStats,
	}
	pack := &packs.Pack{ID: PackID, Version: Version}
	for _, def := range Tools {
		pack.Tools = append(pack.Tools, &packs.Tool{Definition: def, Handler: handlers[def.Name]})
	}
	return pack
}

// QueryResult is the output of the query tool.
type QueryResult struct {
	Columns  []string `json:"columns"`
	Rows     [][]any  `json:"rows"`
	RowCount int      `json:"rowCount"`
}

// Query runs a read-only statement.
func (a *Adapter) Query(ctx context.Context, args adapter.Arguments) (any, error) {
	stmt, _ := args.String("sql")
	stmt = strings.TrimSpace(stmt)
	limit, err := args.IntOr("limit", DefaultLimit)
	if err != nil {
		return nil, err
	}

	if stmt == "" {
		return nil, adapter.Errorf(adapter.KindInvalidArgument, "sql must not be empty")
	}
	if !IsReadOnly(stmt) {
		return nil, adapter.Errorf(adapter.KindInvalidArgument, "Only SELECT queries are allowed")
	}
	stmt = ApplyLimit(stmt, ClampLimit(limit))

	ctx, cancel := context.WithTimeout(ctx, a.queryTimeout)
	defer cancel()

	a.logger.Debug("running query", "sql", stmt)
	rows, err := a.db.QueryContext(ctx, stmt)
	if err != nil {
		return nil, queryError(err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, queryError(err)
	}

	result := QueryResult{Columns: cols, Rows: [][]any{}}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, queryError(err)
		}
		for i, v := range vals {
			vals[i] = normalizeValue(v)
		}
		result.Rows = append(result.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError(err)
	}
	result.RowCount = len(result.Rows)
	return result, nil
}

// TableInfo is one entry of list_tables output.
type TableInfo struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// TableList is the output of list_tables.
type TableList struct {
	Schema string      `json:"schema"`
	Tables []TableInfo `json:"tables"`
	Total  int         `json:"total"`
}

// ListTables lists tables and views in a schema.
func (a *Adapter) ListTables(ctx context.Context, args adapter.Arguments) (any, error) {
	schema, err := a.schemaArg(ctx, args)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, a.queryTimeout)
	defer cancel()

	q := fmt.Sprintf(`SELECT name, type FROM %s.sqlite_master
		WHERE type IN ('table', 'view') AND name NOT LIKE 'sqlite_%%'
		ORDER BY name`, quoteIdent(schema))
	rows, err := a.db.QueryContext(ctx, q)
	if err != nil {
		return nil, queryError(err)
	}
	defer rows.Close()

	list := TableList{Schema: schema, Tables: []TableInfo{}}
	for rows.Next() {
		var t TableInfo
		if err := rows.Scan(&t.Name, &t.Type); err != nil {
			return nil, queryError(err)
		}
		list.Tables = append(list.Tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError(err)
	}
	list.Total = len(list.Tables)
	return list, nil
}

// Column describes one table column.
type Column struct {
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	Nullable   bool    `json:"nullable"`
	Default    *string `json:"default"`
	PrimaryKey bool    `json:"primaryKey"`
}

// TableDescription is the output of describe_table.
type TableDescription struct {
	Schema  string   `json:"schema"`
	Table   string   `json:"table"`
	Columns []Column `json:"columns"`
}

// DescribeTable lists the columns of a table.
func (a *Adapter) DescribeTable(ctx context.Context, args adapter.Arguments) (any, error) {
	schema, table, err := a.tableArgs(ctx, args)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, a.queryTimeout)
	defer cancel()

	cols, err := a.columns(ctx, schema, table)
	if err != nil {
		return nil, err
	}
	return TableDescription{Schema: schema, Table: table, Columns: cols}, nil
}

// TableStats is the output of get_table_stats.
type TableStats struct {
	Schema           string `json:"schema"`
	Table            string `json:"table"`
	RowCount         int64  `json:"rowCount"`
	RowCountText     string `json:"rowCountText"`
	ColumnCount      int    `json:"columnCount"`
	IndexCount       int    `json:"indexCount"`
	DatabaseSize     uint64 `json:"databaseSizeBytes"`
	DatabaseSizeText string `json:"databaseSize"`
	TableSize        string `json:"tableSize,omitempty"`
}

// TableStats reports row, column and index counts plus storage sizes.
func (a *Adapter) TableStats(ctx context.Context, args adapter.Arguments) (any, error) {
	schema, table, err := a.tableArgs(ctx, args)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, a.queryTimeout)
	defer cancel()

	stats := TableStats{Schema: schema, Table: table}
	qs, qt := quoteIdent(schema), quoteIdent(table)

	if err := a.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s.%s`, qs, qt)).Scan(&stats.RowCount); err != nil {
		return nil, queryError(err)
	}
	stats.RowCountText = humanize.Comma(stats.RowCount)

	cols, err := a.columns(ctx, schema, table)
	if err != nil {
		return nil, err
	}
	stats.ColumnCount = len(cols)

	if err := a.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM %s.sqlite_master WHERE type = 'index' AND tbl_name = ?`, qs), table,
	).Scan(&stats.IndexCount); err != nil {
		return nil, queryError(err)
	}

	var pageCount, pageSize int64
	if err := a.db.QueryRowContext(ctx, fmt.Sprintf(`PRAGMA %s.page_count`, qs)).Scan(&pageCount); err != nil {
		return nil, queryError(err)
	}
	if err := a.db.QueryRowContext(ctx, fmt.Sprintf(`PRAGMA %s.page_size`, qs)).Scan(&pageSize); err != nil {
		return nil, queryError(err)
	}
	stats.DatabaseSize = uint64(pageCount * pageSize)
	stats.DatabaseSizeText = humanize.Bytes(stats.DatabaseSize)

	// dbstat is only available when SQLite was built with it.
	var tableBytes sql.NullInt64
	err = a.db.QueryRowContext(ctx, `SELECT SUM(pgsize) FROM dbstat WHERE name = ? AND schema = ?`, table, schema).Scan(&tableBytes)
	if err == nil && tableBytes.Valid {
		stats.TableSize = humanize.Bytes(uint64(tableBytes.Int64))
	}

	return stats, nil
}

func (a *Adapter) columns(ctx context.Context, schema, table string) ([]Column, error) {
	rows, err := a.db.QueryContext(ctx,
		`SELECT name, type, "notnull", dflt_value, pk FROM pragma_table_info(?, ?)`, table, schema)
	if err != nil {
		return nil, queryError(err)
	}
	defer rows.Close()

	var cols []Column
	for rows.Next() {
		var (
			c       Column
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&c.Name, &c.Type, &notNull, &dflt, &pk); err != nil {
			return nil, queryError(err)
		}
		c.Nullable = notNull == 0
		c.PrimaryKey = pk > 0
		if dflt.Valid {
			c.Default = &dflt.String
		}
		cols = append(cols, c)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError(err)
	}
	if len(cols) == 0 {
		return nil, adapter.Errorf(adapter.KindInvalidArgument, "Table '%s.%s' not found", schema, table)
	}
	return cols, nil
}

// schemaArg validates the schema argument and checks that it is attached.
func (a *Adapter) schemaArg(ctx context.Context, args adapter.Arguments) (string, error) {
	schema := args.StringOr("schema", DefaultSchema)
	if !ValidIdentifier(schema) {
		return "", adapter.Errorf(adapter.KindInvalidArgument, "invalid schema name %q", schema)
	}

	var n int
	err := a.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pragma_database_list WHERE name = ?`, schema).Scan(&n)
	if err != nil {
		return "", queryError(err)
	}
	if n == 0 {
		return "", adapter.Errorf(adapter.KindInvalidArgument, "Schema '%s' not found", schema)
	}
	return schema, nil
}

func (a *Adapter) tableArgs(ctx context.Context, args adapter.Arguments) (schema, table string, err error) {
	schema, err = a.schemaArg(ctx, args)
	if err != nil {
		return "", "", err
	}
	table, _ = args.String("table")
	if !ValidIdentifier(table) {
		return "", "", adapter.Errorf(adapter.KindInvalidArgument, "invalid table name %q", table)
	}

	var n int
	err = a.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM %s.sqlite_master WHERE type IN ('table', 'view') AND name = ?`, quoteIdent(schema)), table,
	).Scan(&n)
	if err != nil {
		return "", "", queryError(err)
	}
	if n == 0 {
		return "", "", adapter.Errorf(adapter.KindInvalidArgument, "Table '%s.%s' not found", schema, table)
	}
	return schema, table, nil
}

// queryError classifies a database/sql failure.
func queryError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return adapter.Wrap(adapter.KindBackendUnavailable, err, "query timed out")
	}
	if errors.Is(err, sql.ErrConnDone) {
		return adapter.Wrap(adapter.KindBackendUnavailable, err, "database connection closed")
	}
	return adapter.Wrap(adapter.KindCommandFailed, err, "Query error")
}

// normalizeValue makes driver values JSON friendly.
func normalizeValue(v any) any {
	switch x := v.(type) {
	case []byte:
		if utf8.Valid(x) {
			return string(x)
		}
		return base64.StdEncoding.EncodeToString(x)
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	default:
		return v
	}
}
