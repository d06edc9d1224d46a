// ABOUTME: Tool-call audit log store methods
// ABOUTME: Records which tool ran, with what arguments, how long it took and how it failed

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// timeFormat is fixed width so stored timestamps sort lexically.
const timeFormat = "2006-01-02T15:04:05.000000000Z"

// maxMessageLen bounds the stored error text.
const maxMessageLen = 4096

// RecordToolCall appends a call to the audit log.
// Generates ID and StartedAt if not set.
func (s *SQLiteStore) RecordToolCall(ctx context.Context, c *ToolCall) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.StartedAt.IsZero() {
		c.StartedAt = time.Now().UTC()
	}

	var argsJSON *string
	if c.Arguments != nil {
		data, err := json.Marshal(c.Arguments)
		if err != nil {
			return fmt.Errorf("marshaling tool arguments: %w", err)
		}
		str := string(data)
		argsJSON = &str
	}

	msg := truncateMessage(c.Message, maxMessageLen)

	query := `
		INSERT INTO tool_calls (call_id, request_id, tool_name, pack_id, arguments_json, started_at, duration_us, is_error, error_kind, message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		c.ID,
		c.RequestID,
		c.ToolName,
		c.PackID,
		argsJSON,
		c.StartedAt.UTC().Format(timeFormat),
		c.Duration.Microseconds(),
		c.IsError,
		c.ErrorKind,
		msg,
	)
	if err != nil {
		return fmt.Errorf("inserting tool call: %w", err)
	}

	s.logger.Debug("recorded tool call",
		"id", c.ID,
		"request_id", c.RequestID,
		"tool_name", c.ToolName,
		"is_error", c.IsError,
	)
	return nil
}

// normalizeLimit applies default (100) and cap (1000) to a list limit.
func normalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return 100
	case limit > 1000:
		return 1000
	default:
		return limit
	}
}

const toolCallColumns = `call_id, request_id, tool_name, pack_id, arguments_json, started_at, duration_us, is_error, error_kind, message`

// scanToolCall scans a row into a ToolCall.
func scanToolCall(scanner interface{ Scan(dest ...any) error }) (ToolCall, error) {
	var (
		c          ToolCall
		argsJSON   sql.NullString
		startedStr string
		durationUS int64
	)

	if err := scanner.Scan(
		&c.ID,
		&c.RequestID,
		&c.ToolName,
		&c.PackID,
		&argsJSON,
		&startedStr,
		&durationUS,
		&c.IsError,
		&c.ErrorKind,
		&c.Message,
	); err != nil {
		return c, fmt.Errorf("scanning tool call: %w", err)
	}

	var err error
	c.StartedAt, err = time.Parse(timeFormat, startedStr)
	if err != nil {
		return c, fmt.Errorf("parsing timestamp: %w", err)
	}
	c.Duration = time.Duration(durationUS) * time.Microsecond

	if argsJSON.Valid {
		if err := json.Unmarshal([]byte(argsJSON.String), &c.Arguments); err != nil {
			return c, fmt.Errorf("unmarshaling arguments: %w", err)
		}
	}
	return c, nil
}

// GetToolCall returns a single call by ID.
func (s *SQLiteStore) GetToolCall(ctx context.Context, id string) (*ToolCall, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+toolCallColumns+` FROM tool_calls WHERE call_id = ?`, id)
	c, err := scanToolCall(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

const toolCallQuery = `
	SELECT ` + toolCallColumns + `
	FROM tool_calls
	WHERE (? IS NULL OR started_at >= ?)
	  AND (? = '' OR tool_name = ?)
	  AND (? = '' OR pack_id = ?)
	  AND (? = 0 OR is_error = 1)
	ORDER BY started_at DESC
	LIMIT ?
`

// ListToolCalls returns calls matching the filter criteria.
// Results are returned newest first.
func (s *SQLiteStore) ListToolCalls(ctx context.Context, f ToolCallFilter) ([]ToolCall, error) {
	var since *string
	if f.Since != nil {
		str := f.Since.UTC().Format(timeFormat)
		since = &str
	}

	rows, err := s.db.QueryContext(ctx, toolCallQuery,
		since, since,
		f.ToolName, f.ToolName,
		f.PackID, f.PackID,
		f.ErrorsOnly,
		normalizeLimit(f.Limit),
	)
	if err != nil {
		return nil, fmt.Errorf("querying tool calls: %w", err)
	}
	defer func() { _ = rows.Close() }()

	calls := []ToolCall{}
	for rows.Next() {
		c, err := scanToolCall(rows)
		if err != nil {
			return nil, err
		}
		calls = append(calls, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tool calls: %w", err)
	}
	return calls, nil
}

const summaryQuery = `
	SELECT tool_name, COUNT(*), SUM(is_error), AVG(duration_us), MAX(started_at)
	FROM tool_calls
	WHERE (? IS NULL OR started_at >= ?)
	GROUP BY tool_name
	ORDER BY COUNT(*) DESC, tool_name
`

// SummarizeToolCalls aggregates calls per tool, busiest first.
func (s *SQLiteStore) SummarizeToolCalls(ctx context.Context, since *time.Time) ([]ToolSummary, error) {
	var sinceStr *string
	if since != nil {
		str := since.UTC().Format(timeFormat)
		sinceStr = &str
	}

	rows, err := s.db.QueryContext(ctx, summaryQuery, sinceStr, sinceStr)
	if err != nil {
		return nil, fmt.Errorf("summarizing tool calls: %w", err)
	}
	defer func() { _ = rows.Close() }()

	summaries := []ToolSummary{}
	for rows.Next() {
		var (
			sum     ToolSummary
			avgUS   float64
			lastStr string
		)
		if err := rows.Scan(&sum.ToolName, &sum.Calls, &sum.Errors, &avgUS, &lastStr); err != nil {
			return nil, fmt.Errorf("scanning summary: %w", err)
		}
		sum.AverageDuration = time.Duration(avgUS) * time.Microsecond
		if sum.LastCalledAt, err = time.Parse(timeFormat, lastStr); err != nil {
			return nil, fmt.Errorf("parsing timestamp: %w", err)
		}
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating summaries: %w", err)
	}
	return summaries, nil
}

// truncateMessage cuts s to at most n bytes without splitting a UTF-8 rune.
func truncateMessage(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
