// ABOUTME: Store interface and data types for the tool-call audit log
// ABOUTME: Defines ToolCall records, filters and per-tool summaries

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ToolCall is one dispatched tool invocation.
type ToolCall struct {
	ID        string         // UUID v4
	RequestID string         // correlation id shared with log lines
	ToolName  string         // requested tool, possibly unknown
	PackID    string         // empty for unknown tools
	Arguments map[string]any // arguments as received
	StartedAt time.Time
	Duration  time.Duration
	IsError   bool
	ErrorKind string // UnknownTool, MissingRequiredArgument or an adapter kind
	Message   string // error text, empty on success
}

// ToolCallFilter specifies filtering options for listing tool calls.
type ToolCallFilter struct {
	Since      *time.Time // calls started at or after this time
	ToolName   string     // exact tool name
	PackID     string     // exact pack id
	ErrorsOnly bool       // only failed calls
	Limit      int        // max results (default 100, max 1000)
}

// ToolSummary aggregates calls for one tool.
type ToolSummary struct {
	ToolName        string
	Calls           int
	Errors          int
	AverageDuration time.Duration
	LastCalledAt    time.Time
}

// Store persists tool-call records.
type Store interface {
	RecordToolCall(ctx context.Context, c *ToolCall) error
	GetToolCall(ctx context.Context, id string) (*ToolCall, error)
	ListToolCalls(ctx context.Context, f ToolCallFilter) ([]ToolCall, error)
	SummarizeToolCalls(ctx context.Context, since *time.Time) ([]ToolSummary, error)
	Close() error
}

var _ Store = (*SQLiteStore)(nil)
