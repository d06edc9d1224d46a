// ABOUTME: Adapts a Store into a router observer that persists every tool call.
// ABOUTME: Recording failures are logged and never affect the call result.

package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/2389/cloud-mcp/internal/packs"
)

// recordTimeout bounds a single audit write.
const recordTimeout = 5 * time.Second

// Recorder writes packs.CallRecord values to a Store.
type Recorder struct {
	store  Store
	logger *slog.Logger
}

// NewRecorder creates a Recorder for the given store.
func NewRecorder(s Store, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{store: s, logger: logger.With("component", "audit")}
}

var _ packs.Observer = (*Recorder)(nil)

// ObserveCall implements packs.Observer.
func (r *Recorder) ObserveCall(ctx context.Context, rec packs.CallRecord) {
	// The call context may already be cancelled; the write should still land.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	err := r.store.RecordToolCall(ctx, &ToolCall{
		RequestID: rec.RequestID,
		ToolName:  rec.ToolName,
		PackID:    rec.PackID,
		Arguments: rec.Arguments,
		StartedAt: rec.StartedAt,
		Duration:  rec.Duration,
		IsError:   rec.IsError,
		ErrorKind: rec.ErrorKind,
		Message:   rec.Message,
	})
	if err != nil {
		r.logger.Warn("failed to record tool call",
			"request_id", rec.RequestID,
			"tool_name", rec.ToolName,
			"error", err,
		)
	}
}
