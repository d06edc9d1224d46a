// ABOUTME: Backend that delegates demo operations to an external JSON-emitting executable.
// ABOUTME: Invoked as `<exe> <operation> --flag value ...`, with the standard CLI error policy.

package demoapi

import (
	"context"
	"strconv"

	"github.com/2389/cloud-mcp/internal/command"
)

// CommandBackend runs one executable per call.
type CommandBackend struct {
	CLI *command.CLI
}

// NewCommandBackend wraps cli as a Backend.
func NewCommandBackend(cli *command.CLI) *CommandBackend {
	return &CommandBackend{CLI: cli}
}

// GetUser runs `<exe> get-user --id ID`.
func (b *CommandBackend) GetUser(ctx context.Context, userID string) (*User, error) {
	var u User
	if err := b.CLI.RunJSON(ctx, &u, "get-user", "--id", userID); err != nil {
		return nil, err
	}
	return &u, nil
}

// Search runs `<exe> search --query Q [--category C] --limit N`.
func (b *CommandBackend) Search(ctx context.Context, p SearchParams) (*SearchResult, error) {
	args := []string{"search", "--query", p.Query}
	if p.Category != "" {
		args = append(args, "--category", p.Category)
	}
	args = append(args, "--limit", strconv.Itoa(p.Limit))

	var res SearchResult
	if err := b.CLI.RunJSON(ctx, &res, args...); err != nil {
		return nil, err
	}
	return &res, nil
}

// ListItems runs `<exe> list-items [--category C] --page P --page-size S`.
func (b *CommandBackend) ListItems(ctx context.Context, p ListParams) (*ItemPage, error) {
	args := []string{"list-items"}
	if p.Category != "" {
		args = append(args, "--category", p.Category)
	}
	args = append(args, "--page", strconv.Itoa(p.Page), "--page-size", strconv.Itoa(p.PageSize))

	var page ItemPage
	if err := b.CLI.RunJSON(ctx, &page, args...); err != nil {
		return nil, err
	}
	return &page, nil
}
