// ABOUTME: Demo API tool pack: get_user, search and list_items over a pluggable Backend.
// ABOUTME: The backend is chosen at startup: simulated, HTTPS client or external command.

package demoapi

import (
	"context"

	"github.com/2389/cloud-mcp/internal/adapter"
	"github.com/2389/cloud-mcp/internal/catalog"
	"github.com/2389/cloud-mcp/internal/packs"
)

// PackID keys the demo pack in the registry; ServerName and Version are
// reported in initialize when the pack is served alone.
const (
	PackID     = "demo"
	Version    = "1.0.0"
	ServerName = "demo-api"
)

// Tools is the ordered catalog of demo tools.
var Tools = []catalog.Tool{
	{
		Name:        "get_user",
		Description: "Fetch user information from the API",
		InputSchema: catalog.Object(
			catalog.F("userId", catalog.String("The ID of the user to fetch")),
		).Require("userId"),
	},
	{
		Name:        "search",
		Description: "Search for items in the API",
		InputSchema: catalog.Object(
			catalog.F("query", catalog.String("Search query string")),
			catalog.F("category", catalog.String("Optional category filter")),
			catalog.F("limit", catalog.Integer("Maximum number of results").WithDefault(10)),
		).Require("query"),
	},
	{
		Name:        "list_items",
		Description: "List items with optional filters",
		InputSchema: catalog.Object(
			catalog.F("category", catalog.String("Filter by category")),
			catalog.F("page", catalog.Integer("Page number").WithDefault(1)),
			catalog.F("pageSize", catalog.Integer("Items per page").WithDefault(20)),
		),
	},
}

// NewPack binds the demo catalog to a backend.
func NewPack(backend Backend) *packs.Pack {
	handlers := map[string]adapter.Handler{
		"get_user": func(ctx context.Context, args adapter.Arguments) (any, error) {
			id, _ := args.String("userId")
			return backend.GetUser(ctx, id)
		},
		"search": func(ctx context.Context, args adapter.Arguments) (any, error) {
			query, _ := args.String("query")
			limit, err := args.IntOr("limit", 10)
			if err != nil {
				return nil, err
			}
			return backend.Search(ctx, SearchParams{
				Query:    query,
				Category: args.StringOr("category", ""),
				Limit:    limit,
			})
		},
		"list_items": func(ctx context.Context, args adapter.Arguments) (any, error) {
			page, err := args.IntOr("page", 1)
			if err != nil {
				return nil, err
			}
			size, err := args.IntOr("pageSize", 20)
			if err != nil {
				return nil, err
			}
			return backend.ListItems(ctx, ListParams{
				Category: args.StringOr("category", ""),
				Page:     page,
				PageSize: size,
			})
		},
	}

	pack := &packs.Pack{ID: PackID, Version: Version}
	for _, def := range Tools {
		pack.Tools = append(pack.Tools, &packs.Tool{Definition: def, Handler: handlers[def.Name]})
	}
	return pack
}
