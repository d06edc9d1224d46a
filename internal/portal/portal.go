// ABOUTME: Azure Resource Manager tool pack backed by the az CLI.
// ABOUTME: Resources, resource groups, health, app services and storage accounts.

package portal

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/2389/cloud-mcp/internal/adapter"
	"github.com/2389/cloud-mcp/internal/catalog"
	"github.com/2389/cloud-mcp/internal/command"
	"github.com/2389/cloud-mcp/internal/packs"
)

// PackID keys the portal pack in the registry; ServerName and Version are
// reported in initialize when the pack is served alone.
const (
	PackID     = "portal"
	Version    = "1.0.0"
	ServerName = "azure-portal"
)

// Config selects the subscription and CLI binary.
type Config struct {
	SubscriptionID string
	AzPath         string
}

// NewCLI builds the az invocation shared by every portal tool.
func NewCLI(cfg Config, runner command.Runner) *command.CLI {
	path := cfg.AzPath
	if path == "" {
		path = "az"
	}
	var extra []string
	if cfg.SubscriptionID != "" {
		extra = append(extra, "--subscription", cfg.SubscriptionID)
	}
	extra = append(extra, "--output", "json")
	return &command.CLI{Runner: runner, Path: path, ExtraArgs: extra}
}

const groupFilterDesc = "Filter by resource group"

// Tools is the ordered catalog of portal tools.
var Tools = []catalog.Tool{
	{
		Name:        "list_resources",
		Description: "List Azure resources",
		InputSchema: catalog.Object(
			catalog.F("resourceGroup", catalog.String("Filter by resource group name")),
			catalog.F("resourceType", catalog.String("Filter by resource type (e.g., Microsoft.Web/sites)")),
		),
	},
	{
		Name:        "get_resource",
		Description: "Get details of a specific resource",
		InputSchema: catalog.Object(
			catalog.F("resourceId", catalog.String("Full resource ID or resource name")),
			catalog.F("resourceGroup", catalog.String("Resource group name (if using resource name)")),
			catalog.F("resourceType", catalog.String("Resource type (if using resource name)")),
		).Require("resourceId"),
	},
	{
		Name:        "list_resource_groups",
		Description: "List all resource groups in the subscription",
		InputSchema: catalog.Object(),
	},
	{
		Name:        "get_resource_health",
		Description: "Check health status of resources",
		InputSchema: catalog.Object(catalog.F("resourceGroup", catalog.String(groupFilterDesc))),
	},
	{
		Name:        "list_app_services",
		Description: "List Azure App Services",
		InputSchema: catalog.Object(catalog.F("resourceGroup", catalog.String(groupFilterDesc))),
	},
	{
		Name:        "list_storage_accounts",
		Description: "List Azure Storage Accounts",
		InputSchema: catalog.Object(catalog.F("resourceGroup", catalog.String(groupFilterDesc))),
	},
}

// Adapter executes portal tools through the CLI.
type Adapter struct {
	cli *command.CLI
}

// New creates an Adapter.
func New(cli *command.CLI) *Adapter {
	return &Adapter{cli: cli}
}

// NewPack binds the portal catalog to an Adapter.
func NewPack(cli *command.CLI) *packs.Pack {
	a := New(cli)
	handlers := map[string]adapter.Handler{
		"list_resources":        a.ListResources,
		"get_resource":          a.GetResource,
		"list_resource_groups":  a.ListResourceGroups,
		"get_resource_health":   a.GetResourceHealth,
		"list_app_services":     a.ListAppServices,
		"list_storage_accounts": a.ListStorageAccounts,
	}
	pack := &packs.Pack{ID: PackID, Version: Version}
	for _, def := range Tools {
		pack.Tools = append(pack.Tools, &packs.Tool{Definition: def, Handler: handlers[def.Name]})
	}
	return pack
}

// withGroup appends --resource-group when the caller supplied one.
func withGroup(cmd []string, args adapter.Arguments) []string {
	if g := args.StringOr("resourceGroup", ""); g != "" {
		cmd = append(cmd, "--resource-group", g)
	}
	return cmd
}

// ListResources lists resources, optionally filtered by group and type.
func (a *Adapter) ListResources(ctx context.Context, args adapter.Arguments) (any, error) {
	cmd := withGroup([]string{"resource", "list"}, args)
	if rt := args.StringOr("resourceType", ""); rt != "" {
		cmd = append(cmd, "--resource-type", rt)
	}
	var resources []Resource
	if err := a.cli.RunJSON(ctx, &resources, cmd...); err != nil {
		return nil, err
	}
	return SummarizeResources(resources), nil
}

// GetResource shows one resource by full ID, or by name with group and type.
func (a *Adapter) GetResource(ctx context.Context, args adapter.Arguments) (any, error) {
	id, _ := args.String("resourceId")
	group := args.StringOr("resourceGroup", "")
	rtype := args.StringOr("resourceType", "")

	var cmd []string
	switch {
	case strings.HasPrefix(id, "/subscriptions/"):
		cmd = []string{"resource", "show", "--ids", id}
	case group != "" && rtype != "":
		cmd = []string{"resource", "show", "--name", id, "--resource-group", group, "--resource-type", rtype}
	default:
		return nil, adapter.Errorf(adapter.KindInvalidArgument,
			"Either provide full resource ID or resource name with resourceGroup and resourceType")
	}

	var out json.RawMessage
	if err := a.cli.RunJSON(ctx, &out, cmd...); err != nil {
		return nil, err
	}
	return out, nil
}

// ListResourceGroups lists every resource group in the subscription.
func (a *Adapter) ListResourceGroups(ctx context.Context, args adapter.Arguments) (any, error) {
	var groups []ResourceGroup
	if err := a.cli.RunJSON(ctx, &groups, "group", "list"); err != nil {
		return nil, err
	}
	return SummarizeResourceGroups(groups), nil
}

// GetResourceHealth reports provisioning state per resource.
func (a *Adapter) GetResourceHealth(ctx context.Context, args adapter.Arguments) (any, error) {
	var resources []Resource
	if err := a.cli.RunJSON(ctx, &resources, withGroup([]string{"resource", "list"}, args)...); err != nil {
		return nil, err
	}
	return SummarizeHealth(resources), nil
}

// ListAppServices lists web apps.
func (a *Adapter) ListAppServices(ctx context.Context, args adapter.Arguments) (any, error) {
	var apps []WebApp
	if err := a.cli.RunJSON(ctx, &apps, withGroup([]string{"webapp", "list"}, args)...); err != nil {
		return nil, err
	}
	return SummarizeWebApps(apps), nil
}

// ListStorageAccounts lists storage accounts.
func (a *Adapter) ListStorageAccounts(ctx context.Context, args adapter.Arguments) (any, error) {
	var accounts []StorageAccount
	if err := a.cli.RunJSON(ctx, &accounts, withGroup([]string{"storage", "account", "list"}, args)...); err != nil {
		return nil, err
	}
	return SummarizeStorageAccounts(accounts), nil
}
