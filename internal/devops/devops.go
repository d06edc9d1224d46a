// ABOUTME: Azure DevOps tool pack backed by the az CLI devops extension.
// ABOUTME: Builds, work items, pull requests and releases for one organization.

package devops

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/2389/cloud-mcp/internal/adapter"
	"github.com/2389/cloud-mcp/internal/catalog"
	"github.com/2389/cloud-mcp/internal/command"
	"github.com/2389/cloud-mcp/internal/packs"
)

// PackID identifies this pack in the registry and on the command line.
const PackID = "devops"

// Version is reported in serverInfo when this pack is served alone.
const Version = "1.0.0"

// ServerName is the MCP implementation name used when serving only this pack.
const ServerName = "azure-devops"

// Config holds the organization and credentials for the CLI.
type Config struct {
	Organization string
	PAT          string
	AzPath       string
}

// OrgURL returns the organization URL passed as --org.
func (c Config) OrgURL() string {
	org := strings.TrimSpace(c.Organization)
	if strings.HasPrefix(org, "https://") {
		return strings.TrimSuffix(org, "/")
	}
	return "https://dev.azure.com/" + org
}

// NewCLI builds the az invocation shared by every devops tool.
func NewCLI(cfg Config, runner command.Runner) *command.CLI {
	path := cfg.AzPath
	if path == "" {
		path = "az"
	}
	return &command.CLI{
		Runner:    runner,
		Path:      path,
		ExtraArgs: []string{"--output", "json", "--org", cfg.OrgURL()},
		Env:       []string{"AZURE_DEVOPS_EXT_PAT=" + cfg.PAT},
	}
}

const projectDesc = "The name of the Azure DevOps project"

// Tools is the ordered catalog of devops tools.
var Tools = []catalog.Tool{
	{
		Name:        "list_builds",
		Description: "List recent builds for a project",
		InputSchema: catalog.Object(
			catalog.F("project", catalog.String(projectDesc)),
			catalog.F("top", catalog.Number("Number of builds to return").WithDefault(10)),
			catalog.F("status", catalog.String("Filter by build status").WithEnum("succeeded", "failed", "canceled", "inProgress")),
		).Require("project"),
	},
	{
		Name:        "get_build",
		Description: "Get detailed information about a specific build",
		InputSchema: catalog.Object(
			catalog.F("project", catalog.String(projectDesc)),
			catalog.F("buildId", catalog.Number("The ID of the build")),
		).Require("project", "buildId"),
	},
	{
		Name:        "list_work_items",
		Description: "Query work items using WIQL",
		InputSchema: catalog.Object(
			catalog.F("project", catalog.String(projectDesc)),
			catalog.F("wiql", catalog.String("WIQL query string")),
		).Require("project", "wiql"),
	},
	{
		Name:        "get_work_item",
		Description: "Get details of a specific work item",
		InputSchema: catalog.Object(
			catalog.F("project", catalog.String(projectDesc)),
			catalog.F("workItemId", catalog.Number("The ID of the work item")),
		).Require("project", "workItemId"),
	},
	{
		Name:        "list_pull_requests",
		Description: "List pull requests for a repository",
		InputSchema: catalog.Object(
			catalog.F("project", catalog.String(projectDesc)),
			catalog.F("repository", catalog.String("The name of the repository")),
			catalog.F("status", catalog.String("Filter by PR status").WithEnum("active", "completed", "abandoned", "all").WithDefault("active")),
		).Require("project", "repository"),
	},
	{
		Name:        "list_releases",
		Description: "List release pipeline runs",
		InputSchema: catalog.Object(
			catalog.F("project", catalog.String(projectDesc)),
			catalog.F("definitionId", catalog.Number("Specific release definition ID (optional)")),
			catalog.F("top", catalog.Number("Number of releases to return").WithDefault(10)),
		).Require("project"),
	},
}

// Adapter executes devops tools through the CLI.
type Adapter struct {
	cli *command.CLI
}

// New creates an Adapter.
func New(cli *command.CLI) *Adapter {
	return &Adapter{cli: cli}
}

// NewPack binds the devops catalog to an Adapter.
func NewPack(cli *command.CLI) *packs.Pack {
	a := New(cli)
	handlers := map[string]adapter.Handler{
		"list_builds":        a.ListBuilds,
		"get_build":          a.GetBuild,
		"list_work_items":    a.ListWorkItems,
		"get_work_item":      a.GetWorkItem,
		"list_pull_requests": a.ListPullRequests,
		"list_releases":      a.ListReleases,
	}
	pack := &packs.Pack{ID: PackID, Version: Version}
	for _, def := range Tools {
		pack.Tools = append(pack.Tools, &packs.Tool{Definition: def, Handler: handlers[def.Name]})
	}
	return pack
}

// ListBuilds returns a summary of recent builds.
func (a *Adapter) ListBuilds(ctx context.Context, args adapter.Arguments) (any, error) {
	project, _ := args.String("project")
	cmd := []string{"pipelines", "build", "list", "--project", project, "--top", args.Number("top", "10")}
	if status := args.StringOr("status", ""); status != "" {
		cmd = append(cmd, "--status", status)
	}

	var builds []Build
	if err := a.cli.RunJSON(ctx, &builds, cmd...); err != nil {
		return nil, err
	}
	return SummarizeBuilds(builds), nil
}

// GetBuild returns the full build record.
func (a *Adapter) GetBuild(ctx context.Context, args adapter.Arguments) (any, error) {
	project, _ := args.String("project")
	id, _ := args.String("buildId")
	return a.raw(ctx, "pipelines", "build", "show", "--project", project, "--id", id)
}

// ListWorkItems runs a WIQL query.
func (a *Adapter) ListWorkItems(ctx context.Context, args adapter.Arguments) (any, error) {
	project, _ := args.String("project")
	wiql, _ := args.String("wiql")
	return a.raw(ctx, "boards", "query", "--project", project, "--wiql", wiql)
}

// GetWorkItem returns one work item. Work item IDs are unique per
// organization, so project only scopes the request for the caller.
func (a *Adapter) GetWorkItem(ctx context.Context, args adapter.Arguments) (any, error) {
	id, _ := args.String("workItemId")
	return a.raw(ctx, "boards", "work-item", "show", "--id", id)
}

// ListPullRequests lists pull requests for a repository.
func (a *Adapter) ListPullRequests(ctx context.Context, args adapter.Arguments) (any, error) {
	project, _ := args.String("project")
	repo, _ := args.String("repository")
	status := args.StringOr("status", "active")
	return a.raw(ctx, "repos", "pr", "list", "--project", project, "--repository", repo, "--status", status)
}

// ListReleases lists release pipeline runs.
func (a *Adapter) ListReleases(ctx context.Context, args adapter.Arguments) (any, error) {
	project, _ := args.String("project")
	cmd := []string{"pipelines", "release", "list", "--project", project, "--top", args.Number("top", "10")}
	if def := args.StringOr("definitionId", ""); def != "" && def != "0" {
		cmd = append(cmd, "--definition-id", def)
	}
	return a.raw(ctx, cmd...)
}

func (a *Adapter) raw(ctx context.Context, args ...string) (any, error) {
	var out json.RawMessage
	if err := a.cli.RunJSON(ctx, &out, args...); err != nil {
		return nil, err
	}
	return out, nil
}
