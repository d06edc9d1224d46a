// ABOUTME: serve subcommand: runs the selected packs over stdio, HTTP or a tailnet
// ABOUTME: Logs go to stderr because stdout carries the stdio protocol

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/pflag"

	"github.com/2389/cloud-mcp/internal/auth"
	"github.com/2389/cloud-mcp/internal/command"
	"github.com/2389/cloud-mcp/internal/config"
	"github.com/2389/cloud-mcp/internal/logging"
	"github.com/2389/cloud-mcp/internal/mcp"
)

type serveOptions struct {
	packs      []string
	configPath string
	http       bool
	addr       string
	tailscale  bool
}

func parseServeFlags(args []string) (*serveOptions, error) {
	opts := &serveOptions{}
	fs := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	fs.StringSliceVarP(&opts.packs, "pack", "p", nil, "pack to serve (repeatable or comma separated: devops, portal, demo, database)")
	fs.StringVarP(&opts.configPath, "config", "c", "", "config file (YAML or TOML)")
	fs.BoolVar(&opts.http, "http", false, "serve Streamable HTTP instead of stdio")
	fs.StringVar(&opts.addr, "addr", "", "HTTP listen address (overrides server.http_addr)")
	fs.BoolVar(&opts.tailscale, "tailscale", false, "serve HTTP on the tailnet (implies --http)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	opts.packs = normalizePacks(opts.packs)
	return opts, nil
}

// normalizePacks lowercases, trims and de-duplicates pack names, keeping order.
func normalizePacks(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, p := range in {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

// loadConfig resolves and loads the config file and builds the stderr logger.
func loadConfig(flagPath string) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(config.ResolvePath(flagPath))
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, logging.New(cfg.Logging, os.Stderr), nil
}

func runServe(ctx context.Context, args []string) error {
	opts, err := parseServeFlags(args)
	if err != nil {
		return err
	}

	cfg, logger, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	if opts.addr != "" {
		cfg.Server.HTTPAddr = opts.addr
	}
	if opts.tailscale {
		cfg.Tailscale.Enabled = true
	}
	httpMode := opts.http || cfg.Tailscale.Enabled

	a, err := buildApp(ctx, cfg, opts.packs, command.ExecRunner{}, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("closing resources", "error", err)
		}
	}()

	srvCfg := mcp.Config{
		Name:    a.name,
		Version: a.version,
		Router:  a.router,
		Logger:  logger.With("component", "mcp"),
	}
	if httpMode && cfg.Auth.JWTSecret != "" {
		verifier, err := auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret))
		if err != nil {
			return fmt.Errorf("configuring auth: %w", err)
		}
		srvCfg.Verifier = verifier
		srvCfg.RequireAuth = cfg.Auth.Require
	}

	srv, err := mcp.NewServer(srvCfg)
	if err != nil {
		return fmt.Errorf("creating MCP server: %w", err)
	}

	logger.Info("starting cloud-mcp",
		"version", version,
		"packs", strings.Join(opts.packs, ","),
		"tools", a.router.Registry().Catalog().Len(),
		"audit", cfg.Audit.Path != "",
	)

	if !httpMode {
		fmt.Fprintf(os.Stderr, "%s MCP server running on stdio\n", srv.Name())
		return srv.RunStdio(ctx)
	}

	printBanner(cfg, opts.packs, srvCfg.Verifier != nil)
	if cfg.Tailscale.Enabled {
		return srv.ServeTailscale(ctx, cfg.Tailscale)
	}
	return srv.ServeHTTP(ctx, cfg.Server.HTTPAddr)
}

func printBanner(cfg *config.Config, packIDs []string, authEnabled bool) {
	w := os.Stderr
	cyan := color.New(color.FgCyan)
	gray := color.New(color.FgHiBlack)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	cyan.Fprint(w, banner)
	gray.Fprintf(w, "    version: %s\n\n", version)

	green.Fprint(w, "    ▶ ")
	fmt.Fprintf(w, "Packs:     %s\n", strings.Join(packIDs, ", "))

	green.Fprint(w, "    ▶ ")
	if cfg.Tailscale.Enabled {
		fmt.Fprint(w, "Tailscale: ")
		cyan.Fprint(w, cfg.Tailscale.Hostname)
		if cfg.Tailscale.Funnel {
			yellow.Fprint(w, " [funnel]")
		}
		if cfg.Tailscale.Ephemeral {
			gray.Fprint(w, " (ephemeral)")
		}
		fmt.Fprintln(w)
	} else {
		fmt.Fprintf(w, "HTTP:      %s\n", cfg.Server.HTTPAddr)
	}

	green.Fprint(w, "    ▶ ")
	switch {
	case !authEnabled:
		yellow.Fprintln(w, "Auth:      disabled")
	case cfg.Auth.Require:
		fmt.Fprintln(w, "Auth:      bearer token required")
	default:
		fmt.Fprintln(w, "Auth:      bearer token optional")
	}

	if cfg.Audit.Path != "" {
		green.Fprint(w, "    ▶ ")
		fmt.Fprintf(w, "Audit:     %s\n", cfg.Audit.Path)
	}
	fmt.Fprintln(w)
}
