// ABOUTME: tools, token and audit subcommands
// ABOUTME: Human output is coloured; --json switches to machine-readable output

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/pflag"

	"github.com/2389/cloud-mcp/internal/auth"
	"github.com/2389/cloud-mcp/internal/catalog"
	"github.com/2389/cloud-mcp/internal/config"
	"github.com/2389/cloud-mcp/internal/database"
	"github.com/2389/cloud-mcp/internal/demoapi"
	"github.com/2389/cloud-mcp/internal/devops"
	"github.com/2389/cloud-mcp/internal/portal"
	"github.com/2389/cloud-mcp/internal/store"
)

// packCatalogs maps each pack to its static tool list.
var packCatalogs = map[string][]catalog.Tool{
	config.PackDevOps:   devops.Tools,
	config.PackPortal:   portal.Tools,
	config.PackDemo:     demoapi.Tools,
	config.PackDatabase: database.Tools,
}

func runTools(args []string) error {
	var (
		packIDs []string
		asJSON  bool
	)
	fs := pflag.NewFlagSet("tools", pflag.ContinueOnError)
	fs.StringSliceVarP(&packIDs, "pack", "p", nil, "packs to list (default: all)")
	fs.BoolVar(&asJSON, "json", false, "print the tools/list payload as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	packIDs = normalizePacks(packIDs)
	if len(packIDs) == 0 {
		packIDs = config.KnownPacks
	}
	return printTools(os.Stdout, packIDs, asJSON)
}

func printTools(w io.Writer, packIDs []string, asJSON bool) error {
	var tools []catalog.Tool
	for _, id := range packIDs {
		defs, ok := packCatalogs[id]
		if !ok {
			return fmt.Errorf("unknown pack %q (known: %s)", id, strings.Join(config.KnownPacks, ", "))
		}
		tools = append(tools, defs...)
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{"tools": tools})
	}

	bold := color.New(color.Bold)
	gray := color.New(color.FgHiBlack)
	yellow := color.New(color.FgYellow)
	for _, t := range tools {
		bold.Fprint(w, t.Name)
		fmt.Fprintf(w, "  %s\n", t.Description)
		for _, f := range t.InputSchema.Fields {
			gray.Fprintf(w, "    %-14s %-8s ", f.Name, f.Property.Type)
			if t.InputSchema.IsRequired(f.Name) {
				yellow.Fprint(w, "required ")
			}
			fmt.Fprintln(w, f.Property.Description)
		}
	}
	return nil
}

func runToken(args []string) error {
	var (
		subject    string
		ttl        time.Duration
		configPath string
	)
	fs := pflag.NewFlagSet("token", pflag.ContinueOnError)
	fs.StringVar(&subject, "subject", "", "token subject (sub claim)")
	fs.DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	fs.StringVarP(&configPath, "config", "c", "", "config file (YAML or TOML)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if subject == "" {
		return errors.New("--subject is required")
	}
	if ttl <= 0 {
		return errors.New("--ttl must be positive")
	}

	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if cfg.Auth.JWTSecret == "" {
		return errors.New("no JWT secret configured (set auth.jwt_secret or CLOUD_MCP_JWT_SECRET)")
	}

	verifier, err := auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret))
	if err != nil {
		return err
	}
	token, err := verifier.Generate(subject, ttl)
	if err != nil {
		return fmt.Errorf("generating token: %w", err)
	}
	fmt.Println(token)
	return nil
}

type auditOptions struct {
	configPath string
	since      time.Duration
	filter     store.ToolCallFilter
	asJSON     bool
}

func runAudit(ctx context.Context, args []string) error {
	mode := "list"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		mode, args = args[0], args[1:]
	}

	opts := auditOptions{}
	fs := pflag.NewFlagSet("audit", pflag.ContinueOnError)
	fs.StringVarP(&opts.configPath, "config", "c", "", "config file (YAML or TOML)")
	fs.DurationVar(&opts.since, "since", 0, "only calls newer than this (e.g. 1h)")
	fs.StringVar(&opts.filter.ToolName, "tool", "", "only this tool")
	fs.StringVar(&opts.filter.PackID, "pack", "", "only this pack")
	fs.BoolVar(&opts.filter.ErrorsOnly, "errors", false, "only failed calls")
	fs.IntVar(&opts.filter.Limit, "limit", 50, "maximum calls to list")
	fs.BoolVar(&opts.asJSON, "json", false, "print JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, logger, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	if cfg.Audit.Path == "" {
		return errors.New("audit log not configured (set audit.path or CLOUD_MCP_AUDIT_PATH)")
	}

	s, err := store.NewSQLiteStore(cfg.Audit.Path, logger)
	if err != nil {
		return fmt.Errorf("opening audit store: %w", err)
	}
	defer func() { _ = s.Close() }()

	if opts.since > 0 {
		since := time.Now().Add(-opts.since)
		opts.filter.Since = &since
	}

	switch mode {
	case "list":
		calls, err := s.ListToolCalls(ctx, opts.filter)
		if err != nil {
			return err
		}
		return printCalls(os.Stdout, calls, opts.asJSON)
	case "summary":
		sums, err := s.SummarizeToolCalls(ctx, opts.filter.Since)
		if err != nil {
			return err
		}
		return printSummaries(os.Stdout, sums, opts.asJSON)
	default:
		return fmt.Errorf("unknown audit mode %q (want list or summary)", mode)
	}
}

func printCalls(w io.Writer, calls []store.ToolCall, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(calls)
	}
	if len(calls) == 0 {
		fmt.Fprintln(w, "No tool calls recorded.")
		return nil
	}

	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tTOOL\tPACK\tDURATION\tRESULT")
	for _, c := range calls {
		status := green.Sprint("ok")
		if c.IsError {
			status = red.Sprint(c.ErrorKind)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			humanize.Time(c.StartedAt), c.ToolName, c.PackID, c.Duration.Round(time.Millisecond), status)
	}
	return tw.Flush()
}

func printSummaries(w io.Writer, sums []store.ToolSummary, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(sums)
	}
	if len(sums) == 0 {
		fmt.Fprintln(w, "No tool calls recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TOOL\tCALLS\tERRORS\tAVG\tLAST")
	for _, s := range sums {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			s.ToolName, humanize.Comma(int64(s.Calls)), humanize.Comma(int64(s.Errors)),
			s.AverageDuration.Round(time.Millisecond), humanize.Time(s.LastCalledAt))
	}
	return tw.Flush()
}
