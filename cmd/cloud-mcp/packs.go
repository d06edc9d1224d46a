// ABOUTME: Builds the tool registry and router for the packs selected on the command line
// ABOUTME: Opens pack backends (az CLI, demo backend, database) and the optional audit store

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/2389/cloud-mcp/internal/command"
	"github.com/2389/cloud-mcp/internal/config"
	"github.com/2389/cloud-mcp/internal/database"
	"github.com/2389/cloud-mcp/internal/demoapi"
	"github.com/2389/cloud-mcp/internal/devops"
	"github.com/2389/cloud-mcp/internal/mcp"
	"github.com/2389/cloud-mcp/internal/packs"
	"github.com/2389/cloud-mcp/internal/portal"
	"github.com/2389/cloud-mcp/internal/store"
)

// app holds everything serve needs, plus the resources to release afterwards.
type app struct {
	router  *packs.Router
	name    string
	version string
	closers []func() error
}

// Close releases pack and audit resources in reverse order of creation.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// buildApp registers the requested packs. The caller must Close the result.
func buildApp(ctx context.Context, cfg *config.Config, packIDs []string, runner command.Runner, logger *slog.Logger) (*app, error) {
	if err := cfg.Validate(packIDs); err != nil {
		return nil, err
	}

	a := &app{name: mcp.DefaultName, version: version}
	registry := packs.NewRegistry(logger)

	for _, id := range packIDs {
		pack, err := a.openPack(ctx, cfg, id, runner, logger)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		if err := registry.RegisterPack(pack); err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("registering pack %s: %w", id, err)
		}
	}

	if len(packIDs) == 1 {
		a.name, a.version = packIdentity(packIDs[0])
	}

	var observer packs.Observer
	if cfg.Audit.Path != "" {
		s, err := store.NewSQLiteStore(cfg.Audit.Path, logger)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("opening audit store: %w", err)
		}
		a.closers = append(a.closers, s.Close)
		observer = store.NewRecorder(s, logger)
	}

	a.router = packs.NewRouter(packs.RouterConfig{
		Registry: registry,
		Logger:   logger.With("component", "router"),
		Timeout:  cfg.Commands.Timeout,
		Observer: observer,
	})
	return a, nil
}

func (a *app) openPack(ctx context.Context, cfg *config.Config, id string, runner command.Runner, logger *slog.Logger) (*packs.Pack, error) {
	switch id {
	case config.PackDevOps:
		cli := devops.NewCLI(devops.Config{
			Organization: cfg.DevOps.Organization,
			PAT:          cfg.DevOps.PAT,
			AzPath:       cfg.Commands.AzPath,
		}, runner)
		cli.Logger = logger.With("pack", id)
		warnIfMissing(cli, logger)
		return devops.NewPack(cli), nil

	case config.PackPortal:
		cli := portal.NewCLI(portal.Config{
			SubscriptionID: cfg.Portal.SubscriptionID,
			AzPath:         cfg.Commands.AzPath,
		}, runner)
		cli.Logger = logger.With("pack", id)
		warnIfMissing(cli, logger)
		return portal.NewPack(cli), nil

	case config.PackDemo:
		return demoapi.NewPack(demoBackend(cfg.Demo, runner, logger)), nil

	case config.PackDatabase:
		db, err := database.Open(ctx, cfg.Database.URL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		return database.NewPack(database.New(db, cfg.Database.QueryTimeout, logger)), nil
	}
	return nil, fmt.Errorf("unknown pack %q", id)
}

// demoBackend picks HTTPS when a base URL is set, then an external command,
// then the simulated backend.
func demoBackend(cfg config.DemoConfig, runner command.Runner, logger *slog.Logger) demoapi.Backend {
	switch {
	case cfg.BaseURL != "":
		logger.Debug("demo backend", "kind", "http", "base_url", cfg.BaseURL)
		return demoapi.NewClient(cfg.BaseURL, cfg.APIKey, nil)
	case cfg.Command != "":
		logger.Debug("demo backend", "kind", "command", "command", cfg.Command)
		return demoapi.NewCommandBackend(&command.CLI{
			Runner: runner,
			Path:   cfg.Command,
			Logger: logger.With("pack", config.PackDemo),
		})
	default:
		latency := demoapi.Latency{}
		if cfg.SimulateLatency {
			latency = demoapi.DefaultLatency
		}
		logger.Debug("demo backend", "kind", "simulated", "latency", cfg.SimulateLatency)
		return demoapi.NewSimulated(latency)
	}
}

// packIdentity is the serverInfo advertised when a single pack is served.
func packIdentity(id string) (name, ver string) {
	switch id {
	case config.PackDevOps:
		return devops.ServerName, devops.Version
	case config.PackPortal:
		return portal.ServerName, portal.Version
	case config.PackDemo:
		return demoapi.ServerName, demoapi.Version
	case config.PackDatabase:
		return database.ServerName, database.Version
	}
	return mcp.DefaultName, version
}

// warnIfMissing logs when the CLI binary is not on PATH. Calls will still
// fail in band, so this is not fatal.
func warnIfMissing(cli *command.CLI, logger *slog.Logger) {
	if err := cli.Available(); err != nil {
		logger.Warn("command line tool not found; tool calls will fail", "path", cli.Path, "error", err)
	}
}
