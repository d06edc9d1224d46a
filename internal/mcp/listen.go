// ABOUTME: Runs the HTTP transport on a TCP address or a Tailscale tsnet node.
// ABOUTME: Shuts the listener down gracefully when the context is cancelled.

package mcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"tailscale.com/tsnet"

	"github.com/2389/cloud-mcp/internal/config"
)

// shutdownTimeout bounds graceful shutdown after cancellation.
const shutdownTimeout = 5 * time.Second

// ServeHTTP listens on addr and serves the HTTP transport until ctx is cancelled.
func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	s.logger.Info("serving MCP over HTTP", "addr", ln.Addr().String(), "endpoint", "http://"+ln.Addr().String()+"/mcp")
	return s.Serve(ctx, ln)
}

// ServeTailscale joins the tailnet as cfg.Hostname and serves the HTTP
// transport there. With Funnel enabled the node also accepts public HTTPS.
func (s *Server) ServeTailscale(ctx context.Context, cfg config.TailscaleConfig) error {
	stateDir, err := resolveTailscaleStateDir(cfg.StateDir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(stateDir, 0700); err != nil {
		return fmt.Errorf("creating tailscale state dir: %w", err)
	}

	authKey, err := resolveTailscaleAuthKey(cfg.AuthKey)
	if err != nil {
		return err
	}

	ts := &tsnet.Server{
		Hostname:  cfg.Hostname,
		Dir:       stateDir,
		Ephemeral: cfg.Ephemeral,
		AuthKey:   authKey,
	}
	defer func() { _ = ts.Close() }()

	s.logger.Info("starting tailscale node", "hostname", cfg.Hostname, "state_dir", stateDir, "ephemeral", cfg.Ephemeral)
	status, err := ts.Up(ctx)
	if err != nil {
		return fmt.Errorf("starting tailscale: %w", err)
	}

	var ln net.Listener
	scheme := "http"
	if cfg.Funnel {
		ln, err = ts.ListenFunnel("tcp", ":443")
		scheme = "https"
	} else {
		ln, err = ts.Listen("tcp", ":80")
	}
	if err != nil {
		return fmt.Errorf("listening on tailscale: %w", err)
	}

	host := cfg.Hostname
	if status != nil && status.Self != nil && status.Self.DNSName != "" {
		host = trimDot(status.Self.DNSName)
	}
	s.logger.Info("serving MCP over tailscale", "endpoint", scheme+"://"+host+"/mcp", "funnel", cfg.Funnel)

	return s.Serve(ctx, ln)
}

// Serve runs the HTTP transport on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("context canceled, shutting down HTTP transport")
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	}

	// The caller's context is already done.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

func trimDot(name string) string {
	if n := len(name); n > 0 && name[n-1] == '.' {
		return name[:n-1]
	}
	return name
}

// resolveTailscaleStateDir returns the state directory, using default if not configured.
func resolveTailscaleStateDir(configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory for tailscale state (set tailscale.state_dir explicitly): %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "cloud-mcp", "tailscale"), nil
}

// resolveTailscaleAuthKey returns the auth key from config or environment.
func resolveTailscaleAuthKey(configured string) (string, error) {
	authKey := configured
	if authKey == "" {
		authKey = os.Getenv("TS_AUTHKEY")
	}
	if authKey == "" {
		return "", errors.New("tailscale auth key required: set tailscale.auth_key in config or TS_AUTHKEY environment variable")
	}
	return authKey, nil
}
