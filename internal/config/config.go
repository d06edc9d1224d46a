// ABOUTME: Configuration loading and parsing for cloud-mcp
// ABOUTME: Supports YAML or TOML files with environment variable expansion and overrides

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Pack names accepted by Validate.
const (
	PackDevOps   = "devops"
	PackPortal   = "portal"
	PackDemo     = "demo"
	PackDatabase = "database"
)

// KnownPacks lists every pack in the order they are registered when all are enabled.
var KnownPacks = []string{PackDevOps, PackPortal, PackDemo, PackDatabase}

// Config represents the complete cloud-mcp configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" toml:"server"`
	Tailscale TailscaleConfig `yaml:"tailscale" toml:"tailscale"`
	Auth      AuthConfig      `yaml:"auth" toml:"auth"`
	DevOps    DevOpsConfig    `yaml:"devops" toml:"devops"`
	Portal    PortalConfig    `yaml:"portal" toml:"portal"`
	Demo      DemoConfig      `yaml:"demo" toml:"demo"`
	Database  DatabaseConfig  `yaml:"database" toml:"database"`
	Commands  CommandsConfig  `yaml:"commands" toml:"commands"`
	Audit     AuditConfig     `yaml:"audit" toml:"audit"`
	Logging   LoggingConfig   `yaml:"logging" toml:"logging"`
}

// ServerConfig holds the HTTP transport address
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr" toml:"http_addr"`
}

// TailscaleConfig holds Tailscale tsnet configuration
type TailscaleConfig struct {
	Enabled   bool   `yaml:"enabled" toml:"enabled"`
	Hostname  string `yaml:"hostname" toml:"hostname"`
	AuthKey   string `yaml:"auth_key" toml:"auth_key"`
	StateDir  string `yaml:"state_dir" toml:"state_dir"`
	Ephemeral bool   `yaml:"ephemeral" toml:"ephemeral"`
	Funnel    bool   `yaml:"funnel" toml:"funnel"` // Enable public Funnel (implies HTTPS)
}

// AuthConfig holds bearer token settings for the HTTP transport
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret" toml:"jwt_secret"`
	Require   bool   `yaml:"require" toml:"require"`
}

// DevOpsConfig identifies the Azure DevOps organization
type DevOpsConfig struct {
	Organization string `yaml:"organization" toml:"organization"`
	PAT          string `yaml:"pat" toml:"pat"`
}

// PortalConfig scopes Azure Resource Manager calls
type PortalConfig struct {
	SubscriptionID string `yaml:"subscription_id" toml:"subscription_id"`
}

// DemoConfig selects the demo pack backend.
// BaseURL wins over Command; with neither set the backend is simulated.
type DemoConfig struct {
	BaseURL         string `yaml:"base_url" toml:"base_url"`
	APIKey          string `yaml:"api_key" toml:"api_key"`
	Command         string `yaml:"command" toml:"command"`
	SimulateLatency bool   `yaml:"simulate_latency" toml:"simulate_latency"`
}

// DatabaseConfig holds the read-only database connection
type DatabaseConfig struct {
	URL          string        `yaml:"url" toml:"url"`
	QueryTimeout time.Duration `yaml:"-" toml:"-"`

	QueryTimeoutRaw string `yaml:"query_timeout" toml:"query_timeout"`
}

// CommandsConfig holds subprocess settings shared by CLI-backed packs
type CommandsConfig struct {
	AzPath  string        `yaml:"az_path" toml:"az_path"`
	Timeout time.Duration `yaml:"-" toml:"-"`

	TimeoutRaw string `yaml:"timeout" toml:"timeout"`
}

// AuditConfig enables the tool-call audit log when Path is set
type AuditConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// Default returns a configuration with every optional value filled in.
func Default() *Config {
	return &Config{
		Server:    ServerConfig{HTTPAddr: "127.0.0.1:8080"},
		Tailscale: TailscaleConfig{Hostname: "cloud-mcp"},
		Database:  DatabaseConfig{QueryTimeout: 30 * time.Second},
		Commands:  CommandsConfig{AzPath: "az", Timeout: 2 * time.Minute},
		Logging:   LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load reads a configuration file and applies environment overrides.
// An empty path yields the defaults plus environment.
// Environment variables in the format ${VAR_NAME} are expanded inside the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		expanded := expandEnvVars(string(data))
		if err := decode(path, expanded, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	applyEnv(cfg)

	if err := cfg.check(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// ResolvePath picks the config file: the explicit flag, then CLOUD_MCP_CONFIG,
// then $XDG_CONFIG_HOME/cloud-mcp/config.yaml if it exists. Empty means none.
func ResolvePath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if p := os.Getenv("CLOUD_MCP_CONFIG"); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	p := filepath.Join(dir, "cloud-mcp", "config.yaml")
	if _, err := os.Stat(p); err == nil {
		return p
	}
	return ""
}

func decode(path, data string, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		_, err := toml.Decode(data, cfg)
		return err
	default:
		return yaml.Unmarshal([]byte(data), cfg)
	}
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// applyEnv overrides file values with non-empty environment variables.
func applyEnv(cfg *Config) {
	overrides := []struct {
		name   string
		target *string
	}{
		{"AZURE_DEVOPS_ORG", &cfg.DevOps.Organization},
		{"AZURE_DEVOPS_PAT", &cfg.DevOps.PAT},
		{"AZURE_SUBSCRIPTION_ID", &cfg.Portal.SubscriptionID},
		{"API_BASE_URL", &cfg.Demo.BaseURL},
		{"API_KEY", &cfg.Demo.APIKey},
		{"DEMO_BACKEND_COMMAND", &cfg.Demo.Command},
		{"DATABASE_URL", &cfg.Database.URL},
		{"AZ_PATH", &cfg.Commands.AzPath},
		{"CLOUD_MCP_JWT_SECRET", &cfg.Auth.JWTSecret},
		{"CLOUD_MCP_AUDIT_PATH", &cfg.Audit.Path},
		{"LOG_LEVEL", &cfg.Logging.Level},
		{"LOG_FORMAT", &cfg.Logging.Format},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.name); v != "" {
			*o.target = v
		}
	}
}

// check validates settings that do not depend on which packs are served.
func (c *Config) check() error {
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level %q must be one of debug, info, warn, error", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format %q must be text or json", c.Logging.Format)
	}
	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}
	return nil
}

// ErrStartup marks configuration problems that must stop the process before serving.
var ErrStartup = errors.New("startup configuration error")

// StartupError lists every problem found for the requested packs.
type StartupError struct {
	// Missing names the environment variables that were required but empty.
	Missing  []string
	Problems []string
}

func (e *StartupError) Error() string {
	return strings.Join(e.Problems, "; ")
}

func (e *StartupError) Unwrap() error { return ErrStartup }

func (e *StartupError) add(problem string, missing ...string) {
	e.Problems = append(e.Problems, problem)
	for _, m := range missing {
		if !slices.Contains(e.Missing, m) {
			e.Missing = append(e.Missing, m)
		}
	}
}

// Validate checks that every required identifier for the given packs is present.
// It returns a *StartupError describing all failures, or nil.
func (c *Config) Validate(packs []string) error {
	serr := &StartupError{}

	if len(packs) == 0 {
		serr.add("at least one pack must be enabled")
	}
	for _, p := range packs {
		switch p {
		case PackDevOps:
			var missing []string
			if c.DevOps.Organization == "" {
				missing = append(missing, "AZURE_DEVOPS_ORG")
			}
			if c.DevOps.PAT == "" {
				missing = append(missing, "AZURE_DEVOPS_PAT")
			}
			if len(missing) > 0 {
				serr.add("AZURE_DEVOPS_ORG and AZURE_DEVOPS_PAT environment variables are required", missing...)
			}
		case PackDatabase:
			if c.Database.URL == "" {
				serr.add("DATABASE_URL environment variable is required", "DATABASE_URL")
			}
		case PackPortal, PackDemo:
		default:
			serr.add(fmt.Sprintf("unknown pack %q (known: %s)", p, strings.Join(KnownPacks, ", ")))
		}
	}

	if c.Auth.Require && c.Auth.JWTSecret == "" {
		serr.add("auth.require is set but no JWT secret is configured (CLOUD_MCP_JWT_SECRET)", "CLOUD_MCP_JWT_SECRET")
	}

	if len(serr.Problems) == 0 {
		return nil
	}
	return serr
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Commands.TimeoutRaw != "" {
		cfg.Commands.Timeout, err = time.ParseDuration(cfg.Commands.TimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing commands.timeout %q: %w", cfg.Commands.TimeoutRaw, err)
		}
	}

	if cfg.Database.QueryTimeoutRaw != "" {
		cfg.Database.QueryTimeout, err = time.ParseDuration(cfg.Database.QueryTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing database.query_timeout %q: %w", cfg.Database.QueryTimeoutRaw, err)
		}
	}

	return nil
}
