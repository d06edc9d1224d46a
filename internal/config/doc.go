// Package config handles configuration loading for cloud-mcp.
//
// # Overview
//
// Configuration comes from an optional YAML or TOML file (chosen by extension)
// with environment variables layered on top. Every value has a default, so a
// server for the demo pack runs with no configuration at all.
//
// # Configuration File
//
// Locations, first match wins:
//
//  1. The --config flag
//  2. Path from CLOUD_MCP_CONFIG environment variable
//  3. $XDG_CONFIG_HOME/cloud-mcp/config.yaml, if present
//
// # Environment Variable Expansion
//
// Values in the file can reference environment variables:
//
//	devops:
//	  pat: "${AZURE_DEVOPS_PAT}"
//
// # Environment Overrides
//
// These variables replace file values when non-empty:
//
//	AZURE_DEVOPS_ORG, AZURE_DEVOPS_PAT   devops.organization, devops.pat
//	AZURE_SUBSCRIPTION_ID                portal.subscription_id
//	API_BASE_URL, API_KEY                demo.base_url, demo.api_key
//	DEMO_BACKEND_COMMAND                 demo.command
//	DATABASE_URL                         database.url
//	AZ_PATH                              commands.az_path
//	CLOUD_MCP_JWT_SECRET                 auth.jwt_secret
//	CLOUD_MCP_AUDIT_PATH                 audit.path
//	LOG_LEVEL, LOG_FORMAT                logging.level, logging.format
//
// # Example
//
//	server:
//	  http_addr: "127.0.0.1:8080"
//
//	commands:
//	  az_path: "az"
//	  timeout: "2m"
//
//	database:
//	  url: "sqlite:///var/lib/app/app.db"
//	  query_timeout: "30s"
//
//	audit:
//	  path: "/var/lib/cloud-mcp/audit.db"
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// # Validation
//
// Load rejects malformed durations and unknown logging settings. Validate
// checks the identifiers each enabled pack needs and returns a *StartupError
// naming every missing variable, so operators fix them all in one pass.
package config
