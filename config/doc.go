// Package config provides configuration loading and validation for Mediashelf.
//
// The package handles YAML configuration files, environment variables, and CLI flags
// with automatic merging and validation using go-playground/validator.
//
// # Configuration Precedence
//
// Values are loaded in this order (later sources override earlier ones):
//
//  1. Default values
//  2. Configuration file(s) - multiple files merged left-to-right
//  3. Environment variables (MEDIASHELF_ prefix)
//  4. CLI flags
//
// # Usage
//
//	cfg, err := config.Load([]string{"config.yaml"}, cmd.Flags())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Store in context for subcommands
//	ctx = config.WithContext(ctx, cfg)
//
//	// Retrieve later
//	cfg, err = config.FromContext(ctx)
//
// # Environment Variables
//
// All config keys map to environment variables with MEDIASHELF_ prefix:
//   - server.port → MEDIASHELF_SERVER_PORT
//   - storage.type → MEDIASHELF_STORAGE_TYPE
//   - catalog.dsn → MEDIASHELF_CATALOG_DSN
//
// # Configuration Structure
//
// The Config struct contains:
//   - Server: port and server-level timeouts
//   - Storage: object store backend (s3 or filesystem) and its settings
//   - Gateway: streaming deadlines (metadata probe, fetch, idle, watchdog)
//   - Presign: presigned URL lifetimes
//   - Catalog: catalog database type, DSN, and table name
//   - CORS: cross-origin resource sharing settings
//   - Log: logging level and format
//
// # Validation
//
// Configuration is validated using struct tags:
//   - Port must be 1-65535
//   - Storage type must be s3 or filesystem
//   - Gateway timeouts must be at least one second
//   - Presign lifetimes must be at least sixty seconds
//   - Log level must be debug, info, warn, or error
package config
