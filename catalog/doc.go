// Package catalog provides a unified interface for connecting to catalog backends.
//
// The package supports multiple database backends (PostgreSQL and SQLite) and handles
// connection management, migrations, and schema validation automatically.
//
// # Supported Backends
//
//   - PostgreSQL: Production-ready backend using pgx connection pool
//   - SQLite: Lightweight backend suitable for single-node deployments
//
// # Usage
//
//	cfg := catalog.Config{
//	    Type:  "sqlite",
//	    DSN:   "mediashelf.db",
//	    Table: "media_entries",
//	}
//
//	cat, cleanup, err := catalog.Connect(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer cleanup()
//
// The Connect function automatically:
//   - Opens the database connection
//   - Runs schema migrations
//   - Validates the schema
//   - Returns a ready-to-use Catalog
//
// # Subpackages
//
// The catalog package contains backend-specific implementations:
//
//   - catalog/postgres: PostgreSQL implementation using pgx
//   - catalog/sqlite: SQLite implementation using modernc.org/sqlite
package catalog
