// Package database provides a unified interface for connecting to metadata backends.
//
// The package supports multiple database backends (PostgreSQL and SQLite) and
// handles connection management and migrations automatically.
//
// # Supported Backends
//
//   - PostgreSQL: Production-ready backend using pgx connection pool
//   - SQLite: Lightweight backend suitable for development and single-node deployments
//
// # Usage
//
//	cfg := database.Config{
//	    Type: "sqlite",
//	    DSN:  "filecrate.db",
//	    Tables: database.Tables{Files: "files", Folders: "folders"},
//	}
//
//	repo, cleanup, err := database.Connect(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer cleanup()
//
// The Connect function opens the connection, runs schema migrations, and
// returns a ready-to-use filecrate.MetadataRepo.
package database
