// Package config provides configuration loading and validation for filecrate.
//
// The package handles YAML configuration files, environment variables, and CLI
// flags with automatic merging and validation using go-playground/validator.
//
// # Configuration Precedence
//
// Values are loaded in this order (later sources override earlier ones):
//
//  1. Default values
//  2. Configuration file(s) - multiple files merged left-to-right
//  3. Environment variables (FILECRATE_ prefix)
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
// All config keys map to environment variables with FILECRATE_ prefix:
//   - server.port → FILECRATE_SERVER_PORT
//   - database.type → FILECRATE_DATABASE_TYPE
//   - s3.bucket → FILECRATE_S3_BUCKET
//
// # Configuration Structure
//
// The Config struct contains:
//   - Server: port and max upload size
//   - S3: region, bucket, endpoint, and credentials
//   - Database: type, DSN, and table names
//   - Auth: JWT signing secret
//   - CORS: cross-origin resource sharing settings
//   - Log: logging level
package config
