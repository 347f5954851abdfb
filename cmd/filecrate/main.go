package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/avelts/filecrate/config"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "filecrate",
	Short:   "File storage backend with multipart upload coordination",
	Long: `Filecrate is a file storage backend that coordinates multipart
uploads to S3-compatible object storage and keeps file metadata in
PostgreSQL or SQLite.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configFile, _ := cmd.Flags().GetString("config")

		var configFiles []string
		if configFile != "" {
			configFiles = []string{configFile}
		}

		cfg, err := config.Load(configFiles, cmd.Flags())
		if err != nil {
			return err
		}

		setupLogging(cfg.Log)
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("db-type", "", "database type: sqlite, postgres (env: FILECRATE_DATABASE_TYPE)")
	rootCmd.PersistentFlags().String("db-dsn", "", "database connection string (env: FILECRATE_DATABASE_DSN)")
	rootCmd.PersistentFlags().String("bucket", "", "S3 bucket name (env: FILECRATE_S3_BUCKET)")
	rootCmd.PersistentFlags().String("region", "", "S3 region (env: FILECRATE_S3_REGION)")
	rootCmd.PersistentFlags().String("endpoint", "", "S3 endpoint override for S3-compatible stores (env: FILECRATE_S3_ENDPOINT)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (env: FILECRATE_LOG_LEVEL)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
