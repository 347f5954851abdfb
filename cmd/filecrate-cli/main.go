package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/avelts/filecrate/clientcli"
)

var (
	version = "dev"

	cfgFile     string
	profileName string
	server      string
	token       string
	jsonOutput  bool
	quiet       bool
)

var rootCmd = &cobra.Command{
	Use:     "filecrate-cli",
	Version: version,
	Short:   "Client for filecrate file storage",
	Long: `Filecrate CLI - Client for the filecrate file storage server.

Uploads are split into parts and sent directly to the object store through
pre-signed URLs; the server only coordinates the transfer. Listing and
deleting file records requires a bearer token.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ~/.filecrate/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&profileName, "profile", "p", "", "profile name (env: FILECRATE_PROFILE)")
	rootCmd.PersistentFlags().StringVarP(&server, "server", "s", "", "server URL (default: http://localhost:5000, env: FILECRATE_ENDPOINT)")
	rootCmd.PersistentFlags().StringVarP(&token, "token", "t", "", "bearer token (env: FILECRATE_TOKEN)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")

	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(filesCmd)
	rootCmd.AddCommand(bucketCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(configureCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// getConfigPath resolves the config file path from flag, env, or default.
func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if envPath := clientcli.ConfigPathFromEnv(); envPath != "" {
		return envPath
	}
	return clientcli.DefaultConfigPath()
}

// buildConfig merges config from profile, env vars, and flags (flags take precedence).
func buildConfig() (*clientcli.Config, error) {
	var configs []*clientcli.Config

	// 1. Load from profile in config file
	configPath := getConfigPath()
	if configPath != "" {
		configFile, err := clientcli.LoadConfigFile(configPath)
		if err != nil {
			// Only error if the user explicitly pointed at a config file
			if cfgFile != "" {
				return nil, err
			}
		} else {
			name := profileName
			if name == "" {
				name = clientcli.ProfileFromEnv()
			}
			profile, profErr := configFile.GetProfile(name)
			if profErr != nil && !errors.Is(profErr, clientcli.ErrNoProfiles) {
				return nil, profErr
			}
			if profErr == nil {
				configs = append(configs, clientcli.ConfigFromProfile(profile))
			}
		}
	}

	// 2. Load from environment variables
	configs = append(configs, clientcli.ConfigFromEnv())

	// 3. Load from flags
	configs = append(configs, &clientcli.Config{
		Endpoint: server,
		Token:    token,
	})

	return clientcli.MergeConfig(configs...), nil
}

// getFormatter returns the appropriate formatter based on flags.
func getFormatter() clientcli.Formatter {
	return clientcli.NewFormatter(jsonOutput, quiet)
}

// getClient creates and returns a configured client.
func getClient() (*clientcli.Client, error) {
	cfg, err := buildConfig()
	if err != nil {
		return nil, err
	}

	return clientcli.New(cfg)
}
