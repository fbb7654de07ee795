package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"kvault/pkg/config"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage kvault configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (KVAULT_*)
  - Configuration file
  - Default values (lowest priority)`,
}

// configInitCmd represents the config init command
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file is created as '.kvault.yaml' in the current directory unless a
different path is specified with the --config flag.`,
	Run: runConfigInit,
}

// configShowCmd represents the config show command
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the effective configuration after merging all sources.

The token value is masked for security.`,
	Run: runConfigShow,
}

// configValidateCmd represents the config validate command
var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate a configuration file for syntax errors and invalid values.

This command checks:
  - YAML syntax
  - Server address format
  - Retry policy parameter ranges
  - Log level`,
	Run: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) {
	configPath := configFile
	if configPath == "" {
		configPath = ".kvault.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		fmt.Fprintf(os.Stderr, "Configuration file already exists: %s\n", configPath)
		fmt.Fprintln(os.Stderr, "\nTo overwrite, first remove the existing file:")
		fmt.Fprintf(os.Stderr, "  rm %s\n", configPath)
		os.Exit(1)
	}

	exampleConfig := `# kvault configuration file
#
# All values can also be set via environment variables prefixed with KVAULT_
# For example: KVAULT_ADDR, KVAULT_TOKEN, KVAULT_RETRY_ATTEMPTS

# Base URL of the KVault server
address: "https://127.0.0.1:8300"

# Auth token. Prefer 'kvault auth login' or KVAULT_TOKEN over storing
# the token in this file.
token: ""

# Header name carrying the auth token
token_header: "X-KVault-Token"

# Per-attempt request timeout
timeout: 60s

# Disable TLS certificate verification (development only)
tls_skip_verify: false

# Headers sent on every request
headers:
  Content-Type: "application/json"
  Accept: "application/json"

# Retry policy for idempotent requests (GET, PUT, DELETE).
# Remove this section to disable retries entirely.
retry:
  # Total attempt budget, including the first call
  attempts: 2

  # Delay after the first failed attempt; doubles per attempt
  base: 50ms

  # Cap on the backoff delay, jitter included
  max_wait: 2s

  # Fraction of the delay added as randomness (0.0-1.0)
  jitter_factor: 0.25

  # Error kinds to retry: connection, server, client
  retryable_errors:
    - connection
    - server

# Client-side request throttling. Remove to disable.
# rate_limit:
#   requests_per_minute: 60

# Logging configuration
logging:
  # Log level: debug, info, warn, error
  level: "info"

  # Log file path (optional, stderr when empty)
  file: ""
`

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0644); err != nil {
		fatal("Failed to create configuration file", err)
	}

	fmt.Printf("Configuration file created: %s\n", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Edit the file and set your server address")
	fmt.Println("2. Run 'kvault config validate' to check the configuration")
	fmt.Println("3. Store a token with 'kvault auth login'")
}

func runConfigShow(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(configFile, globalFlags())
	if err != nil {
		fatal("Failed to load configuration", err)
	}

	// Mask the token for display
	displayCfg := *cfg
	if displayCfg.Token != "" {
		displayCfg.Token = maskToken(displayCfg.Token)
	}

	data, err := yaml.Marshal(&displayCfg)
	if err != nil {
		fatal("Failed to format configuration", err)
	}

	fmt.Print(string(data))

	fmt.Println("\nConfiguration sources (in order of priority):")
	fmt.Println("1. Command line flags")
	fmt.Println("2. Environment variables (KVAULT_*)")
	if configFile != "" {
		fmt.Printf("3. Configuration file: %s\n", configFile)
	} else {
		fmt.Println("3. Configuration file: (searched in standard locations)")
	}
	fmt.Println("4. Default values")
}

func runConfigValidate(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(configFile, globalFlags())
	if err != nil {
		fatal("Configuration validation failed", err)
	}

	fmt.Println("Configuration is valid")

	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  Server address: %s\n", cfg.Address)
	fmt.Printf("  Timeout: %s\n", cfg.Timeout)
	if cfg.Retry != nil {
		fmt.Printf("  Retry attempts: %d\n", cfg.Retry.Attempts)
		fmt.Printf("  Retryable kinds: %v\n", cfg.Retry.RetryableErrors)
	} else {
		fmt.Println("  Retries: disabled")
	}
	if cfg.RateLimit != nil {
		fmt.Printf("  Rate limit: %d requests/minute\n", cfg.RateLimit.RequestsPerMinute)
	}
	fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
}
