package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile    string
	serverAddress string
	logLevel      string
	retryAttempts int
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "kvault",
	Short: "A resilient command-line client for KVault key/secret servers",
	Long: `kvault is a command-line client for KVault key/secret-management servers.

Features:
  - Automatic retry with exponential backoff for idempotent requests
  - Failure classification into connection, client and server errors
  - Secure token storage using the system keychain or an encrypted file
  - Configurable via flags, environment variables and YAML files`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is .kvault.yaml)")
	rootCmd.PersistentFlags().StringVarP(&serverAddress, "address", "a", "", "server address (default is https://127.0.0.1:8300)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().IntVar(&retryAttempts, "retry-attempts", 0, "total attempt budget for idempotent requests")

	// Version template
	rootCmd.SetVersionTemplate(`kvault {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	// Disable default completion command
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// globalFlags builds the flag override map handed to config.Load.
func globalFlags() map[string]interface{} {
	flags := make(map[string]interface{})
	if serverAddress != "" {
		flags["address"] = serverAddress
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}
	if retryAttempts > 0 {
		flags["retry-attempts"] = retryAttempts
	}
	return flags
}

// fatal prints an error message and exits.
func fatal(message string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", message, err)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", message)
	}
	os.Exit(1)
}
