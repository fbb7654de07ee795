package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"kvault/pkg/auth"
	"kvault/pkg/client"
	"kvault/pkg/config"
	"kvault/pkg/logger"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage KVault server tokens",
	Long: `Manage stored KVault server tokens securely.

Tokens are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (read-only, for scripted use)

Never share your tokens or config files!`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login [address]",
	Short: "Store a server token securely",
	Long: `Store a KVault server token in the system keychain or encrypted file.

You will be prompted for the token value; input is hidden. The token is
stored keyed by server address, so you can keep tokens for multiple
servers at once.`,
	Example: `  # Login to the configured server
  kvault auth login

  # Login to a specific server
  kvault auth login https://kvault.internal:8300`,
	Args: cobra.MaximumNArgs(1),
	Run:  runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout [address]",
	Short: "Remove a stored token",
	Long: `Remove the stored token for a KVault server.

If no address is provided, the configured server address is used.`,
	Example: `  # Logout from the configured server
  kvault auth logout

  # Logout from a specific server
  kvault auth logout https://kvault.internal:8300`,
	Args: cobra.MaximumNArgs(1),
	Run:  runLogout,
}

// statusCmd represents the auth status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check token status against the server",
	Long: `Check whether a token is available for the configured server and
verify it against the server's health endpoint.`,
	Run: runStatus,
}

// tokenListCmd represents the auth list command
var tokenListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored tokens",
	Long:  `List all stored server tokens with the secret values masked.`,
	Run:   runTokenList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(statusCmd)
	authCmd.AddCommand(tokenListCmd)
}

func runLogin(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		fatal("Failed to initialize token manager", err)
	}

	address := resolveAddress(args)

	// Warn before silently replacing an existing token
	if existing, _ := manager.Retrieve(address); existing != nil {
		reader := bufio.NewReader(os.Stdin)
		fmt.Printf("A token for %s already exists. Replace it? (y/N): ", address)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return
		}
	}

	fmt.Printf("Token for %s (input hidden): ", address)
	value, err := readSecret()
	if err != nil {
		fatal("Failed to read token", err)
	}
	if value == "" {
		fatal("Token value is required", nil)
	}

	token := &auth.Token{
		Address: address,
		Value:   value,
	}

	if err := manager.Store(token); err != nil {
		fatal("Failed to store token", err)
	}

	fmt.Printf("Token stored for %s\n", address)
}

func runLogout(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		fatal("Failed to initialize token manager", err)
	}

	address := resolveAddress(args)

	if err := manager.Delete(address); err != nil {
		fatal("Failed to remove token", err)
	}

	fmt.Printf("Token removed for %s\n", address)
}

func runStatus(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(configFile, globalFlags())
	if err != nil {
		fatal("Failed to load configuration", err)
	}

	logger.Initialize(&cfg.Logging)

	resolveToken(cfg)

	fmt.Printf("Server: %s\n", cfg.Address)
	if cfg.Token == "" {
		fmt.Println("Token:  not configured")
		fmt.Println("\nUse 'kvault auth login' to store a token.")
		os.Exit(1)
	}
	fmt.Printf("Token:  %s\n", maskToken(cfg.Token))

	c := client.New(cfg, logger.GetLogger())
	resp, err := c.Get(context.Background(), "/v1/sys/health", nil, nil)
	if err != nil {
		printRequestError(err)
		os.Exit(1)
	}

	fmt.Printf("Health: %d\n", resp.StatusCode)
}

func runTokenList(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		fatal("Failed to initialize token manager", err)
	}

	tokens, err := manager.List()
	if err != nil {
		fatal("Failed to list tokens", err)
	}

	if len(tokens) == 0 {
		fmt.Println("No stored tokens. Use 'kvault auth login' to add one.")
		return
	}

	fmt.Println("Stored tokens:")
	for i, token := range tokens {
		sanitized := auth.SanitizeToken(token)
		fmt.Printf("%d. Server: %s\n", i+1, sanitized.Address)
		fmt.Printf("   Token:  %s\n", sanitized.Value)
		fmt.Printf("   Saved:  %s\n", sanitized.SavedAt.Format("2006-01-02 15:04:05"))
	}
}

// resolveAddress picks the server address from args, flags or defaults.
func resolveAddress(args []string) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}

	cfg, err := config.Load(configFile, globalFlags())
	if err != nil {
		return config.DefaultConfig().Address
	}
	return cfg.Address
}

// readSecret reads a secret from stdin without echoing
func readSecret() (string, error) {
	if term.IsTerminal(int(syscall.Stdin)) {
		secret, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err == nil {
			return strings.TrimSpace(string(secret)), nil
		}
	}

	// Fallback to regular input
	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

// maskToken masks all but the edges of a token value.
func maskToken(value string) string {
	if len(value) <= 8 {
		return "********"
	}
	return value[:4] + "..." + value[len(value)-4:]
}
