package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"kvault/pkg/auth"
	"kvault/pkg/client"
	"kvault/pkg/config"
	kverrors "kvault/pkg/errors"
	"kvault/pkg/logger"
)

var (
	// Request command flags
	requestData    string
	requestParams  []string
	requestHeaders []string
	prettyPrint    bool
)

// requestCmd represents the request command
var requestCmd = &cobra.Command{
	Use:   "request <verb> <path>",
	Short: "Send a request to the KVault server",
	Long: `Send an HTTP request to the configured KVault server.

GET, PUT and DELETE requests are automatically retried on transient
failures using the configured retry policy. POST and PATCH requests
are sent exactly once.

The auth token is resolved from (in order): the KVAULT_TOKEN
environment variable, the configuration file, and the token store
populated by 'kvault auth login'.`,
	Example: `  # Read a secret
  kvault request GET /v1/secret/data/myapp

  # Read with query parameters
  kvault request GET /v1/secret/metadata --param list=true

  # Write a secret
  kvault request PUT /v1/secret/data/myapp --data '{"data":{"password":"hunter2"}}'

  # Delete a secret
  kvault request DELETE /v1/secret/data/myapp`,
	Args: cobra.ExactArgs(2),
	Run:  runRequest,
}

func init() {
	rootCmd.AddCommand(requestCmd)

	requestCmd.Flags().StringVarP(&requestData, "data", "d", "", "request body (JSON string, or @file to read from a file)")
	requestCmd.Flags().StringArrayVar(&requestParams, "param", nil, "query parameter as key=value (repeatable)")
	requestCmd.Flags().StringArrayVarP(&requestHeaders, "header", "H", nil, "additional header as key=value (repeatable)")
	requestCmd.Flags().BoolVar(&prettyPrint, "pretty", true, "pretty-print JSON responses")
}

func runRequest(cmd *cobra.Command, args []string) {
	verb := strings.ToUpper(strings.TrimSpace(args[0]))
	path := strings.TrimSpace(args[1])

	cfg, err := config.Load(configFile, globalFlags())
	if err != nil {
		fatal("Failed to load configuration", err)
	}

	logger.Initialize(&cfg.Logging)
	log := logger.GetLogger()

	resolveToken(cfg)

	params, err := parsePairs(requestParams)
	if err != nil {
		fatal("Invalid --param value", err)
	}
	headers, err := parsePairs(requestHeaders)
	if err != nil {
		fatal("Invalid --header value", err)
	}

	var body interface{}
	if requestData != "" {
		raw := requestData
		if strings.HasPrefix(raw, "@") {
			content, err := os.ReadFile(strings.TrimPrefix(raw, "@"))
			if err != nil {
				fatal("Failed to read request body file", err)
			}
			raw = string(content)
		}
		body = raw
	}

	c := client.New(cfg, log)

	fullPath := path
	if len(params) > 0 {
		fullPath = path + "?" + client.ToQueryString(params)
	}

	resp, err := c.Do(context.Background(), verb, fullPath, body, headers)
	if err != nil {
		printRequestError(err)
		os.Exit(1)
	}

	printResponse(resp)
}

// resolveToken fills in the token from the token store when neither the
// environment nor the config file provided one.
func resolveToken(cfg *config.Config) {
	if cfg.Token != "" {
		return
	}

	manager, err := auth.NewManager()
	if err != nil {
		return
	}

	if token, err := manager.Retrieve(cfg.Address); err == nil && token != nil {
		cfg.Token = token.Value
	}
}

// parsePairs parses key=value strings into a map.
func parsePairs(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	result := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("expected key=value, got %q", pair)
		}
		result[key] = value
	}
	return result, nil
}

// printRequestError shows the failure classification alongside the message.
func printRequestError(err error) {
	switch kverrors.KindOf(err) {
	case kverrors.KindConnection:
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		fmt.Fprintln(os.Stderr, "\nCheck that the server address is reachable and TLS is configured correctly.")
	case kverrors.KindClient:
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
		fmt.Fprintln(os.Stderr, "\nThe request was rejected; it will not be retried. Check the path, body and token.")
	case kverrors.KindServer:
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
}

func printResponse(resp *client.Response) {
	if len(resp.Body) == 0 {
		fmt.Fprintf(os.Stderr, "%d (empty response body)\n", resp.StatusCode)
		return
	}

	if prettyPrint {
		var decoded interface{}
		if err := json.Unmarshal(resp.Body, &decoded); err == nil {
			pretty, err := json.MarshalIndent(decoded, "", "  ")
			if err == nil {
				fmt.Println(string(pretty))
				return
			}
		}
	}

	fmt.Println(string(resp.Body))
}
