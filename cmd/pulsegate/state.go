package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func apiClient() *http.Client {
	return &http.Client{Timeout: 15 * time.Second}
}

func serverFlags(cmd *cobra.Command, server, apiKey *string) {
	cmd.Flags().StringVar(server, "server", envOrDefault("PULSEGATE_SERVER", "http://localhost:8080"), "Pulsegate service URL")
	cmd.Flags().StringVar(apiKey, "api-key", os.Getenv("PULSEGATE_API_KEY"), "API key for the service")
}

func doAPIRequest(method, url, apiKey string) error {
	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		return err
	}
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	resp, err := apiClient().Do(req)
	if err != nil {
		return fmt.Errorf("calling service: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service returned %d: %s", resp.StatusCode, body)
	}
	_, err = os.Stdout.Write(body)
	return err
}

func newStateCmd() *cobra.Command {
	var (
		server string
		apiKey string
	)

	cmd := &cobra.Command{
		Use:   "state <account-id>",
		Short: "Show an account's escalation state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url := fmt.Sprintf("%s/api/v1/accounts/%s/state", server, args[0])
			return doAPIRequest(http.MethodGet, url, apiKey)
		},
	}

	serverFlags(cmd, &server, &apiKey)
	return cmd
}

func newResolveCmd() *cobra.Command {
	var (
		server string
		apiKey string
	)

	cmd := &cobra.Command{
		Use:   "resolve <account-id>",
		Short: "Reset an account's escalation ladder after payment",
		Long: `Resets the account to stage zero and clears the terminal flag. Use this
when a payment arrived out of band and no webhook fired.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url := fmt.Sprintf("%s/api/v1/accounts/%s/resolve", server, args[0])
			return doAPIRequest(http.MethodPost, url, apiKey)
		},
	}

	serverFlags(cmd, &server, &apiKey)
	return cmd
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
