// Package main provides the pulsegate CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "pulsegate",
		Short: "Account risk scoring and bounded escalation",
		Long: `Pulsegate scores account payment risk, technical health, and aggregate
account health from raw signals, and walks delinquent accounts through a
bounded outreach ladder. Drafts only; nothing is ever sent automatically.`,
		Version: version,
	}

	rootCmd.AddCommand(
		newScoreCmd(),
		newHealthCmd(),
		newStateCmd(),
		newResolveCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
