package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pulsegate/pulsegate/pkg/scoring"
)

func newHealthCmd() *cobra.Command {
	var (
		inputPath     string
		paymentBand   string
		technicalBand string
		previousPath  string
		outputFmt     string
	)

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Compute the aggregate account-health score",
		Long: `Reads engagement signals from a YAML file and computes the aggregate
health score. Payment and technical bands cross the domain boundary as
bands only; pass them with --payment-band and --technical-band.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sf, err := loadSignals(inputPath)
			if err != nil {
				return err
			}
			if sf.Health == nil {
				return fmt.Errorf("signals file has no health section")
			}

			external := scoring.ExternalBands{}
			if paymentBand != "" {
				external[scoring.DomainPayment] = scoring.Band(paymentBand)
			}
			if technicalBand != "" {
				external[scoring.DomainTechnical] = scoring.Band(technicalBand)
			}

			result := scoring.ScoreHealth(sf.AccountID, *sf.Health, external, time.Now().UTC())

			var prev *scoring.ScoreResult
			if previousPath != "" {
				data, err := os.ReadFile(previousPath)
				if err != nil {
					return fmt.Errorf("reading previous result: %w", err)
				}
				prev = &scoring.ScoreResult{}
				if err := json.Unmarshal(data, prev); err != nil {
					return fmt.Errorf("parsing previous result: %w", err)
				}
			}

			renderer, err := newRenderer(outputFmt)
			if err != nil {
				return err
			}
			if err := renderer.Render(os.Stdout, result); err != nil {
				return err
			}

			if scoring.ShouldEscalateHealth(result, prev) {
				fmt.Fprintln(os.Stderr, "Health escalation warranted.")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&inputPath, "input", "", "Path to YAML signals file (required)")
	cmd.Flags().StringVar(&paymentBand, "payment-band", "", "Current payment risk band (GREEN, AMBER, RED, CRITICAL)")
	cmd.Flags().StringVar(&technicalBand, "technical-band", "", "Current technical health band")
	cmd.Flags().StringVar(&previousPath, "previous", "", "Path to the previous health result JSON")
	cmd.Flags().StringVar(&outputFmt, "output", "text", "Output format: text or json")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}
