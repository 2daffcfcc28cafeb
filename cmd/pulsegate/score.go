package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/pulsegate/pulsegate/pkg/scoring"
	"github.com/pulsegate/pulsegate/pkg/signal"
	"github.com/pulsegate/pulsegate/pkg/surface"
)

// signalsFile is the YAML input shape for the score and health commands.
type signalsFile struct {
	AccountID    string                      `yaml:"account_id"`
	Payment      *signal.PaymentSignals      `yaml:"payment"`
	Technical    *signal.TechnicalSignals    `yaml:"technical"`
	Health       *signal.HealthSignals       `yaml:"health"`
	Relationship *signal.RelationshipSignals `yaml:"relationship"`
}

func loadSignals(path string) (*signalsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading signals file: %w", err)
	}
	var sf signalsFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parsing signals file: %w", err)
	}
	if sf.AccountID == "" {
		return nil, fmt.Errorf("signals file is missing account_id")
	}
	return &sf, nil
}

func newRenderer(format string) (surface.Renderer, error) {
	switch format {
	case "json":
		return &surface.JSONRenderer{}, nil
	case "text":
		return &surface.TerminalRenderer{}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want text or json)", format)
	}
}

func newScoreCmd() *cobra.Command {
	var (
		inputPath string
		domain    string
		outputFmt string
	)

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score one account from a signals file",
		Long:  `Reads raw signals from a YAML file and computes the requested domain score.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sf, err := loadSignals(inputPath)
			if err != nil {
				return err
			}

			now := time.Now().UTC()
			var result *scoring.ScoreResult
			switch domain {
			case scoring.DomainPayment:
				if sf.Payment == nil {
					return fmt.Errorf("signals file has no payment section")
				}
				result = scoring.ScorePayment(sf.AccountID, *sf.Payment, now)
			case scoring.DomainTechnical:
				if sf.Technical == nil {
					return fmt.Errorf("signals file has no technical section")
				}
				result = scoring.ScoreTechnical(sf.AccountID, *sf.Technical, now)
			default:
				return fmt.Errorf("unknown domain %q (want %s or %s)",
					domain, scoring.DomainPayment, scoring.DomainTechnical)
			}

			renderer, err := newRenderer(outputFmt)
			if err != nil {
				return err
			}
			return renderer.Render(os.Stdout, result)
		},
	}

	cmd.Flags().StringVar(&inputPath, "input", "", "Path to YAML signals file (required)")
	cmd.Flags().StringVar(&domain, "domain", scoring.DomainPayment, "Scoring domain: payment_risk or technical_health")
	cmd.Flags().StringVar(&outputFmt, "output", "text", "Output format: text or json")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}
