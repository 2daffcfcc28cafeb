// Package scoring implements the Pulsegate deterministic risk and health
// scorers. Each scorer maps a flat signal set through piecewise-constant
// step functions into a 0-100 score with a per-signal breakdown, so every
// point of score is auditable. Scorers perform no I/O and read no clock
// beyond the timestamp the caller passes in.
package scoring

import "time"

// Domain identifies which scorer produced a result.
const (
	DomainPayment   = "payment_risk"
	DomainTechnical = "technical_health"
	DomainHealth    = "account_health"
)

// Band is the coarse four-level classification derived from a score.
type Band string

const (
	BandGreen    Band = "GREEN"
	BandAmber    Band = "AMBER"
	BandRed      Band = "RED"
	BandCritical Band = "CRITICAL"
)

// ScoreResult is the complete output of scoring one account in one domain.
// Immutable once computed: Score equals the sum of Breakdown values clamped
// to [0,100], Band is a total function of Score, and Escalate is derived at
// construction time and never mutated afterward.
type ScoreResult struct {
	SubjectID  string             `json:"subject_id"`
	Domain     string             `json:"domain"`
	Score      float64            `json:"score"`
	Band       Band               `json:"band"`
	Breakdown  map[string]float64 `json:"breakdown"`
	Escalate   bool               `json:"escalate"`
	ComputedAt time.Time          `json:"computed_at"`
}

// RiskBand maps an ascending-risk score (higher = worse) to a band.
// Boundary values belong to the higher band: 60.0 is RED, not AMBER.
func RiskBand(score float64) Band {
	switch {
	case score < 30:
		return BandGreen
	case score < 60:
		return BandAmber
	case score < 85:
		return BandRed
	default:
		return BandCritical
	}
}

// HealthBand maps a descending-health score (higher = healthier) to a band.
// Boundary values belong to the better band: 75.0 is GREEN, not AMBER.
func HealthBand(score float64) Band {
	switch {
	case score >= 75:
		return BandGreen
	case score >= 50:
		return BandAmber
	case score >= 25:
		return BandRed
	default:
		return BandCritical
	}
}

// sumBreakdown totals a breakdown and clamps the result to [0,100].
func sumBreakdown(breakdown map[string]float64) float64 {
	var total float64
	for _, v := range breakdown {
		total += v
	}
	if total < 0 {
		return 0
	}
	if total > 100 {
		return 100
	}
	return total
}
