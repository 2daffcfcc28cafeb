package scoring

import (
	"time"

	"github.com/pulsegate/pulsegate/pkg/signal"
)

// Technical-health point budgets. Descending semantics: higher is
// healthier. The budgets sum to 100 and the threshold tables are
// deliberately separate from the payment-risk tables.
const (
	uptimeBudget    = 35.0
	errorRateBudget = 30.0
	incidentBudget  = 20.0
	syncBudget      = 15.0
)

// technicalEscalateFloor is the technical-health score below which the
// account is flagged for engineering follow-up. Mid-AMBER, so a merely
// degraded account does not page anyone.
const technicalEscalateFloor = 40.0

// ScoreTechnical computes the technical-health score for one account.
// Higher is healthier.
func ScoreTechnical(subjectID string, sig signal.TechnicalSignals, now time.Time) *ScoreResult {
	breakdown := map[string]float64{
		"uptime":       uptimePoints(sig.UptimePct),
		"error_rate":   errorRatePoints(sig.ErrorRatePct),
		"incidents":    incidentPoints(sig.OpenIncidents),
		"failed_syncs": syncPoints(sig.FailedSyncs7d),
	}

	score := sumBreakdown(breakdown)
	return &ScoreResult{
		SubjectID:  subjectID,
		Domain:     DomainTechnical,
		Score:      score,
		Band:       HealthBand(score),
		Breakdown:  breakdown,
		Escalate:   score < technicalEscalateFloor,
		ComputedAt: now,
	}
}

func uptimePoints(pct float64) float64 {
	switch {
	case pct >= 99.9:
		return uptimeBudget
	case pct >= 99.0:
		return 28
	case pct >= 97.0:
		return 18
	case pct >= 90.0:
		return 8
	default:
		return 0
	}
}

func errorRatePoints(pct float64) float64 {
	switch {
	case pct <= 0.1:
		return errorRateBudget
	case pct <= 1.0:
		return 24
	case pct <= 3.0:
		return 14
	case pct <= 5.0:
		return 6
	default:
		return 0
	}
}

func incidentPoints(open int) float64 {
	switch {
	case open == 0:
		return incidentBudget
	case open <= 2:
		return 12
	case open <= 5:
		return 6
	default:
		return 0
	}
}

func syncPoints(failed int) float64 {
	switch {
	case failed == 0:
		return syncBudget
	case failed <= 3:
		return 10
	case failed <= 10:
		return 5
	default:
		return 0
	}
}
