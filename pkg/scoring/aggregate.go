package scoring

import (
	"time"

	"github.com/pulsegate/pulsegate/pkg/signal"
)

// Aggregate account-health point budgets, summing to 100.
// Descending semantics: higher is healthier.
const (
	loginBudget   = 20.0
	seatBudget    = 20.0
	breadthBudget = 15.0
	ticketBudget  = 15.0
	npsBudget     = 10.0
	streakBudget  = 20.0
)

// Cap factors applied to the aggregate score when an external domain
// reports trouble. Only the external domain's band crosses the boundary;
// its raw score and weightings stay private to that domain.
const (
	redCapFactor      = 0.90
	criticalCapFactor = 0.80
)

// healthEscalateFloor is the capped aggregate score below which the
// account escalates regardless of band history.
const healthEscalateFloor = 40.0

// capOrder fixes the cascade priority: payment risk caps first, then
// technical health. Caps compose multiplicatively with no intermediate
// rounding, so the order is observationally stable; it is fixed here so
// the breakdown entries are reproducible.
var capOrder = []string{DomainPayment, DomainTechnical}

// ExternalBands carries the already-reduced band of each external domain,
// keyed by domain name. Absent domains apply no cap.
type ExternalBands map[string]Band

// ScoreHealth computes the aggregate account-health score: its own raw
// weighted score, then the multiplicative cap cascade driven by the
// external bands. Cap reductions are recorded as negative breakdown
// entries so the score always equals the sum of its breakdown.
func ScoreHealth(subjectID string, sig signal.HealthSignals, external ExternalBands, now time.Time) *ScoreResult {
	breakdown := map[string]float64{
		"logins":          loginPoints(sig.LoginsPerWeek),
		"active_seats":    seatPoints(sig.ActiveSeatsPct),
		"feature_breadth": breadthPoints(sig.FeatureBreadthPct),
		"open_tickets":    ticketPoints(sig.OpenTickets),
		"nps":             npsPoints(sig.NPS),
		"payment_streak":  streakPoints(sig.PaymentStreakMonths),
	}

	score := sumBreakdown(breakdown)
	for _, domain := range capOrder {
		factor := capFactor(external[domain])
		if factor == 1 {
			continue
		}
		capped := score * factor
		breakdown["cap:"+domain] = capped - score
		score = capped
	}

	return &ScoreResult{
		SubjectID:  subjectID,
		Domain:     DomainHealth,
		Score:      score,
		Band:       HealthBand(score),
		Breakdown:  breakdown,
		Escalate:   score < healthEscalateFloor,
		ComputedAt: now,
	}
}

// ShouldEscalateHealth reports whether an aggregate result warrants
// escalation relative to the previously stored result. It fires when the
// capped score is below the absolute floor, when the band newly entered
// RED, or when it slipped from GREEN to AMBER. The scorer keeps no
// history; the caller supplies the previous result, which may be nil on
// the first computation.
func ShouldEscalateHealth(curr, prev *ScoreResult) bool {
	if curr == nil {
		return false
	}
	if curr.Score < healthEscalateFloor {
		return true
	}
	if prev == nil {
		return false
	}
	if curr.Band == BandRed && prev.Band != BandRed {
		return true
	}
	if curr.Band == BandAmber && prev.Band == BandGreen {
		return true
	}
	return false
}

func capFactor(b Band) float64 {
	switch b {
	case BandRed:
		return redCapFactor
	case BandCritical:
		return criticalCapFactor
	default:
		return 1
	}
}

func loginPoints(perWeek float64) float64 {
	switch {
	case perWeek >= 5:
		return loginBudget
	case perWeek >= 3:
		return 15
	case perWeek >= 1:
		return 8
	case perWeek > 0:
		return 4
	default:
		return 0
	}
}

func seatPoints(pct float64) float64 {
	switch {
	case pct >= 80:
		return seatBudget
	case pct >= 60:
		return 15
	case pct >= 40:
		return 10
	case pct >= 20:
		return 5
	default:
		return 0
	}
}

func breadthPoints(pct float64) float64 {
	switch {
	case pct >= 60:
		return breadthBudget
	case pct >= 40:
		return 10
	case pct >= 20:
		return 5
	default:
		return 0
	}
}

func ticketPoints(open int) float64 {
	switch {
	case open == 0:
		return ticketBudget
	case open <= 2:
		return 10
	case open <= 5:
		return 5
	default:
		return 0
	}
}

// npsPoints steps the latest NPS response into the 10-point budget.
// An account that never answered a survey gets the midpoint, not zero:
// silence is not detraction.
func npsPoints(nps *int) float64 {
	if nps == nil {
		return 5
	}
	switch {
	case *nps >= 50:
		return npsBudget
	case *nps >= 0:
		return 6
	default:
		return 0
	}
}

func streakPoints(months int) float64 {
	switch {
	case months >= 12:
		return streakBudget
	case months >= 6:
		return 14
	case months >= 3:
		return 8
	case months >= 1:
		return 4
	default:
		return 0
	}
}
