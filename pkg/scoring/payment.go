package scoring

import (
	"time"

	"github.com/pulsegate/pulsegate/pkg/signal"
)

// Payment-risk point budgets. The four signal budgets sum to 100.
const (
	overdueBudget     = 40.0
	lateBudget        = 25.0
	outstandingBudget = 20.0
	renewalBudget     = 15.0
)

// escalateThreshold is the payment-risk score at which the escalation
// ladder engages. It sits at the AMBER/RED boundary on purpose: an AMBER
// account is watched, not chased.
const escalateThreshold = 60.0

// ScorePayment computes the payment-risk score for one account.
// Higher is worse. The result is a pure function of the signals and the
// supplied timestamp.
func ScorePayment(subjectID string, sig signal.PaymentSignals, now time.Time) *ScoreResult {
	breakdown := map[string]float64{
		"overdue_age":       overduePoints(sig.DaysOverdue),
		"consecutive_late":  latePoints(sig.ConsecutiveLate),
		"outstanding":       outstandingPoints(sig.OutstandingAmount),
		"renewal_proximity": renewalPoints(sig.DaysToRenewal),
	}

	score := sumBreakdown(breakdown)
	return &ScoreResult{
		SubjectID:  subjectID,
		Domain:     DomainPayment,
		Score:      score,
		Band:       RiskBand(score),
		Breakdown:  breakdown,
		Escalate:   score >= escalateThreshold,
		ComputedAt: now,
	}
}

// overduePoints steps the age of the oldest unpaid invoice into the
// 40-point overdue budget.
func overduePoints(days int) float64 {
	switch {
	case days > 60:
		return overdueBudget
	case days > 30:
		return 30
	case days >= 15:
		return 20
	case days >= 1:
		return 10
	default:
		return 0
	}
}

// latePoints steps the consecutive-late-payment count into the 25-point
// late-streak budget.
func latePoints(count int) float64 {
	switch {
	case count >= 4:
		return lateBudget
	case count == 3:
		return 18
	case count == 2:
		return 12
	case count == 1:
		return 6
	default:
		return 0
	}
}

// outstandingPoints steps the unpaid balance into the 20-point exposure
// budget.
func outstandingPoints(amount float64) float64 {
	switch {
	case amount >= 50000:
		return outstandingBudget
	case amount >= 10000:
		return 14
	case amount >= 2500:
		return 8
	case amount >= 500:
		return 4
	default:
		return 0
	}
}

// renewalPoints steps renewal proximity into the 15-point urgency budget.
// An account with no renewal date on file contributes nothing; absence of
// a renewal is the documented neutral default, not an error.
func renewalPoints(days *int) float64 {
	if days == nil {
		return 0
	}
	switch {
	case *days <= 30:
		return renewalBudget
	case *days <= 90:
		return 10
	case *days <= 180:
		return 5
	default:
		return 0
	}
}
