package scoring_test

import (
	"math"
	"testing"

	"github.com/pulsegate/pulsegate/pkg/scoring"
	"github.com/pulsegate/pulsegate/pkg/signal"
)

// healthyAccount yields a raw aggregate score of exactly 85:
// 20 (logins) + 20 (seats) + 15 (breadth) + 10 (tickets) + 6 (nps) + 14 (streak).
func healthyAccount() signal.HealthSignals {
	nps := 10
	return signal.HealthSignals{
		LoginsPerWeek:       5,
		ActiveSeatsPct:      80,
		FeatureBreadthPct:   60,
		OpenTickets:         2,
		NPS:                 &nps,
		PaymentStreakMonths: 6,
	}
}

func TestScoreHealth_NoCap(t *testing.T) {
	for _, band := range []scoring.Band{scoring.BandGreen, scoring.BandAmber} {
		ext := scoring.ExternalBands{scoring.DomainPayment: band}
		result := scoring.ScoreHealth("acct-1", healthyAccount(), ext, scoredAt)
		if result.Score != 85 {
			t.Errorf("external %s: Score = %v, want 85 uncapped", band, result.Score)
		}
	}

	// Absent domains apply no cap either.
	result := scoring.ScoreHealth("acct-1", healthyAccount(), nil, scoredAt)
	if result.Score != 85 {
		t.Errorf("no external bands: Score = %v, want 85", result.Score)
	}
	if result.Band != scoring.BandGreen {
		t.Errorf("Band = %s, want GREEN", result.Band)
	}
}

func TestScoreHealth_RedCap(t *testing.T) {
	ext := scoring.ExternalBands{scoring.DomainPayment: scoring.BandRed}
	result := scoring.ScoreHealth("acct-1", healthyAccount(), ext, scoredAt)

	if result.Score != 76.5 {
		t.Errorf("Score = %v, want 85.0 x 0.90 = 76.5", result.Score)
	}
}

func TestScoreHealth_CriticalCap(t *testing.T) {
	ext := scoring.ExternalBands{scoring.DomainTechnical: scoring.BandCritical}
	result := scoring.ScoreHealth("acct-1", healthyAccount(), ext, scoredAt)

	if result.Score != 68 {
		t.Errorf("Score = %v, want 85.0 x 0.80 = 68.0", result.Score)
	}
	if result.Band != scoring.BandAmber {
		t.Errorf("Band = %s, want AMBER derived from the capped score", result.Band)
	}
}

// Pins the composed cascade: payment cap applies before technical,
// 85.0 x 0.90 x 0.80 = 61.2 with no intermediate rounding.
func TestScoreHealth_CapCascadeComposes(t *testing.T) {
	ext := scoring.ExternalBands{
		scoring.DomainPayment:   scoring.BandRed,
		scoring.DomainTechnical: scoring.BandCritical,
	}
	result := scoring.ScoreHealth("acct-1", healthyAccount(), ext, scoredAt)

	if math.Abs(result.Score-61.2) > 1e-9 {
		t.Errorf("Score = %v, want 61.2", result.Score)
	}
}

func TestScoreHealth_CapRecordedInBreakdown(t *testing.T) {
	ext := scoring.ExternalBands{scoring.DomainPayment: scoring.BandRed}
	result := scoring.ScoreHealth("acct-1", healthyAccount(), ext, scoredAt)

	delta, ok := result.Breakdown["cap:payment_risk"]
	if !ok {
		t.Fatal("expected cap:payment_risk breakdown entry")
	}
	if delta >= 0 {
		t.Errorf("cap entry = %v, want negative", delta)
	}

	var sum float64
	for _, v := range result.Breakdown {
		sum += v
	}
	if math.Abs(result.Score-sum) > 1e-9 {
		t.Errorf("Score %v != breakdown sum %v", result.Score, sum)
	}
}

func TestShouldEscalateHealth(t *testing.T) {
	res := func(score float64) *scoring.ScoreResult {
		return &scoring.ScoreResult{Score: score, Band: scoring.HealthBand(score)}
	}

	tests := []struct {
		name string
		curr *scoring.ScoreResult
		prev *scoring.ScoreResult
		want bool
	}{
		{"below absolute floor", res(35), nil, true},
		{"floor with history", res(39.9), res(80), true},
		{"entered red", res(45), res(55), true},
		{"stayed red", res(45), res(40), false},
		{"green to amber", res(60), res(80), true},
		{"amber to amber", res(60), res(55), false},
		{"healthy no history", res(90), nil, false},
		{"amber no history", res(60), nil, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := scoring.ShouldEscalateHealth(tc.curr, tc.prev); got != tc.want {
				t.Errorf("ShouldEscalateHealth = %v, want %v", got, tc.want)
			}
		})
	}
}
