package scoring_test

import (
	"testing"

	"github.com/pulsegate/pulsegate/pkg/scoring"
	"github.com/pulsegate/pulsegate/pkg/signal"
)

func TestHealthBandBoundaries(t *testing.T) {
	tests := []struct {
		score float64
		want  scoring.Band
	}{
		{100, scoring.BandGreen},
		{75, scoring.BandGreen},
		{74.999, scoring.BandAmber},
		{50, scoring.BandAmber},
		{49.999, scoring.BandRed},
		{25, scoring.BandRed},
		{24.999, scoring.BandCritical},
		{0, scoring.BandCritical},
	}
	for _, tc := range tests {
		if got := scoring.HealthBand(tc.score); got != tc.want {
			t.Errorf("HealthBand(%v) = %s, want %s", tc.score, got, tc.want)
		}
	}
}

func TestScoreTechnical_HealthyPlatform(t *testing.T) {
	sig := signal.TechnicalSignals{
		UptimePct:    99.95,
		ErrorRatePct: 0.05,
	}
	result := scoring.ScoreTechnical("acct-1", sig, scoredAt)

	if result.Score != 100 {
		t.Errorf("Score = %v, want 100", result.Score)
	}
	if result.Band != scoring.BandGreen {
		t.Errorf("Band = %s, want GREEN", result.Band)
	}
	if result.Escalate {
		t.Error("healthy platform must not escalate")
	}
}

func TestScoreTechnical_DegradedPlatform(t *testing.T) {
	// 18 (uptime 98.5) + 14 (error rate 2) + 12 (2 incidents) + 10 (2 syncs) = 54.
	sig := signal.TechnicalSignals{
		UptimePct:     98.5,
		ErrorRatePct:  2.0,
		OpenIncidents: 2,
		FailedSyncs7d: 2,
	}
	result := scoring.ScoreTechnical("acct-1", sig, scoredAt)

	if result.Score != 54 {
		t.Fatalf("Score = %v, want 54", result.Score)
	}
	if result.Band != scoring.BandAmber {
		t.Errorf("Band = %s, want AMBER", result.Band)
	}
	if result.Escalate {
		t.Error("Escalate = true at 54, want false (floor is 40)")
	}
}

func TestScoreTechnical_FailingPlatform(t *testing.T) {
	// 8 (uptime 92) + 6 (error rate 4) + 6 (4 incidents) + 5 (5 syncs) = 25.
	sig := signal.TechnicalSignals{
		UptimePct:     92,
		ErrorRatePct:  4,
		OpenIncidents: 4,
		FailedSyncs7d: 5,
	}
	result := scoring.ScoreTechnical("acct-1", sig, scoredAt)

	if result.Score != 25 {
		t.Fatalf("Score = %v, want 25", result.Score)
	}
	if result.Band != scoring.BandRed {
		t.Errorf("Band = %s, want RED (boundary belongs to the better band)", result.Band)
	}
	if !result.Escalate {
		t.Error("Escalate = false at 25, want true")
	}
}

func TestScoreTechnical_BreakdownEntries(t *testing.T) {
	result := scoring.ScoreTechnical("acct-1", signal.TechnicalSignals{UptimePct: 99.5}, scoredAt)

	want := map[string]float64{
		"uptime":       28,
		"error_rate":   30,
		"incidents":    20,
		"failed_syncs": 15,
	}
	for key, points := range want {
		if got := result.Breakdown[key]; got != points {
			t.Errorf("Breakdown[%q] = %v, want %v", key, got, points)
		}
	}
}
