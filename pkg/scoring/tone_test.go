package scoring_test

import (
	"math"
	"testing"

	"github.com/pulsegate/pulsegate/pkg/scoring"
	"github.com/pulsegate/pulsegate/pkg/signal"
)

func TestTone_WarmForLoyalHighValue(t *testing.T) {
	got := scoring.Tone(signal.RelationshipSignals{
		AnnualValue:        150000,
		TenureMonths:       48,
		OnTimeStreakMonths: 12,
	})
	if math.Abs(got-0.6) > 1e-9 {
		t.Errorf("Tone = %v, want 0.6 (warm floor)", got)
	}
}

func TestTone_FirmForNewDelinquent(t *testing.T) {
	got := scoring.Tone(signal.RelationshipSignals{
		AnnualValue:        1000,
		TenureMonths:       2,
		OnTimeStreakMonths: 0,
	})
	if math.Abs(got-1.4) > 1e-9 {
		t.Errorf("Tone = %v, want 1.4 (firm ceiling)", got)
	}
}

func TestTone_StaysInRange(t *testing.T) {
	values := []float64{0, 1000, 5000, 25000, 100000, 500000}
	tenures := []int{0, 5, 12, 36, 120}
	streaks := []int{0, 3, 6, 12, 24}

	for _, v := range values {
		for _, tn := range tenures {
			for _, s := range streaks {
				got := scoring.Tone(signal.RelationshipSignals{
					AnnualValue:        v,
					TenureMonths:       tn,
					OnTimeStreakMonths: s,
				})
				if got < 0.6-1e-9 || got > 1.4+1e-9 {
					t.Errorf("Tone(value=%v tenure=%d streak=%d) = %v, out of [0.6, 1.4]", v, tn, s, got)
				}
			}
		}
	}
}
