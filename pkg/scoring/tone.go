package scoring

import "github.com/pulsegate/pulsegate/pkg/signal"

// Tone modifier bounds. Lower reads warmer, higher reads firmer.
const (
	toneMin     = 0.6
	toneMax     = 1.4
	toneNeutral = 1.0
)

// Tone derives the tone modifier for one outreach draft from the
// commercial relationship. High-value, long-tenured accounts with a
// recent on-time streak get a softer register; small accounts with no
// payment history get a firmer one. The value is recomputed per message
// request and never stored.
func Tone(sig signal.RelationshipSignals) float64 {
	t := toneNeutral

	switch {
	case sig.AnnualValue >= 100000:
		t -= 0.15
	case sig.AnnualValue >= 25000:
		t -= 0.10
	case sig.AnnualValue >= 5000:
		t -= 0.05
	default:
		t += 0.10
	}

	switch {
	case sig.TenureMonths >= 36:
		t -= 0.10
	case sig.TenureMonths >= 12:
		t -= 0.05
	case sig.TenureMonths < 6:
		t += 0.10
	}

	switch {
	case sig.OnTimeStreakMonths >= 12:
		t -= 0.15
	case sig.OnTimeStreakMonths >= 6:
		t -= 0.10
	case sig.OnTimeStreakMonths >= 3:
		t -= 0.05
	default:
		t += 0.20
	}

	if t < toneMin {
		return toneMin
	}
	if t > toneMax {
		return toneMax
	}
	return t
}
