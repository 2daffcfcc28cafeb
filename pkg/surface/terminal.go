package surface

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/pulsegate/pulsegate/pkg/scoring"
)

// TerminalRenderer renders ScoreResult as colored terminal output.
type TerminalRenderer struct{}

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
)

func bandColor(band scoring.Band) string {
	if noColor() {
		return ""
	}
	switch band {
	case scoring.BandGreen:
		return colorGreen
	case scoring.BandAmber:
		return colorYellow
	case scoring.BandRed, scoring.BandCritical:
		return colorRed
	default:
		return ""
	}
}

func noColor() bool {
	_, ok := os.LookupEnv("NO_COLOR")
	return ok
}

func bold(s string) string {
	if noColor() {
		return s
	}
	return colorBold + s + colorReset
}

func dim(s string) string {
	if noColor() {
		return s
	}
	return colorDim + s + colorReset
}

func colored(s, color string) string {
	if noColor() || color == "" {
		return s
	}
	return color + s + colorReset
}

func (r *TerminalRenderer) Render(w io.Writer, result *scoring.ScoreResult) error {
	bc := bandColor(result.Band)

	fmt.Fprintf(w, "%s\n\n",
		bold(fmt.Sprintf("Pulsegate: %s — %s %.1f",
			result.Domain, colored(string(result.Band), bc), result.Score)))

	keys := make([]string, 0, len(result.Breakdown))
	for k := range result.Breakdown {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	if len(keys) > 0 {
		fmt.Fprintln(w, "Breakdown:")
		for _, k := range keys {
			v := result.Breakdown[k]
			sign := "+"
			if v < 0 {
				sign = ""
			}
			fmt.Fprintf(w, "  (%s%.1f) %s\n", sign, v, k)
		}
		fmt.Fprintln(w)
	}

	if result.Escalate {
		fmt.Fprintf(w, "%s\n", colored("Escalation recommended.", colorRed))
	} else {
		fmt.Fprintln(w, dim("No escalation."))
	}

	return nil
}
