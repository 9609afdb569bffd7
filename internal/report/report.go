// Package report renders delayed and blocked migration listings for
// terminal output.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/safemigrate/safemigrate/internal/gate"
	"github.com/safemigrate/safemigrate/internal/types"
)

// Ayu theme subset, adaptive light/dark.
var (
	colorWarn = lipgloss.AdaptiveColor{
		Light: "#f2ae49", // ayu light bright yellow
		Dark:  "#ffb454", // ayu dark bright yellow
	}
	colorFail = lipgloss.AdaptiveColor{
		Light: "#f07171", // ayu light bright red
		Dark:  "#f07178", // ayu dark bright red
	}
	colorMuted = lipgloss.AdaptiveColor{
		Light: "#828c99",
		Dark:  "#6c7680",
	}
	colorAccent = lipgloss.AdaptiveColor{
		Light: "#399ee6",
		Dark:  "#59c2ff",
	}
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	warnStyle    = lipgloss.NewStyle().Foreground(colorWarn)
	failStyle    = lipgloss.NewStyle().Foreground(colorFail)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
)

// Print writes the delayed and blocked listings from a gate result.
// Ready migrations are not listed here; they are the plan itself.
func Print(w io.Writer, res *gate.Result, now time.Time) {
	if res == nil || res.Bypassed {
		return
	}
	PrintDelayed(w, res.Delayed, res.Detected, now)
	PrintBlocked(w, res.Blocked)
}

// PrintDelayed lists delayed migrations in plan order. Timed
// after_deploy migrations include when they become eligible, computed
// from the detection record when one exists, otherwise from now.
func PrintDelayed(w io.Writer, delayed []*types.Migration, detected map[types.Identity]time.Time, now time.Time) {
	if len(delayed) == 0 {
		return
	}
	fmt.Fprintln(w, headingStyle.Render("Delayed migrations:"))
	for _, m := range delayed {
		if m.Safe.Kind == types.SafeAfterDeployKind && m.Safe.Delay != nil {
			start, ok := detected[m.Identity]
			if !ok {
				start = now
			}
			eligible := start.Add(*m.Safe.Delay)
			fmt.Fprintf(w, "  %s %s\n",
				warnStyle.Render(m.Identity.String()),
				mutedStyle.Render(fmt.Sprintf("(can automatically migrate in %s - %s)",
					Until(eligible, now), eligible.Format(time.RFC3339))))
		} else {
			fmt.Fprintf(w, "  %s\n", warnStyle.Render(m.Identity.String()))
		}
	}
}

// PrintBlocked lists blocked migrations in plan order.
func PrintBlocked(w io.Writer, blocked []*types.Migration) {
	if len(blocked) == 0 {
		return
	}
	fmt.Fprintln(w, headingStyle.Render("Blocked migrations:"))
	for _, m := range blocked {
		fmt.Fprintf(w, "  %s\n", failStyle.Render(m.Identity.String()))
	}
}

// PrintInvalid lists migrations with malformed policies.
func PrintInvalid(w io.Writer, ids []types.Identity) {
	if len(ids) == 0 {
		return
	}
	fmt.Fprintln(w, headingStyle.Render("Invalid migrations:"))
	for _, id := range ids {
		fmt.Fprintf(w, "  %s\n", failStyle.Render(id.String()))
	}
}

// PrintDetections lists detection records oldest first.
func PrintDetections(w io.Writer, records []types.DetectionRecord) {
	if len(records) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No detections recorded."))
		return
	}
	fmt.Fprintln(w, headingStyle.Render("Detected migrations:"))
	for _, rec := range records {
		fmt.Fprintf(w, "  %s %s\n", rec.Identity,
			mutedStyle.Render(rec.Detected.Format(time.RFC3339)))
	}
}

// Until humanizes the time from now to t using the two most
// significant units, e.g. "2 days, 3 hours". Sub-minute distances
// render as "0 minutes".
func Until(t, now time.Time) string {
	d := t.Sub(now)
	if d < time.Minute {
		return "0 minutes"
	}

	units := []struct {
		name string
		size time.Duration
	}{
		{"week", 7 * 24 * time.Hour},
		{"day", 24 * time.Hour},
		{"hour", time.Hour},
		{"minute", time.Minute},
	}

	var parts []string
	for _, u := range units {
		if len(parts) == 2 {
			break
		}
		n := d / u.size
		if n == 0 {
			// Only the leading unit may be skipped; after the first
			// emitted part, stop at the first gap.
			if len(parts) > 0 {
				break
			}
			continue
		}
		parts = append(parts, plural(int(n), u.name))
		d -= n * u.size
	}

	out := parts[0]
	if len(parts) > 1 {
		out += ", " + parts[1]
	}
	return out
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
