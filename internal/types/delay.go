package types

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// delayRe matches compact delay syntax: (\d+)([mhdw])
// Examples: 30m, 6h, 1d, 2w
var delayRe = regexp.MustCompile(`^(\d+)([mhdw])$`)

// ParseDelay parses the compact delay syntax used in plan manifests.
//
// Units:
//   - m = minutes
//   - h = hours
//   - d = days
//   - w = weeks
//
// Unlike deploy timestamps, delays are plain durations, so days and
// weeks are fixed at 24h and 168h rather than calendar-adjusted.
func ParseDelay(s string) (time.Duration, error) {
	matches := delayRe.FindStringSubmatch(s)
	if matches == nil {
		// Fall back to Go duration syntax (e.g. "1h30m")
		if d, err := time.ParseDuration(s); err == nil && d >= 0 {
			return d, nil
		}
		return 0, fmt.Errorf("invalid delay %q: expected a value like \"30m\", \"6h\", \"1d\", or \"2w\"", s)
	}

	amount, err := strconv.Atoi(matches[1])
	if err != nil {
		return 0, fmt.Errorf("invalid delay amount %q", matches[1])
	}

	switch matches[2] {
	case "m":
		return time.Duration(amount) * time.Minute, nil
	case "h":
		return time.Duration(amount) * time.Hour, nil
	case "d":
		return time.Duration(amount) * 24 * time.Hour, nil
	case "w":
		return time.Duration(amount) * 7 * 24 * time.Hour, nil
	}
	// Unreachable given the regex, but keep the compiler honest.
	return 0, fmt.Errorf("invalid delay unit %q", matches[2])
}
