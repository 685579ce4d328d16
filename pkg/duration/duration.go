// Package duration parses and formats durations with calendar-style units.
// It accepts everything time.ParseDuration accepts plus 'd' (days) and
// 'w' (weeks), so configuration can say "7d" or "2w" instead of "168h".
package duration

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Calendar units. Days and weeks are fixed-length, ignoring DST.
const (
	Day  = 24 * time.Hour
	Week = 7 * Day
)

var units = map[string]time.Duration{
	"ns": time.Nanosecond,
	"us": time.Microsecond,
	"µs": time.Microsecond,
	"ms": time.Millisecond,
	"s":  time.Second,
	"m":  time.Minute,
	"h":  time.Hour,
	"d":  Day,
	"w":  Week,
}

// Parse parses a duration string. Number-unit groups may repeat and may be
// separated by spaces: "1w2d12h", "1h 30m", "1.5d", "90s".
func Parse(s string) (time.Duration, error) {
	orig := s
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("duration: empty string")
	}

	neg := false
	if s[0] == '+' || s[0] == '-' {
		neg = s[0] == '-'
		s = s[1:]
	}
	if s == "0" {
		return 0, nil
	}

	var total time.Duration
	for len(s) > 0 {
		i := 0
		for i < len(s) && (s[i] >= '0' && s[i] <= '9' || s[i] == '.') {
			i++
		}
		if i == 0 {
			return 0, fmt.Errorf("duration: invalid syntax in %q", orig)
		}
		value, err := strconv.ParseFloat(s[:i], 64)
		if err != nil {
			return 0, fmt.Errorf("duration: invalid number %q in %q", s[:i], orig)
		}
		s = s[i:]

		j := 0
		for j < len(s) && (s[j] < '0' || s[j] > '9') && s[j] != '.' {
			j++
		}
		unit := strings.ToLower(strings.TrimSpace(s[:j]))
		mult, ok := units[unit]
		if !ok {
			return 0, fmt.Errorf("duration: unknown unit %q in %q", unit, orig)
		}
		s = s[j:]

		total += time.Duration(value * float64(mult))
	}

	if neg {
		total = -total
	}
	return total, nil
}

// Format renders a duration with the largest sensible units: weeks and days
// first, then the standard Go representation for any remainder, giving
// strings like "3d" or "1w2d12h0m0s" instead of "228h".
func Format(d time.Duration) string {
	if d == 0 {
		return "0s"
	}

	neg := d < 0
	if neg {
		d = -d
	}

	var b strings.Builder
	if w := d / Week; w > 0 {
		fmt.Fprintf(&b, "%dw", w)
		d -= w * Week
	}
	if days := d / Day; days > 0 {
		fmt.Fprintf(&b, "%dd", days)
		d -= days * Day
	}
	if d > 0 {
		b.WriteString(d.String())
	}

	out := b.String()
	if neg {
		out = "-" + out
	}
	return out
}
