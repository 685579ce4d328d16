// Package bytesize parses and formats byte counts. Units use the binary
// (1024) base regardless of spelling, so "1KB" and "1KiB" both mean 1024
// bytes. A bare number is a byte count.
package bytesize

import (
	"fmt"
	"strconv"
	"strings"
)

// Size is a byte count.
type Size int64

// Binary size constants.
const (
	B   Size = 1
	KiB      = 1024 * B
	MiB      = 1024 * KiB
	GiB      = 1024 * MiB
	TiB      = 1024 * GiB
	PiB      = 1024 * TiB
)

var unitMultipliers = map[string]Size{
	"":    B,
	"B":   B,
	"K":   KiB,
	"KB":  KiB,
	"KIB": KiB,
	"M":   MiB,
	"MB":  MiB,
	"MIB": MiB,
	"G":   GiB,
	"GB":  GiB,
	"GIB": GiB,
	"T":   TiB,
	"TB":  TiB,
	"TIB": TiB,
	"P":   PiB,
	"PB":  PiB,
	"PIB": PiB,
}

// Parse parses a human-readable size string: "100MB", "1.5 GiB", "500kb",
// "2048".
func Parse(s string) (Size, error) {
	orig := s
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("bytesize: empty string")
	}

	i := 0
	for i < len(s) && (s[i] >= '0' && s[i] <= '9' || s[i] == '.') {
		i++
	}
	if i == 0 {
		return 0, fmt.Errorf("bytesize: invalid syntax in %q", orig)
	}

	value, err := strconv.ParseFloat(s[:i], 64)
	if err != nil {
		return 0, fmt.Errorf("bytesize: invalid number %q in %q", s[:i], orig)
	}

	unit := strings.ToUpper(strings.TrimSpace(s[i:]))
	mult, ok := unitMultipliers[unit]
	if !ok {
		return 0, fmt.Errorf("bytesize: unknown unit %q in %q", unit, orig)
	}

	return Size(value * float64(mult)), nil
}

var formatSuffixes = []string{"KB", "MB", "GB", "TB", "PB"}

// Format renders a size with the largest unit that keeps the value at or
// above one, trimming a trailing ".0": 1536 bytes becomes "1.5KB".
func Format(s Size) string {
	if s > -KiB && s < KiB {
		return fmt.Sprintf("%dB", int64(s))
	}

	value := float64(s)
	idx := -1
	for (value >= 1024 || value <= -1024) && idx < len(formatSuffixes)-1 {
		value /= 1024
		idx++
	}

	out := strconv.FormatFloat(value, 'f', 1, 64)
	out = strings.TrimSuffix(out, ".0")
	return out + formatSuffixes[idx]
}

// String implements fmt.Stringer.
func (s Size) String() string {
	return Format(s)
}

// Bytes returns the size as an int64 byte count.
func (s Size) Bytes() int64 {
	return int64(s)
}
