package config

import (
	"time"

	"github.com/jmylchreest/catarr/pkg/bytesize"
	"github.com/jmylchreest/catarr/pkg/duration"
)

// Duration is a time.Duration that parses calendar-style strings such as
// "7d" or "2w" in config files and environment variables, alongside the
// standard Go forms.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for viper and YAML.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := duration.Parse(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// String renders the duration with calendar units where they fit.
func (d Duration) String() string {
	return duration.Format(time.Duration(d))
}

// ByteSize is a byte count that parses human-readable strings such as
// "100MB" or "1.5GiB" in config files and environment variables. A bare
// number is a byte count.
type ByteSize int64

// UnmarshalText implements encoding.TextUnmarshaler for viper and YAML.
func (b *ByteSize) UnmarshalText(text []byte) error {
	parsed, err := bytesize.Parse(string(text))
	if err != nil {
		return err
	}
	*b = ByteSize(parsed)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (b ByteSize) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// Bytes returns the size as an int64 byte count.
func (b ByteSize) Bytes() int64 {
	return int64(b)
}

// String renders the size with binary units.
func (b ByteSize) String() string {
	return bytesize.Format(bytesize.Size(b))
}
