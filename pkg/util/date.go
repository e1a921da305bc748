package util

import (
	"strconv"
	"time"
)

// ParseTime accepts RFC3339, RFC3339Nano, or a unix-seconds string.
func ParseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	sec, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(sec, 0).UTC(), nil
}

// ParseTimeDefault parses s, falling back to def when s is empty or invalid.
func ParseTimeDefault(s string, def time.Time) time.Time {
	if s == "" {
		return def
	}
	t, err := ParseTime(s)
	if err != nil {
		return def
	}
	return t
}

// AlignFromTo truncates from and to onto the bucket boundary for the given
// resolution so window queries line up with stored aggregates.
func AlignFromTo(from, to time.Time, resolution string) (time.Time, time.Time) {
	switch resolution {
	case "1h":
		return from.Truncate(time.Hour), to.Truncate(time.Hour)
	case "1d":
		return from.Truncate(24 * time.Hour), to.Truncate(24 * time.Hour)
	default:
		return from.Truncate(time.Minute), to.Truncate(time.Minute)
	}
}
