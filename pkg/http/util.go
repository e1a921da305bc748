package http

import (
	"time"

	xutil "ManifoldPulse/pkg/util"
)

// ParseIntDefault parses s as an int, falling back to def.
func ParseIntDefault(s string, def int) int { return xutil.ParseIntDefault(s, def) }

// ParseTime tries RFC3339, RFC3339Nano, then unix seconds.
func ParseTime(s string) (time.Time, error) { return xutil.ParseTime(s) }

// ParseTimeDefault parses s or returns def when empty or malformed.
func ParseTimeDefault(s string, def time.Time) time.Time { return xutil.ParseTimeDefault(s, def) }
