package repository

import (
	"context"
	"time"

	"ManifoldPulse/internal/domain/models"
)

// Interval represents candle resolution buckets in storage.
type Interval string

const (
	IV1m Interval = "1m"
	IV1h Interval = "1h"
	IV1d Interval = "1d"
)

// IsValidInterval returns true if iv is a supported candle interval.
func IsValidInterval(iv Interval) bool {
	switch iv {
	case IV1m, IV1h, IV1d:
		return true
	default:
		return false
	}
}

// NormalizeInterval converts a raw string to a valid interval (or the default 1m).
func NormalizeInterval(s string) Interval {
	if s == "" {
		return IV1m
	}
	iv := Interval(s)
	if IsValidInterval(iv) {
		return iv
	}
	return IV1m
}

// CandleStore provides read-only access to candle history for analysis.
type CandleStore interface {
	GetCandles(ctx context.Context, symbol string, from, to time.Time, iv Interval) ([]models.Candle, error)
	GetLatestNCandles(ctx context.Context, symbol string, n int, iv Interval) ([]models.Candle, error)
}
