package repository

import (
	"context"
	"time"

	"ManifoldPulse/internal/domain/models"
	domrepo "ManifoldPulse/internal/domain/repository"
	applogger "ManifoldPulse/pkg/logger"
)

// FallbackCandleStore reads from the primary store and falls back to
// the secondary when the primary errors or has no rows. Local
// ClickHouse history is primary; the exchange REST API fills gaps for
// symbols not yet ingested.
type FallbackCandleStore struct {
	primary   domrepo.CandleStore
	secondary domrepo.CandleStore
	l         *applogger.Logger
}

func NewFallbackCandleStore(primary, secondary domrepo.CandleStore, l *applogger.Logger) *FallbackCandleStore {
	return &FallbackCandleStore{primary: primary, secondary: secondary, l: l}
}

func (s *FallbackCandleStore) GetCandles(ctx context.Context, symbol string, from, to time.Time, iv domrepo.Interval) ([]models.Candle, error) {
	candles, err := s.primary.GetCandles(ctx, symbol, from, to, iv)
	if err == nil && len(candles) > 0 {
		return candles, nil
	}
	if s.secondary == nil {
		return candles, err
	}
	if err != nil && s.l != nil {
		s.l.Warn("primary candle store failed, falling back",
			applogger.String("symbol", symbol),
			applogger.Error(err),
		)
	}
	return s.secondary.GetCandles(ctx, symbol, from, to, iv)
}

func (s *FallbackCandleStore) GetLatestNCandles(ctx context.Context, symbol string, n int, iv domrepo.Interval) ([]models.Candle, error) {
	candles, err := s.primary.GetLatestNCandles(ctx, symbol, n, iv)
	if err == nil && len(candles) > 0 {
		return candles, nil
	}
	if s.secondary == nil {
		return candles, err
	}
	if err != nil && s.l != nil {
		s.l.Warn("primary candle store failed, falling back",
			applogger.String("symbol", symbol),
			applogger.Error(err),
		)
	}
	return s.secondary.GetLatestNCandles(ctx, symbol, n, iv)
}

var _ domrepo.CandleStore = (*FallbackCandleStore)(nil)
