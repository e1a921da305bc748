package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"ManifoldPulse/internal/domain/models"
	domrepo "ManifoldPulse/internal/domain/repository"
)

type stubCandleStore struct {
	candles []models.Candle
	err     error
	calls   int
}

func (s *stubCandleStore) GetCandles(_ context.Context, _ string, _, _ time.Time, _ domrepo.Interval) ([]models.Candle, error) {
	s.calls++
	return s.candles, s.err
}

func (s *stubCandleStore) GetLatestNCandles(_ context.Context, _ string, _ int, _ domrepo.Interval) ([]models.Candle, error) {
	s.calls++
	return s.candles, s.err
}

func candlesAt(closes ...float64) []models.Candle {
	out := make([]models.Candle, len(closes))
	for i, c := range closes {
		out[i] = models.Candle{Bucket: time.Unix(int64(i*60), 0), Symbol: "BTCUSDT", Close: c}
	}
	return out
}

func TestFallbackPrefersPrimary(t *testing.T) {
	primary := &stubCandleStore{candles: candlesAt(1, 2)}
	secondary := &stubCandleStore{candles: candlesAt(9)}
	fs := NewFallbackCandleStore(primary, secondary, nil)

	got, err := fs.GetLatestNCandles(context.Background(), "BTCUSDT", 2, domrepo.IV1m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[1].Close != 2 {
		t.Fatalf("got %+v, want primary candles", got)
	}
	if secondary.calls != 0 {
		t.Fatalf("secondary queried %d times, want 0", secondary.calls)
	}
}

func TestFallbackOnPrimaryError(t *testing.T) {
	primary := &stubCandleStore{err: errors.New("connection refused")}
	secondary := &stubCandleStore{candles: candlesAt(5)}
	fs := NewFallbackCandleStore(primary, secondary, nil)

	got, err := fs.GetCandles(context.Background(), "BTCUSDT", time.Unix(0, 0), time.Unix(60, 0), domrepo.IV1m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Close != 5 {
		t.Fatalf("got %+v, want secondary candles", got)
	}
}

func TestFallbackOnEmptyPrimary(t *testing.T) {
	// A symbol not yet ingested returns zero rows, not an error.
	primary := &stubCandleStore{}
	secondary := &stubCandleStore{candles: candlesAt(7)}
	fs := NewFallbackCandleStore(primary, secondary, nil)

	got, err := fs.GetLatestNCandles(context.Background(), "SOLUSDT", 1, domrepo.IV1h)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Close != 7 {
		t.Fatalf("got %+v, want secondary candles", got)
	}
}

func TestFallbackWithoutSecondary(t *testing.T) {
	wantErr := errors.New("boom")
	primary := &stubCandleStore{err: wantErr}
	fs := NewFallbackCandleStore(primary, nil, nil)

	_, err := fs.GetLatestNCandles(context.Background(), "BTCUSDT", 1, domrepo.IV1m)
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
}
