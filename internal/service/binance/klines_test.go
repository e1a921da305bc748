package binance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	drepo "ManifoldPulse/internal/domain/repository"
	httpclient "ManifoldPulse/pkg/http"
)

const klinesBody = `[
  [1700000000000, "100.5", "101.0", "99.5", "100.8", "12.34", 1700000059999, "0", 1, "0", "0", "0"],
  [1700000060000, "100.8", "102.0", "100.7", "101.9", "8.00", 1700000119999, "0", 1, "0", "0", "0"],
  [1700000120000, "bad", "102.0", "100.7", "101.9", "8.00", 1700000179999, "0", 1, "0", "0", "0"]
]`

func TestKlinesParsing(t *testing.T) {
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/klines" {
			t.Errorf("path = %q", r.URL.Path)
		}
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(klinesBody))
	}))
	defer srv.Close()

	k := NewKlinesClient(srv.URL, httpclient.NewClient())
	candles, err := k.GetLatestNCandles(context.Background(), "BTCUSDT", 3, drepo.IV1m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The malformed third row is skipped, not fatal.
	if len(candles) != 2 {
		t.Fatalf("got %d candles, want 2", len(candles))
	}

	c := candles[0]
	if !c.Bucket.Equal(time.UnixMilli(1700000000000)) {
		t.Fatalf("bucket = %v", c.Bucket)
	}
	if c.Symbol != "BTCUSDT" || c.Open != 100.5 || c.High != 101.0 || c.Low != 99.5 || c.Close != 100.8 || c.Volume != 12.34 {
		t.Fatalf("candle = %+v", c)
	}

	if got := gotQuery["interval"]; len(got) != 1 || got[0] != "1m" {
		t.Fatalf("interval query = %v", got)
	}
	if got := gotQuery["limit"]; len(got) != 1 || got[0] != "3" {
		t.Fatalf("limit query = %v", got)
	}
}

func TestKlinesLimitClamp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("limit"); got != "1000" {
			t.Errorf("limit = %q, want 1000", got)
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	k := NewKlinesClient(srv.URL, httpclient.NewClient())
	for _, n := range []int{0, -5, 5000} {
		if _, err := k.GetLatestNCandles(context.Background(), "BTCUSDT", n, drepo.IV1h); err != nil {
			t.Fatalf("n=%d: %v", n, err)
		}
	}
}

func TestIntervalParam(t *testing.T) {
	if got := intervalParam(drepo.IV1d); got != "1d" {
		t.Fatalf("got %q", got)
	}
	if got := intervalParam(drepo.Interval("junk")); got != "1m" {
		t.Fatalf("got %q, want 1m default", got)
	}
}
