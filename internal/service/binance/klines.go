package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"ManifoldPulse/internal/domain/models"
	drepo "ManifoldPulse/internal/domain/repository"
	"ManifoldPulse/pkg/cache"
	httpclient "ManifoldPulse/pkg/http"
)

// KlinesClient fetches historical candles from the Binance REST API.
// It backs the analysis endpoints when ClickHouse has no local history.
type KlinesClient struct {
	baseURL  string
	http     *httpclient.Client
	cache    cache.Service
	cacheTTL time.Duration
}

// NewKlinesClient creates a klines fetcher against the given REST base URL.
func NewKlinesClient(baseURL string, client *httpclient.Client) *KlinesClient {
	return &KlinesClient{baseURL: baseURL, http: client, cacheTTL: 30 * time.Second}
}

// SetCache enables short-lived caching of kline responses.
func (k *KlinesClient) SetCache(c cache.Service, ttl time.Duration) {
	k.cache = c
	if ttl > 0 {
		k.cacheTTL = ttl
	}
}

func intervalParam(iv drepo.Interval) string {
	switch iv {
	case drepo.IV1h:
		return "1h"
	case drepo.IV1d:
		return "1d"
	default:
		return "1m"
	}
}

// GetCandles fetches candles in [from, to] at the given interval.
func (k *KlinesClient) GetCandles(ctx context.Context, symbol string, from, to time.Time, iv drepo.Interval) ([]models.Candle, error) {
	params := map[string][]string{
		"symbol":    {symbol},
		"interval":  {intervalParam(iv)},
		"startTime": {strconv.FormatInt(from.UnixMilli(), 10)},
		"endTime":   {strconv.FormatInt(to.UnixMilli(), 10)},
		"limit":     {"1000"},
	}
	return k.fetch(ctx, symbol, params)
}

// GetLatestNCandles fetches the most recent n candles.
func (k *KlinesClient) GetLatestNCandles(ctx context.Context, symbol string, n int, iv drepo.Interval) ([]models.Candle, error) {
	if n <= 0 || n > 1000 {
		n = 1000
	}
	key := cache.GenerateKeyWithParams("klines", symbol, intervalParam(iv), n)
	if k.cache != nil {
		var cached []models.Candle
		if err := k.cache.Get(ctx, key, &cached); err == nil && len(cached) > 0 {
			return cached, nil
		}
	}
	params := map[string][]string{
		"symbol":   {symbol},
		"interval": {intervalParam(iv)},
		"limit":    {strconv.Itoa(n)},
	}
	candles, err := k.fetch(ctx, symbol, params)
	if err != nil {
		return nil, err
	}
	if k.cache != nil && len(candles) > 0 {
		_ = k.cache.Set(ctx, key, candles, k.cacheTTL)
	}
	return candles, nil
}

func (k *KlinesClient) fetch(ctx context.Context, symbol string, params map[string][]string) ([]models.Candle, error) {
	// Each kline is a positional array:
	// [openTime, open, high, low, close, volume, closeTime, ...]
	var raw [][]json.RawMessage
	err := k.http.SendAndParse(ctx, &httpclient.RequestOptions{
		Method:      httpclient.MethodGet,
		URL:         k.baseURL + "/api/v3/klines",
		QueryParams: params,
	}, &raw)
	if err != nil {
		return nil, fmt.Errorf("binance klines %s: %w", symbol, err)
	}

	candles := make([]models.Candle, 0, len(raw))
	for _, row := range raw {
		if len(row) < 6 {
			continue
		}
		var openMs int64
		if err := json.Unmarshal(row[0], &openMs); err != nil {
			continue
		}
		c := models.Candle{
			Bucket: time.UnixMilli(openMs).UTC(),
			Symbol: symbol,
		}
		fields := []*float64{&c.Open, &c.High, &c.Low, &c.Close, &c.Volume}
		ok := true
		for i, dst := range fields {
			var s string
			if err := json.Unmarshal(row[i+1], &s); err != nil {
				ok = false
				break
			}
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				ok = false
				break
			}
			*dst = v
		}
		if !ok {
			continue
		}
		candles = append(candles, c)
	}
	return candles, nil
}

var _ drepo.CandleStore = (*KlinesClient)(nil)
