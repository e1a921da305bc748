package models

import "time"

// Candle represents an OHLCV record used to build analysis series.
type Candle struct {
	Bucket time.Time
	Symbol string
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Series unpacks candles into the parallel arrays the engine consumes.
// Timestamps are unix seconds; prices are close prices.
func Series(candles []Candle) (prices, volumes, timestamps []float64) {
	prices = make([]float64, len(candles))
	volumes = make([]float64, len(candles))
	timestamps = make([]float64, len(candles))
	for i, c := range candles {
		prices[i] = c.Close
		volumes[i] = c.Volume
		timestamps[i] = float64(c.Bucket.Unix())
	}
	return prices, volumes, timestamps
}
