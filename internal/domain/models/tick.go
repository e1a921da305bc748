package models

// Tick is a single realtime trade print from a market feed.
type Tick struct {
	Symbol    string
	Timestamp int64 // unix seconds
	Price     float64
	Volume    float64
}
