package binance

import "testing"

func TestDecodeTrade(t *testing.T) {
	frame := []byte(`{"e":"trade","E":1700000000123,"s":"BTCUSDT","t":12345,"p":"43250.10","q":"0.005","T":1700000000100}`)
	tick, ok := decodeTrade(frame)
	if !ok {
		t.Fatal("decode failed")
	}
	if tick.Symbol != "BTCUSDT" {
		t.Fatalf("symbol = %q", tick.Symbol)
	}
	if tick.Price != 43250.10 || tick.Volume != 0.005 {
		t.Fatalf("price/volume = %v/%v", tick.Price, tick.Volume)
	}
	// Trade time arrives in ms and is stored as unix seconds.
	if tick.Timestamp != 1700000000 {
		t.Fatalf("timestamp = %d", tick.Timestamp)
	}
}

func TestDecodeTradeIgnoresNonTradeFrames(t *testing.T) {
	frames := [][]byte{
		[]byte(`{"result":null,"id":1}`),                         // subscribe ack
		[]byte(`{"e":"aggTrade","s":"BTCUSDT","p":"1","q":"1"}`), // other event
		[]byte(`{"e":"trade","s":"BTCUSDT","p":"not-a-number"}`), // bad price
		[]byte(`not json`),
	}
	for _, f := range frames {
		if _, ok := decodeTrade(f); ok {
			t.Fatalf("frame %s decoded, want rejection", f)
		}
	}
}
