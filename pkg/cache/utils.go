package cache

import "fmt"

// GenerateKeyWithParams builds a colon-delimited cache key from a
// prefix and its parameters, e.g. "klines:BTCUSDT:1m:500".
func GenerateKeyWithParams(prefix string, params ...interface{}) string {
	key := prefix
	for _, param := range params {
		key = fmt.Sprintf("%s:%v", key, param)
	}
	return key
}
