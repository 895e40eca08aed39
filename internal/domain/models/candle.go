package models

import "time"

// Candle is one OHLCV interval. Time is unix seconds.
type Candle struct {
	Time   int64   `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// Timestamp returns the candle open time in UTC.
func (c Candle) Timestamp() time.Time {
	return time.Unix(c.Time, 0).UTC()
}

// AssetType identifies the market a symbol trades on.
type AssetType string

const (
	AssetStock  AssetType = "stock"
	AssetForex  AssetType = "forex"
	AssetCrypto AssetType = "crypto"
)

// Valid reports whether a is a known asset type.
func (a AssetType) Valid() bool {
	return a == AssetStock || a == AssetForex || a == AssetCrypto
}

// HistoryRange is a lookback window for one-shot history fetches.
type HistoryRange string

const (
	Range1M HistoryRange = "1M"
	Range3M HistoryRange = "3M"
	Range6M HistoryRange = "6M"
	Range1Y HistoryRange = "1Y"
	Range5Y HistoryRange = "5Y"
)

// rangeLimits are trading-day candle counts per range.
var rangeLimits = map[HistoryRange]int{
	Range1M: 22,
	Range3M: 65,
	Range6M: 130,
	Range1Y: 252,
	Range5Y: 1260,
}

// Limit returns the number of daily candles kept for the range.
// Unknown ranges fall back to one year.
func (r HistoryRange) Limit() int {
	if n, ok := rangeLimits[r]; ok {
		return n
	}
	return rangeLimits[Range1Y]
}

// Valid reports whether r is a supported range.
func (r HistoryRange) Valid() bool {
	_, ok := rangeLimits[r]
	return ok
}
