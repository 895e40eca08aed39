package models

// ReplaySpeed is a playback multiplier.
type ReplaySpeed int

const (
	Speed1x ReplaySpeed = 1
	Speed2x ReplaySpeed = 2
	Speed4x ReplaySpeed = 4
)

// Valid reports whether s is one of 1, 2 or 4.
func (s ReplaySpeed) Valid() bool {
	return s == Speed1x || s == Speed2x || s == Speed4x
}

// ReplayStatus is a snapshot of replay playback.
type ReplayStatus struct {
	IsPlaying        bool        `json:"is_playing"`
	CurrentIndex     int         `json:"current_index"`
	Total            int         `json:"total"`
	CurrentTimestamp int64       `json:"current_timestamp"`
	DisplayTime      string      `json:"display_time"`
	Progress         float64     `json:"progress"`
	Speed            ReplaySpeed `json:"speed"`
}

// ReplayTick is delivered for every animation frame and on seek.
// Timestamp is the virtual clock in unix seconds, fractional between candles.
type ReplayTick struct {
	Candle    Candle       `json:"candle"`
	Price     float64      `json:"price"`
	Index     int          `json:"index"`
	Timestamp float64      `json:"timestamp"`
	Status    ReplayStatus `json:"status"`
}
