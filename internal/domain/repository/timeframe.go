package repository

import "time"

var timeframeWidth = map[Timeframe]time.Duration{
	TF1m: time.Minute,
	TF5m: 5 * time.Minute,
	TF1h: time.Hour,
	TF1d: 24 * time.Hour,
}

// Valid reports whether tf is one of the stored resolutions.
func (tf Timeframe) Valid() bool {
	_, ok := timeframeWidth[tf]
	return ok
}

// Width is the bucket length of tf; unknown values are daily.
func (tf Timeframe) Width() time.Duration {
	if d, ok := timeframeWidth[tf]; ok {
		return d
	}
	return timeframeWidth[TF1d]
}

// NormalizeTimeframe maps empty or unknown input to TF1d.
func NormalizeTimeframe(s string) Timeframe {
	if tf := Timeframe(s); tf.Valid() {
		return tf
	}
	return TF1d
}
