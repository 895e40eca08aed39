package util

import "time"

// BucketSize returns the candle width of a timeframe label. Unknown labels
// are treated as daily.
func BucketSize(tf string) time.Duration {
	switch tf {
	case "1m":
		return time.Minute
	case "5m":
		return 5 * time.Minute
	case "1h":
		return time.Hour
	default:
		return 24 * time.Hour
	}
}

// AlignFromTo rounds the time range down to bucket boundaries for the
// timeframe, so a range always covers the bucket its ends fall into.
func AlignFromTo(from, to time.Time, tf string) (time.Time, time.Time) {
	d := BucketSize(tf)
	return from.UTC().Truncate(d), to.UTC().Truncate(d)
}
