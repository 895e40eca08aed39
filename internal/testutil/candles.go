// Package testutil builds deterministic candle series for tests.
package testutil

import "ZenithCore/internal/domain/models"

// BaseTime is the unix second of the first generated candle.
const BaseTime int64 = 1_700_000_000

// Day is the spacing of generated candles in seconds.
const Day int64 = 86_400

// FromCloses builds daily candles whose open is the previous close and whose
// high/low sit spread above/below the body.
func FromCloses(closes []float64, volume, spread float64) []models.Candle {
	out := make([]models.Candle, len(closes))
	for i, c := range closes {
		open := c
		if i > 0 {
			open = closes[i-1]
		}
		hi, lo := open, c
		if c > open {
			hi, lo = c, open
		}
		out[i] = models.Candle{
			Time:   BaseTime + int64(i)*Day,
			Open:   open,
			High:   hi + spread,
			Low:    lo - spread,
			Close:  c,
			Volume: volume,
		}
	}
	return out
}

// Flat builds n identical candles around price.
func Flat(n int, price, volume float64) []models.Candle {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = price
	}
	return FromCloses(closes, volume, 0.5)
}

// Linear builds n candles whose close moves by step each day.
func Linear(n int, start, step, volume float64) []models.Candle {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = start + float64(i)*step
	}
	return FromCloses(closes, volume, 0.5)
}

// Geometric builds n candles whose close compounds by rate each day.
func Geometric(n int, start, rate, volume float64) []models.Candle {
	closes := make([]float64, n)
	v := start
	for i := range closes {
		closes[i] = v
		v *= 1 + rate
	}
	return FromCloses(closes, volume, 0.5)
}

// Reverse returns a newest-first copy.
func Reverse(candles []models.Candle) []models.Candle {
	out := make([]models.Candle, len(candles))
	for i, c := range candles {
		out[len(candles)-1-i] = c
	}
	return out
}
