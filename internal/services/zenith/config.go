// Package zenith computes the long-horizon zenith score of a symbol from
// daily history and persists it by symbol.
package zenith

import (
	"errors"
	"fmt"
	"math"

	"ZenithCore/internal/domain/models"
)

// ErrInvalidWeights is returned when horizon weights do not sum to 1.
var ErrInvalidWeights = errors.New("zenith weights must sum to 1")

const weightTolerance = 1e-6

// DefaultConfig returns the production weights and tuning constants.
func DefaultConfig() models.ZenithScoreConfig {
	return models.ZenithScoreConfig{
		Weights: models.ZenithWeights{
			Lifetime:  0.40,
			Yearly:    0.20,
			Quarterly: 0.15,
			Monthly:   0.15,
			Weekly:    0.10,
		},
		MinDataPoints:      30,
		VolatilityPenalty:  0.3,
		ConsistencyBonus:   0.2,
		RecoveryMultiplier: 1.5,
	}
}

// Validate checks weight sum and sign and the minimum data points.
func Validate(cfg models.ZenithScoreConfig) error {
	w := cfg.Weights
	for _, v := range []float64{w.Lifetime, w.Yearly, w.Quarterly, w.Monthly, w.Weekly} {
		if v < 0 {
			return fmt.Errorf("%w: negative weight %v", ErrInvalidWeights, v)
		}
	}
	if sum := w.Sum(); math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("%w: got %.4f", ErrInvalidWeights, sum)
	}
	if cfg.MinDataPoints < 2 {
		return fmt.Errorf("min data points must be at least 2, got %d", cfg.MinDataPoints)
	}
	return nil
}
