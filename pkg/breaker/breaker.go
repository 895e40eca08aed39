// Package breaker wraps sony/gobreaker with the trip policy shared by
// outbound provider clients.
package breaker

import (
	"errors"
	"time"

	"github.com/sony/gobreaker"

	"ZenithCore/pkg/logger"
)

// ErrOpen is returned while the breaker rejects calls.
var ErrOpen = gobreaker.ErrOpenState

// Config tunes the trip policy.
type Config struct {
	Interval            time.Duration `yaml:"interval" default:"60s"`
	Timeout             time.Duration `yaml:"timeout" default:"60s"`
	ConsecutiveFailures uint32        `yaml:"consecutive_failures" default:"3"`
	MinRequests         uint32        `yaml:"min_requests" default:"20"`
	FailureRatio        float64       `yaml:"failure_ratio" default:"0.05"`
}

func DefaultConfig() Config {
	return Config{
		Interval:            60 * time.Second,
		Timeout:             60 * time.Second,
		ConsecutiveFailures: 3,
		MinRequests:         20,
		FailureRatio:        0.05,
	}
}

type Breaker struct {
	cb *gobreaker.CircuitBreaker
}

// New builds a named breaker. Zero config fields take the defaults.
func New(name string, cfg Config, log *logger.Logger) *Breaker {
	def := DefaultConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.ConsecutiveFailures == 0 {
		cfg.ConsecutiveFailures = def.ConsecutiveFailures
	}
	if cfg.MinRequests == 0 {
		cfg.MinRequests = def.MinRequests
	}
	if cfg.FailureRatio <= 0 {
		cfg.FailureRatio = def.FailureRatio
	}
	if log == nil {
		log = logger.Nop()
	}

	st := gobreaker.Settings{
		Name:     name,
		Interval: cfg.Interval,
		Timeout:  cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return ShouldTrip(cfg, counts)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state change",
				logger.String("breaker", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
		},
	}
	return &Breaker{cb: gobreaker.NewCircuitBreaker(st)}
}

// ShouldTrip trips on a run of consecutive failures, or on a failure ratio
// once enough requests were seen in the interval.
func ShouldTrip(cfg Config, counts gobreaker.Counts) bool {
	if counts.ConsecutiveFailures >= cfg.ConsecutiveFailures {
		return true
	}
	if counts.Requests < cfg.MinRequests {
		return false
	}
	return float64(counts.TotalFailures)/float64(counts.Requests) > cfg.FailureRatio
}

// Execute runs fn through the breaker.
func (b *Breaker) Execute(fn func() (any, error)) (any, error) {
	return b.cb.Execute(fn)
}

// Do is Execute for calls without a result.
func (b *Breaker) Do(fn func() error) error {
	_, err := b.cb.Execute(func() (any, error) { return nil, fn() })
	return err
}

func (b *Breaker) State() string {
	return b.cb.State().String()
}

// IsOpen reports whether err came from a rejecting breaker.
func IsOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
