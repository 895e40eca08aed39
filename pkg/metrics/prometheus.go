package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"ZenithCore/internal/domain/models"
)

// Recorder implements repository.Metrics using Prometheus.
type Recorder struct {
	regimes        *prometheus.CounterVec
	signals        *prometheus.CounterVec
	scores         *prometheus.GaugeVec
	historyFetches *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
	latency        *prometheus.HistogramVec
	replaySessions prometheus.Gauge
}

// New creates a recorder registered on reg. A nil reg uses the default
// registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	r := &Recorder{
		regimes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zenith_regime_classifications_total",
				Help: "Regime classifications by label",
			},
			[]string{"regime"},
		),
		signals: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zenith_pulse_signals_total",
				Help: "Pulse signals emitted by strategy and category",
			},
			[]string{"strategy", "category"},
		),
		scores: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "zenith_score",
				Help: "Latest zenith score per symbol",
			},
			[]string{"symbol"},
		),
		historyFetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zenith_history_fetches_total",
				Help: "History fetches by source and result",
			},
			[]string{"source", "result"},
		),
		errorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zenith_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "zenith_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		replaySessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "zenith_replay_sessions_active",
			Help: "Open replay sessions",
		}),
	}
	reg.MustRegister(r.regimes, r.signals, r.scores, r.historyFetches, r.errorsTotal, r.latency, r.replaySessions)
	return r
}

func (r *Recorder) RecordRegime(regime models.RegimeType) {
	r.regimes.WithLabelValues(string(regime)).Inc()
}

// RecordSignals counts each signal under its own strategy, falling back to
// the detector strategy for unstamped signals.
func (r *Recorder) RecordSignals(strategy models.StrategyKind, signals []models.PulseSignal) {
	for _, s := range signals {
		kind := s.Strategy
		if kind == "" {
			kind = strategy
		}
		r.signals.WithLabelValues(string(kind), string(s.Category)).Inc()
	}
}

func (r *Recorder) RecordScore(symbol string, score float64) {
	r.scores.WithLabelValues(symbol).Set(score)
}

func (r *Recorder) RecordHistoryFetch(source, result string) {
	r.historyFetches.WithLabelValues(source, result).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

func (r *Recorder) ReplaySessionOpened() { r.replaySessions.Inc() }

func (r *Recorder) ReplaySessionClosed() { r.replaySessions.Dec() }

// Nop discards everything. Used by the CLI and tests.
type Nop struct{}

func (Nop) RecordRegime(models.RegimeType)                         {}
func (Nop) RecordSignals(models.StrategyKind, []models.PulseSignal) {}
func (Nop) RecordScore(string, float64)                            {}
func (Nop) RecordHistoryFetch(string, string)                      {}
func (Nop) RecordError(string)                                     {}
func (Nop) RecordLatency(string, float64)                          {}
func (Nop) ReplaySessionOpened()                                   {}
func (Nop) ReplaySessionClosed()                                   {}
