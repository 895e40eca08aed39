// Package replay plays a loaded candle series back on a virtual clock,
// interpolating price and time between closes.
package replay

import (
	"fmt"
	"sync"
	"time"

	"ZenithCore/internal/domain/models"
	"ZenithCore/pkg/logger"
)

const (
	// FramesPerCandle is the number of ticks between two candles.
	FramesPerCandle = 30

	baseInterval = time.Second
	displayFmt   = "Jan 2, 2006"
)

// TickFunc receives playback frames. It runs while the engine lock is held,
// so it must not call back into the engine.
type TickFunc func(models.ReplayTick)

// Engine owns one playback session. It never performs I/O.
type Engine struct {
	mu      sync.Mutex
	data    []models.Candle
	index   int
	frame   int
	speed   models.ReplaySpeed
	playing bool
	gen     uint64
	cancel  func()

	sched  Scheduler
	onTick TickFunc
	log    *logger.Logger
}

type Option func(*Engine)

func WithScheduler(s Scheduler) Option {
	return func(e *Engine) { e.sched = s }
}

func WithLogger(l *logger.Logger) Option {
	return func(e *Engine) { e.log = l.With("replay") }
}

func NewEngine(onTick TickFunc, opts ...Option) *Engine {
	e := &Engine{
		speed:  models.Speed1x,
		sched:  TickerScheduler{},
		onTick: onTick,
		log:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.onTick == nil {
		e.onTick = func(models.ReplayTick) {}
	}
	return e
}

// Interval is the frame period at a given speed.
func Interval(speed models.ReplaySpeed) time.Duration {
	if !speed.Valid() {
		speed = models.Speed1x
	}
	return baseInterval / time.Duration(speed) / FramesPerCandle
}

// LoadData stops playback and replaces the series.
func (e *Engine) LoadData(candles []models.Candle) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLocked()
	e.data = candles
	e.log.Debug("replay data loaded", logger.Int("candles", len(candles)))
}

// Play starts playback. It is a no-op when already playing or empty.
func (e *Engine) Play() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.playing || len(e.data) == 0 {
		return
	}
	e.playing = true
	e.startLocked()
}

// Pause halts playback. No tick is delivered once it returns.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pauseLocked()
}

// Stop pauses and rewinds to the first candle.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLocked()
}

// Seek jumps to a clamped index and emits that candle's exact close.
func (e *Engine) Seek(index int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.data) == 0 {
		return
	}
	e.index = clampIndex(index, len(e.data))
	e.frame = 0
	c := e.data[e.index]
	e.onTick(models.ReplayTick{
		Candle:    c,
		Price:     c.Close,
		Index:     e.index,
		Timestamp: float64(c.Time),
		Status:    e.statusLocked(),
	})
}

// SetSpeed changes the multiplier and restarts the timer when playing.
func (e *Engine) SetSpeed(speed models.ReplaySpeed) error {
	if !speed.Valid() {
		return fmt.Errorf("invalid replay speed %d", speed)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.speed = speed
	if e.playing {
		e.startLocked()
	}
	return nil
}

func (e *Engine) Status() models.ReplayStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.statusLocked()
}

// CurrentPrice interpolates between the current and next close.
func (e *Engine) CurrentPrice() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.priceLocked()
}

func (e *Engine) startLocked() {
	if e.cancel != nil {
		e.cancel()
	}
	e.gen++
	gen := e.gen
	e.cancel = e.sched.Every(Interval(e.speed), func() { e.step(gen) })
}

func (e *Engine) pauseLocked() {
	e.playing = false
	e.gen++
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
}

func (e *Engine) stopLocked() {
	e.pauseLocked()
	e.index = 0
	e.frame = 0
}

func (e *Engine) step(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.playing || gen != e.gen || len(e.data) == 0 {
		return
	}

	e.frame++
	if e.frame >= FramesPerCandle {
		e.frame = 0
		e.index++
		if e.index >= len(e.data)-1 {
			e.index = len(e.data) - 1
			e.pauseLocked()
			e.log.Debug("replay complete", logger.Int("candles", len(e.data)))
			return
		}
	}

	e.onTick(models.ReplayTick{
		Candle:    e.data[e.index],
		Price:     e.priceLocked(),
		Index:     e.index,
		Timestamp: e.virtualTimeLocked(),
		Status:    e.statusLocked(),
	})
}

func (e *Engine) progress() float64 {
	return float64(e.frame) / FramesPerCandle
}

func (e *Engine) priceLocked() float64 {
	if len(e.data) == 0 {
		return 0
	}
	cur := e.data[e.index]
	if e.index+1 >= len(e.data) {
		return cur.Close
	}
	next := e.data[e.index+1]
	return cur.Close + (next.Close-cur.Close)*e.progress()
}

func (e *Engine) virtualTimeLocked() float64 {
	if len(e.data) == 0 {
		return 0
	}
	cur := e.data[e.index]
	if e.index+1 >= len(e.data) {
		return float64(cur.Time)
	}
	next := e.data[e.index+1]
	return float64(cur.Time) + float64(next.Time-cur.Time)*e.progress()
}

func (e *Engine) statusLocked() models.ReplayStatus {
	st := models.ReplayStatus{
		IsPlaying:    e.playing,
		CurrentIndex: e.index,
		Total:        len(e.data),
		DisplayTime:  "--",
		Speed:        e.speed,
	}
	if len(e.data) == 0 {
		return st
	}
	ts := e.data[e.index].Time
	st.CurrentTimestamp = ts
	if ts != 0 {
		st.DisplayTime = time.Unix(ts, 0).UTC().Format(displayFmt)
	}
	st.Progress = (float64(e.index) + e.progress()) / float64(len(e.data))
	return st
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n-1 {
		return n - 1
	}
	return i
}
