package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"ZenithCore/internal/domain/models"
	domrepo "ZenithCore/internal/domain/repository"
	"ZenithCore/internal/services/replay"
	"ZenithCore/pkg/logger"
)

// ErrNoHistory is returned when a replay cannot load any candles.
var ErrNoHistory = errors.New("no history available for replay")

// ReplayUseCase opens replay sessions over fetched daily history.
type ReplayUseCase struct {
	history   domrepo.HistoryProvider
	metrics   domrepo.Metrics
	log       *logger.Logger
	scheduler func() replay.Scheduler
}

func NewReplayUseCase(history domrepo.HistoryProvider, metrics domrepo.Metrics, l *logger.Logger) *ReplayUseCase {
	return &ReplayUseCase{
		history:   history,
		metrics:   metrics,
		log:       l.With("replay_usecase"),
		scheduler: func() replay.Scheduler { return replay.TickerScheduler{} },
	}
}

// ReplaySession is one engine bound to one client.
type ReplaySession struct {
	Symbol string
	engine *replay.Engine
	once   sync.Once
	onStop func()
}

// Open fetches history and loads it into a fresh engine. onTick runs under the
// engine lock and must not block.
func (uc *ReplayUseCase) Open(ctx context.Context, symbol string, asset models.AssetType, r models.HistoryRange, onTick replay.TickFunc) (*ReplaySession, error) {
	if symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	candles := uc.history.FetchHistory(ctx, symbol, asset, r)
	if len(candles) == 0 {
		return nil, ErrNoHistory
	}

	eng := replay.NewEngine(onTick, replay.WithScheduler(uc.scheduler()), replay.WithLogger(uc.log))
	eng.LoadData(candles)
	uc.metrics.ReplaySessionOpened()
	uc.log.Info("replay session opened",
		logger.String("symbol", symbol),
		logger.String("range", string(r)),
		logger.Int("candles", len(candles)),
	)
	return &ReplaySession{Symbol: symbol, engine: eng, onStop: uc.metrics.ReplaySessionClosed}, nil
}

// Apply executes a validated client command and returns the resulting status.
func (s *ReplaySession) Apply(cmd models.ReplayCommand) (models.ReplayStatus, error) {
	switch strings.ToLower(cmd.Action) {
	case "play":
		s.engine.Play()
	case "pause":
		s.engine.Pause()
	case "stop":
		s.engine.Stop()
	case "seek":
		s.engine.Seek(cmd.Index)
	case "speed":
		if err := s.engine.SetSpeed(models.ReplaySpeed(cmd.Speed)); err != nil {
			return s.engine.Status(), err
		}
	case "status":
	default:
		return s.engine.Status(), fmt.Errorf("unknown replay action %q", cmd.Action)
	}
	return s.engine.Status(), nil
}

func (s *ReplaySession) Status() models.ReplayStatus { return s.engine.Status() }

func (s *ReplaySession) CurrentPrice() float64 { return s.engine.CurrentPrice() }

// Close stops playback. It is safe to call more than once.
func (s *ReplaySession) Close() {
	s.once.Do(func() {
		s.engine.Stop()
		if s.onStop != nil {
			s.onStop()
		}
	})
}
