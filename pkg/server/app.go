package server

import (
	"context"
	"errors"
	"time"

	"ZenithCore/internal/middleware"
	"ZenithCore/pkg/config"
	xhttp "ZenithCore/pkg/http"
	pkgkafka "ZenithCore/pkg/kafka"
	"ZenithCore/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *logger.Logger
	httpServer *xhttp.Server
	consumer   *pkgkafka.Consumer
	pipeline   *middleware.RecomputePipeline
}

// New creates a new App instance with all dependencies. consumer is nil
// when Kafka is disabled.
func New(
	cfg *config.Config,
	l *logger.Logger,
	httpServer *xhttp.Server,
	consumer *pkgkafka.Consumer,
	pipeline *middleware.RecomputePipeline,
) *App {
	return &App{
		cfg:        cfg,
		log:        l.With("app"),
		httpServer: httpServer,
		consumer:   consumer,
		pipeline:   pipeline,
	}
}

// Run starts every component and blocks until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.pipeline.Start(ctx)

	if a.consumer != nil {
		if err := a.consumer.Start(); err != nil {
			a.pipeline.Stop()
			return err
		}
		a.log.Info("kafka consumer started", logger.String("topic", a.cfg.Kafka.Topics.Recompute))
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", logger.Error(err))
		return errors.Join(err, a.shutdown())
	}
	a.log.Info("zenith core started",
		logger.String("env", a.cfg.Environment),
		logger.Int("port", a.cfg.Server.Port),
		logger.Bool("kafka", a.consumer != nil),
	)

	<-ctx.Done()
	a.log.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown stops intake first: HTTP, then the consumer, then the pipeline
// that both feed.
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout+5*time.Second)
	defer cancel()

	var errs []error
	if err := a.httpServer.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", logger.Error(err))
		errs = append(errs, err)
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", logger.Error(err))
			errs = append(errs, err)
		}
	}

	a.pipeline.Stop()
	if n := a.pipeline.Buffered(); n > 0 {
		a.log.Warn("recompute requests dropped on shutdown", logger.Int("buffered", n))
	}

	a.log.Info("shutdown complete")
	return errors.Join(errs...)
}
