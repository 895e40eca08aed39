package di

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	domrepo "ZenithCore/internal/domain/repository"
	"ZenithCore/internal/handler/api"
	"ZenithCore/internal/middleware"
	internalrepo "ZenithCore/internal/repository"
	"ZenithCore/internal/service/history"
	"ZenithCore/internal/service/ratelimit"
	"ZenithCore/internal/usecase"
	"ZenithCore/pkg/breaker"
	"ZenithCore/pkg/cache"
	pkgch "ZenithCore/pkg/clickhouse"
	"ZenithCore/pkg/config"
	xhttp "ZenithCore/pkg/http"
	pkgkafka "ZenithCore/pkg/kafka"
	"ZenithCore/pkg/logger"
	"ZenithCore/pkg/metrics"
	"ZenithCore/pkg/postgres"
	"ZenithCore/pkg/server"
)

// ProvideLogger builds the root logger from the log section.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	l, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideRegisterer returns the process-wide Prometheus registerer served on /metrics.
func ProvideRegisterer() prometheus.Registerer {
	return prometheus.DefaultRegisterer
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(reg prometheus.Registerer) *metrics.Recorder {
	return metrics.New(reg)
}

// ProvideCache builds the layered memory+Redis cache, or a memory-only cache
// when the cache section is disabled.
func ProvideCache(cfg *config.Config, l *logger.Logger) (cache.Service, func(), error) {
	if !cfg.Cache.Enabled {
		mc := cache.NewMemoryCache(cache.WithMemoryMaxSize(cfg.Cache.MemorySize))
		return mc, func() { _ = mc.Close() }, nil
	}

	rc, err := cache.NewRedisCache(context.Background(), cfg.Redis)
	if err != nil {
		return nil, nil, fmt.Errorf("redis cache: %w", err)
	}
	lc := cache.NewLayeredCache(rc, cfg.Cache.MemorySize, cfg.Cache.MemoryTTL)
	cleanup := func() {
		if err := lc.Close(); err != nil {
			l.Warn("cache close error", logger.Error(err))
		}
	}
	return lc, cleanup, nil
}

// ProvideHistory wires the Alpha Vantage client behind the breaker, the
// rate limiter and the history cache.
func ProvideHistory(cfg *config.Config, c cache.Service, l *logger.Logger, m domrepo.Metrics) domrepo.HistoryProvider {
	hc := cfg.History.Config
	client := xhttp.NewClient(
		xhttp.WithTimeout(hc.Timeout),
		xhttp.WithRateLimit(hc.RequestsPerMinute/60, 1),
		xhttp.WithRetry(hc.RetryInitial, hc.RetryMaxElapsed),
		xhttp.WithBreaker(breaker.New(history.SourceAlphaVantage, cfg.History.Breaker, l)),
		xhttp.WithClientLogger(l),
	)
	av := history.NewAlphaVantageClient(hc, client, l, m)
	return history.NewCachedProvider(av, c, hc.CacheTTL, l, m)
}

// ProvidePostgresClient opens the score store pool.
func ProvidePostgresClient(cfg *config.Config, l *logger.Logger) (*postgres.Client, func(), error) {
	pg, err := postgres.NewClient(cfg.Postgres)
	if err != nil {
		return nil, nil, fmt.Errorf("postgres client: %w", err)
	}
	cleanup := func() {
		if err := pg.Close(); err != nil {
			l.Warn("postgres close error", logger.Error(err))
		}
	}
	return pg, cleanup, nil
}

// ProvideScoreRepository creates the Postgres score repository.
func ProvideScoreRepository(pg *postgres.Client, cfg *config.Config) domrepo.ScoreRepository {
	return internalrepo.NewPostgresScoreRepository(pg.DB(), cfg.Postgres.QueryTimeout)
}

// ProvideClickHouseClient creates a ClickHouse client and ensures the candle tables exist.
func ProvideClickHouseClient(cfg *config.Config, l *logger.Logger) (*pkgch.Client, func(), error) {
	client, err := pkgch.NewClient(pkgch.WithConfig(cfg.ClickHouse))
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, internalrepo.CandleSchema); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	cleanup := func() {
		if err := client.Close(); err != nil {
			l.Warn("clickhouse close error", logger.Error(err))
		}
	}
	return client, cleanup, nil
}

// ProvideCandleStore creates the ClickHouse candle store.
func ProvideCandleStore(ch *pkgch.Client, l *logger.Logger) *internalrepo.CHCandleStore {
	return internalrepo.NewCHCandleStore(ch, l)
}

// ProvideEventPublisher publishes signals and scores to Kafka, or drops them
// when Kafka is disabled.
func ProvideEventPublisher(cfg *config.Config, reg prometheus.Registerer) (domrepo.EventPublisher, func(), error) {
	if !cfg.Kafka.Enabled {
		return internalrepo.NopEventPublisher{}, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(reg, cfg.Kafka)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	pub := internalrepo.NewKafkaEventPublisher(producer, cfg.Kafka.Topics)
	return pub, func() { _ = pub.Close() }, nil
}

func ProvideCandlesUseCase(store *internalrepo.CHCandleStore, h domrepo.HistoryProvider, l *logger.Logger) *usecase.CandlesUseCase {
	return usecase.NewCandlesUseCase(store, store, h, l)
}

func ProvideAnalysisUseCase(cfg *config.Config, store *internalrepo.CHCandleStore, pub domrepo.EventPublisher, m domrepo.Metrics, l *logger.Logger) *usecase.AnalysisUseCase {
	return usecase.NewAnalysisUseCase(store, pub, m, l, usecase.WithAnalysisTimeout(cfg.Analysis.Timeout))
}

func ProvideZenithUseCase(
	cfg *config.Config,
	h domrepo.HistoryProvider,
	scores domrepo.ScoreRepository,
	locks cache.Service,
	pub domrepo.EventPublisher,
	m domrepo.Metrics,
	l *logger.Logger,
) *usecase.ZenithScoreUseCase {
	return usecase.NewZenithScoreUseCase(cfg.Zenith.Score, h, scores, locks, pub, m, l,
		usecase.WithFreshFor(cfg.Zenith.FreshFor),
		usecase.WithLockTTL(cfg.Zenith.LockTTL),
	)
}

func ProvideReplayUseCase(h domrepo.HistoryProvider, m domrepo.Metrics, l *logger.Logger) *usecase.ReplayUseCase {
	return usecase.NewReplayUseCase(h, m, l)
}

// ProvideRecomputePipeline dedupes and buffers recompute requests in front
// of the zenith use case.
func ProvideRecomputePipeline(cfg *config.Config, uc *usecase.ZenithScoreUseCase, m domrepo.Metrics, l *logger.Logger) *middleware.RecomputePipeline {
	return middleware.NewRecomputePipeline(uc, m,
		middleware.WithMinInterval(cfg.Zenith.MinInterval),
		middleware.WithBufferSize(cfg.Zenith.BufferSize),
		middleware.WithPipelineLogger(l),
	)
}

// ProvideKafkaConsumer creates the recompute consumer. It is nil when Kafka
// is disabled.
func ProvideKafkaConsumer(
	cfg *config.Config,
	pipeline *middleware.RecomputePipeline,
	m domrepo.Metrics,
	reg prometheus.Registerer,
	l *logger.Logger,
) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	kc := cfg.Kafka
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(kc.Brokers),
		pkgkafka.WithConsumerGroupID(kc.GroupID),
		pkgkafka.WithConsumerWorkers(kc.Workers),
		pkgkafka.WithConsumerBufferSize(kc.BufferSize),
		pkgkafka.WithConsumerRetry(kc.RetryMax, kc.BackoffMin, kc.BackoffMax),
		pkgkafka.WithConsumerDLQ(kc.DLQTopic),
		pkgkafka.WithConsumerLogger(l),
		pkgkafka.WithConsumerRegisterer(reg),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(pkgkafka.NewHookChain(pkgkafka.TraceHook(), pkgkafka.LoggingHook(l)))
	consumer.RegisterHandler(usecase.NewRecomputeHandler(kc.Topics.Recompute, pipeline, m))
	return consumer, nil
}

// ProvideRateLimiter limits forced recomputes per client.
func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst, cfg.RateLimit.IdleTTL)
}

// ProvideHandlers collects every route group served by the HTTP server.
func ProvideHandlers(
	cfg *config.Config,
	l *logger.Logger,
	analysis *usecase.AnalysisUseCase,
	candles *usecase.CandlesUseCase,
	zenithUC *usecase.ZenithScoreUseCase,
	replayUC *usecase.ReplayUseCase,
	limiter *ratelimit.Limiter,
) []xhttp.Handler {
	handlers := []xhttp.Handler{
		api.NewAnalysisHandler(l, analysis, candles),
		api.NewZenithHandler(l, zenithUC, limiter),
	}
	if cfg.Replay.Enabled {
		handlers = append(handlers, api.NewReplayHandler(l, replayUC))
	}
	return handlers
}

// ProvideHTTPServer builds the echo server around the handlers.
func ProvideHTTPServer(cfg *config.Config, handlers []xhttp.Handler, l *logger.Logger) *xhttp.Server {
	return xhttp.NewServer(handlers,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithSlowThreshold(cfg.Server.SlowThreshold),
		xhttp.WithCORS(cfg.Server.CORS),
		xhttp.WithMetricsPath(cfg.Metrics.Enabled, cfg.Metrics.Path),
		xhttp.WithLogger(l),
	)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *logger.Logger,
	httpServer *xhttp.Server,
	consumer *pkgkafka.Consumer,
	pipeline *middleware.RecomputePipeline,
) *server.App {
	return server.New(cfg, l, httpServer, consumer, pipeline)
}
