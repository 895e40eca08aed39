//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	domrepo "ZenithCore/internal/domain/repository"
	"ZenithCore/pkg/config"
	"ZenithCore/pkg/metrics"
	"ZenithCore/pkg/server"
)

var infraSet = wire.NewSet(
	ProvideLogger,
	ProvideRegisterer,
	ProvideMetrics,
	wire.Bind(new(domrepo.Metrics), new(*metrics.Recorder)),
	ProvideCache,
	ProvidePostgresClient,
	ProvideClickHouseClient,
	ProvideEventPublisher,
)

var repositorySet = wire.NewSet(
	ProvideHistory,
	ProvideScoreRepository,
	ProvideCandleStore,
)

var usecaseSet = wire.NewSet(
	ProvideCandlesUseCase,
	ProvideAnalysisUseCase,
	ProvideZenithUseCase,
	ProvideReplayUseCase,
	ProvideRecomputePipeline,
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		infraSet,
		repositorySet,
		usecaseSet,

		// Transport
		ProvideKafkaConsumer,
		ProvideRateLimiter,
		ProvideHandlers,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return nil, nil, nil
}
