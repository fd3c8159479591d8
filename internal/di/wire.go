//go:build wireinject
// +build wireinject

package di

import (
	"AgentDesk/pkg/config"
	"AgentDesk/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideCache,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideClickHouseClient,
		ProvideBackendClient,

		// Repositories
		ProvideSessionStore,
		ProvideEventPublisher,
		ProvidePredictionArchive,
		ProvideAgentBackend,
		ProvideAuthRelay,

		// Services
		ProvideLimiter,
		ProvideHub,
		ProvideFormService,
		ProvideFeatureService,
		ProvideAgentService,
		ProvidePredictionService,
		ProvideDashboardService,
		ProvideStatusPipeline,
		ProvideTrainingStatusHandler,

		// Application server
		ProvideHTTPServer,
		ProvideApp,
	)
	return &server.App{}, nil
}
