package di

import (
	"context"
	"fmt"
	"time"

	domrepo "AgentDesk/internal/domain/repository"
	"AgentDesk/internal/domain/models"
	"AgentDesk/internal/handler/api"
	mid "AgentDesk/internal/middleware"
	internalrepo "AgentDesk/internal/repository"
	"AgentDesk/internal/service/backend"
	"AgentDesk/internal/service/ratelimit"
	"AgentDesk/internal/service/realtime"
	"AgentDesk/internal/usecase"
	"AgentDesk/pkg/cache"
	pkgch "AgentDesk/pkg/clickhouse"
	"AgentDesk/pkg/config"
	xhttp "AgentDesk/pkg/http"
	pkgkafka "AgentDesk/pkg/kafka"
	applogger "AgentDesk/pkg/logger"
	"AgentDesk/pkg/metrics"
	"AgentDesk/pkg/server"
)

const (
	redisPrefix        = "agentdesk"
	archiveFallbackTTL = 7 * 24 * time.Hour
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logger.Level,
		Format: cfg.Logger.Format,
		Output: cfg.Logger.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New()
}

// ProvideCache returns a Redis-backed layered cache when Redis is enabled and
// a process-local LRU otherwise.
func ProvideCache(cfg *config.Config, l *applogger.Logger) (cache.Service, error) {
	if !cfg.Cache.Redis.Enabled {
		mc, err := cache.NewMemoryCache(
			cache.WithMemoryMaxSize(cfg.Cache.MemorySize),
			cache.WithMemoryDefaultTTL(cfg.Cache.SessionTTL),
		)
		if err != nil {
			return nil, fmt.Errorf("memory cache: %w", err)
		}
		l.Info("using in-memory cache", applogger.Int("size", cfg.Cache.MemorySize))
		return mc, nil
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisAddr(cfg.Cache.Redis.Addr),
		cache.WithRedisPassword(cfg.Cache.Redis.Password),
		cache.WithRedisDB(cfg.Cache.Redis.DB),
		cache.WithRedisPool(cfg.Cache.Redis.PoolSize, cfg.Cache.Redis.PoolSize/4, 5*time.Second),
		cache.WithRedisPrefix(redisPrefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	lc, err := cache.NewLayeredCache(rc,
		cache.WithLayeredMemorySize(cfg.Cache.MemorySize),
		cache.WithLayeredMemoryTTL(cfg.Cache.MemoryTTL),
	)
	if err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("layered cache: %w", err)
	}
	l.Info("using redis cache", applogger.String("addr", cfg.Cache.Redis.Addr))
	return lc, nil
}

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is off.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideEventPublisher publishes agent events through Kafka when available.
func ProvideEventPublisher(cfg *config.Config, producer *pkgkafka.Producer) domrepo.EventPublisher {
	if producer == nil {
		return internalrepo.NopEventPublisher{}
	}
	return internalrepo.NewKafkaEventPublisher(producer, cfg.Kafka.Topics.AgentEvents)
}

// ProvideKafkaConsumer creates a Kafka consumer, or nil when Kafka is off.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(l,
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(pkgkafka.TraceHook())
	return consumer, nil
}

// ProvideClickHouseClient creates a ClickHouse client and the prediction
// schema, or nil when ClickHouse is off.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithAddr(cfg.ClickHouse.Host, cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, internalrepo.PredictionSchema(cfg.ClickHouse.Database)); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvidePredictionArchive stores served predictions in ClickHouse, falling
// back to the cache when ClickHouse is off.
func ProvidePredictionArchive(ch *pkgch.Client, c cache.Service, l *applogger.Logger) (domrepo.PredictionArchive, error) {
	var archive domrepo.PredictionArchive
	if ch != nil {
		archive = internalrepo.NewCHPredictionArchive(ch.DB(), ch.Database(), l)
	} else {
		archive = internalrepo.NewCachePredictionArchive(c, archiveFallbackTTL)
	}
	if err := archive.Init(context.Background()); err != nil {
		return nil, fmt.Errorf("prediction archive: %w", err)
	}
	return archive, nil
}

func ProvideSessionStore(cfg *config.Config, c cache.Service) domrepo.SessionStore {
	return internalrepo.NewCacheSessionStore(c, cfg.Cache.SessionTTL)
}

// ProvideBackendClient creates the agent backend client. Every round trip is
// observed by the metrics recorder.
func ProvideBackendClient(cfg *config.Config, m domrepo.Metrics) *backend.Client {
	return backend.NewClient(xhttp.NewClient(
		xhttp.WithBaseURL(cfg.Backend.BaseURL),
		xhttp.WithTimeout(cfg.Backend.Timeout),
		xhttp.WithObserver(m.RecordUpstream),
	))
}

func ProvideAgentBackend(c *backend.Client) domrepo.AgentBackend { return c }

func ProvideAuthRelay(c *backend.Client) domrepo.AuthRelay { return c }

// ProvideLimiter returns the per-agent prediction limiter, or nil when rate
// limiting is disabled.
func ProvideLimiter(cfg *config.Config) *ratelimit.Limiter {
	if !cfg.RateLimit.Enabled {
		return nil
	}
	return ratelimit.New(cfg.RateLimit.Capacity, cfg.RateLimit.RefillPerSec)
}

func ProvideHub(cfg *config.Config, m domrepo.Metrics, l *applogger.Logger) *realtime.Hub {
	return realtime.NewHub(m, l,
		realtime.WithPingInterval(cfg.Realtime.PingInterval),
		realtime.WithWriteTimeout(cfg.Realtime.WriteTimeout),
		realtime.WithSendBuffer(cfg.Realtime.SendBuffer),
		realtime.WithAllowedOrigins(cfg.Server.AllowOrigins),
	)
}

func ProvideFormService(cfg *config.Config, store domrepo.SessionStore, m domrepo.Metrics, l *applogger.Logger) *usecase.FormService {
	return usecase.NewFormService(store, m, l, cfg.Markets)
}

func ProvideFeatureService(cfg *config.Config, b domrepo.AgentBackend, c cache.Service, l *applogger.Logger) *usecase.FeatureService {
	return usecase.NewFeatureService(b, c, cfg.Cache.FeatureTTL, l)
}

func ProvideAgentService(
	cfg *config.Config,
	b domrepo.AgentBackend,
	store domrepo.SessionStore,
	features *usecase.FeatureService,
	pub domrepo.EventPublisher,
	c cache.Service,
	m domrepo.Metrics,
	l *applogger.Logger,
) *usecase.AgentService {
	return usecase.NewAgentService(b, store, features, pub, c, cfg.Cache.AgentsTTL, m, l)
}

func ProvidePredictionService(
	cfg *config.Config,
	b domrepo.AgentBackend,
	agents *usecase.AgentService,
	archive domrepo.PredictionArchive,
	limiter *ratelimit.Limiter,
	m domrepo.Metrics,
	l *applogger.Logger,
) *usecase.PredictionService {
	return usecase.NewPredictionService(b, agents, archive, limiter, m, l, cfg.Location())
}

func ProvideDashboardService(cfg *config.Config, agents *usecase.AgentService) *usecase.DashboardService {
	return usecase.NewDashboardService(agents, cfg.Location())
}

// ProvideStatusPipeline sits between the training status consumer and the
// hub; every accepted change drops the cached agent lists.
func ProvideStatusPipeline(hub *realtime.Hub, agents *usecase.AgentService, m domrepo.Metrics) *mid.StatusPipeline {
	return mid.NewStatusPipeline(hub, m,
		mid.WithChangeHook(func(ctx context.Context, _ models.TrainingStatusEvent) {
			agents.InvalidateAgents(ctx)
		}),
	)
}

func ProvideTrainingStatusHandler(cfg *config.Config, p *mid.StatusPipeline, m domrepo.Metrics, l *applogger.Logger) *usecase.TrainingStatusHandler {
	return usecase.NewTrainingStatusHandler(cfg.Kafka.Topics.TrainingStatus, p, m, l)
}

// ProvideHTTPServer registers every API handler on the echo server.
func ProvideHTTPServer(
	cfg *config.Config,
	l *applogger.Logger,
	forms *usecase.FormService,
	features *usecase.FeatureService,
	agents *usecase.AgentService,
	predictions *usecase.PredictionService,
	dashboards *usecase.DashboardService,
	relay domrepo.AuthRelay,
	archive domrepo.PredictionArchive,
	hub *realtime.Hub,
) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer([]xhttp.Handler{
		api.NewFormHandler(l, forms),
		api.NewAgentsHandler(l, agents, features, hub),
		api.NewPredictionsHandler(l, predictions, dashboards),
		api.NewAuthHandler(l, relay),
		api.NewHealthHandler(l, archive),
	},
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithAllowOrigins(cfg.Server.AllowOrigins),
		xhttp.WithMetricsPath(metricsPath),
		xhttp.WithLogger(l),
	)
}

// ProvideApp creates the application server and hands it every resource that
// needs starting or closing.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	httpServer *xhttp.Server,
	hub *realtime.Hub,
	consumer *pkgkafka.Consumer,
	statusHandler *usecase.TrainingStatusHandler,
	pipeline *mid.StatusPipeline,
	limiter *ratelimit.Limiter,
	producer *pkgkafka.Producer,
	publisher domrepo.EventPublisher,
	ch *pkgch.Client,
	c cache.Service,
) *server.App {
	app := server.New(cfg, l, httpServer, hub)
	if consumer != nil {
		app.WithConsumer(consumer, statusHandler)
	}
	if producer != nil && cfg.Logger.Digest.Enabled {
		app.WithDigest(applogger.NewDigest(applogger.DigestConfig{
			Interval:  cfg.Logger.Digest.Interval,
			Threshold: cfg.Logger.Digest.Threshold,
			Topic:     cfg.Kafka.Topics.Logs,
			Publisher: producer,
		}))
	}

	app.AddSweeper("status_pipeline", pipeline.Forget)
	if limiter != nil {
		app.AddSweeper("rate_limiter", limiter.Prune)
	}

	app.AddCloser("cache", c.Close)
	if ch != nil {
		app.AddCloser("clickhouse", ch.Close)
	}
	// closers run in reverse order
	app.AddCloser("event_publisher", publisher.Close)
	return app
}
