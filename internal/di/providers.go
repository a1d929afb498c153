package di

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"time"

	"AgroPulse/internal/domain/repository"
	"AgroPulse/internal/handler/api"
	mid "AgroPulse/internal/middleware"
	internalrepo "AgroPulse/internal/repository"
	"AgroPulse/internal/realtime"
	"AgroPulse/internal/service/analytics"
	"AgroPulse/internal/service/stream"
	"AgroPulse/internal/usecase"
	"AgroPulse/pkg/cache"
	"AgroPulse/pkg/config"
	xhttp "AgroPulse/pkg/http"
	pkgkafka "AgroPulse/pkg/kafka"
	applogger "AgroPulse/pkg/logger"
	"AgroPulse/pkg/metrics"
	"AgroPulse/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideCache selects the cache backend from config.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	if cfg.Cache.Backend == "redis" {
		c, err := cache.NewRedisCache(
			cache.WithRedisHost(cfg.Cache.Redis.Host),
			cache.WithRedisPort(cfg.Cache.Redis.Port),
			cache.WithRedisPassword(cfg.Cache.Redis.Password),
			cache.WithRedisDB(cfg.Cache.Redis.DB),
			cache.WithRedisPrefix(cfg.Cache.Redis.Prefix),
		)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		return c, nil
	}
	return cache.NewMemoryCache(), nil
}

// ProvidePriceHistory creates and seeds the price history store.
func ProvidePriceHistory(cfg *config.Config) (repository.PriceHistory, error) {
	store := internalrepo.NewMemPriceHistory()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	if err := internalrepo.SeedHistory(context.Background(), store, cfg.Market.BasePrices, cfg.Market.SeedHistoryDays, rng); err != nil {
		return nil, fmt.Errorf("seed history: %w", err)
	}
	return store, nil
}

// ProvideDeviceStore creates and seeds the IoT device store.
func ProvideDeviceStore() (repository.DeviceStore, error) {
	store := internalrepo.NewMemDeviceStore()
	if err := internalrepo.SeedDevices(context.Background(), store); err != nil {
		return nil, fmt.Errorf("seed devices: %w", err)
	}
	return store, nil
}

// ProvideListingStore creates and seeds the listing store.
func ProvideListingStore(cfg *config.Config) (repository.ListingStore, error) {
	store := internalrepo.NewMemListingStore()
	if err := internalrepo.SeedListings(context.Background(), store, cfg.Market.BasePrices); err != nil {
		return nil, fmt.Errorf("seed listings: %w", err)
	}
	return store, nil
}

// ProvideEventPipeline builds the optional Kafka mirror pipeline.
// Returns nil pipeline and closer when Kafka is disabled.
func ProvideEventPipeline(cfg *config.Config, m repository.Metrics) (*mid.EventPipeline, io.Closer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithBatchSize(cfg.Kafka.BatchSize),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.WriteTimeout, cfg.Kafka.ReadTimeout),
		pkgkafka.WithAsync(cfg.Kafka.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	publisher := internalrepo.NewKafkaEventPublisher(producer, cfg.Kafka.Topic)
	pipeline := mid.NewEventPipeline(publisher, m,
		mid.WithMaxRPS(50),
		mid.WithBufferSize(2000),
	)
	return pipeline, publisher, nil
}

// ProvideHub creates the WebSocket broadcaster, mirroring onto the
// pipeline when one is configured.
func ProvideHub(log *applogger.Logger, m repository.Metrics, pipeline *mid.EventPipeline) *realtime.Hub {
	opts := []realtime.Option{}
	if pipeline != nil {
		opts = append(opts, realtime.WithMirror(pipeline))
	}
	return realtime.NewHub(log, m, opts...)
}

// ProvideForecastEngine creates the smoothing engine from config.
func ProvideForecastEngine(cfg *config.Config) *analytics.Engine {
	return analytics.NewEngine(
		analytics.WithAlpha(cfg.Forecast.Alpha),
		analytics.WithBeta(cfg.Forecast.Beta),
		analytics.WithWindow(cfg.Forecast.Window),
	)
}

// ProvideMarketSignals creates the analytics usecase.
func ProvideMarketSignals(
	history repository.PriceHistory,
	engine *analytics.Engine,
	c cache.Service,
	m repository.Metrics,
	log *applogger.Logger,
	cfg *config.Config,
) *usecase.MarketSignals {
	return usecase.NewMarketSignals(history, engine, c, m, log,
		usecase.WithCacheTTL(cfg.Cache.TTL),
		usecase.WithDefaultForecastDays(cfg.Forecast.DefaultDays),
		usecase.WithExportThreshold(cfg.Market.ExportThreshold),
	)
}

// ProvideSimulator creates the synthetic tick generators.
func ProvideSimulator(
	cfg *config.Config,
	devices repository.DeviceStore,
	hub *realtime.Hub,
	m repository.Metrics,
	log *applogger.Logger,
) *usecase.Simulator {
	return usecase.NewSimulator(cfg.Market.BasePrices, devices, hub, m, log,
		usecase.WithTickPeriods(cfg.Market.PriceTickPeriod, cfg.Market.IotTickPeriod),
	)
}

// ProvideRouter aggregates HTTP handlers and the realtime endpoint.
func ProvideRouter(
	log *applogger.Logger,
	signals *usecase.MarketSignals,
	listings repository.ListingStore,
	devices repository.DeviceStore,
	hub *realtime.Hub,
) xhttp.Handler {
	return api.NewRouter(
		api.NewMarketHandler(log, signals),
		api.NewListingHandler(log, listings, hub),
		api.NewDeviceHandler(log, devices, hub),
		hub,
	)
}

// ProvideStreamMonitor creates the optional upstream subscriber.
// Returns nil when the stream monitor is disabled.
func ProvideStreamMonitor(cfg *config.Config, log *applogger.Logger) *stream.Subscriber {
	if !cfg.Stream.Enabled || cfg.Stream.URL == "" {
		return nil
	}
	return stream.NewSubscriber(cfg.Stream.URL, log,
		stream.WithReconnectDelay(cfg.Stream.ReconnectDelay),
	)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	handler xhttp.Handler,
	hub *realtime.Hub,
	simulator *usecase.Simulator,
	pipeline *mid.EventPipeline,
	publisher io.Closer,
	monitor *stream.Subscriber,
) *server.App {
	return server.New(cfg, log, handler, hub, simulator, pipeline, publisher, monitor)
}
