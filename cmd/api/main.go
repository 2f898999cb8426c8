package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"linisco-sync-layer/internal/application"
	"linisco-sync-layer/internal/application/record_handlers"
	"linisco-sync-layer/internal/config"
	"linisco-sync-layer/internal/domain"
	apiinfra "linisco-sync-layer/internal/infrastructure/api"
	"linisco-sync-layer/internal/infrastructure/cache"
	"linisco-sync-layer/internal/infrastructure/linisco"
	"linisco-sync-layer/internal/infrastructure/lock"
	"linisco-sync-layer/internal/infrastructure/metrics"
	"linisco-sync-layer/internal/infrastructure/pubsub"
	"linisco-sync-layer/internal/infrastructure/repository"
	"linisco-sync-layer/internal/ports"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// storage bundles the repositories of the selected backend
type storage struct {
	tokens  ports.TokenRepository
	sales   ports.SalesRepository
	syncLog ports.SyncLogRepository
	close   func()
}

func main() {
	// Initialize logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("⚠️  Warning: .env file not found")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		logger = logger.Level(level)
	} else {
		logger.Warn().Str("logLevel", cfg.LogLevel).Msg("Unknown log level, keeping default")
	}

	stores := domain.NewStoreDirectory(cfg.Stores)
	logger.Info().
		Int("stores", len(stores.All())).
		Int("active", len(stores.Active())).
		Msg("Loaded store configuration")

	store, err := openStorage(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize storage")
	}
	defer store.close()

	locker, closeLocker := newLocker(cfg, logger)
	defer closeLocker()

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	syncMetrics := metrics.NewSyncMetrics(reg)

	// Upstream and credentials
	client := linisco.NewClient(cfg.LiniscoAPIURL, cfg.LiniscoTimeout, logger)
	credentialsService := application.NewCredentialsService(
		stores,
		store.tokens,
		cache.NewTokenCache(),
		locker,
		client,
		syncMetrics,
		logger,
		application.CredentialsConfig{
			TokenTTL:        cfg.TokenTTL,
			DefaultEmail:    cfg.DefaultEmail,
			DefaultPassword: cfg.DefaultPassword,
		},
	)
	fetcher := linisco.NewFetcher(client, credentialsService, logger)

	// Initialize record dispatcher and register handlers
	dispatcher := application.NewRecordDispatcher(logger)
	dispatcher.RegisterHandler(record_handlers.NewOrderHandler(store.sales, syncMetrics, logger))
	dispatcher.RegisterHandler(record_handlers.NewProductHandler(store.sales, syncMetrics, logger))
	dispatcher.RegisterHandler(record_handlers.NewSessionHandler(store.sales, syncMetrics, logger))

	// Initialize sync event pub/sub for the SSE feed
	syncPubSub := pubsub.NewSyncPubSub(logger)

	syncService := application.NewSyncService(
		stores,
		credentialsService,
		fetcher,
		dispatcher,
		store.syncLog,
		syncPubSub,
		syncMetrics,
		logger,
		cfg.ParallelStores,
	)

	statsService := application.NewStatsService(
		stores,
		store.sales,
		store.syncLog,
		credentialsService,
		credentialsService,
		fetcher,
		logger,
		cfg.RetentionDays,
	)

	if n, err := credentialsService.ExpireStale(context.Background()); err != nil {
		logger.Warn().Err(err).Msg("Failed to expire stale tokens at startup")
	} else if n > 0 {
		logger.Info().Int64("expired", n).Msg("Expired stale tokens at startup")
	}

	router := apiinfra.NewRouter(apiinfra.Dependencies{
		Stores:  stores,
		Sync:    syncService,
		Stats:   statsService,
		Auth:    credentialsService,
		Events:  syncPubSub,
		Metrics: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	}, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("Starting API server")
		logger.Info().Msg("Swagger documentation available at http://localhost:" + cfg.Port + "/swagger/index.html")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info().Msg("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
	}
}

// openStorage connects to MongoDB when MONGODB_URI is set and falls back to the in-memory repository
func openStorage(cfg *config.Config, logger zerolog.Logger) (*storage, error) {
	if cfg.MongoURI == "" {
		logger.Warn().Msg("MONGODB_URI not set, using in-memory storage")
		mem := repository.NewMemoryRepository()
		return &storage{tokens: mem, sales: mem, syncLog: mem, close: func() {}}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, err
	}

	db := client.Database(cfg.MongoDatabase)
	tokens := repository.NewMongoTokenRepository(db)
	sales := repository.NewMongoSalesRepository(db)
	syncLog := repository.NewMongoSyncLogRepository(db)

	for _, ensure := range []func(context.Context) error{tokens.EnsureIndexes, sales.EnsureIndexes, syncLog.EnsureIndexes} {
		if err := ensure(ctx); err != nil {
			client.Disconnect(context.Background())
			return nil, err
		}
	}

	logger.Info().Str("database", cfg.MongoDatabase).Msg("Connected to MongoDB")
	return &storage{
		tokens:  tokens,
		sales:   sales,
		syncLog: syncLog,
		close:   func() { client.Disconnect(context.Background()) },
	}, nil
}

// newLocker serializes logins across replicas through Redis when REDIS_URL is set, else within the process
func newLocker(cfg *config.Config, logger zerolog.Logger) (ports.AuthLocker, func()) {
	if cfg.RedisURL == "" {
		return lock.NewLocalLocker(), func() {}
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid REDIS_URL")
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Msg("Redis unreachable, falling back to in-process auth lock")
		client.Close()
		return lock.NewLocalLocker(), func() {}
	}

	logger.Info().Msg("Using Redis auth lock")
	return lock.NewRedisLocker(client, "linisco:auth:", 0, logger), func() { client.Close() }
}
