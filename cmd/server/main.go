package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rentease/internal/api"
	"rentease/internal/auth"
	"rentease/internal/config"
	"rentease/internal/domain"
	"rentease/internal/events"
	"rentease/internal/export"
	"rentease/internal/google"
	"rentease/internal/logging"
	"rentease/internal/metrics"
	"rentease/internal/models"
	"rentease/internal/notify"
	"rentease/internal/service"
	"rentease/internal/storage"
	"rentease/internal/store"
	"rentease/internal/worker"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient := initRedis(cfg, &logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	backend, err := initBackend(ctx, cfg, redisClient, &logger)
	if err != nil {
		return err
	}

	records, err := store.Open(ctx, backend, cfg.Storage.KeyPrefix, initHasher(cfg), &logger)
	if err != nil {
		logger.Error().Err(err).Str("backend", cfg.Storage.Backend).Msg("open record store")
		_ = backend.Close()
		return err
	}
	defer records.Close()

	if err := seedListings(ctx, records, &logger); err != nil {
		return err
	}

	if !cfg.API.Enabled {
		logger.Warn().Msg("API is disabled in config, but starting API application. Check your config.")
	}

	eventBus := initNotifications(cfg, &logger)

	sheetsService := initGoogleSheets(ctx, cfg, &logger)

	var syncWorker *worker.SyncQueueWorker
	if sheetsService != nil {
		syncWorker = worker.NewSyncQueueWorker(records, sheetsService, redisClient, worker.RetryPolicy{}, &logger)
		go syncWorker.Start(ctx)
	}

	authSvc := service.NewAuthService(records, eventBus, &logger)
	listingSvc := service.NewListingService(records, eventBus, &logger)
	rentalSvc := service.NewRentalService(records, eventBus, serviceWorker(syncWorker), &logger)
	messageSvc := service.NewMessageService(records, eventBus, &logger)

	reports := export.NewReportService(records, cfg.Exports.Path, &logger)

	tokens := api.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTLHours)
	httpServer := api.NewHTTPServer(cfg.API, authSvc, listingSvc, rentalSvc, messageSvc, records, reports, tokens, &logger)

	startBackups(ctx, cfg, records, &logger)
	startMetrics(ctx, cfg, &logger)

	return startServer(ctx, httpServer, cfg, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "server-main").Logger()

	return cfg, logger, closer, nil
}

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Storage.Redis.Address == "" {
		return nil
	}

	redisClient := storage.NewRedisClient(storage.RedisOptions{
		Address:  cfg.Storage.Redis.Address,
		Password: cfg.Storage.Redis.Password,
		DB:       cfg.Storage.Redis.DB,
		PoolSize: cfg.Storage.Redis.PoolSize,
	})

	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		return nil
	}

	logger.Info().Str("addr", cfg.Storage.Redis.Address).Msg("redis connected")
	return redisClient
}

func initBackend(ctx context.Context, cfg *config.Config, redisClient *redis.Client, logger *zerolog.Logger) (storage.Backend, error) {
	var (
		backend storage.Backend
		err     error
	)

	switch cfg.Storage.Backend {
	case "memory":
		backend = storage.NewMemoryBackend()
	case "file":
		backend, err = storage.NewFileBackend(cfg.Storage.Path)
	case "sqlite":
		backend, err = storage.NewSQLiteBackend(cfg.Storage.Path)
	case "redis":
		if redisClient == nil {
			return nil, fmt.Errorf("redis backend selected but redis is unreachable at %s", cfg.Storage.Redis.Address)
		}
		backend = storage.NewRedisBackend(redisClient)
	case "postgres":
		backend, err = storage.NewPostgresBackend(ctx, cfg.Storage.Postgres.DSN)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
	if err != nil {
		logger.Error().Err(err).Str("backend", cfg.Storage.Backend).Msg("init storage backend")
		return nil, err
	}

	if cfg.Storage.FallbackToMemory && cfg.Storage.Backend != "memory" {
		backend = storage.NewFailoverBackend(backend, storage.NewMemoryBackend(), logger)
		logger.Info().Str("primary", cfg.Storage.Backend).Msg("failover to memory enabled")
	}

	return backend, nil
}

func initHasher(cfg *config.Config) auth.Hasher {
	if cfg.Auth.PasswordStrategy == "none" {
		return auth.NoopHasher{}
	}
	return auth.NewBcryptHasher(cfg.Auth.BcryptCost)
}

// seedListings loads the optional starter catalog pointed to by SEED_PATH.
// Seeds are applied only once, to an empty listings collection.
func seedListings(ctx context.Context, records *store.Store, logger *zerolog.Logger) error {
	seedPath := os.Getenv("SEED_PATH")
	if seedPath == "" {
		return nil
	}

	existing, err := records.Listings(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		logger.Info().Int("listings", len(existing)).Msg("catalog already populated, skipping seed")
		return nil
	}

	seedData, err := os.ReadFile(seedPath)
	if err != nil {
		logger.Error().Err(err).Str("seed_path", seedPath).Msg("read seed file")
		return err
	}

	var seedConfig struct {
		Listings []models.Listing `yaml:"listings"`
	}
	if err := yaml.Unmarshal(seedData, &seedConfig); err != nil {
		logger.Error().Err(err).Str("seed_path", seedPath).Msg("parse seed file")
		return err
	}

	for _, listing := range seedConfig.Listings {
		if _, err := records.CreateListing(ctx, listing); err != nil {
			return fmt.Errorf("seed listing %q: %w", listing.Title, err)
		}
	}

	logger.Info().Int("listings", len(seedConfig.Listings)).Msg("catalog seeded")
	return nil
}

func initNotifications(cfg *config.Config, logger *zerolog.Logger) *events.EventBus {
	bus := events.NewEventBus()

	if !cfg.Telegram.Enabled {
		return bus
	}

	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		logger.Warn().Err(err).Msg("telegram init failed, continuing without notifications")
		return bus
	}

	notifier := notify.NewTelegramNotifier(botAPI, cfg.Telegram.AdminChatIDs, logger)
	notifier.Register(bus)
	logger.Info().Str("bot", botAPI.Self.UserName).Int("admin_chats", len(cfg.Telegram.AdminChatIDs)).Msg("telegram notifications enabled")

	return bus
}

func initGoogleSheets(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *google.SheetsService {
	if cfg.Google.CredentialsFile == "" || cfg.Google.RentalsSpreadsheetID == "" {
		return nil
	}

	sheetsService, err := google.NewSheetsService(ctx, cfg.Google.CredentialsFile, cfg.Google.RentalsSpreadsheetID)
	if err != nil {
		logger.Warn().Err(err).Msg("google sheets init failed, continuing without sheets")
		return nil
	}

	logger.Info().Msg("google sheets connected")
	return sheetsService
}

// serviceWorker avoids handing the services a typed-nil interface value.
func serviceWorker(w *worker.SyncQueueWorker) domain.SyncWorker {
	if w == nil {
		return nil
	}
	return w
}

func startBackups(ctx context.Context, cfg *config.Config, records *store.Store, logger *zerolog.Logger) {
	if !cfg.Backup.Enabled {
		return
	}

	interval, err := time.ParseDuration(cfg.Backup.Schedule)
	if err != nil || interval <= 0 {
		interval = 24 * time.Hour
	}

	backupService := store.NewBackupService(records, store.BackupConfig{
		Enabled:       true,
		Interval:      interval,
		RetentionDays: cfg.Backup.RetentionDays,
		StoragePath:   cfg.Backup.StoragePath,
	}, logger)
	go backupService.Start(ctx)
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func startServer(ctx context.Context, httpServer *api.HTTPServer, cfg *config.Config, logger *zerolog.Logger) error {
	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	logger.Info().Int("http_port", cfg.API.HTTP.Port).Msg("server started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = httpServer.Shutdown(shutdownCtx)

	logger.Info().Msg("server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
