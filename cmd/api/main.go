// The api binary is the manifest store and label-lookup service: it holds
// uploaded carrier manifests, accepts published tracking indexes, and
// answers scan-station lookups.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectoenv"
	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	_ "github.com/lib/pq"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.uber.org/zap"

	"github.com/huymai96/package-confirmation-app/config"
	"github.com/huymai96/package-confirmation-app/internal/handlers"
	"github.com/huymai96/package-confirmation-app/internal/repositories/indexsnapshot"
	"github.com/huymai96/package-confirmation-app/internal/repositories/manifeststore"
	"github.com/huymai96/package-confirmation-app/internal/repositories/scanlog"
	"github.com/huymai96/package-confirmation-app/pkg/database"
	"github.com/huymai96/package-confirmation-app/pkg/events"
	"github.com/huymai96/package-confirmation-app/pkg/health"
	"github.com/huymai96/package-confirmation-app/pkg/index"
	"github.com/huymai96/package-confirmation-app/pkg/kafka"
	"github.com/huymai96/package-confirmation-app/pkg/middleware"
	scanfile "github.com/huymai96/package-confirmation-app/pkg/scanlog"
	"github.com/huymai96/package-confirmation-app/pkg/startup"
	"github.com/huymai96/package-confirmation-app/pkg/tracing"
	"github.com/huymai96/package-confirmation-app/pkg/tracing/exporters"
)

var version = "dev"

func main() {
	_ = godotenv.Load()

	var cfg config.Config
	if err := ectoenv.BindEnv(&cfg); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := newLogger(cfg)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.TracingEnabled {
		shutdown, err := tracing.Setup(ctx, cfg.AppName, exporters.OTLPConfig{
			Endpoint: cfg.OTLPEndpoint,
			Protocol: cfg.OTLPProtocol,
			Insecure: cfg.OTLPInsecure,
		})
		if err != nil {
			logger.WithError(err).Error("failed to set up tracing")
			os.Exit(1)
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logger.WithError(err).Warn("failed to shut down tracing")
			}
		}()
	}

	var db database.DB
	var producer *kafka.Producer

	boot := startup.NewStartup(logger, cfg.StartupMaxAttempts)
	boot.AddDependency(&startup.Dependency{
		Name: "database",
		StartFn: func(context.Context) error {
			var err error
			db, err = connectDatabase(cfg, logger)
			return err
		},
		StopFn: func(context.Context) error {
			return db.Close()
		},
	})
	if cfg.KafkaEnabled {
		boot.AddDependency(&startup.Dependency{
			Name: "kafka",
			StartFn: func(context.Context) error {
				producerConfig := kafka.DefaultProducerConfig()
				producerConfig.Brokers = cfg.KafkaBrokers
				producerConfig.Topic = cfg.KafkaOutputTopic
				producerConfig.BatchSize = cfg.KafkaBatchSize
				producerConfig.BatchTimeout = time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond
				producerConfig.RequiredAcks = cfg.KafkaRequiredAcks
				producerConfig.Compression = cfg.KafkaCompression

				var err error
				producer, err = kafka.NewProducer(producerConfig, logger)
				return err
			},
			StopFn: func(context.Context) error {
				return producer.Close()
			},
		})
	}

	if err := boot.Start(ctx); err != nil {
		logger.WithError(err).Error("startup failed")
		os.Exit(1)
	}
	defer func() {
		if err := boot.Stop(context.Background()); err != nil {
			logger.WithError(err).Warn("failed to stop dependencies cleanly")
		}
	}()

	manifestRepo := manifeststore.NewRepository(db, logger)
	snapshotRepo := indexsnapshot.NewRepository(db, logger)
	scanRepo := scanlog.NewRepository(db, logger)

	holder := index.NewHolder()
	restoreIndex(ctx, holder, snapshotRepo, logger)

	emitter := events.NewEmitter(producer, logger)

	var appender *scanfile.Appender
	if cfg.ScanLogPath != "" {
		appender = scanfile.NewAppender(cfg.ScanLogPath)
	}

	checker := health.NewChecker(db, holder, version)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.Error(logger)
	e.Server.ReadTimeout = time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second
	e.Server.WriteTimeout = time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second
	e.Server.IdleTimeout = time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second

	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))

	e.GET("/health", checker.HealthHandler)
	e.GET("/health/live", checker.LivenessHandler)
	e.GET("/health/ready", checker.ReadinessHandler)

	api := e.Group("/api")
	if cfg.APIKey != "" {
		api.Use(middleware.APIKey(logger, cfg.APIKey))
	}

	handlers.NewManifestHandler(manifestRepo, cfg.PublicBaseURL, logger).RegisterRoutes(api)
	handlers.NewIndexHandler(holder, snapshotRepo, logger).RegisterRoutes(api)
	handlers.NewLookupHandler(holder, logger).RegisterRoutes(api)
	handlers.NewScanHandler(scanRepo, appender, emitter, logger).RegisterRoutes(api)

	checker.SetReady(true)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.WithFields(map[string]any{"addr": addr, "version": version}).Info("starting store API")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("server stopped unexpectedly")
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("failed to shut down server cleanly")
	}
}

func newLogger(cfg config.Config) ectologger.Logger {
	var zapLogger *zap.Logger
	var err error
	if cfg.PrettyLogs {
		zapLogger, err = zap.NewDevelopment()
	} else {
		zapLogger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

func connectDatabase(cfg config.Config, logger ectologger.Logger) (database.DB, error) {
	sqlxDB, err := sqlx.Connect(cfg.DatabaseDriver, cfg.DatabaseDSN())
	if err != nil {
		return nil, err
	}
	sqlxDB.SetMaxOpenConns(cfg.DatabaseMaxOpenConns)
	sqlxDB.SetMaxIdleConns(cfg.DatabaseMaxIdleConns)
	sqlxDB.SetConnMaxLifetime(cfg.DatabaseConnMaxLifetime)

	driver, err := postgres.WithInstance(sqlxDB.DB, &postgres.Config{})
	if err != nil {
		return nil, err
	}

	migrationService := database.NewMigrationService(logger, &database.MigrationConfig{
		MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
		Version:             uint(cfg.DatabaseMigrationVersion),
		Force:               cfg.DatabaseMigrationForce,
		AutoRollback:        cfg.DatabaseMigrationAutoRollback,
	})
	if err := migrationService.Migrate(cfg.DatabaseName, driver); err != nil {
		return nil, err
	}

	return database.NewDatabaseInstance(sqlxDB, logger), nil
}

// restoreIndex reloads the latest persisted snapshot so lookups work
// immediately after a restart, before the next build publishes.
func restoreIndex(ctx context.Context, holder *index.Holder, snapshots *indexsnapshot.Repository, logger ectologger.Logger) {
	row, err := snapshots.Latest(ctx)
	if err != nil {
		logger.WithError(err).Warn("failed to load persisted index snapshot")
		return
	}
	if row == nil {
		logger.Info("no persisted index snapshot, starting empty")
		return
	}
	holder.Publish(row.Entries.GetValue())
	logger.WithFields(map[string]any{
		"entries":      row.EntryCount,
		"published_at": row.PublishedAt,
	}).Info("restored tracking index from snapshot")
}
