// The indexer binary runs one index build: it pulls every manifest from
// the store, rebuilds the tracking index, publishes it, and refreshes the
// combined master files. Run it from cron or by hand after uploads.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectoenv"
	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/huymai96/package-confirmation-app/config"
	"github.com/huymai96/package-confirmation-app/pkg/builder"
	"github.com/huymai96/package-confirmation-app/pkg/events"
	"github.com/huymai96/package-confirmation-app/pkg/httpclient"
	"github.com/huymai96/package-confirmation-app/pkg/kafka"
	"github.com/huymai96/package-confirmation-app/pkg/store"
	"github.com/huymai96/package-confirmation-app/pkg/tracing"
	"github.com/huymai96/package-confirmation-app/pkg/tracing/exporters"
)

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
		shutdown, err := tracing.Setup(ctx, cfg.AppName+"-indexer", exporters.OTLPConfig{
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

	storeClient := store.NewClient(store.Config{
		BaseURL: cfg.StoreBaseURL,
		APIKey:  cfg.StoreAPIKey,
	}, httpclient.NewClient(httpclient.DefaultConfig(), logger), logger)

	var producer *kafka.Producer
	if cfg.KafkaEnabled {
		producerConfig := kafka.DefaultProducerConfig()
		producerConfig.Brokers = cfg.KafkaBrokers
		producerConfig.Topic = cfg.KafkaOutputTopic
		producerConfig.BatchSize = cfg.KafkaBatchSize
		producerConfig.BatchTimeout = time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond
		producerConfig.RequiredAcks = cfg.KafkaRequiredAcks
		producerConfig.Compression = cfg.KafkaCompression

		var err error
		producer, err = kafka.NewProducer(producerConfig, logger)
		if err != nil {
			logger.WithError(err).Error("failed to create kafka producer")
			os.Exit(1)
		}
		defer producer.Close()
	}
	emitter := events.NewEmitter(producer, logger)

	b := builder.New(storeClient, emitter, logger, builder.Config{
		BackupDir:      cfg.BackupDir,
		WindowDays:     cfg.CombinedWindowDays,
		RebuildMasters: cfg.RebuildMasters,
	})

	report, err := b.Run(ctx)
	if err != nil {
		logger.WithError(err).Error("index build failed")
		os.Exit(1)
	}

	for _, failure := range report.Failures {
		logger.WithFields(map[string]any{
			"filename": failure.Filename,
			"reason":   failure.Reason,
		}).Warn("manifest skipped")
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
