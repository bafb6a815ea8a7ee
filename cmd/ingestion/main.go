package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/your-org/streamvault/internal/catalog"
	"github.com/your-org/streamvault/internal/media"
	"github.com/your-org/streamvault/pkg/config"
	"github.com/your-org/streamvault/pkg/kafka"
	"github.com/your-org/streamvault/pkg/logger"
	"github.com/your-org/streamvault/pkg/postgres"
	"github.com/your-org/streamvault/pkg/storage/remote"
	"github.com/your-org/streamvault/pkg/tracing"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logr, err := logger.New(cfg.App.LogLevel, cfg.App.Environment)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	traceShutdown, err := tracing.Init(ctx, tracing.Config{
		Endpoint:    cfg.Tracing.Endpoint,
		Insecure:    cfg.Tracing.Insecure,
		SampleRatio: cfg.Tracing.SampleRatio,
		Attributes:  parseResourceAttributes(cfg.Tracing.ResourceAttr),
		ServiceName: cfg.App.Name,
	})
	if err != nil {
		logr.Fatal("init tracing", zap.Error(err))
	}
	defer traceShutdown(context.Background()) //nolint:errcheck

	pool, err := postgres.Connect(ctx, postgres.Config{
		DSN:         cfg.DB.DSN,
		MaxConns:    cfg.DB.MaxConns,
		ConnTimeout: cfg.DB.ConnTimeout,
		Migrate:     cfg.DB.MigrateOnBoot,
	})
	if err != nil {
		logr.Fatal("init database", zap.Error(err))
	}
	defer pool.Close()

	producer := kafka.NewProducer(kafka.ProducerConfig{
		Brokers:      cfg.Kafka.Brokers,
		Topic:        cfg.Kafka.CatalogTopic,
		BatchSize:    cfg.Kafka.BatchSize,
		BatchTimeout: cfg.Kafka.BatchTimeout,
		Compression:  kafka.CompressionFromString(cfg.Kafka.CompressionCodec),
		RequiredAcks: kafkago.RequireAll,
		MaxAttempts:  cfg.Kafka.Retries,
	})

	remoteClient, err := remote.New(remote.Config{
		Provider:  cfg.Remote.Provider,
		Addr:      cfg.Remote.Addr,
		User:      cfg.Remote.User,
		Password:  cfg.Remote.Password,
		Endpoint:  cfg.Remote.Endpoint,
		Region:    cfg.Remote.Region,
		Bucket:    cfg.Remote.Bucket,
		AccessKey: cfg.Remote.AccessKey,
		SecretKey: cfg.Remote.SecretKey,
		UseSSL:    cfg.Remote.UseSSL,
	})
	if err != nil {
		logr.Fatal("init remote placement client", zap.Error(err))
	}

	paths := catalog.NewPathBuilder(cfg.Remote.Root, cfg.Remote.LegacyRoot)
	destinations := catalog.NewDestinationRepository(pool)
	videos := catalog.NewVideoRepository(pool)
	refresher := catalog.NewPlaylistRefresher(videos, remoteClient, producer, paths, logr)
	prober := media.NewProber(cfg.Probe.FFprobePath, cfg.Probe.Timeout, media.NewCommandRunner())

	service := catalog.NewService(catalog.Params{
		Destinations:    destinations,
		Videos:          videos,
		Quota:           catalog.NewLedger(destinations),
		Prober:          prober,
		Remote:          remoteClient,
		Manifest:        refresher,
		Publisher:       producer,
		Paths:           paths,
		TransferTimeout: cfg.Remote.TransferTimeout,
		Logger:          logr,
	})

	handler := catalog.NewHTTPHandler(service, logr, cfg.Upload.MaxSizeBytes, cfg.Upload.MultipartMemBytes, cfg.Upload.DefaultBitrateKbps, cfg.Upload.TempDir)

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      handler.Router(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logr.Error("http server shutdown failed", zap.Error(err))
		}
		if err := producer.Close(shutdownCtx); err != nil {
			logr.Error("producer shutdown failed", zap.Error(err))
		}
		if err := remoteClient.Close(); err != nil {
			logr.Error("remote client shutdown failed", zap.Error(err))
		}
	}()

	logr.Info("ingestion service starting", zap.String("addr", cfg.HTTP.Addr))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logr.Fatal("http server failed", zap.Error(err))
	}
}

func parseResourceAttributes(raw string) map[string]string {
	attrs := map[string]string{}
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" || !strings.Contains(pair, "=") {
			continue
		}
		parts := strings.SplitN(pair, "=", 2)
		attrs[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
	}
	return attrs
}
