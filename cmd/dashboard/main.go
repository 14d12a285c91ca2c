package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spacesedan/pulseboard/config"
	"github.com/spacesedan/pulseboard/internal/api"
	"github.com/spacesedan/pulseboard/internal/chat"
	"github.com/spacesedan/pulseboard/internal/clients"
	"github.com/spacesedan/pulseboard/internal/clients/kafka_client"
	"github.com/spacesedan/pulseboard/internal/db"
	"github.com/spacesedan/pulseboard/internal/loader"
	"github.com/spacesedan/pulseboard/internal/logging"
	"github.com/spacesedan/pulseboard/internal/monitoring"
	"github.com/spacesedan/pulseboard/internal/snapshot"
)

const SHUTDOWN_TIMEOUT = 10 * time.Second

func main() {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	config.LoadEnv(env)
	cfg := config.Load()
	logging.InitLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var awsClients *clients.AWSClients
	if strings.HasPrefix(cfg.DataURI, "s3://") || cfg.ArchiveTable != "" {
		c, err := clients.NewAWSClients(ctx, cfg.AWSRegion, cfg.AWSEndpoint)
		if err != nil {
			slog.Error("[Main] Failed to initialize AWS clients", slog.String("error", err.Error()))
			os.Exit(1)
		}
		awsClients = c
	}

	var s3Client loader.S3GetObjectAPI
	if awsClients != nil {
		s3Client = awsClients.S3()
	}
	source, err := loader.NewSource(cfg.DataURI, s3Client)
	if err != nil {
		slog.Error("[Main] Invalid data source", slog.String("error", err.Error()))
		os.Exit(1)
	}

	store := snapshot.NewStore()
	refresher := snapshot.NewRefresher(source, store, cfg.RefreshInterval)

	if cfg.ValkeyAddr != "" {
		cache, err := clients.NewValkeyClient(clients.ValkeyOptions{
			Address:  cfg.ValkeyAddr,
			Password: cfg.ValkeyPassword,
			TLS:      cfg.ValkeyTLS,
			TTL:      cfg.SnapshotTTL,
		})
		if err != nil {
			slog.Warn("[Main] Snapshot cache disabled", slog.String("error", err.Error()))
		} else {
			defer cache.Close()
			if err := refresher.Restore(ctx, cache); err != nil && !errors.Is(err, snapshot.ErrNoSnapshot) && !errors.Is(err, snapshot.ErrStaleSnapshot) {
				slog.Warn("[Main] Could not restore cached snapshot", slog.String("error", err.Error()))
			}
			refresher.AddHook("valkey", cache.SaveSnapshot)
		}
	}

	if cfg.ArchiveTable != "" {
		archive := db.NewPostArchive(awsClients.DynamoDB(), cfg.ArchiveTable)
		refresher.AddHook("dynamodb", archive.ArchiveSnapshot)
	}

	if cfg.KafkaBroker != "" {
		publisher, err := kafka_client.NewSnapshotPublisher(kafka_client.NewKafkaConfig(cfg.KafkaBroker, cfg.KafkaSnapshotTopic))
		if err != nil {
			slog.Warn("[Main] Snapshot events disabled", slog.String("error", err.Error()))
		} else {
			defer publisher.Close()
			refresher.AddHook("kafka", func(ctx context.Context, snap *snapshot.Snapshot) error {
				return publisher.Publish(ctx, snap.Event(cfg.TopicLimit))
			})
		}
	}

	var wg sync.WaitGroup
	run := func(fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn()
		}()
	}

	opts := api.Options{
		TopicLimit:     cfg.TopicLimit,
		AllowedOrigins: cfg.AllowedOrigins,
	}

	var completer chat.Completer
	if chatClient, err := clients.NewChatClient(cfg.ChatAPIKey, cfg.ChatBaseURL, cfg.ChatModel); err != nil {
		slog.Warn("[Main] Chat relay disabled", slog.String("error", err.Error()))
	} else {
		completer = chatClient
		chatHealthy := &atomic.Bool{}
		opts.ChatHealthy = chatHealthy
		run(func() {
			monitoring.Monitor(ctx, "chat", cfg.HealthcheckInterval, chatClient.Healthy, chatHealthy)
		})
	}

	if cfg.RegionFilterURL != "" {
		regionClient := clients.NewRegionClient(cfg.RegionFilterURL, 10*time.Second)
		regionHealthy := &atomic.Bool{}
		opts.Region = regionClient
		opts.RegionHealthy = regionHealthy
		run(func() {
			monitoring.Monitor(ctx, "region", cfg.HealthcheckInterval, regionClient.Healthy, regionHealthy)
		})
	}

	run(func() { refresher.Run(ctx) })

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           api.NewServer(store, chat.NewRelay(completer, store, cfg.TopicLimit), opts).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("[Main] Dashboard API listening",
			slog.String("addr", cfg.ListenAddr),
			slog.String("env", cfg.Env),
			slog.String("source", source.Name()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("[Main] Server failed", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("[Main] Shutting down dashboard gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), SHUTDOWN_TIMEOUT)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("[Main] Server shutdown failed", slog.String("error", err.Error()))
	}
	wg.Wait()
}
