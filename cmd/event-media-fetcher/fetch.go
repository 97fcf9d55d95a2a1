package main

import (
	"context"
	"fmt"
	"os"
	"time"

	// Application
	applicationPort "github.com/dreschagin/event-media-fetcher/internal/application/port"
	"github.com/dreschagin/event-media-fetcher/internal/application/usecase"

	// Infrastructure
	redisCache "github.com/dreschagin/event-media-fetcher/internal/infrastructure/cache/redis"
	"github.com/dreschagin/event-media-fetcher/internal/infrastructure/download"
	"github.com/dreschagin/event-media-fetcher/internal/infrastructure/eventsource"
	"github.com/dreschagin/event-media-fetcher/internal/infrastructure/httpclient"
	natsInfra "github.com/dreschagin/event-media-fetcher/internal/infrastructure/messaging/nats"
	"github.com/dreschagin/event-media-fetcher/internal/infrastructure/observability/cloudwatch"
	promInfra "github.com/dreschagin/event-media-fetcher/internal/infrastructure/observability/prometheus"
	dynamodbRepo "github.com/dreschagin/event-media-fetcher/internal/infrastructure/persistence/dynamodb"
	"github.com/dreschagin/event-media-fetcher/internal/infrastructure/screenshot/screenshotapi"
	"github.com/dreschagin/event-media-fetcher/internal/infrastructure/search/bing"
	"github.com/dreschagin/event-media-fetcher/internal/infrastructure/storage/local"
	s3storage "github.com/dreschagin/event-media-fetcher/internal/infrastructure/storage/s3"

	// Shared
	"github.com/dreschagin/event-media-fetcher/pkg/config"
	"github.com/dreschagin/event-media-fetcher/pkg/logger"
	"github.com/dreschagin/event-media-fetcher/pkg/tracing"
)

const shutdownTimeout = 10 * time.Second

type fetchOptions struct {
	eventsFile string
	outputDir  string
	policy     string
}

func runFetch(ctx context.Context, opts fetchOptions) error {
	// 1. Загружаем конфигурацию
	cfg, err := config.LoadEnv()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	opts.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 2. Инициализируем logger
	log := logger.New(cfg.LogLevel)

	// 3. Трассировка
	if cfg.Tracing.Enabled {
		shutdownTracing, initErr := tracing.Init(ctx, tracing.Config{UseStdout: cfg.Tracing.Stdout})
		if initErr != nil {
			log.Warn("Tracing disabled", "error", initErr.Error())
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				_ = shutdownTracing(shutdownCtx)
			}()
		}
	}

	// 4. CloudWatch
	if cfg.CloudWatch.LogsEnabled {
		logsPublisher, initErr := cloudwatch.NewLogsPublisher(ctx, cloudwatch.LogsPublisherConfig{
			LogGroupName:    cfg.CloudWatch.LogGroupName,
			LogStreamName:   cfg.CloudWatch.LogStreamName,
			Region:          cfg.CloudWatch.Region,
			Endpoint:        cfg.CloudWatch.Endpoint,
			AccessKeyID:     cfg.CloudWatch.AccessKeyID,
			SecretAccessKey: cfg.CloudWatch.SecretAccessKey,
			AutoCreate:      true,
			Source:          hostname(),
		})
		if initErr != nil {
			log.Warn("CloudWatch logs publishing is disabled", "error", initErr.Error())
		} else {
			log.SetLogPublisher(logsPublisher)
			defer func() {
				log.SetLogPublisher(nil)
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := logsPublisher.Close(shutdownCtx); err != nil {
					log.Warn("Failed to flush CloudWatch logs", "error", err.Error())
				}
			}()
			log.Info("CloudWatch logs publisher initialized")
		}
	}

	var metricsPublishers []applicationPort.MetricsPublisher
	if cfg.CloudWatch.MetricsEnabled {
		publisher, initErr := cloudwatch.NewMetricsPublisher(ctx, cloudwatch.MetricsPublisherConfig{
			Namespace:         cfg.CloudWatch.MetricsNamespace,
			Region:            cfg.CloudWatch.Region,
			Endpoint:          cfg.CloudWatch.Endpoint,
			AccessKeyID:       cfg.CloudWatch.AccessKeyID,
			SecretAccessKey:   cfg.CloudWatch.SecretAccessKey,
			DefaultDimensions: map[string]string{"Service": "event-media-fetcher"},
		})
		if initErr != nil {
			log.Warn("CloudWatch metrics publishing is disabled", "error", initErr.Error())
		} else {
			metricsPublishers = append(metricsPublishers, publisher)
			log.Info("CloudWatch metrics publisher initialized")
		}
	}

	if cfg.Prometheus.PushgatewayURL != "" {
		pusher, initErr := promInfra.NewPusher(cfg.Prometheus.PushgatewayURL, cfg.Prometheus.JobName)
		if initErr != nil {
			log.Warn("Prometheus push is disabled", "error", initErr.Error())
		} else {
			metricsPublishers = append(metricsPublishers, pusher)
			log.Info("Prometheus pushgateway configured", "url", cfg.Prometheus.PushgatewayURL)
		}
	}

	// 5. HTTP клиенты внешних API
	limiter := httpclient.NewLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	searchHTTP := httpclient.New(httpclient.Options{Timeout: cfg.Search.Timeout, Limiter: limiter, Operation: "image.search"})
	screenshotHTTP := httpclient.New(httpclient.Options{Timeout: cfg.Screenshot.Timeout, Limiter: limiter, Operation: "screenshot.capture"})
	// Download deadline is applied per request by the use case.
	downloadHTTP := httpclient.New(httpclient.Options{Operation: "image.download"})

	searchClient, err := bing.NewClient(searchHTTP, bing.Config{
		Endpoint: cfg.Search.Endpoint,
		APIKey:   cfg.Search.APIKey,
		Count:    cfg.Search.Count,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize image search client: %w", err)
	}

	var searcher applicationPort.ImageSearcher = searchClient
	if cfg.Redis.Enabled {
		cache, initErr := redisCache.NewRedisCache(ctx, redisCache.Options{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Redis.TTL,
		})
		if initErr != nil {
			log.Warn("Search cache is disabled", "error", initErr.Error())
		} else {
			defer cache.Close()
			searcher = usecase.NewCachedImageSearch(searchClient, cache, log)
			log.Info("Search cache enabled", "addr", cfg.Redis.Host+":"+cfg.Redis.Port)
		}
	}

	capturer, err := screenshotapi.NewClient(screenshotHTTP, screenshotapi.Config{
		Endpoint: cfg.Screenshot.Endpoint,
		Token:    cfg.Screenshot.APIKey,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to initialize screenshot client: %w", err)
	}

	var verifier *download.Verifier
	if cfg.Download.VerifyImages {
		verifier = download.NewVerifier(1)
	}
	downloader := download.NewHTTPDownloader(downloadHTTP, cfg.Download.MaxBytes, verifier)

	store, err := local.NewArtifactStore(cfg.Run.OutputDir)
	if err != nil {
		return fmt.Errorf("failed to prepare output directory %s: %w", cfg.Run.OutputDir, err)
	}

	// 6. Необязательные хранилища и уведомления
	sinks := usecase.ProcessEventsSinks{Metrics: metricsPublishers}

	if cfg.S3.Enabled {
		mirror, initErr := s3storage.NewArtifactMirror(ctx, s3storage.Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			UsePathStyle:    cfg.S3.UsePathStyle,
			URLMode:         s3storage.URLMode(cfg.S3.URLMode),
			PresignedTTL:    cfg.S3.PresignedTTL,
		})
		if initErr != nil {
			log.Warn("S3 mirror is disabled", "error", initErr.Error())
		} else {
			sinks.Mirror = mirror
			log.Info("S3 mirror initialized", "bucket", cfg.S3.Bucket)
		}
	}

	if cfg.Dynamo.Enabled {
		repository, initErr := dynamodbRepo.NewArtifactMetadataRepository(ctx, dynamodbRepo.Config{
			TableName:       cfg.Dynamo.TableName,
			Region:          cfg.Dynamo.Region,
			Endpoint:        cfg.Dynamo.Endpoint,
			AccessKeyID:     cfg.Dynamo.AccessKeyID,
			SecretAccessKey: cfg.Dynamo.SecretAccessKey,
		})
		if initErr != nil {
			log.Warn("DynamoDB artifact metadata is disabled", "error", initErr.Error())
		} else {
			sinks.Metadata = repository
			log.Info("DynamoDB artifact metadata initialized", "table", cfg.Dynamo.TableName)
		}
	}

	if cfg.NATS.Enabled {
		publisher, initErr := natsInfra.NewNATSPublisher(natsInfra.Config{
			URL:           cfg.NATS.URL,
			StreamName:    cfg.NATS.StreamName,
			SubjectPrefix: cfg.NATS.SubjectPrefix,
		}, log)
		if initErr != nil {
			log.Warn("NATS notifications are disabled", "error", initErr.Error())
		} else {
			defer publisher.Close()
			sinks.Events = publisher
		}
	}

	// 7. Загружаем события
	events, err := eventsource.LoadFile(cfg.Run.EventsFile)
	if err != nil {
		return fmt.Errorf("failed to load events: %w", err)
	}
	log.Info("Events loaded", "file", cfg.Run.EventsFile, "count", len(events))

	// 8. Запускаем обработку
	processEvents := usecase.NewProcessEventsUseCase(
		searcher,
		capturer,
		downloader,
		store,
		sinks,
		usecase.ProcessEventsConfig{
			SearchFailurePolicy: usecase.SearchFailurePolicy(cfg.Run.SearchFailurePolicy),
			DownloadTimeout:     cfg.Download.Timeout,
			OutputDir:           cfg.Run.OutputDir,
			MirrorKeyPrefix:     cfg.S3.KeyPrefix,
			MetadataTTL:         time.Duration(cfg.Dynamo.TTLDays) * 24 * time.Hour,
			SubjectPrefix:       cfg.NATS.SubjectPrefix,
		},
		log,
	)

	if _, err := processEvents.Run(ctx, events); err != nil {
		log.Error("Run failed", err)
		return err
	}

	return nil
}

func (o fetchOptions) apply(cfg *config.Config) {
	if o.eventsFile != "" {
		cfg.Run.EventsFile = o.eventsFile
	}
	if o.outputDir != "" {
		cfg.Run.OutputDir = o.outputDir
	}
	if o.policy != "" {
		cfg.Run.SearchFailurePolicy = o.policy
	}
}

func hostname() string {
	name, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return name
}
