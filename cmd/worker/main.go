package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/fiapx/fiapx-keyframe-service/internal/domain/entity"
	"github.com/fiapx/fiapx-keyframe-service/internal/infra/config"
	"github.com/fiapx/fiapx-keyframe-service/internal/infra/email"
	"github.com/fiapx/fiapx-keyframe-service/internal/infra/ffmpeg"
	"github.com/fiapx/fiapx-keyframe-service/internal/infra/metrics"
	miniostorage "github.com/fiapx/fiapx-keyframe-service/internal/infra/minio"
	"github.com/fiapx/fiapx-keyframe-service/internal/infra/postgres"
	"github.com/fiapx/fiapx-keyframe-service/internal/infra/primitives"
	"github.com/fiapx/fiapx-keyframe-service/internal/infra/rabbitmq"
	"github.com/fiapx/fiapx-keyframe-service/internal/infra/tracing"
	"github.com/fiapx/fiapx-keyframe-service/internal/selection"
	"github.com/fiapx/fiapx-keyframe-service/internal/usecase"
	"github.com/fiapx/fiapx-keyframe-service/pkg/logger"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const statusRoutingKey = "video.status"

func main() {
	cfg, err := config.Load()
	fatalOnErr(err, "load config")

	log, err := logger.New(cfg.LogLevel)
	fatalOnErr(err, "init logger")
	defer log.Sync()

	log.Info("starting " + tracing.ServiceName)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Tracing is optional; the worker runs without a collector.
	shutdownTracer, err := tracing.InitTracer(ctx, cfg.JaegerEndpoint, cfg.TraceSample)
	if err != nil {
		log.Warn("tracing init failed, continuing without tracing", zap.Error(err))
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	fatalOnErr(err, "connect to postgres")
	defer pool.Close()

	fatalOnErr(migrate(ctx, cfg, log), "run migrations")

	storage, err := miniostorage.NewStorage(miniostorage.StorageConfig{
		Endpoint:     cfg.MinIOEndpoint,
		AccessKey:    cfg.MinIOAccessKey,
		SecretKey:    cfg.MinIOSecretKey,
		UseSSL:       cfg.MinIOUseSSL,
		UploadBucket: cfg.MinIOUploadBucket,
		FramesBucket: cfg.MinIOFramesBucket,
	})
	fatalOnErr(err, "create minio storage")
	fatalOnErr(storage.EnsureBuckets(ctx), "ensure minio buckets")

	rmqConn, err := amqp.Dial(cfg.RabbitMQURL)
	fatalOnErr(err, "connect to rabbitmq for publisher")
	defer rmqConn.Close()

	pub, err := rabbitmq.NewPublisher(rmqConn, cfg.RabbitMQExchange)
	fatalOnErr(err, "create rabbitmq publisher")
	defer pub.Close()

	selector, err := primitives.NewSelectionService(cfg.Selection.Decoder, selection.PipelineConfig{
		Lookahead: cfg.Selection.Lookahead,
		Workers:   cfg.Selection.Workers,
	}, log)
	fatalOnErr(err, "build selection service")

	uc := usecase.NewSelectFramesUseCase(usecase.Deps{
		Repo:      postgres.NewJobRepository(pool),
		Storage:   storage,
		Extractor: ffmpeg.NewExtractor(cfg.FFmpegFormat, log),
		Selector:  selector,
		Zipper:    ffmpeg.NewZipCreator(),
		Status:    rabbitmq.NewStatusPublisher(pub, statusRoutingKey),
		Detection: rabbitmq.NewDetectionPublisher(pub, cfg.RabbitMQDetectionRoutingKey),
		DLQ:       rabbitmq.NewDLQPublisher(pub, cfg.RabbitMQDLQ),
		Notifier:  email.NewSMTPNotifier(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, cfg.NotificationTo, log),
	}, log, usecase.SelectFramesConfig{
		TempDir:    cfg.TempDir,
		MaxRetries: cfg.MaxRetries,
		FrameRate:  cfg.FFmpegFPS,
		Defaults: entity.SelectionDefaults{
			Strategy:        entity.Strategy(cfg.Selection.DefaultStrategy),
			Count:           cfg.Selection.DefaultCount,
			SceneThreshold:  cfg.Selection.SceneThreshold,
			MotionThreshold: cfg.Selection.MotionThreshold,
		},
	})

	ready := func(ctx context.Context) error {
		return errors.Join(pool.Ping(ctx), storage.Ping(ctx))
	}
	metricsSrv := metrics.StartMetricsServer(ctx, cfg.MetricsPort, ready, log)

	consumer, err := rabbitmq.NewConsumer(rabbitmq.ConsumerConfig{
		URL:              cfg.RabbitMQURL,
		Exchange:         cfg.RabbitMQExchange,
		Queue:            cfg.RabbitMQSelectionQueue,
		RoutingKey:       cfg.RabbitMQSelectionQueue,
		DLQ:              cfg.RabbitMQDLQ,
		StatusQueue:      cfg.RabbitMQStatusQueue,
		StatusRoutingKey: statusRoutingKey,
		Prefetch:         cfg.RabbitMQPrefetch,
		WorkerCount:      cfg.WorkerCount,
		BaseDelayMs:      cfg.RetryBaseDelayMs,
	}, uc.Execute, log)
	fatalOnErr(err, "create consumer")

	log.Info(tracing.ServiceName+" started, consuming messages",
		zap.String("queue", cfg.RabbitMQSelectionQueue),
		zap.String("decoder", cfg.Selection.Decoder),
	)

	if err := consumer.Start(ctx); err != nil {
		log.Error("consumer error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = metricsSrv.Shutdown(shutdownCtx)
	if shutdownTracer != nil {
		_ = shutdownTracer(shutdownCtx)
	}

	consumer.Close()
	log.Info(tracing.ServiceName + " stopped")
}

// migrate retries until the database accepts connections, which may lag
// the worker when both start together.
func migrate(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsDir)
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(time.Minute),
		backoff.WithNotify(func(err error, next time.Duration) {
			log.Warn("migrations failed, retrying", zap.Error(err), zap.Duration("next", next))
		}),
	)
	return err
}

func fatalOnErr(err error, msg string) {
	if err != nil {
		panic(msg + ": " + err.Error())
	}
}
