package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/finwatch/finwatch-processing-service/internal/domain/port"
	"github.com/finwatch/finwatch-processing-service/internal/infra/config"
	"github.com/finwatch/finwatch-processing-service/internal/infra/email"
	"github.com/finwatch/finwatch-processing-service/internal/infra/jsonfile"
	"github.com/finwatch/finwatch-processing-service/internal/infra/localfs"
	"github.com/finwatch/finwatch-processing-service/internal/infra/metrics"
	miniostorage "github.com/finwatch/finwatch-processing-service/internal/infra/minio"
	"github.com/finwatch/finwatch-processing-service/internal/infra/postgres"
	"github.com/finwatch/finwatch-processing-service/internal/infra/rabbitmq"
	"github.com/finwatch/finwatch-processing-service/internal/infra/tracing"
	"github.com/finwatch/finwatch-processing-service/internal/infra/vision"
	"github.com/finwatch/finwatch-processing-service/internal/usecase"
	"github.com/finwatch/finwatch-processing-service/pkg/logger"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	fatalOnErr(err, "load config")

	log, err := logger.New(cfg.LogLevel)
	fatalOnErr(err, "init logger")
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Calibration and triangulation are one-shot tool modes: errors
	// propagate straight to exit, unlike the tolerant batch loop.
	if len(os.Args) > 1 {
		if err := runTool(cfg, log, os.Args[1:]); err != nil {
			log.Error("tool mode failed", zap.String("mode", os.Args[1]), zap.Error(err))
			os.Exit(1)
		}
		return
	}

	log.Info("starting finwatch-processing-service")

	// Tracing (non-fatal if the collector is unavailable)
	tp, err := tracing.InitTracer(ctx, cfg.JaegerEndpoint)
	if err != nil {
		log.Warn("tracing init failed, continuing without tracing", zap.Error(err))
	} else {
		defer tp.Shutdown(ctx)
	}

	// Optional result archive
	var archiver port.ResultArchiver
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		fatalOnErr(err, "connect to postgres")
		defer pool.Close()

		archive := postgres.NewResultArchive(pool)
		fatalOnErr(archive.EnsureSchema(ctx), "ensure archive schema")
		archiver = archive
	}

	// Optional record upload
	var storage port.RecordStorage
	if cfg.MinIOEndpoint != "" {
		st, err := miniostorage.NewStorage(miniostorage.StorageConfig{
			Endpoint:     cfg.MinIOEndpoint,
			AccessKey:    cfg.MinIOAccessKey,
			SecretKey:    cfg.MinIOSecretKey,
			UseSSL:       cfg.MinIOUseSSL,
			RecordBucket: cfg.MinIORecordBucket,
		})
		fatalOnErr(err, "create minio storage")
		fatalOnErr(st.EnsureBucket(ctx), "ensure minio bucket")
		storage = st
	}

	// Optional status publisher
	var publisher port.StatusPublisher
	if cfg.RabbitMQURL != "" {
		conn, err := amqp.Dial(cfg.RabbitMQURL)
		fatalOnErr(err, "connect to rabbitmq")
		defer conn.Close()

		pub, err := rabbitmq.NewStatusPublisher(conn, cfg.RabbitMQExchange, cfg.RabbitMQStatusQueue)
		fatalOnErr(err, "create rabbitmq publisher")
		publisher = pub
	}

	// Optional failure notification
	var notifier port.FailureNotifier
	if cfg.NotificationTo != "" {
		notifier = email.NewSMTPNotifier(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, log)
	}

	sink := jsonfile.NewSink(cfg.RecordDir, cfg.RecordPrefix)
	processor := vision.NewPairProcessor(vision.ProcessorConfig{
		MotionPixelDiff: cfg.MotionPixelDiff,
		MotionThreshold: cfg.MotionThreshold,
		MotionCooldown:  cfg.MotionCooldown,
	}, sink, storage, log)

	scheduler := usecase.NewBatchScheduler(
		localfs.NewLister(),
		usecase.NewPairingEngine(cfg.RecordPrefix),
		processor,
		publisher, notifier, archiver,
		log,
		usecase.BatchConfig{
			VideoDir:         cfg.VideoDir,
			RecordDir:        cfg.RecordDir,
			VideoExtensions:  cfg.VideoExtensions,
			RecordExtensions: cfg.RecordExtensions,
			ParallelPairs:    cfg.ParallelPairs,
			NotificationTo:   cfg.NotificationTo,
		},
	)

	metricsSrv := metrics.StartMetricsServer(ctx, cfg.MetricsPort, log)

	// Graceful shutdown: the signal cancels the batch loop between
	// cycles and dispatches; an in-flight pair is abandoned without
	// deleting its inputs.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info("received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}()

	if err := scheduler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("batch loop error", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	metricsSrv.Shutdown(shutdownCtx)

	log.Info("finwatch-processing-service stopped")
}

func runTool(cfg *config.Config, log *zap.Logger, args []string) error {
	switch strings.ToLower(args[0]) {
	case "calibrate":
		if len(args) < 3 {
			return fmt.Errorf("usage: worker calibrate <left-image-dir> <right-image-dir>")
		}
		calibrator := vision.NewCalibrator(vision.CalibratorConfig{
			BoardCols:    cfg.BoardCols,
			BoardRows:    cfg.BoardRows,
			SquareSizeMM: cfg.SquareSizeMM,
			ImageWidth:   cfg.ImageWidth,
			ImageHeight:  cfg.ImageHeight,
		}, localfs.NewLister(), log)
		return calibrator.Calibrate(args[1], args[2], cfg.CalibrationFile)

	case "triangulate":
		triangulator := vision.NewTriangulator(log)
		return triangulator.Triangulate(cfg.MeasurePointsFile, cfg.CalibrationFile, cfg.TriangulationOut)

	default:
		return fmt.Errorf("unknown mode %q (want calibrate or triangulate)", args[0])
	}
}

func fatalOnErr(err error, msg string) {
	if err != nil {
		panic(msg + ": " + err.Error())
	}
}
