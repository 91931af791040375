package usecase

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/finwatch/finwatch-processing-service/internal/domain/entity"
	"github.com/finwatch/finwatch-processing-service/internal/domain/port"
	"github.com/finwatch/finwatch-processing-service/internal/infra/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type BatchConfig struct {
	VideoDir         string
	RecordDir        string
	VideoExtensions  []string
	RecordExtensions []string
	ParallelPairs    bool
	NotificationTo   string
}

// BatchScheduler drives repeated discover -> filter -> pair -> dispatch
// -> cleanup cycles over the raw video directory until nothing is left
// to process. A failing pair is logged and left on disk for the next
// cycle; only a pair reported successful has its inputs deleted. There
// is no job ledger: the directories themselves are the queue.
type BatchScheduler struct {
	lister    port.VideoLister
	pairing   *PairingEngine
	processor port.PairProcessor
	publisher port.StatusPublisher
	notifier  port.FailureNotifier
	archiver  port.ResultArchiver
	logger    *zap.Logger
	cfg       BatchConfig
}

// NewBatchScheduler wires the scheduler. publisher, notifier and
// archiver are optional and may be nil.
func NewBatchScheduler(
	lister port.VideoLister,
	pairing *PairingEngine,
	processor port.PairProcessor,
	publisher port.StatusPublisher,
	notifier port.FailureNotifier,
	archiver port.ResultArchiver,
	logger *zap.Logger,
	cfg BatchConfig,
) *BatchScheduler {
	return &BatchScheduler{
		lister:    lister,
		pairing:   pairing,
		processor: processor,
		publisher: publisher,
		notifier:  notifier,
		archiver:  archiver,
		logger:    logger,
		cfg:       cfg,
	}
}

// Run loops batch cycles until a discovery pass finds no raw videos, no
// pairable work remains, or ctx is cancelled. Cancellation is checked
// between cycles and between dispatches, never mid-video: an in-flight
// pair finishes or is abandoned with its files left in place.
func (s *BatchScheduler) Run(ctx context.Context) error {
	tracer := otel.Tracer("usecase")

	for cycle := 1; ; cycle++ {
		if err := ctx.Err(); err != nil {
			s.logger.Info("batch loop cancelled", zap.Int("cycle", cycle))
			return err
		}

		cycleCtx, span := tracer.Start(ctx, "batch_cycle")
		span.SetAttributes(attribute.Int("cycle", cycle))

		videos := s.lister.List(s.cfg.VideoDir, s.cfg.VideoExtensions)
		if len(videos) == 0 {
			span.End()
			s.logger.Info("no raw videos found, stopping", zap.Int("cycles", cycle-1))
			return nil
		}

		records := s.lister.List(s.cfg.RecordDir, s.cfg.RecordExtensions)
		work := s.pairing.BuildWorkList(videos, records)
		metrics.BatchCyclesTotal.Inc()

		if len(work) == 0 {
			// Every remaining raw video already has a record. Without
			// this stop the loop would spin on the same discovery.
			span.End()
			s.logger.Info("all discovered videos already processed, stopping",
				zap.Int("videos", len(videos)),
			)
			return nil
		}

		s.logger.Info("batch cycle starting",
			zap.Int("cycle", cycle),
			zap.Int("videos", len(videos)),
			zap.Int("pairs", len(work)),
		)

		if s.cfg.ParallelPairs {
			var wg sync.WaitGroup
			for _, pair := range work {
				wg.Add(1)
				go func(p entity.VideoPair) {
					defer wg.Done()
					s.dispatch(cycleCtx, p)
				}(pair)
			}
			wg.Wait()
		} else {
			for _, pair := range work {
				if ctx.Err() != nil {
					break
				}
				s.dispatch(cycleCtx, pair)
			}
		}
		span.End()
	}
}

func (s *BatchScheduler) dispatch(ctx context.Context, pair entity.VideoPair) {
	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "process_pair")
	defer span.End()
	span.SetAttributes(
		attribute.String("pair.id", pair.ID.String()),
		attribute.String("pair.video_a", pair.VideoA),
		attribute.String("pair.video_b", pair.VideoB),
	)

	log := s.logger.With(
		zap.String("pair_id", pair.ID.String()),
		zap.String("video_a", pair.VideoA),
		zap.String("video_b", pair.VideoB),
	)

	metrics.ActivePairs.Inc()
	defer metrics.ActivePairs.Dec()
	start := time.Now()

	result, err := s.processor.ProcessPair(ctx, pair.VideoA, pair.VideoB)
	if err != nil {
		// Inputs stay on disk; the next cycle rediscovers and retries
		// them. A deterministic failure therefore retries forever.
		log.Error("pair processing failed, inputs kept for retry", zap.Error(err))
		metrics.PairsProcessedTotal.WithLabelValues("failed").Inc()

		msg := s.statusMessage(pair, nil, entity.PairStatusFailed, err.Error())
		s.publishStatus(ctx, msg, log)
		s.archive(ctx, msg, log)
		s.notifyFailure(ctx, pair, err, log)
		return
	}

	s.removeConsumed(pair, log)

	metrics.PairsProcessedTotal.WithLabelValues("completed").Inc()
	metrics.PairProcessingDuration.Observe(time.Since(start).Seconds())
	metrics.EventsDetectedTotal.Add(float64(result.EventCount))
	if result.QRDetected {
		metrics.QRMarkersTotal.Inc()
	}

	msg := s.statusMessage(pair, result, entity.PairStatusCompleted, "")
	s.publishStatus(ctx, msg, log)
	s.archive(ctx, msg, log)

	log.Info("pair completed",
		zap.Int("frames", result.FramesRead),
		zap.Int("events", result.EventCount),
		zap.Bool("qr_detected", result.QRDetected),
		zap.Strings("records", result.RecordPaths),
	)
}

func (s *BatchScheduler) removeConsumed(pair entity.VideoPair, log *zap.Logger) {
	consumed := []string{pair.VideoA}
	if pair.VideoB != pair.VideoA {
		consumed = append(consumed, pair.VideoB)
	}
	for _, video := range consumed {
		if err := os.Remove(video); err != nil && !os.IsNotExist(err) {
			log.Warn("failed to delete consumed video", zap.String("video", video), zap.Error(err))
		}
	}
}

func (s *BatchScheduler) statusMessage(pair entity.VideoPair, result *entity.PairResult, status entity.PairStatus, errMsg string) entity.PairStatusMessage {
	msg := entity.PairStatusMessage{
		PairID:       pair.ID,
		VideoA:       pair.VideoA,
		VideoB:       pair.VideoB,
		Status:       status,
		ErrorMessage: errMsg,
		ProcessedAt:  time.Now().UTC(),
	}
	if result != nil {
		msg.EventCount = result.EventCount
		msg.RecordPaths = result.RecordPaths
	}
	return msg
}

func (s *BatchScheduler) publishStatus(ctx context.Context, msg entity.PairStatusMessage, log *zap.Logger) {
	if s.publisher == nil {
		return
	}
	data, _ := json.Marshal(msg)
	if err := s.publisher.PublishStatus(ctx, data); err != nil {
		log.Error("failed to publish pair status", zap.Error(err))
	}
}

func (s *BatchScheduler) archive(ctx context.Context, msg entity.PairStatusMessage, log *zap.Logger) {
	if s.archiver == nil {
		return
	}
	if err := s.archiver.Archive(ctx, msg); err != nil {
		log.Error("failed to archive pair result", zap.Error(err))
	}
}

func (s *BatchScheduler) notifyFailure(ctx context.Context, pair entity.VideoPair, cause error, log *zap.Logger) {
	if s.notifier == nil || s.cfg.NotificationTo == "" {
		return
	}
	videos := pair.VideoA + ", " + pair.VideoB
	if err := s.notifier.NotifyFailure(ctx, s.cfg.NotificationTo, pair.ID.String(), videos, cause.Error()); err != nil {
		log.Error("failed to send failure notification", zap.Error(err))
	}
}
