package vision

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/finwatch/finwatch-processing-service/internal/domain/entity"
	"github.com/finwatch/finwatch-processing-service/internal/domain/port"
	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

type ProcessorConfig struct {
	MotionPixelDiff float64
	MotionThreshold float64
	MotionCooldown  int
}

// PairProcessor decodes both videos of a work item frame by frame,
// drives one QR event and a set of activity events per video, and emits
// one record document per video. Detector instances are never shared
// across videos; each call builds its own set, so a single processor is
// safe to dispatch to from concurrent workers.
type PairProcessor struct {
	cfg     ProcessorConfig
	sink    port.RecordSink
	storage port.RecordStorage
	logger  *zap.Logger
}

// NewPairProcessor wires the processor. storage may be nil, in which
// case emitted records stay on the local filesystem only.
func NewPairProcessor(cfg ProcessorConfig, sink port.RecordSink, storage port.RecordStorage, logger *zap.Logger) *PairProcessor {
	return &PairProcessor{cfg: cfg, sink: sink, storage: storage, logger: logger}
}

func (p *PairProcessor) ProcessPair(ctx context.Context, videoA, videoB string) (*entity.PairResult, error) {
	videos := []string{videoA}
	if videoB != videoA {
		videos = append(videos, videoB)
	}

	result := &entity.PairResult{}
	for _, video := range videos {
		doc, err := p.processVideo(video)
		if err != nil {
			return nil, fmt.Errorf("process %s: %w", video, err)
		}

		recordPath, err := p.sink.Write(video, *doc)
		if err != nil {
			return nil, fmt.Errorf("write record for %s: %w", video, err)
		}
		result.RecordPaths = append(result.RecordPaths, recordPath)
		result.FramesRead += doc.FrameCount
		result.EventCount += len(doc.Events)
		for _, ev := range doc.Events {
			if ev.Type == entity.EventTypeQR && ev.Detected {
				result.QRDetected = true
			}
		}

		if err := p.uploadRecord(ctx, recordPath); err != nil {
			// The local record already exists; upload is best-effort.
			p.logger.Warn("record upload failed",
				zap.String("record", recordPath),
				zap.Error(err),
			)
		}
	}
	return result, nil
}

func (p *PairProcessor) processVideo(videoPath string) (*entity.VideoRecord, error) {
	capture, err := gocv.VideoCaptureFile(videoPath)
	if err != nil {
		return nil, fmt.Errorf("open video: %w", err)
	}
	defer capture.Close()

	fps := capture.Get(gocv.VideoCaptureFPS)

	qr := NewQREvent()
	defer qr.Close()
	qr.StartEvent(0)

	gate := newMotionGate(p.cfg.MotionPixelDiff, p.cfg.MotionThreshold, p.cfg.MotionCooldown)
	defer gate.Close()

	frame := gocv.NewMat()
	defer frame.Close()

	var (
		activities []entity.EventRecord
		current    *ActivityEvent
		nextID     = 1
		moving     bool
		frameNum   int
	)

	for capture.Read(&frame) {
		if frame.Empty() {
			continue
		}

		qr.CheckFrame(frame, frameNum)

		moving = gate.observe(frame)
		if moving && current == nil {
			n := frameNum
			current = NewActivityEvent(nextID, n, n, func(_ gocv.Mat, _ int) bool {
				return moving
			})
			current.StartEvent(n)
			nextID++
		}
		if current != nil {
			current.CheckFrame(frame, frameNum)
			if !current.IsActive() {
				activities = append(activities, finalize(current, frameNum))
				current = nil
			}
		}

		frameNum++
	}
	if frameNum == 0 {
		return nil, fmt.Errorf("no frames decoded")
	}

	last := frameNum - 1
	if current != nil {
		activities = append(activities, finalize(current, last))
	}
	events := append([]entity.EventRecord{finalize(qr, last)}, activities...)

	p.logger.Info("video scanned",
		zap.String("video", videoPath),
		zap.Int("frames", frameNum),
		zap.Int("events", len(events)),
		zap.Bool("qr_detected", qr.DetectedQR()),
	)

	return &entity.VideoRecord{
		Video:      filepath.Base(videoPath),
		FrameCount: frameNum,
		FPS:        fps,
		Events:     events,
	}, nil
}

// finalize closes out an event at the given frame and snapshots it.
func finalize(ev port.FrameEvent, frame int) entity.EventRecord {
	ev.EndEvent(frame)
	return ev.Record()
}

func (p *PairProcessor) uploadRecord(ctx context.Context, recordPath string) error {
	if p.storage == nil {
		return nil
	}
	data, err := os.ReadFile(recordPath)
	if err != nil {
		return err
	}
	return p.storage.UploadRecord(ctx, filepath.Base(recordPath), bytes.NewReader(data), int64(len(data)))
}
