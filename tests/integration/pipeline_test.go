package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/finwatch/finwatch-processing-service/internal/domain/entity"
	"github.com/finwatch/finwatch-processing-service/internal/infra/jsonfile"
	"github.com/finwatch/finwatch-processing-service/internal/infra/localfs"
	miniostorage "github.com/finwatch/finwatch-processing-service/internal/infra/minio"
	"github.com/finwatch/finwatch-processing-service/internal/infra/postgres"
	"github.com/finwatch/finwatch-processing-service/internal/infra/rabbitmq"
	"github.com/finwatch/finwatch-processing-service/internal/usecase"
	"github.com/finwatch/finwatch-processing-service/pkg/logger"
	"github.com/jackc/pgx/v5/pgxpool"
	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcminio "github.com/testcontainers/testcontainers-go/modules/minio"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcrabbitmq "github.com/testcontainers/testcontainers-go/modules/rabbitmq"
)

// recordingProcessor stands in for the OpenCV-backed processor so the
// batch pipeline can be exercised without real stereo footage. It emits
// one record per video through the real sink and mirrors it to object
// storage, exactly like the production processor does.
type recordingProcessor struct {
	sink    *jsonfile.Sink
	storage *miniostorage.Storage
}

func (p *recordingProcessor) ProcessPair(ctx context.Context, videoA, videoB string) (*entity.PairResult, error) {
	result := &entity.PairResult{FramesRead: 42, EventCount: 2, QRDetected: true}

	videos := []string{videoA}
	if videoB != videoA {
		videos = append(videos, videoB)
	}
	for _, video := range videos {
		doc := entity.VideoRecord{
			Video:      filepath.Base(video),
			FrameCount: 42,
			FPS:        25,
			Events: []entity.EventRecord{
				{Type: entity.EventTypeQR, StartFrame: 0, EndFrame: 0, Detected: true},
			},
		}
		path, err := p.sink.Write(video, doc)
		if err != nil {
			return nil, err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		key := filepath.Base(path)
		if err := p.storage.UploadRecord(ctx, key, bytes.NewReader(data), int64(len(data))); err != nil {
			return nil, err
		}
		result.RecordPaths = append(result.RecordPaths, path)
	}
	return result, nil
}

func TestBatchPipelineEndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// Start PostgreSQL container
	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:15-alpine",
		tcpostgres.WithDatabase("finwatch"),
		tcpostgres.WithUsername("finwatch"),
		tcpostgres.WithPassword("finwatch"),
		tcpostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	defer pgContainer.Terminate(ctx)

	pgConnStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	// Start RabbitMQ container
	rmqContainer, err := tcrabbitmq.Run(ctx,
		"rabbitmq:3.12-management-alpine",
	)
	require.NoError(t, err)
	defer rmqContainer.Terminate(ctx)

	rmqURL, err := rmqContainer.AmqpURL(ctx)
	require.NoError(t, err)

	// Start MinIO container
	minioContainer, err := tcminio.Run(ctx,
		"minio/minio:latest",
		tcminio.WithUsername("minioadmin"),
		tcminio.WithPassword("minioadmin"),
	)
	require.NoError(t, err)
	defer minioContainer.Terminate(ctx)

	minioEndpoint, err := minioContainer.ConnectionString(ctx)
	require.NoError(t, err)

	// Archive schema
	pool, err := pgxpool.New(ctx, pgConnStr)
	require.NoError(t, err)
	defer pool.Close()

	archive := postgres.NewResultArchive(pool)
	require.NoError(t, archive.EnsureSchema(ctx))

	// Record mirror bucket
	storage, err := miniostorage.NewStorage(miniostorage.StorageConfig{
		Endpoint:     minioEndpoint,
		AccessKey:    "minioadmin",
		SecretKey:    "minioadmin",
		UseSSL:       false,
		RecordBucket: "video-records",
	})
	require.NoError(t, err)
	require.NoError(t, storage.EnsureBucket(ctx))

	// Status publisher
	rmqConn, err := amqp.Dial(rmqURL)
	require.NoError(t, err)
	defer rmqConn.Close()

	publisher, err := rabbitmq.NewStatusPublisher(rmqConn, "finwatch.video", "pair.status")
	require.NoError(t, err)
	defer publisher.Close()

	// Seed two raw videos in a fresh directory pair
	videoDir := t.TempDir()
	recordDir := t.TempDir()
	videoA := filepath.Join(videoDir, "cam_a.mp4")
	videoB := filepath.Join(videoDir, "cam_b.mp4")
	require.NoError(t, os.WriteFile(videoA, []byte("raw-a"), 0o644))
	require.NoError(t, os.WriteFile(videoB, []byte("raw-b"), 0o644))

	log, _ := logger.New("debug")
	sink := jsonfile.NewSink(recordDir, "DE_")

	scheduler := usecase.NewBatchScheduler(
		localfs.NewLister(),
		usecase.NewPairingEngine("DE_"),
		&recordingProcessor{sink: sink, storage: storage},
		publisher, nil, archive,
		log,
		usecase.BatchConfig{
			VideoDir:         videoDir,
			RecordDir:        recordDir,
			VideoExtensions:  []string{".mp4"},
			RecordExtensions: []string{".json"},
		},
	)

	require.NoError(t, scheduler.Run(ctx))

	// Raw inputs consumed
	_, err = os.Stat(videoA)
	assert.True(t, os.IsNotExist(err), "video A should be deleted after success")
	_, err = os.Stat(videoB)
	assert.True(t, os.IsNotExist(err), "video B should be deleted after success")

	// One record per video, named after the video token
	for _, name := range []string{"DE_cam_a.json", "DE_cam_b.json"} {
		data, err := os.ReadFile(filepath.Join(recordDir, name))
		require.NoError(t, err, "record %s should exist", name)

		var doc entity.VideoRecord
		require.NoError(t, json.Unmarshal(data, &doc))
		assert.Equal(t, 42, doc.FrameCount)
		assert.Len(t, doc.Events, 1)
	}

	// Records mirrored to object storage
	minioClient, err := miniogo.New(minioEndpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
		Secure: false,
	})
	require.NoError(t, err)

	for _, key := range []string{"DE_cam_a.json", "DE_cam_b.json"} {
		_, err := minioClient.StatObject(ctx, "video-records", key, miniogo.StatObjectOptions{})
		assert.NoError(t, err, "record %s should be uploaded", key)
	}

	// Status message published for the pair
	statusCh, err := rmqConn.Channel()
	require.NoError(t, err)
	defer statusCh.Close()

	delivery, ok, err := statusCh.Get("pair.status", true)
	require.NoError(t, err)
	require.True(t, ok, "a status message should be waiting")

	var msg entity.PairStatusMessage
	require.NoError(t, json.Unmarshal(delivery.Body, &msg))
	assert.Equal(t, entity.PairStatusCompleted, msg.Status)
	assert.Equal(t, videoA, msg.VideoA)
	assert.Equal(t, videoB, msg.VideoB)
	assert.Len(t, msg.RecordPaths, 2)

	// Pair archived in the history table
	var dbStatus string
	var dbEventCount int
	err = pool.QueryRow(ctx,
		"SELECT status, event_count FROM processed_pairs WHERE id=$1", msg.PairID,
	).Scan(&dbStatus, &dbEventCount)
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", dbStatus)
	assert.Equal(t, 2, dbEventCount)
}

func TestBatchPipelineSkipsProcessedVideos(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	minioContainer, err := tcminio.Run(ctx,
		"minio/minio:latest",
		tcminio.WithUsername("minioadmin"),
		tcminio.WithPassword("minioadmin"),
	)
	require.NoError(t, err)
	defer minioContainer.Terminate(ctx)

	minioEndpoint, err := minioContainer.ConnectionString(ctx)
	require.NoError(t, err)

	storage, err := miniostorage.NewStorage(miniostorage.StorageConfig{
		Endpoint:     minioEndpoint,
		AccessKey:    "minioadmin",
		SecretKey:    "minioadmin",
		UseSSL:       false,
		RecordBucket: "video-records",
	})
	require.NoError(t, err)
	require.NoError(t, storage.EnsureBucket(ctx))

	videoDir := t.TempDir()
	recordDir := t.TempDir()

	// Both raw videos already have records, so the loop must stop
	// without dispatching anything or touching the inputs.
	videoA := filepath.Join(videoDir, "cam_a.mp4")
	videoB := filepath.Join(videoDir, "cam_b.mp4")
	require.NoError(t, os.WriteFile(videoA, []byte("raw-a"), 0o644))
	require.NoError(t, os.WriteFile(videoB, []byte("raw-b"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(recordDir, "DE_cam_a.json"), []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(recordDir, "DE_cam_b.json"), []byte("{}"), 0o644))

	log, _ := logger.New("debug")
	sink := jsonfile.NewSink(recordDir, "DE_")

	scheduler := usecase.NewBatchScheduler(
		localfs.NewLister(),
		usecase.NewPairingEngine("DE_"),
		&recordingProcessor{sink: sink, storage: storage},
		nil, nil, nil,
		log,
		usecase.BatchConfig{
			VideoDir:         videoDir,
			RecordDir:        recordDir,
			VideoExtensions:  []string{".mp4"},
			RecordExtensions: []string{".json"},
		},
	)

	require.NoError(t, scheduler.Run(ctx))

	_, err = os.Stat(videoA)
	assert.NoError(t, err, "already-processed video A must not be deleted")
	_, err = os.Stat(videoB)
	assert.NoError(t, err, "already-processed video B must not be deleted")
}
