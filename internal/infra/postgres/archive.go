package postgres

import (
	"context"
	"fmt"

	"github.com/finwatch/finwatch-processing-service/internal/domain/entity"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ResultArchive keeps an append-only history of dispatched pairs. The
// scheduler never reads it back; pairing state lives entirely in the
// video and record directories.
type ResultArchive struct {
	pool *pgxpool.Pool
}

func NewResultArchive(pool *pgxpool.Pool) *ResultArchive {
	return &ResultArchive{pool: pool}
}

func (r *ResultArchive) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS processed_pairs (
			id            UUID PRIMARY KEY,
			video_a       TEXT NOT NULL,
			video_b       TEXT NOT NULL,
			status        TEXT NOT NULL,
			event_count   INT NOT NULL DEFAULT 0,
			record_paths  TEXT[] NOT NULL DEFAULT '{}',
			error_message TEXT NOT NULL DEFAULT '',
			processed_at  TIMESTAMPTZ NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("ensure processed_pairs table: %w", err)
	}
	return nil
}

func (r *ResultArchive) Archive(ctx context.Context, msg entity.PairStatusMessage) error {
	query := `
		INSERT INTO processed_pairs (
			id, video_a, video_b, status, event_count,
			record_paths, error_message, processed_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`

	_, err := r.pool.Exec(ctx, query,
		msg.PairID, msg.VideoA, msg.VideoB, string(msg.Status),
		msg.EventCount, msg.RecordPaths, msg.ErrorMessage, msg.ProcessedAt,
	)
	if err != nil {
		return fmt.Errorf("insert processed pair: %w", err)
	}
	return nil
}
