package repository

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tanjoen/forenaide/internal/common"
	"github.com/tanjoen/forenaide/internal/entity"
)

// OutputRepository records the artifact paths written for each run.
type OutputRepository interface {
	Append(ctx context.Context, rec *entity.OutputRecord) error
	ListByRun(ctx context.Context, runID uuid.UUID) ([]*entity.OutputRecord, error)
}

type outputRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewOutputRepository(pool *pgxpool.Pool, logger *slog.Logger) OutputRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &outputRepository{pool: pool, logger: logger}
}

func (r *outputRepository) Append(ctx context.Context, rec *entity.OutputRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO run_outputs (id, run_id, path, content_type, created_at)
		VALUES ($1, $2, $3, $4, now())`,
		rec.ID, rec.RunID, rec.Path, rec.ContentType,
	)
	if err != nil {
		r.logger.Error("repository.outputs.append_failed", "run_id", rec.RunID, "path", rec.Path, "error", err)
		return common.WrapError(err, "insert run output")
	}
	return nil
}

func (r *outputRepository) ListByRun(ctx context.Context, runID uuid.UUID) ([]*entity.OutputRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, run_id, path, content_type, created_at
		FROM run_outputs WHERE run_id = $1 ORDER BY created_at`, runID)
	if err != nil {
		return nil, common.WrapError(err, "query run outputs")
	}
	defer rows.Close()

	var recs []*entity.OutputRecord
	for rows.Next() {
		var rec entity.OutputRecord
		if err := rows.Scan(&rec.ID, &rec.RunID, &rec.Path, &rec.ContentType, &rec.CreatedAt); err != nil {
			return nil, common.WrapError(err, "scan run output")
		}
		recs = append(recs, &rec)
	}
	return recs, rows.Err()
}
