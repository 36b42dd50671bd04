package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tanjoen/forenaide/constants"
	"github.com/tanjoen/forenaide/internal/common"
	"github.com/tanjoen/forenaide/internal/entity"
)

// RunRepository persists pipeline_runs rows. The orchestrator writes the
// status exactly twice per run: entering processing and reaching a terminal
// state.
type RunRepository interface {
	Create(ctx context.Context, run *entity.Run) error
	Get(ctx context.Context, id uuid.UUID) (*entity.Run, error)
	List(ctx context.Context) ([]*entity.Run, error)
	MarkProcessing(ctx context.Context, id uuid.UUID) error
	MarkTerminal(ctx context.Context, id uuid.UUID, status constants.RunStatus, errMsg string) error
}

type runRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewRunRepository(pool *pgxpool.Pool, logger *slog.Logger) RunRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &runRepository{pool: pool, logger: logger}
}

func (r *runRepository) Create(ctx context.Context, run *entity.Run) error {
	schemaJSON, err := json.Marshal(run.Schema)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	filesJSON, err := json.Marshal(run.Files)
	if err != nil {
		return fmt.Errorf("marshal files: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO pipeline_runs (id, name, description, strategy, schema, files, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())`,
		run.ID, run.Name, run.Description, string(run.Strategy), schemaJSON, filesJSON, string(run.Status),
	)
	if err != nil {
		r.logger.Error("repository.runs.create_failed", "run_id", run.ID, "error", err)
		return common.WrapError(err, "insert pipeline run")
	}
	return nil
}

func (r *runRepository) Get(ctx context.Context, id uuid.UUID) (*entity.Run, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, description, strategy, schema, files, status, error, started_at, completed_at, created_at
		FROM pipeline_runs WHERE id = $1`, id)
	return scanRun(row)
}

func (r *runRepository) List(ctx context.Context) ([]*entity.Run, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, description, strategy, schema, files, status, error, started_at, completed_at, created_at
		FROM pipeline_runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, common.WrapError(err, "query pipeline runs")
	}
	defer rows.Close()

	var runs []*entity.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (r *runRepository) MarkProcessing(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE pipeline_runs SET status = $2, started_at = now()
		WHERE id = $1`, id, string(constants.RunStatusProcessing))
	if err != nil {
		return common.WrapError(err, "mark run processing")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("run %s: %w", id, common.ErrNotFound)
	}
	return nil
}

func (r *runRepository) MarkTerminal(ctx context.Context, id uuid.UUID, status constants.RunStatus, errMsg string) error {
	if !status.Terminal() {
		return common.NewAppError("RUN_STATUS", fmt.Sprintf("%q is not a terminal status", status), common.ErrInvalidInput)
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE pipeline_runs SET status = $2, error = $3, completed_at = now()
		WHERE id = $1`, id, string(status), errMsg)
	if err != nil {
		return common.WrapError(err, "mark run terminal")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("run %s: %w", id, common.ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*entity.Run, error) {
	var (
		run         entity.Run
		strategy    string
		status      string
		schemaJSON  []byte
		filesJSON   []byte
		errMsg      *string
		startedAt   *time.Time
		completedAt *time.Time
	)
	err := row.Scan(&run.ID, &run.Name, &run.Description, &strategy, &schemaJSON, &filesJSON,
		&status, &errMsg, &startedAt, &completedAt, &run.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, common.WrapError(err, "scan pipeline run")
	}

	run.Strategy = constants.StrategyID(strategy)
	run.Status = constants.RunStatus(status)
	run.StartedAt = startedAt
	run.CompletedAt = completedAt
	if errMsg != nil {
		run.Error = *errMsg
	}
	if err := json.Unmarshal(schemaJSON, &run.Schema); err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}
	if len(filesJSON) > 0 {
		if err := json.Unmarshal(filesJSON, &run.Files); err != nil {
			return nil, fmt.Errorf("unmarshal files: %w", err)
		}
	}
	return &run, nil
}
