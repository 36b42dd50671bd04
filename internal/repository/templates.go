package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tanjoen/forenaide/internal/common"
	"github.com/tanjoen/forenaide/internal/entity"
)

// TemplateRepository persists reusable extraction schemas.
type TemplateRepository interface {
	Create(ctx context.Context, t *entity.Template) error
	Get(ctx context.Context, id uuid.UUID) (*entity.Template, error)
	List(ctx context.Context) ([]*entity.Template, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type templateRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewTemplateRepository(pool *pgxpool.Pool, logger *slog.Logger) TemplateRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &templateRepository{pool: pool, logger: logger}
}

func (r *templateRepository) Create(ctx context.Context, t *entity.Template) error {
	schemaJSON, err := json.Marshal(t.Schema)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO templates (id, name, description, schema, created_at)
		VALUES ($1, $2, $3, $4, now())`,
		t.ID, t.Name, t.Description, schemaJSON,
	)
	if err != nil {
		r.logger.Error("repository.templates.create_failed", "template_id", t.ID, "error", err)
		return common.WrapError(err, "insert template")
	}
	return nil
}

func (r *templateRepository) Get(ctx context.Context, id uuid.UUID) (*entity.Template, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, description, schema, created_at FROM templates WHERE id = $1`, id)
	return scanTemplate(row)
}

func (r *templateRepository) List(ctx context.Context) ([]*entity.Template, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, description, schema, created_at FROM templates ORDER BY created_at DESC`)
	if err != nil {
		return nil, common.WrapError(err, "query templates")
	}
	defer rows.Close()

	var templates []*entity.Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

func (r *templateRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM templates WHERE id = $1`, id)
	if err != nil {
		return common.WrapError(err, "delete template")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("template %s: %w", id, common.ErrNotFound)
	}
	return nil
}

func scanTemplate(row rowScanner) (*entity.Template, error) {
	var (
		t          entity.Template
		schemaJSON []byte
	)
	err := row.Scan(&t.ID, &t.Name, &t.Description, &schemaJSON, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, common.WrapError(err, "scan template")
	}
	if err := json.Unmarshal(schemaJSON, &t.Schema); err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}
	return &t, nil
}
