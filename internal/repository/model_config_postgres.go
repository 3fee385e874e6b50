package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/promptweaver/prompt-backend/internal/entity"
)

// ModelConfigRepository defines the interface for provider-config persistence
type ModelConfigRepository interface {
	Create(ctx context.Context, cfg entity.ModelConfig) (*entity.ModelConfig, error)
	Get(ctx context.Context, id string) (*entity.ModelConfig, error)
	List(ctx context.Context) ([]*entity.ModelConfig, error)
	Update(ctx context.Context, cfg entity.ModelConfig) (*entity.ModelConfig, error)
	Delete(ctx context.Context, id string) error
	GetDefault(ctx context.Context) (*entity.ModelConfig, error)
	SetDefault(ctx context.Context, id string) (*entity.ModelConfig, error)
}

var _ ModelConfigRepository = &ModelConfigPostgres{}

// ModelConfigPostgres implements ModelConfigRepository using PostgreSQL
type ModelConfigPostgres struct {
	db *pgxpool.Pool
}

func NewModelConfigPostgres(db *pgxpool.Pool) *ModelConfigPostgres {
	return &ModelConfigPostgres{db: db}
}

const modelConfigColumns = `id, provider, api_key_encrypted, model_id, base_url,
	temperature, max_tokens, is_default, created_at, updated_at`

func scanModelConfig(row pgx.Row) (*entity.ModelConfig, error) {
	var cfg entity.ModelConfig
	err := row.Scan(
		&cfg.ID, &cfg.Provider, &cfg.APIKeyEncrypted, &cfg.ModelID, &cfg.BaseURL,
		&cfg.Temperature, &cfg.MaxTokens, &cfg.IsDefault,
		&cfg.CreatedAt, &cfg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *ModelConfigPostgres) Create(ctx context.Context, cfg entity.ModelConfig) (*entity.ModelConfig, error) {
	if _, err := uuid.Parse(cfg.ID); err != nil {
		return nil, fmt.Errorf("parse config ID: %w", err)
	}

	// a new default displaces the old one atomically
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if cfg.IsDefault {
		if _, err := tx.Exec(ctx, `UPDATE model_configs SET is_default = FALSE WHERE is_default`); err != nil {
			return nil, fmt.Errorf("clear default: %w", err)
		}
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO model_configs (id, provider, api_key_encrypted, model_id, base_url, temperature, max_tokens, is_default)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+modelConfigColumns,
		cfg.ID, cfg.Provider, cfg.APIKeyEncrypted, cfg.ModelID, cfg.BaseURL,
		cfg.Temperature, cfg.MaxTokens, cfg.IsDefault,
	)

	created, err := scanModelConfig(row)
	if err != nil {
		return nil, fmt.Errorf("create model config: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return created, nil
}

func (r *ModelConfigPostgres) Get(ctx context.Context, id string) (*entity.ModelConfig, error) {
	row := r.db.QueryRow(ctx, `SELECT `+modelConfigColumns+` FROM model_configs WHERE id = $1`, id)

	cfg, err := scanModelConfig(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrModelConfigNotFound
		}
		return nil, fmt.Errorf("get model config: %w", err)
	}
	return cfg, nil
}

func (r *ModelConfigPostgres) List(ctx context.Context) ([]*entity.ModelConfig, error) {
	rows, err := r.db.Query(ctx, `SELECT `+modelConfigColumns+` FROM model_configs ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list model configs: %w", err)
	}
	defer rows.Close()

	configs := make([]*entity.ModelConfig, 0)
	for rows.Next() {
		cfg, err := scanModelConfig(rows)
		if err != nil {
			return nil, fmt.Errorf("scan model config: %w", err)
		}
		configs = append(configs, cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate model configs: %w", err)
	}

	return configs, nil
}

func (r *ModelConfigPostgres) Update(ctx context.Context, cfg entity.ModelConfig) (*entity.ModelConfig, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if cfg.IsDefault {
		if _, err := tx.Exec(ctx, `UPDATE model_configs SET is_default = FALSE WHERE is_default AND id <> $1`, cfg.ID); err != nil {
			return nil, fmt.Errorf("clear default: %w", err)
		}
	}

	row := tx.QueryRow(ctx, `
		UPDATE model_configs
		SET provider = $2, api_key_encrypted = $3, model_id = $4, base_url = $5,
			temperature = $6, max_tokens = $7, is_default = $8, updated_at = $9
		WHERE id = $1
		RETURNING `+modelConfigColumns,
		cfg.ID, cfg.Provider, cfg.APIKeyEncrypted, cfg.ModelID, cfg.BaseURL,
		cfg.Temperature, cfg.MaxTokens, cfg.IsDefault, time.Now(),
	)

	updated, err := scanModelConfig(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrModelConfigNotFound
		}
		return nil, fmt.Errorf("update model config: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return updated, nil
}

func (r *ModelConfigPostgres) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM model_configs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete model config: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return entity.ErrModelConfigNotFound
	}
	return nil
}

func (r *ModelConfigPostgres) GetDefault(ctx context.Context) (*entity.ModelConfig, error) {
	row := r.db.QueryRow(ctx, `SELECT `+modelConfigColumns+` FROM model_configs WHERE is_default`)

	cfg, err := scanModelConfig(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrNoDefaultModel
		}
		return nil, fmt.Errorf("get default model config: %w", err)
	}
	return cfg, nil
}

func (r *ModelConfigPostgres) SetDefault(ctx context.Context, id string) (*entity.ModelConfig, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `UPDATE model_configs SET is_default = FALSE WHERE is_default AND id <> $1`, id); err != nil {
		return nil, fmt.Errorf("clear default: %w", err)
	}

	row := tx.QueryRow(ctx, `
		UPDATE model_configs SET is_default = TRUE, updated_at = $2
		WHERE id = $1
		RETURNING `+modelConfigColumns,
		id, time.Now(),
	)

	updated, err := scanModelConfig(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrModelConfigNotFound
		}
		return nil, fmt.Errorf("set default model config: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return updated, nil
}
