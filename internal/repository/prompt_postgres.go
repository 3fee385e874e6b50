package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/promptweaver/prompt-backend/internal/entity"
)

// PromptFilter narrows a prompt listing. Zero values mean "no filter";
// Limit <= 0 disables pagination.
type PromptFilter struct {
	Category      *entity.PromptCategory
	Search        string
	FavoritesOnly bool
	Skip          int
	Limit         int
}

// PromptRepository defines the interface for stored-prompt persistence
type PromptRepository interface {
	Create(ctx context.Context, prompt entity.StoredPrompt) (*entity.StoredPrompt, error)
	Get(ctx context.Context, id string) (*entity.StoredPrompt, error)
	List(ctx context.Context, filter PromptFilter) ([]*entity.StoredPrompt, error)
	Update(ctx context.Context, prompt entity.StoredPrompt) (*entity.StoredPrompt, error)
	Delete(ctx context.Context, id string) error
	IncrementUsage(ctx context.Context, id string) (*entity.StoredPrompt, error)
	ToggleFavorite(ctx context.Context, id string) (*entity.StoredPrompt, error)
}

var _ PromptRepository = &PromptPostgres{}

// PromptPostgres implements PromptRepository using PostgreSQL
type PromptPostgres struct {
	db *pgxpool.Pool
}

func NewPromptPostgres(db *pgxpool.Pool) *PromptPostgres {
	return &PromptPostgres{db: db}
}

const promptColumns = `id, name, description, category, tags, cli_text, web_text,
	usage_count, is_favorite, created_at, updated_at`

func scanPrompt(row pgx.Row) (*entity.StoredPrompt, error) {
	var p entity.StoredPrompt
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Category, &p.Tags,
		&p.CliText, &p.WebText, &p.UsageCount, &p.IsFavorite,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PromptPostgres) Create(ctx context.Context, prompt entity.StoredPrompt) (*entity.StoredPrompt, error) {
	if _, err := uuid.Parse(prompt.ID); err != nil {
		return nil, fmt.Errorf("parse prompt ID: %w", err)
	}
	if prompt.Tags == nil {
		prompt.Tags = []string{}
	}

	row := r.db.QueryRow(ctx, `
		INSERT INTO prompts (id, name, description, category, tags, cli_text, web_text, usage_count, is_favorite)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0, $8)
		RETURNING `+promptColumns,
		prompt.ID, prompt.Name, prompt.Description, prompt.Category,
		prompt.Tags, prompt.CliText, prompt.WebText, prompt.IsFavorite,
	)

	created, err := scanPrompt(row)
	if err != nil {
		return nil, fmt.Errorf("create prompt: %w", err)
	}
	return created, nil
}

func (r *PromptPostgres) Get(ctx context.Context, id string) (*entity.StoredPrompt, error) {
	row := r.db.QueryRow(ctx, `SELECT `+promptColumns+` FROM prompts WHERE id = $1`, id)

	prompt, err := scanPrompt(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrPromptNotFound
		}
		return nil, fmt.Errorf("get prompt: %w", err)
	}
	return prompt, nil
}

func (r *PromptPostgres) List(ctx context.Context, filter PromptFilter) ([]*entity.StoredPrompt, error) {
	var (
		conditions []string
		args       []any
	)

	if filter.Category != nil {
		args = append(args, *filter.Category)
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}
	if filter.FavoritesOnly {
		conditions = append(conditions, "is_favorite")
	}

	query := `SELECT ` + promptColumns + ` FROM prompts`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY updated_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
		args = append(args, filter.Skip)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list prompts: %w", err)
	}
	defer rows.Close()

	prompts := make([]*entity.StoredPrompt, 0)
	for rows.Next() {
		prompt, err := scanPrompt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan prompt: %w", err)
		}
		prompts = append(prompts, prompt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate prompts: %w", err)
	}

	return prompts, nil
}

func (r *PromptPostgres) Update(ctx context.Context, prompt entity.StoredPrompt) (*entity.StoredPrompt, error) {
	if prompt.Tags == nil {
		prompt.Tags = []string{}
	}

	row := r.db.QueryRow(ctx, `
		UPDATE prompts
		SET name = $2, description = $3, category = $4, tags = $5,
			cli_text = $6, web_text = $7, is_favorite = $8, updated_at = $9
		WHERE id = $1
		RETURNING `+promptColumns,
		prompt.ID, prompt.Name, prompt.Description, prompt.Category,
		prompt.Tags, prompt.CliText, prompt.WebText, prompt.IsFavorite,
		time.Now(),
	)

	updated, err := scanPrompt(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrPromptNotFound
		}
		return nil, fmt.Errorf("update prompt: %w", err)
	}
	return updated, nil
}

func (r *PromptPostgres) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM prompts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete prompt: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return entity.ErrPromptNotFound
	}
	return nil
}

func (r *PromptPostgres) IncrementUsage(ctx context.Context, id string) (*entity.StoredPrompt, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE prompts SET usage_count = usage_count + 1, updated_at = $2
		WHERE id = $1
		RETURNING `+promptColumns,
		id, time.Now(),
	)

	updated, err := scanPrompt(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrPromptNotFound
		}
		return nil, fmt.Errorf("increment usage: %w", err)
	}
	return updated, nil
}

func (r *PromptPostgres) ToggleFavorite(ctx context.Context, id string) (*entity.StoredPrompt, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE prompts SET is_favorite = NOT is_favorite, updated_at = $2
		WHERE id = $1
		RETURNING `+promptColumns,
		id, time.Now(),
	)

	updated, err := scanPrompt(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrPromptNotFound
		}
		return nil, fmt.Errorf("toggle favorite: %w", err)
	}
	return updated, nil
}
