package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/courtsidehq/courtside/models"
)

var ErrConfigNotFound = errors.New("config key not found")

type SystemConfigRepository interface {
	Get(ctx context.Context, key string) (*models.SystemConfig, error)
	Upsert(ctx context.Context, exec SQLExecutor, key, value string) error
}

type postgresSystemConfigRepository struct {
	db *sql.DB
}

func NewPostgresSystemConfigRepository(db *sql.DB) SystemConfigRepository {
	return &postgresSystemConfigRepository{db: db}
}

func (r *postgresSystemConfigRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresSystemConfigRepository) Get(ctx context.Context, key string) (*models.SystemConfig, error) {
	query := `SELECT key, value, updated_at FROM system_config WHERE key = $1`

	cfg := &models.SystemConfig{}
	err := r.db.QueryRowContext(ctx, query, key).Scan(&cfg.Key, &cfg.Value, &cfg.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrConfigNotFound
		}
		return nil, fmt.Errorf("failed to read config key %q: %w", key, err)
	}
	return cfg, nil
}

func (r *postgresSystemConfigRepository) Upsert(ctx context.Context, exec SQLExecutor, key, value string) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO system_config (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`

	if _, err := executor.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to upsert config key %q: %w", key, err)
	}
	return nil
}
