package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/courtsidehq/courtside/models"
)

// StaminaRepository работает с балансом выносливости и журналом аудита.
// Сами бизнес-правила (проверка достаточности, потолок) живут в сервисе.
type StaminaRepository interface {
	GetBalance(ctx context.Context, exec SQLExecutor, userID int) (float64, error)
	Adjust(ctx context.Context, exec SQLExecutor, userID int, delta float64) error
	AppendLog(ctx context.Context, exec SQLExecutor, log *models.StaminaLog) error
	SetAll(ctx context.Context, exec SQLExecutor, value float64) (int64, error)
	AppendLogForAll(ctx context.Context, exec SQLExecutor, amount float64, reason string) error
	ListLogsByUser(ctx context.Context, userID int, limit int) ([]models.StaminaLog, error)
	DeleteLogsByUser(ctx context.Context, exec SQLExecutor, userID int) error
}

type postgresStaminaRepository struct {
	db *sql.DB
}

func NewPostgresStaminaRepository(db *sql.DB) StaminaRepository {
	return &postgresStaminaRepository{db: db}
}

func (r *postgresStaminaRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresStaminaRepository) GetBalance(ctx context.Context, exec SQLExecutor, userID int) (float64, error) {
	executor := r.getExecutor(exec)
	var stamina float64
	err := executor.QueryRowContext(ctx, `SELECT stamina FROM users WHERE id = $1`, userID).Scan(&stamina)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("failed to read stamina for user %d: %w", userID, err)
	}
	return stamina, nil
}

func (r *postgresStaminaRepository) Adjust(ctx context.Context, exec SQLExecutor, userID int, delta float64) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE users SET stamina = stamina + $1 WHERE id = $2`, delta, userID)
	if err != nil {
		return fmt.Errorf("failed to adjust stamina for user %d: %w", userID, err)
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresStaminaRepository) AppendLog(ctx context.Context, exec SQLExecutor, log *models.StaminaLog) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO stamina_logs (user_id, amount, reason)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`
	err := executor.QueryRowContext(ctx, query, log.UserID, log.Amount, log.Reason).
		Scan(&log.ID, &log.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append stamina log for user %d: %w", log.UserID, err)
	}
	return nil
}

func (r *postgresStaminaRepository) SetAll(ctx context.Context, exec SQLExecutor, value float64) (int64, error) {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `UPDATE users SET stamina = $1`, value)
	if err != nil {
		return 0, fmt.Errorf("failed to reset stamina: %w", err)
	}
	return result.RowsAffected()
}

// AppendLogForAll пишет одну синтетическую запись журнала на каждого
// пользователя одним запросом (используется при административном сбросе).
func (r *postgresStaminaRepository) AppendLogForAll(ctx context.Context, exec SQLExecutor, amount float64, reason string) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO stamina_logs (user_id, amount, reason)
		SELECT id, $1, $2 FROM users`
	if _, err := executor.ExecContext(ctx, query, amount, reason); err != nil {
		return fmt.Errorf("failed to append reset logs: %w", err)
	}
	return nil
}

func (r *postgresStaminaRepository) ListLogsByUser(ctx context.Context, userID int, limit int) ([]models.StaminaLog, error) {
	query := `
		SELECT id, user_id, amount, reason, created_at
		FROM stamina_logs
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`
	args := []interface{}{userID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query stamina logs for user %d: %w", userID, err)
	}
	defer rows.Close()

	logs := make([]models.StaminaLog, 0)
	for rows.Next() {
		var entry models.StaminaLog
		if scanErr := rows.Scan(&entry.ID, &entry.UserID, &entry.Amount, &entry.Reason, &entry.CreatedAt); scanErr != nil {
			return nil, scanErr
		}
		logs = append(logs, entry)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *postgresStaminaRepository) DeleteLogsByUser(ctx context.Context, exec SQLExecutor, userID int) error {
	executor := r.getExecutor(exec)
	if _, err := executor.ExecContext(ctx, `DELETE FROM stamina_logs WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete stamina logs for user %d: %w", userID, err)
	}
	return nil
}
