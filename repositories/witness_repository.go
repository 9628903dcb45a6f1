package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/courtsidehq/courtside/models"
)

var ErrWitnessRequestNotFound = errors.New("witness request not found")

type WitnessRequestRepository interface {
	Create(ctx context.Context, exec SQLExecutor, request *models.WitnessRequest) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.WitnessRequest, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.WitnessRequestStatus) error
	ListPendingByUser(ctx context.Context, userID int) ([]*models.WitnessRequest, error)
	DeleteByUser(ctx context.Context, exec SQLExecutor, userID int) error
}

type postgresWitnessRequestRepository struct {
	db *sql.DB
}

func NewPostgresWitnessRequestRepository(db *sql.DB) WitnessRequestRepository {
	return &postgresWitnessRequestRepository{db: db}
}

func (r *postgresWitnessRequestRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresWitnessRequestRepository) Create(ctx context.Context, exec SQLExecutor, req *models.WitnessRequest) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO witness_requests (match_id, user_id, status, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query, req.MatchID, req.UserID, req.Status, req.ExpiresAt).
		Scan(&req.ID, &req.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create witness request for match %d: %w", req.MatchID, err)
	}
	return nil
}

func (r *postgresWitnessRequestRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.WitnessRequest, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, match_id, user_id, status, expires_at, created_at
		FROM witness_requests
		WHERE id = $1`

	req := &models.WitnessRequest{}
	err := executor.QueryRowContext(ctx, query, id).Scan(
		&req.ID, &req.MatchID, &req.UserID, &req.Status, &req.ExpiresAt, &req.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrWitnessRequestNotFound
		}
		return nil, fmt.Errorf("failed to scan witness request by id %d: %w", id, err)
	}
	return req, nil
}

func (r *postgresWitnessRequestRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.WitnessRequestStatus) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE witness_requests SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update witness request %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrWitnessRequestNotFound)
}

// ListPendingByUser возвращает ожидающие запросы вместе с матчами,
// к которым они относятся (для экрана входящих приглашений).
func (r *postgresWitnessRequestRepository) ListPendingByUser(ctx context.Context, userID int) ([]*models.WitnessRequest, error) {
	query := `
		SELECT
			w.id, w.match_id, w.user_id, w.status, w.expires_at, w.created_at,
			m.id, m.tournament_id, m.player1_id, m.player2_id, m.referee_id, m.witness_id,
			m.round, m.status, m.verification_status, m.score, m.winner_id, m.created_at
		FROM witness_requests w
		JOIN matches m ON m.id = w.match_id
		WHERE w.user_id = $1 AND w.status = $2
		ORDER BY w.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID, models.WitnessRequestPending)
	if err != nil {
		return nil, fmt.Errorf("failed to query witness requests for user %d: %w", userID, err)
	}
	defer rows.Close()

	requests := make([]*models.WitnessRequest, 0)
	for rows.Next() {
		req := &models.WitnessRequest{}
		match := &models.Match{}
		if scanErr := rows.Scan(
			&req.ID, &req.MatchID, &req.UserID, &req.Status, &req.ExpiresAt, &req.CreatedAt,
			&match.ID, &match.TournamentID, &match.Player1ID, &match.Player2ID,
			&match.RefereeID, &match.WitnessID, &match.Round, &match.Status,
			&match.VerificationStatus, &match.Score, &match.WinnerID, &match.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		req.Match = match
		requests = append(requests, req)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *postgresWitnessRequestRepository) DeleteByUser(ctx context.Context, exec SQLExecutor, userID int) error {
	executor := r.getExecutor(exec)
	if _, err := executor.ExecContext(ctx,
		`DELETE FROM witness_requests WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete witness requests of user %d: %w", userID, err)
	}
	return nil
}
