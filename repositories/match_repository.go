package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/courtsidehq/courtside/models"
	"github.com/lib/pq"
)

var (
	ErrMatchNotFound       = errors.New("match not found")
	ErrMatchPlayerInvalid  = errors.New("match player conflict or invalid")
	ErrMatchWinnerInvalid  = errors.New("match winner conflict or invalid")
	ErrMatchWitnessTaken   = errors.New("match witness slot is already taken")
	ErrMatchTournamentGone = errors.New("match tournament conflict or invalid")
)

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Match, error)
	UpdateResult(ctx context.Context, exec SQLExecutor, id int, score string, winnerID int,
		status models.MatchStatus, verification models.VerificationStatus) error
	// AssignWitness занимает слот свидетеля по принципу compare-and-set:
	// запись происходит только если слот ещё пуст.
	AssignWitness(ctx context.Context, exec SQLExecutor, matchID, userID int) (bool, error)
	MarkConfirmed(ctx context.Context, exec SQLExecutor, id int) error
	DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error
	DeleteByUser(ctx context.Context, exec SQLExecutor, userID int) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const matchColumns = `
	id, tournament_id, player1_id, player2_id, referee_id, witness_id,
	round, status, verification_status, score, winner_id, created_at`

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO matches (tournament_id, player1_id, player2_id, round, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		match.TournamentID, match.Player1ID, match.Player2ID, match.Round, match.Status,
	).Scan(&match.ID, &match.CreatedAt)

	return r.handleMatchError(err)
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error) {
	executor := r.getExecutor(exec)
	query := `SELECT` + matchColumns + ` FROM matches WHERE id = $1`

	match := &models.Match{}
	err := executor.QueryRowContext(ctx, query, id).Scan(
		&match.ID, &match.TournamentID, &match.Player1ID, &match.Player2ID,
		&match.RefereeID, &match.WitnessID, &match.Round, &match.Status,
		&match.VerificationStatus, &match.Score, &match.WinnerID, &match.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match by id %d: %w", id, err)
	}
	return match, nil
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Match, error) {
	executor := r.getExecutor(exec)
	query := `SELECT` + matchColumns + ` FROM matches WHERE tournament_id = $1 ORDER BY round ASC, id ASC`

	rows, err := executor.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		match := &models.Match{}
		if scanErr := rows.Scan(
			&match.ID, &match.TournamentID, &match.Player1ID, &match.Player2ID,
			&match.RefereeID, &match.WitnessID, &match.Round, &match.Status,
			&match.VerificationStatus, &match.Score, &match.WinnerID, &match.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", scanErr)
		}
		matches = append(matches, match)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match rows iteration: %w", err)
	}
	return matches, nil
}

func (r *postgresMatchRepository) UpdateResult(ctx context.Context, exec SQLExecutor, id int, score string, winnerID int,
	status models.MatchStatus, verification models.VerificationStatus) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE matches
		SET score = $1, winner_id = $2, status = $3, verification_status = $4
		WHERE id = $5`

	result, err := executor.ExecContext(ctx, query, score, winnerID, status, verification, id)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) AssignWitness(ctx context.Context, exec SQLExecutor, matchID, userID int) (bool, error) {
	executor := r.getExecutor(exec)
	query := `UPDATE matches SET witness_id = $1 WHERE id = $2 AND witness_id IS NULL`
	result, err := executor.ExecContext(ctx, query, userID, matchID)
	if err != nil {
		return false, fmt.Errorf("failed to assign witness %d to match %d: %w", userID, matchID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return rowsAffected > 0, nil
}

func (r *postgresMatchRepository) MarkConfirmed(ctx context.Context, exec SQLExecutor, id int) error {
	executor := r.getExecutor(exec)
	query := `UPDATE matches SET status = $1, verification_status = $2 WHERE id = $3`
	result, err := executor.ExecContext(ctx, query, models.MatchCompleted, models.VerificationConfirmed, id)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error {
	executor := r.getExecutor(exec)
	if _, err := executor.ExecContext(ctx,
		`DELETE FROM matches WHERE tournament_id = $1`, tournamentID); err != nil {
		return fmt.Errorf("failed to delete matches of tournament %d: %w", tournamentID, err)
	}
	return nil
}

// DeleteByUser удаляет матчи, где пользователь фигурирует в любой роли.
// Используется каскадом удаления аккаунта.
func (r *postgresMatchRepository) DeleteByUser(ctx context.Context, exec SQLExecutor, userID int) error {
	executor := r.getExecutor(exec)
	query := `
		DELETE FROM matches
		WHERE player1_id = $1 OR player2_id = $1 OR referee_id = $1 OR witness_id = $1 OR winner_id = $1`
	if _, err := executor.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to delete matches of user %d: %w", userID, err)
	}
	return nil
}

func (r *postgresMatchRepository) handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
		switch pqErr.Constraint {
		case "matches_tournament_id_fkey":
			return ErrMatchTournamentGone
		case "matches_player1_id_fkey", "matches_player2_id_fkey":
			return ErrMatchPlayerInvalid
		case "matches_winner_id_fkey":
			return ErrMatchWinnerInvalid
		}
	}
	return err
}
