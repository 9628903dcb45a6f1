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
	ErrParticipantNotFound = errors.New("participant registration not found")
	ErrParticipantConflict = errors.New("user is already registered for this tournament")
)

type ParticipantRepository interface {
	Create(ctx context.Context, exec SQLExecutor, participant *models.Participant) error
	FindByTournamentAndUser(ctx context.Context, exec SQLExecutor, tournamentID, userID int) (*models.Participant, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Participant, error)
	UpdateGroup(ctx context.Context, exec SQLExecutor, participantID int, groupName string) error
	Delete(ctx context.Context, exec SQLExecutor, tournamentID, userID int) error
	DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error
	DeleteByUser(ctx context.Context, exec SQLExecutor, userID int) error
}

type postgresParticipantRepository struct {
	db *sql.DB
}

func NewPostgresParticipantRepository(db *sql.DB) ParticipantRepository {
	return &postgresParticipantRepository{db: db}
}

func (r *postgresParticipantRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresParticipantRepository) Create(ctx context.Context, exec SQLExecutor, p *models.Participant) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO tournament_participants (tournament_id, user_id)
		VALUES ($1, $2)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query, p.TournamentID, p.UserID).
		Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			if pqErr.Constraint == "tournament_participants_tournament_id_user_id_key" {
				return ErrParticipantConflict
			}
		}
		return err
	}
	return nil
}

func (r *postgresParticipantRepository) FindByTournamentAndUser(ctx context.Context, exec SQLExecutor, tournamentID, userID int) (*models.Participant, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, tournament_id, user_id, group_name, created_at
		FROM tournament_participants
		WHERE tournament_id = $1 AND user_id = $2`

	p := &models.Participant{}
	err := executor.QueryRowContext(ctx, query, tournamentID, userID).Scan(
		&p.ID, &p.TournamentID, &p.UserID, &p.GroupName, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrParticipantNotFound
		}
		return nil, err
	}
	return p, nil
}

// ListByTournament возвращает участников вместе с данными пользователей.
func (r *postgresParticipantRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Participant, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT
			p.id, p.tournament_id, p.user_id, p.group_name, p.created_at,
			u.id, u.name, u.email, u.role, u.stamina, u.total_points, u.avatar_key, u.created_at
		FROM tournament_participants p
		JOIN users u ON u.id = p.user_id
		WHERE p.tournament_id = $1
		ORDER BY p.group_name NULLS LAST, p.created_at ASC`

	rows, err := executor.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query participants for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	participants := make([]*models.Participant, 0)
	for rows.Next() {
		p := &models.Participant{}
		u := &models.User{}
		if scanErr := rows.Scan(
			&p.ID, &p.TournamentID, &p.UserID, &p.GroupName, &p.CreatedAt,
			&u.ID, &u.Name, &u.Email, &u.Role, &u.Stamina, &u.TotalPoints, &u.AvatarKey, &u.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		p.User = u
		participants = append(participants, p)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return participants, nil
}

func (r *postgresParticipantRepository) UpdateGroup(ctx context.Context, exec SQLExecutor, participantID int, groupName string) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE tournament_participants SET group_name = $1 WHERE id = $2`, groupName, participantID)
	if err != nil {
		return fmt.Errorf("failed to update group for participant %d: %w", participantID, err)
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}

func (r *postgresParticipantRepository) Delete(ctx context.Context, exec SQLExecutor, tournamentID, userID int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`DELETE FROM tournament_participants WHERE tournament_id = $1 AND user_id = $2`, tournamentID, userID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}

func (r *postgresParticipantRepository) DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error {
	executor := r.getExecutor(exec)
	if _, err := executor.ExecContext(ctx,
		`DELETE FROM tournament_participants WHERE tournament_id = $1`, tournamentID); err != nil {
		return fmt.Errorf("failed to delete participants of tournament %d: %w", tournamentID, err)
	}
	return nil
}

func (r *postgresParticipantRepository) DeleteByUser(ctx context.Context, exec SQLExecutor, userID int) error {
	executor := r.getExecutor(exec)
	if _, err := executor.ExecContext(ctx,
		`DELETE FROM tournament_participants WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete participations of user %d: %w", userID, err)
	}
	return nil
}
