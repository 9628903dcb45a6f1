package services

import (
	"context"
	"log/slog"

	"github.com/courtsidehq/courtside/models"
	"github.com/courtsidehq/courtside/repositories"
)

// Очки за места. Начисляются один раз при переходе турнира в COMPLETED.
const (
	FinalWinnerPoints    = 10
	FinalRunnerUpPoints  = 7
	SemifinalLoserPoints = 5
)

// CompletionService проверяет завершённость турнира и начисляет
// рейтинговые очки. Вызывается спекулятивно после каждого
// завершённого матча, поэтому несоблюдение предусловий - не ошибка.
type CompletionService interface {
	// CheckAndComplete выполняется внутри транзакции вызывающего.
	// Возвращает true, только если переход в COMPLETED произошёл
	// именно сейчас и очки были начислены.
	CheckAndComplete(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) (bool, error)
}

type completionService struct {
	tournamentRepo repositories.TournamentRepository
	matchRepo      repositories.MatchRepository
	userRepo       repositories.UserRepository
	logger         *slog.Logger
}

func NewCompletionService(
	tournamentRepo repositories.TournamentRepository,
	matchRepo repositories.MatchRepository,
	userRepo repositories.UserRepository,
	logger *slog.Logger,
) CompletionService {
	return &completionService{
		tournamentRepo: tournamentRepo,
		matchRepo:      matchRepo,
		userRepo:       userRepo,
		logger:         logger,
	}
}

func (s *completionService) CheckAndComplete(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) (bool, error) {
	matches, err := s.matchRepo.ListByTournament(ctx, exec, tournamentID)
	if err != nil {
		return false, err
	}
	if len(matches) == 0 {
		return false, nil
	}
	for _, m := range matches {
		if m.Status != models.MatchCompleted {
			return false, nil
		}
	}

	// Переход статуса атомарен: очки начисляет только тот вызов,
	// который реально перевёл турнир в COMPLETED.
	transitioned, err := s.tournamentRepo.MarkCompleted(ctx, exec, tournamentID)
	if err != nil {
		return false, err
	}
	if !transitioned {
		return false, nil
	}

	if err := s.awardRankingPoints(ctx, exec, matches); err != nil {
		return false, err
	}

	s.logger.Info("tournament completed", slog.Int("tournament_id", tournamentID))
	return true, nil
}

// awardRankingPoints раздаёт очки по структуре сетки: финал - это матч
// с максимальным раундом, полуфиналы - раунд на единицу ниже.
// Отсутствие финала или победителя молча завершает начисление.
func (s *completionService) awardRankingPoints(ctx context.Context, exec repositories.SQLExecutor, matches []*models.Match) error {
	maxRound := 0
	for _, m := range matches {
		if m.Round > maxRound {
			maxRound = m.Round
		}
	}

	var final *models.Match
	for _, m := range matches {
		if m.Round == maxRound {
			final = m
			break
		}
	}
	if final == nil || final.WinnerID == nil {
		return nil
	}

	winnerID := *final.WinnerID
	if err := s.userRepo.AwardPoints(ctx, exec, winnerID, FinalWinnerPoints); err != nil {
		return err
	}

	runnerUpID := final.Player1ID
	if runnerUpID == winnerID {
		runnerUpID = final.Player2ID
	}
	if err := s.userRepo.AwardPoints(ctx, exec, runnerUpID, FinalRunnerUpPoints); err != nil {
		return err
	}

	for _, m := range matches {
		if m.Round != maxRound-1 || m.WinnerID == nil {
			continue
		}
		loserID := m.Player1ID
		if loserID == *m.WinnerID {
			loserID = m.Player2ID
		}
		if err := s.userRepo.AwardPoints(ctx, exec, loserID, SemifinalLoserPoints); err != nil {
			return err
		}
	}
	return nil
}
