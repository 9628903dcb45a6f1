package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/courtsidehq/courtside/brackets"
	"github.com/courtsidehq/courtside/metrics"
	"github.com/courtsidehq/courtside/models"
	"github.com/courtsidehq/courtside/repositories"
)

const (
	witnessPoolSize      = 5
	witnessRequestExpiry = 15 * time.Minute
	baseWitnessReward    = 0.3
)

type WitnessDecision string

const (
	WitnessDecisionAccept WitnessDecision = "ACCEPT"
	WitnessDecisionReject WitnessDecision = "REJECT"
)

type SubmitResultInput struct {
	Score    string `json:"score"`
	WinnerID int    `json:"winner_id"`
}

// MatchService ведёт матч через подачу результата, подбор свидетелей
// и подтверждение. Каждая мутация - одна транзакция.
type MatchService interface {
	Get(ctx context.Context, matchID int) (*models.Match, error)
	SubmitResult(ctx context.Context, matchID, actorID int, input SubmitResultInput) (*models.Match, error)
	RequestWitnesses(ctx context.Context, matchID, actorID int) ([]models.WitnessRequest, error)
	RespondToWitnessRequest(ctx context.Context, requestID, actorID int, decision WitnessDecision) (*models.WitnessRequest, error)
	ConfirmMatchResult(ctx context.Context, matchID, actorID int) (*models.Match, error)
	ListPendingWitnessRequests(ctx context.Context, userID int) ([]*models.WitnessRequest, error)
}

type matchService struct {
	txManager         repositories.TxManager
	matchRepo         repositories.MatchRepository
	participantRepo   repositories.ParticipantRepository
	witnessRepo       repositories.WitnessRequestRepository
	staminaService    StaminaService
	configService     SystemConfigService
	completionService CompletionService
	generator         *brackets.GroupStageGenerator
	hub               *brackets.Hub
	logger            *slog.Logger
}

func NewMatchService(
	txManager repositories.TxManager,
	matchRepo repositories.MatchRepository,
	participantRepo repositories.ParticipantRepository,
	witnessRepo repositories.WitnessRequestRepository,
	staminaService StaminaService,
	configService SystemConfigService,
	completionService CompletionService,
	generator *brackets.GroupStageGenerator,
	hub *brackets.Hub,
	logger *slog.Logger,
) MatchService {
	return &matchService{
		txManager:         txManager,
		matchRepo:         matchRepo,
		participantRepo:   participantRepo,
		witnessRepo:       witnessRepo,
		staminaService:    staminaService,
		configService:     configService,
		completionService: completionService,
		generator:         generator,
		hub:               hub,
		logger:            logger,
	}
}

func (s *matchService) Get(ctx context.Context, matchID int) (*models.Match, error) {
	return s.matchRepo.GetByID(ctx, nil, matchID)
}

// SubmitResult записывает счёт и победителя. Подавать результат может
// назначенный судья или один из игроков. Ветвление по флагу
// require_match_verification: либо матч ждёт свидетеля, либо
// завершается сразу с проверкой завершённости турнира.
func (s *matchService) SubmitResult(ctx context.Context, matchID, actorID int, input SubmitResultInput) (*models.Match, error) {
	if strings.TrimSpace(input.Score) == "" {
		return nil, ErrInvalidScore
	}

	var (
		match        *models.Match
		completedNow bool
	)

	err := s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		match, err = s.matchRepo.GetByID(ctx, exec, matchID)
		if err != nil {
			return err
		}
		if match.Status == models.MatchCompleted {
			return ErrMatchAlreadyCompleted
		}

		isReferee := match.RefereeID != nil && *match.RefereeID == actorID
		if !isReferee && !match.HasPlayer(actorID) {
			return ErrNotMatchParticipant
		}
		if !match.HasPlayer(input.WinnerID) {
			return ErrInvalidWinner
		}

		verificationRequired, err := s.configService.IsVerificationRequired(ctx)
		if err != nil {
			return err
		}

		status := models.MatchCompleted
		verification := models.VerificationConfirmed
		if verificationRequired {
			status = models.MatchWaitingForWitness
			verification = models.VerificationWaiting
		}

		if err := s.matchRepo.UpdateResult(ctx, exec, matchID, input.Score, input.WinnerID, status, verification); err != nil {
			return err
		}

		match.Score = &input.Score
		match.WinnerID = &input.WinnerID
		match.Status = status
		match.VerificationStatus = &verification

		if !verificationRequired {
			completedNow, err = s.completionService.CheckAndComplete(ctx, exec, match.TournamentID)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.broadcastMatchUpdate(match)
	if completedNow {
		metrics.IncTournamentCompleted()
		s.broadcastTournamentCompleted(match.TournamentID)
	}
	return match, nil
}

// RequestWitnesses выбирает до 5 случайных кандидатов из участников
// турнира, исключая обоих игроков и самого инициатора, и создаёт
// по одному приглашению с 15-минутным сроком. Срок носит справочный
// характер, просроченные приглашения сервер не отзывает.
func (s *matchService) RequestWitnesses(ctx context.Context, matchID, actorID int) ([]models.WitnessRequest, error) {
	var created []models.WitnessRequest

	err := s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		match, err := s.matchRepo.GetByID(ctx, exec, matchID)
		if err != nil {
			return err
		}
		if match.Status != models.MatchWaitingForWitness {
			return ErrMatchNotAwaitingProof
		}

		participants, err := s.participantRepo.ListByTournament(ctx, exec, match.TournamentID)
		if err != nil {
			return err
		}

		candidates := make([]int, 0, len(participants))
		for _, p := range participants {
			if match.HasPlayer(p.UserID) || p.UserID == actorID {
				continue
			}
			candidates = append(candidates, p.UserID)
		}

		expiresAt := time.Now().Add(witnessRequestExpiry)
		for _, userID := range s.generator.Sample(candidates, witnessPoolSize) {
			request := models.WitnessRequest{
				MatchID:   matchID,
				UserID:    userID,
				Status:    models.WitnessRequestPending,
				ExpiresAt: expiresAt,
			}
			if err := s.witnessRepo.Create(ctx, exec, &request); err != nil {
				return err
			}
			created = append(created, request)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("witness requests created",
		slog.Int("match_id", matchID), slog.Int("count", len(created)))
	return created, nil
}

// RespondToWitnessRequest фиксирует решение приглашённого. Принятие -
// гонка между приглашениями одного матча: слот свидетеля занимает
// только первый успешный compare-and-set, опоздавшее принятие
// отклоняется.
func (s *matchService) RespondToWitnessRequest(ctx context.Context, requestID, actorID int, decision WitnessDecision) (*models.WitnessRequest, error) {
	if decision != WitnessDecisionAccept && decision != WitnessDecisionReject {
		return nil, ErrInvalidWitnessAction
	}

	var (
		request   *models.WitnessRequest
		slotTaken bool
	)

	err := s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		request, err = s.witnessRepo.GetByID(ctx, exec, requestID)
		if err != nil {
			return err
		}
		if request.UserID != actorID {
			return ErrNotRequestOwner
		}
		if request.Status != models.WitnessRequestPending {
			return ErrAlreadyResponded
		}

		if decision == WitnessDecisionReject {
			request.Status = models.WitnessRequestRejected
			return s.witnessRepo.UpdateStatus(ctx, exec, requestID, models.WitnessRequestRejected)
		}

		assigned, err := s.matchRepo.AssignWitness(ctx, exec, request.MatchID, actorID)
		if err != nil {
			return err
		}
		if !assigned {
			// Отказ должен закоммититься, ошибка конфликта уходит
			// вызывающему уже после транзакции.
			slotTaken = true
			request.Status = models.WitnessRequestRejected
			return s.witnessRepo.UpdateStatus(ctx, exec, requestID, models.WitnessRequestRejected)
		}

		request.Status = models.WitnessRequestAccepted
		return s.witnessRepo.UpdateStatus(ctx, exec, requestID, models.WitnessRequestAccepted)
	})
	if err != nil {
		return nil, err
	}
	if slotTaken {
		return nil, ErrWitnessSlotTaken
	}
	return request, nil
}

// ConfirmMatchResult - назначенный свидетель подтверждает результат.
// Судья (если назначен) и свидетель получают награду из общего пула,
// каждая с индивидуальным потолком. Затем матч закрывается и
// проверяется завершённость турнира.
func (s *matchService) ConfirmMatchResult(ctx context.Context, matchID, actorID int) (*models.Match, error) {
	var (
		match        *models.Match
		completedNow bool
	)

	err := s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		match, err = s.matchRepo.GetByID(ctx, exec, matchID)
		if err != nil {
			return err
		}
		if match.WitnessID == nil || *match.WitnessID != actorID {
			return ErrNotAssignedWitness
		}
		if match.Status != models.MatchWaitingForWitness {
			return ErrMatchNotAwaitingProof
		}

		participants, err := s.participantRepo.ListByTournament(ctx, exec, match.TournamentID)
		if err != nil {
			return err
		}
		matches, err := s.matchRepo.ListByTournament(ctx, exec, match.TournamentID)
		if err != nil {
			return err
		}

		reward, poolBonus := witnessReward(len(participants), len(matches))
		reason := fmt.Sprintf("Match #%d verification reward (base %.1f + pool %.2f)",
			matchID, baseWitnessReward, poolBonus)

		if match.RefereeID != nil {
			if err := s.staminaService.CreditWithCap(ctx, exec, *match.RefereeID, reward, reason); err != nil {
				return err
			}
		}
		if err := s.staminaService.CreditWithCap(ctx, exec, actorID, reward, reason); err != nil {
			return err
		}

		if err := s.matchRepo.MarkConfirmed(ctx, exec, matchID); err != nil {
			return err
		}
		match.Status = models.MatchCompleted
		confirmed := models.VerificationConfirmed
		match.VerificationStatus = &confirmed

		completedNow, err = s.completionService.CheckAndComplete(ctx, exec, match.TournamentID)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.IncMatchConfirmed()
	s.broadcastMatchUpdate(match)
	if completedNow {
		metrics.IncTournamentCompleted()
		s.broadcastTournamentCompleted(match.TournamentID)
	}
	return match, nil
}

func (s *matchService) ListPendingWitnessRequests(ctx context.Context, userID int) ([]*models.WitnessRequest, error) {
	return s.witnessRepo.ListPendingByUser(ctx, userID)
}

// witnessReward: пул равен сумме взносов участников, слоты - по два
// на матч (судья и свидетель). Базовая ставка плюс доля пула.
func witnessReward(participantCount, matchCount int) (reward, poolBonus float64) {
	pool := float64(participantCount) * models.TournamentFee
	totalSlots := matchCount * 2
	if totalSlots > 0 {
		poolBonus = pool / float64(totalSlots)
	}
	return baseWitnessReward + poolBonus, poolBonus
}

func (s *matchService) broadcastMatchUpdate(match *models.Match) {
	if s.hub == nil || match == nil {
		return
	}
	room := strconv.Itoa(match.TournamentID)
	s.hub.BroadcastToRoom(room, brackets.WebSocketMessage{
		Type:    brackets.MessageMatchUpdated,
		Payload: match,
		RoomID:  room,
	})
}

func (s *matchService) broadcastTournamentCompleted(tournamentID int) {
	if s.hub == nil {
		return
	}
	room := strconv.Itoa(tournamentID)
	s.hub.BroadcastToRoom(room, brackets.WebSocketMessage{
		Type:    brackets.MessageTournamentCompleted,
		Payload: map[string]int{"tournament_id": tournamentID},
		RoomID:  room,
	})
}
