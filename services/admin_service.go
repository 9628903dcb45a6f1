package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/courtsidehq/courtside/models"
	"github.com/courtsidehq/courtside/repositories"
)

// AdminService - административные массовые операции: сброс
// выносливости, переранжирование сезона и добор пропущенных
// начислений очков.
type AdminService interface {
	ResetAllStamina(ctx context.Context) (int64, error)
	Rerank(ctx context.Context) (int64, error)
	BackfillTournamentPoints(ctx context.Context) (int, error)
}

type adminService struct {
	txManager         repositories.TxManager
	staminaRepo       repositories.StaminaRepository
	userRepo          repositories.UserRepository
	tournamentRepo    repositories.TournamentRepository
	configService     SystemConfigService
	completionService CompletionService
	logger            *slog.Logger
}

func NewAdminService(
	txManager repositories.TxManager,
	staminaRepo repositories.StaminaRepository,
	userRepo repositories.UserRepository,
	tournamentRepo repositories.TournamentRepository,
	configService SystemConfigService,
	completionService CompletionService,
	logger *slog.Logger,
) AdminService {
	return &adminService{
		txManager:         txManager,
		staminaRepo:       staminaRepo,
		userRepo:          userRepo,
		tournamentRepo:    tournamentRepo,
		configService:     configService,
		completionService: completionService,
		logger:            logger,
	}
}

// ResetAllStamina возвращает всем пользователям стартовый запас.
// Вместо подробных дельт в журнал пишется по одной синтетической
// записи эпохи на пользователя, чтобы след от сброса оставался.
func (s *adminService) ResetAllStamina(ctx context.Context) (int64, error) {
	var affected int64

	err := s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		affected, err = s.staminaRepo.SetAll(ctx, exec, models.InitialStamina)
		if err != nil {
			return err
		}
		reason := fmt.Sprintf("Stamina ledger epoch reset (balance set to %.1f)", models.InitialStamina)
		return s.staminaRepo.AppendLogForAll(ctx, exec, 0, reason)
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("stamina reset for all users", slog.Int64("affected", affected))
	return affected, nil
}

// Rerank обнуляет очки всем пользователям и ставит отметку границы
// сезона, от которой отталкивается последующий backfill. Обе записи
// идут в одной транзакции.
func (s *adminService) Rerank(ctx context.Context) (int64, error) {
	var affected int64
	stamp := time.Now().UTC().Format(time.RFC3339)

	err := s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		affected, err = s.userRepo.ResetAllPoints(ctx, exec)
		if err != nil {
			return err
		}
		return s.configService.Set(ctx, exec, models.ConfigLastRerankAt, stamp)
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("rerank performed", slog.Int64("affected", affected), slog.String("last_rerank_at", stamp))
	return affected, nil
}

// BackfillTournamentPoints проходит по турнирам, обновлявшимся после
// последнего переранжирования, но не переведённым в COMPLETED, и
// повторяет для каждого проверку завершённости. Возвращает число
// турниров, завершённых этим проходом.
func (s *adminService) BackfillTournamentPoints(ctx context.Context) (int, error) {
	since := time.Time{}
	raw, err := s.configService.Get(ctx, models.ConfigLastRerankAt, "")
	if err != nil {
		return 0, err
	}
	if raw != "" {
		parsed, parseErr := time.Parse(time.RFC3339, raw)
		if parseErr != nil {
			return 0, fmt.Errorf("invalid %s value %q: %w", models.ConfigLastRerankAt, raw, parseErr)
		}
		since = parsed
	}

	tournaments, err := s.tournamentRepo.ListUnrankedSince(ctx, since)
	if err != nil {
		return 0, err
	}

	completed := 0
	for _, t := range tournaments {
		tournamentID := t.ID
		err := s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
			done, err := s.completionService.CheckAndComplete(ctx, exec, tournamentID)
			if err != nil {
				return err
			}
			if done {
				completed++
			}
			return nil
		})
		if err != nil {
			return completed, fmt.Errorf("backfill failed on tournament %d: %w", tournamentID, err)
		}
	}

	s.logger.Info("backfill finished",
		slog.Int("scanned", len(tournaments)), slog.Int("completed", completed))
	return completed, nil
}
