package services

import (
	"context"
	"fmt"

	"github.com/courtsidehq/courtside/models"
	"github.com/courtsidehq/courtside/repositories"
)

// StaminaService инкапсулирует правила работы с выносливостью:
// списание с проверкой достаточности, начисление с потолком,
// каждая операция оставляет след в журнале.
type StaminaService interface {
	Deduct(ctx context.Context, exec repositories.SQLExecutor, userID int, amount float64, reason string) error
	CreditWithCap(ctx context.Context, exec repositories.SQLExecutor, userID int, amount float64, reason string) error
	Balance(ctx context.Context, userID int) (float64, error)
	Logs(ctx context.Context, userID int, limit int) ([]models.StaminaLog, error)
}

type staminaService struct {
	staminaRepo repositories.StaminaRepository
}

func NewStaminaService(staminaRepo repositories.StaminaRepository) StaminaService {
	return &staminaService{staminaRepo: staminaRepo}
}

// Deduct списывает amount, если баланса хватает. Запись в журнале
// отрицательная. Проверка и списание идут в одной транзакции вызывающего.
func (s *staminaService) Deduct(ctx context.Context, exec repositories.SQLExecutor, userID int, amount float64, reason string) error {
	if amount <= 0 {
		return fmt.Errorf("%w: deduct amount must be positive", ErrValidationFailed)
	}

	balance, err := s.staminaRepo.GetBalance(ctx, exec, userID)
	if err != nil {
		return err
	}
	if balance < amount {
		return ErrInsufficientStamina
	}

	if err := s.staminaRepo.Adjust(ctx, exec, userID, -amount); err != nil {
		return err
	}
	return s.staminaRepo.AppendLog(ctx, exec, &models.StaminaLog{
		UserID: userID,
		Amount: -amount,
		Reason: reason,
	})
}

// CreditWithCap начисляет amount, обрезая по потолку MaxStamina.
// В журнал попадает фактически применённая сумма. Если игрок уже
// у потолка, операция молча пропускается и записи не остаётся.
func (s *staminaService) CreditWithCap(ctx context.Context, exec repositories.SQLExecutor, userID int, amount float64, reason string) error {
	if amount <= 0 {
		return fmt.Errorf("%w: credit amount must be positive", ErrValidationFailed)
	}

	balance, err := s.staminaRepo.GetBalance(ctx, exec, userID)
	if err != nil {
		return err
	}

	applied := amount
	if balance+amount > models.MaxStamina {
		applied = models.MaxStamina - balance
	}
	if applied <= 0 {
		return nil
	}

	if err := s.staminaRepo.Adjust(ctx, exec, userID, applied); err != nil {
		return err
	}
	return s.staminaRepo.AppendLog(ctx, exec, &models.StaminaLog{
		UserID: userID,
		Amount: applied,
		Reason: reason,
	})
}

func (s *staminaService) Balance(ctx context.Context, userID int) (float64, error) {
	return s.staminaRepo.GetBalance(ctx, nil, userID)
}

func (s *staminaService) Logs(ctx context.Context, userID int, limit int) ([]models.StaminaLog, error) {
	return s.staminaRepo.ListLogsByUser(ctx, userID, limit)
}
