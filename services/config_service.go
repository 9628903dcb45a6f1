package services

import (
	"context"
	"errors"
	"strconv"

	"github.com/courtsidehq/courtside/models"
	"github.com/courtsidehq/courtside/repositories"
)

// SystemConfigService - feature-флаги и служебные отметки.
// Отсутствующий ключ равен значению по умолчанию.
type SystemConfigService interface {
	Get(ctx context.Context, key, defaultValue string) (string, error)
	Set(ctx context.Context, exec repositories.SQLExecutor, key, value string) error
	IsStaminaRequired(ctx context.Context) (bool, error)
	IsVerificationRequired(ctx context.Context) (bool, error)
	ToggleStaminaRequired(ctx context.Context) (bool, error)
	ToggleVerificationRequired(ctx context.Context) (bool, error)
}

type systemConfigService struct {
	configRepo repositories.SystemConfigRepository
}

func NewSystemConfigService(configRepo repositories.SystemConfigRepository) SystemConfigService {
	return &systemConfigService{configRepo: configRepo}
}

func (s *systemConfigService) Get(ctx context.Context, key, defaultValue string) (string, error) {
	cfg, err := s.configRepo.Get(ctx, key)
	if err != nil {
		if errors.Is(err, repositories.ErrConfigNotFound) {
			return defaultValue, nil
		}
		return "", err
	}
	return cfg.Value, nil
}

func (s *systemConfigService) Set(ctx context.Context, exec repositories.SQLExecutor, key, value string) error {
	return s.configRepo.Upsert(ctx, exec, key, value)
}

// Оба флага по умолчанию включены: новая установка требует выносливость
// для записи и подтверждение свидетелем для результата.
func (s *systemConfigService) IsStaminaRequired(ctx context.Context) (bool, error) {
	return s.getBool(ctx, models.ConfigRequireStaminaToJoin, true)
}

func (s *systemConfigService) IsVerificationRequired(ctx context.Context) (bool, error) {
	return s.getBool(ctx, models.ConfigRequireMatchVerification, true)
}

func (s *systemConfigService) ToggleStaminaRequired(ctx context.Context) (bool, error) {
	return s.toggleBool(ctx, models.ConfigRequireStaminaToJoin, true)
}

func (s *systemConfigService) ToggleVerificationRequired(ctx context.Context) (bool, error) {
	return s.toggleBool(ctx, models.ConfigRequireMatchVerification, true)
}

func (s *systemConfigService) getBool(ctx context.Context, key string, defaultValue bool) (bool, error) {
	raw, err := s.Get(ctx, key, strconv.FormatBool(defaultValue))
	if err != nil {
		return false, err
	}
	value, parseErr := strconv.ParseBool(raw)
	if parseErr != nil {
		// Повреждённое значение трактуем как умолчание, не как отказ.
		return defaultValue, nil
	}
	return value, nil
}

func (s *systemConfigService) toggleBool(ctx context.Context, key string, defaultValue bool) (bool, error) {
	current, err := s.getBool(ctx, key, defaultValue)
	if err != nil {
		return false, err
	}
	next := !current
	if err := s.configRepo.Upsert(ctx, nil, key, strconv.FormatBool(next)); err != nil {
		return false, err
	}
	return next, nil
}
