package services

import (
	"context"
	"log/slog"
	"mime/multipart"

	"github.com/courtsidehq/courtside/models"
	"github.com/courtsidehq/courtside/repositories"
	"github.com/courtsidehq/courtside/storage"
)

const defaultStaminaLogLimit = 50

// UserProfile - карточка пользователя вместе с последними записями
// журнала выносливости.
type UserProfile struct {
	User        *models.User        `json:"user"`
	StaminaLogs []models.StaminaLog `json:"stamina_logs"`
}

type UserService interface {
	Profile(ctx context.Context, userID int) (*UserProfile, error)
	Leaderboard(ctx context.Context, limit int) ([]models.User, error)
	UploadAvatar(ctx context.Context, userID int, file multipart.File, header *multipart.FileHeader) (*models.User, error)
	DeleteAccount(ctx context.Context, userID int) error
}

type userService struct {
	txManager       repositories.TxManager
	userRepo        repositories.UserRepository
	staminaRepo     repositories.StaminaRepository
	participantRepo repositories.ParticipantRepository
	matchRepo       repositories.MatchRepository
	witnessRepo     repositories.WitnessRequestRepository
	uploader        storage.FileUploader
	logger          *slog.Logger
}

func NewUserService(
	txManager repositories.TxManager,
	userRepo repositories.UserRepository,
	staminaRepo repositories.StaminaRepository,
	participantRepo repositories.ParticipantRepository,
	matchRepo repositories.MatchRepository,
	witnessRepo repositories.WitnessRequestRepository,
	uploader storage.FileUploader,
	logger *slog.Logger,
) UserService {
	return &userService{
		txManager:       txManager,
		userRepo:        userRepo,
		staminaRepo:     staminaRepo,
		participantRepo: participantRepo,
		matchRepo:       matchRepo,
		witnessRepo:     witnessRepo,
		uploader:        uploader,
		logger:          logger,
	}
}

func (s *userService) Profile(ctx context.Context, userID int) (*UserProfile, error) {
	user, err := s.userRepo.GetByID(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	logs, err := s.staminaRepo.ListLogsByUser(ctx, userID, defaultStaminaLogLimit)
	if err != nil {
		return nil, err
	}
	s.populateAvatarURL(user)
	return &UserProfile{User: user, StaminaLogs: logs}, nil
}

func (s *userService) Leaderboard(ctx context.Context, limit int) ([]models.User, error) {
	users, err := s.userRepo.ListByPoints(ctx, limit)
	if err != nil {
		return nil, err
	}
	for i := range users {
		s.populateAvatarURL(&users[i])
	}
	return users, nil
}

func (s *userService) UploadAvatar(ctx context.Context, userID int, file multipart.File, header *multipart.FileHeader) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, nil, userID)
	if err != nil {
		return nil, err
	}

	key, err := s.uploader.Upload(ctx, "avatars", file, header)
	if err != nil {
		return nil, err
	}

	if user.AvatarKey != nil {
		if delErr := s.uploader.Delete(ctx, *user.AvatarKey); delErr != nil {
			s.logger.Warn("failed to delete previous avatar",
				slog.Int("user_id", userID), slog.Any("error", delErr))
		}
	}

	if err := s.userRepo.UpdateAvatarKey(ctx, userID, &key); err != nil {
		return nil, err
	}
	user.AvatarKey = &key
	s.populateAvatarURL(user)
	return user, nil
}

// DeleteAccount удаляет пользователя со всеми принадлежащими записями.
// Порядок соблюдает внешние ключи: приглашения свидетеля, матчи,
// регистрации, журнал, затем сам пользователь.
func (s *userService) DeleteAccount(ctx context.Context, userID int) error {
	err := s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if _, err := s.userRepo.GetByID(ctx, exec, userID); err != nil {
			return err
		}
		if err := s.witnessRepo.DeleteByUser(ctx, exec, userID); err != nil {
			return err
		}
		if err := s.matchRepo.DeleteByUser(ctx, exec, userID); err != nil {
			return err
		}
		if err := s.participantRepo.DeleteByUser(ctx, exec, userID); err != nil {
			return err
		}
		if err := s.staminaRepo.DeleteLogsByUser(ctx, exec, userID); err != nil {
			return err
		}
		return s.userRepo.Delete(ctx, exec, userID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("user account deleted", slog.Int("user_id", userID))
	return nil
}

func (s *userService) populateAvatarURL(u *models.User) {
	if u.AvatarKey == nil || s.uploader == nil {
		return
	}
	url := s.uploader.PublicURL(*u.AvatarKey)
	u.AvatarURL = &url
}
