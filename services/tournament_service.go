package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"strconv"
	"strings"
	"time"

	"github.com/courtsidehq/courtside/brackets"
	"github.com/courtsidehq/courtside/models"
	"github.com/courtsidehq/courtside/repositories"
	"github.com/courtsidehq/courtside/storage"
	"golang.org/x/sync/errgroup"
)

type CreateTournamentInput struct {
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	StartDate   time.Time  `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	MinPlayers  int        `json:"min_players"`
	MaxPlayers  int        `json:"max_players"`
	Location    *string    `json:"location"`
	Lat         *float64   `json:"lat"`
	Lng         *float64   `json:"lng"`
}

// TournamentService управляет жизненным циклом турнира:
// создание, запись, жеребьёвка и старт, удаление.
type TournamentService interface {
	Create(ctx context.Context, creatorID int, input CreateTournamentInput) (*models.Tournament, error)
	Join(ctx context.Context, tournamentID, userID int) error
	Withdraw(ctx context.Context, tournamentID, userID int) error
	Start(ctx context.Context, tournamentID int) (*models.Tournament, error)
	Delete(ctx context.Context, tournamentID int) error
	List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error)
	Details(ctx context.Context, tournamentID int) (*models.Tournament, error)
	UploadLogo(ctx context.Context, tournamentID int, file multipart.File, header *multipart.FileHeader) (*models.Tournament, error)
}

type tournamentService struct {
	txManager       repositories.TxManager
	tournamentRepo  repositories.TournamentRepository
	participantRepo repositories.ParticipantRepository
	matchRepo       repositories.MatchRepository
	staminaService  StaminaService
	configService   SystemConfigService
	generator       *brackets.GroupStageGenerator
	hub             *brackets.Hub
	uploader        storage.FileUploader
	logger          *slog.Logger
}

func NewTournamentService(
	txManager repositories.TxManager,
	tournamentRepo repositories.TournamentRepository,
	participantRepo repositories.ParticipantRepository,
	matchRepo repositories.MatchRepository,
	staminaService StaminaService,
	configService SystemConfigService,
	generator *brackets.GroupStageGenerator,
	hub *brackets.Hub,
	uploader storage.FileUploader,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		txManager:       txManager,
		tournamentRepo:  tournamentRepo,
		participantRepo: participantRepo,
		matchRepo:       matchRepo,
		staminaService:  staminaService,
		configService:   configService,
		generator:       generator,
		hub:             hub,
		uploader:        uploader,
		logger:          logger,
	}
}

// Create создаёт турнир в статусе OPEN и сразу записывает создателя
// как первого участника, списывая с него взнос по общим правилам.
func (s *tournamentService) Create(ctx context.Context, creatorID int, input CreateTournamentInput) (*models.Tournament, error) {
	if err := validateTournamentInput(input); err != nil {
		return nil, err
	}

	tournament := &models.Tournament{
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		MinPlayers:  input.MinPlayers,
		MaxPlayers:  input.MaxPlayers,
		Location:    input.Location,
		Lat:         input.Lat,
		Lng:         input.Lng,
		Status:      models.TournamentOpen,
	}

	err := s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.tournamentRepo.Create(ctx, exec, tournament); err != nil {
			return err
		}
		return s.registerParticipant(ctx, exec, tournament, creatorID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("tournament created",
		slog.Int("tournament_id", tournament.ID),
		slog.Int("creator_id", creatorID))
	return tournament, nil
}

// Join записывает пользователя в открытый турнир. Взнос списывается
// только если включён флаг require_stamina_to_join.
func (s *tournamentService) Join(ctx context.Context, tournamentID, userID int) error {
	return s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		tournament, err := s.tournamentRepo.GetByID(ctx, exec, tournamentID)
		if err != nil {
			return err
		}
		return s.registerParticipant(ctx, exec, tournament, userID)
	})
}

func (s *tournamentService) registerParticipant(ctx context.Context, exec repositories.SQLExecutor, tournament *models.Tournament, userID int) error {
	if tournament.Status != models.TournamentOpen {
		return ErrTournamentNotOpen
	}

	participants, err := s.participantRepo.ListByTournament(ctx, exec, tournament.ID)
	if err != nil {
		return err
	}
	if tournament.MaxPlayers > 0 && len(participants) >= tournament.MaxPlayers {
		return ErrTournamentFull
	}

	staminaRequired, err := s.configService.IsStaminaRequired(ctx)
	if err != nil {
		return err
	}
	if staminaRequired {
		reason := fmt.Sprintf("Tournament #%d entry fee", tournament.ID)
		if err := s.staminaService.Deduct(ctx, exec, userID, models.TournamentFee, reason); err != nil {
			return err
		}
	}

	participant := &models.Participant{TournamentID: tournament.ID, UserID: userID}
	if err := s.participantRepo.Create(ctx, exec, participant); err != nil {
		if errors.Is(err, repositories.ErrParticipantConflict) {
			return ErrAlreadyRegistered
		}
		return err
	}
	return nil
}

// Withdraw снимает пользователя с открытого турнира и возвращает взнос.
// Возврат безусловный: факт списания при записи не проверяется.
func (s *tournamentService) Withdraw(ctx context.Context, tournamentID, userID int) error {
	return s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		tournament, err := s.tournamentRepo.GetByID(ctx, exec, tournamentID)
		if err != nil {
			return err
		}
		if tournament.Status != models.TournamentOpen {
			return ErrTournamentNotOpen
		}

		if err := s.participantRepo.Delete(ctx, exec, tournamentID, userID); err != nil {
			if errors.Is(err, repositories.ErrParticipantNotFound) {
				return ErrNotRegistered
			}
			return err
		}

		reason := fmt.Sprintf("Tournament #%d withdrawal refund", tournamentID)
		return s.staminaService.CreditWithCap(ctx, exec, userID, models.TournamentFee, reason)
	})
}

// Start проводит жеребьёвку и переводит турнир в IN_PROGRESS одной
// транзакцией: составы групп, расписание матчей и смена статуса либо
// фиксируются вместе, либо не фиксируются вовсе.
func (s *tournamentService) Start(ctx context.Context, tournamentID int) (*models.Tournament, error) {
	var tournament *models.Tournament

	err := s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		tournament, err = s.tournamentRepo.GetByID(ctx, exec, tournamentID)
		if err != nil {
			return err
		}
		if tournament.Status != models.TournamentOpen {
			return ErrTournamentNotOpen
		}

		participants, err := s.participantRepo.ListByTournament(ctx, exec, tournamentID)
		if err != nil {
			return err
		}
		if len(participants) < tournament.MinPlayers || len(participants) < 2 {
			return ErrTooFewPlayers
		}

		userIDs := make([]int, 0, len(participants))
		byUser := make(map[int]*models.Participant, len(participants))
		for _, p := range participants {
			userIDs = append(userIDs, p.UserID)
			byUser[p.UserID] = p
		}

		plan, err := s.generator.Generate(userIDs)
		if err != nil {
			return err
		}

		for name, members := range plan.Groups {
			for _, userID := range members {
				if err := s.participantRepo.UpdateGroup(ctx, exec, byUser[userID].ID, name); err != nil {
					return err
				}
			}
		}

		for _, gm := range plan.Matches {
			match := &models.Match{
				TournamentID: tournamentID,
				Player1ID:    gm.Player1ID,
				Player2ID:    gm.Player2ID,
				Round:        gm.Round,
				Status:       models.MatchPending,
			}
			if err := s.matchRepo.Create(ctx, exec, match); err != nil {
				return err
			}
		}

		if err := s.tournamentRepo.UpdateStatus(ctx, exec, tournamentID, models.TournamentInProgress); err != nil {
			return err
		}
		tournament.Status = models.TournamentInProgress
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("tournament started", slog.Int("tournament_id", tournamentID))
	s.hub.BroadcastToRoom(strconv.Itoa(tournamentID), brackets.WebSocketMessage{
		Type:    brackets.MessageTournamentStarted,
		Payload: tournament,
		RoomID:  strconv.Itoa(tournamentID),
	})
	return tournament, nil
}

// Delete удаляет турнир вместе с матчами и регистрациями.
func (s *tournamentService) Delete(ctx context.Context, tournamentID int) error {
	return s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if _, err := s.tournamentRepo.GetByID(ctx, exec, tournamentID); err != nil {
			return err
		}
		if err := s.matchRepo.DeleteByTournament(ctx, exec, tournamentID); err != nil {
			return err
		}
		if err := s.participantRepo.DeleteByTournament(ctx, exec, tournamentID); err != nil {
			return err
		}
		return s.tournamentRepo.Delete(ctx, exec, tournamentID)
	})
}

func (s *tournamentService) List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	tournaments, err := s.tournamentRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	for i := range tournaments {
		s.populateLogoURL(&tournaments[i])
	}
	return tournaments, nil
}

// Details собирает карточку турнира: участников и матчи грузим параллельно.
func (s *tournamentService) Details(ctx context.Context, tournamentID int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID)
	if err != nil {
		return nil, err
	}

	var (
		participants []*models.Participant
		matches      []*models.Match
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		participants, err = s.participantRepo.ListByTournament(gCtx, nil, tournamentID)
		return err
	})
	g.Go(func() error {
		var err error
		matches, err = s.matchRepo.ListByTournament(gCtx, nil, tournamentID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	tournament.Participants = make([]models.Participant, 0, len(participants))
	for _, p := range participants {
		if p.User != nil {
			s.populateAvatarURL(p.User)
		}
		tournament.Participants = append(tournament.Participants, *p)
	}
	tournament.Matches = make([]models.Match, 0, len(matches))
	for _, m := range matches {
		tournament.Matches = append(tournament.Matches, *m)
	}
	s.populateLogoURL(tournament)
	return tournament, nil
}

func (s *tournamentService) UploadLogo(ctx context.Context, tournamentID int, file multipart.File, header *multipart.FileHeader) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID)
	if err != nil {
		return nil, err
	}

	key, err := s.uploader.Upload(ctx, "tournaments", file, header)
	if err != nil {
		return nil, err
	}

	if tournament.LogoKey != nil {
		if delErr := s.uploader.Delete(ctx, *tournament.LogoKey); delErr != nil {
			s.logger.Warn("failed to delete previous tournament logo",
				slog.Int("tournament_id", tournamentID), slog.Any("error", delErr))
		}
	}

	if err := s.tournamentRepo.UpdateLogoKey(ctx, tournamentID, &key); err != nil {
		return nil, err
	}
	tournament.LogoKey = &key
	s.populateLogoURL(tournament)
	return tournament, nil
}

func (s *tournamentService) populateLogoURL(t *models.Tournament) {
	if t.LogoKey == nil || s.uploader == nil {
		return
	}
	url := s.uploader.PublicURL(*t.LogoKey)
	t.LogoURL = &url
}

func (s *tournamentService) populateAvatarURL(u *models.User) {
	if u.AvatarKey == nil || s.uploader == nil {
		return
	}
	url := s.uploader.PublicURL(*u.AvatarKey)
	u.AvatarURL = &url
}

func validateTournamentInput(input CreateTournamentInput) error {
	if strings.TrimSpace(input.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidationFailed)
	}
	if input.MinPlayers < 2 {
		return fmt.Errorf("%w: min_players must be at least 2", ErrValidationFailed)
	}
	if input.MaxPlayers > 0 && input.MaxPlayers < input.MinPlayers {
		return fmt.Errorf("%w: max_players must not be less than min_players", ErrValidationFailed)
	}
	if input.StartDate.IsZero() {
		return fmt.Errorf("%w: start_date is required", ErrValidationFailed)
	}
	return nil
}
