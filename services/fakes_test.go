package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/courtsidehq/courtside/models"
	"github.com/courtsidehq/courtside/repositories"
)

// fakeStore - общее in-memory хранилище для тестов сервисного слоя.
// Репозитории-обёртки повторяют контракт SQL-реализаций, включая
// compare-and-set семантику AssignWitness и MarkCompleted, а
// fakeTxManager - откат при ошибке из транзакции.
type fakeStore struct {
	users           map[int]*models.User
	logs            []models.StaminaLog
	tournaments     map[int]*models.Tournament
	participants    map[int]*models.Participant
	matches         map[int]*models.Match
	witnessRequests map[int]*models.WitnessRequest
	config          map[string]string
	nextID          int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:           make(map[int]*models.User),
		tournaments:     make(map[int]*models.Tournament),
		participants:    make(map[int]*models.Participant),
		matches:         make(map[int]*models.Match),
		witnessRequests: make(map[int]*models.WitnessRequest),
		config:          make(map[string]string),
	}
}

func (s *fakeStore) id() int {
	s.nextID++
	return s.nextID
}

func (s *fakeStore) addUser(stamina float64) *models.User {
	id := s.id()
	u := &models.User{
		ID:      id,
		Name:    fmt.Sprintf("user-%d", id),
		Email:   fmt.Sprintf("user%d@example.com", id),
		Role:    models.RoleAthlete,
		Stamina: stamina,
	}
	s.users[id] = u
	return u
}

func (s *fakeStore) addTournament(status models.TournamentStatus, minPlayers int) *models.Tournament {
	id := s.id()
	now := time.Now()
	t := &models.Tournament{
		ID:         id,
		Title:      "tournament",
		StartDate:  now,
		MinPlayers: minPlayers,
		MaxPlayers: 32,
		Status:     status,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.tournaments[id] = t
	return t
}

func (s *fakeStore) addParticipant(tournamentID, userID int) *models.Participant {
	id := s.id()
	p := &models.Participant{ID: id, TournamentID: tournamentID, UserID: userID}
	s.participants[id] = p
	return p
}

func (s *fakeStore) addMatch(tournamentID, p1, p2, round int, status models.MatchStatus) *models.Match {
	id := s.id()
	m := &models.Match{
		ID: id, TournamentID: tournamentID,
		Player1ID: p1, Player2ID: p2,
		Round: round, Status: status,
	}
	s.matches[id] = m
	return m
}

func (s *fakeStore) snapshot() *fakeStore {
	snap := &fakeStore{
		users:           make(map[int]*models.User, len(s.users)),
		logs:            append([]models.StaminaLog(nil), s.logs...),
		tournaments:     make(map[int]*models.Tournament, len(s.tournaments)),
		participants:    make(map[int]*models.Participant, len(s.participants)),
		matches:         make(map[int]*models.Match, len(s.matches)),
		witnessRequests: make(map[int]*models.WitnessRequest, len(s.witnessRequests)),
		config:          make(map[string]string, len(s.config)),
		nextID:          s.nextID,
	}
	for id, u := range s.users {
		clone := *u
		snap.users[id] = &clone
	}
	for id, t := range s.tournaments {
		clone := *t
		snap.tournaments[id] = &clone
	}
	for id, p := range s.participants {
		clone := *p
		snap.participants[id] = &clone
	}
	for id, m := range s.matches {
		clone := *m
		snap.matches[id] = &clone
	}
	for id, req := range s.witnessRequests {
		clone := *req
		snap.witnessRequests[id] = &clone
	}
	for k, v := range s.config {
		snap.config[k] = v
	}
	return snap
}

func (s *fakeStore) restore(snap *fakeStore) {
	s.users = snap.users
	s.logs = snap.logs
	s.tournaments = snap.tournaments
	s.participants = snap.participants
	s.matches = snap.matches
	s.witnessRequests = snap.witnessRequests
	s.config = snap.config
	s.nextID = snap.nextID
}

// --- TxManager ---

// fakeTxManager повторяет контракт sqlTxManager: ошибка из fn
// откатывает все изменения, сделанные внутри транзакции.
type fakeTxManager struct{ store *fakeStore }

func (m fakeTxManager) WithinTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	snap := m.store.snapshot()
	if err := fn(nil); err != nil {
		m.store.restore(snap)
		return err
	}
	return nil
}

// --- UserRepository ---

type fakeUserRepo struct{ store *fakeStore }

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	for _, existing := range r.store.users {
		if existing.Email == user.Email {
			return repositories.ErrUserEmailConflict
		}
	}
	user.ID = r.store.id()
	user.CreatedAt = time.Now()
	r.store.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.User, error) {
	u, ok := r.store.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range r.store.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) Delete(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	if _, ok := r.store.users[id]; !ok {
		return repositories.ErrUserNotFound
	}
	delete(r.store.users, id)
	return nil
}

func (r *fakeUserRepo) UpdateAvatarKey(ctx context.Context, userID int, avatarKey *string) error {
	u, ok := r.store.users[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.AvatarKey = avatarKey
	return nil
}

func (r *fakeUserRepo) AwardPoints(ctx context.Context, exec repositories.SQLExecutor, userID int, points int) error {
	u, ok := r.store.users[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.TotalPoints += points
	return nil
}

func (r *fakeUserRepo) ResetAllPoints(ctx context.Context, exec repositories.SQLExecutor) (int64, error) {
	for _, u := range r.store.users {
		u.TotalPoints = 0
	}
	return int64(len(r.store.users)), nil
}

func (r *fakeUserRepo) ListByPoints(ctx context.Context, limit int) ([]models.User, error) {
	users := make([]models.User, 0, len(r.store.users))
	for _, u := range r.store.users {
		users = append(users, *u)
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].TotalPoints != users[j].TotalPoints {
			return users[i].TotalPoints > users[j].TotalPoints
		}
		return users[i].ID < users[j].ID
	})
	if limit > 0 && len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}

// --- StaminaRepository ---

type fakeStaminaRepo struct{ store *fakeStore }

func (r *fakeStaminaRepo) GetBalance(ctx context.Context, exec repositories.SQLExecutor, userID int) (float64, error) {
	u, ok := r.store.users[userID]
	if !ok {
		return 0, repositories.ErrUserNotFound
	}
	return u.Stamina, nil
}

func (r *fakeStaminaRepo) Adjust(ctx context.Context, exec repositories.SQLExecutor, userID int, delta float64) error {
	u, ok := r.store.users[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.Stamina += delta
	return nil
}

func (r *fakeStaminaRepo) AppendLog(ctx context.Context, exec repositories.SQLExecutor, log *models.StaminaLog) error {
	log.ID = r.store.id()
	log.CreatedAt = time.Now()
	r.store.logs = append(r.store.logs, *log)
	return nil
}

func (r *fakeStaminaRepo) SetAll(ctx context.Context, exec repositories.SQLExecutor, value float64) (int64, error) {
	for _, u := range r.store.users {
		u.Stamina = value
	}
	return int64(len(r.store.users)), nil
}

func (r *fakeStaminaRepo) AppendLogForAll(ctx context.Context, exec repositories.SQLExecutor, amount float64, reason string) error {
	for _, u := range r.store.users {
		r.store.logs = append(r.store.logs, models.StaminaLog{
			ID: r.store.id(), UserID: u.ID, Amount: amount, Reason: reason, CreatedAt: time.Now(),
		})
	}
	return nil
}

func (r *fakeStaminaRepo) ListLogsByUser(ctx context.Context, userID int, limit int) ([]models.StaminaLog, error) {
	logs := make([]models.StaminaLog, 0)
	for _, l := range r.store.logs {
		if l.UserID == userID {
			logs = append(logs, l)
		}
	}
	if limit > 0 && len(logs) > limit {
		logs = logs[len(logs)-limit:]
	}
	return logs, nil
}

func (r *fakeStaminaRepo) DeleteLogsByUser(ctx context.Context, exec repositories.SQLExecutor, userID int) error {
	kept := r.store.logs[:0]
	for _, l := range r.store.logs {
		if l.UserID != userID {
			kept = append(kept, l)
		}
	}
	r.store.logs = kept
	return nil
}

// --- TournamentRepository ---

type fakeTournamentRepo struct{ store *fakeStore }

func (r *fakeTournamentRepo) Create(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament) error {
	t.ID = r.store.id()
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	clone := *t
	r.store.tournaments[t.ID] = &clone
	return nil
}

func (r *fakeTournamentRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Tournament, error) {
	t, ok := r.store.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	clone := *t
	return &clone, nil
}

func (r *fakeTournamentRepo) List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	tournaments := make([]models.Tournament, 0)
	for _, t := range r.store.tournaments {
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		tournaments = append(tournaments, *t)
	}
	sort.Slice(tournaments, func(i, j int) bool { return tournaments[i].ID < tournaments[j].ID })
	return tournaments, nil
}

func (r *fakeTournamentRepo) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id int, status models.TournamentStatus) error {
	t, ok := r.store.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.Status = status
	t.UpdatedAt = time.Now()
	return nil
}

func (r *fakeTournamentRepo) MarkCompleted(ctx context.Context, exec repositories.SQLExecutor, id int) (bool, error) {
	t, ok := r.store.tournaments[id]
	if !ok {
		return false, nil
	}
	if t.Status == models.TournamentCompleted {
		return false, nil
	}
	t.Status = models.TournamentCompleted
	t.UpdatedAt = time.Now()
	return true, nil
}

func (r *fakeTournamentRepo) Delete(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	if _, ok := r.store.tournaments[id]; !ok {
		return repositories.ErrTournamentNotFound
	}
	delete(r.store.tournaments, id)
	return nil
}

func (r *fakeTournamentRepo) UpdateLogoKey(ctx context.Context, tournamentID int, logoKey *string) error {
	t, ok := r.store.tournaments[tournamentID]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.LogoKey = logoKey
	return nil
}

func (r *fakeTournamentRepo) ListUnrankedSince(ctx context.Context, since time.Time) ([]models.Tournament, error) {
	tournaments := make([]models.Tournament, 0)
	for _, t := range r.store.tournaments {
		if t.Status != models.TournamentCompleted && t.UpdatedAt.After(since) {
			tournaments = append(tournaments, *t)
		}
	}
	sort.Slice(tournaments, func(i, j int) bool { return tournaments[i].ID < tournaments[j].ID })
	return tournaments, nil
}

// --- ParticipantRepository ---

type fakeParticipantRepo struct{ store *fakeStore }

func (r *fakeParticipantRepo) Create(ctx context.Context, exec repositories.SQLExecutor, p *models.Participant) error {
	for _, existing := range r.store.participants {
		if existing.TournamentID == p.TournamentID && existing.UserID == p.UserID {
			return repositories.ErrParticipantConflict
		}
	}
	p.ID = r.store.id()
	p.CreatedAt = time.Now()
	clone := *p
	r.store.participants[p.ID] = &clone
	return nil
}

func (r *fakeParticipantRepo) FindByTournamentAndUser(ctx context.Context, exec repositories.SQLExecutor, tournamentID, userID int) (*models.Participant, error) {
	for _, p := range r.store.participants {
		if p.TournamentID == tournamentID && p.UserID == userID {
			clone := *p
			return &clone, nil
		}
	}
	return nil, repositories.ErrParticipantNotFound
}

func (r *fakeParticipantRepo) ListByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) ([]*models.Participant, error) {
	participants := make([]*models.Participant, 0)
	for _, p := range r.store.participants {
		if p.TournamentID == tournamentID {
			clone := *p
			if u, ok := r.store.users[p.UserID]; ok {
				userClone := *u
				clone.User = &userClone
			}
			participants = append(participants, &clone)
		}
	}
	sort.Slice(participants, func(i, j int) bool { return participants[i].ID < participants[j].ID })
	return participants, nil
}

func (r *fakeParticipantRepo) UpdateGroup(ctx context.Context, exec repositories.SQLExecutor, participantID int, groupName string) error {
	p, ok := r.store.participants[participantID]
	if !ok {
		return repositories.ErrParticipantNotFound
	}
	p.GroupName = &groupName
	return nil
}

func (r *fakeParticipantRepo) Delete(ctx context.Context, exec repositories.SQLExecutor, tournamentID, userID int) error {
	for id, p := range r.store.participants {
		if p.TournamentID == tournamentID && p.UserID == userID {
			delete(r.store.participants, id)
			return nil
		}
	}
	return repositories.ErrParticipantNotFound
}

func (r *fakeParticipantRepo) DeleteByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) error {
	for id, p := range r.store.participants {
		if p.TournamentID == tournamentID {
			delete(r.store.participants, id)
		}
	}
	return nil
}

func (r *fakeParticipantRepo) DeleteByUser(ctx context.Context, exec repositories.SQLExecutor, userID int) error {
	for id, p := range r.store.participants {
		if p.UserID == userID {
			delete(r.store.participants, id)
		}
	}
	return nil
}

// --- MatchRepository ---

type fakeMatchRepo struct{ store *fakeStore }

func (r *fakeMatchRepo) Create(ctx context.Context, exec repositories.SQLExecutor, m *models.Match) error {
	m.ID = r.store.id()
	m.CreatedAt = time.Now()
	clone := *m
	r.store.matches[m.ID] = &clone
	return nil
}

func (r *fakeMatchRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Match, error) {
	m, ok := r.store.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	clone := *m
	return &clone, nil
}

func (r *fakeMatchRepo) ListByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) ([]*models.Match, error) {
	matches := make([]*models.Match, 0)
	for _, m := range r.store.matches {
		if m.TournamentID == tournamentID {
			clone := *m
			matches = append(matches, &clone)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Round != matches[j].Round {
			return matches[i].Round < matches[j].Round
		}
		return matches[i].ID < matches[j].ID
	})
	return matches, nil
}

func (r *fakeMatchRepo) UpdateResult(ctx context.Context, exec repositories.SQLExecutor, id int, score string, winnerID int,
	status models.MatchStatus, verification models.VerificationStatus) error {
	m, ok := r.store.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	m.Score = &score
	m.WinnerID = &winnerID
	m.Status = status
	m.VerificationStatus = &verification
	return nil
}

func (r *fakeMatchRepo) AssignWitness(ctx context.Context, exec repositories.SQLExecutor, matchID, userID int) (bool, error) {
	m, ok := r.store.matches[matchID]
	if !ok {
		return false, repositories.ErrMatchNotFound
	}
	if m.WitnessID != nil {
		return false, nil
	}
	m.WitnessID = &userID
	return true, nil
}

func (r *fakeMatchRepo) MarkConfirmed(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	m, ok := r.store.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	m.Status = models.MatchCompleted
	confirmed := models.VerificationConfirmed
	m.VerificationStatus = &confirmed
	return nil
}

func (r *fakeMatchRepo) DeleteByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) error {
	for id, m := range r.store.matches {
		if m.TournamentID == tournamentID {
			delete(r.store.matches, id)
		}
	}
	return nil
}

func (r *fakeMatchRepo) DeleteByUser(ctx context.Context, exec repositories.SQLExecutor, userID int) error {
	for id, m := range r.store.matches {
		if m.Player1ID == userID || m.Player2ID == userID ||
			(m.RefereeID != nil && *m.RefereeID == userID) ||
			(m.WitnessID != nil && *m.WitnessID == userID) ||
			(m.WinnerID != nil && *m.WinnerID == userID) {
			delete(r.store.matches, id)
		}
	}
	return nil
}

// --- WitnessRequestRepository ---

type fakeWitnessRepo struct{ store *fakeStore }

func (r *fakeWitnessRepo) Create(ctx context.Context, exec repositories.SQLExecutor, req *models.WitnessRequest) error {
	req.ID = r.store.id()
	req.CreatedAt = time.Now()
	clone := *req
	r.store.witnessRequests[req.ID] = &clone
	return nil
}

func (r *fakeWitnessRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.WitnessRequest, error) {
	req, ok := r.store.witnessRequests[id]
	if !ok {
		return nil, repositories.ErrWitnessRequestNotFound
	}
	clone := *req
	return &clone, nil
}

func (r *fakeWitnessRepo) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id int, status models.WitnessRequestStatus) error {
	req, ok := r.store.witnessRequests[id]
	if !ok {
		return repositories.ErrWitnessRequestNotFound
	}
	req.Status = status
	return nil
}

func (r *fakeWitnessRepo) ListPendingByUser(ctx context.Context, userID int) ([]*models.WitnessRequest, error) {
	requests := make([]*models.WitnessRequest, 0)
	for _, req := range r.store.witnessRequests {
		if req.UserID == userID && req.Status == models.WitnessRequestPending {
			clone := *req
			if m, ok := r.store.matches[req.MatchID]; ok {
				matchClone := *m
				clone.Match = &matchClone
			}
			requests = append(requests, &clone)
		}
	}
	sort.Slice(requests, func(i, j int) bool { return requests[i].ID < requests[j].ID })
	return requests, nil
}

func (r *fakeWitnessRepo) DeleteByUser(ctx context.Context, exec repositories.SQLExecutor, userID int) error {
	for id, req := range r.store.witnessRequests {
		if req.UserID == userID {
			delete(r.store.witnessRequests, id)
		}
	}
	return nil
}

// --- SystemConfigRepository ---

type fakeConfigRepo struct {
	store     *fakeStore
	upsertErr error
}

func (r *fakeConfigRepo) Get(ctx context.Context, key string) (*models.SystemConfig, error) {
	value, ok := r.store.config[key]
	if !ok {
		return nil, repositories.ErrConfigNotFound
	}
	return &models.SystemConfig{Key: key, Value: value}, nil
}

func (r *fakeConfigRepo) Upsert(ctx context.Context, exec repositories.SQLExecutor, key, value string) error {
	if r.upsertErr != nil {
		return r.upsertErr
	}
	r.store.config[key] = value
	return nil
}
