package services

import (
	"context"
	"io"
	"log/slog"
	"math/rand"
	"testing"
	"time"

	"github.com/courtsidehq/courtside/brackets"
	"github.com/courtsidehq/courtside/models"
	"github.com/courtsidehq/courtside/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type tournamentFixture struct {
	store *fakeStore
	svc   TournamentService
}

func newTournamentFixture(seed int64) *tournamentFixture {
	store := newFakeStore()
	staminaService := NewStaminaService(&fakeStaminaRepo{store: store})
	configService := NewSystemConfigService(&fakeConfigRepo{store: store})
	svc := NewTournamentService(
		fakeTxManager{store: store},
		&fakeTournamentRepo{store: store},
		&fakeParticipantRepo{store: store},
		&fakeMatchRepo{store: store},
		staminaService,
		configService,
		brackets.NewGroupStageGenerator(rand.New(rand.NewSource(seed))),
		brackets.NewHub(),
		storage.NewDisabledUploader(),
		testLogger(),
	)
	return &tournamentFixture{store: store, svc: svc}
}

func TestJoinDeductsFee(t *testing.T) {
	ctx := context.Background()
	f := newTournamentFixture(1)
	tournament := f.store.addTournament(models.TournamentOpen, 2)
	user := f.store.addUser(10.0)

	require.NoError(t, f.svc.Join(ctx, tournament.ID, user.ID))

	assert.InDelta(t, 10.0-models.TournamentFee, f.store.users[user.ID].Stamina, 1e-9)
	participants, _ := (&fakeParticipantRepo{store: f.store}).ListByTournament(ctx, nil, tournament.ID)
	require.Len(t, participants, 1)
	assert.Equal(t, user.ID, participants[0].UserID)
}

func TestJoinWithdrawRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newTournamentFixture(1)
	tournament := f.store.addTournament(models.TournamentOpen, 2)
	user := f.store.addUser(10.0)

	require.NoError(t, f.svc.Join(ctx, tournament.ID, user.ID))
	require.NoError(t, f.svc.Withdraw(ctx, tournament.ID, user.ID))

	assert.InDelta(t, 10.0, f.store.users[user.ID].Stamina, 1e-9)
	participants, _ := (&fakeParticipantRepo{store: f.store}).ListByTournament(ctx, nil, tournament.ID)
	assert.Empty(t, participants)
	// Списание и возврат - две записи журнала.
	assert.Len(t, f.store.logs, 2)
}

func TestJoinRejectsNonOpenTournament(t *testing.T) {
	ctx := context.Background()
	f := newTournamentFixture(1)
	tournament := f.store.addTournament(models.TournamentInProgress, 2)
	user := f.store.addUser(10.0)

	err := f.svc.Join(ctx, tournament.ID, user.ID)
	assert.ErrorIs(t, err, ErrTournamentNotOpen)
}

func TestJoinRejectsDuplicateRegistration(t *testing.T) {
	ctx := context.Background()
	f := newTournamentFixture(1)
	tournament := f.store.addTournament(models.TournamentOpen, 2)
	user := f.store.addUser(10.0)

	require.NoError(t, f.svc.Join(ctx, tournament.ID, user.ID))
	err := f.svc.Join(ctx, tournament.ID, user.ID)
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
}

func TestJoinInsufficientStamina(t *testing.T) {
	ctx := context.Background()
	f := newTournamentFixture(1)
	tournament := f.store.addTournament(models.TournamentOpen, 2)
	user := f.store.addUser(1.0)

	err := f.svc.Join(ctx, tournament.ID, user.ID)
	assert.ErrorIs(t, err, ErrInsufficientStamina)
}

func TestJoinSkipsFeeWhenFlagDisabled(t *testing.T) {
	ctx := context.Background()
	f := newTournamentFixture(1)
	f.store.config[models.ConfigRequireStaminaToJoin] = "false"
	tournament := f.store.addTournament(models.TournamentOpen, 2)
	user := f.store.addUser(0.0)

	require.NoError(t, f.svc.Join(ctx, tournament.ID, user.ID))
	assert.InDelta(t, 0.0, f.store.users[user.ID].Stamina, 1e-9)
	assert.Empty(t, f.store.logs)
}

func TestWithdrawRequiresRegistration(t *testing.T) {
	ctx := context.Background()
	f := newTournamentFixture(1)
	tournament := f.store.addTournament(models.TournamentOpen, 2)
	user := f.store.addUser(10.0)

	err := f.svc.Withdraw(ctx, tournament.ID, user.ID)
	assert.ErrorIs(t, err, ErrNotRegistered)
}

func TestCreateAutoJoinsCreator(t *testing.T) {
	ctx := context.Background()
	f := newTournamentFixture(1)
	creator := f.store.addUser(10.0)

	tournament, err := f.svc.Create(ctx, creator.ID, CreateTournamentInput{
		Title:      "Spring Open",
		StartDate:  time.Now().Add(24 * time.Hour),
		MinPlayers: 4,
		MaxPlayers: 16,
	})
	require.NoError(t, err)
	assert.Equal(t, models.TournamentOpen, tournament.Status)

	participants, _ := (&fakeParticipantRepo{store: f.store}).ListByTournament(ctx, nil, tournament.ID)
	require.Len(t, participants, 1)
	assert.Equal(t, creator.ID, participants[0].UserID)
	assert.InDelta(t, 10.0-models.TournamentFee, f.store.users[creator.ID].Stamina, 1e-9)
}

func TestStartWithEightPlayers(t *testing.T) {
	ctx := context.Background()
	f := newTournamentFixture(42)
	tournament := f.store.addTournament(models.TournamentOpen, 8)
	for i := 0; i < 8; i++ {
		user := f.store.addUser(10.0)
		f.store.addParticipant(tournament.ID, user.ID)
	}

	started, err := f.svc.Start(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TournamentInProgress, started.Status)

	// 8 участников -> 2 группы по 4, в каждой C(4,2)=6 матчей.
	matchesByGroup := map[string]int{}
	groupSizes := map[string]int{}
	for _, p := range f.store.participants {
		require.NotNil(t, p.GroupName)
		groupSizes[*p.GroupName]++
	}
	require.Len(t, groupSizes, 2)
	for name, size := range groupSizes {
		assert.Equal(t, 4, size, "group %s", name)
	}

	memberGroup := map[int]string{}
	for _, p := range f.store.participants {
		memberGroup[p.UserID] = *p.GroupName
	}
	for _, m := range f.store.matches {
		assert.Equal(t, 1, m.Round)
		assert.Equal(t, models.MatchPending, m.Status)
		assert.Equal(t, memberGroup[m.Player1ID], memberGroup[m.Player2ID],
			"matches never cross group boundaries")
		matchesByGroup[memberGroup[m.Player1ID]]++
	}
	for name, count := range matchesByGroup {
		assert.Equal(t, 6, count, "group %s", name)
	}
}

func TestStartRejectsTooFewPlayers(t *testing.T) {
	ctx := context.Background()
	f := newTournamentFixture(1)
	tournament := f.store.addTournament(models.TournamentOpen, 4)
	for i := 0; i < 3; i++ {
		user := f.store.addUser(10.0)
		f.store.addParticipant(tournament.ID, user.ID)
	}

	_, err := f.svc.Start(ctx, tournament.ID)
	assert.ErrorIs(t, err, ErrTooFewPlayers)
	assert.Equal(t, models.TournamentOpen, f.store.tournaments[tournament.ID].Status)
	assert.Empty(t, f.store.matches)
}

func TestStartRejectsNonOpenTournament(t *testing.T) {
	ctx := context.Background()
	f := newTournamentFixture(1)
	tournament := f.store.addTournament(models.TournamentCompleted, 2)

	_, err := f.svc.Start(ctx, tournament.ID)
	assert.ErrorIs(t, err, ErrTournamentNotOpen)
}

func TestDeleteRemovesMatchesAndParticipants(t *testing.T) {
	ctx := context.Background()
	f := newTournamentFixture(1)
	tournament := f.store.addTournament(models.TournamentInProgress, 2)
	u1 := f.store.addUser(10.0)
	u2 := f.store.addUser(10.0)
	f.store.addParticipant(tournament.ID, u1.ID)
	f.store.addParticipant(tournament.ID, u2.ID)
	f.store.addMatch(tournament.ID, u1.ID, u2.ID, 1, models.MatchPending)

	require.NoError(t, f.svc.Delete(ctx, tournament.ID))
	assert.Empty(t, f.store.matches)
	assert.Empty(t, f.store.participants)
	assert.NotContains(t, f.store.tournaments, tournament.ID)
}
