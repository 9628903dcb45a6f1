package services

import (
	"context"
	"testing"

	"github.com/courtsidehq/courtside/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCompletionFixture() (*fakeStore, CompletionService) {
	store := newFakeStore()
	svc := NewCompletionService(
		&fakeTournamentRepo{store: store},
		&fakeMatchRepo{store: store},
		&fakeUserRepo{store: store},
		testLogger(),
	)
	return store, svc
}

func completedMatch(store *fakeStore, tournamentID, p1, p2, round, winnerID int) *models.Match {
	m := store.addMatch(tournamentID, p1, p2, round, models.MatchCompleted)
	m.WinnerID = &winnerID
	return m
}

func TestCompletionNoopWhileMatchesRemain(t *testing.T) {
	ctx := context.Background()
	store, svc := newCompletionFixture()
	tournament := store.addTournament(models.TournamentInProgress, 8)
	users := make([]*models.User, 8)
	for i := range users {
		users[i] = store.addUser(10.0)
	}

	// 7 из 8 матчей завершены.
	for i := 0; i < 7; i++ {
		completedMatch(store, tournament.ID, users[0].ID, users[1].ID, 1, users[0].ID)
	}
	store.addMatch(tournament.ID, users[2].ID, users[3].ID, 1, models.MatchPending)

	done, err := svc.CheckAndComplete(ctx, nil, tournament.ID)
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, models.TournamentInProgress, store.tournaments[tournament.ID].Status)
	assert.Zero(t, store.users[users[0].ID].TotalPoints)
}

func TestCompletionNoopWithoutMatches(t *testing.T) {
	ctx := context.Background()
	store, svc := newCompletionFixture()
	tournament := store.addTournament(models.TournamentInProgress, 2)

	done, err := svc.CheckAndComplete(ctx, nil, tournament.ID)
	require.NoError(t, err)
	assert.False(t, done)
}

func TestCompletionAwardsBracketPoints(t *testing.T) {
	ctx := context.Background()
	store, svc := newCompletionFixture()
	tournament := store.addTournament(models.TournamentInProgress, 4)
	u := make([]*models.User, 4)
	for i := range u {
		u[i] = store.addUser(10.0)
	}

	// Два полуфинала (раунд 1) и финал (раунд 2).
	completedMatch(store, tournament.ID, u[0].ID, u[1].ID, 1, u[0].ID)
	completedMatch(store, tournament.ID, u[2].ID, u[3].ID, 1, u[2].ID)
	completedMatch(store, tournament.ID, u[0].ID, u[2].ID, 2, u[0].ID)

	done, err := svc.CheckAndComplete(ctx, nil, tournament.ID)
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, models.TournamentCompleted, store.tournaments[tournament.ID].Status)

	assert.Equal(t, FinalWinnerPoints, store.users[u[0].ID].TotalPoints)
	assert.Equal(t, FinalRunnerUpPoints, store.users[u[2].ID].TotalPoints)
	// Проигравшие полуфиналов.
	assert.Equal(t, SemifinalLoserPoints, store.users[u[1].ID].TotalPoints)
	assert.Equal(t, SemifinalLoserPoints, store.users[u[3].ID].TotalPoints)
}

func TestCompletionIsNotReentrant(t *testing.T) {
	ctx := context.Background()
	store, svc := newCompletionFixture()
	tournament := store.addTournament(models.TournamentInProgress, 2)
	u1 := store.addUser(10.0)
	u2 := store.addUser(10.0)
	completedMatch(store, tournament.ID, u1.ID, u2.ID, 1, u1.ID)

	done, err := svc.CheckAndComplete(ctx, nil, tournament.ID)
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, FinalWinnerPoints, store.users[u1.ID].TotalPoints)

	// Повторный вызов не начисляет очки второй раз.
	done, err = svc.CheckAndComplete(ctx, nil, tournament.ID)
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, FinalWinnerPoints, store.users[u1.ID].TotalPoints)
	assert.Equal(t, FinalRunnerUpPoints, store.users[u2.ID].TotalPoints)
}

func TestCompletionSkipsAwardWithoutWinner(t *testing.T) {
	ctx := context.Background()
	store, svc := newCompletionFixture()
	tournament := store.addTournament(models.TournamentInProgress, 2)
	u1 := store.addUser(10.0)
	u2 := store.addUser(10.0)
	store.addMatch(tournament.ID, u1.ID, u2.ID, 1, models.MatchCompleted)

	done, err := svc.CheckAndComplete(ctx, nil, tournament.ID)
	require.NoError(t, err)
	assert.True(t, done, "tournament still completes even when the final has no recorded winner")
	assert.Zero(t, store.users[u1.ID].TotalPoints)
	assert.Zero(t, store.users[u2.ID].TotalPoints)
}
