package services

import (
	"context"
	"testing"

	"github.com/courtsidehq/courtside/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testJWTSecret = "test-secret"

func newAuthFixture() (*fakeStore, AuthService) {
	store := newFakeStore()
	return store, NewAuthService(&fakeUserRepo{store: store}, testJWTSecret)
}

func TestRegisterCreatesAthleteWithInitialStamina(t *testing.T) {
	ctx := context.Background()
	_, svc := newAuthFixture()

	user, err := svc.Register(ctx, RegisterInput{
		Name:     "Ivan",
		Email:    "  Ivan@Example.COM ",
		Password: "correct horse",
	})
	require.NoError(t, err)

	assert.Equal(t, "ivan@example.com", user.Email)
	assert.Equal(t, models.RoleAthlete, user.Role)
	assert.InDelta(t, models.InitialStamina, user.Stamina, 1e-9)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("correct horse")))
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	_, svc := newAuthFixture()

	_, err := svc.Register(ctx, RegisterInput{Name: "", Email: "a@b.c", Password: "long enough"})
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = svc.Register(ctx, RegisterInput{Name: "Ivan", Email: "a@b.c", Password: "short"})
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestRegisterRejectsTakenEmail(t *testing.T) {
	ctx := context.Background()
	_, svc := newAuthFixture()

	input := RegisterInput{Name: "Ivan", Email: "ivan@example.com", Password: "correct horse"}
	_, err := svc.Register(ctx, input)
	require.NoError(t, err)

	input.Name = "Another Ivan"
	_, err = svc.Register(ctx, input)
	assert.ErrorIs(t, err, ErrAuthEmailTaken)
}

func TestLoginReturnsSignedToken(t *testing.T) {
	ctx := context.Background()
	_, svc := newAuthFixture()

	registered, err := svc.Register(ctx, RegisterInput{
		Name: "Ivan", Email: "ivan@example.com", Password: "correct horse",
	})
	require.NoError(t, err)

	token, user, err := svc.Login(ctx, models.Credentials{
		Email: "Ivan@Example.com", Password: "correct horse",
	})
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		return []byte(testJWTSecret), nil
	})
	require.NoError(t, err)
	claims, ok := parsed.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.EqualValues(t, registered.ID, claims["user_id"])
	assert.Equal(t, string(models.RoleAthlete), claims["role"])
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	ctx := context.Background()
	_, svc := newAuthFixture()

	_, err := svc.Register(ctx, RegisterInput{
		Name: "Ivan", Email: "ivan@example.com", Password: "correct horse",
	})
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, models.Credentials{Email: "ivan@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrAuthInvalidCredentials)

	// Несуществующий email отдаёт ту же ошибку, без утечки информации.
	_, _, err = svc.Login(ctx, models.Credentials{Email: "ghost@example.com", Password: "correct horse"})
	assert.ErrorIs(t, err, ErrAuthInvalidCredentials)
}
