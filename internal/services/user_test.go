package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/coolwednesday/bookstore-go-app/internal/apperr"
	"github.com/coolwednesday/bookstore-go-app/internal/models"
)

func newUserFixture(t *testing.T) (*UserService, *fakeUserStore) {
	t.Helper()
	store := newFakeUserStore()
	return NewUserService(store, bcrypt.MinCost, time.Hour), store
}

func validRegistration() models.RegisterRequest {
	return models.RegisterRequest{
		Email:          "reader@example.com",
		Password:       "secret1",
		RepeatPassword: "secret1",
		FirstName:      "Avery",
		LastName:       "Reader",
	}
}

func TestRegister(t *testing.T) {
	svc, _ := newUserFixture(t)

	user, err := svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)

	assert.Equal(t, "reader@example.com", user.Email)
	assert.Equal(t, []string{models.RoleUser}, user.Roles)
	assert.False(t, user.IsAdmin())
	// the hash is stored, never the password
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret1")))
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newUserFixture(t)

	req := validRegistration()
	req.Email = "not-an-email"
	_, err := svc.Register(context.Background(), req)
	assert.True(t, apperr.IsInvalidArgument(err))

	req = validRegistration()
	req.Password = "short"
	req.RepeatPassword = "short"
	_, err = svc.Register(context.Background(), req)
	assert.True(t, apperr.IsInvalidArgument(err))

	req = validRegistration()
	req.RepeatPassword = "different1"
	_, err = svc.Register(context.Background(), req)
	assert.True(t, apperr.IsInvalidArgument(err))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newUserFixture(t)

	_, err := svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), validRegistration())
	assert.Equal(t, apperr.KindAlreadyExists, apperr.KindOf(err))
}

func TestLoginAndAuthenticate(t *testing.T) {
	svc, _ := newUserFixture(t)

	registered, err := svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)

	token, err := svc.Login(context.Background(), models.LoginRequest{Email: "reader@example.com", Password: "secret1"})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	user, err := svc.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
}

func TestLoginBadCredentials(t *testing.T) {
	svc, _ := newUserFixture(t)

	_, err := svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "reader@example.com", Password: "wrong"})
	assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))

	// unknown email fails the same way
	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "ghost@example.com", Password: "secret1"})
	assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))
}

func TestAuthenticateExpiredSession(t *testing.T) {
	store := newFakeUserStore()
	svc := NewUserService(store, bcrypt.MinCost, -time.Minute)

	_, err := svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)

	token, err := svc.Login(context.Background(), models.LoginRequest{Email: "reader@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = svc.Authenticate(context.Background(), token)
	assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))
}

func TestAuthenticateMissingToken(t *testing.T) {
	svc, _ := newUserFixture(t)

	_, err := svc.Authenticate(context.Background(), "")
	assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))

	_, err = svc.Authenticate(context.Background(), "nope")
	assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))
}
