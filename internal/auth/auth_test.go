package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"repute/backend/internal/auth"
	"repute/backend/internal/models"
	"repute/backend/internal/storage/storagetest"
)

type MockCredentials struct {
	mock.Mock
}

func (m *MockCredentials) ValidateCredentials(ctx context.Context, email, password string) (*models.User, error) {
	args := m.Called(email, password)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func newAuthenticator(t *testing.T) (*auth.Authenticator, *MockCredentials, *storagetest.Env) {
	env := storagetest.New(t)
	creds := new(MockCredentials)
	a := auth.NewAuthenticator("test-secret", time.Hour, env.Storage, env.Storage, creds, env.Clock, zaptest.NewLogger(t))
	return a, creds, env
}

func TestLoginAndAuthenticate(t *testing.T) {
	a, creds, env := newAuthenticator(t)
	ctx := context.Background()
	user := env.Admin(t)
	creds.On("ValidateCredentials", user.Email, "pw").Return(user, nil)

	token, got, err := a.Login(ctx, user.Email, "pw")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.NotEmpty(t, token)

	session, err := a.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, session.Identity.UserID)
	assert.True(t, session.Identity.IsAdmin(), "role is read from the account")
	creds.AssertExpectations(t)
}

func TestLogin_PassesThroughCredentialFailure(t *testing.T) {
	a, creds, _ := newAuthenticator(t)
	creds.On("ValidateCredentials", "x@example.com", "bad").Return(nil, errors.Unauthorizedf("invalid email or password"))

	_, _, err := a.Login(context.Background(), "x@example.com", "bad")
	assert.True(t, errors.Is(err, errors.Unauthorized))
}

func TestAuthenticate_Rejections(t *testing.T) {
	ctx := context.Background()

	t.Run("garbage", func(t *testing.T) {
		a, _, _ := newAuthenticator(t)
		_, err := a.Authenticate(ctx, "not-a-jwt")
		assert.True(t, errors.Is(err, errors.Unauthorized))
	})

	t.Run("other secret", func(t *testing.T) {
		a, _, env := newAuthenticator(t)
		user, _ := env.User(t, "U", "U")
		other := auth.NewAuthenticator("other-secret", time.Hour, env.Storage, env.Storage, nil, env.Clock, zaptest.NewLogger(t))
		token, err := other.Issue(ctx, user)
		require.NoError(t, err)

		_, err = a.Authenticate(ctx, token)
		assert.True(t, errors.Is(err, errors.Unauthorized))
	})

	t.Run("expired", func(t *testing.T) {
		a, _, env := newAuthenticator(t)
		user, _ := env.User(t, "U", "U")
		token, err := a.Issue(ctx, user)
		require.NoError(t, err)

		env.Clock.Advance(2 * time.Hour)
		_, err = a.Authenticate(ctx, token)
		assert.True(t, errors.Is(err, errors.Unauthorized))
	})

	t.Run("logged out", func(t *testing.T) {
		a, _, env := newAuthenticator(t)
		user, _ := env.User(t, "U", "U")
		token, err := a.Issue(ctx, user)
		require.NoError(t, err)

		require.NoError(t, a.Logout(ctx, token))
		_, err = a.Authenticate(ctx, token)
		assert.True(t, errors.Is(err, errors.Unauthorized))
		assert.NoError(t, a.Logout(ctx, token), "logging out twice is harmless")
	})

	t.Run("logged out everywhere", func(t *testing.T) {
		a, _, env := newAuthenticator(t)
		user, _ := env.User(t, "U", "U")
		first, err := a.Issue(ctx, user)
		require.NoError(t, err)
		second, err := a.Issue(ctx, user)
		require.NoError(t, err)

		require.NoError(t, a.LogoutEverywhere(ctx, user.ID))
		_, err = a.Authenticate(ctx, first)
		assert.True(t, errors.Is(err, errors.Unauthorized))
		_, err = a.Authenticate(ctx, second)
		assert.True(t, errors.Is(err, errors.Unauthorized))
	})

	t.Run("banned", func(t *testing.T) {
		a, _, env := newAuthenticator(t)
		user, _ := env.User(t, "U", "U")
		token, err := a.Issue(ctx, user)
		require.NoError(t, err)

		require.NoError(t, env.Storage.BanUser(ctx, user.ID))
		_, err = a.Authenticate(ctx, token)
		assert.True(t, errors.Is(err, errors.Unauthorized))
	})
}
