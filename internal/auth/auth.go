// Package auth issues and checks access tokens. A token is an HS256 JWT
// naming the user and a server-side session kept in Redis, so logout and
// bans take effect before the token expires.
package auth

import (
	"context"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/juju/clock"
	"github.com/juju/errors"
	"go.uber.org/zap"

	"repute/backend/internal/models"
)

const issuer = "repute-service"

// Sessions stores live sessions.
type Sessions interface {
	CreateSession(ctx context.Context, userID string, ttl time.Duration) (string, error)
	SessionUser(ctx context.Context, sessionID string) (string, error)
	DeleteSession(ctx context.Context, sessionID string) error
	DeleteUserSessions(ctx context.Context, userID string) error
}

// Users resolves the account behind a session. Banned users are not found.
type Users interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// CredentialChecker validates an email and password pair.
type CredentialChecker interface {
	ValidateCredentials(ctx context.Context, email, password string) (*models.User, error)
}

type Claims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Session is an authenticated request context.
type Session struct {
	ID       string
	Identity models.Identity
	User     *models.User
}

type Authenticator struct {
	secret   []byte
	ttl      time.Duration
	sessions Sessions
	users    Users
	creds    CredentialChecker
	clock    clock.Clock
	logger   *zap.Logger
}

func NewAuthenticator(secret string, ttl time.Duration, sessions Sessions, users Users, creds CredentialChecker, clk clock.Clock, logger *zap.Logger) *Authenticator {
	return &Authenticator{
		secret:   []byte(secret),
		ttl:      ttl,
		sessions: sessions,
		users:    users,
		creds:    creds,
		clock:    clk,
		logger:   logger,
	}
}

// Login checks the credentials and opens a session.
func (a *Authenticator) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	user, err := a.creds.ValidateCredentials(ctx, email, password)
	if err != nil {
		return "", nil, err
	}
	token, err := a.Issue(ctx, user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// Issue opens a session for user and returns its signed token.
func (a *Authenticator) Issue(ctx context.Context, user *models.User) (string, error) {
	sessionID, err := a.sessions.CreateSession(ctx, user.ID, a.ttl)
	if err != nil {
		return "", errors.Trace(err)
	}
	now := a.clock.Now()
	claims := Claims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", errors.Annotate(err, "signing token")
	}
	return token, nil
}

// Authenticate resolves a token to a live session. Any failure is Unauthorized.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (*Session, error) {
	claims, err := a.parse(token)
	if err != nil {
		return nil, err
	}

	userID, err := a.sessions.SessionUser(ctx, claims.SessionID)
	if errors.Is(err, errors.NotFound) {
		return nil, errors.Unauthorizedf("session expired")
	}
	if err != nil {
		return nil, errors.Trace(err)
	}
	if userID != claims.Subject {
		return nil, errors.Unauthorizedf("session mismatch")
	}

	user, err := a.users.GetUser(ctx, userID)
	if errors.Is(err, errors.NotFound) {
		return nil, errors.Unauthorizedf("account no longer active")
	}
	if err != nil {
		return nil, errors.Trace(err)
	}

	return &Session{
		ID:       claims.SessionID,
		Identity: models.Identity{UserID: user.ID, Role: user.Role},
		User:     user,
	}, nil
}

// Logout closes the session behind token. An already closed session is fine.
func (a *Authenticator) Logout(ctx context.Context, token string) error {
	claims, err := a.parse(token)
	if err != nil {
		return err
	}
	return errors.Trace(a.sessions.DeleteSession(ctx, claims.SessionID))
}

// LogoutEverywhere closes every session of the user.
func (a *Authenticator) LogoutEverywhere(ctx context.Context, userID string) error {
	return errors.Trace(a.sessions.DeleteUserSessions(ctx, userID))
}

func (a *Authenticator) parse(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (interface{}, error) { return a.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.clock.Now),
	)
	if err != nil {
		a.logger.Debug("rejected token", zap.Error(err))
		return nil, errors.Unauthorizedf("invalid token")
	}
	if claims.Subject == "" || claims.SessionID == "" {
		return nil, errors.Unauthorizedf("invalid token")
	}
	return claims, nil
}
