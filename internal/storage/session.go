package storage

import (
	"context"
	"errors"
	"time"

	jujuerrors "github.com/juju/errors"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/ksuid"
)

const (
	sessionKeyPrefix      = "session:"
	userSessionsKeyPrefix = "user_sessions:"
)

// SessionStore зберігає сесії в Redis: session:<id> → user id з TTL,
// та множину user_sessions:<user id> для виходу з усіх пристроїв і бану.
type SessionStore interface {
	CreateSession(ctx context.Context, userID string, ttl time.Duration) (string, error)
	SessionUser(ctx context.Context, sessionID string) (string, error)
	DeleteSession(ctx context.Context, sessionID string) error
	DeleteUserSessions(ctx context.Context, userID string) error
}

// CreateSession створює нову сесію і повертає її ID.
func (s *Service) CreateSession(ctx context.Context, userID string, ttl time.Duration) (string, error) {
	sessionID := ksuid.New().String()
	userKey := userSessionsKeyPrefix + userID

	pipe := s.Redis.TxPipeline()
	pipe.Set(ctx, sessionKeyPrefix+sessionID, userID, ttl)
	pipe.SAdd(ctx, userKey, sessionID)
	pipe.Expire(ctx, userKey, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", jujuerrors.Annotate(err, "storing session")
	}
	return sessionID, nil
}

// SessionUser повертає ID користувача для живої сесії.
func (s *Service) SessionUser(ctx context.Context, sessionID string) (string, error) {
	userID, err := s.Redis.Get(ctx, sessionKeyPrefix+sessionID).Result()
	if errors.Is(err, redis.Nil) {
		return "", jujuerrors.NotFoundf("session")
	}
	if err != nil {
		return "", jujuerrors.Annotate(err, "loading session")
	}
	return userID, nil
}

func (s *Service) DeleteSession(ctx context.Context, sessionID string) error {
	userID, err := s.Redis.Get(ctx, sessionKeyPrefix+sessionID).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return jujuerrors.Annotate(err, "loading session")
	}

	pipe := s.Redis.TxPipeline()
	pipe.Del(ctx, sessionKeyPrefix+sessionID)
	pipe.SRem(ctx, userSessionsKeyPrefix+userID, sessionID)
	_, err = pipe.Exec(ctx)
	return jujuerrors.Annotate(err, "deleting session")
}

// DeleteUserSessions закриває всі сесії користувача.
func (s *Service) DeleteUserSessions(ctx context.Context, userID string) error {
	userKey := userSessionsKeyPrefix + userID
	ids, err := s.Redis.SMembers(ctx, userKey).Result()
	if err != nil {
		return jujuerrors.Annotate(err, "listing sessions")
	}

	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, sessionKeyPrefix+id)
	}
	keys = append(keys, userKey)
	return jujuerrors.Annotate(s.Redis.Del(ctx, keys...).Err(), "deleting sessions")
}
