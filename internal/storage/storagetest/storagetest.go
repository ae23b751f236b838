// Package storagetest provides a storage.Service backed by in-memory SQLite
// and miniredis for tests.
package storagetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/juju/clock/testclock"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"repute/backend/internal/models"
	"repute/backend/internal/storage"
)

// Epoch is the initial time of every test clock.
var Epoch = time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

type Env struct {
	Storage *storage.Service
	Clock   *testclock.Clock
	Redis   *miniredis.Miniredis

	seq int
}

// New returns a migrated, empty store. Everything is released when t ends.
func New(t testing.TB) *Env {
	t.Helper()
	ctx := context.Background()
	clk := testclock.NewClock(Epoch)

	db, err := storage.OpenDB(ctx, storage.DBConfig{
		Driver: "sqlite",
		DSN:    "file::memory:?_foreign_keys=on",
	}, clk)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	svc := storage.NewStorageService(db, rdb, clk, nil)
	require.NoError(t, svc.Migrate(ctx))

	return &Env{Storage: svc, Clock: clk, Redis: mr}
}

// Tick moves the clock forward by one second so rows get distinct timestamps.
func (e *Env) Tick() {
	e.Clock.Advance(time.Second)
}

// User creates a user with a claimed self-profile.
func (e *Env) User(t testing.TB, first, last string) (*models.User, *models.Profile) {
	t.Helper()
	e.seq++
	user := &models.User{
		Email:        fmt.Sprintf("user%d@example.com", e.seq),
		Username:     fmt.Sprintf("user%d", e.seq),
		PasswordHash: "hash",
		FirstName:    first,
		LastName:     last,
	}
	profile := &models.Profile{FirstName: first, LastName: last}
	require.NoError(t, e.Storage.CreateUserWithProfile(context.Background(), user, profile))
	return user, profile
}

// Admin creates a user with the admin role.
func (e *Env) Admin(t testing.TB) *models.User {
	t.Helper()
	user, _ := e.User(t, "Ada", "Admin")
	updated, err := e.Storage.UpdateUser(context.Background(), user.ID, map[string]interface{}{"role": models.RoleAdmin})
	require.NoError(t, err)
	return updated
}

// Bare creates a user without a profile, e.g. someone about to accept an invite.
func (e *Env) Bare(t testing.TB, first, last string) *models.User {
	t.Helper()
	e.seq++
	user := &models.User{
		Email:        fmt.Sprintf("bare%d@example.com", e.seq),
		Username:     fmt.Sprintf("bare%d", e.seq),
		PasswordHash: "hash",
		FirstName:    first,
		LastName:     last,
	}
	require.NoError(t, e.Storage.DB.Create(user).Error)
	return user
}

// Unclaimed creates an unclaimed profile.
func (e *Env) Unclaimed(t testing.TB, first, last string) *models.Profile {
	t.Helper()
	profile := &models.Profile{FirstName: first, LastName: last}
	require.NoError(t, e.Storage.CreateProfile(context.Background(), profile))
	return profile
}

// Review stores a review with the given status directly.
func (e *Env) Review(t testing.TB, reviewerID, profileID string, rating int, status models.ReviewStatus) *models.Review {
	t.Helper()
	review := &models.Review{
		ReviewerUserID:  reviewerID,
		TargetProfileID: profileID,
		Rating:          rating,
		Text:            "text",
		Status:          status,
	}
	require.NoError(t, e.Storage.CreateReview(context.Background(), review))
	return review
}
