package review_test

import (
	"context"
	"strings"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"repute/backend/internal/models"
	"repute/backend/internal/review"
	"repute/backend/internal/storage/storagetest"
)

var (
	alice = models.Identity{UserID: "alice", Role: models.RoleUser}
	admin = models.Identity{UserID: "root", Role: models.RoleAdmin}
)

func claimedBy(id, owner string) *models.Profile {
	return &models.Profile{ID: id, OwnerUserID: &owner, Claimed: true}
}

func TestCreate_StatusFollowsClaimState(t *testing.T) {
	st := new(MockState)
	engine := review.NewEngine(st, zap.NewNop())
	st.On("GetProfile", "claimed").Return(claimedBy("claimed", "bob"), nil)
	st.On("GetProfile", "unclaimed").Return(&models.Profile{ID: "unclaimed"}, nil)
	st.On("CreateReview", mock.AnythingOfType("*models.Review")).Return(nil)

	published, err := engine.Create(context.Background(), alice, "claimed", 5, "  Great collaborator ")
	require.NoError(t, err)
	assert.Equal(t, models.ReviewPublished, published.Status)
	assert.Equal(t, "Great collaborator", published.Text)
	assert.Equal(t, "alice", published.ReviewerUserID)

	pending, err := engine.Create(context.Background(), alice, "unclaimed", 3, "ok")
	require.NoError(t, err)
	assert.Equal(t, models.ReviewPending, pending.Status)

	st.AssertNumberOfCalls(t, "CreateReview", 2)
}

func TestCreate_SelfReviewForbiddenRegardlessOfInput(t *testing.T) {
	st := new(MockState)
	engine := review.NewEngine(st, zap.NewNop())
	st.On("GetProfile", "mine").Return(claimedBy("mine", "alice"), nil)

	inputs := []struct {
		rating int
		text   string
	}{
		{5, "I am great"},
		{0, ""},
		{9, strings.Repeat("x", 500)},
	}
	for _, in := range inputs {
		_, err := engine.Create(context.Background(), alice, "mine", in.rating, in.text)
		assert.True(t, errors.Is(err, errors.Forbidden), "rating=%d got %v", in.rating, err)
	}
	st.AssertNotCalled(t, "CreateReview", mock.Anything)
}

func TestCreate_Validation(t *testing.T) {
	st := new(MockState)
	engine := review.NewEngine(st, zap.NewNop())
	st.On("GetProfile", "p").Return(claimedBy("p", "bob"), nil)
	st.On("CreateReview", mock.AnythingOfType("*models.Review")).Return(nil)

	tests := []struct {
		name   string
		rating int
		text   string
		ok     bool
	}{
		{"rating too low", 0, "fine", false},
		{"rating too high", 6, "fine", false},
		{"empty text", 3, "", false},
		{"whitespace text", 3, "   ", false},
		{"text at limit", 1, strings.Repeat("a", 150), true},
		{"text over limit", 1, strings.Repeat("a", 151), false},
		{"multibyte counted as characters", 4, strings.Repeat("ї", 150), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.Create(context.Background(), alice, "p", tt.rating, tt.text)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.True(t, errors.Is(err, errors.NotValid), "got %v", err)
			}
		})
	}
}

func TestCreate_UnknownTargetAndAnonymous(t *testing.T) {
	st := new(MockState)
	engine := review.NewEngine(st, zap.NewNop())
	st.On("GetProfile", "ghost").Return(nil, errors.NotFoundf("profile %q", "ghost"))

	_, err := engine.Create(context.Background(), alice, "ghost", 5, "hi")
	assert.True(t, errors.Is(err, errors.NotFound))

	_, err = engine.Create(context.Background(), models.Anonymous(), "ghost", 5, "hi")
	assert.True(t, errors.Is(err, errors.Unauthorized))
}

func TestUpdateStatus_AdminOnly(t *testing.T) {
	st := new(MockState)
	engine := review.NewEngine(st, zap.NewNop())
	st.On("SetReviewStatus", "r1", models.ReviewHidden, "root").
		Return(&models.Review{ID: "r1", Status: models.ReviewHidden}, nil)

	_, err := engine.UpdateStatus(context.Background(), alice, "r1", models.ReviewHidden)
	assert.True(t, errors.Is(err, errors.Forbidden))

	_, err = engine.UpdateStatus(context.Background(), admin, "r1", "deleted")
	assert.True(t, errors.Is(err, errors.NotValid))

	got, err := engine.UpdateStatus(context.Background(), admin, "r1", models.ReviewHidden)
	require.NoError(t, err)
	assert.Equal(t, models.ReviewHidden, got.Status)
	st.AssertExpectations(t)
}

func TestAggregate(t *testing.T) {
	stats := review.Aggregate(map[int]int{5: 1, 4: 1, 3: 1, 2: 1, 1: 1})
	assert.Equal(t, 3.0, stats.Average)
	assert.Equal(t, 5, stats.Count)
	assert.Equal(t, map[int]int{1: 1, 2: 1, 3: 1, 4: 1, 5: 1}, stats.Breakdown)

	empty := review.Aggregate(nil)
	assert.Equal(t, 0.0, empty.Average)
	assert.Equal(t, 0, empty.Count)
	assert.Equal(t, map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}, empty.Breakdown)
}

func TestListForProfile_VisibilityGating(t *testing.T) {
	env := storagetest.New(t)
	engine := review.NewEngine(env.Storage, zaptest.NewLogger(t))
	ctx := context.Background()

	reviewer, _ := env.User(t, "Rita", "Reviewer")
	_, target := env.User(t, "Tom", "Target")
	published := env.Review(t, reviewer.ID, target.ID, 5, models.ReviewPublished)
	env.Tick()
	hidden := env.Review(t, reviewer.ID, target.ID, 1, models.ReviewHidden)
	env.Review(t, reviewer.ID, target.ID, 3, models.ReviewPending)

	public, err := engine.ListForProfile(ctx, target.ID, false)
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Equal(t, published.ID, public[0].ID)
	require.NotNil(t, public[0].Reviewer)
	assert.Equal(t, "Rita", public[0].Reviewer.FirstName)

	again, err := engine.ListForProfile(ctx, target.ID, false)
	require.NoError(t, err)
	assert.Len(t, again, 1, "reading is idempotent")

	withHidden, err := engine.ListForProfile(ctx, target.ID, true)
	require.NoError(t, err)
	require.Len(t, withHidden, 2)
	assert.Equal(t, hidden.ID, withHidden[0].ID, "newest first")

	require.NoError(t, env.Storage.BanUser(ctx, reviewer.ID))
	afterBan, err := engine.ListForProfile(ctx, target.ID, false)
	require.NoError(t, err)
	require.Len(t, afterBan, 1)
	assert.Nil(t, afterBan[0].Reviewer, "a banned reviewer is omitted, the review stays")
}

func TestStats_PublishedOnly(t *testing.T) {
	env := storagetest.New(t)
	engine := review.NewEngine(env.Storage, zaptest.NewLogger(t))
	ctx := context.Background()

	reviewer, _ := env.User(t, "R", "R")
	_, target := env.User(t, "T", "T")
	for rating := 1; rating <= 5; rating++ {
		env.Review(t, reviewer.ID, target.ID, rating, models.ReviewPublished)
	}
	env.Review(t, reviewer.ID, target.ID, 5, models.ReviewHidden)
	env.Review(t, reviewer.ID, target.ID, 5, models.ReviewPending)

	stats, err := engine.Stats(ctx, target.ID)
	require.NoError(t, err)
	assert.Equal(t, 3.0, stats.Average)
	assert.Equal(t, 5, stats.Count)
	assert.Equal(t, map[int]int{1: 1, 2: 1, 3: 1, 4: 1, 5: 1}, stats.Breakdown)
}

func TestHistory(t *testing.T) {
	env := storagetest.New(t)
	engine := review.NewEngine(env.Storage, zaptest.NewLogger(t))
	ctx := context.Background()
	root := env.Admin(t)
	rootID := models.Identity{UserID: root.ID, Role: root.Role}

	reviewer, _ := env.User(t, "R", "R")
	_, target := env.User(t, "T", "T")
	r, err := engine.Create(ctx, models.Identity{UserID: reviewer.ID, Role: models.RoleUser}, target.ID, 2, "meh")
	require.NoError(t, err)

	_, err = engine.UpdateStatus(ctx, rootID, r.ID, models.ReviewHidden)
	require.NoError(t, err)

	history, err := engine.History(ctx, rootID, r.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.ReviewPublished, history[0].FromStatus)

	_, err = engine.History(ctx, alice, r.ID)
	assert.True(t, errors.Is(err, errors.Forbidden))
	_, err = engine.History(ctx, rootID, "missing")
	assert.True(t, errors.Is(err, errors.NotFound))

	mine, err := engine.ListByReviewer(ctx, models.Identity{UserID: reviewer.ID})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, models.ReviewHidden, mine[0].Status)
}
