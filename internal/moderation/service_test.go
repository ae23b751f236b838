package moderation_test

import (
	"context"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"repute/backend/internal/models"
	"repute/backend/internal/moderation"
	"repute/backend/internal/review"
	"repute/backend/internal/storage/storagetest"
)

var (
	user  = models.Identity{UserID: "user-1", Role: models.RoleUser}
	admin = models.Identity{UserID: "admin-1", Role: models.RoleAdmin}
)

func TestCreateReport(t *testing.T) {
	storageMock := new(MockStorage)
	svc := moderation.NewService(storageMock, new(MockReviews), zap.NewNop())
	storageMock.On("GetReview", "r1").Return(&models.Review{ID: "r1"}, nil)
	storageMock.On("GetReview", "nope").Return(nil, errors.NotFoundf("review %q", "nope"))
	storageMock.On("CreateReport", mock.AnythingOfType("*models.Report")).Return(nil)

	report, err := svc.CreateReport(context.Background(), user, "r1", "  harassment ")
	require.NoError(t, err)
	assert.Equal(t, "harassment", report.Reason)
	assert.Equal(t, models.ReportOpen, report.Status)
	assert.Equal(t, "user-1", report.ReporterUserID)

	_, err = svc.CreateReport(context.Background(), user, "r1", "   ")
	assert.True(t, errors.Is(err, errors.NotValid))

	_, err = svc.CreateReport(context.Background(), user, "nope", "spam")
	assert.True(t, errors.Is(err, errors.NotFound))

	_, err = svc.CreateReport(context.Background(), models.Anonymous(), "r1", "spam")
	assert.True(t, errors.Is(err, errors.Unauthorized))

	storageMock.AssertNumberOfCalls(t, "CreateReport", 1)
}

func TestAdminActions_RequireAdmin(t *testing.T) {
	storageMock := new(MockStorage)
	reviewsMock := new(MockReviews)
	svc := moderation.NewService(storageMock, reviewsMock, zap.NewNop())
	ctx := context.Background()

	calls := map[string]func(models.Identity) error{
		"open reports": func(id models.Identity) error { _, err := svc.OpenReports(ctx, id); return err },
		"close report": func(id models.Identity) error { _, err := svc.CloseReport(ctx, id, "rep"); return err },
		"hide review":  func(id models.Identity) error { _, err := svc.HideReview(ctx, id, "r"); return err },
		"publish":      func(id models.Identity) error { _, err := svc.PublishReview(ctx, id, "r"); return err },
		"resolve":      func(id models.Identity) error { _, err := svc.ResolveReport(ctx, id, "rep", true); return err },
		"ban":          func(id models.Identity) error { return svc.BanUser(ctx, id, "victim") },
	}
	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			assert.True(t, errors.Is(call(user), errors.Forbidden))
			assert.True(t, errors.Is(call(models.Anonymous()), errors.Unauthorized))
		})
	}

	storageMock.AssertNotCalled(t, "BanUser", mock.Anything)
	storageMock.AssertNotCalled(t, "CloseReport", mock.Anything, mock.Anything)
	reviewsMock.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestResolveReport(t *testing.T) {
	storageMock := new(MockStorage)
	reviewsMock := new(MockReviews)
	svc := moderation.NewService(storageMock, reviewsMock, zap.NewNop())
	ctx := context.Background()

	storageMock.On("GetReport", "rep").Return(&models.Report{ID: "rep", ReviewID: "r"}, nil)
	storageMock.On("CloseReport", "rep", "admin-1").Return(&models.Report{ID: "rep", Status: models.ReportClosed}, nil)
	reviewsMock.On("UpdateStatus", admin, "r", models.ReviewHidden).Return(&models.Review{ID: "r", Status: models.ReviewHidden}, nil)

	report, err := svc.ResolveReport(ctx, admin, "rep", false)
	require.NoError(t, err)
	assert.Equal(t, models.ReportClosed, report.Status)
	reviewsMock.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)

	_, err = svc.ResolveReport(ctx, admin, "rep", true)
	require.NoError(t, err)
	reviewsMock.AssertCalled(t, "UpdateStatus", admin, "r", models.ReviewHidden)
	storageMock.AssertNumberOfCalls(t, "CloseReport", 2)
}

func TestResolveReport_HideFailureKeepsReportOpen(t *testing.T) {
	storageMock := new(MockStorage)
	reviewsMock := new(MockReviews)
	svc := moderation.NewService(storageMock, reviewsMock, zap.NewNop())

	storageMock.On("GetReport", "rep").Return(&models.Report{ID: "rep", ReviewID: "r"}, nil)
	reviewsMock.On("UpdateStatus", admin, "r", models.ReviewHidden).Return(nil, errors.New("db down"))

	_, err := svc.ResolveReport(context.Background(), admin, "rep", true)
	assert.Error(t, err)
	storageMock.AssertNotCalled(t, "CloseReport", mock.Anything, mock.Anything)
}

func TestBanUser(t *testing.T) {
	storageMock := new(MockStorage)
	svc := moderation.NewService(storageMock, new(MockReviews), zap.NewNop())
	storageMock.On("BanUser", "victim").Return(nil)

	require.NoError(t, svc.BanUser(context.Background(), admin, "victim"))
	storageMock.AssertCalled(t, "BanUser", "victim")

	err := svc.BanUser(context.Background(), admin, "admin-1")
	assert.True(t, errors.Is(err, errors.NotValid))
}

// A dismissed report leaves its review alone; a hidden review drops out of the
// public listing but stays visible to the owner on request.
func TestModerationScenario(t *testing.T) {
	env := storagetest.New(t)
	logger := zaptest.NewLogger(t)
	engine := review.NewEngine(env.Storage, logger)
	svc := moderation.NewService(env.Storage, engine, logger)
	ctx := context.Background()

	root := env.Admin(t)
	rootID := models.Identity{UserID: root.ID, Role: root.Role}
	reporter, _ := env.User(t, "Ann", "Reporter")
	author, _ := env.User(t, "Ben", "Author")
	_, target := env.User(t, "Cat", "Target")

	r1 := env.Review(t, author.ID, target.ID, 1, models.ReviewPublished)
	r2 := env.Review(t, author.ID, target.ID, 2, models.ReviewPublished)

	report, err := svc.CreateReport(ctx, models.Identity{UserID: reporter.ID}, r1.ID, "harassment")
	require.NoError(t, err)

	open, err := svc.OpenReports(ctx, rootID)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, r1.ID, open[0].Review.ID)
	assert.Equal(t, "Ann", open[0].Reporter.FirstName)

	closed, err := svc.CloseReport(ctx, rootID, report.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportClosed, closed.Status)
	require.NotNil(t, closed.ClosedByUserID)
	assert.Equal(t, root.ID, *closed.ClosedByUserID)

	unchanged, err := env.Storage.GetReview(ctx, r1.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReviewPublished, unchanged.Status)

	open, err = svc.OpenReports(ctx, rootID)
	require.NoError(t, err)
	assert.Empty(t, open)

	hidden, err := svc.HideReview(ctx, rootID, r2.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReviewHidden, hidden.Status)

	public, err := engine.ListForProfile(ctx, target.ID, false)
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Equal(t, r1.ID, public[0].ID)

	owner, err := engine.ListForProfile(ctx, target.ID, true)
	require.NoError(t, err)
	assert.Len(t, owner, 2)

	republished, err := svc.PublishReview(ctx, rootID, r2.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReviewPublished, republished.Status)
}

func TestModeration_PendingCanBeHidden(t *testing.T) {
	env := storagetest.New(t)
	logger := zaptest.NewLogger(t)
	engine := review.NewEngine(env.Storage, logger)
	svc := moderation.NewService(env.Storage, engine, logger)
	ctx := context.Background()

	root := env.Admin(t)
	rootID := models.Identity{UserID: root.ID, Role: root.Role}
	author, _ := env.User(t, "Ben", "Author")
	unclaimed := env.Unclaimed(t, "Nobody", "Yet")
	pending := env.Review(t, author.ID, unclaimed.ID, 1, models.ReviewPending)

	report, err := svc.CreateReport(ctx, models.Identity{UserID: author.ID}, pending.ID, "posted by mistake")
	require.NoError(t, err, "authors may report their own review")

	_, err = svc.ResolveReport(ctx, rootID, report.ID, true)
	require.NoError(t, err)

	got, err := env.Storage.GetReview(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReviewHidden, got.Status)

	require.NoError(t, svc.BanUser(ctx, rootID, author.ID))
	_, err = env.Storage.GetUser(ctx, author.ID)
	assert.True(t, errors.Is(err, errors.NotFound))
	stillThere, err := env.Storage.GetReview(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, author.ID, stillThere.ReviewerUserID)
}
