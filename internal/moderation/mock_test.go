package moderation_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"repute/backend/internal/models"
)

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) GetReview(ctx context.Context, id string) (*models.Review, error) {
	args := m.Called(id)
	r, _ := args.Get(0).(*models.Review)
	return r, args.Error(1)
}

func (m *MockStorage) CreateReport(ctx context.Context, report *models.Report) error {
	args := m.Called(report)
	return args.Error(0)
}

func (m *MockStorage) GetReport(ctx context.Context, id string) (*models.Report, error) {
	args := m.Called(id)
	r, _ := args.Get(0).(*models.Report)
	return r, args.Error(1)
}

func (m *MockStorage) OpenReports(ctx context.Context) ([]models.OpenReport, error) {
	args := m.Called()
	return args.Get(0).([]models.OpenReport), args.Error(1)
}

func (m *MockStorage) CloseReport(ctx context.Context, id, actorUserID string) (*models.Report, error) {
	args := m.Called(id, actorUserID)
	r, _ := args.Get(0).(*models.Report)
	return r, args.Error(1)
}

func (m *MockStorage) BanUser(ctx context.Context, id string) error {
	args := m.Called(id)
	return args.Error(0)
}

type MockReviews struct {
	mock.Mock
}

func (m *MockReviews) UpdateStatus(ctx context.Context, actor models.Identity, id string, status models.ReviewStatus) (*models.Review, error) {
	args := m.Called(actor, id, status)
	r, _ := args.Get(0).(*models.Review)
	return r, args.Error(1)
}
