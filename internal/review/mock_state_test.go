package review_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"repute/backend/internal/models"
)

type MockState struct {
	mock.Mock
}

func (m *MockState) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	args := m.Called(id)
	p, _ := args.Get(0).(*models.Profile)
	return p, args.Error(1)
}

func (m *MockState) CreateReview(ctx context.Context, review *models.Review) error {
	args := m.Called(review)
	return args.Error(0)
}

func (m *MockState) GetReview(ctx context.Context, id string) (*models.Review, error) {
	args := m.Called(id)
	r, _ := args.Get(0).(*models.Review)
	return r, args.Error(1)
}

func (m *MockState) SetReviewStatus(ctx context.Context, id string, status models.ReviewStatus, actorUserID string) (*models.Review, error) {
	args := m.Called(id, status, actorUserID)
	r, _ := args.Get(0).(*models.Review)
	return r, args.Error(1)
}

func (m *MockState) ReviewsForProfile(ctx context.Context, profileID string, statuses ...models.ReviewStatus) ([]models.Review, error) {
	args := m.Called(profileID, statuses)
	return args.Get(0).([]models.Review), args.Error(1)
}

func (m *MockState) ReviewsByReviewer(ctx context.Context, userID string) ([]models.Review, error) {
	args := m.Called(userID)
	return args.Get(0).([]models.Review), args.Error(1)
}

func (m *MockState) ReviewHistory(ctx context.Context, reviewID string) ([]models.ReviewStatusChange, error) {
	args := m.Called(reviewID)
	return args.Get(0).([]models.ReviewStatusChange), args.Error(1)
}

func (m *MockState) RatingCounts(ctx context.Context, profileID string) (map[int]int, error) {
	args := m.Called(profileID)
	return args.Get(0).(map[int]int), args.Error(1)
}

func (m *MockState) UserSummaries(ctx context.Context, ids []string) (map[string]*models.UserSummary, error) {
	args := m.Called(ids)
	return args.Get(0).(map[string]*models.UserSummary), args.Error(1)
}
