package storage

import (
	"context"

	"github.com/juju/errors"
	"gorm.io/gorm"

	"repute/backend/internal/models"
)

func (s *Service) CreateReview(ctx context.Context, review *models.Review) error {
	return translate(s.db(ctx).Create(review).Error, "review")
}

func (s *Service) GetReview(ctx context.Context, id string) (*models.Review, error) {
	var review models.Review
	if err := s.db(ctx).Where("id = ?", id).First(&review).Error; err != nil {
		return nil, translate(err, "review %q", id)
	}
	return &review, nil
}

// SetReviewStatus змінює статус відгуку і записує перехід у журнал.
// Повторне встановлення того самого статусу нічого не пише.
func (s *Service) SetReviewStatus(ctx context.Context, id string, status models.ReviewStatus, actorUserID string) (*models.Review, error) {
	var review models.Review
	err := s.db(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&review).Error; err != nil {
			return translate(err, "review %q", id)
		}
		if review.Status == status {
			return nil
		}
		from := review.Status
		res := tx.Model(&models.Review{}).
			Where("id = ? AND status = ?", id, from).
			Update("status", status)
		if res.Error != nil {
			return errors.Annotatef(res.Error, "updating review %q", id)
		}
		if res.RowsAffected == 0 {
			return errors.AlreadyExistsf("concurrent status change on review %q", id)
		}

		change := models.ReviewStatusChange{
			ReviewID:   id,
			FromStatus: from,
			ToStatus:   status,
			Reason:     models.StatusChangeModeration,
		}
		if actorUserID != "" {
			change.ActorUserID = &actorUserID
		}
		if err := tx.Create(&change).Error; err != nil {
			return errors.Annotate(err, "logging review status change")
		}
		review.Status = status
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// ReviewsForProfile повертає відгуки профілю з указаними статусами, новіші першими.
func (s *Service) ReviewsForProfile(ctx context.Context, profileID string, statuses ...models.ReviewStatus) ([]models.Review, error) {
	q := s.db(ctx).Where("target_profile_id = ?", profileID)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	var reviews []models.Review
	if err := q.Order("created_at DESC").Order("id DESC").Find(&reviews).Error; err != nil {
		return nil, errors.Annotatef(err, "listing reviews of profile %q", profileID)
	}
	return reviews, nil
}

func (s *Service) ReviewsByReviewer(ctx context.Context, userID string) ([]models.Review, error) {
	var reviews []models.Review
	if err := s.db(ctx).Where("reviewer_user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Find(&reviews).Error; err != nil {
		return nil, errors.Annotatef(err, "listing reviews by user %q", userID)
	}
	return reviews, nil
}

func (s *Service) CountReviewsByReviewer(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := s.db(ctx).Model(&models.Review{}).Where("reviewer_user_id = ?", userID).Count(&count).Error
	return count, errors.Trace(err)
}

func (s *Service) ReviewHistory(ctx context.Context, reviewID string) ([]models.ReviewStatusChange, error) {
	var changes []models.ReviewStatusChange
	if err := s.db(ctx).Where("review_id = ?", reviewID).
		Order("created_at ASC").Order("id ASC").
		Find(&changes).Error; err != nil {
		return nil, errors.Annotatef(err, "loading history of review %q", reviewID)
	}
	return changes, nil
}

// RatingCounts рахує опубліковані відгуки профілю за кожною оцінкою.
func (s *Service) RatingCounts(ctx context.Context, profileID string) (map[int]int, error) {
	var rows []struct {
		Rating int
		Count  int
	}
	err := s.db(ctx).Model(&models.Review{}).
		Select("rating, COUNT(*) AS count").
		Where("target_profile_id = ? AND status = ?", profileID, models.ReviewPublished).
		Group("rating").
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Annotatef(err, "counting ratings of profile %q", profileID)
	}
	out := make(map[int]int, len(rows))
	for _, r := range rows {
		out[r.Rating] = r.Count
	}
	return out, nil
}
