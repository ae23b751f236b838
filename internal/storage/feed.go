package storage

import (
	"context"

	"github.com/juju/errors"

	"repute/backend/internal/models"
)

// FeedReviews повертає опубліковані відгуки на публічні профілі з публічними
// відгуками, новіші першими. Якщо profileIDs не nil, лише відгуки на ці профілі.
func (s *Service) FeedReviews(ctx context.Context, profileIDs []string, limit int) ([]models.Review, error) {
	q := s.db(ctx).Model(&models.Review{}).
		Select("reviews.*").
		Joins("JOIN people_profiles ON people_profiles.id = reviews.target_profile_id").
		Where("reviews.status = ? AND people_profiles.profile_visibility = ? AND people_profiles.reviews_visibility = ?",
			models.ReviewPublished, models.VisibilityPublic, models.VisibilityPublic)
	if profileIDs != nil {
		if len(profileIDs) == 0 {
			return []models.Review{}, nil
		}
		q = q.Where("reviews.target_profile_id IN ?", profileIDs)
	}

	var reviews []models.Review
	if err := q.Order("reviews.created_at DESC").Order("reviews.id DESC").Limit(limit).Find(&reviews).Error; err != nil {
		return nil, errors.Annotate(err, "loading feed reviews")
	}
	return reviews, nil
}

// FeedClaimedProfiles повертає заявлені публічні профілі за claimed_at, новіші першими.
func (s *Service) FeedClaimedProfiles(ctx context.Context, profileIDs []string, limit int) ([]models.Profile, error) {
	q := s.db(ctx).
		Where("claimed = ? AND claimed_at IS NOT NULL AND profile_visibility = ?", true, models.VisibilityPublic)
	if profileIDs != nil {
		if len(profileIDs) == 0 {
			return []models.Profile{}, nil
		}
		q = q.Where("id IN ?", profileIDs)
	}

	var profiles []models.Profile
	if err := q.Order("claimed_at DESC").Order("id DESC").Limit(limit).Find(&profiles).Error; err != nil {
		return nil, errors.Annotate(err, "loading claimed profiles")
	}
	return profiles, nil
}

func (s *Service) PublicProfilesByID(ctx context.Context, ids []string) ([]models.Profile, error) {
	if len(ids) == 0 {
		return []models.Profile{}, nil
	}
	var profiles []models.Profile
	if err := s.db(ctx).
		Where("id IN ? AND profile_visibility = ?", unique(ids), models.VisibilityPublic).
		Find(&profiles).Error; err != nil {
		return nil, errors.Annotate(err, "loading profiles")
	}
	return profiles, nil
}
