package storage

import (
	"context"
	"time"

	"github.com/juju/errors"

	"repute/backend/internal/models"
)

// RecordProfileView додає запис у журнал переглядів. viewerUserID порожній
// для анонімного перегляду.
func (s *Service) RecordProfileView(ctx context.Context, profileID, viewerUserID string) error {
	view := models.ProfileView{
		ID:              s.node.Generate().Int64(),
		TargetProfileID: profileID,
		CreatedAt:       s.now(),
	}
	if viewerUserID != "" {
		view.ViewerUserID = &viewerUserID
	}
	return translate(s.db(ctx).Create(&view).Error, "view of profile %q", profileID)
}

func (s *Service) CountProfileViews(ctx context.Context, profileID string) (int64, error) {
	var count int64
	err := s.db(ctx).Model(&models.ProfileView{}).Where("target_profile_id = ?", profileID).Count(&count).Error
	return count, errors.Trace(err)
}

type profileCount struct {
	ProfileID string
	Count     int64
}

// PublicViewCountsSince рахує перегляди публічних профілів починаючи з since.
func (s *Service) PublicViewCountsSince(ctx context.Context, since time.Time) (map[string]int64, error) {
	var rows []profileCount
	err := s.db(ctx).Model(&models.ProfileView{}).
		Select("profile_views.target_profile_id AS profile_id, COUNT(*) AS count").
		Joins("JOIN people_profiles ON people_profiles.id = profile_views.target_profile_id").
		Where("profile_views.created_at >= ? AND people_profiles.profile_visibility = ?", since, models.VisibilityPublic).
		Group("profile_views.target_profile_id").
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Annotate(err, "counting profile views")
	}
	return toCountMap(rows), nil
}

// PublicReviewCountsSince рахує опубліковані відгуки починаючи з since. Профілі,
// що приховали профіль або відгуки, не враховуються.
func (s *Service) PublicReviewCountsSince(ctx context.Context, since time.Time) (map[string]int64, error) {
	var rows []profileCount
	err := s.db(ctx).Model(&models.Review{}).
		Select("reviews.target_profile_id AS profile_id, COUNT(*) AS count").
		Joins("JOIN people_profiles ON people_profiles.id = reviews.target_profile_id").
		Where("reviews.created_at >= ? AND reviews.status = ? AND people_profiles.profile_visibility = ? AND people_profiles.reviews_visibility = ?",
			since, models.ReviewPublished, models.VisibilityPublic, models.VisibilityPublic).
		Group("reviews.target_profile_id").
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Annotate(err, "counting recent reviews")
	}
	return toCountMap(rows), nil
}

func toCountMap(rows []profileCount) map[string]int64 {
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.ProfileID] = r.Count
	}
	return out
}
