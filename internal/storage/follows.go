package storage

import (
	"context"

	"github.com/juju/errors"
	"gorm.io/gorm/clause"

	"repute/backend/internal/models"
)

// Follow підписує користувача на профіль. Повторна підписка нічого не змінює.
func (s *Service) Follow(ctx context.Context, userID, profileID string) error {
	follow := models.Follow{FollowerUserID: userID, TargetProfileID: profileID}
	err := s.db(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "follower_user_id"}, {Name: "target_profile_id"}},
		DoNothing: true,
	}).Create(&follow).Error
	return translate(err, "follow of profile %q", profileID)
}

func (s *Service) Unfollow(ctx context.Context, userID, profileID string) error {
	err := s.db(ctx).
		Where("follower_user_id = ? AND target_profile_id = ?", userID, profileID).
		Delete(&models.Follow{}).Error
	return errors.Annotatef(err, "unfollowing profile %q", profileID)
}

func (s *Service) IsFollowing(ctx context.Context, userID, profileID string) (bool, error) {
	var count int64
	err := s.db(ctx).Model(&models.Follow{}).
		Where("follower_user_id = ? AND target_profile_id = ?", userID, profileID).
		Count(&count).Error
	return count > 0, errors.Trace(err)
}

func (s *Service) FollowedProfileIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := s.db(ctx).Model(&models.Follow{}).
		Where("follower_user_id = ?", userID).
		Pluck("target_profile_id", &ids).Error
	return ids, errors.Annotate(err, "listing followed profiles")
}
