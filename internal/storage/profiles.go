package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/juju/errors"
	"gorm.io/gorm"

	"repute/backend/internal/models"
)

func (s *Service) CreateProfile(ctx context.Context, profile *models.Profile) error {
	if profile.Claimed {
		if profile.OwnerUserID == nil {
			return errors.NotValidf("claimed profile without owner")
		}
		if profile.ClaimedAt == nil {
			claimedAt := s.now()
			profile.ClaimedAt = &claimedAt
		}
	} else if profile.OwnerUserID != nil || profile.ClaimedAt != nil {
		return errors.NotValidf("unclaimed profile with owner")
	}
	return translate(s.db(ctx).Create(profile).Error, "profile")
}

func (s *Service) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	var profile models.Profile
	if err := s.db(ctx).Where("id = ?", id).First(&profile).Error; err != nil {
		return nil, translate(err, "profile %q", id)
	}
	return &profile, nil
}

func (s *Service) GetProfileByOwner(ctx context.Context, userID string) (*models.Profile, error) {
	var profile models.Profile
	if err := s.db(ctx).Where("owner_user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, translate(err, "profile of user %q", userID)
	}
	return &profile, nil
}

// SearchProfiles шукає підрядок без урахування регістру в імені, прізвищі
// та "ім'я прізвище". Приватні профілі не повертаються ніколи.
func (s *Service) SearchProfiles(ctx context.Context, query, location string, limit int) ([]models.Profile, error) {
	pattern := likePattern(query)
	q := s.db(ctx).
		Where("profile_visibility = ?", models.VisibilityPublic).
		Where("(LOWER(first_name) LIKE ? ESCAPE '!' OR LOWER(last_name) LIKE ? ESCAPE '!' OR LOWER(first_name || ' ' || last_name) LIKE ? ESCAPE '!')",
			pattern, pattern, pattern)
	if location = strings.TrimSpace(location); location != "" {
		q = q.Where("LOWER(location) LIKE ? ESCAPE '!'", likePattern(location))
	}

	var profiles []models.Profile
	if err := q.Order("created_at ASC").Order("id ASC").Limit(limit).Find(&profiles).Error; err != nil {
		return nil, errors.Annotate(err, "searching profiles")
	}
	return profiles, nil
}

// UpdateProfile оновлює лише передані колонки. Колонки заявки
// (owner_user_id, claimed, claimed_at) змінюються тільки через ClaimProfile.
func (s *Service) UpdateProfile(ctx context.Context, id string, fields map[string]interface{}) (*models.Profile, error) {
	for _, col := range []string{"owner_user_id", "claimed", "claimed_at", "id"} {
		if _, ok := fields[col]; ok {
			return nil, errors.NotValidf("updating %s", col)
		}
	}
	if len(fields) > 0 {
		res := s.db(ctx).Model(&models.Profile{}).Where("id = ?", id).Updates(fields)
		if res.Error != nil {
			return nil, translate(res.Error, "profile %q", id)
		}
		if res.RowsAffected == 0 {
			return nil, errors.NotFoundf("profile %q", id)
		}
	}
	return s.GetProfile(ctx, id)
}

// ClaimProfile: єдине місце, де профіль стає заявленим.
func (s *Service) ClaimProfile(ctx context.Context, profileID, userID string) (*models.Profile, error) {
	var profile *models.Profile
	err := s.db(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		profile, err = s.claimProfile(tx, profileID, userID, s.now())
		return err
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// claimProfile виконує заявку всередині транзакції tx:
//  1. профіль, який userID уже має, звільняється (див. releaseSelfProfile);
//  2. compare-and-set по claimed = false, тож із двох паралельних заявок проходить одна;
//  3. усі pending відгуки профілю стають published, кожен перехід пишеться в журнал.
//
// Hidden відгуки не чіпаються.
func (s *Service) claimProfile(tx *gorm.DB, profileID, userID string, at time.Time) (*models.Profile, error) {
	var current models.Profile
	if err := tx.Where("id = ?", profileID).First(&current).Error; err != nil {
		return nil, translate(err, "profile %q", profileID)
	}
	if current.Claimed {
		return nil, errors.AlreadyExistsf("claim on profile %q", profileID)
	}

	if err := releaseSelfProfile(tx, userID); err != nil {
		return nil, err
	}

	res := tx.Model(&models.Profile{}).
		Where("id = ? AND claimed = ?", profileID, false).
		Updates(map[string]interface{}{
			"owner_user_id": userID,
			"claimed":       true,
			"claimed_at":    at,
		})
	if res.Error != nil {
		return nil, translate(res.Error, "profile owned by user %q", userID)
	}
	if res.RowsAffected == 0 {
		// Хтось заявив профіль між читанням і оновленням.
		return nil, errors.AlreadyExistsf("claim on profile %q", profileID)
	}

	var pending []string
	if err := tx.Model(&models.Review{}).
		Where("target_profile_id = ? AND status = ?", profileID, models.ReviewPending).
		Pluck("id", &pending).Error; err != nil {
		return nil, errors.Trace(err)
	}
	if len(pending) > 0 {
		if err := tx.Model(&models.Review{}).
			Where("id IN ? AND status = ?", pending, models.ReviewPending).
			Update("status", models.ReviewPublished).Error; err != nil {
			return nil, errors.Annotate(err, "publishing pending reviews")
		}
		changes := make([]models.ReviewStatusChange, 0, len(pending))
		for _, id := range pending {
			changes = append(changes, models.ReviewStatusChange{
				ReviewID:   id,
				FromStatus: models.ReviewPending,
				ToStatus:   models.ReviewPublished,
				Reason:     models.StatusChangeClaim,
				CreatedAt:  at,
			})
		}
		if err := tx.Create(&changes).Error; err != nil {
			return nil, errors.Annotate(err, "logging review status changes")
		}
	}

	var profile models.Profile
	if err := tx.Where("id = ?", profileID).First(&profile).Error; err != nil {
		return nil, translate(err, "profile %q", profileID)
	}
	return &profile, nil
}

// releaseSelfProfile видаляє профіль, яким userID уже володіє, щоб той міг
// заявити інший. Звичайна реєстрація створює такий профіль автоматично.
// Профіль із відгуками (будь-якого статусу) або номінацією не видаляється:
// це конфлікт.
func releaseSelfProfile(tx *gorm.DB, userID string) error {
	var owned models.Profile
	err := tx.Where("owner_user_id = ?", userID).First(&owned).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return errors.Trace(err)
	}

	var reviews, nominations int64
	if err := tx.Model(&models.Review{}).Where("target_profile_id = ?", owned.ID).Count(&reviews).Error; err != nil {
		return errors.Trace(err)
	}
	if err := tx.Model(&models.Nomination{}).Where("profile_id = ?", owned.ID).Count(&nominations).Error; err != nil {
		return errors.Trace(err)
	}
	if reviews > 0 || nominations > 0 {
		return errors.NewAlreadyExists(nil, fmt.Sprintf("user %q already owns reviewed profile %q", userID, owned.ID))
	}

	if err := tx.Where("target_profile_id = ?", owned.ID).Delete(&models.Follow{}).Error; err != nil {
		return errors.Annotate(err, "dropping follows of released profile")
	}
	if err := tx.Where("target_profile_id = ?", owned.ID).Delete(&models.ProfileView{}).Error; err != nil {
		return errors.Annotate(err, "dropping views of released profile")
	}
	res := tx.Where("id = ? AND owner_user_id = ?", owned.ID, userID).Delete(&models.Profile{})
	if res.Error != nil {
		return errors.Annotatef(res.Error, "releasing profile %q", owned.ID)
	}
	return nil
}

// likePattern екранує спецсимволи LIKE символом '!'.
func likePattern(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return "%" + r.Replace(s) + "%"
}
