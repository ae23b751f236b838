package storage

import (
	"context"

	"github.com/juju/errors"
	"gorm.io/gorm"

	"repute/backend/internal/models"
)

// CreateUserWithProfile створює користувача разом із його власним,
// одразу заявленим профілем в одній транзакції.
func (s *Service) CreateUserWithProfile(ctx context.Context, user *models.User, profile *models.Profile) error {
	return s.db(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return translate(err, "user %q", user.Email)
		}
		claimedAt := s.now()
		profile.OwnerUserID = &user.ID
		profile.Claimed = true
		profile.ClaimedAt = &claimedAt
		if err := tx.Create(profile).Error; err != nil {
			return translate(err, "profile for user %q", user.ID)
		}
		return nil
	})
}

// CreateUserAcceptingInvite створює користувача і одразу приймає запрошення:
// замість нового профілю користувач отримує номінований. Якщо токен недійсний,
// користувач теж не створюється.
func (s *Service) CreateUserAcceptingInvite(ctx context.Context, user *models.User, token string) (*models.Nomination, *models.Profile, error) {
	var (
		nomination *models.Nomination
		profile    *models.Profile
	)
	err := s.db(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return translate(err, "user %q", user.Email)
		}
		var err error
		nomination, profile, err = s.acceptNomination(tx, token, user.ID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return nomination, profile, nil
}

func (s *Service) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, translate(err, "user %q", id)
	}
	return &user, nil
}

// GetUserByEmail шукає серед активних (не забанених) користувачів.
func (s *Service) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db(ctx).Where("email = ?", models.NormalizeEmail(email)).First(&user).Error; err != nil {
		return nil, translate(err, "user")
	}
	return &user, nil
}

// UserExistsByEmail враховує й забанених: їхній email лишається зайнятим.
func (s *Service) UserExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := s.db(ctx).Unscoped().Model(&models.User{}).
		Where("email = ?", models.NormalizeEmail(email)).
		Count(&count).Error
	return count > 0, errors.Trace(err)
}

func (s *Service) UserExistsByUsername(ctx context.Context, username string) (bool, error) {
	var count int64
	err := s.db(ctx).Unscoped().Model(&models.User{}).
		Where("username = ?", username).
		Count(&count).Error
	return count > 0, errors.Trace(err)
}

// UpdateUser оновлює лише передані колонки.
func (s *Service) UpdateUser(ctx context.Context, id string, fields map[string]interface{}) (*models.User, error) {
	if len(fields) > 0 {
		res := s.db(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields)
		if res.Error != nil {
			return nil, translate(res.Error, "user %q", id)
		}
		if res.RowsAffected == 0 {
			return nil, errors.NotFoundf("user %q", id)
		}
	}
	return s.GetUser(ctx, id)
}

func (s *Service) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db(ctx).Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, errors.Annotate(err, "listing users")
	}
	return users, nil
}

// UserSummaries повертає публічні дані активних користувачів за ID.
// Забанених у мапі немає.
func (s *Service) UserSummaries(ctx context.Context, ids []string) (map[string]*models.UserSummary, error) {
	out := make(map[string]*models.UserSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var users []models.User
	if err := s.db(ctx).Where("id IN ?", unique(ids)).Find(&users).Error; err != nil {
		return nil, errors.Annotate(err, "loading users")
	}
	for i := range users {
		out[users[i].ID] = users[i].Summary()
	}
	return out, nil
}

// BanUser позначає користувача видаленим (tombstone) і закриває всі його сесії.
// Відгуки, скарги та профіль лишаються в базі.
func (s *Service) BanUser(ctx context.Context, id string) error {
	res := s.db(ctx).Where("id = ?", id).Delete(&models.User{})
	if res.Error != nil {
		return errors.Annotatef(res.Error, "banning user %q", id)
	}
	if res.RowsAffected == 0 {
		return errors.NotFoundf("user %q", id)
	}
	if s.Redis == nil {
		return nil
	}
	return errors.Annotate(s.DeleteUserSessions(ctx, id), "revoking sessions")
}

func unique(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
