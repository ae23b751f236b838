package storage

import (
	"context"

	"github.com/juju/errors"
	"gorm.io/gorm"

	"repute/backend/internal/models"
)

// CreateNomination атомарно створює незаявлений профіль і номінацію на нього.
func (s *Service) CreateNomination(ctx context.Context, nomination *models.Nomination, profile *models.Profile) error {
	if profile.Claimed || profile.OwnerUserID != nil {
		return errors.NotValidf("nominated profile must be unclaimed")
	}
	return s.db(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(profile).Error; err != nil {
			return translate(err, "profile")
		}
		nomination.ProfileID = profile.ID
		if err := tx.Create(nomination).Error; err != nil {
			return translate(err, "nomination")
		}
		return nil
	})
}

func (s *Service) GetNominationByToken(ctx context.Context, token string) (*models.Nomination, error) {
	var nomination models.Nomination
	if err := s.db(ctx).Where("invite_token = ?", token).First(&nomination).Error; err != nil {
		return nil, translate(err, "invitation")
	}
	return &nomination, nil
}

// AcceptNomination витрачає токен і заявляє пов'язаний профіль для userID.
// Обидві дії в одній транзакції: якщо заявка не вдалася, токен лишається дійсним.
func (s *Service) AcceptNomination(ctx context.Context, token, userID string) (*models.Nomination, *models.Profile, error) {
	var (
		nomination *models.Nomination
		profile    *models.Profile
	)
	err := s.db(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		nomination, profile, err = s.acceptNomination(tx, token, userID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return nomination, profile, nil
}

func (s *Service) acceptNomination(tx *gorm.DB, token, userID string) (*models.Nomination, *models.Profile, error) {
	at := s.now()
	res := tx.Model(&models.Nomination{}).
		Where("invite_token = ? AND accepted = ?", token, false).
		Updates(map[string]interface{}{
			"accepted":            true,
			"accepted_by_user_id": userID,
			"accepted_at":         at,
		})
	if res.Error != nil {
		return nil, nil, errors.Annotate(res.Error, "spending invitation")
	}
	if res.RowsAffected == 0 {
		return nil, nil, errors.NotFoundf("unused invitation")
	}

	var nomination models.Nomination
	if err := tx.Where("invite_token = ?", token).First(&nomination).Error; err != nil {
		return nil, nil, translate(err, "invitation")
	}
	profile, err := s.claimProfile(tx, nomination.ProfileID, userID, at)
	if err != nil {
		return nil, nil, err
	}
	return &nomination, profile, nil
}

func (s *Service) NominationsByNominator(ctx context.Context, userID string) ([]models.Nomination, error) {
	var nominations []models.Nomination
	if err := s.db(ctx).Where("nominator_user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Find(&nominations).Error; err != nil {
		return nil, errors.Annotatef(err, "listing nominations by user %q", userID)
	}
	return nominations, nil
}
