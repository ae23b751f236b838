// Package nomination lets users put someone who is not on the platform yet
// up for reviews. A nomination creates an unclaimed profile and a single-use
// invite token; accepting the invite claims that profile.
package nomination

import (
	"context"
	"strings"

	"github.com/juju/errors"
	"github.com/segmentio/ksuid"
	"go.uber.org/zap"

	"repute/backend/internal/models"
)

type State interface {
	CreateNomination(ctx context.Context, nomination *models.Nomination, profile *models.Profile) error
	GetNominationByToken(ctx context.Context, token string) (*models.Nomination, error)
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	AcceptNomination(ctx context.Context, token, userID string) (*models.Nomination, *models.Profile, error)
	NominationsByNominator(ctx context.Context, userID string) ([]models.Nomination, error)
	UserSummaries(ctx context.Context, ids []string) (map[string]*models.UserSummary, error)
}

type Service struct {
	st     State
	logger *zap.Logger
}

func NewService(st State, logger *zap.Logger) *Service {
	return &Service{st: st, logger: logger}
}

// NewToken returns a fresh invite token.
func NewToken() string {
	return ksuid.New().String()
}

// Create stores an unclaimed profile and its nomination together. The
// contact is kept as an email when it contains "@", as a phone otherwise.
func (s *Service) Create(ctx context.Context, actor models.Identity, firstName, lastName, contact string) (*models.Nomination, *models.Profile, error) {
	if actor.IsAnonymous() {
		return nil, nil, errors.Unauthorizedf("login required")
	}
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	contact = strings.TrimSpace(contact)
	switch {
	case firstName == "":
		return nil, nil, errors.NewNotValid(nil, "first name is required")
	case lastName == "":
		return nil, nil, errors.NewNotValid(nil, "last name is required")
	case contact == "":
		return nil, nil, errors.NewNotValid(nil, "contact email or phone is required")
	}

	profile := &models.Profile{FirstName: firstName, LastName: lastName}
	if strings.Contains(contact, "@") {
		profile.ContactEmail = contact
	} else {
		profile.ContactPhone = contact
	}
	nomination := &models.Nomination{
		NominatorUserID:     actor.UserID,
		TargetFirstName:     firstName,
		TargetLastName:      lastName,
		ContactEmailOrPhone: contact,
		InviteToken:         NewToken(),
	}
	if err := s.st.CreateNomination(ctx, nomination, profile); err != nil {
		return nil, nil, errors.Trace(err)
	}
	s.logger.Info("nomination created",
		zap.String("nomination_id", nomination.ID),
		zap.String("profile_id", profile.ID),
		zap.String("nominator_id", actor.UserID))
	return nomination, profile, nil
}

// GetByToken resolves an invite link. No authentication is needed.
func (s *Service) GetByToken(ctx context.Context, token string) (*models.NominationLanding, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.NotFoundf("invitation")
	}
	nomination, err := s.st.GetNominationByToken(ctx, token)
	if err != nil {
		return nil, errors.Trace(err)
	}
	profile, err := s.st.GetProfile(ctx, nomination.ProfileID)
	if err != nil {
		return nil, errors.Trace(err)
	}
	summaries, err := s.st.UserSummaries(ctx, []string{nomination.NominatorUserID})
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &models.NominationLanding{
		Nomination: nomination.Summary(),
		Profile:    *profile,
		Nominator:  summaries[nomination.NominatorUserID],
	}, nil
}

// Accept spends the token and claims the nominated profile for the caller.
// An unknown or already spent token is reported as not found.
func (s *Service) Accept(ctx context.Context, actor models.Identity, token string) (*models.Nomination, *models.Profile, error) {
	if actor.IsAnonymous() {
		return nil, nil, errors.Unauthorizedf("login required")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil, errors.NotFoundf("unused invitation")
	}
	nomination, profile, err := s.st.AcceptNomination(ctx, token, actor.UserID)
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	s.logger.Info("nomination accepted",
		zap.String("nomination_id", nomination.ID),
		zap.String("profile_id", profile.ID),
		zap.String("user_id", actor.UserID))
	return nomination, profile, nil
}

func (s *Service) ListByNominator(ctx context.Context, actor models.Identity) ([]models.Nomination, error) {
	if actor.IsAnonymous() {
		return nil, errors.Unauthorizedf("login required")
	}
	nominations, err := s.st.NominationsByNominator(ctx, actor.UserID)
	return nominations, errors.Trace(err)
}
