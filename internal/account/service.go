// Package account holds user records: signup, credential checks and
// self-service settings.
package account

import (
	"context"
	"strings"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"go.uber.org/zap"

	"repute/backend/internal/config"
	"repute/backend/internal/models"
)

// State describes the persistence the account service needs.
type State interface {
	CreateUserWithProfile(ctx context.Context, user *models.User, profile *models.Profile) error
	CreateUserAcceptingInvite(ctx context.Context, user *models.User, token string) (*models.Nomination, *models.Profile, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UserExistsByEmail(ctx context.Context, email string) (bool, error)
	UserExistsByUsername(ctx context.Context, username string) (bool, error)
	UpdateUser(ctx context.Context, id string, fields map[string]interface{}) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
}

// Service handles the business logic for accounts.
type Service struct {
	st     State
	hasher PasswordHasher
	clock  clock.Clock
	logger *zap.Logger

	// dummyHash is compared against when the email is unknown so a failed
	// login costs the same either way.
	dummyHash string
}

// NewService creates a new account service.
func NewService(st State, hasher PasswordHasher, clk clock.Clock, logger *zap.Logger) *Service {
	dummy, _ := hasher.Hash("not-a-real-password")
	return &Service{
		st:        st,
		hasher:    hasher,
		clock:     clk,
		logger:    logger,
		dummyHash: dummy,
	}
}

// SignupRequest carries the fields of a new account. AcceptTerms is the
// consent artifact and must be true. When InviteToken is set the nominated
// profile is claimed instead of creating a self-profile.
type SignupRequest struct {
	Email       string
	Username    string
	Password    string
	FirstName   string
	LastName    string
	Location    string
	AcceptTerms bool
	InviteToken string
}

type SignupResult struct {
	User       *models.User
	Profile    *models.Profile
	Nomination *models.Nomination
}

// Signup validates req, then creates the user and its profile atomically.
func (s *Service) Signup(ctx context.Context, req SignupRequest) (*SignupResult, error) {
	req.Email = models.NormalizeEmail(req.Email)
	req.Username = strings.TrimSpace(req.Username)
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Location = strings.TrimSpace(req.Location)

	if err := validateSignup(req); err != nil {
		return nil, err
	}

	if exists, err := s.st.UserExistsByEmail(ctx, req.Email); err != nil {
		return nil, errors.Trace(err)
	} else if exists {
		return nil, errors.AlreadyExistsf("email %q", req.Email)
	}
	if exists, err := s.st.UserExistsByUsername(ctx, req.Username); err != nil {
		return nil, errors.Trace(err)
	} else if exists {
		return nil, errors.AlreadyExistsf("username %q", req.Username)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, errors.Annotate(err, "hashing password")
	}

	user := &models.User{
		Email:           req.Email,
		Username:        req.Username,
		PasswordHash:    hash,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Location:        req.Location,
		TermsAcceptedAt: s.clock.Now().UTC(),
	}

	result := &SignupResult{User: user}
	if req.InviteToken != "" {
		nomination, profile, err := s.st.CreateUserAcceptingInvite(ctx, user, req.InviteToken)
		if err != nil {
			return nil, errors.Trace(err)
		}
		result.Profile = profile
		result.Nomination = nomination
		s.logger.Info("user signed up via invitation",
			zap.String("user_id", user.ID),
			zap.String("profile_id", profile.ID),
			zap.String("nomination_id", nomination.ID))
		return result, nil
	}

	profile := &models.Profile{
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Location:  user.Location,
	}
	if err := s.st.CreateUserWithProfile(ctx, user, profile); err != nil {
		return nil, errors.Trace(err)
	}
	result.Profile = profile
	s.logger.Info("user signed up", zap.String("user_id", user.ID), zap.String("profile_id", profile.ID))
	return result, nil
}

func validateSignup(req SignupRequest) error {
	switch {
	case !req.AcceptTerms:
		return errors.NewNotValid(nil, "terms of service must be accepted")
	case req.Email == "" || !strings.Contains(req.Email, "@"):
		return errors.NewNotValid(nil, "email is invalid")
	case req.Username == "":
		return errors.NewNotValid(nil, "username is required")
	case req.FirstName == "":
		return errors.NewNotValid(nil, "first name is required")
	case req.LastName == "":
		return errors.NewNotValid(nil, "last name is required")
	case len(req.Password) < config.MinPasswordLength:
		return errors.NotValidf("password shorter than %d characters", config.MinPasswordLength)
	}
	return nil
}

// ValidateCredentials returns the user for a matching email and password.
// Every failure is the same Unauthorized error.
func (s *Service) ValidateCredentials(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.st.GetUserByEmail(ctx, email)
	if errors.Is(err, errors.NotFound) {
		_ = s.hasher.Compare(s.dummyHash, password)
		return nil, errors.Unauthorizedf("invalid email or password")
	}
	if err != nil {
		return nil, errors.Trace(err)
	}
	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return nil, errors.Unauthorizedf("invalid email or password")
	}
	return user, nil
}

func (s *Service) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.st.GetUser(ctx, id)
	return user, errors.Trace(err)
}

// SettingsPatch lists the self-service fields; nil means unchanged.
type SettingsPatch struct {
	FirstName   *string
	LastName    *string
	Bio         *string
	Location    *string
	PhotoURL    *string
	PhoneNumber *string
}

// UpdateSettings applies patch to the caller's own account. Changing the
// phone number drops its verification.
func (s *Service) UpdateSettings(ctx context.Context, actor models.Identity, patch SettingsPatch) (*models.User, error) {
	if actor.IsAnonymous() {
		return nil, errors.Unauthorizedf("login required")
	}
	current, err := s.st.GetUser(ctx, actor.UserID)
	if err != nil {
		return nil, errors.Trace(err)
	}

	fields := map[string]interface{}{}
	setRequired := func(col string, v *string) error {
		if v == nil {
			return nil
		}
		if trimmed := strings.TrimSpace(*v); trimmed != "" {
			fields[col] = trimmed
			return nil
		}
		return errors.NewNotValid(nil, strings.ReplaceAll(col, "_", " ")+" is required")
	}
	if err := setRequired("first_name", patch.FirstName); err != nil {
		return nil, err
	}
	if err := setRequired("last_name", patch.LastName); err != nil {
		return nil, err
	}
	if patch.Bio != nil {
		fields["bio"] = strings.TrimSpace(*patch.Bio)
	}
	if patch.Location != nil {
		fields["location"] = strings.TrimSpace(*patch.Location)
	}
	if patch.PhotoURL != nil {
		fields["photo_url"] = strings.TrimSpace(*patch.PhotoURL)
	}
	if patch.PhoneNumber != nil {
		phone := strings.TrimSpace(*patch.PhoneNumber)
		if phone != current.PhoneNumber {
			fields["phone_number"] = phone
			fields["phone_verified"] = false
			fields["phone_verified_at"] = nil
		}
	}

	user, err := s.st.UpdateUser(ctx, actor.UserID, fields)
	return user, errors.Trace(err)
}

// VerifyPhone marks the caller's phone number as verified. There is no real
// verification behind it.
func (s *Service) VerifyPhone(ctx context.Context, actor models.Identity) (*models.User, error) {
	if actor.IsAnonymous() {
		return nil, errors.Unauthorizedf("login required")
	}
	current, err := s.st.GetUser(ctx, actor.UserID)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if current.PhoneNumber == "" {
		return nil, errors.NewNotValid(nil, "phone number is required")
	}
	user, err := s.st.UpdateUser(ctx, actor.UserID, map[string]interface{}{
		"phone_verified":    true,
		"phone_verified_at": s.clock.Now().UTC(),
	})
	return user, errors.Trace(err)
}

// ListUsers returns every active account. Admin only.
func (s *Service) ListUsers(ctx context.Context, actor models.Identity) ([]models.User, error) {
	if !actor.IsAdmin() {
		return nil, errors.Forbiddenf("admin role required")
	}
	users, err := s.st.ListUsers(ctx)
	return users, errors.Trace(err)
}

// Promote grants the admin role to the account with the given email.
// It is an operator action with no caller identity.
func (s *Service) Promote(ctx context.Context, email string) (*models.User, error) {
	user, err := s.st.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, errors.Trace(err)
	}
	user, err = s.st.UpdateUser(ctx, user.ID, map[string]interface{}{"role": models.RoleAdmin})
	if err != nil {
		return nil, errors.Trace(err)
	}
	s.logger.Info("user promoted to admin", zap.String("user_id", user.ID))
	return user, nil
}
