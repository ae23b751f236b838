// Package profile owns person-profiles: creation, search, the visibility
// contract for reads, owner edits and the claim flow.
package profile

import (
	"context"
	"strings"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"go.uber.org/zap"

	"repute/backend/internal/config"
	"repute/backend/internal/models"
)

type State interface {
	CreateProfile(ctx context.Context, profile *models.Profile) error
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	GetProfileByOwner(ctx context.Context, userID string) (*models.Profile, error)
	SearchProfiles(ctx context.Context, query, location string, limit int) ([]models.Profile, error)
	UpdateProfile(ctx context.Context, id string, fields map[string]interface{}) (*models.Profile, error)
	ClaimProfile(ctx context.Context, profileID, userID string) (*models.Profile, error)
	RecordProfileView(ctx context.Context, profileID, viewerUserID string) error
	CountProfileViews(ctx context.Context, profileID string) (int64, error)
	CountReviewsByReviewer(ctx context.Context, userID string) (int64, error)
	IsFollowing(ctx context.Context, userID, profileID string) (bool, error)
}

// ReviewReader is the part of the review engine a profile page needs.
type ReviewReader interface {
	ListForProfile(ctx context.Context, profileID string, includeHidden bool) ([]models.ReviewWithReviewer, error)
	Stats(ctx context.Context, profileID string) (*models.RatingStats, error)
}

type Registry struct {
	st      State
	reviews ReviewReader
	clock   clock.Clock
	logger  *zap.Logger
}

func NewRegistry(st State, reviews ReviewReader, clk clock.Clock, logger *zap.Logger) *Registry {
	if clk == nil {
		clk = clock.WallClock
	}
	return &Registry{st: st, reviews: reviews, clock: clk, logger: logger}
}

// CreateRequest describes a profile added by an admin. A non-empty
// OwnerUserID makes the profile claimed by that user right away.
type CreateRequest struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Location     string `json:"location"`
	ContactEmail string `json:"contactEmail"`
	ContactPhone string `json:"contactPhone"`
	OwnerUserID  string `json:"ownerUserId"`
}

func (r *Registry) Create(ctx context.Context, actor models.Identity, req CreateRequest) (*models.Profile, error) {
	if !actor.IsAdmin() {
		return nil, errors.Forbiddenf("admin role required")
	}
	p := &models.Profile{
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Location:     strings.TrimSpace(req.Location),
		ContactEmail: strings.TrimSpace(req.ContactEmail),
		ContactPhone: strings.TrimSpace(req.ContactPhone),
	}
	if p.FirstName == "" || p.LastName == "" {
		return nil, errors.NewNotValid(nil, "first and last name are required")
	}
	if owner := strings.TrimSpace(req.OwnerUserID); owner != "" {
		now := r.clock.Now().UTC()
		p.OwnerUserID = &owner
		p.Claimed = true
		p.ClaimedAt = &now
		// Contact details only describe a nominee before claim.
		p.ContactEmail, p.ContactPhone = "", ""
	}
	if err := r.st.CreateProfile(ctx, p); err != nil {
		return nil, errors.Trace(err)
	}
	r.logger.Info("profile created", zap.String("profile_id", p.ID), zap.Bool("claimed", p.Claimed))
	return p, nil
}

// Get applies the read contract: the owner always sees the profile, anyone
// else only while it is public. A private profile is refused, not redacted.
func (r *Registry) Get(ctx context.Context, viewer models.Identity, id string) (*models.Profile, error) {
	p, err := r.st.GetProfile(ctx, id)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if !p.IsPublic() && !p.IsOwnedBy(viewer.UserID) {
		return nil, errors.Forbiddenf("profile %q is private", id)
	}
	return p, nil
}

func (r *Registry) GetByOwner(ctx context.Context, actor models.Identity) (*models.Profile, error) {
	if actor.IsAnonymous() {
		return nil, errors.Unauthorizedf("login required")
	}
	p, err := r.st.GetProfileByOwner(ctx, actor.UserID)
	return p, errors.Trace(err)
}

// Page is everything a profile screen shows.
type Page struct {
	Profile *models.Profile             `json:"profile"`
	Stats   *models.RatingStats         `json:"stats,omitempty"`
	Reviews []models.ReviewWithReviewer `json:"reviews"`
	// ReviewsHidden is set when the owner keeps reviews private from this viewer.
	ReviewsHidden bool `json:"reviewsHidden"`
	IsOwner       bool `json:"isOwner"`
	IsFollowing   bool `json:"isFollowing"`
}

// View reads a profile page and records the view. Reviews are shown when
// reviewsVisibility is public or the viewer is the owner; includeHidden is
// honoured for the owner only.
func (r *Registry) View(ctx context.Context, viewer models.Identity, id string, includeHidden bool) (*Page, error) {
	p, err := r.Get(ctx, viewer, id)
	if err != nil {
		return nil, err
	}
	page := &Page{Profile: p, IsOwner: p.IsOwnedBy(viewer.UserID), Reviews: []models.ReviewWithReviewer{}}

	if !page.IsOwner {
		if err := r.st.RecordProfileView(ctx, p.ID, viewer.UserID); err != nil {
			return nil, errors.Trace(err)
		}
	}
	if !viewer.IsAnonymous() && !page.IsOwner {
		if page.IsFollowing, err = r.st.IsFollowing(ctx, viewer.UserID, p.ID); err != nil {
			return nil, errors.Trace(err)
		}
	}

	if p.ReviewsVisibility != models.VisibilityPublic && !page.IsOwner {
		page.ReviewsHidden = true
		return page, nil
	}
	if page.Stats, err = r.reviews.Stats(ctx, p.ID); err != nil {
		return nil, errors.Trace(err)
	}
	if page.Reviews, err = r.reviews.ListForProfile(ctx, p.ID, includeHidden && page.IsOwner); err != nil {
		return nil, errors.Trace(err)
	}
	return page, nil
}

// Search matches public profiles by name and optional location.
// An empty query yields an empty result.
func (r *Registry) Search(ctx context.Context, query, location string) ([]models.Profile, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.Profile{}, nil
	}
	profiles, err := r.st.SearchProfiles(ctx, query, location, config.SearchResultLimit)
	return profiles, errors.Trace(err)
}

// Patch lists the owner-editable fields. Nil fields are left unchanged.
type Patch struct {
	FirstName         *string            `json:"firstName"`
	LastName          *string            `json:"lastName"`
	Location          *string            `json:"location"`
	ProfileVisibility *models.Visibility `json:"profileVisibility"`
	ReviewsVisibility *models.Visibility `json:"reviewsVisibility"`
}

func (r *Registry) Update(ctx context.Context, actor models.Identity, id string, patch Patch) (*models.Profile, error) {
	if actor.IsAnonymous() {
		return nil, errors.Unauthorizedf("login required")
	}
	p, err := r.st.GetProfile(ctx, id)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if !p.IsOwnedBy(actor.UserID) {
		return nil, errors.Forbiddenf("only the owner may edit profile %q", id)
	}

	fields, err := patch.fields()
	if err != nil {
		return nil, err
	}
	updated, err := r.st.UpdateProfile(ctx, id, fields)
	if err != nil {
		return nil, errors.Trace(err)
	}
	r.logger.Debug("profile updated", zap.String("profile_id", id), zap.Int("fields", len(fields)))
	return updated, nil
}

func (p Patch) fields() (map[string]interface{}, error) {
	fields := make(map[string]interface{})
	name := func(col string, v *string) error {
		if v == nil {
			return nil
		}
		s := strings.TrimSpace(*v)
		if s == "" {
			return errors.NotValidf("empty %s", col)
		}
		fields[col] = s
		return nil
	}
	if err := name("first_name", p.FirstName); err != nil {
		return nil, err
	}
	if err := name("last_name", p.LastName); err != nil {
		return nil, err
	}
	if p.Location != nil {
		fields["location"] = strings.TrimSpace(*p.Location)
	}
	for col, v := range map[string]*models.Visibility{
		"profile_visibility": p.ProfileVisibility,
		"reviews_visibility": p.ReviewsVisibility,
	} {
		if v == nil {
			continue
		}
		if !v.Valid() {
			return nil, errors.NotValidf("%s %q", col, *v)
		}
		fields[col] = *v
	}
	return fields, nil
}

// Claim makes the caller the owner of an unclaimed profile. Pending reviews
// on it are published in the same transaction.
func (r *Registry) Claim(ctx context.Context, actor models.Identity, id string) (*models.Profile, error) {
	if actor.IsAnonymous() {
		return nil, errors.Unauthorizedf("login required")
	}
	p, err := r.st.ClaimProfile(ctx, id, actor.UserID)
	if err != nil {
		return nil, errors.Trace(err)
	}
	r.logger.Info("profile claimed", zap.String("profile_id", id), zap.String("user_id", actor.UserID))
	return p, nil
}

// Analytics returns the caller's dashboard counters. A user without a
// profile has no views or received reviews.
func (r *Registry) Analytics(ctx context.Context, actor models.Identity) (*models.Analytics, error) {
	if actor.IsAnonymous() {
		return nil, errors.Unauthorizedf("login required")
	}
	out := &models.Analytics{}
	var err error
	if out.ReviewsGiven, err = r.st.CountReviewsByReviewer(ctx, actor.UserID); err != nil {
		return nil, errors.Trace(err)
	}

	p, err := r.st.GetProfileByOwner(ctx, actor.UserID)
	if errors.Is(err, errors.NotFound) {
		return out, nil
	}
	if err != nil {
		return nil, errors.Trace(err)
	}
	if out.ProfileViews, err = r.st.CountProfileViews(ctx, p.ID); err != nil {
		return nil, errors.Trace(err)
	}
	stats, err := r.reviews.Stats(ctx, p.ID)
	if err != nil {
		return nil, errors.Trace(err)
	}
	out.ReviewsReceived = int64(stats.Count)
	return out, nil
}
