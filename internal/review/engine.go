// Package review creates reviews, drives the pending/published/hidden state
// machine and computes rating aggregates.
package review

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/juju/errors"
	"go.uber.org/zap"

	"repute/backend/internal/config"
	"repute/backend/internal/models"
)

// State describes the persistence the review engine needs.
type State interface {
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	CreateReview(ctx context.Context, review *models.Review) error
	GetReview(ctx context.Context, id string) (*models.Review, error)
	SetReviewStatus(ctx context.Context, id string, status models.ReviewStatus, actorUserID string) (*models.Review, error)
	ReviewsForProfile(ctx context.Context, profileID string, statuses ...models.ReviewStatus) ([]models.Review, error)
	ReviewsByReviewer(ctx context.Context, userID string) ([]models.Review, error)
	ReviewHistory(ctx context.Context, reviewID string) ([]models.ReviewStatusChange, error)
	RatingCounts(ctx context.Context, profileID string) (map[int]int, error)
	UserSummaries(ctx context.Context, ids []string) (map[string]*models.UserSummary, error)
}

type Engine struct {
	st     State
	logger *zap.Logger
}

func NewEngine(st State, logger *zap.Logger) *Engine {
	return &Engine{st: st, logger: logger}
}

// Create stores a review by actor. The initial status follows the target's
// claim state as read here: published when claimed, pending otherwise.
func (e *Engine) Create(ctx context.Context, actor models.Identity, targetProfileID string, rating int, text string) (*models.Review, error) {
	if actor.IsAnonymous() {
		return nil, errors.Unauthorizedf("login required")
	}
	target, err := e.st.GetProfile(ctx, targetProfileID)
	if err != nil {
		return nil, errors.Trace(err)
	}
	// Self-review is refused before any input validation.
	if target.IsOwnedBy(actor.UserID) {
		return nil, errors.Forbiddenf("reviewing your own profile")
	}
	text = strings.TrimSpace(text)
	if err := validate(rating, text); err != nil {
		return nil, err
	}

	status := models.ReviewPending
	if target.Claimed {
		status = models.ReviewPublished
	}
	review := &models.Review{
		ReviewerUserID:  actor.UserID,
		TargetProfileID: target.ID,
		Rating:          rating,
		Text:            text,
		Status:          status,
	}
	if err := e.st.CreateReview(ctx, review); err != nil {
		return nil, errors.Trace(err)
	}
	e.logger.Debug("review created",
		zap.String("review_id", review.ID),
		zap.String("profile_id", target.ID),
		zap.String("status", string(status)))
	return review, nil
}

func validate(rating int, text string) error {
	if rating < config.MinRating || rating > config.MaxRating {
		return errors.NotValidf("rating %d, want %d to %d", rating, config.MinRating, config.MaxRating)
	}
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return errors.NewNotValid(nil, "review text is required")
	}
	if n > config.ReviewTextMaxLength {
		return errors.NotValidf("review text of %d characters, limit is %d", n, config.ReviewTextMaxLength)
	}
	return nil
}

// UpdateStatus moves a review to any of the three states. Admin only.
func (e *Engine) UpdateStatus(ctx context.Context, actor models.Identity, id string, status models.ReviewStatus) (*models.Review, error) {
	if !actor.IsAdmin() {
		return nil, errors.Forbiddenf("admin role required")
	}
	if !status.Valid() {
		return nil, errors.NotValidf("review status %q", status)
	}
	review, err := e.st.SetReviewStatus(ctx, id, status, actor.UserID)
	if err != nil {
		return nil, errors.Trace(err)
	}
	e.logger.Info("review status changed",
		zap.String("review_id", id),
		zap.String("status", string(status)),
		zap.String("admin_id", actor.UserID))
	return review, nil
}

// ListForProfile returns published reviews, newest first. includeHidden adds
// hidden ones for owner and moderation views. Pending reviews are never listed.
func (e *Engine) ListForProfile(ctx context.Context, profileID string, includeHidden bool) ([]models.ReviewWithReviewer, error) {
	statuses := []models.ReviewStatus{models.ReviewPublished}
	if includeHidden {
		statuses = append(statuses, models.ReviewHidden)
	}
	reviews, err := e.st.ReviewsForProfile(ctx, profileID, statuses...)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return e.withReviewers(ctx, reviews)
}

func (e *Engine) withReviewers(ctx context.Context, reviews []models.Review) ([]models.ReviewWithReviewer, error) {
	ids := make([]string, 0, len(reviews))
	for _, r := range reviews {
		ids = append(ids, r.ReviewerUserID)
	}
	summaries, err := e.st.UserSummaries(ctx, ids)
	if err != nil {
		return nil, errors.Trace(err)
	}
	out := make([]models.ReviewWithReviewer, 0, len(reviews))
	for _, r := range reviews {
		out = append(out, models.ReviewWithReviewer{Review: r, Reviewer: summaries[r.ReviewerUserID]})
	}
	return out, nil
}

// ListByReviewer returns every review the caller wrote, in any state.
func (e *Engine) ListByReviewer(ctx context.Context, actor models.Identity) ([]models.Review, error) {
	if actor.IsAnonymous() {
		return nil, errors.Unauthorizedf("login required")
	}
	reviews, err := e.st.ReviewsByReviewer(ctx, actor.UserID)
	return reviews, errors.Trace(err)
}

// Stats aggregates the published reviews of a profile. The average is left
// unrounded; an empty profile yields zeros.
func (e *Engine) Stats(ctx context.Context, profileID string) (*models.RatingStats, error) {
	counts, err := e.st.RatingCounts(ctx, profileID)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return Aggregate(counts), nil
}

// Aggregate builds RatingStats from per-rating counts.
func Aggregate(counts map[int]int) *models.RatingStats {
	stats := &models.RatingStats{Breakdown: make(map[int]int, config.MaxRating)}
	sum := 0
	for rating := config.MinRating; rating <= config.MaxRating; rating++ {
		n := counts[rating]
		stats.Breakdown[rating] = n
		stats.Count += n
		sum += n * rating
	}
	if stats.Count > 0 {
		stats.Average = float64(sum) / float64(stats.Count)
	}
	return stats
}

// History returns the status log of a review. Admin only.
func (e *Engine) History(ctx context.Context, actor models.Identity, id string) ([]models.ReviewStatusChange, error) {
	if !actor.IsAdmin() {
		return nil, errors.Forbiddenf("admin role required")
	}
	if _, err := e.st.GetReview(ctx, id); err != nil {
		return nil, errors.Trace(err)
	}
	changes, err := e.st.ReviewHistory(ctx, id)
	return changes, errors.Trace(err)
}
