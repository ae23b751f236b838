// Package feed builds the activity timeline: published reviews, newly claimed
// profiles and trending profiles merged into one list, optionally narrowed to
// the profiles a user follows.
package feed

import (
	"context"
	"sort"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"go.uber.org/zap"

	"repute/backend/internal/analysis"
	"repute/backend/internal/config"
	"repute/backend/internal/models"
)

type State interface {
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	FeedReviews(ctx context.Context, profileIDs []string, limit int) ([]models.Review, error)
	FeedClaimedProfiles(ctx context.Context, profileIDs []string, limit int) ([]models.Profile, error)
	PublicProfilesByID(ctx context.Context, ids []string) ([]models.Profile, error)
	PublicViewCountsSince(ctx context.Context, since time.Time) (map[string]int64, error)
	PublicReviewCountsSince(ctx context.Context, since time.Time) (map[string]int64, error)
	UserSummaries(ctx context.Context, ids []string) (map[string]*models.UserSummary, error)
	Follow(ctx context.Context, userID, profileID string) error
	Unfollow(ctx context.Context, userID, profileID string) error
	IsFollowing(ctx context.Context, userID, profileID string) (bool, error)
	FollowedProfileIDs(ctx context.Context, userID string) ([]string, error)
}

type Aggregator struct {
	st     State
	clock  clock.Clock
	logger *zap.Logger
}

func NewAggregator(st State, clk clock.Clock, logger *zap.Logger) *Aggregator {
	if clk == nil {
		clk = clock.WallClock
	}
	return &Aggregator{st: st, clock: clk, logger: logger}
}

// ParseFilter validates a filter name. An empty name means "all".
func ParseFilter(s string) (models.FeedFilter, error) {
	switch f := models.FeedFilter(s); f {
	case "":
		return models.FeedAll, nil
	case models.FeedAll, models.FeedReviews, models.FeedNewProfiles, models.FeedTrending, models.FeedFollowing:
		return f, nil
	default:
		return "", errors.NotValidf("feed filter %q", s)
	}
}

// Feed returns at most config.FeedLimit items, newest first. Trending items
// carry the query time, so they lead any view that includes them.
func (a *Aggregator) Feed(ctx context.Context, actor models.Identity, filter models.FeedFilter) ([]models.FeedItem, error) {
	if actor.IsAnonymous() {
		return nil, errors.Unauthorizedf("login required")
	}
	if _, err := ParseFilter(string(filter)); err != nil {
		return nil, err
	}
	if filter == "" {
		filter = models.FeedAll
	}

	// nil scope means every public profile.
	var scope []string
	if filter == models.FeedFollowing {
		ids, err := a.st.FollowedProfileIDs(ctx, actor.UserID)
		if err != nil {
			return nil, errors.Trace(err)
		}
		if len(ids) == 0 {
			return []models.FeedItem{}, nil
		}
		scope = ids
	}

	items := make([]models.FeedItem, 0, config.FeedLimit)
	if includes(filter, models.FeedTrending) {
		trending, err := a.trendingItems(ctx, scope)
		if err != nil {
			return nil, err
		}
		items = append(items, trending...)
	}
	if includes(filter, models.FeedReviews) {
		reviews, err := a.reviewItems(ctx, scope)
		if err != nil {
			return nil, err
		}
		items = append(items, reviews...)
	}
	if includes(filter, models.FeedNewProfiles) {
		claims, err := a.claimItems(ctx, scope)
		if err != nil {
			return nil, err
		}
		items = append(items, claims...)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	if len(items) > config.FeedLimit {
		items = items[:config.FeedLimit]
	}
	return items, nil
}

// includes reports whether a view under filter carries the given stream.
func includes(filter, stream models.FeedFilter) bool {
	return filter == stream || filter == models.FeedAll || filter == models.FeedFollowing
}

func (a *Aggregator) reviewItems(ctx context.Context, scope []string) ([]models.FeedItem, error) {
	reviews, err := a.st.FeedReviews(ctx, scope, config.FeedReviewLimit)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if len(reviews) == 0 {
		return nil, nil
	}

	profileIDs := make([]string, 0, len(reviews))
	reviewerIDs := make([]string, 0, len(reviews))
	for _, r := range reviews {
		profileIDs = append(profileIDs, r.TargetProfileID)
		reviewerIDs = append(reviewerIDs, r.ReviewerUserID)
	}
	profiles, err := a.profilesByID(ctx, profileIDs)
	if err != nil {
		return nil, err
	}
	reviewers, err := a.st.UserSummaries(ctx, reviewerIDs)
	if err != nil {
		return nil, errors.Trace(err)
	}

	items := make([]models.FeedItem, 0, len(reviews))
	for _, r := range reviews {
		p, ok := profiles[r.TargetProfileID]
		if !ok {
			continue
		}
		items = append(items, models.FeedItem{
			ID:        "review-" + r.ID,
			Type:      models.FeedItemReview,
			CreatedAt: r.CreatedAt,
			Profile:   p,
			Review:    &models.ReviewEvent{Review: r, Reviewer: reviewers[r.ReviewerUserID]},
		})
	}
	return items, nil
}

func (a *Aggregator) claimItems(ctx context.Context, scope []string) ([]models.FeedItem, error) {
	profiles, err := a.st.FeedClaimedProfiles(ctx, scope, config.FeedClaimLimit)
	if err != nil {
		return nil, errors.Trace(err)
	}
	ownerIDs := make([]string, 0, len(profiles))
	for _, p := range profiles {
		if p.OwnerUserID != nil {
			ownerIDs = append(ownerIDs, *p.OwnerUserID)
		}
	}
	owners, err := a.st.UserSummaries(ctx, ownerIDs)
	if err != nil {
		return nil, errors.Trace(err)
	}

	items := make([]models.FeedItem, 0, len(profiles))
	for _, p := range profiles {
		if p.ClaimedAt == nil || p.OwnerUserID == nil {
			continue
		}
		items = append(items, models.FeedItem{
			ID:        "claimed-" + p.ID,
			Type:      models.FeedItemProfileClaimed,
			CreatedAt: *p.ClaimedAt,
			Profile:   p,
			Claim:     &models.ClaimEvent{Owner: owners[*p.OwnerUserID]},
		})
	}
	return items, nil
}

func (a *Aggregator) trendingItems(ctx context.Context, scope []string) ([]models.FeedItem, error) {
	trending, err := a.Trending(ctx)
	if err != nil {
		return nil, err
	}
	var allowed map[string]struct{}
	if scope != nil {
		allowed = make(map[string]struct{}, len(scope))
		for _, id := range scope {
			allowed[id] = struct{}{}
		}
	}

	now := a.clock.Now().UTC()
	items := make([]models.FeedItem, 0, len(trending))
	for _, t := range trending {
		if allowed != nil {
			if _, ok := allowed[t.Profile.ID]; !ok {
				continue
			}
		}
		items = append(items, models.FeedItem{
			ID:        "trending-" + t.Profile.ID,
			Type:      models.FeedItemTrending,
			CreatedAt: now,
			Profile:   t.Profile,
			Trending:  &models.TrendingEvent{Score: t.Score, Views: t.Views, Reviews: t.Reviews},
		})
	}
	return items, nil
}

// Trending ranks public profiles by activity over the trailing window:
// each view counts once and each published review counts ten times.
func (a *Aggregator) Trending(ctx context.Context) ([]models.TrendingProfile, error) {
	since := a.clock.Now().UTC().Add(-config.TrendingWindow)
	views, err := a.st.PublicViewCountsSince(ctx, since)
	if err != nil {
		return nil, errors.Trace(err)
	}
	reviews, err := a.st.PublicReviewCountsSince(ctx, since)
	if err != nil {
		return nil, errors.Trace(err)
	}

	ranked := analysis.Top(views, reviews, config.TrendingLimit)
	ids := make([]string, 0, len(ranked))
	for _, r := range ranked {
		ids = append(ids, r.ProfileID)
	}
	profiles, err := a.profilesByID(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]models.TrendingProfile, 0, len(ranked))
	for _, r := range ranked {
		p, ok := profiles[r.ProfileID]
		if !ok {
			continue
		}
		out = append(out, models.TrendingProfile{Profile: p, Views: r.Views, Reviews: r.Reviews, Score: r.Score})
	}
	a.logger.Debug("trending computed", zap.Int("profiles", len(out)), zap.Time("since", since))
	return out, nil
}

func (a *Aggregator) profilesByID(ctx context.Context, ids []string) (map[string]models.Profile, error) {
	profiles, err := a.st.PublicProfilesByID(ctx, ids)
	if err != nil {
		return nil, errors.Trace(err)
	}
	out := make(map[string]models.Profile, len(profiles))
	for _, p := range profiles {
		out[p.ID] = p
	}
	return out, nil
}

// Follow subscribes the caller to a profile. Following twice is a no-op.
func (a *Aggregator) Follow(ctx context.Context, actor models.Identity, profileID string) error {
	if err := a.checkTarget(ctx, actor, profileID); err != nil {
		return err
	}
	return errors.Trace(a.st.Follow(ctx, actor.UserID, profileID))
}

func (a *Aggregator) Unfollow(ctx context.Context, actor models.Identity, profileID string) error {
	if err := a.checkTarget(ctx, actor, profileID); err != nil {
		return err
	}
	return errors.Trace(a.st.Unfollow(ctx, actor.UserID, profileID))
}

func (a *Aggregator) IsFollowing(ctx context.Context, actor models.Identity, profileID string) (bool, error) {
	if err := a.checkTarget(ctx, actor, profileID); err != nil {
		return false, err
	}
	following, err := a.st.IsFollowing(ctx, actor.UserID, profileID)
	return following, errors.Trace(err)
}

func (a *Aggregator) checkTarget(ctx context.Context, actor models.Identity, profileID string) error {
	if actor.IsAnonymous() {
		return errors.Unauthorizedf("login required")
	}
	_, err := a.st.GetProfile(ctx, profileID)
	return errors.Trace(err)
}
