package models

import "time"

type FeedFilter string

const (
	FeedAll         FeedFilter = "all"
	FeedReviews     FeedFilter = "reviews"
	FeedNewProfiles FeedFilter = "new_profiles"
	FeedTrending    FeedFilter = "trending"
	FeedFollowing   FeedFilter = "following"
)

type FeedItemType string

const (
	FeedItemReview         FeedItemType = "review"
	FeedItemProfileClaimed FeedItemType = "profile_claimed"
	FeedItemTrending       FeedItemType = "trending"
)

// FeedItem is one timeline entry. Type selects which payload is set:
// Review for "review", Claim for "profile_claimed", Trending for "trending".
type FeedItem struct {
	ID        string         `json:"id"`
	Type      FeedItemType   `json:"type"`
	CreatedAt time.Time      `json:"createdAt"`
	Profile   Profile        `json:"profile"`
	Review    *ReviewEvent   `json:"review,omitempty"`
	Claim     *ClaimEvent    `json:"claim,omitempty"`
	Trending  *TrendingEvent `json:"trending,omitempty"`
}

type ReviewEvent struct {
	Review   Review       `json:"review"`
	Reviewer *UserSummary `json:"reviewer"`
}

type ClaimEvent struct {
	Owner *UserSummary `json:"owner"`
}

type TrendingEvent struct {
	Score int64 `json:"score"`
	Views int64 `json:"views"`
	// Reviews counts published reviews inside the trending window.
	Reviews int64 `json:"reviews"`
}

// TrendingProfile is a public profile with its activity in the trending window.
type TrendingProfile struct {
	Profile Profile `json:"profile"`
	Views   int64   `json:"views"`
	Reviews int64   `json:"reviews"`
	Score   int64   `json:"score"`
}
