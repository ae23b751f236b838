package config

import "time"

const (
	// Review
	MinRating           = 1
	MaxRating           = 5
	ReviewTextMaxLength = 150

	// Search
	SearchResultLimit = 50

	// Feed
	FeedReviewLimit = 50
	FeedClaimLimit  = 20
	FeedLimit       = 50

	// Trending
	TrendingLimit        = 10
	TrendingWindow       = 7 * 24 * time.Hour
	TrendingViewWeight   = 1
	TrendingReviewWeight = 10

	// Account
	MinPasswordLength = 6
	SessionDuration   = 7 * 24 * time.Hour
)

// ActivityWeights maps an activity kind to its contribution to the trending score.
var ActivityWeights = map[string]int{
	"view":   TrendingViewWeight,
	"review": TrendingReviewWeight,
}
