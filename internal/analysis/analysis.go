// Package analysis scores profile activity for the trending view.
// Each activity kind carries a weight; a profile's score is the weighted sum
// of its activity counts inside the trending window.
package analysis

import (
	"sort"

	"repute/backend/internal/config"
)

const (
	KindView   = "view"
	KindReview = "review"
)

// GetWeight returns the weight of an activity kind.
// It returns 0 if the kind is not recognized.
func GetWeight(kind string) int {
	return config.ActivityWeights[kind]
}

// Score combines view and review counts into a trending score.
func Score(views, reviews int64) int64 {
	return views*int64(GetWeight(KindView)) + reviews*int64(GetWeight(KindReview))
}

// Ranked is a profile ID with its counts and score.
type Ranked struct {
	ProfileID string
	Views     int64
	Reviews   int64
	Score     int64
}

// Top ranks every profile present in either count map and returns the best
// limit entries. Ties are broken by profile ID so the order is stable.
func Top(views, reviews map[string]int64, limit int) []Ranked {
	ranked := make([]Ranked, 0, len(views)+len(reviews))
	seen := make(map[string]struct{}, len(views)+len(reviews))
	add := func(id string) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		r := Ranked{ProfileID: id, Views: views[id], Reviews: reviews[id]}
		r.Score = Score(r.Views, r.Reviews)
		if r.Score > 0 {
			ranked = append(ranked, r)
		}
	}
	for id := range views {
		add(id)
	}
	for id := range reviews {
		add(id)
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].ProfileID < ranked[j].ProfileID
	})
	if limit >= 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
