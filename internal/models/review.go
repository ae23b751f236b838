package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReviewStatus string

const (
	ReviewPending   ReviewStatus = "pending"
	ReviewPublished ReviewStatus = "published"
	ReviewHidden    ReviewStatus = "hidden"
)

// Valid reports whether s is one of the three review states.
func (s ReviewStatus) Valid() bool {
	switch s {
	case ReviewPending, ReviewPublished, ReviewHidden:
		return true
	}
	return false
}

// Review: незмінний запис оцінки. Змінюється лише Status,
// і кожна зміна пишеться в ReviewStatusChange.
type Review struct {
	ID              string       `gorm:"primaryKey;size:36" json:"id"`
	ReviewerUserID  string       `gorm:"size:36;not null;index" json:"reviewerUserId"`
	Reviewer        *User        `gorm:"foreignKey:ReviewerUserID;constraint:OnDelete:RESTRICT" json:"-"`
	TargetProfileID string       `gorm:"size:36;not null;index" json:"targetProfileId"`
	Target          *Profile     `gorm:"foreignKey:TargetProfileID;constraint:OnDelete:RESTRICT" json:"-"`
	Rating          int          `gorm:"not null;check:chk_reviews_rating,rating >= 1 AND rating <= 5" json:"rating"`
	Text            string       `gorm:"not null" json:"text"`
	Status          ReviewStatus `gorm:"size:16;not null;index" json:"status"`
	CreatedAt       time.Time    `gorm:"index" json:"createdAt"`
}

func (r *Review) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return
}

// ReviewStatusChange: журнал переходів стану відгуку.
// ActorUserID порожній, коли перехід спричинив claim профілю.
type ReviewStatusChange struct {
	ID          string       `gorm:"primaryKey;size:36" json:"id"`
	ReviewID    string       `gorm:"size:36;not null;index" json:"reviewId"`
	FromStatus  ReviewStatus `gorm:"size:16;not null" json:"from"`
	ToStatus    ReviewStatus `gorm:"size:16;not null" json:"to"`
	ActorUserID *string      `gorm:"size:36" json:"actorUserId,omitempty"`
	Reason      string       `gorm:"size:32;not null" json:"reason"`
	CreatedAt   time.Time    `json:"createdAt"`
}

const (
	StatusChangeClaim      = "claim"
	StatusChangeModeration = "moderation"
)

func (c *ReviewStatusChange) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return
}

// ReviewWithReviewer is a review plus what viewers may see about its author.
// Reviewer is nil when the author has been banned.
type ReviewWithReviewer struct {
	Review
	Reviewer *UserSummary `json:"reviewer"`
}

// RatingStats aggregates the published reviews of one profile.
type RatingStats struct {
	Average   float64     `json:"average"`
	Count     int         `json:"count"`
	Breakdown map[int]int `json:"breakdown"`
}
