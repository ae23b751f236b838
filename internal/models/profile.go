package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// Valid reports whether v is one of the known visibility values.
func (v Visibility) Valid() bool {
	return v == VisibilityPublic || v == VisibilityPrivate
}

// Profile: картка людини, на яку пишуть відгуки.
// Інваріант: Claimed == true ⇔ OwnerUserID != nil ⇔ ClaimedAt != nil.
// Унікальний індекс на owner_user_id гарантує не більше одного профілю на користувача.
type Profile struct {
	ID                string     `gorm:"primaryKey;size:36" json:"id"`
	OwnerUserID       *string    `gorm:"size:36;uniqueIndex" json:"ownerUserId"`
	Owner             *User      `gorm:"foreignKey:OwnerUserID;constraint:OnDelete:RESTRICT" json:"-"`
	FirstName         string     `gorm:"not null" json:"firstName"`
	LastName          string     `gorm:"not null" json:"lastName"`
	Location          string     `json:"location,omitempty"`
	ContactEmail      string     `json:"-"`
	ContactPhone      string     `json:"-"`
	Claimed           bool       `gorm:"not null;default:false;index" json:"claimed"`
	ClaimedAt         *time.Time `gorm:"index" json:"claimedAt"`
	ProfileVisibility Visibility `gorm:"size:16;not null;default:public" json:"profileVisibility"`
	ReviewsVisibility Visibility `gorm:"size:16;not null;default:public" json:"reviewsVisibility"`
	CreatedAt         time.Time  `json:"createdAt"`
}

func (Profile) TableName() string {
	return "people_profiles"
}

func (p *Profile) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.ProfileVisibility == "" {
		p.ProfileVisibility = VisibilityPublic
	}
	if p.ReviewsVisibility == "" {
		p.ReviewsVisibility = VisibilityPublic
	}
	return
}

// IsOwnedBy reports whether userID is the profile owner.
func (p *Profile) IsOwnedBy(userID string) bool {
	return userID != "" && p.OwnerUserID != nil && *p.OwnerUserID == userID
}

// IsPublic reports whether non-owners may read the profile.
func (p *Profile) IsPublic() bool {
	return p.ProfileVisibility == VisibilityPublic
}

// ProfileView: запис журналу переглядів. Ніколи не змінюється і не видаляється.
// ID генерує snowflake-вузол сховища.
type ProfileView struct {
	ID              int64     `gorm:"primaryKey;autoIncrement:false" json:"id,string"`
	TargetProfileID string    `gorm:"size:36;not null;index" json:"targetProfileId"`
	ViewerUserID    *string   `gorm:"size:36" json:"viewerUserId,omitempty"`
	CreatedAt       time.Time `gorm:"index" json:"createdAt"`
}

// Follow: підписка користувача на профіль, унікальна для пари.
type Follow struct {
	ID              string    `gorm:"primaryKey;size:36" json:"id"`
	FollowerUserID  string    `gorm:"size:36;not null;uniqueIndex:idx_follow_pair" json:"followerUserId"`
	TargetProfileID string    `gorm:"size:36;not null;uniqueIndex:idx_follow_pair;index" json:"targetProfileId"`
	Target          *Profile  `gorm:"foreignKey:TargetProfileID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt       time.Time `json:"createdAt"`
}

func (f *Follow) BeforeCreate(tx *gorm.DB) (err error) {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	return
}
