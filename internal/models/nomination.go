package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Nomination: запрошення для людини, якої ще немає на платформі.
// Створюється разом із незаявленим профілем; токен одноразовий.
type Nomination struct {
	ID                  string     `gorm:"primaryKey;size:36" json:"id"`
	NominatorUserID     string     `gorm:"size:36;not null;index" json:"nominatorUserId"`
	Nominator           *User      `gorm:"foreignKey:NominatorUserID;constraint:OnDelete:RESTRICT" json:"-"`
	TargetFirstName     string     `gorm:"not null" json:"targetFirstName"`
	TargetLastName      string     `gorm:"not null" json:"targetLastName"`
	ContactEmailOrPhone string     `gorm:"not null" json:"contactEmailOrPhone"`
	InviteToken         string     `gorm:"size:64;not null;uniqueIndex" json:"inviteToken"`
	Accepted            bool       `gorm:"not null;default:false" json:"accepted"`
	AcceptedByUserID    *string    `gorm:"size:36" json:"acceptedByUserId,omitempty"`
	AcceptedAt          *time.Time `json:"acceptedAt,omitempty"`
	ProfileID           string     `gorm:"size:36;not null;index" json:"profileId"`
	Profile             *Profile   `gorm:"foreignKey:ProfileID;constraint:OnDelete:RESTRICT" json:"-"`
	CreatedAt           time.Time  `json:"createdAt"`
}

func (n *Nomination) BeforeCreate(tx *gorm.DB) (err error) {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	return
}

// NominationSummary is the part of a nomination shown to whoever holds the
// invite link. The nominee's contact stays with the nominator.
type NominationSummary struct {
	ID              string     `json:"id"`
	TargetFirstName string     `json:"targetFirstName"`
	TargetLastName  string     `json:"targetLastName"`
	Accepted        bool       `json:"accepted"`
	AcceptedAt      *time.Time `json:"acceptedAt,omitempty"`
	ProfileID       string     `json:"profileId"`
	CreatedAt       time.Time  `json:"createdAt"`
}

func (n *Nomination) Summary() NominationSummary {
	return NominationSummary{
		ID:              n.ID,
		TargetFirstName: n.TargetFirstName,
		TargetLastName:  n.TargetLastName,
		Accepted:        n.Accepted,
		AcceptedAt:      n.AcceptedAt,
		ProfileID:       n.ProfileID,
		CreatedAt:       n.CreatedAt,
	}
}

// NominationLanding is what an invite link resolves to.
type NominationLanding struct {
	Nomination NominationSummary `json:"nomination"`
	Profile    Profile           `json:"profile"`
	Nominator  *UserSummary      `json:"nominator"`
}
