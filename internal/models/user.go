package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// KYCStatus є лише інформаційним полем, ніде не перевіряється.
type KYCStatus string

const (
	KYCNone     KYCStatus = "none"
	KYCPending  KYCStatus = "pending"
	KYCVerified KYCStatus = "verified"
)

// User представляє зареєстрований обліковий запис.
// Бан реалізовано як м'яке видалення (DeletedAt): рядок лишається,
// тому email та username не звільняються, а відгуки й скарги зберігають автора.
type User struct {
	ID              string         `gorm:"primaryKey;size:36" json:"id"`
	Email           string         `gorm:"uniqueIndex;not null" json:"email"`
	Username        string         `gorm:"uniqueIndex;not null" json:"username"`
	PasswordHash    string         `gorm:"not null" json:"-"`
	FirstName       string         `gorm:"not null" json:"firstName"`
	LastName        string         `gorm:"not null" json:"lastName"`
	PhotoURL        string         `json:"photoUrl,omitempty"`
	Bio             string         `json:"bio,omitempty"`
	Location        string         `json:"location,omitempty"`
	PhoneNumber     string         `json:"phoneNumber,omitempty"`
	PhoneVerified   bool           `gorm:"not null;default:false" json:"phoneVerified"`
	PhoneVerifiedAt *time.Time     `json:"phoneVerifiedAt,omitempty"`
	KYCStatus       KYCStatus      `gorm:"size:16;not null;default:none" json:"kycStatus"`
	Role            Role           `gorm:"size:16;not null;default:user" json:"role"`
	TermsAcceptedAt time.Time      `json:"termsAcceptedAt"`
	CreatedAt       time.Time      `json:"createdAt"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate хук GORM: генерує UUID, нормалізує email та
// виставляє значення за замовчуванням.
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	u.Email = NormalizeEmail(u.Email)
	if u.Role == "" {
		u.Role = RoleUser
	}
	if u.KYCStatus == "" {
		u.KYCStatus = KYCNone
	}
	return
}

// Summary повертає публічну частину користувача для вкладення у відповіді.
func (u *User) Summary() *UserSummary {
	if u == nil {
		return nil
	}
	return &UserSummary{
		ID:            u.ID,
		Username:      u.Username,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		PhoneVerified: u.PhoneVerified,
	}
}

// NormalizeEmail приводить email до форми, в якій він зберігається.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserSummary: те, що інші користувачі бачать про автора відгуку чи скарги.
type UserSummary struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	PhoneVerified bool   `json:"phoneVerified"`
}

// Identity is the caller on whose behalf a core operation runs.
// The zero value is an anonymous caller.
type Identity struct {
	UserID string
	Role   Role
}

// Anonymous returns the identity of an unauthenticated caller.
func Anonymous() Identity {
	return Identity{}
}

// IsAnonymous reports whether no user is attached to the identity.
func (i Identity) IsAnonymous() bool {
	return i.UserID == ""
}

// IsAdmin reports whether the identity carries the admin role.
func (i Identity) IsAdmin() bool {
	return i.UserID != "" && i.Role == RoleAdmin
}

// Analytics summarises a user's activity for their dashboard.
type Analytics struct {
	ProfileViews    int64 `json:"profileViews"`
	ReviewsReceived int64 `json:"reviewsReceived"`
	ReviewsGiven    int64 `json:"reviewsGiven"`
}
