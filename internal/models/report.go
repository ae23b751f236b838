package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReportStatus string

const (
	ReportOpen   ReportStatus = "open"
	ReportClosed ReportStatus = "closed"
)

// Report: скарга на відгук. Дублікати дозволені: кожна скарга окремий тікет.
type Report struct {
	ID             string       `gorm:"primaryKey;size:36" json:"id"`
	ReporterUserID string       `gorm:"size:36;not null;index" json:"reporterUserId"`
	Reporter       *User        `gorm:"foreignKey:ReporterUserID;constraint:OnDelete:RESTRICT" json:"-"`
	ReviewID       string       `gorm:"size:36;not null;index" json:"reviewId"`
	Review         *Review      `gorm:"foreignKey:ReviewID;constraint:OnDelete:RESTRICT" json:"-"`
	Reason         string       `gorm:"not null" json:"reason"`
	Status         ReportStatus `gorm:"size:16;not null;index" json:"status"`
	ClosedByUserID *string      `gorm:"size:36" json:"closedByUserId,omitempty"`
	ClosedAt       *time.Time   `json:"closedAt,omitempty"`
	CreatedAt      time.Time    `json:"createdAt"`
}

func (r *Report) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.Status == "" {
		r.Status = ReportOpen
	}
	return
}

// OpenReport is an open ticket joined with the review and the reporter.
type OpenReport struct {
	Report   Report      `json:"report"`
	Review   Review      `json:"review"`
	Reporter UserSummary `json:"reporter"`
}
