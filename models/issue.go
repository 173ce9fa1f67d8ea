package models

import "time"

const (
	IssueTypePlumbing   = "PLUMBING"
	IssueTypeElectrical = "ELECTRICAL"
	IssueTypeDamage     = "DAMAGE"
	IssueTypeOther      = "OTHER"

	IssueOpen       = "OPEN"
	IssueInProgress = "IN_PROGRESS"
	IssueResolved   = "RESOLVED"
	IssueClosed     = "CLOSED"
)

type Issue struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	BookingID     uint      `gorm:"not null;index" json:"booking"`
	Booking       Booking   `gorm:"foreignKey:BookingID" json:"-"`
	ReportedByID  uint      `gorm:"not null;index" json:"reported_by"`
	ReportedBy    User      `gorm:"foreignKey:ReportedByID" json:"-"`
	IssueType     string    `gorm:"type:varchar(20);not null" json:"issue_type"`
	Description   string    `gorm:"type:text;not null" json:"description"`
	PhotoURL      *string   `gorm:"type:varchar(500)" json:"photo_url"`
	Status        string    `gorm:"type:varchar(15);not null;default:'OPEN'" json:"status"`
	AssignedStaff string    `gorm:"type:varchar(255)" json:"assigned_staff"`
	CreatedAt     time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time `gorm:"not null" json:"updated_at"`
}

// issueOrder encodes the strictly forward lifecycle. A status can only move
// to its immediate successor, never backward and never skipping a step.
var issueOrder = map[string]int{
	IssueOpen:       0,
	IssueInProgress: 1,
	IssueResolved:   2,
	IssueClosed:     3,
}

// CanTransitionIssue reports whether from -> to is a single forward step.
func CanTransitionIssue(from, to string) bool {
	fromIdx, ok := issueOrder[from]
	if !ok {
		return false
	}
	toIdx, ok := issueOrder[to]
	if !ok {
		return false
	}
	return toIdx == fromIdx+1
}
