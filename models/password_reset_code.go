package models

import "time"

// PasswordResetCode stores 6-digit OTP codes for the forgot-password flow.
// Codes expire after 10 minutes and are single-use.
type PasswordResetCode struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"not null;index"`
	User      User      `gorm:"foreignKey:UserID"`
	Code      string    `gorm:"type:varchar(6);not null"`
	IsUsed    bool      `gorm:"not null;default:false"`
	ExpiresAt time.Time `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func (prc *PasswordResetCode) IsExpired() bool {
	return time.Now().After(prc.ExpiresAt)
}

func (prc *PasswordResetCode) IsValid() bool {
	return !prc.IsUsed && !prc.IsExpired()
}
