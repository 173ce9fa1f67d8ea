package models

import "time"

// RefreshToken is a single-use opaque token. On rotation the row is marked
// used and RotatedTo records the replacement, so a replay inside the grace
// window can return the same result instead of failing.
type RefreshToken struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"not null;index"`
	User      User      `gorm:"foreignKey:UserID"`
	Token     string    `gorm:"type:varchar(64);uniqueIndex;not null"`
	IsUsed    bool      `gorm:"not null;default:false"`
	RotatedTo string    `gorm:"type:varchar(64)"`
	UsedAt    *time.Time
	ExpiresAt time.Time `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}
