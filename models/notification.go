package models

import "time"

const (
	NotifNewBooking       = "NEW_BOOKING"
	NotifBookingAccepted  = "BOOKING_ACCEPTED"
	NotifBookingCompleted = "BOOKING_COMPLETED"
	NotifGeneral          = "GENERAL"
)

type Notification struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	UserID           uint      `gorm:"not null;index" json:"user"`
	User             User      `gorm:"foreignKey:UserID" json:"-"`
	Title            string    `gorm:"type:varchar(255);not null" json:"title"`
	Message          string    `gorm:"type:text;not null" json:"message"`
	NotificationType string    `gorm:"type:varchar(20);not null;default:'GENERAL'" json:"notification_type"`
	BookingID        *uint     `gorm:"index" json:"booking"`
	IsRead           bool      `gorm:"not null;default:false" json:"is_read"`
	CreatedAt        time.Time `gorm:"not null" json:"created_at"`
}
