package models

import "time"

const (
	RoleStudent = "STUDENT"
	RoleCleaner = "CLEANER"
	RoleAdmin   = "ADMIN"
)

type User struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	Name           string          `gorm:"type:varchar(255);not null" json:"name"`
	Email          string          `gorm:"type:varchar(255);unique;not null" json:"email"`
	Password       string          `gorm:"type:varchar(255);not null" json:"-"`
	Role           string          `gorm:"type:varchar(10);not null" json:"role"`
	PhoneNumber    *string         `gorm:"type:varchar(20)" json:"phone_number,omitempty"`
	IsActive       bool            `gorm:"not null;default:true" json:"is_active"`
	StudentProfile *StudentProfile `gorm:"foreignKey:UserID" json:"student_profile,omitempty"`
	CleanerProfile *CleanerProfile `gorm:"foreignKey:UserID" json:"cleaner_profile,omitempty"`
	CreatedAt      time.Time       `json:"date_joined"`
	UpdatedAt      time.Time       `json:"-"`
}
