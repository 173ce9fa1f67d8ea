package models

type StudentProfile struct {
	ID         uint   `gorm:"primaryKey" json:"-"`
	UserID     uint   `gorm:"uniqueIndex;not null" json:"-"`
	StudentID  string `gorm:"type:varchar(20);unique;not null" json:"student_id"`
	Block      string `gorm:"type:varchar(10);not null" json:"block"`
	RoomNumber string `gorm:"type:varchar(20);not null" json:"room_number"`
	Phone      string `gorm:"type:varchar(20)" json:"phone"`
}
