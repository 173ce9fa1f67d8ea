package models

import "strings"

type CleanerProfile struct {
	ID      uint   `gorm:"primaryKey" json:"-"`
	UserID  uint   `gorm:"uniqueIndex;not null" json:"-"`
	StaffID string `gorm:"type:varchar(50);unique;not null" json:"staff_id"`
	Phone   string `gorm:"type:varchar(20);not null" json:"phone"`
	// Comma-separated block codes, e.g. "25E,26F"
	AssignedBlocks string `gorm:"type:varchar(255)" json:"assigned_blocks"`
	IsActive       bool   `gorm:"not null;default:true" json:"is_active"`
}

// Blocks splits AssignedBlocks into individual block codes.
func (cp *CleanerProfile) Blocks() []string {
	if cp.AssignedBlocks == "" {
		return nil
	}
	parts := strings.Split(cp.AssignedBlocks, ",")
	blocks := make([]string, 0, len(parts))
	for _, p := range parts {
		if b := strings.TrimSpace(p); b != "" {
			blocks = append(blocks, b)
		}
	}
	return blocks
}
