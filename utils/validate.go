package utils

import (
	"regexp"
	"time"
)

var (
	StudentIDPattern = regexp.MustCompile(`^AIU\d{8}$`)
	BlockPattern     = regexp.MustCompile(`^\d{2}[A-Z]$`)
	RoomPattern      = regexp.MustCompile(`^\d{2}[A-Z]-\d{2}-\d{2}$`)
	PhonePattern     = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)
	OTPPattern       = regexp.MustCompile(`^\d{6}$`)
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// ValidSlotTime reports whether value is a 30-minute slot between 08:00 and
// 23:30 inclusive.
func ValidSlotTime(value string) bool {
	t, err := time.Parse(TimeLayout, value)
	if err != nil {
		return false
	}
	if t.Hour() < 8 {
		return false
	}
	return t.Minute() == 0 || t.Minute() == 30
}

// ParseDate parses a wire-format date ("2006-01-02") in local time so it
// compares cleanly against Today.
func ParseDate(value string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, value, time.Local)
}

// Today returns today's date truncated to midnight local time.
func Today() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}
