package models

import (
	"fmt"
	"time"
)

const (
	BookingTypeStandard = "STANDARD"
	BookingTypeDeep     = "DEEP"

	PriceStandard = 20
	PriceDeep     = 30

	UrgencyNormal = "NORMAL"
	UrgencyUrgent = "URGENT"

	StatusPending           = "PENDING"
	StatusWaitingForCleaner = "WAITING_FOR_CLEANER"
	StatusAssigned          = "ASSIGNED"
	StatusInProgress        = "IN_PROGRESS"
	StatusCompleted         = "COMPLETED"
	StatusCancelled         = "CANCELLED"

	PaymentPending = "PENDING"
	PaymentPaid    = "PAID"

	PaymentMethodOffline = "OFFLINE"
	PaymentMethodOnline  = "ONLINE"
)

type Booking struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	StudentID   uint   `gorm:"not null;index" json:"student"`
	Student     User   `gorm:"foreignKey:StudentID" json:"-"`
	BookingType string `gorm:"type:varchar(10);not null" json:"booking_type"`
	// Dates and slots travel as strings on the wire ("2006-01-02", "15:04").
	PreferredDate       string    `gorm:"type:varchar(10);not null" json:"preferred_date"`
	PreferredTime       string    `gorm:"type:varchar(5);not null" json:"preferred_time"`
	UrgencyLevel        string    `gorm:"type:varchar(10);not null;default:'NORMAL'" json:"urgency_level"`
	SpecialInstructions string    `gorm:"type:text" json:"special_instructions"`
	Block               string    `gorm:"type:varchar(10);not null" json:"block"`
	RoomNumber          string    `gorm:"type:varchar(20);not null" json:"room_number"`
	Status              string    `gorm:"type:varchar(25);not null;default:'PENDING';index" json:"status"`
	AssignedCleanerID   *uint     `gorm:"index" json:"assigned_cleaner"`
	AssignedCleaner     *User     `gorm:"foreignKey:AssignedCleanerID" json:"-"`
	Price               int       `gorm:"not null" json:"price"`
	PaymentStatus       string    `gorm:"type:varchar(10);not null;default:'PENDING'" json:"payment_status"`
	PaymentMethod       *string   `gorm:"type:varchar(10)" json:"payment_method"`
	PaymentReceipt      *string   `gorm:"type:varchar(500)" json:"payment_receipt"`
	CreatedAt           time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt           time.Time `gorm:"not null" json:"updated_at"`
}

// PriceForType derives the booking price from its type. The price is fixed
// at creation and never taken from the client.
func PriceForType(bookingType string) int {
	if bookingType == BookingTypeDeep {
		return PriceDeep
	}
	return PriceStandard
}

var bookingTransitions = map[string][]string{
	StatusPending:           {StatusWaitingForCleaner, StatusAssigned, StatusCancelled},
	StatusWaitingForCleaner: {StatusAssigned, StatusCancelled},
	StatusAssigned:          {StatusInProgress, StatusCancelled},
	StatusInProgress:        {StatusCompleted},
	StatusCompleted:         {},
	StatusCancelled:         {},
}

// CanTransition reports whether the booking state machine allows from -> to.
func CanTransition(from, to string) bool {
	for _, next := range bookingTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminalStatus reports whether the status admits no further transitions.
func IsTerminalStatus(status string) bool {
	return status == StatusCompleted || status == StatusCancelled
}

// InvalidTransitionError is returned when a status change is not allowed by
// the state machine, or the booking moved under the caller's feet.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %s to %s", e.From, e.To)
}

// AlreadyAssignedError is returned to the loser of the pull-assignment race
// so clients can refresh instead of treating it as fatal.
type AlreadyAssignedError struct {
	BookingID uint
}

func (e *AlreadyAssignedError) Error() string {
	return fmt.Sprintf("booking %d has already been accepted by another cleaner", e.BookingID)
}

// InvalidPaymentStateError is returned when payment preconditions are unmet.
type InvalidPaymentStateError struct {
	Reason string
}

func (e *InvalidPaymentStateError) Error() string {
	return e.Reason
}
