package services

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/CyberMehedi/F-Year/events"
	"github.com/CyberMehedi/F-Year/models"
	"github.com/CyberMehedi/F-Year/utils"
)

// Notifier creates in-app notifications as a side effect of booking and
// issue mutations and pushes them over the event hub. Delivery is
// fire-and-forget: a failed insert is logged, never surfaced to the caller.
type Notifier struct {
	DB *gorm.DB
}

func NewNotifier(db *gorm.DB) *Notifier {
	return &Notifier{DB: db}
}

func (n *Notifier) notify(userID uint, title, message, notifType string, bookingID *uint) {
	notif := models.Notification{
		UserID:           userID,
		Title:            title,
		Message:          message,
		NotificationType: notifType,
		BookingID:        bookingID,
	}
	if err := n.DB.Create(&notif).Error; err != nil {
		utils.ErrorLogger.Printf("Failed to create notification for user %d: %v", userID, err)
		return
	}
	events.BroadcastNotification(notif)
}

// Welcome greets a freshly registered user.
func (n *Notifier) Welcome(user models.User) {
	message := "Your account has been created successfully. You can now book cleaning services for your room."
	if user.Role == models.RoleCleaner {
		message = "Your cleaner account has been created successfully. You will receive task assignments from admin."
	}
	n.notify(user.ID, "Welcome to AIU Hostel Cleaning Service", message, models.NotifGeneral, nil)
}

// BookingCreated fans out the new request to every active cleaner and
// confirms creation to the student.
func (n *Notifier) BookingCreated(booking models.Booking, cleaners []models.User) {
	for _, cleaner := range cleaners {
		n.notify(cleaner.ID, "New Cleaning Request Available",
			fmt.Sprintf("New %s request for %s - %s on %s at %s. Be the first to accept!",
				booking.BookingType, booking.Block, booking.RoomNumber, booking.PreferredDate, booking.PreferredTime),
			models.NotifNewBooking, &booking.ID)
	}

	n.notify(booking.StudentID, "Booking Created Successfully",
		fmt.Sprintf("Your %s booking for %s at %s has been created. Waiting for a cleaner to accept.",
			booking.BookingType, booking.PreferredDate, booking.PreferredTime),
		models.NotifGeneral, &booking.ID)
}

// CleanerAssigned notifies both sides of an admin push assignment. When the
// booking is reassigned, the previous cleaner is told as well.
func (n *Notifier) CleanerAssigned(booking models.Booking, cleaner models.User, previousCleanerID *uint) {
	n.notify(booking.StudentID, "Cleaner Assigned by Admin",
		fmt.Sprintf("Admin has assigned cleaner %s to your %s booking for %s at %s.",
			cleaner.Name, booking.BookingType, booking.PreferredDate, booking.PreferredTime),
		models.NotifBookingAccepted, &booking.ID)

	n.notify(cleaner.ID, "New Task Assigned by Admin",
		fmt.Sprintf("You have been assigned a %s task for %s - %s on %s at %s.",
			booking.BookingType, booking.Block, booking.RoomNumber, booking.PreferredDate, booking.PreferredTime),
		models.NotifBookingAccepted, &booking.ID)

	if previousCleanerID != nil && *previousCleanerID != cleaner.ID {
		n.notify(*previousCleanerID, "Task Reassigned",
			fmt.Sprintf("The %s task for %s - %s on %s has been reassigned to another cleaner.",
				booking.BookingType, booking.Block, booking.RoomNumber, booking.PreferredDate),
			models.NotifGeneral, &booking.ID)
	}

	n.withdrawNewBookingNotifications(booking.ID, 0)
}

// BookingAccepted notifies only the booking owner after a cleaner pull
// accept, and withdraws the stale NEW_BOOKING fanout for everyone else.
func (n *Notifier) BookingAccepted(booking models.Booking, cleaner models.User) {
	n.notify(booking.StudentID, "Cleaner Accepted Your Request",
		fmt.Sprintf("Cleaner %s has accepted your %s request for %s at %s.",
			cleaner.Name, booking.BookingType, booking.PreferredDate, booking.PreferredTime),
		models.NotifBookingAccepted, &booking.ID)

	n.withdrawNewBookingNotifications(booking.ID, cleaner.ID)

	// The winner's own fanout entry becomes an acceptance record.
	n.DB.Model(&models.Notification{}).
		Where("booking_id = ? AND user_id = ? AND notification_type = ?",
			booking.ID, cleaner.ID, models.NotifNewBooking).
		Updates(map[string]interface{}{
			"title":   "Task Accepted",
			"message": fmt.Sprintf("You accepted the %s task for %s - %s.", booking.BookingType, booking.Block, booking.RoomNumber),
			"is_read": true,
		})
}

// StatusChanged tells the student their booking moved.
func (n *Notifier) StatusChanged(booking models.Booking, oldStatus, newStatus string) {
	notifType := models.NotifGeneral
	if newStatus == models.StatusCompleted {
		notifType = models.NotifBookingCompleted
	}
	n.notify(booking.StudentID, "Booking Status Updated",
		fmt.Sprintf("Your booking status has been updated from %s to %s.", oldStatus, newStatus),
		notifType, &booking.ID)
}

// PaymentReceived tells the assigned cleaner the student has paid.
func (n *Notifier) PaymentReceived(booking models.Booking) {
	if booking.AssignedCleanerID == nil {
		return
	}
	n.notify(*booking.AssignedCleanerID, "Payment Received",
		fmt.Sprintf("Payment for the %s booking at %s - %s has been completed.",
			booking.BookingType, booking.Block, booking.RoomNumber),
		models.NotifGeneral, &booking.ID)
}

// IssueReported alerts every active admin.
func (n *Notifier) IssueReported(issue models.Issue, reporter models.User, admins []models.User) {
	for _, admin := range admins {
		n.notify(admin.ID, "New Issue Reported",
			fmt.Sprintf("A %s issue has been reported by %s for booking #%d.",
				issue.IssueType, reporter.Name, issue.BookingID),
			models.NotifGeneral, &issue.BookingID)
	}
}

// IssueStatusChanged tells the reporter their issue moved.
func (n *Notifier) IssueStatusChanged(issue models.Issue) {
	n.notify(issue.ReportedByID, "Issue Status Updated",
		fmt.Sprintf("The %s issue you reported has been updated to %s.", issue.IssueType, issue.Status),
		models.NotifGeneral, &issue.BookingID)
}

// withdrawNewBookingNotifications removes the NEW_BOOKING fanout once a
// booking is no longer up for grabs. keepUserID is spared (0 keeps nobody).
func (n *Notifier) withdrawNewBookingNotifications(bookingID uint, keepUserID uint) {
	q := n.DB.Where("booking_id = ? AND notification_type = ?", bookingID, models.NotifNewBooking)
	if keepUserID != 0 {
		q = q.Where("user_id != ?", keepUserID)
	}
	if err := q.Delete(&models.Notification{}).Error; err != nil {
		utils.ErrorLogger.Printf("Failed to withdraw notifications for booking %d: %v", bookingID, err)
	}
}
