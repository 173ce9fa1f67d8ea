package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/CyberMehedi/F-Year/events"
	"github.com/CyberMehedi/F-Year/models"
	"github.com/CyberMehedi/F-Year/services"
	"github.com/CyberMehedi/F-Year/utils"
)

type CleanerController struct {
	DB       *gorm.DB
	Notifier *services.Notifier
}

func NewCleanerController(db *gorm.DB) *CleanerController {
	return &CleanerController{DB: db, Notifier: services.NewNotifier(db)}
}

// NewRequests lists bookings waiting for a cleaner to accept, soonest slot
// first.
func (cc *CleanerController) NewRequests(c *gin.Context) {
	var bookings []models.Booking
	if err := cc.DB.Where("status = ?", models.StatusWaitingForCleaner).
		Order("preferred_date ASC, preferred_time ASC").
		Find(&bookings).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "New cleaning requests", bookings)
}

// AcceptBooking is the pull path: first cleaner to commit wins. The
// conditional update is the whole race arbiter — no read-then-write.
func (cc *CleanerController) AcceptBooking(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("booking_id"))
	userID := c.GetUint("user_id")

	// Only active cleaners are eligible to pull work. Deactivation takes
	// effect immediately, not just at the next login.
	var cleaner models.User
	if err := cc.DB.Preload("CleanerProfile").First(&cleaner, userID).Error; err != nil {
		utils.RespondError(c, http.StatusForbidden, ErrNoPermission)
		return
	}
	if !cleaner.IsActive || cleaner.CleanerProfile == nil || !cleaner.CleanerProfile.IsActive {
		utils.RespondError(c, http.StatusForbidden,
			errors.New("inactive cleaners cannot accept bookings"))
		return
	}

	var booking models.Booking
	if err := cc.DB.First(&booking, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	res := cc.DB.Model(&models.Booking{}).
		Where("id = ? AND status IN ? AND assigned_cleaner_id IS NULL", booking.ID,
			[]string{models.StatusPending, models.StatusWaitingForCleaner}).
		Updates(map[string]interface{}{
			"status":              models.StatusAssigned,
			"assigned_cleaner_id": userID,
		})
	if res.Error != nil {
		utils.RespondError(c, http.StatusInternalServerError, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		utils.RespondError(c, http.StatusConflict,
			&models.AlreadyAssignedError{BookingID: booking.ID})
		return
	}

	cc.DB.First(&booking, booking.ID)

	cc.Notifier.BookingAccepted(booking, cleaner)
	events.BroadcastBookingUpdate(booking)

	utils.InfoLogger.Printf("Cleaner %d accepted booking %d", userID, booking.ID)

	utils.RespondJSON(c, http.StatusOK, "Booking accepted", booking)
}

// TodayTasks lists the cleaner's active tasks scheduled for today.
func (cc *CleanerController) TodayTasks(c *gin.Context) {
	userID := c.GetUint("user_id")
	today := time.Now().Format(utils.DateLayout)

	var bookings []models.Booking
	if err := cc.DB.Where("assigned_cleaner_id = ? AND preferred_date = ? AND status IN ?",
		userID, today, []string{models.StatusAssigned, models.StatusInProgress}).
		Order("preferred_time ASC").
		Find(&bookings).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Today's tasks", bookings)
}

// AllTasks lists everything ever assigned to the cleaner.
func (cc *CleanerController) AllTasks(c *gin.Context) {
	userID := c.GetUint("user_id")

	var bookings []models.Booking
	if err := cc.DB.Where("assigned_cleaner_id = ?", userID).
		Order("preferred_date DESC, preferred_time DESC").
		Find(&bookings).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "All tasks", bookings)
}

// History lists the cleaner's completed tasks.
func (cc *CleanerController) History(c *gin.Context) {
	userID := c.GetUint("user_id")

	var bookings []models.Booking
	if err := cc.DB.Where("assigned_cleaner_id = ? AND status = ?",
		userID, models.StatusCompleted).
		Order("updated_at DESC").
		Find(&bookings).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Completed tasks", bookings)
}

// Stats summarizes the cleaner's completed work for today, this week and
// this month, plus type distribution and open issues.
func (cc *CleanerController) Stats(c *gin.Context) {
	userID := c.GetUint("user_id")

	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	weekday := int(today.Weekday())
	if weekday == 0 {
		weekday = 7 // Monday-based week
	}
	weekStart := today.AddDate(0, 0, -(weekday - 1))
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	var stats struct {
		CompletedToday   int64 `json:"completed_today"`
		CompletedWeek    int64 `json:"completed_week"`
		CompletedMonth   int64 `json:"completed_month"`
		TypeDistribution []struct {
			BookingType string `json:"booking_type"`
			Count       int64  `json:"count"`
		} `json:"type_distribution"`
		PendingIssues int64 `json:"pending_issues"`
	}

	completed := cc.DB.Model(&models.Booking{}).
		Where("assigned_cleaner_id = ? AND status = ?", userID, models.StatusCompleted).
		Session(&gorm.Session{})

	completed.Where("updated_at >= ?", today).Count(&stats.CompletedToday)
	completed.Where("updated_at >= ?", weekStart).Count(&stats.CompletedWeek)
	completed.Where("updated_at >= ?", monthStart).Count(&stats.CompletedMonth)

	cc.DB.Model(&models.Booking{}).
		Select("booking_type, COUNT(*) as count").
		Where("assigned_cleaner_id = ? AND status = ?", userID, models.StatusCompleted).
		Group("booking_type").
		Scan(&stats.TypeDistribution)

	cc.DB.Model(&models.Issue{}).
		Where("reported_by_id = ? AND status = ?", userID, models.IssueOpen).
		Count(&stats.PendingIssues)

	utils.RespondJSON(c, http.StatusOK, "Cleaner statistics", stats)
}
