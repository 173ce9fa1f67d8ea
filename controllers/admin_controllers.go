package controllers

import (
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/CyberMehedi/F-Year/events"
	"github.com/CyberMehedi/F-Year/models"
	"github.com/CyberMehedi/F-Year/utils"
)

type AdminController struct {
	DB *gorm.DB
}

func NewAdminController(db *gorm.DB) *AdminController {
	return &AdminController{DB: db}
}

// DashboardStats aggregates the operational overview shown on the admin
// dashboard and pushes a copy to connected admin sockets.
func (ac *AdminController) DashboardStats(c *gin.Context) {
	now := time.Now()
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	weekday := int(now.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	weekStart := todayStart.AddDate(0, 0, -(weekday - 1))

	bookings := ac.DB.Model(&models.Booking{}).Session(&gorm.Session{})

	var bookingsToday, bookingsWeek, pendingBookings, activeBookings int64
	bookings.Where("created_at >= ?", todayStart).Count(&bookingsToday)
	bookings.Where("created_at >= ?", weekStart).Count(&bookingsWeek)
	bookings.Where("status IN ?", []string{models.StatusPending, models.StatusWaitingForCleaner}).
		Count(&pendingBookings)
	bookings.Where("status IN ?", []string{models.StatusAssigned, models.StatusInProgress}).
		Count(&activeBookings)

	var completedBookings, cancelledBookings int64
	bookings.Where("status = ?", models.StatusCompleted).Count(&completedBookings)
	bookings.Where("status = ?", models.StatusCancelled).Count(&cancelledBookings)

	var totalStudents, activeCleaners, openIssues int64
	ac.DB.Model(&models.User{}).Where("role = ?", models.RoleStudent).Count(&totalStudents)
	ac.DB.Model(&models.CleanerProfile{}).Where("is_active = ?", true).Count(&activeCleaners)
	ac.DB.Model(&models.Issue{}).
		Where("status IN ?", []string{models.IssueOpen, models.IssueInProgress}).
		Count(&openIssues)

	var revenue int64
	ac.DB.Model(&models.Booking{}).
		Where("payment_status = ?", models.PaymentPaid).
		Select("COALESCE(SUM(price), 0)").Scan(&revenue)

	type typeCount struct {
		BookingType string `json:"booking_type"`
		Count       int64  `json:"count"`
	}
	var distribution []typeCount
	ac.DB.Model(&models.Booking{}).
		Select("booking_type, COUNT(*) as count").
		Group("booking_type").
		Scan(&distribution)

	stats := gin.H{
		"bookings_today":     bookingsToday,
		"bookings_this_week": bookingsWeek,
		"pending_bookings":   pendingBookings,
		"active_bookings":    activeBookings,
		"completed_bookings": completedBookings,
		"cancelled_bookings": cancelledBookings,
		"total_students":     totalStudents,
		"active_cleaners":    activeCleaners,
		"open_issues":        openIssues,
		"total_revenue":      revenue,
		"booking_types":      distribution,
	}

	events.BroadcastDashboardUpdate(stats)
	utils.RespondJSON(c, http.StatusOK, "Dashboard statistics", stats)
}

// CleanersList returns every cleaner account with its profile.
func (ac *AdminController) CleanersList(c *gin.Context) {
	var cleaners []models.User
	if err := ac.DB.Preload("CleanerProfile").
		Where("role = ?", models.RoleCleaner).
		Order("name ASC").
		Find(&cleaners).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "List of cleaners", cleaners)
}

type rankedCleaner struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	StaffID     string `json:"staff_id"`
	ActiveTasks int64  `json:"active_tasks"`
	TodayTasks  int64  `json:"today_tasks"`
}

// AvailableCleaners ranks active cleaners by current workload so the admin
// can pick the least loaded one when assigning a booking. Ties break on
// today's task count, then on id for a stable order.
func (ac *AdminController) AvailableCleaners(c *gin.Context) {
	var cleaners []models.User
	if err := ac.DB.Preload("CleanerProfile").
		Joins("JOIN cleaner_profiles ON cleaner_profiles.user_id = users.id").
		Where("users.role = ? AND cleaner_profiles.is_active = ?", models.RoleCleaner, true).
		Find(&cleaners).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	today := utils.Today().Format(utils.DateLayout)
	ranked := make([]rankedCleaner, 0, len(cleaners))
	for _, cl := range cleaners {
		rc := rankedCleaner{ID: cl.ID, Name: cl.Name, Email: cl.Email}
		if cl.CleanerProfile != nil {
			rc.StaffID = cl.CleanerProfile.StaffID
		}
		ac.DB.Model(&models.Booking{}).
			Where("assigned_cleaner_id = ? AND status IN ?", cl.ID,
				[]string{models.StatusAssigned, models.StatusInProgress}).
			Count(&rc.ActiveTasks)
		ac.DB.Model(&models.Booking{}).
			Where("assigned_cleaner_id = ? AND preferred_date = ? AND status NOT IN ?", cl.ID,
				today, []string{models.StatusCancelled}).
			Count(&rc.TodayTasks)
		ranked = append(ranked, rc)
	}

	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.ActiveTasks != b.ActiveTasks {
			return a.ActiveTasks < b.ActiveTasks
		}
		if a.TodayTasks != b.TodayTasks {
			return a.TodayTasks < b.TodayTasks
		}
		return a.ID < b.ID
	})

	utils.RespondJSON(c, http.StatusOK, "Available cleaners", ranked)
}

// ToggleCleanerStatus flips a cleaner between active and inactive. Inactive
// cleaners stop receiving new booking notifications and drop out of the
// available list; their existing assignments are untouched.
func (ac *AdminController) ToggleCleanerStatus(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("cleaner_id"))

	var profile models.CleanerProfile
	if err := ac.DB.Where("user_id = ?", id).First(&profile).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	newState := !profile.IsActive
	if err := ac.DB.Model(&profile).Update("is_active", newState).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	profile.IsActive = newState

	utils.InfoLogger.Printf("Cleaner %d active=%t", id, newState)
	utils.RespondJSON(c, http.StatusOK, "Cleaner status updated", profile)
}

// PaymentReceipts lists completed, paid bookings for reconciliation.
func (ac *AdminController) PaymentReceipts(c *gin.Context) {
	var bookings []models.Booking
	if err := ac.DB.Where("status = ? AND payment_status = ?",
		models.StatusCompleted, models.PaymentPaid).
		Order("updated_at DESC").
		Find(&bookings).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Payment receipts", bookings)
}
