package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/CyberMehedi/F-Year/events"
	"github.com/CyberMehedi/F-Year/models"
	"github.com/CyberMehedi/F-Year/services"
	"github.com/CyberMehedi/F-Year/utils"
)

type IssueController struct {
	DB       *gorm.DB
	Notifier *services.Notifier
}

func NewIssueController(db *gorm.DB) *IssueController {
	return &IssueController{DB: db, Notifier: services.NewNotifier(db)}
}

// GetAllIssues lists issues scoped by role: admins see all, cleaners their
// own reports, students issues on their bookings.
func (ic *IssueController) GetAllIssues(c *gin.Context) {
	userID := c.GetUint("user_id")

	query := ic.DB.Model(&models.Issue{})
	switch c.GetString("role") {
	case models.RoleAdmin:
	case models.RoleCleaner:
		query = query.Where("reported_by_id = ?", userID)
	case models.RoleStudent:
		query = query.Joins("JOIN bookings ON bookings.id = issues.booking_id").
			Where("bookings.student_id = ?", userID)
	default:
		utils.RespondError(c, http.StatusForbidden, ErrNoPermission)
		return
	}

	var issues []models.Issue
	if err := query.Order("issues.created_at DESC").Find(&issues).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "List of issues", issues)
}

// CreateIssue files a maintenance ticket. The reporter must be the cleaner
// assigned to the booking, now or historically.
func (ic *IssueController) CreateIssue(c *gin.Context) {
	userID := c.GetUint("user_id")
	if c.GetString("role") != models.RoleCleaner {
		utils.RespondError(c, http.StatusForbidden, errors.New("only cleaners can report issues"))
		return
	}

	type request struct {
		BookingID   uint    `json:"booking" binding:"required"`
		IssueType   string  `json:"issue_type" binding:"required"`
		Description string  `json:"description" binding:"required"`
		PhotoURL    *string `json:"photo_url"`
	}
	var req request
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	switch req.IssueType {
	case models.IssueTypePlumbing, models.IssueTypeElectrical, models.IssueTypeDamage, models.IssueTypeOther:
	default:
		utils.RespondValidationError(c, utils.FieldErrors{
			"issue_type": "Issue type must be PLUMBING, ELECTRICAL, DAMAGE or OTHER.",
		})
		return
	}

	var booking models.Booking
	if err := ic.DB.First(&booking, req.BookingID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("booking not found"))
		return
	}

	if booking.AssignedCleanerID == nil || *booking.AssignedCleanerID != userID {
		utils.RespondError(c, http.StatusForbidden,
			errors.New("you can only report issues for bookings assigned to you"))
		return
	}

	issue := models.Issue{
		BookingID:    booking.ID,
		ReportedByID: userID,
		IssueType:    req.IssueType,
		Description:  req.Description,
		PhotoURL:     req.PhotoURL,
		Status:       models.IssueOpen,
	}
	if err := ic.DB.Create(&issue).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	var reporter models.User
	ic.DB.First(&reporter, userID)
	var admins []models.User
	ic.DB.Where("role = ? AND is_active = ?", models.RoleAdmin, true).Find(&admins)
	ic.Notifier.IssueReported(issue, reporter, admins)

	utils.InfoLogger.Printf("Issue %d (%s) reported by cleaner %d for booking %d",
		issue.ID, issue.IssueType, userID, booking.ID)

	utils.RespondJSON(c, http.StatusCreated, "Issue reported", issue)
}

// GetIssueByID returns one issue with the same scoping as the list.
func (ic *IssueController) GetIssueByID(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("issue_id"))
	userID := c.GetUint("user_id")

	var issue models.Issue
	if err := ic.DB.Preload("Booking").First(&issue, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	switch c.GetString("role") {
	case models.RoleAdmin:
	case models.RoleCleaner:
		if issue.ReportedByID != userID {
			utils.RespondError(c, http.StatusForbidden, ErrNoPermission)
			return
		}
	case models.RoleStudent:
		if issue.Booking.StudentID != userID {
			utils.RespondError(c, http.StatusForbidden, ErrNoPermission)
			return
		}
	}

	utils.RespondJSON(c, http.StatusOK, "Issue detail", issue)
}

// UpdateStatus advances the issue lifecycle one step forward. Admin only;
// backward and skip attempts are rejected.
func (ic *IssueController) UpdateStatus(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("issue_id"))

	var input struct {
		Status        string  `json:"status" binding:"required"`
		AssignedStaff *string `json:"assigned_staff"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var issue models.Issue
	if err := ic.DB.First(&issue, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	if !models.CanTransitionIssue(issue.Status, input.Status) {
		utils.RespondError(c, http.StatusConflict,
			&models.InvalidTransitionError{From: issue.Status, To: input.Status})
		return
	}

	updates := map[string]interface{}{"status": input.Status}
	if input.AssignedStaff != nil {
		updates["assigned_staff"] = *input.AssignedStaff
	}

	res := ic.DB.Model(&models.Issue{}).
		Where("id = ? AND status = ?", issue.ID, issue.Status).
		Updates(updates)
	if res.Error != nil {
		utils.RespondError(c, http.StatusInternalServerError, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		utils.RespondError(c, http.StatusConflict,
			&models.InvalidTransitionError{From: issue.Status, To: input.Status})
		return
	}

	ic.DB.First(&issue, issue.ID)
	ic.Notifier.IssueStatusChanged(issue)
	events.BroadcastIssueUpdate(issue)

	utils.RespondJSON(c, http.StatusOK, "Issue status updated", issue)
}
